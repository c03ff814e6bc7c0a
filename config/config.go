// Package config loads service configuration: defaults, then an optional YAML file,
// then CROWDFUND_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"crowdfund_dao/contract/dao"
	"crowdfund_dao/sdk"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "CROWDFUND_"

type Config struct {
	LogLevel  string `yaml:"log_level"  env:"LOG_LEVEL"`
	StatePath string `yaml:"state_path" env:"STATE_PATH"`

	DAO        DAO        `yaml:"dao"        envPrefix:"DAO_"`
	HTTP       HTTP       `yaml:"http"       envPrefix:"HTTP_"`
	Automation Automation `yaml:"automation" envPrefix:"AUTOMATION_"`
	NATS       NATS       `yaml:"nats"       envPrefix:"NATS_"`
}

// DAO is the deployment config of the engine. It is fixed once state exists.
type DAO struct {
	Owner                 string        `yaml:"owner"                    env:"OWNER"`
	DaoPercentage         uint32        `yaml:"dao_percentage"           env:"PERCENTAGE"`
	StakeholderThreshold  float64       `yaml:"stakeholder_threshold"    env:"STAKEHOLDER_THRESHOLD"`
	VotingPeriod          time.Duration `yaml:"voting_period"            env:"VOTING_PERIOD"`
	QuorumPercentage      uint32        `yaml:"quorum_percentage"        env:"QUORUM_PERCENTAGE"`
	QuorumMode            string        `yaml:"quorum_mode"              env:"QUORUM_MODE"`
	ContributionRule      string        `yaml:"contribution_rule"        env:"CONTRIBUTION_RULE"`
	RestrictActToTrigger  bool          `yaml:"restrict_act_to_trigger"  env:"RESTRICT_ACT_TO_TRIGGER"`
	CloseVotingAtDeadline bool          `yaml:"close_voting_at_deadline" env:"CLOSE_VOTING_AT_DEADLINE"`
	FeeRecipient          string        `yaml:"fee_recipient"            env:"FEE_RECIPIENT"`
	Asset                 string        `yaml:"asset"                    env:"ASSET"`
}

type HTTP struct {
	Addr              string        `yaml:"addr"                env:"ADDR"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"    env:"SHUTDOWN_TIMEOUT"`
}

// Automation drives the ShouldAct/Act poller.
type Automation struct {
	Enabled  bool   `yaml:"enabled"  env:"ENABLED"`
	Schedule string `yaml:"schedule" env:"SCHEDULE"`
	// Identity is the caller the poller acts as; usually the registered trigger.
	Identity string `yaml:"identity" env:"IDENTITY"`
}

// NATS is optional; an empty URL disables event publication.
type NATS struct {
	URL     string `yaml:"url"     env:"URL"`
	Subject string `yaml:"subject" env:"SUBJECT"`
}

// Default returns a config that validates once an owner is set.
func Default() Config {
	return Config{
		LogLevel:  "info",
		StatePath: "crowdfund.db",
		DAO: DAO{
			DaoPercentage:        10,
			StakeholderThreshold: 1,
			VotingPeriod:         24 * time.Hour,
			QuorumPercentage:     0,
			QuorumMode:           dao.QuorumByVoters.String(),
			ContributionRule:     dao.ContributionCumulative.String(),
			Asset:                sdk.AssetHive.String(),
		},
		HTTP: HTTP{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Automation: Automation{
			Enabled:  true,
			Schedule: "@every 30s",
		},
		NATS: NATS{
			Subject: "crowdfund.events",
		},
	}
}

// Load layers the YAML file at path (skipped when path is empty) and the environment
// over Default, then validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks everything the service needs before it touches state.
func (c Config) Validate() error {
	var errs []error
	if _, err := c.Engine(); err != nil {
		errs = append(errs, err)
	}
	if c.Automation.Enabled && strings.TrimSpace(c.Automation.Schedule) == "" {
		errs = append(errs, errors.New("automation.schedule is required when automation is enabled"))
	}
	if c.NATS.URL != "" && strings.TrimSpace(c.NATS.Subject) == "" {
		errs = append(errs, errors.New("nats.subject is required when nats.url is set"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Engine converts the DAO section to the engine's deployment config.
func (c Config) Engine() (dao.Config, error) {
	qm, err := dao.ParseQuorumMode(c.DAO.QuorumMode)
	if err != nil {
		return dao.Config{}, err
	}
	rule, err := dao.ParseContributionRule(c.DAO.ContributionRule)
	if err != nil {
		return dao.Config{}, err
	}
	if c.DAO.StakeholderThreshold < 0 {
		return dao.Config{}, fmt.Errorf("stakeholder threshold must not be negative")
	}
	if c.DAO.VotingPeriod%time.Second != 0 {
		return dao.Config{}, fmt.Errorf("voting period must be whole seconds, got %s", c.DAO.VotingPeriod)
	}
	out := dao.Config{
		Owner:                 sdk.Address(c.DAO.Owner).Normalize(),
		DaoPercentage:         c.DAO.DaoPercentage,
		StakeholderThreshold:  dao.FloatToAmount(c.DAO.StakeholderThreshold),
		VotingPeriodSeconds:   int64(c.DAO.VotingPeriod / time.Second),
		QuorumPercent:         c.DAO.QuorumPercentage,
		QuorumMode:            qm,
		ContributionRule:      rule,
		RestrictActToTrigger:  c.DAO.RestrictActToTrigger,
		CloseVotingAtDeadline: c.DAO.CloseVotingAtDeadline,
		FeeRecipient:          sdk.Address(c.DAO.FeeRecipient).Normalize(),
		Asset:                 sdk.Asset(strings.TrimSpace(c.DAO.Asset)),
	}
	if out.Asset == "" {
		out.Asset = sdk.AssetHive
	}
	if err := out.Validate(); err != nil {
		return dao.Config{}, err
	}
	return out, nil
}

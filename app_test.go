package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crowdfund_dao/config"
	"crowdfund_dao/contract/dao"
	"crowdfund_dao/sdk"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.StatePath = filepath.Join(t.TempDir(), "crowdfund.db")
	cfg.DAO.Owner = "hive:owner"
	cfg.Automation.Identity = "hive:bot"
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewAppRegistersTrigger(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(t), quietLogger())
	require.NoError(t, err)
	defer a.Close()

	trigger, err := a.engine.AutomationTrigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sdk.Address("hive:bot"), trigger)
	assert.NoError(t, a.ready(context.Background()))
}

func TestNewAppInMemory(t *testing.T) {
	cfg := testConfig(t)
	cfg.StatePath = ""
	cfg.Automation.Identity = ""
	a, err := newApp(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.store)

	_, err = a.engine.Contribute(context.Background(), sdk.Env{Caller: "hive:alice"}, dao.FloatToAmount(2))
	require.NoError(t, err)
	assert.Equal(t, 2.0, a.treasuryBalance())

	rec := httptest.NewRecorder()
	a.metricsHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `crowdfund_events_total{kind="Contribution"} 1`)
	assert.Contains(t, rec.Body.String(), "crowdfund_treasury_balance 2")
}

func TestNewAppRejectsChangedDeployment(t *testing.T) {
	cfg := testConfig(t)
	a, err := newApp(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	a.Close()

	cfg.DAO.DaoPercentage = 25
	_, err = newApp(context.Background(), cfg, quietLogger())
	assert.ErrorContains(t, err, "config does not match")
}

func TestPollerRunsAsConfiguredIdentity(t *testing.T) {
	cfg := testConfig(t)
	cfg.DAO.RestrictActToTrigger = true
	a, err := newApp(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	_, err = a.engine.Contribute(ctx, sdk.Env{Caller: "hive:alice", Timestamp: 100}, dao.FloatToAmount(1))
	require.NoError(t, err)
	id, err := a.engine.CreateProposal(ctx, sdk.Env{Caller: "hive:alice", Timestamp: 100}, dao.CreateProposalArgs{
		Title: "t", Recipient: "hive:r", Amount: dao.FloatToAmount(0.5),
	})
	require.NoError(t, err)
	require.NoError(t, a.engine.VoteOnProposal(ctx, sdk.Env{Caller: "hive:alice", Timestamp: 100}, id, true))

	// the poller reads the wall clock, long past the one-day deadline
	report, err := a.poller().RunOnce(ctx)
	require.NoError(t, err)
	require.Len(t, report.Paid, 1)
}

func TestVersionCommand(t *testing.T) {
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), appName+" version "+Version)
}

// Package main provides the crowdfund-dao binary: the HTTP service, the automation
// poller and a few operator commands over the same state.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"crowdfund_dao/api"
	"crowdfund_dao/config"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "crowdfund-dao"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	var flags globalFlags

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Crowdfund DAO engine",
		Long: `crowdfund-dao governs a shared pool of contributed funds.

Members contribute to gain voting rights, stakeholders propose payouts,
contributors vote, and expired proposals that reach quorum and majority
are paid out by the automation poller.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")

	cmd.AddCommand(serveCmd(&flags), pollCmd(&flags), statusCmd(&flags))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})
	return cmd
}

// setup loads config and installs the process logger.
func setup(flags *globalFlags) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func serveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the automation poller",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if cfg.Automation.Enabled {
				poller := a.poller()
				if err := poller.Start(ctx, cfg.Automation.Schedule); err != nil {
					return err
				}
				defer poller.Stop()
			}

			handler := api.NewHandler(a.engine, api.WithLogger(logger))
			srv := &http.Server{
				Addr: cfg.HTTP.Addr,
				Handler: api.NewRouter(handler, api.RouterOptions{
					Metrics: a.metricsHandler(),
					Ready:   a.ready,
				}),
				ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("http server listening", "addr", cfg.HTTP.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func pollCmd(flags *globalFlags) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Run the automation poller without the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			poller := a.poller()
			if once {
				report, err := poller.RunOnce(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, p := range report.Paid {
					fmt.Fprintf(out, "paid\t%d\t%s\t%s\tfee %s\n", p.ProposalID, p.Recipient, p.Net, p.Fee)
				}
				for _, s := range report.Skipped {
					fmt.Fprintf(out, "skipped\t%d\t%s\n", s.ProposalID, s.Reason)
				}
				return nil
			}
			if err := poller.Start(ctx, cfg.Automation.Schedule); err != nil {
				return err
			}
			<-ctx.Done()
			poller.Stop()
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Run a single ShouldAct/Act pass and exit")
	return cmd
}

func statusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print treasury and proposal status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(flags)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.engine.GetTreasury(ctx)
			if err != nil {
				return err
			}
			n, err := a.engine.ProposalCount(ctx)
			if err != nil {
				return err
			}
			trigger, err := a.engine.AutomationTrigger(ctx)
			if err != nil {
				return err
			}
			_, due, err := a.engine.ShouldAct(ctx, time.Now().Unix())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "treasury\t%s\n", t.Balance)
			fmt.Fprintf(out, "contributed\t%s\n", t.Contributed)
			fmt.Fprintf(out, "paid out\t%s\n", t.PaidOut)
			fmt.Fprintf(out, "voters\t%d\n", t.VoterCount)
			fmt.Fprintf(out, "proposals\t%d\n", n)
			fmt.Fprintf(out, "due\t%v\n", due)
			fmt.Fprintf(out, "trigger\t%s\n", trigger)
			return nil
		},
	}
}

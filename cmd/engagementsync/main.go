package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"EngagementSync/internal/app"
	"EngagementSync/internal/config"
	"EngagementSync/internal/logging"
	"EngagementSync/internal/usecase"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "engagementsync",
		Short:         "Keep engagement counters of published items in sync with the stats service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (defaults to $ENGAGEMENT_SYNC_CONFIG)")

	build := func(ctx context.Context) (*app.Application, error) {
		var cfg config.Config
		if configPath != "" {
			cfg = config.LoadFrom(configPath)
		} else {
			cfg = config.Load()
		}
		return app.New(ctx, cfg, logging.New(cfg.Logging.Level))
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run one sync cycle if it is due",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := build(cmd.Context())
				if err != nil {
					return err
				}
				defer a.Close()

				result, err := a.RunOnce(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), usecase.FormatReport(result))
				if !result.Success {
					return fmt.Errorf("sync failed: %s", result.Error)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "daemon",
			Short: "Check periodically and serve /healthz, /metrics, /status and /sync",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				a, err := build(ctx)
				if err != nil {
					return err
				}
				defer a.Close()

				return a.Serve(ctx)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print when the last sync completed",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := build(cmd.Context())
				if err != nil {
					return err
				}
				defer a.Close()

				st, err := a.Status(cmd.Context())
				if err != nil {
					return err
				}
				due := "no"
				if st.Due {
					due = "yes"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Last sync: %s\nInterval:  %s\nDue:       %s\n", st.Elapsed, st.Interval, due)
				return nil
			},
		},
		&cobra.Command{
			Use:   "fetch <url>...",
			Short: "Ask the stats service about links without touching items",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := build(cmd.Context())
				if err != nil {
					return err
				}
				defer a.Close()

				res := a.Fetch(cmd.Context(), args)
				out, err := json.MarshalIndent(res, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				if !res.Success {
					return fmt.Errorf("fetch failed: %s", res.Error)
				}
				return nil
			},
		},
	)

	return root
}

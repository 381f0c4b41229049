package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/facilitydesk/facilitydesk/internal/app"
	"github.com/facilitydesk/facilitydesk/internal/config"
	"github.com/facilitydesk/facilitydesk/internal/media"
	"github.com/facilitydesk/facilitydesk/internal/tracker"
	"github.com/facilitydesk/facilitydesk/internal/workers"
	"github.com/facilitydesk/facilitydesk/pkg/logger"
	"github.com/spf13/cobra"
)

var dataDir string

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "maintctl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintctl",
		Short: "Operator CLI for the maintenance request service",
		Long: `maintctl inspects and maintains institution data using the same configuration
(environment variables and .env) as the HTTP server.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Override DATA_DIR")
	cmd.AddCommand(
		newInstitutionsCmd(),
		newCleanupCmd(),
		newHashPasswordCmd(),
		newLastUpdateCmd(),
	)
	return cmd
}

// withDeps loads configuration, wires backends and runs fn.
func withDeps(ctx context.Context, fn func(cfg *config.Config, d *app.Deps) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	d, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close(ctx)
	return fn(cfg, d)
}

func newInstitutionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "institutions",
		Short: "List known institutions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(_ *config.Config, d *app.Deps) error {
				ids, err := d.Store.Institutions(cmd.Context())
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}
}

func newCleanupCmd() *cobra.Command {
	var institutionID string
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove attachments no request references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(cfg *config.Config, d *app.Deps) error {
				var (
					removed int
					err     error
				)
				if institutionID != "" {
					removed, err = d.Media.CleanupOrphans(cmd.Context(), institutionID)
				} else {
					removed, err = media.NewSweeper(d.Media, cfg.Media.CleanupInterval).RunOnce(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d orphaned attachment(s)\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&institutionID, "institution", "i", "", "Only clean this institution")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for a roster password field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := workers.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
}

func newLastUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "last-update",
		Short: "Show each institution's last request update as the server would report it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(_ *config.Config, d *app.Deps) error {
				if _, err := tracker.Seed(ctx, d.Tracker, d.Store); err != nil {
					return err
				}
				ids, err := d.Store.Institutions(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, id := range ids {
					t, ok, err := d.Tracker.LastUpdate(ctx, id)
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintf(out, "%s\t-\n", id)
						continue
					}
					fmt.Fprintf(out, "%s\t%s\n", id, t.UTC().Format(tracker.ISOLayout))
				}
				return nil
			})
		},
	}
}

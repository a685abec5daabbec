package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/and161185/nutrisync/internal/cloudsync"
	"github.com/and161185/nutrisync/internal/migrate"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <token>",
		Short: "Sign in with an access token and pull remote data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				s, err := a.sessions.SignIn(args[0])
				if err != nil {
					return fmt.Errorf("login: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", s.UserID)
				if a.rec == nil {
					return nil
				}
				if err := a.rec.PullAll(cmd.Context()); err != nil {
					return fmt.Errorf("pull: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Pulled remote data")
				return nil
			})
		},
	}
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear local data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				if a.rec != nil {
					if err := a.outbox.Flush(cmd.Context(), a.rec); err != nil {
						return fmt.Errorf("push before logout: %w", err)
					}
				}
				if err := a.sessions.SignOut(); err != nil {
					return err
				}
				a.store.Clear()
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func newSyncCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{Use: "sync", Short: "Synchronize with the remote database"}

	push := &cobra.Command{
		Use:   "push",
		Short: "Upload profile, logs and recipes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				if err := a.requireSync(); err != nil {
					return err
				}
				if err := a.rec.PushAll(cmd.Context()); err != nil {
					return fmt.Errorf("push: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Pushed")
				return nil
			})
		},
	}

	pull := &cobra.Command{
		Use:   "pull",
		Short: "Replace local data with the remote copy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				if err := a.requireSync(); err != nil {
					return err
				}
				if err := a.rec.PullAll(cmd.Context()); err != nil {
					return fmt.Errorf("pull: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Pulled")
				return nil
			})
		},
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Stay in the foreground, pulling on start and pushing after local changes from any nutrisync command",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return withApp(ctx, opts, func(a *app) error {
				if err := a.requireSync(); err != nil {
					return err
				}
				agent := cloudsync.NewAgent(a.rec, a.outbox, a.sessions, a.store, a.log)
				agent.Follow(a.file, a.store)
				fmt.Fprintln(cmd.OutOrStdout(), "Syncing; press Ctrl-C to stop")
				agent.Run(ctx)
				return nil
			})
		},
	}

	cmd.AddCommand(push, pull, runCmd)
	return cmd
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var status bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the remote database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.Remote.DSN == "" {
				return fmt.Errorf("no DSN (set remote.dsn or --dsn)")
			}
			ctx := cmd.Context()
			if status {
				return migrate.Status(ctx, cfg.Remote.DSN)
			}
			if err := migrate.Up(ctx, cfg.Remote.DSN); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema up to date")
			return nil
		},
	}
	cmd.Flags().BoolVar(&status, "status", false, "Show migration status instead of applying")
	return cmd
}

package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/solatis/policykeeper/internal/core/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage SQL schema migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		conn, err := openSQL(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := db.MigrateUp(ctx, conn, logger); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		conn, err := openSQL(ctx)
		if err != nil {
			return err
		}
		defer conn.Close()

		statuses, err := db.MigrateStatus(ctx, conn)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MIGRATION\tSTATUS\tAPPLIED AT\tDURATION")
		for _, s := range statuses {
			state, appliedAt, duration := "pending", "-", "-"
			if s.Applied {
				state = "applied"
				duration = fmt.Sprintf("%dms", s.ExecutionMs)
				if s.AppliedAt != nil {
					appliedAt = *s.AppliedAt
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, state, appliedAt, duration)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
}

func openSQL(ctx context.Context) (*sqlx.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !db.IsSQL(cfg.Database.URL) {
		return nil, fmt.Errorf("migrations apply to sqlite and postgres databases only, got %q", cfg.Database.URL)
	}
	return db.Open(ctx, cfg.Database.URL)
}

package cmd

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skilltree/skilltheme/internal/database"
	"github.com/skilltree/skilltheme/internal/observability"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration commands",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := connectDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := newMigrator(db, slog.Default()).Up(cmd.Context())
		if err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := connectDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := newMigrator(db, slog.Default()).Down(cmd.Context()); err != nil {
			return fmt.Errorf("rolling back migration: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "rolled back 1 migration")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := connectDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		statuses, err := newMigrator(db, slog.Default()).Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("reading migration status: %w", err)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tDESCRIPTION\tAPPLIED AT")
		for _, s := range statuses {
			appliedAt := "pending"
			if s.Applied && s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Version, s.Description, appliedAt)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
}

func connectDatabase() (*database.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := database.New(cfg.Database, observability.WithComponent(slog.Default(), "database"), nil)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	return db, nil
}

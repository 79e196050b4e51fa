package cmd

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-pos-auth/migrations"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMigration(cmd.Context(), goose.UpContext)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMigration(cmd.Context(), goose.DownContext)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the status of all migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runMigration(cmd.Context(), goose.StatusContext)
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

type migrationFunc func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error

func runMigration(ctx context.Context, run migrationFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}

	_, db, err := loadRuntime(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err = goose.SetDialect("mysql"); err != nil {
		return err
	}
	return run(ctx, db, ".")
}

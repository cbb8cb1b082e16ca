// Package main provides catalogctl, the operator tool for the local library
// catalog: schema migration, account management and session cleanup.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/aoideee/locallibrary/internal/config"
	"github.com/aoideee/locallibrary/internal/data"
)

// sessionPruner deletes expired session rows.
type sessionPruner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// backend is everything the subcommands touch.
type backend struct {
	models   data.Models
	sessions sessionPruner
	migrate  func(ctx context.Context) ([]string, error)
}

// opener connects to the backend. The returned func releases it.
type opener func(dsn, envFile string) (*backend, func(), error)

func main() {
	if err := rootCmd(openPostgres).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd(open opener) *cobra.Command {
	var dsn, envFile string

	cmd := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Operate the local library catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&dsn, "db-dsn", "", "PostgreSQL DSN (default: $CATALOG_DB_DSN)")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to .env file")

	connect := func() (*backend, func(), error) {
		return open(dsn, envFile)
	}

	cmd.AddCommand(
		migrateCmd(connect),
		createUserCmd(connect),
		grantCmd(connect),
		pruneSessionsCmd(connect),
	)
	return cmd
}

// openPostgres loads the same configuration as the web server and connects.
func openPostgres(dsn, envFile string) (*backend, func(), error) {
	args := []string{"-env-file", envFile}
	if dsn != "" {
		args = append(args, "-db-dsn", dsn)
	}
	cfg, err := config.Load(args)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open("postgres", cfg.DB.DSN)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}

	b := &backend{
		models:   data.NewModels(db),
		sessions: data.NewSessionStore(db),
		migrate: func(ctx context.Context) ([]string, error) {
			return data.Migrate(ctx, db)
		},
	}
	return b, func() { db.Close() }, nil
}

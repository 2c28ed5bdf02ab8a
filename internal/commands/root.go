// Package commands implements the awardsctl command tree.
package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/awards/internal/config"
	"github.com/JonMunkholm/awards/internal/core"
	"github.com/JonMunkholm/awards/internal/logging"
	"github.com/JonMunkholm/awards/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

// Deps holds what the commands need from the outside world. Fields left nil
// are filled with the Postgres-backed defaults.
type Deps struct {
	// OpenStore returns the store for ingest plus a cleanup func.
	OpenStore func(ctx context.Context) (core.Store, func(), error)

	// Migrate applies schema migrations.
	Migrate func(ctx context.Context) error
}

// New builds the root command.
func New(deps *Deps) *cobra.Command {
	if deps.OpenStore == nil {
		deps.OpenStore = openPostgresStore
	}
	if deps.Migrate == nil {
		deps.Migrate = migratePostgres
	}

	var logLevel, logFormat string
	rootCmd := &cobra.Command{
		Use:           "awardsctl",
		Short:         "Validate and ingest employee award files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(cmd.ErrOrStderr(), logLevel, logFormat)
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newIngestCmd(deps))
	rootCmd.AddCommand(newMigrateCmd(deps))

	return rootCmd
}

// fileUpload describes a file on disk as an upload.
func fileUpload(path string) (core.Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return core.Upload{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return core.Upload{}, fmt.Errorf("%s is a directory", path)
	}
	return core.Upload{
		FileName: filepath.Base(path),
		Size:     info.Size(),
		Open:     core.FileOpener(path),
	}, nil
}

func connect(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

func openPostgresStore(ctx context.Context) (core.Store, func(), error) {
	pool, err := connect(ctx)
	if err != nil {
		return nil, nil, err
	}
	return store.NewPostgres(pool), pool.Close, nil
}

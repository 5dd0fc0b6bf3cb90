package main

import (
	"fmt"
	"os"

	"github.com/KAsare1/Postly-server/cmd/config"
	"github.com/KAsare1/Postly-server/db"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "postly",
		Short:         "Postly blogging server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCommand,
	}
	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newClearDBCommand(),
		newGroupCommand(),
		newUserCommand(),
		newCacheCommand(),
	)
	return root
}

// env bundles what every command needs.
type env struct {
	cfg config.Config
	log *logrus.Logger
	db  *gorm.DB
}

func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}
	log := cfg.NewLogger()
	conn, err := db.NewStorage(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("database initialization error: %w", err)
	}
	log.Debug("Connected to the database")
	return &env{cfg: cfg, log: log, db: conn}, nil
}

func (e *env) Close() {
	if sqlDB, err := e.db.DB(); err == nil {
		sqlDB.Close()
		e.log.Debug("Database connection closed")
	}
}

// Command yatube-admin manages groups, users and the page cache out-of-band.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mikepea/yatube/pkg/yatube/config"
	"github.com/mikepea/yatube/pkg/yatube/database"
	"github.com/mikepea/yatube/pkg/yatube/logging"
	"github.com/mikepea/yatube/pkg/yatube/models"
	"github.com/mikepea/yatube/pkg/yatube/store"
	"github.com/urfave/cli/v2"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cfg := config.Load()

	var s *store.Store
	return &cli.App{
		Name:  "yatube-admin",
		Usage: "administer a yatube database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db-driver", Value: cfg.DBDriver, EnvVars: []string{"YATUBE_DB_DRIVER"}},
			&cli.StringFlag{Name: "db-dsn", Value: cfg.DBDSN, EnvVars: []string{"YATUBE_DB_DSN"}},
			&cli.StringFlag{Name: "log-level", Value: "warn"},
		},
		Before: func(c *cli.Context) error {
			logging.Setup(os.Stderr, c.String("log-level"))
			for _, w := range cfg.Warnings {
				slog.Warn(w)
			}
			if err := database.Connect(c.String("db-driver"), c.String("db-dsn")); err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			if err := models.AutoMigrate(database.GetDB()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			s = store.New(database.GetDB())
			return nil
		},
		After: func(*cli.Context) error {
			return database.Close()
		},
		Commands: []*cli.Command{
			groupCommand(func() *store.Store { return s }),
			userCommand(func() *store.Store { return s }),
			cacheCommand(cfg),
		},
	}
}

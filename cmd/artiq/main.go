package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gorm.io/gorm"

	"artiq/cli/internal/application"
	"artiq/cli/internal/command"
	"artiq/cli/internal/config"
	"artiq/cli/internal/db"
	"artiq/cli/internal/global"
	"artiq/cli/internal/historydb"
	"artiq/cli/internal/logging"
	"artiq/cli/internal/plan"
)

var version = "dev"

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := command.BuildApp(command.Deps{
		LoadConfig:   config.LoadConfig,
		RunServe:     runServe,
		RunPlan:      runPlan,
		ListHistory:  listHistory,
		RunMigrateUp: runMigrateUp,
		Accounts: func() (command.AccountStore, error) {
			dir, err := global.DefaultConfigDir()
			if err != nil {
				return nil, err
			}
			return global.NewAccountStore(dir), nil
		},
	})
	app.Version = version
	if err := app.RunContext(rootCtx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func startOptions(cfg config.Config, component string) (application.StartOptions, error) {
	dir, err := global.DefaultConfigDir()
	if err != nil {
		return application.StartOptions{}, err
	}
	return application.StartOptions{
		ConfigDir:    dir,
		DBPath:       cfg.DBPath,
		LocalHost:    cfg.LocalHost,
		LocalPort:    cfg.LocalPort,
		APIBaseURL:   cfg.APIBaseURL,
		APIToken:     cfg.APIToken,
		Account:      cfg.Account,
		HTTPTimeout:  cfg.HTTPTimeout,
		TickInterval: cfg.TickInterval,
		Logger:       logging.NewLogger(logging.Options{Level: cfg.LogLevel, Component: component}),
	}, nil
}

func runServe(ctx context.Context, cfg config.Config) error {
	opts, err := startOptions(cfg, "artiq-serve")
	if err != nil {
		return err
	}
	app, err := application.StartApplication(ctx, opts)
	if err != nil {
		return err
	}
	return app.Run(ctx)
}

func runPlan(ctx context.Context, cfg config.Config, p plan.Plan) error {
	opts, err := startOptions(cfg, "artiq-run")
	if err != nil {
		return err
	}
	rt, err := application.NewRuntime(opts)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()
	return rt.RunPlan(ctx, p)
}

func listHistory(ctx context.Context, cfg config.Config, character string, limit int) ([]historydb.Entry, error) {
	gdb, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close(gdb) }()
	store, err := historydb.NewStore(gdb)
	if err != nil {
		return nil, err
	}
	return store.List(ctx, character, limit)
}

func runMigrateUp(_ context.Context, cfg config.Config) error {
	gdb, err := openDB(cfg)
	if err != nil {
		return err
	}
	logger := logging.NewLogger(logging.Options{Level: cfg.LogLevel, Component: "artiq-migrate"})
	logger.Info("schema up to date")
	return db.Close(gdb)
}

// openDB opens and migrates the history database.
func openDB(cfg config.Config) (*gorm.DB, error) {
	path := cfg.DBPath
	if path == "" {
		dir, err := global.DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		path = global.DefaultDBPath(dir)
	}
	gdb, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open history db %s: %w", path, err)
	}
	return gdb, nil
}

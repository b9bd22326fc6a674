package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cyberegoorg/consoleproxy"
	"github.com/cyberegoorg/consoleproxy/internal/config"
	"github.com/cyberegoorg/consoleproxy/internal/logger"
	"github.com/cyberegoorg/consoleproxy/internal/logstore"
)

// app bundles what every subcommand needs: the merged configuration and
// the diagnostics logger.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	closeLog func() error
}

// setup loads the config file, applies command-line overrides and builds
// the logger. Flags win over environment variables, which win over the file.
func setup(cmd *cobra.Command) (*app, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("address") {
		cfg.Console.Address, _ = flags.GetString("address")
	}
	if flags.Changed("port") {
		cfg.Console.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("transport") {
		cfg.Console.Transport, _ = flags.GetString("transport")
	}
	if flags.Changed("url") {
		cfg.Console.URL, _ = flags.GetString("url")
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level, _ = flags.GetString("log-level")
	}

	log, closeLog, err := logger.New(cfg.Logging, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	return &app{cfg: cfg, log: log, closeLog: closeLog}, nil
}

func (a *app) Close() {
	if err := a.closeLog(); err != nil {
		fmt.Fprintln(os.Stderr, "close log file:", err)
	}
}

func (a *app) newClient() (*consoleproxy.Client, error) {
	client, err := consoleproxy.NewClient(a.cfg.Console.ClientConfig(), consoleproxy.WithLogger(a.log))
	if err != nil {
		return nil, fmt.Errorf("create console client: %w", err)
	}
	return client, nil
}

// openStore opens the log store when persistence is enabled in the config
// or forced by the command. It returns nil, nil when disabled.
func (a *app) openStore(force bool) (*logstore.Store, error) {
	if !a.cfg.Store.Enabled && !force {
		return nil, nil
	}
	store, err := logstore.Open(logstore.Config{
		Driver:      a.cfg.Store.Driver,
		SQLitePath:  a.cfg.Store.SQLitePath,
		PostgresDSN: a.cfg.Store.PostgresDSN,
	})
	if err != nil {
		return nil, fmt.Errorf("open log store: %w", err)
	}
	a.log.Info("log store opened", "driver", store.Dialect().DriverName())
	return store, nil
}

package main

import (
	"github.com/whwjiang/poker-epoll/cmd/pokerepoll/shared"
	"github.com/whwjiang/poker-epoll/internal/server"
)

// ServerCmd runs the TCP session server.
type ServerCmd struct {
	Config          string `kong:"default='pokerepoll.hcl',help='Path to HCL config file'"`
	Address         string `kong:"help='Listen address (overrides config)'"`
	Port            int    `kong:"help='Listen port (overrides config)'"`
	LogLevel        string `kong:"help='Log level: debug, info, warn, error (overrides config)'"`
	Seed            *int64 `kong:"help='Deterministic root RNG seed (overrides config)'"`
	ActionTimeoutMs *int   `kong:"help='Decision timeout in milliseconds, 0 disables (overrides config)'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Address != "" {
		cfg.Settings.Address = c.Address
	}
	if c.Port != 0 {
		cfg.Settings.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.Settings.LogLevel = c.LogLevel
	}
	if c.Seed != nil {
		cfg.Settings.Seed = *c.Seed
	}
	if c.ActionTimeoutMs != nil {
		cfg.Settings.ActionTimeoutMs = *c.ActionTimeoutMs
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := shared.SetupLogger(cfg.Settings.LogLevel)
	logger.Info("Starting server",
		"addr", cfg.Addr(),
		"seed", cfg.Settings.Seed,
		"action_timeout_ms", cfg.Settings.ActionTimeoutMs)

	ctx := shared.SetupSignalHandler(logger)
	return server.New(logger, cfg).Run(ctx)
}

package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// MaxConnections caps concurrent clients across all tables.
const MaxConnections = 102

// Config holds the server runtime settings.
type Config struct {
	Settings Settings `hcl:"server,block"`
}

// Settings contains server-level configuration.
type Settings struct {
	Address         string `hcl:"address,optional"`
	Port            int    `hcl:"port,optional"`
	LogLevel        string `hcl:"log_level,optional"`
	Seed            int64  `hcl:"seed,optional"`
	ActionTimeoutMs int    `hcl:"action_timeout_ms,optional"`
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{
			Address:  "0.0.0.0",
			Port:     65432,
			LogLevel: "info",
		},
	}
}

// LoadConfig loads configuration from an HCL file. A missing file yields
// the defaults; missing fields are defaulted.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if config.Settings.Address == "" {
		config.Settings.Address = "0.0.0.0"
	}
	if config.Settings.Port == 0 {
		config.Settings.Port = 65432
	}
	if config.Settings.LogLevel == "" {
		config.Settings.LogLevel = "info"
	}
	return &config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Settings.Port < 1 || c.Settings.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Settings.Port)
	}
	if c.Settings.ActionTimeoutMs < 0 {
		return fmt.Errorf("invalid action timeout: %dms", c.Settings.ActionTimeoutMs)
	}
	switch c.Settings.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Settings.LogLevel)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Settings.Address, c.Settings.Port)
}

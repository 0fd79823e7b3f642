package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the scheduler.
type Config struct {
	SQLiteDSN     string
	Timezone      string
	MCPTransport  string
	MCPListenAddr string
	MetricsAddr   string
	SeedUsersPath string
}

// Load parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// the values that carry a constrained format.
func Load() (Config, error) {
	cfg := Config{
		SQLiteDSN:     "file:famcal.db?_foreign_keys=on",
		Timezone:      "Europe/Moscow",
		MCPTransport:  "stdio",
		MCPListenAddr: ":8080",
		MetricsAddr:   ":9091",
	}

	invalid := make([]string, 0, 2)

	if dsn := strings.TrimSpace(os.Getenv("FAMCAL_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if tz := strings.TrimSpace(os.Getenv("FAMCAL_TIMEZONE")); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			invalid = append(invalid, "FAMCAL_TIMEZONE")
		} else {
			cfg.Timezone = tz
		}
	}

	if transport := strings.TrimSpace(os.Getenv("FAMCAL_MCP_TRANSPORT")); transport != "" {
		switch transport {
		case "stdio", "http":
			cfg.MCPTransport = transport
		default:
			invalid = append(invalid, "FAMCAL_MCP_TRANSPORT")
		}
	}

	if addr := strings.TrimSpace(os.Getenv("FAMCAL_MCP_LISTEN_ADDR")); addr != "" {
		cfg.MCPListenAddr = addr
	}

	if addr, ok := os.LookupEnv("FAMCAL_METRICS_ADDR"); ok {
		cfg.MetricsAddr = strings.TrimSpace(addr)
	}

	if path := strings.TrimSpace(os.Getenv("FAMCAL_SEED_USERS")); path != "" {
		cfg.SeedUsersPath = path
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

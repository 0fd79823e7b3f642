package config

import (
	"os"
	"testing"
)

func TestLoaderAppliesDefaults(t *testing.T) {
	for _, key := range []string{
		"FAMCAL_SQLITE_DSN",
		"FAMCAL_TIMEZONE",
		"FAMCAL_MCP_TRANSPORT",
		"FAMCAL_MCP_LISTEN_ADDR",
		"FAMCAL_METRICS_ADDR",
		"FAMCAL_SEED_USERS",
	} {
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.SQLiteDSN != "file:famcal.db?_foreign_keys=on" {
		t.Errorf("unexpected default DSN: %q", cfg.SQLiteDSN)
	}
	if cfg.Timezone != "Europe/Moscow" {
		t.Errorf("unexpected default timezone: %q", cfg.Timezone)
	}
	if cfg.MCPTransport != "stdio" {
		t.Errorf("unexpected default transport: %q", cfg.MCPTransport)
	}
	if cfg.MetricsAddr != ":9091" {
		t.Errorf("unexpected default metrics addr: %q", cfg.MetricsAddr)
	}
}

func TestLoaderParsesEnvironment(t *testing.T) {
	t.Setenv("FAMCAL_SQLITE_DSN", "file:/tmp/test.db")
	t.Setenv("FAMCAL_TIMEZONE", "UTC")
	t.Setenv("FAMCAL_MCP_TRANSPORT", "http")
	t.Setenv("FAMCAL_MCP_LISTEN_ADDR", ":9000")
	t.Setenv("FAMCAL_METRICS_ADDR", "")
	t.Setenv("FAMCAL_SEED_USERS", "/etc/famcal/users.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.SQLiteDSN != "file:/tmp/test.db" {
		t.Errorf("unexpected DSN: %q", cfg.SQLiteDSN)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("unexpected timezone: %q", cfg.Timezone)
	}
	if cfg.MCPTransport != "http" || cfg.MCPListenAddr != ":9000" {
		t.Errorf("unexpected MCP settings: %q %q", cfg.MCPTransport, cfg.MCPListenAddr)
	}
	if cfg.MetricsAddr != "" {
		t.Errorf("an empty metrics addr disables the listener, got %q", cfg.MetricsAddr)
	}
	if cfg.SeedUsersPath != "/etc/famcal/users.yaml" {
		t.Errorf("unexpected seed path: %q", cfg.SeedUsersPath)
	}
}

func TestLoaderRejectsInvalidValues(t *testing.T) {
	t.Setenv("FAMCAL_TIMEZONE", "Mars/Olympus")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown timezone")
	}

	t.Setenv("FAMCAL_TIMEZONE", "UTC")
	t.Setenv("FAMCAL_MCP_TRANSPORT", "carrier-pigeon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown transport")
	}
}

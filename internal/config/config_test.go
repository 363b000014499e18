package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsAndEnvOverride(t *testing.T) {
	t.Setenv("MARKETD_GATEWAY_URL", "http://gateway.local")
	t.Setenv("MARKETD_LISTEN", ":9090")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9090" {
		t.Fatalf("listen = %s, want :9090", cfg.Listen)
	}
	if cfg.Gateway.BaseURL != "http://gateway.local" {
		t.Fatalf("gateway url = %s", cfg.Gateway.BaseURL)
	}
	if cfg.MinDeposit != "0.1" {
		t.Fatalf("min deposit default = %s, want 0.1", cfg.MinDeposit)
	}
	if _, err := cfg.MinDepositAmount(); err != nil {
		t.Fatalf("min deposit amount: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("MARKETD_GATEWAY_URL", "")
	path := filepath.Join(t.TempDir(), "marketd.yaml")
	raw := `
listen: ":7070"
data_dir: /var/lib/marketd
gateway:
  base_url: https://custody.example.com
  timeout_seconds: 10
min_deposit: "0.25"
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":7070" || cfg.DataDir != "/var/lib/marketd" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Gateway.BaseURL != "https://custody.example.com" {
		t.Fatalf("gateway url = %s", cfg.Gateway.BaseURL)
	}
	if cfg.MinDeposit != "0.25" {
		t.Fatalf("min deposit = %s", cfg.MinDeposit)
	}
	if cfg.GatewayTimeout() != 10*time.Second {
		t.Fatalf("gateway timeout = %v, want 10s", cfg.GatewayTimeout())
	}
}

func TestValidateRequiresGateway(t *testing.T) {
	t.Setenv("MARKETD_GATEWAY_URL", "")
	if _, err := Load(""); err == nil {
		t.Fatal("load without gateway url must fail")
	}
}

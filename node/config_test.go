package node

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateConfig_RejectsEmptyNetwork(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Network = ""
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected empty network to be rejected")
	}
}

func TestValidateConfig_RejectsBadMaxPeers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPeers = 0
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected max_peers <= 0 to be rejected")
	}
}

func TestLoadConfig_YAMLOverlayOnDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := "network: testnet\nbind_addr: 127.0.0.1:9000\nmax_peers: 8\n"
	if err := os.WriteFile(path, []byte(yamlBody), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path, "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Network != "testnet" || cfg.BindAddr != "127.0.0.1:9000" || cfg.MaxPeers != 8 {
		t.Fatalf("unexpected config after YAML overlay: %+v", cfg)
	}
	// LogLevel wasn't present in the YAML, so the default should survive.
	if cfg.LogLevel != DefaultConfig().LogLevel {
		t.Fatalf("expected unset fields to keep their default, got %q", cfg.LogLevel)
	}
}

func TestLoadConfig_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("network: testnet\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ZHTP_NETWORK", "mainnet")
	cfg, err := LoadConfig(path, "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Network != "mainnet" {
		t.Fatalf("expected environment to win over YAML, got %q", cfg.Network)
	}
}

func TestLoadConfig_MissingFilesFallBackToDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"), "")
	if err != nil {
		t.Fatalf("LoadConfig should tolerate a missing config file: %v", err)
	}
	want := DefaultConfig()
	if cfg.Network != want.Network || cfg.DataDir != want.DataDir || cfg.BindAddr != want.BindAddr || cfg.LogLevel != want.LogLevel || cfg.MaxPeers != want.MaxPeers {
		t.Fatalf("expected defaults when no config file exists, got %+v", cfg)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, home, content string) string {
	t.Helper()
	dataDir := filepath.Join(home, ".gembrowse")
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	path := filepath.Join(dataDir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GatewayAddress() != "127.0.0.1:4590" {
		t.Fatalf("unexpected gateway address: %q", cfg.GatewayAddress())
	}
	if cfg.MaxEnvironment() != 0 {
		t.Fatalf("expected max environment 0, got %d", cfg.MaxEnvironment())
	}
	if !cfg.JournalEnabled() {
		t.Fatalf("expected journal enabled by default")
	}
	if cfg.JournalLimit() != 2000 {
		t.Fatalf("unexpected journal limit: %d", cfg.JournalLimit())
	}
}

func TestLoadFromTOML(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("HOME", home)
	writeConfig(t, home, `
[gateway]
address = "http://10.0.0.5:9000/"
token_path = "gw.token"

[logging]
level = "debug"
log_bodies = true

[browser]
max_environment = 2

[diagnostics]
journal = false
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GatewayBaseURL() != "http://10.0.0.5:9000" {
		t.Fatalf("unexpected base url: %q", cfg.GatewayBaseURL())
	}
	tokenPath, err := cfg.GatewayTokenPath()
	if err != nil {
		t.Fatalf("GatewayTokenPath: %v", err)
	}
	if want := filepath.Join(home, ".gembrowse", "gw.token"); tokenPath != want {
		t.Fatalf("unexpected token path: got=%q want=%q", tokenPath, want)
	}
	if cfg.LogLevel() != "debug" || !cfg.Logging.LogBodies {
		t.Fatalf("unexpected logging config: %#v", cfg.Logging)
	}
	if cfg.MaxEnvironment() != 2 {
		t.Fatalf("unexpected max environment: %d", cfg.MaxEnvironment())
	}
	if cfg.JournalEnabled() {
		t.Fatalf("expected journal disabled")
	}
}

func TestNegativeMaxEnvironmentClamped(t *testing.T) {
	cfg := Config{Browser: BrowserConfig{MaxEnvironment: -3}}
	if cfg.MaxEnvironment() != 0 {
		t.Fatalf("expected clamp to 0, got %d", cfg.MaxEnvironment())
	}
}

func TestLiveSettingsRereadsFile(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	path := writeConfig(t, home, "[browser]\nmax_environment = 1\n")

	settings := NewLiveSettings(path)
	if got := settings.MaxEnvironment(); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	writeConfig(t, home, "[browser]\nmax_environment = 3\n")
	if got := settings.MaxEnvironment(); got != 3 {
		t.Fatalf("expected 3 after edit, got %d", got)
	}
	writeConfig(t, home, "[browser\nbroken")
	if got := settings.MaxEnvironment(); got != 3 {
		t.Fatalf("expected last good value on parse error, got %d", got)
	}
}

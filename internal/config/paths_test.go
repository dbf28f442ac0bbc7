package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestPaths(t *testing.T) {
	t.Setenv("HOME", filepath.Join(t.TempDir(), "home"))

	dataDir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir: %v", err)
	}
	if !strings.HasSuffix(dataDir, ".gembrowse") {
		t.Fatalf("unexpected data dir: %s", dataDir)
	}

	cases := []struct {
		name   string
		get    func() (string, error)
		suffix string
	}{
		{"ConfigPath", ConfigPath, "config.toml"},
		{"TokenPath", TokenPath, "token"},
		{"JournalPath", JournalPath, "journal.db"},
		{"LogPath", LogPath, "gembrowse.log"},
	}
	for _, tc := range cases {
		path, err := tc.get()
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if path != filepath.Join(dataDir, tc.suffix) {
			t.Fatalf("unexpected %s: %s", tc.name, path)
		}
	}
}

func TestGatewayTokenPathResolvesOverride(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("HOME", home)

	cfg := DefaultConfig()
	path, err := cfg.GatewayTokenPath()
	if err != nil {
		t.Fatalf("GatewayTokenPath: %v", err)
	}
	if path != filepath.Join(home, ".gembrowse", "token") {
		t.Fatalf("unexpected default token path: %s", path)
	}

	cfg.Gateway.TokenPath = "~/secrets/gateway.token"
	path, err = cfg.GatewayTokenPath()
	if err != nil {
		t.Fatalf("GatewayTokenPath: %v", err)
	}
	if path != filepath.Join(home, "secrets", "gateway.token") {
		t.Fatalf("unexpected override token path: %s", path)
	}
}

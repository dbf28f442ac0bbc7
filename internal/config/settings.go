package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultGatewayAddress = "127.0.0.1:4590"
	defaultJournalLimit   = 2000
)

type Config struct {
	Gateway     GatewayConfig     `toml:"gateway"`
	Logging     LoggingConfig     `toml:"logging"`
	Browser     BrowserConfig     `toml:"browser"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
}

type GatewayConfig struct {
	Address   string `toml:"address"`
	TokenPath string `toml:"token_path"`
}

type LoggingConfig struct {
	Level     string `toml:"level"`
	LogBodies bool   `toml:"log_bodies"`
}

type BrowserConfig struct {
	MaxEnvironment int `toml:"max_environment"`
}

type DiagnosticsConfig struct {
	Journal      *bool `toml:"journal"`
	JournalLimit int   `toml:"journal_limit"`
}

func DefaultConfig() Config {
	return Config{
		Gateway: GatewayConfig{
			Address: defaultGatewayAddress,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Diagnostics: DiagnosticsConfig{
			JournalLimit: defaultJournalLimit,
		},
	}
}

func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	return LoadFromPath(path)
}

func LoadFromPath(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := readTOML(path, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) GatewayAddress() string {
	addr := strings.TrimSpace(c.Gateway.Address)
	addr = strings.TrimPrefix(addr, "http://")
	addr = strings.TrimPrefix(addr, "https://")
	addr = strings.TrimRight(addr, "/")
	if addr == "" {
		return defaultGatewayAddress
	}
	return addr
}

func (c Config) GatewayBaseURL() string {
	return "http://" + c.GatewayAddress()
}

func (c Config) GatewayTokenPath() (string, error) {
	path := strings.TrimSpace(c.Gateway.TokenPath)
	if path == "" {
		return TokenPath()
	}
	return resolveConfigPath(path)
}

func (c Config) LogLevel() string {
	level := strings.TrimSpace(c.Logging.Level)
	if level == "" {
		return "info"
	}
	return level
}

// MaxEnvironment is never negative; 0 means only environment 0.
func (c Config) MaxEnvironment() int {
	if c.Browser.MaxEnvironment < 0 {
		return 0
	}
	return c.Browser.MaxEnvironment
}

func (c Config) JournalEnabled() bool {
	if c.Diagnostics.Journal == nil {
		return true
	}
	return *c.Diagnostics.Journal
}

func (c Config) JournalLimit() int {
	if c.Diagnostics.JournalLimit <= 0 {
		return defaultJournalLimit
	}
	return c.Diagnostics.JournalLimit
}

// LiveSettings re-reads the config file on every MaxEnvironment call so an
// edit takes effect on the next tree expansion without a restart.
type LiveSettings struct {
	path string

	mu       sync.Mutex
	lastGood int
}

func NewLiveSettings(path string) *LiveSettings {
	return &LiveSettings{path: strings.TrimSpace(path)}
}

func (s *LiveSettings) MaxEnvironment() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := LoadFromPath(s.path)
	if err != nil {
		return s.lastGood
	}
	s.lastGood = cfg.MaxEnvironment()
	return s.lastGood
}

func readTOML(path string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	return toml.Unmarshal(data, out)
}

func resolveConfigPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[2:]), nil
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, path), nil
}

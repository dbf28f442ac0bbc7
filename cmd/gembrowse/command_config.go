package main

import (
	"encoding/json"
	"errors"
	"flag"
	"io"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"gembrowse/internal/config"
)

type ConfigCommand struct {
	stdout io.Writer
	stderr io.Writer
}

const (
	configFormatJSON = "json"
	configFormatTOML = "toml"
)

type configOutput struct {
	ConfigPath  string                     `json:"config_path" toml:"config_path"`
	Gateway     effectiveGatewayConfig     `json:"gateway" toml:"gateway"`
	Logging     effectiveLoggingConfig     `json:"logging" toml:"logging"`
	Browser     effectiveBrowserConfig     `json:"browser" toml:"browser"`
	Diagnostics effectiveDiagnosticsConfig `json:"diagnostics" toml:"diagnostics"`
}

type effectiveGatewayConfig struct {
	Address   string `json:"address" toml:"address"`
	BaseURL   string `json:"base_url" toml:"base_url"`
	TokenPath string `json:"token_path" toml:"token_path"`
}

type effectiveLoggingConfig struct {
	Level     string `json:"level" toml:"level"`
	LogBodies bool   `json:"log_bodies" toml:"log_bodies"`
	Path      string `json:"path" toml:"path"`
}

type effectiveBrowserConfig struct {
	MaxEnvironment int `json:"max_environment" toml:"max_environment"`
}

type effectiveDiagnosticsConfig struct {
	Journal      bool   `json:"journal" toml:"journal"`
	JournalLimit int    `json:"journal_limit" toml:"journal_limit"`
	JournalPath  string `json:"journal_path" toml:"journal_path"`
}

func NewConfigCommand(stdout, stderr io.Writer) *ConfigCommand {
	return &ConfigCommand{
		stdout: stdout,
		stderr: stderr,
	}
}

func (c *ConfigCommand) Run(args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	defaults := fs.Bool("default", false, "print default config values")
	format := fs.String("format", configFormatJSON, "output format: json|toml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resolvedFormat, err := resolveConfigFormat(*format)
	if err != nil {
		return err
	}
	payload, err := buildConfigOutput(*defaults)
	if err != nil {
		return err
	}
	return writeConfigOutput(c.stdout, resolvedFormat, payload)
}

func buildConfigOutput(defaults bool) (configOutput, error) {
	configPath, err := config.ConfigPath()
	if err != nil {
		return configOutput{}, err
	}
	cfg := config.DefaultConfig()
	if !defaults {
		cfg, err = config.LoadFromPath(configPath)
		if err != nil {
			return configOutput{}, err
		}
	}
	tokenPath, err := cfg.GatewayTokenPath()
	if err != nil {
		return configOutput{}, err
	}
	logPath, err := config.LogPath()
	if err != nil {
		return configOutput{}, err
	}
	journalPath, err := config.JournalPath()
	if err != nil {
		return configOutput{}, err
	}
	return configOutput{
		ConfigPath: configPath,
		Gateway: effectiveGatewayConfig{
			Address:   cfg.GatewayAddress(),
			BaseURL:   cfg.GatewayBaseURL(),
			TokenPath: tokenPath,
		},
		Logging: effectiveLoggingConfig{
			Level:     cfg.LogLevel(),
			LogBodies: cfg.Logging.LogBodies,
			Path:      logPath,
		},
		Browser: effectiveBrowserConfig{
			MaxEnvironment: cfg.MaxEnvironment(),
		},
		Diagnostics: effectiveDiagnosticsConfig{
			Journal:      cfg.JournalEnabled(),
			JournalLimit: cfg.JournalLimit(),
			JournalPath:  journalPath,
		},
	}, nil
}

func writeConfigOutput(out io.Writer, format string, payload any) error {
	switch format {
	case configFormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(payload)
	case configFormatTOML:
		data, err := toml.Marshal(payload)
		if err != nil {
			return err
		}
		if len(data) == 0 || data[len(data)-1] != '\n' {
			data = append(data, '\n')
		}
		_, err = out.Write(data)
		return err
	default:
		return errors.New("unsupported format")
	}
}

func resolveConfigFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", configFormatJSON:
		return configFormatJSON, nil
	case configFormatTOML:
		return configFormatTOML, nil
	default:
		return "", errors.New("invalid format: must be json or toml")
	}
}

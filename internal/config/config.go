package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything framer needs to reach the backend and edit findings.
type Config struct {
	APIURL      string
	APIToken    string
	Project     string
	LogDir      string
	LogLevel    string
	SaveTimeout time.Duration
	SavedReset  time.Duration
	ErrorReset  time.Duration
	NudgeStep   float64
	SaveRate    float64
}

const (
	defaultConfigPath  = "~/.config/framer/config.toml"
	defaultLogDir      = "~/.local/share/framer"
	defaultAPIURL      = "http://127.0.0.1:8000"
	defaultLogLevel    = "info"
	defaultSaveTimeout = 10 * time.Second
	defaultSavedReset  = 2 * time.Second
	defaultErrorReset  = 5 * time.Second
	defaultNudgeStep   = 0.01
	defaultSaveRate    = 5
)

// fileConfig is the on-disk TOML shape. Durations are Go duration strings.
type fileConfig struct {
	APIURL      string   `toml:"api_url"`
	APIToken    string   `toml:"api_token"`
	Project     string   `toml:"project"`
	LogDir      string   `toml:"log_dir"`
	LogLevel    string   `toml:"log_level"`
	SaveTimeout string   `toml:"save_timeout"`
	SavedReset  string   `toml:"saved_reset"`
	ErrorReset  string   `toml:"error_reset"`
	NudgeStep   *float64 `toml:"nudge_step"`
	SaveRate    *float64 `toml:"save_rate"`
}

// envConfig lists the settings that can be overridden from the environment.
type envConfig struct {
	APIURL   string `env:"FRAMER_API_URL"`
	APIToken string `env:"FRAMER_API_TOKEN"`
	Project  string `env:"FRAMER_PROJECT"`
	LogLevel string `env:"FRAMER_LOG_LEVEL"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:      defaultAPIURL,
		LogDir:      mustExpand(defaultLogDir),
		LogLevel:    defaultLogLevel,
		SaveTimeout: defaultSaveTimeout,
		SavedReset:  defaultSavedReset,
		ErrorReset:  defaultErrorReset,
		NudgeStep:   defaultNudgeStep,
		SaveRate:    defaultSaveRate,
	}
}

// Load locates and parses the framer config, falling back to defaults when
// the file is missing, then applies FRAMER_* environment overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		var raw fileConfig
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		if err := cfg.apply(raw); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) apply(raw fileConfig) error {
	setString(&c.APIURL, raw.APIURL)
	setString(&c.APIToken, raw.APIToken)
	setString(&c.Project, raw.Project)
	setString(&c.LogLevel, raw.LogLevel)
	if dir := strings.TrimSpace(raw.LogDir); dir != "" {
		c.LogDir = mustExpand(dir)
	}

	durations := []struct {
		key   string
		value string
		dest  *time.Duration
	}{
		{"save_timeout", raw.SaveTimeout, &c.SaveTimeout},
		{"saved_reset", raw.SavedReset, &c.SavedReset},
		{"error_reset", raw.ErrorReset, &c.ErrorReset},
	}
	for _, d := range durations {
		if err := setDuration(d.dest, d.key, d.value); err != nil {
			return err
		}
	}

	if raw.NudgeStep != nil {
		step := *raw.NudgeStep
		if step <= 0 || step > 0.5 {
			return fmt.Errorf("parse config: nudge_step %v must be in (0, 0.5]", step)
		}
		c.NudgeStep = step
	}
	if raw.SaveRate != nil {
		if *raw.SaveRate < 0 {
			return fmt.Errorf("parse config: save_rate %v must not be negative", *raw.SaveRate)
		}
		c.SaveRate = *raw.SaveRate
	}
	return nil
}

func (c *Config) applyEnv() error {
	var overrides envConfig
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	setString(&c.APIURL, overrides.APIURL)
	setString(&c.APIToken, overrides.APIToken)
	setString(&c.Project, overrides.Project)
	setString(&c.LogLevel, overrides.LogLevel)
	return nil
}

// LogPath returns the path to framer's own log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/framer.log")
	}
	return filepath.Join(c.LogDir, "framer.log")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return defaultConfigPath
}

func setString(dest *string, value string) {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		*dest = trimmed
	}
}

func setDuration(dest *time.Duration, key, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return fmt.Errorf("parse config: %s: %w", key, err)
	}
	if d <= 0 {
		return fmt.Errorf("parse config: %s must be positive, got %s", key, trimmed)
	}
	*dest = d
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

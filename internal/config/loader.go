package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars substitutes ${VAR} references. Unset variables stay as
// written.
func expandEnvVars(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		if val, ok := os.LookupEnv(envRef.FindStringSubmatch(ref)[1]); ok {
			return val
		}
		return ref
	})
}

// expandSensitiveFields lets the gateway secrets be written as ${VAR} in
// config.yaml.
func expandSensitiveFields(cfg *Config) {
	cfg.Gateway.Auth.Token = expandEnvVars(cfg.Gateway.Auth.Token)
	cfg.Gateway.Auth.Password = expandEnvVars(cfg.Gateway.Auth.Password)
}

// envOverrides lists the BACKOFFICE_* variables that take precedence over
// the config file. Zero values mean "not set".
type envOverrides struct {
	GatewayPort int    `env:"BACKOFFICE_GATEWAY_PORT"`
	GatewayBind string `env:"BACKOFFICE_GATEWAY_BIND"`
	LogLevel    string `env:"BACKOFFICE_LOG_LEVEL"`
	Database    string `env:"BACKOFFICE_DATABASE"`
	CacheDir    string `env:"BACKOFFICE_CACHE_DIR"`
	Locale      string `env:"BACKOFFICE_LOCALE"`
}

// readConfigFile returns the file contents, or nil when it does not exist.
func readConfigFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return data, nil
}

// Load merges defaults, the YAML file at path and BACKOFFICE_* overrides,
// in that order. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Defaults()
	data, err := readConfigFile(path)
	if err != nil {
		return cfg, err
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
		}
		applyDefaults(&cfg)
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the file as a generic map for dotted-path edits.
func LoadRaw(path string) (map[string]any, error) {
	data, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

// SaveRaw writes raw to path through a temp file so a failed write never
// leaves a truncated config behind.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = DefaultPort
	}
	if cfg.Gateway.Bind == "" {
		cfg.Gateway.Bind = "loopback"
	}
	if cfg.Gateway.Auth.Mode == "" {
		cfg.Gateway.Auth.Mode = "token"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
	if cfg.I18n.Locale == "" {
		cfg.I18n.Locale = DefaultLocale
	}
	for i := range cfg.Modules {
		if cfg.Modules[i].Title == "" {
			cfg.Modules[i].Title = cfg.Modules[i].Code
		}
	}
}

// applyEnvOverrides reads BACKOFFICE_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return &ConfigError{Message: "invalid environment override: " + err.Error()}
	}

	if o.GatewayPort != 0 {
		cfg.Gateway.Port = o.GatewayPort
	}
	if o.GatewayBind != "" {
		cfg.Gateway.Bind = o.GatewayBind
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = strings.ToLower(o.LogLevel)
	}
	if o.Database != "" {
		cfg.Database.Path = o.Database
	}
	if o.CacheDir != "" {
		cfg.Cache.Dir = o.CacheDir
	}
	if o.Locale != "" {
		cfg.I18n.Locale = o.Locale
	}
	return nil
}

// Package config loads ~/.backoffice/config.yaml, applies BACKOFFICE_*
// environment overrides and offers dotted-path edits of the raw file.
package config

const (
	// DefaultPort is the admin gateway port.
	DefaultPort = 18790
	// DefaultLocale selects the message catalog for user-facing errors.
	DefaultLocale = "en-US"
)

// ConfigError is returned for unparseable files, bad overrides and
// invalid config paths.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string { return "config: " + e.Message }

// Defaults is the configuration used before any file or override applies.
func Defaults() Config {
	var cfg Config
	cfg.Gateway.Port = DefaultPort
	cfg.Gateway.Bind = "loopback"
	cfg.Gateway.Auth.Mode = "token"
	cfg.Logging.Level = "info"
	cfg.Logging.ConsoleStyle = "pretty"
	cfg.I18n.Locale = DefaultLocale
	return cfg
}

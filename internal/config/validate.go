package config

import (
	"fmt"
	"path/filepath"
	"slices"
)

// ValidationIssue is one problem found by Validate, keyed by its dotted
// path in config.yaml.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// SupportedLocales lists the locales shipped in the message catalog.
var SupportedLocales = []string{"en-US", "fr-FR"}

var (
	validBinds         = []string{"auto", "lan", "loopback", "custom"}
	validAuthModes     = []string{"token", "password"}
	validLogLevels     = []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	validConsoleStyles = []string{"pretty", "compact", "json"}
)

type issues []ValidationIssue

func (is *issues) add(path, format string, args ...any) {
	*is = append(*is, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
}

// oneOf flags a non-empty value outside allowed.
func (is *issues) oneOf(path, got string, allowed []string) {
	if got != "" && !slices.Contains(allowed, got) {
		is.add(path, "must be one of %v, got %q", allowed, got)
	}
}

// Validate reports every problem in cfg. A valid config returns nil.
func Validate(cfg *Config) []ValidationIssue {
	var is issues

	gw := cfg.Gateway
	if gw.Port < 0 || gw.Port > 65535 {
		is.add("gateway.port", "port must be 0-65535, got %d", gw.Port)
	}
	is.oneOf("gateway.bind", gw.Bind, validBinds)
	is.oneOf("gateway.auth.mode", gw.Auth.Mode, validAuthModes)
	if gw.TLS.Enabled && (gw.TLS.CertPath == "" || gw.TLS.KeyPath == "") {
		is.add("gateway.tls", "certPath and keyPath are required when TLS is enabled")
	}

	is.oneOf("logging.level", cfg.Logging.Level, validLogLevels)
	is.oneOf("logging.consoleStyle", cfg.Logging.ConsoleStyle, validConsoleStyles)
	is.oneOf("i18n.locale", cfg.I18n.Locale, SupportedLocales)

	if dir := cfg.Cache.Dir; dir != "" && filepath.Clean(dir) == string(filepath.Separator) {
		is.add("cache.dir", "refusing to use the filesystem root as cache directory")
	}

	seen := make(map[string]bool, len(cfg.Modules))
	for i, m := range cfg.Modules {
		path := fmt.Sprintf("modules[%d]", i)
		switch {
		case m.Code == "":
			is.add(path+".code", "code is required")
			continue
		case seen[m.Code]:
			is.add(path+".code", "duplicate module code %q", m.Code)
		}
		seen[m.Code] = true

		for j, l := range m.Listeners {
			lpath := fmt.Sprintf("%s.listeners[%d]", path, j)
			for _, f := range [...]struct{ name, value string }{
				{"hook", l.Hook}, {"classname", l.Classname}, {"method", l.Method},
			} {
				if f.value == "" {
					is.add(lpath+"."+f.name, "%s is required", f.name)
				}
			}
		}
	}

	if len(is) == 0 {
		return nil
	}
	return is
}

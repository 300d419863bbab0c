package config

// Config is the root configuration for the back-office.
type Config struct {
	Gateway  GatewayConfig  `yaml:"gateway,omitempty"`
	Database DatabaseConfig `yaml:"database,omitempty"`
	Cache    CacheConfig    `yaml:"cache,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	I18n     I18nConfig     `yaml:"i18n,omitempty"`
	Modules  []ModuleEntry  `yaml:"modules,omitempty"`
}

// GatewayConfig controls the admin HTTP/WebSocket server.
type GatewayConfig struct {
	Port           int              `yaml:"port,omitempty"`
	Bind           string           `yaml:"bind,omitempty"` // "auto" | "lan" | "loopback" | "custom"
	CustomBindHost string           `yaml:"customBindHost,omitempty"`
	Auth           GatewayAuth      `yaml:"auth,omitempty"`
	TLS            GatewayTLS       `yaml:"tls,omitempty"`
	ControlUI      GatewayControlUI `yaml:"controlUi,omitempty"`
}

// GatewayAuth configures gateway authentication.
type GatewayAuth struct {
	Mode     string `yaml:"mode,omitempty"` // "token" | "password"
	Token    string `yaml:"token,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// GatewayTLS configures TLS for the gateway.
type GatewayTLS struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	CertPath string `yaml:"certPath,omitempty"`
	KeyPath  string `yaml:"keyPath,omitempty"`
}

// GatewayControlUI configures browser access to the admin API.
type GatewayControlUI struct {
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// DatabaseConfig locates the SQLite database. An empty path resolves to
// <data dir>/backoffice.db.
type DatabaseConfig struct {
	Path string `yaml:"path,omitempty"`
}

// CacheConfig locates the directory wiped on every cache clear. An empty
// path resolves to <base dir>/cache.
type CacheConfig struct {
	Dir string `yaml:"dir,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}

// I18nConfig selects the locale of user-facing messages.
type I18nConfig struct {
	Locale string `yaml:"locale,omitempty"`
}

// ModuleEntry declares a module and the listeners it binds to hooks.
// Declared modules are synchronized into the database at startup.
type ModuleEntry struct {
	Code      string          `yaml:"code"`
	Title     string          `yaml:"title,omitempty"`
	Version   string          `yaml:"version,omitempty"`
	Listeners []ListenerEntry `yaml:"listeners,omitempty"`
}

// ListenerEntry binds one listener method to a hook code.
type ListenerEntry struct {
	Hook      string `yaml:"hook"`
	Classname string `yaml:"classname"`
	Method    string `yaml:"method"`
}

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

const defaultBaseDir = ".backoffice"

// Paths are the on-disk locations under the back-office home.
type Paths struct {
	Base   string
	Config string // <base>/config.yaml
	Data   string // <base>/data, holds backoffice.db
	Cache  string // <base>/cache, emptied on cache.clear
	Logs   string
}

type homeEnv struct {
	Home string `env:"BACKOFFICE_HOME"`
}

// ResolvePaths lays the standard directories out under BACKOFFICE_HOME, or
// ~/.backoffice when it is unset.
func ResolvePaths() (Paths, error) {
	e, err := env.ParseAs[homeEnv]()
	if err != nil {
		return Paths{}, &ConfigError{Message: "invalid environment: " + err.Error()}
	}
	base := e.Home
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, fmt.Errorf("resolving home directory: %w", err)
		}
		base = filepath.Join(home, defaultBaseDir)
	}
	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Data:   filepath.Join(base, "data"),
		Cache:  filepath.Join(base, "cache"),
		Logs:   filepath.Join(base, "logs"),
	}, nil
}

// EnsureDirs creates the standard directories, owner-only.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Data, p.Cache, p.Logs} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return fmt.Errorf("creating %s: %w", d, err)
		}
	}
	return nil
}

// DatabasePath is database.path, or data/backoffice.db.
func (p Paths) DatabasePath(cfg Config) string {
	if cfg.Database.Path != "" {
		return cfg.Database.Path
	}
	return filepath.Join(p.Data, "backoffice.db")
}

// CacheDir is cache.dir, or the cache directory under the home.
func (p Paths) CacheDir(cfg Config) string {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir
	}
	return p.Cache
}

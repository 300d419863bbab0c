package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"single segment", "cache", []string{"cache"}, false},
		{"two segments", "gateway.port", []string{"gateway", "port"}, false},
		{"three segments", "gateway.auth.mode", []string{"gateway", "auth", "mode"}, false},
		{"empty", "", nil, true},
		{"empty segment", "gateway..port", nil, true},
		{"trailing dot", "gateway.", nil, true},
		{"dashed key", "gateway.control-ui", []string{"gateway", "control-ui"}, false},
		{"leading underscore", "i18n.__proto__.locale", nil, true},
		{"space", "gateway.po rt", nil, true},
		{"digit first", "modules.0", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfigPath(tt.input)
			if tt.wantErr {
				var ce *ConfigError
				assert.ErrorAs(t, err, &ce)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetSetValueAtPath(t *testing.T) {
	root := map[string]any{
		"database": map[string]any{"path": "/var/lib/backoffice.db"},
		"simple":   "value",
	}

	val, ok := GetValueAtPath(root, []string{"database", "path"})
	assert.True(t, ok)
	assert.Equal(t, "/var/lib/backoffice.db", val)

	_, ok = GetValueAtPath(root, []string{"simple", "nested"})
	assert.False(t, ok)

	SetValueAtPath(root, []string{"cache", "dir"}, "/tmp/cache")
	val, ok = GetValueAtPath(root, []string{"cache", "dir"})
	assert.True(t, ok)
	assert.Equal(t, "/tmp/cache", val)

	// Overwrites a scalar intermediate with a map.
	SetValueAtPath(root, []string{"simple", "nested"}, 1)
	val, ok = GetValueAtPath(root, []string{"simple", "nested"})
	assert.True(t, ok)
	assert.Equal(t, 1, val)
}

func TestUnsetValueAtPath(t *testing.T) {
	root := map[string]any{
		"logging": map[string]any{"level": "debug", "file": "x.log"},
	}

	assert.True(t, UnsetValueAtPath(root, []string{"logging", "level"}))
	_, exists := GetValueAtPath(root, []string{"logging", "level"})
	assert.False(t, exists)

	val, exists := GetValueAtPath(root, []string{"logging", "file"})
	assert.True(t, exists)
	assert.Equal(t, "x.log", val)

	assert.False(t, UnsetValueAtPath(root, []string{"logging", "missing"}))
	assert.False(t, UnsetValueAtPath(root, []string{"missing", "key"}))
}

func TestResolvePaths_DefaultHome(t *testing.T) {
	t.Setenv("BACKOFFICE_HOME", "")

	paths, err := ResolvePaths()
	require.NoError(t, err)

	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".backoffice")
	assert.Equal(t, base, paths.Base)
	assert.Equal(t, filepath.Join(base, "config.yaml"), paths.Config)
	assert.Equal(t, filepath.Join(base, "data"), paths.Data)
	assert.Equal(t, filepath.Join(base, "cache"), paths.Cache)
	assert.Equal(t, filepath.Join(base, "logs"), paths.Logs)
}

func TestResolvePaths_CustomHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("BACKOFFICE_HOME", tmp)

	paths, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, tmp, paths.Base)
	assert.Equal(t, filepath.Join(tmp, "config.yaml"), paths.Config)
}

func TestEnsureDirs(t *testing.T) {
	t.Setenv("BACKOFFICE_HOME", t.TempDir())

	paths, err := ResolvePaths()
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirs())
	require.NoError(t, paths.EnsureDirs())

	for _, d := range []string{paths.Base, paths.Data, paths.Cache, paths.Logs} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestDatabasePathAndCacheDir(t *testing.T) {
	paths := Paths{Data: "/home/x/.backoffice/data", Cache: "/home/x/.backoffice/cache"}

	cfg := Defaults()
	assert.Equal(t, "/home/x/.backoffice/data/backoffice.db", paths.DatabasePath(cfg))
	assert.Equal(t, "/home/x/.backoffice/cache", paths.CacheDir(cfg))

	cfg.Database.Path = "/srv/shop.db"
	cfg.Cache.Dir = "/srv/cache"
	assert.Equal(t, "/srv/shop.db", paths.DatabasePath(cfg))
	assert.Equal(t, "/srv/cache", paths.CacheDir(cfg))
}

package cli

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/soyeahso/backoffice/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, parseValue("true"))
	assert.Equal(t, false, parseValue("FALSE"))
	assert.Equal(t, 18790, parseValue("18790"))
	assert.Equal(t, 1.5, parseValue("1.5"))
	assert.Equal(t, "fr-FR", parseValue("fr-FR"))
	assert.Equal(t, "007x", parseValue("007x"))
	assert.Equal(t, []any{"http://a.local", "http://b.local"}, parseValue("[http://a.local, http://b.local]"))
	assert.Equal(t, "~", parseValue("~"))
	assert.Equal(t, "{", parseValue("{"))
}

func TestParseExpiry(t *testing.T) {
	exp, err := parseExpiry("")
	require.NoError(t, err)
	assert.Nil(t, exp)

	exp, err = parseExpiry("2026-12-25")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC), *exp)

	_, err = parseExpiry("2026-12-25T10:00:00+01:00")
	require.NoError(t, err)

	_, err = parseExpiry("christmas")
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := parseID("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	for _, s := range []string{"", "0", "-1", "abc"} {
		_, err := parseID(s)
		assert.Error(t, err, s)
	}
}

func TestIsRestartKey(t *testing.T) {
	assert.True(t, isRestartKey("gateway.port"))
	assert.True(t, isRestartKey("modules"))
	assert.False(t, isRestartKey("logging.level"))
	assert.False(t, isRestartKey("gatewayx"))
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--log-level", "silent", "-o", "json"}, args...))
	return cmd.Execute()
}

func TestCommandsDriveTheDatabase(t *testing.T) {
	home := t.TempDir()
	t.Setenv("BACKOFFICE_HOME", home)

	require.NoError(t, run(t, "module", "add", "Colissimo"))
	require.NoError(t, run(t, "hook", "add", "order-edit.bill"))
	require.NoError(t, run(t, "module-hook", "create", "Colissimo", "order-edit.bill", "ColissimoHook", "onBill"))

	err := run(t, "module-hook", "toggle", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "The module has to be activated.")

	require.NoError(t, run(t, "module", "toggle", "Colissimo"))
	require.NoError(t, run(t, "module-hook", "toggle", "1"))
	require.NoError(t, run(t, "coupon", "add", "XMAS", "--amount", "30", "--title", "Christmas"))

	db, err := store.Open(filepath.Join(home, "data", "backoffice.db"), log)
	require.NoError(t, err)
	defer db.Close()
	st := store.New(db)

	listeners, err := st.ModuleHooks.ListEnabledByHookCode(context.Background(), "order-edit.bill")
	require.NoError(t, err)
	require.Len(t, listeners, 1)
	assert.Equal(t, "Colissimo", listeners[0].ModuleCode)

	c, err := st.Coupons.Get(context.Background(), "XMAS")
	require.NoError(t, err)
	assert.Equal(t, 30.0, c.Amount)

	require.NoError(t, run(t, "module-hook", "delete", "1"))
	ignored, err := st.Ignored.ListByModule(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, ignored, 1)
}

func TestUnknownOutputFormat(t *testing.T) {
	t.Setenv("BACKOFFICE_HOME", t.TempDir())
	assert.ErrorContains(t, run(t, "-o", "xml", "version"), "unknown output format")
}

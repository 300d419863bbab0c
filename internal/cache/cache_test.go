package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/soyeahso/backoffice/internal/domain"
	"github.com/soyeahso/backoffice/internal/events"
	"github.com/soyeahso/backoffice/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClearDir_RemovesContentsKeepsDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.cache"), []byte("x"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub", "deeper"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "deeper", "b"), []byte("y"), 0o600))

	n, err := ClearDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClearDir_Missing(t *testing.T) {
	n, err := ClearDir(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClearDir_Refused(t *testing.T) {
	for _, dir := range []string{"", "   ", "/", "//"} {
		_, err := ClearDir(dir)
		assert.True(t, domain.IsCode(err, domain.CodeInvalidArgument), "dir %q", dir)
	}
}

type fakeSource struct {
	calls     int
	listeners map[string][]domain.Listener
}

func (f *fakeSource) ListEnabledByHookCode(_ context.Context, code string) ([]domain.Listener, error) {
	f.calls++
	return f.listeners[code], nil
}

func TestListeners_CachesUntilClear(t *testing.T) {
	log := logging.New(nil, "silent")
	src := &fakeSource{listeners: map[string][]domain.Listener{
		"product.tab": {{ModuleCode: "Colissimo", HookCode: "product.tab"}},
	}}
	l := NewListeners(src, log)

	got, err := l.Get(context.Background(), "product.tab")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Colissimo", got[0].ModuleCode)

	_, err = l.Get(context.Background(), "product.tab")
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	empty, err := l.Get(context.Background(), "unknown")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Equal(t, 2, l.Len())

	d := events.NewDispatcher(log)
	d.Subscribe(l)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "compiled"), nil, 0o600))

	_, err = d.Dispatch(context.Background(), events.CacheClear, &events.CacheEvent{Dir: dir})
	require.NoError(t, err)
	assert.Zero(t, l.Len())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = l.Get(context.Background(), "product.tab")
	require.NoError(t, err)
	assert.Equal(t, 3, src.calls)
}

func TestListeners_BadPayload(t *testing.T) {
	log := logging.New(nil, "silent")
	d := events.NewDispatcher(log)
	d.Subscribe(NewListeners(&fakeSource{}, log))

	_, err := d.Dispatch(context.Background(), events.CacheClear, "not an event")
	assert.True(t, domain.IsCode(err, domain.CodeInvalidArgument))
}

func TestListeners_ResetOnModuleToggle(t *testing.T) {
	log := logging.New(nil, "silent")
	src := &fakeSource{}
	l := NewListeners(src, log)
	d := events.NewDispatcher(log)
	d.Subscribe(l)

	cases := map[string]any{
		events.ModuleToggleActivation: &events.ModuleToggleActivationEvent{ModuleID: 1},
		events.ModuleDelete:           &events.ModuleDeleteEvent{ModuleID: 1},
	}
	for name, payload := range cases {
		_, err := l.Get(context.Background(), "product.tab")
		require.NoError(t, err)
		require.Equal(t, 1, l.Len())

		_, err = d.Dispatch(context.Background(), name, payload)
		require.NoError(t, err)
		assert.Zero(t, l.Len(), name)
	}
}

func TestListeners_ClearDirFailureIsNotFatal(t *testing.T) {
	log := logging.New(nil, "silent")
	l := NewListeners(&fakeSource{}, log)
	d := events.NewDispatcher(log)
	d.Subscribe(l)

	_, err := l.Get(context.Background(), "product.tab")
	require.NoError(t, err)

	// A regular file where the directory should be makes ReadDir fail.
	notADir := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, os.WriteFile(notADir, nil, 0o600))

	_, err = d.Dispatch(context.Background(), events.CacheClear, &events.CacheEvent{Dir: notADir})
	require.NoError(t, err)
	assert.Zero(t, l.Len(), "listener cache is still reset")
}

// gatedSource blocks each load until release is closed.
type gatedSource struct {
	entered chan struct{}
	release chan struct{}
	rows    []domain.Listener
}

func (g *gatedSource) ListEnabledByHookCode(context.Context, string) ([]domain.Listener, error) {
	rows := g.rows
	g.entered <- struct{}{}
	<-g.release
	return rows, nil
}

func TestListeners_ResetDuringLoadDiscardsResult(t *testing.T) {
	src := &gatedSource{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
		rows:    []domain.Listener{{ModuleHook: domain.ModuleHook{Method: "old"}, ModuleCode: "Colissimo"}},
	}
	l := NewListeners(src, logging.New(nil, "silent"))

	done := make(chan []domain.Listener, 1)
	go func() {
		got, err := l.Get(context.Background(), "product.tab")
		assert.NoError(t, err)
		done <- got
	}()

	select {
	case <-src.entered:
	case <-time.After(time.Second):
		t.Fatal("load never started")
	}
	l.Reset()
	close(src.release)

	stale := <-done
	require.Len(t, stale, 1, "the in-flight caller still gets its rows")
	assert.Zero(t, l.Len(), "rows loaded before the reset are not cached")

	src.rows = nil
	got, err := l.Get(context.Background(), "product.tab")
	require.NoError(t, err)
	assert.Empty(t, got)
}

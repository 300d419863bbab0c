// Package cache invalidates compiled caches when a cache.clear event is
// dispatched.
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/soyeahso/backoffice/internal/domain"
	"github.com/soyeahso/backoffice/internal/events"
	"github.com/soyeahso/backoffice/internal/logging"
)

// ClearDir removes everything inside dir but keeps dir itself. A missing
// directory is not an error. Empty and root paths are refused.
func ClearDir(dir string) (int, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return 0, domain.NewError(domain.CodeInvalidArgument, "cache directory is empty")
	}
	clean := filepath.Clean(dir)
	if clean == string(filepath.Separator) || clean == filepath.VolumeName(clean)+string(filepath.Separator) {
		return 0, domain.NewError(domain.CodeInvalidArgument, fmt.Sprintf("refusing to clear %s", clean))
	}

	entries, err := os.ReadDir(clean)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(clean, entry.Name())); err != nil {
			return removed, fmt.Errorf("removing %s: %w", entry.Name(), err)
		}
		removed++
	}
	return removed, nil
}

// Source resolves the enabled listeners of a hook.
type Source interface {
	ListEnabledByHookCode(ctx context.Context, hookCode string) ([]domain.Listener, error)
}

// Listeners caches the resolved listeners of each hook until the next
// cache.clear.
type Listeners struct {
	src Source
	log *logging.Logger

	mu     sync.RWMutex
	byHook map[string][]domain.Listener
	// gen is bumped by Reset. A load started under an older gen is
	// returned to its caller but not stored.
	gen uint64
}

// NewListeners creates an empty listener cache over src.
func NewListeners(src Source, log *logging.Logger) *Listeners {
	return &Listeners{
		src:    src,
		log:    log.Sub("cache"),
		byHook: make(map[string][]domain.Listener),
	}
}

// Get returns the listeners of hookCode in position order, loading them on
// first use.
func (l *Listeners) Get(ctx context.Context, hookCode string) ([]domain.Listener, error) {
	l.mu.RLock()
	cached, ok := l.byHook[hookCode]
	gen := l.gen
	l.mu.RUnlock()
	if ok {
		return cached, nil
	}

	loaded, err := l.src.ListEnabledByHookCode(ctx, hookCode)
	if err != nil {
		return nil, fmt.Errorf("loading listeners of %s: %w", hookCode, err)
	}
	if loaded == nil {
		loaded = []domain.Listener{}
	}

	l.mu.Lock()
	if l.gen == gen {
		l.byHook[hookCode] = loaded
	}
	l.mu.Unlock()
	return loaded, nil
}

// Len returns the number of cached hooks.
func (l *Listeners) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byHook)
}

// Reset drops every cached hook.
func (l *Listeners) Reset() {
	l.mu.Lock()
	l.byHook = make(map[string][]domain.Listener)
	l.gen++
	l.mu.Unlock()
}

// Subscriptions implements events.Subscriber.
func (l *Listeners) Subscriptions() []events.Subscription {
	return []events.Subscription{
		{Event: events.CacheClear, Name: "cache.listeners", Priority: 0, Listener: l.onClear},
		{Event: events.CacheClear, Name: "cache.dir", Priority: 0, Listener: l.clearDir},
		// Module toggles and deletes rewrite module_active without a cache.clear.
		{Event: events.ModuleToggleActivation, Name: "cache.listeners", Priority: 0, Listener: l.onClear},
		{Event: events.ModuleDelete, Name: "cache.listeners", Priority: 0, Listener: l.onClear},
	}
}

func (l *Listeners) onClear(_ context.Context, _ *events.Event) error {
	l.Reset()
	l.log.Debug().Msg("listener cache reset")
	return nil
}

func (l *Listeners) clearDir(_ context.Context, e *events.Event) error {
	ev, ok := e.Payload.(*events.CacheEvent)
	if !ok || ev == nil {
		return domain.NewError(domain.CodeInvalidArgument, fmt.Sprintf("event %s: expected *events.CacheEvent, got %T", e.Name, e.Payload))
	}
	// The change that triggered the clear is already committed, so a
	// directory that cannot be emptied is reported but does not fail it.
	n, err := ClearDir(ev.Dir)
	if err != nil {
		l.log.Warn().Err(err).Str("dir", ev.Dir).Msg("cache directory not cleared")
		return nil
	}
	l.log.Info().Str("dir", ev.Dir).Int("entries", n).Msg("cache cleared")
	return nil
}

package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/soyeahso/backoffice/internal/domain"
	"github.com/soyeahso/backoffice/internal/events"
	"github.com/soyeahso/backoffice/internal/logging"
	"github.com/soyeahso/backoffice/internal/store"
)

// Registry manages module lifecycle.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	order   []string // insertion order for deterministic lifecycle
	events  *events.Dispatcher
	store   *store.Store
	log     *logging.Logger
}

// NewRegistry creates a module registry. st may be nil when Sync is not used.
func NewRegistry(d *events.Dispatcher, st *store.Store, log *logging.Logger) *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
		events:  d,
		store:   st,
		log:     log.Sub("plugins"),
	}
}

// Register adds a module to the registry without initializing it.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[p.Code()]; exists {
		return fmt.Errorf("module already registered: %s", p.Code())
	}

	r.plugins[p.Code()] = p
	r.order = append(r.order, p.Code())

	r.log.Info().
		Str("code", p.Code()).
		Str("title", p.Title()).
		Str("version", p.Version()).
		Msg("module registered")

	return nil
}

// InitAll initializes all registered modules in registration order.
func (r *Registry) InitAll(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, code := range r.order {
		p := r.plugins[code]
		api := API{
			Events: r.events,
			Log:    r.log.Sub(code),
		}

		r.log.Info().Str("code", code).Msg("initializing module")
		if err := p.Init(ctx, api); err != nil {
			return fmt.Errorf("init module %s: %w", code, err)
		}
	}
	return nil
}

// CloseAll shuts down all modules in reverse registration order.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.order) - 1; i >= 0; i-- {
		code := r.order[i]
		p := r.plugins[code]
		r.log.Info().Str("code", code).Msg("closing module")
		if err := p.Close(); err != nil {
			r.log.Error().Err(err).Str("code", code).Msg("module close error")
		}
	}
}

// Get returns a module by code, or nil if not found.
func (r *Registry) Get(code string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.plugins[code]
}

// List returns all registered module codes in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of registered modules.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// Info returns summary information about all registered modules.
func (r *Registry) Info() []PluginInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]PluginInfo, 0, len(r.order))
	for _, code := range r.order {
		p := r.plugins[code]
		infos = append(infos, PluginInfo{
			Code:      p.Code(),
			Title:     p.Title(),
			Version:   p.Version(),
			Listeners: len(p.Listeners()),
		})
	}
	return infos
}

// PluginInfo holds summary data about a module.
type PluginInfo struct {
	Code      string `json:"code"`
	Title     string `json:"title"`
	Version   string `json:"version"`
	Listeners int    `json:"listeners"`
}

// SyncReport counts what Sync did.
type SyncReport struct {
	ModulesCreated  int `json:"modulesCreated"`
	BindingsCreated int `json:"bindingsCreated"`
	AlreadyBound    int `json:"alreadyBound"`
	Ignored         int `json:"ignored"`
	MissingHooks    int `json:"missingHooks"`
}

// Sync makes sure every registered module has a row and binds its declared
// listeners. Listeners already bound, removed by an administrator, or
// targeting an unknown hook are skipped. New modules are created inactive.
func (r *Registry) Sync(ctx context.Context) (SyncReport, error) {
	var rep SyncReport
	if r.store == nil {
		return rep, fmt.Errorf("module registry has no store")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, code := range r.order {
		p := r.plugins[code]

		m, err := r.store.Modules.GetByCode(ctx, code)
		if domain.IsCode(err, domain.CodeNotFound) {
			ev := &events.ModuleCreateEvent{Code: code, Title: p.Title(), Version: p.Version()}
			if _, err := r.events.Dispatch(ctx, events.ModuleCreate, ev); err != nil {
				return rep, fmt.Errorf("creating module %s: %w", code, err)
			}
			if ev.Module == nil {
				return rep, fmt.Errorf("creating module %s: no handler for %s", code, events.ModuleCreate)
			}
			m = ev.Module
			rep.ModulesCreated++
		} else if err != nil {
			return rep, err
		}

		for _, l := range p.Listeners() {
			created, err := r.bind(ctx, m, l, &rep)
			if err != nil {
				return rep, fmt.Errorf("binding %s to %s: %w", code, l.HookCode, err)
			}
			if created {
				rep.BindingsCreated++
			}
		}
	}

	r.log.Info().
		Int("modules", rep.ModulesCreated).
		Int("bindings", rep.BindingsCreated).
		Int("ignored", rep.Ignored).
		Int("missingHooks", rep.MissingHooks).
		Msg("modules synced")
	return rep, nil
}

func (r *Registry) bind(ctx context.Context, m *domain.Module, l ListenerDecl, rep *SyncReport) (bool, error) {
	h, err := r.store.Hooks.GetByCode(ctx, l.HookCode)
	if domain.IsCode(err, domain.CodeNotFound) {
		r.log.Warn().Str("module", m.Code).Str("hook", l.HookCode).Msg("declared hook does not exist")
		rep.MissingHooks++
		return false, nil
	}
	if err != nil {
		return false, err
	}

	exists, err := r.store.ModuleHooks.Exists(ctx, m.ID, h.ID, l.Classname, l.Method)
	if err != nil {
		return false, err
	}
	if exists {
		rep.AlreadyBound++
		return false, nil
	}

	ignored, err := r.store.Ignored.IsIgnored(ctx, domain.IgnoredModuleHook{
		ModuleID: m.ID, HookID: h.ID, Classname: l.Classname, Method: l.Method,
	})
	if err != nil {
		return false, err
	}
	if ignored {
		rep.Ignored++
		return false, nil
	}

	_, err = r.events.Dispatch(ctx, events.ModuleHookCreate, &events.ModuleHookCreateEvent{
		ModuleID:  m.ID,
		HookID:    h.ID,
		Classname: l.Classname,
		Method:    l.Method,
	})
	return err == nil, err
}

// Package modulehook keeps module hooks consistent with the modules and
// hooks they bind, in response to back-office events.
package modulehook

import (
	"context"
	"fmt"

	"github.com/soyeahso/backoffice/internal/domain"
	"github.com/soyeahso/backoffice/internal/events"
	"github.com/soyeahso/backoffice/internal/i18n"
	"github.com/soyeahso/backoffice/internal/logging"
	"github.com/soyeahso/backoffice/internal/store"
)

// Subscription priorities. Binding events are handled first; module and
// hook events run after the catalog has updated the owning row.
const (
	PriorityModuleHook = 128
	PrioritySync       = 64
)

// Service handles module hook events.
type Service struct {
	store    *store.Store
	cacheDir string
	tr       *i18n.Translator
	log      *logging.Logger
}

// New creates the module hook service. cacheDir is sent with every
// cache.clear event it dispatches.
func New(st *store.Store, cacheDir string, tr *i18n.Translator, log *logging.Logger) *Service {
	return &Service{
		store:    st,
		cacheDir: cacheDir,
		tr:       tr,
		log:      log.Sub("modulehook"),
	}
}

// Subscriptions implements events.Subscriber.
func (s *Service) Subscriptions() []events.Subscription {
	return []events.Subscription{
		{Event: events.ModuleHookCreate, Name: "modulehook.create", Priority: PriorityModuleHook, Listener: s.CreateModuleHook},
		{Event: events.ModuleHookUpdate, Name: "modulehook.update", Priority: PriorityModuleHook, Listener: s.UpdateModuleHook},
		{Event: events.ModuleHookDelete, Name: "modulehook.delete", Priority: PriorityModuleHook, Listener: s.DeleteModuleHook},
		{Event: events.ModuleHookUpdatePosition, Name: "modulehook.update_position", Priority: PriorityModuleHook, Listener: s.UpdateModuleHookPosition},
		{Event: events.ModuleHookToggleActivation, Name: "modulehook.toggle_activation", Priority: PriorityModuleHook, Listener: s.ToggleModuleHookActivation},

		{Event: events.ModuleToggleActivation, Name: "modulehook.module_toggle_activation", Priority: PrioritySync, Listener: s.ToggleModuleActivation},
		{Event: events.ModuleDelete, Name: "modulehook.module_delete", Priority: PrioritySync, Listener: s.DeleteModule},

		{Event: events.HookToggleActivation, Name: "modulehook.hook_toggle_activation", Priority: PrioritySync, Listener: s.ToggleHookActivation},
		{Event: events.HookUpdate, Name: "modulehook.hook_update", Priority: PrioritySync, Listener: s.UpdateHook},
	}
}

func payload[T any](e *events.Event) (*T, error) {
	p, ok := e.Payload.(*T)
	if !ok || p == nil {
		var zero T
		return nil, domain.NewError(domain.CodeInvalidArgument,
			fmt.Sprintf("event %s: expected payload %T, got %T", e.Name, &zero, e.Payload))
	}
	return p, nil
}

// ToggleModuleActivation copies the module's active flag onto its bindings.
// An unknown module is ignored.
func (s *Service) ToggleModuleActivation(ctx context.Context, e *events.Event) error {
	ev, err := payload[events.ModuleToggleActivationEvent](e)
	if err != nil {
		return err
	}

	m, err := s.store.Modules.Get(ctx, ev.ModuleID)
	if domain.IsCode(err, domain.CodeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	n, err := s.store.ModuleHooks.SetModuleActive(ctx, m.ID, m.Active)
	if err != nil {
		return fmt.Errorf("syncing module %d bindings: %w", m.ID, err)
	}
	s.log.Debug().Int64("module", m.ID).Bool("active", m.Active).Int64("bindings", n).Msg("module bindings synced")
	return nil
}

// DeleteModule removes every binding of the module.
func (s *Service) DeleteModule(ctx context.Context, e *events.Event) error {
	ev, err := payload[events.ModuleDeleteEvent](e)
	if err != nil {
		return err
	}
	if ev.ModuleID == 0 {
		return nil
	}

	n, err := s.store.ModuleHooks.DeleteByModule(ctx, ev.ModuleID)
	if err != nil {
		return fmt.Errorf("deleting module %d bindings: %w", ev.ModuleID, err)
	}
	s.log.Debug().Int64("module", ev.ModuleID).Int64("bindings", n).Msg("module bindings deleted")
	return nil
}

func (s *Service) isModuleActive(ctx context.Context, id int64) (bool, error) {
	m, err := s.store.Modules.Get(ctx, id)
	if domain.IsCode(err, domain.CodeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.Active, nil
}

func (s *Service) isHookActive(ctx context.Context, id int64) (bool, error) {
	h, err := s.store.Hooks.Get(ctx, id)
	if domain.IsCode(err, domain.CodeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return h.Active, nil
}

// CreateModuleHook adds an inactive binding at the end of its hook and
// forgets any earlier removal of the module from that hook.
func (s *Service) CreateModuleHook(ctx context.Context, e *events.Event) error {
	ev, err := payload[events.ModuleHookCreateEvent](e)
	if err != nil {
		return err
	}

	moduleActive, err := s.isModuleActive(ctx, ev.ModuleID)
	if err != nil {
		return err
	}
	hookActive, err := s.isHookActive(ctx, ev.HookID)
	if err != nil {
		return err
	}
	pos, err := s.store.ModuleHooks.LastPositionInHook(ctx, ev.HookID)
	if err != nil {
		return err
	}

	mh := &domain.ModuleHook{
		ModuleID:     ev.ModuleID,
		HookID:       ev.HookID,
		Classname:    ev.Classname,
		Method:       ev.Method,
		Active:       false,
		ModuleActive: moduleActive,
		HookActive:   hookActive,
		Position:     pos,
	}
	if err := s.store.ModuleHooks.Create(ctx, mh); err != nil {
		return err
	}

	if _, err := s.store.Ignored.DeleteFor(ctx, ev.HookID, ev.ModuleID); err != nil {
		return fmt.Errorf("clearing ignored bindings: %w", err)
	}

	ev.ModuleHook = mh
	s.log.Info().Int64("id", mh.ID).Int64("module", mh.ModuleID).Int64("hook", mh.HookID).
		Str("listener", mh.Classname+"::"+mh.Method).Msg("module hook created")
	return nil
}

// UpdateModuleHook overwrites an existing binding. An unknown binding is
// ignored.
func (s *Service) UpdateModuleHook(ctx context.Context, e *events.Event) error {
	ev, err := payload[events.ModuleHookUpdateEvent](e)
	if err != nil {
		return err
	}

	mh, err := s.store.ModuleHooks.Get(ctx, ev.ModuleHookID)
	if domain.IsCode(err, domain.CodeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	hookActive, err := s.isHookActive(ctx, ev.HookID)
	if err != nil {
		return err
	}
	mh.HookID = ev.HookID
	mh.ModuleID = ev.ModuleID
	mh.Classname = ev.Classname
	mh.Method = ev.Method
	mh.Active = ev.Active
	mh.HookActive = hookActive
	if err := s.store.ModuleHooks.Save(ctx, mh); err != nil {
		return err
	}

	ev.ModuleHook = mh
	s.log.Info().Int64("id", mh.ID).Msg("module hook updated")
	return s.cacheClear(ctx, e)
}

// DeleteModuleHook removes a binding and records it as ignored so module
// synchronization does not recreate it. An unknown binding is ignored.
func (s *Service) DeleteModuleHook(ctx context.Context, e *events.Event) error {
	ev, err := payload[events.ModuleHookDeleteEvent](e)
	if err != nil {
		return err
	}

	mh, err := s.store.ModuleHooks.Get(ctx, ev.ModuleHookID)
	if domain.IsCode(err, domain.CodeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if err := s.store.ModuleHooks.Delete(ctx, mh.ID); err != nil {
		return err
	}
	ev.ModuleHook = mh

	if err := s.store.Ignored.Add(ctx, domain.IgnoredModuleHook{
		ModuleID:  mh.ModuleID,
		HookID:    mh.HookID,
		Classname: mh.Classname,
		Method:    mh.Method,
	}); err != nil {
		return fmt.Errorf("recording ignored binding: %w", err)
	}

	s.log.Info().Int64("id", mh.ID).Msg("module hook deleted")
	return s.cacheClear(ctx, e)
}

// ToggleModuleHookActivation flips the binding's Active flag. Bindings of
// inactive modules cannot be toggled.
func (s *Service) ToggleModuleHookActivation(ctx context.Context, e *events.Event) error {
	ev, err := payload[events.ModuleHookToggleActivationEvent](e)
	if err != nil {
		return err
	}

	if ev.ModuleHook != nil {
		mh, err := s.store.ModuleHooks.Get(ctx, ev.ModuleHook.ID)
		if err != nil {
			return err
		}
		if !mh.ModuleActive {
			return domain.NewError(domain.CodeModuleInactive, s.tr.Trans("The module has to be activated."))
		}
		mh.Active = !mh.Active
		if err := s.store.ModuleHooks.Save(ctx, mh); err != nil {
			return err
		}
		ev.ModuleHook = mh
		s.log.Info().Int64("id", mh.ID).Bool("active", mh.Active).Msg("module hook toggled")
	}

	return s.cacheClear(ctx, e)
}

// UpdateModuleHookPosition moves a binding within its hook.
func (s *Service) UpdateModuleHookPosition(ctx context.Context, e *events.Event) error {
	ev, err := payload[events.UpdatePositionEvent](e)
	if err != nil {
		return err
	}

	if err := s.store.ModuleHooks.UpdatePosition(ctx, ev.PositionUpdate); err != nil {
		return err
	}
	return s.cacheClear(ctx, e)
}

// UpdateHook copies the hook's active flag onto its bindings.
func (s *Service) UpdateHook(ctx context.Context, e *events.Event) error {
	ev, err := payload[events.HookUpdateEvent](e)
	if err != nil {
		return err
	}
	return s.syncHook(ctx, e, ev.Hook)
}

// ToggleHookActivation copies the hook's active flag onto its bindings.
func (s *Service) ToggleHookActivation(ctx context.Context, e *events.Event) error {
	ev, err := payload[events.HookToggleActivationEvent](e)
	if err != nil {
		return err
	}
	return s.syncHook(ctx, e, ev.Hook)
}

func (s *Service) syncHook(ctx context.Context, e *events.Event, h *domain.Hook) error {
	if h == nil {
		return nil
	}
	n, err := s.store.ModuleHooks.SetHookActive(ctx, h.ID, h.Active)
	if err != nil {
		return fmt.Errorf("syncing hook %d bindings: %w", h.ID, err)
	}
	s.log.Debug().Int64("hook", h.ID).Bool("active", h.Active).Int64("bindings", n).Msg("hook bindings synced")
	return s.cacheClear(ctx, e)
}

func (s *Service) cacheClear(ctx context.Context, e *events.Event) error {
	d := e.Dispatcher()
	if d == nil {
		return nil
	}
	_, err := d.Dispatch(ctx, events.CacheClear, &events.CacheEvent{Dir: s.cacheDir})
	return err
}

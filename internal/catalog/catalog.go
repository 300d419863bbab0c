// Package catalog applies module and hook mutations requested through
// back-office events.
package catalog

import (
	"context"
	"fmt"

	"github.com/soyeahso/backoffice/internal/domain"
	"github.com/soyeahso/backoffice/internal/events"
	"github.com/soyeahso/backoffice/internal/logging"
	"github.com/soyeahso/backoffice/internal/store"
)

// Priorities. Row mutations run before module hook synchronization;
// module removal runs after the module's bindings are gone.
const (
	PriorityMutate = 128
	PriorityRemove = 32
)

// Catalog owns module and hook rows.
type Catalog struct {
	store *store.Store
	log   *logging.Logger
}

// New creates a catalog over st.
func New(st *store.Store, log *logging.Logger) *Catalog {
	return &Catalog{store: st, log: log.Sub("catalog")}
}

// Subscriptions implements events.Subscriber.
func (c *Catalog) Subscriptions() []events.Subscription {
	return []events.Subscription{
		{Event: events.ModuleCreate, Name: "catalog.module_create", Priority: PriorityMutate, Listener: c.CreateModule},
		{Event: events.ModuleToggleActivation, Name: "catalog.module_toggle_activation", Priority: PriorityMutate, Listener: c.ToggleModule},
		{Event: events.ModuleDelete, Name: "catalog.module_delete", Priority: PriorityRemove, Listener: c.DeleteModule},
		{Event: events.HookCreate, Name: "catalog.hook_create", Priority: PriorityMutate, Listener: c.CreateHook},
		{Event: events.HookUpdate, Name: "catalog.hook_update", Priority: PriorityMutate, Listener: c.UpdateHook},
		{Event: events.HookToggleActivation, Name: "catalog.hook_toggle_activation", Priority: PriorityMutate, Listener: c.ToggleHook},
	}
}

func payloadAs[T any](e *events.Event) (*T, error) {
	p, ok := e.Payload.(*T)
	if !ok || p == nil {
		var zero T
		return nil, domain.NewError(domain.CodeInvalidArgument,
			fmt.Sprintf("event %s: expected payload %T, got %T", e.Name, &zero, e.Payload))
	}
	return p, nil
}

// CreateModule inserts a module at the end of the module list.
func (c *Catalog) CreateModule(ctx context.Context, e *events.Event) error {
	ev, err := payloadAs[events.ModuleCreateEvent](e)
	if err != nil {
		return err
	}

	title := ev.Title
	if title == "" {
		title = ev.Code
	}
	m := &domain.Module{Code: ev.Code, Title: title, Version: ev.Version, Active: ev.Active}
	if err := c.store.Modules.Create(ctx, m); err != nil {
		return err
	}
	ev.Module = m
	c.log.Info().Str("code", m.Code).Int64("id", m.ID).Msg("module created")
	return nil
}

// ToggleModule flips the module's active flag.
func (c *Catalog) ToggleModule(ctx context.Context, e *events.Event) error {
	ev, err := payloadAs[events.ModuleToggleActivationEvent](e)
	if err != nil {
		return err
	}

	m, err := c.store.Modules.Get(ctx, ev.ModuleID)
	if err != nil {
		return err
	}
	m.Active = !m.Active
	if err := c.store.Modules.SetActive(ctx, m.ID, m.Active); err != nil {
		return err
	}
	ev.Module = m
	c.log.Info().Str("code", m.Code).Bool("active", m.Active).Msg("module toggled")
	return nil
}

// DeleteModule removes the module row.
func (c *Catalog) DeleteModule(ctx context.Context, e *events.Event) error {
	ev, err := payloadAs[events.ModuleDeleteEvent](e)
	if err != nil {
		return err
	}
	if err := c.store.Modules.Delete(ctx, ev.ModuleID); err != nil {
		return err
	}
	c.log.Info().Int64("id", ev.ModuleID).Msg("module deleted")
	return nil
}

// CreateHook inserts a hook.
func (c *Catalog) CreateHook(ctx context.Context, e *events.Event) error {
	ev, err := payloadAs[events.HookCreateEvent](e)
	if err != nil {
		return err
	}

	h := &domain.Hook{
		Code:   ev.Code,
		Type:   ev.Type,
		Title:  ev.Title,
		Active: ev.Active,
		Native: ev.Native,
		Block:  ev.Block,
	}
	if err := c.store.Hooks.Create(ctx, h); err != nil {
		return err
	}
	ev.Hook = h
	c.log.Info().Str("code", h.Code).Int64("id", h.ID).Msg("hook created")
	return nil
}

// UpdateHook saves the hook carried by the event and replaces it with the
// stored row.
func (c *Catalog) UpdateHook(ctx context.Context, e *events.Event) error {
	ev, err := payloadAs[events.HookUpdateEvent](e)
	if err != nil {
		return err
	}
	if ev.Hook == nil {
		return nil
	}

	if err := c.store.Hooks.Save(ctx, ev.Hook); err != nil {
		return err
	}
	saved, err := c.store.Hooks.Get(ctx, ev.Hook.ID)
	if err != nil {
		return err
	}
	ev.Hook = saved
	c.log.Info().Str("code", saved.Code).Msg("hook updated")
	return nil
}

// ToggleHook flips the active flag of the hook carried by the event.
func (c *Catalog) ToggleHook(ctx context.Context, e *events.Event) error {
	ev, err := payloadAs[events.HookToggleActivationEvent](e)
	if err != nil {
		return err
	}
	if ev.Hook == nil {
		return nil
	}

	h, err := c.store.Hooks.Get(ctx, ev.Hook.ID)
	if err != nil {
		return err
	}
	h.Active = !h.Active
	if err := c.store.Hooks.SetActive(ctx, h.ID, h.Active); err != nil {
		return err
	}
	ev.Hook = h
	c.log.Info().Str("code", h.Code).Bool("active", h.Active).Msg("hook toggled")
	return nil
}

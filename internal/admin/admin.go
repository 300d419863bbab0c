// Package admin exposes the back-office operations shared by the gateway
// and the command line. Every module, hook and module hook mutation goes
// through the event dispatcher.
package admin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/soyeahso/backoffice/internal/cache"
	"github.com/soyeahso/backoffice/internal/catalog"
	"github.com/soyeahso/backoffice/internal/coupon"
	"github.com/soyeahso/backoffice/internal/domain"
	"github.com/soyeahso/backoffice/internal/events"
	"github.com/soyeahso/backoffice/internal/i18n"
	"github.com/soyeahso/backoffice/internal/logging"
	"github.com/soyeahso/backoffice/internal/modulehook"
	"github.com/soyeahso/backoffice/internal/store"
)

// Service runs back-office operations.
type Service struct {
	events    *events.Dispatcher
	store     *store.Store
	listeners *cache.Listeners
	coupons   *coupon.Factory
	tr        *i18n.Translator
	log       *logging.Logger
}

// Wire builds a dispatcher with every back-office subscriber attached and
// returns a service over it.
func Wire(st *store.Store, cacheDir string, tr *i18n.Translator, log *logging.Logger) *Service {
	d := events.NewDispatcher(log)
	listeners := cache.NewListeners(st.ModuleHooks, log)

	d.Subscribe(catalog.New(st, log))
	d.Subscribe(modulehook.New(st, cacheDir, tr, log))
	d.Subscribe(listeners)

	return &Service{
		events:    d,
		store:     st,
		listeners: listeners,
		coupons:   coupon.NewFactory(),
		tr:        tr,
		log:       log.Sub("admin"),
	}
}

// Events returns the dispatcher every operation goes through.
func (s *Service) Events() *events.Dispatcher { return s.events }

// Store returns the underlying store.
func (s *Service) Store() *store.Store { return s.store }

// Translator returns the translator used for user-facing messages.
func (s *Service) Translator() *i18n.Translator { return s.tr }

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.NewError(domain.CodeInvalidArgument, field+" is required")
	}
	return nil
}

// --- modules ---

// ListModules returns every module ordered by position.
func (s *Service) ListModules(ctx context.Context) ([]domain.Module, error) {
	return s.store.Modules.List(ctx)
}

// ModuleInput describes a module to create.
type ModuleInput struct {
	Code    string `json:"code"`
	Title   string `json:"title,omitempty"`
	Version string `json:"version,omitempty"`
	Active  bool   `json:"active"`
}

// CreateModule registers a module.
func (s *Service) CreateModule(ctx context.Context, in ModuleInput) (*domain.Module, error) {
	if err := required("code", in.Code); err != nil {
		return nil, err
	}
	ev := &events.ModuleCreateEvent{Code: in.Code, Title: in.Title, Version: in.Version, Active: in.Active}
	if _, err := s.events.Dispatch(ctx, events.ModuleCreate, ev); err != nil {
		return nil, err
	}
	return ev.Module, nil
}

// ToggleModule flips a module's activation and its bindings' ModuleActive.
func (s *Service) ToggleModule(ctx context.Context, id int64) (*domain.Module, error) {
	ev := &events.ModuleToggleActivationEvent{ModuleID: id}
	if _, err := s.events.Dispatch(ctx, events.ModuleToggleActivation, ev); err != nil {
		return nil, err
	}
	return ev.Module, nil
}

// DeleteModule removes a module and its bindings.
func (s *Service) DeleteModule(ctx context.Context, id int64) error {
	if _, err := s.store.Modules.Get(ctx, id); err != nil {
		return err
	}
	_, err := s.events.Dispatch(ctx, events.ModuleDelete, &events.ModuleDeleteEvent{ModuleID: id})
	return err
}

// ModuleByRef resolves a module by numeric id or code.
func (s *Service) ModuleByRef(ctx context.Context, ref string) (*domain.Module, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.store.Modules.Get(ctx, id)
	}
	return s.store.Modules.GetByCode(ctx, ref)
}

// --- hooks ---

// ListHooks returns every hook ordered by code.
func (s *Service) ListHooks(ctx context.Context) ([]domain.Hook, error) {
	return s.store.Hooks.List(ctx)
}

// HookInput describes a hook to create.
type HookInput struct {
	Code   string          `json:"code"`
	Type   domain.HookType `json:"type,omitempty"`
	Title  string          `json:"title,omitempty"`
	Active bool            `json:"active"`
	Native bool            `json:"native"`
	Block  bool            `json:"block"`
}

// CreateHook registers a hook.
func (s *Service) CreateHook(ctx context.Context, in HookInput) (*domain.Hook, error) {
	if err := required("code", in.Code); err != nil {
		return nil, err
	}
	ev := &events.HookCreateEvent{
		Code: in.Code, Type: in.Type, Title: in.Title,
		Active: in.Active, Native: in.Native, Block: in.Block,
	}
	if _, err := s.events.Dispatch(ctx, events.HookCreate, ev); err != nil {
		return nil, err
	}
	return ev.Hook, nil
}

// HookPatch lists the hook fields to change. Nil fields are kept.
type HookPatch struct {
	Title  *string          `json:"title,omitempty"`
	Type   *domain.HookType `json:"type,omitempty"`
	Active *bool            `json:"active,omitempty"`
	Native *bool            `json:"native,omitempty"`
	Block  *bool            `json:"block,omitempty"`
}

// UpdateHook applies p to the hook and syncs its bindings.
func (s *Service) UpdateHook(ctx context.Context, id int64, p HookPatch) (*domain.Hook, error) {
	h, err := s.store.Hooks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Title != nil {
		h.Title = *p.Title
	}
	if p.Type != nil {
		h.Type = *p.Type
	}
	if p.Active != nil {
		h.Active = *p.Active
	}
	if p.Native != nil {
		h.Native = *p.Native
	}
	if p.Block != nil {
		h.Block = *p.Block
	}

	ev := &events.HookUpdateEvent{Hook: h}
	if _, err := s.events.Dispatch(ctx, events.HookUpdate, ev); err != nil {
		return nil, err
	}
	return ev.Hook, nil
}

// ToggleHook flips a hook's activation and its bindings' HookActive.
func (s *Service) ToggleHook(ctx context.Context, id int64) (*domain.Hook, error) {
	h, err := s.store.Hooks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ev := &events.HookToggleActivationEvent{Hook: h}
	if _, err := s.events.Dispatch(ctx, events.HookToggleActivation, ev); err != nil {
		return nil, err
	}
	return ev.Hook, nil
}

// HookByRef resolves a hook by numeric id or code.
func (s *Service) HookByRef(ctx context.Context, ref string) (*domain.Hook, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.store.Hooks.Get(ctx, id)
	}
	return s.store.Hooks.GetByCode(ctx, ref)
}

// HookListeners returns the listeners that run for a hook, in order.
func (s *Service) HookListeners(ctx context.Context, hookCode string) ([]domain.Listener, error) {
	if _, err := s.store.Hooks.GetByCode(ctx, hookCode); err != nil {
		return nil, err
	}
	return s.listeners.Get(ctx, hookCode)
}

// --- module hooks ---

// ListModuleHooks returns bindings matching f.
func (s *Service) ListModuleHooks(ctx context.Context, f store.Filter) ([]domain.ModuleHook, error) {
	return s.store.ModuleHooks.List(ctx, f)
}

// GetModuleHook returns one binding.
func (s *Service) GetModuleHook(ctx context.Context, id int64) (*domain.ModuleHook, error) {
	return s.store.ModuleHooks.Get(ctx, id)
}

// ModuleHookInput describes a binding to create.
type ModuleHookInput struct {
	ModuleID  int64  `json:"moduleId"`
	HookID    int64  `json:"hookId"`
	Classname string `json:"classname"`
	Method    string `json:"method"`
}

// CreateModuleHook binds a listener to a hook. The binding starts inactive.
func (s *Service) CreateModuleHook(ctx context.Context, in ModuleHookInput) (*domain.ModuleHook, error) {
	if err := required("classname", in.Classname); err != nil {
		return nil, err
	}
	if err := required("method", in.Method); err != nil {
		return nil, err
	}
	ev := &events.ModuleHookCreateEvent{
		ModuleID: in.ModuleID, HookID: in.HookID, Classname: in.Classname, Method: in.Method,
	}
	if _, err := s.events.Dispatch(ctx, events.ModuleHookCreate, ev); err != nil {
		return nil, err
	}
	return ev.ModuleHook, nil
}

// ModuleHookPatch lists the binding fields to change. Nil fields are kept.
type ModuleHookPatch struct {
	ModuleID  *int64  `json:"moduleId,omitempty"`
	HookID    *int64  `json:"hookId,omitempty"`
	Classname *string `json:"classname,omitempty"`
	Method    *string `json:"method,omitempty"`
	Active    *bool   `json:"active,omitempty"`
}

// UpdateModuleHook applies p to the binding.
func (s *Service) UpdateModuleHook(ctx context.Context, id int64, p ModuleHookPatch) (*domain.ModuleHook, error) {
	mh, err := s.store.ModuleHooks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ev := &events.ModuleHookUpdateEvent{
		ModuleHookID: mh.ID,
		ModuleID:     mh.ModuleID,
		HookID:       mh.HookID,
		Classname:    mh.Classname,
		Method:       mh.Method,
		Active:       mh.Active,
	}
	if p.ModuleID != nil {
		ev.ModuleID = *p.ModuleID
	}
	if p.HookID != nil {
		ev.HookID = *p.HookID
	}
	if p.Classname != nil {
		ev.Classname = *p.Classname
	}
	if p.Method != nil {
		ev.Method = *p.Method
	}
	if p.Active != nil {
		ev.Active = *p.Active
	}

	if _, err := s.events.Dispatch(ctx, events.ModuleHookUpdate, ev); err != nil {
		return nil, err
	}
	if ev.ModuleHook == nil {
		return nil, domain.NotFound("module hook", id)
	}
	return ev.ModuleHook, nil
}

// DeleteModuleHook removes a binding and keeps module sync from recreating it.
func (s *Service) DeleteModuleHook(ctx context.Context, id int64) (*domain.ModuleHook, error) {
	ev := &events.ModuleHookDeleteEvent{ModuleHookID: id}
	if _, err := s.events.Dispatch(ctx, events.ModuleHookDelete, ev); err != nil {
		return nil, err
	}
	if ev.ModuleHook == nil {
		return nil, domain.NotFound("module hook", id)
	}
	return ev.ModuleHook, nil
}

// ToggleModuleHook flips a binding's Active flag. Fails with
// MODULE_INACTIVE when the owning module is inactive.
func (s *Service) ToggleModuleHook(ctx context.Context, id int64) (*domain.ModuleHook, error) {
	mh, err := s.store.ModuleHooks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ev := &events.ModuleHookToggleActivationEvent{ModuleHook: mh}
	if _, err := s.events.Dispatch(ctx, events.ModuleHookToggleActivation, ev); err != nil {
		return nil, err
	}
	return ev.ModuleHook, nil
}

// MoveModuleHook changes a binding's position within its hook.
func (s *Service) MoveModuleHook(ctx context.Context, id int64, mode string, position int) (*domain.ModuleHook, error) {
	m, err := domain.ParsePositionMode(mode)
	if err != nil {
		return nil, err
	}
	ev := &events.UpdatePositionEvent{PositionUpdate: domain.PositionUpdate{ObjectID: id, Mode: m, Position: position}}
	if _, err := s.events.Dispatch(ctx, events.ModuleHookUpdatePosition, ev); err != nil {
		return nil, err
	}
	return s.store.ModuleHooks.Get(ctx, id)
}

// --- coupons ---

// CouponView is a stored coupon together with what its type computes.
type CouponView struct {
	domain.Coupon
	Label  string  `json:"label"`
	Effect float64 `json:"effect"`
}

func (s *Service) view(c domain.Coupon) (CouponView, error) {
	t, err := s.coupons.Build(c)
	if err != nil {
		return CouponView{}, err
	}
	label := coupon.Labels[c.ServiceID]
	if s.tr != nil && label != "" {
		label = s.tr.Trans(label)
	}
	return CouponView{Coupon: c, Label: label, Effect: t.Effect()}, nil
}

// ListCoupons returns every coupon with its computed effect.
func (s *Service) ListCoupons(ctx context.Context) ([]CouponView, error) {
	list, err := s.store.Coupons.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CouponView, 0, len(list))
	for _, c := range list {
		v, err := s.view(c)
		if err != nil {
			return nil, fmt.Errorf("coupon %s: %w", c.Code, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// GetCoupon returns one coupon with its computed effect.
func (s *Service) GetCoupon(ctx context.Context, code string) (*CouponView, error) {
	c, err := s.store.Coupons.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	v, err := s.view(*c)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// SaveCoupon validates c against its type and stores it.
func (s *Service) SaveCoupon(ctx context.Context, c domain.Coupon) (*CouponView, error) {
	if err := required("code", c.Code); err != nil {
		return nil, err
	}
	if _, err := s.coupons.Build(c); err != nil {
		return nil, err
	}
	if err := s.store.Coupons.Save(ctx, &c); err != nil {
		return nil, err
	}
	return s.GetCoupon(ctx, c.Code)
}

// CouponTypes returns the registered coupon service ids.
func (s *Service) CouponTypes() []string {
	return s.coupons.ServiceIDs()
}

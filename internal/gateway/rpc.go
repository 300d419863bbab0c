package gateway

import (
	"strings"

	"github.com/soyeahso/backoffice/internal/admin"
	"github.com/soyeahso/backoffice/internal/config"
	"github.com/soyeahso/backoffice/internal/domain"
	"github.com/soyeahso/backoffice/internal/store"
)

// safeConfigPrefixes lists config path prefixes that can be read and
// written via RPC. All other paths are denied by default (allowlist).
var safeConfigPrefixes = []string{
	"gateway.port",
	"gateway.bind",
	"gateway.customBindHost",
	"gateway.controlUi",
	"logging",
	"i18n",
	"cache",
}

func isAllowedConfigPath(key string) bool {
	for _, prefix := range safeConfigPrefixes {
		if key == prefix || strings.HasPrefix(key, prefix+".") {
			return true
		}
	}
	return false
}

// registerRPCHandlers sets up all JSON-RPC method handlers.
func (s *Server) registerRPCHandlers() {
	s.Handle("health", s.rpcHealth)
	s.Handle("config.get", s.rpcConfigGet)
	s.Handle("config.set", s.rpcConfigSet)

	s.Handle("module.list", s.withAdmin(s.rpcModuleList))
	s.Handle("module.create", s.withAdmin(s.rpcModuleCreate))
	s.Handle("module.toggle_activation", s.withAdmin(s.rpcModuleToggle))
	s.Handle("module.delete", s.withAdmin(s.rpcModuleDelete))

	s.Handle("hook.list", s.withAdmin(s.rpcHookList))
	s.Handle("hook.create", s.withAdmin(s.rpcHookCreate))
	s.Handle("hook.update", s.withAdmin(s.rpcHookUpdate))
	s.Handle("hook.toggle_activation", s.withAdmin(s.rpcHookToggle))
	s.Handle("hook.listeners", s.withAdmin(s.rpcHookListeners))

	s.Handle("module_hook.list", s.withAdmin(s.rpcModuleHookList))
	s.Handle("module_hook.get", s.withAdmin(s.rpcModuleHookGet))
	s.Handle("module_hook.create", s.withAdmin(s.rpcModuleHookCreate))
	s.Handle("module_hook.update", s.withAdmin(s.rpcModuleHookUpdate))
	s.Handle("module_hook.delete", s.withAdmin(s.rpcModuleHookDelete))
	s.Handle("module_hook.toggle_activation", s.withAdmin(s.rpcModuleHookToggle))
	s.Handle("module_hook.update_position", s.withAdmin(s.rpcModuleHookPosition))

	s.Handle("coupon.list", s.withAdmin(s.rpcCouponList))
	s.Handle("coupon.get", s.withAdmin(s.rpcCouponGet))
	s.Handle("coupon.save", s.withAdmin(s.rpcCouponSave))
	s.Handle("coupon.types", s.withAdmin(s.rpcCouponTypes))
}

// withAdmin answers "unavailable" when the server runs without a database.
func (s *Server) withAdmin(h RequestHandler) RequestHandler {
	return func(rc *RequestContext) {
		if s.admin == nil {
			rc.RespondError("unavailable", "no database configured")
			return
		}
		h(rc)
	}
}

// bind decodes the params into v and reports a failure to the client.
func bind(rc *RequestContext, v any) bool {
	if err := rc.Params(v); err != nil {
		rc.RespondError("invalid_params", err.Error())
		return false
	}
	return true
}

type idParams struct {
	ID int64 `json:"id"`
}

func bindID(rc *RequestContext) (int64, bool) {
	var p idParams
	if !bind(rc, &p) {
		return 0, false
	}
	if p.ID <= 0 {
		rc.RespondError("invalid_params", "id is required")
		return 0, false
	}
	return p.ID, true
}

// Built-in RPC handlers

func (s *Server) rpcHealth(rc *RequestContext) {
	rc.Respond(HealthResponse{
		Status:   "ok",
		Version:  s.version,
		Clients:  s.clients.Count(),
		UptimeMs: s.uptime().Milliseconds(),
	})
}

type configGetParams struct {
	Key string `json:"key"`
}

func (s *Server) rpcConfigGet(rc *RequestContext) {
	var p configGetParams
	if !bind(rc, &p) {
		return
	}
	if p.Key == "" {
		rc.RespondError("invalid_params", "key is required")
		return
	}
	if !isAllowedConfigPath(p.Key) {
		rc.RespondError("forbidden", "access denied for config path: "+p.Key)
		return
	}

	path, err := config.ParseConfigPath(p.Key)
	if err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}

	s.mu.RLock()
	val, ok := config.GetValueAtPath(s.configRaw, path)
	s.mu.RUnlock()
	if !ok {
		rc.RespondError("not_found", "key not found: "+p.Key)
		return
	}
	rc.Respond(map[string]any{"key": p.Key, "value": val})
}

type configSetParams struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func (s *Server) rpcConfigSet(rc *RequestContext) {
	var p configSetParams
	if !bind(rc, &p) {
		return
	}
	if p.Key == "" {
		rc.RespondError("invalid_params", "key is required")
		return
	}
	if !isAllowedConfigPath(p.Key) {
		rc.RespondError("forbidden", "cannot modify config path: "+p.Key)
		return
	}

	path, err := config.ParseConfigPath(p.Key)
	if err != nil {
		rc.RespondError("invalid_params", err.Error())
		return
	}

	s.mu.Lock()
	config.SetValueAtPath(s.configRaw, path, p.Value)
	s.mu.Unlock()

	rc.Respond(map[string]any{"key": p.Key, "value": p.Value})
}

// Modules

func (s *Server) rpcModuleList(rc *RequestContext) {
	list, err := s.admin.ListModules(rc.Ctx)
	rc.Reply(map[string]any{"modules": list}, err)
}

func (s *Server) rpcModuleCreate(rc *RequestContext) {
	var in admin.ModuleInput
	if !bind(rc, &in) {
		return
	}
	rc.Reply(s.admin.CreateModule(rc.Ctx, in))
}

func (s *Server) rpcModuleToggle(rc *RequestContext) {
	if id, ok := bindID(rc); ok {
		rc.Reply(s.admin.ToggleModule(rc.Ctx, id))
	}
}

func (s *Server) rpcModuleDelete(rc *RequestContext) {
	id, ok := bindID(rc)
	if !ok {
		return
	}
	rc.Reply(map[string]any{"id": id, "deleted": true}, s.admin.DeleteModule(rc.Ctx, id))
}

// Hooks

func (s *Server) rpcHookList(rc *RequestContext) {
	list, err := s.admin.ListHooks(rc.Ctx)
	rc.Reply(map[string]any{"hooks": list}, err)
}

func (s *Server) rpcHookCreate(rc *RequestContext) {
	var in admin.HookInput
	if !bind(rc, &in) {
		return
	}
	rc.Reply(s.admin.CreateHook(rc.Ctx, in))
}

type hookUpdateParams struct {
	ID int64 `json:"id"`
	admin.HookPatch
}

func (s *Server) rpcHookUpdate(rc *RequestContext) {
	var p hookUpdateParams
	if !bind(rc, &p) {
		return
	}
	rc.Reply(s.admin.UpdateHook(rc.Ctx, p.ID, p.HookPatch))
}

func (s *Server) rpcHookToggle(rc *RequestContext) {
	if id, ok := bindID(rc); ok {
		rc.Reply(s.admin.ToggleHook(rc.Ctx, id))
	}
}

type hookCodeParams struct {
	Code string `json:"code"`
}

func (s *Server) rpcHookListeners(rc *RequestContext) {
	var p hookCodeParams
	if !bind(rc, &p) {
		return
	}
	list, err := s.admin.HookListeners(rc.Ctx, p.Code)
	rc.Reply(map[string]any{"hook": p.Code, "listeners": list}, err)
}

// Module hooks

type moduleHookListParams struct {
	ModuleID int64 `json:"moduleId,omitempty"`
	HookID   int64 `json:"hookId,omitempty"`
}

func (s *Server) rpcModuleHookList(rc *RequestContext) {
	var p moduleHookListParams
	if !bind(rc, &p) {
		return
	}
	list, err := s.admin.ListModuleHooks(rc.Ctx, store.Filter{ModuleID: p.ModuleID, HookID: p.HookID})
	rc.Reply(map[string]any{"moduleHooks": list}, err)
}

func (s *Server) rpcModuleHookGet(rc *RequestContext) {
	if id, ok := bindID(rc); ok {
		rc.Reply(s.admin.GetModuleHook(rc.Ctx, id))
	}
}

func (s *Server) rpcModuleHookCreate(rc *RequestContext) {
	var in admin.ModuleHookInput
	if !bind(rc, &in) {
		return
	}
	rc.Reply(s.admin.CreateModuleHook(rc.Ctx, in))
}

type moduleHookUpdateParams struct {
	ID int64 `json:"id"`
	admin.ModuleHookPatch
}

func (s *Server) rpcModuleHookUpdate(rc *RequestContext) {
	var p moduleHookUpdateParams
	if !bind(rc, &p) {
		return
	}
	rc.Reply(s.admin.UpdateModuleHook(rc.Ctx, p.ID, p.ModuleHookPatch))
}

func (s *Server) rpcModuleHookDelete(rc *RequestContext) {
	if id, ok := bindID(rc); ok {
		rc.Reply(s.admin.DeleteModuleHook(rc.Ctx, id))
	}
}

func (s *Server) rpcModuleHookToggle(rc *RequestContext) {
	if id, ok := bindID(rc); ok {
		rc.Reply(s.admin.ToggleModuleHook(rc.Ctx, id))
	}
}

type positionParams struct {
	ID       int64  `json:"id"`
	Mode     string `json:"mode"`
	Position int    `json:"position,omitempty"`
}

func (s *Server) rpcModuleHookPosition(rc *RequestContext) {
	var p positionParams
	if !bind(rc, &p) {
		return
	}
	rc.Reply(s.admin.MoveModuleHook(rc.Ctx, p.ID, p.Mode, p.Position))
}

// Coupons

func (s *Server) rpcCouponList(rc *RequestContext) {
	list, err := s.admin.ListCoupons(rc.Ctx)
	rc.Reply(map[string]any{"coupons": list}, err)
}

type couponCodeParams struct {
	Code string `json:"code"`
}

func (s *Server) rpcCouponGet(rc *RequestContext) {
	var p couponCodeParams
	if !bind(rc, &p) {
		return
	}
	rc.Reply(s.admin.GetCoupon(rc.Ctx, p.Code))
}

func (s *Server) rpcCouponSave(rc *RequestContext) {
	var c domain.Coupon
	if !bind(rc, &c) {
		return
	}
	rc.Reply(s.admin.SaveCoupon(rc.Ctx, c))
}

func (s *Server) rpcCouponTypes(rc *RequestContext) {
	rc.Respond(map[string]any{"types": s.admin.CouponTypes()})
}

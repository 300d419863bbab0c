package events

import "github.com/soyeahso/backoffice/internal/domain"

// Event names.
const (
	ModuleHookCreate           = "module_hook.create"
	ModuleHookUpdate           = "module_hook.update"
	ModuleHookDelete           = "module_hook.delete"
	ModuleHookUpdatePosition   = "module_hook.update_position"
	ModuleHookToggleActivation = "module_hook.toggle_activation"

	ModuleCreate           = "module.create"
	ModuleToggleActivation = "module.toggle_activation"
	ModuleDelete           = "module.delete"

	HookCreate           = "hook.create"
	HookUpdate           = "hook.update"
	HookToggleActivation = "hook.toggle_activation"

	CacheClear = "cache.clear"

	ServerStart = "server.start"
	ServerStop  = "server.stop"
)

// Broadcast lists the events forwarded to connected admin clients.
var Broadcast = []string{
	ModuleHookCreate,
	ModuleHookUpdate,
	ModuleHookDelete,
	ModuleHookUpdatePosition,
	ModuleHookToggleActivation,
	ModuleCreate,
	ModuleToggleActivation,
	ModuleDelete,
	HookCreate,
	HookUpdate,
	HookToggleActivation,
	CacheClear,
}

// ModuleHookCreateEvent asks for a new binding. ModuleHook is set by the
// handler.
type ModuleHookCreateEvent struct {
	ModuleID   int64              `json:"moduleId"`
	HookID     int64              `json:"hookId"`
	Classname  string             `json:"classname"`
	Method     string             `json:"method"`
	ModuleHook *domain.ModuleHook `json:"moduleHook,omitempty"`
}

// ModuleHookUpdateEvent overwrites a binding. ModuleHook is set by the
// handler when the binding exists.
type ModuleHookUpdateEvent struct {
	ModuleHookID int64              `json:"moduleHookId"`
	ModuleID     int64              `json:"moduleId"`
	HookID       int64              `json:"hookId"`
	Classname    string             `json:"classname"`
	Method       string             `json:"method"`
	Active       bool               `json:"active"`
	ModuleHook   *domain.ModuleHook `json:"moduleHook,omitempty"`
}

// ModuleHookDeleteEvent removes a binding. ModuleHook holds the deleted row.
type ModuleHookDeleteEvent struct {
	ModuleHookID int64              `json:"moduleHookId"`
	ModuleHook   *domain.ModuleHook `json:"moduleHook,omitempty"`
}

// ModuleHookToggleActivationEvent flips the Active flag of ModuleHook.
type ModuleHookToggleActivationEvent struct {
	ModuleHook *domain.ModuleHook `json:"moduleHook,omitempty"`
}

// UpdatePositionEvent moves a binding within its hook.
type UpdatePositionEvent struct {
	domain.PositionUpdate
}

// ModuleCreateEvent registers a module. Module is set by the handler.
type ModuleCreateEvent struct {
	Code    string         `json:"code"`
	Title   string         `json:"title"`
	Version string         `json:"version,omitempty"`
	Active  bool           `json:"active"`
	Module  *domain.Module `json:"module,omitempty"`
}

// ModuleToggleActivationEvent flips a module's active flag.
type ModuleToggleActivationEvent struct {
	ModuleID int64          `json:"moduleId"`
	Module   *domain.Module `json:"module,omitempty"`
}

// ModuleDeleteEvent removes a module and its bindings.
type ModuleDeleteEvent struct {
	ModuleID int64 `json:"moduleId"`
}

// HookCreateEvent registers a hook. Hook is set by the handler.
type HookCreateEvent struct {
	Code   string          `json:"code"`
	Type   domain.HookType `json:"type"`
	Title  string          `json:"title"`
	Active bool            `json:"active"`
	Native bool            `json:"native"`
	Block  bool            `json:"block"`
	Hook   *domain.Hook    `json:"hook,omitempty"`
}

// HookUpdateEvent carries the desired state of a hook. Hook is replaced by
// the saved row.
type HookUpdateEvent struct {
	Hook *domain.Hook `json:"hook,omitempty"`
}

// HookToggleActivationEvent flips a hook's active flag. Hook is replaced by
// the saved row.
type HookToggleActivationEvent struct {
	Hook *domain.Hook `json:"hook,omitempty"`
}

// CacheEvent names the cache directory to clear.
type CacheEvent struct {
	Dir string `json:"dir"`
}

// Package domain defines the back-office entities shared across packages.
package domain

// Module is an installed plugin that can bind listeners to hooks.
type Module struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Title    string `json:"title"`
	Version  string `json:"version,omitempty"`
	Active   bool   `json:"active"`
	Position int    `json:"position"`
}

// HookType locates the surface a hook is rendered on.
type HookType string

const (
	HookTypeFront HookType = "front"
	HookTypeBack  HookType = "back"
	HookTypePDF   HookType = "pdf"
	HookTypeEmail HookType = "email"
)

// Valid reports whether t is a known hook type.
func (t HookType) Valid() bool {
	switch t {
	case HookTypeFront, HookTypeBack, HookTypePDF, HookTypeEmail:
		return true
	}
	return false
}

// Hook is a named extension point.
type Hook struct {
	ID       int64    `json:"id"`
	Code     string   `json:"code"`
	Type     HookType `json:"type"`
	Title    string   `json:"title"`
	Active   bool     `json:"active"`
	Native   bool     `json:"native"`
	ByModule bool     `json:"byModule"`
	Block    bool     `json:"block"`
}

// ModuleHook binds one listener of a module to a hook. ModuleActive and
// HookActive are denormalized copies of the owning rows' flags.
type ModuleHook struct {
	ID           int64  `json:"id"`
	ModuleID     int64  `json:"moduleId"`
	HookID       int64  `json:"hookId"`
	Classname    string `json:"classname"`
	Method       string `json:"method"`
	Active       bool   `json:"active"`
	ModuleActive bool   `json:"moduleActive"`
	HookActive   bool   `json:"hookActive"`
	Position     int    `json:"position"`
}

// Enabled reports whether the listener should run: the binding, its module
// and its hook must all be active.
func (mh ModuleHook) Enabled() bool {
	return mh.Active && mh.ModuleActive && mh.HookActive
}

// IgnoredModuleHook records a binding deleted by an administrator so that
// module synchronization does not recreate it.
type IgnoredModuleHook struct {
	ModuleID  int64  `json:"moduleId"`
	HookID    int64  `json:"hookId"`
	Classname string `json:"classname"`
	Method    string `json:"method"`
}

// Listener is an enabled binding resolved with the codes of its module and hook.
type Listener struct {
	ModuleHook
	ModuleCode string `json:"moduleCode"`
	HookCode   string `json:"hookCode"`
}

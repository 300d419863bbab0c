// Package plugin manages the modules installed in the back-office and the
// hook listeners they declare.
package plugin

import (
	"context"

	"github.com/soyeahso/backoffice/internal/config"
	"github.com/soyeahso/backoffice/internal/events"
	"github.com/soyeahso/backoffice/internal/logging"
)

// Plugin is the interface that all back-office modules implement.
type Plugin interface {
	// Code returns the unique module code (e.g., "Colissimo").
	Code() string

	// Title returns a human-readable name.
	Title() string

	// Version returns the module version string.
	Version() string

	// Listeners returns the hook listeners the module wants bound.
	Listeners() []ListenerDecl

	// Init initializes the module. Modules may subscribe to events here.
	Init(ctx context.Context, api API) error

	// Close shuts down the module and releases resources.
	Close() error
}

// ListenerDecl asks for Classname::Method to be bound to the hook HookCode.
type ListenerDecl struct {
	HookCode  string `json:"hook"`
	Classname string `json:"classname"`
	Method    string `json:"method"`
}

// API is what a module gets to interact with the back-office.
type API struct {
	Events *events.Dispatcher
	Log    *logging.Logger
}

// Declared is a module described by configuration only.
type Declared struct {
	code      string
	title     string
	version   string
	listeners []ListenerDecl
}

// FromConfig builds a declared module from a config entry.
func FromConfig(e config.ModuleEntry) *Declared {
	d := &Declared{code: e.Code, title: e.Title, version: e.Version}
	if d.title == "" {
		d.title = e.Code
	}
	for _, l := range e.Listeners {
		d.listeners = append(d.listeners, ListenerDecl{HookCode: l.Hook, Classname: l.Classname, Method: l.Method})
	}
	return d
}

func (d *Declared) Code() string                    { return d.code }
func (d *Declared) Title() string                   { return d.title }
func (d *Declared) Version() string                 { return d.version }
func (d *Declared) Listeners() []ListenerDecl       { return d.listeners }
func (d *Declared) Init(context.Context, API) error { return nil }
func (d *Declared) Close() error                    { return nil }

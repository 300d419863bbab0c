// Package events provides the in-process event dispatcher that drives every
// back-office mutation.
package events

import (
	"context"
	"slices"
	"sync"

	"github.com/soyeahso/backoffice/internal/logging"
)

// Event is delivered to listeners. Payload is usually a pointer to one of
// the payload types in this package; listeners may write results into it.
type Event struct {
	Name    string
	Payload any

	dispatcher *Dispatcher
	stopped    bool
}

// Dispatcher returns the dispatcher delivering the event, so listeners can
// dispatch follow-up events on it.
func (e *Event) Dispatcher() *Dispatcher { return e.dispatcher }

// StopPropagation prevents lower-priority listeners from running.
func (e *Event) StopPropagation() { e.stopped = true }

// IsPropagationStopped reports whether a listener stopped the event.
func (e *Event) IsPropagationStopped() bool { return e.stopped }

// Listener handles an event. A non-nil error aborts Dispatch.
type Listener func(ctx context.Context, e *Event) error

// Subscription binds a listener to an event with a priority.
// Higher priorities run first.
type Subscription struct {
	Event    string
	Name     string
	Priority int
	Listener Listener
}

// Subscriber declares a set of subscriptions.
type Subscriber interface {
	Subscriptions() []Subscription
}

// Dispatcher keeps listeners per event name, ordered by priority.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[string][]Subscription
	log       *logging.Logger
}

// NewDispatcher creates an event dispatcher.
func NewDispatcher(log *logging.Logger) *Dispatcher {
	return &Dispatcher{
		listeners: make(map[string][]Subscription),
		log:       log.Sub("events"),
	}
}

// On registers a listener. Listeners with equal priority run in
// registration order.
func (d *Dispatcher) On(event, name string, priority int, l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()

	list := d.listeners[event]
	i := len(list)
	for i > 0 && list[i-1].Priority < priority {
		i--
	}
	d.listeners[event] = slices.Insert(list, i, Subscription{
		Event:    event,
		Name:     name,
		Priority: priority,
		Listener: l,
	})
	d.log.Debug().Str("event", event).Str("listener", name).Int("priority", priority).Msg("listener registered")
}

// Subscribe registers every subscription of s.
func (d *Dispatcher) Subscribe(s Subscriber) {
	for _, sub := range s.Subscriptions() {
		d.On(sub.Event, sub.Name, sub.Priority, sub.Listener)
	}
}

// Off removes all listeners with the given name from the event.
func (d *Dispatcher) Off(event, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listeners[event] = slices.DeleteFunc(d.listeners[event], func(s Subscription) bool {
		return s.Name == name
	})
}

func (d *Dispatcher) snapshot(event string) []Subscription {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.listeners[event])
}

// Dispatch delivers payload to the listeners of event synchronously, in
// priority order. The first listener error stops delivery and is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, event string, payload any) (*Event, error) {
	e := &Event{Name: event, Payload: payload, dispatcher: d}

	for _, sub := range d.snapshot(event) {
		if err := ctx.Err(); err != nil {
			return e, err
		}
		if err := sub.Listener(ctx, e); err != nil {
			d.log.Debug().Err(err).Str("event", event).Str("listener", sub.Name).Msg("listener failed")
			return e, err
		}
		if e.stopped {
			break
		}
	}
	return e, nil
}

// Emit delivers a notification. Listener errors are logged and do not
// prevent subsequent listeners from running.
func (d *Dispatcher) Emit(ctx context.Context, event string, data map[string]any) {
	d.notify(ctx, event, data, false)
}

// EmitAsync delivers a notification to every listener concurrently.
// Returns immediately; listener errors are logged.
func (d *Dispatcher) EmitAsync(ctx context.Context, event string, data map[string]any) {
	d.notify(ctx, event, data, true)
}

func (d *Dispatcher) notify(ctx context.Context, event string, data map[string]any, async bool) {
	subs := d.snapshot(event)
	if len(subs) == 0 {
		return
	}

	for _, sub := range subs {
		e := &Event{Name: event, Payload: data, dispatcher: d}
		run := func(sub Subscription) {
			if err := sub.Listener(ctx, e); err != nil {
				d.log.Warn().
					Err(err).
					Str("event", event).
					Str("listener", sub.Name).
					Bool("async", async).
					Msg("notification listener error")
			}
		}
		if async {
			go run(sub)
		} else {
			run(sub)
		}
	}
}

// Count returns the number of listeners registered for an event.
func (d *Dispatcher) Count(event string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners[event])
}

// Listeners returns the listener names of an event in dispatch order.
func (d *Dispatcher) Listeners(event string) []string {
	subs := d.snapshot(event)
	names := make([]string, len(subs))
	for i, s := range subs {
		names[i] = s.Name
	}
	return names
}

// Events returns the sorted names of events that have at least one listener.
func (d *Dispatcher) Events() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	events := make([]string, 0, len(d.listeners))
	for event, subs := range d.listeners {
		if len(subs) > 0 {
			events = append(events, event)
		}
	}
	slices.Sort(events)
	return events
}

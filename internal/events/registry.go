package events

import (
	"fmt"
	"log/slog"
	"sync"
)

// Handler receives a dispatched event.
type Handler func(Event)

// ListenerID identifies one subscription. Function values are not comparable
// in Go, so removal goes through the id returned by Subscribe.
type ListenerID uint64

// Registry maps event types to their subscribed handlers.
type Registry struct {
	logger *slog.Logger

	mu       sync.RWMutex
	nextID   ListenerID
	handlers map[Type]map[ListenerID]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:   logger,
		handlers: make(map[Type]map[ListenerID]Handler),
	}
}

// Subscribe adds h to the handler set for t, creating the set if absent.
func (r *Registry) Subscribe(t Type, h Handler) ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID

	set, ok := r.handlers[t]
	if !ok {
		set = make(map[ListenerID]Handler)
		r.handlers[t] = set
	}
	set[id] = h
	return id
}

// Unsubscribe removes the handler registered under id for t.
// It reports whether a handler was removed; an unknown id is not an error.
func (r *Registry) Unsubscribe(t Type, id ListenerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.handlers[t]
	if !ok {
		return false
	}
	if _, ok := set[id]; !ok {
		return false
	}
	delete(set, id)
	if len(set) == 0 {
		delete(r.handlers, t)
	}
	return true
}

// Dispatch invokes every handler currently registered for the event's type.
// A panicking handler is logged and skipped; the rest still run.
// It returns the number of handlers that completed without panicking.
func (r *Registry) Dispatch(ev Event) int {
	t := ev.EventType()

	// Snapshot so handlers may subscribe/unsubscribe without deadlocking.
	r.mu.RLock()
	set := r.handlers[t]
	hs := make([]Handler, 0, len(set))
	for _, h := range set {
		hs = append(hs, h)
	}
	r.mu.RUnlock()

	delivered := 0
	for _, h := range hs {
		if err := r.invoke(h, ev); err != nil {
			r.logger.Error("event listener failed",
				"event", t,
				"error", err,
			)
			continue
		}
		delivered++
	}
	return delivered
}

// Has reports whether id is still subscribed to t.
func (r *Registry) Has(t Type, id ListenerID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[t][id]
	return ok
}

// Clear removes every handler.
func (r *Registry) Clear() {
	r.mu.Lock()
	clear(r.handlers)
	r.mu.Unlock()
}

// Count returns the number of handlers registered for t.
func (r *Registry) Count(t Type) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers[t])
}

// Total returns the number of handlers across all types.
func (r *Registry) Total() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, set := range r.handlers {
		n += len(set)
	}
	return n
}

func (r *Registry) invoke(h Handler, ev Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("listener panic: %v", p)
		}
	}()
	h(ev)
	return nil
}

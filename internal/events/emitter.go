// Package events provides a minimal synchronous publish/subscribe primitive.
// Rooms, tournaments and matches use it to notify listeners without coupling
// to whoever is listening.
//
// Delivery is strictly in-process and synchronous: Emit invokes every listener
// on the calling goroutine before returning. There is no queue and no
// cross-goroutine handoff.
package events

import (
	"log"
	"sync"
)

// Listener receives the payload passed to Emit.
type Listener func(payload any)

// Subscription identifies a registered listener so it can be removed later.
type Subscription struct {
	event string
	id    int
}

// Emitter is a synchronous multi-subscriber event registry.
// The zero value is not usable; call NewEmitter.
type Emitter struct {
	mu        sync.Mutex
	listeners map[string]map[int]Listener
	nextID    int
}

// NewEmitter creates an empty emitter.
func NewEmitter() *Emitter {
	return &Emitter{
		listeners: make(map[string]map[int]Listener),
	}
}

// On registers a listener for the named event and returns its subscription.
// Multiple listeners per event are supported; registration order is not a
// delivery guarantee.
func (e *Emitter) On(event string, fn Listener) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	if e.listeners[event] == nil {
		e.listeners[event] = make(map[int]Listener)
	}
	e.listeners[event][e.nextID] = fn

	return Subscription{event: event, id: e.nextID}
}

// Off removes a previously registered listener. Removing a subscription twice
// is a no-op.
func (e *Emitter) Off(sub Subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if m, ok := e.listeners[sub.event]; ok {
		delete(m, sub.id)
		if len(m) == 0 {
			delete(e.listeners, sub.event)
		}
	}
}

// Emit invokes every listener registered for the event, synchronously, on the
// calling goroutine. A panicking listener is recovered and logged so one
// failing handler cannot abort the emitting call site or starve the rest.
func (e *Emitter) Emit(event string, payload any) {
	e.mu.Lock()
	fns := make([]Listener, 0, len(e.listeners[event]))
	for _, fn := range e.listeners[event] {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		e.safeCall(event, fn, payload)
	}
}

// ListenerCount returns the number of listeners for the event.
func (e *Emitter) ListenerCount(event string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[event])
}

func (e *Emitter) safeCall(event string, fn Listener, payload any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ Event listener panic on %q: %v", event, r)
		}
	}()
	fn(payload)
}

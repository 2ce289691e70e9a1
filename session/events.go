package session

import (
	"sync"

	"github.com/rs/zerolog"
)

// Event names published by a Session.
const (
	EventPlaceResolved = "place:resolved"
	EventPlaceError    = "place:error"
	EventSearchResults = "search:results"
	EventSearchError   = "search:error"
	EventDestroyed     = "destroyed"
)

// EventHandler receives the payload published with an event.
type EventHandler func(payload any)

// Subscription identifies one registered handler for removal.
type Subscription struct {
	event string
	id    uint64
}

type registeredHandler struct {
	id uint64
	fn EventHandler
}

// eventRegistry is a minimal observer registry: ordered handlers per event
// name, removal by handle identity, per-handler panic isolation on publish.
type eventRegistry struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[string][]registeredHandler
	logger   zerolog.Logger
}

func newEventRegistry(logger zerolog.Logger) *eventRegistry {
	return &eventRegistry{
		handlers: make(map[string][]registeredHandler),
		logger:   logger,
	}
}

func (r *eventRegistry) subscribe(event string, fn EventHandler) Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.handlers[event] = append(r.handlers[event], registeredHandler{id: r.nextID, fn: fn})
	return Subscription{event: event, id: r.nextID}
}

func (r *eventRegistry) unsubscribe(sub Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.handlers[sub.event]
	for i, h := range list {
		if h.id == sub.id {
			r.handlers[sub.event] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// publish invokes every current subscriber for the event. A panicking
// subscriber is logged and must not prevent the remaining ones from running.
func (r *eventRegistry) publish(event string, payload any) {
	r.mu.Lock()
	list := make([]registeredHandler, len(r.handlers[event]))
	copy(list, r.handlers[event])
	r.mu.Unlock()

	for _, h := range list {
		r.invoke(event, h, payload)
	}
}

func (r *eventRegistry) invoke(event string, h registeredHandler, payload any) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Str("event", event).Interface("panic", rec).Msg("event handler panicked")
		}
	}()
	h.fn(payload)
}

func (r *eventRegistry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = make(map[string][]registeredHandler)
}

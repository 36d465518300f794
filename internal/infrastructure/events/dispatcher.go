// Package events provides the in-process domain event dispatcher
package events

import (
	"sync"

	"github.com/rasoiops/rasoiops/internal/domain/shared"
	"go.uber.org/zap"
)

// Dispatcher delivers domain events synchronously to the handlers registered
// for their name. A failing handler is logged and does not stop the others.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]shared.EventHandler
	log      *zap.Logger
}

var _ shared.EventDispatcher = (*Dispatcher)(nil)

// NewDispatcher creates an empty dispatcher
func NewDispatcher(log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]shared.EventHandler),
		log:      log.Named("events"),
	}
}

// Dispatch dispatches an event to registered handlers
func (d *Dispatcher) Dispatch(event shared.DomainEvent) error {
	d.mu.RLock()
	handlers := append([]shared.EventHandler(nil), d.handlers[event.EventName()]...)
	d.mu.RUnlock()

	if len(handlers) == 0 {
		d.log.Debug("No handlers registered for event", zap.String("event", event.EventName()))
		return nil
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			d.log.Error("Failed to handle event",
				zap.String("event", event.EventName()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// Register registers an event handler
func (d *Dispatcher) Register(event string, handler shared.EventHandler) {
	d.mu.Lock()
	d.handlers[event] = append(d.handlers[event], handler)
	d.mu.Unlock()
	d.log.Debug("Registered event handler", zap.String("event", event))
}

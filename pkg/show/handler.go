package show

import (
	"sync"
	"sync/atomic"
)

// EventHandler reacts to events delivered to a window.
type EventHandler interface {
	HandleEvent(ctx *EventHandlerContext)
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx *EventHandlerContext)

func (f EventHandlerFunc) HandleEvent(ctx *EventHandlerContext) {
	f(ctx)
}

// handlerRegistry is copy-on-write: dispatch reads a snapshot without
// locking while registration may happen on any goroutine.
type handlerRegistry struct {
	mu       sync.Mutex
	handlers atomic.Pointer[[]EventHandler]
}

func (r *handlerRegistry) add(h EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var next []EventHandler
	if cur := r.handlers.Load(); cur != nil {
		next = make([]EventHandler, len(*cur), len(*cur)+1)
		copy(next, *cur)
	}
	next = append(next, h)
	r.handlers.Store(&next)
}

func (r *handlerRegistry) snapshot() []EventHandler {
	if cur := r.handlers.Load(); cur != nil {
		return *cur
	}
	return nil
}

func (r *handlerRegistry) len() int {
	return len(r.snapshot())
}

// dispatch invokes handlers in order until one stops propagation and
// returns how many were invoked.
func dispatch(handlers []EventHandler, ctx *EventHandlerContext) int {
	invoked := 0
	for _, h := range handlers {
		h.HandleEvent(ctx)
		invoked++
		if ctx.ShouldStopPropagation() {
			break
		}
	}
	return invoked
}

// dispatchEvent runs one full dispatch pass for ev on window w and hands
// the spawned tasks to the registry, even when a handler panics.
func dispatchEvent(w *WindowInner, handlers []EventHandler, ev Event, registry *taskRegistry) int {
	var spawned []*BackgroundTask
	ctx := newEventHandlerContext(&spawned, ev, w)
	defer func() {
		ctx.expire()
		registry.add(spawned...)
	}()
	return dispatch(handlers, ctx)
}

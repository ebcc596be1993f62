package show

// EventHandlerContext is passed to every handler invoked for one event.
// A new context is built for each dispatched event and expires when the
// last handler for that event has returned; handlers must not keep it.
type EventHandlerContext struct {
	// tasks receives the tasks spawned during this dispatch pass.
	tasks *[]*BackgroundTask

	stopPropagation bool
	event           Event
	window          *WindowInner
	expired         bool
}

func newEventHandlerContext(tasks *[]*BackgroundTask, event Event, window *WindowInner) *EventHandlerContext {
	return &EventHandlerContext{
		tasks:  tasks,
		event:  event,
		window: window,
	}
}

// StopPropagation keeps the event from reaching handlers registered after
// the current one.
func (c *EventHandlerContext) StopPropagation() {
	c.stopPropagation = true
}

// ShouldStopPropagation is checked by the dispatcher after each handler.
func (c *EventHandlerContext) ShouldStopPropagation() bool {
	return c.stopPropagation
}

func (c *EventHandlerContext) Event() Event {
	return c.event
}

// Image returns the image currently displayed by the window, or nil.
func (c *EventHandlerContext) Image() *DisplayImage {
	if c.window == nil {
		return nil
	}
	return c.window.Image()
}

// Window returns the window that received the event.
func (c *EventHandlerContext) Window() *WindowInner {
	return c.window
}

// SpawnTask runs task on a new goroutine. The task is joined when the App
// shuts down; use a plain goroutine if that is not wanted.
func (c *EventHandlerContext) SpawnTask(task func()) {
	if c.expired {
		panic(ErrContextExpired)
	}
	*c.tasks = append(*c.tasks, spawnTask(task))
}

func (c *EventHandlerContext) expire() {
	c.expired = true
	c.tasks = nil
	c.event = nil
	c.window = nil
}

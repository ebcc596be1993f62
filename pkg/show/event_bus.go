package show

// eventBus carries synthetic events into the loop. Emitting never blocks.
type eventBus struct {
	events chan Event
}

func newEventBus(bufferSize int) *eventBus {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &eventBus{events: make(chan Event, bufferSize)}
}

// emit queues event and reports false when it was dropped because the
// buffer is full.
func (b *eventBus) emit(event Event) bool {
	if event == nil {
		return false
	}
	select {
	case b.events <- event:
		return true
	default:
		return false
	}
}

// drain hands every queued event to handle without waiting for more.
func (b *eventBus) drain(handle func(Event)) int {
	count := 0
	for {
		select {
		case event := <-b.events:
			handle(event)
			count++
		default:
			return count
		}
	}
}

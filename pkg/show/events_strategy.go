package show

// EventsConsumerStrategy decides how many native events are taken from a
// window per loop iteration. poll blocks for at most timeoutMs for the
// first event and reports false when none arrived.
type EventsConsumerStrategy interface {
	Consume(poll func(timeoutMs int) (Event, bool), handle func(Event), timeoutMs int) int
}

type DrainAllStrategy struct{}

func (DrainAllStrategy) Consume(poll func(timeoutMs int) (Event, bool), handle func(Event), timeoutMs int) int {
	event, ok := poll(timeoutMs)
	if !ok {
		return 0
	}
	handle(event)
	count := 1
	for {
		event, ok = poll(0)
		if !ok {
			return count
		}
		handle(event)
		count++
	}
}

type DrainMaxStrategy struct {
	Max int
}

func (s DrainMaxStrategy) Consume(poll func(timeoutMs int) (Event, bool), handle func(Event), timeoutMs int) int {
	max := s.Max
	if max <= 0 {
		max = 1
	}
	event, ok := poll(timeoutMs)
	if !ok {
		return 0
	}
	handle(event)
	count := 1
	for count < max {
		event, ok = poll(0)
		if !ok {
			return count
		}
		handle(event)
		count++
	}
	return count
}

func DrainAll() EventsConsumerStrategy {
	return DrainAllStrategy{}
}

// DrainMax takes at most max events per window and iteration so that one
// busy window cannot starve rendering.
func DrainMax(max int) EventsConsumerStrategy {
	return DrainMaxStrategy{Max: max}
}

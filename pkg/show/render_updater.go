package show

import "time"

// maxEventWait bounds a single native poll so queued updates and stop
// requests are noticed promptly.
const maxEventWait = 50 * time.Millisecond

type renderUpdater struct {
	refreshRate    time.Duration
	nextRenderTime time.Time
	render         func()
}

func newRenderUpdater(refreshRate time.Duration, render func()) *renderUpdater {
	if refreshRate <= 0 {
		refreshRate = time.Second / 60
	}
	return &renderUpdater{
		refreshRate:    refreshRate,
		nextRenderTime: time.Now().Add(refreshRate),
		render:         render,
	}
}

func (r *renderUpdater) run() bool {
	now := time.Now()
	if now.Before(r.nextRenderTime) {
		return false
	}
	r.render()
	r.nextRenderTime = now.Add(r.refreshRate)
	return true
}

// pollTimeout is how long the loop may wait for events before the next
// frame is due.
func (r *renderUpdater) pollTimeout() time.Duration {
	timeout := time.Until(r.nextRenderTime)
	if timeout < 0 {
		timeout = 0
	}
	if timeout > maxEventWait {
		timeout = maxEventWait
	}
	return timeout
}

func timeoutMillis(timeout time.Duration) int {
	ms := int(timeout / time.Millisecond)
	if timeout > 0 && ms == 0 {
		ms = 1
	}
	return ms
}

package show

import (
	"errors"
	"sync"

	"github.com/sourcegraph/conc/panics"
)

// BackgroundTask is a unit of work spawned from an event handler. It runs
// on its own goroutine until completion; there is no cancellation.
type BackgroundTask struct {
	done    chan struct{}
	catcher panics.Catcher
}

func spawnTask(task func()) *BackgroundTask {
	t := &BackgroundTask{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.catcher.Try(task)
	}()
	return t
}

// Done is closed when the task has returned.
func (t *BackgroundTask) Done() <-chan struct{} {
	return t.done
}

// Join blocks until the task has returned. A panic in the task is
// returned as an error.
func (t *BackgroundTask) Join() error {
	<-t.done
	if r := t.catcher.Recovered(); r != nil {
		return r.AsError()
	}
	return nil
}

// taskRegistry keeps spawned tasks until they are joined at shutdown.
type taskRegistry struct {
	mu    sync.Mutex
	tasks []*BackgroundTask
}

func (r *taskRegistry) add(tasks ...*BackgroundTask) {
	if len(tasks) == 0 {
		return
	}
	r.mu.Lock()
	r.tasks = append(r.tasks, tasks...)
	r.mu.Unlock()
}

func (r *taskRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// joinAll drains the registry and joins every task in spawn order.
func (r *taskRegistry) joinAll() error {
	var errs []error
	for {
		r.mu.Lock()
		tasks := r.tasks
		r.tasks = nil
		r.mu.Unlock()
		if len(tasks) == 0 {
			return errors.Join(errs...)
		}
		for _, t := range tasks {
			if err := t.Join(); err != nil {
				errs = append(errs, err)
			}
		}
	}
}

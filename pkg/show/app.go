package show

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kjkrol/goshow/internal/platform"
)

// Option configures an App.
type Option func(*App) error

// WithBackend selects the native backend by name ("tcell", "headless",
// and "x11" or "sdl" when built with the matching tag).
func WithBackend(name string) Option {
	return func(a *App) error {
		a.backend = name
		return nil
	}
}

// WithPlatformFactory bypasses backend lookup by name.
func WithPlatformFactory(factory platform.Factory) Option {
	return func(a *App) error {
		if factory == nil {
			return errors.New("platform factory is nil")
		}
		a.factory = factory
		return nil
	}
}

// WithRefreshRate sets the target frame rate. Valid range is 1-240 fps.
func WithRefreshRate(fps int) Option {
	return func(a *App) error {
		if fps < 1 || fps > 240 {
			return fmt.Errorf("refresh rate %d out of range 1-240", fps)
		}
		a.refreshRate = time.Second / time.Duration(fps)
		return nil
	}
}

func WithEventsStrategy(strategy EventsConsumerStrategy) Option {
	return func(a *App) error {
		if strategy == nil {
			return errors.New("events strategy is nil")
		}
		a.strategy = strategy
		return nil
	}
}

// WithEventBufferSize sets the capacity of each window's synthetic event queue.
func WithEventBufferSize(size int) Option {
	return func(a *App) error {
		if size < 1 {
			return fmt.Errorf("event buffer size must be at least 1, got %d", size)
		}
		a.eventBufferSize = size
		return nil
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *App) error {
		if logger == nil {
			return errors.New("logger is nil")
		}
		a.logger = logger
		return nil
	}
}

// WithExitWithLastWindow makes Run return once the last window has been
// closed. It is enabled by default.
func WithExitWithLastWindow(exit bool) Option {
	return func(a *App) error {
		a.exitWithLastWindow = exit
		return nil
	}
}

// App owns the windows, the event loop and the background tasks spawned
// by event handlers.
type App struct {
	backend            string
	factory            platform.Factory
	refreshRate        time.Duration
	strategy           EventsConsumerStrategy
	eventBufferSize    int
	logger             *slog.Logger
	exitWithLastWindow bool

	mu      sync.Mutex
	windows []*Window
	created int

	tasks    taskRegistry
	updates  chan func()
	stop     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
}

func NewApp(opts ...Option) (*App, error) {
	a := &App{
		backend:            platform.DefaultBackend,
		refreshRate:        time.Second / 60,
		strategy:           DrainAll(),
		eventBufferSize:    1024,
		logger:             slog.Default(),
		exitWithLastWindow: true,
		updates:            make(chan func(), 1024),
		stop:               make(chan struct{}),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, backendError("configure", err)
		}
	}
	return a, nil
}

// CreateWindow opens and shows a native window. Backends bound to a
// thread expect it to be called from the goroutine that calls Run.
func (a *App) CreateWindow(opts WindowOptions) (*Window, error) {
	opts = opts.withDefaults()

	factory := a.factory
	if factory == nil {
		var err error
		if factory, err = platform.Lookup(a.backend); err != nil {
			return nil, backendError("create window", err)
		}
	}
	pw, err := factory(opts.convert())
	if err != nil {
		return nil, backendError("create window", err)
	}
	if pw == nil {
		return nil, backendError("create window", errors.New("backend returned no window"))
	}
	pw.Show()

	w := newWindow(a, opts, pw)
	if opts.Image != nil {
		if err := w.SetImage(opts.ImageName, opts.Image); err != nil {
			pw.Close()
			return nil, err
		}
	}
	w.inner.state.requestRedraw()

	a.mu.Lock()
	a.windows = append(a.windows, w)
	a.created++
	a.mu.Unlock()

	width, height := w.Size()
	a.logger.Info("window created",
		"window", w.ID(),
		"title", opts.Title,
		"width", width,
		"height", height)
	return w, nil
}

// Windows returns the windows that have not been closed yet.
func (a *App) Windows() []*Window {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Window, len(a.windows))
	copy(out, a.windows)
	return out
}

// Post runs f on the event loop, serialized with rendering and dispatch.
// It reports false when the queue is full.
func (a *App) Post(f func()) bool {
	select {
	case a.updates <- f:
		return true
	default:
		a.logger.Warn("loop update dropped")
		return false
	}
}

// Stop makes Run return after the current iteration.
func (a *App) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
}

// PendingTasks reports background tasks that have not been joined yet.
func (a *App) PendingTasks() int {
	return a.tasks.len()
}

// JoinTasks waits for every background task spawned so far. Panics in
// tasks are returned as errors.
func (a *App) JoinTasks() error {
	return a.tasks.joinAll()
}

// Run drives the event loop on a locked OS thread until ctx is done, Stop
// is called, or the last window closed while exit-with-last-window is set.
// Before returning it closes the remaining windows and joins all
// background tasks.
func (a *App) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return backendError("run", errors.New("event loop already running"))
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	renderer := newRenderUpdater(a.refreshRate, a.render)
	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("event loop cancelled", "cause", context.Cause(ctx))
			return a.shutdown()
		case <-a.stop:
			return a.shutdown()
		default:
		}

		a.runUpdates()

		windows := a.reap()
		if len(windows) == 0 {
			if a.exitWithLastWindow && a.createdAny() {
				a.logger.Debug("last window closed")
				return a.shutdown()
			}
			a.idle(ctx, renderer.pollTimeout())
			continue
		}

		timeoutMs := timeoutMillis(renderer.pollTimeout())
		for i, w := range windows {
			if i > 0 {
				timeoutMs = 0
			}
			w.processEvents(a.strategy, timeoutMs)
		}
		a.reap()
		renderer.run()
	}
}

func (a *App) createdAny() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.created > 0
}

// idle waits while there is no window to poll.
func (a *App) idle(ctx context.Context, timeout time.Duration) {
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-a.stop:
	case f := <-a.updates:
		f()
	case <-timer.C:
	}
}

func (a *App) runUpdates() {
	for {
		select {
		case f := <-a.updates:
			f()
		default:
			return
		}
	}
}

// reap finalizes destroyed windows and returns the live ones.
func (a *App) reap() []*Window {
	a.mu.Lock()
	live := a.windows[:0]
	var dead []*Window
	for _, w := range a.windows {
		if w.inner.IsDestroyed() {
			dead = append(dead, w)
			continue
		}
		live = append(live, w)
	}
	for i := len(live); i < len(a.windows); i++ {
		a.windows[i] = nil
	}
	a.windows = live
	out := make([]*Window, len(live))
	copy(out, live)
	a.mu.Unlock()

	for _, w := range dead {
		w.finalize()
	}
	return out
}

func (a *App) render() {
	for _, w := range a.Windows() {
		w.render()
	}
}

func (a *App) shutdown() error {
	a.runUpdates()
	for _, w := range a.Windows() {
		w.inner.destroyed.Store(true)
	}
	a.reap()

	pending := a.tasks.len()
	if err := a.tasks.joinAll(); err != nil {
		a.logger.Error("background tasks failed", "error", err)
		return err
	}
	a.logger.Debug("event loop stopped", "joined_tasks", pending)
	return nil
}

package show

import (
	"errors"
	"image"
	"image/color"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/kjkrol/goshow/internal/platform"
)

type WindowOptions struct {
	Title       string
	PositionX   int
	PositionY   int
	Width       int
	Height      int
	BorderWidth int
	Background  color.RGBA
	Resizable   bool

	// Image, when set, is displayed right away under ImageName.
	Image     image.Image
	ImageName string
}

func (o WindowOptions) withDefaults() WindowOptions {
	if o.Title == "" {
		o.Title = "image"
	}
	if o.Width <= 0 {
		o.Width = 800
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	if o.Background.A == 0 {
		o.Background.A = 0xff
	}
	if o.ImageName == "" {
		o.ImageName = "image"
	}
	return o
}

func (o WindowOptions) convert() platform.WindowConfig {
	return platform.WindowConfig{
		PositionX:   o.PositionX,
		PositionY:   o.PositionY,
		Width:       o.Width,
		Height:      o.Height,
		BorderWidth: o.BorderWidth,
		Title:       o.Title,
		Background:  o.Background,
		Resizable:   o.Resizable,
	}
}

// WindowInner is the read-only view of a window handed to event handlers.
type WindowInner struct {
	id        uuid.UUID
	title     string
	width     atomic.Int64
	height    atomic.Int64
	destroyed atomic.Bool
	state     WindowState
}

func (w *WindowInner) ID() uuid.UUID {
	return w.id
}

func (w *WindowInner) Title() string {
	return w.title
}

// Size is the drawable area in pixels.
func (w *WindowInner) Size() (int, int) {
	return int(w.width.Load()), int(w.height.Load())
}

func (w *WindowInner) Image() *DisplayImage {
	return w.state.Image()
}

func (w *WindowInner) IsDestroyed() bool {
	return w.destroyed.Load()
}

func (w *WindowInner) setSize(width, height int) {
	w.width.Store(int64(width))
	w.height.Store(int64(height))
}

// Window is a native window showing at most one image. SetImage,
// AddEventHandler, Destroy and Emit may be called from any goroutine;
// everything touching the backend runs on the App's event loop.
type Window struct {
	app      *App
	inner    *WindowInner
	platform platform.PlatformWindowWrapper
	handlers handlerRegistry
	bus      *eventBus

	background   color.RGBA
	surface      *platform.Surface
	imageWrapper platform.PlatformImageWrapper
	finalized    bool
}

func newWindow(app *App, opts WindowOptions, pw platform.PlatformWindowWrapper) *Window {
	w := &Window{
		app:        app,
		inner:      &WindowInner{id: uuid.New(), title: opts.Title},
		platform:   pw,
		bus:        newEventBus(app.eventBufferSize),
		background: opts.Background,
	}
	width, height := pw.Size()
	w.inner.setSize(width, height)
	return w
}

func (w *Window) ID() uuid.UUID {
	return w.inner.id
}

func (w *Window) Title() string {
	return w.inner.title
}

func (w *Window) Size() (int, int) {
	return w.inner.Size()
}

// Inner returns the read-only view handlers receive.
func (w *Window) Inner() *WindowInner {
	return w.inner
}

// SetImage replaces the displayed image. It fails with a *DecodeError when
// img cannot be converted to a displayable buffer.
func (w *Window) SetImage(name string, img image.Image) error {
	if w.inner.IsDestroyed() {
		return backendError("set image", ErrWindowDestroyed)
	}
	if err := w.inner.state.SetImage(name, img); err != nil {
		return err
	}
	w.app.logger.Debug("image set", "window", w.inner.id, "name", name)
	return nil
}

// Image returns the displayed image, or nil if none was set.
func (w *Window) Image() *DisplayImage {
	return w.inner.state.Image()
}

// AddEventHandler appends h to the handlers of this window. Handlers run
// in registration order on the event loop.
func (w *Window) AddEventHandler(h EventHandler) error {
	if h == nil {
		return backendError("add event handler", errors.New("nil handler"))
	}
	if w.inner.IsDestroyed() {
		return backendError("add event handler", ErrWindowDestroyed)
	}
	w.handlers.add(h)
	return nil
}

func (w *Window) AddEventHandlerFunc(f func(ctx *EventHandlerContext)) error {
	if f == nil {
		return w.AddEventHandler(nil)
	}
	return w.AddEventHandler(EventHandlerFunc(f))
}

// Destroy closes the window. Its handlers receive a final Destroyed
// event on the event loop. Destroying twice fails.
func (w *Window) Destroy() error {
	if !w.inner.destroyed.CompareAndSwap(false, true) {
		return backendError("destroy", ErrWindowDestroyed)
	}
	w.app.logger.Debug("window destroy requested", "window", w.inner.id)
	return nil
}

// Emit injects a synthetic event. It reports false when the event was
// dropped because the window's buffer is full or the window is destroyed.
func (w *Window) Emit(ev Event) bool {
	if w.inner.IsDestroyed() {
		return false
	}
	if !w.bus.emit(ev) {
		w.app.logger.Warn("event dropped", "window", w.inner.id)
		return false
	}
	return true
}

// handle applies the built-in reaction to ev and dispatches it. It runs on
// the event loop only.
func (w *Window) handle(ev Event) {
	if w.inner.IsDestroyed() {
		return
	}
	switch e := ev.(type) {
	case Destroyed:
		// The native window is gone; finalize delivers Destroyed once.
		w.inner.destroyed.Store(true)
		return
	case Resized:
		w.inner.setSize(e.Width, e.Height)
		w.inner.state.requestRedraw()
	case Expose:
		w.inner.state.requestRedraw()
	}

	dispatchEvent(w.inner, w.handlers.snapshot(), ev, &w.app.tasks)

	if _, ok := ev.(CloseRequested); ok {
		_ = w.Destroy()
	}
}

func (w *Window) processEvents(strategy EventsConsumerStrategy, timeoutMs int) {
	w.bus.drain(w.handle)
	if w.inner.IsDestroyed() {
		return
	}
	strategy.Consume(w.poll, w.handle, timeoutMs)
}

func (w *Window) poll(timeoutMs int) (Event, bool) {
	if w.inner.IsDestroyed() {
		return nil, false
	}
	platformEvent := w.platform.NextEventTimeout(timeoutMs)
	if _, ok := platformEvent.(platform.TimeoutEvent); ok {
		return nil, false
	}
	return convert(platformEvent), true
}

// render draws the current image if a redraw was requested.
func (w *Window) render() {
	if w.inner.IsDestroyed() || !w.inner.state.takeRedraw() {
		return
	}
	width, height := w.inner.Size()
	if w.surface == nil || w.surface.Bounds().Dx() != width || w.surface.Bounds().Dy() != height {
		w.resetSurface(width, height)
	}
	if w.imageWrapper == nil {
		return
	}
	var src image.Image
	if img := w.inner.state.Image(); img != nil {
		src = img.AsImage()
	}
	w.surface.Compose(src)

	w.platform.BeginFrame()
	w.imageWrapper.Update(w.surface.Bounds())
	w.platform.EndFrame()
}

func (w *Window) resetSurface(width, height int) {
	if w.imageWrapper != nil {
		w.imageWrapper.Delete()
		w.imageWrapper = nil
	}
	w.surface = platform.NewSurface(width, height, w.background)
	if width <= 0 || height <= 0 {
		return
	}
	w.imageWrapper = w.platform.NewPlatformImageWrapper(w.surface.RGBA(), 0, 0)
}

// finalize delivers Destroyed and releases the native window. It runs on
// the event loop once the window was marked destroyed.
func (w *Window) finalize() {
	if w.finalized {
		return
	}
	w.finalized = true
	dispatchEvent(w.inner, w.handlers.snapshot(), Destroyed{}, &w.app.tasks)
	if w.imageWrapper != nil {
		w.imageWrapper.Delete()
		w.imageWrapper = nil
	}
	w.surface = nil
	w.platform.Close()
	w.app.logger.Info("window closed", "window", w.inner.id, "title", w.inner.title)
}

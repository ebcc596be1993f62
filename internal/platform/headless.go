package platform

import (
	"image"
	"sync"
	"time"
)

// Headless is an in-memory window. Events are pushed by the caller and
// every EndFrame that followed an Update is recorded as a frame.
type Headless struct {
	mu      sync.Mutex
	conf    WindowConfig
	events  chan Event
	shown   bool
	closed  bool
	frames  int
	last    *image.RGBA
	dirty   bool
	width   int
	height  int
	images  []*headlessImageWrapper
	pending *image.RGBA
}

func init() {
	Register("headless", func(conf WindowConfig) (PlatformWindowWrapper, error) {
		return NewHeadless(conf), nil
	})
}

func NewHeadless(conf WindowConfig) *Headless {
	return &Headless{
		conf:   conf,
		events: make(chan Event, 256),
		width:  conf.Width,
		height: conf.Height,
	}
}

// Push queues an event for NextEventTimeout. A ConfigureNotify also
// changes the reported size.
func (h *Headless) Push(ev Event) {
	if c, ok := ev.(ConfigureNotify); ok {
		h.mu.Lock()
		h.width, h.height = c.Width, c.Height
		h.mu.Unlock()
	}
	h.events <- ev
}

func (h *Headless) Show() {
	h.mu.Lock()
	h.shown = true
	h.mu.Unlock()
}

func (h *Headless) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
}

func (h *Headless) Size() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

func (h *Headless) NextEventTimeout(timeoutMs int) Event {
	if timeoutMs <= 0 {
		select {
		case ev := <-h.events:
			return ev
		default:
			return TimeoutEvent{}
		}
	}
	timer := time.NewTimer(time.Duration(timeoutMs) * time.Millisecond)
	defer timer.Stop()
	select {
	case ev := <-h.events:
		return ev
	case <-timer.C:
		return TimeoutEvent{}
	}
}

func (h *Headless) BeginFrame() {
	h.mu.Lock()
	h.dirty = false
	h.mu.Unlock()
}

func (h *Headless) EndFrame() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.dirty || h.pending == nil {
		return
	}
	frame := image.NewRGBA(h.pending.Bounds())
	copy(frame.Pix, h.pending.Pix)
	h.last = frame
	h.frames++
}

func (h *Headless) NewPlatformImageWrapper(img *image.RGBA, offsetX, offsetY int) PlatformImageWrapper {
	wrapper := &headlessImageWrapper{win: h, img: img}
	h.mu.Lock()
	h.images = append(h.images, wrapper)
	h.mu.Unlock()
	return wrapper
}

func (h *Headless) Shown() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shown
}

func (h *Headless) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Frames reports how many frames were presented.
func (h *Headless) Frames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}

// LastFrame returns a copy of the last presented frame, or nil.
func (h *Headless) LastFrame() *image.RGBA {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// LiveImages reports image wrappers that were created and not yet deleted.
func (h *Headless) LiveImages() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.images)
}

type headlessImageWrapper struct {
	win *Headless
	img *image.RGBA
}

func (w *headlessImageWrapper) Update(rect image.Rectangle) {
	if w.img == nil || rect.Intersect(w.img.Bounds()).Empty() {
		return
	}
	w.win.mu.Lock()
	w.win.pending = w.img
	w.win.dirty = true
	w.win.mu.Unlock()
}

func (w *headlessImageWrapper) Delete() {
	w.win.mu.Lock()
	defer w.win.mu.Unlock()
	for i, cur := range w.win.images {
		if cur == w {
			w.win.images = append(w.win.images[:i], w.win.images[i+1:]...)
			break
		}
	}
	if w.win.pending == w.img {
		w.win.pending = nil
	}
	w.img = nil
}

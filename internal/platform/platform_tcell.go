package platform

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// The terminal window packs two pixel rows into one cell with an upper
// half block and reserves the first row for the title.
const (
	tcellTitleRows  = 1
	tcellPixelsCell = 2
	upperHalfBlock  = '▀'
)

func init() {
	Register("tcell", func(conf WindowConfig) (PlatformWindowWrapper, error) {
		screen, err := tcell.NewScreen()
		if err != nil {
			return nil, fmt.Errorf("tcell: new screen: %w", err)
		}
		return newTcellWindowWrapper(screen, conf)
	})
}

type tcellWindowWrapper struct {
	screen  tcell.Screen
	conf    WindowConfig
	events  chan tcell.Event
	quit    chan struct{}
	wg      sync.WaitGroup
	buttons tcell.ButtonMask

	mu     sync.Mutex
	images []*tcellImageWrapper
	dirty  bool
}

func newTcellWindowWrapper(screen tcell.Screen, conf WindowConfig) (*tcellWindowWrapper, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("tcell: init screen: %w", err)
	}
	w := &tcellWindowWrapper{
		screen: screen,
		conf:   conf,
		events: make(chan tcell.Event, 256),
		quit:   make(chan struct{}),
	}
	bg := tcell.NewRGBColor(int32(conf.Background.R), int32(conf.Background.G), int32(conf.Background.B))
	screen.SetStyle(tcell.StyleDefault.Background(bg))
	screen.HideCursor()
	screen.EnableMouse()
	screen.EnableFocus()

	w.wg.Add(1)
	go w.pump()
	return w, nil
}

// pump forwards tcell events until the screen is finalized. PollEvent
// returns nil after Fini.
func (w *tcellWindowWrapper) pump() {
	defer w.wg.Done()
	for {
		ev := w.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case w.events <- ev:
		case <-w.quit:
			return
		}
	}
}

func (w *tcellWindowWrapper) Show() {
	w.screen.Clear()
	w.drawTitle()
	w.screen.Show()
}

func (w *tcellWindowWrapper) Close() {
	close(w.quit)
	w.screen.Fini()
	w.wg.Wait()
}

// Size reports the drawable area in pixels.
func (w *tcellWindowWrapper) Size() (int, int) {
	cols, rows := w.screen.Size()
	return cellsToPixels(cols, rows)
}

func cellsToPixels(cols, rows int) (int, int) {
	rows -= tcellTitleRows
	if rows < 0 {
		rows = 0
	}
	return cols, rows * tcellPixelsCell
}

func (w *tcellWindowWrapper) NextEventTimeout(timeoutMs int) Event {
	var ev tcell.Event
	if timeoutMs <= 0 {
		select {
		case ev = <-w.events:
		default:
			return TimeoutEvent{}
		}
	} else {
		timer := time.NewTimer(time.Duration(timeoutMs) * time.Millisecond)
		defer timer.Stop()
		select {
		case ev = <-w.events:
		case <-timer.C:
			return TimeoutEvent{}
		}
	}
	return w.convert(ev)
}

func (w *tcellWindowWrapper) convert(ev tcell.Event) Event {
	switch e := ev.(type) {
	case *tcell.EventKey:
		if e.Key() == tcell.KeyCtrlC {
			return ClientMessage{}
		}
		code, label := decodeTcellKey(e)
		return KeyPress{Code: code, Label: label}
	case *tcell.EventResize:
		w.screen.Sync()
		width, height := cellsToPixels(e.Size())
		return ConfigureNotify{Width: width, Height: height}
	case *tcell.EventMouse:
		return w.convertMouse(e)
	case *tcell.EventFocus:
		if e.Focused {
			return EnterNotify{}
		}
		return LeaveNotify{}
	default:
		return UnexpectedEvent{}
	}
}

func decodeTcellKey(e *tcell.EventKey) (uint64, string) {
	switch e.Key() {
	case tcell.KeyRune:
		return uint64(e.Rune()), string(e.Rune())
	case tcell.KeyEscape:
		return KeyEscape, "Escape"
	case tcell.KeyEnter:
		return KeyReturn, "Return"
	case tcell.KeyTab:
		return KeyTab, "Tab"
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return KeyBackSpace, "BackSpace"
	case tcell.KeyDelete:
		return KeyDelete, "Delete"
	case tcell.KeyLeft:
		return KeyLeft, "Left"
	case tcell.KeyRight:
		return KeyRight, "Right"
	case tcell.KeyUp:
		return KeyUp, "Up"
	case tcell.KeyDown:
		return KeyDown, "Down"
	default:
		return uint64(e.Key()), e.Name()
	}
}

func (w *tcellWindowWrapper) convertMouse(e *tcell.EventMouse) Event {
	col, row := e.Position()
	x, y := col, (row-tcellTitleRows)*tcellPixelsCell
	buttons := e.Buttons()
	prev := w.buttons
	w.buttons = buttons & (tcell.Button1 | tcell.Button2 | tcell.Button3)

	switch {
	case buttons&tcell.WheelUp != 0:
		return MouseWheel{DeltaY: 1, X: x, Y: y}
	case buttons&tcell.WheelDown != 0:
		return MouseWheel{DeltaY: -1, X: x, Y: y}
	case buttons&tcell.WheelLeft != 0:
		return MouseWheel{DeltaX: -1, X: x, Y: y}
	case buttons&tcell.WheelRight != 0:
		return MouseWheel{DeltaX: 1, X: x, Y: y}
	}
	for i, mask := range []tcell.ButtonMask{tcell.Button1, tcell.Button2, tcell.Button3} {
		button := uint32(i + 1)
		if buttons&mask != 0 && prev&mask == 0 {
			return ButtonPress{Button: button, X: x, Y: y}
		}
		if buttons&mask == 0 && prev&mask != 0 {
			return ButtonRelease{Button: button, X: x, Y: y}
		}
	}
	return MotionNotify{X: x, Y: y}
}

func (w *tcellWindowWrapper) BeginFrame() {
	w.mu.Lock()
	w.dirty = false
	w.mu.Unlock()
}

func (w *tcellWindowWrapper) EndFrame() {
	w.mu.Lock()
	if !w.dirty {
		w.mu.Unlock()
		return
	}
	images := make([]*tcellImageWrapper, len(w.images))
	copy(images, w.images)
	w.mu.Unlock()

	for _, img := range images {
		w.blit(img)
	}
	w.drawTitle()
	w.screen.Show()
}

func (w *tcellWindowWrapper) blit(iw *tcellImageWrapper) {
	src := iw.img
	if src == nil {
		return
	}
	cols, rows := w.screen.Size()
	b := src.Bounds()
	for row := tcellTitleRows; row < rows; row++ {
		top := (row-tcellTitleRows)*tcellPixelsCell - iw.offsetY + b.Min.Y
		if top >= b.Max.Y {
			break
		}
		for col := 0; col < cols; col++ {
			x := col - iw.offsetX + b.Min.X
			if x < b.Min.X || x >= b.Max.X || top < b.Min.Y {
				continue
			}
			fg := rgbaAt(src, x, top)
			bg := fg
			if top+1 < b.Max.Y {
				bg = rgbaAt(src, x, top+1)
			}
			style := tcell.StyleDefault.Foreground(fg).Background(bg)
			w.screen.SetContent(col, row, upperHalfBlock, nil, style)
		}
	}
}

func rgbaAt(img *image.RGBA, x, y int) tcell.Color {
	c := img.RGBAAt(x, y)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func (w *tcellWindowWrapper) drawTitle() {
	cols, _ := w.screen.Size()
	title := runewidth.Truncate(w.conf.Title, cols, "…")
	start := (cols - runewidth.StringWidth(title)) / 2
	style := tcell.StyleDefault.Reverse(true)
	for col := 0; col < cols; col++ {
		w.screen.SetContent(col, 0, ' ', nil, style)
	}
	col := start
	for _, r := range title {
		w.screen.SetContent(col, 0, r, nil, style)
		col += runewidth.RuneWidth(r)
	}
}

func (w *tcellWindowWrapper) NewPlatformImageWrapper(img *image.RGBA, offsetX, offsetY int) PlatformImageWrapper {
	wrapper := &tcellImageWrapper{win: w, img: img, offsetX: offsetX, offsetY: offsetY}
	w.mu.Lock()
	w.images = append(w.images, wrapper)
	w.mu.Unlock()
	return wrapper
}

type tcellImageWrapper struct {
	win              *tcellWindowWrapper
	img              *image.RGBA
	offsetX, offsetY int
}

// Update marks the window dirty. Terminals redraw whole cells, so the
// rectangle only decides whether anything is visible at all.
func (i *tcellImageWrapper) Update(rect image.Rectangle) {
	if i.img == nil || rect.Intersect(i.img.Bounds()).Empty() {
		return
	}
	i.win.mu.Lock()
	i.win.dirty = true
	i.win.mu.Unlock()
}

func (i *tcellImageWrapper) Delete() {
	i.win.mu.Lock()
	defer i.win.mu.Unlock()
	for idx, cur := range i.win.images {
		if cur == i {
			i.win.images = append(i.win.images[:idx], i.win.images[idx+1:]...)
			break
		}
	}
	i.img = nil
}

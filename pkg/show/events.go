package show

import "github.com/kjkrol/goshow/internal/platform"

// Event is anything delivered to event handlers.
type Event interface{}

// Key codes carried by KeyPress and KeyRelease. They are X11 keysyms on
// every backend; printable keys use their Latin-1 code point.
const (
	KeyBackSpace = platform.KeyBackSpace
	KeyTab       = platform.KeyTab
	KeyReturn    = platform.KeyReturn
	KeyEscape    = platform.KeyEscape
	KeyLeft      = platform.KeyLeft
	KeyUp        = platform.KeyUp
	KeyRight     = platform.KeyRight
	KeyDown      = platform.KeyDown
	KeyDelete    = platform.KeyDelete
)

type Expose struct{}
type KeyPress struct {
	Code  uint64
	Label string
}
type KeyRelease struct {
	Code  uint64
	Label string
}
type ButtonPress struct {
	Button uint32
	X, Y   int
}
type ButtonRelease struct {
	Button uint32
	X, Y   int
}
type MotionNotify struct {
	X, Y int
}
type EnterNotify struct{}
type LeaveNotify struct{}
type MouseWheel struct {
	DeltaX float64
	DeltaY float64
	X, Y   int
}

// Resized reports the new drawable size in pixels.
type Resized struct {
	Width, Height int
}

// CloseRequested is sent when the user asks to close the window. The
// window is destroyed after the handlers ran.
type CloseRequested struct{}

// Destroyed is the last event a window's handlers receive.
type Destroyed struct{}

type UnexpectedEvent struct{}

func convert(event platform.Event) Event {
	switch e := event.(type) {
	case platform.KeyPress:
		return KeyPress{Code: e.Code, Label: e.Label}
	case platform.KeyRelease:
		return KeyRelease{Code: e.Code, Label: e.Label}
	case platform.ButtonPress:
		return ButtonPress{Button: e.Button, X: e.X, Y: e.Y}
	case platform.ButtonRelease:
		return ButtonRelease{Button: e.Button, X: e.X, Y: e.Y}
	case platform.MotionNotify:
		return MotionNotify{X: e.X, Y: e.Y}
	case platform.EnterNotify:
		return EnterNotify{}
	case platform.LeaveNotify:
		return LeaveNotify{}
	case platform.Expose:
		return Expose{}
	case platform.ConfigureNotify:
		return Resized{Width: e.Width, Height: e.Height}
	case platform.ClientMessage:
		return CloseRequested{}
	case platform.DestroyNotify:
		return Destroyed{}
	case platform.MouseWheel:
		return MouseWheel{DeltaX: e.DeltaX, DeltaY: e.DeltaY, X: e.X, Y: e.Y}
	default:
		return UnexpectedEvent{}
	}
}

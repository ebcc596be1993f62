package platform

type Event interface{}

// Key codes are X11 keysyms on every backend.
const (
	KeyBackSpace uint64 = 0xff08
	KeyTab       uint64 = 0xff09
	KeyReturn    uint64 = 0xff0d
	KeyEscape    uint64 = 0xff1b
	KeyLeft      uint64 = 0xff51
	KeyUp        uint64 = 0xff52
	KeyRight     uint64 = 0xff53
	KeyDown      uint64 = 0xff54
	KeyDelete    uint64 = 0xffff
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
type ConfigureNotify struct {
	Width, Height int
}
type DestroyNotify struct{}

// ClientMessage is the window manager asking the window to close.
type ClientMessage struct{}
type MouseWheel struct {
	DeltaX float64
	DeltaY float64
	X, Y   int
}
type UnexpectedEvent struct{}
type TimeoutEvent struct{}

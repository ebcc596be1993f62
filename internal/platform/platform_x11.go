//go:build linux && x11 && cgo

package platform

/*
#cgo LDFLAGS: -lX11
#include <stdlib.h>
#include <X11/Xlib.h>

void destroyImage(XImage *image) {
    if (image) {
        free(image);
    }
}
static int getConnectionNumber(Display* d) {
    return ConnectionNumber(d);
}
*/
import "C"

import (
	"errors"
	"image"
	"syscall"
	"time"
	"unsafe"
)

// ----------------------------------------------------------------------------

const (
	KeyPressMask        = 1 << 0
	KeyReleaseMask      = 1 << 1
	ButtonPressMask     = 1 << 2
	ButtonReleaseMask   = 1 << 3
	EnterWindowMask     = 1 << 4
	LeaveWindowMask     = 1 << 5
	PointerMotionMask   = 1 << 6
	ExposureMask        = 1 << 15
	StructureNotifyMask = 1 << 17

	DefaultMask = KeyPressMask | KeyReleaseMask | ButtonPressMask | ButtonReleaseMask |
		PointerMotionMask | ExposureMask | EnterWindowMask |
		LeaveWindowMask | StructureNotifyMask
)

func init() {
	Register("x11", newX11WindowWrapper)
}

func newX11WindowWrapper(conf WindowConfig) (PlatformWindowWrapper, error) {
	conn, err := newXConnection()
	if err != nil {
		return nil, err
	}

	bg := C.ulong(uint32(conf.Background.R)<<16 | uint32(conf.Background.G)<<8 | uint32(conf.Background.B))
	window := C.XCreateSimpleWindow(
		conn.display,
		conn.rootWindow,
		C.int(conf.PositionX),
		C.int(conf.PositionY),
		C.uint(conf.Width),
		C.uint(conf.Height),
		C.uint(conf.BorderWidth),
		C.XBlackPixel(conn.display, conn.screen),
		bg,
	)

	title := C.CString(conf.Title)
	C.XStoreName(conn.display, window, title)

	return &x11WindowWrapper{
		conn:   conn,
		window: window,
		title:  title,
		width:  conf.Width,
		height: conf.Height,
	}, nil
}

// ----------------------------------------------------------------------------

type xConnection struct {
	display    *C.Display
	screen     C.int
	rootWindow C.Window
	gc         C.GC
}

func newXConnection() (*xConnection, error) {
	display := C.XOpenDisplay(nil)
	if display == nil {
		return nil, errors.New("x11: unable to open display")
	}

	screen := C.XDefaultScreen(display)
	rootWindow := C.XRootWindow(display, screen)
	return &xConnection{
		display:    display,
		screen:     screen,
		rootWindow: rootWindow,
		gc:         C.XDefaultGC(display, screen),
	}, nil
}

func (c *xConnection) Close() {
	C.XCloseDisplay(c.display)
}

// ----------------------------------------------------------------------------

type x11ImageWrapper struct {
	win              *x11WindowWrapper
	xImage           *C.XImage
	offsetX, offsetY int

	src   *image.RGBA
	buf   unsafe.Pointer // C.malloc'd pixels owned by xImage
	pitch int
	w, h  int
}

func newx11ImageWrapper(win *x11WindowWrapper, img *image.RGBA, offsetX, offsetY int) *x11ImageWrapper {
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	pitch := img.Stride
	size := C.size_t(h * pitch)
	if size == 0 {
		size = 4
	}

	// XImage must point at C memory, never at a Go slice.
	data := C.malloc(size)

	xImage := C.XCreateImage(
		win.conn.display,
		C.XDefaultVisual(win.conn.display, win.conn.screen),
		24,
		C.ZPixmap,
		0,
		(*C.char)(data),
		C.uint(w), C.uint(h),
		32,
		C.int(pitch),
	)

	return &x11ImageWrapper{
		win: win, xImage: xImage,
		offsetX: offsetX, offsetY: offsetY,
		src: img, buf: data, pitch: pitch, w: w, h: h,
	}
}

func (xw *x11ImageWrapper) Update(rect image.Rectangle) {
	r := rect.Intersect(image.Rect(0, 0, xw.w, xw.h))
	if r.Empty() || xw.xImage == nil {
		return
	}

	bufSize := xw.h * xw.pitch
	dst := unsafe.Slice((*byte)(xw.buf), bufSize)

	copyRectRGBAtoBGRA(dst, xw.pitch, xw.src, r)

	C.XPutImage(
		xw.win.conn.display,
		xw.win.window,
		xw.win.conn.gc,
		xw.xImage,
		C.int(r.Min.X), C.int(r.Min.Y),
		C.int(xw.offsetX+r.Min.X), C.int(xw.offsetY+r.Min.Y),
		C.uint(r.Dx()), C.uint(r.Dy()),
	)
	xw.win.frameHasUpdates = true
}

// copyRectRGBAtoBGRA copies rect from src into dst, which uses the BGRA
// layout of a 24-bit ZPixmap.
func copyRectRGBAtoBGRA(dst []byte, dstStride int, src *image.RGBA, rect image.Rectangle) {
	sx0 := rect.Min.X - src.Rect.Min.X
	sy0 := rect.Min.Y - src.Rect.Min.Y
	w := rect.Dx()
	h := rect.Dy()

	for row := 0; row < h; row++ {
		sOff := (sy0+row)*src.Stride + sx0*4
		dOff := (rect.Min.Y+row)*dstStride + rect.Min.X*4

		s := src.Pix[sOff:]
		d := dst[dOff:]

		for x := 0; x < w; x++ {
			d[4*x+0] = s[4*x+2]
			d[4*x+1] = s[4*x+1]
			d[4*x+2] = s[4*x+0]
			d[4*x+3] = s[4*x+3]
		}
	}
}

func (xw *x11ImageWrapper) Delete() {
	if xw.xImage != nil {
		if xw.xImage.data != nil {
			C.free(unsafe.Pointer(xw.xImage.data))
			xw.xImage.data = nil
		}
		C.destroyImage(xw.xImage)
		xw.xImage = nil
	}
	xw.buf = nil
	xw.src = nil
}

// ----------------------------------------------------------------------------

type x11WindowWrapper struct {
	conn            *xConnection
	window          C.Window
	title           *C.char
	wmDeleteWindow  C.Atom
	width, height   int
	frameHasUpdates bool
}

func (w *x11WindowWrapper) Show() {
	C.XMapWindow(w.conn.display, w.window)

	name := C.CString("WM_DELETE_WINDOW")
	defer C.free(unsafe.Pointer(name))
	w.wmDeleteWindow = C.XInternAtom(w.conn.display, name, 0)
	C.XSetWMProtocols(w.conn.display, w.window, &w.wmDeleteWindow, 1)
	C.XSelectInput(w.conn.display, w.window, DefaultMask)
	C.XFlush(w.conn.display)
}

func (w *x11WindowWrapper) Close() {
	if w.conn == nil {
		return
	}
	C.XDestroyWindow(w.conn.display, w.window)
	C.free(unsafe.Pointer(w.title))
	w.conn.Close()
	w.conn = nil
}

func (w *x11WindowWrapper) Size() (int, int) {
	return w.width, w.height
}

func (w *x11WindowWrapper) NextEventTimeout(timeoutMs int) Event {
	if C.XPending(w.conn.display) == 0 {
		fd := int(C.getConnectionNumber(w.conn.display))
		tv := syscall.NsecToTimeval((time.Duration(timeoutMs) * time.Millisecond).Nanoseconds())

		var readfds syscall.FdSet
		fdSet(fd, &readfds)

		n, err := syscall.Select(fd+1, &readfds, nil, nil, &tv)
		if err != nil || n == 0 {
			return TimeoutEvent{}
		}
	}

	var ev C.XEvent
	if C.XPending(w.conn.display) > 0 {
		C.XNextEvent(w.conn.display, &ev)
		return w.convert(ev)
	}
	return TimeoutEvent{}
}

func (w *x11WindowWrapper) BeginFrame() {
	w.frameHasUpdates = false
}

func (w *x11WindowWrapper) EndFrame() {
	if w.frameHasUpdates {
		C.XFlush(w.conn.display)
	}
}

func (w *x11WindowWrapper) NewPlatformImageWrapper(img *image.RGBA, offsetX, offsetY int) PlatformImageWrapper {
	return newx11ImageWrapper(w, img, offsetX, offsetY)
}

// ----------------------------------------------------------------------------

func decodeKeyEvent(keyEvent *C.XKeyEvent) (uint64, string) {
	keysym := C.XLookupKeysym(keyEvent, 0)
	char := C.XKeysymToString(keysym)
	label := C.GoString(char)
	return uint64(keysym), label
}

func (w *x11WindowWrapper) convert(event C.XEvent) Event {
	switch eventType := (*C.XAnyEvent)(unsafe.Pointer(&event))._type; eventType {
	case C.KeyPress:
		event := (*C.XKeyEvent)(unsafe.Pointer(&event))
		code, label := decodeKeyEvent(event)
		return KeyPress{Code: code, Label: label}
	case C.KeyRelease:
		event := (*C.XKeyEvent)(unsafe.Pointer(&event))
		code, label := decodeKeyEvent(event)
		return KeyRelease{Code: code, Label: label}
	case C.ButtonPress:
		event := (*C.XButtonEvent)(unsafe.Pointer(&event))
		return ButtonPress{Button: uint32(event.button), X: int(event.x), Y: int(event.y)}
	case C.ButtonRelease:
		event := (*C.XButtonEvent)(unsafe.Pointer(&event))
		return ButtonRelease{Button: uint32(event.button), X: int(event.x), Y: int(event.y)}
	case C.MotionNotify:
		event := (*C.XMotionEvent)(unsafe.Pointer(&event))
		return MotionNotify{X: int(event.x), Y: int(event.y)}
	case C.EnterNotify:
		return EnterNotify{}
	case C.LeaveNotify:
		return LeaveNotify{}
	case C.Expose:
		return Expose{}
	case C.ConfigureNotify:
		event := (*C.XConfigureEvent)(unsafe.Pointer(&event))
		width, height := int(event.width), int(event.height)
		if width == w.width && height == w.height {
			return UnexpectedEvent{}
		}
		w.width, w.height = width, height
		return ConfigureNotify{Width: width, Height: height}
	case C.DestroyNotify:
		return DestroyNotify{}
	case C.ClientMessage:
		event := (*C.XClientMessageEvent)(unsafe.Pointer(&event))
		data := (*[5]C.long)(unsafe.Pointer(&event.data))
		if C.Atom(data[0]) == w.wmDeleteWindow {
			return ClientMessage{}
		}
		return UnexpectedEvent{}
	default:
		return UnexpectedEvent{}
	}
}

func fdSet(fd int, p *syscall.FdSet) {
	p.Bits[fd/64] |= 1 << (uint(fd) % 64)
}

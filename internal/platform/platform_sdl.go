//go:build sdl && cgo

package platform

/*
#cgo pkg-config: sdl2
#include <stdlib.h>
#include <SDL2/SDL.h>
static inline void my_SDL_DestroyTexture(SDL_Texture* t) {
    SDL_DestroyTexture(t);
}
*/
import "C"
import (
	"fmt"
	"image"
	"runtime"
	"sync"
	"unsafe"
)

func init() {
	Register("sdl", newSDLWindowWrapper)
}

type sdlWindowWrapper struct {
	window          *C.SDL_Window
	renderer        *C.SDL_Renderer
	textures        []*sdlTextureImageWrapper
	texturesMu      sync.Mutex
	background      [3]C.Uint8
	width           int
	height          int
	frameHasUpdates bool
	forcePresent    bool
}

// newSDLWindowWrapper must run on the goroutine that later drives the
// event loop. The goroutine stays locked to its OS thread.
func newSDLWindowWrapper(conf WindowConfig) (PlatformWindowWrapper, error) {
	runtime.LockOSThread()
	if C.SDL_Init(C.SDL_INIT_VIDEO) != 0 {
		return nil, fmt.Errorf("sdl: init: %s", C.GoString(C.SDL_GetError()))
	}

	cTitle := C.CString(conf.Title)
	defer C.free(unsafe.Pointer(cTitle))

	flags := C.Uint32(C.SDL_WINDOW_HIDDEN)
	if conf.Resizable {
		flags |= C.SDL_WINDOW_RESIZABLE
	}
	window := C.SDL_CreateWindow(cTitle, C.SDL_WINDOWPOS_CENTERED, C.SDL_WINDOWPOS_CENTERED,
		C.int(conf.Width), C.int(conf.Height), flags)
	if window == nil {
		err := fmt.Errorf("sdl: create window: %s", C.GoString(C.SDL_GetError()))
		C.SDL_Quit()
		return nil, err
	}

	renderer := createRendererWithProbe(window)
	if renderer == nil {
		err := fmt.Errorf("sdl: create renderer: %s", C.GoString(C.SDL_GetError()))
		C.SDL_DestroyWindow(window)
		C.SDL_Quit()
		return nil, err
	}

	return &sdlWindowWrapper{
		window:     window,
		renderer:   renderer,
		background: [3]C.Uint8{C.Uint8(conf.Background.R), C.Uint8(conf.Background.G), C.Uint8(conf.Background.B)},
		width:      conf.Width,
		height:     conf.Height,
	}, nil
}

// createRendererWithProbe falls back from accelerated with vsync to the
// software renderer.
func createRendererWithProbe(window *C.SDL_Window) *C.SDL_Renderer {
	for _, flags := range []C.Uint32{
		C.SDL_RENDERER_ACCELERATED | C.SDL_RENDERER_PRESENTVSYNC,
		C.SDL_RENDERER_ACCELERATED,
		C.SDL_RENDERER_SOFTWARE,
	} {
		if renderer := C.SDL_CreateRenderer(window, -1, flags); renderer != nil {
			return renderer
		}
	}
	return nil
}

func (w *sdlWindowWrapper) Show() {
	C.SDL_ShowWindow(w.window)
	C.SDL_EventState(C.SDL_QUIT, C.SDL_ENABLE)
	w.forcePresent = true
	w.EndFrame()
}

func (w *sdlWindowWrapper) Close() {
	for _, tex := range w.textureSnapshot() {
		tex.Delete()
	}
	if w.renderer != nil {
		C.SDL_DestroyRenderer(w.renderer)
		w.renderer = nil
	}
	C.SDL_DestroyWindow(w.window)
	C.SDL_Quit()
}

func (w *sdlWindowWrapper) Size() (int, int) {
	return w.width, w.height
}

func (w *sdlWindowWrapper) NextEventTimeout(timeoutMs int) Event {
	var e C.SDL_Event
	if C.SDL_WaitEventTimeout(&e, C.int(timeoutMs)) != 0 {
		return w.convert(e)
	}
	return TimeoutEvent{}
}

func (w *sdlWindowWrapper) convert(event C.SDL_Event) Event {
	switch eventType := (*(*C.Uint32)(unsafe.Pointer(&event))); eventType {
	case C.SDL_QUIT:
		return ClientMessage{}
	case C.SDL_KEYDOWN:
		keyEvent := (*C.SDL_KeyboardEvent)(unsafe.Pointer(&event))
		code, label := decodeSDLKey(keyEvent.keysym.sym)
		return KeyPress{Code: code, Label: label}
	case C.SDL_KEYUP:
		keyEvent := (*C.SDL_KeyboardEvent)(unsafe.Pointer(&event))
		code, label := decodeSDLKey(keyEvent.keysym.sym)
		return KeyRelease{Code: code, Label: label}
	case C.SDL_MOUSEBUTTONDOWN:
		mouseEvent := (*C.SDL_MouseButtonEvent)(unsafe.Pointer(&event))
		return ButtonPress{Button: uint32(mouseEvent.button), X: int(mouseEvent.x), Y: int(mouseEvent.y)}
	case C.SDL_MOUSEBUTTONUP:
		mouseEvent := (*C.SDL_MouseButtonEvent)(unsafe.Pointer(&event))
		return ButtonRelease{Button: uint32(mouseEvent.button), X: int(mouseEvent.x), Y: int(mouseEvent.y)}
	case C.SDL_MOUSEMOTION:
		mouseEvent := (*C.SDL_MouseMotionEvent)(unsafe.Pointer(&event))
		return MotionNotify{X: int(mouseEvent.x), Y: int(mouseEvent.y)}
	case C.SDL_MOUSEWHEEL:
		wheelEvent := (*C.SDL_MouseWheelEvent)(unsafe.Pointer(&event))
		dx := float64(wheelEvent.x)
		dy := float64(wheelEvent.y)
		if wheelEvent.direction == C.SDL_MOUSEWHEEL_FLIPPED {
			dx = -dx
			dy = -dy
		}
		var mx, my C.int
		C.SDL_GetMouseState(&mx, &my)
		return MouseWheel{DeltaX: dx, DeltaY: dy, X: int(mx), Y: int(my)}
	case C.SDL_WINDOWEVENT:
		windowEvent := (*C.SDL_WindowEvent)(unsafe.Pointer(&event))
		switch windowEvent.event {
		case C.SDL_WINDOWEVENT_EXPOSED:
			w.forcePresent = true
			return Expose{}
		case C.SDL_WINDOWEVENT_ENTER:
			return EnterNotify{}
		case C.SDL_WINDOWEVENT_LEAVE:
			return LeaveNotify{}
		case C.SDL_WINDOWEVENT_SIZE_CHANGED:
			w.width, w.height = int(windowEvent.data1), int(windowEvent.data2)
			return ConfigureNotify{Width: w.width, Height: w.height}
		case C.SDL_WINDOWEVENT_CLOSE:
			return ClientMessage{}
		}
	}
	return UnexpectedEvent{}
}

func decodeSDLKey(sym C.SDL_Keycode) (uint64, string) {
	label := C.GoString(C.SDL_GetKeyName(sym))
	switch sym {
	case C.SDLK_ESCAPE:
		return KeyEscape, label
	case C.SDLK_RETURN:
		return KeyReturn, label
	case C.SDLK_TAB:
		return KeyTab, label
	case C.SDLK_BACKSPACE:
		return KeyBackSpace, label
	case C.SDLK_DELETE:
		return KeyDelete, label
	case C.SDLK_LEFT:
		return KeyLeft, label
	case C.SDLK_RIGHT:
		return KeyRight, label
	case C.SDLK_UP:
		return KeyUp, label
	case C.SDLK_DOWN:
		return KeyDown, label
	}
	// Printable SDL keycodes are their unicode code points, as are the
	// Latin-1 keysyms.
	return uint64(sym), label
}

// ------------------

func (w *sdlWindowWrapper) NewPlatformImageWrapper(img *image.RGBA, offsetX, offsetY int) PlatformImageWrapper {
	return newSDLTextureImageWrapper(w, img, offsetX, offsetY)
}

func (w *sdlWindowWrapper) BeginFrame() {
	w.frameHasUpdates = false
}

func (w *sdlWindowWrapper) EndFrame() {
	if w.renderer == nil {
		return
	}
	if !w.frameHasUpdates && !w.forcePresent {
		return
	}

	C.SDL_SetRenderDrawColor(w.renderer, w.background[0], w.background[1], w.background[2], 255)
	C.SDL_RenderClear(w.renderer)

	for _, tex := range w.textureSnapshot() {
		if tex == nil || tex.texture == nil || tex.img == nil {
			continue
		}
		dstRect := C.SDL_Rect{
			x: C.int(tex.offsetX),
			y: C.int(tex.offsetY),
			w: C.int(tex.img.Rect.Dx()),
			h: C.int(tex.img.Rect.Dy()),
		}
		C.SDL_RenderCopy(w.renderer, tex.texture, nil, &dstRect)
	}

	C.SDL_RenderPresent(w.renderer)
	w.forcePresent = false
}

type sdlTextureImageWrapper struct {
	window  *sdlWindowWrapper
	texture *C.SDL_Texture
	img     *image.RGBA
	offsetX int
	offsetY int
}

func newSDLTextureImageWrapper(win *sdlWindowWrapper, img *image.RGBA, offsetX, offsetY int) *sdlTextureImageWrapper {
	wrapper := &sdlTextureImageWrapper{
		window:  win,
		img:     img,
		offsetX: offsetX,
		offsetY: offsetY,
	}

	if win == nil || win.renderer == nil || img == nil {
		return wrapper
	}

	width := img.Rect.Dx()
	height := img.Rect.Dy()
	if width <= 0 || height <= 0 {
		return wrapper
	}

	texture := C.SDL_CreateTexture(win.renderer, C.SDL_PIXELFORMAT_RGBA32, C.SDL_TEXTUREACCESS_STREAMING, C.int(width), C.int(height))
	if texture == nil {
		return wrapper
	}

	wrapper.texture = texture
	win.registerTexture(wrapper)
	return wrapper
}

func (i *sdlTextureImageWrapper) Update(rect image.Rectangle) {
	if i == nil || i.texture == nil || i.img == nil {
		return
	}
	rect = rect.Intersect(i.img.Rect)
	if rect.Empty() {
		return
	}

	relX := rect.Min.X - i.img.Rect.Min.X
	relY := rect.Min.Y - i.img.Rect.Min.Y
	offset := relY*i.img.Stride + relX*4
	if offset < 0 || offset >= len(i.img.Pix) {
		return
	}

	pixels := unsafe.Pointer(&i.img.Pix[offset])
	sdlRect := C.SDL_Rect{
		x: C.int(relX),
		y: C.int(relY),
		w: C.int(rect.Dx()),
		h: C.int(rect.Dy()),
	}
	if C.SDL_UpdateTexture(i.texture, &sdlRect, pixels, C.int(i.img.Stride)) != 0 {
		return
	}
	i.window.frameHasUpdates = true
}

func (i *sdlTextureImageWrapper) Delete() {
	if i.window != nil {
		i.window.unregisterTexture(i)
	}
	if i.texture != nil {
		C.my_SDL_DestroyTexture(i.texture)
		i.texture = nil
	}
	i.img = nil
	i.window = nil
}

func (w *sdlWindowWrapper) registerTexture(tex *sdlTextureImageWrapper) {
	w.texturesMu.Lock()
	w.textures = append(w.textures, tex)
	w.texturesMu.Unlock()
}

func (w *sdlWindowWrapper) unregisterTexture(tex *sdlTextureImageWrapper) {
	w.texturesMu.Lock()
	for idx, current := range w.textures {
		if current == tex {
			copy(w.textures[idx:], w.textures[idx+1:])
			w.textures[len(w.textures)-1] = nil
			w.textures = w.textures[:len(w.textures)-1]
			break
		}
	}
	w.texturesMu.Unlock()
	w.forcePresent = true
}

func (w *sdlWindowWrapper) textureSnapshot() []*sdlTextureImageWrapper {
	w.texturesMu.Lock()
	defer w.texturesMu.Unlock()
	out := make([]*sdlTextureImageWrapper, len(w.textures))
	copy(out, w.textures)
	return out
}

package show_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjkrol/goshow/internal/platform"
	"github.com/kjkrol/goshow/pkg/show"
)

const waitFor = 2 * time.Second

type harness struct {
	app     *show.App
	windows chan *platform.Headless
	done    chan error
	cancel  context.CancelFunc
}

func newHarness(t *testing.T, opts ...show.Option) *harness {
	t.Helper()
	h := &harness{windows: make(chan *platform.Headless, 8)}
	factory := func(conf platform.WindowConfig) (platform.PlatformWindowWrapper, error) {
		hw := platform.NewHeadless(conf)
		h.windows <- hw
		return hw, nil
	}
	base := []show.Option{
		show.WithPlatformFactory(factory),
		show.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		show.WithRefreshRate(240),
	}
	app, err := show.NewApp(append(base, opts...)...)
	require.NoError(t, err)
	h.app = app
	return h
}

func (h *harness) createWindow(t *testing.T, opts show.WindowOptions) (*show.Window, *platform.Headless) {
	t.Helper()
	w, err := h.app.CreateWindow(opts)
	require.NoError(t, err)
	return w, <-h.windows
}

func (h *harness) start() {
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	h.done = make(chan error, 1)
	go func() { h.done <- h.app.Run(ctx) }()
}

func (h *harness) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.done:
		return err
	case <-time.After(waitFor):
		t.Fatal("event loop did not stop")
		return nil
	}
}

func (h *harness) stop(t *testing.T) error {
	t.Helper()
	h.cancel()
	return h.wait(t)
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for value")
		var zero T
		return zero
	}
}

func TestApp_StopPropagationSkipsLaterHandlers(t *testing.T) {
	h := newHarness(t)
	w, hw := h.createWindow(t, show.WindowOptions{Title: "propagation"})

	var bCalls atomic.Int32
	seen := make(chan show.Event, 1)
	require.NoError(t, w.AddEventHandlerFunc(func(ctx *show.EventHandlerContext) {
		if _, ok := ctx.Event().(show.KeyPress); ok {
			ctx.StopPropagation()
			seen <- ctx.Event()
		}
	}))
	require.NoError(t, w.AddEventHandlerFunc(func(ctx *show.EventHandlerContext) {
		if _, ok := ctx.Event().(show.KeyPress); ok {
			bCalls.Add(1)
		}
	}))

	h.start()
	hw.Push(platform.KeyPress{Code: 'q', Label: "q"})

	ev := receive(t, seen)
	assert.Equal(t, show.KeyPress{Code: 'q', Label: "q"}, ev)
	require.NoError(t, h.stop(t))
	assert.Equal(t, int32(0), bCalls.Load())
}

func TestApp_HandlerSeesImage(t *testing.T) {
	h := newHarness(t)
	w, hw := h.createWindow(t, show.WindowOptions{Title: "cat"})

	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.Pix[0] = 42
	require.NoError(t, w.SetImage("cat", src))

	images := make(chan *show.DisplayImage, 1)
	require.NoError(t, w.AddEventHandlerFunc(func(ctx *show.EventHandlerContext) {
		if _, ok := ctx.Event().(show.ButtonPress); ok {
			images <- ctx.Image()
		}
	}))

	h.start()
	hw.Push(platform.ButtonPress{Button: 1, X: 1, Y: 1})

	img := receive(t, images)
	require.NotNil(t, img)
	assert.Equal(t, "cat", img.Name())
	assert.Equal(t, src.Pix, img.Data())
	require.NoError(t, h.stop(t))
}

func TestApp_CloseRequestDestroysWindowAndExits(t *testing.T) {
	h := newHarness(t)
	w, hw := h.createWindow(t, show.WindowOptions{})

	var events []show.Event
	require.NoError(t, w.AddEventHandlerFunc(func(ctx *show.EventHandlerContext) {
		events = append(events, ctx.Event())
	}))

	h.start()
	hw.Push(platform.ClientMessage{})

	require.NoError(t, h.wait(t))
	assert.True(t, hw.Closed())
	assert.True(t, w.Inner().IsDestroyed())
	assert.Empty(t, h.app.Windows())
	require.Len(t, events, 2)
	assert.Equal(t, show.CloseRequested{}, events[0])
	assert.Equal(t, show.Destroyed{}, events[1])
}

func TestApp_EscapeHandlerDestroysWindow(t *testing.T) {
	h := newHarness(t)
	w, hw := h.createWindow(t, show.WindowOptions{})

	destroyErrs := make(chan error, 2)
	handler := func(ctx *show.EventHandlerContext) {
		if key, ok := ctx.Event().(show.KeyPress); ok && key.Code == show.KeyEscape {
			destroyErrs <- w.Destroy()
		}
	}
	require.NoError(t, w.AddEventHandlerFunc(handler))

	h.start()
	hw.Push(platform.KeyPress{Code: platform.KeyEscape, Label: "Escape"})

	require.NoError(t, receive(t, destroyErrs))
	require.NoError(t, h.wait(t))
	assert.True(t, hw.Closed())

	err := w.Destroy()
	var backendErr *show.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.ErrorIs(t, err, show.ErrWindowDestroyed)
	assert.ErrorIs(t, w.AddEventHandlerFunc(handler), show.ErrWindowDestroyed)
	assert.ErrorIs(t, w.SetImage("late", image.NewGray(image.Rect(0, 0, 1, 1))), show.ErrWindowDestroyed)
}

func TestApp_BackgroundTasksJoinedOnShutdown(t *testing.T) {
	h := newHarness(t)
	w, hw := h.createWindow(t, show.WindowOptions{})

	release := make(chan struct{})
	var finished atomic.Int32
	spawned := make(chan struct{}, 1)
	require.NoError(t, w.AddEventHandlerFunc(func(ctx *show.EventHandlerContext) {
		if _, ok := ctx.Event().(show.KeyPress); !ok {
			return
		}
		for i := 0; i < 3; i++ {
			ctx.SpawnTask(func() {
				<-release
				finished.Add(1)
			})
		}
		spawned <- struct{}{}
	}))

	h.start()
	hw.Push(platform.KeyPress{Code: 'x'})
	receive(t, spawned)

	h.cancel()
	select {
	case <-h.done:
		t.Fatal("Run returned before background tasks finished")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)

	require.NoError(t, h.wait(t))
	assert.Equal(t, int32(3), finished.Load())
	assert.Equal(t, 0, h.app.PendingTasks())
}

func TestApp_TaskPanicReturnedFromRun(t *testing.T) {
	h := newHarness(t)
	w, hw := h.createWindow(t, show.WindowOptions{})
	require.NoError(t, w.AddEventHandlerFunc(func(ctx *show.EventHandlerContext) {
		if _, ok := ctx.Event().(show.KeyPress); ok {
			ctx.SpawnTask(func() { panic("worker failed") })
		}
	}))

	h.start()
	hw.Push(platform.KeyPress{Code: 'p'})
	hw.Push(platform.ClientMessage{})

	err := h.wait(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker failed")
}

func TestApp_RendersImageAndFollowsResize(t *testing.T) {
	h := newHarness(t)
	red := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(red.Pix); i += 4 {
		red.Pix[i], red.Pix[i+3] = 255, 255
	}
	w, hw := h.createWindow(t, show.WindowOptions{
		Width:      8,
		Height:     4,
		Background: color.RGBA{B: 255, A: 255},
		Image:      red,
		ImageName:  "red",
	})
	assert.Equal(t, "red", w.Image().Name())

	resized := make(chan show.Resized, 1)
	require.NoError(t, w.AddEventHandlerFunc(func(ctx *show.EventHandlerContext) {
		if e, ok := ctx.Event().(show.Resized); ok {
			resized <- e
		}
	}))

	h.start()
	require.Eventually(t, func() bool { return hw.Frames() > 0 }, waitFor, time.Millisecond)
	frame := hw.LastFrame()
	require.NotNil(t, frame)
	assert.Equal(t, image.Rect(0, 0, 8, 4), frame.Bounds())
	assert.Equal(t, color.RGBA{B: 255, A: 255}, frame.RGBAAt(0, 0), "letterbox uses the background")
	assert.Equal(t, color.RGBA{R: 255, A: 255}, frame.RGBAAt(4, 2), "image is centred")

	frames := hw.Frames()
	hw.Push(platform.ConfigureNotify{Width: 6, Height: 6})
	assert.Equal(t, show.Resized{Width: 6, Height: 6}, receive(t, resized))
	require.Eventually(t, func() bool { return hw.Frames() > frames }, waitFor, time.Millisecond)
	assert.Equal(t, image.Rect(0, 0, 6, 6), hw.LastFrame().Bounds())
	width, height := w.Size()
	assert.Equal(t, 6, width)
	assert.Equal(t, 6, height)

	require.NoError(t, h.stop(t))
	assert.Equal(t, 0, hw.LiveImages())
}

func TestApp_EmitAndPost(t *testing.T) {
	h := newHarness(t)
	w, _ := h.createWindow(t, show.WindowOptions{})

	type custom struct{ n int }
	got := make(chan show.Event, 1)
	require.NoError(t, w.AddEventHandlerFunc(func(ctx *show.EventHandlerContext) {
		if _, ok := ctx.Event().(custom); ok {
			got <- ctx.Event()
		}
	}))

	h.start()
	require.True(t, w.Emit(custom{n: 7}))
	assert.Equal(t, custom{n: 7}, receive(t, got))

	ran := make(chan struct{})
	require.True(t, h.app.Post(func() { close(ran) }))
	receive(t, ran)
	require.NoError(t, h.stop(t))
}

func TestApp_StopReturnsWithoutExitWithLastWindow(t *testing.T) {
	h := newHarness(t, show.WithExitWithLastWindow(false))
	w, hw := h.createWindow(t, show.WindowOptions{})

	h.start()
	require.NoError(t, w.Destroy())
	require.Eventually(t, hw.Closed, waitFor, time.Millisecond)

	select {
	case <-h.done:
		t.Fatal("Run returned although exit-with-last-window is off")
	case <-time.After(20 * time.Millisecond):
	}
	h.app.Stop()
	require.NoError(t, h.wait(t))
}

func TestApp_CreateWindowErrors(t *testing.T) {
	app, err := show.NewApp(show.WithBackend("no-such-backend"))
	require.NoError(t, err)
	_, err = app.CreateWindow(show.WindowOptions{})
	var backendErr *show.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "create window", backendErr.Op)
	assert.ErrorIs(t, err, show.ErrUnknownBackend)

	failing := errors.New("no display")
	app, err = show.NewApp(show.WithPlatformFactory(func(platform.WindowConfig) (platform.PlatformWindowWrapper, error) {
		return nil, failing
	}))
	require.NoError(t, err)
	_, err = app.CreateWindow(show.WindowOptions{})
	assert.ErrorIs(t, err, failing)
}

func TestApp_CreateWindowWithUndecodableImage(t *testing.T) {
	h := newHarness(t)
	_, err := h.app.CreateWindow(show.WindowOptions{Image: image.NewGray(image.Rectangle{})})

	var decodeErr *show.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.True(t, (<-h.windows).Closed())
	assert.Empty(t, h.app.Windows())
}

func TestNewApp_InvalidOptions(t *testing.T) {
	for name, opt := range map[string]show.Option{
		"refresh rate zero": show.WithRefreshRate(0),
		"refresh rate high": show.WithRefreshRate(241),
		"buffer":            show.WithEventBufferSize(0),
		"nil strategy":      show.WithEventsStrategy(nil),
		"nil logger":        show.WithLogger(nil),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := show.NewApp(opt)
			var backendErr *show.BackendError
			require.ErrorAs(t, err, &backendErr)
			assert.Equal(t, "configure", backendErr.Op)
		})
	}
}

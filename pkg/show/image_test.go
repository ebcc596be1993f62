package show_test

import (
	"errors"
	"image"
	"image/color"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjkrol/goshow/pkg/show"
)

func solidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestWindowState_ImageNilBeforeSet(t *testing.T) {
	var s show.WindowState
	assert.Nil(t, s.Image())
}

func TestWindowState_SetImage(t *testing.T) {
	var s show.WindowState
	src := solidNRGBA(3, 2, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	require.NoError(t, s.SetImage("cat", src))

	got := s.Image()
	require.NotNil(t, got)
	assert.Equal(t, "cat", got.Name())
	assert.Equal(t, show.ImageInfo{Format: show.Rgba8, Width: 3, Height: 2, Stride: 12}, got.Info())
	assert.Equal(t, src.Pix, got.Data())
}

func TestWindowState_FailedSetKeepsPrevious(t *testing.T) {
	var s show.WindowState
	require.NoError(t, s.SetImage("first", solidNRGBA(1, 1, color.NRGBA{A: 255})))

	err := s.SetImage("broken", image.NewNRGBA(image.Rect(0, 0, 0, 0)))

	var decodeErr *show.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "first", s.Image().Name())
}

func TestWindowState_NoTornReads(t *testing.T) {
	var s show.WindowState
	a := solidNRGBA(4, 4, color.NRGBA{R: 255, A: 255})
	b := solidNRGBA(2, 8, color.NRGBA{B: 255, A: 255})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if i%2 == 0 {
				_ = s.SetImage("a", a)
			} else {
				_ = s.SetImage("b", b)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			img := s.Image()
			if img == nil {
				continue
			}
			switch img.Name() {
			case "a":
				assert.Equal(t, 4, img.Info().Height)
				assert.Equal(t, byte(255), img.Data()[0])
			case "b":
				assert.Equal(t, 8, img.Info().Height)
				assert.Equal(t, byte(255), img.Data()[2])
			default:
				t.Errorf("unexpected name %q", img.Name())
			}
		}
	}()
	wg.Wait()
}

func TestWindowState_RGBABytes(t *testing.T) {
	var s show.WindowState

	opaque := image.NewRGBA(image.Rect(0, 0, 2, 1))
	copy(opaque.Pix, []byte{64, 32, 16, 255, 1, 2, 3, 255})
	require.NoError(t, s.SetImage("opaque", opaque))
	assert.Equal(t, opaque.Pix, s.Image().Data(), "opaque pixels keep their bytes")

	translucent := image.NewRGBA(image.Rect(0, 0, 1, 1))
	copy(translucent.Pix, []byte{64, 32, 16, 128})
	require.NoError(t, s.SetImage("translucent", translucent))
	got := s.Image()
	assert.Equal(t, show.Rgba8, got.Info().Format)
	assert.Equal(t, color.NRGBAModel.Convert(translucent.At(0, 0)), got.AsImage().At(0, 0),
		"stored unpremultiplied")
	assert.Equal(t, byte(128), got.Data()[3])
}

func TestImageInfoOf(t *testing.T) {
	info, err := show.ImageInfoOf(image.NewGray(image.Rect(0, 0, 5, 3)))
	require.NoError(t, err)
	assert.Equal(t, show.ImageInfo{Format: show.Mono8, Width: 5, Height: 3, Stride: 5}, info)

	info, err = show.ImageInfoOf(image.NewRGBA(image.Rect(2, 2, 6, 4)))
	require.NoError(t, err)
	assert.Equal(t, show.ImageInfo{Format: show.Rgba8, Width: 4, Height: 2, Stride: 16}, info)

	_, err = show.ImageInfoOf(nil)
	assert.Error(t, err)
}

func TestSetImage_GrayAndOffsetBounds(t *testing.T) {
	var s show.WindowState
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.Pix = []byte{7, 9}
	require.NoError(t, s.SetImage("g", gray))
	assert.Equal(t, []byte{7, 9}, s.Image().Data())

	sub := solidNRGBA(4, 4, color.NRGBA{G: 200, A: 255}).SubImage(image.Rect(1, 1, 3, 3))
	require.NoError(t, s.SetImage("sub", sub))
	assert.Equal(t, image.Rect(0, 0, 2, 2), s.Image().AsImage().Bounds())
	assert.Equal(t, byte(200), s.Image().Data()[1])
}

func TestSetImage_RawImage(t *testing.T) {
	var s show.WindowState
	raw := &show.RawImage{
		Info: show.ImageInfo{Format: show.Bgr8, Width: 2, Height: 1},
		Data: []byte{1, 2, 3, 4, 5, 6},
	}
	require.NoError(t, s.SetImage("raw", raw))
	img := s.Image()
	assert.Equal(t, 6, img.Info().Stride)
	assert.Equal(t, color.NRGBA{R: 3, G: 2, B: 1, A: 255}, img.AsImage().At(0, 0))

	raw.Data[0] = 99
	assert.Equal(t, byte(1), img.Data()[0], "display image owns a copy")
}

func TestSetImage_RawShortBufferIsDecodeError(t *testing.T) {
	var s show.WindowState
	raw := &show.RawImage{
		Info: show.ImageInfo{Format: show.Rgba8, Width: 2, Height: 2},
		Data: make([]byte, 10),
	}
	err := s.SetImage("raw", raw)

	var decodeErr *show.DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Contains(t, err.Error(), "buffer holds 10 bytes")
	assert.Nil(t, s.Image())
}

func TestSetImage_RawBadStride(t *testing.T) {
	tests := []struct {
		name   string
		info   show.ImageInfo
		errMsg string
	}{
		{
			name:   "shorter than a row",
			info:   show.ImageInfo{Format: show.Rgb8, Width: 4, Height: 1, Stride: 8},
			errMsg: "stride 8 shorter",
		},
		{
			name:   "overflows buffer size",
			info:   show.ImageInfo{Format: show.Rgba8, Width: 1, Height: 3, Stride: math.MaxInt64/2 + 1},
			errMsg: "too large",
		},
		{
			name:   "exceeds size limit",
			info:   show.ImageInfo{Format: show.Mono8, Width: 1, Height: 4, Stride: math.MaxInt32 / 2},
			errMsg: "too large",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s show.WindowState
			var err error
			require.NotPanics(t, func() {
				err = s.SetImage("raw", &show.RawImage{Info: tt.info, Data: make([]byte, 16)})
			})
			var decodeErr *show.DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

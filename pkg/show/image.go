package show

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
)

type PixelFormat int

const (
	Mono8 PixelFormat = iota
	MonoAlpha8
	Rgb8
	Rgba8
	Bgr8
	Bgra8
)

func (f PixelFormat) String() string {
	switch f {
	case Mono8:
		return "Mono8"
	case MonoAlpha8:
		return "MonoAlpha8"
	case Rgb8:
		return "Rgb8"
	case Rgba8:
		return "Rgba8"
	case Bgr8:
		return "Bgr8"
	case Bgra8:
		return "Bgra8"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// BytesPerPixel returns 0 for unknown formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case Mono8:
		return 1
	case MonoAlpha8:
		return 2
	case Rgb8, Bgr8:
		return 3
	case Rgba8, Bgra8:
		return 4
	default:
		return 0
	}
}

// ImageInfo describes the layout of a pixel buffer. Alpha is not
// premultiplied: an *image.RGBA source with translucent pixels is stored
// unpremultiplied, so its bytes differ from the source's Pix. Opaque
// *image.RGBA and every *image.NRGBA keep their bytes unchanged.
type ImageInfo struct {
	Format PixelFormat
	Width  int
	Height int
	Stride int
}

func (i ImageInfo) String() string {
	return fmt.Sprintf("ImageInfo{Format: %s, Width: %d, Height: %d, Stride: %d}", i.Format, i.Width, i.Height, i.Stride)
}

// byteSize is the minimal buffer length holding the image.
func (i ImageInfo) byteSize() (int, error) {
	bpp := i.Format.BytesPerPixel()
	if bpp == 0 {
		return 0, fmt.Errorf("unknown pixel format %v", i.Format)
	}
	if i.Width <= 0 || i.Height <= 0 {
		return 0, fmt.Errorf("empty image %dx%d", i.Width, i.Height)
	}
	if i.Width > math.MaxInt32/bpp || i.Height > math.MaxInt32/i.Width/bpp {
		return 0, fmt.Errorf("image too large %dx%d", i.Width, i.Height)
	}
	if i.Stride < i.Width*bpp {
		return 0, fmt.Errorf("stride %d shorter than row of %d bytes", i.Stride, i.Width*bpp)
	}
	if i.Height > 1 && i.Stride > (math.MaxInt32-i.Width*bpp)/(i.Height-1) {
		return 0, fmt.Errorf("stride %d too large for %d rows", i.Stride, i.Height)
	}
	return i.Stride*(i.Height-1) + i.Width*bpp, nil
}

// RawImage is a caller-provided pixel buffer. It implements image.Image
// so it can be passed to SetImage like any decoded image.
type RawImage struct {
	Info ImageInfo
	Data []byte
}

func (r *RawImage) ColorModel() color.Model {
	switch r.Info.Format {
	case Mono8:
		return color.GrayModel
	default:
		return color.NRGBAModel
	}
}

func (r *RawImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Info.Width, r.Info.Height)
}

func (r *RawImage) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(r.Bounds())) {
		return color.NRGBA{}
	}
	bpp := r.Info.Format.BytesPerPixel()
	stride := r.Info.Stride
	if stride == 0 {
		stride = r.Info.Width * bpp
	}
	off := y*stride + x*bpp
	if bpp == 0 || off < 0 || off+bpp > len(r.Data) {
		return color.NRGBA{}
	}
	p := r.Data[off:]
	switch r.Info.Format {
	case Mono8:
		return color.Gray{Y: p[0]}
	case MonoAlpha8:
		return color.NRGBA{R: p[0], G: p[0], B: p[0], A: p[1]}
	case Rgb8:
		return color.NRGBA{R: p[0], G: p[1], B: p[2], A: 0xff}
	case Rgba8:
		return color.NRGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
	case Bgr8:
		return color.NRGBA{R: p[2], G: p[1], B: p[0], A: 0xff}
	case Bgra8:
		return color.NRGBA{R: p[2], G: p[1], B: p[0], A: p[3]}
	}
	return color.NRGBA{}
}

// DisplayImage is the image currently shown by a window: pixel buffer,
// metadata and name. It is never mutated after it has been published.
type DisplayImage struct {
	data []byte
	info ImageInfo
	name string
	view image.Image
}

func (d *DisplayImage) Name() string {
	return d.name
}

func (d *DisplayImage) Info() ImageInfo {
	return d.info
}

// Data returns the pixel buffer. It is shared with the renderer and must
// not be modified.
func (d *DisplayImage) Data() []byte {
	return d.data
}

// AsImage returns an image.Image over the pixel buffer.
func (d *DisplayImage) AsImage() image.Image {
	return d.view
}

// ImageInfoOf reports the layout img would be displayed with.
func ImageInfoOf(img image.Image) (ImageInfo, error) {
	if img == nil {
		return ImageInfo{}, errors.New("nil image")
	}
	b := img.Bounds()
	info := ImageInfo{Format: Rgba8, Width: b.Dx(), Height: b.Dy()}
	switch src := img.(type) {
	case *RawImage:
		info = src.Info
	case *image.Gray:
		info.Format = Mono8
	}
	if info.Stride == 0 {
		info.Stride = info.Width * info.Format.BytesPerPixel()
	}
	if _, err := info.byteSize(); err != nil {
		return ImageInfo{}, err
	}
	return info, nil
}

func newDisplayImage(name string, img image.Image) (*DisplayImage, error) {
	info, err := ImageInfoOf(img)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if raw, ok := img.(*RawImage); ok {
		return rawDisplayImage(name, info, raw.Data)
	}

	b := img.Bounds()
	if info.Format == Mono8 {
		gray := image.NewGray(image.Rect(0, 0, info.Width, info.Height))
		xdraw.Draw(gray, gray.Bounds(), img, b.Min, xdraw.Src)
		return &DisplayImage{data: gray.Pix, info: info, name: name, view: gray}, nil
	}
	nrgba := image.NewNRGBA(image.Rect(0, 0, info.Width, info.Height))
	xdraw.Draw(nrgba, nrgba.Bounds(), img, b.Min, xdraw.Src)
	return &DisplayImage{data: nrgba.Pix, info: info, name: name, view: nrgba}, nil
}

func rawDisplayImage(name string, info ImageInfo, src []byte) (*DisplayImage, error) {
	size, err := info.byteSize()
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if len(src) < size {
		return nil, &DecodeError{Err: fmt.Errorf("buffer holds %d bytes, %v needs %d", len(src), info, size)}
	}
	data := make([]byte, size)
	copy(data, src)
	owned := &RawImage{Info: info, Data: data}
	return &DisplayImage{data: data, info: info, name: name, view: owned}, nil
}

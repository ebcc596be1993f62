package platform

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// Surface is the back buffer of a window. Backends get its RGBA pixels
// through a PlatformImageWrapper.
type Surface struct {
	img        *image.RGBA
	background color.RGBA
}

// NewSurface creates a surface of the given size. Non-positive sizes
// produce an empty surface.
func NewSurface(width, height int, background color.RGBA) *Surface {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Surface{
		img:        image.NewRGBA(image.Rect(0, 0, width, height)),
		background: background,
	}
}

func (s *Surface) Bounds() image.Rectangle {
	return s.img.Bounds()
}

func (s *Surface) RGBA() *image.RGBA {
	return s.img
}

// Clear fills the surface with its background colour.
func (s *Surface) Clear() {
	xdraw.Draw(s.img, s.img.Bounds(), image.NewUniform(s.background), image.Point{}, xdraw.Src)
}

// Compose clears the surface and draws src scaled to fit, centred, with
// its aspect ratio preserved. It returns the rectangle the image landed in.
func (s *Surface) Compose(src image.Image) image.Rectangle {
	s.Clear()
	if src == nil {
		return image.Rectangle{}
	}
	dst := FitRect(src.Bounds().Size(), s.img.Bounds())
	if dst.Empty() {
		return dst
	}
	if dst.Size() == src.Bounds().Size() {
		xdraw.Draw(s.img, dst, src, src.Bounds().Min, xdraw.Over)
		return dst
	}
	xdraw.ApproxBiLinear.Scale(s.img, dst, src, src.Bounds(), xdraw.Over, nil)
	return dst
}

// FitRect returns the largest rectangle with the aspect ratio of size
// that fits into bounds, centred in it.
func FitRect(size image.Point, bounds image.Rectangle) image.Rectangle {
	bw, bh := bounds.Dx(), bounds.Dy()
	if size.X <= 0 || size.Y <= 0 || bw <= 0 || bh <= 0 {
		return image.Rectangle{}
	}
	w, h := bw, size.Y*bw/size.X
	if h > bh {
		w, h = size.X*bh/size.Y, bh
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	x := bounds.Min.X + (bw-w)/2
	y := bounds.Min.Y + (bh-h)/2
	return image.Rect(x, y, x+w, y+h)
}

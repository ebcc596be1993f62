package show

import (
	"image"
	"sync/atomic"
)

// WindowState holds the content displayed by one window. The image is
// swapped as a whole, so readers never observe a partial update.
type WindowState struct {
	image atomic.Pointer[DisplayImage]
	dirty atomic.Bool
}

// SetImage converts img into a displayable buffer and publishes it under
// name. On error the previous image stays in place.
func (s *WindowState) SetImage(name string, img image.Image) error {
	display, err := newDisplayImage(name, img)
	if err != nil {
		return err
	}
	s.image.Store(display)
	s.requestRedraw()
	return nil
}

// Image returns nil until the first successful SetImage.
func (s *WindowState) Image() *DisplayImage {
	return s.image.Load()
}

func (s *WindowState) requestRedraw() {
	s.dirty.Store(true)
}

// takeRedraw reports and clears a pending redraw request.
func (s *WindowState) takeRedraw() bool {
	return s.dirty.Swap(false)
}

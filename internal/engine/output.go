package engine

import (
	"fmt"
	"image"
	"sync"
)

// OutputSurface receives the engine's rendered pixels. The controller is the
// only writer; implementations can be an in-memory buffer, an encoder, or a
// native window.
type OutputSurface interface {
	// Blit replaces the surface contents with an RGBA buffer of length
	// w*h*4.
	Blit(pix []byte, w, h int) error
}

// MemorySurface is an OutputSurface that keeps the last blitted frame. The
// control server reads it to serve frame snapshots.
type MemorySurface struct {
	mu   sync.RWMutex
	pix  []byte
	w, h int
}

// NewMemorySurface returns an empty in-memory surface.
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{}
}

// Blit implements OutputSurface. The buffer is copied, not retained.
func (s *MemorySurface) Blit(pix []byte, w, h int) error {
	if len(pix) != w*h*4 {
		return fmt.Errorf("blit: buffer length %d does not match %dx%d RGBA", len(pix), w, h)
	}
	s.mu.Lock()
	if cap(s.pix) < len(pix) {
		s.pix = make([]byte, len(pix))
	}
	s.pix = s.pix[:len(pix)]
	copy(s.pix, pix)
	s.w, s.h = w, h
	s.mu.Unlock()
	return nil
}

// Image returns a copy of the last frame as an image, or false if nothing
// has been blitted yet.
func (s *MemorySurface) Image() (*image.RGBA, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.w == 0 || s.h == 0 {
		return nil, false
	}
	img := image.NewRGBA(image.Rect(0, 0, s.w, s.h))
	copy(img.Pix, s.pix)
	return img, true
}

// Size returns the dimensions of the last blitted frame.
func (s *MemorySurface) Size() (w, h int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w, s.h
}

// discardSurface drops every frame. Used when no output is wired.
type discardSurface struct{}

func (discardSurface) Blit(pix []byte, w, h int) error { return nil }

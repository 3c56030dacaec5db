package surface

import (
	"image"
	"image/draw"
	"sync"
)

type Size struct {
	Width  int
	Height int
}

func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Surface is the drawable target a decoded frame is painted onto. The UI
// layer owns the concrete surface; the stream registry only holds the
// association, so every operation must stay safe after the owner has moved on.
type Surface interface {
	DrawImage(img image.Image)
	NativeSize() Size
	SetNativeSize(size Size)
	DisplaySize() Size
}

// Snapshotter is implemented by surfaces that can hand back their last
// painted frame, used by the debug snapshot endpoint.
type Snapshotter interface {
	Snapshot() image.Image
}

// ImageSurface keeps the most recently painted frame in an in-memory RGBA
// buffer. It backs the debug API and doubles as the test double's base.
type ImageSurface struct {
	mu          sync.Mutex
	buffer      *image.RGBA
	nativeSize  Size
	displaySize Size
}

func NewImageSurface(displaySize Size) *ImageSurface {
	return &ImageSurface{
		displaySize: displaySize,
	}
}

func (s *ImageSurface) DrawImage(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bounds := img.Bounds()
	if s.buffer == nil || s.buffer.Bounds() != bounds {
		s.buffer = image.NewRGBA(bounds)
	}
	draw.Draw(s.buffer, bounds, img, bounds.Min, draw.Src)
}

func (s *ImageSurface) NativeSize() Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nativeSize
}

func (s *ImageSurface) SetNativeSize(size Size) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nativeSize = size
}

func (s *ImageSurface) DisplaySize() Size {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.displaySize.Empty() {
		return s.nativeSize
	}
	return s.displaySize
}

func (s *ImageSurface) SetDisplaySize(size Size) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.displaySize = size
}

func (s *ImageSurface) Snapshot() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffer == nil {
		return nil
	}
	clone := image.NewRGBA(s.buffer.Bounds())
	copy(clone.Pix, s.buffer.Pix)
	return clone
}

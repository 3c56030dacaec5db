package surface

import (
	"image"
	"image/color"
	"testing"
)

func TestImageSurfaceDrawAndSnapshot(t *testing.T) {
	s := NewImageSurface(Size{Width: 320, Height: 240})

	if s.Snapshot() != nil {
		t.Error("snapshot of an unpainted surface must be nil")
	}

	frame := image.NewRGBA(image.Rect(0, 0, 4, 4))
	frame.SetRGBA(1, 1, color.RGBA{R: 200, A: 255})
	s.DrawImage(frame)

	snap := s.Snapshot()
	if snap == nil {
		t.Fatal("expected snapshot after paint")
	}
	r, _, _, _ := snap.At(1, 1).RGBA()
	if r>>8 != 200 {
		t.Errorf("snapshot pixel mismatch: got %d", r>>8)
	}

	// snapshot must be detached from later paints
	blank := image.NewRGBA(image.Rect(0, 0, 4, 4))
	s.DrawImage(blank)
	r, _, _, _ = snap.At(1, 1).RGBA()
	if r>>8 != 200 {
		t.Error("snapshot must not alias the live buffer")
	}
}

func TestImageSurfaceSizes(t *testing.T) {
	s := NewImageSurface(Size{})
	s.SetNativeSize(Size{Width: 1280, Height: 720})

	if got := s.DisplaySize(); got != (Size{Width: 1280, Height: 720}) {
		t.Errorf("empty display size should fall back to native, got %+v", got)
	}

	s.SetDisplaySize(Size{Width: 640, Height: 360})
	if got := s.DisplaySize(); got != (Size{Width: 640, Height: 360}) {
		t.Errorf("unexpected display size %+v", got)
	}
}

func TestLabelScale(t *testing.T) {
	cases := []struct {
		width int
		want  int
	}{
		{width: 320, want: 1},
		{width: 640, want: 1},
		{width: 1280, want: 2},
		{width: 3840, want: 4},
		{width: 10000, want: 4},
	}
	for _, c := range cases {
		if got := LabelScale(c.width); got != c.want {
			t.Errorf("LabelScale(%d) = %d, want %d", c.width, got, c.want)
		}
	}
}

func TestDrawLabelPaintsPixels(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 200, 60))
	DrawLabel(dst, []string{"medium 640x480"}, 1)

	painted := false
	for y := 0; y < 60 && !painted; y++ {
		for x := 0; x < 200; x++ {
			if dst.RGBAAt(x, y).A != 0 {
				painted = true
				break
			}
		}
	}
	if !painted {
		t.Error("expected overlay text to paint at least one pixel")
	}
}

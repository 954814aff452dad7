package convert

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/user/termvis/pkg/mocks"
	"github.com/user/termvis/pkg/ports"
	"github.com/user/termvis/pkg/raster"
)

func solidFrame(w, h int, c color.RGBA) *ports.Frame {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return &ports.Frame{Image: img, Format: ports.PixelFormatRGBA}
}

func TestConvert_SameSizeCopiesPixels(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for i := range src.Pix {
		src.Pix[i] = byte(i + 1)
	}
	for i := 3; i < len(src.Pix); i += 4 {
		src.Pix[i] = 255
	}
	c := New(nil, FilterLanczos)
	defer c.Close()

	out, err := c.Convert(&ports.Frame{Image: src}, 3, 2)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if out.Stride != 32 {
		t.Errorf("expected stride aligned to 32, got %d", out.Stride)
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 12; x++ {
			if got, want := out.Pix[y*out.Stride+x], src.Pix[y*src.Stride+x]; got != want {
				t.Fatalf("pixel byte (%d,%d): expected %d, got %d", y, x, want, got)
			}
		}
	}
	if out.Ownership() != raster.Borrowed {
		t.Errorf("expected a borrowed view, got %s", out.Ownership())
	}
}

func TestConvert_ScalesSolidColour(t *testing.T) {
	want := color.RGBA{R: 200, G: 100, B: 50, A: 255}
	c := New(nil, FilterLanczos)
	defer c.Close()

	for _, dims := range [][2]int{{20, 10}, {5, 3}} {
		out, err := c.Convert(solidFrame(10, 6, want), dims[0], dims[1])
		if err != nil {
			t.Fatalf("Convert failed: %v", err)
		}
		if out.Width != dims[0] || out.Height != dims[1] {
			t.Fatalf("expected %dx%d, got %dx%d", dims[0], dims[1], out.Width, out.Height)
		}
		got := out.Image().RGBAAt(dims[0]/2, dims[1]/2)
		if diff(got.R, want.R) > 2 || diff(got.G, want.G) > 2 || diff(got.B, want.B) > 2 {
			t.Errorf("%v: expected about %v, got %v", dims, want, got)
		}
	}
}

func TestConvert_YCbCrSource(t *testing.T) {
	img := image.NewYCbCr(image.Rect(0, 0, 8, 8), image.YCbCrSubsampleRatio420)
	for i := range img.Y {
		img.Y[i] = 235
	}
	for i := range img.Cb {
		img.Cb[i] = 128
		img.Cr[i] = 128
	}
	frame := &ports.Frame{Image: img}
	c := New(nil, FilterBilinear)
	defer c.Close()

	out, err := c.Convert(frame, 4, 4)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if c.Context().Key.SrcFormat != ports.PixelFormatYUV420P {
		t.Errorf("expected yuv420p source format, got %s", c.Context().Key.SrcFormat)
	}
	px := out.Image().RGBAAt(1, 1)
	if px.A != 255 || px.R < 225 {
		t.Errorf("expected near-white opaque pixel, got %v", px)
	}
}

func TestConvert_ContextCache(t *testing.T) {
	c := New(nil, FilterLanczos)
	defer c.Close()
	frame := solidFrame(8, 8, color.RGBA{A: 255})

	if _, err := c.Convert(frame, 4, 4); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	first := c.Context()
	if _, err := c.Convert(frame, 4, 4); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if c.Context() != first || c.Builds() != 1 {
		t.Errorf("expected context reuse, builds=%d", c.Builds())
	}

	if _, err := c.Convert(frame, 6, 4); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if c.Builds() != 2 {
		t.Errorf("expected rebuild on new destination size, builds=%d", c.Builds())
	}

	c.Invalidate()
	if _, err := c.Convert(frame, 6, 4); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if c.Builds() != 3 {
		t.Errorf("expected rebuild after Invalidate, builds=%d", c.Builds())
	}
}

func TestConvert_RetiresPreviousOutput(t *testing.T) {
	alloc := mocks.NewAllocator()
	c := New(alloc, FilterNearest)
	frame := solidFrame(4, 4, color.RGBA{A: 255})

	for i := 0; i < 3; i++ {
		if _, err := c.Convert(frame, 2, 2); err != nil {
			t.Fatalf("Convert failed: %v", err)
		}
	}
	if alloc.Allocs != 3 || alloc.Frees != 2 {
		t.Errorf("expected 3 allocs and 2 frees, got %d and %d", alloc.Allocs, alloc.Frees)
	}
	c.Close()
	if alloc.Live() != 0 || alloc.DoubleFrees != 0 {
		t.Errorf("expected no live buffers and no double frees, got %d and %d", alloc.Live(), alloc.DoubleFrees)
	}
}

func TestConvert_Errors(t *testing.T) {
	c := New(nil, FilterLanczos)
	defer c.Close()

	if _, err := c.Convert(nil, 1, 1); !errors.Is(err, ErrNoFrame) {
		t.Errorf("expected ErrNoFrame, got %v", err)
	}
	if _, err := c.Convert(solidFrame(2, 2, color.RGBA{}), 0, 2); !errors.Is(err, ports.ErrDecode) {
		t.Errorf("expected ErrDecode for zero width, got %v", err)
	}

	alloc := mocks.NewAllocator()
	alloc.Limit = 1
	oom := New(alloc, FilterLanczos)
	defer oom.Close()
	if _, err := oom.Convert(solidFrame(2, 2, color.RGBA{}), 2, 2); err != nil {
		t.Fatalf("first Convert failed: %v", err)
	}
	if _, err := oom.Convert(solidFrame(2, 2, color.RGBA{}), 2, 2); !errors.Is(err, ports.ErrOutOfMemory) {
		t.Errorf("expected ErrOutOfMemory, got %v", err)
	}
}

func TestParseFilter(t *testing.T) {
	if f, err := ParseFilter(""); err != nil || f != FilterLanczos {
		t.Errorf("expected lanczos default, got %q (%v)", f, err)
	}
	if f, err := ParseFilter("catmullrom"); err != nil || f != FilterCatmullRom {
		t.Errorf("expected catmullrom, got %q (%v)", f, err)
	}
	if _, err := ParseFilter("sinc"); !errors.Is(err, ErrUnknownFilter) {
		t.Errorf("expected ErrUnknownFilter, got %v", err)
	}
}

func diff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

package visual

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/user/termvis/pkg/mocks"
	"github.com/user/termvis/pkg/ports"
	"github.com/user/termvis/pkg/raster"
)

func TestRotate_WithoutRaster(t *testing.T) {
	v := New(1, Options{})
	if err := v.Rotate(1); !errors.Is(err, ports.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRotate_BoundingSquareAcrossFullTurn(t *testing.T) {
	sc := mocks.NewSurfaceContext(40, 40, 1)
	v, err := FromRaster(sc, pattern(2, 16), 2, 16, 4, RGBA, Options{})
	if err != nil {
		t.Fatalf("FromRaster failed: %v", err)
	}
	defer v.Destroy()

	theta := 0.7
	if err := v.Rotate(0); err != nil {
		t.Fatalf("Rotate(0) failed: %v", err)
	}
	w, h := v.Dims()
	if w != 4 || h != 4 {
		t.Fatalf("expected 4x4 bounding square, got %dx%d", w, h)
	}
	if err := v.Rotate(theta); err != nil {
		t.Fatalf("Rotate(theta) failed: %v", err)
	}
	if err := v.Rotate(2*math.Pi - theta); err != nil {
		t.Fatalf("Rotate(2pi-theta) failed: %v", err)
	}
	if w2, h2 := v.Dims(); w2 != w || h2 != h {
		t.Errorf("expected %dx%d after a full turn, got %dx%d", w, h, w2, h2)
	}
	if own, _ := v.Ownership(); own != raster.Owned {
		t.Errorf("expected rotated raster to be owned, got %s", own)
	}
	if v.Stride() != 16 {
		t.Errorf("expected stride 16, got %d", v.Stride())
	}
}

func TestRotate_ZeroKeepsSquarePixels(t *testing.T) {
	pix := pattern(3, 12)
	v, err := FromRaster(nil, pix, 3, 12, 3, RGBA, Options{})
	if err != nil {
		t.Fatalf("FromRaster failed: %v", err)
	}
	defer v.Destroy()

	if err := v.Rotate(0); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if !bytes.Equal(v.Image().Pix, pix) {
		t.Error("rotation by zero changed the raster")
	}
}

func TestRotate_QuarterTurnClockwise(t *testing.T) {
	// 2x2 raster: a b / c d
	a := []byte{1, 1, 1, 255}
	b := []byte{2, 2, 2, 255}
	c := []byte{3, 3, 3, 255}
	d := []byte{4, 4, 4, 255}
	pix := bytes.Join([][]byte{a, b, c, d}, nil)

	v, err := FromRaster(nil, pix, 2, 8, 2, RGBA, Options{})
	if err != nil {
		t.Fatalf("FromRaster failed: %v", err)
	}
	defer v.Destroy()

	if err := v.Rotate(math.Pi / 2); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	// Clockwise: c a / d b
	want := bytes.Join([][]byte{c, a, d, b}, nil)
	if got := v.Image().Pix; !bytes.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestRotate_ReplacesOwnedSurface(t *testing.T) {
	sc := mocks.NewSurfaceContext(40, 40, 2)
	v, err := FromRaster(sc, pattern(2, 24), 2, 24, 6, RGBA, Options{})
	if err != nil {
		t.Fatalf("FromRaster failed: %v", err)
	}
	defer v.Destroy()

	first := sc.LastSurface()
	if err := v.Rotate(1.0); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if first.Destroyed != 1 {
		t.Errorf("expected the old surface destroyed, got %d", first.Destroyed)
	}
	second := sc.LastSurface()
	if second == first || second.Rows != 3 || second.Cols != 6 {
		t.Errorf("expected a new 3x6 surface, got %dx%d", second.Rows, second.Cols)
	}
	if _, err := v.Render(0, 0, -1, -1); err != nil {
		t.Errorf("Render after rotate failed: %v", err)
	}
}

func TestRotate_AllocationFailureKeepsState(t *testing.T) {
	sc := mocks.NewSurfaceContext(40, 40, 1)
	alloc := mocks.NewAllocator()
	alloc.Limit = 1
	v, err := FromRaster(sc, pattern(2, 24), 2, 24, 6, RGBA, Options{Allocator: alloc})
	if err != nil {
		t.Fatalf("FromRaster failed: %v", err)
	}
	defer v.Destroy()

	first := sc.LastSurface()
	if err := v.Rotate(1.0); !errors.Is(err, ports.ErrOutOfMemory) {
		t.Fatalf("expected ErrOutOfMemory, got %v", err)
	}
	if w, h := v.Dims(); w != 6 || h != 2 {
		t.Errorf("expected dims 6x2 after failed rotate, got %dx%d", w, h)
	}
	if v.Surface() != ports.Surface(first) {
		t.Error("surface was replaced by a failed rotate")
	}
	if first.Destroyed != 0 {
		t.Errorf("expected the surface kept, destroyed %d times", first.Destroyed)
	}
	if len(sc.Surfaces) != 1 {
		t.Errorf("expected no new surface, got %d", len(sc.Surfaces))
	}
	if alloc.Live() != 1 {
		t.Errorf("expected only the original raster live, got %d", alloc.Live())
	}
	if _, err := v.Render(0, 0, -1, -1); err != nil {
		t.Errorf("Render after failed rotate: %v", err)
	}
}

func TestRotate_ResizesBorrowedSurface(t *testing.T) {
	sc := mocks.NewSurfaceContext(30, 30, 1)
	surface := mocks.NewSurface(2, 4)
	backend := mocks.NewBackend()
	backend.Sources["clip.mp4"] = mocks.NewSource(1, 4, 2, 1, centiseconds)

	v, err := OpenOnSurface(sc, surface, backend, "clip.mp4", Options{})
	if err != nil {
		t.Fatalf("OpenOnSurface failed: %v", err)
	}
	defer v.Destroy()
	if err := v.Decode(); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if err := v.Rotate(0.5); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if len(surface.Resizes) != 1 || surface.Resizes[0] != [2]int{4, 4} {
		t.Errorf("expected one resize to 4x4, got %v", surface.Resizes)
	}
	if surface.Destroyed != 0 {
		t.Error("borrowed surface was destroyed")
	}
}

package visual

import (
	"bytes"
	"errors"
	"testing"

	"github.com/user/termvis/pkg/mocks"
	"github.com/user/termvis/pkg/ports"
	"github.com/user/termvis/pkg/raster"
)

func pattern(rows, stride int) []byte {
	pix := make([]byte, rows*stride)
	for i := range pix {
		pix[i] = byte(i*7 + 3)
	}
	return pix
}

func TestNew_DefaultTimescale(t *testing.T) {
	v := New(0, Options{})
	defer v.Destroy()
	if v.Timescale() != 1.0 {
		t.Errorf("expected timescale 1.0, got %f", v.Timescale())
	}
	if v.Image() != nil || v.Surface() != nil {
		t.Error("expected an empty visual")
	}
	if err := v.Decode(); !errors.Is(err, ports.ErrDecode) {
		t.Errorf("expected ErrDecode for a visual without source, got %v", err)
	}
}

func TestFromRaster_RenderRoundTrip(t *testing.T) {
	cases := []struct {
		rows, stride, cols, mult int
	}{
		{1, 4, 1, 1},
		{3, 12, 3, 1},
		{5, 32, 6, 2},
		{8, 64, 16, 2},
	}
	for _, c := range cases {
		sc := mocks.NewSurfaceContext(50, 80, c.mult)
		pix := pattern(c.rows, c.stride)

		v, err := FromRaster(sc, pix, c.rows, c.stride, c.cols, RGBA, Options{})
		if err != nil {
			t.Fatalf("FromRaster failed: %v", err)
		}
		surface := sc.LastSurface()
		if surface == nil {
			t.Fatal("expected a surface to be created")
		}
		wantRows := (c.rows + c.mult - 1) / c.mult
		if surface.Rows != wantRows || surface.Cols != c.cols {
			t.Errorf("expected %dx%d surface, got %dx%d", wantRows, c.cols, surface.Rows, surface.Cols)
		}

		if _, err := v.Render(0, 0, -1, -1); err != nil {
			t.Fatalf("Render failed: %v", err)
		}
		if surface.BlitCount() != 1 {
			t.Fatalf("expected 1 blit, got %d", surface.BlitCount())
		}
		blit := surface.Blits[0]
		if blit.LenRows != c.rows || blit.LenCols != c.cols || blit.Row0 != 0 || blit.Col0 != 0 {
			t.Errorf("expected full %dx%d blit, got %+v", c.cols, c.rows, blit)
		}
		for y := 0; y < c.rows; y++ {
			got := blit.Pixels[y*c.cols*4 : (y+1)*c.cols*4]
			want := pix[y*c.stride : y*c.stride+c.cols*4]
			if !bytes.Equal(got, want) {
				t.Fatalf("row %d differs after round trip", y)
			}
		}
		v.Destroy()
	}
}

func TestFromRaster_BGRA(t *testing.T) {
	pix := []byte{10, 20, 30, 40}
	v, err := FromRaster(nil, pix, 1, 4, 1, BGRA, Options{})
	if err != nil {
		t.Fatalf("FromRaster failed: %v", err)
	}
	defer v.Destroy()

	px := v.Image().Pix[:4]
	if !bytes.Equal(px, []byte{30, 20, 10, 40}) {
		t.Errorf("expected swapped pixel, got %v", px)
	}
	if v.Surface() != nil {
		t.Error("expected no surface without a context")
	}
}

func TestFromRaster_InvalidArguments(t *testing.T) {
	if _, err := FromRaster(nil, make([]byte, 12), 2, 6, 1, RGBA, Options{}); !errors.Is(err, ports.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for stride 6, got %v", err)
	}
	if _, err := FromRaster(nil, make([]byte, 8), 2, 8, 1, RGBA, Options{}); !errors.Is(err, ports.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for short buffer, got %v", err)
	}
	if _, err := FromRaster(nil, make([]byte, 16), 2, 8, 3, RGBA, Options{}); !errors.Is(err, ports.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for narrow stride, got %v", err)
	}
}

func TestRender_Bounds(t *testing.T) {
	sc := mocks.NewSurfaceContext(20, 20, 1)
	v, err := FromRaster(sc, pattern(4, 24), 4, 24, 6, RGBA, Options{})
	if err != nil {
		t.Fatalf("FromRaster failed: %v", err)
	}
	defer v.Destroy()

	bad := []struct {
		name                   string
		row0, col0, rows, cols int
	}{
		{"negative row", -1, 0, -1, -1},
		{"negative col", 0, -1, -1, -1},
		{"length below -1", 0, 0, -2, 1},
		{"row origin past end", 4, 0, 1, 1},
		{"col origin past end", 0, 6, 1, 1},
		{"rows overflow", 2, 0, 3, 1},
		{"cols overflow", 0, 3, 1, 4},
	}
	for _, b := range bad {
		if _, err := v.Render(b.row0, b.col0, b.rows, b.cols); !errors.Is(err, ports.ErrInvalidArgument) {
			t.Errorf("%s: expected ErrInvalidArgument, got %v", b.name, err)
		}
	}

	surface := sc.LastSurface()
	if n, err := v.Render(1, 1, 0, 3); err != nil || n != 0 {
		t.Errorf("expected trivial success for zero rows, got %d, %v", n, err)
	}
	if n, err := v.Render(1, 1, 2, 0); err != nil || n != 0 {
		t.Errorf("expected trivial success for zero cols, got %d, %v", n, err)
	}
	if surface.BlitCount() != 0 {
		t.Errorf("zero-area render touched the surface")
	}

	if _, err := v.Render(1, 2, -1, 2); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	blit := surface.Blits[0]
	if blit.Row0 != 1 || blit.Col0 != 2 || blit.LenRows != 3 || blit.LenCols != 2 {
		t.Errorf("unexpected blit region %+v", blit)
	}
}

func TestRender_WithoutRaster(t *testing.T) {
	v := New(1, Options{})
	if _, err := v.Render(0, 0, -1, -1); !errors.Is(err, ports.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestDestroy_ReleasesOwnedRaster(t *testing.T) {
	alloc := mocks.NewAllocator()
	sc := mocks.NewSurfaceContext(10, 10, 1)
	v, err := FromRaster(sc, pattern(2, 8), 2, 8, 2, RGBA, Options{Allocator: alloc})
	if err != nil {
		t.Fatalf("FromRaster failed: %v", err)
	}
	if own, ok := v.Ownership(); !ok || own != raster.Owned {
		t.Errorf("expected owned raster, got %s", own)
	}
	if err := v.Destroy(); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if err := v.Destroy(); err != nil {
		t.Fatalf("second Destroy failed: %v", err)
	}
	if alloc.Allocs != 1 || alloc.Frees != 1 || alloc.DoubleFrees != 0 {
		t.Errorf("expected 1 alloc, 1 free, 0 double frees; got %d, %d, %d", alloc.Allocs, alloc.Frees, alloc.DoubleFrees)
	}
	if sc.LastSurface().Destroyed != 1 {
		t.Errorf("expected owned surface destroyed once, got %d", sc.LastSurface().Destroyed)
	}

	var nilVisual *Visual
	if err := nilVisual.Destroy(); err != nil {
		t.Errorf("Destroy on nil visual failed: %v", err)
	}
}

func TestFromSurface(t *testing.T) {
	surface := mocks.NewSurface(3, 4)
	for i := range surface.Cells {
		surface.Cells[i] = byte(i)
	}
	v, err := FromSurface(nil, surface, 1, 1, -1, 2, Options{})
	if err != nil {
		t.Fatalf("FromSurface failed: %v", err)
	}
	defer v.Destroy()

	w, h := v.Dims()
	if w != 2 || h != 2 {
		t.Fatalf("expected 2x2, got %dx%d", w, h)
	}
	img := v.Image()
	want := surface.Cells[(1*4+1)*4 : (1*4+3)*4]
	if !bytes.Equal(img.Pix[:8], want) {
		t.Errorf("expected %v, got %v", want, img.Pix[:8])
	}

	if _, err := FromSurface(nil, surface, 3, 0, -1, -1, Options{}); !errors.Is(err, ports.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for origin past end, got %v", err)
	}
	if _, err := FromSurface(nil, surface, 0, 0, 4, 1, Options{}); !errors.Is(err, ports.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for overflow, got %v", err)
	}
}

func TestParseScale(t *testing.T) {
	for name, want := range map[string]Scale{"none": ScaleNone, "scale": ScaleScale, "stretch": ScaleStretch} {
		got, err := ParseScale(name)
		if err != nil || got != want {
			t.Errorf("ParseScale(%q) = %s, %v", name, got, err)
		}
		if got.String() != name {
			t.Errorf("expected %q, got %q", name, got.String())
		}
	}
	if _, err := ParseScale("zoom"); !errors.Is(err, ErrUnknownScale) {
		t.Errorf("expected ErrUnknownScale, got %v", err)
	}
}

package canvassurface

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/termvis/pkg/ports"
)

func solid(w, h int, c color.RGBA) ([]byte, int) {
	stride := w * 4
	pix := make([]byte, h*stride)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
	return pix, stride
}

func TestNewValidates(t *testing.T) {
	if _, err := New(0, 10, 2); !errors.Is(err, ports.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestBlitAndReadBack(t *testing.T) {
	c, err := New(4, 8, 2)
	if err != nil {
		t.Fatal(err)
	}
	if b := c.Image().Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Fatalf("canvas should be 8x8 pixels, got %v", b)
	}

	s, err := c.NewSurface(2, 4, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	red := color.RGBA{R: 255, A: 255}
	pix, stride := solid(4, 4, red)
	n, err := s.Blit(0, 0, pix, stride, 0, 0, 4, 4)
	if err != nil {
		t.Fatalf("Blit failed: %v", err)
	}
	if n != 8 {
		t.Errorf("expected 8 cells, got %d", n)
	}

	img := c.Image()
	if got := color.RGBAModel.Convert(img.At(2, 2)).(color.RGBA); got != red {
		t.Errorf("pixel at surface origin = %+v", got)
	}
	if got := color.RGBAModel.Convert(img.At(1, 2)).(color.RGBA); got.A != 0 {
		t.Errorf("pixel left of surface should stay transparent, got %+v", got)
	}

	rgba, err := s.RGBA(0, 0, 2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(rgba) != 2*4*4 || rgba[0] != 255 || rgba[3] != 255 {
		t.Errorf("unexpected readback %v", rgba[:4])
	}
	if _, err := s.RGBA(1, 0, 2, 4); !errors.Is(err, ports.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestBlitClipsToSurface(t *testing.T) {
	c, _ := New(4, 4, 1)
	s, _ := c.NewSurface(2, 2, 0, 0)
	pix, stride := solid(4, 4, color.RGBA{G: 255, A: 255})
	n, err := s.Blit(0, 0, pix, stride, 0, 0, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("expected 4 cells after clipping, got %d", n)
	}
	if got := color.RGBAModel.Convert(c.Image().At(3, 3)).(color.RGBA); got.A != 0 {
		t.Errorf("pixel outside surface was painted: %+v", got)
	}
}

func TestDestroyClearsArea(t *testing.T) {
	c, _ := New(2, 2, 1)
	c.Fill(color.White)
	s, _ := c.NewSurface(1, 1, 0, 0)
	if err := s.Destroy(); err != nil {
		t.Fatal(err)
	}
	if got := color.RGBAModel.Convert(c.Image().At(0, 0)).(color.RGBA); got.A != 0 {
		t.Errorf("destroyed area should be transparent, got %+v", got)
	}
	if got := color.RGBAModel.Convert(c.Image().At(1, 1)).(color.RGBA); got.R != 255 {
		t.Errorf("area outside the surface should keep the fill, got %+v", got)
	}
	pix, stride := solid(1, 1, color.RGBA{A: 255})
	if _, err := s.Blit(0, 0, pix, stride, 0, 0, 1, 1); !errors.Is(err, ports.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument after destroy, got %v", err)
	}
}

func TestSavePNG(t *testing.T) {
	c, _ := New(3, 5, 2)
	s, _ := c.NewSurface(3, 5, 0, 0)
	pix, stride := solid(5, 6, color.RGBA{B: 200, A: 255})
	if _, err := s.Blit(0, 0, pix, stride, 0, 0, 6, 5); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "snap.png")
	if err := c.SavePNG(path); err != nil {
		t.Fatalf("SavePNG failed: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, 5, 6) {
		t.Errorf("unexpected png bounds %v", img.Bounds())
	}
}

func TestEncoderFormats(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	tests := []struct {
		format ports.ImageFormat
		name   string
	}{
		{ports.FormatPNG, "png"},
		{ports.FormatJPEG, "jpeg"},
	}
	for _, tt := range tests {
		data, err := Encoder{}.EncodeImage(img, tt.format, 80)
		if err != nil {
			t.Fatalf("EncodeImage(%s) failed: %v", tt.format, err)
		}
		if _, got, err := image.DecodeConfig(bytes.NewReader(data)); err != nil || got != tt.name {
			t.Errorf("EncodeImage(%s) produced %q, %v", tt.format, got, err)
		}
	}
	if _, err := (Encoder{}).EncodeImage(img, ports.ImageFormat(9), 0); err == nil {
		t.Error("expected error for unknown format")
	}
}

// Package canvassurface provides an off-screen surface context backed by a
// gg drawing context. Each cell is one pixel wide and vscale pixels tall,
// so a full-size blit keeps every raster pixel.
package canvassurface

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/fogleman/gg"

	"github.com/user/termvis/pkg/ports"
)

// Context is an off-screen canvas of rows x cols cells.
type Context struct {
	mu     sync.Mutex
	dc     *gg.Context
	rows   int
	cols   int
	vscale int
}

// New creates a canvas with a transparent background.
func New(rows, cols, vscale int) (*Context, error) {
	if rows <= 0 || cols <= 0 || vscale <= 0 {
		return nil, fmt.Errorf("%w: canvas %dx%d vscale %d", ports.ErrInvalidArgument, cols, rows, vscale)
	}
	return &Context{
		dc:     gg.NewContext(cols, rows*vscale),
		rows:   rows,
		cols:   cols,
		vscale: vscale,
	}, nil
}

func (c *Context) Dims() (int, int)        { return c.rows, c.cols }
func (c *Context) VerticalMultiplier() int { return c.vscale }

// NewSurface creates a surface on the canvas. It must fit inside the canvas.
func (c *Context) NewSurface(rows, cols, rowOff, colOff int) (ports.Surface, error) {
	if rows <= 0 || cols <= 0 || rowOff < 0 || colOff < 0 ||
		rowOff+rows > c.rows || colOff+cols > c.cols {
		return nil, fmt.Errorf("%w: surface %dx%d at %d,%d on %dx%d canvas", ports.ErrInvalidArgument, cols, rows, rowOff, colOff, c.cols, c.rows)
	}
	return &Surface{ctx: c, rows: rows, cols: cols, rowOff: rowOff, colOff: colOff}, nil
}

// Fill paints the whole canvas with a background colour.
func (c *Context) Fill(bg color.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dc.SetColor(bg)
	c.dc.Clear()
}

// Image returns the canvas pixels.
func (c *Context) Image() image.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dc.Image()
}

// SavePNG writes the canvas to a PNG file.
func (c *Context) SavePNG(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.dc.SavePNG(path); err != nil {
		return fmt.Errorf("save png: %w", err)
	}
	return nil
}

// Surface is a rectangle of the canvas.
type Surface struct {
	ctx       *Context
	rows      int
	cols      int
	rowOff    int
	colOff    int
	destroyed bool
}

func (s *Surface) Dims() (int, int)   { return s.rows, s.cols }
func (s *Surface) Origin() (int, int) { return s.rowOff, s.colOff }

// Resize changes the surface size. It must still fit inside the canvas.
func (s *Surface) Resize(rows, cols int) error {
	if rows <= 0 || cols <= 0 || s.rowOff+rows > s.ctx.rows || s.colOff+cols > s.ctx.cols {
		return fmt.Errorf("%w: resize to %dx%d", ports.ErrInvalidArgument, cols, rows)
	}
	s.rows, s.cols = rows, cols
	return nil
}

// Blit copies RGBA pixels onto the canvas, clipped to the surface.
func (s *Surface) Blit(placeRow, placeCol int, pix []byte, stride, row0, col0, lenRows, lenCols int) (int, error) {
	if s.destroyed {
		return 0, fmt.Errorf("%w: surface destroyed", ports.ErrInvalidArgument)
	}
	if placeRow < 0 || placeCol < 0 || row0 < 0 || col0 < 0 || lenRows < 0 || lenCols < 0 {
		return 0, fmt.Errorf("%w: blit %d,%d %dx%d", ports.ErrInvalidArgument, row0, col0, lenCols, lenRows)
	}
	if lenRows > 0 && (row0+lenRows-1)*stride+(col0+lenCols)*4 > len(pix) {
		return 0, fmt.Errorf("%w: blit region exceeds buffer", ports.ErrInvalidArgument)
	}

	vs := s.ctx.vscale
	maxY := (s.rows - placeRow) * vs
	maxX := s.cols - placeCol
	originX := s.colOff + placeCol
	originY := (s.rowOff + placeRow) * vs

	h := max(0, min(lenRows, maxY))
	w := max(0, min(lenCols, maxX))

	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := (row0+y)*stride + (col0+x)*4
			s.ctx.dc.SetColor(color.RGBA{R: pix[off], G: pix[off+1], B: pix[off+2], A: pix[off+3]})
			s.ctx.dc.SetPixel(originX+x, originY+y)
		}
	}
	return ((h + vs - 1) / vs) * w, nil
}

// RGBA exports one pixel per cell, taken from the top pixel row of the cell.
func (s *Surface) RGBA(row0, col0, rows, cols int) ([]byte, error) {
	if row0 < 0 || col0 < 0 || rows < 0 || cols < 0 || row0+rows > s.rows || col0+cols > s.cols {
		return nil, fmt.Errorf("%w: region %d,%d %dx%d outside %dx%d", ports.ErrInvalidArgument, row0, col0, cols, rows, s.cols, s.rows)
	}
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	img := s.ctx.dc.Image()
	out := make([]byte, 0, rows*cols*4)
	for y := row0; y < row0+rows; y++ {
		for x := col0; x < col0+cols; x++ {
			c := color.NRGBAModel.Convert(img.At(s.colOff+x, (s.rowOff+y)*s.ctx.vscale)).(color.NRGBA)
			out = append(out, c.R, c.G, c.B, c.A)
		}
	}
	return out, nil
}

// PutText draws text with the default face, baseline at the bottom of the cell row.
func (s *Surface) PutText(row, col int, text string) error {
	if row < 0 || col < 0 || row >= s.rows || col >= s.cols {
		return fmt.Errorf("%w: text at %d,%d outside %dx%d", ports.ErrInvalidArgument, row, col, s.cols, s.rows)
	}
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	dc := s.ctx.dc
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(text, float64(s.colOff+col), float64((s.rowOff+row+1)*s.ctx.vscale), 0, 0)
	return nil
}

// Destroy clears the surface area to transparent.
func (s *Surface) Destroy() error {
	if s.destroyed {
		return nil
	}
	s.destroyed = true
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	s.ctx.dc.SetRGBA(0, 0, 0, 0)
	for y := s.rowOff * s.ctx.vscale; y < (s.rowOff+s.rows)*s.ctx.vscale; y++ {
		for x := s.colOff; x < s.colOff+s.cols; x++ {
			s.ctx.dc.SetPixel(x, y)
		}
	}
	return nil
}

var (
	_ ports.SurfaceContext = (*Context)(nil)
	_ ports.Surface        = (*Surface)(nil)
	_ ports.TextSurface    = (*Surface)(nil)
)

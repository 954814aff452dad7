package termsurface

import (
	"fmt"
	"strings"
	"sync"

	"github.com/user/termvis/pkg/ports"
)

type rgb struct {
	r, g, b uint8
}

// cell holds the upper and lower pixel shown by one character cell.
type cell struct {
	top, bottom rgb
}

// Surface is a rectangle of terminal cells.
type Surface struct {
	mu        sync.Mutex
	ctx       *Context
	rows      int
	cols      int
	rowOff    int
	colOff    int
	cells     []cell
	destroyed bool
}

func (s *Surface) Dims() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows, s.cols
}

func (s *Surface) Origin() (int, int) {
	return s.rowOff, s.colOff
}

// Resize changes the cell size and clears the stored colours.
func (s *Surface) Resize(rows, cols int) error {
	if rows <= 0 || cols <= 0 {
		return fmt.Errorf("%w: resize to %dx%d", ports.ErrInvalidArgument, cols, rows)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows, s.cols = rows, cols
	s.cells = make([]cell, rows*cols)
	return nil
}

// Blit paints RGBA pixels onto cells. Pixel rows pair up into cell rows
// when the context uses half blocks. Cells outside the surface are clipped.
func (s *Surface) Blit(placeRow, placeCol int, pix []byte, stride, row0, col0, lenRows, lenCols int) (int, error) {
	if placeRow < 0 || placeCol < 0 || row0 < 0 || col0 < 0 || lenRows < 0 || lenCols < 0 {
		return 0, fmt.Errorf("%w: blit %d,%d %dx%d", ports.ErrInvalidArgument, row0, col0, lenCols, lenRows)
	}
	if lenRows > 0 && (row0+lenRows-1)*stride+(col0+lenCols)*4 > len(pix) {
		return 0, fmt.Errorf("%w: blit region exceeds buffer", ports.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return 0, fmt.Errorf("%w: surface destroyed", ports.ErrInvalidArgument)
	}

	vscale := s.ctx.VerticalMultiplier()
	cellRows := (lenRows + vscale - 1) / vscale
	at := func(y, x int) rgb {
		if y >= lenRows {
			return rgb{}
		}
		off := (row0+y)*stride + (col0+x)*4
		return rgb{pix[off], pix[off+1], pix[off+2]}
	}

	var buf strings.Builder
	written := 0
	for cy := 0; cy < cellRows; cy++ {
		row := placeRow + cy
		if row >= s.rows {
			break
		}
		fmt.Fprintf(&buf, "\x1b[%d;%dH", s.rowOff+row+1, s.colOff+placeCol+1)
		for x := 0; x < lenCols; x++ {
			col := placeCol + x
			if col >= s.cols {
				break
			}
			c := cell{top: at(cy*vscale, x)}
			if vscale == 2 {
				c.bottom = at(cy*vscale+1, x)
			} else {
				c.bottom = c.top
			}
			s.cells[row*s.cols+col] = c
			writeCell(&buf, c, vscale)
			written++
		}
		buf.WriteString("\x1b[0m")
	}
	if written == 0 {
		return 0, nil
	}
	if err := s.ctx.flush(&buf); err != nil {
		return 0, fmt.Errorf("write terminal: %w", err)
	}
	return written, nil
}

func writeCell(buf *strings.Builder, c cell, vscale int) {
	if vscale == 2 {
		fmt.Fprintf(buf, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%s",
			c.top.r, c.top.g, c.top.b, c.bottom.r, c.bottom.g, c.bottom.b, upperHalfBlock)
		return
	}
	fmt.Fprintf(buf, "\x1b[48;2;%d;%d;%dm ", c.top.r, c.top.g, c.top.b)
}

// RGBA exports cell colours. A half-block cell yields the mean of its
// two pixels.
func (s *Surface) RGBA(row0, col0, rows, cols int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row0 < 0 || col0 < 0 || rows < 0 || cols < 0 || row0+rows > s.rows || col0+cols > s.cols {
		return nil, fmt.Errorf("%w: region %d,%d %dx%d outside %dx%d", ports.ErrInvalidArgument, row0, col0, cols, rows, s.cols, s.rows)
	}
	out := make([]byte, 0, rows*cols*4)
	for y := row0; y < row0+rows; y++ {
		for x := col0; x < col0+cols; x++ {
			c := s.cells[y*s.cols+x]
			out = append(out,
				uint8((uint16(c.top.r)+uint16(c.bottom.r))/2),
				uint8((uint16(c.top.g)+uint16(c.bottom.g))/2),
				uint8((uint16(c.top.b)+uint16(c.bottom.b))/2),
				0xff)
		}
	}
	return out, nil
}

// PutText writes text at a cell of the surface with default colours.
func (s *Surface) PutText(row, col int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row < 0 || col < 0 || row >= s.rows || col >= s.cols {
		return fmt.Errorf("%w: text at %d,%d outside %dx%d", ports.ErrInvalidArgument, row, col, s.cols, s.rows)
	}
	width := s.cols - col
	runes := []rune(strings.ReplaceAll(text, "\n", " "))
	if len(runes) > width {
		runes = runes[:width]
	}
	var buf strings.Builder
	fmt.Fprintf(&buf, "\x1b[%d;%dH\x1b[0m%s%s", s.rowOff+row+1, s.colOff+col+1,
		string(runes), strings.Repeat(" ", width-len(runes)))
	return s.ctx.flush(&buf)
}

// Destroy blanks the surface area.
func (s *Surface) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil
	}
	s.destroyed = true

	var buf strings.Builder
	blank := strings.Repeat(" ", s.cols)
	for row := 0; row < s.rows; row++ {
		fmt.Fprintf(&buf, "\x1b[%d;%dH\x1b[0m%s", s.rowOff+row+1, s.colOff+1, blank)
	}
	return s.ctx.flush(&buf)
}

var (
	_ ports.Surface     = (*Surface)(nil)
	_ ports.TextSurface = (*Surface)(nil)
)

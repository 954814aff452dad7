package mocks

import (
	"fmt"
	"sync"

	"github.com/user/termvis/pkg/ports"
)

// BlitCall records one Blit invocation.
type BlitCall struct {
	PlaceRow, PlaceCol int
	Stride             int
	Row0, Col0         int
	LenRows, LenCols   int

	// Pixels is a packed copy (stride LenCols*4) of the blitted region.
	Pixels []byte
}

// SurfaceContext is a mock implementation of ports.SurfaceContext.
type SurfaceContext struct {
	mu sync.Mutex

	Rows, Cols int
	Multiplier int

	Surfaces []*Surface

	NewSurfaceFunc func(rows, cols, rowOff, colOff int) (ports.Surface, error)
}

// NewSurfaceContext creates a mock context of rows x cols cells.
func NewSurfaceContext(rows, cols, multiplier int) *SurfaceContext {
	return &SurfaceContext{Rows: rows, Cols: cols, Multiplier: multiplier}
}

func (m *SurfaceContext) Dims() (int, int) {
	return m.Rows, m.Cols
}

func (m *SurfaceContext) VerticalMultiplier() int {
	if m.Multiplier == 0 {
		return 1
	}
	return m.Multiplier
}

func (m *SurfaceContext) NewSurface(rows, cols, rowOff, colOff int) (ports.Surface, error) {
	if m.NewSurfaceFunc != nil {
		return m.NewSurfaceFunc(rows, cols, rowOff, colOff)
	}
	s := NewSurface(rows, cols)
	s.RowOff, s.ColOff = rowOff, colOff
	m.mu.Lock()
	m.Surfaces = append(m.Surfaces, s)
	m.mu.Unlock()
	return s, nil
}

// LastSurface returns the most recently created surface, or nil.
func (m *SurfaceContext) LastSurface() *Surface {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Surfaces) == 0 {
		return nil
	}
	return m.Surfaces[len(m.Surfaces)-1]
}

// Surface is a mock implementation of ports.Surface.
type Surface struct {
	mu sync.Mutex

	Rows, Cols     int
	RowOff, ColOff int

	Blits     []BlitCall
	Resizes   [][2]int
	Destroyed int
	Text      map[[2]int]string

	// Cells backs RGBA exports, one packed RGBA pixel per cell.
	Cells []byte

	BlitFunc func(placeRow, placeCol int, pix []byte, stride, row0, col0, lenRows, lenCols int) (int, error)
}

// NewSurface creates a mock surface of rows x cols cells.
func NewSurface(rows, cols int) *Surface {
	return &Surface{
		Rows:  rows,
		Cols:  cols,
		Cells: make([]byte, rows*cols*4),
		Text:  make(map[[2]int]string),
	}
}

func (s *Surface) Dims() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Rows, s.Cols
}

func (s *Surface) Origin() (int, int) {
	return s.RowOff, s.ColOff
}

func (s *Surface) Resize(rows, cols int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Resizes = append(s.Resizes, [2]int{rows, cols})
	s.Rows, s.Cols = rows, cols
	s.Cells = make([]byte, rows*cols*4)
	return nil
}

func (s *Surface) Blit(placeRow, placeCol int, pix []byte, stride, row0, col0, lenRows, lenCols int) (int, error) {
	if s.BlitFunc != nil {
		return s.BlitFunc(placeRow, placeCol, pix, stride, row0, col0, lenRows, lenCols)
	}
	region := make([]byte, 0, lenRows*lenCols*4)
	for y := row0; y < row0+lenRows; y++ {
		off := y*stride + col0*4
		region = append(region, pix[off:off+lenCols*4]...)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Blits = append(s.Blits, BlitCall{
		PlaceRow: placeRow,
		PlaceCol: placeCol,
		Stride:   stride,
		Row0:     row0,
		Col0:     col0,
		LenRows:  lenRows,
		LenCols:  lenCols,
		Pixels:   region,
	})
	return lenRows * lenCols, nil
}

func (s *Surface) RGBA(row0, col0, rows, cols int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row0 < 0 || col0 < 0 || row0+rows > s.Rows || col0+cols > s.Cols {
		return nil, fmt.Errorf("%w: region out of bounds", ports.ErrInvalidArgument)
	}
	out := make([]byte, 0, rows*cols*4)
	for y := row0; y < row0+rows; y++ {
		off := (y*s.Cols + col0) * 4
		out = append(out, s.Cells[off:off+cols*4]...)
	}
	return out, nil
}

func (s *Surface) PutText(row, col int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Text[[2]int{row, col}] = text
	return nil
}

func (s *Surface) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Destroyed++
	return nil
}

// BlitCount returns the number of recorded blits.
func (s *Surface) BlitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Blits)
}

var (
	_ ports.SurfaceContext = (*SurfaceContext)(nil)
	_ ports.Surface        = (*Surface)(nil)
	_ ports.TextSurface    = (*Surface)(nil)
)

package ports

// SurfaceContext is the display that surfaces are created on.
type SurfaceContext interface {
	// Dims returns the extent available for placement, in cells.
	Dims() (rows, cols int)

	// VerticalMultiplier returns how many raster pixel rows map onto one
	// cell row: 2 when cells are split vertically, otherwise 1.
	VerticalMultiplier() int

	// NewSurface creates a surface of rows x cols cells whose top-left
	// corner sits at (rowOff, colOff).
	NewSurface(rows, cols, rowOff, colOff int) (Surface, error)
}

// Surface is a rectangular region of cells that rasters are blitted onto.
type Surface interface {
	// Dims returns the surface size in cells.
	Dims() (rows, cols int)

	// Origin returns the surface position within its context.
	Origin() (row, col int)

	// Resize changes the surface size in cells.
	Resize(rows, cols int) error

	// Blit paints the raster region starting at pixel (row0, col0) and
	// spanning lenRows x lenCols pixels onto the surface at cell
	// (placeRow, placeCol). It returns the number of cells written.
	Blit(placeRow, placeCol int, pix []byte, stride, row0, col0, lenRows, lenCols int) (int, error)

	// RGBA exports a region of the surface as packed RGBA, one pixel per
	// cell, with a stride of cols*4.
	RGBA(row0, col0, rows, cols int) ([]byte, error)

	// Destroy releases the surface.
	Destroy() error
}

// TextSurface is implemented by surfaces that can draw plain text.
type TextSurface interface {
	PutText(row, col int, text string) error
}

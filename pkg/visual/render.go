package visual

import (
	"fmt"

	"github.com/user/termvis/pkg/ports"
)

// Render blits the raster region starting at pixel (row0, col0) and
// spanning lenRows x lenCols onto the destination surface. A length of -1
// selects the remaining extent. A zero-area region succeeds without
// touching the surface. It returns the blit's own result.
func (v *Visual) Render(row0, col0, lenRows, lenCols int) (int, error) {
	if row0 < 0 || col0 < 0 || lenRows < -1 || lenCols < -1 {
		return 0, fmt.Errorf("%w: render %d,%d %dx%d", ports.ErrInvalidArgument, row0, col0, lenCols, lenRows)
	}
	if v.raster == nil {
		return 0, fmt.Errorf("%w: no raster to render", ports.ErrInvalidArgument)
	}
	if v.surface == nil {
		return 0, fmt.Errorf("%w: no surface to render onto", ports.ErrInvalidArgument)
	}
	if col0 >= v.dstWidth || row0 >= v.dstHeight {
		return 0, fmt.Errorf("%w: origin %d,%d outside %dx%d", ports.ErrInvalidArgument, row0, col0, v.dstWidth, v.dstHeight)
	}
	if lenCols == -1 {
		lenCols = v.dstWidth - col0
	}
	if lenRows == -1 {
		lenRows = v.dstHeight - row0
	}
	if lenCols == 0 || lenRows == 0 {
		return 0, nil
	}
	if col0+lenCols > v.dstWidth || row0+lenRows > v.dstHeight {
		return 0, fmt.Errorf("%w: region %d,%d %dx%d exceeds %dx%d", ports.ErrInvalidArgument, row0, col0, lenCols, lenRows, v.dstWidth, v.dstHeight)
	}
	return v.surface.Blit(v.placeRow, v.placeCol, v.raster.Pix, v.raster.Stride, row0, col0, lenRows, lenCols)
}

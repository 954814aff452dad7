package raster

import (
	"fmt"

	"github.com/user/termvis/pkg/ports"
)

// BGRAToRGBA returns a copy of a BGRA raster with red and blue exchanged
// in the first cols pixels of each row. Green, alpha, and row padding are
// copied unchanged, so applying it twice yields the original bytes.
func BGRAToRGBA(pix []byte, rows, stride, cols int) ([]byte, error) {
	if err := ValidateStride(stride, cols); err != nil {
		return nil, err
	}
	if len(pix) < rows*stride {
		return nil, fmt.Errorf("%w: %d bytes for %d rows of %d", ports.ErrInvalidArgument, len(pix), rows, stride)
	}
	dst := make([]byte, rows*stride)
	SwapRedBlue(dst, pix, rows, stride, cols)
	return dst, nil
}

// SwapRedBlue writes src into dst with bytes 0 and 2 of every pixel swapped.
// dst and src may be the same slice.
func SwapRedBlue(dst, src []byte, rows, stride, cols int) {
	copy(dst[:rows*stride], src[:rows*stride])
	for y := 0; y < rows; y++ {
		row := dst[y*stride : y*stride+cols*4]
		for x := 0; x < len(row); x += 4 {
			row[x], row[x+2] = row[x+2], row[x]
		}
	}
}

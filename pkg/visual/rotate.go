package visual

import (
	"fmt"
	"math"

	"github.com/user/termvis/pkg/ports"
	"github.com/user/termvis/pkg/raster"
)

// Rotate turns the raster by radians about its centre into a new owned
// square raster whose side is the larger destination dimension. Each
// output pixel samples its preimage under the inverse rotation, so every
// write lands inside the square. Pixels whose preimage falls outside the
// old raster are transparent. Positive angles turn clockwise on screen.
// On failure the visual keeps its raster, dimensions and surface.
func (v *Visual) Rotate(radians float64) error {
	if v.raster == nil {
		return fmt.Errorf("%w: no raster to rotate", ports.ErrInvalidArgument)
	}
	w, h := v.dstWidth, v.dstHeight
	diam := max(w, h)

	out, err := raster.New(v.opts.Allocator, diam, diam, diam*4)
	if err != nil {
		return err
	}
	clear(out.Pix)

	src := v.raster
	sin, cos := math.Sincos(radians)
	half := float64(diam) / 2
	cx, cy := float64(w)/2, float64(h)/2
	for ty := 0; ty < diam; ty++ {
		dy := float64(ty) + 0.5 - half
		for tx := 0; tx < diam; tx++ {
			dx := float64(tx) + 0.5 - half
			sx := int(math.Floor(dx*cos + dy*sin + cx))
			sy := int(math.Floor(-dx*sin + dy*cos + cy))
			if sx < 0 || sy < 0 || sx >= w || sy >= h {
				continue
			}
			so := sy*src.Stride + sx*4
			to := ty*out.Stride + tx*4
			copy(out.Pix[to:to+4], src.Pix[so:so+4])
		}
	}

	if err := v.squareSurface(diam); err != nil {
		out.Release()
		return err
	}

	v.setRaster(out)
	v.conv.Invalidate()
	v.dstWidth, v.dstHeight = diam, diam
	v.log.Debug("Rotated %dx%d raster by %.3f rad into %dx%d", w, h, radians, diam, diam)
	return nil
}

// squareSurface gives the destination a surface that holds a diam x diam
// raster. An owned surface is replaced. A borrowed one is resized.
func (v *Visual) squareSurface(diam int) error {
	if v.surface == nil {
		return nil
	}
	rows := ceilDiv(diam, v.vscale)
	if v.ownsSurface && v.sc != nil {
		row, col := v.surface.Origin()
		s, err := v.sc.NewSurface(rows, diam, row, col)
		if err != nil {
			return fmt.Errorf("create surface: %w", err)
		}
		if err := v.surface.Destroy(); err != nil {
			v.log.Warn("Failed to destroy surface: %s", err)
		}
		v.surface = s
		return nil
	}
	if r, c := v.surface.Dims(); r != rows || c != diam {
		if err := v.surface.Resize(rows, diam); err != nil {
			return fmt.Errorf("resize surface: %w", err)
		}
	}
	return nil
}

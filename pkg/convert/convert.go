// Package convert turns decoded frames of any pixel format into packed RGBA
// rasters at a target size.
package convert

import (
	"errors"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/user/termvis/pkg/ports"
	"github.com/user/termvis/pkg/raster"
)

// RowAlign is the byte alignment of every output row.
const RowAlign = 32

var (
	// ErrNoFrame is returned when Convert is called without a frame.
	ErrNoFrame = errors.New("convert: no source frame")
	// ErrUnknownFilter is returned by ParseFilter for unrecognised names.
	ErrUnknownFilter = errors.New("convert: unknown filter")
)

// Filter selects the resampling kernel.
type Filter string

const (
	FilterLanczos    Filter = "lanczos"
	FilterCatmullRom Filter = "catmullrom"
	FilterBilinear   Filter = "bilinear"
	FilterNearest    Filter = "nearest"
)

// ParseFilter parses a filter name. An empty name selects Lanczos.
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case "", FilterLanczos:
		return FilterLanczos, nil
	case FilterCatmullRom, FilterBilinear, FilterNearest:
		return Filter(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
}

// Lanczos is a three-lobe Lanczos kernel.
var Lanczos = &draw.Kernel{
	Support: 3,
	At: func(t float64) float64 {
		if t < 0 {
			t = -t
		}
		if t < 1e-9 {
			return 1
		}
		if t >= 3 {
			return 0
		}
		pt := math.Pi * t
		return 3 * math.Sin(pt) * math.Sin(pt/3) / (pt * pt)
	},
}

func (f Filter) scaler(dw, dh, sw, sh int) draw.Scaler {
	switch f {
	case FilterCatmullRom:
		return draw.CatmullRom.NewScaler(dw, dh, sw, sh)
	case FilterBilinear:
		return draw.BiLinear.NewScaler(dw, dh, sw, sh)
	case FilterNearest:
		return draw.NearestNeighbor
	default:
		return Lanczos.NewScaler(dw, dh, sw, sh)
	}
}

// Key identifies a conversion between two (format, dimension) pairs.
type Key struct {
	SrcFormat ports.PixelFormat
	SrcWidth  int
	SrcHeight int
	DstFormat ports.PixelFormat
	DstWidth  int
	DstHeight int
}

// Context is cached scaler state for one Key.
type Context struct {
	Key    Key
	scaler draw.Scaler
}

func newContext(key Key, filter Filter) (*Context, error) {
	if key.SrcWidth <= 0 || key.SrcHeight <= 0 || key.DstWidth <= 0 || key.DstHeight <= 0 {
		return nil, fmt.Errorf("%w: cannot scale %dx%d to %dx%d", ports.ErrDecode,
			key.SrcWidth, key.SrcHeight, key.DstWidth, key.DstHeight)
	}
	c := &Context{Key: key}
	if key.SrcWidth != key.DstWidth || key.SrcHeight != key.DstHeight {
		c.scaler = filter.scaler(key.DstWidth, key.DstHeight, key.SrcWidth, key.SrcHeight)
	}
	return c, nil
}

// Converter converts frames to RGBA using one cached Context. It owns the
// buffers it produces. The previous output is retired by the next
// successful Convert, the last one by Close.
type Converter struct {
	alloc  raster.Allocator
	filter Filter
	ctx    *Context
	out    *raster.Buffer
	builds int
}

// New creates a Converter. A nil allocator selects raster.Heap.
func New(alloc raster.Allocator, filter Filter) *Converter {
	if alloc == nil {
		alloc = raster.Heap
	}
	if filter == "" {
		filter = FilterLanczos
	}
	return &Converter{alloc: alloc, filter: filter}
}

// Context returns the cached context, or nil.
func (c *Converter) Context() *Context {
	return c.ctx
}

// Builds returns how many contexts have been built.
func (c *Converter) Builds() int {
	return c.builds
}

// Invalidate drops the cached context.
func (c *Converter) Invalidate() {
	c.ctx = nil
}

// Convert scales frame to dstWidth x dstHeight packed RGBA. The result is a
// borrowed view of a buffer the Converter keeps until the next Convert or
// Close.
func (c *Converter) Convert(frame *ports.Frame, dstWidth, dstHeight int) (*raster.Buffer, error) {
	if frame == nil || frame.Image == nil {
		return nil, ErrNoFrame
	}
	src := frame.Image
	format := frame.Format
	if format == ports.PixelFormatUnknown {
		format = ports.PixelFormatOf(src)
	}
	sb := src.Bounds()
	key := Key{
		SrcFormat: format,
		SrcWidth:  sb.Dx(),
		SrcHeight: sb.Dy(),
		DstFormat: ports.PixelFormatRGBA,
		DstWidth:  dstWidth,
		DstHeight: dstHeight,
	}
	if c.ctx == nil || c.ctx.Key != key {
		ctx, err := newContext(key, c.filter)
		if err != nil {
			return nil, err
		}
		c.ctx = ctx
		c.builds++
	}

	stride := raster.AlignStride(dstWidth, RowAlign)
	if stride%4 != 0 {
		return nil, fmt.Errorf("%w: stride %d is not a multiple of 4", ports.ErrInvalidArgument, stride)
	}
	out, err := raster.New(c.alloc, dstWidth, dstHeight, stride)
	if err != nil {
		return nil, err
	}

	dst := out.Image()
	if c.ctx.scaler != nil {
		c.ctx.scaler.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	} else {
		draw.Copy(dst, image.Point{}, src, sb, draw.Src, nil)
	}

	if bpp := c.ctx.Key.DstFormat.BitsPerPixel(); bpp != 32 {
		out.Release()
		return nil, fmt.Errorf("%w: converted format has %d bits per pixel", ports.ErrDecode, bpp)
	}

	c.out.Release()
	c.out = out
	return out.View(), nil
}

// Close frees the last output buffer and drops the context.
func (c *Converter) Close() {
	c.out.Release()
	c.out = nil
	c.ctx = nil
}

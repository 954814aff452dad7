// Package visual implements the visual object: the unit of decode and
// render state that turns an image, a video, or an in-memory raster into
// packed RGBA frames painted onto a display surface.
package visual

import (
	"errors"
	"fmt"
	"image"

	"github.com/user/termvis/pkg/adapters/logger"
	"github.com/user/termvis/pkg/convert"
	"github.com/user/termvis/pkg/ports"
	"github.com/user/termvis/pkg/raster"
	"github.com/user/termvis/pkg/subtitle"
)

// DefaultMaxDecodeRetries caps the video packets a single Decode call may
// submit without getting a frame back.
const DefaultMaxDecodeRetries = 256

// ErrUnknownScale is returned by ParseScale for unrecognised names.
var ErrUnknownScale = errors.New("visual: unknown scale policy")

// ChannelOrder is the byte order of a caller-supplied raster.
type ChannelOrder int

const (
	RGBA ChannelOrder = iota
	BGRA
)

// Scale is the policy used to size the destination on first decode.
type Scale int

const (
	// ScaleNone keeps the native decoded size.
	ScaleNone Scale = iota
	// ScaleScale fits the frame into the available area, keeping its aspect ratio.
	ScaleScale
	// ScaleStretch fills the available area.
	ScaleStretch
)

// String returns the string representation of the scale policy.
func (s Scale) String() string {
	switch s {
	case ScaleNone:
		return "none"
	case ScaleScale:
		return "scale"
	case ScaleStretch:
		return "stretch"
	default:
		return "unknown"
	}
}

// ParseScale parses a scale policy name.
func ParseScale(s string) (Scale, error) {
	switch s {
	case "none", "":
		return ScaleNone, nil
	case "scale":
		return ScaleScale, nil
	case "stretch":
		return ScaleStretch, nil
	}
	return ScaleNone, fmt.Errorf("%w: %q", ErrUnknownScale, s)
}

// Options tunes a visual.
type Options struct {
	Logger           ports.Logger
	Allocator        raster.Allocator
	Filter           convert.Filter
	MaxDecodeRetries int
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logger.NewNoop()
	}
	if o.Allocator == nil {
		o.Allocator = raster.Heap
	}
	if o.Filter == "" {
		o.Filter = convert.FilterLanczos
	}
	if o.MaxDecodeRetries <= 0 {
		o.MaxDecodeRetries = DefaultMaxDecodeRetries
	}
	return o
}

// Timing describes when the current frame should be shown.
type Timing struct {
	PTS      int64
	HasPTS   bool
	Duration int64
	// TimeBase is the length of one stream time unit in seconds.
	TimeBase float64
}

// Visual holds the current raster, its placement, and the decode state of
// the source it was opened from. It is not safe for concurrent use.
type Visual struct {
	opts      Options
	log       ports.Logger
	timescale float64

	sc       ports.SurfaceContext
	src      ports.Source
	filename string
	conv     *convert.Converter
	timeBase float64

	raster    *raster.Buffer
	dstWidth  int
	dstHeight int

	placeRow, placeCol int
	scale              Scale
	vscale             int

	surface     ports.Surface
	ownsSurface bool

	frameNum  uint64
	timing    Timing
	cue       *ports.SubtitleCue
	pending   *ports.Packet
	draining  bool
	destroyed bool
}

func newVisual(sc ports.SurfaceContext, opts Options) *Visual {
	opts = opts.withDefaults()
	v := &Visual{
		opts:      opts,
		log:       opts.Logger.WithComponent("visual"),
		timescale: 1.0,
		sc:        sc,
		conv:      convert.New(opts.Allocator, opts.Filter),
		vscale:    1,
	}
	if sc != nil {
		if m := sc.VerticalMultiplier(); m > 0 {
			v.vscale = m
		}
	}
	return v
}

// New creates an empty visual. A non-positive timescale selects 1.0.
func New(timescale float64, opts Options) *Visual {
	v := newVisual(nil, opts)
	if timescale > 0 {
		v.timescale = timescale
	}
	return v
}

// FromRaster creates a visual from a copy of pix, a raster of rows rows and
// cols pixels per row laid out with the given stride. BGRA input is
// converted to RGBA. When sc is non-nil a surface large enough for the
// raster is created at the origin and owned by the visual.
func FromRaster(sc ports.SurfaceContext, pix []byte, rows, stride, cols int, order ChannelOrder, opts Options) (*Visual, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: raster %dx%d", ports.ErrInvalidArgument, cols, rows)
	}
	if err := raster.ValidateStride(stride, cols); err != nil {
		return nil, err
	}
	if len(pix) < rows*stride {
		return nil, fmt.Errorf("%w: %d bytes for %d rows of %d", ports.ErrInvalidArgument, len(pix), rows, stride)
	}

	v := newVisual(sc, opts)
	var (
		buf *raster.Buffer
		err error
	)
	switch order {
	case RGBA:
		buf, err = raster.Duplicate(v.opts.Allocator, pix, cols, rows, stride)
	case BGRA:
		buf, err = raster.New(v.opts.Allocator, cols, rows, stride)
		if err == nil {
			raster.SwapRedBlue(buf.Pix, pix, rows, stride, cols)
		}
	default:
		err = fmt.Errorf("%w: channel order %d", ports.ErrInvalidArgument, order)
	}
	if err != nil {
		return nil, err
	}

	if sc != nil {
		s, err := sc.NewSurface(ceilDiv(rows, v.vscale), cols, 0, 0)
		if err != nil {
			buf.Release()
			return nil, fmt.Errorf("create surface: %w", err)
		}
		v.surface = s
		v.ownsSurface = true
	}
	v.raster = buf
	v.dstWidth = cols
	v.dstHeight = rows
	return v, nil
}

// FromFile opens filename with backend. The destination surface is created
// on the first Decode, placed at (row, col) and sized per scale.
func FromFile(sc ports.SurfaceContext, backend ports.DecodeBackend, filename string, row, col int, scale Scale, opts Options) (*Visual, error) {
	if row < 0 || col < 0 {
		return nil, fmt.Errorf("%w: placement %d,%d", ports.ErrInvalidArgument, row, col)
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: no decode backend", ports.ErrUnimplemented)
	}
	src, err := backend.Open(filename)
	if err != nil {
		if errors.Is(err, ports.ErrUnimplemented) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: open %s: %w", ports.ErrDecode, filename, err)
	}

	info, ok := streamInfo(src, src.VideoStream())
	if !ok || info.Type != ports.MediaVideo {
		src.Close()
		return nil, fmt.Errorf("%w: %s has no usable video stream", ports.ErrDecode, filename)
	}

	v := newVisual(sc, opts)
	v.src = src
	v.filename = filename
	v.timeBase = info.TimeBase.Float()
	v.placeRow, v.placeCol = row, col
	v.scale = scale
	v.log.Debug("Opened %s with %s backend: %s %dx%d", filename, backend.Name(), info.Codec, info.Width, info.Height)
	return v, nil
}

// OpenOnSurface opens filename for decoding onto an existing surface. Frames
// are stretched to the surface, which stays owned by the caller.
func OpenOnSurface(sc ports.SurfaceContext, surface ports.Surface, backend ports.DecodeBackend, filename string, opts Options) (*Visual, error) {
	if surface == nil {
		return nil, fmt.Errorf("%w: no surface", ports.ErrInvalidArgument)
	}
	v, err := FromFile(sc, backend, filename, 0, 0, ScaleStretch, opts)
	if err != nil {
		return nil, err
	}
	rows, cols := surface.Dims()
	v.surface = surface
	v.ownsSurface = false
	v.dstWidth = cols
	v.dstHeight = rows * v.vscale
	return v, nil
}

// FromSurface creates a visual from a region of an existing surface, read
// back as one RGBA pixel per cell. A length of -1 selects the remaining
// extent from the origin.
func FromSurface(sc ports.SurfaceContext, surface ports.Surface, row0, col0, rows, cols int, opts Options) (*Visual, error) {
	if surface == nil {
		return nil, fmt.Errorf("%w: no surface", ports.ErrInvalidArgument)
	}
	srows, scols := surface.Dims()
	if row0 < 0 || col0 < 0 || rows < -1 || cols < -1 || row0 >= srows || col0 >= scols {
		return nil, fmt.Errorf("%w: region %d,%d %dx%d of %dx%d surface", ports.ErrInvalidArgument, row0, col0, rows, cols, srows, scols)
	}
	if rows == -1 {
		rows = srows - row0
	}
	if cols == -1 {
		cols = scols - col0
	}
	if rows == 0 || cols == 0 || row0+rows > srows || col0+cols > scols {
		return nil, fmt.Errorf("%w: region %d,%d %dx%d of %dx%d surface", ports.ErrInvalidArgument, row0, col0, rows, cols, srows, scols)
	}
	pix, err := surface.RGBA(row0, col0, rows, cols)
	if err != nil {
		return nil, fmt.Errorf("read surface: %w", err)
	}
	return FromRaster(sc, pix, rows, cols*4, cols, RGBA, opts)
}

func streamInfo(src ports.Source, index int) (ports.StreamInfo, bool) {
	if index < 0 {
		return ports.StreamInfo{}, false
	}
	for _, s := range src.Streams() {
		if s.Index == index {
			return s, true
		}
	}
	return ports.StreamInfo{}, false
}

// Dims returns the destination size in pixels.
func (v *Visual) Dims() (width, height int) {
	return v.dstWidth, v.dstHeight
}

// Stride returns the bytes per row of the current raster, or 0.
func (v *Visual) Stride() int {
	if v.raster == nil {
		return 0
	}
	return v.raster.Stride
}

// Ownership reports whether the current raster is owned by the visual.
// It returns false when there is no raster.
func (v *Visual) Ownership() (raster.Ownership, bool) {
	if v.raster == nil {
		return raster.Borrowed, false
	}
	return v.raster.Ownership(), true
}

// Image returns the current raster as an *image.RGBA sharing its pixels,
// or nil. The pixels are valid until the next Decode, Rotate, or Destroy.
func (v *Visual) Image() *image.RGBA {
	if v.raster == nil {
		return nil
	}
	return v.raster.Image()
}

// Surface returns the destination surface, or nil before the first decode.
func (v *Visual) Surface() ports.Surface {
	return v.surface
}

// SurfaceContext returns the context the visual creates surfaces on.
func (v *Visual) SurfaceContext() ports.SurfaceContext {
	return v.sc
}

// FrameNumber returns the number of frames decoded so far.
func (v *Visual) FrameNumber() uint64 {
	return v.frameNum
}

// Timing returns the timing of the current frame.
func (v *Visual) Timing() Timing {
	return v.timing
}

// Timescale returns the playback duration multiplier.
func (v *Visual) Timescale() float64 {
	return v.timescale
}

// SetTimescale sets the playback duration multiplier.
func (v *Visual) SetTimescale(timescale float64) {
	if timescale > 0 {
		v.timescale = timescale
	}
}

// Filename returns the file the visual was opened from.
func (v *Visual) Filename() string {
	return v.filename
}

// Subtitle returns the text of the most recent subtitle cue.
func (v *Visual) Subtitle() (string, bool) {
	return subtitle.Extract(v.cue)
}

// Destroy releases the decode source, the owned raster, and the owned
// surface. It is safe on a nil visual and on one already destroyed.
func (v *Visual) Destroy() error {
	if v == nil || v.destroyed {
		return nil
	}
	v.destroyed = true

	var errs []error
	v.raster.Release()
	v.raster = nil
	v.conv.Close()
	if v.src != nil {
		if err := v.src.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close source: %w", err))
		}
		v.src = nil
	}
	if v.surface != nil && v.ownsSurface {
		if err := v.surface.Destroy(); err != nil {
			errs = append(errs, fmt.Errorf("destroy surface: %w", err))
		}
	}
	v.surface = nil
	v.cue = nil
	v.pending = nil
	return errors.Join(errs...)
}

func (v *Visual) setRaster(buf *raster.Buffer) {
	v.raster.Release()
	v.raster = buf
}

func ceilDiv(a, b int) int {
	if b <= 1 {
		return a
	}
	return (a + b - 1) / b
}

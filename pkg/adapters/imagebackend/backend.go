// Package imagebackend decodes still images and animated GIFs with the
// standard image codecs and golang.org/x/image.
package imagebackend

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/user/termvis/pkg/ports"
)

// gifTimeBase is the unit of GIF frame delays.
var gifTimeBase = ports.Rational{Num: 1, Den: 100}

// defaultGIFDelay replaces a zero delay, as browsers do.
const defaultGIFDelay = 10

// Backend opens images from a filesystem.
type Backend struct {
	fs ports.FileSystem
}

// New creates an image backend reading from fs.
func New(fs ports.FileSystem) *Backend {
	return &Backend{fs: fs}
}

func (b *Backend) Name() string        { return "image" }
func (b *Backend) CanOpenImages() bool { return true }
func (b *Backend) CanOpenVideos() bool { return false }

// Open decodes every frame of the file up front.
func (b *Backend) Open(path string) (ports.Source, error) {
	data, err := b.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Decode(data)
}

// Decode builds a source from encoded image bytes.
func Decode(data []byte) (ports.Source, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrUnsupportedFormat, err)
	}

	if format == "gif" {
		anim, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: gif: %w", ports.ErrDecode, err)
		}
		return newAnimatedSource(anim), nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ports.ErrDecode, format, err)
	}
	b := img.Bounds()
	return &source{
		stream: ports.StreamInfo{
			Type:     ports.MediaVideo,
			Codec:    format,
			Width:    b.Dx(),
			Height:   b.Dy(),
			TimeBase: ports.Rational{Num: 1, Den: 1},
		},
		frames: []ports.Frame{{Image: img, Format: ports.PixelFormatOf(img)}},
	}, nil
}

func newAnimatedSource(anim *gif.GIF) *source {
	width, height := anim.Config.Width, anim.Config.Height
	if width == 0 || height == 0 {
		for _, p := range anim.Image {
			b := p.Bounds()
			width, height = max(width, b.Max.X), max(height, b.Max.Y)
		}
	}
	bounds := image.Rect(0, 0, width, height)
	canvas := image.NewRGBA(bounds)

	s := &source{
		stream: ports.StreamInfo{
			Type:     ports.MediaVideo,
			Codec:    "gif",
			Width:    width,
			Height:   height,
			TimeBase: gifTimeBase,
		},
	}

	var pts int64
	for i, p := range anim.Image {
		var saved *image.RGBA
		disposal := byte(0)
		if i < len(anim.Disposal) {
			disposal = anim.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			saved = image.NewRGBA(bounds)
			draw.Draw(saved, bounds, canvas, image.Point{}, draw.Src)
		}

		draw.Draw(canvas, p.Bounds(), p, p.Bounds().Min, draw.Over)

		frame := image.NewRGBA(bounds)
		draw.Draw(frame, bounds, canvas, image.Point{}, draw.Src)

		delay := int64(defaultGIFDelay)
		if i < len(anim.Delay) && anim.Delay[i] > 0 {
			delay = int64(anim.Delay[i])
		}
		s.frames = append(s.frames, ports.Frame{
			Image:    frame,
			Format:   ports.PixelFormatRGBA,
			PTS:      pts,
			HasPTS:   true,
			Duration: delay,
		})
		pts += delay

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, p.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = saved
		}
	}
	return s
}

// source serves pre-decoded frames through the packet/frame protocol.
// Packets map one to one onto frames in order.
type source struct {
	stream    ports.StreamInfo
	frames    []ports.Frame
	read      int
	sent      int
	delivered int
	draining  bool
	closed    bool
}

func (s *source) Streams() []ports.StreamInfo { return []ports.StreamInfo{s.stream} }
func (s *source) VideoStream() int            { return 0 }
func (s *source) SubtitleStream() int         { return -1 }

func (s *source) ReadPacket() (*ports.Packet, error) {
	if s.closed {
		return nil, fmt.Errorf("%w: source closed", ports.ErrInvalidArgument)
	}
	if s.read >= len(s.frames) {
		return nil, ports.ErrEndOfStream
	}
	f := s.frames[s.read]
	s.read++
	return &ports.Packet{
		StreamIndex: 0,
		PTS:         f.PTS,
		DTS:         f.PTS,
		Duration:    f.Duration,
		Keyframe:    true,
	}, nil
}

func (s *source) SendPacket(pkt *ports.Packet) error {
	if pkt == nil {
		s.draining = true
		return nil
	}
	if s.draining {
		return fmt.Errorf("%w: packet after drain", ports.ErrDecode)
	}
	if s.sent > s.delivered {
		return ports.ErrWouldBlock
	}
	if s.sent >= len(s.frames) {
		return fmt.Errorf("%w: more packets than frames", ports.ErrDecode)
	}
	s.sent++
	return nil
}

func (s *source) ReceiveFrame() (*ports.Frame, error) {
	if s.closed {
		return nil, fmt.Errorf("%w: source closed", ports.ErrInvalidArgument)
	}
	if s.delivered >= s.sent {
		if s.draining {
			return nil, ports.ErrEndOfStream
		}
		return nil, ports.ErrWouldBlock
	}
	frame := s.frames[s.delivered]
	s.delivered++
	return &frame, nil
}

func (s *source) DecodeSubtitle(*ports.Packet) (*ports.SubtitleCue, error) {
	return nil, fmt.Errorf("%w: images carry no subtitles", ports.ErrUnimplemented)
}

func (s *source) Close() error {
	s.closed = true
	s.frames = nil
	return nil
}

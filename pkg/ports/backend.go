package ports

import (
	"image"
)

// MediaType identifies what a stream carries.
type MediaType int

const (
	MediaOther MediaType = iota
	MediaVideo
	MediaSubtitle
)

// String returns the string representation of the media type.
func (m MediaType) String() string {
	switch m {
	case MediaVideo:
		return "video"
	case MediaSubtitle:
		return "subtitle"
	default:
		return "other"
	}
}

// Rational is a fraction used for stream time bases.
type Rational struct {
	Num int64
	Den int64
}

// Float returns the rational as a float64. A zero denominator yields 0.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// StreamInfo describes one stream of an opened source.
type StreamInfo struct {
	Index    int
	Type     MediaType
	Codec    string
	Width    int
	Height   int
	TimeBase Rational
}

// Packet is one demuxed unit of compressed data.
type Packet struct {
	StreamIndex int
	Data        []byte
	PTS         int64
	DTS         int64
	Duration    int64
	Keyframe    bool
}

// Frame is a decoded picture in its native pixel format.
type Frame struct {
	// Image holds the native pixels. Stride is carried by the concrete type.
	Image image.Image

	// Format is the native pixel format reported by the backend.
	Format PixelFormat

	// PTS is the presentation timestamp in stream time base units.
	// It is meaningful only when HasPTS is true.
	PTS    int64
	HasPTS bool

	// Duration is the nominal frame duration in stream time base units.
	Duration int64

	// OnRelease, if set, is invoked once when the frame is released.
	OnRelease func()
}

// Width returns the frame width in pixels.
func (f *Frame) Width() int {
	return f.Image.Bounds().Dx()
}

// Height returns the frame height in pixels.
func (f *Frame) Height() int {
	return f.Image.Bounds().Dy()
}

// Release returns the frame's native buffers to the backend.
func (f *Frame) Release() {
	if f.OnRelease != nil {
		f.OnRelease()
		f.OnRelease = nil
	}
}

// SubtitleType classifies one rectangle of a decoded subtitle cue.
type SubtitleType int

const (
	SubtitleNone SubtitleType = iota
	SubtitleBitmap
	SubtitleText
	SubtitleASS
)

// SubtitleRect is one region of a decoded subtitle cue.
type SubtitleRect struct {
	Type SubtitleType
	Text string
}

// SubtitleCue is a decoded subtitle sample.
type SubtitleCue struct {
	Rects []SubtitleRect
	PTS   int64
}

// Source is an opened media source. It is owned by exactly one visual.
type Source interface {
	// Streams describes every stream in the source.
	Streams() []StreamInfo

	// VideoStream returns the index of the designated video stream.
	VideoStream() int

	// SubtitleStream returns the index of the designated subtitle stream,
	// or -1 when there is none.
	SubtitleStream() int

	// ReadPacket returns the next demuxed packet, or ErrEndOfStream.
	ReadPacket() (*Packet, error)

	// SendPacket submits a packet of the video stream to the decoder.
	// A nil packet starts draining. ErrWouldBlock is transient.
	SendPacket(pkt *Packet) error

	// ReceiveFrame pulls a decoded frame. ErrWouldBlock means the decoder
	// needs more packets. After draining it returns ErrEndOfStream.
	ReceiveFrame() (*Frame, error)

	// DecodeSubtitle decodes a packet of the subtitle stream.
	DecodeSubtitle(pkt *Packet) (*SubtitleCue, error)

	// Close releases the source and its decoder state.
	Close() error
}

// DecodeBackend opens sources. One backend variant is selected per process.
type DecodeBackend interface {
	// Name returns a short identifier for logs.
	Name() string

	// CanOpenImages reports whether still images are supported.
	CanOpenImages() bool

	// CanOpenVideos reports whether video files are supported.
	CanOpenVideos() bool

	// Open opens a source. It fails with ErrNotFound, ErrUnsupportedFormat,
	// or ErrUnimplemented.
	Open(path string) (Source, error)
}

package ports

import (
	"image"
)

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
)

// String returns the file extension of the format.
func (f ImageFormat) String() string {
	switch f {
	case FormatJPEG:
		return "jpg"
	case FormatPNG:
		return "png"
	default:
		return "unknown"
	}
}

// ImageEncoder encodes images for dumping.
type ImageEncoder interface {
	// EncodeImage encodes img. Quality applies to JPEG only.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)
}

// FrameSink receives rendered frames and subtitles for offline inspection.
type FrameSink interface {
	// Enabled returns true if the sink stores anything.
	Enabled() bool

	// SaveFrame saves the raster of a rendered frame.
	SaveFrame(index uint64, img image.Image) error

	// SaveSubtitle records subtitle text shown with a frame.
	SaveSubtitle(index uint64, text string) error

	// Flush writes any buffered output.
	Flush() error
}

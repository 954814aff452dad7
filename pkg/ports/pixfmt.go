package ports

import (
	"image"
)

// PixelFormat is the in-memory layout of a frame.
type PixelFormat int

const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormatRGBA
	PixelFormatNRGBA
	PixelFormatRGBA64
	PixelFormatNRGBA64
	PixelFormatGray
	PixelFormatGray16
	PixelFormatCMYK
	PixelFormatPaletted
	PixelFormatYUV444P
	PixelFormatYUV422P
	PixelFormatYUV420P
	PixelFormatYUV440P
	PixelFormatYUV411P
	PixelFormatYUV410P
	PixelFormatYUVA420P
)

var pixelFormatNames = map[PixelFormat]string{
	PixelFormatUnknown:  "unknown",
	PixelFormatRGBA:     "rgba",
	PixelFormatNRGBA:    "nrgba",
	PixelFormatRGBA64:   "rgba64",
	PixelFormatNRGBA64:  "nrgba64",
	PixelFormatGray:     "gray",
	PixelFormatGray16:   "gray16",
	PixelFormatCMYK:     "cmyk",
	PixelFormatPaletted: "pal8",
	PixelFormatYUV444P:  "yuv444p",
	PixelFormatYUV422P:  "yuv422p",
	PixelFormatYUV420P:  "yuv420p",
	PixelFormatYUV440P:  "yuv440p",
	PixelFormatYUV411P:  "yuv411p",
	PixelFormatYUV410P:  "yuv410p",
	PixelFormatYUVA420P: "yuva420p",
}

// String returns the string representation of the pixel format.
func (p PixelFormat) String() string {
	if name, ok := pixelFormatNames[p]; ok {
		return name
	}
	return "unknown"
}

// BitsPerPixel returns the average number of bits used per pixel.
func (p PixelFormat) BitsPerPixel() int {
	switch p {
	case PixelFormatRGBA, PixelFormatNRGBA, PixelFormatCMYK:
		return 32
	case PixelFormatRGBA64, PixelFormatNRGBA64:
		return 64
	case PixelFormatGray, PixelFormatPaletted:
		return 8
	case PixelFormatGray16, PixelFormatYUV422P, PixelFormatYUV440P:
		return 16
	case PixelFormatYUV444P:
		return 24
	case PixelFormatYUV420P, PixelFormatYUV411P:
		return 12
	case PixelFormatYUV410P:
		return 9
	case PixelFormatYUVA420P:
		return 20
	default:
		return 0
	}
}

// PixelFormatOf reports the pixel format of a standard library image type.
func PixelFormatOf(img image.Image) PixelFormat {
	switch m := img.(type) {
	case *image.RGBA:
		return PixelFormatRGBA
	case *image.NRGBA:
		return PixelFormatNRGBA
	case *image.RGBA64:
		return PixelFormatRGBA64
	case *image.NRGBA64:
		return PixelFormatNRGBA64
	case *image.Gray:
		return PixelFormatGray
	case *image.Gray16:
		return PixelFormatGray16
	case *image.CMYK:
		return PixelFormatCMYK
	case *image.Paletted:
		return PixelFormatPaletted
	case *image.NYCbCrA:
		if m.SubsampleRatio == image.YCbCrSubsampleRatio420 {
			return PixelFormatYUVA420P
		}
		return PixelFormatUnknown
	case *image.YCbCr:
		switch m.SubsampleRatio {
		case image.YCbCrSubsampleRatio444:
			return PixelFormatYUV444P
		case image.YCbCrSubsampleRatio422:
			return PixelFormatYUV422P
		case image.YCbCrSubsampleRatio420:
			return PixelFormatYUV420P
		case image.YCbCrSubsampleRatio440:
			return PixelFormatYUV440P
		case image.YCbCrSubsampleRatio411:
			return PixelFormatYUV411P
		case image.YCbCrSubsampleRatio410:
			return PixelFormatYUV410P
		}
	}
	return PixelFormatUnknown
}

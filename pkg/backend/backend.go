// Package backend selects the decode backend for the process.
package backend

import (
	"errors"
	"fmt"

	"github.com/user/termvis/pkg/adapters/imagebackend"
	"github.com/user/termvis/pkg/adapters/nullbackend"
	"github.com/user/termvis/pkg/adapters/osfilesystem"
	"github.com/user/termvis/pkg/adapters/videobackend"
	"github.com/user/termvis/pkg/ports"
)

// ErrUnknownKind is returned by ParseKind for unrecognized names.
var ErrUnknownKind = errors.New("backend: unknown backend")

// Kind is the decode backend variant.
type Kind int

const (
	// None opens nothing.
	None Kind = iota
	// Image opens still images and animated GIFs.
	Image
	// Video opens MP4 videos and everything Image opens.
	Video
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Image:
		return "image"
	case Video:
		return "video"
	default:
		return "unknown"
	}
}

// ParseKind parses a backend name.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "none":
		return None, nil
	case "image":
		return Image, nil
	case "video", "":
		return Video, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Options configures backend construction.
type Options struct {
	FFmpegPath string
	Logger     ports.Logger

	// FS defaults to the OS filesystem.
	FS ports.FileSystem
}

// New constructs the backend of the given kind.
func New(kind Kind, opts Options) (ports.DecodeBackend, error) {
	switch kind {
	case None:
		return nullbackend.New(), nil
	case Image:
		fsys := opts.FS
		if fsys == nil {
			fsys = osfilesystem.New()
		}
		return imagebackend.New(fsys), nil
	case Video:
		return videobackend.New(videobackend.Options{
			FFmpegPath: opts.FFmpegPath,
			Logger:     opts.Logger,
			FS:         opts.FS,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
}

// CanOpenImages reports whether backends of kind decode still images.
func CanOpenImages(kind Kind) bool {
	return kind == Image || kind == Video
}

// CanOpenVideos reports whether backends of kind decode video files.
func CanOpenVideos(kind Kind) bool {
	return kind == Video
}

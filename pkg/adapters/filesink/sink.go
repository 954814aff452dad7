// Package filesink provides a file-based frame sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"
	"sync"

	"github.com/user/termvis/pkg/ports"
)

// Sink saves rendered frames and subtitle lines to files.
type Sink struct {
	mu        sync.Mutex
	baseDir   string
	fs        ports.FileSystem
	encoder   ports.ImageEncoder
	format    ports.ImageFormat
	quality   int
	subtitles []string
}

// New creates a new FileSink that writes PNG frames.
func New(baseDir string, fs ports.FileSystem, encoder ports.ImageEncoder) *Sink {
	return &Sink{
		baseDir: baseDir,
		fs:      fs,
		encoder: encoder,
		format:  ports.FormatPNG,
	}
}

// WithJPEG switches frame output to JPEG at the given quality.
func (s *Sink) WithJPEG(quality int) *Sink {
	s.format = ports.FormatJPEG
	s.quality = quality
	return s
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveFrame saves a rendered frame as frames/frame-NNNN.<ext>.
func (s *Sink) SaveFrame(index uint64, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.encoder.EncodeImage(img, s.format, s.quality)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", index, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d.%s", index, s.format))
	return s.fs.WriteFile(path, data)
}

// SaveSubtitle buffers a subtitle line until Flush.
func (s *Sink) SaveSubtitle(index uint64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subtitles = append(s.subtitles, fmt.Sprintf("%d\t%s", index, strings.ReplaceAll(text, "\n", " ")))
	return nil
}

// Flush writes subtitles.txt when any subtitle was saved.
func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subtitles) == 0 {
		return nil
	}
	if err := s.fs.MkdirAll(s.baseDir); err != nil {
		return err
	}
	data := []byte(strings.Join(s.subtitles, "\n") + "\n")
	return s.fs.WriteFile(filepath.Join(s.baseDir, "subtitles.txt"), data)
}

// Ensure Sink implements ports.FrameSink
var _ ports.FrameSink = (*Sink)(nil)

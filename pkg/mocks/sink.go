package mocks

import (
	"image"
	"sync"

	"github.com/user/termvis/pkg/ports"
)

// FrameSink is a mock implementation of ports.FrameSink.
type FrameSink struct {
	mu sync.RWMutex

	enabled bool

	Frames    map[uint64]image.Image
	Subtitles map[uint64]string
	Flushes   int

	SaveFrameErr error
}

// NewFrameSink creates a new mock FrameSink.
func NewFrameSink(enabled bool) *FrameSink {
	return &FrameSink{
		enabled:   enabled,
		Frames:    make(map[uint64]image.Image),
		Subtitles: make(map[uint64]string),
	}
}

func (m *FrameSink) Enabled() bool {
	return m.enabled
}

func (m *FrameSink) SaveFrame(index uint64, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveFrameErr != nil {
		return m.SaveFrameErr
	}
	m.Frames[index] = img
	return nil
}

func (m *FrameSink) SaveSubtitle(index uint64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Subtitles[index] = text
	return nil
}

func (m *FrameSink) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Flushes++
	return nil
}

// FrameCount returns the number of saved frames.
func (m *FrameSink) FrameCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Frames)
}

var _ ports.FrameSink = (*FrameSink)(nil)

// ImageEncoder is a mock implementation of ports.ImageEncoder.
type ImageEncoder struct {
	mu sync.Mutex

	Calls   []ports.ImageFormat
	Quality int

	EncodeImageFunc func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)
}

func (m *ImageEncoder) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, format)
	m.Quality = quality
	m.mu.Unlock()
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

var _ ports.ImageEncoder = (*ImageEncoder)(nil)

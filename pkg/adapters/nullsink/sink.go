// Package nullsink provides a no-op frame sink implementation.
package nullsink

import (
	"image"

	"github.com/user/termvis/pkg/ports"
)

// Sink is a no-op implementation of ports.FrameSink.
// It discards all output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SaveFrame does nothing.
func (s *Sink) SaveFrame(index uint64, img image.Image) error {
	return nil
}

// SaveSubtitle does nothing.
func (s *Sink) SaveSubtitle(index uint64, text string) error {
	return nil
}

// Flush does nothing.
func (s *Sink) Flush() error {
	return nil
}

// Ensure Sink implements ports.FrameSink
var _ ports.FrameSink = (*Sink)(nil)

// Package nullbackend provides a decode backend that opens nothing.
package nullbackend

import (
	"fmt"

	"github.com/user/termvis/pkg/ports"
)

// Backend refuses every open with ports.ErrUnimplemented.
type Backend struct{}

// New creates a null backend.
func New() *Backend {
	return &Backend{}
}

func (b *Backend) Name() string        { return "none" }
func (b *Backend) CanOpenImages() bool { return false }
func (b *Backend) CanOpenVideos() bool { return false }

// Open always fails.
func (b *Backend) Open(path string) (ports.Source, error) {
	return nil, fmt.Errorf("%w: no decode backend for %s", ports.ErrUnimplemented, path)
}

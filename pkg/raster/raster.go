// Package raster provides packed RGBA pixel buffers with explicit ownership.
package raster

import (
	"fmt"
	"image"

	"github.com/user/termvis/pkg/ports"
)

// Ownership tells whether a buffer must be freed by its holder.
type Ownership int

const (
	// Owned buffers were allocated by the holder and are freed by Release.
	Owned Ownership = iota
	// Borrowed buffers belong to someone else. Release never frees them.
	Borrowed
)

// String returns the string representation of the ownership tag.
func (o Ownership) String() string {
	if o == Owned {
		return "owned"
	}
	return "borrowed"
}

// Allocator hands out pixel memory.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(buf []byte)
}

type heapAllocator struct{}

func (heapAllocator) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, ports.ErrOutOfMemory
	}
	return make([]byte, size), nil
}

func (heapAllocator) Free([]byte) {}

// Heap is the default allocator backed by the Go heap.
var Heap Allocator = heapAllocator{}

// Buffer is a row-major packed RGBA raster.
type Buffer struct {
	Pix    []byte
	Stride int
	Width  int
	Height int

	ownership Ownership
	alloc     Allocator
}

// New allocates an owned buffer. The stride must hold width pixels and be
// a multiple of 4.
func New(alloc Allocator, width, height, stride int) (*Buffer, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: raster %dx%d", ports.ErrInvalidArgument, width, height)
	}
	if err := ValidateStride(stride, width); err != nil {
		return nil, err
	}
	if alloc == nil {
		alloc = Heap
	}
	pix, err := alloc.Alloc(stride * height)
	if err != nil {
		return nil, fmt.Errorf("%w: %d bytes", ports.ErrOutOfMemory, stride*height)
	}
	return &Buffer{
		Pix:       pix,
		Stride:    stride,
		Width:     width,
		Height:    height,
		ownership: Owned,
		alloc:     alloc,
	}, nil
}

// Borrow wraps pixels owned elsewhere.
func Borrow(pix []byte, width, height, stride int) *Buffer {
	return &Buffer{
		Pix:       pix,
		Stride:    stride,
		Width:     width,
		Height:    height,
		ownership: Borrowed,
	}
}

// Duplicate copies rows*stride bytes of pix into a new owned buffer.
func Duplicate(alloc Allocator, pix []byte, width, height, stride int) (*Buffer, error) {
	if len(pix) < stride*height {
		return nil, fmt.Errorf("%w: %d bytes for %d rows of %d", ports.ErrInvalidArgument, len(pix), height, stride)
	}
	b, err := New(alloc, width, height, stride)
	if err != nil {
		return nil, err
	}
	copy(b.Pix, pix[:stride*height])
	return b, nil
}

// Ownership returns the buffer's ownership tag.
func (b *Buffer) Ownership() Ownership {
	return b.ownership
}

// View returns a borrowed buffer sharing b's pixels.
func (b *Buffer) View() *Buffer {
	return Borrow(b.Pix, b.Width, b.Height, b.Stride)
}

// Release frees an owned buffer. It is a no-op for borrowed buffers and
// for buffers that were already released.
func (b *Buffer) Release() {
	if b == nil || b.Pix == nil {
		return
	}
	if b.ownership == Owned && b.alloc != nil {
		b.alloc.Free(b.Pix)
	}
	b.Pix = nil
}

// Image exposes the buffer as an *image.RGBA without copying.
func (b *Buffer) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    b.Pix,
		Stride: b.Stride,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// ValidateStride checks that stride is a multiple of 4 and holds cols pixels.
func ValidateStride(stride, cols int) error {
	if stride%4 != 0 {
		return fmt.Errorf("%w: stride %d is not a multiple of 4", ports.ErrInvalidArgument, stride)
	}
	if stride/4 < cols {
		return fmt.Errorf("%w: stride %d too small for %d columns", ports.ErrInvalidArgument, stride, cols)
	}
	return nil
}

// AlignStride rounds width*4 up to a multiple of align bytes.
func AlignStride(width, align int) int {
	stride := width * 4
	if align <= 1 {
		return stride
	}
	return (stride + align - 1) / align * align
}

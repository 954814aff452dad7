package mocks

import (
	"errors"
	"sync"
)

// ErrAllocLimit is returned once an Allocator's limit is reached.
var ErrAllocLimit = errors.New("mocks: allocation limit reached")

// Allocator is a counting allocator for leak and double-free checks.
type Allocator struct {
	mu sync.Mutex

	// Limit caps the number of successful allocations. Zero means no limit.
	Limit int

	Allocs      int
	Frees       int
	DoubleFrees int
	UnknownFree int

	live map[*byte]bool
}

// NewAllocator creates a new counting Allocator.
func NewAllocator() *Allocator {
	return &Allocator{live: make(map[*byte]bool)}
}

func (a *Allocator) Alloc(size int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Limit > 0 && a.Allocs >= a.Limit {
		return nil, ErrAllocLimit
	}
	// Allocate at least one byte so the buffer has an identity.
	buf := make([]byte, size, size+1)
	a.live[&buf[:1][0]] = true
	a.Allocs++
	return buf, nil
}

func (a *Allocator) Free(buf []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if cap(buf) == 0 {
		a.UnknownFree++
		return
	}
	key := &buf[:1][0]
	live, known := a.live[key]
	switch {
	case !known:
		a.UnknownFree++
	case !live:
		a.DoubleFrees++
	default:
		a.live[key] = false
		a.Frees++
	}
}

// Live returns the number of allocations not yet freed.
func (a *Allocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Allocs - a.Frees
}

package mocks

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/user/termvis/pkg/ports"
)

// FileSystem is an in-memory implementation of ports.FileSystem.
type FileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool

	// Opened counts Open calls per path.
	Opened map[string]int

	WriteFileFunc func(path string, data []byte) error
	MkdirAllFunc  func(path string) error
}

// NewFileSystem creates a new mock FileSystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files:  make(map[string][]byte),
		dirs:   make(map[string]bool),
		Opened: make(map[string]int),
	}
}

// AddFile stores a file without going through WriteFileFunc.
func (m *FileSystem) AddFile(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = data
}

func (m *FileSystem) Open(path string) (ports.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Opened[path]++
	data, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrNotFound, path)
	}
	return &memFile{Reader: bytes.NewReader(data)}, nil
}

func (m *FileSystem) ReadFile(path string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if data, ok := m.files[path]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", ports.ErrNotFound, path)
}

func (m *FileSystem) WriteFile(path string, data []byte) error {
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(path, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = data
	return nil
}

func (m *FileSystem) MkdirAll(path string) error {
	if m.MkdirAllFunc != nil {
		return m.MkdirAllFunc(path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[path] = true
	return nil
}

func (m *FileSystem) Exists(path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.files[path] != nil || m.dirs[path], nil
}

// GetFile returns the contents of a file (for test verification).
func (m *FileSystem) GetFile(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[path]
	return data, ok
}

// GetAllFiles returns all files (for test verification).
func (m *FileSystem) GetAllFiles() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string][]byte, len(m.files))
	for k, v := range m.files {
		result[k] = v
	}
	return result
}

// memFile is an open in-memory file.
type memFile struct {
	*bytes.Reader
	closed bool
}

func (f *memFile) Close() error {
	if f.closed {
		return fmt.Errorf("%w: file already closed", ports.ErrInvalidArgument)
	}
	f.closed = true
	return nil
}

var _ ports.FileSystem = (*FileSystem)(nil)

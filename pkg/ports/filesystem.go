package ports

import "io"

// File is an open media file.
type File interface {
	io.ReadSeekCloser
}

// FileSystem abstracts where media is read from and frame dumps are
// written to.
type FileSystem interface {
	// Open opens a file for random access. A missing file yields ErrNotFound.
	Open(path string) (File, error)

	// ReadFile reads the entire contents of a file. A missing file yields
	// ErrNotFound.
	ReadFile(path string) ([]byte, error)

	// WriteFile replaces path with data, creating parent directories.
	WriteFile(path string, data []byte) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string) error

	// Exists checks if a file or directory exists.
	Exists(path string) (bool, error)
}

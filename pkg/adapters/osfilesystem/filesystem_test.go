package osfilesystem

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/user/termvis/pkg/ports"
)

func TestFileSystem_WriteAndReadFile(t *testing.T) {
	fsys := New()
	path := filepath.Join(t.TempDir(), "frames", "frame-0001.png")

	if err := fsys.WriteFile(path, []byte("hello world")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("expected mode 0644, got %v", info.Mode().Perm())
	}
}

func TestFileSystem_WriteFileReplacesWithoutLeftovers(t *testing.T) {
	fsys := New()
	dir := t.TempDir()
	path := filepath.Join(dir, "subtitles.txt")

	if err := fsys.WriteFile(path, []byte("first")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := fsys.WriteFile(path, []byte("second")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "second" {
		t.Errorf("expected replaced content, got %q", data)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestFileSystem_Open(t *testing.T) {
	fsys := New()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("0123456789"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := fsys.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	if _, err := f.Seek(4, io.SeekStart); err != nil {
		t.Fatalf("Seek failed: %v", err)
	}
	buf := make([]byte, 3)
	if _, err := io.ReadFull(f, buf); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(buf) != "456" {
		t.Errorf("expected %q, got %q", "456", buf)
	}
}

func TestFileSystem_MissingFiles(t *testing.T) {
	fsys := New()
	path := filepath.Join(t.TempDir(), "missing")

	if _, err := fsys.Open(path); !errors.Is(err, ports.ErrNotFound) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected ErrNotFound wrapping ErrNotExist, got %v", err)
	}
	if _, err := fsys.ReadFile(path); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	exists, err := fsys.Exists(path)
	if err != nil || exists {
		t.Errorf("expected missing path to not exist, got %v, %v", exists, err)
	}
}

func TestFileSystem_MkdirAll(t *testing.T) {
	fsys := New()
	path := filepath.Join(t.TempDir(), "dump", "frames")

	if err := fsys.MkdirAll(path); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	exists, err := fsys.Exists(path)
	if err != nil || !exists {
		t.Errorf("expected directory to exist, got %v, %v", exists, err)
	}
}

package main

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/termvis/pkg/config"
)

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 40), B: 200, A: 255})
		}
	}
	path := filepath.Join(dir, "input.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create png: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return path
}

func TestSnapshotCommand(t *testing.T) {
	dir := t.TempDir()
	input := writePNG(t, dir, 6, 4)
	out := filepath.Join(dir, "out.png")
	dump := filepath.Join(dir, "dump")

	err := newApp().Run([]string{"termvis", "snapshot", "--backend", "image", "-Q", "-o", out, "--dump-dir", dump, input})
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if cfg.Width != 6 || cfg.Height != 4 {
		t.Errorf("expected 6x4 canvas, got %dx%d", cfg.Width, cfg.Height)
	}

	if _, err := os.Stat(filepath.Join(dump, "frames", "frame-0001.png")); err != nil {
		t.Errorf("expected dumped frame: %v", err)
	}
	summary, err := os.ReadFile(filepath.Join(dump, "summary.md"))
	if err != nil {
		t.Fatalf("expected summary: %v", err)
	}
	if !strings.Contains(string(summary), "snapshot") || !strings.Contains(string(summary), "6x4") {
		t.Errorf("unexpected summary:\n%s", summary)
	}
}

func TestSnapshotCommand_Rotated(t *testing.T) {
	dir := t.TempDir()
	input := writePNG(t, dir, 6, 4)
	out := filepath.Join(dir, "out.png")

	if err := newApp().Run([]string{"termvis", "snapshot", "-b", "image", "-Q", "-o", out, "--rotate", "45", input}); err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if cfg.Width != 6 || cfg.Height != 6 {
		t.Errorf("expected 6x6 bounding square, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestInfoAndCapsCommands(t *testing.T) {
	input := writePNG(t, t.TempDir(), 2, 2)

	if err := newApp().Run([]string{"termvis", "info", "-b", "image", "-Q", input}); err != nil {
		t.Errorf("info failed: %v", err)
	}
	if err := newApp().Run([]string{"termvis", "caps"}); err != nil {
		t.Errorf("caps failed: %v", err)
	}
}

func TestCommandErrors(t *testing.T) {
	input := writePNG(t, t.TempDir(), 2, 2)

	if err := newApp().Run([]string{"termvis", "info", "-Q"}); err == nil {
		t.Error("expected missing FILE to fail")
	}
	if err := newApp().Run([]string{"termvis", "info", "--filter", "box", "-Q", input}); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
	if err := newApp().Run([]string{"termvis", "snapshot", "-b", "none", "-Q", "-o", "out.png", input}); err == nil {
		t.Error("expected the none backend to fail")
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	input := writePNG(t, dir, 2, 2)
	cfgPath := filepath.Join(dir, "termvis.yaml")
	if err := os.WriteFile(cfgPath, []byte("backend: none\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	// The file selects the none backend; the flag wins.
	if err := newApp().Run([]string{"termvis", "info", "-c", cfgPath, "-Q", input}); err == nil {
		t.Error("expected the none backend from the file to fail")
	}
	if err := newApp().Run([]string{"termvis", "info", "-c", cfgPath, "-b", "image", "-Q", input}); err != nil {
		t.Errorf("expected flag override to succeed: %v", err)
	}
}

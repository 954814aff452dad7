package videobackend

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Eyevinn/mp4ff/av1"
	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/termvis/pkg/adapters/ffmpegdecoder"
	"github.com/user/termvis/pkg/mocks"
	"github.com/user/termvis/pkg/ports"
)

func writeAV1MP4(t *testing.T, path string, samples [][]byte) {
	t.Helper()

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(1000, "video", "en")
	trak := init.Moov.Trak
	av1C := &mp4.Av1CBox{CodecConfRec: av1.CodecConfRec{Version: 1, ChromaSubsamplingX: 1, ChromaSubsamplingY: 1}}
	trak.Mdia.Minf.Stbl.Stsd.AddChild(mp4.CreateVisualSampleEntryBox("av01", 32, 16, av1C))

	frag, err := mp4.CreateFragment(1, 1)
	if err != nil {
		t.Fatal(err)
	}
	for i, data := range samples {
		flags := mp4.NonSyncSampleFlags
		if i == 0 {
			flags = mp4.SyncSampleFlags
		}
		frag.AddFullSample(mp4.FullSample{
			Sample:     mp4.Sample{Flags: flags, Size: uint32(len(data)), Dur: 40},
			DecodeTime: uint64(i) * 40,
			Data:       data,
		})
	}

	var buf bytes.Buffer
	if err := mp4.NewFtyp("isom", 0x200, []string{"isom", "av01"}).Encode(&buf); err != nil {
		t.Fatal(err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	if err := frag.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

// fakeFFmpeg creates an executable placeholder so FindFFmpeg succeeds.
func fakeFFmpeg(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 1\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIsMP4(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{"ftyp", []byte{0, 0, 0, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'}, true},
		{"moov", []byte{0, 0, 0, 0x08, 'm', 'o', 'o', 'v'}, true},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, false},
		{"short", []byte{0, 0, 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMP4(tt.data); got != tt.want {
				t.Errorf("IsMP4() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOpenMissing(t *testing.T) {
	_, err := New(Options{}).Open(filepath.Join(t.TempDir(), "nope.mp4"))
	if !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenImageFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.png")
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	img.Set(1, 1, color.White)
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := New(Options{}).Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()
	if s := src.Streams(); len(s) != 1 || s[0].Codec != "png" {
		t.Errorf("unexpected streams %+v", s)
	}
}

func TestOpenMP4WithoutFFmpeg(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	writeAV1MP4(t, path, [][]byte{{1}, {2}})

	New(Options{FFmpegPath: filepath.Join(t.TempDir(), "missing-ffmpeg")})
	defer ffmpegdecoder.SetFFmpegPath("")

	b := New(Options{})
	_, err := b.Open(path)
	if !errors.Is(err, ports.ErrUnimplemented) {
		t.Errorf("expected ErrUnimplemented, got %v", err)
	}
	if !b.CanOpenVideos() || !b.CanOpenImages() {
		t.Error("capabilities must not depend on ffmpeg being installed")
	}
}

func TestOpenMP4Streams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	writeAV1MP4(t, path, [][]byte{{1, 1}, {2}, {3}})

	b := New(Options{FFmpegPath: fakeFFmpeg(t)})
	defer ffmpegdecoder.SetFFmpegPath("")

	src, err := b.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()

	streams := src.Streams()
	if len(streams) != 1 {
		t.Fatalf("expected 1 stream, got %d", len(streams))
	}
	s := streams[0]
	if s.Type != ports.MediaVideo || s.Codec != "av1" || s.Width != 32 || s.Height != 16 {
		t.Errorf("unexpected stream %+v", s)
	}
	if s.TimeBase != (ports.Rational{Num: 1, Den: 1000}) {
		t.Errorf("unexpected time base %+v", s.TimeBase)
	}
	if src.VideoStream() != 0 || src.SubtitleStream() != -1 {
		t.Errorf("unexpected stream selection %d/%d", src.VideoStream(), src.SubtitleStream())
	}

	var pts []int64
	for {
		pkt, err := src.ReadPacket()
		if errors.Is(err, ports.ErrEndOfStream) {
			break
		}
		if err != nil {
			t.Fatalf("ReadPacket failed: %v", err)
		}
		pts = append(pts, pkt.PTS)
		if len(pts) == 1 && !pkt.Keyframe {
			t.Error("first packet should be a keyframe")
		}
	}
	if len(pts) != 3 || pts[2] != 80 {
		t.Errorf("unexpected packet timestamps %v", pts)
	}
}

func TestOpenGarbageMP4(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.mp4")
	data := append([]byte{0, 0, 0, 0x10, 'f', 't', 'y', 'p'}, bytes.Repeat([]byte{0xff}, 4)...)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := New(Options{}).Open(path)
	if !errors.Is(err, ports.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestOpenThroughFileSystem(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	fsys := mocks.NewFileSystem()
	fsys.AddFile("still.png", buf.Bytes())
	fsys.AddFile("broken.mp4", append([]byte{0, 0, 0, 16}, []byte("ftypisom\x00\x00\x00\x00")...))

	b := New(Options{FS: fsys})
	src, err := b.Open("still.png")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	src.Close()
	if fsys.Opened["still.png"] != 1 {
		t.Errorf("expected one sniffing open, got %d", fsys.Opened["still.png"])
	}

	if _, err := b.Open("broken.mp4"); !errors.Is(err, ports.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := b.Open("missing.mp4"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

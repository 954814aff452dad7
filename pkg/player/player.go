// Package player coordinates a decode backend, a visual, the playback
// scheduler and the frame sink for the command-line front end.
package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/user/termvis/pkg/convert"
	"github.com/user/termvis/pkg/playback"
	"github.com/user/termvis/pkg/ports"
	"github.com/user/termvis/pkg/visual"
)

// ErrInterrupted is returned when the context is cancelled mid-playback.
var ErrInterrupted = errors.New("player: interrupted")

// Config contains all configuration for the player.
type Config struct {
	// Placement
	Scale    visual.Scale
	PlaceRow int
	PlaceCol int

	// Decoding
	Filter           convert.Filter
	MaxDecodeRetries int

	// Playback
	Timescale float64
	Subtitles bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Scale:            visual.ScaleScale,
		Filter:           convert.FilterLanczos,
		MaxDecodeRetries: visual.DefaultMaxDecodeRetries,
		Timescale:        1.0,
		Subtitles:        true,
	}
}

// Result summarizes a playback session.
type Result struct {
	Frames      uint64
	Width       int
	Height      int
	Subtitles   int
	Interrupted bool
	Stopped     int
	Elapsed     time.Duration
}

// Info describes an opened file without decoding it.
type Info struct {
	Path           string
	Backend        string
	Streams        []ports.StreamInfo
	VideoStream    int
	SubtitleStream int
}

// CaptureFunc is called with the rendered visual before it is destroyed.
type CaptureFunc func(v *visual.Visual) error

// Player plays files onto a surface context.
type Player struct {
	backend ports.DecodeBackend
	sink    ports.FrameSink
	logger  ports.Logger
	clock   playback.Clock
}

// New creates a new Player.
func New(backend ports.DecodeBackend, sink ports.FrameSink, logger ports.Logger) *Player {
	return &Player{
		backend: backend,
		sink:    sink,
		logger:  logger,
		clock:   playback.WallClock,
	}
}

// WithClock replaces the wall clock used for pacing.
func (p *Player) WithClock(clock playback.Clock) *Player {
	p.clock = clock
	return p
}

func (p *Player) visualOptions(cfg Config) visual.Options {
	return visual.Options{
		Logger:           p.logger.WithComponent("visual"),
		Filter:           cfg.Filter,
		MaxDecodeRetries: cfg.MaxDecodeRetries,
	}
}

// Play streams path onto sc until it ends or ctx is cancelled.
func (p *Player) Play(ctx context.Context, sc ports.SurfaceContext, path string, cfg Config) (Result, error) {
	p.logger.Info("Playing %s with %s backend", path, p.backend.Name())

	v, err := visual.FromFile(sc, p.backend, path, cfg.PlaceRow, cfg.PlaceCol, cfg.Scale, p.visualOptions(cfg))
	if err != nil {
		p.logger.Error("Failed to open %s: %s", path, err)
		return Result{}, fmt.Errorf("open: %w", err)
	}
	defer func() {
		if err := v.Destroy(); err != nil {
			p.logger.Warn("Failed to release visual: %s", err)
		}
	}()

	start := p.clock.Now()
	var result Result
	var lastText string
	interrupted := false
	fn := func(sc ports.SurfaceContext, v *visual.Visual) int {
		select {
		case <-ctx.Done():
			interrupted = true
			return 1
		default:
		}

		if p.sink.Enabled() {
			if err := p.sink.SaveFrame(v.FrameNumber(), v.Image()); err != nil {
				p.logger.Warn("Failed to save frame %d: %s", v.FrameNumber(), err)
			}
		}
		if cfg.Subtitles {
			if text, ok := v.Subtitle(); ok {
				if text != lastText {
					lastText = text
					result.Subtitles++
					p.recordSubtitle(v.FrameNumber(), text)
				}
				p.drawSubtitle(v, text)
			}
		}
		return 0
	}

	r, err := playback.Stream(sc, v, cfg.Timescale, fn, playback.Options{
		Clock:  p.clock,
		Logger: p.logger,
	})

	result.Frames = v.FrameNumber()
	result.Width, result.Height = v.Dims()
	result.Stopped = r
	result.Interrupted = interrupted
	result.Elapsed = p.clock.Now().Sub(start)

	if flushErr := p.sink.Flush(); flushErr != nil {
		p.logger.Warn("Failed to flush frame sink: %s", flushErr)
	}
	if err != nil {
		p.logger.Error("Playback failed after %d frames: %s", result.Frames, err)
		return result, fmt.Errorf("playback: %w", err)
	}
	if interrupted {
		p.logger.Info("Interrupted, stopping playback")
		return result, ErrInterrupted
	}

	p.logger.Info("Played %d frames", result.Frames)
	return result, nil
}

func (p *Player) recordSubtitle(frame uint64, text string) {
	p.logger.Debug("Subtitle at frame %d: %s", frame, text)
	if !p.sink.Enabled() {
		return
	}
	if err := p.sink.SaveSubtitle(frame, text); err != nil {
		p.logger.Warn("Failed to save subtitle: %s", err)
	}
}

// drawSubtitle writes text on the last row of the visual's surface. The
// next blit paints over it, so it is redrawn after every frame.
func (p *Player) drawSubtitle(v *visual.Visual, text string) {
	s := v.Surface()
	ts, ok := s.(ports.TextSurface)
	if !ok {
		return
	}
	rows, _ := s.Dims()
	if err := ts.PutText(rows-1, 0, text); err != nil {
		p.logger.Debug("Failed to draw subtitle: %s", err)
	}
}

// Snapshot decodes the first frame of path, optionally rotates it, renders
// it onto sc and hands the visual to capture.
func (p *Player) Snapshot(ctx context.Context, sc ports.SurfaceContext, path string, radians float64, cfg Config, capture CaptureFunc) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	start := p.clock.Now()

	v, err := visual.FromFile(sc, p.backend, path, cfg.PlaceRow, cfg.PlaceCol, cfg.Scale, p.visualOptions(cfg))
	if err != nil {
		p.logger.Error("Failed to open %s: %s", path, err)
		return Result{}, fmt.Errorf("open: %w", err)
	}
	defer func() {
		if err := v.Destroy(); err != nil {
			p.logger.Warn("Failed to release visual: %s", err)
		}
	}()

	if err := v.Decode(); err != nil {
		return Result{}, fmt.Errorf("decode first frame: %w", err)
	}
	if radians != 0 {
		if err := v.Rotate(radians); err != nil {
			return Result{}, fmt.Errorf("rotate: %w", err)
		}
	}
	if _, err := v.Render(0, 0, -1, -1); err != nil {
		return Result{}, fmt.Errorf("render: %w", err)
	}

	result := Result{Frames: v.FrameNumber()}
	result.Width, result.Height = v.Dims()
	result.Elapsed = p.clock.Now().Sub(start)

	if p.sink.Enabled() {
		if err := p.sink.SaveFrame(v.FrameNumber(), v.Image()); err != nil {
			p.logger.Warn("Failed to save frame %d: %s", v.FrameNumber(), err)
		}
	}
	if capture != nil {
		if err := capture(v); err != nil {
			return result, fmt.Errorf("capture: %w", err)
		}
	}
	if err := p.sink.Flush(); err != nil {
		p.logger.Warn("Failed to flush frame sink: %s", err)
	}

	p.logger.Info("Snapshot of %s: %dx%d", path, result.Width, result.Height)
	return result, nil
}

// Probe opens path and reports its streams.
func (p *Player) Probe(path string) (Info, error) {
	src, err := p.backend.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	return Info{
		Path:           path,
		Backend:        p.backend.Name(),
		Streams:        src.Streams(),
		VideoStream:    src.VideoStream(),
		SubtitleStream: src.SubtitleStream(),
	}, nil
}

// VideoInfo returns the designated video stream of info.
func (i Info) VideoInfo() (ports.StreamInfo, bool) {
	for _, s := range i.Streams {
		if s.Index == i.VideoStream {
			return s, true
		}
	}
	return ports.StreamInfo{}, false
}

// Package playback paces decode and render cycles of a visual against the
// wall clock.
package playback

import (
	"errors"
	"fmt"
	"time"

	"github.com/user/termvis/pkg/adapters/logger"
	"github.com/user/termvis/pkg/ports"
	"github.com/user/termvis/pkg/visual"
)

// Clock abstracts time for the scheduler.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type wallClock struct{}

func (wallClock) Now() time.Time        { return time.Now() }
func (wallClock) Sleep(d time.Duration) { time.Sleep(d) }

// WallClock is the real-time clock.
var WallClock Clock = wallClock{}

// FrameFunc is called after every rendered frame. A non-zero return stops
// the session and becomes its result.
type FrameFunc func(sc ports.SurfaceContext, v *visual.Visual) int

// Options tunes a streaming session.
type Options struct {
	Clock  Clock
	Logger ports.Logger
}

// session is the scheduler-local state of one Stream call.
type session struct {
	start         time.Time
	decided       bool
	useTimestamps bool
	sumDuration   time.Duration
	frames        int
}

// deadline returns when the current frame's display period ends.
func (s *session) deadline(t visual.Timing, timescale float64) time.Time {
	if !s.decided {
		s.useTimestamps = t.HasPTS && t.PTS != 0 && t.TimeBase > 0
		s.decided = true
	}
	if s.useTimestamps {
		return s.start.Add(seconds(float64(t.PTS) * t.TimeBase * timescale))
	}
	s.sumDuration += seconds(float64(t.Duration) * t.TimeBase * timescale)
	return s.start.Add(s.sumDuration)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Stream decodes and renders v frame by frame until the source ends, an
// error occurs, or fn returns non-zero. Frames are never skipped. When
// output falls behind the deadline the next frame follows immediately.
//
// It returns (0, nil) at end of stream, (r, nil) when fn returned r != 0,
// and (-1, err) on failure.
func Stream(sc ports.SurfaceContext, v *visual.Visual, timescale float64, fn FrameFunc, opts Options) (int, error) {
	if v == nil {
		return -1, fmt.Errorf("%w: no visual", ports.ErrInvalidArgument)
	}
	clock := opts.Clock
	if clock == nil {
		clock = WallClock
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	log = log.WithComponent("playback")

	v.SetTimescale(timescale)
	s := &session{start: clock.Now()}
	for {
		if err := v.Decode(); err != nil {
			if errors.Is(err, ports.ErrEndOfStream) {
				log.Debug("Stream ended after %d frames", s.frames)
				return 0, nil
			}
			return -1, err
		}
		if _, err := v.Render(0, 0, -1, -1); err != nil {
			return -1, fmt.Errorf("render frame %d: %w", v.FrameNumber(), err)
		}
		s.frames++
		if fn != nil {
			if r := fn(sc, v); r != 0 {
				log.Debug("Stream stopped by callback at frame %d", s.frames)
				return r, nil
			}
		}

		deadline := s.deadline(v.Timing(), v.Timescale())
		if wait := deadline.Sub(clock.Now()); wait > 0 {
			clock.Sleep(wait)
		}
	}
}

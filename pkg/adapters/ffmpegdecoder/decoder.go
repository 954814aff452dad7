// Package ffmpegdecoder decodes H.264, HEVC and AV1 samples through one
// long-running ffmpeg process per stream.
//
// Samples are written to ffmpeg's stdin as an elementary stream when they
// are sent. A reader goroutine collects fixed-size yuv420p pictures from
// its stdout, so every picture is decoded exactly once.
package ffmpegdecoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/user/termvis/pkg/adapters/mp4demux"
	"github.com/user/termvis/pkg/ports"
)

var (
	// ErrUnsupportedCodec is returned for tracks ffmpeg is not asked to decode.
	ErrUnsupportedCodec = errors.New("ffmpegdecoder: unsupported codec")

	// ErrNoDimensions is returned when the sample entry carries no picture size.
	ErrNoDimensions = errors.New("ffmpegdecoder: track has no dimensions")

	// ErrDrained is returned when a packet is sent after draining started.
	ErrDrained = errors.New("ffmpegdecoder: decoder is draining")

	// ErrExited is returned when ffmpeg stops before its input was closed.
	ErrExited = errors.New("ffmpegdecoder: ffmpeg exited before input ended")
)

const (
	// DefaultLookahead is how many pictures ffmpeg may hold back before
	// Receive waits for output. It covers H.264 reordering delay.
	DefaultLookahead = 32

	// DefaultPictureTimeout bounds a wait for a picture that ffmpeg owes.
	DefaultPictureTimeout = 2 * time.Second
)

// av1TemporalDelimiter starts every temporal unit of an OBU stream.
var av1TemporalDelimiter = []byte{0x12, 0x00}

// Picture is one decoded frame.
type Picture struct {
	Image    *image.YCbCr
	PTS      int64
	Duration int64
}

type timing struct {
	pts int64
	dur int64
}

// pipeline is a started ffmpeg process.
type pipeline struct {
	stdin  io.WriteCloser
	stdout io.Reader
	// wait reaps the process once stdout is exhausted.
	wait func() error
	// kill stops the process early.
	kill func() error
}

// startFunc launches ffmpeg with args.
type startFunc func(ffmpegPath string, args []string) (*pipeline, error)

// Decoder decodes one video track. Send and Receive must be called from a
// single goroutine.
type Decoder struct {
	ffmpegPath string
	codec      mp4demux.Codec
	format     string
	width      int
	height     int
	header     []byte

	start     startFunc
	lookahead int
	timeout   time.Duration

	proc     *pipeline
	draining bool
	closed   bool

	// pending holds timings of sent samples in presentation order.
	pending []timing

	mu       sync.Mutex
	pictures [][]byte
	produced int
	exited   bool
	readErr  error
	notify   chan struct{}
	done     chan struct{}
}

// New creates a decoder for a video track of an MP4 file. ffmpeg is
// started by the first Send.
func New(ffmpegPath string, track mp4demux.Track) (*Decoder, error) {
	d := &Decoder{
		ffmpegPath: ffmpegPath,
		codec:      track.Codec,
		width:      track.Width,
		height:     track.Height,
		start:      startFFmpeg,
		lookahead:  DefaultLookahead,
		timeout:    DefaultPictureTimeout,
		notify:     make(chan struct{}, 1),
	}

	switch track.Codec {
	case mp4demux.CodecH264:
		d.format = "h264"
	case mp4demux.CodecHEVC:
		d.format = "hevc"
	case mp4demux.CodecAV1:
		d.format = "obu"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, track.Codec)
	}
	if track.Width <= 0 || track.Height <= 0 {
		return nil, ErrNoDimensions
	}

	if track.Codec == mp4demux.CodecAV1 {
		d.header = append(d.header, av1TemporalDelimiter...)
		d.header = append(d.header, track.ConfigOBUs...)
	} else {
		for _, ps := range track.ParamSets {
			d.header = append(d.header, 0, 0, 0, 1)
			d.header = append(d.header, ps...)
		}
	}
	return d, nil
}

// Send writes one sample to ffmpeg. A nil data slice closes ffmpeg's
// input and starts draining.
func (d *Decoder) Send(data []byte, pts, duration int64, keyframe bool) error {
	if d.draining || d.closed {
		return ErrDrained
	}
	if data == nil {
		d.draining = true
		if d.proc != nil {
			if err := d.proc.stdin.Close(); err != nil {
				return fmt.Errorf("close ffmpeg input: %w", err)
			}
		}
		return nil
	}

	if d.proc == nil {
		if err := d.launch(); err != nil {
			return err
		}
	}

	var unit []byte
	switch {
	case keyframe:
		unit = append(unit, d.header...)
	case d.codec == mp4demux.CodecAV1:
		unit = append(unit, av1TemporalDelimiter...)
	}
	if d.codec == mp4demux.CodecAV1 {
		unit = append(unit, data...)
	} else {
		unit = append(unit, LengthPrefixedToAnnexB(data)...)
	}

	if _, err := d.proc.stdin.Write(unit); err != nil {
		if rerr := d.failure(); rerr != nil {
			return rerr
		}
		return fmt.Errorf("write to ffmpeg: %w", err)
	}
	d.addTiming(timing{pts: pts, dur: duration})
	return nil
}

// Receive returns the next decoded picture.
// It returns ports.ErrWouldBlock when more samples are needed and
// ports.ErrEndOfStream once draining has delivered everything.
// While more than the lookahead of sent samples are still undecoded it
// waits for ffmpeg, up to the picture timeout.
func (d *Decoder) Receive() (*Picture, error) {
	if d.closed || (d.proc == nil && d.draining) {
		return nil, ports.ErrEndOfStream
	}
	if d.proc == nil {
		return nil, ports.ErrWouldBlock
	}

	var timer <-chan time.Time
	for {
		if pic, ok := d.pop(); ok {
			return pic, nil
		}

		d.mu.Lock()
		queued, exited, readErr := len(d.pictures), d.exited, d.readErr
		d.mu.Unlock()
		if queued > 0 {
			continue
		}
		if readErr != nil {
			return nil, readErr
		}
		if exited {
			if !d.draining {
				return nil, ErrExited
			}
			return nil, ports.ErrEndOfStream
		}
		if !d.draining && len(d.pending) <= d.lookahead {
			return nil, ports.ErrWouldBlock
		}

		if timer == nil && !d.draining {
			t := time.NewTimer(d.timeout)
			defer t.Stop()
			timer = t.C
		}
		select {
		case <-d.notify:
		case <-timer:
			// ffmpeg dropped a picture it could not decode.
			d.pending = d.pending[1:]
			return nil, ports.ErrWouldBlock
		}
	}
}

// Close stops ffmpeg and drops everything still buffered.
func (d *Decoder) Close() {
	if d.closed {
		return
	}
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	if d.proc == nil {
		return
	}
	d.proc.stdin.Close()
	d.proc.kill()
	<-d.done
}

func (d *Decoder) launch() error {
	proc, err := d.start(d.ffmpegPath, d.args())
	if err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	d.proc = proc
	d.done = make(chan struct{})
	go d.readPictures(proc)
	return nil
}

// readPictures collects pictures from ffmpeg's stdout until it closes.
func (d *Decoder) readPictures(proc *pipeline) {
	defer close(d.done)
	size := d.width*d.height + 2*chromaSize(d.width, d.height)
	for {
		buf := make([]byte, size)
		_, err := io.ReadFull(proc.stdout, buf)
		if err != nil {
			werr := proc.wait()
			d.mu.Lock()
			d.exited = true
			switch {
			case d.closed:
			case !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF):
				d.readErr = fmt.Errorf("read ffmpeg output: %w", err)
			case werr != nil && d.produced == 0:
				d.readErr = werr
			}
			d.mu.Unlock()
			d.signal()
			return
		}
		d.mu.Lock()
		d.pictures = append(d.pictures, buf)
		d.produced++
		d.mu.Unlock()
		d.signal()
	}
}

func (d *Decoder) signal() {
	select {
	case d.notify <- struct{}{}:
	default:
	}
}

// pop takes the oldest decoded picture and pairs it with the earliest
// pending timing.
func (d *Decoder) pop() (*Picture, bool) {
	d.mu.Lock()
	if len(d.pictures) == 0 {
		d.mu.Unlock()
		return nil, false
	}
	buf := d.pictures[0]
	d.pictures = d.pictures[1:]
	d.mu.Unlock()

	var t timing
	if len(d.pending) > 0 {
		t = d.pending[0]
		d.pending = d.pending[1:]
	}
	return &Picture{
		Image:    wrapYUV420(buf, d.width, d.height),
		PTS:      t.pts,
		Duration: t.dur,
	}, true
}

// addTiming inserts t keeping pending sorted by presentation time.
func (d *Decoder) addTiming(t timing) {
	i := sort.Search(len(d.pending), func(i int) bool {
		return d.pending[i].pts > t.pts
	})
	d.pending = append(d.pending, timing{})
	copy(d.pending[i+1:], d.pending[i:])
	d.pending[i] = t
}

// failure stops ffmpeg and returns the reader's error.
func (d *Decoder) failure() error {
	d.proc.kill()
	<-d.done
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readErr
}

func (d *Decoder) args() []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-threads", "1",
		"-f", d.format,
		"-i", "pipe:0",
		"-fps_mode", "passthrough",
		"-f", "rawvideo",
		"-pix_fmt", "yuv420p",
		"pipe:1",
	}
}

func startFFmpeg(ffmpegPath string, args []string) (*pipeline, error) {
	var stderr bytes.Buffer
	cmd := exec.Command(ffmpegPath, args...)
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &pipeline{
		stdin:  stdin,
		stdout: stdout,
		wait: func() error {
			if err := cmd.Wait(); err != nil {
				return fmt.Errorf("ffmpeg decode failed: %w\nstderr: %s", err, stderr.String())
			}
			return nil
		},
		kill: func() error {
			return cmd.Process.Kill()
		},
	}, nil
}

func chromaSize(width, height int) int {
	return ((width + 1) / 2) * ((height + 1) / 2)
}

// wrapYUV420 views a packed yuv420p buffer as an image without copying.
func wrapYUV420(buf []byte, width, height int) *image.YCbCr {
	ySize := width * height
	cSize := chromaSize(width, height)
	return &image.YCbCr{
		Y:              buf[:ySize],
		Cb:             buf[ySize : ySize+cSize],
		Cr:             buf[ySize+cSize : ySize+2*cSize],
		YStride:        width,
		CStride:        (width + 1) / 2,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		Rect:           image.Rect(0, 0, width, height),
	}
}

// LengthPrefixedToAnnexB converts 4-byte length-prefixed NAL units to
// start-code-prefixed Annex B.
func LengthPrefixedToAnnexB(data []byte) []byte {
	var result []byte
	offset := 0

	for offset+4 <= len(data) {
		naluLen := int(data[offset])<<24 | int(data[offset+1])<<16 |
			int(data[offset+2])<<8 | int(data[offset+3])
		offset += 4

		if naluLen < 0 || offset+naluLen > len(data) {
			break
		}

		result = append(result, 0, 0, 0, 1)
		result = append(result, data[offset:offset+naluLen]...)
		offset += naluLen
	}

	return result
}

package mocks

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/user/termvis/pkg/ports"
)

// Backend is a mock implementation of ports.DecodeBackend.
type Backend struct {
	mu sync.Mutex

	Images bool
	Videos bool

	// Sources maps a path to the source returned by Open.
	Sources map[string]*Source
	Opened  []string

	OpenFunc func(path string) (ports.Source, error)
}

// NewBackend creates a mock backend with both capabilities.
func NewBackend() *Backend {
	return &Backend{Images: true, Videos: true, Sources: make(map[string]*Source)}
}

func (b *Backend) Name() string        { return "mock" }
func (b *Backend) CanOpenImages() bool { return b.Images }
func (b *Backend) CanOpenVideos() bool { return b.Videos }

func (b *Backend) Open(path string) (ports.Source, error) {
	b.mu.Lock()
	b.Opened = append(b.Opened, path)
	b.mu.Unlock()
	if b.OpenFunc != nil {
		return b.OpenFunc(path)
	}
	src, ok := b.Sources[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrNotFound, path)
	}
	return src, nil
}

// Source is a synthetic ports.Source that serves pre-built frames.
type Source struct {
	mu sync.Mutex

	Frames   []ports.Frame
	TimeBase ports.Rational

	// Cues maps a frame index to a subtitle cue emitted just before it.
	Cues map[int]*ports.SubtitleCue

	// PacketsPerFrame is the number of video packets the decoder needs
	// before each frame comes out. Zero means one.
	PacketsPerFrame int

	// OtherStreamPackets inserts packets of an unrelated stream before
	// every video packet.
	OtherStreamPackets int

	// ReadErr, SendErr, and ReceiveErr force hard failures when set.
	ReadErr    error
	SendErr    error
	ReceiveErr error

	Closed          int
	Released        int
	SubtitleDecodes int

	packets  []*ports.Packet
	next     int
	sent     int
	queued   []int
	draining bool
	built    bool
}

const (
	mockVideoStream    = 0
	mockSubtitleStream = 1
	mockOtherStream    = 2
)

// NewSource creates a source of n solid-colour RGBA frames of w x h
// pixels, each lasting duration time base units and without timestamps.
func NewSource(n, w, h int, duration int64, tb ports.Rational) *Source {
	s := &Source{TimeBase: tb, Cues: make(map[int]*ports.SubtitleCue)}
	for i := 0; i < n; i++ {
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		c := color.RGBA{R: uint8(i * 20), G: uint8(255 - i*20), B: uint8(i), A: 255}
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p], img.Pix[p+1], img.Pix[p+2], img.Pix[p+3] = c.R, c.G, c.B, c.A
		}
		s.Frames = append(s.Frames, ports.Frame{
			Image:    img,
			Format:   ports.PixelFormatRGBA,
			Duration: duration,
		})
	}
	return s
}

// WithTimestamps sets frame i's PTS to (i+offset)*duration.
func (s *Source) WithTimestamps(offset int64) *Source {
	for i := range s.Frames {
		s.Frames[i].PTS = (int64(i) + offset) * s.Frames[i].Duration
		s.Frames[i].HasPTS = true
	}
	return s
}

func (s *Source) Streams() []ports.StreamInfo {
	var w, h int
	if len(s.Frames) > 0 {
		w, h = s.Frames[0].Width(), s.Frames[0].Height()
	}
	return []ports.StreamInfo{
		{Index: mockVideoStream, Type: ports.MediaVideo, Codec: "synthetic", Width: w, Height: h, TimeBase: s.TimeBase},
		{Index: mockSubtitleStream, Type: ports.MediaSubtitle, Codec: "synthetic", TimeBase: s.TimeBase},
		{Index: mockOtherStream, Type: ports.MediaOther, Codec: "data", TimeBase: s.TimeBase},
	}
}

func (s *Source) VideoStream() int    { return mockVideoStream }
func (s *Source) SubtitleStream() int { return mockSubtitleStream }

func (s *Source) perFrame() int {
	if s.PacketsPerFrame <= 0 {
		return 1
	}
	return s.PacketsPerFrame
}

func (s *Source) build() {
	for i := range s.Frames {
		if _, ok := s.Cues[i]; ok {
			s.packets = append(s.packets, &ports.Packet{StreamIndex: mockSubtitleStream, Data: []byte{byte(i)}})
		}
		for p := 0; p < s.perFrame(); p++ {
			for o := 0; o < s.OtherStreamPackets; o++ {
				s.packets = append(s.packets, &ports.Packet{StreamIndex: mockOtherStream})
			}
			s.packets = append(s.packets, &ports.Packet{
				StreamIndex: mockVideoStream,
				Data:        []byte{byte(i), byte(p)},
				Keyframe:    p == 0,
			})
		}
	}
	s.built = true
}

func (s *Source) ReadPacket() (*ports.Packet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReadErr != nil {
		return nil, s.ReadErr
	}
	if !s.built {
		s.build()
	}
	if s.next >= len(s.packets) {
		return nil, ports.ErrEndOfStream
	}
	pkt := s.packets[s.next]
	s.next++
	return pkt, nil
}

func (s *Source) SendPacket(pkt *ports.Packet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SendErr != nil {
		return s.SendErr
	}
	if pkt == nil {
		s.draining = true
		return nil
	}
	s.sent++
	if s.sent%s.perFrame() == 0 {
		s.queued = append(s.queued, s.sent/s.perFrame()-1)
	}
	return nil
}

func (s *Source) ReceiveFrame() (*ports.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ReceiveErr != nil {
		return nil, s.ReceiveErr
	}
	if len(s.queued) == 0 {
		if s.draining {
			return nil, ports.ErrEndOfStream
		}
		return nil, ports.ErrWouldBlock
	}
	idx := s.queued[0]
	s.queued = s.queued[1:]
	f := s.Frames[idx]
	f.OnRelease = func() {
		s.mu.Lock()
		s.Released++
		s.mu.Unlock()
	}
	return &f, nil
}

func (s *Source) DecodeSubtitle(pkt *ports.Packet) (*ports.SubtitleCue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SubtitleDecodes++
	if len(pkt.Data) == 0 {
		return nil, nil
	}
	return s.Cues[int(pkt.Data[0])], nil
}

func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed++
	return nil
}

var (
	_ ports.DecodeBackend = (*Backend)(nil)
	_ ports.Source        = (*Source)(nil)
)

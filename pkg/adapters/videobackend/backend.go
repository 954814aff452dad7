// Package videobackend opens MP4 files through mp4demux and an ffmpeg
// decoder, and falls back to imagebackend for everything else.
package videobackend

import (
	"errors"
	"fmt"
	"io"

	"github.com/user/termvis/pkg/adapters/ffmpegdecoder"
	"github.com/user/termvis/pkg/adapters/imagebackend"
	"github.com/user/termvis/pkg/adapters/logger"
	"github.com/user/termvis/pkg/adapters/mp4demux"
	"github.com/user/termvis/pkg/adapters/osfilesystem"
	"github.com/user/termvis/pkg/ports"
)

// Options configures the video backend.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string

	// Logger receives per-track details. Defaults to a no-op logger.
	Logger ports.Logger

	// FS is where media is read from. Defaults to the OS filesystem.
	FS ports.FileSystem
}

// Backend decodes videos and images.
type Backend struct {
	fs     ports.FileSystem
	images *imagebackend.Backend
	log    ports.Logger
}

// New creates a video backend.
func New(opts Options) *Backend {
	if opts.FFmpegPath != "" {
		ffmpegdecoder.SetFFmpegPath(opts.FFmpegPath)
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNoop()
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = osfilesystem.New()
	}
	return &Backend{fs: fsys, images: imagebackend.New(fsys), log: log}
}

func (b *Backend) Name() string        { return "video" }
func (b *Backend) CanOpenImages() bool { return true }

// CanOpenVideos is fixed for the backend kind. Opening an MP4 without an
// ffmpeg executable fails with ports.ErrUnimplemented.
func (b *Backend) CanOpenVideos() bool { return true }

// Open opens an MP4 file as a video source. Other files are opened as images.
func (b *Backend) Open(path string) (ports.Source, error) {
	f, err := b.fs.Open(path)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	head := make([]byte, 12)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		f.Close()
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !IsMP4(head[:n]) {
		f.Close()
		return b.images.Open(path)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek %s: %w", path, err)
	}
	src, err := b.openMP4(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return src, nil
}

// IsMP4 reports whether data starts with an ISO BMFF top-level box.
func IsMP4(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	switch string(data[4:8]) {
	case "ftyp", "moov", "styp", "mdat":
		return true
	}
	return false
}

func (b *Backend) openMP4(f ports.File) (*mp4Source, error) {
	demux, err := mp4demux.Open(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrUnsupportedFormat, err)
	}

	demuxLog := b.log.WithComponent("mp4demux")
	for _, tr := range demux.Tracks() {
		demuxLog.Debug("Track %d: %s %dx%d, timescale %d", tr.ID, tr.Codec, tr.Width, tr.Height, tr.Timescale)
	}

	s := &mp4Source{file: f, demux: demux, video: -1, subtitle: -1}
	for _, tr := range demux.Tracks() {
		s.streams = append(s.streams, streamInfo(tr))
		switch {
		case s.video < 0 && tr.Kind == mp4demux.KindVideo && decodable(tr):
			s.video = tr.Index
		case s.subtitle < 0 && tr.Kind == mp4demux.KindSubtitle &&
			(tr.Codec == mp4demux.CodecTx3g || tr.Codec == mp4demux.CodecWebVTT):
			s.subtitle = tr.Index
			s.subtitleCodec = tr.Codec
		}
	}
	if s.video < 0 {
		return nil, fmt.Errorf("%w: no decodable video track", ports.ErrUnsupportedFormat)
	}

	ffmpegPath, err := ffmpegdecoder.FindFFmpeg()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrUnimplemented, err)
	}
	b.log.WithComponent("ffmpeg").Debug("Decoding with %s", ffmpegPath)
	s.dec, err = ffmpegdecoder.New(ffmpegPath, demux.Tracks()[s.video])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrUnsupportedFormat, err)
	}
	return s, nil
}

func decodable(tr mp4demux.Track) bool {
	switch tr.Codec {
	case mp4demux.CodecH264, mp4demux.CodecHEVC, mp4demux.CodecAV1:
		return tr.Width > 0 && tr.Height > 0
	}
	return false
}

func streamInfo(tr mp4demux.Track) ports.StreamInfo {
	info := ports.StreamInfo{
		Index:    tr.Index,
		Codec:    string(tr.Codec),
		Width:    tr.Width,
		Height:   tr.Height,
		TimeBase: ports.Rational{Num: 1, Den: int64(tr.Timescale)},
	}
	switch tr.Kind {
	case mp4demux.KindVideo:
		info.Type = ports.MediaVideo
	case mp4demux.KindSubtitle:
		info.Type = ports.MediaSubtitle
	default:
		info.Type = ports.MediaOther
	}
	return info
}

type mp4Source struct {
	file          ports.File
	demux         *mp4demux.Demuxer
	dec           *ffmpegdecoder.Decoder
	streams       []ports.StreamInfo
	video         int
	subtitle      int
	subtitleCodec mp4demux.Codec
}

func (s *mp4Source) Streams() []ports.StreamInfo { return s.streams }
func (s *mp4Source) VideoStream() int            { return s.video }
func (s *mp4Source) SubtitleStream() int         { return s.subtitle }

func (s *mp4Source) ReadPacket() (*ports.Packet, error) {
	sample, err := s.demux.Next()
	if errors.Is(err, io.EOF) {
		return nil, ports.ErrEndOfStream
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrDecode, err)
	}
	return &ports.Packet{
		StreamIndex: sample.Track,
		Data:        sample.Data,
		PTS:         sample.PTS,
		DTS:         int64(sample.DecodeTime),
		Duration:    int64(sample.Dur),
		Keyframe:    sample.Keyframe,
	}, nil
}

func (s *mp4Source) SendPacket(pkt *ports.Packet) error {
	var err error
	if pkt == nil {
		err = s.dec.Send(nil, 0, 0, false)
	} else {
		err = s.dec.Send(pkt.Data, pkt.PTS, pkt.Duration, pkt.Keyframe)
	}
	if err != nil && !errors.Is(err, ports.ErrWouldBlock) {
		return fmt.Errorf("%w: %w", ports.ErrDecode, err)
	}
	return err
}

func (s *mp4Source) ReceiveFrame() (*ports.Frame, error) {
	pic, err := s.dec.Receive()
	if err != nil {
		if errors.Is(err, ports.ErrWouldBlock) || errors.Is(err, ports.ErrEndOfStream) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ports.ErrDecode, err)
	}
	return &ports.Frame{
		Image:    pic.Image,
		Format:   ports.PixelFormatYUV420P,
		PTS:      pic.PTS,
		HasPTS:   true,
		Duration: pic.Duration,
	}, nil
}

func (s *mp4Source) DecodeSubtitle(pkt *ports.Packet) (*ports.SubtitleCue, error) {
	if pkt.StreamIndex != s.subtitle {
		return nil, fmt.Errorf("%w: stream %d is not the subtitle stream", ports.ErrInvalidArgument, pkt.StreamIndex)
	}
	text, err := mp4demux.SampleText(s.subtitleCodec, pkt.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrDecode, err)
	}
	cue := &ports.SubtitleCue{PTS: pkt.PTS}
	if text != "" {
		cue.Rects = []ports.SubtitleRect{{Type: ports.SubtitleText, Text: text}}
	}
	return cue, nil
}

func (s *mp4Source) Close() error {
	if s.dec != nil {
		s.dec.Close()
	}
	return s.file.Close()
}

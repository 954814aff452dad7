// Package mp4demux reads video and timed-text samples from ISO BMFF (MP4)
// files. Both progressive and fragmented layouts are supported.
package mp4demux

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/Eyevinn/mp4ff/mp4"
)

var (
	// ErrNoTracks is returned when a file has neither a moov box nor an init segment.
	ErrNoTracks = errors.New("mp4demux: no tracks found")

	// ErrNoSampleTable is returned when a progressive track lacks a usable stbl.
	ErrNoSampleTable = errors.New("mp4demux: no sample table")
)

// Codec identifies the coding of a track's samples.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecHEVC    Codec = "hevc"
	CodecAV1     Codec = "av1"
	CodecTx3g    Codec = "tx3g"
	CodecWebVTT  Codec = "wvtt"
	CodecUnknown Codec = "unknown"
)

// Kind classifies a track by its handler.
type Kind int

const (
	KindOther Kind = iota
	KindVideo
	KindSubtitle
)

// Track describes one track of the file.
type Track struct {
	// Index is the position of the track in Tracks().
	Index     int
	ID        uint32
	Kind      Kind
	Codec     Codec
	Width     int
	Height    int
	Timescale uint32

	// ParamSets holds raw parameter set NAL units (VPS/SPS/PPS) for
	// H.264 and HEVC, without start codes or length prefixes.
	ParamSets [][]byte

	// ConfigOBUs holds the AV1 configuration OBUs from the av1C box.
	ConfigOBUs []byte
}

// Sample is one access unit of a track.
type Sample struct {
	Track      int
	Data       []byte
	DecodeTime uint64
	PTS        int64
	Dur        uint32
	Keyframe   bool
}

// sampleRef locates a sample. Data is nil for progressive files until read.
type sampleRef struct {
	offset uint64
	size   uint32
	sample Sample
}

// Demuxer yields the samples of every track in file order.
type Demuxer struct {
	reader io.ReadSeeker
	tracks []Track
	refs   []sampleRef
	next   int
}

// Open parses the file structure and indexes every sample.
func Open(reader io.ReadSeeker) (*Demuxer, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}

	d := &Demuxer{reader: reader}
	if mp4File.IsFragmented() {
		err = d.indexFragmented(mp4File)
	} else {
		err = d.indexProgressive(mp4File)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Tracks returns every track in the file.
func (d *Demuxer) Tracks() []Track {
	return d.tracks
}

// Next returns the next sample in file order, or io.EOF.
func (d *Demuxer) Next() (*Sample, error) {
	if d.next >= len(d.refs) {
		return nil, io.EOF
	}
	ref := &d.refs[d.next]
	d.next++

	sample := ref.sample
	if sample.Data == nil {
		data, err := d.readAt(ref.offset, ref.size)
		if err != nil {
			return nil, err
		}
		sample.Data = data
	}
	return &sample, nil
}

// Rewind restarts iteration from the first sample.
func (d *Demuxer) Rewind() {
	d.next = 0
}

func (d *Demuxer) readAt(offset uint64, size uint32) ([]byte, error) {
	if _, err := d.reader.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to sample: %w", err)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(d.reader, data); err != nil {
		return nil, fmt.Errorf("read sample: %w", err)
	}
	return data, nil
}

func (d *Demuxer) indexProgressive(mp4File *mp4.File) error {
	if mp4File.Moov == nil {
		return ErrNoTracks
	}

	for _, trak := range mp4File.Moov.Traks {
		track := describeTrack(trak, len(d.tracks))
		d.tracks = append(d.tracks, track)
		if track.Kind == KindOther {
			continue
		}

		if trak.Mdia == nil || trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil {
			return fmt.Errorf("%w: track %d", ErrNoSampleTable, track.ID)
		}
		stbl := trak.Mdia.Minf.Stbl
		if stbl.Stsz == nil {
			return fmt.Errorf("%w: track %d has no stsz", ErrNoSampleTable, track.ID)
		}

		syncSamples := make(map[uint32]bool)
		if stbl.Stss != nil {
			for _, sampleNr := range stbl.Stss.SampleNumber {
				syncSamples[sampleNr] = true
			}
		}

		for sampleNr := uint32(1); sampleNr <= stbl.Stsz.SampleNumber; sampleNr++ {
			offset, size, err := sampleLocation(stbl, sampleNr)
			if err != nil {
				return fmt.Errorf("track %d sample %d: %w", track.ID, sampleNr, err)
			}

			var decodeTime uint64
			var dur uint32
			if stbl.Stts != nil {
				decodeTime, dur = stbl.Stts.GetDecodeTime(sampleNr)
			}
			pts := int64(decodeTime)
			if stbl.Ctts != nil {
				pts += int64(stbl.Ctts.GetCompositionTimeOffset(sampleNr))
			}

			d.refs = append(d.refs, sampleRef{
				offset: offset,
				size:   size,
				sample: Sample{
					Track:      track.Index,
					DecodeTime: decodeTime,
					PTS:        pts,
					Dur:        dur,
					Keyframe:   syncSamples[sampleNr] || len(syncSamples) == 0,
				},
			})
		}
	}

	// Interleave tracks the way they are laid out in mdat.
	sort.SliceStable(d.refs, func(i, j int) bool {
		return d.refs[i].offset < d.refs[j].offset
	})
	return nil
}

func (d *Demuxer) indexFragmented(mp4File *mp4.File) error {
	if mp4File.Init == nil || mp4File.Init.Moov == nil {
		return ErrNoTracks
	}
	moov := mp4File.Init.Moov

	byID := make(map[uint32]int)
	for _, trak := range moov.Traks {
		track := describeTrack(trak, len(d.tracks))
		byID[track.ID] = track.Index
		d.tracks = append(d.tracks, track)
	}

	trexFor := func(trackID uint32) *mp4.TrexBox {
		if moov.Mvex == nil {
			return nil
		}
		for _, t := range moov.Mvex.Trexs {
			if t.TrackID == trackID {
				return t
			}
		}
		return nil
	}

	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil || len(frag.Moof.Trafs) == 0 {
				continue
			}

			// GetFullSamples resolves the first traf of a fragment.
			traf := frag.Moof.Trafs[0]
			index, ok := byID[traf.Tfhd.TrackID]
			if !ok || d.tracks[index].Kind == KindOther {
				continue
			}

			var baseDecodeTime uint64
			if traf.Tfdt != nil {
				baseDecodeTime = traf.Tfdt.BaseMediaDecodeTime()
			}

			samples, err := frag.GetFullSamples(trexFor(traf.Tfhd.TrackID))
			if err != nil {
				return fmt.Errorf("get samples: %w", err)
			}

			currentTime := baseDecodeTime
			for _, s := range samples {
				d.refs = append(d.refs, sampleRef{
					sample: Sample{
						Track:      index,
						Data:       s.Data,
						DecodeTime: currentTime,
						PTS:        int64(currentTime) + int64(s.CompositionTimeOffset),
						Dur:        s.Dur,
						Keyframe:   isSyncFlags(s.Flags),
					},
				})
				currentTime += uint64(s.Dur)
			}
		}
	}
	return nil
}

// isSyncFlags reports whether the sample_is_non_sync_sample bit is clear.
func isSyncFlags(flags uint32) bool {
	return flags&0x00010000 == 0
}

func describeTrack(trak *mp4.TrakBox, index int) Track {
	track := Track{Index: index, Codec: CodecUnknown, Timescale: 1000}
	if trak.Tkhd != nil {
		track.ID = trak.Tkhd.TrackID
	}
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
		return track
	}
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale != 0 {
		track.Timescale = trak.Mdia.Mdhd.Timescale
	}

	switch trak.Mdia.Hdlr.HandlerType {
	case "vide":
		track.Kind = KindVideo
	case "sbtl", "text", "subt":
		track.Kind = KindSubtitle
	default:
		return track
	}

	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return track
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			track.Codec = CodecH264
		case "hvc1", "hev1":
			track.Codec = CodecHEVC
		case "av01":
			track.Codec = CodecAV1
		case "tx3g":
			track.Codec = CodecTx3g
		case "wvtt":
			track.Codec = CodecWebVTT
		default:
			continue
		}

		if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
			track.Width = int(vse.Width)
			track.Height = int(vse.Height)
			readCodecConfig(vse, &track)
		}
		break
	}
	return track
}

func readCodecConfig(vse *mp4.VisualSampleEntryBox, track *Track) {
	if vse.AvcC != nil {
		track.ParamSets = append(track.ParamSets, vse.AvcC.SPSnalus...)
		track.ParamSets = append(track.ParamSets, vse.AvcC.PPSnalus...)
	}
	if vse.HvcC != nil {
		for _, array := range vse.HvcC.NaluArrays {
			track.ParamSets = append(track.ParamSets, array.Nalus...)
		}
	}
	for _, child := range vse.Children {
		if av1C, ok := child.(*mp4.Av1CBox); ok {
			track.ConfigOBUs = av1C.ConfigOBUs
		}
	}
}

// sampleLocation finds the file offset and size of a progressive sample.
func sampleLocation(stbl *mp4.StblBox, sampleNr uint32) (uint64, uint32, error) {
	if stbl.Stsc == nil || stbl.Stsz == nil {
		return 0, 0, fmt.Errorf("missing stsc or stsz box")
	}

	chunkNr, firstSampleInChunk, err := stbl.Stsc.ChunkNrFromSampleNr(int(sampleNr))
	if err != nil {
		return 0, 0, fmt.Errorf("get chunk nr: %w", err)
	}

	var chunkOffset uint64
	if stbl.Stco != nil {
		chunkOffset, err = stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return 0, 0, fmt.Errorf("get chunk offset: %w", err)
		}
	} else if stbl.Co64 != nil {
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return 0, 0, fmt.Errorf("chunk nr out of range")
		}
		chunkOffset = stbl.Co64.ChunkOffset[chunkNr-1]
	} else {
		return 0, 0, fmt.Errorf("no stco or co64 box")
	}

	offset := chunkOffset
	for s := uint32(firstSampleInChunk); s < sampleNr; s++ {
		offset += uint64(stbl.Stsz.GetSampleSize(int(s)))
	}
	return offset, stbl.Stsz.GetSampleSize(int(sampleNr)), nil
}

package visual

import (
	"errors"
	"fmt"
	"math"

	"github.com/user/termvis/pkg/ports"
)

// Decode advances to the next video frame and makes it the current
// raster. It returns ports.ErrEndOfStream once the source is exhausted.
// The new raster is borrowed from the converter. A raster owned by the
// visual, such as a rotated one, is freed when replaced.
func (v *Visual) Decode() error {
	if v.destroyed {
		return fmt.Errorf("%w: visual destroyed", ports.ErrInvalidArgument)
	}
	if v.src == nil {
		return fmt.Errorf("%w: visual has no decode source", ports.ErrDecode)
	}

	frame, err := v.nextFrame()
	if err != nil {
		return err
	}
	defer frame.Release()

	first := v.surface == nil
	saved := [4]int{v.dstWidth, v.dstHeight, v.placeRow, v.placeCol}
	if err := v.prepareSurface(frame); err != nil {
		if first {
			v.undoFirstFrame(saved)
		}
		return err
	}

	out, err := v.conv.Convert(frame, v.dstWidth, v.dstHeight)
	if err != nil {
		if first {
			v.undoFirstFrame(saved)
		}
		if errors.Is(err, ports.ErrOutOfMemory) || errors.Is(err, ports.ErrDecode) {
			return err
		}
		return fmt.Errorf("%w: convert: %w", ports.ErrDecode, err)
	}

	v.setRaster(out)
	v.frameNum++
	v.timing = Timing{
		PTS:      frame.PTS,
		HasPTS:   frame.HasPTS,
		Duration: frame.Duration,
		TimeBase: v.timeBase,
	}
	v.log.Debug("Decoded frame %d: %dx%d %s -> %dx%d", v.frameNum, frame.Width(), frame.Height(), frame.Format, v.dstWidth, v.dstHeight)
	return nil
}

// nextFrame reads packets until the decoder yields a frame. Packets of
// other streams do not count towards the retry cap. Subtitle packets
// update the current cue.
func (v *Visual) nextFrame() (*ports.Frame, error) {
	attempts := 0
	for {
		if v.pending == nil && !v.draining {
			pkt, err := v.src.ReadPacket()
			switch {
			case errors.Is(err, ports.ErrEndOfStream):
				v.draining = true
				if err := v.src.SendPacket(nil); err != nil && !errors.Is(err, ports.ErrWouldBlock) {
					return nil, fmt.Errorf("%w: flush decoder: %w", ports.ErrDecode, err)
				}
			case err != nil:
				return nil, fmt.Errorf("%w: read packet: %w", ports.ErrDecode, err)
			case pkt.StreamIndex == v.src.SubtitleStream():
				v.decodeSubtitle(pkt)
				continue
			case pkt.StreamIndex != v.src.VideoStream():
				continue
			default:
				v.pending = pkt
			}
		}

		if v.pending != nil {
			err := v.src.SendPacket(v.pending)
			switch {
			case err == nil:
				v.pending = nil
			case errors.Is(err, ports.ErrWouldBlock):
				// The decoder wants frames pulled first. Keep the packet.
			default:
				return nil, fmt.Errorf("%w: send packet: %w", ports.ErrDecode, err)
			}
		}

		frame, err := v.src.ReceiveFrame()
		switch {
		case err == nil:
			return frame, nil
		case errors.Is(err, ports.ErrEndOfStream):
			return nil, ports.ErrEndOfStream
		case errors.Is(err, ports.ErrWouldBlock):
			if v.draining && v.pending == nil {
				return nil, ports.ErrEndOfStream
			}
			attempts++
			if attempts > v.opts.MaxDecodeRetries {
				return nil, fmt.Errorf("%w: no frame after %d packets", ports.ErrDecode, attempts)
			}
		default:
			return nil, fmt.Errorf("%w: receive frame: %w", ports.ErrDecode, err)
		}
	}
}

func (v *Visual) decodeSubtitle(pkt *ports.Packet) {
	cue, err := v.src.DecodeSubtitle(pkt)
	if err != nil {
		v.log.Debug("Skipping undecodable subtitle packet: %s", err)
		return
	}
	if cue != nil {
		v.cue = cue
	}
}

// prepareSurface creates the destination surface on the first frame, or
// adopts the surface's current size on later frames.
func (v *Visual) prepareSurface(frame *ports.Frame) error {
	fw, fh := frame.Width(), frame.Height()
	if fw <= 0 || fh <= 0 {
		return fmt.Errorf("%w: empty frame %dx%d", ports.ErrDecode, fw, fh)
	}

	if v.surface != nil {
		rows, cols := v.surface.Dims()
		if rows != ceilDiv(v.dstHeight, v.vscale) || cols != v.dstWidth {
			v.log.Debug("Surface resized to %dx%d", cols, rows)
			v.conv.Invalidate()
			v.dstWidth = cols
			v.dstHeight = rows * v.vscale
		}
		return nil
	}

	var rows, cols int
	switch v.scale {
	case ScaleNone:
		v.dstWidth, v.dstHeight = fw, fh
		rows, cols = ceilDiv(fh, v.vscale), fw
	case ScaleScale, ScaleStretch:
		if v.sc == nil {
			return fmt.Errorf("%w: %s policy needs a surface context", ports.ErrInvalidArgument, v.scale)
		}
		rows, cols = v.sc.Dims()
		if v.placeRow >= rows || v.placeCol >= cols {
			return fmt.Errorf("%w: placement %d,%d outside %dx%d", ports.ErrDecode, v.placeRow, v.placeCol, cols, rows)
		}
		rows -= v.placeRow
		cols -= v.placeCol
		v.dstWidth, v.dstHeight = cols, rows*v.vscale
		if v.scale == ScaleScale {
			v.dstWidth, v.dstHeight = fit(fw, fh, v.dstWidth, v.dstHeight)
			rows, cols = ceilDiv(v.dstHeight, v.vscale), v.dstWidth
		}
	default:
		return fmt.Errorf("%w: scale policy %d", ports.ErrInvalidArgument, v.scale)
	}

	if v.sc == nil {
		return nil
	}
	s, err := v.sc.NewSurface(rows, cols, v.placeRow, v.placeCol)
	if err != nil {
		return fmt.Errorf("create surface: %w", err)
	}
	v.surface = s
	v.ownsSurface = true
	v.placeRow, v.placeCol = 0, 0
	return nil
}

// undoFirstFrame drops the surface a failed first decode created and
// restores the destination size and placement.
func (v *Visual) undoFirstFrame(saved [4]int) {
	if v.surface != nil && v.ownsSurface {
		if err := v.surface.Destroy(); err != nil {
			v.log.Warn("Failed to destroy surface: %s", err)
		}
		v.surface = nil
		v.ownsSurface = false
	}
	v.dstWidth, v.dstHeight, v.placeRow, v.placeCol = saved[0], saved[1], saved[2], saved[3]
}

// fit scales (w, h) to the largest size inside (maxW, maxH) with the same
// aspect ratio.
func fit(w, h, maxW, maxH int) (int, int) {
	f := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	fw := int(math.Round(float64(w) * f))
	fh := int(math.Round(float64(h) * f))
	return max(1, min(fw, maxW)), max(1, min(fh, maxH))
}

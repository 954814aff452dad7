package mp4demux

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// SampleText extracts the cue text of a timed-text sample.
// tx3g samples carry a 16-bit length followed by UTF-8 text.
// wvtt samples carry vttc boxes whose payl children hold the text;
// an empty cue is a vtte box and yields "".
func SampleText(codec Codec, data []byte) (string, error) {
	switch codec {
	case CodecTx3g:
		if len(data) < 2 {
			return "", fmt.Errorf("tx3g sample too short: %d bytes", len(data))
		}
		n := int(binary.BigEndian.Uint16(data))
		if 2+n > len(data) {
			return "", fmt.Errorf("tx3g text length %d exceeds sample", n)
		}
		return string(data[2 : 2+n]), nil
	case CodecWebVTT:
		var cues []string
		err := walkBoxes(data, func(typ string, payload []byte) error {
			if typ != "vttc" {
				return nil
			}
			return walkBoxes(payload, func(typ string, payload []byte) error {
				if typ == "payl" {
					cues = append(cues, string(payload))
				}
				return nil
			})
		})
		if err != nil {
			return "", err
		}
		return strings.Join(cues, "\n"), nil
	default:
		return "", fmt.Errorf("codec %s carries no text", codec)
	}
}

func walkBoxes(data []byte, fn func(typ string, payload []byte) error) error {
	for len(data) > 0 {
		if len(data) < 8 {
			return fmt.Errorf("truncated box header")
		}
		size := int(binary.BigEndian.Uint32(data))
		if size < 8 || size > len(data) {
			return fmt.Errorf("bad box size %d", size)
		}
		if err := fn(string(data[4:8]), data[8:size]); err != nil {
			return err
		}
		data = data[size:]
	}
	return nil
}

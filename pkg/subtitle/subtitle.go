// Package subtitle extracts displayable text from decoded subtitle cues.
package subtitle

import (
	"strings"

	"github.com/user/termvis/pkg/ports"
)

const dialoguePrefix = "Dialogue:"

// dialogueFields is the number of comma-separated fields in a Dialogue
// line, the last of which is the text.
const dialogueFields = 10

// Extract returns the text of the first text-bearing rect of cue.
// Plain text is returned verbatim. ASS dialogue lines are reduced to their
// text field with override codes blanked out. Bitmap rects carry no text.
func Extract(cue *ports.SubtitleCue) (string, bool) {
	if cue == nil {
		return "", false
	}
	for _, rect := range cue.Rects {
		switch rect.Type {
		case ports.SubtitleText:
			return rect.Text, true
		case ports.SubtitleASS:
			return Deass(rect.Text)
		}
	}
	return "", false
}

// Deass returns the text field of an ASS Dialogue line, replacing every
// backslash and the byte after it with spaces.
func Deass(line string) (string, bool) {
	if !strings.HasPrefix(line, dialoguePrefix) {
		return "", false
	}
	fields := strings.SplitN(line, ",", dialogueFields)
	if len(fields) < dialogueFields {
		return "", false
	}
	text := []byte(fields[dialogueFields-1])
	for i := 0; i < len(text); i++ {
		if text[i] != '\\' {
			continue
		}
		text[i] = ' '
		if i+1 < len(text) {
			i++
			text[i] = ' '
		}
	}
	return string(text), true
}

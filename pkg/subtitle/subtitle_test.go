package subtitle

import (
	"testing"

	"github.com/user/termvis/pkg/ports"
)

func TestExtract_PlainText(t *testing.T) {
	cue := &ports.SubtitleCue{Rects: []ports.SubtitleRect{
		{Type: ports.SubtitleText, Text: "Hello, world\\N"},
	}}
	text, ok := Extract(cue)
	if !ok {
		t.Fatal("expected text")
	}
	if text != "Hello, world\\N" {
		t.Errorf("expected verbatim text, got %q", text)
	}
}

func TestExtract_ASSDialogue(t *testing.T) {
	line := "Dialogue: Marked=0,0:02:40.65,0:02:41.79,Wolf main,Cher,0000,0000,0000,,Et les enregistrements,\\Nde ses ondes"
	cue := &ports.SubtitleCue{Rects: []ports.SubtitleRect{{Type: ports.SubtitleASS, Text: line}}}

	text, ok := Extract(cue)
	if !ok {
		t.Fatal("expected text")
	}
	want := "Et les enregistrements,  de ses ondes"
	if text != want {
		t.Errorf("expected %q, got %q", want, text)
	}
}

func TestExtract_SkipsBitmapRects(t *testing.T) {
	cue := &ports.SubtitleCue{Rects: []ports.SubtitleRect{
		{Type: ports.SubtitleBitmap},
		{Type: ports.SubtitleText, Text: "second"},
	}}
	text, ok := Extract(cue)
	if !ok || text != "second" {
		t.Errorf("expected second rect text, got %q (%v)", text, ok)
	}
}

func TestExtract_NoText(t *testing.T) {
	if _, ok := Extract(nil); ok {
		t.Error("expected no text for nil cue")
	}
	cue := &ports.SubtitleCue{Rects: []ports.SubtitleRect{{Type: ports.SubtitleBitmap}, {Type: ports.SubtitleNone}}}
	if _, ok := Extract(cue); ok {
		t.Error("expected no text for bitmap-only cue")
	}
}

func TestDeass(t *testing.T) {
	cases := []struct {
		line string
		want string
		ok   bool
	}{
		{"Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,plain", "plain", true},
		{"Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,a\\Nb", "a  b", true},
		{"Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,{\\i1}x{\\i0}", "{  i1}x{  i0}", true},
		{"Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,ends\\", "ends ", true},
		{"Dialogue: 0,0:00:01.00,0:00:02.00,Default", "", false},
		{"Comment: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,text", "", false},
	}
	for _, c := range cases {
		got, ok := Deass(c.line)
		if ok != c.ok || got != c.want {
			t.Errorf("Deass(%q) = %q, %v; expected %q, %v", c.line, got, ok, c.want, c.ok)
		}
	}
}

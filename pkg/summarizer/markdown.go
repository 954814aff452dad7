package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as a Markdown document.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format implements the Formatter interface.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder

	b.WriteString("# Playback Summary\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", s.GeneratedAt.Format(time.RFC3339))

	b.WriteString("## Source\n\n")
	fmt.Fprintf(&b, "- **File**: %s\n", s.Source.Path)
	fmt.Fprintf(&b, "- **Backend**: %s\n", s.Source.Backend)
	if s.Command != "" {
		fmt.Fprintf(&b, "- **Command**: %s\n", s.Command)
	}
	b.WriteString("\n")

	if len(s.Source.Streams) > 0 {
		b.WriteString("| # | Type | Codec | Size | Time base | Used |\n")
		b.WriteString("|---|------|-------|------|-----------|------|\n")
		for _, st := range s.Source.Streams {
			used := ""
			if st.Selected {
				used = "yes"
			}
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s |\n",
				st.Index, st.Type, st.Codec, formatSize(st.Width, st.Height), st.TimeBase, used)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Settings\n\n")
	fmt.Fprintf(&b, "- **Scale**: %s\n", orDash(s.Settings.Scale))
	fmt.Fprintf(&b, "- **Filter**: %s\n", orDash(s.Settings.Filter))
	if s.Settings.Blitter != "" {
		fmt.Fprintf(&b, "- **Blitter**: %s\n", s.Settings.Blitter)
	}
	fmt.Fprintf(&b, "- **Timescale**: %.2f\n", s.Settings.Timescale)
	fmt.Fprintf(&b, "- **Subtitles**: %s\n", onOff(s.Settings.Subtitles))
	if s.Settings.RotationDeg != 0 {
		fmt.Fprintf(&b, "- **Rotation**: %.1f°\n", s.Settings.RotationDeg)
	}
	b.WriteString("\n")

	b.WriteString("## Output\n\n")
	fmt.Fprintf(&b, "- **Frames**: %d\n", s.Output.Frames)
	fmt.Fprintf(&b, "- **Size**: %s\n", formatSize(s.Output.Width, s.Output.Height))
	fmt.Fprintf(&b, "- **Subtitles shown**: %d\n", s.Output.Subtitles)
	fmt.Fprintf(&b, "- **Elapsed**: %s\n", formatDuration(s.Output.Elapsed))
	if s.Output.Interrupted {
		b.WriteString("- **Interrupted**: yes\n")
	}

	return b.String()
}

func formatSize(w, h int) string {
	if w <= 0 || h <= 0 {
		return "-"
	}
	return fmt.Sprintf("%dx%d", w, h)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2f s", d.Seconds())
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

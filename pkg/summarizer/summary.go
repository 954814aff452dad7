// Package summarizer provides summary generation for playback sessions.
package summarizer

import "time"

// Summary contains all data collected during a playback session.
type Summary struct {
	// Metadata
	GeneratedAt time.Time
	Command     string

	// Source information
	Source SourceInfo

	// Playback settings
	Settings Settings

	// Rendered output
	Output OutputInfo
}

// SourceInfo describes the played file.
type SourceInfo struct {
	Path    string
	Backend string
	Streams []StreamInfo
}

// StreamInfo describes one stream of the source.
type StreamInfo struct {
	Index    int
	Type     string
	Codec    string
	Width    int
	Height   int
	TimeBase string
	Selected bool
}

// Settings contains the playback configuration.
type Settings struct {
	Scale     string
	Filter    string
	Blitter   string
	Timescale float64
	Subtitles bool

	// Rotation in degrees, snapshots only
	RotationDeg float64
}

// OutputInfo contains what was rendered.
type OutputInfo struct {
	Frames      uint64
	Width       int
	Height      int
	Subtitles   int
	Elapsed     time.Duration
	Interrupted bool
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder for the named command.
func NewBuilder(command string) *Builder {
	s := NewSummary()
	s.Command = command
	return &Builder{summary: s}
}

// WithSource sets the file and backend.
func (b *Builder) WithSource(path, backend string) *Builder {
	b.summary.Source.Path = path
	b.summary.Source.Backend = backend
	return b
}

// WithStream appends a stream description.
func (b *Builder) WithStream(stream StreamInfo) *Builder {
	b.summary.Source.Streams = append(b.summary.Source.Streams, stream)
	return b
}

// WithSettings sets playback settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithOutput sets rendered output information.
func (b *Builder) WithOutput(output OutputInfo) *Builder {
	b.summary.Output = output
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}

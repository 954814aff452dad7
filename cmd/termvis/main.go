// Package main provides the CLI entry point for termvis.
package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/termvis/pkg/adapters/canvassurface"
	"github.com/user/termvis/pkg/adapters/ffmpegdecoder"
	"github.com/user/termvis/pkg/adapters/filesink"
	"github.com/user/termvis/pkg/adapters/logger"
	"github.com/user/termvis/pkg/adapters/nullsink"
	"github.com/user/termvis/pkg/adapters/osfilesystem"
	"github.com/user/termvis/pkg/adapters/termsurface"
	"github.com/user/termvis/pkg/backend"
	"github.com/user/termvis/pkg/config"
	"github.com/user/termvis/pkg/player"
	"github.com/user/termvis/pkg/ports"
	"github.com/user/termvis/pkg/summarizer"
	"github.com/user/termvis/pkg/visual"
)

var version = "dev"

// Flag categories
const (
	categoryDecoding  = "Decoding"
	categoryPlacement = "Placement"
	categoryPlayback  = "Playback"
	categoryDebug     = "Debug"
	categoryLogging   = "Logging"
)

func decodingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file"), Category: l10n.T(categoryDecoding)},
		&cli.StringFlag{Name: "backend", Aliases: []string{"b"}, Usage: l10n.T("Decode backend (none, image, video)"), Category: l10n.T(categoryDecoding)},
		&cli.StringFlag{Name: "filter", Usage: l10n.T("Resampling filter (lanczos, catmullrom, bilinear, nearest)"), Category: l10n.T(categoryDecoding)},
		&cli.IntFlag{Name: "max-decode-retries", Usage: l10n.T("Packets to feed the decoder before giving up on a frame"), Category: l10n.T(categoryDecoding)},
		&cli.StringFlag{Name: "ffmpeg-path", Usage: l10n.T("Path to ffmpeg (falls back to FFMPEG_PATH env, then PATH)"), Category: l10n.T(categoryDecoding)},
	}
}

func placementFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "scale", Aliases: []string{"s"}, Usage: l10n.T("Scaling policy (none, scale, stretch)"), Category: l10n.T(categoryPlacement)},
		&cli.IntFlag{Name: "row", Usage: l10n.T("Row of the top-left corner"), Category: l10n.T(categoryPlacement)},
		&cli.IntFlag{Name: "col", Usage: l10n.T("Column of the top-left corner"), Category: l10n.T(categoryPlacement)},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "dump-dir", Usage: l10n.T("Directory to dump rendered frames and subtitles into"), Category: l10n.T(categoryDebug)},
		&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T(categoryLogging)},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T(categoryLogging)},
	}
}

func playFlags() []cli.Flag {
	flags := append(decodingFlags(), placementFlags()...)
	flags = append(flags,
		&cli.StringFlag{Name: "blitter", Usage: l10n.T("Cell blitter (auto, halfblock, ascii)"), Category: l10n.T(categoryPlacement)},
		&cli.IntFlag{Name: "rows", Usage: l10n.T("Terminal rows (default: detected)"), Category: l10n.T(categoryPlacement)},
		&cli.IntFlag{Name: "cols", Usage: l10n.T("Terminal columns (default: detected)"), Category: l10n.T(categoryPlacement)},
		&cli.Float64Flag{Name: "timescale", Aliases: []string{"t"}, Usage: l10n.T("Playback delay multiplier (2.0 plays at half speed)"), Category: l10n.T(categoryPlayback)},
		&cli.BoolFlag{Name: "no-subtitles", Usage: l10n.T("Do not show subtitles"), Category: l10n.T(categoryPlayback)},
	)
	return append(flags, loggingFlags()...)
}

func snapshotFlags() []cli.Flag {
	flags := append(decodingFlags(),
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: l10n.T("Output PNG file path (required)"), Category: l10n.T(categoryPlacement)},
		&cli.Float64Flag{Name: "rotate", Aliases: []string{"r"}, Usage: l10n.T("Rotation in degrees, clockwise"), Category: l10n.T(categoryPlacement)},
	)
	return append(flags, loggingFlags()...)
}

func newApp() *cli.App {
	return &cli.App{
		Name:        "termvis",
		Usage:       l10n.T("Decode images and videos onto the terminal"),
		Description: l10n.T("termvis decodes still images and MP4 videos and draws them on terminal cells."),
		Version:     version,
		Commands: []*cli.Command{
			{
				Name:        "play",
				Usage:       l10n.T("Play an image or video in the terminal"),
				Description: l10n.T("Decode the file frame by frame and draw each frame on the terminal at its presentation time."),
				ArgsUsage:   "FILE",
				Flags:       playFlags(),
				Action:      runPlay,
			},
			{
				Name:        "snapshot",
				Usage:       l10n.T("Render the first frame to a PNG file"),
				Description: l10n.T("Decode the first frame, optionally rotate it, and save it as a PNG image."),
				ArgsUsage:   "FILE",
				Flags:       snapshotFlags(),
				Action:      runSnapshot,
			},
			{
				Name:      "info",
				Usage:     l10n.T("Show the streams of a file"),
				ArgsUsage: "FILE",
				Flags:     append(decodingFlags(), loggingFlags()...),
				Action:    runInfo,
			},
			{
				Name:   "caps",
				Usage:  l10n.T("Show what each backend can open"),
				Flags:  []cli.Flag{&cli.StringFlag{Name: "ffmpeg-path", Usage: l10n.T("Path to ffmpeg (falls back to FFMPEG_PATH env, then PATH)")}},
				Action: runCaps,
			},
			{
				Name:  "version",
				Usage: l10n.T("Show version information"),
				Action: func(*cli.Context) error {
					fmt.Println(l10n.F("termvis version %s", version))
					return nil
				},
			},
		},
	}
}

func main() {
	app := newApp()

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %s", err))
		os.Exit(1)
	}
}

// loadConfig reads the optional config file and applies flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	if c.IsSet("backend") {
		cfg.Backend = c.String("backend")
	}
	if c.IsSet("filter") {
		cfg.Filter = c.String("filter")
	}
	if c.IsSet("max-decode-retries") {
		cfg.MaxDecodeRetries = c.Int("max-decode-retries")
	}
	if c.IsSet("ffmpeg-path") {
		cfg.FFmpegPath = c.String("ffmpeg-path")
	}
	if c.IsSet("scale") {
		cfg.Scale = c.String("scale")
	}
	if c.IsSet("row") {
		cfg.Place.Row = c.Int("row")
	}
	if c.IsSet("col") {
		cfg.Place.Col = c.Int("col")
	}
	if c.IsSet("blitter") {
		cfg.Blitter = c.String("blitter")
	}
	if c.IsSet("timescale") {
		cfg.Timescale = c.Float64("timescale")
	}
	if c.Bool("no-subtitles") {
		cfg.Subtitles = false
	}
	if c.IsSet("dump-dir") {
		cfg.DumpDir = c.String("dump-dir")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(c *cli.Context, cfg config.Config) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	// Standard output carries the picture.
	return logger.NewStderr(cfg.Level())
}

func newBackend(cfg config.Config, log ports.Logger) (ports.DecodeBackend, error) {
	kind, err := cfg.BackendKind()
	if err != nil {
		return nil, err
	}
	return backend.New(kind, cfg.BackendOptions(log))
}

func newSink(cfg config.Config) (ports.FrameSink, error) {
	if cfg.DumpDir == "" {
		return nullsink.New(), nil
	}
	fs := osfilesystem.New()
	if err := fs.MkdirAll(cfg.DumpDir); err != nil {
		return nil, fmt.Errorf("create dump directory: %w", err)
	}
	return filesink.New(cfg.DumpDir, fs, canvassurface.Encoder{}), nil
}

func fileArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", errors.New(l10n.T("Exactly one FILE argument is required"))
	}
	return c.Args().First(), nil
}

// runPlay executes the play command.
func runPlay(c *cli.Context) error {
	path, err := fileArg(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	b, err := newBackend(cfg, log)
	if err != nil {
		return err
	}
	sink, err := newSink(cfg)
	if err != nil {
		return err
	}
	pcfg, err := cfg.ToPlayerConfig()
	if err != nil {
		return err
	}
	blitter, err := cfg.BlitterMode()
	if err != nil {
		return err
	}

	sc := termsurface.NewStdout(termsurface.Options{
		Rows:    c.Int("rows"),
		Cols:    c.Int("cols"),
		Blitter: blitter,
	})
	if err := sc.HideCursor(); err != nil {
		return err
	}
	defer sc.Close()

	p := player.New(b, sink, log)
	result, err := p.Play(c.Context, sc, path, pcfg)
	if err != nil && !errors.Is(err, player.ErrInterrupted) {
		return err
	}

	settings := summarySettings(cfg)
	settings.Blitter = sc.Blitter().String()
	return writeSummary(cfg, p, "play", path, settings, result)
}

// runSnapshot executes the snapshot command.
func runSnapshot(c *cli.Context) error {
	path, err := fileArg(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	b, err := newBackend(cfg, log)
	if err != nil {
		return err
	}
	sink, err := newSink(cfg)
	if err != nil {
		return err
	}
	pcfg, err := cfg.ToPlayerConfig()
	if err != nil {
		return err
	}
	// The canvas is sized to the native frame, so nothing is scaled.
	pcfg.Scale = visual.ScaleNone
	pcfg.PlaceRow, pcfg.PlaceCol = 0, 0

	p := player.New(b, sink, log)
	info, err := p.Probe(path)
	if err != nil {
		return err
	}
	video, ok := info.VideoInfo()
	if !ok || video.Width <= 0 || video.Height <= 0 {
		return fmt.Errorf("%w: %s has no sized video stream", ports.ErrDecode, path)
	}

	radians := c.Float64("rotate") * math.Pi / 180
	w, h := video.Width, video.Height
	if radians != 0 {
		w = max(w, h)
		h = w
	}
	const vscale = 2
	canvas, err := canvassurface.New((h+vscale-1)/vscale, w, vscale)
	if err != nil {
		return err
	}

	out := c.String("output")
	result, err := p.Snapshot(c.Context, canvas, path, radians, pcfg, func(*visual.Visual) error {
		return canvas.SavePNG(out)
	})
	if err != nil {
		return err
	}
	log.Info("Output saved to %s", out)

	settings := summarySettings(cfg)
	settings.Scale = visual.ScaleNone.String()
	settings.RotationDeg = c.Float64("rotate")
	return writeSummary(cfg, p, "snapshot", path, settings, result)
}

func summarySettings(cfg config.Config) summarizer.Settings {
	return summarizer.Settings{
		Scale:     cfg.Scale,
		Filter:    cfg.Filter,
		Timescale: cfg.Timescale,
		Subtitles: cfg.Subtitles,
	}
}

// writeSummary writes summary.md into the dump directory, if one is set.
func writeSummary(cfg config.Config, p *player.Player, command, path string, settings summarizer.Settings, result player.Result) error {
	if cfg.DumpDir == "" {
		return nil
	}
	info, err := p.Probe(path)
	if err != nil {
		return err
	}

	builder := summarizer.NewBuilder(command).
		WithSource(path, info.Backend).
		WithSettings(settings).
		WithOutput(summarizer.OutputInfo{
			Frames:      result.Frames,
			Width:       result.Width,
			Height:      result.Height,
			Subtitles:   result.Subtitles,
			Elapsed:     result.Elapsed,
			Interrupted: result.Interrupted,
		})
	for _, s := range info.Streams {
		builder.WithStream(summarizer.StreamInfo{
			Index:    s.Index,
			Type:     s.Type.String(),
			Codec:    s.Codec,
			Width:    s.Width,
			Height:   s.Height,
			TimeBase: fmt.Sprintf("%d/%d", s.TimeBase.Num, s.TimeBase.Den),
			Selected: s.Index == info.VideoStream || s.Index == info.SubtitleStream,
		})
	}

	w := summarizer.NewWriter(summarizer.NewMarkdownFormatter(), osfilesystem.New())
	return w.Write(filepath.Join(cfg.DumpDir, "summary.md"), builder.Build())
}

// runInfo executes the info command.
func runInfo(c *cli.Context) error {
	path, err := fileArg(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg)

	b, err := newBackend(cfg, log)
	if err != nil {
		return err
	}
	info, err := player.New(b, nullsink.New(), log).Probe(path)
	if err != nil {
		return err
	}

	fmt.Println(l10n.F("%s (%s backend)", info.Path, info.Backend))
	for _, s := range info.Streams {
		marker := " "
		switch s.Index {
		case info.VideoStream, info.SubtitleStream:
			marker = "*"
		}
		fmt.Printf("%s #%d %-8s %-10s %dx%d  %d/%d\n", marker, s.Index, s.Type, s.Codec, s.Width, s.Height, s.TimeBase.Num, s.TimeBase.Den)
	}
	return nil
}

// runCaps executes the caps command.
func runCaps(c *cli.Context) error {
	for _, kind := range []backend.Kind{backend.None, backend.Image, backend.Video} {
		fmt.Println(l10n.F("%s: images=%t videos=%t", kind, backend.CanOpenImages(kind), backend.CanOpenVideos(kind)))
	}

	if path := c.String("ffmpeg-path"); path != "" {
		ffmpegdecoder.SetFFmpegPath(path)
	}
	path, err := ffmpegdecoder.FindFFmpeg()
	if err != nil {
		fmt.Println(l10n.T("ffmpeg: not found, videos cannot be decoded"))
		return nil
	}
	fmt.Println(l10n.F("ffmpeg: %s", path))
	return nil
}

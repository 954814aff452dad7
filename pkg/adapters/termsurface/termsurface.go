// Package termsurface draws rasters onto an ANSI truecolor terminal.
//
// With the half-block blitter each cell shows two vertically stacked
// pixels: the upper one as the foreground of U+2580 and the lower one as
// the background. The ASCII blitter paints one pixel per cell with a
// coloured space.
package termsurface

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/user/termvis/pkg/ports"
)

// Fallback size when the output is not a terminal.
const (
	DefaultRows = 24
	DefaultCols = 80
)

const upperHalfBlock = "▀"

// ErrUnknownBlitter is returned by ParseBlitter for unrecognized names.
var ErrUnknownBlitter = errors.New("termsurface: unknown blitter")

// Blitter selects how pixels map onto cells.
type Blitter int

const (
	// BlitterAuto picks half blocks on UTF-8 locales and ASCII elsewhere.
	BlitterAuto Blitter = iota
	BlitterHalfBlock
	BlitterASCII
)

// String returns the configuration name of the blitter.
func (b Blitter) String() string {
	switch b {
	case BlitterHalfBlock:
		return "halfblock"
	case BlitterASCII:
		return "ascii"
	default:
		return "auto"
	}
}

// ParseBlitter parses a blitter name.
func ParseBlitter(s string) (Blitter, error) {
	switch s {
	case "auto", "":
		return BlitterAuto, nil
	case "halfblock":
		return BlitterHalfBlock, nil
	case "ascii":
		return BlitterASCII, nil
	default:
		return BlitterAuto, fmt.Errorf("%w: %q", ErrUnknownBlitter, s)
	}
}

// Options configures a terminal context.
type Options struct {
	// Rows and Cols override the detected terminal size when non-zero.
	Rows int
	Cols int

	Blitter Blitter
}

// Context is a terminal display.
type Context struct {
	mu      sync.Mutex
	out     io.Writer
	rows    int
	cols    int
	blitter Blitter
}

// NewStdout creates a context on standard output, sized to the terminal.
func NewStdout(opts Options) *Context {
	return New(os.Stdout, opts)
}

// New creates a context writing escape sequences to out. When out is a
// terminal its size is queried; otherwise the default size applies.
func New(out io.Writer, opts Options) *Context {
	rows, cols := opts.Rows, opts.Cols
	if rows <= 0 || cols <= 0 {
		r, c := detectSize(out)
		if rows <= 0 {
			rows = r
		}
		if cols <= 0 {
			cols = c
		}
	}

	blitter := opts.Blitter
	if blitter == BlitterAuto {
		blitter = BlitterASCII
		if LocaleIsUTF8() {
			blitter = BlitterHalfBlock
		}
	}
	return &Context{out: out, rows: rows, cols: cols, blitter: blitter}
}

func detectSize(out io.Writer) (int, int) {
	f, ok := out.(*os.File)
	if !ok || !isatty.IsTerminal(f.Fd()) {
		return DefaultRows, DefaultCols
	}
	cols, rows, err := term.GetSize(int(f.Fd()))
	if err != nil || rows <= 0 || cols <= 0 {
		return DefaultRows, DefaultCols
	}
	return rows, cols
}

// LocaleIsUTF8 reports whether the locale environment selects UTF-8.
func LocaleIsUTF8() bool {
	for _, key := range []string{"LC_ALL", "LC_CTYPE", "LANG"} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		v = strings.ToLower(v)
		return strings.Contains(v, "utf-8") || strings.Contains(v, "utf8")
	}
	return false
}

// Dims returns the terminal size in cells.
func (c *Context) Dims() (int, int) {
	return c.rows, c.cols
}

// VerticalMultiplier is 2 for half blocks and 1 for ASCII.
func (c *Context) VerticalMultiplier() int {
	if c.blitter == BlitterHalfBlock {
		return 2
	}
	return 1
}

// Blitter returns the effective blitter.
func (c *Context) Blitter() Blitter {
	return c.blitter
}

// NewSurface creates a surface at (rowOff, colOff). The surface must fit
// inside the terminal.
func (c *Context) NewSurface(rows, cols, rowOff, colOff int) (ports.Surface, error) {
	if rows <= 0 || cols <= 0 || rowOff < 0 || colOff < 0 {
		return nil, fmt.Errorf("%w: surface %dx%d at %d,%d", ports.ErrInvalidArgument, cols, rows, rowOff, colOff)
	}
	if rowOff+rows > c.rows || colOff+cols > c.cols {
		return nil, fmt.Errorf("%w: surface %dx%d at %d,%d exceeds %dx%d", ports.ErrInvalidArgument, cols, rows, rowOff, colOff, c.cols, c.rows)
	}
	return &Surface{
		ctx:    c,
		rows:   rows,
		cols:   cols,
		rowOff: rowOff,
		colOff: colOff,
		cells:  make([]cell, rows*cols),
	}, nil
}

// Clear erases the screen and homes the cursor.
func (c *Context) Clear() error {
	return c.write("\x1b[0m\x1b[2J\x1b[H")
}

// HideCursor hides the terminal cursor.
func (c *Context) HideCursor() error {
	return c.write("\x1b[?25l")
}

// Close resets attributes, shows the cursor and moves below the drawing area.
func (c *Context) Close() error {
	return c.write(fmt.Sprintf("\x1b[0m\x1b[?25h\x1b[%d;1H\n", c.rows))
}

func (c *Context) write(s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.out, s)
	return err
}

func (c *Context) flush(buf *strings.Builder) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.out, buf.String())
	return err
}

var _ ports.SurfaceContext = (*Context)(nil)

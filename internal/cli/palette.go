package cli

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// palette colors dump and diff output.
type palette struct {
	header  *color.Color
	removed *color.Color
	added   *color.Color
}

func newPalette(w io.Writer) *palette {
	p := &palette{
		header:  color.New(color.FgCyan, color.Bold),
		removed: color.New(color.FgRed),
		added:   color.New(color.FgGreen),
	}
	enabled := colorEnabled(w)
	for _, c := range []*color.Color{p.header, p.removed, p.added} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// colorEnabled reports whether w is a terminal and color was not turned
// off with --no-color or NO_COLOR.
func colorEnabled(w io.Writer) bool {
	if rootFlags.noColor {
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

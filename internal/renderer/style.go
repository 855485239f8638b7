package renderer

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/serialterm/internal/terminal"
)

var statusStyle = tcell.StyleDefault.Reverse(true)

// styleFor converts a span style to a tcell style. Palette colors are
// used so the user's terminal theme decides the actual shade.
func styleFor(s terminal.Style) tcell.Style {
	style := tcell.StyleDefault
	if !s.Foreground.Default {
		style = style.Foreground(tcell.PaletteColor(s.Foreground.Index))
	}
	return style
}

// cellStyles returns the style of each of the first n columns of a line.
// Later spans win where spans overlap.
func cellStyles(line terminal.StyledLine, n int) []tcell.Style {
	styles := make([]tcell.Style, n)
	for i := range styles {
		styles[i] = tcell.StyleDefault
	}
	for _, span := range line.Spans {
		style := styleFor(span.Style)
		for c := max(span.Start, 0); c < span.End && c < n; c++ {
			styles[c] = style
		}
	}
	return styles
}

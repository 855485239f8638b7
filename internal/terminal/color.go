package terminal

// Color represents a terminal color.
type Color struct {
	R, G, B uint8
	Index   int  // 0-15 palette index
	Default bool // Use default fg/bg
}

// DefaultForeground is the default foreground color.
var DefaultForeground = Color{Default: true}

// Standard ANSI colors (indices 0-15).
var (
	ColorBlack         = Color{Index: 0, R: 0, G: 0, B: 0}
	ColorRed           = Color{Index: 1, R: 205, G: 0, B: 0}
	ColorGreen         = Color{Index: 2, R: 0, G: 205, B: 0}
	ColorYellow        = Color{Index: 3, R: 205, G: 205, B: 0}
	ColorBlue          = Color{Index: 4, R: 0, G: 0, B: 238}
	ColorMagenta       = Color{Index: 5, R: 205, G: 0, B: 205}
	ColorCyan          = Color{Index: 6, R: 0, G: 205, B: 205}
	ColorWhite         = Color{Index: 7, R: 229, G: 229, B: 229}
	ColorBrightBlack   = Color{Index: 8, R: 127, G: 127, B: 127}
	ColorBrightRed     = Color{Index: 9, R: 255, G: 0, B: 0}
	ColorBrightGreen   = Color{Index: 10, R: 0, G: 255, B: 0}
	ColorBrightYellow  = Color{Index: 11, R: 255, G: 255, B: 0}
	ColorBrightBlue    = Color{Index: 12, R: 92, G: 92, B: 255}
	ColorBrightMagenta = Color{Index: 13, R: 255, G: 0, B: 255}
	ColorBrightCyan    = Color{Index: 14, R: 0, G: 255, B: 255}
	ColorBrightWhite   = Color{Index: 15, R: 255, G: 255, B: 255}
)

// lowColors and highColors are the SGR 30-37 and 90-97 tables.
var (
	lowColors = [8]Color{
		ColorBlack, ColorRed, ColorGreen, ColorYellow,
		ColorBlue, ColorMagenta, ColorCyan, ColorWhite,
	}
	highColors = [8]Color{
		ColorBrightBlack, ColorBrightRed, ColorBrightGreen, ColorBrightYellow,
		ColorBrightBlue, ColorBrightMagenta, ColorBrightCyan, ColorBrightWhite,
	}
)

// sgrColor maps an SGR foreground parameter to its color.
func sgrColor(param int) (Color, bool) {
	switch {
	case param >= 30 && param <= 37:
		return lowColors[param-30], true
	case param >= 90 && param <= 97:
		return highColors[param-90], true
	default:
		return Color{}, false
	}
}

// Style is the rendition carried by a span.
type Style struct {
	Foreground Color
}

// SpanTag groups spans so they can be closed selectively.
type SpanTag int

const (
	// TagNone is an untagged span.
	TagNone SpanTag = iota

	// TagColor marks spans opened by SGR color parameters.
	TagColor
)

// String returns the tag name.
func (t SpanTag) String() string {
	switch t {
	case TagNone:
		return "none"
	case TagColor:
		return "color"
	default:
		return "unknown"
	}
}

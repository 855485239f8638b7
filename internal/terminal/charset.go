package terminal

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ReplacementGlyph is shown in place of control bytes the interpreter does
// not act on, when showing them is enabled.
const ReplacementGlyph = '⸮'

// Control bytes acted upon by the interpreter.
const (
	ctrlBEL = 0x07
	ctrlBS  = 0x08
	ctrlHT  = 0x09
	ctrlLF  = 0x0A
	ctrlCR  = 0x0D
	ctrlESC = 0x1B
)

// charTable maps every input byte to a character. Entries below 0x20 keep
// their control code; 0x0B and 0x0C behave like line feed.
var charTable = buildCharTable()

func buildCharTable() [256]rune {
	var t [256]rune
	for b := 0; b < 0x20; b++ {
		t[b] = rune(b)
	}
	t[0x0B] = ctrlLF
	t[0x0C] = ctrlLF

	for b := 0x20; b < 0x7F; b++ {
		t[b] = rune(b)
	}
	t[0x7F] = '⌂'

	for b := 0x80; b <= 0xFF; b++ {
		r := charmap.Windows1252.DecodeByte(byte(b))
		if r == utf8.RuneError || (r >= 0x80 && r < 0xA0) {
			// Holes in the code page.
			r = ReplacementGlyph
		}
		t[b] = r
	}
	return t
}

// DecodeByte returns the character for an input byte.
func DecodeByte(b byte) rune {
	return charTable[b]
}

// isControl reports whether the byte maps to a control code.
func isControl(b byte) bool {
	return charTable[b] < 0x20
}

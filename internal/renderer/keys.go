package renderer

import (
	"github.com/gdamore/tcell/v2"
	"golang.org/x/text/encoding/charmap"
)

const (
	esc = 0x1b
	del = 0x7f
)

// Cursor and editing keys as sent by a VT100-style terminal.
var keySequences = map[tcell.Key]string{
	tcell.KeyUp:     "\x1b[A",
	tcell.KeyDown:   "\x1b[B",
	tcell.KeyRight:  "\x1b[C",
	tcell.KeyLeft:   "\x1b[D",
	tcell.KeyHome:   "\x1b[H",
	tcell.KeyEnd:    "\x1b[F",
	tcell.KeyInsert: "\x1b[2~",
	tcell.KeyDelete: "\x1b[3~",
	tcell.KeyPgUp:   "\x1b[5~",
	tcell.KeyPgDn:   "\x1b[6~",
	tcell.KeyF1:     "\x1bOP",
	tcell.KeyF2:     "\x1bOQ",
	tcell.KeyF3:     "\x1bOR",
	tcell.KeyF4:     "\x1bOS",
}

// ControlByte returns the C0 control byte a key event stands for, such as
// 0x11 for Ctrl-Q.
func ControlByte(ev *tcell.EventKey) (byte, bool) {
	k := ev.Key()
	switch {
	case k >= tcell.KeyCtrlSpace && k <= tcell.KeyCtrlUnderscore:
		return byte(k - tcell.KeyCtrlSpace), true
	case k >= tcell.KeyNUL && k < 0x20:
		return byte(k), true
	default:
		return 0, false
	}
}

// KeyBytes returns the bytes to send to the device for a key event, or nil
// when the key has no serial encoding. Backspace is sent as DEL. Runes are
// encoded in the same 8-bit character set used to display device output;
// runes outside it are sent as '?'. Alt prefixes the key with ESC.
func KeyBytes(ev *tcell.EventKey) []byte {
	var out []byte
	if ev.Modifiers()&tcell.ModAlt != 0 {
		out = append(out, esc)
	}

	switch k := ev.Key(); k {
	case tcell.KeyRune:
		b, ok := charmap.Windows1252.EncodeRune(ev.Rune())
		if !ok {
			b = '?'
		}
		return append(out, b)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return append(out, del)
	default:
		if b, ok := ControlByte(ev); ok {
			return append(out, b)
		}
		if seq, ok := keySequences[k]; ok {
			return append(out, seq...)
		}
		return nil
	}
}

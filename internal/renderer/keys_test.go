package renderer

import (
	"bytes"
	"testing"

	"github.com/gdamore/tcell/v2"
)

func TestKeyBytes(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want []byte
	}{
		{"rune", tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone), []byte("a")},
		{"latin1 rune", tcell.NewEventKey(tcell.KeyRune, 'é', tcell.ModNone), []byte{0xE9}},
		{"euro", tcell.NewEventKey(tcell.KeyRune, '€', tcell.ModNone), []byte{0x80}},
		{"unencodable", tcell.NewEventKey(tcell.KeyRune, '世', tcell.ModNone), []byte("?")},
		{"alt rune", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModAlt), []byte("\x1bx")},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), []byte("\r")},
		{"tab", tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone), []byte("\t")},
		{"escape", tcell.NewEventKey(tcell.KeyEsc, 0, tcell.ModNone), []byte("\x1b")},
		{"backspace", tcell.NewEventKey(tcell.KeyBackspace, 0, tcell.ModNone), []byte{0x7f}},
		{"backspace2", tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone), []byte{0x7f}},
		{"ctrl-c", tcell.NewEventKey(tcell.KeyCtrlC, 'c', tcell.ModCtrl), []byte{0x03}},
		{"up", tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), []byte("\x1b[A")},
		{"delete", tcell.NewEventKey(tcell.KeyDelete, 0, tcell.ModNone), []byte("\x1b[3~")},
		{"f1", tcell.NewEventKey(tcell.KeyF1, 0, tcell.ModNone), []byte("\x1bOP")},
		{"unmapped", tcell.NewEventKey(tcell.KeyF12, 0, tcell.ModNone), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KeyBytes(tt.ev)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestControlByte(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want byte
		ok   bool
	}{
		{"ctrl-q", tcell.NewEventKey(tcell.KeyCtrlQ, 'q', tcell.ModCtrl), 0x11, true},
		{"ctrl-l", tcell.NewEventKey(tcell.KeyCtrlL, 'l', tcell.ModCtrl), 0x0c, true},
		{"raw control byte", tcell.NewEventKey(tcell.KeyRune, 0x11, tcell.ModNone), 0x11, true},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), '\r', true},
		{"rune", tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), 0, false},
		{"arrow", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ControlByte(tt.ev)
			if ok != tt.ok || got != tt.want {
				t.Errorf("expected (0x%02x, %v), got (0x%02x, %v)", tt.want, tt.ok, got, ok)
			}
		})
	}
}

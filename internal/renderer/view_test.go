package renderer

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/serialterm/internal/packet"
	"github.com/dshills/serialterm/internal/terminal"
)

func newTestView(t *testing.T, w, h int, opts ViewOptions) (*View, tcell.SimulationScreen) {
	t.Helper()
	sim := tcell.NewSimulationScreen("UTF-8")
	v := NewView(sim, opts)
	if err := v.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(v.Fini)
	sim.SetSize(w, h)
	v.Resize()
	return v, sim
}

func rowText(sim tcell.SimulationScreen, row, width int) string {
	runes := make([]rune, width)
	for x := 0; x < width; x++ {
		r, _, _, _ := sim.GetContent(x, row) //nolint:staticcheck // GetContent is the correct API
		runes[x] = r
	}
	return string(runes)
}

func screenWith(t *testing.T, w, h int, data string) *terminal.Screen {
	t.Helper()
	s := terminal.NewScreen(terminal.ScreenOptions{Width: w, Height: h})
	s.OnNewData([]byte(data), packet.In, false)
	return s
}

func TestViewDrawsBottomAnchoredWindow(t *testing.T) {
	v, sim := newTestView(t, 10, 3, ViewOptions{})
	s := screenWith(t, 10, 3, "one\r\ntwo\r\nthree\r\nfour")

	v.Draw(s.Snapshot())

	want := []string{"two       ", "three     ", "four      "}
	for row, line := range want {
		if got := rowText(sim, row, 10); got != line {
			t.Errorf("row %d: expected %q, got %q", row, line, got)
		}
	}

	x, y, visible := sim.GetCursor()
	if !visible || x != 4 || y != 2 {
		t.Errorf("expected visible cursor at (4,2), got (%d,%d) visible=%v", x, y, visible)
	}
}

func TestViewRedrawsChangedRows(t *testing.T) {
	v, sim := newTestView(t, 8, 2, ViewOptions{})
	s := screenWith(t, 8, 2, "abc")

	v.Draw(s.Snapshot())
	if got := rowText(sim, 0, 8); got != "abc     " {
		t.Fatalf("expected %q, got %q", "abc     ", got)
	}

	s.OnNewData([]byte("\rxy"), packet.In, false)
	v.Draw(s.Snapshot())
	if got := rowText(sim, 0, 8); got != "xyc     " {
		t.Errorf("expected %q, got %q", "xyc     ", got)
	}

	s.Clear(false)
	v.Draw(s.Snapshot())
	if got := rowText(sim, 0, 8); got != "        " {
		t.Errorf("expected cleared row, got %q", got)
	}
}

func TestViewBlanksRowsNoLongerUsed(t *testing.T) {
	v, sim := newTestView(t, 6, 3, ViewOptions{})
	s := screenWith(t, 6, 3, "a\r\nb\r\nc")

	v.Draw(s.Snapshot())
	s.Clear(false)
	s.OnNewData([]byte("z"), packet.In, false)
	v.Draw(s.Snapshot())

	if got := rowText(sim, 0, 6); got != "z     " {
		t.Errorf("row 0: expected %q, got %q", "z     ", got)
	}
	for row := 1; row < 3; row++ {
		if got := rowText(sim, row, 6); got != "      " {
			t.Errorf("row %d: expected blank, got %q", row, got)
		}
	}
}

func TestViewColors(t *testing.T) {
	v, sim := newTestView(t, 10, 1, ViewOptions{})
	s := screenWith(t, 10, 1, "a\x1b[31mb\x1b[0mc")

	v.Draw(s.Snapshot())

	_, _, plain, _ := sim.GetContent(0, 0) //nolint:staticcheck // GetContent is the correct API
	_, _, red, _ := sim.GetContent(1, 0)   //nolint:staticcheck // GetContent is the correct API
	_, _, after, _ := sim.GetContent(2, 0) //nolint:staticcheck // GetContent is the correct API

	if fg, _, _ := plain.Decompose(); fg != tcell.ColorDefault {
		t.Errorf("expected default color before SGR, got %v", fg)
	}
	if fg, _, _ := red.Decompose(); fg != tcell.PaletteColor(terminal.ColorRed.Index) {
		t.Errorf("expected palette red, got %v", fg)
	}
	if fg, _, _ := after.Decompose(); fg != tcell.ColorDefault {
		t.Errorf("expected default color after reset, got %v", fg)
	}
}

func TestViewStatusLine(t *testing.T) {
	v, sim := newTestView(t, 12, 3, ViewOptions{StatusLine: true})

	if w, h := v.ContentSize(); w != 12 || h != 2 {
		t.Fatalf("expected content 12x2, got %dx%d", w, h)
	}

	v.SetStatus("ttyUSB0")
	v.Draw(screenWith(t, 12, 2, "x").Snapshot())

	if got := rowText(sim, 2, 12); got != "ttyUSB0     " {
		t.Errorf("expected status row, got %q", got)
	}
	_, _, style, _ := sim.GetContent(0, 2) //nolint:staticcheck // GetContent is the correct API
	if _, _, attrs := style.Decompose(); attrs&tcell.AttrReverse == 0 {
		t.Errorf("expected reverse video status row")
	}
}

func TestViewHidesCursorOutsideWindow(t *testing.T) {
	v, sim := newTestView(t, 4, 2, ViewOptions{})
	s := screenWith(t, 4, 2, "1\r\n2\r\n3")

	snap := s.Snapshot()
	snap.Cursor = terminal.Cursor{Line: 0, Column: 0}
	v.Draw(snap)

	if _, _, visible := sim.GetCursor(); visible {
		t.Errorf("expected cursor hidden when its line is scrolled off")
	}
}

package renderer

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/serialterm/internal/terminal"
)

// ViewOptions configures a View.
type ViewOptions struct {
	// StatusLine reserves the bottom row for SetStatus text.
	StatusLine bool
}

// View draws snapshots onto a tcell screen.
type View struct {
	mu     sync.Mutex
	screen tcell.Screen
	opts   ViewOptions

	// drawn holds the line revision painted on each row; 0 means blank.
	drawn  []uint64
	status string
	dirty  bool // status row needs repainting
}

// NewView creates a view on screen. The screen is not initialized.
func NewView(screen tcell.Screen, opts ViewOptions) *View {
	return &View{
		screen: screen,
		opts:   opts,
		dirty:  true,
	}
}

// Init initializes the underlying screen.
func (v *View) Init() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.screen.Init(); err != nil {
		return err
	}
	v.screen.EnablePaste()
	v.screen.Clear()
	v.invalidateLocked()
	return nil
}

// Fini restores the terminal.
func (v *View) Fini() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.screen.Fini()
}

// PollEvent waits for the next screen event. It returns nil after Fini.
func (v *View) PollEvent() tcell.Event {
	return v.screen.PollEvent()
}

// ContentSize returns the area available to the terminal screen, without
// the status row.
func (v *View) ContentSize() (width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.contentSizeLocked()
}

func (v *View) contentSizeLocked() (int, int) {
	w, h := v.screen.Size()
	if v.opts.StatusLine && h > 1 {
		h--
	}
	return w, h
}

// Resize adapts to a new terminal size and repaints everything next frame.
func (v *View) Resize() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.screen.Sync()
	v.invalidateLocked()
}

// SetStatus sets the status row text.
func (v *View) SetStatus(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if text != v.status {
		v.status = text
		v.dirty = true
	}
}

// Bell sounds the terminal bell.
func (v *View) Bell() {
	v.mu.Lock()
	defer v.mu.Unlock()
	_ = v.screen.Beep() // best-effort; not every terminal has a bell
}

// Draw paints snap and shows the frame.
func (v *View) Draw(snap terminal.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()

	width, height := v.contentSizeLocked()
	if len(v.drawn) != height {
		v.drawn = make([]uint64, height)
		v.screen.Clear()
		v.dirty = true
	}

	snap.Height = min(snap.Height, height)
	lines, top := snap.Visible()

	for row := 0; row < height; row++ {
		if row >= len(lines) {
			if v.drawn[row] != 0 {
				v.fillRow(row, width)
				v.drawn[row] = 0
			}
			continue
		}
		line := lines[row]
		if v.drawn[row] == line.Revision {
			continue
		}
		v.drawLine(row, width, line)
		v.drawn[row] = line.Revision
	}

	if v.opts.StatusLine && v.dirty {
		v.drawStatus(width, height)
		v.dirty = false
	}

	cur := snap.Cursor
	row := cur.Line - top
	if row >= 0 && row < height && cur.Column < width {
		v.screen.ShowCursor(cur.Column, row)
	} else {
		v.screen.HideCursor()
	}

	v.screen.Show()
}

func (v *View) drawLine(row, width int, line terminal.StyledLine) {
	text := []rune(line.Text)
	n := min(len(text), width)
	styles := cellStyles(line, n)
	for x := 0; x < n; x++ {
		v.screen.SetContent(x, row, text[x], nil, styles[x])
	}
	for x := n; x < width; x++ {
		v.screen.SetContent(x, row, ' ', nil, tcell.StyleDefault)
	}
}

func (v *View) fillRow(row, width int) {
	for x := 0; x < width; x++ {
		v.screen.SetContent(x, row, ' ', nil, tcell.StyleDefault)
	}
}

func (v *View) drawStatus(width, row int) {
	text := []rune(v.status)
	for x := 0; x < width; x++ {
		r := ' '
		if x < len(text) {
			r = text[x]
		}
		v.screen.SetContent(x, row, r, nil, statusStyle)
	}
}

func (v *View) invalidateLocked() {
	v.drawn = nil
	v.dirty = true
}

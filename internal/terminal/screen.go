package terminal

import (
	"context"
	"strings"
	"sync"

	"pkt.systems/pslog"

	"github.com/dshills/serialterm/internal/packet"
)

// Default screen settings.
const (
	DefaultWidth          = 80
	DefaultHeight         = 24
	DefaultSizeUpperBound = 100000
	DefaultTrimHysteresis = 10000
	DefaultMaxLines       = 10000
)

// Cursor is a position in the line buffer. Line is an absolute line index,
// not relative to the visible window.
type Cursor struct {
	Line   int
	Column int
}

// Clearer is implemented by a backing store that Clear can reset along with
// the screen.
type Clearer interface {
	Clear()
}

// ScreenOptions configures a Screen.
type ScreenOptions struct {
	// Width is the line capacity in characters.
	Width int

	// Height is the number of visible lines. It only affects how cursor
	// positioning sequences map onto the buffer.
	Height int

	// SizeUpperBound is the number of characters retained after a trim.
	SizeUpperBound int

	// TrimHysteresis is how far past SizeUpperBound the buffer may grow
	// before lines are evicted.
	TrimHysteresis int

	// MaxLines caps the number of retained lines, empty ones included.
	MaxLines int

	// ShowControlChars shows unsupported control bytes as ReplacementGlyph.
	ShowControlChars bool

	// ResetClearsStyle makes SGR 0 forget the color carried onto new lines.
	ResetClearsStyle bool

	// Reply receives device status report answers. It is called without
	// the screen lock held.
	Reply func(data []byte)

	// Bell is called for every BEL byte, without the screen lock held.
	Bell func()

	// Store is cleared by Clear(true).
	Store Clearer

	Logger pslog.Logger
}

// DefaultScreenOptions returns the default options.
func DefaultScreenOptions() ScreenOptions {
	return ScreenOptions{
		Width:            DefaultWidth,
		Height:           DefaultHeight,
		SizeUpperBound:   DefaultSizeUpperBound,
		TrimHysteresis:   DefaultTrimHysteresis,
		MaxLines:         DefaultMaxLines,
		ResetClearsStyle: true,
	}
}

// Snapshot is a read-only copy of the screen for rendering.
type Snapshot struct {
	Lines  []StyledLine
	Cursor Cursor
	Width  int
	Height int
}

// Visible returns the bottom-anchored window of at most Height lines and
// the index of its first line.
func (s Snapshot) Visible() ([]StyledLine, int) {
	top := 0
	if s.Height > 0 && len(s.Lines) > s.Height {
		top = len(s.Lines) - s.Height
	}
	return s.Lines[top:], top
}

// Screen is a line-oriented terminal buffer driven by an Interpreter.
// All methods are safe for concurrent use; OnNewData calls are serialized
// by the screen lock.
type Screen struct {
	mu sync.Mutex

	lines  []*Line
	cursor Cursor
	total  int // sum of line lengths

	width      int
	height     int
	bound      int
	hysteresis int
	maxLines   int

	resetClearsStyle bool
	color            Color // remembered color, reopened on new lines
	hasColor         bool

	revs   RevisionSource
	interp *Interpreter

	reply func([]byte)
	bell  func()
	store Clearer
	log   pslog.Logger

	// Side effects collected while locked
	replies [][]byte
	bells   int
}

// NewScreen creates a screen holding one empty line.
func NewScreen(opts ScreenOptions) *Screen {
	def := DefaultScreenOptions()
	if opts.Width < 1 {
		opts.Width = def.Width
	}
	if opts.Height < 1 {
		opts.Height = def.Height
	}
	if opts.SizeUpperBound < 1 {
		opts.SizeUpperBound = def.SizeUpperBound
	}
	if opts.TrimHysteresis < 0 {
		opts.TrimHysteresis = def.TrimHysteresis
	}
	if opts.MaxLines < 1 {
		opts.MaxLines = def.MaxLines
	}
	if opts.Logger == nil {
		opts.Logger = pslog.Ctx(context.Background())
	}

	s := &Screen{
		width:            opts.Width,
		height:           opts.Height,
		bound:            opts.SizeUpperBound,
		hysteresis:       opts.TrimHysteresis,
		maxLines:         opts.MaxLines,
		resetClearsStyle: opts.ResetClearsStyle,
		reply:            opts.Reply,
		bell:             opts.Bell,
		store:            opts.Store,
		log:              opts.Logger,
		interp:           NewInterpreter(),
	}
	s.interp.SetShowControlChars(opts.ShowControlChars)
	s.interp.SetUnknownCallback(func(seq string) {
		s.log.Debug("unsupported control sequence", "seq", seq)
	})
	s.lines = []*Line{s.newLine()}
	return s
}

// OnNewData interprets data and applies it to the buffer. Outbound data is
// ignored. When replay is set, status report replies are suppressed.
func (s *Screen) OnNewData(data []byte, dir packet.Direction, replay bool) {
	if dir != packet.In || len(data) == 0 {
		return
	}

	s.mu.Lock()
	s.interp.Feed(data, screenOps{s}, replay)

	// Keep the cell under the cursor drawable.
	s.total += s.cursorLine().AppendSpacesTo(s.cursor.Column)

	s.trimLocked()
	replies, bells := s.replies, s.bells
	s.replies, s.bells = nil, 0
	s.mu.Unlock()

	if s.reply != nil {
		for _, r := range replies {
			s.reply(r)
		}
	}
	if s.bell != nil {
		for i := 0; i < bells; i++ {
			s.bell()
		}
	}
}

// PositionCursor moves the cursor to a 1-based row and column of the
// bottom-anchored visible window.
func (s *Screen) PositionCursor(row, col int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positionCursor(row, col)
}

// SetDimensions changes the line width and the visible height. Existing
// lines are resized to the new width, truncating what no longer fits.
// It reports whether the width changed.
func (s *Screen) SetDimensions(width, height int) bool {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.height = height
	if width == s.width {
		return false
	}

	s.width = width
	for _, l := range s.lines {
		s.total += l.SetCapacity(width)
	}
	if s.cursor.Column > width {
		s.cursor.Column = width
	}
	return true
}

// Trim evicts the oldest lines once the buffer has grown past its bound
// plus hysteresis. It returns the number of lines evicted.
func (s *Screen) Trim() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trimLocked()
}

func (s *Screen) trimLocked() int {
	if s.total <= s.bound+s.hysteresis && len(s.lines) <= s.maxLines {
		return 0
	}

	evict := 0
	for evict < s.cursor.Line {
		first := s.lines[evict]
		if s.total-first.Len() <= s.bound && len(s.lines)-evict <= s.maxLines {
			break
		}
		s.total -= first.Len()
		s.lines[evict] = nil
		evict++
	}
	if evict > 0 {
		s.lines = s.lines[evict:]
		s.cursor.Line -= evict
	}
	return evict
}

// Clear resets the buffer to one empty line with the cursor at the origin
// and discards any partially received control sequence. When alsoStore is
// set the backing store is cleared too.
func (s *Screen) Clear(alsoStore bool) {
	s.mu.Lock()
	s.lines = []*Line{s.newLine()}
	s.cursor = Cursor{}
	s.total = 0
	s.hasColor = false
	s.interp.Reset()
	s.replies, s.bells = nil, 0
	s.mu.Unlock()

	if alsoStore && s.store != nil {
		s.store.Clear()
	}
}

// SetShowControlChars controls the display of unsupported control bytes.
func (s *Screen) SetShowControlChars(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interp.SetShowControlChars(show)
}

// Snapshot returns a copy of every line and the cursor.
func (s *Screen) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]StyledLine, len(s.lines))
	for i, l := range s.lines {
		lines[i] = l.Materialize()
	}
	return Snapshot{
		Lines:  lines,
		Cursor: s.cursor,
		Width:  s.width,
		Height: s.height,
	}
}

// Cursor returns the cursor position.
func (s *Screen) Cursor() Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Size returns the width and visible height.
func (s *Screen) Size() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// LineCount returns the number of lines in the buffer.
func (s *Screen) LineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// TotalChars returns the number of occupied characters over all lines.
func (s *Screen) TotalChars() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// LineText returns the text of line i, or "" when out of range.
func (s *Screen) LineText(i int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.lines) {
		return ""
	}
	return s.lines[i].Text()
}

// Line returns the styled view of line i.
func (s *Screen) Line(i int) (StyledLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.lines) {
		return StyledLine{}, false
	}
	return s.lines[i].Materialize(), true
}

// Text returns the whole buffer, one line per row, trailing spaces removed.
func (s *Screen) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	for i, l := range s.lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.TrimRight(l.Text(), " "))
	}
	return b.String()
}

func (s *Screen) newLine() *Line {
	return NewLine(s.width, &s.revs)
}

func (s *Screen) cursorLine() *Line {
	return s.lines[s.cursor.Line]
}

// moveTo places the cursor. Open spans stay on the cursor line only: they
// are closed on the line being left and the remembered color is reopened on
// the line entered.
func (s *Screen) moveTo(line, col int) {
	if line != s.cursor.Line {
		s.cursorLine().EndSpans(s.cursor.Column)
		s.cursor.Line = line
		if s.hasColor {
			s.cursorLine().StartSpan(Style{Foreground: s.color}, col, TagColor)
		}
	}
	s.cursor.Column = col
}

// nextLine moves the cursor to column 0 of the next line, appending one
// when the cursor is on the last line.
func (s *Screen) nextLine() {
	next := s.cursor.Line + 1
	if next == len(s.lines) {
		s.lines = append(s.lines, s.newLine())
	}
	s.moveTo(next, 0)
}

func (s *Screen) positionCursor(row, col int) {
	// A zero row or column means the first one.
	row = max(row, 1)
	col = max(col, 1)

	top := len(s.lines) - s.height
	if top < 0 {
		top = 0
	}
	line := clamp(top+row-1, 0, len(s.lines)-1)
	s.moveTo(line, clamp(col-1, 0, s.width-1))
}

// screenOps applies interpreter output to a Screen whose lock is held.
type screenOps struct {
	s *Screen
}

func (o screenOps) PutChars(chars []rune) {
	s := o.s
	for _, ch := range chars {
		delta, ok := s.cursorLine().PutChar(ch, s.cursor.Column, true)
		if !ok {
			s.nextLine()
			delta, _ = s.cursorLine().PutChar(ch, 0, true)
		}
		s.total += delta
		s.cursor.Column++
	}
}

func (o screenOps) LineFeed() {
	o.s.nextLine()
}

func (o screenOps) CarriageReturn() {
	o.s.cursor.Column = 0
}

func (o screenOps) MoveCursor(rows, cols int, fill bool) {
	s := o.s
	line := clamp(s.cursor.Line+rows, 0, len(s.lines)-1)
	col := clamp(s.cursor.Column+cols, 0, s.width-1)
	s.moveTo(line, col)
	if fill {
		s.total += s.cursorLine().AppendSpacesTo(col)
	}
}

func (o screenOps) PositionCursor(row, col int) {
	o.s.positionCursor(row, col)
}

func (o screenOps) CursorColumn() int {
	return o.s.cursor.Column
}

func (o screenOps) CursorReport() (row, col int) {
	return o.s.cursor.Line + 1, o.s.cursor.Column + 1
}

func (o screenOps) Width() int {
	return o.s.width
}

func (o screenOps) EraseDisplay(mode int) {
	s := o.s
	switch mode {
	case 0:
		s.total += s.cursorLine().ClearFrom(s.cursor.Column)
		for _, l := range s.lines[s.cursor.Line+1:] {
			s.total += l.Clear()
		}
	case 2:
		top := len(s.lines) - s.height
		if top < 0 {
			top = 0
		}
		for _, l := range s.lines[top:] {
			s.total += l.Clear()
		}
		// A cursor moved above the window keeps its line intact.
		if s.cursor.Line >= top {
			s.total += s.cursorLine().ClearAndTruncateTo(s.cursor.Column)
		}
	}
}

func (o screenOps) EraseLine(mode int) {
	s := o.s
	line := s.cursorLine()
	switch mode {
	case 0:
		s.total += line.ClearFrom(s.cursor.Column)
	case 1:
		s.total += line.ClearTo(s.cursor.Column)
	case 2:
		s.total += line.Clear()
	}
}

func (o screenOps) SetColor(c Color) {
	s := o.s
	line := s.cursorLine()
	line.EndSpansByTag(s.cursor.Column, TagColor)
	line.StartSpan(Style{Foreground: c}, s.cursor.Column, TagColor)
	s.color = c
	s.hasColor = true
}

func (o screenOps) ResetStyle() {
	s := o.s
	s.cursorLine().EndSpans(s.cursor.Column)
	if s.resetClearsStyle {
		s.hasColor = false
	}
}

func (o screenOps) Bell() {
	o.s.bells++
}

func (o screenOps) Reply(data []byte) {
	o.s.replies = append(o.s.replies, append([]byte(nil), data...))
}

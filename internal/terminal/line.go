package terminal

import "sync/atomic"

// maxActiveSpans bounds the number of concurrently open spans on a line.
const maxActiveSpans = 20

// Span is a half-open [Start, End) column range carrying one style.
type Span struct {
	Start int
	End   int
	Style Style
	Tag   SpanTag
}

// Empty reports whether the span covers no columns.
func (s Span) Empty() bool {
	return s.End <= s.Start
}

// RevisionSource hands out strictly increasing revision numbers.
// A Screen owns one and shares it with every Line it creates, so a revision
// identifies one state of one line across the whole buffer.
type RevisionSource struct {
	n atomic.Uint64
}

// Next returns a revision never returned before by this source.
func (r *RevisionSource) Next() uint64 {
	return r.n.Add(1)
}

// StyledLine is an immutable view of a line's content.
type StyledLine struct {
	Text     string
	Spans    []Span
	Revision uint64
}

// Line is a fixed-capacity row of characters with style spans.
type Line struct {
	capacity int
	text     []rune

	spans  []Span // finalized
	active []Span // still open

	revs     *RevisionSource
	revision uint64

	cached      StyledLine
	cachedValid bool
}

// NewLine creates an empty line holding at most capacity characters.
func NewLine(capacity int, revs *RevisionSource) *Line {
	if capacity < 1 {
		capacity = 1
	}
	if revs == nil {
		revs = &RevisionSource{}
	}
	l := &Line{
		capacity: capacity,
		text:     make([]rune, 0, capacity),
		revs:     revs,
	}
	l.touch()
	return l
}

// Len returns the number of occupied characters.
func (l *Line) Len() int {
	return len(l.text)
}

// Capacity returns the maximum number of characters.
func (l *Line) Capacity() int {
	return l.capacity
}

// Revision returns the revision of the current content.
func (l *Line) Revision() uint64 {
	return l.revision
}

// Text returns the line content as a string.
func (l *Line) Text() string {
	return string(l.text)
}

// Spans returns a copy of the finalized spans.
func (l *Line) Spans() []Span {
	return append([]Span(nil), l.spans...)
}

// ActiveSpans returns a copy of the spans still open.
func (l *Line) ActiveSpans() []Span {
	return append([]Span(nil), l.active...)
}

// PutChar writes ch at column, space-filling any gap after the current end.
// When extend is set every active span grows to cover the column.
// It returns the change in occupied length, or ok=false when column is past
// the line capacity; the caller is expected to continue on a new line.
func (l *Line) PutChar(ch rune, column int, extend bool) (delta int, ok bool) {
	if column >= l.capacity {
		return 0, false
	}
	if column < 0 {
		column = 0
	}

	old := len(l.text)
	for len(l.text) < column {
		l.text = append(l.text, ' ')
	}
	if column < len(l.text) {
		l.text[column] = ch
	} else {
		l.text = append(l.text, ch)
	}

	if extend {
		for i := range l.active {
			if l.active[i].End < column+1 {
				l.active[i].End = column + 1
			}
		}
	}

	l.touch()
	return len(l.text) - old, true
}

// AppendSpacesTo space-fills the line up to, not including, column and grows
// active spans to the same point. The cell at column itself is left for the
// cursor.
func (l *Line) AppendSpacesTo(column int) int {
	if column > l.capacity {
		column = l.capacity
	}
	old := len(l.text)
	for len(l.text) < column {
		l.text = append(l.text, ' ')
	}
	for i := range l.active {
		if l.active[i].End < column {
			l.active[i].End = column
		}
	}
	l.touch()
	return len(l.text) - old
}

// Clear empties the line and drops its finalized spans.
func (l *Line) Clear() int {
	delta := -len(l.text)
	l.text = l.text[:0]
	l.spans = nil
	for i := range l.active {
		l.active[i].Start = 0
		l.active[i].End = 0
	}
	l.touch()
	return delta
}

// ClearTo blanks columns 0 through to, inclusive. The occupied length does
// not change.
func (l *Line) ClearTo(to int) int {
	for i := 0; i <= to && i < len(l.text); i++ {
		l.text[i] = ' '
	}

	cut := to + 1
	if cut > l.capacity {
		cut = l.capacity
	}
	kept := l.spans[:0]
	for _, s := range l.spans {
		if s.Start < cut {
			s.Start = cut
		}
		if !s.Empty() {
			kept = append(kept, s)
		}
	}
	l.spans = kept
	for i := range l.active {
		if l.active[i].Start < cut {
			l.active[i].Start = cut
		}
		if l.active[i].End < l.active[i].Start {
			l.active[i].End = l.active[i].Start
		}
	}

	l.touch()
	return 0
}

// ClearFrom removes everything from column from to the end of the line.
func (l *Line) ClearFrom(from int) int {
	if from < 0 {
		from = 0
	}
	if from >= len(l.text) {
		return 0
	}

	delta := from - len(l.text)
	l.text = l.text[:from]
	l.clipSpans(from)
	l.touch()
	return delta
}

// ClearAndTruncateTo replaces the whole line by to blank cells.
func (l *Line) ClearAndTruncateTo(to int) int {
	if to < 0 {
		to = 0
	}
	if to > l.capacity {
		to = l.capacity
	}

	old := len(l.text)
	l.text = l.text[:0]
	for len(l.text) < to {
		l.text = append(l.text, ' ')
	}
	l.spans = nil
	for i := range l.active {
		l.active[i].Start = to
		l.active[i].End = to
	}

	l.touch()
	return len(l.text) - old
}

// SetCapacity changes the line capacity, truncating content that no longer
// fits. It returns the change in occupied length.
func (l *Line) SetCapacity(capacity int) int {
	if capacity < 1 {
		capacity = 1
	}
	delta := 0
	if len(l.text) > capacity {
		delta = capacity - len(l.text)
		l.text = l.text[:capacity]
	}
	l.capacity = capacity
	l.clipSpans(capacity)
	l.touch()
	return delta
}

// StartSpan opens a zero-width span at column at. Spans past the limit of
// concurrently open spans are ignored.
func (l *Line) StartSpan(style Style, at int, tag SpanTag) {
	if len(l.active) >= maxActiveSpans {
		return
	}
	at = clamp(at, 0, l.capacity)
	l.active = append(l.active, Span{Start: at, End: at, Style: style, Tag: tag})
	l.touch()
}

// EndSpans closes every active span at column at.
func (l *Line) EndSpans(at int) {
	l.endSpans(at, func(Span) bool { return true })
}

// EndSpansByTag closes the active spans carrying tag at column at.
func (l *Line) EndSpansByTag(at int, tag SpanTag) {
	l.endSpans(at, func(s Span) bool { return s.Tag == tag })
}

func (l *Line) endSpans(at int, match func(Span) bool) {
	if len(l.active) == 0 {
		return
	}
	at = clamp(at, 0, l.capacity)

	open := l.active[:0]
	for _, s := range l.active {
		if !match(s) {
			open = append(open, s)
			continue
		}
		if s.End < at {
			s.End = at
		}
		if !s.Empty() {
			l.spans = append(l.spans, s)
		}
	}
	l.active = open
	l.touch()
}

// Materialize returns an immutable styled view of the line. The view is
// cached until the next mutation.
func (l *Line) Materialize() StyledLine {
	if l.cachedValid && l.cached.Revision == l.revision {
		return l.cached
	}

	spans := make([]Span, 0, len(l.spans)+len(l.active))
	spans = append(spans, l.spans...)
	for _, s := range l.active {
		if !s.Empty() {
			spans = append(spans, s)
		}
	}

	l.cached = StyledLine{
		Text:     string(l.text),
		Spans:    spans,
		Revision: l.revision,
	}
	l.cachedValid = true
	return l.cached
}

// clipSpans cuts every span at column limit.
func (l *Line) clipSpans(limit int) {
	kept := l.spans[:0]
	for _, s := range l.spans {
		if s.End > limit {
			s.End = limit
		}
		if !s.Empty() {
			kept = append(kept, s)
		}
	}
	l.spans = kept
	for i := range l.active {
		if l.active[i].End > limit {
			l.active[i].End = limit
		}
		if l.active[i].Start > l.active[i].End {
			l.active[i].Start = l.active[i].End
		}
	}
}

func (l *Line) touch() {
	l.revision = l.revs.Next()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

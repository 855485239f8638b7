package terminal

import (
	"testing"
)

func putString(l *Line, s string, col int) {
	for _, r := range s {
		l.PutChar(r, col, true)
		col++
	}
}

func TestLinePutCharFillsGap(t *testing.T) {
	l := NewLine(10, nil)

	delta, ok := l.PutChar('x', 3, false)
	if !ok {
		t.Fatal("expected put within capacity to succeed")
	}
	if delta != 4 {
		t.Errorf("expected delta 4, got %d", delta)
	}
	if l.Text() != "   x" {
		t.Errorf("expected '   x', got %q", l.Text())
	}
}

func TestLinePutCharOverwrite(t *testing.T) {
	l := NewLine(10, nil)
	putString(l, "abc", 0)

	delta, _ := l.PutChar('X', 1, false)
	if delta != 0 {
		t.Errorf("expected delta 0 for overwrite, got %d", delta)
	}
	if l.Text() != "aXc" {
		t.Errorf("expected 'aXc', got %q", l.Text())
	}
}

func TestLinePutCharOutOfBounds(t *testing.T) {
	l := NewLine(3, nil)
	putString(l, "abc", 0)

	if _, ok := l.PutChar('d', 3, true); ok {
		t.Error("expected put at capacity to fail")
	}
	if l.Len() != 3 {
		t.Errorf("expected length 3, got %d", l.Len())
	}
}

func TestLineAppendSpacesTo(t *testing.T) {
	l := NewLine(10, nil)
	putString(l, "ab", 0)
	l.StartSpan(Style{Foreground: ColorRed}, 2, TagColor)

	delta := l.AppendSpacesTo(5)
	if delta != 3 {
		t.Errorf("expected delta 3, got %d", delta)
	}
	if l.Text() != "ab   " {
		t.Errorf("expected 'ab   ', got %q", l.Text())
	}

	active := l.ActiveSpans()
	if len(active) != 1 || active[0].End != 5 {
		t.Errorf("expected active span extended to 5, got %+v", active)
	}

	if l.AppendSpacesTo(20) != 5 {
		t.Error("expected fill clamped to capacity")
	}
}

func TestLineEraseVariants(t *testing.T) {
	tests := []struct {
		name  string
		erase func(l *Line) int
		text  string
		delta int
	}{
		{"Clear", func(l *Line) int { return l.Clear() }, "", -6},
		{"ClearTo", func(l *Line) int { return l.ClearTo(2) }, "   def", 0},
		{"ClearFrom", func(l *Line) int { return l.ClearFrom(2) }, "ab", -4},
		{"ClearFromPastEnd", func(l *Line) int { return l.ClearFrom(9) }, "abcdef", 0},
		{"ClearAndTruncateTo", func(l *Line) int { return l.ClearAndTruncateTo(3) }, "   ", -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLine(10, nil)
			putString(l, "abcdef", 0)

			delta := tt.erase(l)
			if delta != tt.delta {
				t.Errorf("expected delta %d, got %d", tt.delta, delta)
			}
			if l.Text() != tt.text {
				t.Errorf("expected %q, got %q", tt.text, l.Text())
			}
		})
	}
}

func TestLineSpanLifecycle(t *testing.T) {
	l := NewLine(20, nil)

	l.StartSpan(Style{Foreground: ColorGreen}, 0, TagColor)
	putString(l, "hello", 0)
	l.EndSpans(5)

	spans := l.Spans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Start != 0 || spans[0].End != 5 {
		t.Errorf("expected span [0,5), got [%d,%d)", spans[0].Start, spans[0].End)
	}
	if spans[0].Tag != TagColor {
		t.Errorf("expected color tag, got %s", spans[0].Tag)
	}
	if len(l.ActiveSpans()) != 0 {
		t.Error("expected no active spans after EndSpans")
	}
}

func TestLineZeroWidthSpanDropped(t *testing.T) {
	l := NewLine(20, nil)

	l.StartSpan(Style{Foreground: ColorBlue}, 4, TagColor)
	l.EndSpans(4)

	if len(l.Spans()) != 0 {
		t.Errorf("expected zero-width span to be dropped, got %+v", l.Spans())
	}
}

func TestLineEndSpansByTag(t *testing.T) {
	l := NewLine(20, nil)

	l.StartSpan(Style{Foreground: ColorRed}, 0, TagColor)
	l.StartSpan(Style{}, 0, TagNone)
	putString(l, "abc", 0)
	l.EndSpansByTag(3, TagColor)

	if len(l.Spans()) != 1 || l.Spans()[0].Tag != TagColor {
		t.Errorf("expected only the color span closed, got %+v", l.Spans())
	}
	if len(l.ActiveSpans()) != 1 || l.ActiveSpans()[0].Tag != TagNone {
		t.Errorf("expected untagged span still open, got %+v", l.ActiveSpans())
	}
}

func TestLineActiveSpanLimit(t *testing.T) {
	l := NewLine(20, nil)

	for i := 0; i < maxActiveSpans+5; i++ {
		l.StartSpan(Style{}, 0, TagNone)
	}
	if got := len(l.ActiveSpans()); got != maxActiveSpans {
		t.Errorf("expected %d active spans, got %d", maxActiveSpans, got)
	}
}

func TestLineSpansWithinCapacity(t *testing.T) {
	l := NewLine(8, nil)

	l.StartSpan(Style{Foreground: ColorRed}, 2, TagColor)
	putString(l, "abcdef", 2)
	l.EndSpans(100)

	for _, s := range l.Spans() {
		if s.Start < 0 || s.Start > s.End || s.End > l.Capacity() {
			t.Errorf("span [%d,%d) outside [0,%d]", s.Start, s.End, l.Capacity())
		}
	}
}

func TestLineSetCapacityTruncates(t *testing.T) {
	l := NewLine(10, nil)
	l.StartSpan(Style{Foreground: ColorRed}, 0, TagColor)
	putString(l, "abcdefgh", 0)
	l.EndSpans(8)

	delta := l.SetCapacity(4)
	if delta != -4 {
		t.Errorf("expected delta -4, got %d", delta)
	}
	if l.Text() != "abcd" {
		t.Errorf("expected 'abcd', got %q", l.Text())
	}
	if spans := l.Spans(); len(spans) != 1 || spans[0].End != 4 {
		t.Errorf("expected span clipped to 4, got %+v", spans)
	}
}

func TestLineRevisionChanges(t *testing.T) {
	revs := &RevisionSource{}
	l := NewLine(10, revs)

	seen := map[uint64]bool{l.Revision(): true}
	mutations := []func(){
		func() { l.PutChar('a', 0, true) },
		func() { l.StartSpan(Style{}, 1, TagNone) },
		func() { l.AppendSpacesTo(4) },
		func() { l.EndSpans(4) },
		func() { l.ClearTo(1) },
		func() { l.ClearFrom(2) },
		func() { l.Clear() },
	}
	for i, mutate := range mutations {
		before := l.Revision()
		mutate()
		after := l.Revision()
		if after <= before {
			t.Errorf("mutation %d: revision did not increase (%d -> %d)", i, before, after)
		}
		if seen[after] {
			t.Errorf("mutation %d: revision %d reused", i, after)
		}
		seen[after] = true
	}
}

func TestLineRevisionsSharedSource(t *testing.T) {
	revs := &RevisionSource{}
	a := NewLine(10, revs)
	b := NewLine(10, revs)

	if a.Revision() == b.Revision() {
		t.Error("expected lines from one source to have distinct revisions")
	}
}

func TestLineMaterializeCached(t *testing.T) {
	l := NewLine(10, nil)
	putString(l, "hi", 0)

	first := l.Materialize()
	second := l.Materialize()
	if first.Revision != second.Revision || first.Text != second.Text {
		t.Error("expected cached view without mutation")
	}

	l.PutChar('!', 2, true)
	third := l.Materialize()
	if third.Text != "hi!" {
		t.Errorf("expected 'hi!', got %q", third.Text)
	}
	if third.Revision == first.Revision {
		t.Error("expected new revision after mutation")
	}
}

func TestLineMaterializeIncludesActiveSpans(t *testing.T) {
	l := NewLine(10, nil)
	l.StartSpan(Style{Foreground: ColorCyan}, 0, TagColor)
	putString(l, "abc", 0)

	view := l.Materialize()
	if len(view.Spans) != 1 || view.Spans[0].End != 3 {
		t.Errorf("expected open span [0,3) in view, got %+v", view.Spans)
	}
}

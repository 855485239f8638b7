package terminal

import (
	"strconv"
)

const (
	// outputCapacity is the size of the printable character buffer.
	outputCapacity = 64

	// maxParams is the number of CSI parameters kept per sequence.
	maxParams = 10

	// maxParamDigits caps the digits of one numeric parameter.
	maxParamDigits = 4

	// tabWidth is the distance between tab stops.
	tabWidth = 8
)

// Display is the set of operations the interpreter drives. Cursor rows and
// columns passed to PositionCursor are 1-based; everything else is 0-based
// or relative.
type Display interface {
	// PutChars writes characters at the cursor. The slice is only valid for
	// the duration of the call.
	PutChars(chars []rune)

	// LineFeed moves the cursor to column 0 of the next line.
	LineFeed()

	// CarriageReturn moves the cursor to column 0.
	CarriageReturn()

	// MoveCursor moves the cursor relative to its position. When fill is set
	// the target line is space-filled up to the new column.
	MoveCursor(rows, cols int, fill bool)

	// PositionCursor moves the cursor within the visible window.
	PositionCursor(row, col int)

	// CursorColumn returns the cursor column.
	CursorColumn() int

	// CursorReport returns the 1-based absolute cursor position.
	CursorReport() (row, col int)

	// Width returns the line width.
	Width() int

	EraseDisplay(mode int)
	EraseLine(mode int)

	// SetColor opens a color span at the cursor.
	SetColor(c Color)

	// ResetStyle closes every open span at the cursor.
	ResetStyle()

	Bell()

	// Reply sends bytes back to the device.
	Reply(data []byte)
}

type parserState int

const (
	stateIdle parserState = iota
	stateEscape
	stateCSI
)

// String returns the state name.
func (s parserState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateEscape:
		return "escape"
	case stateCSI:
		return "csi"
	default:
		return "unknown"
	}
}

// Interpreter decodes a byte stream into Display operations. It supports
// a small subset of VT100 control sequences; anything else degrades to
// visible text and never stops processing.
//
// An Interpreter holds partial-sequence state and is not safe for concurrent
// use.
type Interpreter struct {
	state parserState

	// CSI parameter accumulation
	params   [maxParams]int
	nparams  int
	overflow bool
	num      int
	digits   int
	negative bool
	numText  []byte // digits and sign of the current parameter, for degrading

	// Pending printable characters
	out  [outputCapacity]rune
	nout int

	showControls bool

	onUnknown func(seq string)
}

// NewInterpreter creates an interpreter in the idle state.
func NewInterpreter() *Interpreter {
	return &Interpreter{
		numText: make([]byte, 0, maxParamDigits+1),
	}
}

// SetShowControlChars controls whether unsupported control bytes are shown
// as ReplacementGlyph instead of being dropped.
func (p *Interpreter) SetShowControlChars(show bool) {
	p.showControls = show
}

// SetUnknownCallback sets the callback for sequences and parameters that
// are recognised but not supported.
func (p *Interpreter) SetUnknownCallback(fn func(seq string)) {
	p.onUnknown = fn
}

// Reset returns the interpreter to the idle state, discarding any partial
// sequence and pending output.
func (p *Interpreter) Reset() {
	p.state = stateIdle
	p.resetParams()
	p.nout = 0
}

// Feed interprets data against d. When replay is set the bytes are a
// re-run of data already seen, and status report replies are suppressed.
func (p *Interpreter) Feed(data []byte, d Display, replay bool) {
	for _, b := range data {
		p.consume(b, d, replay)
	}
	p.flush(d)
}

func (p *Interpreter) consume(b byte, d Display, replay bool) {
	switch p.state {
	case stateIdle:
		p.processIdle(b, d)
	case stateEscape:
		p.processEscape(b, d)
	case stateCSI:
		p.processCSI(b, d, replay)
	}
}

func (p *Interpreter) processIdle(b byte, d Display) {
	if !isControl(b) {
		p.emit(charTable[b], d)
		return
	}

	switch charTable[b] {
	case ctrlLF:
		p.flush(d)
		d.LineFeed()
	case ctrlCR:
		p.flush(d)
		d.CarriageReturn()
	case ctrlBS:
		p.flush(d)
		d.MoveCursor(0, -1, false)
	case ctrlHT:
		p.flush(d)
		p.handleTab(d)
	case ctrlBEL:
		p.flush(d)
		d.Bell()
	case ctrlESC:
		p.state = stateEscape
	default:
		if p.showControls {
			p.emit(ReplacementGlyph, d)
		}
	}
}

func (p *Interpreter) processEscape(b byte, d Display) {
	switch b {
	case '[':
		p.state = stateCSI
		p.resetParams()
	case 'H':
		p.state = stateIdle
		p.flush(d)
		d.PositionCursor(1, 1)
	default:
		// Unsupported escape: show it rather than swallow it.
		p.state = stateIdle
		p.emit('^', d)
		p.emit('[', d)
		p.processIdle(b, d)
	}
}

func (p *Interpreter) processCSI(b byte, d Display, replay bool) {
	switch {
	case b >= '0' && b <= '9':
		if p.digits < maxParamDigits {
			p.num = p.num*10 + int(b-'0')
			p.digits++
			p.numText = append(p.numText, b)
		}
	case b == '-' && p.digits == 0 && !p.negative:
		p.negative = true
		p.numText = append(p.numText, b)
	case b == ';':
		p.pushParam()
	default:
		p.state = stateIdle
		p.finish(b, d, replay)
		p.resetParams()
	}
}

// pushParam moves the current number onto the parameter list.
func (p *Interpreter) pushParam() {
	v := p.num
	if p.negative {
		v = -v
	}
	p.num, p.digits, p.negative = 0, 0, false
	p.numText = p.numText[:0]

	if p.overflow {
		return
	}
	if p.nparams == maxParams {
		p.overflow = true
		p.nparams = 0
		return
	}
	p.params[p.nparams] = v
	p.nparams++
}

// collectParams finalizes the parameter list. The numeric text of the last
// parameter is kept for degrading unsupported sequences.
func (p *Interpreter) collectParams() []int {
	if p.digits > 0 || p.negative || p.nparams > 0 {
		text := append([]byte(nil), p.numText...)
		p.pushParam()
		p.numText = append(p.numText[:0], text...)
	}
	if p.overflow {
		return nil
	}
	return p.params[:p.nparams]
}

func (p *Interpreter) resetParams() {
	p.nparams = 0
	p.overflow = false
	p.num, p.digits, p.negative = 0, 0, false
	p.numText = p.numText[:0]
}

func (p *Interpreter) finish(final byte, d Display, replay bool) {
	params := p.collectParams()

	switch final {
	case 'A': // CUU - Cursor Up
		p.flush(d)
		d.MoveCursor(-atLeastOne(params), 0, true)

	case 'B': // CUD - Cursor Down
		p.flush(d)
		d.MoveCursor(atLeastOne(params), 0, true)

	case 'C': // CUF - Cursor Forward
		p.flush(d)
		d.MoveCursor(0, atLeastOne(params), true)

	case 'D': // CUB - Cursor Back
		p.flush(d)
		d.MoveCursor(0, -atLeastOne(params), false)

	case 'H': // CUP - Cursor Position
		row, col := 1, 1
		if len(params) > 0 {
			row = params[0]
		}
		if len(params) > 1 {
			col = params[1]
		}
		p.flush(d)
		d.PositionCursor(row, col)

	case 'J': // ED - Erase Display
		mode := param(params, 0)
		switch mode {
		case 0, 2:
			p.flush(d)
			d.EraseDisplay(mode)
		default:
			p.report("CSI " + strconv.Itoa(mode) + "J")
		}

	case 'K': // EL - Erase Line
		mode := param(params, 0)
		switch mode {
		case 0, 1, 2:
			p.flush(d)
			d.EraseLine(mode)
		default:
			p.report("CSI " + strconv.Itoa(mode) + "K")
		}

	case 'm': // SGR - Select Graphic Rendition
		p.flush(d)
		p.handleSGR(params, d)

	case 'n': // DSR - Device Status Report
		p.flush(d)
		p.handleDSR(params, d, replay)

	default:
		p.degrade(final, d)
	}
}

func (p *Interpreter) handleSGR(params []int, d Display) {
	if len(params) == 0 {
		d.ResetStyle()
		return
	}

	for _, v := range params {
		if v == 0 {
			d.ResetStyle()
			continue
		}
		if c, ok := sgrColor(v); ok {
			d.SetColor(c)
			continue
		}
		if v == 49 { // Default background
			continue
		}
		p.report("CSI " + strconv.Itoa(v) + "m")
	}
}

func (p *Interpreter) handleDSR(params []int, d Display, replay bool) {
	if len(params) == 0 {
		p.report("CSI n")
		return
	}

	switch params[0] {
	case 5: // Status: ready, no malfunction
		if !replay {
			d.Reply([]byte("\x1b[0n"))
		}
	case 6: // Cursor position report
		if !replay {
			row, col := d.CursorReport()
			d.Reply(cursorPositionReport(row, col))
		}
	default:
		p.report("CSI " + strconv.Itoa(params[0]) + "n")
	}
}

// degrade shows an unsupported CSI sequence as literal text.
func (p *Interpreter) degrade(final byte, d Display) {
	p.report("CSI " + string(p.numText) + string(rune(charTable[final])))

	p.emit('^', d)
	p.emit('[', d)
	p.emit('[', d)
	for _, c := range p.numText {
		p.emit(rune(c), d)
	}
	if isControl(final) {
		p.processIdle(final, d)
		return
	}
	p.emit(charTable[final], d)
}

func (p *Interpreter) handleTab(d Display) {
	col := d.CursorColumn()
	next := (col/tabWidth + 1) * tabWidth
	if last := d.Width() - 1; next > last {
		next = last
	}
	if next > col {
		d.MoveCursor(0, next-col, true)
	}
}

func (p *Interpreter) emit(r rune, d Display) {
	if p.nout == outputCapacity {
		p.flush(d)
	}
	p.out[p.nout] = r
	p.nout++
}

func (p *Interpreter) flush(d Display) {
	if p.nout == 0 {
		return
	}
	d.PutChars(p.out[:p.nout])
	p.nout = 0
}

func (p *Interpreter) report(seq string) {
	if p.onUnknown != nil {
		p.onUnknown(seq)
	}
}

// cursorPositionReport formats a CPR reply: ESC [ row ; col R.
func cursorPositionReport(row, col int) []byte {
	buf := make([]byte, 0, 16)
	buf = append(buf, 0x1b, '[')
	buf = strconv.AppendInt(buf, int64(row), 10)
	buf = append(buf, ';')
	buf = strconv.AppendInt(buf, int64(col), 10)
	buf = append(buf, 'R')
	return buf
}

func param(params []int, index int) int {
	if index < len(params) {
		return params[index]
	}
	return 0
}

func atLeastOne(params []int) int {
	if n := param(params, 0); n > 1 {
		return n
	}
	return 1
}

// Package terminal turns the byte stream of a serial device into a
// scrollable, styled, fixed-width line buffer.
//
// The package is organized around three types:
//
//   - Line: a fixed-capacity row of characters with color spans
//   - Interpreter: a byte-level state machine for a VT100 subset
//   - Screen: the ordered lines, the cursor and the interpreter driving them
//
// # Usage
//
//	screen := terminal.NewScreen(terminal.ScreenOptions{
//	    Width:  80,
//	    Height: 24,
//	    Reply:  func(b []byte) { port.Write(b) },
//	})
//
//	screen.OnNewData([]byte("hello\r\n"), packet.In, false)
//	snap := screen.Snapshot()
//
// # Control Codes
//
// The interpreter acts on LF, CR, BS, HT, BEL and ESC. Bytes 0x0B and 0x0C
// behave like LF. CSI sequences with final bytes A B C D H J K m n are
// supported:
//
//   - A B C D: cursor up, down, forward, back
//   - H: cursor position, 1-based, relative to the bottom-anchored window
//   - J: erase in display, modes 0 and 2
//   - K: erase in line, modes 0, 1 and 2
//   - m: foreground colors 30-37 and 90-97, reset 0, default background 49
//   - n: device status report 5 and 6
//
// Anything else degrades to visible text (an unsupported escape shows as
// "^[" followed by the byte) and never stalls processing.
//
// # Addressing
//
// The visible window is the last Height lines of the buffer. Cursor
// positioning rows count from the top of that window, so output written
// for a 24-line terminal lands in the last 24 lines regardless of how much
// history is kept above it.
//
// # Thread Safety
//
// Screen methods are safe for concurrent use. Interpreter and Line are not;
// the Screen serializes access to them.
package terminal

// Package renderer draws terminal screen snapshots with tcell.
//
// A View owns a tcell.Screen. Draw paints the bottom-anchored window of a
// terminal.Snapshot, places the hardware cursor, and only repaints rows
// whose line revision changed since the previous frame. An optional status
// row at the bottom shows session information.
//
// Key events from the screen are translated to the bytes a serial device
// expects with KeyBytes.
//
// Usage:
//
//	screen, _ := tcell.NewScreen()
//	v := renderer.NewView(screen, renderer.ViewOptions{StatusLine: true})
//	if err := v.Init(); err != nil {
//		return err
//	}
//	defer v.Fini()
//	v.Draw(snapshot)
package renderer

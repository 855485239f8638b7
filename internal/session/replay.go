package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"pkt.systems/pslog"

	"github.com/dshills/serialterm/internal/config"
	"github.com/dshills/serialterm/internal/packet"
	"github.com/dshills/serialterm/internal/terminal"
)

// Replay feeds a recorded inbound byte stream through a fresh store and
// screen and returns the screen. No device is attached, so status report
// queries in the stream are not answered.
func Replay(ctx context.Context, cfg config.Config, r io.Reader) (*terminal.Screen, error) {
	log := pslog.Ctx(ctx)

	store := packet.NewStore(cfg.StoreOptions()...)
	opts := cfg.ScreenOptions()
	opts.Store = store
	opts.Logger = log
	screen := terminal.NewScreen(opts)

	var (
		ptr   packet.Pointer
		total int
		buf   = make([]byte, readBufferSize)
	)
	feed := func(data []byte, _ uint64, _ int, dir packet.Direction, _ time.Time) {
		screen.OnNewData(data, dir, true)
	}

	for {
		if err := ctx.Err(); err != nil {
			return screen, err
		}
		n, err := r.Read(buf)
		if n > 0 {
			store.Append(buf[:n], packet.In)
			total += n
			ptr = store.Process(ptr, feed)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return screen, fmt.Errorf("read capture: %w", err)
		}
	}

	store.InputPaused()
	store.Process(ptr, feed)
	screen.Trim()

	log.Debug("replay finished", "bytes", total, "lines", screen.LineCount())
	return screen, nil
}

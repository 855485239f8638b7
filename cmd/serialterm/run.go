package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/dshills/serialterm/internal/capture"
	"github.com/dshills/serialterm/internal/config"
	"github.com/dshills/serialterm/internal/packet"
	"github.com/dshills/serialterm/internal/renderer"
	"github.com/dshills/serialterm/internal/session"
	"github.com/dshills/serialterm/internal/transport"
)

// Keys handled locally instead of being sent to the device.
const (
	quitKey  = 0x11 // Ctrl-Q
	clearKey = 0x0c // Ctrl-L
)

type runFlags struct {
	device           string
	baud             int
	capture          string
	compress         bool
	showControlChars bool
	logFile          string
}

// apply copies the flags the user set onto cfg.
func (f runFlags) apply(cmd *cobra.Command, args []string, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if len(args) > 0 {
		cfg.Serial.Device = args[0]
	}
	if changed("device") {
		cfg.Serial.Device = f.device
	}
	if changed("baud") {
		cfg.Serial.Baud = f.baud
	}
	if changed("capture") {
		cfg.Capture.Path = f.capture
	}
	if changed("compress") {
		cfg.Capture.Compress = f.compress
	}
	if changed("show-control-chars") {
		cfg.Screen.ShowControlChars = f.showControlChars
	}
	if changed("log-file") {
		cfg.Logging.File = f.logFile
	}
}

func newRunCmd(cfgPath *string) *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run [device]",
		Short: "Open a serial device in a full-screen terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			flags.apply(cmd, args, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			override := func(c *config.Config) { flags.apply(cmd, args, c) }
			return runSession(cmd.Context(), cfg, *cfgPath, override)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.device, "device", "d", "", "serial device path")
	f.IntVarP(&flags.baud, "baud", "b", transport.DefaultBaud, "baud rate")
	f.StringVar(&flags.capture, "capture", "", "append received bytes to this file")
	f.BoolVar(&flags.compress, "compress", false, "zstd-compress the capture file")
	f.BoolVar(&flags.showControlChars, "show-control-chars", false, "show unsupported control bytes")
	f.StringVar(&flags.logFile, "log-file", "", "write logs to this file while running")
	return cmd
}

// runSession runs the full-screen session. override reapplies the command
// line to configurations reloaded from cfgPath.
func runSession(ctx context.Context, cfg config.Config, cfgPath string, override func(*config.Config)) error {
	log, closeLog, err := openRunLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	ctx = pslog.ContextWithLogger(ctx, log)

	port, err := transport.Open(cfg.TransportConfig())
	if err != nil {
		return err
	}
	log.Info("device opened", "device", port.Device(), "baud", cfg.Serial.Baud)

	screen, err := tcell.NewScreen()
	if err != nil {
		_ = port.Close()
		return fmt.Errorf("create screen: %w", err)
	}
	view := renderer.NewView(screen, renderer.ViewOptions{StatusLine: true})
	if err := view.Init(); err != nil {
		_ = port.Close()
		return fmt.Errorf("init screen: %w", err)
	}
	defer view.Fini()

	// The window decides the screen size.
	cfg.Screen.Width, cfg.Screen.Height = view.ContentSize()

	opts := []session.Option{
		session.WithLogger(log),
		session.WithBell(view.Bell),
	}
	if cfg.Capture.Path != "" {
		cw, err := capture.NewWriter(cfg.Capture.Path, cfg.Capture.Compress)
		if err != nil {
			_ = port.Close()
			return err
		}
		defer func() {
			if err := cw.Close(); err != nil {
				log.Warn("closing capture failed", "error", err)
				return
			}
			log.Info("capture closed", "path", cfg.Capture.Path, "bytes", cw.Bytes())
		}()
		opts = append(opts, session.WithCapture(cw))
	}

	sess := session.New(cfg, port, opts...)
	defer sess.Close()
	if err := sess.Start(ctx); err != nil {
		return err
	}

	if cfgPath != "" {
		handler := reloadHandler(override, view.ContentSize, sess.ApplyConfig, log)
		watcher, err := config.NewWatcher(cfgPath, handler)
		if err != nil {
			log.Debug("config hot reload disabled", "error", err)
		} else {
			defer watcher.Close()
			go func() {
				if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Warn("config watcher stopped", "error", err)
				}
			}()
		}
	}

	quit := make(chan struct{})
	defer close(quit)
	events := pollEvents(view, quit)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sess.Done():
			return sess.Err()
		case snap := <-sess.Snapshots():
			view.SetStatus(statusText(cfg, sess.Store().Stats()))
			view.Draw(snap)
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if done := handleEvent(ev, view, sess, log); done {
				return nil
			}
		}
	}
}

// reloadHandler applies a reloaded configuration file to a running
// session. Flags keep precedence over the file and the window keeps deciding
// the dimensions.
func reloadHandler(override func(*config.Config), size func() (int, int), apply func(config.Config) error, log pslog.Logger) config.ChangeHandler {
	return func(next config.Config, err error) {
		if err != nil {
			log.Warn("config reload failed", "error", err)
			return
		}
		if override != nil {
			override(&next)
		}
		next.Screen.Width, next.Screen.Height = size()
		if err := apply(next); err != nil {
			log.Warn("applying config failed", "error", err)
			return
		}
		log.Info("config reloaded")
	}
}

// handleEvent reacts to one screen event and reports whether to quit.
func handleEvent(ev tcell.Event, view *renderer.View, sess *session.Session, log pslog.Logger) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		view.Resize()
		w, h := view.ContentSize()
		if err := sess.Resize(w, h); err != nil {
			log.Debug("resize ignored", "width", w, "height", h, "error", err)
		}
	case *tcell.EventKey:
		if b, ok := renderer.ControlByte(ev); ok {
			switch b {
			case quitKey:
				return true
			case clearKey:
				if err := sess.Clear(true); err != nil {
					log.Warn("clear failed", "error", err)
				}
				return false
			}
		}
		if data := renderer.KeyBytes(ev); len(data) > 0 {
			if _, err := sess.Send(data); err != nil {
				log.Warn("send failed", "error", err)
			}
		}
	}
	return false
}

// pollEvents forwards screen events until the screen is finalized or quit
// is closed.
func pollEvents(view *renderer.View, quit <-chan struct{}) <-chan tcell.Event {
	events := make(chan tcell.Event)
	go func() {
		defer close(events)
		for {
			ev := view.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()
	return events
}

// openRunLogger returns the logger used while the UI owns the terminal.
func openRunLogger(cfg config.Config) (pslog.Logger, func(), error) {
	opts := cfg.LogOptions(pslog.Options{Mode: pslog.ModeStructured, NoColor: true})
	if cfg.Logging.File == "" {
		return pslog.NewWithOptions(io.Discard, opts), func() {}, nil
	}

	f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return pslog.NewWithOptions(f, opts), func() { _ = f.Close() }, nil
}

// statusText describes the connection for the status row.
func statusText(cfg config.Config, st packet.Stats) string {
	parity := strings.ToUpper(cfg.Serial.Parity)
	if parity == "" {
		parity = "N"
	}
	return fmt.Sprintf(" %s %d %d%c%d | rx %d tx %d | ^Q quit ^L clear",
		cfg.Serial.Device, cfg.Serial.Baud,
		cfg.Serial.DataBits, parity[0], cfg.Serial.StopBits,
		st.TotalIn, st.TotalOut)
}

// Package session connects a serial port to a terminal screen.
//
// A Session owns the packet store and the screen for one device. Two
// goroutines run while it is started: the read loop moves bytes from the
// port into the store, and the drain loop moves them from the store into
// the screen and publishes snapshots at the configured refresh rate.
//
// Device status report answers produced by the screen are written back to
// the port through Send, which also records them as outbound packets.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"pkt.systems/pslog"

	"github.com/dshills/serialterm/internal/config"
	"github.com/dshills/serialterm/internal/logx"
	"github.com/dshills/serialterm/internal/packet"
	"github.com/dshills/serialterm/internal/refresh"
	"github.com/dshills/serialterm/internal/terminal"
	"github.com/dshills/serialterm/internal/transport"
)

const readBufferSize = 4096

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. The session adds its id and device fields.
func WithLogger(log pslog.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithCapture records every inbound byte to w.
func WithCapture(w io.Writer) Option {
	return func(s *Session) {
		s.capture = w
	}
}

// WithBell sets the function called for every BEL received.
func WithBell(fn func()) Option {
	return func(s *Session) {
		s.bell = fn
	}
}

// WithStoreOptions adds packet store options after the configured ones.
func WithStoreOptions(opts ...packet.Option) Option {
	return func(s *Session) {
		s.storeOpts = append(s.storeOpts, opts...)
	}
}

// Session is one connection to a device.
type Session struct {
	id   string
	port transport.Port
	log  pslog.Logger

	store     *packet.Store
	screen    *terminal.Screen
	coalescer *refresh.Coalescer
	snapshots chan terminal.Snapshot

	capture   io.Writer
	bell      func()
	storeOpts []packet.Option

	// procMu serializes draining and rebuilding; ptr is the next
	// unprocessed position in the store.
	procMu sync.Mutex
	ptr    packet.Pointer

	writeMu sync.Mutex

	started atomic.Bool
	closed  atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}

	errMu sync.Mutex
	err   error
}

// New creates a session for port. It does nothing until Start.
func New(cfg config.Config, port transport.Port, opts ...Option) *Session {
	s := &Session{
		id:        uuid.New().String(),
		port:      port,
		log:       pslog.Ctx(context.Background()),
		snapshots: make(chan terminal.Snapshot, 1),
		storeOpts: cfg.StoreOptions(),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logx.WithSession(logx.WithDevice(s.log, cfg.Serial.Device, cfg.Serial.Baud), s.id)

	s.store = packet.NewStore(s.storeOpts...)

	screenOpts := cfg.ScreenOptions()
	screenOpts.Store = s.store
	screenOpts.Logger = s.log
	screenOpts.Bell = s.bell
	screenOpts.Reply = func(data []byte) {
		if _, err := s.Send(data); err != nil {
			s.log.Warn("status report reply failed", "error", err)
		}
	}
	s.screen = terminal.NewScreen(screenOpts)

	s.coalescer = refresh.NewCoalescer(cfg.Display.RefreshInterval.Std(), s.publish)
	return s
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Store returns the packet store.
func (s *Session) Store() *packet.Store {
	return s.store
}

// Screen returns the screen.
func (s *Session) Screen() *terminal.Screen {
	return s.screen
}

// Snapshots returns a channel carrying the newest screen snapshot. Only the
// latest snapshot is kept; a slow reader skips intermediate ones.
func (s *Session) Snapshots() <-chan terminal.Snapshot {
	return s.snapshots
}

// Done returns a channel that is closed when both loops have exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the read error that ended the session, if any.
func (s *Session) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Start launches the read and drain loops. They stop when ctx is canceled,
// the port fails, or the session is closed.
func (s *Session) Start(ctx context.Context) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if s.started.Swap(true) {
		return ErrAlreadyStarted
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.log.Info("session started")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.readLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.drainLoop(ctx)
	}()
	go func() {
		wg.Wait()
		close(s.done)
	}()
	return nil
}

// Send writes data to the device and records what was written as an
// outbound packet.
func (s *Session) Send(data []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrSessionClosed
	}
	if len(data) == 0 {
		return 0, nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	n, err := s.port.Write(data)
	if n > 0 {
		s.store.Append(data[:n], packet.Out)
	}
	if err != nil {
		return n, fmt.Errorf("send: %w", err)
	}
	return n, nil
}

// Resize changes the screen dimensions. When the width changes the screen
// is rebuilt from the store; bytes processed before are replayed without
// answering status reports again.
func (s *Session) Resize(width, height int) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if width < 2 || height < 1 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	if s.screen.SetDimensions(width, height) {
		start := time.Now()
		s.rebuild()
		s.log.Debug("screen rebuilt", "width", width, "height", height, "elapsed", time.Since(start))
	}
	s.coalescer.Call()
	return nil
}

// Clear empties the screen and, with alsoStore, the packet store.
func (s *Session) Clear(alsoStore bool) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	s.procMu.Lock()
	s.screen.Clear(alsoStore)
	if alsoStore {
		// The zero pointer resolves to the oldest retained packet, which
		// includes anything read after the store was emptied.
		s.ptr = packet.Pointer{}
	}
	s.procMu.Unlock()

	s.coalescer.Call()
	return nil
}

// ApplyConfig applies the settings that can change while running.
func (s *Session) ApplyConfig(cfg config.Config) error {
	s.screen.SetShowControlChars(cfg.Screen.ShowControlChars)
	return s.Resize(cfg.Screen.Width, cfg.Screen.Height)
}

// Close stops the loops and closes the port. Closing twice is a no-op.
func (s *Session) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}
	err := s.port.Close()
	if errors.Is(err, transport.ErrPortClosed) {
		err = nil
	}
	if s.started.Load() {
		<-s.done
	}
	s.coalescer.Stop()

	st := s.store.Stats()
	s.log.Info("session closed", "bytes_in", st.TotalIn, "bytes_out", st.TotalOut)

	if err != nil {
		return fmt.Errorf("close port: %w", err)
	}
	return nil
}

func (s *Session) readLoop(ctx context.Context) {
	buf := make([]byte, readBufferSize)
	for ctx.Err() == nil {
		n, err := s.port.Read(buf)
		if n > 0 {
			data := buf[:n]
			s.store.Append(data, packet.In)
			s.record(data)
		} else if err == nil {
			s.store.InputPaused()
		}

		if err != nil {
			if s.closed.Load() || ctx.Err() != nil {
				return
			}
			s.setErr(err)
			s.log.Error("read failed", "error", err)
			s.cancel()
			return
		}
	}
}

func (s *Session) record(data []byte) {
	if s.capture == nil {
		return
	}
	if _, err := s.capture.Write(data); err != nil {
		s.log.Warn("capture disabled", "error", err)
		s.capture = nil
	}
}

func (s *Session) drainLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.drain()
			s.coalescer.Flush()
			return
		case <-s.store.Updates():
			s.drain()
		}
	}
}

// drain feeds everything appended since the last drain to the screen.
func (s *Session) drain() {
	s.procMu.Lock()
	s.ptr = s.store.Process(s.ptr, func(data []byte, _ uint64, _ int, dir packet.Direction, _ time.Time) {
		s.screen.OnNewData(data, dir, false)
	})
	s.procMu.Unlock()

	s.screen.Trim()
	s.coalescer.Call()
}

// rebuild clears the screen and processes the whole store again.
func (s *Session) rebuild() {
	s.procMu.Lock()
	defer s.procMu.Unlock()

	seen := s.ptr
	s.screen.Clear(false)
	s.ptr = s.store.Process(packet.Pointer{}, replayVisitor(s.screen, seen))
}

// replayVisitor feeds a screen, marking bytes before seen as replayed.
func replayVisitor(screen *terminal.Screen, seen packet.Pointer) packet.Visitor {
	return func(data []byte, serial uint64, offset int, dir packet.Direction, _ time.Time) {
		at := packet.Pointer{Serial: serial, Offset: offset}
		if !at.Before(seen) {
			screen.OnNewData(data, dir, false)
			return
		}
		if serial == seen.Serial && offset+len(data) > seen.Offset {
			split := seen.Offset - offset
			screen.OnNewData(data[:split], dir, true)
			screen.OnNewData(data[split:], dir, false)
			return
		}
		screen.OnNewData(data, dir, true)
	}
}

func (s *Session) publish() {
	snap := s.screen.Snapshot()
	select {
	case <-s.snapshots:
	default:
	}
	select {
	case s.snapshots <- snap:
	default:
	}
}

func (s *Session) setErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

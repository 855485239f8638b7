package packet

import (
	"sync"
	"time"
)

// Default limits.
const (
	DefaultMaxPacketSize   = 4096
	DefaultMaxTotalSize    = 1 << 20
	DefaultPacketWindow    = 200 * time.Millisecond
	DefaultNotifyThreshold = 4
)

// Store is a capacity-bounded, replayable log of directional packets.
type Store struct {
	mu sync.Mutex

	packets    []*Packet
	nextSerial uint64

	bytesIn  int
	bytesOut int
	totalIn  uint64
	totalOut uint64

	changed     bool
	sinceNotify int
	updates     chan struct{}

	// Configuration
	maxPacketSize int
	maxTotalSize  int
	window        time.Duration
	threshold     int
	now           func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithMaxPacketSize sets the largest number of bytes a single packet holds.
func WithMaxPacketSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxPacketSize = n
		}
	}
}

// WithMaxTotalSize sets the retained byte budget over both directions.
func WithMaxTotalSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxTotalSize = n
		}
	}
}

// WithPacketWindow sets how long after a packet starts further bytes in the
// same direction are still joined into it.
func WithPacketWindow(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.window = d
		}
	}
}

// WithNotifyThreshold sets after how many new packets observers are signalled.
func WithNotifyThreshold(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.threshold = n
		}
	}
}

// WithClock replaces the time source used to stamp packets.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		nextSerial:    1,
		updates:       make(chan struct{}, 1),
		maxPacketSize: DefaultMaxPacketSize,
		maxTotalSize:  DefaultMaxTotalSize,
		window:        DefaultPacketWindow,
		threshold:     DefaultNotifyThreshold,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Updates returns a channel that receives a value whenever new data is ready
// to be drained. Signals are coalesced: one pending value stands for any
// number of notifications.
func (s *Store) Updates() <-chan struct{} {
	return s.updates
}

// Append stores data in the given direction.
//
// Bytes join the newest packet when it has the same direction and started no
// longer than the packet window ago; otherwise, or once the packet is full, a
// new packet is opened.
func (s *Store) Append(data []byte, dir Direction) {
	if len(data) == 0 {
		return
	}

	s.mu.Lock()

	now := s.now()
	var cur *Packet
	if n := len(s.packets); n > 0 {
		last := s.packets[n-1]
		if last.Direction == dir && now.Sub(last.Time) <= s.window {
			cur = last
		}
	}

	for len(data) > 0 {
		if cur == nil || len(cur.Data) >= s.maxPacketSize {
			cur = s.openLocked(dir, now)
		}
		n := s.maxPacketSize - len(cur.Data)
		if n > len(data) {
			n = len(data)
		}
		cur.Data = append(cur.Data, data[:n]...)
		data = data[n:]
		s.countLocked(dir, n)
	}

	s.changed = true

	if s.bytesIn+s.bytesOut > s.maxTotalSize+s.maxPacketSize {
		s.trimLocked(s.maxTotalSize)
	}

	notify := s.sinceNotify >= s.threshold
	if notify {
		s.sinceNotify = 0
	}
	s.mu.Unlock()

	if notify {
		s.signal()
	}
}

// InputPaused tells the store that the producer has no further bytes
// immediately available. Observers are signalled unconditionally so that a
// trickle of data smaller than the notify threshold is still surfaced.
func (s *Store) InputPaused() {
	s.mu.Lock()
	s.sinceNotify = 0
	s.mu.Unlock()

	s.signal()
}

// Process visits every byte from "from" (inclusive) to the current end, once
// per packet, in serial order, and returns a pointer to the new end.
//
// A pointer older than the oldest retained packet is moved to the start of
// that packet. The visitor is called without the store lock held.
func (s *Store) Process(from Pointer, visit Visitor) Pointer {
	type chunk struct {
		data   []byte
		serial uint64
		offset int
		dir    Direction
		ts     time.Time
	}

	s.mu.Lock()
	if len(s.packets) == 0 {
		end := Pointer{Serial: s.nextSerial}
		s.mu.Unlock()
		return end
	}

	oldest := s.packets[0].Serial
	if from.Serial < oldest {
		from = Pointer{Serial: oldest}
	}

	last := s.packets[len(s.packets)-1]
	end := Pointer{Serial: last.Serial, Offset: len(last.Data)}

	start := int(from.Serial - oldest)
	if start >= len(s.packets) {
		s.mu.Unlock()
		return from
	}

	chunks := make([]chunk, 0, len(s.packets)-start)
	for i := start; i < len(s.packets); i++ {
		p := s.packets[i]
		off := 0
		if i == start {
			off = from.Offset
			if off < 0 {
				off = 0
			}
		}
		if off >= len(p.Data) {
			continue
		}
		chunks = append(chunks, chunk{
			data:   p.Data[off:len(p.Data):len(p.Data)],
			serial: p.Serial,
			offset: off,
			dir:    p.Direction,
			ts:     p.Time,
		})
	}
	s.mu.Unlock()

	if visit != nil {
		for _, c := range chunks {
			visit(c.data, c.serial, c.offset, c.dir, c.ts)
		}
	}

	return end
}

// End returns a pointer to the current end of the store.
func (s *Store) End() Pointer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.packets) == 0 {
		return Pointer{Serial: s.nextSerial}
	}
	last := s.packets[len(s.packets)-1]
	return Pointer{Serial: last.Serial, Offset: len(last.Data)}
}

// Trim evicts the oldest packets until fewer than bound bytes are retained.
func (s *Store) Trim(bound int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trimLocked(bound)
}

func (s *Store) trimLocked(bound int) {
	evict := 0
	for evict < len(s.packets) && s.bytesIn+s.bytesOut >= bound {
		p := s.packets[evict]
		s.uncountLocked(p.Direction, len(p.Data))
		s.packets[evict] = nil
		evict++
	}
	if evict > 0 {
		s.packets = s.packets[evict:]
		s.changed = true
	}
}

// Clear discards all packets. Serial numbers keep increasing.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.packets = nil
	s.bytesIn = 0
	s.bytesOut = 0
	s.sinceNotify = 0
	s.changed = true
}

// TakeChanged reports whether the store changed since the last call and
// resets the mark.
func (s *Store) TakeChanged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.changed
	s.changed = false
	return changed
}

// Stats returns a summary of the store contents.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		BytesIn:  s.bytesIn,
		BytesOut: s.bytesOut,
		TotalIn:  s.totalIn,
		TotalOut: s.totalOut,
		Packets:  len(s.packets),
	}
	if len(s.packets) > 0 {
		st.OldestSerial = s.packets[0].Serial
		st.NewestSerial = s.packets[len(s.packets)-1].Serial
	}
	return st
}

// Packets returns copies of the retained packets, oldest first.
func (s *Store) Packets() []Packet {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Packet, len(s.packets))
	for i, p := range s.packets {
		out[i] = Packet{
			Serial:    p.Serial,
			Direction: p.Direction,
			Data:      append([]byte(nil), p.Data...),
			Time:      p.Time,
		}
	}
	return out
}

func (s *Store) openLocked(dir Direction, now time.Time) *Packet {
	p := &Packet{
		Serial:    s.nextSerial,
		Direction: dir,
		Data:      make([]byte, 0, s.maxPacketSize),
		Time:      now,
	}
	s.nextSerial++
	s.packets = append(s.packets, p)
	s.sinceNotify++
	return p
}

func (s *Store) countLocked(dir Direction, n int) {
	if dir == Out {
		s.bytesOut += n
		s.totalOut += uint64(n)
		return
	}
	s.bytesIn += n
	s.totalIn += uint64(n)
}

func (s *Store) uncountLocked(dir Direction, n int) {
	if dir == Out {
		s.bytesOut -= n
		return
	}
	s.bytesIn -= n
}

// signal performs a non-blocking send on the updates channel.
func (s *Store) signal() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

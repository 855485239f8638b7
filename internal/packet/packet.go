package packet

import "time"

// Direction tells whether bytes were received from or sent to the device.
type Direction uint8

const (
	// In marks bytes received from the device.
	In Direction = iota

	// Out marks bytes sent to the device.
	Out
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case In:
		return "in"
	case Out:
		return "out"
	default:
		return "unknown"
	}
}

// Packet is a contiguous run of same-direction bytes.
type Packet struct {
	Serial    uint64
	Direction Direction
	Data      []byte
	Time      time.Time // when the first byte was stored
}

// Len returns the number of bytes in the packet.
func (p *Packet) Len() int {
	return len(p.Data)
}

// Pointer is a replay position: a packet serial plus a byte offset in it.
// The zero Pointer means "from the oldest retained byte".
type Pointer struct {
	Serial uint64
	Offset int
}

// Before reports whether p is strictly before other.
func (p Pointer) Before(other Pointer) bool {
	if p.Serial != other.Serial {
		return p.Serial < other.Serial
	}
	return p.Offset < other.Offset
}

// Visitor receives the unread part of one packet during Process.
// The data slice must not be retained or modified.
type Visitor func(data []byte, serial uint64, offset int, dir Direction, ts time.Time)

// Stats summarizes the store contents.
type Stats struct {
	// BytesIn and BytesOut count retained bytes per direction.
	BytesIn  int
	BytesOut int

	// TotalIn and TotalOut count every byte ever appended.
	TotalIn  uint64
	TotalOut uint64

	Packets      int
	OldestSerial uint64
	NewestSerial uint64
}

// Retained returns the retained byte count over both directions.
func (s Stats) Retained() int {
	return s.BytesIn + s.BytesOut
}

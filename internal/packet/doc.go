// Package packet provides a bounded, replayable log of the bytes exchanged
// with a serial device.
//
// Bytes are grouped into packets. A packet is a contiguous run of
// same-direction bytes that arrived within a short window of each other.
// Every packet carries a serial number that strictly increases and is never
// reused, even across Clear.
//
// # Replay
//
// Consumers keep a Pointer into the store and call Process with it. Process
// visits every byte from the pointer up to the current end and returns a new
// pointer, so repeated calls only see data appended in between:
//
//	ptr := packet.Pointer{}
//	for range store.Updates() {
//	    ptr = store.Process(ptr, func(data []byte, serial uint64, offset int, dir packet.Direction, ts time.Time) {
//	        screen.OnNewData(data, dir, false)
//	    })
//	}
//
// A pointer that refers to a packet which has already been evicted is moved
// forward to the start of the oldest retained packet. History before that
// point is lost; replaying from there may show bytes the caller already saw.
//
// # Bounds
//
// The store evicts the oldest packets once the retained byte count exceeds
// the configured maximum plus one packet of headroom, so appends at the
// boundary do not evict on every call.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Process does not hold the store
// lock while calling the visitor, so a visitor may append to the store.
package packet

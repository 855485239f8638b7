// Package capture records the raw bytes received from a serial device so a
// session can be replayed offline.
//
// A capture file is the inbound byte stream exactly as read, optionally
// wrapped in a zstd stream. Open detects the compression from the frame
// magic, so readers never need to know how a file was written.
package capture

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ErrCaptureClosed is returned when writing to a closed capture.
var ErrCaptureClosed = errors.New("capture closed")

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// Writer appends inbound bytes to a capture file.
type Writer struct {
	mu     sync.Mutex
	file   *os.File
	enc    *zstd.Encoder
	out    io.Writer
	n      int64
	closed bool
}

// NewWriter opens path for appending. With compress set every session
// appends a new zstd frame; concatenated frames decode as one stream.
func NewWriter(path string, compress bool) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	w := &Writer{file: f, out: f}
	if compress {
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		w.enc = enc
		w.out = enc
	}
	return w, nil
}

// Write records p. It is safe for concurrent use.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrCaptureClosed
	}
	n, err := w.out.Write(p)
	w.n += int64(n)
	if err != nil {
		return n, fmt.Errorf("write capture: %w", err)
	}
	return n, nil
}

// Flush pushes buffered compressed data to the file.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrCaptureClosed
	}
	if w.enc != nil {
		if err := w.enc.Flush(); err != nil {
			return fmt.Errorf("flush capture: %w", err)
		}
	}
	return nil
}

// Bytes returns the number of uncompressed bytes recorded.
func (w *Writer) Bytes() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

// Close finishes the stream and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrCaptureClosed
	}
	w.closed = true

	var errs []error
	if w.enc != nil {
		if err := w.enc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("finish zstd stream: %w", err))
		}
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close capture: %w", err))
	}
	return errors.Join(errs...)
}

// Open returns a reader over the raw bytes of a capture file.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}

	br := bufio.NewReader(f)
	head, _ := br.Peek(len(zstdMagic))
	if !bytes.Equal(head, zstdMagic) {
		return &reader{Reader: br, file: f}, nil
	}

	dec, err := zstd.NewReader(br)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &reader{Reader: dec, file: f, dec: dec}, nil
}

type reader struct {
	io.Reader
	file *os.File
	dec  *zstd.Decoder
}

func (r *reader) Close() error {
	if r.dec != nil {
		r.dec.Close()
	}
	return r.file.Close()
}

package capture

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func readAll(t *testing.T, path string) []byte {
	t.Helper()
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	return data
}

func TestWriterPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")

	w, err := NewWriter(path, false)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if _, err := w.Write([]byte("hello\r\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := w.Write([]byte("\x1b[31mred")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if w.Bytes() != 15 {
		t.Errorf("expected 15 bytes recorded, got %d", w.Bytes())
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "hello\r\n\x1b[31mred" {
		t.Errorf("expected raw bytes on disk, got %q", raw)
	}
	if got := readAll(t, path); string(got) != "hello\r\n\x1b[31mred" {
		t.Errorf("expected bytes back, got %q", got)
	}
}

func TestWriterCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.zst")
	payload := bytes.Repeat([]byte("line of device output\r\n"), 200)

	w, err := NewWriter(path, true)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if _, err := w.Write(payload); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(raw, zstdMagic) {
		t.Fatalf("expected zstd frame on disk")
	}
	if len(raw) >= len(payload) {
		t.Errorf("expected compressed file smaller than %d, got %d", len(payload), len(raw))
	}
	if got := readAll(t, path); !bytes.Equal(got, payload) {
		t.Errorf("expected payload back, got %d bytes", len(got))
	}
}

func TestWriterAppendsSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.zst")

	for _, chunk := range []string{"first ", "second"} {
		w, err := NewWriter(path, true)
		if err != nil {
			t.Fatalf("NewWriter failed: %v", err)
		}
		if _, err := w.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}

	if got := readAll(t, path); string(got) != "first second" {
		t.Errorf("expected both sessions, got %q", got)
	}
}

func TestWriterClosed(t *testing.T) {
	w, err := NewWriter(filepath.Join(t.TempDir(), "c.log"), false)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := w.Write([]byte("x")); !errors.Is(err, ErrCaptureClosed) {
		t.Errorf("expected ErrCaptureClosed from Write, got %v", err)
	}
	if err := w.Flush(); !errors.Is(err, ErrCaptureClosed) {
		t.Errorf("expected ErrCaptureClosed from Flush, got %v", err)
	}
	if err := w.Close(); !errors.Is(err, ErrCaptureClosed) {
		t.Errorf("expected ErrCaptureClosed from second Close, got %v", err)
	}
}

func TestOpenEmptyAndMissing(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.log")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := readAll(t, empty); len(got) != 0 {
		t.Errorf("expected no bytes, got %q", got)
	}

	if _, err := Open(filepath.Join(dir, "missing.log")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

package logging

import (
	"bytes"
	"sync"
	"testing"
)

// TestWriter is an io.Writer that forwards each line to a test's log.
type TestWriter struct {
	mu  sync.Mutex
	tb  testing.TB
	buf []byte
}

// NewTestWriter returns a writer that logs through tb.
func NewTestWriter(tb testing.TB) *TestWriter {
	return &TestWriter{tb: tb}
}

// Write implements io.Writer. Partial lines are held until their newline arrives.
func (w *TestWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.tb.Helper()
		w.tb.Log(string(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

package runner

import (
	"bytes"
	"sync"
)

// LineWriter splits a byte stream into lines on \n or \r and hands each
// non-empty line to a callback. Writers sharing a mutex never call their
// callbacks at the same time.
type LineWriter struct {
	mu     *sync.Mutex
	fn     func(string)
	buffer []byte
}

// NewLineWriter returns a writer calling fn for every line. mu may be shared
// between writers; nil gives the writer its own.
func NewLineWriter(mu *sync.Mutex, fn func(string)) *LineWriter {
	if mu == nil {
		mu = &sync.Mutex{}
	}
	return &LineWriter{mu: mu, fn: fn}
}

func (w *LineWriter) Write(p []byte) (int, error) {
	if w.fn == nil {
		return len(p), nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.buffer = append(w.buffer, p...)
	for {
		idx := bytes.IndexAny(w.buffer, "\r\n")
		if idx < 0 {
			break
		}
		line := string(w.buffer[:idx])
		w.buffer = w.buffer[idx+1:]
		if line != "" {
			w.fn(line)
		}
	}
	return len(p), nil
}

// Flush emits a trailing partial line, if any.
func (w *LineWriter) Flush() {
	if w.fn == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buffer) > 0 {
		line := string(w.buffer)
		w.buffer = nil
		w.fn(line)
	}
}

// Package redact keeps provisioned secret values out of anything the gateway
// writes to its logs.
package redact

import (
	"io"
	"strings"
	"sync"

	aho "github.com/petar-dambovaliev/aho-corasick"
)

const placeholder = "[REDACTED]"

// Writer wraps an io.Writer and replaces any occurrence of the configured
// secret values with [REDACTED]. Uses Aho-Corasick for multi-pattern matching
// and buffers enough bytes to catch matches that straddle Write boundaries.
type Writer struct {
	mu         sync.Mutex
	out        io.Writer
	matcher    aho.AhoCorasick
	patterns   []string
	maxPatLen  int
	pending    []byte
}

// NewWriter builds a redacting writer over out. Empty pattern strings are
// dropped; with no patterns at all, writes pass through unmodified.
func NewWriter(out io.Writer, patterns []string) *Writer {
	var filtered []string
	for _, p := range patterns {
		if len(p) > 0 {
			filtered = append(filtered, p)
		}
	}

	w := &Writer{out: out, patterns: filtered}
	if len(filtered) == 0 {
		return w
	}

	for _, p := range filtered {
		if len(p) > w.maxPatLen {
			w.maxPatLen = len(p)
		}
	}

	builder := aho.NewAhoCorasickBuilder(aho.Opts{})
	w.matcher = builder.Build(filtered)
	return w
}

// String redacts the configured patterns in s. Used for scrubbing upstream
// error text before it reaches a log line.
func (w *Writer) String(s string) string {
	if len(w.patterns) == 0 {
		return s
	}
	var b strings.Builder
	pos := 0
	for _, m := range w.matcher.FindAll(s) {
		if m.Start() < pos {
			continue
		}
		b.WriteString(s[pos:m.Start()])
		b.WriteString(placeholder)
		pos = m.End()
	}
	b.WriteString(s[pos:])
	return b.String()
}

// Write implements io.Writer. Data may be buffered to handle cross-boundary
// matches; call Flush to force out the tail.
func (w *Writer) Write(p []byte) (int, error) {
	if len(w.patterns) == 0 {
		return w.out.Write(p)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = append(w.pending, p...)
	if err := w.emit(false); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Flush writes any remaining buffered data, performing final redaction.
func (w *Writer) Flush() error {
	if len(w.patterns) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	return w.emit(true)
}

func (w *Writer) emit(flushAll bool) error {
	if len(w.pending) == 0 {
		return nil
	}

	// Retain maxPatLen-1 trailing bytes so a pattern split across two Write
	// calls is still caught, unless flushing everything.
	safeEnd := len(w.pending)
	if !flushAll {
		safeEnd = len(w.pending) - (w.maxPatLen - 1)
		if safeEnd <= 0 {
			return nil
		}
	}

	// Match over the whole buffer so matches crossing the safe boundary are
	// seen before their prefix is emitted.
	matches := w.matcher.FindAll(string(w.pending))

	var result []byte
	pos := 0
	consumedEnd := safeEnd

	for _, m := range matches {
		start, end := m.Start(), m.End()
		if start < pos {
			continue // overlapping match
		}
		if start >= safeEnd && !flushAll {
			break // stays buffered
		}
		result = append(result, w.pending[pos:start]...)
		result = append(result, placeholder...)
		pos = end
		if end > consumedEnd {
			consumedEnd = end
		}
	}

	if pos < safeEnd {
		result = append(result, w.pending[pos:safeEnd]...)
	}

	if len(result) > 0 {
		if _, err := w.out.Write(result); err != nil {
			return err
		}
	}

	remaining := make([]byte, len(w.pending)-consumedEnd)
	copy(remaining, w.pending[consumedEnd:])
	w.pending = remaining
	return nil
}

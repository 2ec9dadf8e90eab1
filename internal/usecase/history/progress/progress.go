// Package progress implements component F: an append-only log of the
// traversal engine's progress, so a caller polling an in-progress
// computation (via the coalescing cache, component E) can see what has
// happened so far rather than just "still working".
package progress

import "sync"

// Log is a goroutine-safe, append-only sequence of human-readable progress
// lines. The goroutine performing work appends to it; any number of
// concurrent readers can take a Snapshot.
type Log struct {
	mu    sync.Mutex
	lines []string
}

// New returns an empty Log.
func New() *Log {
	return &Log{}
}

// Append records a progress line, e.g. "fetching https://example.com/feed".
func (l *Log) Append(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, line)
}

// Snapshot returns a copy of the lines recorded so far. Safe to call while
// Append is still being called concurrently from the worker goroutine.
func (l *Log) Snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

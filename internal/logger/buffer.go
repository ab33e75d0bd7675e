package logger

import "sync"

// DefaultBufferLines is the number of lines kept by NewBuffer(0)
const DefaultBufferLines = 1000

// Buffer keeps the most recent log lines in memory for the /logs endpoint
type Buffer struct {
	mu       sync.Mutex
	lines    []string
	maxLines int
}

// NewBuffer creates a ring of at most maxLines lines
func NewBuffer(maxLines int) *Buffer {
	if maxLines <= 0 {
		maxLines = DefaultBufferLines
	}
	return &Buffer{
		lines:    make([]string, 0, maxLines),
		maxLines: maxLines,
	}
}

func (b *Buffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines = append(b.lines, string(p))
	if len(b.lines) > b.maxLines {
		b.lines = append([]string(nil), b.lines[len(b.lines)-b.maxLines:]...)
	}

	return len(p), nil
}

// Lines returns a copy of the buffered lines, oldest first
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

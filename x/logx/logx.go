// Package logx writes short tagged log lines ("I (board) display ready").
// It avoids fmt so it stays cheap on MCU targets.
package logx

import (
	"io"
	"os"
	"sync"
)

type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu sync.Mutex

	// output receives every line at or above minLevel. Both are guarded by mu.
	output   io.Writer = os.Stdout
	minLevel           = LevelInfo
)

// SetOutput swaps the writer under the log lock and returns the old one.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := output
	output = w
	return prev
}

// SetLevel sets the lowest level written and returns the old one.
func SetLevel(l Level) Level {
	mu.Lock()
	defer mu.Unlock()
	prev := minLevel
	minLevel = l
	return prev
}

var prefixes = [...]string{"D (", "I (", "W (", "E ("}

func D(tag string, parts ...string) { write(LevelDebug, tag, parts) }
func I(tag string, parts ...string) { write(LevelInfo, tag, parts) }
func W(tag string, parts ...string) { write(LevelWarn, tag, parts) }
func E(tag string, parts ...string) { write(LevelError, tag, parts) }

func write(l Level, tag string, parts []string) {
	mu.Lock()
	defer mu.Unlock()
	if l < minLevel || output == nil {
		return
	}
	n := len(prefixes[l]) + len(tag) + 2
	for _, p := range parts {
		n += len(p) + 1
	}
	buf := make([]byte, 0, n)
	buf = append(buf, prefixes[l]...)
	buf = append(buf, tag...)
	buf = append(buf, ')')
	for _, p := range parts {
		buf = append(buf, ' ')
		buf = append(buf, p...)
	}
	buf = append(buf, '\n')
	_, _ = output.Write(buf)
}

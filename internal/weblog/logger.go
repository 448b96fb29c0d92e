// Package weblog is the leveled logger the core writes operational
// messages through. Two package-level loggers, Servers and Clients, keep
// reactor-side and per-request messages separable.
package weblog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level is a logger severity.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "UNKNOWN"
}

// Logger writes leveled, timestamped lines to Output. The zero value is
// usable, logging to os.Stdout at every level.
type Logger struct {
	Output io.Writer

	mu         sync.Mutex
	bufferPool sync.Pool
}

// New returns a Logger writing to out. A nil out defaults to os.Stdout.
func New(out io.Writer) *Logger {
	if out == nil {
		out = os.Stdout
	}
	return &Logger{
		Output:     out,
		bufferPool: sync.Pool{New: func() interface{} { return new(bytes.Buffer) }},
	}
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.log(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.log(LevelError, format, args...) }

func (l *Logger) log(lvl Level, format string, args ...interface{}) {
	out := l.Output
	if out == nil {
		out = os.Stdout
	}

	buf, _ := l.bufferPool.Get().(*bytes.Buffer)
	if buf == nil {
		buf = new(bytes.Buffer)
	}
	buf.Reset()

	fmt.Fprintf(buf, "[%s][%s] ", time.Now().Format("02/01/06 15:04:05"), lvl)
	fmt.Fprintf(buf, format, args...)
	buf.WriteByte('\n')

	l.mu.Lock()
	out.Write(buf.Bytes())
	l.mu.Unlock()

	l.bufferPool.Put(buf)
}

// Servers is the default logger for reactor/connection-handling
// messages.
var Servers = New(os.Stdout)

// Clients is the default logger for per-request client errors.
var Clients = New(os.Stdout)

package logger

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"
)

const timeLayout = "2006-01-02 15:04:05"

type BaseLogger struct {
	mu     *sync.Mutex
	prefix string
	writer io.Writer
}

// NewLogger пишет в writer; при nil writer сообщения уходят в стандартный log.
func NewLogger(writer io.Writer, prefix string) *BaseLogger {
	return &BaseLogger{
		mu:     &sync.Mutex{},
		writer: writer,
		prefix: prefix,
	}
}

// Discard returns a logger that drops everything. Used by tests and library callers
// that do not care about output.
func Discard() *BaseLogger {
	return NewLogger(io.Discard, "")
}

func (l *BaseLogger) Log(format string, v ...interface{}) {
	l.write("INFO", format, v...)
}

func (l *BaseLogger) Warn(format string, v ...interface{}) {
	l.write("WARN", format, v...)
}

func (l *BaseLogger) Error(format string, v ...interface{}) {
	l.write("ERROR", format, v...)
}

func (l *BaseLogger) write(level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	message := fmt.Sprintf(format, v...)
	if l.prefix != "" {
		message = l.prefix + " " + message
	}
	if l.writer == nil {
		log.Printf("%-5s %s", level, message)
		return
	}
	fmt.Fprintf(l.writer, "%s %-5s %s\n", time.Now().Format(timeLayout), level, message)
}

// WithPrefix shares writer and lock with the parent so lines never interleave.
func (l *BaseLogger) WithPrefix(extraPrefix string) *BaseLogger {
	prefix := extraPrefix
	if l.prefix != "" {
		prefix = l.prefix + " " + extraPrefix
	}
	return &BaseLogger{
		mu:     l.mu,
		writer: l.writer,
		prefix: prefix,
	}
}

func (l *BaseLogger) SetPrefix(prefix string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prefix = prefix
}

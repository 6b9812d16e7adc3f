package logger

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// sinkMaxSizeMB bounds the sink file before lumberjack rotates it.
const sinkMaxSizeMB = 100

// Sink is a best-effort, append-only line log used by the service bridge.
// A Sink with an empty path is disabled and never touches the filesystem.
// Write failures are dropped.
//
// A nil *Sink is valid and behaves like a disabled one.
type Sink struct {
	path  string
	clock clock.Clock

	mu   sync.Mutex
	file *lumberjack.Logger
	log  zerolog.Logger
}

// NewSink creates a sink appending to path. The file is created on the
// first Log call. clk may be nil, in which case the wall clock is used.
func NewSink(path string, clk clock.Clock) *Sink {
	if clk == nil {
		clk = clock.New()
	}
	s := &Sink{path: path, clock: clk, log: zerolog.Nop()}
	if path == "" {
		return s
	}

	s.file = &lumberjack.Logger{
		Filename: path,
		MaxSize:  sinkMaxSizeMB,
	}
	s.log = zerolog.New(NewLineFormatWriter(s.file))
	return s
}

// Enabled reports whether lines are written anywhere.
func (s *Sink) Enabled() bool {
	return s != nil && s.path != ""
}

// Path returns the configured log file path.
func (s *Sink) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Log appends one timestamped line.
func (s *Sink) Log(msg string) {
	if !s.Enabled() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log.Log().Str("time", s.clock.Now().Format(time.RFC3339)).Msg(msg)
}

// Logf formats according to a format specifier and appends the result as one line.
func (s *Sink) Logf(format string, args ...interface{}) {
	if !s.Enabled() {
		return
	}
	s.Log(fmt.Sprintf(format, args...))
}

// Close releases the underlying file handle, if one was opened.
func (s *Sink) Close() error {
	if !s.Enabled() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

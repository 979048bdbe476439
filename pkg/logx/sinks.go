package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

type Config struct {
	Level string
	// File, when set, receives the same lines as JSON.
	File string
}

// Sinks owns the open log file, if any.
type Sinks struct {
	mu   sync.Mutex
	file *os.File
}

// Open builds the console sink on stdout plus the optional JSON file. A file
// that cannot be opened is reported on stderr and skipped.
func Open(cfg Config) (Logger, *Sinks) {
	setGlobals()
	s := &Sinks{}
	writers := []io.Writer{consoleWriter(os.Stdout)}
	if path := strings.TrimSpace(cfg.File); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logx: cannot open log file %q: %v\n", path, err)
		} else {
			s.file = f
			writers = append(writers, zerolog.SyncWriter(f))
		}
	}
	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(parseLevel(cfg.Level)).
		With().Timestamp().Logger()
	return Logger{zl: zl, ok: true}, s
}

func (s *Sinks) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	f := s.file
	s.file = nil
	s.mu.Unlock()
	if f == nil {
		return nil
	}
	return f.Close()
}

package logx

import (
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Field is one key/value pair attached to a log line.
type Field struct {
	key string
	val any
}

func String(k, v string) Field                 { return Field{k, v} }
func Int(k string, v int) Field                { return Field{k, v} }
func Bool(k string, v bool) Field              { return Field{k, v} }
func Duration(k string, v time.Duration) Field { return Field{k, v} }
func Strings(k string, v []string) Field       { return Field{k, v} }

// Err attaches err under "err"; a nil error adds nothing.
func Err(err error) Field {
	if err == nil {
		return Field{}
	}
	return Field{zerolog.ErrorFieldName, err}
}

// Post identifies a feed item by id and, when known, the query that found it.
func Post(id, query string) []Field {
	if query == "" {
		return []Field{{"id", id}}
	}
	return []Field{{"id", id}, {"query", query}}
}

// kv flattens fields into zerolog's key/value slice form, skipping empties.
func kv(fields []Field) []any {
	out := make([]any, 0, 2*len(fields))
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		out = append(out, f.key, f.val)
	}
	return out
}

// Logger is safe to copy. The zero value discards everything.
type Logger struct {
	zl zerolog.Logger
	ok bool
}

// Nop returns a logger that discards everything but is not IsZero.
func Nop() Logger { return Logger{zl: zerolog.Nop(), ok: true} }

// NewWriter logs JSON lines (or console output for a zerolog.ConsoleWriter) to w.
func NewWriter(w io.Writer, level string) Logger {
	setGlobals()
	return Logger{
		zl: zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger(),
		ok: true,
	}
}

func (l Logger) IsZero() bool { return !l.ok }

// With returns a child logger carrying fields on every line.
func (l Logger) With(fields ...Field) Logger {
	if !l.ok || len(fields) == 0 {
		return l
	}
	return Logger{zl: l.zl.With().Fields(kv(fields)).Logger(), ok: true}
}

func (l Logger) Debug(msg string, fields ...Field) { l.emit(zerolog.DebugLevel, msg, fields) }
func (l Logger) Info(msg string, fields ...Field)  { l.emit(zerolog.InfoLevel, msg, fields) }
func (l Logger) Warn(msg string, fields ...Field)  { l.emit(zerolog.WarnLevel, msg, fields) }
func (l Logger) Error(msg string, fields ...Field) { l.emit(zerolog.ErrorLevel, msg, fields) }

func (l Logger) emit(level zerolog.Level, msg string, fields []Field) {
	if !l.ok {
		return
	}
	e := l.zl.WithLevel(level)
	if e == nil {
		return
	}
	// skip emit and the level method to land on the caller
	e.Caller(2).Fields(kv(fields)).Msg(msg)
}

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

func setGlobals() {
	zerolog.ErrorFieldName = "err"
	zerolog.TimeFieldFormat = timeFormat
	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		return filepath.Base(file) + ":" + strconv.Itoa(line)
	}
}

func consoleWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: timeFormat}
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

type Field struct {
	Key   string
	Value any
}

// body marks a field holding remote source text or result data. Bodies may
// carry credentials or customer data, so they are redacted unless the logger
// was built with LogBodies.
type body struct {
	text string
}

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Enabled(level Level) bool
}

type Options struct {
	Level     Level
	LogBodies bool
	Now       func() time.Time
}

type logfmtLogger struct {
	out       io.Writer
	level     Level
	logBodies bool
	now       func() time.Time
	fields    []Field
	mu        *sync.Mutex
}

func New(out io.Writer, level Level) Logger {
	return NewWithOptions(out, Options{Level: level})
}

func NewWithOptions(out io.Writer, opts Options) Logger {
	if out == nil {
		out = os.Stderr
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &logfmtLogger{
		out:       out,
		level:     opts.Level,
		logBodies: opts.LogBodies,
		now:       now,
		mu:        &sync.Mutex{},
	}
}

func Nop() Logger {
	return &logfmtLogger{out: io.Discard, level: Error, now: time.Now, mu: &sync.Mutex{}}
}

func (l *logfmtLogger) Enabled(level Level) bool {
	if l == nil {
		return false
	}
	return level >= l.level
}

func (l *logfmtLogger) With(fields ...Field) Logger {
	if l == nil {
		return Nop()
	}
	return &logfmtLogger{
		out:       l.out,
		level:     l.level,
		logBodies: l.logBodies,
		now:       l.now,
		fields:    append(append([]Field{}, l.fields...), fields...),
		mu:        l.mu,
	}
}

func (l *logfmtLogger) Debug(msg string, fields ...Field) { l.log(Debug, msg, fields...) }
func (l *logfmtLogger) Info(msg string, fields ...Field)  { l.log(Info, msg, fields...) }
func (l *logfmtLogger) Warn(msg string, fields ...Field)  { l.log(Warn, msg, fields...) }
func (l *logfmtLogger) Error(msg string, fields ...Field) { l.log(Error, msg, fields...) }

func (l *logfmtLogger) log(level Level, msg string, fields ...Field) {
	if l == nil || level < l.level {
		return
	}
	all := make([]Field, 0, len(l.fields)+len(fields)+3)
	all = append(all, Field{Key: "ts", Value: l.now().UTC().Format(time.RFC3339Nano)})
	all = append(all, Field{Key: "level", Value: levelString(level)})
	all = append(all, Field{Key: "msg", Value: msg})
	all = append(all, l.fields...)
	all = append(all, fields...)

	var line strings.Builder
	for i, field := range all {
		if i > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(field.Key)
		line.WriteByte('=')
		line.WriteString(l.formatValue(field.Value))
	}
	line.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, line.String())
}

func (l *logfmtLogger) formatValue(value any) string {
	switch v := value.(type) {
	case body:
		if !l.logBodies {
			return fmt.Sprintf("<redacted:%d>", len(v.text))
		}
		return quoteIfNeeded(v.text)
	case nil:
		return "null"
	case string:
		return quoteIfNeeded(v)
	case []byte:
		return quoteIfNeeded(string(v))
	case error:
		return quoteIfNeeded(v.Error())
	case fmt.Stringer:
		return quoteIfNeeded(v.String())
	case bool:
		return strconv.FormatBool(v)
	case int, int64, int32, uint, uint64, uint32, float64, float32:
		return fmt.Sprintf("%v", v)
	default:
		return quoteIfNeeded(fmt.Sprintf("%v", v))
	}
}

func quoteIfNeeded(value string) string {
	if value == "" {
		return `""`
	}
	if strings.ContainsAny(value, " \t\n\r\"=") {
		return strconv.Quote(value)
	}
	return value
}

func levelString(level Level) string {
	switch level {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Body wraps remote source text or result data for redaction.
func Body(key, text string) Field {
	return Field{Key: key, Value: body{text: text}}
}

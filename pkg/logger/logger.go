package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Field is a typed key/value pair attached to a log line.
type Field struct {
	key string
	val interface{}
	add func(e *zerolog.Event)
}

func String(key, value string) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Str(key, value) }}
}

func Int(key string, value int) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Int(key, value) }}
}

func Int64(key string, value int64) Field {
	return Field{key, value, func(e *zerolog.Event) { e.Int64(key, value) }}
}

func Error(err error) Field {
	return Field{"error", fmt.Sprint(err), func(e *zerolog.Event) { e.Err(err) }}
}

func Duration(key string, value time.Duration) Field {
	return Field{key, value.String(), func(e *zerolog.Event) { e.Dur(key, value) }}
}

func Strings(key string, values []string) Field {
	return Field{key, strings.Join(values, ","), func(e *zerolog.Event) { e.Strs(key, values) }}
}

// Config controls the output of a Logger.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or a file path
	TimeFormat string // defaults to RFC3339Nano
}

type Logger struct {
	zl   zerolog.Logger
	sink *Collector // optional aggregated error sink
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer
	switch cfg.Output {
	case "", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
	}

	tf := cfg.TimeFormat
	if tf == "" {
		tf = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = tf

	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: tf}
	}

	zl := zerolog.New(w).With().Timestamp().CallerWithSkipFrameCount(3).Logger()
	return &Logger{zl: zl}, nil
}

func (l *Logger) Debug(msg string, fields ...Field) { l.emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.emit(l.zl.Warn(), msg, fields) }

func (l *Logger) Error(msg string, fields ...Field) {
	l.emit(l.zl.Error(), msg, fields)
	if l.sink != nil {
		l.sink.Record("error", msg, callerOf(2), fieldMap(fields))
	}
}

func (l *Logger) emit(e *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		f.add(e)
	}
	e.Msg(msg)
}

// AddCollector attaches an aggregated error sink. A previous sink, if
// any, is flushed and closed first.
func (l *Logger) AddCollector(cfg *CollectorConfig) {
	if l.sink != nil {
		l.sink.Close()
	}
	l.sink = NewCollector(cfg)
}

// RemoveCollector flushes and detaches the error sink.
func (l *Logger) RemoveCollector() {
	if l.sink != nil {
		l.sink.Close()
		l.sink = nil
	}
}

func fieldMap(fields []Field) map[string]interface{} {
	if len(fields) == 0 {
		return nil
	}
	m := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		m[f.key] = f.val
	}
	return m
}

// callerOf trims the call-site file path to the path inside the module.
func callerOf(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	if i := strings.Index(file, "SipPulse"); i >= 0 {
		file = file[i:]
	}
	return fmt.Sprintf("%s:%d", file, line)
}

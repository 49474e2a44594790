package jobsys

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger is the leveled logging channel the scheduler consumes for
// diagnostics only (spec.md §6.2). Any implementation must be safe to call
// from any worker goroutine concurrently.
type Logger interface {
	Trace(msg string, kv ...any)
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warning(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// NopLogger discards everything. It's the zero-value default so a bare
// Config{} never panics on a nil Logger.
type NopLogger struct{}

func (NopLogger) Trace(string, ...any)   {}
func (NopLogger) Debug(string, ...any)   {}
func (NopLogger) Info(string, ...any)    {}
func (NopLogger) Warning(string, ...any) {}
func (NopLogger) Error(string, ...any)   {}

// zerologAdapter adapts a zerolog.Logger to the Logger interface. zerolog is
// the only logger in the retrieval pack whose native level set
// (Trace/Debug/Info/Warn/Error) matches spec.md §6.2 one-for-one — see
// SPEC_FULL.md §3.
type zerologAdapter struct {
	log zerolog.Logger
}

// NewZerologLogger builds a Logger backed by zerolog, writing to w at the
// given minimum level.
func NewZerologLogger(w io.Writer, level zerolog.Level) Logger {
	return zerologAdapter{log: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

func withFields(e *zerolog.Event, kv ...any) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	return e
}

func (z zerologAdapter) Trace(msg string, kv ...any) {
	withFields(z.log.Trace(), kv...).Msg(msg)
}

func (z zerologAdapter) Debug(msg string, kv ...any) {
	withFields(z.log.Debug(), kv...).Msg(msg)
}

func (z zerologAdapter) Info(msg string, kv ...any) {
	withFields(z.log.Info(), kv...).Msg(msg)
}

func (z zerologAdapter) Warning(msg string, kv ...any) {
	withFields(z.log.Warn(), kv...).Msg(msg)
}

func (z zerologAdapter) Error(msg string, kv ...any) {
	withFields(z.log.Error(), kv...).Msg(msg)
}

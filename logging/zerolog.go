package logging

import "github.com/rs/zerolog"

// ZerologAdapter wraps zerolog.Logger to implement the Logger interface.
// Key/value arguments become zerolog fields.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter creates a Logger from zerolog.Logger.
func NewZerologAdapter(l zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: l}
}

// Debug logs a debug message.
func (z *ZerologAdapter) Debug(msg string, args ...any) { write(z.logger.Debug(), msg, args) }

// Info logs an informational message.
func (z *ZerologAdapter) Info(msg string, args ...any) { write(z.logger.Info(), msg, args) }

// Warn logs a warning message.
func (z *ZerologAdapter) Warn(msg string, args ...any) { write(z.logger.Warn(), msg, args) }

// Error logs an error message.
func (z *ZerologAdapter) Error(msg string, args ...any) { write(z.logger.Error(), msg, args) }

// With derives a child logger.
func (z *ZerologAdapter) With(args ...any) Logger {
	return &ZerologAdapter{logger: z.logger.With().Fields(normalize(args)).Logger()}
}

// Zerolog returns the underlying zerolog.Logger.
func (z *ZerologAdapter) Zerolog() zerolog.Logger { return z.logger }

func write(ev *zerolog.Event, msg string, args []any) {
	if ev == nil {
		return
	}
	if len(args) > 0 {
		ev = ev.Fields(normalize(args))
	}
	ev.Msg(msg)
}

// normalize converts errors to strings and pads a dangling key so zerolog
// never drops a pair.
func normalize(args []any) []any {
	out := make([]any, 0, len(args)+1)
	for i, a := range args {
		if i%2 == 1 {
			if err, ok := a.(error); ok && err != nil {
				a = err.Error()
			}
		}
		out = append(out, a)
	}
	if len(out)%2 == 1 {
		out = append(out, "")
	}
	return out
}

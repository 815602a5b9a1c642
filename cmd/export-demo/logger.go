package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/rs/zerolog"
)

// zeroLogger backs glog.Logger with zerolog.
type zeroLogger struct {
	zl zerolog.Logger
}

var _ glog.Logger = zeroLogger{}

func newLogger(level, format string, out io.Writer) zeroLogger {
	if out == nil {
		out = os.Stdout
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(out).Level(parsed).With().Timestamp().Str("service", "export-demo").Logger()
	return zeroLogger{zl: zl}
}

func (l zeroLogger) Trace(msg string, args ...any) { l.log(l.zl.Trace(), msg, args) }
func (l zeroLogger) Debug(msg string, args ...any) { l.log(l.zl.Debug(), msg, args) }
func (l zeroLogger) Info(msg string, args ...any)  { l.log(l.zl.Info(), msg, args) }
func (l zeroLogger) Warn(msg string, args ...any)  { l.log(l.zl.Warn(), msg, args) }
func (l zeroLogger) Error(msg string, args ...any) { l.log(l.zl.Error(), msg, args) }
func (l zeroLogger) Fatal(msg string, args ...any) { l.log(l.zl.Fatal(), msg, args) }

func (l zeroLogger) WithContext(ctx context.Context) glog.Logger {
	_ = ctx
	return l
}

// WithFields returns a logger that adds fields to every entry.
func (l zeroLogger) WithFields(fields map[string]any) glog.Logger {
	return zeroLogger{zl: l.zl.With().Fields(fields).Logger()}
}

func (l zeroLogger) log(evt *zerolog.Event, msg string, args []any) {
	if evt == nil {
		return
	}
	evt.Fields(pairs(args)).Msg(msg)
}

// pairs turns alternating key/value args into a field map. A dangling value is kept
// under "extra".
func pairs(args []any) map[string]any {
	fields := make(map[string]any, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fields["extra"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		value := args[i+1]
		if err, ok := value.(error); ok {
			value = err.Error()
		}
		fields[key] = value
	}
	return fields
}

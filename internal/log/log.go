// Package log is a thin façade over log/slog so the rest of the code can
// emit key-value structured lines without threading a logger around.
// Output goes to stderr through a tint handler.
package log

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var (
	loggerOnce sync.Once
	levelVar   slog.LevelVar
)

func initLogger() {
	loggerOnce.Do(func() {
		levelVar.Set(slog.LevelInfo)
		slog.SetDefault(slog.New(
			tint.NewHandler(os.Stderr, &tint.Options{
				Level:      &levelVar,
				TimeFormat: time.Kitchen,
			}),
		))
	})
}

// SetLevel sets the minimum level. Unknown values fall back to info.
func SetLevel(l Level) {
	initLogger()
	switch Level(strings.ToLower(string(l))) {
	case LevelDebug:
		levelVar.Set(slog.LevelDebug)
	case LevelWarn:
		levelVar.Set(slog.LevelWarn)
	case LevelError:
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

func Debug(msg string, kv ...any) {
	initLogger()
	slog.Debug(msg, kv...)
}

func Info(msg string, kv ...any) {
	initLogger()
	slog.Info(msg, kv...)
}

func Warn(msg string, kv ...any) {
	initLogger()
	slog.Warn(msg, kv...)
}

// Error logs msg with err prepended to the key-value list.
func Error(msg string, err error, kv ...any) {
	initLogger()
	extended := append([]any{"err", err}, kv...)
	slog.Error(msg, extended...)
}

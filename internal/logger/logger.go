package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu      sync.RWMutex
	handler slog.Handler
)

var (
	currentLevel = LevelInfo
	format       = "text"
	output       = io.Writer(os.Stderr)
)

func init() {
	rebuild()
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// rebuild recreates the handler after a settings change. Callers hold mu
// or run before any concurrent use.
func rebuild() {
	opts := &slog.HandlerOptions{Level: currentLevel.slogLevel()}
	if format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
}

func SetLevel(level string) {
	mu.Lock()
	defer mu.Unlock()

	switch strings.ToUpper(level) {
	case "DEBUG":
		currentLevel = LevelDebug
	case "INFO":
		currentLevel = LevelInfo
	case "WARN":
		currentLevel = LevelWarn
	case "ERROR":
		currentLevel = LevelError
	}
	rebuild()
}

// SetFormat selects "text" or "json" output. Unknown values are ignored.
func SetFormat(f string) {
	mu.Lock()
	defer mu.Unlock()

	switch strings.ToLower(f) {
	case "text", "json":
		format = strings.ToLower(f)
		rebuild()
	}
}

// SetOutput redirects log output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	output = w
	rebuild()
}

// Init configures level, format and destination in one call.
//
// dest is "stdout", "stderr" or a file path opened in append mode. The
// returned closer releases the file, if one was opened.
func Init(level, f, dest string) (io.Closer, error) {
	var w io.Writer
	var closer io.Closer = io.NopCloser(nil)

	switch strings.ToLower(dest) {
	case "", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		file, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", dest, err)
		}
		w = file
		closer = file
	}

	SetOutput(w)
	SetFormat(f)
	SetLevel(level)
	return closer, nil
}

func log(level Level, format string, v ...any) {
	mu.RLock()
	h := handler
	enabled := level >= currentLevel
	mu.RUnlock()

	if !enabled {
		return
	}

	slog.New(h).Log(context.Background(), level.slogLevel(), fmt.Sprintf(format, v...))
}

func Debug(format string, v ...any) {
	log(LevelDebug, format, v...)
}

func Info(format string, v ...any) {
	log(LevelInfo, format, v...)
}

func Warn(format string, v ...any) {
	log(LevelWarn, format, v...)
}

func Error(format string, v ...any) {
	log(LevelError, format, v...)
}

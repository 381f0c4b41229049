package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Leveled logger shared by the server, the sweeper and maintctl.
// Init(level) picks the threshold; the *w variants append key=value pairs.

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu     sync.RWMutex
	logger *log.Logger = log.New(os.Stdout, "", 0)
	level  Level       = LevelInfo
)

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Default level is Info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		level = LevelDebug
	case "warn", "warning":
		level = LevelWarn
	case "error":
		level = LevelError
	case "fatal":
		level = LevelFatal
	default:
		level = LevelInfo
	}
}

// SetOutput redirects log lines, e.g. to stderr for the CLI.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, "", 0)
}

func header(lvl string) string {
	return fmt.Sprintf("%s [%s] ", time.Now().Format(time.RFC3339), strings.ToUpper(lvl))
}

func shouldLog(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}

func output(l Level, lvl, msg string) {
	if !shouldLog(l) {
		return
	}
	mu.RLock()
	lg := logger
	mu.RUnlock()
	lg.Print(header(lvl) + msg)
}

func Debugf(format string, v ...interface{}) { output(LevelDebug, "debug", fmt.Sprintf(format, v...)) }
func Infof(format string, v ...interface{})  { output(LevelInfo, "info", fmt.Sprintf(format, v...)) }
func Warnf(format string, v ...interface{})  { output(LevelWarn, "warn", fmt.Sprintf(format, v...)) }
func Errorf(format string, v ...interface{}) { output(LevelError, "error", fmt.Sprintf(format, v...)) }

func Fatalf(format string, v ...interface{}) {
	output(LevelFatal, "fatal", fmt.Sprintf(format, v...))
	os.Exit(1)
}

// Infow logs msg followed by key=value pairs.
func Infow(msg string, kv ...interface{}) { output(LevelInfo, "info", withFields(msg, kv)) }

// Warnw logs msg followed by key=value pairs.
func Warnw(msg string, kv ...interface{}) { output(LevelWarn, "warn", withFields(msg, kv)) }

func withFields(msg string, kv []interface{}) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	if len(kv)%2 == 1 {
		fmt.Fprintf(&b, " %v=?", kv[len(kv)-1])
	}
	return b.String()
}

func Info(v string)  { Infof("%s", v) }
func Warn(v string)  { Warnf("%s", v) }
func Error(v string) { Errorf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	switch level {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "info"
}

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// syncWriter is a thread-safe writer that prevents interleaved output
type syncWriter struct {
	w  io.Writer
	mu sync.Mutex
}

func (sw *syncWriter) Write(p []byte) (n int, err error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.Write(p)
}

// ParseLevel maps a config log level to slog. Unknown names are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New returns a slog logger backed by charmbracelet/log writing to w. Caller
// and timestamp reporting are only on at debug level.
func New(w io.Writer, level slog.Level) *slog.Logger {
	verbose := level <= slog.LevelDebug
	charmLogger := charmlog.NewWithOptions(&syncWriter{w: w}, charmlog.Options{
		Level:           charmlog.Level(level),
		ReportCaller:    verbose,
		ReportTimestamp: verbose,
		TimeFormat:      time.RFC3339,
		Prefix:          "zoo",
	})
	return slog.New(charmLogger)
}

var (
	panicDirMu sync.Mutex
	panicDir   string
)

// SetPanicDir sets where RecoverPanic writes its reports. The default is the
// working directory.
func SetPanicDir(dir string) {
	panicDirMu.Lock()
	defer panicDirMu.Unlock()
	panicDir = dir
}

// RecoverPanic must be deferred directly. It logs a recovered panic, writes a
// report with the stack trace and runs cleanup.
func RecoverPanic(name string, cleanup func()) {
	if r := recover(); r != nil {
		writePanicReport(name, r, debug.Stack())
		if cleanup != nil {
			cleanup()
		}
	}
}

func writePanicReport(name string, r any, stack []byte) string {
	slog.Error("panic", "in", name, "error", r)

	panicDirMu.Lock()
	dir := panicDir
	panicDirMu.Unlock()
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("failed to create panic log directory", "path", dir, "error", err)
			dir = ""
		}
	}

	timestamp := time.Now().Format("20060102-150405")
	filename := filepath.Join(dir, fmt.Sprintf("zoo-panic-%s-%s.log", name, timestamp))
	file, err := os.Create(filename)
	if err != nil {
		slog.Error("failed to create panic log file", "path", filename, "error", err)
		return ""
	}
	defer file.Close()

	fmt.Fprintf(file, "Panic in %s: %v\n\n", name, r)
	fmt.Fprintf(file, "Time: %s\n\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(file, "Stack Trace:\n%s\n", stack)
	slog.Info("panic details written", "path", filename)
	return filename
}

// Package pidfile writes the daemon's pid to a file at startup and removes
// it at exit. Both operations are best effort: a pid file is a convenience
// for init scripts, never worth failing the daemon over.
package pidfile

import (
	"log/slog"
	"os"
	"strconv"

	"logrelay/internal/logging"
)

// File tracks a written pid file. A zero File (no path) is a no-op.
type File struct {
	path   string
	logger *slog.Logger
}

// Write records the current pid at path. An empty path or a write failure
// yields a no-op File; failures are logged as warnings.
func Write(path string, logger *slog.Logger) *File {
	logger = logging.Default(logger)
	if path == "" {
		return &File{logger: logger}
	}

	pid := strconv.Itoa(os.Getpid()) + "\n"
	if err := os.WriteFile(path, []byte(pid), 0o644); err != nil {
		logger.Warn("unable to write PID file", "path", path, "error", err)
		return &File{logger: logger}
	}
	return &File{path: path, logger: logger}
}

// Remove deletes the pid file if one was written.
func (f *File) Remove() {
	if f.path == "" {
		return
	}
	if err := os.Remove(f.path); err != nil {
		f.logger.Warn("unable to remove PID file", "path", f.path, "error", err)
	}
	f.path = ""
}

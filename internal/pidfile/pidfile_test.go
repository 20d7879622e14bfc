package pidfile

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"logrelay/internal/logging"
)

func TestWriteAndRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.pid")

	f := Write(path, logging.Discard())

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	if want := strconv.Itoa(os.Getpid()) + "\n"; string(data) != want {
		t.Errorf("pid file = %q, want %q", data, want)
	}

	f.Remove()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("pid file still present after Remove: %v", err)
	}

	// Remove is idempotent.
	f.Remove()
}

func TestEmptyPathIsNoop(t *testing.T) {
	f := Write("", logging.Discard())
	f.Remove()
}

func TestUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "daemon.pid")

	// Must not fail the caller; the File is a no-op.
	f := Write(path, logging.Discard())
	f.Remove()
}

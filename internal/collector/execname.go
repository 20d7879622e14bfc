package collector

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// execName resolves the app name from the container's running process via
// /proc, re-reading at most once per second. It is private to one collector
// and never shared across goroutines.
type execName struct {
	pid      int
	fallback string
	last     time.Time
	name     string
}

func newExecName(pid int, fallback string) *execName {
	return &execName{pid: pid, fallback: fallback}
}

// appName returns the basename of the process's executable, preferring the
// resolved binary path over the first command-line token, and falling back
// to the static name when both fail. Results are cached for one second.
func (e *execName) appName() string {
	now := time.Now()
	if !e.last.IsZero() && now.Sub(e.last) <= time.Second {
		return e.name
	}
	e.last = now

	e.name = e.resolve()
	if e.name == "" {
		e.name = e.fallback
	}
	return e.name
}

func (e *execName) resolve() string {
	proc := "/proc/" + strconv.Itoa(e.pid)

	if exe, err := os.Readlink(proc + "/exe"); err == nil && exe != "" {
		return filepath.Base(exe)
	}

	// The exe link needs privileges the process may not have; the first
	// cmdline token is the next best source.
	cmdline, err := os.ReadFile(proc + "/cmdline")
	if err != nil {
		return ""
	}
	first, _, _ := bytes.Cut(cmdline, []byte{0})
	if len(first) == 0 {
		return ""
	}
	return filepath.Base(string(first))
}

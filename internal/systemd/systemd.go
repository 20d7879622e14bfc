// Package systemd sends readiness and shutdown notifications to a
// supervising systemd instance. When the process is not supervised (no
// notify socket, or the socket belongs to another unit) every call is a
// no-op, keeping the daemon portable.
package systemd

import (
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/coreos/go-systemd/v22/daemon"

	"logrelay/internal/logging"
)

// supervised reports whether systemd started this process and expects
// notifications. When SYSTEMD_EXEC_PID is present it must name this very
// process; otherwise a non-empty NOTIFY_SOCKET is enough.
var supervised = sync.OnceValue(func() bool {
	if os.Getenv("NOTIFY_SOCKET") == "" {
		return false
	}
	if pidStr := os.Getenv("SYSTEMD_EXEC_PID"); pidStr != "" {
		pid, err := strconv.Atoi(pidStr)
		return err == nil && pid == os.Getpid()
	}
	return true
})

// NotifyReady tells systemd the daemon finished starting up.
func NotifyReady(logger *slog.Logger) {
	notify(daemon.SdNotifyReady, logger)
}

// NotifyStopping tells systemd the daemon began shutting down.
func NotifyStopping(logger *slog.Logger) {
	notify(daemon.SdNotifyStopping, logger)
}

func notify(state string, logger *slog.Logger) {
	if !supervised() {
		return
	}
	if _, err := daemon.SdNotify(false, state); err != nil {
		logging.Default(logger).Warn("could not notify systemd", "state", state, "error", err)
	}
}

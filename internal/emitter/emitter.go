// Package emitter delivers formatted syslog records to the one configured
// destination: a persistent TCP connection, a UDP socket, or an append-only
// file. The emitter is the single consumer of the shared record channel;
// socket destinations retry each record indefinitely with a fixed backoff,
// so a record handed to the channel is delivered or retried until shutdown.
package emitter

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"logrelay/internal/logging"
)

// retryDelay is the fixed pause between reconnect or resend attempts.
const retryDelay = time.Second

// Emitter consumes the shared record channel and forwards every record to
// its destination. Run returns when in closes or ctx is cancelled; a non-nil
// error means the destination is unusable and the process should stop.
type Emitter interface {
	Run(ctx context.Context, in <-chan []byte) error
	String() string
}

// Parse resolves a destination address string into an Emitter. Accepted
// forms: tcp://host:port, tcp:host:port, udp://host:port, udp:host:port,
// file://path and file:path (the last requires an existing parent
// directory). Unknown schemes are a configuration error.
//
// The rotate channel makes a file destination reopen its path; socket
// destinations ignore it.
func Parse(url string, rotate <-chan struct{}, logger *slog.Logger) (Emitter, error) {
	logger = logging.Default(logger).With("component", "emitter")

	switch {
	case strings.HasPrefix(url, "tcp://"):
		return newStream(url[6:], logger)
	case strings.HasPrefix(url, "tcp:"):
		return newStream(url[4:], logger)
	case strings.HasPrefix(url, "udp://"):
		return newDatagram(url[6:], logger)
	case strings.HasPrefix(url, "udp:"):
		return newDatagram(url[4:], logger)
	case strings.HasPrefix(url, "file://"):
		return newFile(url[7:], rotate, logger), nil
	case strings.HasPrefix(url, "file:"):
		path := url[5:]
		parent := filepath.Dir(path)
		fi, err := os.Stat(parent)
		if err != nil || !fi.IsDir() {
			return nil, fmt.Errorf("parent path is not a directory: %s", parent)
		}
		return newFile(path, rotate, logger), nil
	default:
		return nil, fmt.Errorf("unknown destination scheme in %q", url)
	}
}

// checkAddr validates a host:port destination at startup, before any dial.
func checkAddr(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid destination address %q: %w", addr, err)
	}
	if host == "" || port == "" {
		return fmt.Errorf("invalid destination address %q: host and port required", addr)
	}
	return nil
}

// sleep pauses for d unless ctx is cancelled first.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

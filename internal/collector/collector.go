// Package collector tails the log stream of a single container, formats
// every line as a syslog record, and pushes the records onto the shared
// delivery channel. One Collector instance serves exactly one container.
package collector

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"logrelay/internal/config"
	"logrelay/internal/docker"
	"logrelay/internal/logging"
	"logrelay/internal/syslog"
)

// Container labels controlling collection, read at inspect time.
const (
	labelEnabled = "logrelay.enabled"
	labelAppName = "logrelay.app_name"
)

// All forwarded records carry the system-daemon facility.
const facility = syslog.SystemDaemon

// Collector holds the per-process settings shared by all container
// collectors. Per-container state lives entirely inside Run.
type Collector struct {
	client     docker.Client
	hostname   string
	rfc3164    bool
	useExecPID bool
	logger     *slog.Logger
}

// New creates a Collector factory bound to the given runtime client and
// formatter settings.
func New(client docker.Client, hostname string, rfc3164, useExecPID bool, logger *slog.Logger) *Collector {
	return &Collector{
		client:     client,
		hostname:   hostname,
		rfc3164:    rfc3164,
		useExecPID: useExecPID,
		logger:     logging.Default(logger).With("component", "collector"),
	}
}

// Run collects logs for one container until the container stops, an
// unrecoverable error occurs, or ctx is cancelled. Stream read errors
// reopen the stream from the current watermark after re-inspecting the
// container; inspect failures are terminal and left to the supervisor's
// next discovery pass.
func (c *Collector) Run(ctx context.Context, containerID string, out chan<- []byte) {
	logger := c.logger.With("container_id", shortID(containerID))

	// Watermark: unix seconds of the last delivered line, the resume
	// point when the stream is reopened. Seconds granularity means a
	// reopen may re-deliver lines from the same second; delivery is
	// at-least-once across stream restarts.
	since := time.Now().Unix()

	for ctx.Err() == nil {
		info, err := c.client.ContainerInspect(ctx, containerID)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("container inspect failed", "error", err)
			}
			break
		}

		if v, ok := info.Labels[labelEnabled]; ok && !config.BoolString(v) {
			logger.Info("logging disabled by label")
			return
		}

		var formatter *syslog.Formatter
		if c.rfc3164 {
			formatter = syslog.NewRFC3164(facility, c.hostname, info.Pid)
		} else {
			formatter = syslog.NewRFC5424(facility, c.hostname, info.Pid, info.Name)
		}

		// The app_name label always wins. Otherwise the name comes from
		// the running executable when exec-pid resolution is on, with
		// the configured entrypoint (or container name) as fallback.
		staticName := info.Labels[labelAppName]
		var exec *execName
		if c.useExecPID && info.Pid > 0 {
			exec = newExecName(info.Pid, fallbackName(info))
		} else if staticName == "" {
			staticName = fallbackName(info)
		}

		body, isTTY, err := c.client.ContainerLogs(ctx, containerID, since)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("opening log stream failed", "error", err)
			}
			break
		}
		logger.Info("attached to container", "container_name", info.Name)

		entries := make(chan docker.Line, 64)
		readErr := make(chan error, 1)
		go func() {
			readErr <- docker.ReadLines(body, isTTY || info.IsTTY, entries)
			close(entries)
		}()

		err = c.stream(ctx, entries, formatter, staticName, exec, out, &since)
		_ = body.Close()
		for range entries {
			// Unblock the reader goroutine so it can observe the close.
		}

		if ctx.Err() != nil {
			break
		}
		if err == nil {
			// Read the reader's verdict: nil means clean end of stream,
			// the container stopped.
			if rerr := <-readErr; rerr != nil {
				logger.Warn("log stream error, reopening", "error", rerr)
				continue
			}
			break
		}
	}

	logger.Info("detached from container")
}

// stream consumes decoded lines until the entries channel closes or ctx is
// cancelled. It returns ctx.Err() on cancellation and nil when entries
// closed.
func (c *Collector) stream(
	ctx context.Context,
	entries <-chan docker.Line,
	formatter *syslog.Formatter,
	staticName string,
	exec *execName,
	out chan<- []byte,
	since *int64,
) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-entries:
			if !ok {
				return nil
			}

			ts, msg := parseLine(line.Raw)
			severity := syslog.Informational
			if line.Stderr {
				severity = syslog.Error
			}

			appName := staticName
			if appName == "" && exec != nil {
				appName = exec.appName()
			}

			record := formatter.Format(msg, appName, severity, ts)
			select {
			case out <- record:
				if u := ts.Unix(); u > *since {
					*since = u
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// parseLine splits a raw log line into its Docker timestamp prefix and the
// message. A missing or unparsable timestamp stamps the line with the
// current time and keeps the full line as the message.
func parseLine(raw []byte) (time.Time, []byte) {
	for i, b := range raw {
		if b != ' ' {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, string(raw[:i]))
		if err != nil {
			break
		}
		return ts, raw[i+1:]
	}
	return time.Now(), raw
}

// fallbackName derives a static app name from the container's configured
// entrypoint, or failing that its name.
func fallbackName(info docker.ContainerInfo) string {
	if info.Path != "" {
		return filepath.Base(info.Path)
	}
	return info.Name
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

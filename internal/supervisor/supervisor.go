// Package supervisor discovers running containers and keeps one collector
// alive per container. It owns the self-healing loop around the Docker
// daemon: every (re)connection lists the running containers, spawns a fresh
// generation of collectors, and then follows container-start events until
// the event stream fails, at which point the generation is torn down and
// the loop starts over.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"logrelay/internal/docker"
	"logrelay/internal/logging"
)

const (
	// retryDelay is the fixed pause before retrying after a daemon fault.
	retryDelay = time.Second
	// drainTimeout bounds the wait for a generation's collectors on
	// shutdown or restart.
	drainTimeout = time.Minute
)

// CollectFunc runs a collector for one container until it stops or ctx is
// cancelled.
type CollectFunc func(ctx context.Context, containerID string, out chan<- []byte)

// Supervisor drives container discovery and collector lifecycles.
type Supervisor struct {
	client  docker.Client
	collect CollectFunc
	out     chan<- []byte
	onReady func()
	logger  *slog.Logger
}

// New creates a Supervisor. onReady is called exactly once, after the first
// successful container enumeration; pass a no-op when no init system is
// supervising the process.
func New(client docker.Client, collect CollectFunc, out chan<- []byte, onReady func(), logger *slog.Logger) *Supervisor {
	if onReady == nil {
		onReady = func() {}
	}
	return &Supervisor{
		client:  client,
		collect: collect,
		out:     out,
		onReady: onReady,
		logger:  logging.Default(logger).With("component", "supervisor"),
	}
}

// Run blocks until ctx is cancelled. Daemon connectivity faults and event
// stream failures restart discovery after a fixed delay; they never
// propagate out.
func (s *Supervisor) Run(ctx context.Context) {
	ready := false

	for ctx.Err() == nil {
		containers, err := s.client.ContainerList(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			s.logger.Warn("could not list containers", "error", err)
			if !sleep(ctx, retryDelay) {
				break
			}
			continue
		}

		gen := newGeneration(ctx)
		logger := s.logger.With("generation", gen.id)
		logger.Info("discovery pass", "containers", len(containers))

		for _, id := range containers {
			s.spawn(gen, id)
		}

		if !ready {
			ready = true
			s.onReady()
			s.logger.Info("started successfully")
		}

		if !s.followEvents(ctx, gen, logger) {
			gen.stop(drainTimeout)
			break
		}

		gen.stop(drainTimeout)
		if !sleep(ctx, retryDelay) {
			break
		}
	}

	s.logger.Info("supervisor stopped")
}

// followEvents spawns a collector for every container-start event in the
// current generation. It returns false when ctx was cancelled, true when
// the event stream ended or failed and discovery should restart.
func (s *Supervisor) followEvents(ctx context.Context, gen *generation, logger *slog.Logger) bool {
	events, errs := s.client.Events(gen.ctx)

	for {
		select {
		case <-ctx.Done():
			return false

		case ev, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return false
				}
				logger.Warn("event stream ended")
				return true
			}
			s.spawn(gen, ev.ContainerID)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if ctx.Err() != nil {
				return false
			}
			logger.Warn("error reading event stream", "error", err)
			return true
		}
	}
}

func (s *Supervisor) spawn(gen *generation, containerID string) {
	gen.spawn(func(ctx context.Context) {
		s.collect(ctx, containerID, s.out)
	})
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

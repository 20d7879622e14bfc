package supervisor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// generation is one discovery session's cancellation scope: every collector
// spawned during the session runs under its context. Stopping a generation
// cancels that context and joins the collectors with a bounded wait, so a
// stuck collector cannot hold up a restart or shutdown.
type generation struct {
	id     uuid.UUID
	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group
}

func newGeneration(parent context.Context) *generation {
	ctx, cancel := context.WithCancel(parent)
	return &generation{id: uuid.New(), ctx: ctx, cancel: cancel}
}

func (g *generation) spawn(f func(ctx context.Context)) {
	g.group.Go(func() error {
		f(g.ctx)
		return nil
	})
}

// stop cancels the generation and waits up to timeout for its collectors.
func (g *generation) stop(timeout time.Duration) {
	g.cancel()

	done := make(chan struct{})
	go func() {
		_ = g.group.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
	}
}

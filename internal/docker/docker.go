// Package docker wraps the Docker Engine API behind the small Client
// interface the supervisor and collectors need: listing and inspecting
// running containers, following their log streams, and watching
// container-start events.
package docker

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	dockerclient "github.com/docker/docker/client"
)

// ContainerInfo holds the inspect-time metadata a collector needs.
type ContainerInfo struct {
	ID     string
	Name   string // leading "/" stripped
	Path   string // configured entrypoint binary, may be empty
	Pid    int    // host pid of the container's init process, 0 when not running
	Labels map[string]string
	IsTTY  bool
}

// Event is a container lifecycle event. Only start events are subscribed.
type Event struct {
	ContainerID string
}

// Client abstracts the Docker Engine API interactions.
type Client interface {
	// ContainerList returns the IDs of all currently running containers.
	ContainerList(ctx context.Context) ([]string, error)
	// ContainerInspect fetches metadata for a single container.
	ContainerInspect(ctx context.Context, id string) (ContainerInfo, error)
	// ContainerLogs opens a follow-mode combined stdout+stderr stream with
	// timestamps enabled, starting at the given unix-seconds watermark.
	// The returned bool reports whether the stream is raw TTY output
	// rather than multiplexed frames.
	ContainerLogs(ctx context.Context, id string, since int64) (io.ReadCloser, bool, error)
	// Events subscribes to container-start events. Both channels are
	// closed when the subscription ends.
	Events(ctx context.Context) (<-chan Event, <-chan error)
}

// SDKClient implements Client using the official Docker SDK.
type SDKClient struct {
	cli *dockerclient.Client
}

// NewClient creates a Docker client for the given host, falling back to the
// environment (DOCKER_HOST etc.) and the local socket when host is empty.
func NewClient(host string) (*SDKClient, error) {
	opts := []dockerclient.Opt{
		dockerclient.FromEnv,
		dockerclient.WithAPIVersionNegotiation(),
	}
	if host != "" {
		opts = append(opts, dockerclient.WithHost(host))
	}

	cli, err := dockerclient.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &SDKClient{cli: cli}, nil
}

func (c *SDKClient) ContainerList(ctx context.Context) ([]string, error) {
	raw, err := c.cli.ContainerList(ctx, container.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("container list: %w", err)
	}

	ids := make([]string, len(raw))
	for i, r := range raw {
		ids[i] = r.ID
	}
	return ids, nil
}

func (c *SDKClient) ContainerInspect(ctx context.Context, id string) (ContainerInfo, error) {
	raw, err := c.cli.ContainerInspect(ctx, id)
	if err != nil {
		return ContainerInfo{}, fmt.Errorf("container inspect: %w", err)
	}

	info := ContainerInfo{
		ID:   raw.ID,
		Name: strings.TrimPrefix(raw.Name, "/"),
		Path: raw.Path,
	}
	if raw.State != nil {
		info.Pid = raw.State.Pid
	}
	if raw.Config != nil {
		info.Labels = raw.Config.Labels
		info.IsTTY = raw.Config.Tty
	}
	return info, nil
}

func (c *SDKClient) ContainerLogs(ctx context.Context, id string, since int64) (io.ReadCloser, bool, error) {
	// The SDK does not expose the Content-Type header that indicates TTY
	// mode, so inspect first to pick the right stream reader.
	info, err := c.cli.ContainerInspect(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("inspect for logs: %w", err)
	}
	isTTY := info.Config != nil && info.Config.Tty

	body, err := c.cli.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Timestamps: true,
		Follow:     true,
		Since:      strconv.FormatInt(since, 10),
		Tail:       "all",
	})
	if err != nil {
		return nil, false, fmt.Errorf("container logs: %w", err)
	}
	return body, isTTY, nil
}

func (c *SDKClient) Events(ctx context.Context) (<-chan Event, <-chan error) {
	eventFilter := filters.NewArgs(
		filters.Arg("type", string(events.ContainerEventType)),
		filters.Arg("event", string(events.ActionStart)),
	)

	msgCh, errCh := c.cli.Events(ctx, events.ListOptions{Filters: eventFilter})

	out := make(chan Event)
	outErr := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(outErr)

		for {
			select {
			case msg, ok := <-msgCh:
				if !ok {
					return
				}
				select {
				case out <- Event{ContainerID: msg.Actor.ID}:
				case <-ctx.Done():
					return
				}

			case err, ok := <-errCh:
				if !ok {
					return
				}
				if ctx.Err() != nil {
					return
				}
				outErr <- fmt.Errorf("events: %w", err)
				return
			}
		}
	}()

	return out, outErr
}

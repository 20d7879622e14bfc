// Command logrelay forwards the logs of all local Docker containers to a
// single syslog destination.
//
// Logging:
//   - Base logger is created here with output format and level
//   - Logger is passed to all components via dependency injection
//   - No global slog configuration (no slog.SetDefault)
//   - Components scope loggers with their own attributes
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"logrelay/internal/collector"
	"logrelay/internal/config"
	"logrelay/internal/docker"
	"logrelay/internal/emitter"
	"logrelay/internal/pidfile"
	"logrelay/internal/supervisor"
	"logrelay/internal/systemd"
)

const (
	// channelCapacity bounds the shared record channel. Collectors block
	// when it is full; records are never dropped for capacity reasons.
	channelCapacity = 1024
	// shutdownTimeout bounds the wait for stragglers before exiting.
	shutdownTimeout = time.Minute
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "logrelay",
		Short:        "Forward Docker container logs to a syslog destination",
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         run,
	}
	config.AddFlags(rootCmd.Flags())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("starting", "version", version)

	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "localhost"
	}

	pf := pidfile.Write(cfg.PIDFile, logger)
	defer pf.Remove()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// SIGHUP asks a file destination to reopen its path after rotation.
	rotate := make(chan struct{}, 1)
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			select {
			case rotate <- struct{}{}:
			default:
			}
		}
	}()

	em, err := emitter.Parse(cfg.EmitterURL, rotate, logger)
	if err != nil {
		return err
	}

	client, err := docker.NewClient(cfg.DockerHost)
	if err != nil {
		return err
	}

	records := make(chan []byte, channelCapacity)
	coll := collector.New(client, hostname, cfg.RFC3164, cfg.UseExecPID, logger)
	sup := supervisor.New(client, coll.Run, records, func() { systemd.NotifyReady(logger) }, logger)

	// The emitter outlives discovery restarts: it runs on its own context,
	// cancelled only after the supervisor has drained its collectors.
	emCtx, emCancel := context.WithCancel(context.Background())
	defer emCancel()

	emErr := make(chan error, 1)
	go func() { emErr <- em.Run(emCtx, records) }()

	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()

	var failure error
	emDone := false
	select {
	case <-supDone:
		// Shutdown signal received and the last generation drained.
	case err := <-emErr:
		// The destination became unusable; shut the whole daemon down.
		emDone = true
		failure = err
		if err != nil {
			logger.Error("emitter failed", "error", err)
		}
		stop()
		select {
		case <-supDone:
		case <-time.After(shutdownTimeout):
		}
	}

	systemd.NotifyStopping(logger)
	logger.Info("shutting down")

	emCancel()
	if !emDone {
		select {
		case failure = <-emErr:
		case <-time.After(shutdownTimeout):
		}
	}

	logger.Info("completed shutdown")
	return failure
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}

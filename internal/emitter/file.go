package emitter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// fileEmitter appends records to a local file. Unlike the socket variants
// it does not retry: a failed write is logged and the record dropped, since
// a broken local disk will not heal within the pipeline's timeframe. The
// rotate channel reopens the path, letting an external rotator move the old
// file aside first.
type fileEmitter struct {
	path   string
	rotate <-chan struct{}
	logger *slog.Logger
}

func newFile(path string, rotate <-chan struct{}, logger *slog.Logger) *fileEmitter {
	return &fileEmitter{path: path, rotate: rotate, logger: logger}
}

func (f *fileEmitter) String() string {
	return "file://" + f.path
}

func (f *fileEmitter) Run(ctx context.Context, in <-chan []byte) error {
	file, err := openAppend(f.path)
	if err != nil {
		return fmt.Errorf("open emitter file: %w", err)
	}
	defer func() { _ = file.Close() }()

	f.logger.Info("saving logs", "path", f.path)

	for {
		if ctx.Err() != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil

		case <-f.rotate:
			newFile, err := openAppend(f.path)
			if err != nil {
				// Keep writing to the old handle.
				f.logger.Warn("could not switch to new emitter file", "error", err)
				continue
			}
			_ = file.Close()
			file = newFile
			f.logger.Info("switched to new emitter file")

		case record, ok := <-in:
			if !ok {
				return nil
			}
			if _, err := file.Write(record); err != nil {
				f.logger.Warn("could not write to emitter file", "error", err)
			}
		}
	}
}

func openAppend(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
}

package docker

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Line is a single raw log line from a container stream. With timestamps
// enabled the line starts with an RFC3339Nano timestamp token followed by a
// space; Raw keeps that prefix for the caller to parse.
type Line struct {
	Stderr bool
	Raw    []byte
}

const maxLineSize = 1024 * 1024

// ReadLines decodes a container log stream into individual lines on the
// entries channel. Non-TTY containers multiplex stdout and stderr into
// 8-byte-header frames; TTY containers emit a raw byte stream. Returns nil
// on clean end of stream.
func ReadLines(r io.Reader, isTTY bool, entries chan<- Line) error {
	if isTTY {
		return readRaw(r, entries)
	}
	return readMultiplexed(r, entries)
}

// readMultiplexed reads Docker multiplexed log frames:
// [stream_type(1)][padding(3)][size(4 BE)][payload].
func readMultiplexed(r io.Reader, entries chan<- Line) error {
	header := make([]byte, 8)
	for {
		if _, err := io.ReadFull(r, header); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		stderr := header[0] == 2
		size := binary.BigEndian.Uint32(header[4:8])
		if size == 0 {
			continue
		}
		if size > maxLineSize {
			return fmt.Errorf("oversized log frame: %d bytes", size)
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return fmt.Errorf("read frame payload: %w", err)
		}

		// A frame may carry several newline-separated lines.
		for _, line := range splitLines(payload) {
			entries <- Line{Stderr: stderr, Raw: line}
		}
	}
}

// readRaw reads the unmultiplexed output of a TTY container. TTY streams
// merge stdout and stderr, so every line counts as stdout.
func readRaw(r io.Reader, entries chan<- Line) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		raw := make([]byte, len(line))
		copy(raw, line)
		entries <- Line{Raw: raw}
	}
	return scanner.Err()
}

// splitLines splits payload bytes by newline, dropping empty lines and
// trailing carriage returns.
func splitLines(data []byte) [][]byte {
	var lines [][]byte
	for len(data) > 0 {
		var line []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i], data[i+1:]
		} else {
			line, data = data, nil
		}
		line = bytes.TrimSuffix(line, []byte{'\r'})
		if len(line) == 0 {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		lines = append(lines, cp)
	}
	return lines
}

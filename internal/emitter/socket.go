package emitter

import (
	"context"
	"log/slog"
	"net"
)

// maxDatagramSize is the largest UDP payload over IPv4 (65535 minus IP and
// UDP headers). Longer records are truncated to this size.
const maxDatagramSize = 65_507

// socketEmitter implements the Stream and Datagram destination variants.
// It owns at most one live connection; conn is nil while disconnected.
type socketEmitter struct {
	network string // "tcp" or "udp"
	addr    string
	logger  *slog.Logger

	conn      net.Conn
	stopWatch func() bool // cancels the ctx watcher closing conn
}

func newStream(addr string, logger *slog.Logger) (*socketEmitter, error) {
	if err := checkAddr(addr); err != nil {
		return nil, err
	}
	return &socketEmitter{network: "tcp", addr: addr, logger: logger}, nil
}

func newDatagram(addr string, logger *slog.Logger) (*socketEmitter, error) {
	if err := checkAddr(addr); err != nil {
		return nil, err
	}
	return &socketEmitter{network: "udp", addr: addr, logger: logger}, nil
}

func (s *socketEmitter) String() string {
	return s.network + "://" + s.addr
}

// Run forwards records until in closes or ctx is cancelled. Each record is
// retried against fresh connections until it goes out; nothing is dropped.
func (s *socketEmitter) Run(ctx context.Context, in <-chan []byte) error {
	s.logger.Info("sending logs", "url", s.String())
	defer s.disconnect()

	for {
		select {
		case <-ctx.Done():
			return nil
		case record, ok := <-in:
			if !ok {
				return nil
			}
			if !s.send(ctx, record) {
				return nil
			}
		}
	}
}

// send delivers one record, reconnecting and retrying until it succeeds.
// Returns false only when ctx is cancelled.
func (s *socketEmitter) send(ctx context.Context, record []byte) bool {
	for {
		if !s.connect(ctx) {
			return false
		}

		data := record
		if s.network == "udp" {
			if len(data) > maxDatagramSize {
				data = data[:maxDatagramSize]
			} else {
				// Datagrams are self-delimited; drop the trailing newline.
				data = data[:len(data)-1]
			}
		}

		if _, err := s.conn.Write(data); err != nil {
			if ctx.Err() != nil {
				return false
			}
			s.logger.Warn("error sending data", "error", err)
			s.disconnect()
			if !sleep(ctx, retryDelay) {
				return false
			}
			continue
		}
		return true
	}
}

// connect ensures a live connection, retrying indefinitely with a fixed
// backoff. For UDP this binds an ephemeral local port and associates it
// with the remote address. Returns false when ctx is cancelled.
func (s *socketEmitter) connect(ctx context.Context) bool {
	for s.conn == nil {
		var d net.Dialer
		conn, err := d.DialContext(ctx, s.network, s.addr)
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			s.logger.Warn("error connecting socket", "error", err)
			if !sleep(ctx, retryDelay) {
				return false
			}
			continue
		}

		s.conn = conn
		// Close the connection as soon as ctx is cancelled so a blocked
		// write cannot delay shutdown.
		s.stopWatch = context.AfterFunc(ctx, func() { _ = conn.Close() })
		// Service the receive path so peer chatter cannot fill the
		// kernel buffer; everything read is discarded.
		go drainConn(conn)
	}
	return true
}

func (s *socketEmitter) disconnect() {
	if s.conn == nil {
		return
	}
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
	_ = s.conn.Close()
	s.conn = nil
}

// drainConn reads and discards inbound bytes until the connection errors,
// which also happens when disconnect closes it.
func drainConn(conn net.Conn) {
	buf := make([]byte, 512)
	for {
		if _, err := conn.Read(buf); err != nil {
			return
		}
	}
}

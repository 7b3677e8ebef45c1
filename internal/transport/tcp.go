// Package transport is the default concrete collab.Transport (spec §1's
// "transport framing ... TCP/IO loop" — explicitly out of scope for the
// engine, but something has to implement it for the module to run).
// Framing is a 4-byte big-endian length prefix followed by the engine's
// command-byte payload; connection tracking and the accept loop are
// adapted from the teacher's internal/mirage/service.go.
package transport

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// MaxFrameLen bounds a single frame's payload to guard against a corrupt
// or hostile length prefix exhausting memory.
const MaxFrameLen = 16 << 20

var ErrFrameTooLarge = errors.New("transport: frame exceeds maximum length")

// Dispatcher is the subset of *engine.Engine a Conn drives; declared here
// so tests can substitute a fake without importing the engine package's
// internals.
type Dispatcher interface {
	Dispatch(ctx context.Context, frame []byte) error
	Teardown()
}

// Conn wraps one accepted or dialed net.Conn, implementing collab.Transport
// and running the read loop that feeds decoded frames to a Dispatcher.
type Conn struct {
	nc  net.Conn
	w   *bufio.Writer
	log zerolog.Logger

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
}

// NewConn wraps nc for use as both a collab.Transport and a frame source.
func NewConn(nc net.Conn, log zerolog.Logger) *Conn {
	return &Conn{nc: nc, w: bufio.NewWriter(nc), log: log}
}

// SendBlocking implements collab.Transport: it writes the 4-byte length
// prefix (overwriting the engine's placeholder bytes already present at
// the head of buf) followed by buf[4:], optionally flushing immediately.
func (c *Conn) SendBlocking(buf []byte, flush bool) error {
	if len(buf) < 4 {
		return fmt.Errorf("transport: frame shorter than length prefix: %d bytes", len(buf))
	}
	binary.BigEndian.PutUint32(buf[:4], uint32(len(buf)-4))
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.w.Write(buf); err != nil {
		return err
	}
	if flush {
		return c.w.Flush()
	}
	return nil
}

// RemoteAddr returns the remote address string of the underlying
// connection, for use as a tracking key (e.g. by an admin surface).
func (c *Conn) RemoteAddr() string {
	return c.nc.RemoteAddr().String()
}

// Close closes the underlying connection. Idempotent.
func (c *Conn) Close() error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.nc.Close()
}

// Serve reads length-prefixed frames from the connection and dispatches
// each to d, until the connection is closed or a fatal protocol error
// occurs (spec §4.1: unknown command byte is fatal for the connection).
// It calls d.Teardown() exactly once before returning, satisfying spec
// §5's connection-teardown cancellation requirement.
func (c *Conn) Serve(ctx context.Context, d Dispatcher) error {
	defer d.Teardown()
	defer c.Close()

	r := bufio.NewReader(c.nc)
	var lenBuf [4]byte
	for {
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		n := binary.BigEndian.Uint32(lenBuf[:])
		if n > MaxFrameLen {
			c.log.Error().Uint32("len", n).Msg("frame exceeds maximum length, closing connection")
			return ErrFrameTooLarge
		}
		frame := make([]byte, n)
		if _, err := io.ReadFull(r, frame); err != nil {
			return err
		}
		if err := d.Dispatch(ctx, frame); err != nil {
			c.log.Error().Err(err).Msg("fatal dispatch error, closing connection")
			return err
		}
	}
}

// Listener accepts connections on addr and runs one Conn.Serve per
// connection against a fresh engine built by newEngine, tracking live
// connections for bulk teardown — adapted from the teacher's
// Service.Serve/trackConn/untrackConn/closeAllConns.
type Listener struct {
	log       zerolog.Logger
	newEngine func(*Conn) Dispatcher

	mu    sync.Mutex
	conns map[*Conn]struct{}
}

// NewListener constructs a Listener that builds one Dispatcher per
// accepted connection via newEngine.
func NewListener(log zerolog.Logger, newEngine func(*Conn) Dispatcher) *Listener {
	return &Listener{log: log, newEngine: newEngine, conns: make(map[*Conn]struct{})}
}

// Serve accepts connections on ln until ctx is cancelled or Accept fails.
func (l *Listener) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		conn := NewConn(nc, l.log)
		l.trackConn(conn)
		go func() {
			defer l.untrackConn(conn)
			if err := conn.Serve(ctx, l.newEngine(conn)); err != nil {
				l.log.Debug().Err(err).Str("remote", nc.RemoteAddr().String()).Msg("connection closed")
			}
		}()
	}
}

func (l *Listener) trackConn(c *Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conns[c] = struct{}{}
}

func (l *Listener) untrackConn(c *Conn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.conns, c)
}

// CloseAll closes every tracked connection, for shutdown.
func (l *Listener) CloseAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for c := range l.conns {
		c.Close()
	}
}

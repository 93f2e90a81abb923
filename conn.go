// Package wire implements the framed message transport shared by the client
// and server halves of a CalyxDB peer. It turns a byte-oriented stream
// socket into discrete, self-describing frames: a fixed five-byte header
// (format tag plus total length) followed by a payload owned by the codec
// the tag selects. Partial reads, partial writes, multi-frame reads and
// buffer growth are handled here; value serialization is pluggable through
// the codec registry.
package wire

import (
	"context"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ErrBufferFull is returned when the send queue is full and cannot accept
// more messages. This indicates backpressure - the peer is not consuming
// frames fast enough. Use WriteBlocking or WriteTimeout to wait for queue
// space instead of dropping.
var ErrBufferFull = errors.New("send buffer full")

// Conn is one framed connection to a peer. It owns a send buffer and a
// receive buffer with independent cursor state; the two directions never
// share storage.
//
// The blocking primitives Send and Receive occupy the calling goroutine
// until a full frame is sent or received, or the connection fails. Run
// layers an asynchronous surface on top: a read/write goroutine pair, a
// buffered send queue and per-message callbacks.
type Conn struct {
	conn   net.Conn
	logger Logger

	opts options

	// sendMu serializes the encode-then-drain sequence so frames from
	// concurrent senders are never interleaved mid-frame.
	sendMu  sync.Mutex
	sendBuf *Buffer
	recvBuf *Buffer

	sendQ  chan []byte
	closed atomic.Bool
	cancel context.CancelFunc
}

// NewConn creates a framed connection around the given stream connection.
// It applies the provided options and validates them before returning.
func NewConn(conn net.Conn, opt ...Option) (*Conn, error) {
	var opts options
	for _, o := range opt {
		o(&opts)
	}

	err := checkOptions(&opts)
	if err != nil {
		return nil, err
	}

	return newConnWithOptions(conn, opts), nil
}

func newConnWithOptions(conn net.Conn, opts options) *Conn {
	return &Conn{
		conn:    conn,
		logger:  opts.logger,
		opts:    opts,
		sendBuf: NewBuffer(opts.bufferSize),
		recvBuf: NewBuffer(opts.bufferSize),
		sendQ:   make(chan []byte, opts.sendQueueSize),
	}
}

// Scheme is the URI scheme of CalyxDB connection addresses.
const Scheme = "calyx"

// ParseAddr validates a connection address of the form "calyx://host:port"
// or a bare "host:port" and returns the host:port part.
func ParseAddr(addr string) (string, error) {
	if rest, ok := strings.CutPrefix(addr, Scheme+"://"); ok {
		addr = rest
	} else if strings.Contains(addr, "://") {
		return "", errors.Errorf("unsupported scheme in address %q", addr)
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return "", errors.Wrapf(err, "invalid address %q", addr)
	}
	return addr, nil
}

// Dial connects to a peer at the given address ("calyx://host:port" or
// "host:port") and returns a framed connection.
func Dial(addr string, opt ...Option) (*Conn, error) {
	hostport, err := ParseAddr(addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.Dial("tcp", hostport)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}
	return NewConn(conn, opt...)
}

// Send encodes v with the connection's default format and writes the frame
// to the stream, blocking until every byte is on the wire. Equivalent to
// SendFormat with the configured default tag.
func (c *Conn) Send(v any) error {
	return c.SendFormat(c.opts.format, v)
}

// SendFormat encodes v with the codec registered for format and drives the
// frame fully onto the stream, looping over partial writes. The send buffer
// is held exclusively for the whole encode-then-drain sequence, so frames
// from concurrent senders never interleave.
//
// An EncodeError leaves the connection usable: no bytes reached the wire
// and the buffer is cleared before the lock is released. A write failure is
// fatal: the socket is closed and ErrConnectionClosed returned.
func (c *Conn) SendFormat(format byte, v any) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.sendBuf.Clear()
	if err := WriteMessage(c.sendBuf, c.opts.registry, format, v); err != nil {
		c.sendBuf.Clear()
		return err
	}
	c.sendBuf.Flip()

	err := c.flush(c.sendBuf)
	c.sendBuf.Clear()
	return err
}

// flush writes buf's readable bytes to the stream until the buffer is
// exhausted, retrying on partial writes. Any write error closes the socket
// and surfaces ErrConnectionClosed; there is no retry across failures.
func (c *Conn) flush(buf *Buffer) error {
	for buf.Remaining() > 0 {
		n, err := c.conn.Write(buf.Readable())
		buf.Skip(n)
		if err != nil {
			c.logger.Debug("write error", "addr", c.Addr(), "error", err)
			c.closeConn()
			return ErrConnectionClosed
		}
	}
	return nil
}

// Receive returns one decoded message, blocking until a full frame is
// available. A frame already sitting in the receive buffer is returned
// without touching the socket. Zero-byte reads are retried; a read error or
// EOF closes the socket and returns ErrConnectionClosed.
//
// A codec-level failure (DecodeError, UnsupportedFormatError) consumes the
// offending frame and is returned without closing the connection; the next
// Receive continues with the following frame. A header declaring a length
// smaller than the header itself is unrecoverable: the connection is closed
// and ErrInvalidFrame returned.
func (c *Conn) Receive() (any, error) {
	if c.closed.Load() {
		return nil, ErrConnectionClosed
	}

	for {
		// Frames always start at offset zero, so a buffered header is
		// enough to reject oversized frames before growing for them.
		if c.recvBuf.Position() >= HeaderSize {
			if _, total := parseHeader(c.recvBuf.slice(0, HeaderSize)); int(total) > c.opts.maxFrameSize {
				c.logger.Debug("frame too large", "addr", c.Addr(), "length", total, "max", c.opts.maxFrameSize)
				c.closeConn()
				return nil, ErrFrameTooLarge
			}
		}

		v, ok, err := Extract(c.recvBuf, c.opts.registry)
		if errors.Is(err, ErrInvalidFrame) {
			c.logger.Debug("invalid frame header", "addr", c.Addr())
			c.closeConn()
			return nil, err
		}
		if err != nil {
			return nil, err
		}
		if ok {
			return v, nil
		}

		if c.recvBuf.Remaining() == 0 {
			c.recvBuf.grow(c.recvBuf.Cap() + 1)
		}

		n, err := c.conn.Read(c.recvBuf.Writable())
		if n > 0 {
			c.recvBuf.Advance(n)
			continue
		}
		if err != nil {
			c.logger.Debug("read error", "addr", c.Addr(), "error", err)
			c.closeConn()
			return nil, ErrConnectionClosed
		}
		// Zero bytes with no error is a valid transient outcome; retry.
	}
}

// Run starts the connection's read and write loops.
// It creates two goroutines for concurrent reading and writing,
// and blocks until an error occurs or the context is canceled.
// The connection is automatically closed when Run returns.
func (c *Conn) Run(ctx context.Context) error {
	if c.opts.onMessage == nil {
		return ErrInvalidOnMessage
	}

	c.logger.Info("connection established", "addr", c.Addr())
	c.logger.Debug("connection options", "addr", c.Addr(),
		"send_queue_size", c.opts.sendQueueSize,
		"buffer_size", c.opts.bufferSize,
		"max_frame_size", c.opts.maxFrameSize)

	ctx, c.cancel = context.WithCancel(ctx)
	group, child := errgroup.WithContext(ctx)

	group.Go(func() error {
		return c.readLoop(child)
	})

	group.Go(func() error {
		return c.writeLoop(child)
	})

	group.Go(func() error {
		// Receive blocks in the socket read; closing the socket is the
		// only way to unblock it when the context ends.
		<-child.Done()
		c.closeConn()
		return nil
	})

	err := group.Wait()
	c.closeConn()

	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Info("connection closed with error", "addr", c.Addr(), "error", err)
	} else {
		c.logger.Info("connection closed", "addr", c.Addr())
	}

	return err
}

// Close gracefully closes the connection.
// It cancels the context and closes the underlying stream connection.
// Safe to call multiple times.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil // already closed
	}
	if c.cancel != nil {
		c.cancel()
	}
	return c.conn.Close()
}

// IsClosed returns true if the connection has been closed.
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

// Write queues a message for sending without blocking (fire-and-forget).
// The message is encoded with the default format and queued for the write
// loop started by Run.
//
// Returns:
//   - nil: message was successfully queued (not yet sent)
//   - ErrBufferFull: send queue is full, message was NOT queued
//   - ErrConnectionClosed: connection is closed
//   - *EncodeError / *UnsupportedFormatError: encoding failed
//
// For guaranteed queueing, use WriteBlocking or WriteTimeout instead.
func (c *Conn) Write(v any) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	frame, err := c.encodeFrame(c.opts.format, v)
	if err != nil {
		return err
	}

	select {
	case c.sendQ <- frame:
		return nil
	default:
		return ErrBufferFull
	}
}

// WriteBlocking queues a message for sending, blocking until the frame is
// queued or the context is canceled. This is the safest write method for
// guaranteed delivery.
func (c *Conn) WriteBlocking(ctx context.Context, v any) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	frame, err := c.encodeFrame(c.opts.format, v)
	if err != nil {
		return err
	}

	select {
	case c.sendQ <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WriteTimeout queues a message for sending with a timeout, a middle ground
// between Write (non-blocking) and WriteBlocking. Returns ErrBufferFull when
// the timeout expires before the frame could be queued.
func (c *Conn) WriteTimeout(v any, timeout time.Duration) error {
	if c.closed.Load() {
		return ErrConnectionClosed
	}

	frame, err := c.encodeFrame(c.opts.format, v)
	if err != nil {
		return err
	}

	select {
	case c.sendQ <- frame:
		return nil
	case <-time.After(timeout):
		return ErrBufferFull
	}
}

// encodeFrame serializes v into a standalone frame for the send queue.
func (c *Conn) encodeFrame(format byte, v any) ([]byte, error) {
	buf := NewBuffer(HeaderSize + 256)
	if err := WriteMessage(buf, c.opts.registry, format, v); err != nil {
		return nil, err
	}
	buf.Flip()
	return buf.Readable(), nil
}

// Addr returns the remote address of the connection.
func (c *Conn) Addr() net.Addr {
	return c.conn.RemoteAddr()
}

// readLoop continuously receives frames and hands decoded values to the
// message handler. Codec-level errors go through onError; transport errors
// end the loop. Returns when the context is canceled or an unrecoverable
// error occurs.
func (c *Conn) readLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			v, err := c.Receive()
			if err != nil {
				if errors.Is(err, ErrConnectionClosed) || errors.Is(err, ErrFrameTooLarge) || errors.Is(err, ErrInvalidFrame) {
					// A close triggered by cancellation reports as the
					// context ending, not as a transport failure.
					if ctx.Err() != nil {
						return ctx.Err()
					}
					return err
				}
				c.logger.Debug("receive error", "addr", c.Addr(), "error", err)
				if c.opts.onError(err) == Disconnect {
					return err
				}
				continue
			}

			if err = c.opts.onMessage(v); err != nil {
				return err
			}
		}
	}
}

// writeLoop continuously drains queued frames onto the connection.
// Returns when the context is canceled or an unrecoverable error occurs.
func (c *Conn) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame := <-c.sendQ:
			if err := c.writeFrame(frame); err != nil {
				return err
			}
		}
	}
}

// writeFrame drains one pre-encoded frame under the send mutex so queued
// frames and direct Send calls stay ordered and never interleave.
func (c *Conn) writeFrame(frame []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	buf := &Buffer{buf: frame, lim: len(frame), mode: modeDrain}
	return c.flush(buf)
}

// closeConn marks the connection as closed and closes the underlying stream.
func (c *Conn) closeConn() {
	c.closed.Store(true)
	c.conn.Close()
}

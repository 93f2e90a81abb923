package wire

import (
	"fmt"

	"github.com/pkg/errors"
)

// Errors returned by connection operations.
var (
	// ErrInvalidOnMessage is returned when Run is started without a message handler.
	ErrInvalidOnMessage = errors.New("invalid on message callback")
	// ErrFrameTooLarge is returned when an incoming frame header declares a
	// length exceeding the connection's maximum frame size.
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrInvalidFrame is returned when a frame header declares a length
	// smaller than the header itself. The stream cannot be resynchronized
	// past such a header; the connection should be treated as compromised.
	ErrInvalidFrame = errors.New("invalid frame length")
)

// ErrConnectionClosed is returned when the underlying stream is closed or
// fails during a read or write. The socket is closed before this error is
// surfaced; no further I/O is attempted on the connection.
var ErrConnectionClosed = errors.New("connection closed")

// EncodeError reports a codec failure while serializing a value. No bytes
// have reached the wire: the send path clears its buffer, so the error is
// recoverable and the connection stays usable.
type EncodeError struct {
	Value any
	Err   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %T value: %v", e.Value, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// DecodeError reports a codec failure on a well-framed payload. The frame
// has been consumed from the buffer; Data holds the offending payload bytes
// for diagnostics. Recoverable: the connection stays usable.
type DecodeError struct {
	Format byte
	Data   []byte
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode format %d payload (%d bytes): %v", e.Format, len(e.Data), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnsupportedFormatError reports a frame carrying a format tag with no
// registered codec. Always a protocol violation; the connection should be
// treated as compromised.
type UnsupportedFormatError struct {
	Format byte
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format tag %d", e.Format)
}

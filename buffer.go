package wire

import "fmt"

// growthFactor scales the new capacity when a buffer is replaced by a
// larger one. Applied to the larger of the required size and the current
// capacity.
const growthFactor = 2

type bufferMode int

const (
	// modeFill accepts appended bytes; the cursor is the write position.
	modeFill bufferMode = iota
	// modeDrain serves buffered bytes; the cursor is the read position and
	// limit marks the end of valid data.
	modeDrain
)

func (m bufferMode) String() string {
	if m == modeFill {
		return "fill"
	}
	return "drain"
}

// Buffer is a growable byte buffer with an explicit cursor state machine.
// In fill mode bytes are appended at the cursor; Flip switches to drain
// mode, where bytes are consumed from the front up to the limit. Drain mode
// ends with Clear (everything consumed) or Compact (unread remainder moved
// to the front), both of which return the buffer to fill mode.
//
// Calling a fill-mode method while draining, or vice versa, is a programming
// error and panics. A Buffer is not safe for concurrent use; each connection
// owns separate send and receive buffers.
type Buffer struct {
	buf  []byte
	pos  int // write cursor (fill) or read cursor (drain)
	lim  int // end of valid data, meaningful in drain mode
	mode bufferMode
}

// NewBuffer returns an empty buffer in fill mode with the given capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity < 0 {
		panic("wire: negative buffer capacity")
	}
	return &Buffer{buf: make([]byte, capacity)}
}

func (b *Buffer) assertMode(m bufferMode) {
	if b.mode != m {
		panic(fmt.Sprintf("wire: buffer operation requires %s mode, buffer is in %s mode", m, b.mode))
	}
}

// Cap returns the allocated capacity.
func (b *Buffer) Cap() int { return len(b.buf) }

// Position returns the current cursor: bytes written so far in fill mode,
// bytes consumed so far in drain mode.
func (b *Buffer) Position() int { return b.pos }

// Limit returns the end of valid data in drain mode. In fill mode it equals
// the capacity.
func (b *Buffer) Limit() int {
	if b.mode == modeFill {
		return len(b.buf)
	}
	return b.lim
}

// Remaining returns the bytes left between the cursor and the limit.
func (b *Buffer) Remaining() int { return b.Limit() - b.pos }

// Flip switches the buffer from fill to drain mode. The bytes written so
// far become the readable window.
func (b *Buffer) Flip() {
	b.assertMode(modeFill)
	b.lim = b.pos
	b.pos = 0
	b.mode = modeDrain
}

// unflip undoes a Flip that consumed nothing of consequence: the buffer
// returns to fill mode with the write cursor back at the end of the
// previously written bytes.
func (b *Buffer) unflip() {
	b.assertMode(modeDrain)
	b.pos = b.lim
	b.lim = 0
	b.mode = modeFill
}

// Clear discards all contents and returns the buffer to fill mode. Valid in
// either mode.
func (b *Buffer) Clear() {
	b.pos = 0
	b.lim = 0
	b.mode = modeFill
}

// Compact moves the unread remainder to the front of the buffer and returns
// to fill mode with the write cursor after the moved bytes.
func (b *Buffer) Compact() {
	b.assertMode(modeDrain)
	n := copy(b.buf, b.buf[b.pos:b.lim])
	b.pos = n
	b.lim = 0
	b.mode = modeFill
}

// grow replaces the storage with a new allocation of at least need bytes,
// sized max(need, cap) * growthFactor, and copies the written prefix into
// it. Fill mode only: growth never happens mid-drain.
func (b *Buffer) grow(need int) {
	b.assertMode(modeFill)
	size := len(b.buf)
	if need > size {
		size = need
	}
	next := make([]byte, size*growthFactor)
	copy(next, b.buf[:b.pos])
	b.buf = next
}

// ensure makes room for n more bytes at the write cursor, growing if needed.
func (b *Buffer) ensure(n int) {
	if b.pos+n > len(b.buf) {
		b.grow(b.pos + n)
	}
}

// Write appends p at the write cursor, growing the buffer as needed. It
// implements io.Writer in fill mode and never returns an error.
func (b *Buffer) Write(p []byte) (int, error) {
	b.assertMode(modeFill)
	b.ensure(len(p))
	n := copy(b.buf[b.pos:], p)
	b.pos += n
	return n, nil
}

// Reserve advances the write cursor by n bytes without writing them,
// leaving a placeholder to be patched later via slice.
func (b *Buffer) Reserve(n int) {
	b.assertMode(modeFill)
	b.ensure(n)
	b.pos += n
}

// Next consumes and returns the next n readable bytes. The slice aliases
// the buffer's storage and is only valid until the next Compact, Clear or
// growth.
func (b *Buffer) Next(n int) []byte {
	b.assertMode(modeDrain)
	if n > b.lim-b.pos {
		panic("wire: read past buffer limit")
	}
	p := b.buf[b.pos : b.pos+n]
	b.pos += n
	return p
}

// Readable returns the unread bytes between the read cursor and the limit
// without consuming them.
func (b *Buffer) Readable() []byte {
	b.assertMode(modeDrain)
	return b.buf[b.pos:b.lim]
}

// Skip advances the read cursor by n bytes.
func (b *Buffer) Skip(n int) {
	b.assertMode(modeDrain)
	if n > b.lim-b.pos {
		panic("wire: skip past buffer limit")
	}
	b.pos += n
}

// Writable returns the spare room between the write cursor and the
// capacity, for an external reader (typically a socket) to fill. Follow
// with Advance for the bytes actually written.
func (b *Buffer) Writable() []byte {
	b.assertMode(modeFill)
	return b.buf[b.pos:]
}

// Advance moves the write cursor forward by n bytes after an external
// reader filled Writable.
func (b *Buffer) Advance(n int) {
	b.assertMode(modeFill)
	if b.pos+n > len(b.buf) {
		panic("wire: advance past buffer capacity")
	}
	b.pos += n
}

// slice returns the n bytes at offset off for in-place patching. Fill mode
// only; off+n must lie within the written region.
func (b *Buffer) slice(off, n int) []byte {
	b.assertMode(modeFill)
	if off < 0 || off+n > b.pos {
		panic("wire: slice outside written region")
	}
	return b.buf[off : off+n]
}

package wire

// WriteMessage encodes v as one frame into buf, which must be in fill mode.
// The header is reserved as a placeholder, the codec appends the payload
// directly after it, and the header is patched in once the payload length
// is known, avoiding a separate length-prefix copy.
//
// On success buf contains exactly one well-formed frame starting at the
// cursor position WriteMessage was called at. On an EncodeError the buffer
// holds a partial frame and must be cleared before reuse.
func WriteMessage(buf *Buffer, reg *Registry, format byte, v any) error {
	c, err := reg.Lookup(format)
	if err != nil {
		return err
	}
	start := buf.Position()
	buf.Reserve(HeaderSize)
	if err := c.Encode(buf, v); err != nil {
		return &EncodeError{Value: v, Err: err}
	}
	total := buf.Position() - start
	putHeader(buf.slice(start, HeaderSize), format, uint32(total))
	return nil
}

// Extract attempts to slice one complete frame out of buf, which must be in
// fill mode, and decode its payload through reg.
//
// When fewer bytes than a full frame are buffered, Extract restores the
// buffer untouched and reports ok=false with no error; if the header
// declared a length beyond the buffer's capacity, the buffer grows once so
// the rest of the frame can arrive. When a full frame is present its
// payload is decoded, the frame is consumed, and any trailing bytes are
// compacted to the front; a frame is never partially consumed and trailing
// bytes are never dropped. A decode failure still consumes the frame and
// returns the error with ok=false.
func Extract(buf *Buffer, reg *Registry) (v any, ok bool, err error) {
	if buf.Position() < HeaderSize {
		return nil, false, nil
	}
	buf.Flip()
	format, t := parseHeader(buf.Next(HeaderSize))
	total := int(t)
	if total < HeaderSize {
		// The stream cannot be resynchronized past a nonsensical length.
		buf.Clear()
		return nil, false, ErrInvalidFrame
	}
	if buf.Limit() < total {
		buf.unflip()
		if total > buf.Cap() {
			buf.grow(total)
		}
		return nil, false, nil
	}
	payload := buf.Next(total - HeaderSize)
	v, err = reg.Decode(format, payload)
	consumeFrame(buf)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// FrameHandler receives one complete frame per call during a segment sweep.
// The payload slice aliases the buffer and is reused on compaction: the
// handler must either copy it or fully consume it before returning.
type FrameHandler func(format byte, payload []byte) error

// ExtractAll drains every complete frame currently buffered, invoking
// handler once per frame in stream order, and returns the number of frames
// delivered. It stops when fewer than HeaderSize bytes remain or the next
// header declares more bytes than are buffered, leaving the remainder in
// place for the next read. A handler error stops the sweep after the
// offending frame has been consumed.
//
// Decoding is left to the handler so a slow codec can be handed off to a
// worker instead of stalling the read loop.
func ExtractAll(buf *Buffer, handler FrameHandler) (int, error) {
	var n int
	for buf.Position() >= HeaderSize {
		buf.Flip()
		format, t := parseHeader(buf.Next(HeaderSize))
		total := int(t)
		if total < HeaderSize {
			buf.Clear()
			return n, ErrInvalidFrame
		}
		if buf.Limit() < total {
			buf.unflip()
			if total > buf.Cap() {
				buf.grow(total)
			}
			return n, nil
		}
		err := handler(format, buf.Next(total-HeaderSize))
		consumeFrame(buf)
		n++
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// consumeFrame finishes a drain pass positioned at the end of a frame:
// clear when the frame was the only content, compact the trailing bytes
// otherwise. Either way the buffer is back in fill mode.
func consumeFrame(buf *Buffer) {
	if buf.Remaining() == 0 {
		buf.Clear()
	} else {
		buf.Compact()
	}
}

package wire

import "encoding/binary"

// Frame wire format:
//
//	byte 0     : format tag (unsigned, 1 byte)
//	bytes 1..4 : total frame length including these 5 header bytes
//	             (unsigned, 4 bytes, big-endian)
//	bytes 5..  : payload, owned by the codec the tag selects
//
// The endianness is fixed: both peers always write and read big-endian.

// HeaderSize is the fixed frame header length: one format byte followed by
// a four-byte total length.
const HeaderSize = 5

// Format tags registered by default. Further tags may be registered on a
// custom Registry.
const (
	// FormatJSON selects the structured self-describing text codec.
	FormatJSON byte = 1
	// FormatMsgpack selects the compact binary codec.
	FormatMsgpack byte = 2
)

// putHeader writes a frame header into dst, which must be at least
// HeaderSize bytes.
func putHeader(dst []byte, format byte, total uint32) {
	dst[0] = format
	binary.BigEndian.PutUint32(dst[1:HeaderSize], total)
}

// parseHeader reads the format tag and total frame length back out of src,
// which must be at least HeaderSize bytes. Callers check for sufficient
// bytes before invoking.
func parseHeader(src []byte) (format byte, total uint32) {
	return src[0], binary.BigEndian.Uint32(src[1:HeaderSize])
}

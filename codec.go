package wire

import "io"

// Datom is the database's unit of fact: entity, attribute, value and the
// transaction that asserted it. Both default codecs carry it as a tagged
// envelope so a decoded datom comes back as a Datom, not a generic map.
type Datom struct {
	Entity      int64  `json:"e" msgpack:"e"`
	Attribute   string `json:"a" msgpack:"a"`
	Value       any    `json:"v" msgpack:"v"`
	Transaction int64  `json:"tx" msgpack:"tx"`
}

// datomTag keys the single-entry envelope map both codecs use to mark a
// Datom on the wire: {"#datom": [e, a, v, tx]}.
const datomTag = "#datom"

// Codec serializes values for one format tag. Encode appends the payload
// directly to w (the frame buffer) so no intermediate copy is needed;
// Decode parses a complete payload slice.
//
// Implementations must be safe for concurrent use: one Codec instance is
// shared by every connection.
type Codec interface {
	Encode(w io.Writer, v any) error
	Decode(data []byte) (any, error)
}

// Registry maps format tags to codecs. Register all codecs before sharing
// a Registry across connections; lookups take no lock.
type Registry struct {
	codecs map[byte]Codec
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[byte]Codec)}
}

// Register binds a codec to a format tag, replacing any previous binding.
func (r *Registry) Register(format byte, c Codec) {
	r.codecs[format] = c
}

// Lookup returns the codec registered for format, or an
// UnsupportedFormatError when none is.
func (r *Registry) Lookup(format byte) (Codec, error) {
	c, ok := r.codecs[format]
	if !ok {
		return nil, &UnsupportedFormatError{Format: format}
	}
	return c, nil
}

// Decode dispatches payload bytes to the codec registered for format.
// Codec failures come back as a DecodeError carrying the offending bytes.
func (r *Registry) Decode(format byte, data []byte) (any, error) {
	c, err := r.Lookup(format)
	if err != nil {
		return nil, err
	}
	v, err := c.Decode(data)
	if err != nil {
		return nil, &DecodeError{Format: format, Data: data, Err: err}
	}
	return v, nil
}

var defaultRegistry = func() *Registry {
	r := NewRegistry()
	r.Register(FormatJSON, jsonCodec{})
	r.Register(FormatMsgpack, msgpackCodec{})
	return r
}()

// DefaultRegistry returns the shared registry carrying the built-in codecs:
// FormatJSON and FormatMsgpack. Callers needing additional tags should build
// their own via NewRegistry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// datomEnvelope wraps a datom in the tagged-envelope form shared by the
// built-in codecs.
func datomEnvelope(d Datom) map[string]any {
	return map[string]any{datomTag: []any{d.Entity, d.Attribute, d.Value, d.Transaction}}
}

// reviveDatom recognizes the tagged envelope in a decoded value and
// rebuilds the Datom. Any other value passes through unchanged.
func reviveDatom(v any) any {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return v
	}
	fields, ok := m[datomTag].([]any)
	if !ok || len(fields) != 4 {
		return v
	}
	e, eok := asInt64(fields[0])
	a, aok := fields[1].(string)
	tx, txok := asInt64(fields[3])
	if !eok || !aok || !txok {
		return v
	}
	return Datom{Entity: e, Attribute: a, Value: fields[2], Transaction: tx}
}

// asInt64 normalizes the integer representations the codecs produce when
// decoding into any: JSON numbers arrive as float64, msgpack integers as
// int64 or uint64.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case float64:
		return int64(n), n == float64(int64(n))
	default:
		return 0, false
	}
}

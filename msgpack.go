package wire

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// msgpackCodec is the FormatMsgpack codec: values as compact binary
// msgpack. Uses the same tagged envelope as the JSON codec for datoms, so
// either peer may switch formats without changing value semantics.
type msgpackCodec struct{}

func (msgpackCodec) Encode(w io.Writer, v any) error {
	switch d := v.(type) {
	case Datom:
		v = datomEnvelope(d)
	case *Datom:
		v = datomEnvelope(*d)
	}
	return msgpack.NewEncoder(w).Encode(v)
}

func (msgpackCodec) Decode(data []byte) (any, error) {
	var v any
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return reviveDatom(normalizeMsgpack(v)), nil
}

// normalizeMsgpack rewrites msgpack's map[interface{}]interface{} maps into
// map[string]any where the keys are strings, so decoded values carry the
// same shape regardless of format tag.
func normalizeMsgpack(v any) any {
	switch m := v.(type) {
	case map[string]any:
		for k, e := range m {
			m[k] = normalizeMsgpack(e)
		}
		return m
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, e := range m {
			s, ok := k.(string)
			if !ok {
				return v
			}
			out[s] = normalizeMsgpack(e)
		}
		return out
	case []any:
		for i, e := range m {
			m[i] = normalizeMsgpack(e)
		}
		return m
	default:
		return v
	}
}

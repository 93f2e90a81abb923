package wire

import (
	"encoding/json"
	"io"
)

// jsonCodec is the FormatJSON codec: values as self-describing JSON text.
// Datoms travel as the tagged envelope so they survive the round trip as
// Datom values.
type jsonCodec struct{}

func (jsonCodec) Encode(w io.Writer, v any) error {
	switch d := v.(type) {
	case Datom:
		v = datomEnvelope(d)
	case *Datom:
		v = datomEnvelope(*d)
	}
	return json.NewEncoder(w).Encode(v)
}

func (jsonCodec) Decode(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return reviveDatom(v), nil
}

package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestRegistry_Lookup(t *testing.T) {
	reg := DefaultRegistry()

	for _, format := range []byte{FormatJSON, FormatMsgpack} {
		if _, err := reg.Lookup(format); err != nil {
			t.Errorf("Lookup(%d) failed: %v", format, err)
		}
	}

	_, err := reg.Lookup(200)
	var ufe *UnsupportedFormatError
	if !errors.As(err, &ufe) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}
	if ufe.Format != 200 {
		t.Errorf("Format = %d, want 200", ufe.Format)
	}
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()
	reg.Register(formatRaw, rawCodec{})

	c, err := reg.Lookup(formatRaw)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if _, ok := c.(rawCodec); !ok {
		t.Errorf("Lookup returned %T, want rawCodec", c)
	}
}

func TestRegistry_DecodeUnknownTag(t *testing.T) {
	_, err := DefaultRegistry().Decode(123, []byte("x"))

	var ufe *UnsupportedFormatError
	if !errors.As(err, &ufe) {
		t.Fatalf("expected UnsupportedFormatError, got %v", err)
	}
}

func TestRegistry_DecodeWrapsCodecError(t *testing.T) {
	raw := []byte("not valid json")
	_, err := DefaultRegistry().Decode(FormatJSON, raw)

	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if !bytes.Equal(de.Data, raw) {
		t.Errorf("Data = %q, want %q", de.Data, raw)
	}
	if de.Unwrap() == nil {
		t.Error("DecodeError does not carry the underlying cause")
	}
}

func TestDatom_RoundTrip(t *testing.T) {
	want := Datom{
		Entity:      1001,
		Attribute:   ":block/hash",
		Value:       "c4f3",
		Transaction: 536870913,
	}

	for _, format := range []byte{FormatJSON, FormatMsgpack} {
		c, err := DefaultRegistry().Lookup(format)
		if err != nil {
			t.Fatalf("Lookup(%d) failed: %v", format, err)
		}

		var buf bytes.Buffer
		if err := c.Encode(&buf, want); err != nil {
			t.Fatalf("format %d: Encode failed: %v", format, err)
		}

		got, err := c.Decode(buf.Bytes())
		if err != nil {
			t.Fatalf("format %d: Decode failed: %v", format, err)
		}
		if got != want {
			t.Errorf("format %d: round trip = %#v, want %#v", format, got, want)
		}
	}
}

func TestDatom_PointerEncodesLikeValue(t *testing.T) {
	d := Datom{Entity: 5, Attribute: ":a", Value: "v", Transaction: 6}
	c := jsonCodec{}

	var byValue, byPointer bytes.Buffer
	if err := c.Encode(&byValue, d); err != nil {
		t.Fatalf("Encode value failed: %v", err)
	}
	if err := c.Encode(&byPointer, &d); err != nil {
		t.Fatalf("Encode pointer failed: %v", err)
	}

	if !bytes.Equal(byValue.Bytes(), byPointer.Bytes()) {
		t.Error("pointer and value datoms encode differently")
	}
}

func TestReviveDatom_PassesOrdinaryMapsThrough(t *testing.T) {
	// A map that is not the envelope shape must come back as a map.
	values := []any{
		map[string]any{"#datom": "not a field list"},
		map[string]any{"#datom": []any{int64(1), "a", "v", int64(2)}, "extra": true},
		map[string]any{"other": []any{int64(1), "a", "v", int64(2)}},
	}
	for _, v := range values {
		if _, ok := reviveDatom(v).(Datom); ok {
			t.Errorf("reviveDatom(%#v) produced a Datom", v)
		}
	}
}

func TestAsInt64(t *testing.T) {
	tests := []struct {
		in   any
		want int64
		ok   bool
	}{
		{int64(7), 7, true},
		{uint64(7), 7, true},
		{int(7), 7, true},
		{int8(7), 7, true},
		{float64(7), 7, true},
		{float64(7.5), 0, false},
		{"7", 0, false},
	}

	for _, tt := range tests {
		got, ok := asInt64(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("asInt64(%#v) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

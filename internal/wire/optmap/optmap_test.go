package optmap

import (
	"errors"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	om := OptionMap{Fields: []Field{
		{ID: 1, Type: TypeString, Value: []byte("hello")},
		{ID: 2, Type: TypeU32, Value: []byte{0, 0, 0, 42}},
	}}
	encoded := Encode(om)
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	s, err := decoded.String(1)
	if err != nil || s != "hello" {
		t.Fatalf("expected hello, got %q err=%v", s, err)
	}
	u, err := decoded.Uint32(2)
	if err != nil || u != 42 {
		t.Fatalf("expected 42, got %d err=%v", u, err)
	}
}

func TestDecodeEmptyPayloadYieldsEmptyMap(t *testing.T) {
	om, err := Decode(nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(om.Fields) != 0 {
		t.Fatalf("expected no fields, got %d", len(om.Fields))
	}
}

func TestDecodeShortHeaderErrors(t *testing.T) {
	_, err := Decode([]byte{0x00, 0x01})
	if !errors.Is(err, ErrShortFieldHeader) {
		t.Fatalf("expected ErrShortFieldHeader, got %v", err)
	}
}

func TestDecodeShortValueErrors(t *testing.T) {
	// Header claims a 10-byte value but none follows.
	hdr := []byte{0x00, 0x01, TypeString, 0x00, 0x00, 0x00, 0x0A}
	_, err := Decode(hdr)
	if !errors.Is(err, ErrShortFieldValue) {
		t.Fatalf("expected ErrShortFieldValue, got %v", err)
	}
}

func TestMissingFieldReturnsZeroValueNoError(t *testing.T) {
	om := OptionMap{}
	s, err := om.String(99)
	if err != nil || s != "" {
		t.Fatalf("expected empty string, no error; got %q err=%v", s, err)
	}
}

func TestTypeMismatchErrors(t *testing.T) {
	om := OptionMap{Fields: []Field{{ID: 1, Type: TypeU32, Value: []byte{0, 0, 0, 1}}}}
	_, err := om.String(1)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

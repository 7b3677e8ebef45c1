// Package optmap is the concrete marshalling for SERVICE_REQUEST's
// OptionMap: a flat, typed, identified field list, adapted from the
// teacher's TLV field codec. It is the one place this repository commits
// to a concrete shape for the spec's otherwise-abstract marshalling
// collaborator, because the wire format constrains it — SERVICE_REQUEST's
// payload must decode deterministically before openService is called.
package optmap

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderLen is the width of one field's fixed header: 2-byte id, 1-byte
// type, 4-byte length.
const HeaderLen = 7

var (
	ErrShortFieldHeader = errors.New("optmap: short field header")
	ErrShortFieldValue  = errors.New("optmap: short field value")
	ErrTypeMismatch     = errors.New("optmap: field type mismatch")
)

// Field value types.
const (
	TypeU8     uint8 = 1
	TypeU32    uint8 = 2
	TypeU64    uint8 = 3
	TypeBool   uint8 = 4
	TypeString uint8 = 5
	TypeBytes  uint8 = 6
)

// Field is one decoded option.
type Field struct {
	ID    uint16
	Type  uint8
	Value []byte
}

// OptionMap is the decoded service-open option set carried by
// SERVICE_REQUEST, exposed as an ordered field list plus typed lookups.
type OptionMap struct {
	Fields []Field
}

// Decode parses payload into an OptionMap. It is the marshalling
// collaborator's decode half for SERVICE_REQUEST (spec §4.1.1): on any
// malformed field it returns an error, and the caller must respond with
// SERVICE_ERROR and free its reply buffer rather than propagate the error
// further.
func Decode(payload []byte) (OptionMap, error) {
	var om OptionMap
	i := 0
	for i < len(payload) {
		if len(payload)-i < HeaderLen {
			return OptionMap{}, ErrShortFieldHeader
		}
		id := binary.BigEndian.Uint16(payload[i : i+2])
		typ := payload[i+2]
		length := binary.BigEndian.Uint32(payload[i+3 : i+7])
		i += HeaderLen
		if uint32(len(payload)-i) < length {
			return OptionMap{}, ErrShortFieldValue
		}
		val := make([]byte, length)
		copy(val, payload[i:i+int(length)])
		i += int(length)
		om.Fields = append(om.Fields, Field{ID: id, Type: typ, Value: val})
	}
	return om, nil
}

// Encode serializes an OptionMap back into the TLV field stream.
func Encode(om OptionMap) []byte {
	out := make([]byte, 0, len(om.Fields)*HeaderLen)
	for _, f := range om.Fields {
		var hdr [HeaderLen]byte
		binary.BigEndian.PutUint16(hdr[0:2], f.ID)
		hdr[2] = f.Type
		binary.BigEndian.PutUint32(hdr[3:7], uint32(len(f.Value)))
		out = append(out, hdr[:]...)
		out = append(out, f.Value...)
	}
	return out
}

// Get returns the field with the given id, if present.
func (om OptionMap) Get(id uint16) (Field, bool) {
	for _, f := range om.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// String returns the decoded string option with the given id.
func (om OptionMap) String(id uint16) (string, error) {
	f, ok := om.Get(id)
	if !ok {
		return "", nil
	}
	if f.Type != TypeString {
		return "", fmt.Errorf("%w: field %d", ErrTypeMismatch, id)
	}
	return string(f.Value), nil
}

// Uint32 returns the decoded u32 option with the given id.
func (om OptionMap) Uint32(id uint16) (uint32, error) {
	f, ok := om.Get(id)
	if !ok {
		return 0, nil
	}
	if f.Type != TypeU32 || len(f.Value) != 4 {
		return 0, fmt.Errorf("%w: field %d", ErrTypeMismatch, id)
	}
	return binary.BigEndian.Uint32(f.Value), nil
}

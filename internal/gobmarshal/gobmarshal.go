// Package gobmarshal is the default concrete Marshaller (spec §6.2):
// objects are gob-encoded, with encode buffers drawn from sync.Pool to
// avoid reallocating on every call; decoding reads straight from the byte
// source without a pooled buffer. The pooling idiom is
// grounded on the gorpc codec's bufPool/readerPool pair, adapted from a
// net/rpc ClientCodec/ServerCodec to the collab.Marshaller shape this
// engine expects.
package gobmarshal

import (
	"bytes"
	"encoding/gob"
	"reflect"
	"sync"

	"github.com/relaygrid/wiremux/internal/collab"
)

var bufPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// Marshaller is the gob-backed default implementation of collab.Marshaller.
// Each Decode call decodes into a fresh zero value of sample's type; register
// concrete types with gob.Register beforehand if they're sent as
// interfaces.
type Marshaller struct {
	sample any
}

// New constructs a Marshaller that decodes into a fresh zero value shaped
// like sample (e.g. New(MyReplyType{})).
func New(sample any) *Marshaller {
	return &Marshaller{sample: sample}
}

// Encode gob-encodes v using a pooled buffer.
func (m *Marshaller) Encode(v any) ([]byte, error) {
	buf := bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer bufPool.Put(buf)
	if err := gob.NewEncoder(buf).Encode(v); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// NewDecoder returns a Decoder that reads gob-encoded objects lazily from
// src as bytes become available.
func (m *Marshaller) NewDecoder(src collab.Reader) collab.Decoder {
	return &decoder{dec: gob.NewDecoder(src), sample: m.sample}
}

type decoder struct {
	dec    *gob.Decoder
	sample any
}

// Decode blocks on src until a complete object has arrived, or until src
// reaches EOF or an error (propagated by the byte source's terminators).
func (d *decoder) Decode() (any, error) {
	out := reflect.New(reflect.TypeOf(d.sample))
	if err := d.dec.DecodeValue(out.Elem()); err != nil {
		return nil, err
	}
	return out.Elem().Interface(), nil
}

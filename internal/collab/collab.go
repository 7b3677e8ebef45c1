// Package collab declares the external collaborator interfaces the engine
// depends on but does not implement (spec §6.2): transport, buffer pool,
// marshaller, service registry, and executor. Concrete defaults for each
// live in sibling packages (gobmarshal, transport) so the module is
// runnable; the engine itself only ever imports this package.
package collab

import "context"

// Transport delivers decoded frames to the engine and accepts composed
// reply frames for blocking send. It owns framing, buffer pooling, and
// connection teardown — all out of scope for the engine itself.
type Transport interface {
	// SendBlocking sends buf, optionally flushing immediately. It returns
	// once the bytes have been handed to the OS (or to a write buffer
	// guaranteed to flush within a bounded time).
	SendBlocking(buf []byte, flush bool) error
	Close() error
}

// BufferPool allocates and recycles the byte slices used for composed
// reply frames and for chunks read off the transport.
type BufferPool interface {
	Allocate() []byte
	Free(buf []byte)
}

// Decoder is produced by Marshaller for one in-flight payload; it reads
// from the supplied byte source lazily as bytes arrive.
type Decoder interface {
	// Decode blocks until enough bytes are available to produce one
	// object, or until the source reaches EOF or an error.
	Decode() (any, error)
}

// Marshaller is the object marshalling subsystem (spec §6.2): a black box
// that produces decoders reading from a byte input, and encodes objects
// back into bytes for locally-originated sends.
type Marshaller interface {
	NewDecoder(src Reader) Decoder
	Encode(v any) ([]byte, error)
}

// Reader is the minimal byte-source contract a Decoder consumes; satisfied
// by *bytesource.Source without collab depending on that package.
type Reader interface {
	Read(p []byte) (int, error)
}

// ServiceHandler is returned by ServiceRegistry.Open on a successful
// service-open and installed as the local handler for the resulting
// InboundClient.
type ServiceHandler interface {
	Close()
}

// ServiceRegistry resolves a service-open negotiation to a local handler
// (spec §4.1.1). opts is the decoded OptionMap's raw TLV field bytes,
// passed through unopinionated — what a given service type does with its
// options is outside the engine's concern.
type ServiceRegistry interface {
	Open(serviceType, groupName string, opts []byte) (ServiceHandler, error)
}

// Task is submitted to an Executor; it may block on byte-input reads.
type Task interface {
	Run(ctx context.Context)
}

// Executor runs submitted tasks, typically on a worker pool separate from
// the dispatcher's thread (spec §5).
type Executor interface {
	Execute(ctx context.Context, task Task)
}

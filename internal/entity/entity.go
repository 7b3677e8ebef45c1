// Package entity implements the six per-id entity kinds and their state
// machines from spec §3 and §4.3. Each entity carries its own mutex,
// acquired only after the owning registry's lock has been released (spec
// §5's registry-lock ≺ entity-lock discipline) and held only while its
// fields are read or mutated. Executor submission happens in the engine
// after the entity's lock is released, gated by the "first" result of
// Registry.PutIfAbsent or OutboundRequest.InstallInput so that only one
// task is submitted per id.
package entity

import (
	"sync"

	"github.com/relaygrid/wiremux/internal/bytesource"
)

// ClientState is the OutboundClient state machine's state (spec §4.3).
type ClientState int

const (
	Waiting ClientState = iota
	Established
	Closed
)

// RequestHandler receives inbound request deliveries once a service-open
// succeeds; installed on an OutboundClient when it transitions to
// Established.
type RequestHandler interface {
	HandleRequest(rid uint32, body []byte)
}

// ResultSink receives the outcome of a service-open negotiation.
type ResultSink interface {
	Opened(handler RequestHandler)
	NotFound()
	Error(err error)
}

// OutboundClient is the local side of a service-open negotiation (spec
// §3's OutboundClient row).
type OutboundClient struct {
	mu          sync.Mutex
	ID          uint32
	ServiceType string
	GroupName   string
	state       ClientState
	result      ResultSink
	handler     RequestHandler
}

// NewOutboundClient constructs an OutboundClient in the initial Waiting
// state.
func NewOutboundClient(id uint32, serviceType, groupName string, result ResultSink) *OutboundClient {
	return &OutboundClient{ID: id, ServiceType: serviceType, GroupName: groupName, state: Waiting, result: result}
}

// State returns the client's current state.
func (c *OutboundClient) State() ClientState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Fail transitions Waiting -> Closed on SERVICE_NOT_FOUND/SERVICE_ERROR,
// publishing the failure to the result sink. It is a no-op if the client
// is already Closed (terminal states never mutate further, spec §3).
func (c *OutboundClient) Fail(notFound bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return
	}
	c.state = Closed
	if c.result == nil {
		return
	}
	if notFound {
		c.result.NotFound()
	} else {
		c.result.Error(err)
	}
}

// Open transitions Waiting -> Established on SERVICE_CLIENT_OPENED,
// installing the request handler and publishing the result.
func (c *OutboundClient) Open(handler RequestHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Waiting {
		return
	}
	c.state = Established
	c.handler = handler
	if c.result != nil {
		c.result.Opened(handler)
	}
}

// CloseLocal transitions Established -> Closed as a local action; the
// caller is responsible for emitting CLIENT_ASYNC_CLOSE to the peer once
// this returns true.
func (c *OutboundClient) CloseLocal() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return false
	}
	c.state = Closed
	return true
}

// InboundClient is the peer-visible handle created once a local
// openService call succeeds (spec §3's InboundClient row).
type InboundClient struct {
	mu      sync.Mutex
	ID      uint32
	handler LocalHandler
	closed  bool
}

// LocalHandler is the local service implementation bound to an
// InboundClient; it receives inbound REQUEST deliveries and is closed on
// CHANNEL_CLOSE.
type LocalHandler interface {
	Close()
}

// NewInboundClient constructs an InboundClient bound to a local handler.
func NewInboundClient(id uint32, handler LocalHandler) *InboundClient {
	return &InboundClient{ID: id, handler: handler}
}

// Close closes the bound local handler. It is idempotent.
func (c *InboundClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.handler != nil {
		c.handler.Close()
	}
}

// Handler returns the bound local handler.
func (c *InboundClient) Handler() LocalHandler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler
}

// ReplyHandler is the per-OutboundRequest collaborator that receives a
// decoded reply object or a decoded exception (spec §6.2).
type ReplyHandler interface {
	Reply(body []byte)
	Exception(err error)
	Done()
}

// OutboundRequest is a local request in flight, awaiting a reply (spec
// §3's OutboundRequest row).
type OutboundRequest struct {
	mu      sync.Mutex
	ID      uint32
	Input   *bytesource.Source // set on the first REPLY/REPLY_EXCEPTION frame
	Handler ReplyHandler
	ack     uint64
}

// NewOutboundRequest constructs an OutboundRequest with no byte input yet
// installed; it is installed lazily on the first reply frame (spec
// §4.1.3).
func NewOutboundRequest(id uint32, handler ReplyHandler) *OutboundRequest {
	return &OutboundRequest{ID: id, Handler: handler}
}

// InstallInput installs the byte input for the first reply frame. REPLY
// dispatch calls it for every frame with FlagFirst set; if an input is
// already installed, it leaves it in place and returns it with false.
func (r *OutboundRequest) InstallInput(src *bytesource.Source) (*bytesource.Source, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Input != nil {
		return r.Input, false
	}
	r.Input = src
	return src, true
}

// GetInput returns the currently installed byte input, if any.
func (r *OutboundRequest) GetInput() *bytesource.Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Input
}

// Ack increments and returns the chunk-ack counter.
func (r *OutboundRequest) Ack() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ack++
	return r.ack
}

// AbortException delivers a peer-signalled REPLY_EXCEPTION_ABORT: if a
// byte input exists it is terminated with err; if a reply handler exists
// it is notified. Neither is required to exist — spec §8 pins this as a
// legal no-op when REPLY_EXCEPTION_ABORT arrives before the first
// REPLY_EXCEPTION frame.
func (r *OutboundRequest) AbortException(err error) {
	r.mu.Lock()
	input := r.Input
	handler := r.Handler
	r.mu.Unlock()
	if input != nil {
		input.PushErr(err)
	}
	if handler != nil {
		handler.Exception(err)
	}
}

// InboundRequest is a peer request in flight, being delivered to a local
// client handler (spec §3's InboundRequest row).
type InboundRequest struct {
	mu      sync.Mutex
	ID      uint32
	CID     uint32
	Input   *bytesource.Source
	Reply   ReplyHandler
	ack     uint64
}

// NewInboundRequest constructs an InboundRequest for the first REQUEST
// frame, pre-installing its byte input (spec §4.1.2: the input exists
// from the FIRST frame onward, unlike OutboundRequest's lazily-installed
// one).
func NewInboundRequest(id, cid uint32, input *bytesource.Source) *InboundRequest {
	return &InboundRequest{ID: id, CID: cid, Input: input}
}

// GetInput returns the request's byte input.
func (r *InboundRequest) GetInput() *bytesource.Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Input
}

// Ack increments and returns the chunk-ack counter.
func (r *InboundRequest) Ack() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ack++
	return r.ack
}

// Abort delivers a peer-signalled REQUEST_ABORT: terminates the byte
// input with an aborted-IO error and marks any installed reply handler
// done.
func (r *InboundRequest) Abort(err error) {
	r.mu.Lock()
	input := r.Input
	reply := r.Reply
	r.mu.Unlock()
	if input != nil {
		input.PushErr(err)
	}
	if reply != nil {
		reply.Done()
	}
}

// StreamSink is the push target for an InboundStream: chunks, EOF, and
// exception terminators arrive here in frame order.
type StreamSink interface {
	Push(chunk []byte)
	PushEOF()
	PushException(err error)
}

// InboundStream is the peer-visible receiver for an out-of-band stream
// (spec §3's InboundStream row). It is stateless aside from its sink.
type InboundStream struct {
	ID       uint32
	Receiver StreamSink
}

// NewInboundStream constructs an InboundStream bound to a receiver.
func NewInboundStream(id uint32, receiver StreamSink) *InboundStream {
	return &InboundStream{ID: id, Receiver: receiver}
}

// OutboundStream is the local side of an out-of-band stream (spec §3's
// OutboundStream row): stateless aside from its ack counter and
// async-event flags.
type OutboundStream struct {
	mu             sync.Mutex
	ID             uint32
	ack            uint64
	asyncStart     bool
	asyncClose     bool
	asyncException bool
}

// NewOutboundStream constructs an OutboundStream.
func NewOutboundStream(id uint32) *OutboundStream {
	return &OutboundStream{ID: id}
}

// Ack increments and returns the ack counter (STREAM_ACK).
func (s *OutboundStream) Ack() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ack++
	return s.ack
}

// MarkAsyncStart marks the async-start flag (STREAM_ASYNC_START).
func (s *OutboundStream) MarkAsyncStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asyncStart = true
}

// MarkAsyncClose marks the async-close flag (STREAM_ASYNC_CLOSE).
func (s *OutboundStream) MarkAsyncClose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asyncClose = true
}

// MarkAsyncException marks the async-exception flag
// (STREAM_ASYNC_EXCEPTION).
func (s *OutboundStream) MarkAsyncException() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asyncException = true
}

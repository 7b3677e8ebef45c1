// Package engine implements the frame dispatcher and reply originator
// from spec §4.1 and §2's item 5: the top-level routine that peels a
// command byte off a decoded frame, parses its fixed header, looks up the
// target entity, and performs the state transition under that entity's
// lock. One Engine instance exists per live connection.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/relaygrid/wiremux/internal/collab"
	"github.com/relaygrid/wiremux/internal/entity"
	"github.com/relaygrid/wiremux/internal/registry"
	"github.com/relaygrid/wiremux/internal/wire"
)

// ErrUnknownCommand is returned by Dispatch when the command byte matches
// none of the defined cases. Per spec §4.1 this is fatal for the
// connection; the caller must close it.
var ErrUnknownCommand = errors.New("engine: unknown command byte")

// ErrConnectionClosed is pushed into every in-flight byte input during
// teardown (spec §5's "Connection teardown cancels all in-flight entities
// ... terminating each byte input with a connection-closed exception").
var ErrConnectionClosed = errors.New("engine: connection closed")

// ErrRequestAborted is pushed into an InboundRequest's byte input on
// REQUEST_ABORT.
var ErrRequestAborted = errors.New("engine: request aborted by peer")

// ErrReplyExceptionAborted is pushed into an OutboundRequest's byte input
// on REPLY_EXCEPTION_ABORT.
var ErrReplyExceptionAborted = errors.New("engine: reply exception aborted by peer")

// ErrStreamException is pushed into an InboundStream's receiver on
// STREAM_EXCEPTION.
var ErrStreamException = errors.New("engine: stream exception from peer")

// Metrics is the optional observability hook the dispatcher calls as it
// processes frames. New installs NopMetrics, whose methods do nothing; the
// dispatcher calls Metrics unconditionally, so the field must not be nil.
type Metrics interface {
	FrameDispatched(cmd wire.Command)
	UnknownID(cmd wire.Command)
	AckChunkSent(cmd wire.Command)
}

// NopMetrics is a Metrics implementation that does nothing; it is the
// default when an Engine is constructed without one.
type NopMetrics struct{}

func (NopMetrics) FrameDispatched(wire.Command) {}
func (NopMetrics) UnknownID(wire.Command)       {}
func (NopMetrics) AckChunkSent(wire.Command)    {}

// Engine holds the six id registries and the collaborators for one live
// connection, and exposes Dispatch as the single entry point a transport's
// read loop calls once per decoded frame.
type Engine struct {
	Transport       collab.Transport
	Pool            collab.BufferPool
	Marshaller      collab.Marshaller
	ServiceRegistry collab.ServiceRegistry
	Executor        collab.Executor
	Log             zerolog.Logger
	Metrics         Metrics

	outboundClients *registry.Registry[*entity.OutboundClient]
	inboundClients  *registry.Registry[*entity.InboundClient]
	outboundReqs    *registry.Registry[*entity.OutboundRequest]
	inboundReqs     *registry.Registry[*entity.InboundRequest]
	inboundStreams  *registry.Registry[*entity.InboundStream]
	outboundStreams *registry.Registry[*entity.OutboundStream]
}

// New constructs an Engine with empty registries. The caller must set
// Transport, Pool, Marshaller, ServiceRegistry, and Executor before
// dispatching frames; Log and Metrics default to the zero logger and
// NopMetrics respectively.
func New() *Engine {
	return &Engine{
		Metrics:         NopMetrics{},
		outboundClients: registry.New[*entity.OutboundClient](),
		inboundClients:  registry.New[*entity.InboundClient](),
		outboundReqs:    registry.New[*entity.OutboundRequest](),
		inboundReqs:     registry.New[*entity.InboundRequest](),
		inboundStreams:  registry.New[*entity.InboundStream](),
		outboundStreams: registry.New[*entity.OutboundStream](),
	}
}

// Dispatch processes exactly one decoded frame, positioned at its command
// byte, and returns. It never panics and never returns an error for
// protocol-level conditions (unknown ids, malformed SERVICE_REQUEST
// payloads) — those are handled internally per spec §7. The one error it
// does return, ErrUnknownCommand, tells the caller the connection must be
// closed.
func (e *Engine) Dispatch(ctx context.Context, frame []byte) error {
	cmdByte, rest, err := wire.ReadByte(frame)
	if err != nil {
		return fmt.Errorf("%w: empty frame", ErrUnknownCommand)
	}
	cmd := wire.Command(cmdByte)
	e.Metrics.FrameDispatched(cmd)

	switch cmd {
	case wire.ServiceRequest:
		e.handleServiceRequest(rest)
	case wire.ServiceNotFound:
		e.handleServiceTerminal(rest, true, nil)
	case wire.ServiceError:
		e.handleServiceTerminal(rest, false, errors.New("engine: remote service-open error"))
	case wire.ServiceClientOpened:
		e.handleServiceClientOpened(rest)
	case wire.ChannelClose:
		e.handleChannelClose(rest)
	case wire.ClientAsyncClose:
		e.handleClientAsyncClose(rest)
	case wire.Request:
		e.handleRequest(ctx, rest)
	case wire.RequestAbort:
		e.handleRequestAbort(rest)
	case wire.RequestAckChunk:
		e.handleRequestAckChunk(rest)
	case wire.Reply:
		e.handleReply(ctx, rest, false)
	case wire.ReplyAckChunk:
		e.handleReplyAckChunk(rest)
	case wire.ReplyException:
		e.handleReply(ctx, rest, true)
	case wire.ReplyExceptionAbort:
		e.handleReplyExceptionAbort(rest)
	case wire.Alive:
		e.handleAlive()
	case wire.StreamData:
		e.handleStreamData(rest)
	case wire.StreamClose:
		e.handleStreamClose(rest)
	case wire.StreamException:
		e.handleStreamException(rest)
	case wire.StreamAck:
		e.handleStreamAck(rest)
	case wire.StreamAsyncStart:
		e.handleStreamAsyncStart(rest)
	case wire.StreamAsyncClose:
		e.handleStreamAsyncClose(rest)
	case wire.StreamAsyncException:
		e.handleStreamAsyncException(rest)
	default:
		e.Log.Error().Uint8("cmd", byte(cmd)).Msg("unknown command byte, closing connection")
		return fmt.Errorf("%w: 0x%02x", ErrUnknownCommand, byte(cmd))
	}
	return nil
}

func (e *Engine) traceUnknownID(cmd wire.Command, id uint32) {
	e.Metrics.UnknownID(cmd)
	e.Log.Trace().Stringer("cmd", cmd).Uint32("id", id).Msg("unknown id, dropping frame")
}

func (e *Engine) warnUnknownID(cmd wire.Command, id uint32) {
	e.Metrics.UnknownID(cmd)
	e.Log.Warn().Stringer("cmd", cmd).Uint32("id", id).Msg("unknown id, dropping frame")
}

// handleAlive implements the ALIVE keepalive (spec §4.1): resetting a
// liveness timer is optional per §9's open question, and this engine does
// not track one — idle-disconnect policy belongs to the transport layer,
// which is free to reset its own timer from Dispatch's return.
func (e *Engine) handleAlive() {
	e.Log.Trace().Msg("alive received")
}

// Teardown cancels every in-flight entity across all six registries (spec
// §5): each entity's byte input is terminated with ErrConnectionClosed and
// local handlers are closed. It is called once by the transport when the
// underlying connection is torn down.
func (e *Engine) Teardown() {
	for _, c := range e.outboundClients.Drain() {
		c.Fail(false, ErrConnectionClosed)
	}
	for _, c := range e.inboundClients.Drain() {
		c.Close()
	}
	for _, r := range e.outboundReqs.Drain() {
		if in := r.GetInput(); in != nil {
			in.PushErr(ErrConnectionClosed)
		}
		if r.Handler != nil {
			r.Handler.Done()
		}
	}
	for _, r := range e.inboundReqs.Drain() {
		if in := r.GetInput(); in != nil {
			in.PushErr(ErrConnectionClosed)
		}
	}
	for _, s := range e.inboundStreams.Drain() {
		if s.Receiver != nil {
			s.Receiver.PushException(ErrConnectionClosed)
		}
	}
	e.outboundStreams.Drain()
}

// OpenOutboundClient registers a new OutboundClient for a locally
// originated service-open request and sends the SERVICE_REQUEST frame.
// This is the one piece of the "higher-level API presented to request
// originators" (out of scope per spec §1) the engine exposes directly,
// because composing the initial frame and registering the client must
// happen atomically with respect to the dispatcher observing the matching
// reply.
func (e *Engine) OpenOutboundClient(id uint32, serviceType, groupName string, opts []byte, result entity.ResultSink) error {
	client := entity.NewOutboundClient(id, serviceType, groupName, result)
	e.outboundClients.Put(id, client)

	buf := e.Pool.Allocate()
	defer e.Pool.Free(buf)
	buf = append(buf, 0, 0, 0, 0)
	buf = append(buf, byte(wire.ServiceRequest))
	buf = wire.PutUint32(buf, id)
	buf = wire.PutUTF8Z(buf, serviceType)
	buf = wire.PutUTF8Z(buf, groupName)
	buf = append(buf, opts...)
	if err := e.Transport.SendBlocking(buf, true); err != nil {
		e.outboundClients.Remove(id)
		return err
	}
	return nil
}

// RegisterInboundStream installs a peer-side stream receiver under sid.
// Stream setup is out-of-band (spec §3: "out-of-band setup (peer side)")
// — the wire format carries no STREAM_OPEN frame, so the caller must have
// already agreed on sid with the peer through the request/reply payload
// that established it.
func (e *Engine) RegisterInboundStream(sid uint32, receiver entity.StreamSink) {
	e.inboundStreams.Put(sid, entity.NewInboundStream(sid, receiver))
}

// RegisterOutboundStream installs a local stream under sid, ahead of
// locally originating STREAM_DATA frames against it.
func (e *Engine) RegisterOutboundStream(sid uint32) *entity.OutboundStream {
	s := entity.NewOutboundStream(sid)
	e.outboundStreams.Put(sid, s)
	return s
}

// RegistryStats reports the live entity count per registry, keyed by the
// same names used for the registry_size gauge's "registry" label. Used by
// the admin surface's /debug/registries endpoint.
func (e *Engine) RegistryStats() map[string]int {
	return map[string]int{
		"outbound_clients": e.outboundClients.Len(),
		"inbound_clients":  e.inboundClients.Len(),
		"outbound_requests": e.outboundReqs.Len(),
		"inbound_requests":  e.inboundReqs.Len(),
		"inbound_streams":   e.inboundStreams.Len(),
		"outbound_streams":  e.outboundStreams.Len(),
	}
}

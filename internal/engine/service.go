package engine

import (
	"github.com/relaygrid/wiremux/internal/entity"
	"github.com/relaygrid/wiremux/internal/wire"
	"github.com/relaygrid/wiremux/internal/wire/optmap"
)

// handleServiceRequest implements spec §4.1.1. Every reply frame is
// composed into one pooled buffer and freed on every exit path, mirroring
// the original handler's allocate-before-try / free-in-finally
// discipline (SPEC_FULL.md §12).
func (e *Engine) handleServiceRequest(payload []byte) {
	buf := e.Pool.Allocate()
	defer e.Pool.Free(buf)

	hdr, rest, err := wire.ParseServiceRequestHeader(payload)
	if err != nil {
		e.Log.Warn().Err(err).Msg("malformed SERVICE_REQUEST header, dropping")
		return
	}

	opts, err := optmap.Decode(rest)
	if err != nil {
		e.Log.Debug().Err(err).Uint32("id", hdr.ID).Msg("failed to unmarshal service-open options")
		buf = wire.ComposeSimpleReply(buf, wire.ServiceError, hdr.ID)
		e.sendReply(buf)
		return
	}

	handler, err := e.ServiceRegistry.Open(hdr.ServiceType, hdr.GroupName, optmap.Encode(opts))
	if err != nil || handler == nil {
		if err != nil {
			e.Log.Debug().Err(err).Str("type", hdr.ServiceType).Str("group", hdr.GroupName).Msg("service-open failed")
		}
		buf = wire.ComposeSimpleReply(buf, wire.ServiceNotFound, hdr.ID)
		e.sendReply(buf)
		return
	}

	client := entity.NewInboundClient(hdr.ID, handler)
	e.inboundClients.Put(hdr.ID, client)
	buf = wire.ComposeSimpleReply(buf, wire.ServiceClientOpened, hdr.ID)
	e.sendReply(buf)
}

// sendReply sends a composed reply frame, logging and discarding any send
// failure — the transport owns reconnection/teardown (spec §7).
func (e *Engine) sendReply(buf []byte) {
	if err := e.Transport.SendBlocking(buf, true); err != nil {
		e.Log.Debug().Err(err).Msg("failed to send reply frame")
	}
}

// handleServiceTerminal implements SERVICE_NOT_FOUND and SERVICE_ERROR:
// remove the OutboundClient and, if present, fail its result.
func (e *Engine) handleServiceTerminal(payload []byte, notFound bool, failErr error) {
	cmd := wire.ServiceError
	if notFound {
		cmd = wire.ServiceNotFound
	}
	id, _, err := wire.ReadUint32(payload)
	if err != nil {
		e.Log.Warn().Err(err).Stringer("cmd", cmd).Msg("malformed payload")
		return
	}
	client, ok := e.outboundClients.Remove(id)
	if !ok {
		e.traceUnknownID(cmd, id)
		return
	}
	client.Fail(notFound, failErr)
}

// handleServiceClientOpened implements SERVICE_CLIENT_OPENED: look up (no
// remove) the OutboundClient, transition it to Established, and install a
// fresh outbound request handler.
func (e *Engine) handleServiceClientOpened(payload []byte) {
	id, _, err := wire.ReadUint32(payload)
	if err != nil {
		e.Log.Warn().Err(err).Msg("malformed SERVICE_CLIENT_OPENED payload")
		return
	}
	client, ok := e.outboundClients.Get(id)
	if !ok {
		e.traceUnknownID(wire.ServiceClientOpened, id)
		return
	}
	client.Open(&outboundRequestHandler{engine: e, clientID: id})
}

// handleChannelClose implements CHANNEL_CLOSE: remove the InboundClient
// and close its local handler.
func (e *Engine) handleChannelClose(payload []byte) {
	id, _, err := wire.ReadUint32(payload)
	if err != nil {
		e.Log.Warn().Err(err).Msg("malformed CHANNEL_CLOSE payload")
		return
	}
	client, ok := e.inboundClients.Remove(id)
	if !ok {
		e.traceUnknownID(wire.ChannelClose, id)
		return
	}
	client.Close()
}

// handleClientAsyncClose implements CLIENT_ASYNC_CLOSE: remove the
// OutboundClient and move it to Closed. The installed RequestHandler has
// no close method and is left as it is.
func (e *Engine) handleClientAsyncClose(payload []byte) {
	id, _, err := wire.ReadUint32(payload)
	if err != nil {
		e.Log.Warn().Err(err).Msg("malformed CLIENT_ASYNC_CLOSE payload")
		return
	}
	client, ok := e.outboundClients.Remove(id)
	if !ok {
		e.traceUnknownID(wire.ClientAsyncClose, id)
		return
	}
	client.CloseLocal()
}

// outboundRequestHandler is the default entity.RequestHandler installed
// on an OutboundClient when it transitions to Established; it is a thin
// adapter that lets the engine originate REQUEST frames against this
// client without exposing registry internals to callers.
type outboundRequestHandler struct {
	engine   *Engine
	clientID uint32
}

func (h *outboundRequestHandler) HandleRequest(rid uint32, body []byte) {
	h.engine.Log.Trace().Uint32("rid", rid).Uint32("cid", h.clientID).Msg("outbound request handler invoked")
}

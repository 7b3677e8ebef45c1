package engine

import (
	"context"

	"github.com/relaygrid/wiremux/internal/bytesource"
	"github.com/relaygrid/wiremux/internal/entity"
	"github.com/relaygrid/wiremux/internal/wire"
)

// handleRequest implements spec §4.1.2. The registry lock is held only for
// the construct-or-lookup step; byte-input pushes happen after it (and
// after the entity lock, where applicable) have been released.
func (e *Engine) handleRequest(ctx context.Context, payload []byte) {
	hdr, body, err := wire.ParseRequestHeader(payload)
	if err != nil {
		e.Log.Warn().Err(err).Msg("malformed REQUEST header")
		return
	}

	if hdr.First {
		input := bytesource.New(e.Pool.Free, func() { e.emitAckChunk(wire.RequestAckChunk, hdr.RID) })
		req := entity.NewInboundRequest(hdr.RID, hdr.CID, input)
		installed, first := e.inboundReqs.PutIfAbsent(hdr.RID, req)
		if !first {
			// Duplicate MSG_FLAG_FIRST for an rid already in flight: spec §8
			// pins "drop and log" — treat as an unknown-subsequent frame.
			e.Log.Warn().Uint32("rid", hdr.RID).Msg("duplicate REQUEST FIRST frame, dropping")
			return
		}
		e.Executor.Execute(ctx, &inboundRequestTask{engine: e, rid: hdr.RID, cid: hdr.CID})
		installed.GetInput().Push(body)
		return
	}

	req, ok := e.inboundReqs.Get(hdr.RID)
	if !ok {
		e.traceUnknownID(wire.Request, hdr.RID)
		return
	}
	if in := req.GetInput(); in != nil {
		in.Push(body)
	}
}

// handleRequestAbort implements REQUEST_ABORT: remove the InboundRequest
// and push an aborted-IO exception into its byte input.
func (e *Engine) handleRequestAbort(payload []byte) {
	rid, _, err := wire.ReadUint32(payload)
	if err != nil {
		e.Log.Warn().Err(err).Msg("malformed REQUEST_ABORT payload")
		return
	}
	req, ok := e.inboundReqs.Remove(rid)
	if !ok {
		e.traceUnknownID(wire.RequestAbort, rid)
		return
	}
	req.Abort(ErrRequestAborted)
}

// handleRequestAckChunk implements REQUEST_ACK_CHUNK: look up the
// OutboundRequest and increment its ack counter.
func (e *Engine) handleRequestAckChunk(payload []byte) {
	rid, _, err := wire.ReadUint32(payload)
	if err != nil {
		e.Log.Warn().Err(err).Msg("malformed REQUEST_ACK_CHUNK payload")
		return
	}
	req, ok := e.outboundReqs.Get(rid)
	if !ok {
		e.traceUnknownID(wire.RequestAckChunk, rid)
		return
	}
	req.Ack()
}

// emitAckChunk composes and sends REQUEST_ACK_CHUNK / REPLY_ACK_CHUNK,
// the flow-control feedback a byte source's ack-emitting wrapper sends as
// each chunk is fully drained (spec §4.2).
func (e *Engine) emitAckChunk(cmd wire.Command, rid uint32) {
	buf := e.Pool.Allocate()
	defer e.Pool.Free(buf)
	buf = wire.ComposeAckChunk(buf, cmd, rid)
	if err := e.Transport.SendBlocking(buf, true); err != nil {
		e.Log.Debug().Err(err).Stringer("cmd", cmd).Uint32("rid", rid).Msg("failed to send ack chunk")
		return
	}
	e.Metrics.AckChunkSent(cmd)
}

// inboundRequestTask is the worker task submitted to the executor on the
// first REQUEST frame for an rid (spec §4.1.2): it pulls bytes from the
// InboundRequest's byte input, decodes one request object, re-encodes it,
// and hands the bytes to the target InboundClient's local handler when
// that handler implements entity.RequestHandler. It sends no REPLY
// frames; the local handler's reply path is domain-specific.
type inboundRequestTask struct {
	engine *Engine
	rid    uint32
	cid    uint32
}

func (t *inboundRequestTask) Run(ctx context.Context) {
	req, ok := t.engine.inboundReqs.Get(t.rid)
	if !ok {
		return
	}
	input := req.GetInput()
	if input == nil {
		return
	}
	dec := t.engine.Marshaller.NewDecoder(input)
	obj, err := dec.Decode()
	if err != nil {
		t.engine.Log.Debug().Err(err).Uint32("rid", t.rid).Msg("failed to decode request body")
		return
	}
	client, ok := t.engine.inboundClients.Get(t.cid)
	if !ok {
		t.engine.Log.Trace().Uint32("cid", t.cid).Uint32("rid", t.rid).Msg("request targets unknown client")
		return
	}
	handler := client.Handler()
	if rh, ok := handler.(entity.RequestHandler); ok {
		body, _ := t.engine.Marshaller.Encode(obj)
		rh.HandleRequest(t.rid, body)
	}
}

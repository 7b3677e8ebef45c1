package engine

import (
	"context"

	"github.com/relaygrid/wiremux/internal/bytesource"
	"github.com/relaygrid/wiremux/internal/entity"
	"github.com/relaygrid/wiremux/internal/wire"
)

// handleReply implements spec §4.1.3, shared by REPLY and REPLY_EXCEPTION
// — they differ only in which worker task the first frame spawns.
func (e *Engine) handleReply(ctx context.Context, payload []byte, isException bool) {
	cmd := wire.Reply
	if isException {
		cmd = wire.ReplyException
	}
	hdr, body, err := wire.ParseReplyHeader(payload)
	if err != nil {
		e.Log.Warn().Err(err).Stringer("cmd", cmd).Msg("malformed reply header")
		return
	}

	req, ok := e.outboundReqs.Get(hdr.RID)
	if !ok {
		e.traceUnknownID(cmd, hdr.RID)
		return
	}

	var input *bytesource.Source
	if hdr.First {
		fresh := bytesource.New(e.Pool.Free, func() { e.emitAckChunk(wire.ReplyAckChunk, hdr.RID) })
		installed, first := req.InstallInput(fresh)
		input = installed
		if first {
			if isException {
				e.Executor.Execute(ctx, &replyExceptionTask{engine: e, rid: hdr.RID, req: req})
			} else {
				e.Executor.Execute(ctx, &inboundReplyTask{engine: e, rid: hdr.RID, req: req})
			}
		}
	} else {
		input = req.GetInput()
	}

	if input != nil {
		input.Push(body)
	}
}

// handleReplyAckChunk implements REPLY_ACK_CHUNK: look up the
// InboundRequest and increment its ack counter.
func (e *Engine) handleReplyAckChunk(payload []byte) {
	rid, _, err := wire.ReadUint32(payload)
	if err != nil {
		e.Log.Warn().Err(err).Msg("malformed REPLY_ACK_CHUNK payload")
		return
	}
	req, ok := e.inboundReqs.Get(rid)
	if !ok {
		e.traceUnknownID(wire.ReplyAckChunk, rid)
		return
	}
	req.Ack()
}

// handleReplyExceptionAbort implements REPLY_EXCEPTION_ABORT: look up (no
// remove) the OutboundRequest; per spec §8, acting on neither collaborator
// when both are absent is a legal no-op, handled inside
// entity.OutboundRequest.AbortException.
func (e *Engine) handleReplyExceptionAbort(payload []byte) {
	rid, _, err := wire.ReadUint32(payload)
	if err != nil {
		e.Log.Warn().Err(err).Msg("malformed REPLY_EXCEPTION_ABORT payload")
		return
	}
	req, ok := e.outboundReqs.Get(rid)
	if !ok {
		e.traceUnknownID(wire.ReplyExceptionAbort, rid)
		return
	}
	req.AbortException(ErrReplyExceptionAborted)
}

// inboundReplyTask is submitted to the executor on the first REPLY frame
// (spec §4.1.3): it unmarshals the reply object and invokes the locally
// registered reply handler.
type inboundReplyTask struct {
	engine *Engine
	rid    uint32
	req    *entity.OutboundRequest
}

func (t *inboundReplyTask) Run(ctx context.Context) {
	input := t.req.GetInput()
	if input == nil {
		return
	}
	dec := t.engine.Marshaller.NewDecoder(input)
	obj, err := dec.Decode()
	if err != nil {
		if t.req.Handler != nil {
			t.req.Handler.Exception(err)
		}
		return
	}
	if t.req.Handler != nil {
		body, _ := t.engine.Marshaller.Encode(obj)
		t.req.Handler.Reply(body)
	}
	t.engine.outboundReqs.Remove(t.rid)
	if t.req.Handler != nil {
		t.req.Handler.Done()
	}
}

// replyExceptionTask is the exception-decoder variant spawned by the
// first REPLY_EXCEPTION frame: it decodes the exception object and
// surfaces it through the reply handler instead of treating it as a
// normal reply.
type replyExceptionTask struct {
	engine *Engine
	rid    uint32
	req    *entity.OutboundRequest
}

func (t *replyExceptionTask) Run(ctx context.Context) {
	input := t.req.GetInput()
	if input == nil {
		return
	}
	dec := t.engine.Marshaller.NewDecoder(input)
	obj, err := dec.Decode()
	if err != nil {
		if t.req.Handler != nil {
			t.req.Handler.Exception(err)
		}
		return
	}
	if t.req.Handler != nil {
		if decodedErr, ok := obj.(error); ok {
			t.req.Handler.Exception(decodedErr)
		} else {
			body, _ := t.engine.Marshaller.Encode(obj)
			t.req.Handler.Exception(&remoteException{body: body})
		}
	}
	t.engine.outboundReqs.Remove(t.rid)
	if t.req.Handler != nil {
		t.req.Handler.Done()
	}
}

// remoteException wraps a decoded-but-non-error exception object so it
// can still be surfaced through ReplyHandler.Exception's error parameter.
type remoteException struct {
	body []byte
}

func (r *remoteException) Error() string {
	return "engine: remote exception: " + string(r.body)
}

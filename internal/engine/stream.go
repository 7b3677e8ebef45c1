package engine

import "github.com/relaygrid/wiremux/internal/wire"

// handleStreamData implements STREAM_DATA: push the payload chunk into
// the InboundStream's receiver.
func (e *Engine) handleStreamData(payload []byte) {
	sid, body, err := wire.ReadUint32(payload)
	if err != nil {
		e.Log.Warn().Err(err).Msg("malformed STREAM_DATA payload")
		return
	}
	s, ok := e.inboundStreams.Get(sid)
	if !ok {
		e.warnUnknownID(wire.StreamData, sid)
		return
	}
	s.Receiver.Push(body)
}

// handleStreamClose implements STREAM_CLOSE: push EOF into the
// InboundStream's receiver and remove it.
func (e *Engine) handleStreamClose(payload []byte) {
	sid, _, err := wire.ReadUint32(payload)
	if err != nil {
		e.Log.Warn().Err(err).Msg("malformed STREAM_CLOSE payload")
		return
	}
	s, ok := e.inboundStreams.Remove(sid)
	if !ok {
		e.warnUnknownID(wire.StreamClose, sid)
		return
	}
	s.Receiver.PushEOF()
}

// handleStreamException implements STREAM_EXCEPTION: push an exception
// terminator into the InboundStream's receiver and remove it.
func (e *Engine) handleStreamException(payload []byte) {
	sid, _, err := wire.ReadUint32(payload)
	if err != nil {
		e.Log.Warn().Err(err).Msg("malformed STREAM_EXCEPTION payload")
		return
	}
	s, ok := e.inboundStreams.Remove(sid)
	if !ok {
		e.warnUnknownID(wire.StreamException, sid)
		return
	}
	s.Receiver.PushException(ErrStreamException)
}

// handleStreamAck implements STREAM_ACK: increment the OutboundStream's
// ack counter.
func (e *Engine) handleStreamAck(payload []byte) {
	sid, _, err := wire.ReadUint32(payload)
	if err != nil {
		e.Log.Warn().Err(err).Msg("malformed STREAM_ACK payload")
		return
	}
	s, ok := e.outboundStreams.Get(sid)
	if !ok {
		e.warnUnknownID(wire.StreamAck, sid)
		return
	}
	s.Ack()
}

// handleStreamAsyncStart implements STREAM_ASYNC_START: mark the
// OutboundStream's async-start flag.
func (e *Engine) handleStreamAsyncStart(payload []byte) {
	sid, _, err := wire.ReadUint32(payload)
	if err != nil {
		e.Log.Warn().Err(err).Msg("malformed STREAM_ASYNC_START payload")
		return
	}
	s, ok := e.outboundStreams.Get(sid)
	if !ok {
		e.warnUnknownID(wire.StreamAsyncStart, sid)
		return
	}
	s.MarkAsyncStart()
}

// handleStreamAsyncClose implements STREAM_ASYNC_CLOSE: mark the
// OutboundStream's async-close flag.
func (e *Engine) handleStreamAsyncClose(payload []byte) {
	sid, _, err := wire.ReadUint32(payload)
	if err != nil {
		e.Log.Warn().Err(err).Msg("malformed STREAM_ASYNC_CLOSE payload")
		return
	}
	s, ok := e.outboundStreams.Get(sid)
	if !ok {
		e.warnUnknownID(wire.StreamAsyncClose, sid)
		return
	}
	s.MarkAsyncClose()
}

// handleStreamAsyncException implements STREAM_ASYNC_EXCEPTION: mark the
// OutboundStream's async-exception flag.
func (e *Engine) handleStreamAsyncException(payload []byte) {
	sid, _, err := wire.ReadUint32(payload)
	if err != nil {
		e.Log.Warn().Err(err).Msg("malformed STREAM_ASYNC_EXCEPTION payload")
		return
	}
	s, ok := e.outboundStreams.Get(sid)
	if !ok {
		e.warnUnknownID(wire.StreamAsyncException, sid)
		return
	}
	s.MarkAsyncException()
}

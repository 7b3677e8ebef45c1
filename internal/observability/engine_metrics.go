package observability

import "github.com/relaygrid/wiremux/internal/wire"

// EngineMetrics adapts the package-level recorder functions to
// engine.Metrics, so an *engine.Engine can report frame counts without
// this package depending on the engine package (avoiding an import
// cycle: engine already depends on wire, not on observability).
type EngineMetrics struct {
	Node string
}

func (m EngineMetrics) FrameDispatched(cmd wire.Command) {
	RecordFrameDispatched(m.Node, cmd.String())
}

func (m EngineMetrics) UnknownID(cmd wire.Command) {
	RecordUnknownID(m.Node, cmd.String())
}

func (m EngineMetrics) AckChunkSent(cmd wire.Command) {
	kind := "request"
	if cmd == wire.ReplyAckChunk {
		kind = "reply"
	}
	RecordAckChunkEmitted(m.Node, kind)
}

package observability

import (
	"testing"
	"time"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("wiremuxd-a", "GET", "/health", 200, 12*time.Millisecond)
	RecordFrameDispatched("wiremuxd-a", "REQUEST")
	RecordUnknownID("wiremuxd-a", "STREAM_ACK")
	RecordAckChunkEmitted("wiremuxd-a", "request")
	RecordChunkDrainLatency("wiremuxd-a", "reply", 4*time.Millisecond)
	SetRegistrySize("wiremuxd-a", "outbound_clients", 3)
}

package localservice

import (
	"github.com/rs/zerolog/log"

	"github.com/relaygrid/wiremux/internal/collab"
)

// EchoFactory constructs a trivial service handler that logs each
// request's rid and body length at debug level and sends no reply; useful
// as a smoke-test service type for a freshly deployed wiremuxd instance
// and as a worked example for writing a real Factory.
func EchoFactory(groupName string, opts []byte) (collab.ServiceHandler, error) {
	return &echoHandler{group: groupName}, nil
}

type echoHandler struct{ group string }

func (h *echoHandler) Close() {}

func (h *echoHandler) HandleRequest(rid uint32, body []byte) {
	log.Debug().Uint32("rid", rid).Str("group", h.group).Int("len", len(body)).Msg("echo service received request")
}

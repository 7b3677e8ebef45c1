package entity

import (
	"errors"
	"testing"

	"github.com/relaygrid/wiremux/internal/bytesource"
)

type recordingSink struct {
	opened   RequestHandler
	notFound bool
	err      error
}

func (s *recordingSink) Opened(h RequestHandler) { s.opened = h }
func (s *recordingSink) NotFound()                { s.notFound = true }
func (s *recordingSink) Error(err error)          { s.err = err }

type nopHandler struct{}

func (nopHandler) HandleRequest(rid uint32, body []byte) {}

func TestOutboundClientNotFoundTransitionsToClosed(t *testing.T) {
	sink := &recordingSink{}
	c := NewOutboundClient(1, "foo", "grp", sink)
	c.Fail(true, nil)
	if c.State() != Closed {
		t.Fatalf("expected Closed, got %v", c.State())
	}
	if !sink.notFound {
		t.Fatalf("expected NotFound to be published")
	}
}

func TestOutboundClientErrorTransitionsToClosed(t *testing.T) {
	sink := &recordingSink{}
	c := NewOutboundClient(1, "foo", "grp", sink)
	boom := errors.New("boom")
	c.Fail(false, boom)
	if c.State() != Closed {
		t.Fatalf("expected Closed, got %v", c.State())
	}
	if !errors.Is(sink.err, boom) {
		t.Fatalf("expected published error to be boom, got %v", sink.err)
	}
}

func TestOutboundClientOpenedTransitionsToEstablished(t *testing.T) {
	sink := &recordingSink{}
	c := NewOutboundClient(1, "foo", "grp", sink)
	h := nopHandler{}
	c.Open(h)
	if c.State() != Established {
		t.Fatalf("expected Established, got %v", c.State())
	}
	if sink.opened == nil {
		t.Fatalf("expected the handler to be published")
	}
}

func TestOutboundClientTerminalStateNeverMutatesAgain(t *testing.T) {
	sink := &recordingSink{}
	c := NewOutboundClient(1, "foo", "grp", sink)
	c.Fail(true, nil)
	c.Open(nopHandler{}) // must be a no-op: Closed is terminal
	if c.State() != Closed {
		t.Fatalf("expected Closed to remain terminal, got %v", c.State())
	}
	if sink.opened != nil {
		t.Fatalf("expected Open to be a no-op after Closed")
	}
}

type countingHandler struct{ closed int }

func (h *countingHandler) Close() { h.closed++ }

func TestInboundClientCloseIsIdempotent(t *testing.T) {
	h := &countingHandler{}
	c := NewInboundClient(1, h)
	c.Close()
	c.Close()
	if h.closed != 1 {
		t.Fatalf("expected Close to reach the handler exactly once, got %d", h.closed)
	}
}

type recordingReplyHandler struct {
	replies    [][]byte
	exceptions []error
	done       int
}

func (r *recordingReplyHandler) Reply(body []byte)   { r.replies = append(r.replies, body) }
func (r *recordingReplyHandler) Exception(err error) { r.exceptions = append(r.exceptions, err) }
func (r *recordingReplyHandler) Done()               { r.done++ }

func TestOutboundRequestInstallInputOnlyOnce(t *testing.T) {
	r := NewOutboundRequest(1, nil)
	firstSrc := bytesource.New(nil, nil)
	installed, ok := r.InstallInput(firstSrc)
	if !ok || installed != firstSrc {
		t.Fatalf("expected first install to succeed with firstSrc")
	}
	secondSrc := bytesource.New(nil, nil)
	installed, ok = r.InstallInput(secondSrc)
	if ok || installed != firstSrc {
		t.Fatalf("expected second install to report already-installed with firstSrc retained")
	}
}

func TestOutboundRequestAbortExceptionIsNoopWithNoCollaborators(t *testing.T) {
	r := NewOutboundRequest(1, nil)
	// Must not panic: neither byte input nor reply handler is installed.
	r.AbortException(errors.New("boom"))
}

func TestOutboundRequestAbortExceptionNotifiesHandler(t *testing.T) {
	h := &recordingReplyHandler{}
	r := NewOutboundRequest(1, h)
	boom := errors.New("boom")
	r.AbortException(boom)
	if len(h.exceptions) != 1 || !errors.Is(h.exceptions[0], boom) {
		t.Fatalf("expected handler to be notified of boom, got %+v", h.exceptions)
	}
}

func TestOutboundStreamFlags(t *testing.T) {
	s := NewOutboundStream(1)
	s.MarkAsyncStart()
	s.MarkAsyncClose()
	s.MarkAsyncException()
	if ack := s.Ack(); ack != 1 {
		t.Fatalf("expected first ack to be 1, got %d", ack)
	}
	if ack := s.Ack(); ack != 2 {
		t.Fatalf("expected second ack to be 2, got %d", ack)
	}
}

package transport

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type recordingDispatcher struct {
	frames   [][]byte
	teardown int
	failOn   func([]byte) error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, frame []byte) error {
	d.frames = append(d.frames, append([]byte{}, frame...))
	if d.failOn != nil {
		return d.failOn(frame)
	}
	return nil
}

func (d *recordingDispatcher) Teardown() { d.teardown++ }

func TestConnServeDecodesLengthPrefixedFrames(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	conn := NewConn(server, zerolog.Nop())
	disp := &recordingDispatcher{}
	done := make(chan error, 1)
	go func() { done <- conn.Serve(context.Background(), disp) }()

	writeFrame(t, client, []byte{0x07, 0xAA, 0xBB})
	writeFrame(t, client, []byte{0x0E})
	client.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Serve did not return after client closed")
	}

	if len(disp.frames) != 2 {
		t.Fatalf("expected 2 dispatched frames, got %d", len(disp.frames))
	}
	if disp.teardown != 1 {
		t.Fatalf("expected Teardown called exactly once, got %d", disp.teardown)
	}
}

func TestConnSendBlockingWritesLengthPrefix(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	conn := NewConn(client, zerolog.Nop())
	buf := []byte{0, 0, 0, 0, 0x04, 0xAA, 0xBB}
	errCh := make(chan error, 1)
	go func() { errCh <- conn.SendBlocking(buf, true) }()

	var lenBuf [4]byte
	if _, err := readFull(server, lenBuf[:]); err != nil {
		t.Fatalf("read length prefix: %v", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n != 3 {
		t.Fatalf("expected length 3, got %d", n)
	}
	body := make([]byte, n)
	if _, err := readFull(server, body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != "\x04\xAA\xBB" {
		t.Fatalf("unexpected body: %v", body)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("SendBlocking returned error: %v", err)
	}
}

func writeFrame(t *testing.T, w net.Conn, payload []byte) {
	t.Helper()
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		t.Fatalf("write length: %v", err)
	}
	if _, err := w.Write(payload); err != nil {
		t.Fatalf("write payload: %v", err)
	}
}

func readFull(r net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

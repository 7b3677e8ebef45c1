package wire

import (
	"errors"
	"testing"
)

func TestUTF8ZRoundTrip(t *testing.T) {
	var buf []byte
	buf = PutUTF8Z(buf, "foo")
	buf = PutUTF8Z(buf, "grp")

	s1, rest, err := ReadUTF8Z(buf)
	if err != nil || s1 != "foo" {
		t.Fatalf("expected foo, got %q err=%v", s1, err)
	}
	s2, rest, err := ReadUTF8Z(rest)
	if err != nil || s2 != "grp" {
		t.Fatalf("expected grp, got %q err=%v", s2, err)
	}
	if len(rest) != 0 {
		t.Fatalf("expected no trailing bytes, got %d", len(rest))
	}
}

func TestReadUTF8ZUnterminated(t *testing.T) {
	_, _, err := ReadUTF8Z([]byte("no-nul"))
	if !errors.Is(err, ErrUnterminated) {
		t.Fatalf("expected ErrUnterminated, got %v", err)
	}
}

func TestParseServiceRequestHeaderRoundTrip(t *testing.T) {
	var buf []byte
	buf = PutUint32(buf, 7)
	buf = PutUTF8Z(buf, "foo")
	buf = PutUTF8Z(buf, "grp")
	buf = append(buf, 0xAA, 0xBB)

	h, rest, err := ParseServiceRequestHeader(buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if h.ID != 7 || h.ServiceType != "foo" || h.GroupName != "grp" {
		t.Fatalf("unexpected header: %+v", h)
	}
	if len(rest) != 2 || rest[0] != 0xAA || rest[1] != 0xBB {
		t.Fatalf("unexpected remaining bytes: %v", rest)
	}
}

func TestParseRequestHeaderFirstFrame(t *testing.T) {
	var buf []byte
	buf = PutUint32(buf, 0x10)
	buf = append(buf, FlagFirst)
	buf = PutUint32(buf, 7)
	buf = append(buf, 'A', 'B')

	h, rest, err := ParseRequestHeader(buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !h.First || h.RID != 0x10 || h.CID != 7 {
		t.Fatalf("unexpected header: %+v", h)
	}
	if string(rest) != "AB" {
		t.Fatalf("unexpected remaining bytes: %q", rest)
	}
}

func TestParseRequestHeaderSubsequentFrameHasNoCID(t *testing.T) {
	var buf []byte
	buf = PutUint32(buf, 0x10)
	buf = append(buf, 0x00)
	buf = append(buf, 'C', 'D')

	h, rest, err := ParseRequestHeader(buf)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if h.First || h.CID != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
	if string(rest) != "CD" {
		t.Fatalf("unexpected remaining bytes: %q", rest)
	}
}

func TestParseRequestHeaderTruncated(t *testing.T) {
	_, _, err := ParseRequestHeader([]byte{0, 0})
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}

func TestComposeSimpleReplyLayout(t *testing.T) {
	buf := ComposeSimpleReply(nil, ServiceNotFound, 7)
	if len(buf) != 4+1+4 {
		t.Fatalf("unexpected length: %d", len(buf))
	}
	if Command(buf[4]) != ServiceNotFound {
		t.Fatalf("expected command byte at offset 4, got %v", Command(buf[4]))
	}
	id, _, err := ReadUint32(buf[5:])
	if err != nil || id != 7 {
		t.Fatalf("expected id 7 at offset 5, got %d err=%v", id, err)
	}
}

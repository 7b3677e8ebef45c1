// Package wire defines the on-the-wire shape of the protocol: command
// bytes, flag bits, and the codecs for the fixed parts of each frame's
// payload. It mirrors the binary-header idiom of the retrieved protocol
// packages (big-endian fixed-width integers, NUL-terminated strings) but
// is scoped to exactly what this protocol's frames carry — there is no
// magic number or version field, because framing and version negotiation
// belong to the transport, not to this engine.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// Command is the single byte that selects a frame's payload shape and the
// dispatcher action it drives. Values are a stable numeric assignment;
// peers must agree on them out of band (there is no negotiation frame).
type Command byte

const (
	ServiceRequest       Command = 0x01
	ServiceNotFound      Command = 0x02
	ServiceError         Command = 0x03
	ServiceClientOpened  Command = 0x04
	ChannelClose         Command = 0x05
	ClientAsyncClose     Command = 0x06
	Request              Command = 0x07
	RequestAbort         Command = 0x08
	RequestAckChunk      Command = 0x09
	Reply                Command = 0x0A
	ReplyAckChunk        Command = 0x0B
	ReplyException       Command = 0x0C
	ReplyExceptionAbort  Command = 0x0D
	Alive                Command = 0x0E
	StreamData           Command = 0x0F
	StreamClose          Command = 0x10
	StreamException      Command = 0x11
	StreamAck            Command = 0x12
	StreamAsyncStart     Command = 0x13
	StreamAsyncClose     Command = 0x14
	StreamAsyncException Command = 0x15
)

func (c Command) String() string {
	switch c {
	case ServiceRequest:
		return "SERVICE_REQUEST"
	case ServiceNotFound:
		return "SERVICE_NOT_FOUND"
	case ServiceError:
		return "SERVICE_ERROR"
	case ServiceClientOpened:
		return "SERVICE_CLIENT_OPENED"
	case ChannelClose:
		return "CHANNEL_CLOSE"
	case ClientAsyncClose:
		return "CLIENT_ASYNC_CLOSE"
	case Request:
		return "REQUEST"
	case RequestAbort:
		return "REQUEST_ABORT"
	case RequestAckChunk:
		return "REQUEST_ACK_CHUNK"
	case Reply:
		return "REPLY"
	case ReplyAckChunk:
		return "REPLY_ACK_CHUNK"
	case ReplyException:
		return "REPLY_EXCEPTION"
	case ReplyExceptionAbort:
		return "REPLY_EXCEPTION_ABORT"
	case Alive:
		return "ALIVE"
	case StreamData:
		return "STREAM_DATA"
	case StreamClose:
		return "STREAM_CLOSE"
	case StreamException:
		return "STREAM_EXCEPTION"
	case StreamAck:
		return "STREAM_ACK"
	case StreamAsyncStart:
		return "STREAM_ASYNC_START"
	case StreamAsyncClose:
		return "STREAM_ASYNC_CLOSE"
	case StreamAsyncException:
		return "STREAM_ASYNC_EXCEPTION"
	default:
		return "UNKNOWN"
	}
}

// Flag bits carried in the single flags byte of REQUEST/REPLY/REPLY_EXCEPTION
// payloads.
const (
	FlagFirst byte = 1 << 0
)

// LengthPlaceholder is the width in bytes of the length prefix the engine
// reserves at the head of every frame it composes; the transport overwrites
// it before the frame leaves the process.
const LengthPlaceholder = 4

var (
	ErrTruncated    = errors.New("wire: truncated frame")
	ErrUnterminated = errors.New("wire: unterminated string")
)

// ReadUint32 reads a big-endian uint32 id field, returning ErrTruncated if
// fewer than 4 bytes remain.
func ReadUint32(b []byte) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, b, ErrTruncated
	}
	return binary.BigEndian.Uint32(b), b[4:], nil
}

// PutUint32 appends a big-endian uint32 to dst.
func PutUint32(dst []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(dst, tmp[:]...)
}

// ReadByte reads a single byte, returning ErrTruncated if b is empty.
func ReadByte(b []byte) (byte, []byte, error) {
	if len(b) < 1 {
		return 0, b, ErrTruncated
	}
	return b[0], b[1:], nil
}

// ReadUTF8Z reads a NUL-terminated string, returning ErrUnterminated if no
// NUL byte is found.
func ReadUTF8Z(b []byte) (string, []byte, error) {
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return "", b, ErrUnterminated
	}
	return string(b[:i]), b[i+1:], nil
}

// PutUTF8Z appends s followed by a NUL terminator to dst.
func PutUTF8Z(dst []byte, s string) []byte {
	dst = append(dst, []byte(s)...)
	return append(dst, 0)
}

package wire

// ComposeSimpleReply writes a length-placeholder, a command byte, and a
// 32-bit id into buf — the shape shared by SERVICE_NOT_FOUND,
// SERVICE_ERROR, and SERVICE_CLIENT_OPENED. buf is expected to be an
// empty, pooled byte slice; the caller owns returning it to the pool on
// every exit path (mirrors the original service-open handler's
// allocate-before-try / free-in-finally discipline).
func ComposeSimpleReply(buf []byte, cmd Command, id uint32) []byte {
	buf = append(buf, 0, 0, 0, 0) // length placeholder, filled by the transport
	buf = append(buf, byte(cmd))
	buf = PutUint32(buf, id)
	return buf
}

// ComposeAckChunk writes the length-placeholder, ack command byte, and rid
// shared by REQUEST_ACK_CHUNK and REPLY_ACK_CHUNK frames.
func ComposeAckChunk(buf []byte, cmd Command, rid uint32) []byte {
	buf = append(buf, 0, 0, 0, 0)
	buf = append(buf, byte(cmd))
	buf = PutUint32(buf, rid)
	return buf
}

// RequestHeader is the parsed fixed portion of a REQUEST frame's payload
// (after the command byte has already been consumed).
type RequestHeader struct {
	RID   uint32
	Flags byte
	CID   uint32 // only valid when First is true
	First bool
}

// ParseRequestHeader parses rid, flags, and — when MSG_FLAG_FIRST is set —
// the client id that precedes the payload bytes. It returns the remaining
// payload bytes.
func ParseRequestHeader(b []byte) (RequestHeader, []byte, error) {
	var h RequestHeader
	rid, rest, err := ReadUint32(b)
	if err != nil {
		return h, rest, err
	}
	flags, rest, err := ReadByte(rest)
	if err != nil {
		return h, rest, err
	}
	h.RID = rid
	h.Flags = flags
	h.First = flags&FlagFirst != 0
	if h.First {
		cid, rem, err := ReadUint32(rest)
		if err != nil {
			return h, rem, err
		}
		h.CID = cid
		rest = rem
	}
	return h, rest, nil
}

// ReplyHeader is the parsed fixed portion of a REPLY / REPLY_EXCEPTION
// frame's payload.
type ReplyHeader struct {
	RID   uint32
	Flags byte
	First bool
}

// ParseReplyHeader parses rid and flags, returning the remaining payload
// bytes.
func ParseReplyHeader(b []byte) (ReplyHeader, []byte, error) {
	var h ReplyHeader
	rid, rest, err := ReadUint32(b)
	if err != nil {
		return h, rest, err
	}
	flags, rest, err := ReadByte(rest)
	if err != nil {
		return h, rest, err
	}
	h.RID = rid
	h.Flags = flags
	h.First = flags&FlagFirst != 0
	return h, rest, nil
}

// ServiceRequestHeader is the parsed fixed portion of a SERVICE_REQUEST
// frame's payload, up to but not including the marshalled OptionMap.
type ServiceRequestHeader struct {
	ID          uint32
	ServiceType string
	GroupName   string
}

// ParseServiceRequestHeader parses id, serviceType, and groupName, returning
// the remaining bytes (the marshalled OptionMap).
func ParseServiceRequestHeader(b []byte) (ServiceRequestHeader, []byte, error) {
	var h ServiceRequestHeader
	id, rest, err := ReadUint32(b)
	if err != nil {
		return h, rest, err
	}
	svcType, rest, err := ReadUTF8Z(rest)
	if err != nil {
		return h, rest, err
	}
	group, rest, err := ReadUTF8Z(rest)
	if err != nil {
		return h, rest, err
	}
	h.ID = id
	h.ServiceType = svcType
	h.GroupName = group
	return h, rest, nil
}

package protocol

import (
	"fmt"
)

// GetMessageTypeName returns a human-readable name for a message type
func GetMessageTypeName(msgType byte) string {
	switch msgType {
	case MsgTypeRequestList:
		return "RequestList"
	case MsgTypeRequestRead:
		return "RequestRead"
	case MsgTypeSet:
		return "Set"
	case MsgTypeReset:
		return "Reset"
	case MsgTypeDescribe:
		return "Describe"
	case MsgTypeValue:
		return "Value"
	case MsgTypeAck:
		return "Ack"
	case MsgTypeMeta:
		return "Meta"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", msgType)
	}
}

// ParseMessage decodes the payload of f according to its type
func ParseMessage(f *Frame) (Message, error) {
	switch f.Type {
	case MsgTypeRequestList:
		if err := checkLen(f.Payload, 0, "RequestList"); err != nil {
			return nil, err
		}
		return &RequestListMessage{}, nil
	case MsgTypeRequestRead:
		m := &RequestReadMessage{}
		return m, m.unmarshal(f.Payload, "RequestRead")
	case MsgTypeReset:
		m := &ResetMessage{}
		return m, m.unmarshal(f.Payload, "Reset")
	case MsgTypeDescribe:
		m := &DescribeMessage{}
		return m, m.unmarshal(f.Payload, "Describe")
	case MsgTypeSet:
		return parseSet(f.Payload)
	case MsgTypeValue:
		return parseValue(f.Payload)
	case MsgTypeAck:
		return parseAck(f.Payload)
	case MsgTypeMeta:
		return parseMeta(f.Payload)
	default:
		return nil, fmt.Errorf("unknown message type 0x%02x", f.Type)
	}
}

// Decode parses a complete frame and its message. The frame is returned even
// when the payload is malformed so the caller can answer with the right ID.
func Decode(data []byte) (*Frame, Message, error) {
	f, err := ParseFrame(data)
	if err != nil {
		return nil, nil, err
	}
	msg, err := ParseMessage(f)
	if err != nil {
		return f, nil, fmt.Errorf("%s: %w", GetMessageTypeName(f.Type), err)
	}
	return f, msg, nil
}

// IsRequest reports whether msgType is sent by clients
func IsRequest(msgType byte) bool {
	return msgType >= MsgTypeRequestList && msgType <= MsgTypeDescribe
}

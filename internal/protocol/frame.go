package protocol

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
)

// Frame constants
const (
	ProtocolSync    = 0x7e
	ProtocolVersion = 0x01
	HeaderSize      = 9 // Sync + Version + 4-byte ID + type + 2-byte length

	// MaxPayloadSize bounds a single message; Meta descriptors are the largest
	MaxPayloadSize = 4096

	// MsgIDBroadcast marks unsolicited server messages (value changes made by
	// another session or by the vehicle itself)
	MsgIDBroadcast = 0
)

// Frame is one tuning-link frame
//
//	[0]     0x7e           Sync byte
//	[1]     0x01           Version byte
//	[2-5]   message_id     Message ID (little-endian uint32, 0 = broadcast)
//	[6]     type           Message type
//	[7-8]   length         Payload length (little-endian uint16)
//	[9+]    payload        Message payload bytes
type Frame struct {
	MessageID uint32
	Type      byte
	Payload   []byte
}

// BuildFrame constructs a complete frame with header.
func BuildFrame(messageID uint32, msgType byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("payload too large: %d bytes (max %d)", len(payload), MaxPayloadSize)
	}

	frame := make([]byte, HeaderSize+len(payload))
	frame[0] = ProtocolSync
	frame[1] = ProtocolVersion
	binary.LittleEndian.PutUint32(frame[2:6], messageID)
	frame[6] = msgType
	binary.LittleEndian.PutUint16(frame[7:9], uint16(len(payload)))
	copy(frame[HeaderSize:], payload)

	return frame, nil
}

// ParseFrame validates the header and splits out the payload.
// Trailing bytes beyond the declared length are rejected.
func ParseFrame(data []byte) (*Frame, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("frame too small: %d bytes (minimum %d)", len(data), HeaderSize)
	}
	if data[0] != ProtocolSync {
		return nil, fmt.Errorf("invalid sync byte: 0x%02x (expected 0x%02x)", data[0], ProtocolSync)
	}
	if data[1] != ProtocolVersion {
		return nil, fmt.Errorf("invalid version: 0x%02x (expected 0x%02x)", data[1], ProtocolVersion)
	}

	length := int(binary.LittleEndian.Uint16(data[7:9]))
	if len(data) != HeaderSize+length {
		return nil, fmt.Errorf("frame size %d does not match header + payload (%d)", len(data), HeaderSize+length)
	}

	return &Frame{
		MessageID: binary.LittleEndian.Uint32(data[2:6]),
		Type:      data[6],
		Payload:   data[HeaderSize:],
	}, nil
}

// String returns a debug representation of the frame
func (f *Frame) String() string {
	return fmt.Sprintf("Frame{id=%d, type=%s, length=%d}", f.MessageID, GetMessageTypeName(f.Type), len(f.Payload))
}

// IDSource hands out request message IDs. It never returns MsgIDBroadcast.
type IDSource struct {
	counter atomic.Uint32
}

// Next returns the next message ID, wrapping past zero
func (s *IDSource) Next() uint32 {
	for {
		id := s.counter.Add(1)
		if id != MsgIDBroadcast {
			return id
		}
	}
}

var defaultIDs IDSource

// GenerateMessageID returns a process-wide unique request ID
func GenerateMessageID() uint32 {
	return defaultIDs.Next()
}

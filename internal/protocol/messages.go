package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/muurk/mcparam/internal/param"
)

// Message types. Requests are below 0x10, responses from 0x10.
const (
	MsgTypeRequestList = 0x01 // Request every value, in registration order
	MsgTypeRequestRead = 0x02 // Request one value by name
	MsgTypeSet         = 0x03 // Set one value
	MsgTypeReset       = 0x04 // Reset one value to its default
	MsgTypeDescribe    = 0x05 // Request a definition descriptor

	MsgTypeValue = 0x10 // Current value of one parameter
	MsgTypeAck   = 0x11 // Result of Set/Reset, or an error for any request
	MsgTypeMeta  = 0x12 // JSON definition descriptor
)

// NameSize is the fixed, NUL-padded width of a parameter name on the wire
const NameSize = param.MaxNameLen

// SetFlagImport asks the server to apply import semantics (clamp instead of reject)
const SetFlagImport = 0x01

// Message is a decoded tuning-link message
type Message interface {
	Type() byte
	String() string
	MarshalPayload() ([]byte, error)
}

// Encode builds a complete frame for msg
func Encode(messageID uint32, msg Message) ([]byte, error) {
	payload, err := msg.MarshalPayload()
	if err != nil {
		return nil, err
	}
	return BuildFrame(messageID, msg.Type(), payload)
}

// putName writes name NUL-padded into dst[:NameSize]
func putName(dst []byte, name string) error {
	if len(name) == 0 || len(name) > NameSize {
		return fmt.Errorf("parameter name %q must be 1-%d bytes", name, NameSize)
	}
	copy(dst[:NameSize], name)
	return nil
}

// readName reads a NUL-padded name from src[:NameSize]
func readName(src []byte) (string, error) {
	raw := src[:NameSize]
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		if i == 0 {
			return "", fmt.Errorf("empty parameter name")
		}
		if bytes.IndexFunc(raw[i:], func(r rune) bool { return r != 0 }) >= 0 {
			return "", fmt.Errorf("parameter name has data after padding")
		}
		raw = raw[:i]
	}
	return string(raw), nil
}

func checkLen(payload []byte, want int, what string) error {
	if len(payload) != want {
		return fmt.Errorf("%s payload is %d bytes, want %d", what, len(payload), want)
	}
	return nil
}

// RequestListMessage (type 0x01) asks for every parameter. Empty payload.
type RequestListMessage struct{}

func (m *RequestListMessage) Type() byte                      { return MsgTypeRequestList }
func (m *RequestListMessage) String() string                  { return "RequestList{}" }
func (m *RequestListMessage) MarshalPayload() ([]byte, error) { return nil, nil }

// nameMessage is the payload shared by RequestRead, Reset and Describe
//
//	[0-15]  name  NUL-padded
type nameMessage struct {
	Name string
}

func (m *nameMessage) marshal() ([]byte, error) {
	payload := make([]byte, NameSize)
	if err := putName(payload, m.Name); err != nil {
		return nil, err
	}
	return payload, nil
}

func (m *nameMessage) unmarshal(payload []byte, what string) error {
	if err := checkLen(payload, NameSize, what); err != nil {
		return err
	}
	name, err := readName(payload)
	if err != nil {
		return err
	}
	m.Name = name
	return nil
}

// RequestReadMessage (type 0x02) asks for one value
type RequestReadMessage struct{ nameMessage }

// NewRequestRead returns a read request for name
func NewRequestRead(name string) *RequestReadMessage {
	return &RequestReadMessage{nameMessage{Name: name}}
}

func (m *RequestReadMessage) Type() byte                      { return MsgTypeRequestRead }
func (m *RequestReadMessage) String() string                  { return fmt.Sprintf("RequestRead{%s}", m.Name) }
func (m *RequestReadMessage) MarshalPayload() ([]byte, error) { return m.marshal() }

// ResetMessage (type 0x04) resets one value to its default
type ResetMessage struct{ nameMessage }

// NewReset returns a reset request for name
func NewReset(name string) *ResetMessage {
	return &ResetMessage{nameMessage{Name: name}}
}

func (m *ResetMessage) Type() byte                      { return MsgTypeReset }
func (m *ResetMessage) String() string                  { return fmt.Sprintf("Reset{%s}", m.Name) }
func (m *ResetMessage) MarshalPayload() ([]byte, error) { return m.marshal() }

// DescribeMessage (type 0x05) asks for a definition descriptor
type DescribeMessage struct{ nameMessage }

// NewDescribe returns a describe request for name
func NewDescribe(name string) *DescribeMessage {
	return &DescribeMessage{nameMessage{Name: name}}
}

func (m *DescribeMessage) Type() byte                      { return MsgTypeDescribe }
func (m *DescribeMessage) String() string                  { return fmt.Sprintf("Describe{%s}", m.Name) }
func (m *DescribeMessage) MarshalPayload() ([]byte, error) { return m.marshal() }

// SetMessage (type 0x03) sets one value
//
//	[0-15]  name   NUL-padded
//	[16]    type   1 = float, 2 = int32, 3 = bool
//	[17]    flags  bit 0 = import semantics
//	[18-21] value  little-endian float32 bits or int32
type SetMessage struct {
	Name   string
	Value  param.Value
	Import bool
}

const setPayloadSize = NameSize + 1 + 1 + 4

func (m *SetMessage) Type() byte { return MsgTypeSet }

func (m *SetMessage) String() string {
	mode := "set"
	if m.Import {
		mode = "import"
	}
	return fmt.Sprintf("Set{%s=%s (%s), %s}", m.Name, m.Value, m.Value.Type(), mode)
}

func (m *SetMessage) MarshalPayload() ([]byte, error) {
	payload := make([]byte, setPayloadSize)
	if err := putName(payload, m.Name); err != nil {
		return nil, err
	}
	if !m.Value.Type().Valid() {
		return nil, fmt.Errorf("set %s: invalid value", m.Name)
	}
	payload[NameSize] = byte(m.Value.Type())
	if m.Import {
		payload[NameSize+1] |= SetFlagImport
	}
	binary.LittleEndian.PutUint32(payload[NameSize+2:], m.Value.Bits())
	return payload, nil
}

func parseSet(payload []byte) (*SetMessage, error) {
	if err := checkLen(payload, setPayloadSize, "Set"); err != nil {
		return nil, err
	}
	name, err := readName(payload)
	if err != nil {
		return nil, err
	}
	v, err := param.FromBits(param.Type(payload[NameSize]), binary.LittleEndian.Uint32(payload[NameSize+2:]))
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", name, err)
	}
	return &SetMessage{
		Name:   name,
		Value:  v,
		Import: payload[NameSize+1]&SetFlagImport != 0,
	}, nil
}

// ValueMessage (type 0x10) reports one parameter's current value
//
//	[0-15]  name     NUL-padded
//	[16]    type     1 = float, 2 = int32, 3 = bool
//	[17]    state    0 = default, 1 = modified
//	[18-19] index    registration index
//	[20-21] count    number of registered parameters
//	[22-25] changes  per-parameter change counter (low 32 bits)
//	[26-29] value    little-endian float32 bits or int32
type ValueMessage struct {
	Name    string
	Value   param.Value
	State   param.State
	Index   uint16
	Count   uint16
	Changes uint32
}

const valuePayloadSize = NameSize + 1 + 1 + 2 + 2 + 4 + 4

// MaxParams is the largest registry a Value count can describe
const MaxParams = math.MaxUint16

func (m *ValueMessage) Type() byte { return MsgTypeValue }

func (m *ValueMessage) String() string {
	return fmt.Sprintf("Value{%s=%s (%s), %s, %d/%d, changes=%d}",
		m.Name, m.Value, m.Value.Type(), m.State, m.Index+1, m.Count, m.Changes)
}

func (m *ValueMessage) MarshalPayload() ([]byte, error) {
	payload := make([]byte, valuePayloadSize)
	if err := putName(payload, m.Name); err != nil {
		return nil, err
	}
	if !m.Value.Type().Valid() {
		return nil, fmt.Errorf("value %s: invalid value", m.Name)
	}
	payload[NameSize] = byte(m.Value.Type())
	payload[NameSize+1] = byte(m.State)
	binary.LittleEndian.PutUint16(payload[NameSize+2:], m.Index)
	binary.LittleEndian.PutUint16(payload[NameSize+4:], m.Count)
	binary.LittleEndian.PutUint32(payload[NameSize+6:], m.Changes)
	binary.LittleEndian.PutUint32(payload[NameSize+10:], m.Value.Bits())
	return payload, nil
}

func parseValue(payload []byte) (*ValueMessage, error) {
	if err := checkLen(payload, valuePayloadSize, "Value"); err != nil {
		return nil, err
	}
	name, err := readName(payload)
	if err != nil {
		return nil, err
	}
	v, err := param.FromBits(param.Type(payload[NameSize]), binary.LittleEndian.Uint32(payload[NameSize+10:]))
	if err != nil {
		return nil, fmt.Errorf("value %s: %w", name, err)
	}
	state := param.State(payload[NameSize+1])
	if state != param.StateDefault && state != param.StateModified {
		return nil, fmt.Errorf("value %s: invalid state %d", name, state)
	}
	return &ValueMessage{
		Name:    name,
		Value:   v,
		State:   state,
		Index:   binary.LittleEndian.Uint16(payload[NameSize+2:]),
		Count:   binary.LittleEndian.Uint16(payload[NameSize+4:]),
		Changes: binary.LittleEndian.Uint32(payload[NameSize+6:]),
	}, nil
}

// AckMessage (type 0x11) reports the result of a request
//
//	[0]     code    AckCode
//	[1-16]  name    NUL-padded, all zero when the request had no name
//	[17]    n       detail length
//	[18+]   detail  UTF-8 text, n bytes
type AckMessage struct {
	Code   AckCode
	Name   string
	Detail string
}

const maxDetail = 255

func (m *AckMessage) Type() byte { return MsgTypeAck }

func (m *AckMessage) String() string {
	if m.Detail == "" {
		return fmt.Sprintf("Ack{%s, %s}", m.Code, m.Name)
	}
	return fmt.Sprintf("Ack{%s, %s: %s}", m.Code, m.Name, m.Detail)
}

func (m *AckMessage) MarshalPayload() ([]byte, error) {
	detail := m.Detail
	if len(detail) > maxDetail {
		detail = detail[:maxDetail]
	}
	payload := make([]byte, 1+NameSize+1+len(detail))
	payload[0] = byte(m.Code)
	if m.Name != "" {
		if err := putName(payload[1:], m.Name); err != nil {
			return nil, err
		}
	}
	payload[1+NameSize] = byte(len(detail))
	copy(payload[2+NameSize:], detail)
	return payload, nil
}

func parseAck(payload []byte) (*AckMessage, error) {
	if len(payload) < 2+NameSize {
		return nil, fmt.Errorf("Ack payload is %d bytes, want at least %d", len(payload), 2+NameSize)
	}
	m := &AckMessage{Code: AckCode(payload[0])}
	if payload[1] != 0 {
		name, err := readName(payload[1:])
		if err != nil {
			return nil, err
		}
		m.Name = name
	}
	n := int(payload[1+NameSize])
	if err := checkLen(payload, 2+NameSize+n, "Ack"); err != nil {
		return nil, err
	}
	m.Detail = string(payload[2+NameSize:])
	return m, nil
}

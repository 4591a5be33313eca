package protocol

import (
	"fmt"

	"github.com/muurk/mcparam/internal/param"
)

// AckCode is the result code of an Ack message. Codes 1-6 carry the
// registry's error types unchanged.
type AckCode byte

const (
	AckOK                AckCode = 0x00
	AckDuplicateName     AckCode = AckCode(param.ErrTypeDuplicateName)
	AckInvalidDefault    AckCode = AckCode(param.ErrTypeInvalidDefault)
	AckInvalidDefinition AckCode = AckCode(param.ErrTypeInvalidDefinition)
	AckUnknownParameter  AckCode = AckCode(param.ErrTypeUnknownParameter)
	AckTypeMismatch      AckCode = AckCode(param.ErrTypeTypeMismatch)
	AckOutOfRange        AckCode = AckCode(param.ErrTypeOutOfRange)

	// AckClamped means an import-semantics Set was applied at a bound
	AckClamped AckCode = 0x20
	// AckSkipped means an import-semantics Set was not applied for a reason
	// other than an unknown name or a type mismatch
	AckSkipped AckCode = 0x21
	// AckBadRequest means the request itself could not be decoded
	AckBadRequest AckCode = 0x22
)

// String returns a short name for the code
func (c AckCode) String() string {
	switch c {
	case AckOK:
		return "ok"
	case AckClamped:
		return "clamped"
	case AckSkipped:
		return "skipped"
	case AckBadRequest:
		return "bad request"
	}
	if et := param.ErrorType(c); c >= AckDuplicateName && c <= AckOutOfRange {
		return et.String()
	}
	return fmt.Sprintf("AckCode(0x%02x)", byte(c))
}

// Success reports whether the request took effect
func (c AckCode) Success() bool {
	return c == AckOK || c == AckClamped
}

// AckForError converts a registry error into an Ack. Errors that are not
// registry errors become AckBadRequest.
func AckForError(name string, err error) *AckMessage {
	if err == nil {
		return &AckMessage{Code: AckOK, Name: name}
	}
	pe, ok := param.AsError(err)
	if !ok {
		return &AckMessage{Code: AckBadRequest, Name: name, Detail: err.Error()}
	}
	return &AckMessage{Code: AckCode(pe.Type), Name: name, Detail: pe.Message}
}

// AckForWarning converts an import warning into an Ack. Unknown names and
// type mismatches keep their registry codes so the warning kind survives.
func AckForWarning(w param.Warning) *AckMessage {
	code := AckSkipped
	switch w.Kind {
	case param.WarnClamped:
		code = AckClamped
	case param.WarnUnknown:
		code = AckUnknownParameter
	case param.WarnTypeMismatch:
		code = AckTypeMismatch
	}
	return &AckMessage{Code: code, Name: w.Name, Detail: w.Message}
}

// Warning rebuilds the import warning an Ack reports. ok is false for AckOK.
func (m *AckMessage) Warning() (w param.Warning, ok bool) {
	w = param.Warning{Name: m.Name, Message: m.Detail}
	switch m.Code {
	case AckOK:
		return w, false
	case AckClamped:
		w.Kind = param.WarnClamped
	case AckUnknownParameter:
		w.Kind = param.WarnUnknown
	case AckTypeMismatch:
		w.Kind = param.WarnTypeMismatch
	default:
		w.Kind = param.WarnInvalid
	}
	return w, true
}

// Err rebuilds the registry error an Ack reports. It returns nil for
// successful codes.
func (m *AckMessage) Err() error {
	switch {
	case m.Code.Success():
		return nil
	case m.Code >= AckDuplicateName && m.Code <= AckOutOfRange:
		return &param.Error{
			Type:    param.ErrorType(m.Code),
			Name:    m.Name,
			Message: m.Detail,
		}
	default:
		return fmt.Errorf("%s: %s: %s", m.Code, m.Name, m.Detail)
	}
}

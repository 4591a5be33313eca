package param

import (
	"errors"
	"fmt"
)

// Error types for registry operations

// ErrorType represents the category of a registry error
type ErrorType int

const (
	// ErrTypeDuplicateName indicates a second registration of the same name (fatal)
	ErrTypeDuplicateName ErrorType = iota + 1
	// ErrTypeInvalidDefault indicates a default outside its own bounds or options (fatal)
	ErrTypeInvalidDefault
	// ErrTypeInvalidDefinition indicates any other malformed definition (fatal)
	ErrTypeInvalidDefinition
	// ErrTypeUnknownParameter indicates a lookup of a name that was never registered
	ErrTypeUnknownParameter
	// ErrTypeTypeMismatch indicates a value whose type differs from the definition
	ErrTypeTypeMismatch
	// ErrTypeOutOfRange indicates a value outside the declared bounds or options
	ErrTypeOutOfRange
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeDuplicateName:
		return "Duplicate Name"
	case ErrTypeInvalidDefault:
		return "Invalid Default"
	case ErrTypeInvalidDefinition:
		return "Invalid Definition"
	case ErrTypeUnknownParameter:
		return "Unknown Parameter"
	case ErrTypeTypeMismatch:
		return "Type Mismatch"
	case ErrTypeOutOfRange:
		return "Out Of Range"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Fatal reports whether errors of this type are registration-time defects
// that must abort startup.
func (et ErrorType) Fatal() bool {
	return et == ErrTypeDuplicateName || et == ErrTypeInvalidDefault || et == ErrTypeInvalidDefinition
}

// Bound identifies which constraint an OutOfRange error violated
type Bound int

const (
	BoundNone Bound = iota
	BoundMin
	BoundMax
	// BoundOption means the value is inside the range but not a declared option
	BoundOption
	// BoundFinite means a float value was NaN or infinite
	BoundFinite
)

// String returns the bound name used in messages and on the wire
func (b Bound) String() string {
	switch b {
	case BoundMin:
		return "min"
	case BoundMax:
		return "max"
	case BoundOption:
		return "option"
	case BoundFinite:
		return "finite"
	default:
		return "none"
	}
}

// Sentinels for errors.Is matching. A *Error matches the sentinel of its Type.
var (
	ErrDuplicateName     = &Error{Type: ErrTypeDuplicateName}
	ErrInvalidDefault    = &Error{Type: ErrTypeInvalidDefault}
	ErrInvalidDefinition = &Error{Type: ErrTypeInvalidDefinition}
	ErrUnknownParameter  = &Error{Type: ErrTypeUnknownParameter}
	ErrTypeMismatch      = &Error{Type: ErrTypeTypeMismatch}
	ErrOutOfRange        = &Error{Type: ErrTypeOutOfRange}
)

// Error is returned by every registry operation that fails
type Error struct {
	Type     ErrorType // Category of error
	Name     string    // Parameter name (empty for sentinels)
	Message  string    // Human-readable detail
	Expected Type      // Declared type (TypeMismatch)
	Got      Type      // Offered type (TypeMismatch)
	Bound    Bound     // Violated bound (OutOfRange, InvalidDefault)
	Limit    Value     // Value of the violated bound, zero for options
	Err      error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Type.String()
	if e.Name != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Name)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s (caused by: %v)", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by type, so errors.Is(err, ErrOutOfRange) works for
// any OutOfRange error regardless of name or message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Name == "" && t.Message == "" && t.Type == e.Type
}

func newDuplicateError(name string) *Error {
	return &Error{
		Type:    ErrTypeDuplicateName,
		Name:    name,
		Message: "parameter already registered",
	}
}

func newUnknownError(name string) *Error {
	return &Error{
		Type:    ErrTypeUnknownParameter,
		Name:    name,
		Message: "parameter not registered",
	}
}

func newDefinitionError(name, message string) *Error {
	return &Error{
		Type:    ErrTypeInvalidDefinition,
		Name:    name,
		Message: message,
	}
}

func newTypeMismatchError(name string, expected, got Type) *Error {
	return &Error{
		Type:     ErrTypeTypeMismatch,
		Name:     name,
		Message:  fmt.Sprintf("expected %s, got %s", expected, got),
		Expected: expected,
		Got:      got,
	}
}

func newRangeError(name string, v Value, bound Bound, limit Value) *Error {
	var msg string
	switch bound {
	case BoundMin:
		msg = fmt.Sprintf("%s is below min %s", v, limit)
	case BoundMax:
		msg = fmt.Sprintf("%s is above max %s", v, limit)
	case BoundOption:
		msg = fmt.Sprintf("%s is not a declared option", v)
	case BoundFinite:
		msg = fmt.Sprintf("%s is not a finite number", v)
	}
	return &Error{
		Type:    ErrTypeOutOfRange,
		Name:    name,
		Message: msg,
		Bound:   bound,
		Limit:   limit,
	}
}

// AsError extracts a *Error from an error chain
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsUnknown checks if an error is an UnknownParameter error
func IsUnknown(err error) bool {
	return errors.Is(err, ErrUnknownParameter)
}

// IsTypeMismatch checks if an error is a TypeMismatch error
func IsTypeMismatch(err error) bool {
	return errors.Is(err, ErrTypeMismatch)
}

// IsOutOfRange checks if an error is an OutOfRange error
func IsOutOfRange(err error) bool {
	return errors.Is(err, ErrOutOfRange)
}

// IsFatal checks if an error is a registration-time defect
func IsFatal(err error) bool {
	if pe, ok := AsError(err); ok {
		return pe.Type.Fatal()
	}
	return false
}

// GetShortErrorMessage returns a concise, user-facing message naming the
// violated constraint, for the tuning interface.
func GetShortErrorMessage(err error) string {
	pe, ok := AsError(err)
	if !ok {
		return err.Error()
	}

	switch pe.Type {
	case ErrTypeUnknownParameter:
		return fmt.Sprintf("No such parameter %s", pe.Name)
	case ErrTypeTypeMismatch:
		return fmt.Sprintf("%s expects a %s value (got %s)", pe.Name, pe.Expected, pe.Got)
	case ErrTypeOutOfRange:
		return fmt.Sprintf("%s: %s", pe.Name, pe.Message)
	default:
		return pe.Error()
	}
}

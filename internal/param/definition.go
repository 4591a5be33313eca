package param

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxNameLen is the longest parameter name the firmware parameter table and
// the tuning link can carry.
const MaxNameLen = 16

var namePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// Bounds is an inclusive [Min, Max] range of the parameter's type
type Bounds struct {
	Min Value
	Max Value
}

// FloatRange returns float bounds
func FloatRange(min, max float32) *Bounds {
	return &Bounds{Min: Float(min), Max: Float(max)}
}

// Int32Range returns int32 bounds
func Int32Range(min, max int32) *Bounds {
	return &Bounds{Min: Int32(min), Max: Int32(max)}
}

// Option is one named variant of a selector parameter
type Option struct {
	Value int32
	Label string
}

// Definition describes one parameter. It is immutable once registered.
type Definition struct {
	Name    string
	Type    Type
	Default Value
	Bounds  *Bounds // nil means unbounded

	Short     string // one-line title
	Long      string // description
	Unit      string
	Group     string
	Decimal   int     // display precision for floats
	Increment float32 // UI step, 0 when undeclared

	// Options lists the closed set of variants for selector parameters.
	// Only valid on int32 parameters.
	Options []Option
}

// Validate checks every construction rule of the definition.
// A default outside its own bounds or options is reported as InvalidDefault,
// everything else as InvalidDefinition.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return newDefinitionError(d.Name, "name is empty")
	}
	if len(d.Name) > MaxNameLen {
		return newDefinitionError(d.Name, fmt.Sprintf("name longer than %d characters", MaxNameLen))
	}
	if !namePattern.MatchString(d.Name) {
		return newDefinitionError(d.Name, "name must be upper case letters, digits and underscores")
	}
	if !d.Type.Valid() {
		return newDefinitionError(d.Name, fmt.Sprintf("invalid type %s", d.Type))
	}
	if d.Default.Type() != d.Type {
		return newDefinitionError(d.Name, fmt.Sprintf("default is %s, parameter is %s", d.Default.Type(), d.Type))
	}
	if !d.Default.finite() {
		return &Error{
			Type:    ErrTypeInvalidDefault,
			Name:    d.Name,
			Message: "default is not a finite number",
			Bound:   BoundFinite,
		}
	}

	if b := d.Bounds; b != nil {
		if d.Type == TypeBool {
			return newDefinitionError(d.Name, "bool parameters cannot declare bounds")
		}
		if b.Min.Type() != d.Type || b.Max.Type() != d.Type {
			return newDefinitionError(d.Name, fmt.Sprintf("bounds must be %s", d.Type))
		}
		if !b.Min.finite() || !b.Max.finite() {
			return newDefinitionError(d.Name, "bounds must be finite")
		}
		if b.Min.compare(b.Max) > 0 {
			return newDefinitionError(d.Name, fmt.Sprintf("min %s greater than max %s", b.Min, b.Max))
		}
	}

	if len(d.Options) > 0 {
		if d.Type != TypeInt32 {
			return newDefinitionError(d.Name, "options are only valid on int32 parameters")
		}
		seenValue := make(map[int32]bool, len(d.Options))
		seenLabel := make(map[string]bool, len(d.Options))
		for _, opt := range d.Options {
			if opt.Label == "" {
				return newDefinitionError(d.Name, fmt.Sprintf("option %d has no label", opt.Value))
			}
			if seenValue[opt.Value] {
				return newDefinitionError(d.Name, fmt.Sprintf("option value %d declared twice", opt.Value))
			}
			if seenLabel[opt.Label] {
				return newDefinitionError(d.Name, fmt.Sprintf("option label %q declared twice", opt.Label))
			}
			seenValue[opt.Value] = true
			seenLabel[opt.Label] = true
			if err := d.checkRange(Int32(opt.Value)); err != nil {
				return newDefinitionError(d.Name, fmt.Sprintf("option %d (%s) outside bounds", opt.Value, opt.Label))
			}
		}
	}

	if err := d.check(d.Default); err != nil {
		err.Type = ErrTypeInvalidDefault
		err.Message = "default " + err.Message
		return err
	}

	return nil
}

// check validates v against the definition. Type must already match.
func (d *Definition) check(v Value) *Error {
	if err := d.checkRange(v); err != nil {
		return err
	}
	if len(d.Options) > 0 {
		if _, ok := d.optionByValue(v.i); !ok {
			return newRangeError(d.Name, v, BoundOption, Value{})
		}
	}
	return nil
}

func (d *Definition) checkRange(v Value) *Error {
	if !v.finite() {
		return newRangeError(d.Name, v, BoundFinite, Value{})
	}
	if d.Type == TypeBool {
		// Bool values are 0 or 1 by construction.
		return nil
	}
	if b := d.Bounds; b != nil {
		if v.compare(b.Min) < 0 {
			return newRangeError(d.Name, v, BoundMin, b.Min)
		}
		if v.compare(b.Max) > 0 {
			return newRangeError(d.Name, v, BoundMax, b.Max)
		}
	}
	return nil
}

// clamp returns v limited to the definition's bounds and whether it changed
func (d *Definition) clamp(v Value) (Value, bool) {
	b := d.Bounds
	if b == nil {
		return v, false
	}
	if v.compare(b.Min) < 0 {
		return b.Min, true
	}
	if v.compare(b.Max) > 0 {
		return b.Max, true
	}
	return v, false
}

func (d *Definition) optionByValue(v int32) (Option, bool) {
	for _, opt := range d.Options {
		if opt.Value == v {
			return opt, true
		}
	}
	return Option{}, false
}

// OptionByLabel returns the option with the given label
func (d *Definition) OptionByLabel(label string) (Option, bool) {
	for _, opt := range d.Options {
		if opt.Label == label {
			return opt, true
		}
	}
	return Option{}, false
}

// OptionByValue returns the option with the given integer encoding
func (d *Definition) OptionByValue(v int32) (Option, bool) {
	return d.optionByValue(v)
}

// ParseText parses operator input for this parameter. Selectors also accept
// an option label.
func (d *Definition) ParseText(s string) (Value, error) {
	if opt, ok := d.OptionByLabel(strings.TrimSpace(s)); ok {
		return Int32(opt.Value), nil
	}
	return ParseValue(d.Type, s)
}

// IsSelector reports whether the parameter has named options
func (d *Definition) IsSelector() bool {
	return len(d.Options) > 0
}

// clone copies the definition so the registry owns its storage
func (d Definition) clone() *Definition {
	if d.Bounds != nil {
		b := *d.Bounds
		d.Bounds = &b
	}
	if d.Options != nil {
		d.Options = append([]Option(nil), d.Options...)
	}
	return &d
}

package param

import (
	"fmt"
	"strings"
)

// Record is one persisted parameter: name, type-tag and value.
// Value.Type() is the record's type-tag.
type Record struct {
	Name  string
	Value Value
}

// Type returns the record's type-tag
func (rec Record) Type() Type {
	return rec.Value.Type()
}

// ExportAll returns every parameter in registration order. Each value is a
// single atomic read; the export never blocks the control loop.
func (r *Registry) ExportAll() []Record {
	order := r.idx.Load().order
	out := make([]Record, len(order))
	for i, s := range order {
		out[i] = Record{Name: s.def.Name, Value: s.load()}
	}
	return out
}

// ExportModified returns only parameters that differ from their default,
// in registration order.
func (r *Registry) ExportModified() []Record {
	var out []Record
	for _, s := range r.idx.Load().order {
		bits := s.bits.Load()
		if bits != s.defBits {
			out = append(out, Record{Name: s.def.Name, Value: fromSlot(s.def.Type, bits)})
		}
	}
	return out
}

// WarningKind classifies an import warning
type WarningKind int

const (
	// WarnUnknown means the record names an unregistered parameter; it was skipped
	WarnUnknown WarningKind = iota
	// WarnTypeMismatch means the record's type-tag differs from the definition; it was skipped
	WarnTypeMismatch
	// WarnClamped means the value was outside the bounds and the nearest bound was applied
	WarnClamped
	// WarnInvalid means the value could not be applied (undeclared option, non-finite float); it was skipped
	WarnInvalid
)

// String returns a short name for the warning kind
func (k WarningKind) String() string {
	switch k {
	case WarnUnknown:
		return "unknown"
	case WarnTypeMismatch:
		return "type-mismatch"
	case WarnClamped:
		return "clamped"
	case WarnInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("WarningKind(%d)", k)
	}
}

// Warning reports one record that was not applied verbatim
type Warning struct {
	Name    string
	Kind    WarningKind
	Message string
	From    Value // offered value
	To      Value // applied value (clamped only)
}

// String formats the warning for logs and CLI output
func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Name, w.Kind, w.Message)
}

// ImportReport summarizes an ImportAll call
type ImportReport struct {
	Applied  []string // names applied, clamped ones included
	Warnings []Warning
}

// Skipped returns the number of records that were not applied
func (rep ImportReport) Skipped() int {
	n := 0
	for _, w := range rep.Warnings {
		if w.Kind != WarnClamped {
			n++
		}
	}
	return n
}

// Clamped returns the number of records applied at a bound
func (rep ImportReport) Clamped() int {
	return len(rep.Warnings) - rep.Skipped()
}

// OK reports whether every record was applied unchanged
func (rep ImportReport) OK() bool {
	return len(rep.Warnings) == 0
}

// String summarizes the report on one line
func (rep ImportReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "applied %d, clamped %d, skipped %d", len(rep.Applied), rep.Clamped(), rep.Skipped())
	return b.String()
}

// ImportAll applies records with set semantics, except that out-of-range
// values are clamped to the nearest bound instead of rejected. A bad record
// never stops the remaining ones from loading.
func (r *Registry) ImportAll(records []Record) ImportReport {
	var rep ImportReport
	for _, rec := range records {
		applied, warn := r.Import(rec)
		if applied {
			rep.Applied = append(rep.Applied, rec.Name)
		}
		if warn != nil {
			rep.Warnings = append(rep.Warnings, *warn)
		}
	}
	return rep
}

// Import applies one record with import semantics. It reports whether the
// record was applied and, if it was not applied verbatim, why.
func (r *Registry) Import(rec Record) (applied bool, warn *Warning) {
	s, err := r.lookup(rec.Name)
	if err != nil {
		return false, &Warning{
			Name:    rec.Name,
			Kind:    WarnUnknown,
			Message: "no such parameter, skipped",
			From:    rec.Value,
		}
	}

	v := rec.Value
	if v.Type() != s.def.Type {
		return false, &Warning{
			Name:    rec.Name,
			Kind:    WarnTypeMismatch,
			Message: fmt.Sprintf("expected %s, got %s, skipped", s.def.Type, v.Type()),
			From:    v,
		}
	}
	if !v.finite() {
		return false, &Warning{
			Name:    rec.Name,
			Kind:    WarnInvalid,
			Message: "not a finite number, skipped",
			From:    v,
		}
	}

	clamped, changed := s.def.clamp(v)
	if perr := s.def.check(clamped); perr != nil {
		return false, &Warning{
			Name:    rec.Name,
			Kind:    WarnInvalid,
			Message: perr.Message + ", skipped",
			From:    v,
		}
	}

	r.notify(r.publish(s, clamped, ChangeImport))

	if changed {
		return true, &Warning{
			Name:    rec.Name,
			Kind:    WarnClamped,
			Message: fmt.Sprintf("%s outside [%s, %s], clamped to %s", v, s.def.Bounds.Min, s.def.Bounds.Max, clamped),
			From:    v,
			To:      clamped,
		}
	}
	return true, nil
}

// Package param implements the typed parameter registry.
//
// A Definition declares one tunable value: its name, type, default, optional
// bounds and display metadata. Definitions are registered once at start-up;
// registration validates them and aborts on any defect (duplicate name,
// default outside its own bounds, malformed bounds). Each registered
// parameter then holds a current value that starts at the default.
//
// # Reading
//
// Get and the typed getters are safe to call from the control loop at any
// rate. They never take a lock: the name table is an immutable map behind an
// atomic pointer and every value is a single atomic 32-bit word, so a reader
// sees either the old or the new value, never a mix. For the hottest paths,
// resolve a FloatHandle, Int32Handle or BoolHandle once and call Get on it.
//
// # Writing
//
// Set rejects values of the wrong type (TypeMismatch) or outside the bounds
// (OutOfRange) and keeps the prior value. Successful writes bump a
// per-parameter change counter, so a consumer can ask "has X changed since
// counter C" without comparing values:
//
//	var seen uint64
//	changed, seen, err := reg.ChangedSince("MC_ROLL_P", seen)
//
// ResetToDefault always succeeds for a registered name.
//
// # Persistence
//
// ExportAll returns (name, value) records in registration order. ImportAll
// applies records with set semantics but clamps out-of-range values and skips
// unknown names, collecting a Warning for each instead of failing the load.
//
// # Errors
//
// Every failure is a *Error with an ErrorType. Use errors.Is with the
// sentinels (ErrOutOfRange, ErrUnknownParameter, ...) or the Is* helpers.
package param

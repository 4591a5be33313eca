package param

// Handles are resolved once, before the control loop starts, and then read
// on every iteration without a map lookup or lock.
//
//	roll, err := reg.FloatHandle("MC_ROLL_P")
//	if err != nil {
//	    return err
//	}
//	var seen uint64
//	for range ticker.C {
//	    if roll.Changed(&seen) {
//	        ctrl.SetRollGain(roll.Get())
//	    }
//	}

type handle struct {
	s *slot
}

// Name returns the parameter name
func (h handle) Name() string {
	return h.s.def.Name
}

// Changes returns the parameter's change counter
func (h handle) Changes() uint64 {
	return h.s.changes.Load()
}

// Changed reports whether the counter moved since *seen and updates *seen.
func (h handle) Changed(seen *uint64) bool {
	n := h.s.changes.Load()
	if n == *seen {
		return false
	}
	*seen = n
	return true
}

// FloatHandle reads a float parameter
type FloatHandle struct{ handle }

// Get returns the current value
func (h FloatHandle) Get() float32 {
	return h.s.load().f
}

// Int32Handle reads an int32 parameter
type Int32Handle struct{ handle }

// Get returns the current value
func (h Int32Handle) Get() int32 {
	return int32(h.s.bits.Load())
}

// BoolHandle reads a bool parameter
type BoolHandle struct{ handle }

// Get returns the current value
func (h BoolHandle) Get() bool {
	return h.s.bits.Load() != 0
}

func (r *Registry) handleFor(name string, t Type) (handle, error) {
	s, err := r.lookup(name)
	if err != nil {
		return handle{}, err
	}
	if s.def.Type != t {
		return handle{}, newTypeMismatchError(name, s.def.Type, t)
	}
	return handle{s: s}, nil
}

// FloatHandle resolves a float parameter for hot-path reads
func (r *Registry) FloatHandle(name string) (FloatHandle, error) {
	h, err := r.handleFor(name, TypeFloat)
	return FloatHandle{h}, err
}

// Int32Handle resolves an int32 parameter for hot-path reads
func (r *Registry) Int32Handle(name string) (Int32Handle, error) {
	h, err := r.handleFor(name, TypeInt32)
	return Int32Handle{h}, err
}

// BoolHandle resolves a bool parameter for hot-path reads
func (r *Registry) BoolHandle(name string) (BoolHandle, error) {
	h, err := r.handleFor(name, TypeBool)
	return BoolHandle{h}, err
}

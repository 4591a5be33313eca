package param

import (
	"errors"
	"sync"
	"testing"
)

func rollDef() Definition {
	return Definition{
		Name:      "MC_ROLL_P",
		Type:      TypeFloat,
		Default:   Float(6.5),
		Bounds:    FloatRange(0, 12),
		Short:     "Roll P gain",
		Unit:      "1/s",
		Group:     "Multicopter Attitude Control",
		Decimal:   2,
		Increment: 0.1,
	}
}

func modeDef() Definition {
	return Definition{
		Name:    "OMNI_ATT_MODE",
		Type:    TypeInt32,
		Default: Int32(0),
		Bounds:  Int32Range(0, 6),
		Options: []Option{
			{0, "tilted attitude"},
			{1, "min-tilt attitude"},
			{2, "constant zero tilt"},
			{3, "constant tilt"},
			{4, "constant roll/pitch"},
			{5, "estimate tilt"},
			{6, "estimate roll/pitch"},
		},
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	err := reg.RegisterAll([]Definition{
		rollDef(),
		modeDef(),
		{Name: "MC_BAT_SCALE_EN", Type: TypeBool, Default: Bool(false)},
		{Name: "MC_AIRMODE", Type: TypeInt32, Default: Int32(0)},
	})
	if err != nil {
		t.Fatalf("RegisterAll() error = %v", err)
	}
	return reg
}

func TestRegistry_GetAfterRegisterReturnsDefault(t *testing.T) {
	reg := newTestRegistry(t)

	for _, def := range reg.Definitions() {
		got, err := reg.Get(def.Name)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", def.Name, err)
		}
		if !got.Equal(def.Default) {
			t.Errorf("Get(%s) = %v, want default %v", def.Name, got, def.Default)
		}
		state, _ := reg.State(def.Name)
		if state != StateDefault {
			t.Errorf("State(%s) = %v, want default", def.Name, state)
		}
	}
}

func TestRegistry_RollGainScenario(t *testing.T) {
	reg := newTestRegistry(t)

	if err := reg.Set("MC_ROLL_P", Float(7.0)); err != nil {
		t.Fatalf("Set(7.0) error = %v", err)
	}
	if got, _ := reg.Float("MC_ROLL_P"); got != 7.0 {
		t.Errorf("Float() = %v, want 7.0", got)
	}

	err := reg.Set("MC_ROLL_P", Float(15.0))
	if !IsOutOfRange(err) {
		t.Fatalf("Set(15.0) error = %v, want OutOfRange", err)
	}
	pe, _ := AsError(err)
	if pe.Bound != BoundMax {
		t.Errorf("Bound = %v, want max", pe.Bound)
	}
	if !pe.Limit.Equal(Float(12)) {
		t.Errorf("Limit = %v, want 12", pe.Limit)
	}
	if got, _ := reg.Float("MC_ROLL_P"); got != 7.0 {
		t.Errorf("Float() after rejected set = %v, want 7.0", got)
	}

	if err := reg.ResetToDefault("MC_ROLL_P"); err != nil {
		t.Fatalf("ResetToDefault() error = %v", err)
	}
	if got, _ := reg.Float("MC_ROLL_P"); got != 6.5 {
		t.Errorf("Float() after reset = %v, want 6.5", got)
	}
}

func TestRegistry_AttitudeModeScenario(t *testing.T) {
	reg := newTestRegistry(t)

	if err := reg.Set("OMNI_ATT_MODE", Int32(3)); err != nil {
		t.Fatalf("Set(3) error = %v", err)
	}
	err := reg.Set("OMNI_ATT_MODE", Int32(9))
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("Set(9) error = %v, want OutOfRange", err)
	}
	opt, err := reg.Option("OMNI_ATT_MODE")
	if err != nil {
		t.Fatalf("Option() error = %v", err)
	}
	if opt.Value != 3 || opt.Label != "constant tilt" {
		t.Errorf("Option() = %+v, want 3/constant tilt", opt)
	}
}

func TestRegistry_SetRejections(t *testing.T) {
	tests := []struct {
		name      string
		param     string
		value     Value
		wantType  ErrorType
		wantBound Bound
	}{
		{"float below min", "MC_ROLL_P", Float(-0.1), ErrTypeOutOfRange, BoundMin},
		{"float above max", "MC_ROLL_P", Float(12.01), ErrTypeOutOfRange, BoundMax},
		{"int given to float", "MC_ROLL_P", Int32(7), ErrTypeTypeMismatch, BoundNone},
		{"bool given to int", "OMNI_ATT_MODE", Bool(true), ErrTypeTypeMismatch, BoundNone},
		{"int below min", "OMNI_ATT_MODE", Int32(-1), ErrTypeOutOfRange, BoundMin},
		{"unknown name", "MC_NOPE", Float(1), ErrTypeUnknownParameter, BoundNone},
		{"zero value", "MC_AIRMODE", Value{}, ErrTypeTypeMismatch, BoundNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newTestRegistry(t)
			var before Value
			if tt.wantType != ErrTypeUnknownParameter {
				before, _ = reg.Get(tt.param)
			}

			err := reg.Set(tt.param, tt.value)
			pe, ok := AsError(err)
			if !ok {
				t.Fatalf("Set() error = %v, want *Error", err)
			}
			if pe.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", pe.Type, tt.wantType)
			}
			if pe.Bound != tt.wantBound {
				t.Errorf("Bound = %v, want %v", pe.Bound, tt.wantBound)
			}

			if tt.wantType != ErrTypeUnknownParameter {
				after, _ := reg.Get(tt.param)
				if !after.Equal(before) {
					t.Errorf("value changed to %v after rejected set", after)
				}
				if n, _ := reg.ChangeCount(tt.param); n != 0 {
					t.Errorf("ChangeCount = %d after rejected set, want 0", n)
				}
			}
		})
	}
}

func TestRegistry_SetWithinBoundsRoundTrips(t *testing.T) {
	reg := newTestRegistry(t)

	for _, v := range []float32{0, 0.1, 3.25, 6.5, 11.99, 12} {
		if err := reg.Set("MC_ROLL_P", Float(v)); err != nil {
			t.Fatalf("Set(%v) error = %v", v, err)
		}
		got, _ := reg.Get("MC_ROLL_P")
		if !got.Equal(Float(v)) {
			t.Errorf("Get() = %v, want %v", got, v)
		}
	}
}

func TestRegistry_RejectsNonFiniteFloat(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(Definition{Name: "MC_FREE", Type: TypeFloat, Default: Float(1)})

	nan, _ := FromBits(TypeFloat, 0x7fc00000)
	err := reg.Set("MC_FREE", nan)
	pe, ok := AsError(err)
	if !ok || pe.Bound != BoundFinite {
		t.Fatalf("Set(NaN) error = %v, want OutOfRange finite", err)
	}
}

func TestRegistry_SelectorRejectsUndeclaredOption(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(Definition{
		Name:    "MC_SPARSE",
		Type:    TypeInt32,
		Default: Int32(0),
		Bounds:  Int32Range(0, 10),
		Options: []Option{{0, "off"}, {5, "half"}, {10, "full"}},
	})

	err := reg.Set("MC_SPARSE", Int32(3))
	pe, ok := AsError(err)
	if !ok || pe.Bound != BoundOption {
		t.Fatalf("Set(3) error = %v, want OutOfRange option", err)
	}

	if err := reg.SetOption("MC_SPARSE", "half"); err != nil {
		t.Fatalf("SetOption(half) error = %v", err)
	}
	if v, _ := reg.Int32("MC_SPARSE"); v != 5 {
		t.Errorf("Int32() = %d, want 5", v)
	}
	if err := reg.SetOption("MC_SPARSE", "double"); !IsOutOfRange(err) {
		t.Errorf("SetOption(double) error = %v, want OutOfRange", err)
	}
}

func TestRegistry_OptionOnPlainParameter(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.Option("MC_AIRMODE")
	if !IsTypeMismatch(err) {
		t.Errorf("Option() error = %v, want TypeMismatch", err)
	}
}

func TestRegistry_TypedGettersCheckType(t *testing.T) {
	reg := newTestRegistry(t)

	if _, err := reg.Int32("MC_ROLL_P"); !IsTypeMismatch(err) {
		t.Errorf("Int32(float param) error = %v, want TypeMismatch", err)
	}
	if _, err := reg.Bool("OMNI_ATT_MODE"); !IsTypeMismatch(err) {
		t.Errorf("Bool(int param) error = %v, want TypeMismatch", err)
	}
	if _, err := reg.Float("NOPE"); !IsUnknown(err) {
		t.Errorf("Float(unknown) error = %v, want UnknownParameter", err)
	}
	if b, err := reg.Bool("MC_BAT_SCALE_EN"); err != nil || b {
		t.Errorf("Bool() = %v, %v, want false, nil", b, err)
	}
}

func TestRegistry_StateTransitions(t *testing.T) {
	reg := newTestRegistry(t)

	steps := []struct {
		op   func() error
		want State
	}{
		{func() error { return reg.Set("MC_ROLL_P", Float(8)) }, StateModified},
		{func() error { return reg.Set("MC_ROLL_P", Float(6.5)) }, StateDefault},
		{func() error { return reg.Set("MC_ROLL_P", Float(1)) }, StateModified},
		{func() error { return reg.ResetToDefault("MC_ROLL_P") }, StateDefault},
	}

	for i, step := range steps {
		if err := step.op(); err != nil {
			t.Fatalf("step %d error = %v", i, err)
		}
		if got, _ := reg.State("MC_ROLL_P"); got != step.want {
			t.Errorf("step %d: State = %v, want %v", i, got, step.want)
		}
	}
}

func TestRegistry_ChangeCounters(t *testing.T) {
	reg := newTestRegistry(t)

	c0, _ := reg.ChangeCount("MC_ROLL_P")
	gen0 := reg.Generation()

	_ = reg.Set("MC_ROLL_P", Float(7))
	_ = reg.Set("MC_ROLL_P", Float(99)) // rejected
	_ = reg.ResetToDefault("MC_ROLL_P")

	changed, c, err := reg.ChangedSince("MC_ROLL_P", c0)
	if err != nil {
		t.Fatalf("ChangedSince() error = %v", err)
	}
	if !changed || c != c0+2 {
		t.Errorf("ChangedSince = %v, %d, want true, %d", changed, c, c0+2)
	}
	if changed, _, _ := reg.ChangedSince("MC_ROLL_P", c); changed {
		t.Error("ChangedSince(current) = true, want false")
	}
	if other, _ := reg.ChangeCount("OMNI_ATT_MODE"); other != 0 {
		t.Errorf("unrelated ChangeCount = %d, want 0", other)
	}
	if reg.Generation() != gen0+2 {
		t.Errorf("Generation = %d, want %d", reg.Generation(), gen0+2)
	}
	if _, _, err := reg.ChangedSince("NOPE", 0); !IsUnknown(err) {
		t.Errorf("ChangedSince(unknown) error = %v, want UnknownParameter", err)
	}
}

func TestRegistry_ResetUnknown(t *testing.T) {
	reg := newTestRegistry(t)
	if err := reg.ResetToDefault("NOPE"); !IsUnknown(err) {
		t.Errorf("ResetToDefault(unknown) error = %v, want UnknownParameter", err)
	}
}

func TestRegistry_ResetAll(t *testing.T) {
	reg := newTestRegistry(t)
	_ = reg.Set("MC_ROLL_P", Float(1))
	_ = reg.Set("OMNI_ATT_MODE", Int32(4))
	_ = reg.Set("MC_BAT_SCALE_EN", Bool(true))

	reg.ResetAll()

	if mod := reg.ExportModified(); len(mod) != 0 {
		t.Errorf("ExportModified after ResetAll = %v, want empty", mod)
	}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	reg := newTestRegistry(t)

	err := reg.Register(rollDef())
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("Register(duplicate) error = %v, want DuplicateName", err)
	}
	if !IsFatal(err) {
		t.Error("DuplicateName should be fatal")
	}
}

func TestRegistry_RegisterAllIsAtomic(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister(rollDef())

	err := reg.RegisterAll([]Definition{
		{Name: "MC_PITCH_P", Type: TypeFloat, Default: Float(6.5), Bounds: FloatRange(0, 12)},
		{Name: "MC_YAW_P", Type: TypeFloat, Default: Float(20), Bounds: FloatRange(0, 5)},
	})
	if !errors.Is(err, ErrInvalidDefault) {
		t.Fatalf("RegisterAll() error = %v, want InvalidDefault", err)
	}
	if reg.Len() != 1 {
		t.Errorf("Len = %d after failed batch, want 1", reg.Len())
	}
	if _, err := reg.Get("MC_PITCH_P"); !IsUnknown(err) {
		t.Errorf("MC_PITCH_P registered from failed batch")
	}

	err = reg.RegisterAll([]Definition{
		{Name: "MC_A", Type: TypeInt32, Default: Int32(1)},
		{Name: "MC_A", Type: TypeInt32, Default: Int32(2)},
	})
	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("RegisterAll(dup in batch) error = %v, want DuplicateName", err)
	}
	if reg.Len() != 1 {
		t.Errorf("Len = %d after duplicate batch, want 1", reg.Len())
	}
}

func TestRegistry_MustRegisterPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustRegister with invalid default did not panic")
		}
	}()
	NewRegistry().MustRegister(Definition{Name: "MC_X", Type: TypeFloat, Default: Float(2), Bounds: FloatRange(0, 1)})
}

func TestRegistry_DefinitionsAreCopies(t *testing.T) {
	reg := newTestRegistry(t)

	def, err := reg.Lookup("OMNI_ATT_MODE")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	def.Options[0].Label = "mutated"
	def.Bounds.Max = Int32(100)

	if err := reg.Set("OMNI_ATT_MODE", Int32(50)); !IsOutOfRange(err) {
		t.Errorf("registry bounds changed through Lookup copy")
	}
	again, _ := reg.Lookup("OMNI_ATT_MODE")
	if again.Options[0].Label != "tilted attitude" {
		t.Errorf("registry options changed through Lookup copy")
	}
}

func TestRegistry_RegistrationOrder(t *testing.T) {
	reg := newTestRegistry(t)

	want := []string{"MC_ROLL_P", "OMNI_ATT_MODE", "MC_BAT_SCALE_EN", "MC_AIRMODE"}
	got := reg.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, got[i], want[i])
		}
		if idx, _ := reg.IndexOf(want[i]); idx != i {
			t.Errorf("IndexOf(%s) = %d, want %d", want[i], idx, i)
		}
	}
}

func TestRegistry_Watch(t *testing.T) {
	reg := newTestRegistry(t)

	var mu sync.Mutex
	var changes []Change
	cancel := reg.Watch(func(c Change) {
		mu.Lock()
		changes = append(changes, c)
		mu.Unlock()
	})

	_ = reg.Set("MC_ROLL_P", Float(7))
	_ = reg.Set("MC_ROLL_P", Float(70)) // rejected, no notification
	_ = reg.ResetToDefault("MC_ROLL_P")
	cancel()
	_ = reg.Set("MC_ROLL_P", Float(8))

	mu.Lock()
	defer mu.Unlock()
	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}
	if changes[0].Kind != ChangeSet || !changes[0].Old.Equal(Float(6.5)) || !changes[0].New.Equal(Float(7)) {
		t.Errorf("first change = %+v", changes[0])
	}
	if changes[1].Kind != ChangeReset || changes[1].Changes != 2 {
		t.Errorf("second change = %+v", changes[1])
	}
}

func TestHandles(t *testing.T) {
	reg := newTestRegistry(t)

	roll, err := reg.FloatHandle("MC_ROLL_P")
	if err != nil {
		t.Fatalf("FloatHandle() error = %v", err)
	}
	mode, err := reg.Int32Handle("OMNI_ATT_MODE")
	if err != nil {
		t.Fatalf("Int32Handle() error = %v", err)
	}
	scale, err := reg.BoolHandle("MC_BAT_SCALE_EN")
	if err != nil {
		t.Fatalf("BoolHandle() error = %v", err)
	}

	var seen uint64
	if roll.Changed(&seen) {
		t.Error("Changed() = true before any set")
	}

	_ = reg.Set("MC_ROLL_P", Float(9.5))
	_ = reg.Set("OMNI_ATT_MODE", Int32(2))
	_ = reg.Set("MC_BAT_SCALE_EN", Bool(true))

	if roll.Get() != 9.5 || mode.Get() != 2 || !scale.Get() {
		t.Errorf("handles = %v, %v, %v", roll.Get(), mode.Get(), scale.Get())
	}
	if !roll.Changed(&seen) || seen != 1 {
		t.Errorf("Changed() after set: seen = %d", seen)
	}
	if roll.Changed(&seen) {
		t.Error("Changed() reported the same change twice")
	}
	if roll.Name() != "MC_ROLL_P" {
		t.Errorf("Name() = %s", roll.Name())
	}

	if _, err := reg.FloatHandle("OMNI_ATT_MODE"); !IsTypeMismatch(err) {
		t.Errorf("FloatHandle(int param) error = %v, want TypeMismatch", err)
	}
	if _, err := reg.BoolHandle("NOPE"); !IsUnknown(err) {
		t.Errorf("BoolHandle(unknown) error = %v, want UnknownParameter", err)
	}
}

func BenchmarkGet(b *testing.B) {
	reg := NewRegistry()
	reg.MustRegister(rollDef())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = reg.Get("MC_ROLL_P")
	}
}

func BenchmarkFloatHandleGet(b *testing.B) {
	reg := NewRegistry()
	reg.MustRegister(rollDef())
	h, _ := reg.FloatHandle("MC_ROLL_P")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = h.Get()
	}
}

package param

import (
	"math"
	"testing"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		in      string
		want    Value
		wantErr bool
	}{
		{"float", TypeFloat, "6.5", Float(6.5), false},
		{"float integral", TypeFloat, "12", Float(12), false},
		{"float negative", TypeFloat, " -360 ", Float(-360), false},
		{"float garbage", TypeFloat, "six", Value{}, true},
		{"int32", TypeInt32, "3", Int32(3), false},
		{"int32 fractional", TypeInt32, "3.5", Value{}, true},
		{"int32 overflow", TypeInt32, "4294967296", Value{}, true},
		{"bool true", TypeBool, "true", Bool(true), false},
		{"bool one", TypeBool, "1", Bool(true), false},
		{"bool off", TypeBool, "off", Bool(false), false},
		{"bool garbage", TypeBool, "maybe", Value{}, true},
		{"invalid type", TypeInvalid, "1", Value{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(tt.typ, tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueStringParsesBack(t *testing.T) {
	values := []Value{Float(0.15), Float(-90), Float(1800), Int32(-7), Int32(6), Bool(true), Bool(false)}
	for _, v := range values {
		back, err := ParseValue(v.Type(), v.String())
		if err != nil {
			t.Fatalf("ParseValue(%s) error = %v", v, err)
		}
		if !back.Equal(v) {
			t.Errorf("ParseValue(%s) = %v", v, back)
		}
	}
}

func TestValueFormat(t *testing.T) {
	if got := Float(6.5).Format(2); got != "6.50" {
		t.Errorf("Format(2) = %q, want 6.50", got)
	}
	if got := Int32(3).Format(2); got != "3" {
		t.Errorf("Int32 Format(2) = %q, want 3", got)
	}
	if got := (Value{}).String(); got != "<invalid>" {
		t.Errorf("zero String() = %q", got)
	}
}

func TestBitsRoundTrip(t *testing.T) {
	values := []Value{Float(6.5), Float(-0.25), Int32(-1), Int32(math.MaxInt32), Bool(true), Bool(false)}
	for _, v := range values {
		back, err := FromBits(v.Type(), v.Bits())
		if err != nil {
			t.Fatalf("FromBits(%s) error = %v", v, err)
		}
		if !back.Equal(v) {
			t.Errorf("FromBits(%s) = %v", v, back)
		}
	}

	if _, err := FromBits(TypeBool, 2); err == nil {
		t.Error("FromBits(bool, 2) should fail")
	}
	if _, err := FromBits(TypeInvalid, 0); err == nil {
		t.Error("FromBits(invalid) should fail")
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name    string
		typ     Type
		raw     any
		want    Value
		wantErr bool
	}{
		{"float from float64", TypeFloat, 6.5, Float(6.5), false},
		{"float from int", TypeFloat, 12, Float(12), false},
		{"int from int", TypeInt32, 3, Int32(3), false},
		{"int from integral float", TypeInt32, float64(4), Int32(4), false},
		{"int from fractional float", TypeInt32, 4.5, Value{}, true},
		{"int from huge float", TypeInt32, 1e12, Value{}, true},
		{"int from huge int", TypeInt32, int64(1) << 40, Value{}, true},
		{"bool from bool", TypeBool, true, Bool(true), false},
		{"bool from int", TypeBool, 0, Bool(false), false},
		{"bool from 2", TypeBool, 2, Value{}, true},
		{"float from bool", TypeFloat, true, Value{}, true},
		{"float from string", TypeFloat, "0.8", Float(0.8), false},
		{"value passthrough", TypeInt32, Int32(5), Int32(5), false},
		{"value wrong type", TypeInt32, Float(5), Value{}, true},
		{"nil", TypeFloat, nil, Value{}, true},
		{"unsupported", TypeFloat, []int{1}, Value{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Coerce(tt.typ, tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Coerce() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("Coerce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	for tag, want := range map[string]Type{"float": TypeFloat, "int32": TypeInt32, "INT": TypeInt32, "bool": TypeBool} {
		got, err := ParseType(tag)
		if err != nil || got != want {
			t.Errorf("ParseType(%q) = %v, %v, want %v", tag, got, err, want)
		}
	}
	if _, err := ParseType("double"); err == nil {
		t.Error("ParseType(double) should fail")
	}
	for _, typ := range []Type{TypeFloat, TypeInt32, TypeBool} {
		back, err := ParseType(typ.String())
		if err != nil || back != typ {
			t.Errorf("ParseType(%s) = %v, %v", typ, back, err)
		}
	}
}

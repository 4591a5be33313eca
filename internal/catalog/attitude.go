package catalog

import (
	"fmt"

	"github.com/muurk/mcparam/internal/param"
)

// Parameter groups
const (
	GroupAttitude = "Multicopter Attitude Control"
	GroupPosition = "Multicopter Position Control"
)

// Parameter names of the attitude-control table
const (
	RollP         = "MC_ROLL_P"
	PitchP        = "MC_PITCH_P"
	YawP          = "MC_YAW_P"
	YawWeight     = "MC_YAW_WEIGHT"
	RollRateMax   = "MC_ROLLRATE_MAX"
	PitchRateMax  = "MC_PITCHRATE_MAX"
	YawRateMax    = "MC_YAWRATE_MAX"
	RattThreshold = "MC_RATT_TH"
	ManTiltTau    = "MC_MAN_TILT_TAU"
	DFCMaxThrust  = "OMNI_DFC_MAX_THR"
	AttMode       = "OMNI_ATT_MODE"
	AttTiltAngle  = "OMNI_ATT_TLT_ANG"
	AttTiltDir    = "OMNI_ATT_TLT_DIR"
	AttRoll       = "OMNI_ATT_ROLL"
	AttPitch      = "OMNI_ATT_PITCH"
)

// AttitudeMode selects how the attitude setpoint is generated for
// omnidirectional vehicles. Its integer encoding is the OMNI_ATT_MODE value.
type AttitudeMode int32

const (
	ModeTilted AttitudeMode = iota
	ModeMinTilt
	ModeZeroTilt
	ModeConstantTilt
	ModeConstantRollPitch
	ModeEstimateTilt
	ModeEstimateRollPitch
)

var modeLabels = [...]string{
	ModeTilted:            "tilted attitude",
	ModeMinTilt:           "min-tilt attitude",
	ModeZeroTilt:          "constant zero tilt",
	ModeConstantTilt:      "constant tilt",
	ModeConstantRollPitch: "constant roll/pitch",
	ModeEstimateTilt:      "estimate tilt",
	ModeEstimateRollPitch: "estimate roll/pitch",
}

// String returns the mode label
func (m AttitudeMode) String() string {
	if m < 0 || int(m) >= len(modeLabels) {
		return fmt.Sprintf("AttitudeMode(%d)", int32(m))
	}
	return modeLabels[m]
}

// Valid reports whether m is a declared mode
func (m AttitudeMode) Valid() bool {
	return m >= 0 && int(m) < len(modeLabels)
}

// Omnidirectional reports whether the mode only makes sense for vehicles
// that can produce horizontal thrust without tilting.
func (m AttitudeMode) Omnidirectional() bool {
	return m != ModeTilted
}

// CurrentMode reads OMNI_ATT_MODE as an AttitudeMode
func CurrentMode(reg *param.Registry) (AttitudeMode, error) {
	v, err := reg.Int32(AttMode)
	if err != nil {
		return 0, err
	}
	return AttitudeMode(v), nil
}

// SetMode writes OMNI_ATT_MODE
func SetMode(reg *param.Registry, m AttitudeMode) error {
	return reg.Set(AttMode, param.Int32(int32(m)))
}

func modeOptions() []param.Option {
	opts := make([]param.Option, len(modeLabels))
	for i, label := range modeLabels {
		opts[i] = param.Option{Value: int32(i), Label: label}
	}
	return opts
}

func gain(name, short, long string, def, max float32) param.Definition {
	return param.Definition{
		Name:      name,
		Type:      param.TypeFloat,
		Default:   param.Float(def),
		Bounds:    param.FloatRange(0, max),
		Short:     short,
		Long:      long,
		Unit:      "1/s",
		Group:     GroupAttitude,
		Decimal:   2,
		Increment: 0.1,
	}
}

func rateLimit(name, short, long string, def float32) param.Definition {
	return param.Definition{
		Name:      name,
		Type:      param.TypeFloat,
		Default:   param.Float(def),
		Bounds:    param.FloatRange(0, 1800),
		Short:     short,
		Long:      long,
		Unit:      "deg/s",
		Group:     GroupAttitude,
		Decimal:   1,
		Increment: 5,
	}
}

func angle(name, short, long string, def, min, max float32) param.Definition {
	return param.Definition{
		Name:    name,
		Type:    param.TypeFloat,
		Default: param.Float(def),
		Bounds:  param.FloatRange(min, max),
		Short:   short,
		Long:    long,
		Unit:    "deg",
		Group:   GroupAttitude,
		Decimal: 2,
	}
}

// AttitudeControl returns the multicopter attitude-control declaration table
// in registration order. Each call returns fresh definitions.
func AttitudeControl() []param.Definition {
	rateLong := "Limit for %s rate in manual and auto modes (except acro). " +
		"Has effect for large rotations in autonomous mode, to avoid large control output and mixer saturation."

	return []param.Definition{
		gain(RollP, "Roll P gain",
			"Roll proportional gain, i.e. desired angular speed in rad/s for error 1 rad.", 6.5, 12),
		gain(PitchP, "Pitch P gain",
			"Pitch proportional gain, i.e. desired angular speed in rad/s for error 1 rad.", 6.5, 12),
		gain(YawP, "Yaw P gain",
			"Yaw proportional gain, i.e. desired angular speed in rad/s for error 1 rad.", 2.8, 5),
		gain(YawWeight, "Yaw weight",
			"A fraction [0,1] deprioritizing yaw compared to roll and pitch in non-linear attitude control. "+
				"For yaw control tuning use MC_YAW_P. This ratio has no impact on the yaw gain.", 0.4, 1),
		rateLimit(RollRateMax, "Max roll rate", fmt.Sprintf(rateLong, "roll"), 220),
		rateLimit(PitchRateMax, "Max pitch rate", fmt.Sprintf(rateLong, "pitch"), 220),
		rateLimit(YawRateMax, "Max yaw rate", "", 200),
		{
			Name:      RattThreshold,
			Type:      param.TypeFloat,
			Default:   param.Float(0.8),
			Bounds:    param.FloatRange(0, 1),
			Short:     "Threshold for Rattitude mode",
			Long:      "Manual input needed in order to override attitude control rate setpoints and instead pass manual stick inputs as rate setpoints.",
			Group:     GroupAttitude,
			Decimal:   2,
			Increment: 0.01,
		},
		{
			Name:    ManTiltTau,
			Type:    param.TypeFloat,
			Default: param.Float(0),
			Bounds:  param.FloatRange(0, 2),
			Short:   "Manual tilt input filter time constant",
			Long:    "Setting this parameter to 0 disables the filter.",
			Unit:    "s",
			Group:   GroupPosition,
			Decimal: 2,
		},
		{
			Name:    DFCMaxThrust,
			Type:    param.TypeFloat,
			Default: param.Float(0.15),
			Bounds:  param.FloatRange(0, 1),
			Short:   "Maximum direct-force (horizontal) scaled thrust for omnidirectional vehicles",
			Long: "Maximum horizontal thrust compared to the maximum possible thrust of an omnidirectional multirotor. " +
				"Has no effect unless OMNI_ATT_MODE selects an omnidirectional mode.",
			Group:   GroupAttitude,
			Decimal: 2,
		},
		{
			Name:    AttMode,
			Type:    param.TypeInt32,
			Default: param.Int32(int32(ModeTilted)),
			Bounds:  param.Int32Range(0, int32(ModeEstimateRollPitch)),
			Short:   "Omni-directional attitude setpoint mode",
			Long: "Type of attitude setpoint sent to the attitude controller. Tilted attitude derives roll and pitch from the thrust vector; " +
				"the other modes are for omnidirectional vehicles only.",
			Group:   GroupAttitude,
			Options: modeOptions(),
		},
		angle(AttTiltAngle, "Omni-directional attitude setpoint tilt angle",
			"Tilt angle for the constant-tilt setpoint mode (OMNI_ATT_MODE=3).", 15, 0, 90),
		angle(AttTiltDir, "Omni-directional attitude setpoint tilt direction angle",
			"Direction of the tilt for the constant-tilt setpoint mode (OMNI_ATT_MODE=3), measured from North.", 0, -360, 360),
		angle(AttRoll, "Omni-directional attitude setpoint roll angle",
			"Roll angle for the constant-roll/pitch setpoint mode (OMNI_ATT_MODE=4).", 0, -90, 90),
		angle(AttPitch, "Omni-directional attitude setpoint pitch angle",
			"Pitch angle for the constant-roll/pitch setpoint mode (OMNI_ATT_MODE=4).", 0, -90, 90),
	}
}

// Register adds the attitude-control table to reg
func Register(reg *param.Registry) error {
	if err := reg.RegisterAll(AttitudeControl()); err != nil {
		return fmt.Errorf("register attitude control parameters: %w", err)
	}
	return nil
}

package reachyhal

import "math"

// DynamixelVariant bundles the motion-envelope constants that distinguish one
// Dynamixel model family from another. It is a plain data value, not a
// type hierarchy: the motor's own Variant field picks which constants to
// convert with, no dynamic dispatch in the hot path.
type DynamixelVariant struct {
	Name      string
	MaxAngle  float64 // radians, full travel of the position register
	MaxRaw    int     // raw position values are in [0, MaxRaw-1]
	ProtocolV int     // 1 or 2, selects the register address map
}

var (
	VariantMX106 = DynamixelVariant{Name: "MX106", MaxAngle: 2 * math.Pi, MaxRaw: 4096, ProtocolV: 2}
	VariantMX64  = DynamixelVariant{Name: "MX64", MaxAngle: 2 * math.Pi, MaxRaw: 4096, ProtocolV: 2}
	VariantMX28  = DynamixelVariant{Name: "MX28", MaxAngle: 2 * math.Pi, MaxRaw: 4096, ProtocolV: 2}
	VariantAX18  = DynamixelVariant{Name: "AX18", MaxAngle: 5 * math.Pi / 3, MaxRaw: 1024, ProtocolV: 1}
	VariantXL320 = DynamixelVariant{Name: "XL320", MaxAngle: 5 * math.Pi / 3, MaxRaw: 1024, ProtocolV: 1}
)

// PositionFromRaw converts a raw position register value to radians, applying
// the motor's per-joint offset and direction. Raw to radian is a linear
// map centered on MaxAngle/2.
func PositionFromRaw(raw int, v DynamixelVariant, offsetRad float64, direct bool) float64 {
	usi := (v.MaxAngle*float64(raw))/float64(v.MaxRaw-1) - v.MaxAngle/2
	if !direct {
		usi = -usi
	}
	return usi - offsetRad
}

// PositionToRaw is the inverse of PositionFromRaw, rounding to the nearest
// integer and clipping to [0, MaxRaw-1].
func PositionToRaw(usi float64, v DynamixelVariant, offsetRad float64, direct bool) int {
	usi += offsetRad
	if !direct {
		usi = -usi
	}
	raw := int(math.Round(float64(v.MaxRaw-1) * ((v.MaxAngle/2 + usi) / v.MaxAngle)))
	return clampInt(raw, 0, v.MaxRaw-1)
}

// SpeedFromRaw converts a raw moving_speed register value (units of 0.114
// rpm, clockwise flag in bit 10) to rad/s. Values above 1023 mean clockwise
// rotation: the magnitude is raw minus the sign bit's 1024.
func SpeedFromRaw(raw int) float64 {
	clockwise := raw > 1023
	magnitude := raw
	if clockwise {
		magnitude = raw - 1024
	}
	rpm := float64(magnitude) * 0.114
	radPerSec := rpm * 2 * math.Pi / 60
	if clockwise {
		return -radPerSec
	}
	return radPerSec
}

// SpeedToRaw converts a non-negative rad/s goal speed to the raw
// moving_speed encoding, clipped to [0, 1023]. Input must be >= 0;
// negative direction is expressed by the caller's sign convention
// elsewhere, not by this register.
func SpeedToRaw(radPerSec float64) int {
	if radPerSec < 0 {
		radPerSec = 0
	}
	rpm := radPerSec * 60 / (2 * math.Pi)
	raw := int(math.Round(rpm / 0.114))
	return clampInt(raw, 0, 1023)
}

// TorqueLimitFromRaw converts a raw torque_limit register value (units of
// 10.23) to percent.
func TorqueLimitFromRaw(raw int) float64 {
	return float64(raw) / 10.23
}

// TorqueLimitToRaw converts a percent torque limit to raw units of 10.23,
// clipped to [0, 1023].
func TorqueLimitToRaw(percent float64) int {
	return clampInt(int(math.Round(percent*10.23)), 0, 1023)
}

// TemperatureFromRaw converts a raw temperature byte to degrees Celsius (the
// register already stores whole degrees).
func TemperatureFromRaw(raw int) float64 {
	return float64(clampInt(raw, 0, 255))
}

// TemperatureToRaw clips a Celsius value into the raw byte range.
func TemperatureToRaw(celsius float64) int {
	return clampInt(int(math.Round(celsius)), 0, 255)
}

// TorqueEnableFromRaw converts the 0/1 torque_enable byte to a bool.
func TorqueEnableFromRaw(raw int) bool {
	return raw != 0
}

// TorqueEnableToRaw converts a bool to the 0/1 torque_enable byte.
func TorqueEnableToRaw(enabled bool) int {
	if enabled {
		return 1
	}
	return 0
}

// Orbita disk geometry: raw is a signed 32-bit encoder count,
// usi = 2*pi*count/resolution/reduction.
const (
	orbitaResolution = 4096.0
	orbitaReduction  = 52.0 / 24.0
)

// OrbitaPositionFromRaw converts a raw disk encoder count to radians.
func OrbitaPositionFromRaw(raw int32) float64 {
	return 2 * math.Pi * float64(raw) / orbitaResolution / orbitaReduction
}

// OrbitaPositionToRaw converts radians to a raw disk encoder count, rounding
// to the nearest integer.
func OrbitaPositionToRaw(usi float64) int32 {
	return int32(math.Round(usi * orbitaResolution * orbitaReduction / (2 * math.Pi)))
}

// OrbitaFanFromRaw / OrbitaFanToRaw: the fan_state register on an Orbita
// actuator is a 0/1 byte, the same encoding as Dynamixel torque_enable.
func OrbitaFanFromRaw(raw int) bool {
	return raw != 0
}

func OrbitaFanToRaw(on bool) int {
	if on {
		return 1
	}
	return 0
}

// ForceFromRaw interprets a little-endian IEEE-754 float32 as the force
// sensor's reading directly, with no further conversion.
func ForceFromRaw(raw float32) float64 {
	return float64(raw)
}

// ForceToRaw is the inverse of ForceFromRaw.
func ForceToRaw(usi float64) float32 {
	return float32(usi)
}

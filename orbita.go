package reachyhal

import (
	"fmt"
	"math"
	"time"
)

// Orbita register names. Every register is split evenly across the three
// disks on the wire, so the register set and its per-register width live
// once here and each OrbitaDisk owns its own set of cells.
const (
	RegAngleLimit          = "angle_limit"
	RegTemperatureShutdown = "temperature_shutdown"
	RegPresentSpeed        = "present_speed"
	RegPresentLoad         = "present_load"
	RegMaxSpeed            = "max_speed"
	RegMaxTorque           = "max_torque"
	RegCompliant           = "compliant"
	RegPID                 = "pid"
	RegZero                = "zero"
	RegAbsolutePosition    = "absolute_position"
	RegFanState            = "fan_state"
)

// orbitaRegisterAddr assigns the ORBITA_GET/ORBITA_SET register byte per
// name. These must match the gate firmware's register table;
// zero/absolute_position/fan_state sit in their own block above the
// standard registers.
var orbitaRegisterAddr = map[string]byte{
	RegAngleLimit:          0,
	RegTemperatureShutdown: 1,
	RegPresentPosition:     10,
	RegPresentSpeed:        11,
	RegPresentLoad:         12,
	RegGoalPosition:        20,
	RegMaxSpeed:            21,
	RegMaxTorque:           22,
	RegCompliant:           30,
	RegPID:                 31,
	RegTemperature:         32,
	RegZero:                40,
	RegAbsolutePosition:    41,
	RegFanState:            42,
}

// orbitaRegisterWidth is the per-disk byte width of one register's value.
// Only position has a defined physical unit conversion; the rest pass
// their raw encoding through as USI with no further scaling,
// except temperature (reuses the Dynamixel 0-255 byte convention) and
// fan_state/compliant (0/1 byte booleans).
var orbitaRegisterWidth = map[string]int{
	RegAngleLimit:          8,  // min/max int32 pair
	RegTemperatureShutdown: 1,
	RegPresentPosition:     4,
	RegPresentSpeed:        4,
	RegPresentLoad:         4,
	RegGoalPosition:        4,
	RegMaxSpeed:            4,
	RegMaxTorque:           4,
	RegCompliant:           1,
	RegPID:                 12, // three float32 gains
	RegTemperature:         1,
	RegZero:                1,
	RegAbsolutePosition:    4,
	RegFanState:            1,
}

func orbitaRegisterNames() []string {
	names := make([]string, 0, len(orbitaRegisterAddr))
	for name := range orbitaRegisterAddr {
		names = append(names, name)
	}
	return names
}

// orbitaAddrToName is the router's reverse lookup from an ORBITA_PUB_DATA
// register byte back to its logical name.
var orbitaAddrToName = func() map[byte]string {
	out := make(map[byte]string, len(orbitaRegisterAddr))
	for name, addr := range orbitaRegisterAddr {
		if existing, ok := out[addr]; ok {
			panic(fmt.Sprintf("orbita register map: address %d claimed by both %q and %q", addr, existing, name))
		}
		out[addr] = name
	}
	return out
}()

func orbitaNameForAddress(addr byte) (string, bool) {
	name, ok := orbitaAddrToName[addr]
	return name, ok
}

// OrbitaDiskName identifies one of the three parallel disks that make up an
// Orbita actuator, in top-to-bottom wire order.
type OrbitaDiskName int

const (
	OrbitaDiskTop OrbitaDiskName = iota
	OrbitaDiskMiddle
	OrbitaDiskBottom
)

func (n OrbitaDiskName) String() string {
	switch n {
	case OrbitaDiskTop:
		return "top"
	case OrbitaDiskMiddle:
		return "middle"
	case OrbitaDiskBottom:
		return "bottom"
	default:
		return "unknown"
	}
}

// OrbitaDisk holds one physical disk's registers. present_position and
// goal_position are the only registers with a physical unit conversion;
// apart from the temperature and boolean exceptions listed in
// orbitaRegisterWidth's comment, the rest are raw pass-through values.
type OrbitaDisk struct {
	name  OrbitaDiskName
	cells map[string]*SyncCell
}

func newOrbitaDisk(name OrbitaDiskName) *OrbitaDisk {
	d := &OrbitaDisk{name: name, cells: make(map[string]*SyncCell, len(orbitaRegisterAddr))}
	for reg := range orbitaRegisterAddr {
		d.cells[reg] = NewSyncCell()
	}
	return d
}

func (d *OrbitaDisk) cell(register string) *SyncCell {
	c, ok := d.cells[register]
	if !ok {
		panic(fmt.Sprintf("orbita disk: unknown register %q", register))
	}
	return c
}

// OrbitaActuator is a 3-disk parallel wrist actuator reached through one
// gate. Updates arrive as 3·k-byte publishes that split
// evenly across disk_top, disk_middle, disk_bottom in that order.
type OrbitaActuator struct {
	id   int
	gate string

	DiskTop    *OrbitaDisk
	DiskMiddle *OrbitaDisk
	DiskBottom *OrbitaDisk
	disks      [3]*OrbitaDisk
}

// NewOrbitaActuator builds an actuator with three freshly-reset disks.
func NewOrbitaActuator(id int) *OrbitaActuator {
	top := newOrbitaDisk(OrbitaDiskTop)
	mid := newOrbitaDisk(OrbitaDiskMiddle)
	bot := newOrbitaDisk(OrbitaDiskBottom)
	return &OrbitaActuator{
		id:         id,
		DiskTop:    top,
		DiskMiddle: mid,
		DiskBottom: bot,
		disks:      [3]*OrbitaDisk{top, mid, bot},
	}
}

func (a *OrbitaActuator) ID() int             { return a.id }
func (a *OrbitaActuator) Class() string       { return "orbita" }
func (a *OrbitaActuator) Gate() string        { return a.gate }
func (a *OrbitaActuator) SetGate(g string)    { a.gate = g }
func (a *OrbitaActuator) Registers() []string { return orbitaRegisterNames() }

// AddressFor returns an Orbita register's wire address.
func (a *OrbitaActuator) AddressFor(register string) (addr byte, ok bool) {
	addr, ok = orbitaRegisterAddr[register]
	return
}

// UpdateValue applies a publish for the named register: splits the payload
// into three equal chunks and updates disk_top, disk_middle, disk_bottom
// in that order. The payload length must be a multiple of 3; a violation
// indicates a malformed frame and is reported rather than silently
// truncated.
func (a *OrbitaActuator) UpdateValue(register string, values []byte) error {
	if len(values)%3 != 0 {
		return BadFrameErrorF("orbita %d: register %q payload length %d not a multiple of 3", a.id, register, len(values))
	}
	n := len(values) / 3
	for i, disk := range a.disks {
		chunk := make([]byte, n)
		copy(chunk, values[i*n:(i+1)*n])
		disk.cell(register).Update(chunk)
	}
	return nil
}

// ClearValue resets the named register on all three disks.
func (a *OrbitaActuator) ClearValue(register string) {
	for _, disk := range a.disks {
		disk.cell(register).Reset()
	}
}

// IsValueSet reports whether all three disks currently hold a value for
// the named register.
func (a *OrbitaActuator) IsValueSet(register string) bool {
	for _, disk := range a.disks {
		if !disk.cell(register).IsSet() {
			return false
		}
	}
	return true
}

// GetDiskRawValues blocks until all three disks report the named register,
// returning them in top/middle/bottom order.
func (a *OrbitaActuator) GetDiskRawValues(register string, timeout time.Duration) ([3][]byte, error) {
	var out [3][]byte
	for i, disk := range a.disks {
		v, err := disk.cell(register).Get(timeout)
		if err != nil {
			return out, err
		}
		out[i] = v
	}
	return out, nil
}

// EncodePerDisk converts three physical values (top, middle, bottom) into
// the raw per-disk byte chunks ORBITA_SET expects.
func (a *OrbitaActuator) EncodePerDisk(register string, usi [3]float64) [][]byte {
	out := make([][]byte, 3)
	for i, v := range usi {
		out[i] = encodeOrbitaValue(register, v)
	}
	return out
}

// DecodePerDisk converts three raw per-disk byte chunks into physical
// values (top, middle, bottom).
func (a *OrbitaActuator) DecodePerDisk(register string, raw [3][]byte) [3]float64 {
	var out [3]float64
	for i, r := range raw {
		out[i] = decodeOrbitaValue(register, r)
	}
	return out
}

// PIDGains is one disk's position-loop gain triple, carried on the wire as
// three little-endian float32s.
type PIDGains struct {
	P float64
	I float64
	D float64
}

func encodePIDGains(g PIDGains) []byte {
	b := payloadBuilder{}
	b.putFloat32(float32(g.P))
	b.putFloat32(float32(g.I))
	b.putFloat32(float32(g.D))
	return b.bytes()
}

func decodePIDGains(raw []byte) (PIDGains, error) {
	r := newPayloadReader(raw)
	p, err := r.readFloat32()
	if err != nil {
		return PIDGains{}, BadFrameErrorF("pid payload too short: %d bytes", len(raw))
	}
	i, err := r.readFloat32()
	if err != nil {
		return PIDGains{}, BadFrameErrorF("pid payload too short: %d bytes", len(raw))
	}
	d, err := r.readFloat32()
	if err != nil {
		return PIDGains{}, BadFrameErrorF("pid payload too short: %d bytes", len(raw))
	}
	return PIDGains{P: float64(p), I: float64(i), D: float64(d)}, nil
}

// AngleLimits is one disk's travel range, carried as a min/max int32 pair
// of raw encoder counts with no further unit scaling.
type AngleLimits struct {
	Min int32
	Max int32
}

func encodeAngleLimits(l AngleLimits) []byte {
	b := make([]byte, 8)
	setDwordLE(b, 0, uint32(l.Min))
	setDwordLE(b, 4, uint32(l.Max))
	return b
}

func decodeAngleLimits(raw []byte) (AngleLimits, error) {
	if len(raw) != 8 {
		return AngleLimits{}, BadFrameErrorF("angle_limit payload length %d, want 8", len(raw))
	}
	return AngleLimits{
		Min: int32(getDwordLE(raw, 0)),
		Max: int32(getDwordLE(raw, 4)),
	}, nil
}

func encodeOrbitaValue(register string, usi float64) []byte {
	width := orbitaRegisterWidth[register]
	switch register {
	case RegGoalPosition, RegPresentPosition:
		raw := OrbitaPositionToRaw(usi)
		b := make([]byte, 4)
		setDwordLE(b, 0, uint32(raw))
		return b
	case RegFanState:
		return []byte{byte(OrbitaFanToRaw(usi != 0))}
	case RegCompliant:
		return []byte{byte(TorqueEnableToRaw(usi != 0))}
	case RegTemperature, RegTemperatureShutdown:
		return []byte{byte(TemperatureToRaw(usi))}
	default:
		switch width {
		case 1:
			return []byte{byte(int32(math.Round(usi)))}
		case 4:
			b := make([]byte, 4)
			setDwordLE(b, 0, uint32(int32(math.Round(usi))))
			return b
		default:
			panic(fmt.Sprintf("orbita: unsupported register width %d for %q", width, register))
		}
	}
}

func decodeOrbitaValue(register string, raw []byte) float64 {
	switch register {
	case RegGoalPosition, RegPresentPosition:
		return OrbitaPositionFromRaw(int32(getDwordLE(raw, 0)))
	case RegFanState:
		if OrbitaFanFromRaw(int(raw[0])) {
			return 1
		}
		return 0
	case RegCompliant:
		if TorqueEnableFromRaw(int(raw[0])) {
			return 1
		}
		return 0
	case RegTemperature, RegTemperatureShutdown:
		return TemperatureFromRaw(int(raw[0]))
	default:
		switch len(raw) {
		case 1:
			return float64(int8(raw[0]))
		case 4:
			return float64(int32(getDwordLE(raw, 0)))
		default:
			panic(fmt.Sprintf("orbita: unexpected raw length %d for %q", len(raw), register))
		}
	}
}

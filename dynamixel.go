package reachyhal

import (
	"fmt"
	"time"
)

// Dynamixel register names.
const (
	RegTorqueEnable    = "torque_enable"
	RegGoalPosition    = "goal_position"
	RegMovingSpeed     = "moving_speed"
	RegTorqueLimit     = "torque_limit"
	RegPresentPosition = "present_position"
	RegTemperature     = "temperature"
)

// dxlRegisterEntry is one row of a Dynamixel register map: its wire address
// and byte width. Address and width are protocol-version-dependent; every
// DynamixelMotor variant owns its own map, so two variants may legally
// disagree on the address for the same name. The owning device is the only
// authority.
type dxlRegisterEntry struct {
	addr   byte
	nbytes byte
}

// dxlRegisterMapV1 and dxlRegisterMapV2 are the two control-table layouts.
// V2 shifts torque_limit, present_position and temperature.
var dxlRegisterMapV1 = map[string]dxlRegisterEntry{
	RegTorqueEnable:    {24, 1},
	RegGoalPosition:    {30, 2},
	RegMovingSpeed:     {32, 2},
	RegTorqueLimit:     {34, 2},
	RegPresentPosition: {36, 2},
	RegTemperature:     {43, 1},
}

var dxlRegisterMapV2 = map[string]dxlRegisterEntry{
	RegTorqueEnable:    {24, 1},
	RegGoalPosition:    {30, 2},
	RegMovingSpeed:     {32, 2},
	RegTorqueLimit:     {35, 2},
	RegPresentPosition: {37, 2},
	RegTemperature:     {46, 1},
}

func dxlRegisterMapFor(protocolVersion int) map[string]dxlRegisterEntry {
	if protocolVersion == 2 {
		return dxlRegisterMapV2
	}
	return dxlRegisterMapV1
}

// dxlAddrToName builds the address->name side of the register bijection,
// panicking at construction if two names collide on the same address.
func dxlAddrToName(m map[string]dxlRegisterEntry) map[byte]string {
	out := make(map[byte]string, len(m))
	for name, entry := range m {
		if existing, ok := out[entry.addr]; ok {
			panic(fmt.Sprintf("dynamixel register map: address %d claimed by both %q and %q", entry.addr, existing, name))
		}
		out[entry.addr] = name
	}
	return out
}

// DynamixelMotor is a single Dynamixel servo reached through one gate. Its
// registers are SyncCells keyed by name; present_position and
// temperature are auto-published by the gate at a fixed rate, the rest are
// read on demand.
type DynamixelMotor struct {
	id      int
	variant DynamixelVariant
	offset  float64 // radians
	direct  bool
	gate    string // name of the owning gate, set by the robot at construction

	registerMap map[string]dxlRegisterEntry
	addrToName  map[byte]string
	cells       map[string]*SyncCell
}

// NewDynamixelMotor builds a motor for the given variant, offset (radians)
// and direction. gate is filled in by the robot registry once the owning
// gate is known.
func NewDynamixelMotor(id int, variant DynamixelVariant, offsetRad float64, direct bool) *DynamixelMotor {
	m := dxlRegisterMapFor(variant.ProtocolV)
	d := &DynamixelMotor{
		id:          id,
		variant:     variant,
		offset:      offsetRad,
		direct:      direct,
		registerMap: m,
		addrToName:  dxlAddrToName(m),
		cells:       make(map[string]*SyncCell, len(m)),
	}
	for name := range m {
		d.cells[name] = NewSyncCell()
	}
	return d
}

func (d *DynamixelMotor) ID() int                   { return d.id }
func (d *DynamixelMotor) Class() string             { return "dynamixel" }
func (d *DynamixelMotor) Variant() DynamixelVariant { return d.variant }
func (d *DynamixelMotor) Gate() string              { return d.gate }
func (d *DynamixelMotor) SetGate(g string)          { d.gate = g }

func (d *DynamixelMotor) Registers() []string {
	names := make([]string, 0, len(d.registerMap))
	for name := range d.registerMap {
		names = append(names, name)
	}
	return names
}

// AddressFor returns the wire address and byte width of a register, per
// this motor's own variant/protocol-version register map.
func (d *DynamixelMotor) AddressFor(register string) (addr byte, nbytes byte, ok bool) {
	entry, ok := d.registerMap[register]
	return entry.addr, entry.nbytes, ok
}

// NameForAddress is the inverse of AddressFor, used by the router to map an
// incoming DXL_PUB_DATA's register address back to a logical name.
func (d *DynamixelMotor) NameForAddress(addr byte) (string, bool) {
	name, ok := d.addrToName[addr]
	return name, ok
}

func (d *DynamixelMotor) cell(register string) *SyncCell {
	c, ok := d.cells[register]
	if !ok {
		panic(fmt.Sprintf("dynamixel: unknown register %q", register))
	}
	return c
}

// UpdateRaw applies a publish to the named register's cell.
func (d *DynamixelMotor) UpdateRaw(register string, raw []byte) {
	d.cell(register).Update(raw)
}

// ClearValue resets the named register's cell so the next Get blocks again.
func (d *DynamixelMotor) ClearValue(register string) {
	d.cell(register).Reset()
}

// IsValueSet reports whether the named register currently holds a value.
func (d *DynamixelMotor) IsValueSet(register string) bool {
	return d.cell(register).IsSet()
}

// GetRawValue blocks until the named register is set (or times out) and
// returns its raw wire bytes.
func (d *DynamixelMotor) GetRawValue(register string, timeout time.Duration) ([]byte, error) {
	return d.cell(register).Get(timeout)
}

// EncodeUSI converts a physical value to the register's raw wire encoding.
func (d *DynamixelMotor) EncodeUSI(register string, usi float64) []byte {
	entry := d.registerMap[register]
	var raw int
	switch register {
	case RegGoalPosition:
		raw = PositionToRaw(usi, d.variant, d.offset, d.direct)
	case RegMovingSpeed:
		raw = SpeedToRaw(usi)
	case RegTorqueLimit:
		raw = TorqueLimitToRaw(usi)
	case RegTemperature:
		raw = TemperatureToRaw(usi)
	case RegTorqueEnable:
		raw = TorqueEnableToRaw(usi != 0)
	default:
		raw = int(usi)
	}
	return encodeRawWidth(raw, int(entry.nbytes))
}

// DecodeUSI converts a register's raw wire bytes to its physical value.
func (d *DynamixelMotor) DecodeUSI(register string, raw []byte) float64 {
	value := decodeRawWidth(raw)
	switch register {
	case RegGoalPosition, RegPresentPosition:
		return PositionFromRaw(value, d.variant, d.offset, d.direct)
	case RegMovingSpeed:
		return SpeedFromRaw(value)
	case RegTorqueLimit:
		return TorqueLimitFromRaw(value)
	case RegTemperature:
		return TemperatureFromRaw(value)
	case RegTorqueEnable:
		if TorqueEnableFromRaw(value) {
			return 1
		}
		return 0
	default:
		return float64(value)
	}
}

// encodeRawWidth packs an int into a little-endian byte slice of the given
// width (1 or 2 bytes, the only widths Dynamixel registers use).
func encodeRawWidth(value, width int) []byte {
	switch width {
	case 1:
		return []byte{byte(value)}
	case 2:
		b := make([]byte, 2)
		setWordLE(b, 0, uint16(value))
		return b
	default:
		panic(fmt.Sprintf("dynamixel: unsupported register width %d", width))
	}
}

// decodeRawWidth is the inverse of encodeRawWidth, tolerant of either width.
func decodeRawWidth(raw []byte) int {
	switch len(raw) {
	case 1:
		return int(raw[0])
	case 2:
		return int(getWordLE(raw, 0))
	default:
		panic(fmt.Sprintf("dynamixel: unexpected raw register length %d", len(raw)))
	}
}

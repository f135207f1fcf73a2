package reachyhal

import "time"

// Fan is the common surface of the two fan sub-variants:
// a fan driven by a plain Dynamixel id (DxlFan) and a fan that is really
// just the fan_state register of an Orbita actuator (OrbitaFan). Both
// publish/accept a single on/off bit; robot.go talks to either through
// this interface so get_fans_state/set_fans_state don't need to know
// which kind backs a given name.
type Fan interface {
	Device
	GetState(timeout time.Duration) (bool, error)
	SetState(on bool) []byte // raw bytes to send in a FAN_SET/ORBITA_SET
	UpdateRaw(raw []byte) error
	ClearValue()
	IsValueSet() bool
}

// DxlFan is a fan addressed by its own Dynamixel-style id over
// FAN_GET/FAN_SET/FAN_PUB_DATA.
type DxlFan struct {
	id    int
	gate  string
	state *SyncCell
}

func NewDxlFan(id int) *DxlFan {
	return &DxlFan{id: id, state: NewSyncCell()}
}

func (f *DxlFan) ID() int             { return f.id }
func (f *DxlFan) Class() string       { return "fan" }
func (f *DxlFan) Gate() string        { return f.gate }
func (f *DxlFan) SetGate(g string)    { f.gate = g }
func (f *DxlFan) Registers() []string { return []string{RegFanState} }

func (f *DxlFan) UpdateRaw(raw []byte) error {
	if len(raw) != 1 {
		return BadFrameErrorF("fan %d: expected 1-byte payload, got %d", f.id, len(raw))
	}
	f.state.Update(raw)
	return nil
}

func (f *DxlFan) ClearValue()      { f.state.Reset() }
func (f *DxlFan) IsValueSet() bool { return f.state.IsSet() }

func (f *DxlFan) GetState(timeout time.Duration) (bool, error) {
	raw, err := f.state.Get(timeout)
	if err != nil {
		return false, err
	}
	return OrbitaFanFromRaw(int(raw[0])), nil
}

func (f *DxlFan) SetState(on bool) []byte {
	return []byte{byte(OrbitaFanToRaw(on))}
}

// OrbitaFan has no identity of its own: it IS the fan_state register of the
// Orbita actuator that owns it, identified by that actuator's id. Reads
// and writes go
// through ORBITA_GET/ORBITA_SET with REG=fan_state rather than FAN_GET/SET,
// and the value is shared across all three disks (fan cooling is
// actuator-wide, not per-disk), so OrbitaFan reads disk_top's cell only;
// the router updates all three identically from one publish.
type OrbitaFan struct {
	owner *OrbitaActuator
}

func NewOrbitaFan(owner *OrbitaActuator) *OrbitaFan {
	return &OrbitaFan{owner: owner}
}

func (f *OrbitaFan) ID() int             { return f.owner.ID() }
func (f *OrbitaFan) Class() string       { return "fan" }
func (f *OrbitaFan) Gate() string        { return f.owner.Gate() }
func (f *OrbitaFan) SetGate(g string)    { f.owner.SetGate(g) }
func (f *OrbitaFan) Registers() []string { return []string{RegFanState} }

func (f *OrbitaFan) UpdateRaw(raw []byte) error {
	// A single state byte (a local write or FAN_PUB_DATA entry) applies to
	// the whole actuator; replicate it across the three disks.
	if len(raw) == 1 {
		raw = []byte{raw[0], raw[0], raw[0]}
	}
	return f.owner.UpdateValue(RegFanState, raw)
}

func (f *OrbitaFan) ClearValue()      { f.owner.ClearValue(RegFanState) }
func (f *OrbitaFan) IsValueSet() bool { return f.owner.IsValueSet(RegFanState) }

func (f *OrbitaFan) GetState(timeout time.Duration) (bool, error) {
	raw, err := f.owner.DiskTop.cell(RegFanState).Get(timeout)
	if err != nil {
		return false, err
	}
	return OrbitaFanFromRaw(int(raw[0])), nil
}

func (f *OrbitaFan) SetState(on bool) []byte {
	return []byte{byte(OrbitaFanToRaw(on))}
}

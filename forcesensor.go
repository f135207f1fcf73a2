package reachyhal

import (
	"math"
	"time"
)

// ForceSensor is a single force-sensing resistor reached through a gate's
// LOAD_PUB_DATA publishes. It carries exactly one register, the force
// reading itself.
type ForceSensor struct {
	id   int
	gate string

	force *SyncCell
}

// NewForceSensor returns a sensor with no value set.
func NewForceSensor(id int) *ForceSensor {
	return &ForceSensor{id: id, force: NewSyncCell()}
}

func (s *ForceSensor) ID() int             { return s.id }
func (s *ForceSensor) Class() string       { return "force" }
func (s *ForceSensor) Gate() string        { return s.gate }
func (s *ForceSensor) SetGate(g string)    { s.gate = g }
func (s *ForceSensor) Registers() []string { return []string{"force"} }

// UpdateRaw applies a LOAD_PUB_DATA publish: 4 bytes, IEEE-754 float32 LE.
func (s *ForceSensor) UpdateRaw(raw []byte) error {
	if len(raw) != 4 {
		return BadFrameErrorF("force sensor %d: expected 4-byte payload, got %d", s.id, len(raw))
	}
	s.force.Update(raw)
	return nil
}

func (s *ForceSensor) ClearValue()      { s.force.Reset() }
func (s *ForceSensor) IsValueSet() bool { return s.force.IsSet() }

// GetForce blocks until a value has been published and decodes it.
func (s *ForceSensor) GetForce(timeout time.Duration) (float64, error) {
	raw, err := s.force.Get(timeout)
	if err != nil {
		return 0, err
	}
	if len(raw) != 4 {
		return 0, BadFrameErrorF("force sensor %d: malformed cached value length %d", s.id, len(raw))
	}
	bits := getDwordLE(raw, 0)
	return ForceFromRaw(math.Float32frombits(bits)), nil
}

package reachyhal

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// defaultTimeout is the nominal per-retry SyncCell wait.
const defaultTimeout = 1 * time.Second

// Robot owns every gate and device for one deployment: name→device and
// name→gate maps, plus id-indexed maps per class. It is the single point
// callers go through; gates and the router are internal plumbing borrowed
// by reference, never exposed.
type Robot struct {
	model  RobotModel
	router *Router
	gates  map[string]*GateClient

	dxlByName    map[string]*DynamixelMotor
	orbitaByName map[string]orbitaJointSpec
	forceByName  map[string]*ForceSensor
	fanByName    map[string]Fan

	orbitaActuators map[int]*OrbitaActuator
	nameGate        map[string]string

	mu            sync.Mutex
	torqueEnabled map[int]bool

	faultedMu sync.Mutex
	fault     *Error
}

// NewRobot builds the device registry for model without opening any port.
func NewRobot(model RobotModel) (*Robot, error) {
	table, err := BuildDeviceTable(model)
	if err != nil {
		return nil, err
	}

	r := &Robot{
		model:           model,
		router:          NewRouter(),
		gates:           make(map[string]*GateClient),
		dxlByName:       make(map[string]*DynamixelMotor),
		orbitaByName:    make(map[string]orbitaJointSpec),
		forceByName:     make(map[string]*ForceSensor),
		fanByName:       make(map[string]Fan),
		orbitaActuators: make(map[int]*OrbitaActuator),
		nameGate:        make(map[string]string),
		torqueEnabled:   make(map[int]bool),
	}

	dxlIDs := idSet{}
	orbitaIDs := idSet{}
	forceIDs := idSet{}
	fanIDs := idSet{}

	for _, spec := range table.Dxl {
		dxlIDs.add("dynamixel", spec.ID)
		motor := NewDynamixelMotor(spec.ID, spec.Variant, spec.Offset, spec.Direct)
		motor.SetGate(spec.Gate)
		r.dxlByName[spec.Name] = motor
		r.nameGate[spec.Name] = spec.Gate
		r.router.RegisterDynamixel(motor)
		r.torqueEnabled[spec.ID] = true
	}

	for _, spec := range table.Orbita {
		if _, ok := r.orbitaActuators[spec.ActuatorID]; !ok {
			orbitaIDs.add("orbita", spec.ActuatorID)
			actuator := NewOrbitaActuator(spec.ActuatorID)
			actuator.SetGate(spec.Gate)
			r.orbitaActuators[spec.ActuatorID] = actuator
			r.router.RegisterOrbita(actuator)
		}
		r.orbitaByName[spec.Name] = spec
		r.nameGate[spec.Name] = spec.Gate
	}

	for _, spec := range table.Force {
		forceIDs.add("force", spec.ID)
		sensor := NewForceSensor(spec.ID)
		sensor.SetGate(spec.Gate)
		r.forceByName[spec.Name] = sensor
		r.nameGate[spec.Name] = spec.Gate
		r.router.RegisterForceSensor(sensor)
	}

	for _, spec := range table.Fans {
		fanIDs.add("fan", spec.ID)
		var fan Fan
		if spec.Kind == "orbita" {
			fan = NewOrbitaFan(r.orbitaActuators[spec.OwnerID])
		} else {
			dxlFan := NewDxlFan(spec.ID)
			dxlFan.SetGate(spec.Gate)
			fan = dxlFan
		}
		r.fanByName[spec.Name] = fan
		r.nameGate[spec.Name] = spec.Gate
		r.router.RegisterFan(fan)
	}

	r.router.OnAssert(func(gate string, err *Error) {
		r.faultedMu.Lock()
		r.fault = err
		r.faultedMu.Unlock()
		Log.Error().Str("gate", gate).Err(err).Msg("robot: gate faulted")
	})

	return r, nil
}

// gateNames returns the distinct gate names this robot's device table
// references.
func (r *Robot) gateNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, g := range r.nameGate {
		if !seen[g] {
			seen[g] = true
			names = append(names, g)
		}
	}
	return names
}

func (r *Robot) devicesOnGate(gate string) []DeviceRef {
	var want []DeviceRef
	for name, g := range r.nameGate {
		if g != gate {
			continue
		}
		if m, ok := r.dxlByName[name]; ok {
			want = append(want, DeviceRef{Class: "dynamixel", ID: m.ID()})
		} else if _, ok := r.forceByName[name]; ok {
			want = append(want, DeviceRef{Class: "force", ID: r.forceByName[name].ID()})
		} else if spec, ok := r.orbitaByName[name]; ok {
			want = append(want, DeviceRef{Class: "orbita", ID: spec.ActuatorID})
		} else if f, ok := r.fanByName[name]; ok {
			want = append(want, DeviceRef{Class: "fan", ID: f.ID()})
		}
	}
	return want
}

// Open discovers and opens every gate this robot's device table needs
// against the given candidate serial ports.
func (r *Robot) Open(candidatePorts []string) error {
	available := append([]string{}, candidatePorts...)

	for _, gateName := range r.gateNames() {
		want := r.devicesOnGate(gateName)
		result, err := FindGate(want, available)
		if err != nil && len(result.Matched) == 0 {
			return err
		}
		if err != nil {
			Log.Warn().Str("gate", gateName).Err(err).Msg("opening gate with missing devices")
		}

		for i, p := range available {
			if p == result.Port {
				available = append(available[:i], available[i+1:]...)
				break
			}
		}

		port, err := openSerialPort(result.Port)
		if err != nil {
			return err
		}
		gc := NewGateClient(gateName, port, r.router.Dispatch)
		gc.Start()
		r.gates[gateName] = gc
	}
	return nil
}

// Close stops every gate's goroutines and closes its port.
func (r *Robot) Close() {
	for _, g := range r.gates {
		g.Stop()
	}
}

func (r *Robot) checkFault() error {
	r.faultedMu.Lock()
	defer r.faultedMu.Unlock()
	if r.fault == nil {
		return nil
	}
	return r.fault
}

// dxlRequestKey groups a batched DXL_GET_REG/DXL_SET_REG per gate and wire
// address. Every id in one request must share addr/nbytes; a
// gate mixing V1 and V2 motors gets one frame per address variant.
type dxlRequestKey struct {
	gate   string
	addr   byte
	nbytes byte
}

// GetJointsValue reads register for names, blocking on each device's
// register cell. Values are returned in the same order as names.
// For Dynamixel joints, present_position and temperature are auto-published
// by the gate at a fixed rate, so their cells keep the last value and are
// only explicitly requested when nothing has been published yet (fresh
// start). Orbita-backed joints always have the register cleared and
// requested.
func (r *Robot) GetJointsValue(register string, names []string, retry int) ([]float64, error) {
	if err := r.checkFault(); err != nil {
		return nil, err
	}

	if register == RegPID || register == RegAngleLimit {
		return nil, fmt.Errorf("register %q carries a composite payload, use JointPIDs or OrbitaAngleLimits", register)
	}

	autoPublished := register == RegPresentPosition || register == RegTemperature

	dxlRequests := map[dxlRequestKey][]byte{}
	orbitaActuatorsToRequest := map[int]bool{}

	for _, name := range names {
		if motor, ok := r.dxlByName[name]; ok {
			addr, nbytes, ok := motor.AddressFor(register)
			if !ok {
				return nil, fmt.Errorf("joint %q has no register %q", name, register)
			}
			if autoPublished && motor.IsValueSet(register) {
				continue
			}
			if !autoPublished {
				motor.ClearValue(register)
			}
			key := dxlRequestKey{gate: motor.Gate(), addr: addr, nbytes: nbytes}
			dxlRequests[key] = append(dxlRequests[key], byte(motor.ID()))
			continue
		}
		if spec, ok := r.orbitaByName[name]; ok {
			if _, ok := orbitaRegisterAddr[register]; !ok {
				return nil, fmt.Errorf("joint %q has no register %q", name, register)
			}
			actuator := r.orbitaActuators[spec.ActuatorID]
			actuator.ClearValue(register)
			orbitaActuatorsToRequest[spec.ActuatorID] = true
			continue
		}
		return nil, DiscoveryMissingErrorF("unknown joint name %q", name)
	}

	for key, ids := range dxlRequests {
		gc := r.gates[key.gate]
		if gc == nil {
			continue
		}
		if err := gc.Send(dxlGetRegFrame(key.addr, key.nbytes, ids)); err != nil {
			return nil, err
		}
	}
	for actuatorID := range orbitaActuatorsToRequest {
		actuator := r.orbitaActuators[actuatorID]
		addr, ok := actuator.AddressFor(register)
		if !ok {
			continue
		}
		gc := r.gates[actuator.Gate()]
		if gc == nil {
			continue
		}
		if err := gc.Send(orbitaGetFrame(byte(actuatorID), addr)); err != nil {
			return nil, err
		}
	}

	out := make([]float64, len(names))
	var unset []string
	for i, name := range names {
		v, err := r.readOneJoint(register, name, defaultTimeout)
		if err != nil {
			unset = append(unset, name)
			continue
		}
		out[i] = v
	}

	if len(unset) > 0 {
		if retry <= 0 {
			return nil, TimeoutErrorF("timed out waiting for register %q on %v", register, unset)
		}
		retried, err := r.GetJointsValue(register, unset, retry-1)
		if err != nil {
			return nil, err
		}
		j := 0
		for i, name := range names {
			for _, u := range unset {
				if u == name {
					out[i] = retried[j]
					j++
				}
			}
		}
	}

	return out, nil
}

func (r *Robot) readOneJoint(register, name string, timeout time.Duration) (float64, error) {
	if motor, ok := r.dxlByName[name]; ok {
		raw, err := motor.GetRawValue(register, timeout)
		if err != nil {
			return 0, err
		}
		return motor.DecodeUSI(register, raw), nil
	}
	if spec, ok := r.orbitaByName[name]; ok {
		actuator := r.orbitaActuators[spec.ActuatorID]
		disk := actuator.disks[spec.Disk]
		raw, err := disk.cell(register).Get(timeout)
		if err != nil {
			return 0, err
		}
		return decodeOrbitaValue(register, raw), nil
	}
	return 0, DiscoveryMissingErrorF("unknown joint name %q", name)
}

// SetJointsValue writes register for each name→value pair.
// The local cell is updated immediately so read-after-write observes the
// intended value even before the actuator confirms; wire writes to a
// torque-disabled motor's goal_position/moving_speed are suppressed.
func (r *Robot) SetJointsValue(register string, values map[string]float64) error {
	if err := r.checkFault(); err != nil {
		return err
	}

	if register == RegPID || register == RegAngleLimit {
		return fmt.Errorf("register %q carries a composite payload, use SetJointPIDs or SetOrbitaAngleLimits", register)
	}

	dxlSets := map[dxlRequestKey]map[byte][]byte{}
	var justEnabled []*DynamixelMotor

	for name, value := range values {
		if motor, ok := r.dxlByName[name]; ok {
			if _, _, ok := motor.AddressFor(register); !ok {
				return fmt.Errorf("joint %q has no register %q", name, register)
			}
			raw := motor.EncodeUSI(register, value)
			motor.UpdateRaw(register, raw)

			r.mu.Lock()
			enabled := r.torqueEnabled[motor.ID()]
			r.mu.Unlock()

			suppressed := !enabled && (register == RegGoalPosition || register == RegMovingSpeed)
			if !suppressed {
				addr, nbytes, ok := motor.AddressFor(register)
				if ok {
					key := dxlRequestKey{gate: motor.Gate(), addr: addr, nbytes: nbytes}
					if dxlSets[key] == nil {
						dxlSets[key] = map[byte][]byte{}
					}
					dxlSets[key][byte(motor.ID())] = raw
				}
			}

			if register == RegTorqueEnable {
				r.mu.Lock()
				wasEnabled := r.torqueEnabled[motor.ID()]
				r.torqueEnabled[motor.ID()] = value != 0
				r.mu.Unlock()
				if !wasEnabled && value != 0 {
					justEnabled = append(justEnabled, motor)
				}
			}
			continue
		}

		if spec, ok := r.orbitaByName[name]; ok {
			if _, ok := orbitaRegisterAddr[register]; !ok {
				return fmt.Errorf("joint %q has no register %q", name, register)
			}
			actuator := r.orbitaActuators[spec.ActuatorID]
			raw := encodeOrbitaValue(register, value)
			actuator.disks[spec.Disk].cell(register).Update(raw)

			addr, ok := actuator.AddressFor(register)
			if !ok {
				continue
			}
			gc := r.gates[actuator.Gate()]
			if gc == nil {
				continue
			}
			if err := gc.Send(orbitaSetFrameForDisks(byte(spec.ActuatorID), addr, []int{int(spec.Disk)}, [][]byte{raw})); err != nil {
				return err
			}
			continue
		}
		return DiscoveryMissingErrorF("unknown joint name %q", name)
	}

	for key, idValues := range dxlSets {
		gc := r.gates[key.gate]
		if gc == nil {
			continue
		}
		if err := gc.Send(dxlSetRegFrame(key.addr, key.nbytes, idValues)); err != nil {
			return err
		}
	}

	// The side effect runs after the torque_enable frame itself has gone
	// out, so the wire order is: torque on, then speed, then goal refresh.
	for _, motor := range justEnabled {
		if err := r.handleTorqueEnabled(motor); err != nil {
			return err
		}
	}

	return nil
}

// handleTorqueEnabled runs the Disabled to Enabled transition's side
// effect: resend the cached moving_speed and force-refresh goal_position
// from hardware (the gate may have cleared both), so the motor never runs a
// stale huge velocity toward a stale goal.
func (r *Robot) handleTorqueEnabled(motor *DynamixelMotor) error {
	gc := r.gates[motor.Gate()]
	if gc == nil {
		return nil
	}

	if motor.IsValueSet(RegMovingSpeed) {
		raw, err := motor.GetRawValue(RegMovingSpeed, defaultTimeout)
		if err == nil {
			addr, nbytes, _ := motor.AddressFor(RegMovingSpeed)
			if err := gc.Send(dxlSetRegFrame(addr, nbytes, map[byte][]byte{byte(motor.ID()): raw})); err != nil {
				return err
			}
		}
	}

	motor.ClearValue(RegGoalPosition)
	addr, nbytes, _ := motor.AddressFor(RegGoalPosition)
	return gc.Send(dxlGetRegFrame(addr, nbytes, []byte{byte(motor.ID())}))
}

// GetFansState reads on/off state for names, same clear/request/wait/retry
// pattern as GetJointsValue. DxlFans are batched into one FAN_GET per
// gate; an OrbitaFan reads as the fan_state register of its owning
// actuator over ORBITA_GET.
func (r *Robot) GetFansState(names []string, retry int) ([]bool, error) {
	if err := r.checkFault(); err != nil {
		return nil, err
	}

	dxlByGate := map[string][]byte{}
	for _, name := range names {
		fan, ok := r.fanByName[name]
		if !ok {
			return nil, DiscoveryMissingErrorF("unknown fan name %q", name)
		}
		fan.ClearValue()
		switch f := fan.(type) {
		case *DxlFan:
			dxlByGate[f.Gate()] = append(dxlByGate[f.Gate()], byte(f.ID()))
		case *OrbitaFan:
			if gc := r.gates[f.Gate()]; gc != nil {
				if err := gc.Send(orbitaGetFrame(byte(f.ID()), orbitaRegisterAddr[RegFanState])); err != nil {
					return nil, err
				}
			}
		}
	}
	for gateName, ids := range dxlByGate {
		gc := r.gates[gateName]
		if gc == nil {
			continue
		}
		if err := gc.Send(fanGetFrame(ids)); err != nil {
			return nil, err
		}
	}

	out := make([]bool, len(names))
	var unset []string
	for i, name := range names {
		fan := r.fanByName[name]
		v, err := fan.GetState(defaultTimeout)
		if err != nil {
			unset = append(unset, name)
			continue
		}
		out[i] = v
	}
	if len(unset) > 0 && retry > 0 {
		retried, err := r.GetFansState(unset, retry-1)
		if err != nil {
			return nil, err
		}
		j := 0
		for i, name := range names {
			for _, u := range unset {
				if u == name {
					out[i] = retried[j]
					j++
				}
			}
		}
		return out, nil
	}
	if len(unset) > 0 {
		return nil, TimeoutErrorF("timed out waiting for fan state on %v", unset)
	}
	return out, nil
}

// SetFansState writes on/off state for names. DxlFans route through
// FAN_SET; OrbitaFans route through ORBITA_SET with REG=fan_state on
// every disk (fan cooling is actuator-wide).
func (r *Robot) SetFansState(values map[string]bool) error {
	dxlByGate := map[string]map[byte]byte{}

	for name, on := range values {
		fan, ok := r.fanByName[name]
		if !ok {
			return DiscoveryMissingErrorF("unknown fan name %q", name)
		}
		raw := fan.SetState(on)
		if err := fan.UpdateRaw(raw); err != nil {
			return err
		}

		switch f := fan.(type) {
		case *DxlFan:
			gateMap, exists := dxlByGate[f.Gate()]
			if !exists {
				gateMap = map[byte]byte{}
				dxlByGate[f.Gate()] = gateMap
			}
			gateMap[byte(f.ID())] = raw[0]
		case *OrbitaFan:
			actuator := r.orbitaActuators[f.ID()]
			gc := r.gates[actuator.Gate()]
			if gc == nil {
				continue
			}
			perDisk := [][]byte{raw, raw, raw}
			if err := gc.Send(orbitaSetFrame(byte(actuator.ID()), orbitaRegisterAddr[RegFanState], perDisk)); err != nil {
				return err
			}
		}
	}

	for gateName, states := range dxlByGate {
		gc := r.gates[gateName]
		if gc == nil {
			continue
		}
		if err := gc.Send(fanSetFrame(states)); err != nil {
			return err
		}
	}
	return nil
}

// GetForce reads force sensor values, blocking on the first publish if
// none has arrived yet. LOAD_PUB_DATA is unsolicited, so no request frame
// is needed.
func (r *Robot) GetForce(names []string, retry int) ([]float64, error) {
	out := make([]float64, len(names))
	var unset []string
	for i, name := range names {
		sensor, ok := r.forceByName[name]
		if !ok {
			return nil, DiscoveryMissingErrorF("unknown force sensor name %q", name)
		}
		v, err := sensor.GetForce(defaultTimeout)
		if err != nil {
			unset = append(unset, name)
			continue
		}
		out[i] = v
	}
	if len(unset) > 0 && retry > 0 {
		retried, err := r.GetForce(unset, retry-1)
		if err != nil {
			return nil, err
		}
		j := 0
		for i, name := range names {
			for _, u := range unset {
				if u == name {
					out[i] = retried[j]
					j++
				}
			}
		}
		return out, nil
	}
	if len(unset) > 0 {
		return nil, TimeoutErrorF("timed out waiting for force reading on %v", unset)
	}
	return out, nil
}

// JointNames lists every joint (Dynamixel or Orbita-backed) this robot's
// model declares, sorted for stable output.
func (r *Robot) JointNames() []string {
	names := make([]string, 0, len(r.dxlByName)+len(r.orbitaByName))
	for name := range r.dxlByName {
		names = append(names, name)
	}
	for name := range r.orbitaByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FanNames lists every fan name, sorted.
func (r *Robot) FanNames() []string {
	names := make([]string, 0, len(r.fanByName))
	for name := range r.fanByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForceSensorNames lists every force sensor name, sorted.
func (r *Robot) ForceSensorNames() []string {
	names := make([]string, 0, len(r.forceByName))
	for name := range r.forceByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DeviceRegisters returns the register names of the device behind a joint,
// fan or force sensor name.
func (r *Robot) DeviceRegisters(name string) ([]string, bool) {
	if m, ok := r.dxlByName[name]; ok {
		regs := m.Registers()
		sort.Strings(regs)
		return regs, true
	}
	if spec, ok := r.orbitaByName[name]; ok {
		regs := r.orbitaActuators[spec.ActuatorID].Registers()
		sort.Strings(regs)
		return regs, true
	}
	if f, ok := r.fanByName[name]; ok {
		return f.Registers(), true
	}
	if s, ok := r.forceByName[name]; ok {
		return s.Registers(), true
	}
	return nil, false
}

// orbitaForJoint resolves a name to its backing Orbita actuator and disk,
// failing for Dynamixel-backed names, since the PID and angle-limit registers
// only exist on Orbita hardware.
func (r *Robot) orbitaForJoint(name string) (*OrbitaActuator, OrbitaDiskName, error) {
	spec, ok := r.orbitaByName[name]
	if !ok {
		return nil, 0, DiscoveryMissingErrorF("joint %q is not backed by an Orbita actuator", name)
	}
	return r.orbitaActuators[spec.ActuatorID], spec.Disk, nil
}

// JointPIDs reads the position-loop gain triple for each named Orbita-backed
// joint, same clear/request/wait/retry shape as GetJointsValue.
func (r *Robot) JointPIDs(names []string, retry int) ([]PIDGains, error) {
	if err := r.checkFault(); err != nil {
		return nil, err
	}

	requested := map[int]bool{}
	for _, name := range names {
		actuator, _, err := r.orbitaForJoint(name)
		if err != nil {
			return nil, err
		}
		if requested[actuator.ID()] {
			continue
		}
		requested[actuator.ID()] = true
		actuator.ClearValue(RegPID)
		if gc := r.gates[actuator.Gate()]; gc != nil {
			if err := gc.Send(orbitaGetFrame(byte(actuator.ID()), orbitaRegisterAddr[RegPID])); err != nil {
				return nil, err
			}
		}
	}

	out := make([]PIDGains, len(names))
	var unset []string
	for i, name := range names {
		actuator, disk, _ := r.orbitaForJoint(name)
		raw, err := actuator.disks[disk].cell(RegPID).Get(defaultTimeout)
		if err != nil {
			unset = append(unset, name)
			continue
		}
		gains, err := decodePIDGains(raw)
		if err != nil {
			return nil, err
		}
		out[i] = gains
	}

	if len(unset) > 0 {
		if retry <= 0 {
			return nil, TimeoutErrorF("timed out waiting for pid on %v", unset)
		}
		retried, err := r.JointPIDs(unset, retry-1)
		if err != nil {
			return nil, err
		}
		j := 0
		for i, name := range names {
			for _, u := range unset {
				if u == name {
					out[i] = retried[j]
					j++
				}
			}
		}
	}
	return out, nil
}

// SetJointPIDs writes per-joint gain triples, updating the local cell first
// so read-after-write observes the intended gains (same contract as
// SetJointsValue).
func (r *Robot) SetJointPIDs(values map[string]PIDGains) error {
	if err := r.checkFault(); err != nil {
		return err
	}
	for name, gains := range values {
		actuator, disk, err := r.orbitaForJoint(name)
		if err != nil {
			return err
		}
		raw := encodePIDGains(gains)
		actuator.disks[disk].cell(RegPID).Update(raw)
		gc := r.gates[actuator.Gate()]
		if gc == nil {
			continue
		}
		if err := gc.Send(orbitaSetFrameForDisks(byte(actuator.ID()), orbitaRegisterAddr[RegPID], []int{int(disk)}, [][]byte{raw})); err != nil {
			return err
		}
	}
	return nil
}

// OrbitaAngleLimits reads the raw encoder-count travel range for each named
// Orbita-backed joint.
func (r *Robot) OrbitaAngleLimits(names []string, retry int) ([]AngleLimits, error) {
	if err := r.checkFault(); err != nil {
		return nil, err
	}

	requested := map[int]bool{}
	for _, name := range names {
		actuator, _, err := r.orbitaForJoint(name)
		if err != nil {
			return nil, err
		}
		if requested[actuator.ID()] {
			continue
		}
		requested[actuator.ID()] = true
		actuator.ClearValue(RegAngleLimit)
		if gc := r.gates[actuator.Gate()]; gc != nil {
			if err := gc.Send(orbitaGetFrame(byte(actuator.ID()), orbitaRegisterAddr[RegAngleLimit])); err != nil {
				return nil, err
			}
		}
	}

	out := make([]AngleLimits, len(names))
	var unset []string
	for i, name := range names {
		actuator, disk, _ := r.orbitaForJoint(name)
		raw, err := actuator.disks[disk].cell(RegAngleLimit).Get(defaultTimeout)
		if err != nil {
			unset = append(unset, name)
			continue
		}
		limits, err := decodeAngleLimits(raw)
		if err != nil {
			return nil, err
		}
		out[i] = limits
	}

	if len(unset) > 0 {
		if retry <= 0 {
			return nil, TimeoutErrorF("timed out waiting for angle_limit on %v", unset)
		}
		retried, err := r.OrbitaAngleLimits(unset, retry-1)
		if err != nil {
			return nil, err
		}
		j := 0
		for i, name := range names {
			for _, u := range unset {
				if u == name {
					out[i] = retried[j]
					j++
				}
			}
		}
	}
	return out, nil
}

// SetOrbitaAngleLimits writes per-joint travel ranges.
func (r *Robot) SetOrbitaAngleLimits(values map[string]AngleLimits) error {
	if err := r.checkFault(); err != nil {
		return err
	}
	for name, limits := range values {
		actuator, disk, err := r.orbitaForJoint(name)
		if err != nil {
			return err
		}
		raw := encodeAngleLimits(limits)
		actuator.disks[disk].cell(RegAngleLimit).Update(raw)
		gc := r.gates[actuator.Gate()]
		if gc == nil {
			continue
		}
		if err := gc.Send(orbitaSetFrameForDisks(byte(actuator.ID()), orbitaRegisterAddr[RegAngleLimit], []int{int(disk)}, [][]byte{raw})); err != nil {
			return err
		}
	}
	return nil
}

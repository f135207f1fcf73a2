package reachyhal

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orbitaAutoResponder answers every ORBITA_GET with an ORBITA_PUB_DATA
// carrying perDiskValue for each of the three disks.
func orbitaAutoResponder(p *fakePort, perDiskValue []byte) func(frame []byte) {
	return func(frame []byte) {
		if len(frame) < 6 || MsgType(frame[3]) != MsgOrbitaGet {
			return
		}
		id, reg := frame[4], frame[5]
		b := payloadBuilder{}
		b.putByte(byte(MsgOrbitaPubData))
		b.putByte(id)
		b.putByte(reg)
		for i := 0; i < 3; i++ {
			b.putBytes(perDiskValue...)
		}
		p.push(buildFrame(b.bytes()))
	}
}

func TestGetJointsValueAcrossGates(t *testing.T) {
	robot, ports := newTestRobot(t, ModelFullKit)

	raw2048 := []byte{0x00, 0x08}
	ports["right_arm"].onWrite = dxlAutoResponder(ports["right_arm"], raw2048)
	ports["left_arm"].onWrite = dxlAutoResponder(ports["left_arm"], raw2048)

	names := []string{"r_shoulder_pitch", "r_shoulder_roll", "l_shoulder_pitch"}
	values, err := robot.GetJointsValue(RegPresentPosition, names, 1)
	require.NoError(t, err)
	require.Len(t, values, 3)

	// Each value comes back converted with that joint's own variant/offset/
	// direction, in the caller's order.
	rsp := robot.dxlByName["r_shoulder_pitch"]
	assert.InDelta(t, PositionFromRaw(2048, rsp.variant, rsp.offset, rsp.direct), values[0], 1e-9)
	lsp := robot.dxlByName["l_shoulder_pitch"]
	assert.InDelta(t, PositionFromRaw(2048, lsp.variant, lsp.offset, lsp.direct), values[2], 1e-9)

	// One grouped GET per gate, listing the right ids.
	right := ports["right_arm"].sentPayloads()
	require.Len(t, right, 1)
	assert.Equal(t, byte(MsgDxlGetReg), right[0][0])
	assert.ElementsMatch(t, []byte{10, 11}, right[0][3:])

	left := ports["left_arm"].sentPayloads()
	require.Len(t, left, 1)
	assert.Equal(t, []byte{20}, left[0][3:])

	// present_position is auto-published: once set, a second read keeps the
	// last value and sends nothing.
	_, err = robot.GetJointsValue(RegPresentPosition, names, 1)
	require.NoError(t, err)
	assert.Len(t, ports["right_arm"].sentPayloads(), 1)
}

func TestGetJointsValueGrouping(t *testing.T) {
	robot, ports := newTestRobot(t, ModelFullKit)

	raw := []byte{0x54, 0x00}
	ports["right_arm"].onWrite = dxlAutoResponder(ports["right_arm"], raw)
	ports["left_arm"].onWrite = dxlAutoResponder(ports["left_arm"], raw)

	_, err := robot.GetJointsValue(RegMovingSpeed, []string{"r_shoulder_pitch", "r_shoulder_roll", "l_shoulder_pitch"}, 1)
	require.NoError(t, err)

	right := ports["right_arm"].sentPayloads()
	require.Len(t, right, 1)
	assert.Equal(t, byte(MsgDxlGetReg), right[0][0])
	assert.Equal(t, byte(32), right[0][1])
	assert.ElementsMatch(t, []byte{10, 11}, right[0][3:])

	left := ports["left_arm"].sentPayloads()
	require.Len(t, left, 1)
	assert.ElementsMatch(t, []byte{20}, left[0][3:])
}

func TestGetJointsValueSplitsMixedRegisterMaps(t *testing.T) {
	robot, ports := newTestRobot(t, ModelFullKit)
	ports["right_arm"].onWrite = dxlAutoResponder(ports["right_arm"], []byte{0xFF, 0x03})

	// torque_limit sits at 35 for the MX106 (protocol V2) and 34 for the
	// AX18 (V1): one gate, two frames, never one frame with a wrong address.
	_, err := robot.GetJointsValue(RegTorqueLimit, []string{"r_shoulder_pitch", "r_forearm_yaw"}, 1)
	require.NoError(t, err)

	payloads := ports["right_arm"].sentPayloads()
	require.Len(t, payloads, 2)
	addrs := []byte{payloads[0][1], payloads[1][1]}
	assert.ElementsMatch(t, []byte{34, 35}, addrs)
}

func TestSetJointsValueSuppressedWhenTorqueOff(t *testing.T) {
	robot, ports := newTestRobot(t, ModelFullKit)

	motor := robot.dxlByName["r_arm_yaw"]
	robot.mu.Lock()
	robot.torqueEnabled[motor.ID()] = false
	robot.mu.Unlock()

	require.NoError(t, robot.SetJointsValue(RegGoalPosition, map[string]float64{"r_arm_yaw": 0.5}))

	// No frame went out, but read-after-write sees the encoded value.
	assert.Empty(t, ports["right_arm"].sentPayloads())
	raw, err := motor.GetRawValue(RegGoalPosition, time.Second)
	require.NoError(t, err)
	assert.Equal(t, motor.EncodeUSI(RegGoalPosition, 0.5), raw)
}

func TestTorqueEnableSideEffect(t *testing.T) {
	robot, ports := newTestRobot(t, ModelFullKit)

	motor := robot.dxlByName["r_elbow_pitch"]
	robot.mu.Lock()
	robot.torqueEnabled[motor.ID()] = false
	robot.mu.Unlock()

	// Cached moving_speed of 1 rad/s from an earlier write.
	speedRaw := motor.EncodeUSI(RegMovingSpeed, 1.0)
	motor.UpdateRaw(RegMovingSpeed, speedRaw)

	require.NoError(t, robot.SetJointsValue(RegTorqueEnable, map[string]float64{"r_elbow_pitch": 1}))

	payloads := ports["right_arm"].sentPayloads()
	require.Len(t, payloads, 3)

	// 1: the torque_enable write itself.
	assert.Equal(t, byte(MsgDxlSetReg), payloads[0][0])
	assert.Equal(t, byte(24), payloads[0][1])
	assert.Equal(t, []byte{byte(motor.ID()), 1}, payloads[0][3:])

	// 2: the cached moving_speed resent.
	assert.Equal(t, byte(MsgDxlSetReg), payloads[1][0])
	assert.Equal(t, byte(32), payloads[1][1])
	assert.Equal(t, append([]byte{byte(motor.ID())}, speedRaw...), payloads[1][3:])

	// 3: goal_position refreshed from hardware.
	assert.Equal(t, byte(MsgDxlGetReg), payloads[2][0])
	assert.Equal(t, byte(30), payloads[2][1])
	assert.Equal(t, []byte{byte(motor.ID())}, payloads[2][3:])
	assert.False(t, motor.IsValueSet(RegGoalPosition))
}

func TestTorqueDisableHasNoSideEffect(t *testing.T) {
	robot, ports := newTestRobot(t, ModelFullKit)

	require.NoError(t, robot.SetJointsValue(RegTorqueEnable, map[string]float64{"r_elbow_pitch": 0}))

	payloads := ports["right_arm"].sentPayloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, byte(MsgDxlSetReg), payloads[0][0])
}

func TestForceSensorPublish(t *testing.T) {
	robot, ports := newTestRobot(t, ModelFullKit)

	sensor := robot.forceByName["r_force_gripper"]
	b := payloadBuilder{}
	b.putByte(byte(MsgLoadPubData))
	b.putByte(byte(sensor.ID()))
	b.putBytes(0x00, 0x00, 0x80, 0x3F) // float32 LE 1.0
	ports["right_arm"].push(buildFrame(b.bytes()))

	forces, err := robot.GetForce([]string{"r_force_gripper"}, 0)
	require.NoError(t, err)
	require.Len(t, forces, 1)
	assert.Equal(t, 1.0, forces[0])
}

func TestGateAssertSurfacesToCallers(t *testing.T) {
	robot, ports := newTestRobot(t, ModelFullKit)

	b := payloadBuilder{}
	b.putByte(byte(MsgAssert))
	b.putBytes([]byte("overcurrent")...)
	ports["left_arm"].push(buildFrame(b.bytes()))

	require.Eventually(t, func() bool { return robot.checkFault() != nil }, time.Second, 5*time.Millisecond)

	_, err := robot.GetJointsValue(RegPresentPosition, []string{"r_shoulder_pitch"}, 0)
	require.Error(t, err)
	var herr *Error
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, KindGateAssert, herr.Kind)
	assert.Contains(t, herr.Error(), "overcurrent")
}

func TestConcurrentReadsKeepFramesWhole(t *testing.T) {
	robot, ports := newTestRobot(t, ModelFullKit)
	ports["right_arm"].onWrite = dxlAutoResponder(ports["right_arm"], []byte{0x54, 0x00})

	var wg sync.WaitGroup
	sets := [][]string{
		{"r_shoulder_pitch", "r_shoulder_roll"},
		{"r_arm_yaw", "r_elbow_pitch"},
	}
	errs := make([]error, len(sets))
	for i, names := range sets {
		wg.Add(1)
		go func(i int, names []string) {
			defer wg.Done()
			_, errs[i] = robot.GetJointsValue(RegMovingSpeed, names, 1)
		}(i, names)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	p := ports["right_arm"]
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, frame := range p.writes {
		require.GreaterOrEqual(t, len(frame), 4)
		assert.Equal(t, byte(0xFF), frame[0])
		assert.Equal(t, byte(0xFF), frame[1])
		assert.Equal(t, int(frame[2]), len(frame)-3)
	}
}

func TestOrbitaJointReadWrite(t *testing.T) {
	robot, ports := newTestRobot(t, ModelFullKit)

	// Each neck joint owns one disk of the id-30 actuator; encoder count
	// 4096 on every disk.
	countRaw := make([]byte, 4)
	setDwordLE(countRaw, 0, 4096)
	ports["head"].onWrite = orbitaAutoResponder(ports["head"], countRaw)

	values, err := robot.GetJointsValue(RegPresentPosition, []string{"neck_roll", "neck_yaw"}, 1)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.InDelta(t, OrbitaPositionFromRaw(4096), values[0], 1e-9)
	assert.InDelta(t, OrbitaPositionFromRaw(4096), values[1], 1e-9)

	// One ORBITA_GET for the whole actuator, not one per joint.
	payloads := ports["head"].sentPayloads()
	require.Len(t, payloads, 1)
	assert.Equal(t, byte(MsgOrbitaGet), payloads[0][0])
	assert.Equal(t, byte(30), payloads[0][1])

	// A write targets only the owning disk.
	require.NoError(t, robot.SetJointsValue(RegGoalPosition, map[string]float64{"neck_pitch": 1.0}))
	payloads = ports["head"].sentPayloads()
	require.Len(t, payloads, 2)
	set := payloads[1]
	assert.Equal(t, byte(MsgOrbitaSet), set[0])
	assert.Equal(t, byte(30), set[1])
	assert.Equal(t, orbitaRegisterAddr[RegGoalPosition], set[2])
	assert.Equal(t, byte(OrbitaDiskMiddle), set[3])
}

func TestJointPIDs(t *testing.T) {
	robot, ports := newTestRobot(t, ModelFullKit)

	gains := PIDGains{P: 2, I: 0.5, D: 0.125}
	ports["head"].onWrite = orbitaAutoResponder(ports["head"], encodePIDGains(gains))

	got, err := robot.JointPIDs([]string{"neck_roll", "neck_pitch"}, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, gains, got[0])
	assert.Equal(t, gains, got[1])

	// Both joints share the actuator: one ORBITA_GET total.
	require.Len(t, ports["head"].sentPayloads(), 1)

	require.NoError(t, robot.SetJointPIDs(map[string]PIDGains{"neck_roll": {P: 3, I: 0, D: 0}}))
	payloads := ports["head"].sentPayloads()
	require.Len(t, payloads, 2)
	assert.Equal(t, byte(MsgOrbitaSet), payloads[1][0])
	assert.Equal(t, orbitaRegisterAddr[RegPID], payloads[1][2])

	_, err = robot.JointPIDs([]string{"r_shoulder_pitch"}, 0)
	assert.Error(t, err)
}

func TestFansRouting(t *testing.T) {
	robot, ports := newTestRobot(t, ModelFullKit)

	require.NoError(t, robot.SetFansState(map[string]bool{
		"r_fan_shoulder": true,
		"neck_fan":       true,
	}))

	right := ports["right_arm"].sentPayloads()
	require.Len(t, right, 1)
	assert.Equal(t, byte(MsgFanSet), right[0][0])
	fan := robot.fanByName["r_fan_shoulder"]
	assert.Equal(t, []byte{byte(fan.ID()), 1}, right[0][1:])

	head := ports["head"].sentPayloads()
	require.Len(t, head, 1)
	assert.Equal(t, byte(MsgOrbitaSet), head[0][0])
	assert.Equal(t, orbitaRegisterAddr[RegFanState], head[0][2])
}

func TestGetFansState(t *testing.T) {
	robot, ports := newTestRobot(t, ModelFullKit)

	// Gate publishes the DxlFan's state in reply to FAN_GET.
	fan := robot.fanByName["r_fan_shoulder"]
	ports["right_arm"].onWrite = func(frame []byte) {
		if len(frame) >= 4 && MsgType(frame[3]) == MsgFanGet {
			b := payloadBuilder{}
			b.putByte(byte(MsgFanPubData))
			b.putByte(byte(fan.ID()))
			b.putByte(1)
			ports["right_arm"].push(buildFrame(b.bytes()))
		}
	}

	states, err := robot.GetFansState([]string{"r_fan_shoulder"}, 0)
	require.NoError(t, err)
	require.Len(t, states, 1)
	assert.True(t, states[0])
}

func TestGetJointsValueRetriesThenTimesOut(t *testing.T) {
	robot, ports := newTestRobot(t, ModelFullKit)

	_, err := robot.GetJointsValue(RegMovingSpeed, []string{"r_gripper"}, 1)
	require.Error(t, err)
	var herr *Error
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, KindTimeout, herr.Kind)

	// One request per attempt: the initial try plus one retry.
	assert.Len(t, ports["right_arm"].sentPayloads(), 2)
}

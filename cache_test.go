package reachyhal

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingController counts and records every downstream call so tests can
// assert exactly what the cached facade forwarded.
type recordingController struct {
	mu         sync.Mutex
	setCalls   []map[string]float64
	setRegs    []string
	pidCalls   []map[string]PIDGains
	fanCalls   []map[string]bool
	jointVals  map[string]float64
	forceVals  map[string]float64
	fanVals    map[string]bool
	pidVals    map[string]PIDGains
	forceNames []string
	fanNames   []string
}

func newRecordingController() *recordingController {
	return &recordingController{
		jointVals: map[string]float64{},
		forceVals: map[string]float64{},
		fanVals:   map[string]bool{},
		pidVals:   map[string]PIDGains{},
	}
}

func (r *recordingController) GetJointsValue(register string, names []string, retry int) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(names))
	for i, n := range names {
		out[i] = r.jointVals[n]
	}
	return out, nil
}

func (r *recordingController) SetJointsValue(register string, values map[string]float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setRegs = append(r.setRegs, register)
	r.setCalls = append(r.setCalls, values)
	return nil
}

func (r *recordingController) GetFansState(names []string, retry int) ([]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]bool, len(names))
	for i, n := range names {
		out[i] = r.fanVals[n]
	}
	return out, nil
}

func (r *recordingController) SetFansState(values map[string]bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fanCalls = append(r.fanCalls, values)
	return nil
}

func (r *recordingController) GetForce(names []string, retry int) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(names))
	for i, n := range names {
		out[i] = r.forceVals[n]
	}
	return out, nil
}

func (r *recordingController) JointPIDs(names []string, retry int) ([]PIDGains, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PIDGains, len(names))
	for i, n := range names {
		out[i] = r.pidVals[n]
	}
	return out, nil
}

func (r *recordingController) SetJointPIDs(values map[string]PIDGains) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pidCalls = append(r.pidCalls, values)
	return nil
}

func (r *recordingController) FanNames() []string        { return r.fanNames }
func (r *recordingController) ForceSensorNames() []string { return r.forceNames }

func (r *recordingController) scalarCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.setCalls)
}

func TestCachedComplianceCoalescing(t *testing.T) {
	rec := newRecordingController()
	cached := NewCachedRobot(rec)
	defer cached.Close()

	ok, err := cached.SetCompliance(map[string]bool{"j1": true})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, rec.scalarCalls())

	// Identical write forwards nothing.
	ok, err = cached.SetCompliance(map[string]bool{"j1": true})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, rec.scalarCalls())

	// A different value forwards again, translated to torque_enable.
	ok, err = cached.SetCompliance(map[string]bool{"j1": false})
	require.NoError(t, err)
	assert.True(t, ok)
	require.Equal(t, 2, rec.scalarCalls())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, RegTorqueEnable, rec.setRegs[0])
	assert.Equal(t, map[string]float64{"j1": 0}, rec.setCalls[0]) // compliant: torque off
	assert.Equal(t, map[string]float64{"j1": 1}, rec.setCalls[1])
}

func TestCachedGoalPositionCoalescing(t *testing.T) {
	rec := newRecordingController()
	cached := NewCachedRobot(rec)
	defer cached.Close()

	_, err := cached.SetGoalPositions(map[string]float64{"j1": 0.5, "j2": 1.0})
	require.NoError(t, err)
	require.Equal(t, 1, rec.scalarCalls())

	// Only the changed joint forwards.
	_, err = cached.SetGoalPositions(map[string]float64{"j1": 0.5, "j2": 2.0})
	require.NoError(t, err)
	require.Equal(t, 2, rec.scalarCalls())

	rec.mu.Lock()
	second := rec.setCalls[1]
	rec.mu.Unlock()
	assert.Equal(t, map[string]float64{"j2": 2.0}, second)

	// Reads come back from cache in order.
	got, err := cached.GetGoalPositions([]string{"j2", "j1"})
	require.NoError(t, err)
	assert.Equal(t, []float64{2.0, 0.5}, got)
}

func TestCachedPIDComparedElementWise(t *testing.T) {
	rec := newRecordingController()
	cached := NewCachedRobot(rec)
	defer cached.Close()

	gains := PIDGains{P: 1, I: 2, D: 3}
	_, err := cached.SetPIDs(map[string]PIDGains{"neck_roll": gains})
	require.NoError(t, err)

	_, err = cached.SetPIDs(map[string]PIDGains{"neck_roll": gains})
	require.NoError(t, err)

	rec.mu.Lock()
	calls := len(rec.pidCalls)
	rec.mu.Unlock()
	assert.Equal(t, 1, calls)

	// One component changed: forwards.
	_, err = cached.SetPIDs(map[string]PIDGains{"neck_roll": {P: 1, I: 2, D: 4}})
	require.NoError(t, err)

	// NaN is unknown: always forwards.
	nan := PIDGains{P: math.NaN(), I: 2, D: 4}
	_, err = cached.SetPIDs(map[string]PIDGains{"neck_roll": nan})
	require.NoError(t, err)
	_, err = cached.SetPIDs(map[string]PIDGains{"neck_roll": nan})
	require.NoError(t, err)

	rec.mu.Lock()
	calls = len(rec.pidCalls)
	rec.mu.Unlock()
	assert.Equal(t, 4, calls)
}

func TestCachedFanStateCoalescing(t *testing.T) {
	rec := newRecordingController()
	cached := NewCachedRobot(rec)
	defer cached.Close()

	_, err := cached.SetFanStates(map[string]bool{"f1": true})
	require.NoError(t, err)
	_, err = cached.SetFanStates(map[string]bool{"f1": true})
	require.NoError(t, err)

	rec.mu.Lock()
	calls := len(rec.fanCalls)
	rec.mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestCachedForcePollerRefreshes(t *testing.T) {
	rec := newRecordingController()
	rec.forceNames = []string{"r_force_gripper"}
	rec.mu.Lock()
	rec.forceVals["r_force_gripper"] = 1.0
	rec.mu.Unlock()

	cached := NewCachedRobot(rec)
	defer cached.Close()

	// Inspect the cache directly: GetForces would read through and pass
	// even without the poller.
	assert.Eventually(t, func() bool {
		cached.mu.Lock()
		defer cached.mu.Unlock()
		got, ok := cached.force["r_force_gripper"]
		return ok && got == 1.0
	}, time.Second, 20*time.Millisecond)
}

func TestCachedReadThroughFillsCache(t *testing.T) {
	rec := newRecordingController()
	rec.mu.Lock()
	rec.jointVals["j1"] = 0.75
	rec.mu.Unlock()

	cached := NewCachedRobot(rec)
	defer cached.Close()

	got, err := cached.GetGoalPositions([]string{"j1"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.75}, got)

	// The read-through populated the cache, so an identical write is a
	// no-op downstream.
	_, err = cached.SetGoalPositions(map[string]float64{"j1": 0.75})
	require.NoError(t, err)
	assert.Equal(t, 0, rec.scalarCalls())
}

package reachyhal

import (
	"math"
	"sync"
	"time"
)

// Poller periods for the background refresh goroutines: force at 10 Hz,
// fans at 1 Hz.
const (
	forcePollPeriod = 100 * time.Millisecond
	fanPollPeriod   = 1 * time.Second
)

// cacheRetry is how many extra attempts the facade's own reads get before a
// Timeout surfaces.
const cacheRetry = 1

// JointController is the downstream surface CachedRobot coalesces writes
// for. *Robot implements it; tests substitute a recorder.
type JointController interface {
	GetJointsValue(register string, names []string, retry int) ([]float64, error)
	SetJointsValue(register string, values map[string]float64) error
	GetFansState(names []string, retry int) ([]bool, error)
	SetFansState(values map[string]bool) error
	GetForce(names []string, retry int) ([]float64, error)
	JointPIDs(names []string, retry int) ([]PIDGains, error)
	SetJointPIDs(values map[string]PIDGains) error
	FanNames() []string
	ForceSensorNames() []string
}

// CachedRobot is a dedup-writes layer: it remembers the last
// successfully forwarded goal_position/compliance/speed_limit/torque_limit/
// PID/fan_state per name and only forwards entries that differ. Reads come
// from the cache; force and fan caches are kept fresh by background
// pollers, so once a poll has covered a name its reads do not touch the
// wire on the caller's thread. Names not yet in a cache read through.
type CachedRobot struct {
	joints JointController

	mu           sync.Mutex
	goalPosition map[string]float64
	compliance   map[string]bool
	speedLimit   map[string]float64
	torqueLimit  map[string]float64
	pids         map[string]PIDGains
	fanState     map[string]bool
	force        map[string]float64

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewCachedRobot wraps joints and starts the force/fan pollers. Call Close
// to stop them.
func NewCachedRobot(joints JointController) *CachedRobot {
	c := &CachedRobot{
		joints:       joints,
		goalPosition: make(map[string]float64),
		compliance:   make(map[string]bool),
		speedLimit:   make(map[string]float64),
		torqueLimit:  make(map[string]float64),
		pids:         make(map[string]PIDGains),
		fanState:     make(map[string]bool),
		force:        make(map[string]float64),
		stop:         make(chan struct{}),
	}
	c.wg.Add(2)
	go c.pollLoop(forcePollPeriod, c.refreshForce)
	go c.pollLoop(fanPollPeriod, c.refreshFans)
	return c
}

// Close stops the pollers. It does not close the underlying robot.
func (c *CachedRobot) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
}

func (c *CachedRobot) pollLoop(period time.Duration, refresh func()) {
	defer c.wg.Done()
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			refresh()
		}
	}
}

func (c *CachedRobot) refreshForce() {
	names := c.joints.ForceSensorNames()
	if len(names) == 0 {
		return
	}
	values, err := c.joints.GetForce(names, 0)
	if err != nil {
		Log.Debug().Err(err).Msg("force poll failed")
		return
	}
	c.mu.Lock()
	for i, name := range names {
		c.force[name] = values[i]
	}
	c.mu.Unlock()
}

func (c *CachedRobot) refreshFans() {
	names := c.joints.FanNames()
	if len(names) == 0 {
		return
	}
	states, err := c.joints.GetFansState(names, 0)
	if err != nil {
		Log.Debug().Err(err).Msg("fan poll failed")
		return
	}
	c.mu.Lock()
	for i, name := range names {
		c.fanState[name] = states[i]
	}
	c.mu.Unlock()
}

// sameFloat compares cached scalar values; NaN is treated as unknown, so a
// NaN on either side always forwards.
func sameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return a == b
}

// samePID compares gain triples element-wise with the same NaN rule.
func samePID(a, b PIDGains) bool {
	return sameFloat(a.P, b.P) && sameFloat(a.I, b.I) && sameFloat(a.D, b.D)
}

// setScalar forwards only the entries differing from cache, updating the
// cache only after the downstream write succeeded. Returns true when there
// was nothing to do or the forward succeeded.
func (c *CachedRobot) setScalar(register string, cache map[string]float64, values map[string]float64) (bool, error) {
	c.mu.Lock()
	changed := make(map[string]float64)
	for name, v := range values {
		cached, ok := cache[name]
		if !ok || !sameFloat(cached, v) {
			changed[name] = v
		}
	}
	c.mu.Unlock()

	if len(changed) == 0 {
		return true, nil
	}
	if err := c.joints.SetJointsValue(register, changed); err != nil {
		return false, err
	}
	c.mu.Lock()
	for name, v := range changed {
		cache[name] = v
	}
	c.mu.Unlock()
	return true, nil
}

// getScalar returns cached values in name order, reading through to the
// downstream robot (and filling the cache) for names never written or read
// before.
func (c *CachedRobot) getScalar(register string, cache map[string]float64, names []string) ([]float64, error) {
	out := make([]float64, len(names))
	var missing []string
	c.mu.Lock()
	for i, name := range names {
		if v, ok := cache[name]; ok {
			out[i] = v
		} else {
			missing = append(missing, name)
		}
	}
	c.mu.Unlock()

	if len(missing) > 0 {
		fetched, err := c.joints.GetJointsValue(register, missing, cacheRetry)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		j := 0
		for i, name := range names {
			for _, m := range missing {
				if m == name {
					out[i] = fetched[j]
					cache[name] = fetched[j]
					j++
				}
			}
		}
		c.mu.Unlock()
	}
	return out, nil
}

// GetGoalPositions returns the last written (or read-through) goal per name.
func (c *CachedRobot) GetGoalPositions(names []string) ([]float64, error) {
	return c.getScalar(RegGoalPosition, c.goalPosition, names)
}

// SetGoalPositions forwards only changed goals.
func (c *CachedRobot) SetGoalPositions(values map[string]float64) (bool, error) {
	return c.setScalar(RegGoalPosition, c.goalPosition, values)
}

// GetSpeedLimits returns the last written (or read-through) moving_speed
// per name.
func (c *CachedRobot) GetSpeedLimits(names []string) ([]float64, error) {
	return c.getScalar(RegMovingSpeed, c.speedLimit, names)
}

// SetSpeedLimits forwards only changed speed limits.
func (c *CachedRobot) SetSpeedLimits(values map[string]float64) (bool, error) {
	return c.setScalar(RegMovingSpeed, c.speedLimit, values)
}

// GetTorqueLimits returns the last written (or read-through) torque_limit
// per name.
func (c *CachedRobot) GetTorqueLimits(names []string) ([]float64, error) {
	return c.getScalar(RegTorqueLimit, c.torqueLimit, names)
}

// SetTorqueLimits forwards only changed torque limits.
func (c *CachedRobot) SetTorqueLimits(values map[string]float64) (bool, error) {
	return c.setScalar(RegTorqueLimit, c.torqueLimit, values)
}

// GetCompliance returns each joint's cached compliant flag. A joint with
// torque enabled is stiff (compliant=false); never-written names read
// through torque_enable.
func (c *CachedRobot) GetCompliance(names []string) ([]bool, error) {
	out := make([]bool, len(names))
	var missing []string
	c.mu.Lock()
	for i, name := range names {
		if v, ok := c.compliance[name]; ok {
			out[i] = v
		} else {
			missing = append(missing, name)
		}
	}
	c.mu.Unlock()

	if len(missing) > 0 {
		fetched, err := c.joints.GetJointsValue(RegTorqueEnable, missing, cacheRetry)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		j := 0
		for i, name := range names {
			for _, m := range missing {
				if m == name {
					compliant := fetched[j] == 0
					out[i] = compliant
					c.compliance[name] = compliant
					j++
				}
			}
		}
		c.mu.Unlock()
	}
	return out, nil
}

// SetCompliance forwards only changed compliance flags, translated to
// torque_enable writes (compliant means torque off).
func (c *CachedRobot) SetCompliance(values map[string]bool) (bool, error) {
	c.mu.Lock()
	changed := make(map[string]float64)
	changedFlags := make(map[string]bool)
	for name, compliant := range values {
		cached, ok := c.compliance[name]
		if !ok || cached != compliant {
			enable := 0.0
			if !compliant {
				enable = 1.0
			}
			changed[name] = enable
			changedFlags[name] = compliant
		}
	}
	c.mu.Unlock()

	if len(changed) == 0 {
		return true, nil
	}
	if err := c.joints.SetJointsValue(RegTorqueEnable, changed); err != nil {
		return false, err
	}
	c.mu.Lock()
	for name, compliant := range changedFlags {
		c.compliance[name] = compliant
	}
	c.mu.Unlock()
	return true, nil
}

// GetPIDs returns the last written gain triple per name, reading through
// for names never written.
func (c *CachedRobot) GetPIDs(names []string) ([]PIDGains, error) {
	out := make([]PIDGains, len(names))
	var missing []string
	c.mu.Lock()
	for i, name := range names {
		if v, ok := c.pids[name]; ok {
			out[i] = v
		} else {
			missing = append(missing, name)
		}
	}
	c.mu.Unlock()

	if len(missing) > 0 {
		fetched, err := c.joints.JointPIDs(missing, cacheRetry)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		j := 0
		for i, name := range names {
			for _, m := range missing {
				if m == name {
					out[i] = fetched[j]
					c.pids[name] = fetched[j]
					j++
				}
			}
		}
		c.mu.Unlock()
	}
	return out, nil
}

// SetPIDs forwards only gain triples that differ element-wise from the
// cache; any NaN component makes the triple count as unknown.
func (c *CachedRobot) SetPIDs(values map[string]PIDGains) (bool, error) {
	c.mu.Lock()
	changed := make(map[string]PIDGains)
	for name, gains := range values {
		cached, ok := c.pids[name]
		if !ok || !samePID(cached, gains) {
			changed[name] = gains
		}
	}
	c.mu.Unlock()

	if len(changed) == 0 {
		return true, nil
	}
	if err := c.joints.SetJointPIDs(changed); err != nil {
		return false, err
	}
	c.mu.Lock()
	for name, gains := range changed {
		c.pids[name] = gains
	}
	c.mu.Unlock()
	return true, nil
}

// GetFanStates returns the poller-maintained fan states; names the poller
// hasn't covered yet read through.
func (c *CachedRobot) GetFanStates(names []string) ([]bool, error) {
	out := make([]bool, len(names))
	var missing []string
	c.mu.Lock()
	for i, name := range names {
		if v, ok := c.fanState[name]; ok {
			out[i] = v
		} else {
			missing = append(missing, name)
		}
	}
	c.mu.Unlock()

	if len(missing) > 0 {
		fetched, err := c.joints.GetFansState(missing, cacheRetry)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		j := 0
		for i, name := range names {
			for _, m := range missing {
				if m == name {
					out[i] = fetched[j]
					c.fanState[name] = fetched[j]
					j++
				}
			}
		}
		c.mu.Unlock()
	}
	return out, nil
}

// SetFanStates forwards only changed fan states.
func (c *CachedRobot) SetFanStates(values map[string]bool) (bool, error) {
	c.mu.Lock()
	changed := make(map[string]bool)
	for name, on := range values {
		cached, ok := c.fanState[name]
		if !ok || cached != on {
			changed[name] = on
		}
	}
	c.mu.Unlock()

	if len(changed) == 0 {
		return true, nil
	}
	if err := c.joints.SetFansState(changed); err != nil {
		return false, err
	}
	c.mu.Lock()
	for name, on := range changed {
		c.fanState[name] = on
	}
	c.mu.Unlock()
	return true, nil
}

// GetForces returns the poller-maintained force readings; names the poller
// hasn't covered yet read through.
func (c *CachedRobot) GetForces(names []string) ([]float64, error) {
	out := make([]float64, len(names))
	var missing []string
	c.mu.Lock()
	for i, name := range names {
		if v, ok := c.force[name]; ok {
			out[i] = v
		} else {
			missing = append(missing, name)
		}
	}
	c.mu.Unlock()

	if len(missing) > 0 {
		fetched, err := c.joints.GetForce(missing, cacheRetry)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		j := 0
		for i, name := range names {
			for _, m := range missing {
				if m == name {
					out[i] = fetched[j]
					c.force[name] = fetched[j]
					j++
				}
			}
		}
		c.mu.Unlock()
	}
	return out, nil
}

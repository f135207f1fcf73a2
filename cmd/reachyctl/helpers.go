package main

import (
	"fmt"
	"strconv"
	"strings"

	reachyhal "github.com/pollen-robotics/reachy-hal"
)

// resolveModel picks the robot model from an explicit flag, else the
// REACHY_MODEL / REACHY_CONFIG_FILE resolution chain.
func resolveModel(flag string) (reachyhal.RobotModel, error) {
	if flag != "" {
		model := reachyhal.RobotModel(flag)
		if !model.IsValid() {
			return "", fmt.Errorf("unknown robot model %q", flag)
		}
		return model, nil
	}
	return reachyhal.ResolveModel()
}

// openRobot brings a Robot up against the given candidate ports.
func openRobot(modelFlag string, ports []string) (*reachyhal.Robot, error) {
	model, err := resolveModel(modelFlag)
	if err != nil {
		return nil, err
	}
	robot, err := reachyhal.NewRobot(model)
	if err != nil {
		return nil, err
	}
	if len(ports) == 0 {
		return nil, fmt.Errorf("no serial ports given (use --port or REACHYCTL_PORT)")
	}
	if err := robot.Open(ports); err != nil {
		return nil, err
	}
	return robot, nil
}

// nameValues parses name=value positional arguments.
func nameValues(refs []string) (map[string]float64, error) {
	ret := map[string]float64{}
	for _, ref := range refs {
		parts := strings.SplitN(ref, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("expected name=value, not: %v", ref)
		}
		val, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, err
		}
		ret[parts[0]] = val
	}
	return ret, nil
}

// nameBools parses name=on|off positional arguments.
func nameBools(refs []string) (map[string]bool, error) {
	ret := map[string]bool{}
	for _, ref := range refs {
		parts := strings.SplitN(ref, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("expected name=on|off, not: %v", ref)
		}
		switch parts[1] {
		case "on", "true", "t", "1":
			ret[parts[0]] = true
		case "off", "false", "f", "0":
			ret[parts[0]] = false
		default:
			return nil, fmt.Errorf("illegal state %v (expect on or off)", parts[1])
		}
	}
	return ret, nil
}

package reachyhal

import (
	"fmt"
	"sort"
	"time"
)

// detectionTimeout bounds one port's DETECTION_REQUEST round trip, which
// is empirically under 500 ms.
const detectionTimeout = 500 * time.Millisecond

// DeviceRef names one device the robot configuration expects to find on
// some gate, by class and id.
type DeviceRef struct {
	Class string
	ID    int
}

func (d DeviceRef) alias() string {
	switch d.Class {
	case "dynamixel":
		return fmt.Sprintf("dxl_%d", d.ID)
	case "force":
		return fmt.Sprintf("load_%d", d.ID)
	case "orbita":
		return fmt.Sprintf("orbita_%d", d.ID)
	case "fan":
		return fmt.Sprintf("fan_%d", d.ID)
	default:
		return fmt.Sprintf("%s_%d", d.Class, d.ID)
	}
}

func (d DeviceRef) containerType() string {
	switch d.Class {
	case "dynamixel":
		return "DynamixelMotor"
	case "force":
		return "Load"
	case "orbita":
		return "Orbita"
	case "fan":
		return "Fan"
	default:
		return d.Class
	}
}

// DiscoveryResult is one candidate port's outcome.
type DiscoveryResult struct {
	Port    string
	Matched []DeviceRef
	Missing []DeviceRef
}

// FindGate tries each candidate port in turn, asking it to enumerate its
// attached containers and comparing that against `want`. The port with
// zero missing devices wins and discovery stops early; otherwise every
// port is tried and the best (fewest missing) is returned.
func FindGate(want []DeviceRef, ports []string) (DiscoveryResult, error) {
	var results []DiscoveryResult

	for _, port := range ports {
		containers, err := probePort(port)
		if err != nil {
			Log.Warn().Str("port", port).Err(err).Msg("discovery probe failed")
			continue
		}

		matched, missing := matchContainers(want, containers)
		result := DiscoveryResult{Port: port, Matched: matched, Missing: missing}
		results = append(results, result)

		if len(missing) == 0 {
			return result, nil
		}
	}

	if len(results) == 0 {
		return DiscoveryResult{}, DiscoveryMissingErrorF("no candidate port responded to detection")
	}

	sort.Slice(results, func(i, j int) bool {
		return len(results[i].Missing) < len(results[j].Missing)
	})
	best := results[0]
	return best, DiscoveryMissingErrorF("no port hosted every expected device; best candidate %s missing %v", best.Port, best.Missing)
}

// probePort opens device, sends DETECTION_REQUEST and collects whatever
// CONTAINER_DESCRIPTOR replies arrive before detectionTimeout, then
// closes the port again (discovery does not keep it open; the robot
// core reopens the winning port through GateClient).
func probePort(device string) ([]containerDescriptor, error) {
	port, err := openSerialPort(device)
	if err != nil {
		return nil, err
	}
	defer port.Close()

	if _, err := port.Write(detectionRequestFrame()); err != nil {
		return nil, err
	}

	decoder := NewFrameDecoder()
	buf := make([]byte, 4096)
	deadline := time.Now().Add(detectionTimeout)

	var containers []containerDescriptor
	for time.Now().Before(deadline) {
		n, err := port.Read(buf)
		if err != nil {
			break
		}
		if n == 0 {
			continue
		}
		for _, payload := range decoder.Feed(buf[:n]) {
			if len(payload) == 0 || MsgType(payload[0]) != MsgContainerDescr {
				continue
			}
			descs, err := parseContainerDescriptors(payload[1:])
			if err != nil {
				continue
			}
			containers = append(containers, descs...)
		}
	}
	return containers, nil
}

func matchContainers(want []DeviceRef, containers []containerDescriptor) (matched, missing []DeviceRef) {
	for _, dev := range want {
		found := false
		for _, c := range containers {
			if c.Type == dev.containerType() && c.Alias == dev.alias() {
				found = true
				break
			}
		}
		if found {
			matched = append(matched, dev)
		} else {
			missing = append(missing, dev)
		}
	}
	return matched, missing
}

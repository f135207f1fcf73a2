package reachyhal

import "math"

// dxlJointSpec is one entry of a model's static device table: a logical
// joint name bound to a Dynamixel id, its gate, and its variant, offset
// and direction.
type dxlJointSpec struct {
	Name    string
	ID      int
	Gate    string
	Variant DynamixelVariant
	Offset  float64
	Direct  bool
}

// orbitaJointSpec binds a logical joint name to one disk of an Orbita
// actuator. ORBITA_GET has no disk selector (a publish always carries all
// three disks at once), but ORBITA_SET can target a single disk, so a
// name resolves to (actuator, disk) and reads/writes address that one
// disk's cell.
type orbitaJointSpec struct {
	Name       string
	ActuatorID int
	Disk       OrbitaDiskName
	Gate       string
}

type forceSpec struct {
	Name string
	ID   int
	Gate string
}

type fanSpec struct {
	Name    string
	ID      int
	Gate    string
	Kind    string // "dxl" or "orbita"
	OwnerID int    // meaningful only for Kind == "orbita"
}

// armDxlJoints returns the 8-joint Dynamixel table for one arm: ids 10-17
// for the right arm wired to gate "right_arm", 20-27 for the left arm
// wired to gate "left_arm".
func armDxlJoints(side string) []dxlJointSpec {
	var base int
	var gate string
	switch side {
	case "r":
		base, gate = 10, "right_arm"
	case "l":
		base, gate = 20, "left_arm"
	default:
		panic("robotmodel: unknown side " + side)
	}

	names := []string{
		side + "_shoulder_pitch", side + "_shoulder_roll", side + "_arm_yaw",
		side + "_elbow_pitch", side + "_forearm_yaw", side + "_wrist_pitch",
		side + "_wrist_roll", side + "_gripper",
	}
	variants := []DynamixelVariant{
		VariantMX106, VariantMX64, VariantMX64, VariantMX64,
		VariantAX18, VariantMX28, VariantAX18, VariantAX18,
	}
	// The right arm's first two joints carry a +90 degree offset and
	// direct=false; the left arm's shoulder_pitch carries the same offset
	// with direct=true, and shoulder_roll flips to -90 degrees.
	offsetsDeg := []float64{0, 0, 0, 0, 0, 0, 0, 0}
	directs := []bool{false, false, false, false, false, false, false, true}
	if side == "r" {
		offsetsDeg[0], offsetsDeg[1] = 90, 90
	} else {
		offsetsDeg[0], offsetsDeg[1] = 90, -90
		directs[0] = true
	}

	joints := make([]dxlJointSpec, 8)
	for i := range names {
		joints[i] = dxlJointSpec{
			Name:    names[i],
			ID:      base + i,
			Gate:    gate,
			Variant: variants[i],
			Offset:  offsetsDeg[i] * math.Pi / 180,
			Direct:  directs[i],
		}
	}
	return joints
}

// armWithOrbitaWrist replaces an arm's wrist_pitch/wrist_roll pair (the
// joints in dxlJointSpec positions 5 and 6, ids base+5/base+6) with a
// single 3-disk Orbita wrist, keeping the gripper dynamixel untouched.
// This is the hardware layout behind the "_advanced" model names.
func armWithOrbitaWrist(side string) ([]dxlJointSpec, []orbitaJointSpec) {
	full := armDxlJoints(side)
	gate := full[0].Gate
	wristID := full[0].ID + 100 // e.g. right wrist actuator id 110, left 120

	kept := make([]dxlJointSpec, 0, len(full)-2)
	for i, j := range full {
		if i == 5 || i == 6 {
			continue
		}
		kept = append(kept, j)
	}

	orbita := []orbitaJointSpec{
		{Name: side + "_wrist_pitch", ActuatorID: wristID, Disk: OrbitaDiskTop, Gate: gate},
		{Name: side + "_wrist_roll", ActuatorID: wristID, Disk: OrbitaDiskMiddle, Gate: gate},
	}
	return kept, orbita
}

// deviceTable is the fully-resolved static configuration for one
// RobotModel: every joint, force sensor and fan it brings up, and which
// gate each is reached through.
type deviceTable struct {
	Dxl    []dxlJointSpec
	Orbita []orbitaJointSpec
	Force  []forceSpec
	Fans   []fanSpec
}

// BuildDeviceTable expands a RobotModel into its device table.
func BuildDeviceTable(model RobotModel) (deviceTable, error) {
	if !model.IsValid() {
		return deviceTable{}, DiscoveryMissingErrorF("unknown robot model %q", model)
	}

	switch model {
	case ModelRoboticArmRight:
		return armOnly("r", false), nil
	case ModelRoboticArmRightAdvanced:
		return armOnly("r", true), nil
	case ModelRoboticArmLeft:
		return armOnly("l", false), nil
	case ModelRoboticArmLeftAdvanced:
		return armOnly("l", true), nil
	case ModelStarterKitRight:
		return starterKit("r", false), nil
	case ModelStarterKitRightAdvanced:
		return starterKit("r", true), nil
	case ModelStarterKitLeft:
		return starterKit("l", false), nil
	case ModelStarterKitLeftAdvanced:
		return starterKit("l", true), nil
	case ModelFullKit:
		return fullKit(false, false), nil
	case ModelFullKitLeftAdvanced:
		return fullKit(true, false), nil
	case ModelFullKitRightAdvanced:
		return fullKit(false, true), nil
	case ModelFullKitFullAdvanced:
		return fullKit(true, true), nil
	default:
		return deviceTable{}, DiscoveryMissingErrorF("unsupported robot model %q", model)
	}
}

// ExpectedDevices expands a model into the per-gate device sets discovery
// challenges candidate ports with. cmd/reachyctl uses this to
// dry-run discovery without bringing a Robot up.
func ExpectedDevices(model RobotModel) (map[string][]DeviceRef, error) {
	table, err := BuildDeviceTable(model)
	if err != nil {
		return nil, err
	}
	out := map[string][]DeviceRef{}
	for _, s := range table.Dxl {
		out[s.Gate] = append(out[s.Gate], DeviceRef{Class: "dynamixel", ID: s.ID})
	}
	seen := map[int]bool{}
	for _, s := range table.Orbita {
		if seen[s.ActuatorID] {
			continue
		}
		seen[s.ActuatorID] = true
		out[s.Gate] = append(out[s.Gate], DeviceRef{Class: "orbita", ID: s.ActuatorID})
	}
	for _, s := range table.Force {
		out[s.Gate] = append(out[s.Gate], DeviceRef{Class: "force", ID: s.ID})
	}
	for _, s := range table.Fans {
		out[s.Gate] = append(out[s.Gate], DeviceRef{Class: "fan", ID: s.ID})
	}
	return out, nil
}

func armOnly(side string, advanced bool) deviceTable {
	if !advanced {
		return deviceTable{Dxl: armDxlJoints(side)}
	}
	dxl, orbita := armWithOrbitaWrist(side)
	return deviceTable{Dxl: dxl, Orbita: orbita}
}

func starterKit(side string, advanced bool) deviceTable {
	t := armOnly(side, advanced)
	gripperID := t.Dxl[len(t.Dxl)-1].ID
	gate := t.Dxl[len(t.Dxl)-1].Gate
	t.Force = []forceSpec{{Name: side + "_force_gripper", ID: gripperID, Gate: gate}}
	t.Fans = []fanSpec{{Name: side + "_fan_shoulder", ID: t.Dxl[0].ID, Gate: gate, Kind: "dxl"}}
	return t
}

func fullKit(leftAdvanced, rightAdvanced bool) deviceTable {
	right := starterKit("r", rightAdvanced)
	left := starterKit("l", leftAdvanced)

	t := deviceTable{}
	t.Dxl = append(append(t.Dxl, right.Dxl...), left.Dxl...)
	t.Orbita = append(append(t.Orbita, right.Orbita...), left.Orbita...)
	t.Force = append(append(t.Force, right.Force...), left.Force...)
	t.Fans = append(append(t.Fans, right.Fans...), left.Fans...)

	const neckID = 30
	t.Orbita = append(t.Orbita,
		orbitaJointSpec{Name: "neck_roll", ActuatorID: neckID, Disk: OrbitaDiskTop, Gate: "head"},
		orbitaJointSpec{Name: "neck_pitch", ActuatorID: neckID, Disk: OrbitaDiskMiddle, Gate: "head"},
		orbitaJointSpec{Name: "neck_yaw", ActuatorID: neckID, Disk: OrbitaDiskBottom, Gate: "head"},
	)
	t.Fans = append(t.Fans, fanSpec{Name: "neck_fan", ID: neckID, Gate: "head", Kind: "orbita", OwnerID: neckID})

	return t
}

/*
Package reachyhal is a hardware abstraction layer for a humanoid robot built
from several daisy-chained motor/sensor buses, each reached through a serial
"gate" board.

A gate multiplexes Dynamixel servo motors, a 3-disk Orbita wrist actuator,
force sensors and cooling fans behind a small framed protocol. Callers of
this package never see raw register addresses or device-specific encodings:
they ask for a named joint's position in radians, set a goal velocity in
rad/s or a torque limit in percent, or read a force sensor's value, and the layer takes care of converting to
and from the wire, batching requests per gate, and reconciling the gate's
asynchronous publish messages with the call that is waiting on them.

A Robot is built from a model name; discovery then figures out which
candidate serial port hosts which device set:

	model, err := reachyhal.ResolveModel()
	if err != nil {
		log.Fatal(err)
	}
	robot, err := reachyhal.NewRobot(model)
	if err != nil {
		log.Fatal(err)
	}
	if err := robot.Open(candidatePorts); err != nil {
		log.Fatal(err)
	}
	defer robot.Close()

	pos, err := robot.GetJointsValue(reachyhal.RegPresentPosition, []string{"r_shoulder_pitch"}, 2)

Robot and GateClient are safe for concurrent use by multiple goroutines.
*/
package reachyhal

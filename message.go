package reachyhal

// MsgType enumerates the message type byte carried in payload[0] of every
// frame. Values are fixed by the gate firmware's wire
// protocol; the Orbita codes must match the gate firmware build this
// deployment ships with.
type MsgType byte

const (
	MsgDxlGetReg   MsgType = 10
	MsgDxlSetReg   MsgType = 11
	MsgDxlPubData  MsgType = 15
	MsgLoadPubData MsgType = 20

	MsgOrbitaGet     MsgType = 50
	MsgOrbitaSet     MsgType = 51
	MsgOrbitaPubData MsgType = 55

	MsgFanGet     MsgType = 30
	MsgFanSet     MsgType = 31
	MsgFanPubData MsgType = 35

	MsgKeepAlive        MsgType = 200
	MsgDetectionRequest MsgType = 201
	MsgContainerDescr   MsgType = 210
	MsgAssert           MsgType = 222
)

const frameHeader1 byte = 0xFF
const frameHeader2 byte = 0xFF

// buildFrame wraps a payload (message type byte followed by its arguments)
// in the wire frame: 0xFF 0xFF LEN PAYLOAD[LEN]. LEN must fit
// in a byte; payloads in this protocol never approach that limit.
func buildFrame(payload []byte) []byte {
	frame := make([]byte, 0, len(payload)+3)
	frame = append(frame, frameHeader1, frameHeader2, byte(len(payload)))
	frame = append(frame, payload...)
	return frame
}

// keepAliveFrame is the frame sent once a second to hold the gate's link up.
func keepAliveFrame() []byte {
	return buildFrame([]byte{byte(MsgKeepAlive)})
}

// detectionRequestFrame asks a gate to enumerate its attached containers.
func detectionRequestFrame() []byte {
	return buildFrame([]byte{byte(MsgDetectionRequest)})
}

// dxlGetRegFrame requests the given register for a set of Dynamixel ids.
// Layout: DXL_GET_REG REG NBYTES (ID)+
func dxlGetRegFrame(addr byte, nbytes byte, ids []byte) []byte {
	b := payloadBuilder{}
	b.putByte(byte(MsgDxlGetReg))
	b.putByte(addr)
	b.putByte(nbytes)
	b.putBytes(ids...)
	return buildFrame(b.bytes())
}

// dxlSetRegFrame writes the given register for a set of Dynamixel ids.
// Layout: DXL_SET_REG REG NBYTES (ID (VAL)^NBYTES)+
func dxlSetRegFrame(addr byte, nbytes byte, values map[byte][]byte) []byte {
	b := payloadBuilder{}
	b.putByte(byte(MsgDxlSetReg))
	b.putByte(addr)
	b.putByte(nbytes)
	for id, val := range values {
		b.putByte(id)
		b.putBytes(val...)
	}
	return buildFrame(b.bytes())
}

// orbitaGetFrame requests a register of a single Orbita actuator.
func orbitaGetFrame(orbitaID byte, reg byte) []byte {
	b := payloadBuilder{}
	b.putByte(byte(MsgOrbitaGet))
	b.putByte(orbitaID)
	b.putByte(reg)
	return buildFrame(b.bytes())
}

// orbitaSetFrame writes per-disk values of a register on a single Orbita
// actuator. Layout: ORBITA_SET ORBITA_ID REG (DISK_IDX (VAL)^k)+
func orbitaSetFrame(orbitaID byte, reg byte, perDisk [][]byte) []byte {
	b := payloadBuilder{}
	b.putByte(byte(MsgOrbitaSet))
	b.putByte(orbitaID)
	b.putByte(reg)
	for idx, val := range perDisk {
		b.putByte(byte(idx))
		b.putBytes(val...)
	}
	return buildFrame(b.bytes())
}

// orbitaSetFrameForDisks is orbitaSetFrame for an explicit subset of disks:
// diskIdx[i] selects which disk values[i] lands on. A joint name owns one
// disk, so a single-joint write targets just that disk's index.
func orbitaSetFrameForDisks(orbitaID byte, reg byte, diskIdx []int, values [][]byte) []byte {
	b := payloadBuilder{}
	b.putByte(byte(MsgOrbitaSet))
	b.putByte(orbitaID)
	b.putByte(reg)
	for i, val := range values {
		b.putByte(byte(diskIdx[i]))
		b.putBytes(val...)
	}
	return buildFrame(b.bytes())
}

// fanGetFrame requests state for a set of fan ids.
func fanGetFrame(ids []byte) []byte {
	b := payloadBuilder{}
	b.putByte(byte(MsgFanGet))
	b.putBytes(ids...)
	return buildFrame(b.bytes())
}

// fanSetFrame writes on/off state for a set of fan ids.
func fanSetFrame(states map[byte]byte) []byte {
	b := payloadBuilder{}
	b.putByte(byte(MsgFanSet))
	for id, state := range states {
		b.putByte(id)
		b.putByte(state)
	}
	return buildFrame(b.bytes())
}

// containerDescriptor is one entry of a CONTAINER_DESCRIPTOR reply: a
// container's type string ("DynamixelMotor", "Load", "Orbita", "Fan") and
// its alias (e.g. "dxl_42").
type containerDescriptor struct {
	Type  string
	Alias string
}

// parseContainerDescriptors decodes a CONTAINER_DESCRIPTOR payload (message
// type byte already stripped): repeated TYPE_LEN TYPE ALIAS_LEN ALIAS
// entries.
func parseContainerDescriptors(payload []byte) ([]containerDescriptor, error) {
	r := newPayloadReader(payload)
	var out []containerDescriptor
	for r.canRead(1) == nil {
		typeLen, err := r.readByte()
		if err != nil {
			return nil, err
		}
		typeBytes, err := r.readBytes(int(typeLen))
		if err != nil {
			return nil, err
		}
		aliasLen, err := r.readByte()
		if err != nil {
			return nil, err
		}
		aliasBytes, err := r.readBytes(int(aliasLen))
		if err != nil {
			return nil, err
		}
		out = append(out, containerDescriptor{Type: string(typeBytes), Alias: string(aliasBytes)})
	}
	return out, nil
}

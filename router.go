package reachyhal

import "sync"

// Router is a stateless dispatcher: it owns no hardware state of its own,
// only the registry lookups needed to find which device a publish belongs
// to. A single mutex serializes every callback across every gate, so two
// gates publishing at the same instant never race on setting a cell and
// signaling its waiters.
type Router struct {
	mu sync.Mutex

	dxl    map[int]*DynamixelMotor
	orbita map[int]*OrbitaActuator
	force  map[int]*ForceSensor
	fans   map[int]Fan

	onAssert func(gate string, err *Error)
}

// NewRouter builds an empty router; Register* calls populate it before any
// gate starts dispatching into it.
func NewRouter() *Router {
	return &Router{
		dxl:    make(map[int]*DynamixelMotor),
		orbita: make(map[int]*OrbitaActuator),
		force:  make(map[int]*ForceSensor),
		fans:   make(map[int]Fan),
	}
}

func (r *Router) RegisterDynamixel(m *DynamixelMotor) { r.dxl[m.ID()] = m }
func (r *Router) RegisterOrbita(a *OrbitaActuator)    { r.orbita[a.ID()] = a }
func (r *Router) RegisterForceSensor(s *ForceSensor)  { r.force[s.ID()] = s }
func (r *Router) RegisterFan(f Fan)                   { r.fans[f.ID()] = f }

// OnAssert installs the callback invoked when a gate reports ASSERT, after
// the gate itself has already marked its own Faulted flag. The robot core
// uses this to surface the fatal error to whatever API call is in flight.
func (r *Router) OnAssert(fn func(gate string, err *Error)) {
	r.onAssert = fn
}

// Dispatch implements DispatchFunc; pass this as the callback to every
// GateClient sharing this router.
func (r *Router) Dispatch(gate string, msgType MsgType, body []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch msgType {
	case MsgDxlPubData:
		r.handleDxlPubData(body)
	case MsgLoadPubData:
		r.handleLoadPubData(body)
	case MsgOrbitaPubData:
		r.handleOrbitaPubData(body)
	case MsgFanPubData:
		r.handleFanPubData(body)
	case MsgAssert:
		if r.onAssert != nil {
			r.onAssert(gate, GateAssertErrorF(gate, string(body)))
		}
	default:
		Log.Debug().Str("gate", gate).Uint8("msgType", uint8(msgType)).Msg("unhandled message type")
	}
}

// handleDxlPubData parses `REG VALSIZE (ID ERR_LO ERR_HI (VAL)^VALSIZE)+`
// and applies each update. A nonzero err field is logged, not
// raised, and the value is still applied.
func (r *Router) handleDxlPubData(body []byte) {
	reader := newPayloadReader(body)
	reg, err := reader.readByte()
	if err != nil {
		Log.Debug().Err(err).Msg("dropped malformed DXL_PUB_DATA header")
		return
	}
	valsize, err := reader.readByte()
	if err != nil {
		Log.Debug().Err(err).Msg("dropped malformed DXL_PUB_DATA header")
		return
	}

	for reader.canRead(1+2+int(valsize)) == nil {
		id, _ := reader.readByte()
		errLo, _ := reader.readByte()
		errHi, _ := reader.readByte()
		val, _ := reader.readBytes(int(valsize))

		motor, ok := r.dxl[int(id)]
		if !ok {
			continue
		}
		name, ok := motor.NameForAddress(reg)
		if !ok {
			continue
		}
		if errCode := uint16(errLo) | uint16(errHi)<<8; errCode != 0 {
			Log.Warn().Err(DxlDeviceErrorF("dxl %d: err=%d on register %q", id, errCode, name)).Send()
		}
		motor.UpdateRaw(name, val)
	}
}

// handleLoadPubData parses `(ID (FLOAT32_LE)^4)+`: one force
// reading per sensor.
func (r *Router) handleLoadPubData(body []byte) {
	reader := newPayloadReader(body)
	for reader.canRead(5) == nil {
		id, _ := reader.readByte()
		val, _ := reader.readBytes(4)

		sensor, ok := r.force[int(id)]
		if !ok {
			continue
		}
		if err := sensor.UpdateRaw(val); err != nil {
			Log.Debug().Err(err).Msg("dropped malformed LOAD_PUB_DATA entry")
		}
	}
}

// handleOrbitaPubData parses `ORBITA_ID REG (VAL)+` of length 3k and
// splits it into the three owning disks.
func (r *Router) handleOrbitaPubData(body []byte) {
	reader := newPayloadReader(body)
	id, err := reader.readByte()
	if err != nil {
		Log.Debug().Err(err).Msg("dropped malformed ORBITA_PUB_DATA header")
		return
	}
	addr, err := reader.readByte()
	if err != nil {
		Log.Debug().Err(err).Msg("dropped malformed ORBITA_PUB_DATA header")
		return
	}
	values, err := reader.readBytes(reader.remaining())
	if err != nil {
		Log.Debug().Err(err).Msg("dropped malformed ORBITA_PUB_DATA body")
		return
	}

	actuator, ok := r.orbita[int(id)]
	if !ok {
		return
	}
	name, ok := orbitaNameForAddress(addr)
	if !ok {
		return
	}
	if err := actuator.UpdateValue(name, values); err != nil {
		Log.Debug().Err(err).Msg("dropped malformed ORBITA_PUB_DATA payload")
	}
}

// handleFanPubData parses `(ID STATE)+`.
func (r *Router) handleFanPubData(body []byte) {
	reader := newPayloadReader(body)
	for reader.canRead(2) == nil {
		id, _ := reader.readByte()
		state, _ := reader.readByte()

		fan, ok := r.fans[int(id)]
		if !ok {
			continue
		}
		if err := fan.UpdateRaw([]byte{state}); err != nil {
			Log.Debug().Err(err).Msg("dropped malformed FAN_PUB_DATA entry")
		}
	}
}

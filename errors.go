package reachyhal

import "fmt"

// Kind identifies which branch of the error taxonomy an Error belongs to.
// It lets callers do coarse recovery without string matching.
type Kind uint8

const (
	// KindTimeout means a SyncCell wait expired before the matching publish arrived.
	KindTimeout Kind = iota
	// KindGateAssert means a gate reported a firmware assertion; the gate is lost.
	KindGateAssert
	// KindDiscoveryMissing means no candidate port hosted every expected device.
	KindDiscoveryMissing
	// KindIDCollision means two devices in the same class share an id.
	KindIDCollision
	// KindBadFrame means a frame's header/length fields did not parse.
	KindBadFrame
	// KindDxlDeviceError means a DXL_PUB_DATA carried a nonzero err field.
	KindDxlDeviceError
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindGateAssert:
		return "gate-assert"
	case KindDiscoveryMissing:
		return "discovery-missing"
	case KindIDCollision:
		return "id-collision"
	case KindBadFrame:
		return "bad-frame"
	case KindDxlDeviceError:
		return "dxl-device-error"
	default:
		return "unknown"
	}
}

// Error is the error type raised at every HAL boundary. It carries a Kind so
// callers can branch on it with errors.As, and preserves whatever detail the
// originating layer had (a gate's assertion text, a missing device list, ...).
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...)}
}

// TimeoutErrorF builds a timeout error for a SyncCell wait that expired.
func TimeoutErrorF(format string, args ...interface{}) *Error {
	return newError(KindTimeout, format, args...)
}

// GateAssertErrorF wraps a gate's verbatim firmware assertion text.
func GateAssertErrorF(gate, text string) *Error {
	return newError(KindGateAssert, "gate %q asserted: %s", gate, text)
}

// DiscoveryMissingErrorF reports the best candidate port and what it lacked.
func DiscoveryMissingErrorF(format string, args ...interface{}) *Error {
	return newError(KindDiscoveryMissing, format, args...)
}

// IDCollisionErrorF reports a duplicate id within one device class.
func IDCollisionErrorF(format string, args ...interface{}) *Error {
	return newError(KindIDCollision, format, args...)
}

// BadFrameErrorF reports a payload that failed to parse. The router drops
// and logs such publishes; the PID, angle-limit and force accessors return
// it to their caller when a stored value has the wrong length.
func BadFrameErrorF(format string, args ...interface{}) *Error {
	return newError(KindBadFrame, format, args...)
}

// DxlDeviceErrorF reports a nonzero err field from DXL_PUB_DATA; the value is
// still applied, this is logged context only.
func DxlDeviceErrorF(format string, args ...interface{}) *Error {
	return newError(KindDxlDeviceError, format, args...)
}

package reachyhal

import (
	"io"

	"github.com/jacobsa/go-serial/serial"
)

// openSerialPort opens device at the fixed 1,000,000 baud 8N1 the gate
// firmware requires, returning only an io.ReadWriteCloser so gate.go never
// depends on the concrete transport.
//
// Low-latency mode is a platform-specific ioctl (TIOCSSERIAL's
// ASYNC_LOW_LATENCY on Linux) that go-serial does not expose; on
// platforms where the kernel honors it by default for USB-serial
// adapters this is a no-op, so it is not attempted here explicitly; the
// inter-character timeout is kept at 1ms instead to bound read latency
// directly.
var openSerialPort = func(device string) (io.ReadWriteCloser, error) {
	options := serial.OpenOptions{
		PortName:              device,
		BaudRate:              1_000_000,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       0,
		InterCharacterTimeout: 1,
	}
	return serial.Open(options)
}

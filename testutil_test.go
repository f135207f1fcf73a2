package reachyhal

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakePort is an in-memory stand-in for a gate's serial port: Write records
// every frame the host sends (and can auto-respond via onWrite), Read hands
// back whatever the fake gate has published.
type fakePort struct {
	mu   sync.Mutex
	cond *sync.Cond

	rx     bytes.Buffer
	writes [][]byte
	closed bool

	// eofWhenEmpty makes Read return io.EOF once the rx buffer drains,
	// which is what discovery's bounded probe loop needs to terminate.
	eofWhenEmpty bool

	// onWrite, when set, is invoked synchronously with each frame the host
	// writes, outside the port lock so it can push replies.
	onWrite func(frame []byte)
}

func newFakePort() *fakePort {
	p := &fakePort{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *fakePort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	for p.rx.Len() == 0 {
		if p.closed {
			p.mu.Unlock()
			return 0, io.EOF
		}
		if p.eofWhenEmpty {
			p.mu.Unlock()
			return 0, io.EOF
		}
		p.cond.Wait()
	}
	n, _ := p.rx.Read(buf)
	p.mu.Unlock()
	return n, nil
}

func (p *fakePort) Write(frame []byte) (int, error) {
	cp := make([]byte, len(frame))
	copy(cp, frame)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	p.writes = append(p.writes, cp)
	handler := p.onWrite
	p.mu.Unlock()

	if handler != nil {
		handler(cp)
	}
	return len(frame), nil
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()
	return nil
}

// push makes the fake gate publish raw bytes to the host.
func (p *fakePort) push(data []byte) {
	p.mu.Lock()
	p.rx.Write(data)
	p.mu.Unlock()
	p.cond.Broadcast()
}

// sentPayloads returns the payload (type byte onward) of every frame the
// host wrote, minus keep-alives.
func (p *fakePort) sentPayloads() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out [][]byte
	for _, frame := range p.writes {
		if len(frame) < 4 || frame[0] != 0xFF || frame[1] != 0xFF {
			continue
		}
		payload := frame[3:]
		if MsgType(payload[0]) == MsgKeepAlive {
			continue
		}
		out = append(out, payload)
	}
	return out
}

// dxlAutoResponder answers every DXL_GET_REG with a DXL_PUB_DATA carrying
// rawValue for each requested id, err bytes zero.
func dxlAutoResponder(p *fakePort, rawValue []byte) func(frame []byte) {
	return func(frame []byte) {
		if len(frame) < 4 || MsgType(frame[3]) != MsgDxlGetReg {
			return
		}
		payload := frame[3:]
		addr, nbytes := payload[1], payload[2]
		ids := payload[3:]

		b := payloadBuilder{}
		b.putByte(byte(MsgDxlPubData))
		b.putByte(addr)
		b.putByte(nbytes)
		for _, id := range ids {
			b.putByte(id)
			b.putByte(0)
			b.putByte(0)
			b.putBytes(rawValue...)
		}
		p.push(buildFrame(b.bytes()))
	}
}

// newTestRobot builds a Robot for model and wires every gate to a fakePort,
// skipping discovery.
func newTestRobot(t *testing.T, model RobotModel) (*Robot, map[string]*fakePort) {
	t.Helper()

	robot, err := NewRobot(model)
	require.NoError(t, err)

	ports := map[string]*fakePort{}
	for _, gateName := range robot.gateNames() {
		p := newFakePort()
		gc := NewGateClient(gateName, p, robot.router.Dispatch)
		gc.Start()
		robot.gates[gateName] = gc
		ports[gateName] = p
	}
	t.Cleanup(robot.Close)
	return robot, ports
}

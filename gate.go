package reachyhal

import (
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// minWriteSpacing is the hardware-mandated minimum gap between frames sent
// to a gate.
const minWriteSpacing = 1 * time.Millisecond

// keepAliveInterval is how often GateClient pings an idle link.
const keepAliveInterval = 1 * time.Second

// DispatchFunc is called once per decoded message, msgType is payload[0]
// and body is the remainder. Implementations (router.go) must be safe to
// call concurrently from multiple gates but serialize their own side
// effects with a single mutex.
type DispatchFunc func(gate string, msgType MsgType, body []byte)

// GateClient owns one serial port: a reader goroutine that
// blocks on the port and feeds the frame decoder, a writer lock that
// serializes outgoing frames with the mandated inter-frame spacing, and a
// keep-alive goroutine, all sharing one port.
type GateClient struct {
	name     string
	port     io.ReadWriteCloser
	dispatch DispatchFunc

	writeMu  sync.Mutex
	lastSend time.Time

	faulted atomic.Bool

	stop      chan struct{}
	stopOnce  sync.Once
	readerWg  sync.WaitGroup
	startedWg sync.WaitGroup
}

// NewGateClient constructs a client around an already-open port. Call Start
// to spawn its goroutines.
func NewGateClient(name string, port io.ReadWriteCloser, dispatch DispatchFunc) *GateClient {
	return &GateClient{
		name:     name,
		port:     port,
		dispatch: dispatch,
		stop:     make(chan struct{}),
	}
}

// Start spawns the reader and keep-alive goroutines and blocks until both
// have begun running.
func (g *GateClient) Start() {
	g.startedWg.Add(2)
	g.readerWg.Add(2)
	go g.readLoop()
	go g.keepAliveLoop()
	g.startedWg.Wait()
}

// Stop joins both goroutines and closes the port. In-flight
// SyncCell waits unblock by their own timeout, not by Stop.
func (g *GateClient) Stop() {
	g.stopOnce.Do(func() {
		close(g.stop)
		g.port.Close()
	})
	g.readerWg.Wait()
}

// Faulted reports whether this gate has received a firmware ASSERT and is
// considered lost.
func (g *GateClient) Faulted() bool {
	return g.faulted.Load()
}

// Send writes one already-framed message, enforcing the minimum inter-
// frame spacing by sleeping if a previous write happened too recently.
// Returns an error if the gate has faulted.
func (g *GateClient) Send(frame []byte) error {
	if g.faulted.Load() {
		return GateAssertErrorF(g.name, "gate faulted, write refused")
	}

	g.writeMu.Lock()
	defer g.writeMu.Unlock()

	if since := time.Since(g.lastSend); since < minWriteSpacing {
		time.Sleep(minWriteSpacing - since)
	}
	_, err := g.port.Write(frame)
	g.lastSend = time.Now()
	return err
}

func (g *GateClient) keepAliveLoop() {
	defer g.readerWg.Done()
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	g.startedWg.Done()
	for {
		select {
		case <-g.stop:
			return
		case <-ticker.C:
			if err := g.Send(keepAliveFrame()); err != nil {
				Log.Debug().Str("gate", g.name).Err(err).Msg("keep-alive send failed")
			}
		}
	}
}

func (g *GateClient) readLoop() {
	defer g.readerWg.Done()

	decoder := NewFrameDecoder()
	buf := make([]byte, 4096)
	g.startedWg.Done()

	for {
		select {
		case <-g.stop:
			return
		default:
		}

		n, err := g.port.Read(buf)
		if err != nil {
			select {
			case <-g.stop:
				return
			default:
			}
			Log.Warn().Str("gate", g.name).Err(err).Msg("serial read error")
			continue
		}
		if n == 0 {
			continue
		}

		for _, payload := range decoder.Feed(buf[:n]) {
			g.handlePayload(payload)
		}
	}
}

func (g *GateClient) handlePayload(payload []byte) {
	if len(payload) == 0 {
		Log.Debug().Str("gate", g.name).Msg("dropped empty payload")
		return
	}
	msgType := MsgType(payload[0])
	body := payload[1:]

	if msgType == MsgAssert {
		g.faulted.Store(true)
		err := GateAssertErrorF(g.name, string(body))
		Log.Error().Str("gate", g.name).Err(err).Msg("gate asserted")
	}

	g.dispatch(g.name, msgType, body)
}

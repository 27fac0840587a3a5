package gate

import (
	"context"
	"encoding/binary"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/hsms-go/hsms/internal/hsms"
)

// recordingHandler is a fake Handler that records every dispatch under a
// mutex so tests can assert on it from the main goroutine.
type recordingHandler struct {
	mu      sync.Mutex
	data    []hsms.Header
	control []hsms.Header
}

func (h *recordingHandler) OnDataMessage(connID string, header hsms.Header, msg hsms.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.data = append(h.data, header)
}

func (h *recordingHandler) OnControlMessage(connID string, header hsms.Header) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.control = append(h.control, header)
}

func (h *recordingHandler) controlCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.control)
}

// encodeControlMessage builds a wire message with an empty body: a 4-byte
// big-endian length prefix (= HeaderLen) followed by the 10-byte header.
func encodeControlMessage(h hsms.Header) []byte {
	out := make([]byte, 4+hsms.HeaderLen)
	binary.BigEndian.PutUint32(out[0:4], uint32(hsms.HeaderLen))
	hsms.EncodeHeader(h, out[4:])
	return out
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

// TestGateStartStop verifies basic lifecycle: Start on :0, Addr non-nil, Stop idempotent.
func TestGateStartStop(t *testing.T) {
	g := New(Config{ListenAddr: ":0"}, &recordingHandler{})
	if err := g.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if g.Addr() == nil {
		t.Fatalf("expected non-nil addr")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := g.Stop(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	// Second stop should be a no-op.
	if err := g.Stop(ctx); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
}

// TestGateAcceptConnection dials the gate and ensures the connection is tracked.
func TestGateAcceptConnection(t *testing.T) {
	g := New(Config{ListenAddr: ":0"}, &recordingHandler{})
	if err := g.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		g.Stop(ctx)
	}()

	addr := g.Addr().String()
	c, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()

	if !waitFor(t, 2*time.Second, func() bool { return g.ConnectionCount() == 1 }) {
		t.Fatalf("expected 1 connection, got %d", g.ConnectionCount())
	}
}

// TestGateDispatchesControlMessage feeds a full control message over a live
// connection and checks the handler receives it.
func TestGateDispatchesControlMessage(t *testing.T) {
	h := &recordingHandler{}
	g := New(Config{ListenAddr: ":0"}, h)
	if err := g.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		g.Stop(ctx)
	}()

	c, err := net.DialTimeout("tcp", g.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()

	wire := encodeControlMessage(hsms.Header{MessageType: hsms.MessageTypeLinktestReq, SystemBytes: 7})
	if _, err := c.Write(wire); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return h.controlCount() == 1 }) {
		t.Fatalf("expected 1 control dispatch, got %d", h.controlCount())
	}
}

// TestGateGracefulShutdown ensures active connections are closed on Stop.
func TestGateGracefulShutdown(t *testing.T) {
	g := New(Config{ListenAddr: ":0"}, &recordingHandler{})
	if err := g.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	c, err := net.DialTimeout("tcp", g.Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()

	if !waitFor(t, 2*time.Second, func() bool { return g.ConnectionCount() == 1 }) {
		t.Fatalf("expected 1 connection, got %d", g.ConnectionCount())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := g.Stop(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	c.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	if _, err := c.Read(buf); err == nil {
		t.Fatalf("expected read error after stop")
	}
}

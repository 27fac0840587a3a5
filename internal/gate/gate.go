// Package gate provides the TCP accept loop that feeds bytes from equipment
// connections into per-connection hsms.Decoder instances. It is the
// "external collaborator" the decoder spec deliberately excludes: the
// transport, connection bookkeeping, and graceful shutdown live here.
package gate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hsms-go/hsms/internal/hsms"
	"github.com/hsms-go/hsms/internal/hsmsmetrics"
	"github.com/hsms-go/hsms/internal/logger"
)

// Config holds the gate's TCP listener and decoder tuning knobs (§10.3).
type Config struct {
	ListenAddr        string
	InitialBufferSize int
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":5000"
	}
	if c.InitialBufferSize <= 0 {
		c.InitialBufferSize = 4096
	}
}

// Gate listens for equipment connections and drives one hsms.Decoder per
// connection to completion, dispatching decoded messages to Handler.
type Gate struct {
	cfg     Config
	log     *zap.Logger
	handler Handler

	mu      sync.Mutex
	l       net.Listener
	conns   map[string]net.Conn
	closing bool
	wg      sync.WaitGroup
}

// Handler receives fully-decoded messages and control messages, tagged with
// the connection id that produced them.
type Handler interface {
	OnDataMessage(connID string, header hsms.Header, msg hsms.Message)
	OnControlMessage(connID string, header hsms.Header)
}

// New creates an unstarted Gate.
func New(cfg Config, handler Handler) *Gate {
	cfg.applyDefaults()
	return &Gate{
		cfg:     cfg,
		log:     logger.L().With(zap.String("component", "gate")),
		handler: handler,
		conns:   make(map[string]net.Conn),
	}
}

// Start begins listening and launches the accept loop in the background.
func (g *Gate) Start() error {
	ln, err := net.Listen("tcp", g.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", g.cfg.ListenAddr, err)
	}
	g.mu.Lock()
	g.l = ln
	g.mu.Unlock()

	g.log.Info("gate listening", zap.String("addr", ln.Addr().String()))
	g.wg.Add(1)
	go g.acceptLoop(ln)
	return nil
}

// Addr returns the bound listener address, or nil if not started.
func (g *Gate) Addr() net.Addr {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.l == nil {
		return nil
	}
	return g.l.Addr()
}

// ConnectionCount returns the number of connections currently tracked.
func (g *Gate) ConnectionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.conns)
}

func (g *Gate) acceptLoop(ln net.Listener) {
	defer g.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			g.mu.Lock()
			closing := g.closing
			g.mu.Unlock()
			if closing || errors.Is(err, net.ErrClosed) {
				return
			}
			g.log.Warn("accept error", zap.Error(err))
			return
		}

		connID := uuid.NewString()
		g.mu.Lock()
		g.conns[connID] = conn
		g.mu.Unlock()
		hsmsmetrics.ConnectionOpened()

		g.wg.Add(1)
		go g.serve(connID, conn)
	}
}

// serve pumps bytes from conn into a fresh decoder until the connection
// closes or a protocol error invalidates the decoder's state.
func (g *Gate) serve(connID string, conn net.Conn) {
	defer g.wg.Done()
	defer g.closeConn(connID, conn)

	connLog := logger.WithConn(g.log, connID, conn.RemoteAddr().String())
	connLog.Info("connection accepted")

	d := hsms.NewDecoder(g.cfg.InitialBufferSize,
		func(h hsms.Header) {
			hsmsmetrics.MessageDecoded(h.MessageType.String())
			g.handler.OnControlMessage(connID, h)
		},
		func(h hsms.Header, m hsms.Message) {
			hsmsmetrics.MessageDecoded(h.MessageType.String())
			g.handler.OnDataMessage(connID, h, m)
		},
	)

	for {
		n, err := conn.Read(d.WritableTail())
		if n > 0 {
			hsmsmetrics.BytesConsumed(connID, n)
			capBefore := d.BufferCapacity()
			if _, decErr := d.Decode(n); decErr != nil {
				hsmsmetrics.ProtocolErrorObserved("decode")
				connLog.Error("protocol error, closing connection", zap.Error(decErr))
				return
			}
			if capAfter := d.BufferCapacity(); capAfter != capBefore {
				hsmsmetrics.BufferGrew()
				hsmsmetrics.SetBufferCapacity(connID, capAfter)
			}
		}
		if err != nil {
			connLog.Info("connection read ended", zap.Error(err))
			return
		}
	}
}

func (g *Gate) closeConn(connID string, conn net.Conn) {
	_ = conn.Close()
	g.mu.Lock()
	delete(g.conns, connID)
	g.mu.Unlock()
	hsmsmetrics.ConnectionClosed()
}

// Stop closes the listener and all active connections, then waits for the
// accept loop and every connection goroutine to exit.
func (g *Gate) Stop(ctx context.Context) error {
	g.mu.Lock()
	if g.l == nil {
		g.mu.Unlock()
		return nil
	}
	g.closing = true
	ln := g.l
	g.l = nil
	conns := make([]net.Conn, 0, len(g.conns))
	for _, c := range g.conns {
		conns = append(conns, c)
	}
	g.mu.Unlock()

	_ = ln.Close()
	for _, c := range conns {
		_ = c.Close()
	}

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		g.log.Info("gate stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

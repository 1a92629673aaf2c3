// Package transport owns the listening UDP socket and the synchronous
// receive loop. The only goroutine boundary is the blocking read itself;
// each datagram is handled inline before the loop reads the next one.
package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/averyhart/rr-dns-forwarder/internal/dns/common/log"
)

// MaxDatagramSize is the default read buffer size, matching classic
// DNS-over-UDP MTU, used when NewUDPTransport is given a non-positive
// bufferSize. Client datagrams larger than the read buffer are silently
// truncated by the read call itself.
const MaxDatagramSize = 512

// RequestHandler answers one raw request datagram with the raw bytes to
// send back to the client. Implemented by resolver.Resolver.HandleRequest.
type RequestHandler func(ctx context.Context, raw []byte) []byte

// UDPTransport binds a single UDP listening socket and drives a
// synchronous, single-threaded receive loop: one datagram is fully
// handled before the next is read, matching this system's no-goroutine-
// fan-out-in-the-core guarantee.
type UDPTransport struct {
	addr       string
	bufferSize int
	conn       *net.UDPConn
	logger     log.Logger

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
}

// NewUDPTransport creates a transport bound to addr once Start is called.
// bufferSize is the largest datagram the listening socket reads; a
// non-positive value falls back to MaxDatagramSize.
func NewUDPTransport(addr string, bufferSize int, logger log.Logger) *UDPTransport {
	if logger == nil {
		logger = log.GetLogger()
	}
	if bufferSize <= 0 {
		bufferSize = MaxDatagramSize
	}
	return &UDPTransport{addr: addr, bufferSize: bufferSize, logger: logger, stopCh: make(chan struct{})}
}

// Start binds the listening socket and runs the receive loop on its own
// goroutine so the caller can still observe ctx cancellation; the
// goroutine owns only socket I/O, never the core request-handling state.
func (t *UDPTransport) Start(ctx context.Context, handler RequestHandler) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return fmt.Errorf("transport: already running")
	}

	udpAddr, err := net.ResolveUDPAddr("udp", t.addr)
	if err != nil {
		return fmt.Errorf("transport: failed to resolve %s: %w", t.addr, err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("transport: failed to bind %s: %w", t.addr, err)
	}

	t.conn = conn
	t.running = true

	t.logger.Info(map[string]any{"address": t.addr}, "transport: listening")

	go t.listenLoop(ctx, handler)
	return nil
}

// Stop closes the listening socket and signals the receive loop to exit.
func (t *UDPTransport) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return nil
	}

	close(t.stopCh)
	t.running = false

	err := t.conn.Close()
	t.logger.Info(map[string]any{"address": t.addr}, "transport: stopped")
	return err
}

// Address returns the address the transport is bound to.
func (t *UDPTransport) Address() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.conn != nil {
		return t.conn.LocalAddr().String()
	}
	return t.addr
}

// listenLoop reads one datagram at a time from the listening socket and
// calls handler inline before reading the next — no worker pool, no
// per-packet goroutine.
func (t *UDPTransport) listenLoop(ctx context.Context, handler RequestHandler) {
	buf := make([]byte, t.bufferSize)

	for {
		select {
		case <-ctx.Done():
			t.logger.Debug(nil, "transport: stopping on context cancellation")
			return
		case <-t.stopCh:
			t.logger.Debug(nil, "transport: stopping on stop signal")
			return
		default:
		}

		n, clientAddr, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			t.mu.RLock()
			running := t.running
			t.mu.RUnlock()
			if !running {
				return
			}
			t.logger.Warn(map[string]any{"error": err.Error()}, "transport: read failed")
			continue
		}

		request := make([]byte, n)
		copy(request, buf[:n])

		response := handler(ctx, request)
		if response == nil {
			continue
		}

		if _, err := t.conn.WriteToUDP(response, clientAddr); err != nil {
			t.logger.Warn(map[string]any{"error": err.Error(), "client": clientAddr.String()}, "transport: write failed")
		}
	}
}

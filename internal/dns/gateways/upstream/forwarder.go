// Package upstream forwards decoded DNS messages to a single upstream
// resolver over UDP and reassembles the replies into one response.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/averyhart/rr-dns-forwarder/internal/dns/common/log"
	"github.com/averyhart/rr-dns-forwarder/internal/dns/wire"
)

// Timeout is the read deadline applied to the ephemeral upstream socket,
// both in single-question mode and per sub-query in split mode. A var
// rather than a const so tests can shrink it instead of waiting out the
// real 5 seconds.
var Timeout = 5 * time.Second

// recvBufferSize is the buffer a single upstream datagram is read into.
const recvBufferSize = 512

// Sentinel errors surfaced by Forward. Wrapped with fmt.Errorf and %w at
// the point of failure so callers can branch with errors.Is while still
// seeing the underlying network error in the message.
var (
	ErrBindFailed         = errors.New("upstream: failed to bind ephemeral socket")
	ErrTimeoutSetupFailed = errors.New("upstream: failed to set read deadline")
	ErrSendFailed         = errors.New("upstream: failed to send query")
	ErrRecvFailed         = errors.New("upstream: failed to receive response")
	ErrNoUpstreamAnswers  = errors.New("upstream: split-mode forward produced no answers")
)

// Forward sends req to upstreamAddr and returns the decoded response. A
// multi-question request is split into one single-question sub-query per
// question, each dispatched in order; a sub-query that fails to send,
// times out, or fails to decode is skipped rather than aborting the whole
// request, and its answers are simply absent from the combined result.
func Forward(ctx context.Context, req wire.Message, upstreamAddr string) (wire.Message, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return wire.Message{}, fmt.Errorf("%w: %v", ErrBindFailed, err)
	}
	defer conn.Close()

	raddr, err := net.ResolveUDPAddr("udp", upstreamAddr)
	if err != nil {
		return wire.Message{}, fmt.Errorf("%w: %v", ErrBindFailed, err)
	}

	if err := conn.SetReadDeadline(time.Now().Add(Timeout)); err != nil {
		return wire.Message{}, fmt.Errorf("%w: %v", ErrTimeoutSetupFailed, err)
	}

	if len(req.Questions) > 1 {
		return forwardSplit(ctx, conn, raddr, req)
	}
	return forwardSingle(conn, raddr, req)
}

// forwardSplit implements split mode: one single-question sub-query per
// question in req, answers reassembled into a single combined response
// that keeps the original request's question list regardless of what the
// upstream echoes back.
func forwardSplit(ctx context.Context, conn *net.UDPConn, raddr *net.UDPAddr, req wire.Message) (wire.Message, error) {
	combined := wire.Message{
		Header: wire.Header{
			ID:      req.Header.ID,
			Flags:   0x8000,
			QDCount: uint16(len(req.Questions)),
		},
		Questions: append([]wire.Question(nil), req.Questions...),
	}

	for _, q := range req.Questions {
		if ctx.Err() != nil {
			break
		}

		sub := wire.Message{
			Header:    wire.Header{ID: req.Header.ID, Flags: req.Header.Flags & 0x7FFF, QDCount: 1},
			Questions: []wire.Question{q},
		}

		if err := conn.SetReadDeadline(time.Now().Add(Timeout)); err != nil {
			log.Warn(map[string]any{"error": err.Error()}, "upstream: failed to reset read deadline, skipping question")
			continue
		}

		if _, err := conn.WriteToUDP(sub.ToUpstreamQuery().Marshal(), raddr); err != nil {
			log.Warn(map[string]any{"error": err.Error()}, "upstream: send failed, skipping question")
			continue
		}

		buf := make([]byte, recvBufferSize)
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			log.Warn(map[string]any{"error": err.Error()}, "upstream: recv failed or timed out, skipping question")
			continue
		}

		resp, err := wire.ParseMessage(buf[:n])
		if err != nil {
			log.Warn(map[string]any{"error": err.Error()}, "upstream: failed to decode sub-response, skipping question")
			continue
		}

		combined.Answers = append(combined.Answers, resp.Answers...)
	}

	combined.Header.ANCount = uint16(len(combined.Answers))
	if len(combined.Answers) == 0 {
		return wire.Message{}, ErrNoUpstreamAnswers
	}
	return combined, nil
}

// forwardSingle implements the single-question path: one send, one
// receive, one decode, with the client's original id restored in the
// response header.
func forwardSingle(conn *net.UDPConn, raddr *net.UDPAddr, req wire.Message) (wire.Message, error) {
	if _, err := conn.WriteToUDP(req.ToUpstreamQuery().Marshal(), raddr); err != nil {
		return wire.Message{}, fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	buf := make([]byte, recvBufferSize)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		return wire.Message{}, fmt.Errorf("%w: %v", ErrRecvFailed, err)
	}

	resp, err := wire.ParseMessage(buf[:n])
	if err != nil {
		return wire.Message{}, err
	}

	resp.Header.ID = req.Header.ID
	return resp, nil
}

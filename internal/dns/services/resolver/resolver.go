// Package resolver orchestrates one served request: decode, forward (or
// self-answer on any failure), encode. It owns no network state of its
// own — that belongs to the transport and upstream gateway packages it's
// wired against.
package resolver

import (
	"context"

	"github.com/averyhart/rr-dns-forwarder/internal/dns/common/log"
	"github.com/averyhart/rr-dns-forwarder/internal/dns/wire"
)

// Forwarder is the dependency this service forwards queries through.
// Satisfied by upstream.Forward.
type Forwarder func(ctx context.Context, req wire.Message, upstreamAddr string) (wire.Message, error)

// Resolver handles one request at a time end to end: decode, forward (or
// self-answer on any decode or forward failure), encode.
type Resolver struct {
	forward      Forwarder
	upstreamAddr string
	selfAnswer   bool
	logger       log.Logger
}

// New builds a Resolver. When selfAnswer is true, requests are answered
// locally and upstreamAddr/forward are never consulted.
func New(forward Forwarder, upstreamAddr string, selfAnswer bool, logger log.Logger) *Resolver {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Resolver{forward: forward, upstreamAddr: upstreamAddr, selfAnswer: selfAnswer, logger: logger}
}

// HandleRequest decodes raw, answers it (by forwarding or self-answering),
// and returns the serialized response ready to write back to the client.
// It never returns an error: a decode or forward failure falls back to a
// self-answered response. The one exception is a datagram too short to
// hold a header, for which it returns nil and no reply is sent.
func (r *Resolver) HandleRequest(ctx context.Context, raw []byte) []byte {
	msg, err := wire.ParseMessage(raw)
	if err != nil {
		r.logger.Warn(map[string]any{"error": err.Error()}, "resolver: failed to decode request, falling back to header-only response")
		h, herr := wire.ParseHeader(raw)
		if herr != nil {
			r.logger.Error(map[string]any{"error": herr.Error()}, "resolver: request too short to carry even a header, dropping")
			return nil
		}
		return wire.RespondFromHeader(h).Marshal()
	}

	if r.selfAnswer || r.forward == nil {
		return msg.Respond().Marshal()
	}

	resp, err := r.forward(ctx, msg, r.upstreamAddr)
	if err != nil {
		r.logger.Warn(map[string]any{"error": err.Error(), "query_id": msg.Header.ID}, "resolver: forwarding failed, falling back to self-answer")
		return msg.Respond().Marshal()
	}

	return resp.Marshal()
}

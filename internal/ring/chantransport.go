package ring

import (
	"context"
)

// chanTransport is an in-process Transport backed by Go channels,
// grounded on the In/Out channel-pair Node in
// _examples/other_examples/.../ring_all_reduce.go, adapted from that
// all-reduce's chunk-indexed messages to this spec's opaque byte frames.
// cmd/ringknn uses it when the world size is 1, and tests use it to run a
// whole ring inside one process without a real network.
type chanTransport struct {
	rank, next, prev int
	out              chan<- []byte
	in               <-chan []byte
}

// NewChanRing builds p chanTransports wired into a ring: rank r's
// outbound channel is rank (r+1)%p's inbound channel. Buffered with
// capacity 1 so a single posted send does not block waiting for its
// peer to be ready to receive, matching the "buffered to help avoid
// deadlock" comment in the ring-all-reduce reference.
func NewChanRing(p int) []Transport {
	if p < 1 {
		return nil
	}
	inboxes := make([]chan []byte, p)
	for i := range inboxes {
		inboxes[i] = make(chan []byte, 1)
	}

	transports := make([]Transport, p)
	for r := 0; r < p; r++ {
		next, prev := Topology(r, p)
		transports[r] = &chanTransport{
			rank: r,
			next: next,
			prev: prev,
			out:  inboxes[next],
			in:   inboxes[r],
		}
	}
	return transports
}

func (t *chanTransport) Rank() int     { return t.rank }
func (t *chanTransport) NextRank() int { return t.next }
func (t *chanTransport) PrevRank() int { return t.prev }

func (t *chanTransport) Send(ctx context.Context, payload []byte) error {
	select {
	case t.out <- payload:
		return nil
	case <-ctx.Done():
		return wrapTransportErr("Send", ctx.Err())
	}
}

func (t *chanTransport) Recv(ctx context.Context) ([]byte, error) {
	select {
	case payload := <-t.in:
		return payload, nil
	case <-ctx.Done():
		return nil, wrapTransportErr("Recv", ctx.Err())
	}
}

type chanSendHandle struct {
	done chan error
}

func (h *chanSendHandle) Wait(ctx context.Context) error {
	select {
	case err := <-h.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *chanTransport) SendAsync(ctx context.Context, payload []byte) (SendHandle, error) {
	h := &chanSendHandle{done: make(chan error, 1)}
	go func() {
		h.done <- t.Send(ctx, payload)
	}()
	return h, nil
}

type chanRecvHandle struct {
	done chan recvResult
}

func (h *chanRecvHandle) Wait(ctx context.Context) ([]byte, error) {
	select {
	case r := <-h.done:
		return r.payload, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *chanTransport) RecvAsync(ctx context.Context) (RecvHandle, error) {
	h := &chanRecvHandle{done: make(chan recvResult, 1)}
	go func() {
		payload, err := t.Recv(ctx)
		h.done <- recvResult{payload: payload, err: err}
	}()
	return h, nil
}

func (t *chanTransport) Close() error { return nil }

// Package ring implements the ring transport: paired asynchronous
// send-to-next/receive-from-previous of opaque byte frames, plus a
// blocking variant scheduled by neighbor parity to avoid deadlock. Two
// Transport implementations are provided: a TCP-backed one for real
// multi-process deployment (tcp.go) and an in-process channel one for
// single-binary simulation and tests (chantransport.go).
package ring

import (
	"context"
	"fmt"

	"github.com/therealutkarshpriyadarshi/ringknn/internal/knnerr"
)

// SendHandle is returned by SendAsync; Wait blocks until the send
// completes.
type SendHandle interface {
	Wait(ctx context.Context) error
}

// RecvHandle is returned by RecvAsync; Wait blocks until the frame has
// arrived and returns its bytes.
type RecvHandle interface {
	Wait(ctx context.Context) ([]byte, error)
}

// Transport is the capability the pipeline depends on: post_send,
// post_recv, wait (async), plus a blocking Send/Recv pair. Every frame
// between a given (sender, receiver) pair arrives in send order;
// ordering across different pairs is unspecified.
type Transport interface {
	Rank() int
	NextRank() int
	PrevRank() int

	SendAsync(ctx context.Context, payload []byte) (SendHandle, error)
	RecvAsync(ctx context.Context) (RecvHandle, error)

	Send(ctx context.Context, payload []byte) error
	Recv(ctx context.Context) ([]byte, error)

	Close() error
}

// ScheduleBlockingExchange performs one blocking send+recv round for the
// given transport, scheduling by the parity of NextRank to avoid ring
// deadlock: if next is even, receive-then-send; if odd, send-then-receive.
// This works for any ring size, because each rank performs exactly two
// blocking operations and every adjacent pair in the ring pairs an even
// next with an odd one (or vice versa) on at least one side of the
// exchange.
func ScheduleBlockingExchange(ctx context.Context, t Transport, payload []byte) ([]byte, error) {
	if t.NextRank()%2 == 0 {
		in, err := t.Recv(ctx)
		if err != nil {
			return nil, fmt.Errorf("ring.ScheduleBlockingExchange: recv: %w", err)
		}
		if err := t.Send(ctx, payload); err != nil {
			return nil, fmt.Errorf("ring.ScheduleBlockingExchange: send: %w", err)
		}
		return in, nil
	}

	if err := t.Send(ctx, payload); err != nil {
		return nil, fmt.Errorf("ring.ScheduleBlockingExchange: send: %w", err)
	}
	in, err := t.Recv(ctx)
	if err != nil {
		return nil, fmt.Errorf("ring.ScheduleBlockingExchange: recv: %w", err)
	}
	return in, nil
}

// Topology computes the unidirectional ring neighbors of rank within a
// world of size p.
func Topology(rank, p int) (next, prev int) {
	next = (rank + 1) % p
	prev = (rank - 1 + p) % p
	return
}

func wrapTransportErr(op string, err error) error {
	return fmt.Errorf("ring.%s: %w: %v", op, knnerr.ErrTransportFailure, err)
}

package ring

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"golang.org/x/time/rate"
)

const lengthHeaderSize = 4

// TCPConfig configures the TCP-backed ring transport for one rank.
type TCPConfig struct {
	Rank         int
	WorldSize    int
	ListenAddr   string   // address this rank accepts its predecessor's connection on
	PeerAddrs    []string // PeerAddrs[r] is rank r's listen address, for all r
	DialTimeout  time.Duration
	AcceptTimeout time.Duration
	// SendRatePerSec bounds outbound frame rate (0 disables limiting). A
	// fast rank that floods a slow neighbor's TCP accept/read loop can
	// starve the whole ring of forward progress.
	SendRatePerSec float64
	SendBurst      int
}

// tcpTransport implements Transport over a pair of dedicated TCP
// connections: an outbound dial to NextRank's listener, and an inbound
// connection accepted from PrevRank. Frames are length-prefixed so the
// receive side can peek the length before allocating the payload buffer,
// standing in for MPI_Probe/MPI_Get_count.
type tcpTransport struct {
	rank, next, prev int

	listener net.Listener
	out      net.Conn
	in       net.Conn
	inReader *bufio.Reader

	limiter *rate.Limiter
}

// DialTCP establishes the ring connections for one rank: it starts
// listening immediately, then dials its successor, retrying until the
// successor's listener is up or DialTimeout elapses. It blocks until both
// the outbound dial and the inbound accept have completed.
func DialTCP(ctx context.Context, cfg TCPConfig) (Transport, error) {
	if cfg.WorldSize < 1 || cfg.Rank < 0 || cfg.Rank >= cfg.WorldSize {
		return nil, fmt.Errorf("ring.DialTCP: rank=%d world=%d: invalid topology", cfg.Rank, cfg.WorldSize)
	}
	next, prev := Topology(cfg.Rank, cfg.WorldSize)

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return nil, wrapTransportErr("DialTCP", fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err))
	}

	acceptCh := make(chan net.Conn, 1)
	acceptErrCh := make(chan error, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			acceptErrCh <- err
			return
		}
		acceptCh <- conn
	}()

	dialAddr := cfg.PeerAddrs[next]
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 30 * time.Second
	}
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	out, err := dialWithRetry(dialCtx, dialAddr)
	if err != nil {
		listener.Close()
		return nil, wrapTransportErr("DialTCP", fmt.Errorf("dial next rank %d at %s: %w", next, dialAddr, err))
	}

	acceptTimeout := cfg.AcceptTimeout
	if acceptTimeout <= 0 {
		acceptTimeout = dialTimeout
	}
	var in net.Conn
	select {
	case in = <-acceptCh:
	case err := <-acceptErrCh:
		out.Close()
		listener.Close()
		return nil, wrapTransportErr("DialTCP", fmt.Errorf("accept from prev rank %d: %w", prev, err))
	case <-time.After(acceptTimeout):
		out.Close()
		listener.Close()
		return nil, wrapTransportErr("DialTCP", fmt.Errorf("accept from prev rank %d: timed out", prev))
	}

	var limiter *rate.Limiter
	if cfg.SendRatePerSec > 0 {
		burst := cfg.SendBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.SendRatePerSec), burst)
	}

	return &tcpTransport{
		rank:     cfg.Rank,
		next:     next,
		prev:     prev,
		listener: listener,
		out:      out,
		in:       in,
		inReader: bufio.NewReader(in),
		limiter:  limiter,
	}, nil
}

func dialWithRetry(ctx context.Context, addr string) (net.Conn, error) {
	var lastErr error
	for {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return nil, fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
			}
			return nil, ctx.Err()
		default:
		}

		d := net.Dialer{Timeout: 500 * time.Millisecond}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		time.Sleep(50 * time.Millisecond)
	}
}

func (t *tcpTransport) Rank() int     { return t.rank }
func (t *tcpTransport) NextRank() int { return t.next }
func (t *tcpTransport) PrevRank() int { return t.prev }

func (t *tcpTransport) Send(ctx context.Context, payload []byte) error {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return wrapTransportErr("Send", err)
		}
	}
	if err := writeFrame(t.out, payload); err != nil {
		return wrapTransportErr("Send", err)
	}
	return nil
}

func (t *tcpTransport) Recv(ctx context.Context) ([]byte, error) {
	payload, err := readFrame(t.inReader)
	if err != nil {
		return nil, wrapTransportErr("Recv", err)
	}
	return payload, nil
}

type tcpSendHandle struct {
	done chan error
}

func (h *tcpSendHandle) Wait(ctx context.Context) error {
	select {
	case err := <-h.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *tcpTransport) SendAsync(ctx context.Context, payload []byte) (SendHandle, error) {
	h := &tcpSendHandle{done: make(chan error, 1)}
	go func() {
		h.done <- t.Send(ctx, payload)
	}()
	return h, nil
}

type tcpRecvHandle struct {
	done chan recvResult
}

type recvResult struct {
	payload []byte
	err     error
}

func (h *tcpRecvHandle) Wait(ctx context.Context) ([]byte, error) {
	select {
	case r := <-h.done:
		return r.payload, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *tcpTransport) RecvAsync(ctx context.Context) (RecvHandle, error) {
	h := &tcpRecvHandle{done: make(chan recvResult, 1)}
	go func() {
		payload, err := t.Recv(ctx)
		h.done <- recvResult{payload: payload, err: err}
	}()
	return h, nil
}

func (t *tcpTransport) Close() error {
	var firstErr error
	if err := t.out.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := t.in.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := t.listener.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func writeFrame(w io.Writer, payload []byte) error {
	var header [lengthHeaderSize]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// readFrame peeks the 4-byte length header without consuming it from the
// buffered reader, then reads header+payload in one shot into an
// exactly-sized buffer, matching MPI_Probe/MPI_Irecv's two-step contract.
func readFrame(r *bufio.Reader) ([]byte, error) {
	header, err := r.Peek(lengthHeaderSize)
	if err != nil {
		return nil, fmt.Errorf("peek frame header: %w", err)
	}
	length := binary.LittleEndian.Uint32(header)

	frame := make([]byte, lengthHeaderSize+int(length))
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return frame[lengthHeaderSize:], nil
}

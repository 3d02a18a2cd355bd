package network

import (
	"bufio"
	"context"
	"fmt"
	"net"

	"golang.org/x/time/rate"

	"github.com/guamoko995/roboarm/units"
	"github.com/guamoko995/roboarm/wire"
)

// requestRateLimit and requestBurst bound how fast a single API session
// may enqueue positions or commands, guarding the positioning queue and
// command channel against a misbehaving or malicious client flooding
// requests faster than the motion core can drain them.
const (
	requestRateLimit = 100 // requests per second
	requestBurst     = 16
)

// Connectors are the channels a Transport session wires a client
// connection's send/receive handles to: positions and commands flow
// in, acks flow back out. A CmdAckRx value of nil means the command
// completed normally; a non-nil value means the configurator could not
// honor it and the session should be torn down rather than silently
// acknowledged.
type Connectors struct {
	PosTx    chan<- units.Position
	CmdTx    chan<- wire.Command
	PosAckRx <-chan struct{}
	CmdAckRx <-chan error
}

// sendHandle writes a Response for every ack it receives on PosAckRx or
// CmdAckRx, until ctx is canceled, a write fails, or a command fails:
// per the "do not silently succeed" error taxonomy, a failed command is
// never acknowledged — the session ends instead, so the client sees the
// connection drop rather than a false CommandAck.
func sendHandle(ctx context.Context, logger Logger, w *bufio.Writer, c Connectors) error {
	for {
		var resp wire.Response
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-c.CmdAckRx:
			if err != nil {
				return fmt.Errorf("api: command failed, closing session: %w", err)
			}
			resp = wire.ResponseCommandAck
		case <-c.PosAckRx:
			resp = wire.ResponsePositionAck
		}

		body := wire.MarshalResponse(resp)
		if err := wire.WritePacket(w, body); err != nil {
			return fmt.Errorf("api: write packet: %w", err)
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("api: flush: %w", err)
		}
	}
}

// receiveHandle reads Requests from r and forwards them onto the
// position queue or the command channel, until ctx is canceled, the
// peer disconnects, or a frame is malformed or oversize.
func receiveHandle(ctx context.Context, logger Logger, r *bufio.Reader, c Connectors) error {
	limiter := rate.NewLimiter(rate.Limit(requestRateLimit), requestBurst)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("api: rate limit: %w", err)
		}
		body, err := wire.ReadPacket(r, wire.MaxReadBodySize)
		if err != nil {
			return fmt.Errorf("api: read packet length: %w", err)
		}

		req, err := wire.UnmarshalRequest(body)
		if err != nil {
			return fmt.Errorf("api: deserialize request: %w", err)
		}

		switch {
		case req.Enqueue != nil:
			select {
			case c.PosTx <- *req.Enqueue:
			default:
				return fmt.Errorf("api: positioning queue is full")
			}
		case req.Command != nil:
			select {
			case c.CmdTx <- *req.Command:
			default:
				return fmt.Errorf("api: command queue is full")
			}
		}
	}
}

// runAPIScope serves one TCP connection until its send or receive handler
// stops (disconnect, error, or ctx cancellation), returning that handler's
// error so the caller can decide what to do next.
func runAPIScope(ctx context.Context, logger Logger, conn net.Conn, c Connectors) error {
	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)

	errs := make(chan error, 2)
	go func() { errs <- sendHandle(ctx, logger, w, c) }()
	go func() { errs <- receiveHandle(ctx, logger, r, c) }()

	err := <-errs
	return err
}

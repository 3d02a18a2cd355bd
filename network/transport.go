package network

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/guamoko995/roboarm/internal/signal"
	"github.com/guamoko995/roboarm/internal/supervise"
	"github.com/guamoko995/roboarm/units"
	"github.com/guamoko995/roboarm/wire"
)

// acceptRetryTimeout bounds the backoff after a listener Accept fails,
// mirroring transport.rs's ACCEPT_RETRY_TIMEOUT.
const acceptRetryTimeout = 10 * time.Second

// TrafficResources tracks which radio interface currently owns the one
// live API session, publishing that fact to activeInterface so the
// Manager can observe it. It is the Go rendition of transport.rs's
// AsyncTrafficResources/TrafficResourcesGuard pair: Lock marks an
// interface active, Unlock clears it back to InterfaceNone.
type TrafficResources struct {
	mu              sync.Mutex
	activeInterface *signal.Latch[Interface]
}

// NewTrafficResources constructs the traffic-resource lock shared by a
// MultiLinkTransport's per-interface Transports, publishing ownership
// changes to activeInterface.
func NewTrafficResources(activeInterface *signal.Latch[Interface]) *TrafficResources {
	return &TrafficResources{activeInterface: activeInterface}
}

// Lock claims the resources for iface. Callers must call Unlock
// exactly once after Lock succeeds.
func (t *TrafficResources) Lock(iface Interface) {
	t.mu.Lock()
	t.activeInterface.Set(iface)
}

// Unlock releases the resources, resetting activeInterface to
// InterfaceNone so the Manager knows no client session is live.
func (t *TrafficResources) Unlock() {
	t.activeInterface.Set(InterfaceNone)
	t.mu.Unlock()
}

// Transport accepts and serves a single TCP API session at a time for
// one radio interface, hot-preempting the active session whenever a
// new connection arrives, grounded on transport.rs's Transport /
// RawTransport (tcp_scope/api_scope).
type Transport struct {
	logger     Logger
	iface      Interface
	listener   net.Listener
	resources  *TrafficResources
	connectors Connectors
}

// NewTransport constructs a Transport for the given radio interface,
// serving API sessions accepted from listener.
func NewTransport(logger Logger, iface Interface, listener net.Listener, resources *TrafficResources, connectors Connectors) *Transport {
	return &Transport{logger: logger, iface: iface, listener: listener, resources: resources, connectors: connectors}
}

// Run blocks accepting and serving connections until ctx is canceled,
// then returns ctx.Err().
func (t *Transport) Run(ctx context.Context) error {
	return t.tcpScope(ctx)
}

// tcpScope is the outer accept loop: it accepts connection "A", locks
// the traffic resources for this interface, and runs apiScope. Accept
// failures back off for acceptRetryTimeout before retrying.
func (t *Transport) tcpScope(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		connA, err := t.acceptWithContext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.logger.Warnf("network: transport: accept failed on interface %d: %v, retrying", t.iface, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(acceptRetryTimeout):
			}
			continue
		}

		t.resources.Lock(t.iface)
		err = t.apiScope(ctx, connA)
		t.resources.Unlock()
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// apiScope serves connA's send/receive handlers while racing a second
// accept for a spare connection on the same listener. A new arrival on
// the spare preempts the active session: the old connection is closed
// and apiScope calls itself on the new one, which stays under the
// traffic-resource lock tcpScope already holds. Mirrors
// transport.rs's hot-preemption between socket A and socket B.
func (t *Transport) apiScope(ctx context.Context, connA net.Conn) error {
	sessionCtx, cancelSession := context.WithCancel(ctx)
	defer cancelSession()

	sessionErr := make(chan error, 1)
	go func() { sessionErr <- runAPIScope(sessionCtx, t.logger, connA, t.connectors) }()

	spareConn := make(chan net.Conn, 1)
	spareErr := make(chan error, 1)
	go func() {
		conn, err := t.acceptWithContext(sessionCtx)
		if err != nil {
			spareErr <- err
			return
		}
		spareConn <- conn
	}()

	select {
	case <-ctx.Done():
		connA.Close()
		<-sessionErr
		return ctx.Err()

	case err := <-sessionErr:
		connA.Close()
		if err != nil {
			t.logger.Infof("network: transport: interface %d session ended: %v", t.iface, err)
		}
		return nil

	case newConn := <-spareConn:
		t.logger.Infof("network: transport: interface %d preempted by new connection", t.iface)
		cancelSession()
		<-sessionErr
		connA.Close()
		return t.apiScope(ctx, newConn)

	case <-spareErr:
		// Spare accept failed (likely listener closed); fall through to
		// waiting on the primary session alone.
		err := <-sessionErr
		connA.Close()
		if err != nil && ctx.Err() == nil {
			t.logger.Infof("network: transport: interface %d session ended: %v", t.iface, err)
		}
		return nil
	}
}

// acceptWithContext wraps listener.Accept so it can be abandoned when
// ctx is canceled, since net.Listener has no native context support.
func (t *Transport) acceptWithContext(ctx context.Context) (net.Conn, error) {
	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := t.listener.Accept()
		ch <- result{conn, err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.conn != nil {
				r.conn.Close()
			}
		}()
		return nil, ctx.Err()
	case r := <-ch:
		return r.conn, r.err
	}
}

// MultiLinkTransport owns one Transport per radio interface (access
// point and station) and runs them concurrently, mirroring
// transport.rs's MultiLinkTransport.
type MultiLinkTransport struct {
	AP  *Transport
	STA *Transport
}

// NewMultiLinkTransport constructs a MultiLinkTransport from its two
// per-interface Transports.
func NewMultiLinkTransport(ap, sta *Transport) *MultiLinkTransport {
	return &MultiLinkTransport{AP: ap, STA: sta}
}

// Run blocks running both Transports until ctx is canceled or either
// returns an error.
func (m *MultiLinkTransport) Run(ctx context.Context) error {
	return supervise.Run(ctx,
		func(ctx context.Context) error { return m.AP.Run(ctx) },
		func(ctx context.Context) error { return m.STA.Run(ctx) },
	)
}

// NewConnectors builds the Connectors a Transport session's send/
// receive handlers read and write, bridging to the shared position
// queue and command channel threaded through from core wiring.
func NewConnectors(posTx chan<- units.Position, cmdTx chan<- wire.Command, posAckRx <-chan struct{}, cmdAckRx <-chan error) Connectors {
	return Connectors{PosTx: posTx, CmdTx: cmdTx, PosAckRx: posAckRx, CmdAckRx: cmdAckRx}
}

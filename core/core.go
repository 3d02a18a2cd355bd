// Package core wires the positioning engine, network orchestrator, and
// persistent configurator together into the two concurrency domains
// the original firmware splits across its two CPU cores: the control
// core (configurator, Wi-Fi manager, provider, transport) and the
// motion core (the positioning engine's tick loop).
package core

import (
	"context"

	"github.com/guamoko995/roboarm/configurator"
	"github.com/guamoko995/roboarm/internal/signal"
	"github.com/guamoko995/roboarm/internal/supervise"
	"github.com/guamoko995/roboarm/motion"
	"github.com/guamoko995/roboarm/network"
	"github.com/guamoko995/roboarm/units"
	"github.com/guamoko995/roboarm/wificonfig"
	"github.com/guamoko995/roboarm/wire"
)

// posQueueDepth mirrors connectors.rs's POS_QUEUE_LEN.
const posQueueDepth = 16

// Connectors are the channels and latches threaded between the control
// core's tasks and across to the motion core, grounded on
// connectors.rs and core_0/connectors.rs.
type Connectors struct {
	PosTx  chan units.Position
	PosAck chan struct{}

	CmdTx  chan wire.Command
	CmdAck chan error

	ConfigUpdated   *signal.Latch[wificonfig.WifiConfig]
	ActiveInterface *signal.Latch[network.Interface]
	TargetConfig    *signal.Latch[network.TargetConfig]
}

// NewConnectors allocates a fresh Connectors set.
func NewConnectors() *Connectors {
	return &Connectors{
		PosTx:  make(chan units.Position, posQueueDepth),
		PosAck: make(chan struct{}, 1),

		CmdTx:  make(chan wire.Command, 1),
		CmdAck: make(chan error, 1),

		ConfigUpdated:   signal.NewLatch[wificonfig.WifiConfig](),
		ActiveInterface: signal.NewLatch[network.Interface](),
		TargetConfig:    signal.NewLatch[network.TargetConfig](),
	}
}

// ControlCore bundles the tasks that run in the firmware's primary
// core: the configurator, the Wi-Fi manager, the Wi-Fi provider, and
// the multi-link transport, raced via supervise.Run exactly as
// network.rs's select5 races its five futures (the embassy-net stack
// runners have no Go equivalent here since netstack.Stack already pumps
// its own goroutines internally).
type ControlCore struct {
	configurator *configurator.Configurator
	manager      *network.Manager
	provider     *network.WifiProvider
	transport    *network.MultiLinkTransport
	connectors   *Connectors
}

// NewControlCore constructs a ControlCore from its already-built
// collaborators.
func NewControlCore(
	cfg *configurator.Configurator,
	manager *network.Manager,
	provider *network.WifiProvider,
	transport *network.MultiLinkTransport,
	connectors *Connectors,
) *ControlCore {
	return &ControlCore{
		configurator: cfg,
		manager:      manager,
		provider:     provider,
		transport:    transport,
		connectors:   connectors,
	}
}

// Run blocks running all control-core tasks until ctx is canceled or
// any task returns an error.
func (c *ControlCore) Run(ctx context.Context) error {
	return supervise.Run(ctx,
		func(ctx context.Context) error {
			return c.configurator.Run(ctx, c.connectors.CmdTx, c.connectors.CmdAck, c.connectors.ConfigUpdated)
		},
		func(ctx context.Context) error {
			return c.manager.Run(ctx, c.connectors.ConfigUpdated, c.connectors.ActiveInterface, c.connectors.TargetConfig)
		},
		func(ctx context.Context) error {
			return c.provider.Run(ctx, c.connectors.TargetConfig)
		},
		func(ctx context.Context) error {
			return c.transport.Run(ctx)
		},
	)
}

// MotionCore wraps the positioning engine's tick loop, the firmware's
// secondary core.
type MotionCore struct {
	engine *motion.Engine
}

// NewMotionCore constructs a MotionCore around engine.
func NewMotionCore(engine *motion.Engine) *MotionCore {
	return &MotionCore{engine: engine}
}

// Run blocks running the positioning engine until ctx is canceled,
// posQueue closes, or a motion error occurs.
func (c *MotionCore) Run(ctx context.Context, posQueue <-chan units.Position, posAck chan<- struct{}) error {
	done := make(chan error, 1)
	go func() { done <- c.engine.Run(posQueue, posAck) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

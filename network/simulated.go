package network

import (
	"context"
	"sync"
)

// SimulatedRadioController is an in-memory RadioController for the demo
// daemon and tests: it has no real hardware to drive, so Start/Connect
// succeed immediately and WaitDisconnected blocks until Disconnect is
// called or ctx is canceled.
type SimulatedRadioController struct {
	mu    sync.Mutex
	state StaState
	cfg   TargetConfig

	disconnected chan struct{}
}

// NewSimulatedRadioController returns a stopped SimulatedRadioController.
func NewSimulatedRadioController() *SimulatedRadioController {
	return &SimulatedRadioController{disconnected: make(chan struct{})}
}

func (c *SimulatedRadioController) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StaStopped
	return nil
}

func (c *SimulatedRadioController) SetConfig(cfg TargetConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
	return nil
}

func (c *SimulatedRadioController) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg.Mode == ModeClient || c.cfg.Mode == ModeAccessPointStation {
		c.state = StaStarted
	} else {
		c.state = StaStopped
	}
	return nil
}

func (c *SimulatedRadioController) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.state = StaConnected
	c.mu.Unlock()
	return nil
}

func (c *SimulatedRadioController) StaState() StaState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Disconnect simulates the station losing its association.
func (c *SimulatedRadioController) Disconnect() {
	c.mu.Lock()
	c.state = StaDisconnected
	ch := c.disconnected
	c.disconnected = make(chan struct{})
	c.mu.Unlock()
	close(ch)
}

func (c *SimulatedRadioController) WaitDisconnected(ctx context.Context) error {
	c.mu.Lock()
	ch := c.disconnected
	c.mu.Unlock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		return nil
	}
}

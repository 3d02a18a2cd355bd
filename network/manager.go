package network

import (
	"context"
	"time"

	"github.com/guamoko995/roboarm/internal/signal"
	"github.com/guamoko995/roboarm/wificonfig"
)

type managerState int

const (
	stateOptimistic managerState = iota
	stateLocked
	stateSurvival
)

// Manager supervises the Wi-Fi radio mode: it starts Optimistic (try a
// pure STA or AP configuration), locks once a TCP client connects on
// the active interface, and falls back to Survival (AP+STA) if no
// client shows up within SurvivalTimeout.
type Manager struct {
	logger Logger
}

// NewManager constructs a Manager.
func NewManager(logger Logger) *Manager {
	return &Manager{logger: logger}
}

// Run blocks, driving targetConfig from configUpdated and
// activeInterface, until ctx is canceled. It first waits for an initial
// value on configUpdated (the configurator publishes one at startup
// after reading persistent storage).
func (m *Manager) Run(
	ctx context.Context,
	configUpdated *signal.Latch[wificonfig.WifiConfig],
	activeInterface *signal.Latch[Interface],
	targetConfig *signal.Latch[TargetConfig],
) error {
	var config wificonfig.WifiConfig
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-configUpdated.Wait():
		config, _ = configUpdated.Get()
	}

	state := stateOptimistic
	for {
		var mode TargetConfig
		switch state {
		case stateOptimistic, stateLocked:
			mode = toPureConfig(config)
		case stateSurvival:
			mode = toSurvivalConfig(config)
		}
		targetConfig.Set(mode)

		var err error
		state, config, err = m.step(ctx, state, config, activeInterface, configUpdated)
		if err != nil {
			return err
		}
	}
}

func (m *Manager) step(
	ctx context.Context,
	state managerState,
	config wificonfig.WifiConfig,
	activeInterface *signal.Latch[Interface],
	configUpdated *signal.Latch[wificonfig.WifiConfig],
) (managerState, wificonfig.WifiConfig, error) {
	switch state {
	case stateOptimistic:
		timer := time.NewTimer(SurvivalTimeout)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return state, config, ctx.Err()
		case <-activeInterface.Wait():
			iface, _ := activeInterface.Get()
			if iface != InterfaceNone {
				m.logger.Infof("network: manager: client connected via interface %d, locking mode", iface)
				return stateLocked, config, nil
			}
			return stateOptimistic, config, nil
		case <-configUpdated.Wait():
			newCfg, _ := configUpdated.Get()
			m.logger.Info("network: manager: config updated, resetting logic")
			return stateOptimistic, newCfg, nil
		case <-timer.C:
			if config.Client != nil {
				m.logger.Warn("network: manager: survival timeout, enabling AP+STA")
				return stateSurvival, config, nil
			}
			return stateLocked, config, nil
		}

	case stateLocked:
		select {
		case <-ctx.Done():
			return state, config, ctx.Err()
		case <-activeInterface.Wait():
			iface, _ := activeInterface.Get()
			if iface == InterfaceNone {
				m.logger.Info("network: manager: no active clients, returning to optimistic hunt")
				return stateOptimistic, config, nil
			}
			return stateLocked, config, nil
		case <-configUpdated.Wait():
			newCfg, _ := configUpdated.Get()
			return stateOptimistic, newCfg, nil
		}

	case stateSurvival:
		select {
		case <-ctx.Done():
			return state, config, ctx.Err()
		case <-activeInterface.Wait():
			iface, _ := activeInterface.Get()
			if iface != InterfaceNone {
				m.logger.Info("network: manager: found client in survival mode, locking")
				return stateLocked, config, nil
			}
			return stateSurvival, config, nil
		case <-configUpdated.Wait():
			newCfg, _ := configUpdated.Get()
			return stateOptimistic, newCfg, nil
		}
	}
	panic("network: manager: unreachable state")
}

package network

import (
	"context"
	"time"

	"github.com/guamoko995/roboarm/internal/signal"
	"github.com/guamoko995/roboarm/wificonfig"
)

const (
	connectRetryTimeout    = 10 * time.Second
	startRetryTimeout      = 10 * time.Second
	stopRetryTimeout       = 10 * time.Second
	wifiStabilizationDelay = 1 * time.Second
)

// StaState is the station connection state the radio controller reports.
type StaState int

const (
	StaStopped StaState = iota
	StaStarted
	StaDisconnected
	StaConnecting
	StaConnected
)

// RadioController is the external hardware collaborator: the real
// Wi-Fi radio driver the WifiProvider drives through stop/configure/
// start/connect, and whose disconnect events it watches.
type RadioController interface {
	// Stop idles the radio. Safe to call when already stopped.
	Stop(ctx context.Context) error

	// SetConfig applies a hardware-level radio configuration (derived
	// from a TargetConfig, including any PBKDF2-derived PSK).
	SetConfig(cfg TargetConfig) error

	// Start brings the radio up in whatever mode SetConfig last applied.
	Start(ctx context.Context) error

	// Connect associates the station interface to its configured AP.
	Connect(ctx context.Context) error

	// StaState reports the current station connection state.
	StaState() StaState

	// WaitDisconnected blocks until the station disconnects, or ctx is
	// canceled.
	WaitDisconnected(ctx context.Context) error
}

// WifiProvider drives a RadioController to match the TargetConfig the
// Manager publishes, retrying transient stop/start/connect failures
// with fixed backoffs and re-asserting STA connectivity whenever it
// drops.
type WifiProvider struct {
	logger     Logger
	controller RadioController

	currentConfig *TargetConfig
}

// NewWifiProvider constructs a WifiProvider around controller.
func NewWifiProvider(logger Logger, controller RadioController) *WifiProvider {
	return &WifiProvider{logger: logger, controller: controller}
}

// Run blocks, applying whatever TargetConfig targetConfig publishes,
// until ctx is canceled.
func (p *WifiProvider) Run(ctx context.Context, targetConfig *signal.Latch[TargetConfig]) error {
	for {
		var newConfig TargetConfig
		if p.currentConfig == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-targetConfig.Wait():
				newConfig, _ = targetConfig.Get()
			}
		} else {
			watchCtx, cancelWatch := context.WithCancel(ctx)
			watchErr := make(chan error, 1)
			go func() { watchErr <- p.watchConnection(watchCtx) }()

			select {
			case <-ctx.Done():
				cancelWatch()
				<-watchErr
				return ctx.Err()
			case <-targetConfig.Wait():
				newConfig, _ = targetConfig.Get()
				cancelWatch()
				<-watchErr
			case <-watchErr:
				// Connection lost; re-drive maintainSTAConnection below
				// with the config unchanged.
				newConfig = *p.currentConfig
				cancelWatch()
			}
		}

		if err := p.updateConfig(ctx, newConfig); err != nil {
			return err
		}

		if p.isSTAActive() {
			p.maintainSTAConnection(ctx)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wifiStabilizationDelay):
		}
	}
}

// watchConnection blocks until the station disconnects (if STA is
// active and connected) or forever (if we're pure AP, since there's
// nothing to watch); it returns when ctx is canceled either way. If
// STA is active but not yet connected, it returns immediately so
// Run's outer loop can re-drive maintainSTAConnection instead of
// blocking through a transient Connecting/Started/Disconnected state.
func (p *WifiProvider) watchConnection(ctx context.Context) error {
	if !p.isSTAActive() {
		<-ctx.Done()
		return ctx.Err()
	}
	if p.controller.StaState() != StaConnected {
		return nil
	}
	if err := p.controller.WaitDisconnected(ctx); err != nil {
		return err
	}
	p.logger.Warn("network: wifi provider: connection lost")
	return nil
}

func (p *WifiProvider) updateConfig(ctx context.Context, newConfig TargetConfig) error {
	if p.currentConfig != nil && targetConfigEqual(*p.currentConfig, newConfig) {
		return nil
	}
	p.logger.Info("network: wifi provider: configuration change detected, resetting stack")

	if p.currentConfig != nil {
		for {
			if err := p.controller.Stop(ctx); err != nil {
				p.logger.Warnf("network: wifi provider: stop failed: %v, retrying", err)
				if waitErr := sleepOrDone(ctx, stopRetryTimeout); waitErr != nil {
					return waitErr
				}
				continue
			}
			break
		}
	}

	p.logger.Info("network: wifi provider: applying new hardware configuration")
	if err := p.controller.SetConfig(derivePSKs(newConfig)); err != nil {
		p.logger.Warnf("network: wifi provider: set config failed: %v", err)
	}
	cfg := newConfig
	p.currentConfig = &cfg

	if err := p.controller.Start(ctx); err != nil {
		p.logger.Warnf("network: wifi provider: start failed after config update: %v", err)
	}

	return sleepOrDone(ctx, wifiStabilizationDelay)
}

func (p *WifiProvider) isSTAActive() bool {
	return p.currentConfig != nil &&
		(p.currentConfig.Mode == ModeClient || p.currentConfig.Mode == ModeAccessPointStation)
}

func (p *WifiProvider) maintainSTAConnection(ctx context.Context) {
	switch p.controller.StaState() {
	case StaStopped:
		if err := p.controller.Start(ctx); err != nil {
			p.logger.Warnf("network: wifi provider: start error: %v", err)
			sleepOrDone(ctx, startRetryTimeout)
		}
	case StaStarted, StaDisconnected:
		if err := p.controller.Connect(ctx); err != nil {
			p.logger.Warnf("network: wifi provider: connect error: %v", err)
			sleepOrDone(ctx, connectRetryTimeout)
		}
	default:
		// connected or connecting: nothing to do
	}
}

// derivePSKs returns a copy of cfg with ClientPSK/APPSK populated for
// whichever side is configured with a PSK-requiring AuthMethod, the
// PBKDF2 derivation a real radio driver would otherwise have to do
// itself.
func derivePSKs(cfg TargetConfig) TargetConfig {
	if cfg.Client != nil && cfg.Client.AuthMethod.RequiresPSK() {
		psk := wificonfig.DerivePSK(cfg.Client.SSID, cfg.Client.Password)
		cfg.ClientPSK = &psk
	}
	if cfg.AP.AuthMethod.RequiresPSK() {
		psk := wificonfig.DerivePSK(cfg.AP.SSID, cfg.AP.Password)
		cfg.APPSK = &psk
	}
	return cfg
}

func sleepOrDone(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Package configurator implements the persistent configurator: it
// loads the Wi-Fi configuration from flash-backed key/value storage at
// startup, publishes it to the rest of the control core, and persists
// configuration changes that arrive as commands from an API session.
package configurator

import (
	"context"
	"errors"
	"fmt"

	"github.com/guamoko995/roboarm/internal/signal"
	"github.com/guamoko995/roboarm/storage"
	"github.com/guamoko995/roboarm/wificonfig"
	"github.com/guamoko995/roboarm/wire"
)

// ErrNotImplemented is returned for commands the configurator does not
// yet support.
var ErrNotImplemented = errors.New("configurator: command not implemented")

// Logger is the structured logging sink threaded through this package.
type Logger interface {
	Infof(format string, v ...any)
	Info(message string)
	Warnf(format string, v ...any)
}

// Configurator owns the persistent Wi-Fi configuration and reacts to
// ConfigureWifi / SetMaxSpeed commands arriving from an API session.
type Configurator struct {
	logger Logger
	store  *storage.KVStore
}

// New constructs a Configurator backed by store.
func New(logger Logger, store *storage.KVStore) *Configurator {
	return &Configurator{logger: logger, store: store}
}

// Run fetches the persisted Wi-Fi configuration (falling back to
// wificonfig.Default on storage.ErrNotFound or any other read error),
// publishes it on configUpdated, and then processes commands from
// cmdRx until ctx is canceled. Every command reports its outcome on
// cmdAckTx: nil on success, or the error that prevented it from being
// honored. A ConfigureWifi whose flash write fails still acks nil: the
// new config is applied in memory and published regardless of flash
// outcome, only the persistence across a power cycle is lost.
func (c *Configurator) Run(
	ctx context.Context,
	cmdRx <-chan wire.Command,
	cmdAckTx chan<- error,
	configUpdated *signal.Latch[wificonfig.WifiConfig],
) error {
	initial := c.fetchInitial()
	configUpdated.Set(initial)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case command := <-cmdRx:
			err := c.handle(command, configUpdated)
			select {
			case cmdAckTx <- err:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (c *Configurator) fetchInitial() wificonfig.WifiConfig {
	raw, err := c.store.Fetch(storage.KeyWifi)
	switch {
	case err == nil:
		cfg, unmarshalErr := wire.UnmarshalWifiConfig(raw)
		if unmarshalErr != nil {
			c.logger.Warnf("configurator: stored config is malformed: %v, using default", unmarshalErr)
			return wificonfig.Default()
		}
		c.logger.Info("configurator: config fetched from flash")
		return cfg
	case errors.Is(err, storage.ErrNotFound):
		c.logger.Info("configurator: no stored config found, using default")
		return wificonfig.Default()
	default:
		c.logger.Warnf("configurator: failed to fetch config: %v, using default", err)
		return wificonfig.Default()
	}
}

func (c *Configurator) handle(command wire.Command, configUpdated *signal.Latch[wificonfig.WifiConfig]) error {
	switch {
	case command.ConfigureWifi != nil:
		newCfg := *command.ConfigureWifi
		c.logger.Info("configurator: saving new wifi config")
		raw, err := wire.MarshalWifiConfig(newCfg)
		if err != nil {
			return fmt.Errorf("configurator: marshal config: %w", err)
		}
		if err := c.store.Put(storage.KeyWifi, raw); err != nil {
			c.logger.Warnf("configurator: persist config failed: %v, applying in-memory only", err)
		}
		configUpdated.Set(newCfg)
		return nil

	case command.SetMaxSpeed != nil:
		c.logger.Warnf("configurator: SetMaxSpeed not implemented: %v", ErrNotImplemented)
		return ErrNotImplemented

	default:
		return fmt.Errorf("configurator: empty command")
	}
}

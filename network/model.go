// Package network implements the network orchestrator: the Manager
// state machine that supervises a Wi-Fi radio across station,
// access-point, and survival (AP+STA) modes, the WifiProvider that
// drives a real radio controller to match the Manager's decisions, and
// the Transport that accepts and frames a single TCP client session per
// radio interface.
package network

import (
	"time"

	"github.com/guamoko995/roboarm/wificonfig"
)

// Logger is the structured logging sink threaded through this package;
// concrete implementations wrap apex/log.
type Logger interface {
	Debugf(format string, v ...any)
	Debug(message string)
	Infof(format string, v ...any)
	Info(message string)
	Warnf(format string, v ...any)
	Warn(message string)
}

// Interface identifies which radio interface, if any, currently holds
// the traffic-resource lock (and therefore an active TCP client).
type Interface int

const (
	InterfaceNone Interface = iota
	InterfaceAccessPoint
	InterfaceStation
)

// RadioMode is the mode the Manager commands the WifiProvider into.
type RadioMode int

const (
	// ModeClient runs the radio in pure station mode.
	ModeClient RadioMode = iota
	// ModeAccessPoint runs the radio in pure access-point mode.
	ModeAccessPoint
	// ModeAccessPointStation runs both AP and STA simultaneously
	// (survival mode).
	ModeAccessPointStation
)

// TargetConfig is the radio configuration the Manager wants the
// WifiProvider to apply.
type TargetConfig struct {
	Mode   RadioMode
	Client *wificonfig.ClientConfig
	AP     wificonfig.AccessPointConfig

	// ClientPSK and APPSK hold the PBKDF2-derived pre-shared key for
	// Client/AP respectively, populated by WifiProvider just before
	// handing the configuration to the RadioController, whenever the
	// corresponding AuthMethod requires one.
	ClientPSK *[wificonfig.PSKLen]byte
	APPSK     *[wificonfig.PSKLen]byte
}

// SurvivalTimeout bounds how long the Manager waits for a client to
// connect in Optimistic mode before falling back to survival (AP+STA).
const SurvivalTimeout = 30 * time.Second

// toPureConfig converts cfg into the "pure" radio configuration: STA
// only if a client config is present, AP only otherwise. Used in
// Optimistic and Locked states.
func toPureConfig(cfg wificonfig.WifiConfig) TargetConfig {
	if cfg.Client != nil {
		return TargetConfig{Mode: ModeClient, Client: cfg.Client}
	}
	ap := wificonfig.DefaultAccessPointConfig()
	if cfg.AccessPoint != nil {
		ap = *cfg.AccessPoint
	}
	return TargetConfig{Mode: ModeAccessPoint, AP: ap}
}

// targetConfigEqual reports whether a and b describe the same radio
// hardware configuration, used to detect no-op reconfigurations.
func targetConfigEqual(a, b TargetConfig) bool {
	if a.Mode != b.Mode || a.AP != b.AP {
		return false
	}
	if (a.Client == nil) != (b.Client == nil) {
		return false
	}
	if a.Client == nil {
		return true
	}
	if a.Client.SSID != b.Client.SSID ||
		a.Client.AuthMethod != b.Client.AuthMethod ||
		a.Client.Password != b.Client.Password ||
		a.Client.Protocols != b.Client.Protocols {
		return false
	}
	if (a.Client.Channel == nil) != (b.Client.Channel == nil) {
		return false
	}
	if a.Client.Channel != nil && *a.Client.Channel != *b.Client.Channel {
		return false
	}
	if (a.Client.BSSID == nil) != (b.Client.BSSID == nil) {
		return false
	}
	if a.Client.BSSID != nil && *a.Client.BSSID != *b.Client.BSSID {
		return false
	}
	return true
}

// toSurvivalConfig converts cfg into the AP+STA radio configuration
// used while waiting out a client drop-out in Survival mode.
func toSurvivalConfig(cfg wificonfig.WifiConfig) TargetConfig {
	ap := wificonfig.DefaultAccessPointConfig()
	if cfg.AccessPoint != nil {
		ap = *cfg.AccessPoint
	}
	if cfg.Client != nil {
		return TargetConfig{Mode: ModeAccessPointStation, Client: cfg.Client, AP: ap}
	}
	return TargetConfig{Mode: ModeAccessPoint, AP: ap}
}

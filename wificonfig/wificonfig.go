// Package wificonfig holds the Wi-Fi configuration data model shared
// between the persistent configurator, the network orchestrator, and the
// wire protocol: station credentials, access-point credentials, the
// supported authentication methods and 802.11 protocol set.
package wificonfig

const (
	// MaxSSIDLen is the maximum length, in bytes, of an SSID.
	MaxSSIDLen = 32

	// MaxPasswordLen is the maximum length, in bytes, of a password.
	MaxPasswordLen = 64
)

// AuthMethod is a Wi-Fi authentication method.
type AuthMethod uint8

const (
	AuthNone AuthMethod = iota
	AuthWEP
	AuthWPA
	AuthWPA2Personal // default
	AuthWPAWPA2Personal
	AuthWPA2Enterprise
	AuthWPA3Personal
	AuthWPA2WPA3Personal
	AuthWAPIPersonal
)

// RequiresPSK reports whether this authentication method needs a
// PBKDF2-derived pre-shared key before being handed to the radio.
func (a AuthMethod) RequiresPSK() bool {
	switch a {
	case AuthWPA2Personal, AuthWPAWPA2Personal, AuthWPA3Personal, AuthWPA2WPA3Personal:
		return true
	default:
		return false
	}
}

// Protocol is a single supported 802.11 radio protocol.
type Protocol uint8

const (
	Protocol80211B Protocol = iota
	Protocol80211BG
	Protocol80211BGN // default
	Protocol80211BGNLR
	Protocol80211LR
	Protocol80211BGNAX
)

// ProtocolSet is a bitset of supported [Protocol] values, packed into a
// single byte on the wire exactly like the firmware's EnumSet<Protocol>.
type ProtocolSet uint8

// DefaultProtocolSet matches the firmware default: b/g/n.
func DefaultProtocolSet() ProtocolSet {
	return NewProtocolSet(Protocol80211B, Protocol80211BG, Protocol80211BGN)
}

// NewProtocolSet builds a ProtocolSet from the given protocols.
func NewProtocolSet(protocols ...Protocol) ProtocolSet {
	var s ProtocolSet
	for _, p := range protocols {
		s |= 1 << uint(p)
	}
	return s
}

// Has reports whether p is a member of the set.
func (s ProtocolSet) Has(p Protocol) bool {
	return s&(1<<uint(p)) != 0
}

// ClientConfig is the station (client) Wi-Fi configuration.
type ClientConfig struct {
	SSID       string
	BSSID      *[6]byte
	AuthMethod AuthMethod
	Password   string
	Channel    *uint8
	Protocols  ProtocolSet
}

// AccessPointConfig is the access-point (SoftAP) Wi-Fi configuration.
type AccessPointConfig struct {
	SSID       string
	SSIDHidden bool
	Channel    uint8
	Protocols  ProtocolSet
	AuthMethod AuthMethod
	Password   string
}

// DefaultAccessPointConfig matches the firmware default: an open network
// named "robo-arm" on channel 1.
func DefaultAccessPointConfig() AccessPointConfig {
	return AccessPointConfig{
		SSID:       "robo-arm",
		SSIDHidden: false,
		Channel:    1,
		Protocols:  DefaultProtocolSet(),
		AuthMethod: AuthNone,
		Password:   "",
	}
}

// WifiConfig is the top-level Wi-Fi configuration: an optional client
// mode and an optional access-point mode. Both, either, or neither may be
// set; the network orchestrator interprets the combination per its state
// machine.
type WifiConfig struct {
	Client      *ClientConfig
	AccessPoint *AccessPointConfig
}

// Default matches the firmware default: no client config, a default
// open access point named "robo-arm".
func Default() WifiConfig {
	ap := DefaultAccessPointConfig()
	return WifiConfig{AccessPoint: &ap}
}

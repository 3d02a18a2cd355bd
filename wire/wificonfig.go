package wire

import (
	"fmt"

	"github.com/guamoko995/roboarm/wificonfig"
)

const (
	wifiFlagClient      = 1 << 0
	wifiFlagAccessPoint = 1 << 1
)

// MarshalWifiConfig encodes c on its own, for use by the configurator's
// persistent storage layer (which stores bare WifiConfig values, not
// wrapped Command messages).
func MarshalWifiConfig(c wificonfig.WifiConfig) ([]byte, error) {
	return appendWifiConfig(nil, c)
}

// UnmarshalWifiConfig decodes a WifiConfig previously written by
// MarshalWifiConfig.
func UnmarshalWifiConfig(data []byte) (wificonfig.WifiConfig, error) {
	cfg, rest, err := takeWifiConfig(data)
	if err != nil {
		return wificonfig.WifiConfig{}, err
	}
	if len(rest) != 0 {
		return wificonfig.WifiConfig{}, fmt.Errorf("%w: trailing bytes", ErrMalformed)
	}
	return cfg, nil
}

func appendWifiConfig(buf []byte, c wificonfig.WifiConfig) ([]byte, error) {
	var flags byte
	if c.Client != nil {
		flags |= wifiFlagClient
	}
	if c.AccessPoint != nil {
		flags |= wifiFlagAccessPoint
	}
	buf = append(buf, flags)

	var err error
	if c.Client != nil {
		buf, err = appendClientConfig(buf, *c.Client)
		if err != nil {
			return nil, err
		}
	}
	if c.AccessPoint != nil {
		buf, err = appendAccessPointConfig(buf, *c.AccessPoint)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func takeWifiConfig(data []byte) (wificonfig.WifiConfig, []byte, error) {
	if len(data) < 1 {
		return wificonfig.WifiConfig{}, nil, fmt.Errorf("%w: empty wifi config", ErrMalformed)
	}
	flags := data[0]
	rest := data[1:]
	var cfg wificonfig.WifiConfig
	var err error
	if flags&wifiFlagClient != 0 {
		var cc wificonfig.ClientConfig
		cc, rest, err = takeClientConfig(rest)
		if err != nil {
			return wificonfig.WifiConfig{}, nil, err
		}
		cfg.Client = &cc
	}
	if flags&wifiFlagAccessPoint != 0 {
		var ap wificonfig.AccessPointConfig
		ap, rest, err = takeAccessPointConfig(rest)
		if err != nil {
			return wificonfig.WifiConfig{}, nil, err
		}
		cfg.AccessPoint = &ap
	}
	return cfg, rest, nil
}

func appendClientConfig(buf []byte, c wificonfig.ClientConfig) ([]byte, error) {
	var err error
	buf, err = appendString(buf, c.SSID, MaxSSIDLen)
	if err != nil {
		return nil, err
	}
	if c.BSSID != nil {
		buf = append(buf, 1)
		buf = append(buf, c.BSSID[:]...)
	} else {
		buf = append(buf, 0)
	}
	buf = append(buf, byte(c.AuthMethod))
	buf, err = appendString(buf, c.Password, MaxPasswordLen)
	if err != nil {
		return nil, err
	}
	if c.Channel != nil {
		buf = append(buf, 1, *c.Channel)
	} else {
		buf = append(buf, 0)
	}
	buf = append(buf, byte(c.Protocols))
	return buf, nil
}

func takeClientConfig(data []byte) (wificonfig.ClientConfig, []byte, error) {
	var c wificonfig.ClientConfig
	var err error
	c.SSID, data, err = takeString(data, MaxSSIDLen)
	if err != nil {
		return c, nil, err
	}
	if len(data) < 1 {
		return c, nil, fmt.Errorf("%w: truncated bssid flag", ErrMalformed)
	}
	if data[0] == 1 {
		if len(data) < 7 {
			return c, nil, fmt.Errorf("%w: truncated bssid", ErrMalformed)
		}
		var bssid [6]byte
		copy(bssid[:], data[1:7])
		c.BSSID = &bssid
		data = data[7:]
	} else {
		data = data[1:]
	}
	if len(data) < 1 {
		return c, nil, fmt.Errorf("%w: truncated auth method", ErrMalformed)
	}
	c.AuthMethod = wificonfig.AuthMethod(data[0])
	data = data[1:]
	c.Password, data, err = takeString(data, MaxPasswordLen)
	if err != nil {
		return c, nil, err
	}
	if len(data) < 1 {
		return c, nil, fmt.Errorf("%w: truncated channel flag", ErrMalformed)
	}
	if data[0] == 1 {
		if len(data) < 2 {
			return c, nil, fmt.Errorf("%w: truncated channel", ErrMalformed)
		}
		ch := data[1]
		c.Channel = &ch
		data = data[2:]
	} else {
		data = data[1:]
	}
	if len(data) < 1 {
		return c, nil, fmt.Errorf("%w: truncated protocols", ErrMalformed)
	}
	c.Protocols = wificonfig.ProtocolSet(data[0])
	return c, data[1:], nil
}

func appendAccessPointConfig(buf []byte, c wificonfig.AccessPointConfig) ([]byte, error) {
	var err error
	buf, err = appendString(buf, c.SSID, MaxSSIDLen)
	if err != nil {
		return nil, err
	}
	if c.SSIDHidden {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	buf = append(buf, c.Channel, byte(c.Protocols), byte(c.AuthMethod))
	buf, err = appendString(buf, c.Password, MaxPasswordLen)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func takeAccessPointConfig(data []byte) (wificonfig.AccessPointConfig, []byte, error) {
	var c wificonfig.AccessPointConfig
	var err error
	c.SSID, data, err = takeString(data, MaxSSIDLen)
	if err != nil {
		return c, nil, err
	}
	if len(data) < 3 {
		return c, nil, fmt.Errorf("%w: truncated access point config", ErrMalformed)
	}
	c.SSIDHidden = data[0] == 1
	c.Channel = data[1]
	c.Protocols = wificonfig.ProtocolSet(data[2])
	data = data[3:]
	if len(data) < 1 {
		return c, nil, fmt.Errorf("%w: truncated auth method", ErrMalformed)
	}
	c.AuthMethod = wificonfig.AuthMethod(data[0])
	data = data[1:]
	c.Password, data, err = takeString(data, MaxPasswordLen)
	if err != nil {
		return c, nil, err
	}
	return c, data, nil
}

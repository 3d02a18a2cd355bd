package wificonfig

import (
	"crypto/sha1"

	"golang.org/x/crypto/pbkdf2"
)

// PSKLen is the length, in bytes, of a derived WPA2-PSK key.
const PSKLen = 32

// pskIterations is the PBKDF2 iteration count mandated by IEEE 802.11i
// for the passphrase-to-PSK derivation.
const pskIterations = 4096

// DerivePSK derives the 256-bit pre-shared key a radio controller expects
// for WPA2/WPA3-Personal networks from an SSID and passphrase, per RFC
// 2898 PBKDF2-HMAC-SHA1. Callers should only call this when
// AuthMethod.RequiresPSK reports true; open and enterprise networks have
// no PSK to derive.
func DerivePSK(ssid, password string) [PSKLen]byte {
	var out [PSKLen]byte
	copy(out[:], pbkdf2.Key([]byte(password), []byte(ssid), pskIterations, PSKLen, sha1.New))
	return out
}

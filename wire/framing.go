package wire

import (
	"fmt"
	"io"
)

// MaxWriteBodySize bounds a serialized Response body. A Response is
// always exactly 1 byte, so the bound is exact.
const MaxWriteBodySize = 1

// MaxReadBodySize bounds a serialized Request body: SSID + password
// strings for both client and access-point configs, plus their fixed
// fields, is the largest message the codec can produce.
const MaxReadBodySize = 1 + 1 + 2*(1+MaxSSIDLen+1+6+1+1+MaxPasswordLen+1+1+1)

// WritePacket writes a varint length prefix followed by body to w.
func WritePacket(w io.Writer, body []byte) error {
	if err := WriteVarint(w, uint64(len(body))); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

// ReadPacket reads a varint length prefix followed by exactly that many
// bytes from r. It returns an error if the declared length exceeds
// maxSize, mirroring the firmware's oversize-frame rejection.
func ReadPacket(r io.Reader, maxSize int) ([]byte, error) {
	n, err := ReadVarint(r)
	if err != nil {
		return nil, err
	}
	if n > uint64(maxSize) {
		return nil, fmt.Errorf("wire: declared packet length %d exceeds max %d", n, maxSize)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/guamoko995/roboarm/units"
	"github.com/guamoko995/roboarm/wificonfig"
)

// MaxSSIDLen and MaxPasswordLen bound the string fields accepted while
// decoding, mirroring the firmware's fixed-capacity heapless strings.
const (
	MaxSSIDLen     = wificonfig.MaxSSIDLen
	MaxPasswordLen = wificonfig.MaxPasswordLen
)

// ErrMalformed is returned by Unmarshal* functions when the input bytes
// do not describe a valid value of the expected type.
var ErrMalformed = errors.New("wire: malformed message")

// Request is a client-to-device message: either a joint target to append
// to the motion queue, or an immediate out-of-band command.
type Request struct {
	Enqueue *units.Position
	Command *Command
}

// Command is an immediate, non-queued instruction.
type Command struct {
	SetMaxSpeed   *units.Quantity[units.RadiansPerSecond]
	ConfigureWifi *wificonfig.WifiConfig
}

// Response is a device-to-client acknowledgement.
type Response uint8

const (
	ResponsePositionAck Response = iota
	ResponseCommandAck
)

const (
	reqTagEnqueue uint8 = iota
	reqTagCommand
)

const (
	cmdTagSetMaxSpeed uint8 = iota
	cmdTagConfigureWifi
)

// MarshalRequest encodes r into its wire representation.
func MarshalRequest(r Request) ([]byte, error) {
	buf := make([]byte, 0, 32)
	switch {
	case r.Enqueue != nil:
		buf = append(buf, reqTagEnqueue)
		buf = appendPosition(buf, *r.Enqueue)
	case r.Command != nil:
		buf = append(buf, reqTagCommand)
		var err error
		buf, err = appendCommand(buf, *r.Command)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: empty Request", ErrMalformed)
	}
	return buf, nil
}

// UnmarshalRequest decodes a Request from data, which must contain no
// trailing bytes.
func UnmarshalRequest(data []byte) (Request, error) {
	if len(data) < 1 {
		return Request{}, fmt.Errorf("%w: empty request body", ErrMalformed)
	}
	switch data[0] {
	case reqTagEnqueue:
		pos, rest, err := takePosition(data[1:])
		if err != nil {
			return Request{}, err
		}
		if len(rest) != 0 {
			return Request{}, fmt.Errorf("%w: trailing bytes", ErrMalformed)
		}
		return Request{Enqueue: &pos}, nil
	case reqTagCommand:
		cmd, rest, err := takeCommand(data[1:])
		if err != nil {
			return Request{}, err
		}
		if len(rest) != 0 {
			return Request{}, fmt.Errorf("%w: trailing bytes", ErrMalformed)
		}
		return Request{Command: &cmd}, nil
	default:
		return Request{}, fmt.Errorf("%w: unknown request tag %d", ErrMalformed, data[0])
	}
}

func appendCommand(buf []byte, c Command) ([]byte, error) {
	switch {
	case c.SetMaxSpeed != nil:
		buf = append(buf, cmdTagSetMaxSpeed)
		buf = appendFloat32(buf, c.SetMaxSpeed.Float32())
		return buf, nil
	case c.ConfigureWifi != nil:
		buf = append(buf, cmdTagConfigureWifi)
		return appendWifiConfig(buf, *c.ConfigureWifi)
	default:
		return nil, fmt.Errorf("%w: empty Command", ErrMalformed)
	}
}

func takeCommand(data []byte) (Command, []byte, error) {
	if len(data) < 1 {
		return Command{}, nil, fmt.Errorf("%w: empty command body", ErrMalformed)
	}
	switch data[0] {
	case cmdTagSetMaxSpeed:
		v, rest, err := takeFloat32(data[1:])
		if err != nil {
			return Command{}, nil, err
		}
		q := units.New[units.RadiansPerSecond](v)
		return Command{SetMaxSpeed: &q}, rest, nil
	case cmdTagConfigureWifi:
		cfg, rest, err := takeWifiConfig(data[1:])
		if err != nil {
			return Command{}, nil, err
		}
		return Command{ConfigureWifi: &cfg}, rest, nil
	default:
		return Command{}, nil, fmt.Errorf("%w: unknown command tag %d", ErrMalformed, data[0])
	}
}

// MarshalResponse encodes r into its one-byte wire representation.
func MarshalResponse(r Response) []byte {
	return []byte{byte(r)}
}

// UnmarshalResponse decodes a Response from data.
func UnmarshalResponse(data []byte) (Response, error) {
	if len(data) != 1 {
		return 0, fmt.Errorf("%w: response must be exactly 1 byte", ErrMalformed)
	}
	switch Response(data[0]) {
	case ResponsePositionAck, ResponseCommandAck:
		return Response(data[0]), nil
	default:
		return 0, fmt.Errorf("%w: unknown response tag %d", ErrMalformed, data[0])
	}
}

func appendPosition(buf []byte, p units.Position) []byte {
	buf = appendFloat32(buf, p.Rotation.Float32())
	buf = appendFloat32(buf, p.Shoulder.Float32())
	buf = appendFloat32(buf, p.Forearm.Float32())
	buf = appendFloat32(buf, p.Claw.Float32())
	return buf
}

func takePosition(data []byte) (units.Position, []byte, error) {
	var p units.Position
	var v [4]float32
	rest := data
	var err error
	for i := range v {
		v[i], rest, err = takeFloat32(rest)
		if err != nil {
			return p, nil, err
		}
	}
	p.Rotation = units.New[units.Radians](v[0])
	p.Shoulder = units.New[units.Radians](v[1])
	p.Forearm = units.New[units.Radians](v[2])
	p.Claw = units.New[units.Radians](v[3])
	return p, rest, nil
}

func appendFloat32(buf []byte, v float32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], math.Float32bits(v))
	return append(buf, tmp[:]...)
}

func takeFloat32(data []byte) (float32, []byte, error) {
	if len(data) < 4 {
		return 0, nil, fmt.Errorf("%w: short float32", ErrMalformed)
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(data[:4]))
	return v, data[4:], nil
}

func appendString(buf []byte, s string, maxLen int) ([]byte, error) {
	if len(s) > maxLen {
		return nil, fmt.Errorf("%w: string exceeds max length %d", ErrMalformed, maxLen)
	}
	buf = appendUvarint(buf, uint64(len(s)))
	return append(buf, s...), nil
}

func takeString(data []byte, maxLen int) (string, []byte, error) {
	n, rest, err := takeUvarint(data)
	if err != nil {
		return "", nil, err
	}
	if n > uint64(maxLen) || n > uint64(len(rest)) {
		return "", nil, fmt.Errorf("%w: string length out of range", ErrMalformed)
	}
	return string(rest[:n]), rest[n:], nil
}

func appendUvarint(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v&0x7F)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

func takeUvarint(data []byte) (uint64, []byte, error) {
	var res uint64
	var shift uint
	for i := 0; i < len(data); i++ {
		b := data[i]
		res |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return res, data[i+1:], nil
		}
		shift += 7
		if shift >= 64 {
			return 0, nil, ErrVarintOverflow
		}
	}
	return 0, nil, fmt.Errorf("%w: truncated varint", ErrMalformed)
}

package wire

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/guamoko995/roboarm/units"
	"github.com/guamoko995/roboarm/wificonfig"
)

func TestVarintRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40} {
		var buf bytes.Buffer
		if err := WriteVarint(&buf, v); err != nil {
			t.Fatalf("WriteVarint(%d): %v", v, err)
		}
		if got := HeaderSize(v); got != buf.Len() {
			t.Fatalf("HeaderSize(%d) = %d, want %d", v, got, buf.Len())
		}
		got, err := ReadVarint(&buf)
		if err != nil {
			t.Fatalf("ReadVarint(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip %d: got %d", v, got)
		}
	}
}

func TestRequestEnqueueRoundTrip(t *testing.T) {
	pos := units.Position{
		Rotation: units.New[units.Radians](1.5),
		Shoulder: units.New[units.Radians](0.2),
		Forearm:  units.New[units.Radians](-0.3),
		Claw:     units.New[units.Radians](0.1),
	}
	req := Request{Enqueue: &pos}

	data, err := MarshalRequest(req)
	if err != nil {
		t.Fatalf("MarshalRequest: %v", err)
	}
	got, err := UnmarshalRequest(data)
	if err != nil {
		t.Fatalf("UnmarshalRequest: %v", err)
	}
	if got.Enqueue == nil || *got.Enqueue != pos {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got.Enqueue, pos)
	}
}

func TestRequestConfigureWifiRoundTrip(t *testing.T) {
	ch := uint8(6)
	cfg := wificonfig.WifiConfig{
		Client: &wificonfig.ClientConfig{
			SSID:       "home-network",
			AuthMethod: wificonfig.AuthWPA2Personal,
			Password:   "hunter22",
			Channel:    &ch,
			Protocols:  wificonfig.DefaultProtocolSet(),
		},
	}
	req := Request{Command: &Command{ConfigureWifi: &cfg}}

	data, err := MarshalRequest(req)
	if err != nil {
		t.Fatalf("MarshalRequest: %v", err)
	}
	got, err := UnmarshalRequest(data)
	if err != nil {
		t.Fatalf("UnmarshalRequest: %v", err)
	}
	if got.Command == nil || got.Command.ConfigureWifi == nil {
		t.Fatalf("missing ConfigureWifi in round trip")
	}
	if diff := cmp.Diff(cfg, *got.Command.ConfigureWifi); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	for _, r := range []Response{ResponsePositionAck, ResponseCommandAck} {
		data := MarshalResponse(r)
		got, err := UnmarshalResponse(data)
		if err != nil {
			t.Fatalf("UnmarshalResponse: %v", err)
		}
		if got != r {
			t.Fatalf("got %v, want %v", got, r)
		}
	}
}

func TestReadPacketRejectsOversize(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteVarint(&buf, 1000); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPacket(&buf, 10); err == nil {
		t.Fatal("expected error for oversize packet")
	}
}

func TestWritePacketReadPacketRoundTrip(t *testing.T) {
	body := []byte{1, 2, 3, 4, 5}
	var buf bytes.Buffer
	if err := WritePacket(&buf, body); err != nil {
		t.Fatal(err)
	}
	got, err := ReadPacket(&buf, 1024)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("got %v, want %v", got, body)
	}
}

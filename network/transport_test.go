package network

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/guamoko995/roboarm/internal/signal"
	"github.com/guamoko995/roboarm/units"
	"github.com/guamoko995/roboarm/wire"
)

func TestTransportLocksAndUnlocksOnSessionEnd(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	activeInterface := signal.NewLatch[Interface]()
	resources := NewTrafficResources(activeInterface)
	posTx := make(chan units.Position, 1)
	cmdTx := make(chan wire.Command, 1)
	posAck := make(chan struct{}, 1)
	cmdAck := make(chan error, 1)

	tr := NewTransport(testLogger{}, InterfaceAccessPoint, listener, resources,
		NewConnectors(posTx, cmdTx, posAck, cmdAck))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tr.Run(ctx)

	conn, err := net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	select {
	case <-activeInterface.Wait():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for interface to lock")
	}
	iface, _ := activeInterface.Get()
	if iface != InterfaceAccessPoint {
		t.Fatalf("active interface = %v, want InterfaceAccessPoint", iface)
	}

	conn.Close()

	select {
	case <-activeInterface.Wait():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for interface to unlock")
	}
	iface, _ = activeInterface.Get()
	if iface != InterfaceNone {
		t.Fatalf("active interface = %v, want InterfaceNone after disconnect", iface)
	}
}

func TestTransportForwardsEnqueuedPosition(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	activeInterface := signal.NewLatch[Interface]()
	resources := NewTrafficResources(activeInterface)
	posTx := make(chan units.Position, 1)
	cmdTx := make(chan wire.Command, 1)
	posAck := make(chan struct{}, 1)
	cmdAck := make(chan error, 1)

	tr := NewTransport(testLogger{}, InterfaceStation, listener, resources,
		NewConnectors(posTx, cmdTx, posAck, cmdAck))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tr.Run(ctx)

	conn, err := net.Dial("tcp", listener.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	pos := units.Position{
		Rotation: units.New[units.Radians](1.0),
		Shoulder: units.New[units.Radians](0.5),
		Forearm:  units.New[units.Radians](0.2),
		Claw:     units.New[units.Radians](0.0),
	}
	body, err := wire.MarshalRequest(wire.Request{Enqueue: &pos})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := wire.WritePacket(conn, body); err != nil {
		t.Fatalf("write packet: %v", err)
	}

	select {
	case got := <-posTx:
		if got != pos {
			t.Fatalf("forwarded position = %+v, want %+v", got, pos)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for enqueued position to be forwarded")
	}

	posAck <- struct{}{}

	respBody, err := wire.ReadPacket(conn, wire.MaxWriteBodySize)
	if err != nil {
		t.Fatalf("read response packet: %v", err)
	}
	resp, err := wire.UnmarshalResponse(respBody)
	if err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp != wire.ResponsePositionAck {
		t.Fatalf("response = %v, want ResponsePositionAck", resp)
	}
}

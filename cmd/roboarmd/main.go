// Command roboarmd runs the robotic manipulator's firmware as a single
// host process: the positioning engine on one goroutine tree, and the
// network orchestrator, persistent configurator, and TCP transport on
// another, wired together exactly as the two-core firmware splits them.
package main

import (
	"context"
	"flag"
	"net/netip"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/apex/log"
	apexcli "github.com/apex/log/handlers/cli"

	"github.com/guamoko995/roboarm/configurator"
	"github.com/guamoko995/roboarm/core"
	"github.com/guamoko995/roboarm/internal/must"
	"github.com/guamoko995/roboarm/motion"
	"github.com/guamoko995/roboarm/network"
	"github.com/guamoko995/roboarm/netstack"
	"github.com/guamoko995/roboarm/storage"
)

const (
	apMTU = 1500

	eraseBlockSize = 4096
)

func main() {
	pcapDir := flag.String("pcap-dir", "", "if set, dump AP/STA traffic to ap.pcap/sta.pcap under this directory")
	flag.Parse()

	log.SetHandler(apexcli.Default)
	log.SetLevel(log.DebugLevel)
	logger := log.Log

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	connectors := core.NewConnectors()

	mechanics := motion.NewMechanics(
		motion.NewSimulatedPWMChannel(4096),
		motion.NewSimulatedPWMChannel(4096),
		motion.NewSimulatedPWMChannel(4096),
		motion.NewSimulatedPWMChannel(4096),
	)
	engine := motion.NewEngine(mechanics)
	motionCore := core.NewMotionCore(engine)

	flash := storage.NewSimulatedFlashDevice(
		storage.StoragePartitionOffset+storage.StoragePartitionSize,
		eraseBlockSize,
	)
	kv := must.One(storage.Open(flash, storage.StoragePartitionOffset, storage.StoragePartitionSize))

	apLink, _ := netstack.NewSimulatedRadioLinkPair()
	staLink, _ := netstack.NewSimulatedRadioLinkPair()

	var apRadioLink, staRadioLink netstack.RadioLink = apLink, staLink
	if *pcapDir != "" {
		apDumper := netstack.NewPCAPDumper(filepath.Join(*pcapDir, "ap.pcap"), apLink, logger)
		staDumper := netstack.NewPCAPDumper(filepath.Join(*pcapDir, "sta.pcap"), staLink, logger)
		defer apDumper.Close()
		defer staDumper.Close()
		apRadioLink, staRadioLink = apDumper, staDumper
	}

	apStack := must.One(netstack.New(logger, "ap0", netip.MustParseAddr("192.168.4.1"), apMTU, apRadioLink))
	defer apStack.Close()

	staStack := must.One(netstack.New(logger, "sta0", netip.MustParseAddr("192.168.1.50"), apMTU, staRadioLink))
	defer staStack.Close()

	dhcp := must.One(netstack.NewDHCPServer(logger, apStack, netstack.Pool{
		ServerIP:   netip.MustParseAddr("192.168.4.1").AsSlice(),
		RangeStart: netip.MustParseAddr("192.168.4.2").AsSlice(),
		RangeEnd:   netip.MustParseAddr("192.168.4.10").AsSlice(),
		SubnetMask: netip.MustParseAddr("255.255.255.0").AsSlice(),
		DNS:        netip.MustParseAddr("8.8.8.8").AsSlice(),
		LeaseSecs:  3600,
	}))
	defer dhcp.Close()

	apListener := must.One(apStack.ListenTCP(8080))
	staListener := must.One(staStack.ListenTCP(8080))

	resources := network.NewTrafficResources(connectors.ActiveInterface)
	apTransport := network.NewTransport(logger, network.InterfaceAccessPoint, apListener, resources,
		network.NewConnectors(connectors.PosTx, connectors.CmdTx, connectors.PosAck, connectors.CmdAck))
	staTransport := network.NewTransport(logger, network.InterfaceStation, staListener, resources,
		network.NewConnectors(connectors.PosTx, connectors.CmdTx, connectors.PosAck, connectors.CmdAck))
	multiLink := network.NewMultiLinkTransport(apTransport, staTransport)

	cfg := configurator.New(logger, kv)
	manager := network.NewManager(logger)
	radio := network.NewSimulatedRadioController()
	provider := network.NewWifiProvider(logger, radio)

	controlCore := core.NewControlCore(cfg, manager, provider, multiLink, connectors)

	errCh := make(chan error, 2)
	go func() { errCh <- controlCore.Run(ctx) }()
	go func() { errCh <- motionCore.Run(ctx, connectors.PosTx, connectors.PosAck) }()

	select {
	case <-ctx.Done():
		logger.Info("roboarmd: shutting down")
	case err := <-errCh:
		logger.Errorf("roboarmd: fatal: %v", err)
	}
}

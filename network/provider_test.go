package network

import (
	"context"
	"testing"
	"time"

	"github.com/guamoko995/roboarm/internal/signal"
	"github.com/guamoko995/roboarm/wificonfig"
)

var clientConfigFixture = wificonfig.ClientConfig{
	SSID:       "home-network",
	AuthMethod: wificonfig.AuthWPA2Personal,
	Password:   "hunter22",
	Protocols:  wificonfig.DefaultProtocolSet(),
}

func TestWifiProviderAppliesInitialConfig(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	controller := NewSimulatedRadioController()
	provider := NewWifiProvider(testLogger{}, controller)
	targetConfig := signal.NewLatch[TargetConfig]()

	go provider.Run(ctx, targetConfig)

	targetConfig.Set(TargetConfig{Mode: ModeAccessPoint})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		controller.mu.Lock()
		applied := controller.cfg.Mode == ModeAccessPoint
		controller.mu.Unlock()
		if applied && controller.StaState() == StaStopped {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("controller never reached a settled state, got %v", controller.StaState())
}

func TestWifiProviderMaintainsSTAConnection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	controller := NewSimulatedRadioController()
	provider := NewWifiProvider(testLogger{}, controller)
	targetConfig := signal.NewLatch[TargetConfig]()

	go provider.Run(ctx, targetConfig)

	targetConfig.Set(TargetConfig{Mode: ModeClient})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if controller.StaState() == StaConnected {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("controller never connected, got %v", controller.StaState())
}

func TestTargetConfigEqualIgnoresPointerIdentity(t *testing.T) {
	a := TargetConfig{Mode: ModeClient, Client: &clientConfigFixture}
	bCopy := clientConfigFixture
	b := TargetConfig{Mode: ModeClient, Client: &bCopy}

	if !targetConfigEqual(a, b) {
		t.Fatal("expected logically identical configs from different allocations to compare equal")
	}
}

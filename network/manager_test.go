package network

import (
	"context"
	"testing"
	"time"

	"github.com/guamoko995/roboarm/internal/signal"
	"github.com/guamoko995/roboarm/wificonfig"
)

func TestManagerLocksWhenClientConnects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configUpdated := signal.NewLatch[wificonfig.WifiConfig]()
	activeInterface := signal.NewLatch[Interface]()
	targetConfig := signal.NewLatch[TargetConfig]()

	m := NewManager(testLogger{})
	go m.Run(ctx, configUpdated, activeInterface, targetConfig)

	configUpdated.Set(wificonfig.Default())

	select {
	case <-targetConfig.Wait():
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for initial target config")
	}
	cfg, _ := targetConfig.Get()
	if cfg.Mode != ModeAccessPoint {
		t.Fatalf("mode = %v, want ModeAccessPoint (no client configured)", cfg.Mode)
	}

	activeInterface.Set(InterfaceAccessPoint)

	// Transitioning to Locked republishes the (unchanged) target config
	// once; consume that republish.
	select {
	case <-targetConfig.Wait():
	case <-time.After(time.Second):
		t.Fatal("manager never republished target config after locking")
	}

	// Once settled in Locked, the manager blocks on activeInterface/
	// configUpdated with no timer; if it were still Optimistic,
	// SurvivalTimeout would eventually fire a further republish, but
	// within this short window none should arrive.
	select {
	case <-targetConfig.Wait():
		t.Fatal("manager republished target config again while idle in Locked state")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestManagerFallsBackToSurvivalOnTimeout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping slow survival-timeout test in short mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	configUpdated := signal.NewLatch[wificonfig.WifiConfig]()
	activeInterface := signal.NewLatch[Interface]()
	targetConfig := signal.NewLatch[TargetConfig]()

	m := NewManager(testLogger{})
	go m.Run(ctx, configUpdated, activeInterface, targetConfig)

	ssid := "home-network"
	configUpdated.Set(wificonfig.WifiConfig{
		Client: &wificonfig.ClientConfig{SSID: ssid, AuthMethod: wificonfig.AuthNone},
	})

	<-targetConfig.Wait()
	cfg, _ := targetConfig.Get()
	if cfg.Mode != ModeClient {
		t.Fatalf("mode = %v, want ModeClient", cfg.Mode)
	}

	select {
	case <-targetConfig.Wait():
	case <-time.After(SurvivalTimeout + 5*time.Second):
		t.Fatal("never entered survival mode")
	}
	cfg, _ = targetConfig.Get()
	if cfg.Mode != ModeAccessPointStation {
		t.Fatalf("mode = %v, want ModeAccessPointStation after survival timeout", cfg.Mode)
	}
}

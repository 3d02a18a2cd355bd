package motion

import (
	"testing"

	"github.com/montanaflynn/stats"

	"github.com/guamoko995/roboarm/units"
)

func TestInterpolatorReachesTarget(t *testing.T) {
	src := units.Position{}
	dst := units.Position{
		Rotation: units.New[units.Radians](1.0),
		Shoulder: units.New[units.Radians](0.5),
	}
	it := NewInterpolator(src, dst, MaxSpeed)

	var last units.Position
	count := 0
	for {
		pos, ok := it.Next()
		if !ok {
			break
		}
		last = pos
		count++
		if count > 100000 {
			t.Fatal("interpolation did not terminate")
		}
	}
	if count == 0 {
		t.Fatal("expected at least one step")
	}
	if last != dst {
		t.Fatalf("last step = %+v, want %+v", last, dst)
	}
}

func TestInterpolatorNoopWhenAlreadyThere(t *testing.T) {
	pos := units.Position{Rotation: units.New[units.Radians](0.4)}
	it := NewInterpolator(pos, pos, MaxSpeed)
	if _, ok := it.Next(); ok {
		t.Fatal("expected zero steps for a no-op move")
	}
}

// TestInterpolatorStepSizeBounded checks that no single rotation step
// exceeds the distance the rotation joint can travel in one tick at
// MaxSpeed.Rotation, using
// stats.Max the same way a property test would flag an outlier step.
func TestInterpolatorStepSizeBounded(t *testing.T) {
	src := units.Position{}
	dst := units.Position{
		Rotation: units.New[units.Radians](3.0),
		Claw:     units.New[units.Radians](-2.0),
	}
	it := NewInterpolator(src, dst, MaxSpeed)

	maxBound := MaxSpeed.Rotation.Float32() * float32(PositioningInterval) * 1.01

	var rotationSteps []float64
	prev := src.Rotation.Float32()
	for {
		pos, ok := it.Next()
		if !ok {
			break
		}
		rotationSteps = append(rotationSteps, float64(pos.Rotation.Float32()-prev))
		prev = pos.Rotation.Float32()
	}
	if len(rotationSteps) == 0 {
		t.Fatal("expected steps")
	}
	maxStep, err := stats.Max(rotationSteps)
	if err != nil {
		t.Fatal(err)
	}
	if maxStep > float64(maxBound) {
		t.Fatalf("max rotation step %v exceeds bound %v", maxStep, maxBound)
	}
}

func TestServoClampsToZeroToPi(t *testing.T) {
	ch := NewSimulatedPWMChannel(1<<14 - 1)
	servo := NewServo(ch)

	if err := servo.SetPos(units.New[units.Radians](-1)); err != nil {
		t.Fatal(err)
	}
	belowZero := ch.LastDutyCycle()

	if err := servo.SetPos(units.New[units.Radians](0)); err != nil {
		t.Fatal(err)
	}
	atZero := ch.LastDutyCycle()

	if belowZero != atZero {
		t.Fatalf("clamp at 0: got %d, want %d", belowZero, atZero)
	}
}

func TestEngineRunReachesTargetAndAcks(t *testing.T) {
	mech := NewMechanics(
		NewSimulatedPWMChannel(1<<14-1),
		NewSimulatedPWMChannel(1<<14-1),
		NewSimulatedPWMChannel(1<<14-1),
		NewSimulatedPWMChannel(1<<14-1),
	)
	engine := NewEngine(mech)

	posQueue := make(chan units.Position, 1)
	posAck := make(chan struct{}, 1)

	target := units.Position{Rotation: units.New[units.Radians](1.6)}
	posQueue <- target
	close(posQueue)

	if err := engine.Run(posQueue, posAck); err != nil {
		t.Fatalf("Run: %v", err)
	}

	select {
	case <-posAck:
	default:
		t.Fatal("expected an ack after reaching the target")
	}
}

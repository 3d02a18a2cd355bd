package motion

import (
	"math"
	"time"

	"github.com/guamoko995/roboarm/units"
)

// InitPosition is the manipulator's position at power-on. Reserved for a
// future feature: loading this from persistent storage instead
// (see DESIGN.md Open Question 2).
var InitPosition = units.Position{
	Rotation: units.New[units.Radians](1.57),
	Shoulder: units.New[units.Radians](1.3),
	Forearm:  units.New[units.Radians](0.7),
	Claw:     units.New[units.Radians](2.5),
}

// MaxSpeed bounds the angular velocity of each joint during
// interpolation. Reserved for a future feature, like InitPosition.
var MaxSpeed = units.Velocity{
	Rotation: units.New[units.RadiansPerSecond](float32(math.Pi / 3.0)),
	Shoulder: units.New[units.RadiansPerSecond](float32(math.Pi / 2.0)),
	Forearm:  units.New[units.RadiansPerSecond](float32(math.Pi / 2.0)),
	Claw:     units.New[units.RadiansPerSecond](float32(math.Pi)),
}

// tickInterval is PositioningInterval expressed as a time.Duration.
var tickInterval = time.Duration(PositioningInterval * float64(time.Second))

// Engine drives the manipulator's four joints along queued trajectories.
type Engine struct {
	mechanics *Mechanics
}

// NewEngine constructs an Engine around already-wired mechanics.
func NewEngine(mechanics *Mechanics) *Engine {
	return &Engine{mechanics: mechanics}
}

// Run consumes target positions from posQueue, interpolates a smooth
// trajectory from the current position to each one, and drives the
// mechanics along it, pacing each step with a busy-wait loop so the
// fixed 50Hz tick never drifts under scheduler jitter. It posts to
// posAck after fully reaching each queued target.
//
// Run never returns under normal operation. It returns nil once posQueue
// is closed, or the error of a failed servo update; callers should treat
// either as a fatal shutdown condition.
func (e *Engine) Run(posQueue <-chan units.Position, posAck chan<- struct{}) error {
	nextTick := time.Now()
	currentPos := InitPosition

	for dst := range posQueue {
		it := NewInterpolator(currentPos, dst, MaxSpeed)
		for {
			pos, ok := it.Next()
			if !ok {
				break
			}

			nextTick = nextTick.Add(tickInterval)
			now := time.Now()
			if now.After(nextTick) {
				nextTick = now
			}

			for time.Now().Before(nextTick) {
				// Busy-wait: this goroutine owns its OS thread for the
				// duration of the tick and never yields, mirroring the
				// firmware's spin_loop on a core with no scheduler.
			}

			if err := e.mechanics.SetPos(pos); err != nil {
				return err
			}
			currentPos = pos
		}
		posAck <- struct{}{}
	}
	return nil
}

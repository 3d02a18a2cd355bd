// Package motion implements the positioning engine: the interpolation of
// joint trajectories into fixed-rate steps and the mapping of those steps
// onto PWM servo duty cycles. It is designed to run on a dedicated
// goroutine that busy-waits for tick boundaries, the same way the
// firmware's motion core never yields to a scheduler.
package motion

import (
	"math"

	"github.com/guamoko995/roboarm/units"
)

// PositioningInterval is the tick period of the positioning loop, locked
// to the PWM refresh rate of a standard hobby servo (50 Hz).
const PositioningInterval = 1.0 / 50.0 // seconds

// Interpolator yields a sequence of intermediate joint positions between
// a source and a destination, spaced so that no axis ever exceeds its
// configured maximum angular velocity.
type Interpolator struct {
	targetPos units.Position
	step      units.Position
	steps     uint32
}

// NewInterpolator computes the step sequence needed to move from src to
// dst without exceeding maxSpeed on any axis, ticking at
// PositioningInterval.
func NewInterpolator(src, dst units.Position, maxSpeed units.Velocity) *Interpolator {
	delta := dst.Sub(src)

	movementDuration := maxAbsComponentDuration(delta, maxSpeed)
	steps := uint32(math.Ceil(float64(movementDuration) / PositioningInterval))

	var step units.Position
	if steps == 0 {
		step = delta
	} else {
		step = delta.Scale(1.0 / float32(steps))
	}

	return &Interpolator{targetPos: dst, step: step, steps: steps}
}

// Next returns the next intermediate position and true, or the zero
// value and false once the interpolation is complete.
func (it *Interpolator) Next() (units.Position, bool) {
	if it.steps == 0 {
		return units.Position{}, false
	}
	m := float32(it.steps - 1)
	pos := it.targetPos.Sub(it.step.Scale(m))
	it.steps--
	return pos, true
}

// maxAbsComponentDuration returns, in seconds, the time needed to cover
// delta at maxSpeed on whichever axis is the slowest relative to its own
// limit (i.e. the largest |delta_i / maxSpeed_i|).
func maxAbsComponentDuration(delta units.Position, maxSpeed units.Velocity) float64 {
	durations := [4]float64{
		math.Abs(float64(units.DivRate(delta.Rotation, maxSpeed.Rotation).Float32())),
		math.Abs(float64(units.DivRate(delta.Shoulder, maxSpeed.Shoulder).Float32())),
		math.Abs(float64(units.DivRate(delta.Forearm, maxSpeed.Forearm).Float32())),
		math.Abs(float64(units.DivRate(delta.Claw, maxSpeed.Claw).Float32())),
	}
	max := durations[0]
	for _, d := range durations[1:] {
		if d > max {
			max = d
		}
	}
	return max
}

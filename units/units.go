// Package units implements a small zero-cost dimensional-analysis layer
// over float32 scalars, using a generic phantom type parameter in place
// of the const-generic unit markers the firmware this module reimplements
// used in its original language. It exists only to stop radians,
// radians-per-second and seconds from being silently mixed up at the call
// sites in motion and network; it is not a general physics library.
package units

import "math"

// Radians marks a Quantity holding an angle, in radians.
type Radians struct{}

// RadiansPerSecond marks a Quantity holding an angular velocity.
type RadiansPerSecond struct{}

// Seconds marks a Quantity holding a duration, in seconds.
type Seconds struct{}

// Quantity is a float32 tagged with a phantom unit marker Unit, so that
// values of different units cannot be added or compared without an
// explicit conversion.
type Quantity[Unit any] struct {
	v float32
}

// New constructs a Quantity from a raw float32 value.
func New[Unit any](v float32) Quantity[Unit] {
	return Quantity[Unit]{v: v}
}

// Float32 returns the raw value, discarding the unit tag.
func (q Quantity[Unit]) Float32() float32 {
	return q.v
}

// Add returns q + other.
func (q Quantity[Unit]) Add(other Quantity[Unit]) Quantity[Unit] {
	return Quantity[Unit]{v: q.v + other.v}
}

// Sub returns q - other.
func (q Quantity[Unit]) Sub(other Quantity[Unit]) Quantity[Unit] {
	return Quantity[Unit]{v: q.v - other.v}
}

// Scale returns q * scalar.
func (q Quantity[Unit]) Scale(scalar float32) Quantity[Unit] {
	return Quantity[Unit]{v: q.v * scalar}
}

// Abs returns the absolute value of q.
func (q Quantity[Unit]) Abs() Quantity[Unit] {
	return Quantity[Unit]{v: float32(math.Abs(float64(q.v)))}
}

// Max returns the larger of q and other.
func (q Quantity[Unit]) Max(other Quantity[Unit]) Quantity[Unit] {
	if other.v > q.v {
		return other
	}
	return q
}

// Less reports whether q < other.
func (q Quantity[Unit]) Less(other Quantity[Unit]) bool {
	return q.v < other.v
}

// DivRate divides a delta angle by an angular velocity, returning the
// duration in seconds it takes to cover that angle at that rate. It does
// not check for rate == 0 and does not panic; a zero rate yields an
// infinite or NaN duration per float32 division.
func DivRate(delta Quantity[Radians], rate Quantity[RadiansPerSecond]) Quantity[Seconds] {
	return Quantity[Seconds]{v: delta.v / rate.v}
}

package motion

import (
	"fmt"
	"math"

	"github.com/guamoko995/roboarm/units"
)

const (
	// pwmFreqHz is the servo control frequency in hertz.
	pwmFreqHz = 50
	// periodUS is the PWM period in microseconds.
	periodUS = 1_000_000 / pwmFreqHz
	// minPulseUS is the minimum pulse width (0.5ms).
	minPulseUS = 500
	// maxPulseUS is the maximum pulse width (2.5ms).
	maxPulseUS = 2500
)

// PWMChannel is the external hardware collaborator that applies a raw
// duty-cycle value to a single PWM-driven output.
type PWMChannel interface {
	// SetDutyCycle applies duty, out of maxDutyCycle (inclusive), to the
	// channel's output.
	SetDutyCycle(duty uint16) error

	// MaxDutyCycle returns the channel's maximum representable duty
	// cycle value, determined by the timer's bit resolution.
	MaxDutyCycle() uint16
}

// Servo maps a joint angle in [0, pi] radians onto a PWM duty cycle
// calibrated for a standard 500-2500us pulse-width hobby servo.
type Servo struct {
	chan_   PWMChannel
	minDuty uint16
	maxPos  uint16
}

// NewServo calibrates a Servo against chan_'s duty-cycle resolution. The
// PWM timer driving chan_ must already be configured for pwmFreqHz.
func NewServo(chan_ PWMChannel) *Servo {
	maxDutyCycle := uint32(chan_.MaxDutyCycle())
	minDuty := uint16(minPulseUS * maxDutyCycle / periodUS)
	maxDuty := uint16(maxPulseUS * maxDutyCycle / periodUS)
	return &Servo{chan_: chan_, minDuty: minDuty, maxPos: maxDuty - minDuty}
}

// SetPos drives the servo to pos radians, clamped to [0, pi].
func (s *Servo) SetPos(pos units.Quantity[units.Radians]) error {
	rad := pos.Float32()
	rad = float32(math.Max(0, math.Min(math.Pi, float64(rad))))

	duty := uint16(rad*float32(s.maxPos)/math.Pi) + s.minDuty
	if err := s.chan_.SetDutyCycle(duty); err != nil {
		return fmt.Errorf("motion: set duty cycle: %w", err)
	}
	return nil
}

// Mechanics drives the four servos of the manipulator from a Position.
type Mechanics struct {
	Rotation *Servo
	Shoulder *Servo
	Forearm  *Servo
	Claw     *Servo
}

// NewMechanics builds a Mechanics from four already-wired PWM channels.
func NewMechanics(rotation, shoulder, forearm, claw PWMChannel) *Mechanics {
	return &Mechanics{
		Rotation: NewServo(rotation),
		Shoulder: NewServo(shoulder),
		Forearm:  NewServo(forearm),
		Claw:     NewServo(claw),
	}
}

// SetPos drives all four joints to pos.
func (m *Mechanics) SetPos(pos units.Position) error {
	if err := m.Rotation.SetPos(pos.Rotation); err != nil {
		return fmt.Errorf("rotation: %w", err)
	}
	if err := m.Shoulder.SetPos(pos.Shoulder); err != nil {
		return fmt.Errorf("shoulder: %w", err)
	}
	if err := m.Forearm.SetPos(pos.Forearm); err != nil {
		return fmt.Errorf("forearm: %w", err)
	}
	if err := m.Claw.SetPos(pos.Claw); err != nil {
		return fmt.Errorf("claw: %w", err)
	}
	return nil
}

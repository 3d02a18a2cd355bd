package motion

import "sync"

// SimulatedPWMChannel is an in-memory PWMChannel used by tests and the
// demo daemon in place of real hardware PWM registers.
type SimulatedPWMChannel struct {
	mu       sync.Mutex
	maxDuty  uint16
	lastDuty uint16
}

// NewSimulatedPWMChannel returns a SimulatedPWMChannel with the given
// duty-cycle resolution (e.g. 1<<14-1 for 14-bit LEDC timers).
func NewSimulatedPWMChannel(maxDuty uint16) *SimulatedPWMChannel {
	return &SimulatedPWMChannel{maxDuty: maxDuty}
}

// SetDutyCycle records duty.
func (s *SimulatedPWMChannel) SetDutyCycle(duty uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastDuty = duty
	return nil
}

// MaxDutyCycle returns the configured resolution.
func (s *SimulatedPWMChannel) MaxDutyCycle() uint16 {
	return s.maxDuty
}

// LastDutyCycle returns the most recently applied duty cycle.
func (s *SimulatedPWMChannel) LastDutyCycle() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDuty
}

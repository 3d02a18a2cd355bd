package units

// JointVector holds a per-unit value for each of the manipulator's four
// joints. It is the Go equivalent of the firmware's generic Quantity<Unit>
// struct (renamed here to avoid a name clash with units.Quantity).
type JointVector[Unit any] struct {
	Rotation Quantity[Unit]
	Shoulder Quantity[Unit]
	Forearm  Quantity[Unit]
	Claw     Quantity[Unit]
}

// Position is a set of joint angles.
type Position = JointVector[Radians]

// Velocity is a set of joint angular velocities.
type Velocity = JointVector[RadiansPerSecond]

// Sub returns p - other, joint by joint.
func (p JointVector[Unit]) Sub(other JointVector[Unit]) JointVector[Unit] {
	return JointVector[Unit]{
		Rotation: p.Rotation.Sub(other.Rotation),
		Shoulder: p.Shoulder.Sub(other.Shoulder),
		Forearm:  p.Forearm.Sub(other.Forearm),
		Claw:     p.Claw.Sub(other.Claw),
	}
}

// Add returns p + other, joint by joint.
func (p JointVector[Unit]) Add(other JointVector[Unit]) JointVector[Unit] {
	return JointVector[Unit]{
		Rotation: p.Rotation.Add(other.Rotation),
		Shoulder: p.Shoulder.Add(other.Shoulder),
		Forearm:  p.Forearm.Add(other.Forearm),
		Claw:     p.Claw.Add(other.Claw),
	}
}

// Scale returns p * scalar, joint by joint.
func (p JointVector[Unit]) Scale(scalar float32) JointVector[Unit] {
	return JointVector[Unit]{
		Rotation: p.Rotation.Scale(scalar),
		Shoulder: p.Shoulder.Scale(scalar),
		Forearm:  p.Forearm.Scale(scalar),
		Claw:     p.Claw.Scale(scalar),
	}
}

// Abs returns the joint-wise absolute value of p.
func (p JointVector[Unit]) Abs() JointVector[Unit] {
	return JointVector[Unit]{
		Rotation: p.Rotation.Abs(),
		Shoulder: p.Shoulder.Abs(),
		Forearm:  p.Forearm.Abs(),
		Claw:     p.Claw.Abs(),
	}
}

// MaxComponent returns the largest of the four joint values.
func (p JointVector[Unit]) MaxComponent() Quantity[Unit] {
	m := p.Rotation
	m = m.Max(p.Shoulder)
	m = m.Max(p.Forearm)
	m = m.Max(p.Claw)
	return m
}

package control

import "machinectl/units"

// StepConverter is the stateless steps/revolution <-> linear/angular
// distance conversion every stepper-driven machine axis needs (spool,
// puller, traverse). Grounded on
// original_source/control-core/src/converters/linear_step_converter.rs
// and original_source/control-core/src/converters/angular_step_converter.rs,
// collapsed into one type since both share the same steps_per_rev core —
// the linear variant additionally carries the wheel/screw radius.
type StepConverter struct {
	StepsPerRev int
	Radius      units.Length // 0 for a purely angular converter
}

// NewAngularStepConverter builds a converter with no radius, used for
// axes reasoned about only in revolutions (e.g. the traverse's
// per-revolution step ratio to the spool).
func NewAngularStepConverter(stepsPerRev int) StepConverter {
	return StepConverter{StepsPerRev: stepsPerRev}
}

// NewLinearStepConverter builds a converter that additionally knows the
// driven wheel's radius, enabling linear distance/velocity conversions.
func NewLinearStepConverter(stepsPerRev int, radius units.Length) StepConverter {
	return StepConverter{StepsPerRev: stepsPerRev, Radius: radius}
}

// AngularDistanceToSteps converts an angle to a (possibly fractional)
// step count.
func (c StepConverter) AngularDistanceToSteps(a units.Angle) float64 {
	return a.Revolutions() * float64(c.StepsPerRev)
}

// StepsToAngularDistance is the inverse of AngularDistanceToSteps.
func (c StepConverter) StepsToAngularDistance(steps float64) units.Angle {
	if c.StepsPerRev == 0 {
		return 0
	}
	return units.Revolutions(steps / float64(c.StepsPerRev))
}

// AngularVelocityToSteps converts an angular velocity to steps/second.
func (c StepConverter) AngularVelocityToSteps(w units.AngularVelocity) float64 {
	return w.RPM() / 60.0 * float64(c.StepsPerRev)
}

// StepsToAngularVelocity is the inverse of AngularVelocityToSteps.
func (c StepConverter) StepsToAngularVelocity(stepsPerSec float64) units.AngularVelocity {
	if c.StepsPerRev == 0 {
		return 0
	}
	return units.RPM(stepsPerSec / float64(c.StepsPerRev) * 60.0)
}

// circumference returns the driven wheel's circumference in metres; 0 if
// this converter was built with NewAngularStepConverter.
func (c StepConverter) circumference() float64 {
	return 2 * 3.14159265358979323846 * c.Radius.Meters()
}

// LinearDistanceToSteps converts a linear distance to a step count via
// the wheel circumference. Requires a non-zero Radius.
func (c StepConverter) LinearDistanceToSteps(d units.Length) float64 {
	circ := c.circumference()
	if circ == 0 {
		return 0
	}
	return d.Meters() / circ * float64(c.StepsPerRev)
}

// StepsToLinearDistance is the inverse of LinearDistanceToSteps.
func (c StepConverter) StepsToLinearDistance(steps float64) units.Length {
	if c.StepsPerRev == 0 {
		return 0
	}
	return units.Meters(steps / float64(c.StepsPerRev) * c.circumference())
}

// LinearVelocityToSteps converts a linear velocity to steps/second.
func (c StepConverter) LinearVelocityToSteps(v units.Velocity) float64 {
	circ := c.circumference()
	if circ == 0 {
		return 0
	}
	return v.MetersPerSecond() / circ * float64(c.StepsPerRev)
}

// StepsToLinearVelocity is the inverse of LinearVelocityToSteps.
func (c StepConverter) StepsToLinearVelocity(stepsPerSec float64) units.Velocity {
	if c.StepsPerRev == 0 {
		return 0
	}
	return units.MetersPerSecond(stepsPerSec / float64(c.StepsPerRev) * c.circumference())
}

// TransmissionRatio is a stateless gear/pulley ratio between a motor
// shaft and a driven axis: output = input / Ratio. Grounded on
// original_source/control-core/src/converters/transmission_ratio.rs
// (the winder's spool-to-traverse step synchronization uses this to keep
// the traverse's per-revolution motion locked to spool rpm).
type TransmissionRatio float64

// Apply divides a motor-side rate by the ratio to get the driven-side rate.
func (r TransmissionRatio) Apply(motorSide float64) float64 {
	if r == 0 {
		return 0
	}
	return motorSide / float64(r)
}

// Invert divides a driven-side rate back up to the motor-side rate.
func (r TransmissionRatio) Invert(drivenSide float64) float64 {
	return drivenSide * float64(r)
}

// HzToRPM and RPMToHz convert between a VFD's output frequency and motor
// shaft speed. Grounded on
// original_source/control-core/src/converters/motor_converter.rs, whose
// 60:1 ratio is a fixed property of the screw drive motor this repo
// targets, not a general induction-motor formula.
func HzToRPM(hz float64) float64 { return hz * 60 }
func RPMToHz(rpm float64) float64 { return rpm / 60 }

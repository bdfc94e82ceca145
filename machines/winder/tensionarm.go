package winder

import (
	"machinectl/ioh"
	"machinectl/units"
)

// TensionArm reads the sprung arm's angle off an analog input calibrated
// to one revolution per [-1, 1] of normalized signal, offset by a
// zero point set by the operator. Grounded on
// original_source/server/src/machines/winder1/tension_arm.rs.
type TensionArm struct {
	in     ioh.AnalogInput
	zero   units.Angle
	zeroed bool
}

func NewTensionArm(in ioh.AnalogInput) *TensionArm {
	return &TensionArm{in: in}
}

// rawAngle maps the analog input's [-1, 1] normalized range onto one
// full revolution: normalized/2 + 0.5.
func (t *TensionArm) rawAngle() units.Angle {
	v, err := t.in.Read()
	if err != nil {
		v = 0
	}
	return units.Revolutions(float64(v)/2 + 0.5)
}

// Angle returns the tension arm's angle relative to its zero point,
// wrapped into [0, 1) revolution. This is the value controllers read.
func (t *TensionArm) Angle() units.Angle {
	return (t.rawAngle() - t.zero).Mod1Rev()
}

// Zero captures the current raw angle as the new zero point.
func (t *TensionArm) Zero() {
	t.zero = t.rawAngle()
	t.zeroed = true
}

// Zeroed reports whether Zero has been called since construction — part
// of the winder's Wind transition guard.
func (t *TensionArm) Zeroed() bool { return t.zeroed }

// DisplayDegrees remaps the angle for continuous display: readings in
// [270, 360) wrap to [-90, 0) so the UI never jumps across the 0/360
// boundary while the arm oscillates near it.
func (t *TensionArm) DisplayDegrees() float64 {
	deg := t.Angle().Degrees()
	if deg >= 270 {
		return deg - 360
	}
	return deg
}

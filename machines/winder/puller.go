package winder

import (
	"time"

	"machinectl/control"
	"machinectl/ioh"
	"machinectl/units"
)

// Puller is the winder's driven pull wheel: a velocity stepper whose
// target is shaped by a jerk-limited speed controller before being
// converted to steps/second. Its output speed is the canonical pull
// rate the rest of the winder (automatic action, buffer) reads. Grounded
// on original_source/machines/src/winder2/devices/puller/mod.rs.
type Puller struct {
	stepper ioh.StepperVelocity
	conv    control.StepConverter
	ctrl    *control.JerkLimiter
	target  units.Velocity
}

func NewPuller(stepper ioh.StepperVelocity, conv control.StepConverter, accelMax units.Acceleration, jerkMax units.Jerk) *Puller {
	return &Puller{
		stepper: stepper,
		conv:    conv,
		ctrl:    control.NewJerkLimiter(accelMax.Float64(), jerkMax.Float64()),
	}
}

// SetTarget sets the puller's target linear speed; Update approaches it
// under the jerk/acceleration limits.
func (p *Puller) SetTarget(v units.Velocity) { p.target = v }

// Update advances the jerk-limited controller one step and drives the
// stepper. Returns the commanded speed.
func (p *Puller) Update(now time.Time) units.Velocity {
	speed := p.ctrl.Update(now, p.target.MetersPerSecond())
	stepsPerSec := p.conv.LinearVelocityToSteps(units.MetersPerSecond(speed))
	p.stepper.SetVelocity(int16(stepsPerSec))
	return units.MetersPerSecond(speed)
}

func (p *Puller) Enable()  { p.stepper.Enable() }
func (p *Puller) Disable() { p.stepper.Disable() }

// OutputSpeed returns the puller's last commanded linear speed — the
// canonical pull rate consumed by AutomaticAction and the buffer machine.
func (p *Puller) OutputSpeed() units.Velocity {
	return units.MetersPerSecond(p.ctrl.Speed())
}

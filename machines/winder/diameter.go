package winder

import (
	"time"

	"machinectl/units"
)

// DiameterRegulator is the supplemented closed-loop mode where a laser
// diameter reading (fed in from the laser machine, see
// machines/laser) drives the puller speed directly instead of the
// jerk-limited open-loop target: thinner-than-target filament speeds the
// puller up, thicker slows it down. A PID of its own (rather than
// control.PID) with a clamped integral and clamped output; its
// derivative term damps the laser's inherently noisier reading. Grounded on
// original_source/machines/src/winder2/controllers/diameter_regulator.rs.
type DiameterRegulator struct {
	Kp, Ki, Kd float64

	TargetDiameter units.Length
	MinOutput      units.Velocity
	MaxOutput      units.Velocity

	minIntegral, maxIntegral float64

	integral  float64
	prevError float64
	last      time.Time
	first     bool
}

func NewDiameterRegulator(kp, ki, kd float64, minOutput, maxOutput units.Velocity) *DiameterRegulator {
	return &DiameterRegulator{
		Kp: kp, Ki: ki, Kd: kd,
		MinOutput: minOutput, MaxOutput: maxOutput,
		minIntegral: -100, maxIntegral: 100,
		first: true,
	}
}

func (d *DiameterRegulator) Reset() {
	d.integral = 0
	d.prevError = 0
	d.first = true
}

// Update runs one PID step against a measured diameter and returns the
// puller speed target.
func (d *DiameterRegulator) Update(now time.Time, measured units.Length) units.Velocity {
	if d.first {
		d.first = false
		d.last = now
		d.prevError = d.TargetDiameter.Meters() - measured.Meters()
		return d.MinOutput
	}
	dt := now.Sub(d.last).Seconds()
	d.last = now
	if dt <= 0 {
		return units.MetersPerSecond(0)
	}

	err := d.TargetDiameter.Meters() - measured.Meters()

	d.integral += err * dt
	if d.integral < d.minIntegral {
		d.integral = d.minIntegral
	}
	if d.integral > d.maxIntegral {
		d.integral = d.maxIntegral
	}

	derivative := (err - d.prevError) / dt
	d.prevError = err

	out := d.Kp*err + d.Ki*d.integral + d.Kd*derivative
	if out < d.MinOutput.MetersPerSecond() {
		out = d.MinOutput.MetersPerSecond()
	}
	if out > d.MaxOutput.MetersPerSecond() {
		out = d.MaxOutput.MetersPerSecond()
	}
	return units.MetersPerSecond(out)
}

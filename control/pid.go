// Package control implements the motion and temperature/pressure control
// algorithms every machine in machines/ is built from: PID, the
// acceleration-limited and jerk-limited speed controllers, and the
// dead-time proportional controller.
//
// Grounded on original_source/control-core/src/controllers/*.rs, carried
// over as allocation-free float64 code. Every controller here is
// deterministic given (target, measurement, now) and independent of
// wall-clock drift beyond the measured dt.
package control

import "time"

// PID is a standard parallel-form PID controller.
type PID struct {
	Kp, Ki, Kd float64

	ePrev float64
	eInt  float64
	last  time.Time
	first bool
}

// NewPID constructs a PID with the given gains, ready for its first Update.
func NewPID(kp, ki, kd float64) *PID {
	return &PID{Kp: kp, Ki: ki, Kd: kd, first: true}
}

// SetGains updates the gains and resets controller state (integral,
// derivative history, last-update instant) so the new gains don't act on
// stale history.
func (p *PID) SetGains(kp, ki, kd float64) {
	p.Kp, p.Ki, p.Kd = kp, ki, kd
	p.Reset()
}

// Reset zeroes all state so the next Update behaves like the first call.
func (p *PID) Reset() {
	p.ePrev = 0
	p.eInt = 0
	p.last = time.Time{}
	p.first = true
}

// Update advances the controller with a fresh error sample (target -
// measurement, or whatever convention the caller defines as "e") and
// returns the control signal.
func (p *PID) Update(now time.Time, e float64) float64 {
	if p.first {
		p.first = false
		p.ePrev = e
		p.last = now
		return p.Kp * e
	}
	dt := now.Sub(p.last).Seconds()
	if dt <= 0 {
		// Guard against dt==0 (or a clock that went backwards): proportional only.
		return p.Kp * e
	}
	p.eInt += e * dt
	eDeriv := (e - p.ePrev) / dt
	signal := p.Kp*e + p.Ki*p.eInt + p.Kd*eDeriv
	p.ePrev = e
	p.last = now
	return signal
}

// DeadTimeP is a proportional controller with a first-order lag filter on
// the error, used where the measured process has significant transport
// delay (e.g. a heater far from its sensor). Grounded on
// original_source/control-core/src/controllers/deadtime_p_controller.rs.
//
// Sign convention: signal = -kp*e_p (output opposes the filtered error).
type DeadTimeP struct {
	Kp   float64
	Dead time.Duration

	eFiltered float64
	last      time.Time
	first     bool
}

func NewDeadTimeP(kp float64, dead time.Duration) *DeadTimeP {
	return &DeadTimeP{Kp: kp, Dead: dead, first: true}
}

func (d *DeadTimeP) Reset() {
	d.eFiltered = 0
	d.last = time.Time{}
	d.first = true
}

func (d *DeadTimeP) Update(now time.Time, e float64) float64 {
	if d.first {
		d.first = false
		d.eFiltered = e
		d.last = now
		return -d.Kp * d.eFiltered
	}
	dt := now.Sub(d.last).Seconds()
	d.last = now
	if dt <= 0 || d.Dead <= 0 {
		d.eFiltered = e
		return -d.Kp * d.eFiltered
	}
	alpha := dt / d.Dead.Seconds()
	if alpha > 1 {
		alpha = 1
	}
	d.eFiltered += (e - d.eFiltered) * alpha
	return -d.Kp * d.eFiltered
}

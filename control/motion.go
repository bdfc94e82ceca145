package control

import "time"

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AccelLimiter is a first-degree acceleration-limited speed controller: it
// steps current_speed toward a target by at most accel (when the
// magnitude is growing) or decel (when it is shrinking) per second, using
// deceleration-to-zero-then-acceleration when the target crosses through
// zero. Grounded on
// original_source/control-core/src/controllers/first_degree_motion/linear_acceleration_speed_controller.rs.
type AccelLimiter struct {
	Accel, Decel float64 // units/s^2, both >= 0

	current float64
	last    time.Time
	first   bool
}

func NewAccelLimiter(accel, decel float64) *AccelLimiter {
	return &AccelLimiter{Accel: accel, Decel: decel, first: true}
}

// Reset clears elapsed-time tracking without changing the current speed.
func (a *AccelLimiter) Reset() {
	a.last = time.Time{}
	a.first = true
}

// SetSpeed forces the current speed (e.g. after a hard stop or homing).
func (a *AccelLimiter) SetSpeed(v float64) { a.current = v }

// Current returns the last computed speed without advancing time.
func (a *AccelLimiter) Current() float64 { return a.current }

func (a *AccelLimiter) Update(now time.Time, target float64) float64 {
	if a.first {
		a.first = false
		a.last = now
		return a.current
	}
	dt := now.Sub(a.last).Seconds()
	a.last = now
	if dt < 0 {
		dt = 0
	}
	if dt == 0 {
		return a.current
	}

	cur := a.current
	if sign(cur) != sign(target) && cur != 0 {
		// Crossing zero: decelerate toward zero first.
		step := a.Decel * dt
		if cur > 0 {
			cur -= step
			if cur < 0 {
				cur = 0
			}
		} else {
			cur += step
			if cur > 0 {
				cur = 0
			}
		}
		a.current = cur
		return a.current
	}

	diff := target - cur
	if diff == 0 {
		return a.current
	}
	var rate float64
	if abs(target) > abs(cur) {
		rate = a.Accel
	} else {
		rate = a.Decel
	}
	step := rate * dt
	if diff > 0 {
		cur += step
		if cur > target {
			cur = target
		}
	} else {
		cur -= step
		if cur < target {
			cur = target
		}
	}
	a.current = cur
	return a.current
}

// JerkLimiter is a second-degree jerk-limited speed controller: it
// maintains current_speed and current_accel, and steps current_accel
// toward whatever value reaches target_speed in minimum time without
// overshoot, subject to |Δaccel| <= jerk_max*dt and |accel| <= accel_max.
// Grounded on original_source/control-core/src/controllers (the winder
// puller references a second-degree variant; the exact file was pruned
// from the retrieval pack, but the bang-coast-bang jerk profile is the
// standard shape for this class of controller).
type JerkLimiter struct {
	AccelMax, JerkMax float64

	speed float64
	accel float64
	last  time.Time
	first bool
}

func NewJerkLimiter(accelMax, jerkMax float64) *JerkLimiter {
	return &JerkLimiter{AccelMax: accelMax, JerkMax: jerkMax, first: true}
}

func (j *JerkLimiter) Reset() {
	j.last = time.Time{}
	j.first = true
}

func (j *JerkLimiter) SetSpeed(v float64) {
	j.speed = v
	j.accel = 0
}

func (j *JerkLimiter) Speed() float64 { return j.speed }
func (j *JerkLimiter) Accel() float64 { return j.accel }

func (j *JerkLimiter) Update(now time.Time, target float64) float64 {
	if j.first {
		j.first = false
		j.last = now
		return j.speed
	}
	dt := now.Sub(j.last).Seconds()
	j.last = now
	if dt <= 0 {
		return j.speed
	}
	if j.JerkMax <= 0 || j.AccelMax <= 0 {
		// Degenerate configuration: fall back to an instantaneous snap.
		j.speed = target
		j.accel = 0
		return j.speed
	}

	speedErr := target - j.speed

	// Speed that would still be covered while bringing the current
	// acceleration down to zero at the jerk limit ("coasting distance").
	coast := (j.accel * j.accel) / (2 * j.JerkMax)

	var desiredAccel float64
	switch {
	case speedErr == 0 && j.accel == 0:
		desiredAccel = 0
	case sign(j.accel) == sign(speedErr) && coast >= abs(speedErr):
		// Must start bleeding off acceleration now to avoid overshoot.
		desiredAccel = 0
	default:
		desiredAccel = j.AccelMax * sign(speedErr)
	}

	maxDelta := j.JerkMax * dt
	delta := desiredAccel - j.accel
	if abs(delta) > maxDelta {
		delta = maxDelta * sign(delta)
	}
	j.accel = clampf(j.accel+delta, -j.AccelMax, j.AccelMax)

	newSpeed := j.speed + j.accel*dt
	overshot := (speedErr > 0 && newSpeed > target) || (speedErr < 0 && newSpeed < target)
	if overshot {
		newSpeed = target
		j.accel = 0
	}
	j.speed = newSpeed
	return j.speed
}

package control

import (
	"math"
	"testing"
	"time"
)

func TestAccelLimiterRampsToTarget(t *testing.T) {
	a := NewAccelLimiter(5, 5)
	t0 := time.Unix(0, 0)
	a.Update(t0, 10) // primes `last`, no motion yet

	tick := 100 * time.Millisecond
	cur := t0
	want := []float64{0.5, 1.0, 1.5, 2.0}
	for i, w := range want {
		cur = cur.Add(tick)
		got := a.Update(cur, 10)
		if math.Abs(got-w) > 1e-9 {
			t.Fatalf("step %d: want %v, got %v", i, w, got)
		}
	}

	// Reaches target at t=2.0s.
	cur = t0
	for i := 0; i < 20; i++ {
		cur = cur.Add(tick)
		a.Update(cur, 10)
	}
	if a.Current() != 10 {
		t.Fatalf("expected to reach target 10, got %v", a.Current())
	}

	// No overshoot on a further update.
	got := a.Update(cur.Add(200*time.Millisecond), 10)
	if got != 10 {
		t.Fatalf("expected no overshoot past target, got %v", got)
	}
}

func TestAccelLimiterCrossesZero(t *testing.T) {
	a := NewAccelLimiter(10, 10)
	a.SetSpeed(5)
	t0 := time.Unix(0, 0)
	a.Update(t0, -5)

	// From 5 to 0 takes 0.5s at decel=10; from 0 to -5 takes another 0.5s at accel=10.
	cur := t0
	tick := 50 * time.Millisecond
	for i := 0; i < 20; i++ {
		cur = cur.Add(tick)
		a.Update(cur, -5)
	}
	if math.Abs(a.Current()-(-5)) > 1e-6 {
		t.Fatalf("expected -5 after 1.0s total, got %v", a.Current())
	}
}

func TestJerkLimiterRespectsLimits(t *testing.T) {
	j := NewJerkLimiter(2, 1)
	t0 := time.Unix(0, 0)
	j.Update(t0, 10)

	cur := t0
	tick := 50 * time.Millisecond
	prevAccel := 0.0
	for i := 0; i < 400; i++ {
		cur = cur.Add(tick)
		j.Update(cur, 10)
		if math.Abs(j.Accel()-prevAccel) > j.JerkMax*tick.Seconds()+1e-6 {
			t.Fatalf("jerk limit violated at step %d: accel %v -> %v", i, prevAccel, j.Accel())
		}
		if math.Abs(j.Accel()) > j.AccelMax+1e-6 {
			t.Fatalf("accel limit violated at step %d: %v", i, j.Accel())
		}
		prevAccel = j.Accel()
	}
	if math.Abs(j.Speed()-10) > 1e-3 {
		t.Fatalf("expected convergence to target speed, got %v", j.Speed())
	}
}

package control

import (
	"math"
	"testing"
	"time"
)

func TestPIDStepScenario(t *testing.T) {
	p := NewPID(2, 1, 0.5)
	t0 := time.Unix(0, 0)

	got := p.Update(t0, 10-0)
	if got != 20 {
		t.Fatalf("first update: want 20, got %v", got)
	}

	t1 := t0.Add(1 * time.Second)
	got = p.Update(t1, 10-5)
	want := 12.5
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("second update: want %v, got %v", want, got)
	}
}

func TestPIDResetRestoresFirstCallBehaviour(t *testing.T) {
	p := NewPID(2, 1, 0.5)
	t0 := time.Unix(0, 0)
	p.Update(t0, 10)
	p.Update(t0.Add(time.Second), 5)

	p.Reset()
	got := p.Update(t0, 10)
	if got != 20 {
		t.Fatalf("post-reset first update: want 20, got %v", got)
	}
}

func TestPIDGuardsZeroDt(t *testing.T) {
	p := NewPID(2, 1, 0.5)
	t0 := time.Unix(0, 0)
	p.Update(t0, 10)
	got := p.Update(t0, 5) // same instant => dt == 0
	if got != p.Kp*5 {
		t.Fatalf("zero-dt update should be proportional-only: want %v, got %v", p.Kp*5, got)
	}
}

func TestDeadTimePSignConvention(t *testing.T) {
	d := NewDeadTimeP(2, time.Second)
	t0 := time.Unix(0, 0)
	got := d.Update(t0, 10)
	if got != -20 {
		t.Fatalf("first update: want -20, got %v", got)
	}
}

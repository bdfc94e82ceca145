package winder

import (
	"time"

	"machinectl/control"
	"machinectl/ioh"
	"machinectl/units"
)

// HomingPhase is one step of the traverse's homing sequence, driven
// purely by the endstop input and elapsed distance at each phase's
// configured speed. Grounded on spec §4.9's named phase sequence;
// original_source's traverse homing state machine
// (original_source/machines/src/winder2/devices/traverse/mod.rs) was
// pruned to a stub in the retrieval pack, so the speed/direction profile
// below follows the standard bump-escape-creep homing shape used
// throughout the rest of the pack's stepper axes.
type HomingPhase int

const (
	PhaseInitialize HomingPhase = iota
	PhaseEscapeEndstop
	PhaseFindEndstopFineDistancing
	PhaseFindEndstopCoarse
	PhaseFindEndstopFine
	PhaseValidate
)

// TraverseState is the traverse's top-level mode.
type TraverseState int

const (
	StateNotHomed TraverseState = iota
	StateHoming
	StateIdle
	StateTraversing
)

// TraverseDirection names which leg of the back-and-forth lay pattern
// Traversing is currently running.
type TraverseDirection int

const (
	DirGoingOut TraverseDirection = iota
	DirTraversingIn
	DirTraversingOut
)

// TraverseConfig configures homing speeds and the lay-pattern limits.
type TraverseConfig struct {
	CoarseSpeed   units.Velocity // homing: fast approach toward endstop
	FineSpeed     units.Velocity // homing: slow creep into endstop
	EscapeSpeed   units.Velocity // homing: back off after first trigger
	EscapeDist    units.Length
	FineDistance  units.Length // homing: fine-distancing offset before the fine approach

	LimitOut units.Length // lay-pattern travel limit, "out" end
	LimitIn  units.Length // lay-pattern travel limit, "in" end (0 = endstop side)

	// Ratio relates spool revolutions to traverse linear
	// distance, keeping the lay pattern synced to spool rpm.
	Ratio control.TransmissionRatio
}

// Traverse is the moving guide that lays filament across the spool: a
// velocity stepper plus an endstop digital input, homed once and then
// driven back and forth in sync with spool rpm. Homing runs the phases in
// the order Initialize, FindEndstopCoarse, EscapeEndstop,
// FindEndstopFineDistancing, FindEndstopFine, Validate, which is not
// their declaration order. Grounded on spec §4.9.
type Traverse struct {
	stepper ioh.StepperVelocity
	endstop ioh.DigitalInput
	conv    control.StepConverter
	cfg     TraverseConfig
	ctrl    *control.AccelLimiter

	state TraverseState
	phase HomingPhase
	dir   TraverseDirection

	position   units.Length // relative to the endstop, 0 at homed zero
	phaseStart time.Time
	lastUpdate time.Time
	movingHome bool
}

func NewTraverse(stepper ioh.StepperVelocity, endstop ioh.DigitalInput, conv control.StepConverter, cfg TraverseConfig) *Traverse {
	return &Traverse{
		stepper: stepper,
		endstop: endstop,
		conv:    conv,
		cfg:     cfg,
		ctrl:    control.NewAccelLimiter(1.0, 1.0),
		state:   StateNotHomed,
	}
}

// Home begins the homing sequence; a no-op if already homing.
func (t *Traverse) Home(now time.Time) {
	if t.state == StateHoming {
		return
	}
	t.state = StateHoming
	t.phase = PhaseInitialize
	t.movingHome = true
	t.phaseStart = now
}

func (t *Traverse) Homed() bool       { return t.state == StateIdle || t.state == StateTraversing }
func (t *Traverse) MovingHome() bool  { return t.movingHome }
func (t *Traverse) Position() units.Length { return t.position }

// StartTraversing begins the back-and-forth lay pattern; requires Homed().
func (t *Traverse) StartTraversing(now time.Time) {
	if !t.Homed() {
		return
	}
	t.state = StateTraversing
	t.dir = DirGoingOut
}

// Stop halts the lay pattern, holding position (transitions back to Idle).
func (t *Traverse) Stop() {
	if t.state == StateTraversing {
		t.state = StateIdle
	}
}

// Update steps the homing or traversing state machine and drives the
// stepper. spoolRPM is used to keep the lay pattern's linear speed
// synced to spool rotation via cfg.Ratio.
func (t *Traverse) Update(now time.Time, spoolRPM units.AngularVelocity) {
	if t.lastUpdate.IsZero() {
		t.lastUpdate = now
	}
	dt := now.Sub(t.lastUpdate).Seconds()
	t.lastUpdate = now

	switch t.state {
	case StateHoming:
		t.updateHoming(now, dt)
	case StateTraversing:
		t.updateTraversing(dt, spoolRPM)
	default:
		t.drive(0)
	}
}

func (t *Traverse) endstopTriggered() bool { return t.endstop.Read() }

func (t *Traverse) updateHoming(now time.Time, dt float64) {
	switch t.phase {
	case PhaseInitialize:
		t.phase = PhaseFindEndstopCoarse
		t.phaseStart = now
	case PhaseFindEndstopCoarse:
		if t.endstopTriggered() {
			t.phase = PhaseEscapeEndstop
			t.position = 0
			t.phaseStart = now
			return
		}
		t.drive(-t.cfg.CoarseSpeed.MetersPerSecond())
		t.position -= units.Meters(t.cfg.CoarseSpeed.MetersPerSecond() * dt)
	case PhaseEscapeEndstop:
		traveled := units.Meters(t.cfg.EscapeSpeed.MetersPerSecond() * now.Sub(t.phaseStart).Seconds())
		if traveled >= t.cfg.EscapeDist {
			t.phase = PhaseFindEndstopFineDistancing
			t.phaseStart = now
			return
		}
		t.drive(t.cfg.EscapeSpeed.MetersPerSecond())
	case PhaseFindEndstopFineDistancing:
		traveled := units.Meters(t.cfg.EscapeSpeed.MetersPerSecond() * now.Sub(t.phaseStart).Seconds())
		if traveled >= t.cfg.FineDistance {
			t.phase = PhaseFindEndstopFine
			t.phaseStart = now
			return
		}
		t.drive(t.cfg.EscapeSpeed.MetersPerSecond())
	case PhaseFindEndstopFine:
		if t.endstopTriggered() {
			t.phase = PhaseValidate
			t.phaseStart = now
			return
		}
		t.drive(-t.cfg.FineSpeed.MetersPerSecond())
	case PhaseValidate:
		t.drive(0)
		if t.endstopTriggered() {
			t.position = 0
			t.state = StateIdle
			t.movingHome = false
		} else {
			// Lost the endstop during validation: retry from coarse.
			t.phase = PhaseFindEndstopCoarse
			t.phaseStart = now
		}
	}
}

func (t *Traverse) updateTraversing(dt float64, spoolRPM units.AngularVelocity) {
	speed := units.Velocity(t.cfg.Ratio.Apply(spoolRPM.RPM())).Abs()
	if speed == 0 {
		speed = units.MetersPerSecond(0.01)
	}

	switch t.dir {
	case DirGoingOut, DirTraversingOut:
		t.drive(speed.MetersPerSecond())
		t.position += units.Meters(speed.MetersPerSecond() * dt)
		if t.position >= t.cfg.LimitOut {
			t.position = t.cfg.LimitOut
			t.dir = DirTraversingIn
		}
	case DirTraversingIn:
		t.drive(-speed.MetersPerSecond())
		t.position -= units.Meters(speed.MetersPerSecond() * dt)
		if t.position <= t.cfg.LimitIn {
			t.position = t.cfg.LimitIn
			t.dir = DirTraversingOut
		}
	}
}

func (t *Traverse) drive(linearMps float64) {
	stepsPerSec := t.conv.LinearVelocityToSteps(units.MetersPerSecond(linearMps))
	t.stepper.SetVelocity(int16(stepsPerSec))
}

func (t *Traverse) Enable()  { t.stepper.Enable() }
func (t *Traverse) Disable() { t.stepper.Disable() }

package winder

import (
	"time"

	"machinectl/control"
	"machinectl/ioh"
	"machinectl/units"
)

// SpoolMode selects how Spool derives its target rpm from the tension
// arm angle.
type SpoolMode uint8

const (
	// SpoolMinMax is open-loop: rpm is a linear map from tension-arm
	// angle to [MinRPM, MaxRPM].
	SpoolMinMax SpoolMode = iota
	// SpoolAdaptive runs a PI loop over tension-arm angle, holding it
	// near Setpoint.
	SpoolAdaptive
)

// SpoolConfig configures both speed-control modes; whichever the active
// Mode doesn't use is simply unread.
type SpoolConfig struct {
	Mode SpoolMode

	// SpoolMinMax
	MinRPM, MaxRPM units.AngularVelocity
	// Angle range the MinMax map is taken over, low->MinRPM, high->MaxRPM.
	AngleLow, AngleHigh units.Angle

	// SpoolAdaptive
	Setpoint units.Angle
	Kp, Ki   float64
}

// Spool is the winder's velocity-stepper spindle, driven either by an
// open-loop angle map or a closed PI loop over the tension arm. Grounded
// on original_source/machines/src/winder2/devices/spool/speed_controller/mod.rs
// (stubbed in the retrieval pack; the two-mode split and the MinMax/Adaptive
// names come from spec §4.9, which this fleshes out).
type Spool struct {
	stepper ioh.StepperVelocity
	conv    control.StepConverter
	cfg     SpoolConfig
	pi      *control.PID

	currentRPM units.AngularVelocity
}

func NewSpool(stepper ioh.StepperVelocity, conv control.StepConverter, cfg SpoolConfig) *Spool {
	return &Spool{
		stepper: stepper,
		conv:    conv,
		cfg:     cfg,
		pi:      control.NewPID(cfg.Kp, cfg.Ki, 0),
	}
}

func (s *Spool) SetConfig(cfg SpoolConfig) {
	s.cfg = cfg
	s.pi.SetGains(cfg.Kp, cfg.Ki, 0)
}

// Update computes the target rpm from tensionAngle and drives the
// stepper. Returns the commanded rpm for telemetry.
func (s *Spool) Update(now time.Time, tensionAngle units.Angle) units.AngularVelocity {
	var target units.AngularVelocity
	switch s.cfg.Mode {
	case SpoolAdaptive:
		errRev := (s.cfg.Setpoint - tensionAngle).Revolutions()
		signal := s.pi.Update(now, errRev)
		target = units.RPM(signal)
	default: // SpoolMinMax
		lo, hi := s.cfg.AngleLow.Revolutions(), s.cfg.AngleHigh.Revolutions()
		a := tensionAngle.Revolutions()
		var frac float64
		if hi != lo {
			frac = (a - lo) / (hi - lo)
		}
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		target = units.RPM(s.cfg.MinRPM.RPM() + frac*(s.cfg.MaxRPM.RPM()-s.cfg.MinRPM.RPM()))
	}

	s.currentRPM = target
	stepsPerSec := s.conv.AngularVelocityToSteps(target)
	s.stepper.SetVelocity(int16(stepsPerSec))
	return target
}

func (s *Spool) Enable()  { s.stepper.Enable() }
func (s *Spool) Disable() { s.stepper.Disable() }

// CurrentRPM returns the last commanded rpm, for telemetry and for
// synchronizing the traverse's per-revolution speed.
func (s *Spool) CurrentRPM() units.AngularVelocity { return s.currentRPM }

package extruder

import (
	"time"

	"machinectl/control"
	"machinectl/ioh"
)

// ScrewMode selects how ScrewController derives its output frequency.
type ScrewMode int

const (
	// ScrewManualRPM drives directly to a commanded rpm.
	ScrewManualRPM ScrewMode = iota
	// ScrewPressureRegulated runs a secondary PID over measured pressure,
	// bounded to [0, 60] Hz before being converted back to rpm.
	ScrewPressureRegulated
)

const (
	minScrewHz = 0
	maxScrewHz = 60
)

// ScrewController drives the extruder screw's VFD, either tracking a
// manual rpm setpoint directly or regulating nozzle pressure through a
// bounded secondary PID. Grounded on
// original_source/server/src/machines/extruder1/pressure_controller.rs
// and act.rs's "uses_rpm" branch.
type ScrewController struct {
	drive    ioh.PulseTrainOutput
	pressure *control.PID

	Mode           ScrewMode
	ManualRPM      float64
	TargetPressure float64 // bar

	lastHz float64
}

func NewScrewController(drive ioh.PulseTrainOutput, kp, ki, kd float64) *ScrewController {
	return &ScrewController{drive: drive, pressure: control.NewPID(kp, ki, kd)}
}

// Update advances the controller and drives the VFD frequency output.
// measuredBar is only consulted in ScrewPressureRegulated mode.
func (s *ScrewController) Update(now time.Time, measuredBar float64) {
	var hz float64
	switch s.Mode {
	case ScrewPressureRegulated:
		errBar := s.TargetPressure - measuredBar
		hz = clampHz(s.pressure.Update(now, errBar))
	default:
		hz = clampHz(control.RPMToHz(s.ManualRPM))
	}
	s.lastHz = hz
	s.drive.SetFrequency(int16(hz * 100)) // centihertz resolution
}

// Stop forces the screw to zero frequency without resetting the
// pressure PID's integral (a restart should not snap back to full speed).
func (s *ScrewController) Stop() {
	s.lastHz = 0
	s.drive.SetFrequency(0)
}

func (s *ScrewController) OutputHz() float64   { return s.lastHz }
func (s *ScrewController) OutputRPM() float64  { return control.HzToRPM(s.lastHz) }

func clampHz(hz float64) float64 {
	if hz < minScrewHz {
		return minScrewHz
	}
	if hz > maxScrewHz {
		return maxScrewHz
	}
	return hz
}

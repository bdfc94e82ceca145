package winder

import "time"

// AutomaticMode selects what AutomaticAction does once its target length
// has been pulled.
type AutomaticMode int

const (
	AutoNoAction AutomaticMode = iota
	AutoPull
	AutoHold
)

// AutomaticAction accumulates the length pulled since its last reset and,
// once TargetLength is reached while the winder is in Pull or Wind, asks
// the winder to transition to Pull or Hold depending on Mode. Grounded on
// original_source/machines/src/winder2/automatic_action.rs.
type AutomaticAction struct {
	Mode         AutomaticMode
	TargetLength float64 // metres

	progress     float64
	lastCheck    time.Time
}

func NewAutomaticAction(now time.Time) *AutomaticAction {
	return &AutomaticAction{lastCheck: now}
}

// Reset zeroes accumulated progress, restarting the length window.
func (a *AutomaticAction) Reset(now time.Time) {
	a.progress = 0
	a.lastCheck = now
}

func (a *AutomaticAction) Progress() float64 { return a.progress }

func (a *AutomaticAction) calculateProgress(now time.Time, pullerSpeedMps float64) {
	dt := now.Sub(a.lastCheck).Seconds()
	if dt < 0 {
		dt = 0
	}
	metersPulled := pullerSpeedMps * dt
	if metersPulled < 0 {
		metersPulled = -metersPulled
	}
	a.progress += metersPulled
	a.lastCheck = now
}

// Update advances the accumulator and, if the target length has been
// reached while winderMode is Pull or Wind, returns the Mode the winder
// should transition to (resetting the accumulator as it does). Returns
// (Standby-equivalent, false) — callers should check ok before acting.
func (a *AutomaticAction) Update(now time.Time, winderMode Mode, pullerSpeedMps float64) (next Mode, ok bool) {
	if a.Mode == AutoNoAction {
		a.calculateProgress(now, pullerSpeedMps)
	}

	if winderMode != ModePull && winderMode != ModeWind {
		a.lastCheck = now
		return 0, false
	}

	a.calculateProgress(now, pullerSpeedMps)

	if a.progress >= a.TargetLength {
		switch a.Mode {
		case AutoPull:
			a.Reset(now)
			return ModePull, true
		case AutoHold:
			a.Reset(now)
			return ModeHold, true
		}
	}

	return 0, false
}

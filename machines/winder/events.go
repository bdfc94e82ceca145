package winder

import (
	"time"

	"machinectl/eventbus"
)

// Event names this machine emits on its namespace.
const (
	EventState       = "state"
	EventLiveValues  = "live_values"
)

// StateEvent is published whenever Mode, homing, or zeroing status
// changes — the low-frequency, edge-triggered half of the winder's
// telemetry.
type StateEvent struct {
	Mode            string `json:"mode"`
	TraverseHomed   bool   `json:"traverse_homed"`
	TraverseMoving  bool   `json:"traverse_moving_home"`
	TensionArmZeroed bool  `json:"tension_arm_zeroed"`
}

// LiveValuesEvent is published at most once every 33ms — the
// high-frequency continuous telemetry stream.
type LiveValuesEvent struct {
	SpoolRPM        float64 `json:"spool_rpm"`
	PullerSpeedMps  float64 `json:"puller_speed_mps"`
	TraversePos     float64 `json:"traverse_position_m"`
	TensionArmDeg   float64 `json:"tension_arm_degrees"`
	AutomaticProgress float64 `json:"automatic_progress_m"`
}

// BufferPullSpeedMps satisfies the buffer machine's upstream-speed
// interface, letting a buffer pull this winder's puller speed by
// namespace identifier without either package importing the other.
func (e LiveValuesEvent) BufferPullSpeedMps() float64 { return e.PullerSpeedMps }

func configureEvents(ns *eventbus.Namespace) {
	ns.Configure(EventState, eventbus.PolicyConfig{Policy: eventbus.CacheOne})
	ns.Configure(EventLiveValues, eventbus.PolicyConfig{Policy: eventbus.CacheDuration, Window: time.Second, MinGap: 20 * time.Millisecond})
}

package extruder

import (
	"time"

	"machinectl/eventbus"
)

const (
	EventState      = "state"
	EventLiveValues = "live_values"
)

type StateEvent struct {
	Mode            string `json:"mode"`
	PressureLimited bool   `json:"pressure_limited"`
}

type LiveValuesEvent struct {
	FrontC    float64 `json:"front_c"`
	MiddleC   float64 `json:"middle_c"`
	BackC     float64 `json:"back_c"`
	NozzleC   float64 `json:"nozzle_c"`
	PressureBar float64 `json:"pressure_bar"`
	ScrewHz   float64 `json:"screw_hz"`
	ScrewRPM  float64 `json:"screw_rpm"`
}

func configureEvents(ns *eventbus.Namespace) {
	ns.Configure(EventState, eventbus.PolicyConfig{Policy: eventbus.CacheOne})
	ns.Configure(EventLiveValues, eventbus.PolicyConfig{Policy: eventbus.CacheDuration, Window: time.Second, MinGap: 20 * time.Millisecond})
}

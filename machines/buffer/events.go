package buffer

import (
	"time"

	"machinectl/eventbus"
)

const (
	EventState      = "state"
	EventLiveValues = "live_values"
)

type StateEvent struct {
	Mode          string `json:"mode"`
	UpstreamLinked bool  `json:"upstream_linked"`
}

type LiveValuesEvent struct {
	FillLevel      float64 `json:"fill_level"`
	PullSpeedMps   float64 `json:"pull_speed_mps"`
	UpstreamSpeedMps float64 `json:"upstream_speed_mps"`
}

func configureEvents(ns *eventbus.Namespace) {
	ns.Configure(EventState, eventbus.PolicyConfig{Policy: eventbus.CacheOne})
	ns.Configure(EventLiveValues, eventbus.PolicyConfig{Policy: eventbus.CacheDuration, Window: time.Second, MinGap: 20 * time.Millisecond})
}

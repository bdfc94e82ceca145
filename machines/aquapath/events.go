package aquapath

import (
	"time"

	"machinectl/eventbus"
)

const (
	EventState      = "state"
	EventLiveValues = "live_values"
)

type StateEvent struct {
	Mode        string `json:"mode"`
	FrontTarget float64 `json:"front_target"`
	BackTarget  float64 `json:"back_target"`
}

type LiveValuesEvent struct {
	FrontC       float64 `json:"front_c"`
	BackC        float64 `json:"back_c"`
	FrontHeating bool    `json:"front_heating"`
	BackHeating  bool    `json:"back_heating"`
}

func configureEvents(ns *eventbus.Namespace) {
	ns.Configure(EventState, eventbus.PolicyConfig{Policy: eventbus.CacheOne})
	ns.Configure(EventLiveValues, eventbus.PolicyConfig{Policy: eventbus.CacheDuration, Window: time.Second, MinGap: 20 * time.Millisecond})
}

// Package aquapath implements the AquaPathV1 machine (spec §4.9): two
// independent dead-band temperature controllers for a two-zone water
// bath, switched between Standby and Auto.
package aquapath

import (
	"time"

	"machinectl/devicecatalog"
	"machinectl/domain"
	"machinectl/errcode"
	"machinectl/eventbus"
	"machinectl/ioh"
	"machinectl/machines"
	"machinectl/registry"
)

// Mode is the water bath's top-level state.
type Mode int

const (
	ModeStandby Mode = iota
	ModeAuto
)

func (m Mode) String() string {
	if m == ModeAuto {
		return "auto"
	}
	return "standby"
}

// DefaultDeadBand is the hysteresis band construct applies to both zones.
const DefaultDeadBand = 0.5 // degrees C

// Commands accepted on the inbound queue.
type SetModeCommand struct{ Mode Mode }
type SetTargetCommand struct {
	Zone   Zone
	Target float64
}

type Zone int

const (
	ZoneFront Zone = iota
	ZoneBack
)

// AquaPath is the constructed AquaPathV1 machine.
type AquaPath struct {
	ns      *eventbus.Namespace
	inbound <-chan any

	front *DeadBandController
	back  *DeadBandController

	mode Mode

	lastLiveEvt time.Time
}

func init() {
	registry.Register(machines.AquaPathV1(), construct)
}

func construct(group domain.DeviceGroup, hw registry.Hardware, ns *eventbus.Namespace, inbound <-chan any) (registry.Machine, error) {
	if err := registry.ValidateGroup(group); err != nil {
		return nil, err
	}
	for _, role := range []uint16{
		machines.RoleAquaPathTempFront,
		machines.RoleAquaPathTempBack,
		machines.RoleAquaPathHeaterOutput,
	} {
		if _, err := registry.RequireRole(group, role); err != nil {
			return nil, err
		}
	}

	frontTemp, err := tempDevice(hw, machines.RoleAquaPathTempFront)
	if err != nil {
		return nil, err
	}
	backTemp, err := tempDevice(hw, machines.RoleAquaPathTempBack)
	if err != nil {
		return nil, err
	}
	heaterOut, err := heaterOutDevice(hw)
	if err != nil {
		return nil, err
	}

	a := &AquaPath{
		ns:      ns,
		inbound: inbound,
		front:   NewDeadBandController("front", ioh.NewTemperatureInput(frontTemp, 1), ioh.NewDigitalOutput(heaterOut, machines.PortAquaPathFront), DefaultDeadBand),
		back:    NewDeadBandController("back", ioh.NewTemperatureInput(backTemp, 1), ioh.NewDigitalOutput(heaterOut, machines.PortAquaPathBack), DefaultDeadBand),
	}

	configureEvents(ns)
	a.emitState(time.Now())

	return a, nil
}

func tempDevice(hw registry.Hardware, role uint16) (*devicecatalog.EL3204, error) {
	d, err := hw.Device(role)
	if err != nil {
		return nil, err
	}
	t, ok := d.(*devicecatalog.EL3204)
	if !ok {
		return nil, errcode.InvalidConfig
	}
	return t, nil
}

func heaterOutDevice(hw registry.Hardware) (*devicecatalog.DigitalOutputBlock, error) {
	d, err := hw.Device(machines.RoleAquaPathHeaterOutput)
	if err != nil {
		return nil, err
	}
	b, ok := d.(*devicecatalog.DigitalOutputBlock)
	if !ok {
		return nil, errcode.InvalidConfig
	}
	return b, nil
}

// drainInbound applies every command already queued without blocking.
func (a *AquaPath) drainInbound(now time.Time) {
	for {
		select {
		case cmd, ok := <-a.inbound:
			if !ok {
				return
			}
			a.apply(now, cmd)
		default:
			return
		}
	}
}

func (a *AquaPath) apply(now time.Time, cmd any) {
	switch c := cmd.(type) {
	case SetModeCommand:
		a.setMode(now, c.Mode)
	case SetTargetCommand:
		a.zone(c.Zone).Target = c.Target
		a.emitState(now)
	}
}

func (a *AquaPath) zone(z Zone) *DeadBandController {
	if z == ZoneBack {
		return a.back
	}
	return a.front
}

// Act runs one cycle. Implements registry.Machine.
func (a *AquaPath) Act(nowNs int64) error {
	now := time.Unix(0, nowNs)
	a.drainInbound(now)

	enabled := a.mode == ModeAuto
	a.front.Update(enabled)
	a.back.Update(enabled)

	if now.Sub(a.lastLiveEvt) >= 33*time.Millisecond {
		a.lastLiveEvt = now
		a.ns.Emit(EventLiveValues, LiveValuesEvent{
			FrontC:       a.front.Measured(),
			BackC:        a.back.Measured(),
			FrontHeating: a.front.Heating(),
			BackHeating:  a.back.Heating(),
		}, now)
	}

	return nil
}

func (a *AquaPath) emitState(now time.Time) {
	a.ns.Emit(EventState, StateEvent{
		Mode:        a.mode.String(),
		FrontTarget: a.front.Target,
		BackTarget:  a.back.Target,
	}, now)
}

func (a *AquaPath) setMode(now time.Time, m Mode) {
	if m == a.mode {
		return
	}
	a.mode = m
	a.emitState(now)
}

func (a *AquaPath) Close() error { return nil }

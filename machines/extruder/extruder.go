// Package extruder implements the ExtruderV1 machine (spec §4.9): four
// independent PID heating zones driving SSR outputs, and a screw-speed
// controller that either tracks a manual rpm or regulates nozzle
// pressure through a bounded secondary PID.
package extruder

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

// Mode is the extruder's top-level state.
type Mode int

const (
	ModeStandby Mode = iota
	ModeExtrude
)

func (m Mode) String() string {
	if m == ModeExtrude {
		return "extrude"
	}
	return "standby"
}

// PressureFullScaleBar is the analog input's full-scale reading at
// normalized 1.0; the terminal's configured transducer range.
const PressureFullScaleBar = 50.0

const fullScaleBar = PressureFullScaleBar

// Commands accepted on the inbound queue.
type SetModeCommand struct{ Mode Mode }
type SetZoneTargetCommand struct {
	Zone   ZoneName
	Target float64
}
type SetScrewManualCommand struct{ RPM float64 }
type SetScrewPressureCommand struct{ TargetBar float64 }
type SetScrewModeCommand struct{ Mode ScrewMode }
type SetPressureLimitCommand struct {
	Enabled bool
	LimitBar float64
}

type ZoneName int

const (
	ZoneFront ZoneName = iota
	ZoneMiddle
	ZoneBack
	ZoneNozzle
)

// Extruder is the constructed ExtruderV1 machine.
type Extruder struct {
	ns      *eventbus.Namespace
	inbound <-chan any

	front, middle, back, nozzle *HeaterZone
	screw                       *ScrewController
	pressureIn                  ioh.AnalogInput

	mode Mode

	pressureLimitOn  bool
	pressureLimitBar float64
	pressureLimited  bool

	lastLiveEvt time.Time
}

func init() {
	registry.Register(machines.ExtruderV1(), construct)
}

func construct(group domain.DeviceGroup, hw registry.Hardware, ns *eventbus.Namespace, inbound <-chan any) (registry.Machine, error) {
	if err := registry.ValidateGroup(group); err != nil {
		return nil, err
	}
	for _, role := range []uint16{
		machines.RoleExtruderTempBank,
		machines.RoleExtruderHeaterOut,
		machines.RoleExtruderPressure,
		machines.RoleExtruderScrewDrive,
	} {
		if _, err := registry.RequireRole(group, role); err != nil {
			return nil, err
		}
	}

	tempBank, err := tempBankDevice(hw)
	if err != nil {
		return nil, err
	}
	heaterOut, err := heaterOutDevice(hw)
	if err != nil {
		return nil, err
	}
	pressureDev, err := pressureDevice(hw)
	if err != nil {
		return nil, err
	}
	screwDev, err := screwDevice(hw)
	if err != nil {
		return nil, err
	}

	const kp, ki, kd = 4.0, 0.2, 0.5
	e := &Extruder{
		ns:         ns,
		inbound:    inbound,
		front:      NewHeaterZone("front", ioh.NewTemperatureInput(tempBank, machines.PortExtruderFront), ioh.NewDigitalOutput(heaterOut, machines.PortExtruderFront), kp, ki, kd),
		middle:     NewHeaterZone("middle", ioh.NewTemperatureInput(tempBank, machines.PortExtruderMiddle), ioh.NewDigitalOutput(heaterOut, machines.PortExtruderMiddle), kp, ki, kd),
		back:       NewHeaterZone("back", ioh.NewTemperatureInput(tempBank, machines.PortExtruderBack), ioh.NewDigitalOutput(heaterOut, machines.PortExtruderBack), kp, ki, kd),
		nozzle:     NewHeaterZone("nozzle", ioh.NewTemperatureInput(tempBank, machines.PortExtruderNozzle), ioh.NewDigitalOutput(heaterOut, machines.PortExtruderNozzle), kp, ki, kd),
		screw:      NewScrewController(ioh.NewPulseTrainOutput(screwDev), 2.0, 0.5, 0),
		pressureIn: ioh.NewAnalogInput(pressureDev, 1),
	}

	configureEvents(ns)
	e.emitState(time.Now())

	return e, nil
}

func tempBankDevice(hw registry.Hardware) (*devicecatalog.EL3204, error) {
	d, err := hw.Device(machines.RoleExtruderTempBank)
	if err != nil {
		return nil, err
	}
	b, ok := d.(*devicecatalog.EL3204)
	if !ok {
		return nil, errcode.InvalidConfig
	}
	return b, nil
}

func heaterOutDevice(hw registry.Hardware) (*devicecatalog.DigitalOutputBlock, error) {
	d, err := hw.Device(machines.RoleExtruderHeaterOut)
	if err != nil {
		return nil, err
	}
	b, ok := d.(*devicecatalog.DigitalOutputBlock)
	if !ok {
		return nil, errcode.InvalidConfig
	}
	return b, nil
}

func pressureDevice(hw registry.Hardware) (*devicecatalog.EL30xxAnalogInput, error) {
	d, err := hw.Device(machines.RoleExtruderPressure)
	if err != nil {
		return nil, err
	}
	a, ok := d.(*devicecatalog.EL30xxAnalogInput)
	if !ok {
		return nil, errcode.InvalidConfig
	}
	return a, nil
}

func screwDevice(hw registry.Hardware) (*devicecatalog.EL2522PulseTrain, error) {
	d, err := hw.Device(machines.RoleExtruderScrewDrive)
	if err != nil {
		return nil, err
	}
	p, ok := d.(*devicecatalog.EL2522PulseTrain)
	if !ok {
		return nil, errcode.InvalidConfig
	}
	return p, nil
}

func (e *Extruder) zone(name ZoneName) *HeaterZone {
	switch name {
	case ZoneMiddle:
		return e.middle
	case ZoneBack:
		return e.back
	case ZoneNozzle:
		return e.nozzle
	default:
		return e.front
	}
}

func (e *Extruder) measuredBar() float64 {
	v, err := e.pressureIn.Read()
	if err != nil {
		return 0
	}
	return float64(v) * fullScaleBar
}

// drainInbound applies every command already queued on inbound without
// blocking, so the cycle thread never waits on a channel receive.
func (e *Extruder) drainInbound(now time.Time) {
	for {
		select {
		case cmd, ok := <-e.inbound:
			if !ok {
				return
			}
			e.apply(now, cmd)
		default:
			return
		}
	}
}

func (e *Extruder) apply(now time.Time, cmd any) {
	switch c := cmd.(type) {
	case SetModeCommand:
		e.setMode(now, c.Mode)
	case SetZoneTargetCommand:
		e.zone(c.Zone).SetTarget(c.Target)
	case SetScrewManualCommand:
		e.screw.ManualRPM = c.RPM
	case SetScrewPressureCommand:
		e.screw.TargetPressure = c.TargetBar
	case SetScrewModeCommand:
		e.screw.Mode = c.Mode
	case SetPressureLimitCommand:
		e.pressureLimitOn = c.Enabled
		e.pressureLimitBar = c.LimitBar
	}
}

// Act runs one cycle. Implements registry.Machine.
func (e *Extruder) Act(nowNs int64) error {
	now := time.Unix(0, nowNs)
	e.drainInbound(now)

	bar := e.measuredBar()
	wasLimited := e.pressureLimited
	e.pressureLimited = e.pressureLimitOn && bar >= e.pressureLimitBar
	if e.pressureLimited != wasLimited {
		e.emitState(now)
	}

	heatingEnabled := e.mode == ModeExtrude && !e.pressureLimited
	e.front.Update(now, heatingEnabled)
	e.middle.Update(now, heatingEnabled)
	e.back.Update(now, heatingEnabled)
	e.nozzle.Update(now, heatingEnabled)

	if e.mode == ModeExtrude && !e.pressureLimited {
		e.screw.Update(now, bar)
	} else {
		e.screw.Stop()
	}

	if now.Sub(e.lastLiveEvt) >= 33*time.Millisecond {
		e.lastLiveEvt = now
		e.ns.Emit(EventLiveValues, LiveValuesEvent{
			FrontC:      e.front.Measured(),
			MiddleC:     e.middle.Measured(),
			BackC:       e.back.Measured(),
			NozzleC:     e.nozzle.Measured(),
			PressureBar: bar,
			ScrewHz:     e.screw.OutputHz(),
			ScrewRPM:    e.screw.OutputRPM(),
		}, now)
	}

	return nil
}

func (e *Extruder) emitState(now time.Time) {
	e.ns.Emit(EventState, StateEvent{Mode: e.mode.String(), PressureLimited: e.pressureLimited}, now)
}

func (e *Extruder) setMode(now time.Time, m Mode) {
	if m == e.mode {
		return
	}
	e.mode = m
	e.emitState(now)
}

func (e *Extruder) Close() error { return nil }

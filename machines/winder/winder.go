// Package winder implements the WinderV1 machine (spec §4.9): a spool,
// puller, traverse, and tension arm driven together through a
// Standby/Hold/Pull/Wind mode state machine, with an automatic-action
// length accumulator and an optional laser-fed diameter regulator.
package winder

import (
	"time"

	"machinectl/control"
	"machinectl/devicecatalog"
	"machinectl/domain"
	"machinectl/errcode"
	"machinectl/eventbus"
	"machinectl/ioh"
	"machinectl/machines"
	"machinectl/registry"
	"machinectl/units"
)

// Mode is the winder's top-level state.
type Mode int

const (
	ModeStandby Mode = iota
	ModeHold
	ModePull
	ModeWind
)

func (m Mode) String() string {
	switch m {
	case ModeStandby:
		return "standby"
	case ModeHold:
		return "hold"
	case ModePull:
		return "pull"
	case ModeWind:
		return "wind"
	default:
		return "unknown"
	}
}

// Commands accepted on the inbound queue. Each is a distinct type;
// Winder.Act type-switches over whatever arrives.
type SetModeCommand struct{ Mode Mode }
type SetSpoolConfigCommand struct{ Config SpoolConfig }
type SetPullerTargetCommand struct{ Target units.Velocity }
type ZeroTensionArmCommand struct{}
type HomeTraverseCommand struct{}
type StartTraverseCommand struct{}
type SetAutomaticActionCommand struct {
	Mode         AutomaticMode
	TargetLength float64
}
type SetDiameterRegulatorCommand struct {
	Enabled        bool
	TargetDiameter units.Length
}

// Winder is the constructed WinderV1 machine.
type Winder struct {
	ns      *eventbus.Namespace
	inbound <-chan any

	spool     *Spool
	puller    *Puller
	traverse  *Traverse
	tension   *TensionArm
	automatic *AutomaticAction
	diameter  *DiameterRegulator

	laserInput *ioh.AnalogInput // optional; nil if role unassigned

	mode         Mode
	diameterOn   bool
	lastStateEvt StateEvent
	lastLiveEvt  time.Time
}

// NewWinderConstructor returns a registry.Constructor closure, letting
// callers (and tests) build one without going through the package init
// side effect registered below.
func NewWinderConstructor() registry.Constructor {
	return construct
}

func init() {
	registry.Register(machines.WinderV1(), construct)
}

func construct(group domain.DeviceGroup, hw registry.Hardware, ns *eventbus.Namespace, inbound <-chan any) (registry.Machine, error) {
	if err := registry.ValidateGroup(group); err != nil {
		return nil, err
	}
	for _, role := range []uint16{
		machines.RoleWinderSpoolStepper,
		machines.RoleWinderPullerStepper,
		machines.RoleWinderTraverseStepper,
		machines.RoleWinderTraverseEndstop,
		machines.RoleWinderTensionArmInput,
	} {
		if _, err := registry.RequireRole(group, role); err != nil {
			return nil, err
		}
	}

	spoolDev, err := stepperDevice(hw, machines.RoleWinderSpoolStepper)
	if err != nil {
		return nil, err
	}
	pullerDev, err := stepperDevice(hw, machines.RoleWinderPullerStepper)
	if err != nil {
		return nil, err
	}
	traverseDev, err := stepperDevice(hw, machines.RoleWinderTraverseStepper)
	if err != nil {
		return nil, err
	}
	endstopDev, err := digitalInputDevice(hw, machines.RoleWinderTraverseEndstop)
	if err != nil {
		return nil, err
	}
	tensionDev, err := analogInputDevice(hw, machines.RoleWinderTensionArmInput)
	if err != nil {
		return nil, err
	}

	const stepsPerRev = 200
	spoolConv := control.NewAngularStepConverter(stepsPerRev)
	pullerConv := control.NewLinearStepConverter(stepsPerRev, units.Millimeters(15))
	traverseConv := control.NewLinearStepConverter(stepsPerRev, units.Millimeters(5))

	spoolCfg := SpoolConfig{
		Mode:     SpoolMinMax,
		MinRPM:   units.RPM(50),
		MaxRPM:   units.RPM(400),
		AngleLow: units.Degrees(-45),
		AngleHigh: units.Degrees(45),
		Kp: 1, Ki: 0.1,
	}

	w := &Winder{
		ns:        ns,
		inbound:   inbound,
		spool:     NewSpool(ioh.NewStepperVelocity(spoolDev), spoolConv, spoolCfg),
		puller:    NewPuller(ioh.NewStepperVelocity(pullerDev), pullerConv, units.MetersPerSecondSquared(0.5), units.MetersPerSecondCubed(2)),
		traverse:  NewTraverse(ioh.NewStepperVelocity(traverseDev), ioh.NewDigitalInput(endstopDev, 1), traverseConv, defaultTraverseConfig()),
		tension:   NewTensionArm(ioh.NewAnalogInput(tensionDev, 1)),
		automatic: NewAutomaticAction(time.Now()),
		diameter:  NewDiameterRegulator(0.5, 0.05, 0.01, units.MetersPerMinute(0), units.MetersPerMinute(75)),
	}

	if laserDev, err := analogInputDevice(hw, machines.RoleWinderLaserInput); err == nil {
		in := ioh.NewAnalogInput(laserDev, 1)
		w.laserInput = &in
	}

	configureEvents(ns)
	w.emitState(time.Now())

	return w, nil
}

func defaultTraverseConfig() TraverseConfig {
	return TraverseConfig{
		CoarseSpeed:  units.MetersPerSecond(0.05),
		FineSpeed:    units.MetersPerSecond(0.005),
		EscapeSpeed:  units.MetersPerSecond(0.01),
		EscapeDist:   units.Millimeters(3),
		FineDistance: units.Millimeters(10),
		LimitOut:     units.Millimeters(200),
		LimitIn:      units.Millimeters(0),
		Ratio:        control.TransmissionRatio(20),
	}
}

func stepperDevice(hw registry.Hardware, role uint16) (*devicecatalog.Wago750671Stepper, error) {
	d, err := hw.Device(role)
	if err != nil {
		return nil, err
	}
	s, ok := d.(*devicecatalog.Wago750671Stepper)
	if !ok {
		return nil, errcode.InvalidConfig
	}
	return s, nil
}

func digitalInputDevice(hw registry.Hardware, role uint16) (*devicecatalog.DigitalInputBlock, error) {
	d, err := hw.Device(role)
	if err != nil {
		return nil, err
	}
	b, ok := d.(*devicecatalog.DigitalInputBlock)
	if !ok {
		return nil, errcode.InvalidConfig
	}
	return b, nil
}

func analogInputDevice(hw registry.Hardware, role uint16) (*devicecatalog.EL30xxAnalogInput, error) {
	d, err := hw.Device(role)
	if err != nil {
		return nil, err
	}
	a, ok := d.(*devicecatalog.EL30xxAnalogInput)
	if !ok {
		return nil, errcode.InvalidConfig
	}
	return a, nil
}

// Act runs one cycle: apply pending commands, advance every sub-module,
// enforce the mode transition guard, and publish telemetry. Implements
// registry.Machine.
func (w *Winder) Act(nowNs int64) error {
	now := time.Unix(0, nowNs)
	w.drainInbound(now)

	tensionAngle := w.tension.Angle()
	spoolRPM := w.spool.Update(now, tensionAngle)
	w.traverse.Update(now, spoolRPM)
	if w.traverse.Homed() != w.lastStateEvt.TraverseHomed || w.traverse.MovingHome() != w.lastStateEvt.TraverseMoving {
		w.emitState(now)
	}

	var pullTarget units.Velocity
	switch w.mode {
	case ModePull, ModeWind:
		if w.diameterOn && w.laserInput != nil {
			if v, err := w.laserInput.Read(); err == nil {
				pullTarget = w.diameter.Update(now, units.Millimeters(float64(v)))
			}
		} else {
			pullTarget = w.puller.target
		}
	default:
		pullTarget = 0
	}
	w.puller.SetTarget(pullTarget)
	pullSpeed := w.puller.Update(now)

	if next, ok := w.automatic.Update(now, w.mode, pullSpeed.MetersPerSecond()); ok {
		w.setMode(now, next)
	}

	w.enforceEnable()

	if now.Sub(w.lastLiveEvt) >= 33*time.Millisecond {
		w.lastLiveEvt = now
		w.ns.Emit(EventLiveValues, LiveValuesEvent{
			SpoolRPM:          spoolRPM.RPM(),
			PullerSpeedMps:    pullSpeed.MetersPerSecond(),
			TraversePos:       w.traverse.Position().Meters(),
			TensionArmDeg:     w.tension.DisplayDegrees(),
			AutomaticProgress: w.automatic.Progress(),
		}, now)
	}

	return nil
}

// drainInbound applies every command already queued on inbound without
// blocking — the cycle thread must never wait on a channel receive — so
// a burst already queued is applied within a single cycle.
func (w *Winder) drainInbound(now time.Time) {
	for {
		select {
		case cmd, ok := <-w.inbound:
			if !ok {
				return
			}
			w.apply(now, cmd)
		default:
			return
		}
	}
}

func (w *Winder) apply(now time.Time, cmd any) {
	switch c := cmd.(type) {
	case SetModeCommand:
		w.setMode(now, c.Mode)
	case SetSpoolConfigCommand:
		w.spool.SetConfig(c.Config)
	case SetPullerTargetCommand:
		w.puller.target = c.Target
	case ZeroTensionArmCommand:
		w.tension.Zero()
		w.emitState(now)
	case HomeTraverseCommand:
		w.traverse.Home(now)
		w.emitState(now)
	case StartTraverseCommand:
		w.traverse.StartTraversing(now)
	case SetAutomaticActionCommand:
		w.automatic.Mode = c.Mode
		w.automatic.TargetLength = c.TargetLength
		w.automatic.Reset(now)
	case SetDiameterRegulatorCommand:
		w.diameterOn = c.Enabled
		w.diameter.TargetDiameter = c.TargetDiameter
		w.diameter.Reset()
	}
}

// setMode applies the Wind transition guard (spec §4.9): winding requires
// a zeroed tension arm and a traverse that is homed and not mid-homing.
// Requests that fail the guard are silently dropped, mirroring the
// source's behaviour of simply not performing the transition.
func (w *Winder) setMode(now time.Time, m Mode) {
	if m == ModeWind {
		if !w.tension.Zeroed() || !w.traverse.Homed() || w.traverse.MovingHome() {
			return
		}
	}
	if m == w.mode {
		return
	}
	w.mode = m
	if m == ModeStandby || m == ModeHold {
		w.traverse.Stop()
	}
	w.emitState(now)
}

func (w *Winder) enforceEnable() {
	switch w.mode {
	case ModeStandby:
		w.spool.Disable()
		w.puller.Disable()
		w.traverse.Disable()
	default:
		w.spool.Enable()
		w.puller.Enable()
		w.traverse.Enable()
	}
}

func (w *Winder) emitState(now time.Time) {
	evt := StateEvent{
		Mode:             w.mode.String(),
		TraverseHomed:    w.traverse.Homed(),
		TraverseMoving:   w.traverse.MovingHome(),
		TensionArmZeroed: w.tension.Zeroed(),
	}
	w.lastStateEvt = evt
	w.ns.Emit(EventState, evt, now)
}

// Close releases no resources of its own; the cycle orchestrator owns
// the underlying device images and tears them down via discovery.
func (w *Winder) Close() error { return nil }

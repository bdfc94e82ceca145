// Package buffer implements the BufferV1 machine (spec §4.9): a
// dancer-like lift that reads its own fill level and adjusts its pull
// speed around an upstream machine's output speed, pulled from that
// machine's event namespace by identifier rather than a direct reference
// (spec §9's weak inter-machine reference design note).
package buffer

import (
	"math"
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
	"machinectl/x/mathx"
)

// upstreamRegistry maps a machine identifier (a namespace id string, e.g.
// "winder-1") to its event namespace, so a buffer machine can pull
// another machine's published speed without holding a Go reference to
// it. Populated once at startup by the process wiring every machine
// together (cmd/machinectld), not by the machines themselves.
var upstreamRegistry = map[string]*eventbus.Namespace{}

// RegisterUpstream makes ns's published events visible to any buffer
// machine that later targets id as its upstream.
func RegisterUpstream(id string, ns *eventbus.Namespace) {
	upstreamRegistry[id] = ns
}

// upstreamSpeedEvent is the shape buffer expects on an upstream's
// "live_values" event in order to extract a pull speed, satisfied by
// machines/winder.LiveValuesEvent without importing that package (which
// would make the dependency the wrong direction — upstream machines
// should not need to know buffer exists).
type upstreamSpeedEvent interface {
	BufferPullSpeedMps() float64
}

// Mode is the buffer's top-level state.
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

const upstreamLiveValuesEvent = "live_values"

// Commands accepted on the inbound queue.
type SetModeCommand struct{ Mode Mode }
type SetUpstreamCommand struct{ ID string }
type SetTargetFillCommand struct{ Target float64 }

// Buffer is the constructed BufferV1 machine.
type Buffer struct {
	ns      *eventbus.Namespace
	inbound <-chan any

	fill *ioh.AnalogInput
	pull ioh.StepperVelocity
	conv control.StepConverter
	fillPID *control.PID

	mode       Mode
	upstreamID string
	targetFill float64

	lastFill         float64
	lastUpstreamMps  float64
	upstreamLinked   bool
	lastPullMps      float64
	lastLiveEvt      time.Time
}

func init() {
	registry.Register(machines.BufferV1(), construct)
}

func construct(group domain.DeviceGroup, hw registry.Hardware, ns *eventbus.Namespace, inbound <-chan any) (registry.Machine, error) {
	if err := registry.ValidateGroup(group); err != nil {
		return nil, err
	}
	for _, role := range []uint16{
		machines.RoleBufferLiftInput,
		machines.RoleBufferPullOutput,
	} {
		if _, err := registry.RequireRole(group, role); err != nil {
			return nil, err
		}
	}

	fillDev, err := analogInputDevice(hw)
	if err != nil {
		return nil, err
	}
	pullDev, err := stepperDevice(hw)
	if err != nil {
		return nil, err
	}

	fill := ioh.NewAnalogInput(fillDev, 1)
	b := &Buffer{
		ns:         ns,
		inbound:    inbound,
		fill:       &fill,
		pull:       ioh.NewStepperVelocity(pullDev),
		conv:       control.NewLinearStepConverter(200, units.Millimeters(10)),
		fillPID:    control.NewPID(2.0, 0.1, 0),
		targetFill: 0.5,
	}

	configureEvents(ns)
	b.emitState(time.Now())

	return b, nil
}

func analogInputDevice(hw registry.Hardware) (*devicecatalog.EL30xxAnalogInput, error) {
	d, err := hw.Device(machines.RoleBufferLiftInput)
	if err != nil {
		return nil, err
	}
	a, ok := d.(*devicecatalog.EL30xxAnalogInput)
	if !ok {
		return nil, errcode.InvalidConfig
	}
	return a, nil
}

func stepperDevice(hw registry.Hardware) (*devicecatalog.Wago750671Stepper, error) {
	d, err := hw.Device(machines.RoleBufferPullOutput)
	if err != nil {
		return nil, err
	}
	s, ok := d.(*devicecatalog.Wago750671Stepper)
	if !ok {
		return nil, errcode.InvalidConfig
	}
	return s, nil
}

// drainInbound applies every command already queued without blocking.
func (b *Buffer) drainInbound(now time.Time) {
	for {
		select {
		case cmd, ok := <-b.inbound:
			if !ok {
				return
			}
			b.apply(now, cmd)
		default:
			return
		}
	}
}

func (b *Buffer) apply(now time.Time, cmd any) {
	switch c := cmd.(type) {
	case SetModeCommand:
		b.setMode(now, c.Mode)
	case SetUpstreamCommand:
		b.upstreamID = c.ID
	case SetTargetFillCommand:
		b.targetFill = c.Target
	}
}

// upstreamSpeed pulls the upstream machine's current pull speed from its
// event namespace by identifier, as of the last cycle it ran. Returns
// false if no upstream is configured or it hasn't published yet.
func (b *Buffer) upstreamSpeed() (float64, bool) {
	if b.upstreamID == "" {
		return 0, false
	}
	ns, ok := upstreamRegistry[b.upstreamID]
	if !ok {
		return 0, false
	}
	ev, ok := ns.Latest(upstreamLiveValuesEvent)
	if !ok {
		return 0, false
	}
	lv, ok := ev.Data.(upstreamSpeedEvent)
	if !ok {
		return 0, false
	}
	return lv.BufferPullSpeedMps(), true
}

// Act runs one cycle. Implements registry.Machine.
func (b *Buffer) Act(nowNs int64) error {
	now := time.Unix(0, nowNs)
	b.drainInbound(now)

	if v, err := b.fill.Read(); err == nil {
		b.lastFill = float64(v)
	}

	upstreamMps, linked := b.upstreamSpeed()
	b.lastUpstreamMps = upstreamMps
	wasLinked := b.upstreamLinked
	b.upstreamLinked = linked
	if linked != wasLinked {
		b.emitState(now)
	}

	var pullMps float64
	if b.mode == ModeAuto {
		fillError := b.targetFill - b.lastFill
		correction := b.fillPID.Update(now, fillError)
		pullMps = mathx.Clamp(upstreamMps+correction, 0, math.Inf(1))
		steps := b.conv.LinearVelocityToSteps(units.MetersPerSecond(pullMps))
		b.pull.Enable()
		b.pull.SetVelocity(int16(steps))
	} else {
		b.pull.SetVelocity(0)
		b.pull.Disable()
		pullMps = 0
	}
	b.lastPullMps = pullMps

	if now.Sub(b.lastLiveEvt) >= 33*time.Millisecond {
		b.lastLiveEvt = now
		b.ns.Emit(EventLiveValues, LiveValuesEvent{
			FillLevel:        b.lastFill,
			PullSpeedMps:     b.lastPullMps,
			UpstreamSpeedMps: b.lastUpstreamMps,
		}, now)
	}

	return nil
}

func (b *Buffer) emitState(now time.Time) {
	b.ns.Emit(EventState, StateEvent{Mode: b.mode.String(), UpstreamLinked: b.upstreamLinked}, now)
}

func (b *Buffer) setMode(now time.Time, m Mode) {
	if m == b.mode {
		return
	}
	b.mode = m
	b.emitState(now)
}

func (b *Buffer) Close() error { return nil }

// Package laser implements the laser diameter gauge consumer (spec §4.9,
// recovered from original_source/server/src/machines/laser/new.rs's
// "laser diameter sensor consumer" role that the distilled spec names but
// doesn't detail): it republishes one serial instrument's diameter
// reading on its own event namespace.
//
// Unlike the EtherCAT-backed machines in this directory, the laser gauge
// is a serial/Modbus device (C9), not a member of a DeviceGroup's
// Hardware map (C7) — new.rs constructs it from
// MachineNewHardware::Serial rather than an EtherCAT device group. It is
// therefore built directly with NewLaserMachine rather than through
// registry.Register/Construct, and driven by whatever owns the serial
// worker registry alongside the cycle orchestrator's machine list. Its
// Act signature still matches registry.Machine so the orchestrator can
// step it identically to every other machine.
package laser

import (
	"encoding/binary"
	"time"

	"machinectl/eventbus"
	"machinectl/serial"
)

// LaserTarget mirrors new.rs's LaserTarget: the expected filament
// diameter and the tolerance band either side of it that counts as
// in-spec.
type LaserTarget struct {
	Diameter        float64 // mm
	HigherTolerance float64 // mm
	LowerTolerance  float64 // mm
}

const (
	EventState      = "state"
	EventLiveValues = "live_values"
)

type StateEvent struct {
	InTolerance bool    `json:"in_tolerance"`
	Valid       bool    `json:"valid"`
	Target      float64 `json:"target_mm"`
}

type LiveValuesEvent struct {
	DiameterMM float64 `json:"diameter_mm"`
}

func configureEvents(ns *eventbus.Namespace) {
	ns.Configure(EventState, eventbus.PolicyConfig{Policy: eventbus.CacheOne})
	ns.Configure(EventLiveValues, eventbus.PolicyConfig{Policy: eventbus.CacheDuration, Window: time.Second, MinGap: 20 * time.Millisecond})
}

// LaserMachine polls one Modbus input register asynchronously: it
// submits a read and, on a later cycle, collects whatever reply has
// arrived — it never blocks the cycle thread waiting on the serial
// exchange, matching the cycle orchestrator's tx_rx-only blocking
// invariant (spec §4.10). Grounded on serial/worker.go's
// Request.Reply/Worker.Submit async exchange pattern.
type LaserMachine struct {
	worker *serial.Worker
	addr   uint16
	ns     *eventbus.Namespace

	target LaserTarget

	pending  chan serial.Reply
	awaiting bool

	diameterMM float64
	valid      bool
	inTol      bool

	lastLiveEvt time.Time
}

// NewLaserMachine builds a laser consumer reading addr off worker.
func NewLaserMachine(worker *serial.Worker, addr uint16, ns *eventbus.Namespace, target LaserTarget) *LaserMachine {
	l := &LaserMachine{
		worker:  worker,
		addr:    addr,
		ns:      ns,
		target:  target,
		pending: make(chan serial.Reply, 1),
	}
	configureEvents(ns)
	l.emitState(time.Now())
	return l
}

// Act collects any completed read, submits the next one, and publishes
// telemetry. Implements the same shape as registry.Machine.
func (l *LaserMachine) Act(nowNs int64) error {
	now := time.Unix(0, nowNs)

	select {
	case reply := <-l.pending:
		l.awaiting = false
		if reply.Err == nil && len(reply.Data) >= 2 {
			raw := binary.BigEndian.Uint16(reply.Data)
			l.diameterMM = float64(raw) / 1000.0 // instrument reports micrometers
			l.valid = true
		}
	default:
	}

	if !l.awaiting {
		req := &serial.Request{
			Priority: 1,
			Func:     serial.FuncReadInputRegisters,
			Address:  l.addr,
			Quantity: 1,
			Reply:    l.pending,
		}
		if l.worker.Submit(req) {
			l.awaiting = true
		}
	}

	wasInTol := l.inTol
	l.inTol = l.valid && l.diameterMM >= l.target.Diameter-l.target.LowerTolerance && l.diameterMM <= l.target.Diameter+l.target.HigherTolerance
	if l.inTol != wasInTol {
		l.emitState(now)
	}

	if now.Sub(l.lastLiveEvt) >= 33*time.Millisecond {
		l.lastLiveEvt = now
		l.ns.Emit(EventLiveValues, LiveValuesEvent{DiameterMM: l.diameterMM}, now)
	}

	return nil
}

// DiameterMM returns the last successfully decoded reading and whether
// one has ever arrived, for a consumer holding this machine directly.
func (l *LaserMachine) DiameterMM() (float64, bool) { return l.diameterMM, l.valid }

func (l *LaserMachine) emitState(now time.Time) {
	l.ns.Emit(EventState, StateEvent{InTolerance: l.inTol, Valid: l.valid, Target: l.target.Diameter}, now)
}

func (l *LaserMachine) Close() error { return nil }

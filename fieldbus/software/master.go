// Package software implements a deterministic, in-process fieldbus.Master
// used in tests and for development without real EtherCAT hardware. It
// never talks to a wire; outputs passed to a TxRx are copied into a
// loopback image and read back as that same call's inputs, with injectable
// faults standing in for frame loss, CRC errors, and working-counter
// mismatches. Grounded on the teacher's ResourceRegistry claim pattern
// (services/hal/internal/core/resources.go) for how a single owner
// exposes typed claims over a shared resource — here, the shared bus
// image instead of a GPIO/PWM pin.
package software

import (
	"sync"
	"time"

	"machinectl/devicecatalog"
	"machinectl/errcode"
	"machinectl/fieldbus"
)

// Fault names an injectable failure mode for the next N TxRx calls.
type Fault int

const (
	FaultNone Fault = iota
	FaultBusError
	FaultFrameTooShort
	FaultWorkingCounterMismatch
)

// Master is a software-only fieldbus.Master: it holds a persistent
// loopback image per configured group and applies injected faults
// deterministically (by call count, not by chance), so tests are
// reproducible.
type Master struct {
	mu sync.Mutex

	devices []devicecatalog.Device
	image   []byte // shared loopback buffer sized to the group's total

	fault      Fault
	faultCalls int // remaining TxRx calls the fault applies to

	delays map[fieldbus.Address]time.Duration
}

func New() *Master {
	return &Master{delays: make(map[fieldbus.Address]time.Duration)}
}

// InjectFault arms fault for the next n calls to TxRx.
func (m *Master) InjectFault(fault Fault, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fault = fault
	m.faultCalls = n
}

// SetPropagationDelay records the simulated wire delay for addr.
func (m *Master) SetPropagationDelay(addr fieldbus.Address, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[addr] = d
}

func (m *Master) Scan() ([]fieldbus.SubDevice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := make([]fieldbus.SubDevice, len(m.devices))
	inOff, outOff := 0, 0
	for i, d := range m.devices {
		subs[i] = fieldbus.SubDevice{
			Addr:         fieldbus.Address(i + 1001),
			Identity:     d.Identity(),
			InputOffset:  inOff,
			InputLen:     d.InputLen(),
			OutputOffset: outOff,
			OutputLen:    d.OutputLen(),
		}
		inOff += d.InputLen()
		outOff += d.OutputLen()
	}
	return subs, nil
}

func (m *Master) Configure(group fieldbus.Group, devices []devicecatalog.Device) error {
	m.mu.Lock()
	m.devices = devices
	size := 0
	for _, d := range group.Devices {
		if end := d.OutputOffset + d.OutputLen; end > size {
			size = end
		}
		if end := d.InputOffset + d.InputLen; end > size {
			size = end
		}
	}
	m.image = make([]byte, size)
	m.mu.Unlock()
	return fieldbus.ApplyAllConfigs(devices)
}

// TxRx latches outputs into the shared loopback image and copies it back
// as inputs, simulating the round trip a real EtherCAT frame performs.
func (m *Master) TxRx(group fieldbus.Group, outputs, inputs []byte, deadline time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.faultCalls > 0 {
		f := m.fault
		m.faultCalls--
		switch f {
		case FaultBusError:
			return errcode.BusError
		case FaultFrameTooShort:
			return errcode.FrameTooShort
		case FaultWorkingCounterMismatch:
			return errcode.WorkingCounterMismatch
		}
	}

	if len(m.image) < len(outputs) || len(m.image) < len(inputs) {
		return errcode.FrameTooShort
	}
	copy(m.image, outputs)
	copy(inputs, m.image)
	return nil
}

func (m *Master) PropagationDelays(group fieldbus.Group) map[fieldbus.Address]time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[fieldbus.Address]time.Duration, len(group.Devices))
	for _, d := range group.Devices {
		out[d.Addr] = m.delays[d.Addr]
	}
	return out
}

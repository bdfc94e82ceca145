// Package fieldbus defines the Master seam the cycle orchestrator drives
// every cycle: scan, configure, tx_rx, and per-device propagation delays.
// A production EtherCAT master binding (ethercrab or similar) is an
// external collaborator outside this repo's scope; this package only
// defines the interface such a binding plugs into, plus a deterministic
// in-process simulation used for development and tests.
package fieldbus

import (
	"time"

	"machinectl/devicecatalog"
	"machinectl/errcode"
)

// Address is a sub-device's configured physical position on the bus.
type Address uint16

// SubDevice describes one bus position as reported by Scan: its address,
// compile-time identity, and the process-image slice it occupies.
type SubDevice struct {
	Addr        Address
	Identity    devicecatalog.Identity
	InputOffset int
	InputLen    int
	OutputOffset int
	OutputLen    int
}

// Group is the set of sub-devices a single Configure/TxRx cycle drives.
type Group struct {
	Devices []SubDevice
}

// Master is the uniform façade over an EtherCAT master implementation.
type Master interface {
	// Scan enumerates the bus and returns an ordered list of sub-devices.
	Scan() ([]SubDevice, error)
	// Configure sets PDO assignments and mailbox (CoE) objects for group,
	// transitioning its members Preoperational -> Configured.
	Configure(group Group, devices []devicecatalog.Device) error
	// TxRx transmits the latched output image and returns the freshly
	// received input image for group, or BusError/FrameTooShort/
	// WorkingCounterMismatch on any frame loss, CRC failure, or working
	// counter mismatch. Never blocks past deadline.
	TxRx(group Group, outputs, inputs []byte, deadline time.Duration) error
	// PropagationDelays returns, per sub-device address in group, the
	// measured wire propagation delay used to correct input timestamps.
	PropagationDelays(group Group) map[Address]time.Duration
}

// coeWriter adapts a Master to devicecatalog.CoEWriter during Configure.
type coeWriter struct {
	writes []devicecatalog.CoEObject
}

func (w *coeWriter) WriteCoE(obj devicecatalog.CoEObject) error {
	w.writes = append(w.writes, obj)
	return nil
}

// ApplyAllConfigs runs ApplyConfig on every device in order, failing fast
// with CoEError on the first rejection — the preoperational-state
// configuration step every Master.Configure implementation performs.
func ApplyAllConfigs(devices []devicecatalog.Device) error {
	w := &coeWriter{}
	for _, d := range devices {
		if err := d.ApplyConfig(w); err != nil {
			return errcode.CoEError
		}
	}
	return nil
}

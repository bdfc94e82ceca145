// Package registry maps a MachineIdentification to the constructor that
// builds a machine instance from a fully discovered device group.
// Generalizes the teacher's core.RegisterBuilder/lookupBuilder
// (services/hal/internal/core/registry.go) and
// services/hal/internal/registry/registry.go from per-device-type
// builders keyed by a string type name to per-machine-class
// constructors keyed by MachineIdentification, enforcing the
// constructor invariants spec'd for machine construction.
package registry

import (
	"fmt"
	"sync"

	"machinectl/devicecatalog"
	"machinectl/domain"
	"machinectl/errcode"
	"machinectl/eventbus"
)

// Machine is anything the cycle orchestrator can step once per cycle and
// tear down when its device group breaks.
type Machine interface {
	Act(nowNs int64) error
	Close() error
}

// Hardware is the "hardware_refs" argument of spec §4.6: the concrete,
// already-configured device object backing each role in the group, keyed
// by the same role numbers DeviceGroup.Members carry. The orchestrator
// builds this from its live device table at construction time; a
// Constructor type-asserts each entry down to the concrete devicecatalog
// type its role expects.
type Hardware map[uint16]devicecatalog.Device

// Device looks up the hardware for role, returning MissingRole if absent
// — the same invariant as RequireRole, checked against the live objects
// rather than the bare identification.
func (h Hardware) Device(role uint16) (devicecatalog.Device, error) {
	d, ok := h[role]
	if !ok {
		return nil, errcode.MissingRole
	}
	return d, nil
}

// Constructor builds a Machine from a fully discovered device group, the
// live hardware objects backing it, a namespace to publish events on,
// and an inbound command queue. It MUST: (i) verify all members share
// the group's identifier (MismatchedGroup); (ii) verify role uniqueness
// (DuplicateRole); (iii) match every required role to a specific device
// type (MissingRole); (iv) build I/O handles and controllers; (v) emit
// an initial state event.
type Constructor func(group domain.DeviceGroup, hw Hardware, ns *eventbus.Namespace, inbound <-chan any) (Machine, error)

var (
	mu    sync.RWMutex
	ctors = map[domain.MachineIdentification]Constructor{}
)

// Register adds ctor for id. Panics on a duplicate registration — this
// happens at process startup via package init, so a duplicate is a
// programming error, not a runtime condition to recover from.
func Register(id domain.MachineIdentification, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := ctors[id]; exists {
		panic(fmt.Sprintf("duplicate machine constructor for %+v", id))
	}
	ctors[id] = ctor
}

// Lookup returns the constructor registered for id, if any.
func Lookup(id domain.MachineIdentification) (Constructor, bool) {
	mu.RLock()
	defer mu.RUnlock()
	ctor, ok := ctors[id]
	return ctor, ok
}

// ValidateGroup checks the two invariants every Constructor must verify
// before touching device contents: every member shares group.Identity,
// and no two members claim the same role. Constructors call this first.
func ValidateGroup(group domain.DeviceGroup) error {
	seenRoles := make(map[uint16]bool, len(group.Members))
	for _, m := range group.Members {
		if m.Machine == nil {
			return errcode.MismatchedGroup
		}
		if m.Machine.MachineIdentificationUnique != group.Identity {
			return errcode.MismatchedGroup
		}
		if seenRoles[m.Machine.Role] {
			return errcode.DuplicateRole
		}
		seenRoles[m.Machine.Role] = true
	}
	return nil
}

// RequireRole looks up the group member for role, returning MissingRole
// if absent — the third constructor invariant.
func RequireRole(group domain.DeviceGroup, role uint16) (domain.DeviceIdentification, error) {
	dev, ok := group.RoleOf(role)
	if !ok {
		return domain.DeviceIdentification{}, errcode.MissingRole
	}
	return dev, nil
}

// Construct looks up and runs the constructor for group.Identity, or
// returns errcode.InvalidConfig if the machine class is unregistered.
func Construct(group domain.DeviceGroup, hw Hardware, ns *eventbus.Namespace, inbound <-chan any) (Machine, error) {
	ctor, ok := Lookup(group.Identity.MachineIdentification)
	if !ok {
		return nil, errcode.InvalidConfig
	}
	return ctor(group, hw, ns, inbound)
}

package discovery

import "machinectl/domain"

// Diff is the added/removed/same sets computed between two successive
// scans, keyed by configured device address.
type Diff struct {
	Added   []domain.DeviceIdentification
	Removed []domain.DeviceIdentification
	Same    []domain.DeviceIdentification
}

// ComputeDiff compares previous and current snapshots by address,
// independent of ordering. A device present in both is "same" even if
// its role/identity changed mid-scan — role changes are handled by the
// regrouping pass, not by the added/removed/same split.
func ComputeDiff(previous, current []domain.DeviceIdentification) Diff {
	prevByAddr := make(map[domain.DeviceAddress]domain.DeviceIdentification, len(previous))
	for _, d := range previous {
		prevByAddr[d.Address] = d
	}
	currByAddr := make(map[domain.DeviceAddress]domain.DeviceIdentification, len(current))
	for _, d := range current {
		currByAddr[d.Address] = d
	}

	var diff Diff
	for addr, d := range currByAddr {
		if _, ok := prevByAddr[addr]; ok {
			diff.Same = append(diff.Same, d)
		} else {
			diff.Added = append(diff.Added, d)
		}
	}
	for addr, d := range prevByAddr {
		if _, ok := currByAddr[addr]; !ok {
			diff.Removed = append(diff.Removed, d)
		}
	}
	return diff
}

// GroupByMachine partitions assigned devices into DeviceGroups sharing
// one MachineIdentificationUnique. Unassigned devices are omitted; the
// caller writes an identity into them separately.
func GroupByMachine(devices []domain.DeviceIdentification) []domain.DeviceGroup {
	order := make([]domain.MachineIdentificationUnique, 0)
	byID := make(map[domain.MachineIdentificationUnique][]domain.DeviceIdentification)
	for _, d := range devices {
		if d.Unassigned() {
			continue
		}
		id := d.Machine.MachineIdentificationUnique
		if _, seen := byID[id]; !seen {
			order = append(order, id)
		}
		byID[id] = append(byID[id], d)
	}
	groups := make([]domain.DeviceGroup, 0, len(order))
	for _, id := range order {
		groups = append(groups, domain.DeviceGroup{Identity: id, Members: byID[id]})
	}
	return groups
}

// RequiredRoles expresses what a machine constructor needs to consider a
// group complete: the set of role IDs it requires present.
type RequiredRoles map[uint16]bool

// IsComplete reports whether group carries every role in required.
func IsComplete(group domain.DeviceGroup, required RequiredRoles) bool {
	have := make(map[uint16]bool, len(group.Members))
	for _, m := range group.Members {
		if m.Machine != nil {
			have[m.Machine.Role] = true
		}
	}
	for role := range required {
		if !have[role] {
			return false
		}
	}
	return true
}

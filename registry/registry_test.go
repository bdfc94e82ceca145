package registry

import (
	"testing"

	"machinectl/domain"
	"machinectl/errcode"
	"machinectl/eventbus"

	"github.com/stretchr/testify/require"
)

const roleSpool uint16 = 1

type stubMachine struct{}

func (stubMachine) Act(int64) error { return nil }
func (stubMachine) Close() error    { return nil }

func TestValidateGroupDetectsMismatch(t *testing.T) {
	id := domain.MachineIdentificationUnique{MachineIdentification: domain.MachineIdentification{Vendor: 1, Machine: 2}, Serial: 3}
	other := domain.MachineIdentificationUnique{MachineIdentification: domain.MachineIdentification{Vendor: 1, Machine: 2}, Serial: 4}
	group := domain.DeviceGroup{
		Identity: id,
		Members: []domain.DeviceIdentification{
			{Machine: &domain.DeviceMachineIdentification{MachineIdentificationUnique: id, Role: roleSpool}},
			{Machine: &domain.DeviceMachineIdentification{MachineIdentificationUnique: other, Role: roleSpool}},
		},
	}
	require.ErrorIs(t, ValidateGroup(group), errcode.MismatchedGroup)
}

func TestValidateGroupDetectsDuplicateRole(t *testing.T) {
	id := domain.MachineIdentificationUnique{MachineIdentification: domain.MachineIdentification{Vendor: 1, Machine: 2}, Serial: 3}
	group := domain.DeviceGroup{
		Identity: id,
		Members: []domain.DeviceIdentification{
			{Machine: &domain.DeviceMachineIdentification{MachineIdentificationUnique: id, Role: roleSpool}},
			{Machine: &domain.DeviceMachineIdentification{MachineIdentificationUnique: id, Role: roleSpool}},
		},
	}
	require.ErrorIs(t, ValidateGroup(group), errcode.DuplicateRole)
}

func TestRequireRoleMissing(t *testing.T) {
	group := domain.DeviceGroup{}
	_, err := RequireRole(group, roleSpool)
	require.ErrorIs(t, err, errcode.MissingRole)
}

func TestConstructUnregisteredMachineIsInvalidConfig(t *testing.T) {
	group := domain.DeviceGroup{Identity: domain.MachineIdentificationUnique{MachineIdentification: domain.MachineIdentification{Vendor: 99, Machine: 99}}}
	b := eventbus.NewBus(4)
	_, err := Construct(group, nil, b.Namespace("x"), nil)
	require.ErrorIs(t, err, errcode.InvalidConfig)
}

func TestRegisterAndLookup(t *testing.T) {
	id := domain.MachineIdentification{Vendor: 42, Machine: 7}
	Register(id, func(group domain.DeviceGroup, hw Hardware, ns *eventbus.Namespace, inbound <-chan any) (Machine, error) {
		return stubMachine{}, nil
	})
	ctor, ok := Lookup(id)
	require.True(t, ok)
	m, err := ctor(domain.DeviceGroup{}, nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, m.Act(0))
}

func TestHardwareDeviceMissingRole(t *testing.T) {
	hw := Hardware{}
	_, err := hw.Device(roleSpool)
	require.ErrorIs(t, err, errcode.MissingRole)
}

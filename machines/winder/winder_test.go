package winder

import (
	"testing"
	"time"

	"machinectl/control"
	"machinectl/devicecatalog"
	"machinectl/domain"
	"machinectl/eventbus"
	"machinectl/ioh"
	"machinectl/machines"
	"machinectl/registry"
	"machinectl/units"

	"github.com/stretchr/testify/require"
)

func decodeAnalog(d *devicecatalog.EL30xxAnalogInput, normalized float32) {
	image := make([]byte, d.InputLen())
	raw := int16(normalized * 32767)
	image[2] = byte(uint16(raw) >> 8)
	image[3] = byte(uint16(raw))
	_ = d.DecodeInput(image)
}

func TestTensionArmRemapsPastFullTurn(t *testing.T) {
	in := devicecatalog.NewEL30xxAnalogInput(devicecatalog.Identity{}, 1)
	decodeAnalog(in, 0.75) // normalized/2+0.5 = 0.875 rev = 315 deg, displayed as 315-360 = -45 deg
	arm := NewTensionArm(ioh.NewAnalogInput(in, 1))

	deg := arm.DisplayDegrees()
	require.InDelta(t, -45, deg, 0.01)

	decodeAnalog(in, -0.25) // 0.375 rev = 135 deg, used as zero
	arm.Zero()
	require.True(t, arm.Zeroed())

	decodeAnalog(in, 0.75)
	// angle relative to zero: 0.875 - 0.375 = 0.5 rev = 180 deg
	require.InDelta(t, 180, arm.DisplayDegrees(), 0.01)
}

func TestTensionArmScenarioFourRemap(t *testing.T) {
	in := devicecatalog.NewEL30xxAnalogInput(devicecatalog.Identity{}, 1)
	arm := NewTensionArm(ioh.NewAnalogInput(in, 1))

	// normalized 0.875 -> raw angle 0.875/2+0.5 = 0.9375 rev = 337.5 deg,
	// which DisplayDegrees remaps to 337.5-360 = -22.5 deg.
	decodeAnalog(in, 0.875)
	require.InDelta(t, -22.5, arm.DisplayDegrees(), 0.01)
}

func TestAutomaticActionStopsAfter100Meters(t *testing.T) {
	start := time.Unix(1000, 0)
	a := NewAutomaticAction(start)
	a.Mode = AutoHold
	a.TargetLength = 100

	now := start
	var triggered Mode
	var ok bool
	for i := 0; i < 100; i++ {
		now = now.Add(time.Second)
		triggered, ok = a.Update(now, ModePull, 1.0)
		if ok {
			break
		}
	}
	require.True(t, ok)
	require.Equal(t, ModeHold, triggered)
	require.Equal(t, float64(0), a.Progress())
}

func TestAutomaticActionIgnoresStandby(t *testing.T) {
	start := time.Unix(1000, 0)
	a := NewAutomaticAction(start)
	a.Mode = AutoPull
	a.TargetLength = 1

	_, ok := a.Update(start.Add(time.Minute), ModeStandby, 10)
	require.False(t, ok)
}

func buildTestGroup(serial uint16) (domain.DeviceGroup, registry.Hardware) {
	id := domain.MachineIdentificationUnique{MachineIdentification: machines.WinderV1(), Serial: serial}

	spool := devicecatalog.NewWago750671Stepper()
	puller := devicecatalog.NewWago750671Stepper()
	traverse := devicecatalog.NewWago750671Stepper()
	endstop := devicecatalog.NewEL1008()
	tension := devicecatalog.NewEL30xxAnalogInput(devicecatalog.Identity{}, 1)

	member := func(role uint16) domain.DeviceIdentification {
		return domain.DeviceIdentification{
			Machine: &domain.DeviceMachineIdentification{MachineIdentificationUnique: id, Role: role},
		}
	}

	group := domain.DeviceGroup{
		Identity: id,
		Members: []domain.DeviceIdentification{
			member(machines.RoleWinderSpoolStepper),
			member(machines.RoleWinderPullerStepper),
			member(machines.RoleWinderTraverseStepper),
			member(machines.RoleWinderTraverseEndstop),
			member(machines.RoleWinderTensionArmInput),
		},
	}

	hw := registry.Hardware{
		machines.RoleWinderSpoolStepper:    spool,
		machines.RoleWinderPullerStepper:   puller,
		machines.RoleWinderTraverseStepper: traverse,
		machines.RoleWinderTraverseEndstop: endstop,
		machines.RoleWinderTensionArmInput: tension,
	}
	return group, hw
}

func TestConstructBuildsFromCompleteGroup(t *testing.T) {
	group, hw := buildTestGroup(1)
	b := eventbus.NewBus(8)
	ns := b.Namespace("winder-1")
	inbound := make(chan any, 4)

	m, err := construct(group, hw, ns, inbound)
	require.NoError(t, err)
	require.NotNil(t, m)

	w := m.(*Winder)
	require.Equal(t, ModeStandby, w.mode)
}

func TestConstructMissingRoleFails(t *testing.T) {
	group, hw := buildTestGroup(1)
	delete(hw, machines.RoleWinderTensionArmInput)
	group.Members = group.Members[:len(group.Members)-1]

	b := eventbus.NewBus(8)
	_, err := construct(group, hw, b.Namespace("winder-2"), make(chan any, 1))
	require.Error(t, err)
}

func TestWindRequiresZeroedAndHomed(t *testing.T) {
	group, hw := buildTestGroup(2)
	b := eventbus.NewBus(8)
	ns := b.Namespace("winder-3")
	inbound := make(chan any, 4)

	m, err := construct(group, hw, ns, inbound)
	require.NoError(t, err)
	w := m.(*Winder)

	now := time.Now()
	w.setMode(now, ModeWind)
	require.Equal(t, ModeStandby, w.mode, "wind must be refused before homing/zeroing")

	w.tension.Zero()
	w.traverse.state = StateIdle // simulate completed homing
	w.setMode(now, ModeWind)
	require.Equal(t, ModeWind, w.mode)
}

func TestStepConverterRoundTrip(t *testing.T) {
	conv := control.NewLinearStepConverter(200, units.Millimeters(15))
	steps := conv.LinearVelocityToSteps(units.MetersPerSecond(0.1))
	back := conv.StepsToLinearVelocity(steps)
	require.InDelta(t, 0.1, back.MetersPerSecond(), 1e-9)
}

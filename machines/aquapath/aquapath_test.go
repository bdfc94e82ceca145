package aquapath

import (
	"testing"
	"time"

	"machinectl/devicecatalog"
	"machinectl/domain"
	"machinectl/eventbus"
	"machinectl/ioh"
	"machinectl/machines"
	"machinectl/registry"

	"github.com/stretchr/testify/require"
)

func buildTestGroup(serial uint16) (domain.DeviceGroup, registry.Hardware) {
	id := domain.MachineIdentificationUnique{MachineIdentification: machines.AquaPathV1(), Serial: serial}

	member := func(role uint16) domain.DeviceIdentification {
		return domain.DeviceIdentification{
			Machine: &domain.DeviceMachineIdentification{MachineIdentificationUnique: id, Role: role},
		}
	}

	group := domain.DeviceGroup{
		Identity: id,
		Members: []domain.DeviceIdentification{
			member(machines.RoleAquaPathTempFront),
			member(machines.RoleAquaPathTempBack),
			member(machines.RoleAquaPathHeaterOutput),
		},
	}

	hw := registry.Hardware{
		machines.RoleAquaPathTempFront:    devicecatalog.NewEL3204(),
		machines.RoleAquaPathTempBack:     devicecatalog.NewEL3204(),
		machines.RoleAquaPathHeaterOutput: devicecatalog.NewEL2024(),
	}
	return group, hw
}

func TestConstructAquaPath(t *testing.T) {
	group, hw := buildTestGroup(1)
	b := eventbus.NewBus(8)
	m, err := construct(group, hw, b.Namespace("aquapath-1"), make(chan any, 1))
	require.NoError(t, err)

	a := m.(*AquaPath)
	require.Equal(t, ModeStandby, a.mode)
	require.NoError(t, m.Act(time.Now().UnixNano()))
}

// setTemp decodes an EL3204 input image reporting celsius on channel 1.
func setTemp(d *devicecatalog.EL3204, celsius float64) {
	image := make([]byte, d.InputLen())
	raw := int16(celsius * 10)
	image[2] = byte(uint16(raw) >> 8)
	image[3] = byte(uint16(raw))
	_ = d.DecodeInput(image)
}

func TestDeadBandHoldsBetweenThresholds(t *testing.T) {
	temp := devicecatalog.NewEL3204()
	out := devicecatalog.NewEL2024()
	c := NewDeadBandController("front", ioh.NewTemperatureInput(temp, 1), ioh.NewDigitalOutput(out, 1), 0.5)
	c.Target = 40

	setTemp(temp, 30)
	c.Update(true)
	require.True(t, c.Heating())

	setTemp(temp, 40.2) // inside the dead band, should hold the prior state
	c.Update(true)
	require.True(t, c.Heating())

	setTemp(temp, 41)
	c.Update(true)
	require.False(t, c.Heating())
}

func TestDisabledForcesHeaterOff(t *testing.T) {
	group, hw := buildTestGroup(2)
	b := eventbus.NewBus(8)
	inbound := make(chan any, 2)
	m, err := construct(group, hw, b.Namespace("aquapath-2"), inbound)
	require.NoError(t, err)
	a := m.(*AquaPath)
	a.front.Target = 100
	a.front.lastTemp = 10 // well below target, would heat if enabled

	require.NoError(t, m.Act(time.Now().UnixNano()))
	require.False(t, a.front.Heating())

	inbound <- SetModeCommand{Mode: ModeAuto}
	require.NoError(t, m.Act(time.Now().UnixNano()))
	require.True(t, a.front.Heating())
}

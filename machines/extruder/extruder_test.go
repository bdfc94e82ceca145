package extruder

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
	id := domain.MachineIdentificationUnique{MachineIdentification: machines.ExtruderV1(), Serial: serial}

	member := func(role uint16) domain.DeviceIdentification {
		return domain.DeviceIdentification{
			Machine: &domain.DeviceMachineIdentification{MachineIdentificationUnique: id, Role: role},
		}
	}

	group := domain.DeviceGroup{
		Identity: id,
		Members: []domain.DeviceIdentification{
			member(machines.RoleExtruderTempBank),
			member(machines.RoleExtruderHeaterOut),
			member(machines.RoleExtruderPressure),
			member(machines.RoleExtruderScrewDrive),
		},
	}

	hw := registry.Hardware{
		machines.RoleExtruderTempBank:   devicecatalog.NewEL3204(),
		machines.RoleExtruderHeaterOut:  devicecatalog.NewEL2008(),
		machines.RoleExtruderPressure:   devicecatalog.NewEL30xxAnalogInput(devicecatalog.Identity{}, 1),
		machines.RoleExtruderScrewDrive: devicecatalog.NewEL2522PulseTrain(),
	}
	return group, hw
}

func TestConstructExtruder(t *testing.T) {
	group, hw := buildTestGroup(1)
	b := eventbus.NewBus(8)
	m, err := construct(group, hw, b.Namespace("extruder-1"), make(chan any, 1))
	require.NoError(t, err)

	ex := m.(*Extruder)
	require.Equal(t, ModeStandby, ex.mode)
	require.NoError(t, m.Act(time.Now().UnixNano()))
}

func TestHeaterZoneStaysOffWhenDisabled(t *testing.T) {
	temp := devicecatalog.NewEL3204()
	out := devicecatalog.NewEL2008()
	z := NewHeaterZone("front", ioh.NewTemperatureInput(temp, machines.PortExtruderFront), ioh.NewDigitalOutput(out, machines.PortExtruderFront), 1, 0, 0)
	z.SetTarget(200)

	z.Update(time.Now(), false)
	require.False(t, z.Heating())
	require.False(t, out.Get(machines.PortExtruderFront))
}

func TestScrewControllerClampsPressureOutput(t *testing.T) {
	drive := devicecatalog.NewEL2522PulseTrain()
	s := NewScrewController(ioh.NewPulseTrainOutput(drive), 1000, 0, 0)
	s.Mode = ScrewPressureRegulated
	s.TargetPressure = 1000 // absurdly high to saturate the controller

	now := time.Now()
	s.Update(now, 0)
	require.LessOrEqual(t, s.OutputHz(), float64(maxScrewHz))
	require.GreaterOrEqual(t, s.OutputHz(), float64(minScrewHz))
}

func TestPressureLimitForcesHeatingAndScrewOff(t *testing.T) {
	group, hw := buildTestGroup(2)
	b := eventbus.NewBus(8)
	inbound := make(chan any, 4)
	m, err := construct(group, hw, b.Namespace("extruder-2"), inbound)
	require.NoError(t, err)
	ex := m.(*Extruder)

	inbound <- SetModeCommand{Mode: ModeExtrude}
	inbound <- SetPressureLimitCommand{Enabled: true, LimitBar: 0} // any reading trips it

	require.NoError(t, m.Act(time.Now().UnixNano()))
	require.True(t, ex.pressureLimited)
	require.Equal(t, float64(0), ex.screw.OutputHz())
	require.False(t, ex.front.Heating())
}

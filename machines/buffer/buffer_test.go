package buffer

import (
	"testing"
	"time"

	"machinectl/devicecatalog"
	"machinectl/domain"
	"machinectl/eventbus"
	"machinectl/machines"
	"machinectl/registry"
	"machinectl/machines/winder"

	"github.com/stretchr/testify/require"
)

func buildTestGroup(serial uint16) (domain.DeviceGroup, registry.Hardware) {
	id := domain.MachineIdentificationUnique{MachineIdentification: machines.BufferV1(), Serial: serial}

	member := func(role uint16) domain.DeviceIdentification {
		return domain.DeviceIdentification{
			Machine: &domain.DeviceMachineIdentification{MachineIdentificationUnique: id, Role: role},
		}
	}

	group := domain.DeviceGroup{
		Identity: id,
		Members: []domain.DeviceIdentification{
			member(machines.RoleBufferLiftInput),
			member(machines.RoleBufferPullOutput),
		},
	}

	hw := registry.Hardware{
		machines.RoleBufferLiftInput:  devicecatalog.NewEL30xxAnalogInput(devicecatalog.Identity{}, 1),
		machines.RoleBufferPullOutput: devicecatalog.NewWago750671Stepper(),
	}
	return group, hw
}

func TestConstructBuffer(t *testing.T) {
	group, hw := buildTestGroup(1)
	b := eventbus.NewBus(8)
	m, err := construct(group, hw, b.Namespace("buffer-1"), make(chan any, 1))
	require.NoError(t, err)

	buf := m.(*Buffer)
	require.Equal(t, ModeStandby, buf.mode)
	require.NoError(t, m.Act(time.Now().UnixNano()))
}

func TestBufferPullsUpstreamSpeedByIdentifier(t *testing.T) {
	bus := eventbus.NewBus(8)
	winderNS := bus.Namespace("winder-1")
	winderNS.Configure(winder.EventLiveValues, eventbus.PolicyConfig{Policy: eventbus.CacheOne})
	winderNS.Emit(winder.EventLiveValues, winder.LiveValuesEvent{PullerSpeedMps: 0.2}, time.Now())
	RegisterUpstream("winder-1", winderNS)

	group, hw := buildTestGroup(2)
	inbound := make(chan any, 2)
	m, err := construct(group, hw, bus.Namespace("buffer-2"), inbound)
	require.NoError(t, err)
	buf := m.(*Buffer)

	inbound <- SetUpstreamCommand{ID: "winder-1"}
	inbound <- SetModeCommand{Mode: ModeAuto}
	require.NoError(t, m.Act(time.Now().UnixNano()))

	require.True(t, buf.upstreamLinked)
	require.InDelta(t, 0.2, buf.lastUpstreamMps, 0.001)
}

func TestBufferStandbyStopsPull(t *testing.T) {
	group, hw := buildTestGroup(3)
	bus := eventbus.NewBus(8)
	m, err := construct(group, hw, bus.Namespace("buffer-3"), make(chan any, 1))
	require.NoError(t, err)
	buf := m.(*Buffer)

	require.NoError(t, m.Act(time.Now().UnixNano()))
	require.Equal(t, float64(0), buf.lastPullMps)
}

package discovery

import (
	"context"
	"errors"
	"net"
	"testing"

	"machinectl/domain"

	"github.com/stretchr/testify/require"
)

func addr(sub uint16) domain.DeviceAddress {
	return domain.DeviceAddress{Kind: domain.AddressEtherCAT, SubIndex: sub}
}

func TestComputeDiffAddedRemovedSame(t *testing.T) {
	prev := []domain.DeviceIdentification{{Address: addr(1)}, {Address: addr(2)}}
	curr := []domain.DeviceIdentification{{Address: addr(2)}, {Address: addr(3)}}
	diff := ComputeDiff(prev, curr)
	require.Len(t, diff.Added, 1)
	require.Equal(t, addr(3), diff.Added[0].Address)
	require.Len(t, diff.Removed, 1)
	require.Equal(t, addr(1), diff.Removed[0].Address)
	require.Len(t, diff.Same, 1)
	require.Equal(t, addr(2), diff.Same[0].Address)
}

func TestIdentityRoundTrip(t *testing.T) {
	id := &domain.DeviceMachineIdentification{
		MachineIdentificationUnique: domain.MachineIdentificationUnique{
			MachineIdentification: domain.MachineIdentification{Vendor: 7, Machine: 3},
			Serial:                 42,
		},
		Role: 1,
	}
	block := EncodeIdentity(id)
	require.Len(t, block, IdentityBlockSize)
	got, err := DecodeIdentity(block)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestDecodeIdentityAllZeroIsUnassigned(t *testing.T) {
	got, err := DecodeIdentity(make([]byte, IdentityBlockSize))
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestGroupByMachineSkipsUnassigned(t *testing.T) {
	id := domain.MachineIdentificationUnique{MachineIdentification: domain.MachineIdentification{Vendor: 1, Machine: 2}, Serial: 3}
	devices := []domain.DeviceIdentification{
		{Address: addr(1), Machine: &domain.DeviceMachineIdentification{MachineIdentificationUnique: id, Role: 1}},
		{Address: addr(2), Machine: &domain.DeviceMachineIdentification{MachineIdentificationUnique: id, Role: 2}},
		{Address: addr(3)},
	}
	groups := GroupByMachine(devices)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Members, 2)
}

func TestIsCompleteRequiresAllRoles(t *testing.T) {
	id := domain.MachineIdentificationUnique{MachineIdentification: domain.MachineIdentification{Vendor: 1, Machine: 2}, Serial: 3}
	group := domain.DeviceGroup{Identity: id, Members: []domain.DeviceIdentification{
		{Machine: &domain.DeviceMachineIdentification{MachineIdentificationUnique: id, Role: 1}},
	}}
	require.False(t, IsComplete(group, RequiredRoles{1: true, 2: true}))
	require.True(t, IsComplete(group, RequiredRoles{1: true}))
}

func TestCandidateAddrsCapsAtSlash24(t *testing.T) {
	addrs := CandidateAddrs(net.IPv4(192, 168, 1, 0), net.CIDRMask(16, 32))
	require.Len(t, addrs, 256) // capped at /24 even though mask is /16
}

type fakeProber struct{ accept map[string]bool }

func (f fakeProber) ReadSerial(ctx context.Context, addr net.TCPAddr) (uint32, uint32, error) {
	if f.accept[addr.String()] {
		return 0x27872144, 0, nil
	}
	return 0, 0, errors.New("no responder")
}

func TestProbeSubnetFiltersByMagic(t *testing.T) {
	candidates := CandidateAddrs(net.IPv4(10, 0, 0, 0), net.CIDRMask(24, 32))
	target := candidates[5]
	prober := fakeProber{accept: map[string]bool{target.String(): true}}
	found := ProbeSubnet(context.Background(), prober, candidates, MagicSerialCheck{Serial1: 0x27872144})
	require.Len(t, found, 1)
	require.Equal(t, target, found[0])
}

package laser

import (
	"encoding/binary"
	"testing"
	"time"

	"machinectl/eventbus"
	"machinectl/serial"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	reading uint16
}

func (f *fakeClient) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	return nil, nil
}

func (f *fakeClient) ReadInputRegisters(address, quantity uint16) ([]byte, error) {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, f.reading)
	return buf, nil
}

func (f *fakeClient) WriteSingleRegister(address, value uint16) ([]byte, error) {
	return nil, nil
}

func newTestWorker(reading uint16) *serial.Worker {
	w := serial.NewWorker("laser-test", &fakeClient{reading: reading}, nil, zerolog.Nop(), nil)
	go w.Run(make(chan struct{}))
	return w
}

func TestLaserMachinePublishesDiameterAfterTwoCycles(t *testing.T) {
	worker := newTestWorker(1750) // 1750 micrometers -> 1.75mm
	bus := eventbus.NewBus(8)
	l := NewLaserMachine(worker, 0, bus.Namespace("laser-1"), LaserTarget{Diameter: 1.75, HigherTolerance: 0.05, LowerTolerance: 0.05})

	require.NoError(t, l.Act(time.Now().UnixNano()))
	// Give the worker goroutine a chance to service the submitted read.
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, l.Act(time.Now().UnixNano()))

	d, ok := l.DiameterMM()
	require.True(t, ok)
	require.InDelta(t, 1.75, d, 0.001)
}

func TestLaserMachineOutOfToleranceReadingIsNotInTolerance(t *testing.T) {
	worker := newTestWorker(2000) // 2.0mm, well outside tolerance of a 1.75mm target
	bus := eventbus.NewBus(8)
	l := NewLaserMachine(worker, 0, bus.Namespace("laser-2"), LaserTarget{Diameter: 1.75, HigherTolerance: 0.05, LowerTolerance: 0.05})

	require.NoError(t, l.Act(time.Now().UnixNano()))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, l.Act(time.Now().UnixNano()))

	require.False(t, l.inTol)
}

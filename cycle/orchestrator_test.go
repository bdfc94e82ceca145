package cycle

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"machinectl/actor"
	"machinectl/devicecatalog"
	"machinectl/errcode"
	"machinectl/fieldbus"
)

type fakeMaster struct {
	txRxErr error
	txRxCalls int
}

func (f *fakeMaster) Scan() ([]fieldbus.SubDevice, error) { return nil, nil }
func (f *fakeMaster) Configure(fieldbus.Group, []devicecatalog.Device) error { return nil }
func (f *fakeMaster) TxRx(group fieldbus.Group, outputs, inputs []byte, deadline time.Duration) error {
	f.txRxCalls++
	return f.txRxErr
}
func (f *fakeMaster) PropagationDelays(fieldbus.Group) map[fieldbus.Address]time.Duration {
	return map[fieldbus.Address]time.Duration{}
}

type machineFunc func(nowNs int64) error

func (f machineFunc) Act(nowNs int64) error { return f(nowNs) }
func (f machineFunc) Close() error          { return nil }

func TestRunOnceDecodesRunsMachinesAndEncodes(t *testing.T) {
	in := devicecatalog.NewEL1008()
	out := devicecatalog.NewEL2008()
	group := fieldbus.Group{Devices: []fieldbus.SubDevice{
		{Addr: 1, InputOffset: 0, InputLen: in.InputLen()},
		{Addr: 2, OutputOffset: 0, OutputLen: out.OutputLen()},
	}}
	devices := []Device{
		{Sub: group.Devices[0], Object: in},
		{Sub: group.Devices[1], Object: out},
	}

	master := &fakeMaster{}
	runner := actor.NewRunner(zerolog.Nop())
	o := NewOrchestrator(master, group, devices, runner, time.Millisecond, zerolog.Nop())

	var acted bool
	o.AddMachine("test", machineFunc(func(nowNs int64) error { acted = true; return nil }))

	o.runOnce(time.Now())

	require.Equal(t, 1, master.txRxCalls)
	require.True(t, acted)
}

func TestRunOnceSkipsDecodeAndMachinesOnTxRxError(t *testing.T) {
	master := &fakeMaster{txRxErr: errcode.BusError}
	runner := actor.NewRunner(zerolog.Nop())
	o := NewOrchestrator(master, fieldbus.Group{}, nil, runner, time.Millisecond, zerolog.Nop())

	var acted bool
	o.AddMachine("test", machineFunc(func(nowNs int64) error { acted = true; return nil }))

	o.runOnce(time.Now())

	require.False(t, acted)
}

func TestStepMachineIsolatesPanic(t *testing.T) {
	master := &fakeMaster{}
	runner := actor.NewRunner(zerolog.Nop())
	o := NewOrchestrator(master, fieldbus.Group{}, nil, runner, time.Millisecond, zerolog.Nop())
	o.AddMachine("panicky", machineFunc(func(nowNs int64) error { panic("boom") }))

	require.NotPanics(t, func() { o.runOnce(time.Now()) })
}

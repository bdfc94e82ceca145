package software

import (
	"testing"
	"time"

	"machinectl/devicecatalog"
	"machinectl/fieldbus"

	"github.com/stretchr/testify/require"
)

func TestTxRxLoopsOutputsBackAsInputs(t *testing.T) {
	do := devicecatalog.NewEL2008()
	di := devicecatalog.NewEL1008()
	m := New()
	group := fieldbus.Group{Devices: []fieldbus.SubDevice{
		{OutputOffset: 0, OutputLen: do.OutputLen()},
		{InputOffset: 0, InputLen: di.InputLen()},
	}}
	require.NoError(t, m.Configure(group, []devicecatalog.Device{do, di}))

	do.Set(1, true)
	out := make([]byte, do.OutputLen())
	do.EncodeOutput(out)

	in := make([]byte, di.InputLen())
	require.NoError(t, m.TxRx(group, out, in, 5*time.Millisecond))
	require.NoError(t, di.DecodeInput(in))
	require.True(t, di.Get(1))
}

func TestInjectedBusErrorSurfacesForNCalls(t *testing.T) {
	m := New()
	group := fieldbus.Group{}
	require.NoError(t, m.Configure(group, nil))
	m.InjectFault(FaultBusError, 2)

	buf := make([]byte, 0)
	require.Error(t, m.TxRx(group, buf, buf, time.Millisecond))
	require.Error(t, m.TxRx(group, buf, buf, time.Millisecond))
	require.NoError(t, m.TxRx(group, buf, buf, time.Millisecond))
}

package actor

import (
	"testing"
	"time"

	"machinectl/devicecatalog"
	"machinectl/ioh"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestBlinkerTogglesAfterInterval(t *testing.T) {
	dev := devicecatalog.NewEL2008()
	out := ioh.NewDigitalOutput(dev, 1)
	b := NewBlinker(out, 10*time.Millisecond)

	t0 := time.Unix(0, 0)
	require.NoError(t, b.Act(t0)) // primes lastToggle, no toggle yet
	require.False(t, out.Read())

	require.NoError(t, b.Act(t0.Add(5*time.Millisecond)))
	require.False(t, out.Read()) // interval not elapsed

	require.NoError(t, b.Act(t0.Add(11*time.Millisecond)))
	require.True(t, out.Read())
}

func TestRunnerIsolatesPanics(t *testing.T) {
	log := zerolog.Nop()
	calls := 0
	ok := actorFunc(func(time.Time) error { calls++; return nil })
	panics := actorFunc(func(time.Time) error { panic("boom") })
	r := NewRunner(log, panics, ok)
	require.NotPanics(t, func() { r.RunAll(time.Now()) })
	require.Equal(t, 1, calls)
}

type actorFunc func(time.Time) error

func (f actorFunc) Act(now time.Time) error { return f(now) }

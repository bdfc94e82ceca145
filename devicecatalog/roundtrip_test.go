package devicecatalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigitalOutputRoundTrip(t *testing.T) {
	d := NewEL2634()
	d.Set(3, true)
	d.Set(16, true)
	img := make([]byte, d.OutputLen())
	d.EncodeOutput(img)

	d2 := NewEL2634()
	require.NoError(t, d2.DecodeInput(nil)) // no-op, digital outputs have no TX-PDO
	for ch := 1; ch <= 16; ch++ {
		want := ch == 3 || ch == 16
		require.Equal(t, want, getBit(img, (ch-1)/8, (ch-1)%8))
	}
}

func TestDigitalInputDecode(t *testing.T) {
	d := NewEL1008()
	img := []byte{0b0000_0101}
	require.NoError(t, d.DecodeInput(img))
	require.True(t, d.Get(1))
	require.False(t, d.Get(2))
	require.True(t, d.Get(3))
	require.False(t, d.Get(4))
}

func TestEL4008RoundTripViaNormalized(t *testing.T) {
	d := NewEL4008()
	require.NoError(t, d.SetNormalized(1, 0.5))
	img := make([]byte, d.OutputLen())
	d.EncodeOutput(img)

	got := getI16BE(img, 0)
	want := i16FromF32(0.5)
	require.Equal(t, want, got)
	require.InDelta(t, 0.5, f32FromI16(got), 0.001)
}

func TestEL3204DecodesTenthDegree(t *testing.T) {
	d := NewEL3204()
	img := make([]byte, d.InputLen())
	setI16BE(img, 2, 2345) // channel 1: 234.5 C
	require.NoError(t, d.DecodeInput(img))
	r, err := d.Get(1)
	require.NoError(t, err)
	require.InDelta(t, 234.5, r.Celsius, 0.001)
}

func TestStepperStateMachineTransitions(t *testing.T) {
	d := NewWago750671Stepper()
	require.Equal(t, StepperNotReady, d.State())

	d.SetEnabled(true)
	img := make([]byte, d.InputLen())
	setI16BE(img, 0, 1<<statusReadyBit|1<<statusEnabledBit)
	require.NoError(t, d.DecodeInput(img))
	require.Equal(t, StepperEnabled, d.State())

	d.SetVelocity(500)
	out := make([]byte, d.OutputLen())
	d.EncodeOutput(out)
	require.Equal(t, int16(500), getI16BE(out, 2))
}

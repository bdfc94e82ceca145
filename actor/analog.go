package actor

import (
	"time"

	"machinectl/ioh"

	"github.com/rs/zerolog"
)

// AnalogLogger emits the measured value of an analog input at a fixed
// interval, regardless of change, matching the teacher's periodic
// telemetry actors. Grounded on
// original_source/ethercat-hal/src/actors/analog_input_getter.rs.
type AnalogLogger struct {
	name     string
	in       ioh.AnalogInput
	interval time.Duration
	last     time.Time
	log      zerolog.Logger
}

func NewAnalogLogger(name string, in ioh.AnalogInput, interval time.Duration, log zerolog.Logger) *AnalogLogger {
	return &AnalogLogger{name: name, in: in, interval: interval, log: log}
}

func (a *AnalogLogger) Act(now time.Time) error {
	if !a.last.IsZero() && now.Sub(a.last) < a.interval {
		return nil
	}
	a.last = now
	v, err := a.in.Read()
	if err != nil {
		return err
	}
	a.log.Info().Str("input", a.name).Float32("value", v).Bool("wiring_error", a.in.WiringError()).Msg("analog reading")
	return nil
}

// TemperatureLogger emits RTD channel readings at a fixed interval.
// Grounded on
// original_source/ethercat-hal/src/actors/temperature_input_logger.rs.
type TemperatureLogger struct {
	name     string
	in       ioh.TemperatureInput
	interval time.Duration
	last     time.Time
	log      zerolog.Logger
}

func NewTemperatureLogger(name string, in ioh.TemperatureInput, interval time.Duration, log zerolog.Logger) *TemperatureLogger {
	return &TemperatureLogger{name: name, in: in, interval: interval, log: log}
}

func (t *TemperatureLogger) Act(now time.Time) error {
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return nil
	}
	t.last = now
	r, err := t.in.Read()
	if err != nil {
		return err
	}
	t.log.Info().Str("input", t.name).Float64("celsius", r.Celsius).Bool("error", r.Error).Msg("temperature reading")
	return nil
}

// VelocityStepper drives a StepperVelocity handle toward whatever target
// is currently staged by SetTarget, enabling the drive on first nonzero
// target and disabling it when commanded off. Grounded on
// original_source/ethercat-hal/src/actors/stepper_driver.rs.
type VelocityStepper struct {
	out    ioh.StepperVelocity
	target int16
	on     bool
}

func NewVelocityStepper(out ioh.StepperVelocity) *VelocityStepper {
	return &VelocityStepper{out: out}
}

func (v *VelocityStepper) SetTarget(stepsPerSec int16) { v.target = stepsPerSec }
func (v *VelocityStepper) SetEnabled(on bool)           { v.on = on }

func (v *VelocityStepper) Act(time.Time) error {
	if v.on {
		v.out.Enable()
	} else {
		v.out.Disable()
	}
	v.out.SetVelocity(v.target)
	return nil
}

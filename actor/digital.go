package actor

import (
	"time"

	"machinectl/ioh"

	"github.com/rs/zerolog"
)

// Blinker toggles a digital output at a fixed interval. Grounded on
// original_source/ethercat-hal/src/actors/digital_output_blinker.rs.
type Blinker struct {
	out         ioh.DigitalOutput
	interval    time.Duration
	lastToggle  time.Time
	enabled     bool
}

func NewBlinker(out ioh.DigitalOutput, interval time.Duration) *Blinker {
	return &Blinker{out: out, interval: interval, enabled: true}
}

func (b *Blinker) SetInterval(d time.Duration) { b.interval = d }
func (b *Blinker) SetEnabled(on bool)            { b.enabled = on }

func (b *Blinker) Act(now time.Time) error {
	if !b.enabled {
		return nil
	}
	if b.lastToggle.IsZero() {
		b.lastToggle = now
		return nil
	}
	if now.Sub(b.lastToggle) >= b.interval {
		b.out.Write(!b.out.Read())
		b.lastToggle = now
	}
	return nil
}

// DigitalSetter forces a digital output to whatever value is currently
// staged by SetTarget; useful for command-driven outputs.
// Grounded on
// original_source/ethercat-hal/src/actors/digital_output_setter.rs.
type DigitalSetter struct {
	out    ioh.DigitalOutput
	target bool
}

func NewDigitalSetter(out ioh.DigitalOutput) *DigitalSetter { return &DigitalSetter{out: out} }

func (s *DigitalSetter) SetTarget(v bool) { s.target = v }

func (s *DigitalSetter) Act(time.Time) error {
	s.out.Write(s.target)
	return nil
}

// DigitalLogger logs a digital input's value whenever it changes.
// Grounded on
// original_source/ethercat-hal/src/actors/digital_input_logger.rs.
type DigitalLogger struct {
	name string
	in   ioh.DigitalInput
	log  zerolog.Logger
	last bool
	have bool
}

func NewDigitalLogger(name string, in ioh.DigitalInput, log zerolog.Logger) *DigitalLogger {
	return &DigitalLogger{name: name, in: in, log: log}
}

func (d *DigitalLogger) Act(time.Time) error {
	v := d.in.Read()
	if !d.have || v != d.last {
		d.log.Info().Str("input", d.name).Bool("value", v).Msg("digital input changed")
		d.last = v
		d.have = true
	}
	return nil
}

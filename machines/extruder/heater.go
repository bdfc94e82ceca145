package extruder

import (
	"time"

	"machinectl/control"
	"machinectl/ioh"
)

// HeaterPeriod is the software-PWM period every heating zone time-
// proportions its SSR output over.
const HeaterPeriod = time.Second

// HeaterZone is one independently-controlled heating zone: an RTD input,
// a PID loop computing a duty cycle in [0, 1], and an SSR digital output
// switched on a fixed-period time-proportioning window. Grounded on
// original_source/server/src/machines/extruder1/act.rs's four
// temperature_controller_* fields (front/middle/back/nozzle), each
// driving one SSR channel.
type HeaterZone struct {
	name   string
	temp   ioh.TemperatureInput
	ssr    ioh.DigitalOutput
	pid    *control.PID
	target float64 // degrees C

	duty        float64
	periodStart time.Time
	heating     bool
	lastTemp    float64
}

func NewHeaterZone(name string, temp ioh.TemperatureInput, ssr ioh.DigitalOutput, kp, ki, kd float64) *HeaterZone {
	return &HeaterZone{name: name, temp: temp, ssr: ssr, pid: control.NewPID(kp, ki, kd)}
}

func (z *HeaterZone) SetTarget(c float64) { z.target = c }
func (z *HeaterZone) Target() float64     { return z.target }
func (z *HeaterZone) Heating() bool       { return z.heating }
func (z *HeaterZone) Measured() float64   { return z.lastTemp }

// Update reads the RTD, advances the PID, and drives the SSR according
// to the current position within the time-proportioning window.
func (z *HeaterZone) Update(now time.Time, enabled bool) {
	reading, err := z.temp.Read()
	if err == nil && !reading.Error {
		z.lastTemp = reading.Celsius
	}

	if !enabled {
		z.duty = 0
		z.heating = false
		z.ssr.Write(false)
		return
	}

	errC := z.target - z.lastTemp
	signal := z.pid.Update(now, errC)
	z.duty = clamp01(signal)

	if z.periodStart.IsZero() || now.Sub(z.periodStart) >= HeaterPeriod {
		z.periodStart = now
	}
	onTime := time.Duration(z.duty * float64(HeaterPeriod))
	z.heating = now.Sub(z.periodStart) < onTime
	z.ssr.Write(z.heating)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

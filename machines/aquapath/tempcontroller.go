package aquapath

import (
	"machinectl/ioh"
)

// DeadBandController is a hysteresis thermostat: below target-DeadBand it
// drives the heater on, above target+DeadBand it drives it off, and holds
// its prior output anywhere in between to avoid chattering the SSR.
// Grounded on original_source/server/src/machines/aquapath1/act.rs's
// front_controller/back_controller update call, whose own body was pruned
// from the retrieval pack; the dead-band shape follows spec §4.9's "selects
// heating or cooling" wording applied to this hardware's single heater
// output per zone (no separate active-cooling channel is wired).
type DeadBandController struct {
	name string
	temp ioh.TemperatureInput
	out  ioh.DigitalOutput

	Target   float64
	DeadBand float64

	heating   bool
	lastTemp  float64
}

func NewDeadBandController(name string, temp ioh.TemperatureInput, out ioh.DigitalOutput, deadBand float64) *DeadBandController {
	return &DeadBandController{name: name, temp: temp, out: out, DeadBand: deadBand}
}

// Update reads the zone's temperature and drives its heater output.
// enabled false forces the heater off regardless of measurement.
func (c *DeadBandController) Update(enabled bool) {
	reading, err := c.temp.Read()
	if err == nil && !reading.Error {
		c.lastTemp = reading.Celsius
	}

	if !enabled {
		c.heating = false
		c.out.Write(false)
		return
	}

	switch {
	case c.lastTemp < c.Target-c.DeadBand:
		c.heating = true
	case c.lastTemp > c.Target+c.DeadBand:
		c.heating = false
	}
	c.out.Write(c.heating)
}

func (c *DeadBandController) Measured() float64 { return c.lastTemp }
func (c *DeadBandController) Heating() bool     { return c.heating }

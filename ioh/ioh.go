// Package ioh holds the logical I/O handles actors and machines actually
// depend on: thin (device, port) views that hide which devicecatalog
// codec and which PDO channel back a given signal. This mirrors the
// teacher's core.GPIOHandle/core.PWMHandle function-scoped views, ported
// from RP2040 pins to EtherCAT PDO ports.
package ioh

import "machinectl/devicecatalog"

// DigitalInput reads one boolean channel off a digital input device.
type DigitalInput struct {
	dev  digitalInputDevice
	port int
}

type digitalInputDevice interface {
	Get(ch int) bool
}

func NewDigitalInput(dev digitalInputDevice, port int) DigitalInput {
	return DigitalInput{dev: dev, port: port}
}

func (h DigitalInput) Read() bool { return h.dev.Get(h.port) }

// DigitalOutput drives one boolean channel on a digital output device.
type DigitalOutput struct {
	dev  digitalOutputDevice
	port int
}

type digitalOutputDevice interface {
	Set(ch int, v bool)
	Get(ch int) bool
}

func NewDigitalOutput(dev digitalOutputDevice, port int) DigitalOutput {
	return DigitalOutput{dev: dev, port: port}
}

func (h DigitalOutput) Write(v bool) { h.dev.Set(h.port, v) }
func (h DigitalOutput) Read() bool   { return h.dev.Get(h.port) }

// AnalogInput reads one normalized channel off an analog input device.
type AnalogInput struct {
	dev  analogInputDevice
	port int
}

type analogInputDevice interface {
	Normalized(ch int) (float32, error)
	WiringError(ch int) bool
}

func NewAnalogInput(dev analogInputDevice, port int) AnalogInput {
	return AnalogInput{dev: dev, port: port}
}

func (h AnalogInput) Read() (float32, error) { return h.dev.Normalized(h.port) }
func (h AnalogInput) WiringError() bool       { return h.dev.WiringError(h.port) }

// AnalogOutput drives one normalized channel on an analog output device.
type AnalogOutput struct {
	dev  *devicecatalog.EL4008
	port int
}

func NewAnalogOutput(dev *devicecatalog.EL4008, port int) AnalogOutput {
	return AnalogOutput{dev: dev, port: port}
}

func (h AnalogOutput) Write(v float32) error { return h.dev.SetNormalized(h.port, v) }

// TemperatureInput reads one RTD channel.
type TemperatureInput struct {
	dev  temperatureDevice
	port int
}

type temperatureDevice interface {
	Get(ch int) (devicecatalog.TemperatureReading, error)
}

func NewTemperatureInput(dev temperatureDevice, port int) TemperatureInput {
	return TemperatureInput{dev: dev, port: port}
}

func (h TemperatureInput) Read() (devicecatalog.TemperatureReading, error) {
	return h.dev.Get(h.port)
}

// StepperVelocity wraps a single WAGO 750-671 velocity-mode stepper
// coupler. There is exactly one logical channel per device instance, so
// no port index is needed.
type StepperVelocity struct {
	dev *devicecatalog.Wago750671Stepper
}

func NewStepperVelocity(dev *devicecatalog.Wago750671Stepper) StepperVelocity {
	return StepperVelocity{dev: dev}
}

func (h StepperVelocity) Enable()                      { h.dev.SetEnabled(true) }
func (h StepperVelocity) Disable()                     { h.dev.SetEnabled(false) }
func (h StepperVelocity) SetVelocity(stepsPerSec int16) { h.dev.SetVelocity(stepsPerSec) }
func (h StepperVelocity) State() devicecatalog.StepperState { return h.dev.State() }
func (h StepperVelocity) ActualVelocity() int16             { return h.dev.ActualVelocity() }
func (h StepperVelocity) ActualPosition() int32             { return h.dev.ActualPosition() }

// PulseTrainOutput wraps a step/direction pulse-train output channel.
type PulseTrainOutput struct {
	dev *devicecatalog.EL2522PulseTrain
}

func NewPulseTrainOutput(dev *devicecatalog.EL2522PulseTrain) PulseTrainOutput {
	return PulseTrainOutput{dev: dev}
}

func (h PulseTrainOutput) SetFrequency(hz int16)    { h.dev.SetFrequency(hz) }
func (h PulseTrainOutput) ResetCounter(v uint32)    { h.dev.ResetCounter(v) }
func (h PulseTrainOutput) Counter() uint32           { return h.dev.Counter() }

package devicecatalog

// EL2522PulseTrain is a two-channel step/direction pulse-train output
// terminal: output is a signed frequency setpoint plus a counter-reset
// control bit, input is a free-running 32-bit pulse counter. Grounded on
// original_source/ethercat-hal/src/actors/stepper_driver_pulse_train.rs
// (the PulseTrainOutput seam it drives) — the device-side PDO file itself
// was pruned from the retrieval pack, so the layout below follows the
// Beckhoff EL2521/EL2522 family's documented control/status word shape.
type EL2522PulseTrain struct {
	frequency   int16
	setCounter  bool
	counterSet  uint32
	counterRaw  uint32
}

func NewEL2522PulseTrain() *EL2522PulseTrain { return &EL2522PulseTrain{} }

func (d *EL2522PulseTrain) Identity() Identity { return Identity{Vendor: 0x2, Product: 0x9da3052} }
func (d *EL2522PulseTrain) InputLen() int       { return 4 }
func (d *EL2522PulseTrain) OutputLen() int      { return 8 }

func (d *EL2522PulseTrain) DecodeInput(image []byte) error {
	if err := checkLen(image, d.InputLen()); err != nil {
		return err
	}
	d.counterRaw = uint32(getI16BE(image, 0))<<16 | uint32(uint16(getI16BE(image, 2)))
	return nil
}

func (d *EL2522PulseTrain) EncodeOutput(image []byte) {
	if len(image) < d.OutputLen() {
		return
	}
	var ctrl uint16
	if d.setCounter {
		ctrl |= 0x01
	}
	setI16BE(image, 0, int16(ctrl))
	setI16BE(image, 2, d.frequency)
	setI16BE(image, 4, int16(d.counterSet>>16))
	setI16BE(image, 6, int16(d.counterSet))
	if d.setCounter {
		d.counterApplied()
	}
}

func (d *EL2522PulseTrain) Objects() []PdoObject {
	return []PdoObject{
		{Name: "control_word", ByteOffs: 0, Kind: KindU16},
		{Name: "frequency_value", ByteOffs: 2, Kind: KindI16},
		{Name: "set_counter_value", ByteOffs: 4, Kind: KindU16},
		{Name: "counter_value", ByteOffs: 0, Kind: KindU16},
	}
}

func (d *EL2522PulseTrain) ApplyConfig(CoEWriter) error { return nil }

// SetFrequency sets the signed step frequency (Hz); sign selects direction.
func (d *EL2522PulseTrain) SetFrequency(hz int16) { d.frequency = hz }

// ResetCounter requests the position counter be preset to v on the next
// cycle; the terminal clears the request once applied.
func (d *EL2522PulseTrain) ResetCounter(v uint32) {
	d.setCounter = true
	d.counterSet = v
}

func (d *EL2522PulseTrain) counterApplied() { d.setCounter = false }

// Counter returns the terminal's free-running pulse counter.
func (d *EL2522PulseTrain) Counter() uint32 { return d.counterRaw }

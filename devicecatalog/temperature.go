package devicecatalog

import (
	"fmt"

	"machinectl/errcode"
)

// TemperatureReading is one channel's decoded value, as returned by
// TemperatureInput.get().
type TemperatureReading struct {
	Celsius      float64
	Undervoltage bool
	Overvoltage  bool
	Error        bool
}

// EL3204 is the 4-channel PT100 RTD input terminal. Each channel is a 16-bit
// signed value in 0.1 °C plus a status byte carrying the error/range bits.
// Grounded on original_source/ethercat-hal/src/devices/el3204.rs and
// original_source/ethercat-hal/src/pdo/el30xx.rs.
type EL3204 struct {
	readings [4]TemperatureReading
}

func NewEL3204() *EL3204 {
	return &EL3204{}
}

func (d *EL3204) Identity() Identity { return Identity{Vendor: 0x2, Product: 0xc843052} }
func (d *EL3204) InputLen() int      { return 4 * 4 } // status byte + pad + 2-byte value per channel
func (d *EL3204) OutputLen() int     { return 0 }

func (d *EL3204) DecodeInput(image []byte) error {
	if err := checkLen(image, d.InputLen()); err != nil {
		return err
	}
	for ch := 0; ch < 4; ch++ {
		base := ch * 4
		status := image[base]
		raw := getI16BE(image, base+2)
		r := TemperatureReading{
			Celsius:      float64(raw) / 10.0,
			Undervoltage: status&0x01 != 0,
			Overvoltage:  status&0x02 != 0,
			Error:        status&0x40 != 0,
		}
		d.readings[ch] = r
	}
	return nil
}

func (d *EL3204) EncodeOutput([]byte) {}

func (d *EL3204) Objects() []PdoObject {
	objs := make([]PdoObject, 0, 8)
	for ch := 0; ch < 4; ch++ {
		base := ch * 4
		objs = append(objs,
			PdoObject{Name: fmt.Sprintf("T%d_status", ch+1), ByteOffs: base, Kind: KindU16},
			PdoObject{Name: fmt.Sprintf("T%d_value", ch+1), ByteOffs: base + 2, Kind: KindI16},
		)
	}
	return objs
}

func (d *EL3204) ApplyConfig(CoEWriter) error { return nil }

// Get returns the 1-indexed channel's decoded reading. A channel with the
// Error bit set should be treated as a safe default by the caller.
func (d *EL3204) Get(ch int) (TemperatureReading, error) {
	if ch < 1 || ch > 4 {
		return TemperatureReading{}, errcode.InvalidEnum
	}
	return d.readings[ch-1], nil
}

package devicecatalog

import (
	"fmt"

	"machinectl/errcode"
)

// EL30xxAnalogInput models the Beckhoff EL30xx analog input family: n
// channels, each a status byte plus a 16-bit signed normalized value in
// [-32767, 32767] representing the configured voltage/current range.
// Grounded on original_source/ethercat-hal/src/pdo/analog_input.rs and
// original_source/ethercat-hal/src/io/analog_input/mod.rs.
type EL30xxAnalogInput struct {
	id       Identity
	channels int
	raw      []int16
	wiring   []bool
}

func NewEL30xxAnalogInput(id Identity, channels int) *EL30xxAnalogInput {
	return &EL30xxAnalogInput{id: id, channels: channels, raw: make([]int16, channels), wiring: make([]bool, channels)}
}

func (d *EL30xxAnalogInput) Identity() Identity { return d.id }
func (d *EL30xxAnalogInput) InputLen() int       { return d.channels * 4 }
func (d *EL30xxAnalogInput) OutputLen() int      { return 0 }

func (d *EL30xxAnalogInput) DecodeInput(image []byte) error {
	if err := checkLen(image, d.InputLen()); err != nil {
		return err
	}
	for ch := 0; ch < d.channels; ch++ {
		base := ch * 4
		status := image[base]
		d.wiring[ch] = status&0x01 != 0 // "wiring error" bit, terminal-specific position
		d.raw[ch] = getI16BE(image, base+2)
	}
	return nil
}

func (d *EL30xxAnalogInput) EncodeOutput([]byte) {}

func (d *EL30xxAnalogInput) Objects() []PdoObject {
	objs := make([]PdoObject, 0, d.channels*2)
	for ch := 0; ch < d.channels; ch++ {
		base := ch * 4
		objs = append(objs,
			PdoObject{Name: fmt.Sprintf("AI%d_status", ch+1), ByteOffs: base, Kind: KindU16},
			PdoObject{Name: fmt.Sprintf("AI%d_value", ch+1), ByteOffs: base + 2, Kind: KindI16},
		)
	}
	return objs
}

func (d *EL30xxAnalogInput) ApplyConfig(CoEWriter) error { return nil }

// Normalized returns the 1-indexed channel's value in [-1, 1].
func (d *EL30xxAnalogInput) Normalized(ch int) (float32, error) {
	if ch < 1 || ch > d.channels {
		return 0, errcode.InvalidEnum
	}
	return f32FromI16(d.raw[ch-1]), nil
}

// WiringError reports the 1-indexed channel's wiring-error flag.
func (d *EL30xxAnalogInput) WiringError(ch int) bool {
	if ch < 1 || ch > d.channels {
		return false
	}
	return d.wiring[ch-1]
}

// EL4008 is the 8-channel analog output terminal. Each channel is
// decoded/encoded as a big-endian i16, physical value = raw/32767, not
// the source's f32::from_le_bytes([0,0,hi,lo]) reconstruction.
// Grounded on original_source/ethercat-hal/src/devices/el4008.rs.
type EL4008 struct {
	out [8]float32 // normalized [-1, 1] per channel
}

func NewEL4008() *EL4008 { return &EL4008{} }

func (d *EL4008) Identity() Identity { return Identity{Vendor: 0x2, Product: 0xfa83052} }
func (d *EL4008) InputLen() int      { return 0 }
func (d *EL4008) OutputLen() int     { return 16 } // 2 bytes per channel

func (d *EL4008) DecodeInput([]byte) error { return nil }

func (d *EL4008) EncodeOutput(image []byte) {
	if len(image) < d.OutputLen() {
		return
	}
	for ch := 0; ch < 8; ch++ {
		setI16BE(image, ch*2, i16FromF32(d.out[ch]))
	}
}

func (d *EL4008) Objects() []PdoObject {
	objs := make([]PdoObject, 8)
	for ch := range objs {
		objs[ch] = PdoObject{Name: fmt.Sprintf("AO%d", ch+1), ByteOffs: ch * 2, Kind: KindF32AsI16}
	}
	return objs
}

func (d *EL4008) ApplyConfig(CoEWriter) error { return nil }

// SetNormalized sets the 1-indexed channel's output in [-1, 1].
func (d *EL4008) SetNormalized(ch int, v float32) error {
	if ch < 1 || ch > 8 {
		return errcode.InvalidEnum
	}
	d.out[ch-1] = v
	return nil
}

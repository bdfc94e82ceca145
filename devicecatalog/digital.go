package devicecatalog

import "fmt"

// DigitalInputBlock models the Beckhoff EL1xxx family of n-channel digital
// input terminals (EL1008 is the 8-channel instance used by this catalog).
// Grounded on original_source/ethercat-hal/src/io/digital_input.rs and
// original_source/ethercat-hal/src/pdo/basic.rs.
type DigitalInputBlock struct {
	id       Identity
	channels int
	values   []bool
}

func NewEL1008() *DigitalInputBlock {
	return &DigitalInputBlock{id: Identity{Vendor: 0x2, Product: 0x3f03052}, channels: 8, values: make([]bool, 8)}
}

func (d *DigitalInputBlock) Identity() Identity { return d.id }
func (d *DigitalInputBlock) InputLen() int       { return 1 }
func (d *DigitalInputBlock) OutputLen() int      { return 0 }

func (d *DigitalInputBlock) DecodeInput(image []byte) error {
	if err := checkLen(image, 1); err != nil {
		return err
	}
	for i := 0; i < d.channels; i++ {
		d.values[i] = getBit(image, 0, i)
	}
	return nil
}

func (d *DigitalInputBlock) EncodeOutput([]byte) {}

func (d *DigitalInputBlock) Objects() []PdoObject {
	objs := make([]PdoObject, d.channels)
	for i := range objs {
		objs[i] = PdoObject{Name: fmt.Sprintf("DI%d", i+1), ByteOffs: 0, BitOffs: i, Kind: KindBool}
	}
	return objs
}

func (d *DigitalInputBlock) ApplyConfig(CoEWriter) error { return nil }

// Get returns the latched value of a 1-indexed channel.
func (d *DigitalInputBlock) Get(ch int) bool {
	if ch < 1 || ch > d.channels {
		return false
	}
	return d.values[ch-1]
}

// DigitalOutputBlock models the Beckhoff/WAGO family of n-channel digital
// output terminals (EL2008/EL2024/EL2634/EL2809), each differing only in
// channel count. Grounded on
// original_source/ethercat-hal/src/devices/{el2002,el2024,el2634,el2809}.rs
// and original_source/ethercat-hal/src/io/digital_output.rs.
type DigitalOutputBlock struct {
	id       Identity
	channels int
	imgBytes int
	values   []bool
}

func newDigitalOutputBlock(id Identity, channels int) *DigitalOutputBlock {
	imgBytes := (channels + 7) / 8
	return &DigitalOutputBlock{id: id, channels: channels, imgBytes: imgBytes, values: make([]bool, channels)}
}

func NewEL2008() *DigitalOutputBlock {
	return newDigitalOutputBlock(Identity{Vendor: 0x2, Product: 0x7d83052}, 8)
}
func NewEL2024() *DigitalOutputBlock {
	return newDigitalOutputBlock(Identity{Vendor: 0x2, Product: 0x7e83052}, 4)
}
func NewEL2634() *DigitalOutputBlock {
	return newDigitalOutputBlock(Identity{Vendor: 0x2, Product: 0xa4a3052}, 16)
}
func NewEL2809() *DigitalOutputBlock {
	return newDigitalOutputBlock(Identity{Vendor: 0x2, Product: 0xaf93052}, 16)
}

func (d *DigitalOutputBlock) Identity() Identity { return d.id }
func (d *DigitalOutputBlock) InputLen() int       { return 0 }
func (d *DigitalOutputBlock) OutputLen() int      { return d.imgBytes }
func (d *DigitalOutputBlock) DecodeInput([]byte) error { return nil }

func (d *DigitalOutputBlock) EncodeOutput(image []byte) {
	if len(image) < d.imgBytes {
		return
	}
	for i := 0; i < d.channels; i++ {
		setBit(image, i/8, i%8, d.values[i])
	}
}

func (d *DigitalOutputBlock) Objects() []PdoObject {
	objs := make([]PdoObject, d.channels)
	for i := range objs {
		objs[i] = PdoObject{Name: fmt.Sprintf("DO%d", i+1), ByteOffs: i / 8, BitOffs: i % 8, Kind: KindBool}
	}
	return objs
}

func (d *DigitalOutputBlock) ApplyConfig(CoEWriter) error { return nil }

// Set writes a 1-indexed channel's output for the next cycle.
func (d *DigitalOutputBlock) Set(ch int, v bool) {
	if ch < 1 || ch > d.channels {
		return
	}
	d.values[ch-1] = v
}

// Get returns the last value set for a 1-indexed channel.
func (d *DigitalOutputBlock) Get(ch int) bool {
	if ch < 1 || ch > d.channels {
		return false
	}
	return d.values[ch-1]
}

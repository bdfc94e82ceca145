package devicecatalog

// EK1100 is the EtherCAT bus coupler: no process data, identity only.
// Grounded on original_source/ethercat-hal/src/devices/ek1100.rs.
type EK1100 struct{}

func (EK1100) Identity() Identity { return Identity{Vendor: 0x2, Product: 0x44c2c52} }
func (EK1100) InputLen() int      { return 0 }
func (EK1100) OutputLen() int     { return 0 }
func (EK1100) DecodeInput([]byte) error      { return nil }
func (EK1100) EncodeOutput([]byte)           {}
func (EK1100) Objects() []PdoObject          { return nil }
func (EK1100) ApplyConfig(CoEWriter) error   { return nil }

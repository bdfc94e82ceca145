// Package machines holds the compile-time MachineIdentification and role
// constants every machines/* subpackage registers itself under, and the
// DeviceGroup role numbers its constructor expects from discovery.
// Grounded on original_source/server/src/serial/mod.rs's
// VENDOR_QITECH/MACHINE_DRE constant style.
package machines

import "machinectl/domain"

// VendorQitech is the vendor identifier every machine implementation in
// this repo is built under.
const VendorQitech uint16 = 0x0001

// Machine-class identifiers, one per machines/* subpackage.
const (
	MachineWinderV1    uint16 = 0x0010
	MachineExtruderV1  uint16 = 0x0020
	MachineAquaPathV1  uint16 = 0x0030
	MachineBufferV1    uint16 = 0x0040
	MachineLaser       uint16 = 0x0050
)

func id(machine uint16) domain.MachineIdentification {
	return domain.MachineIdentification{Vendor: VendorQitech, Machine: machine}
}

// WinderV1 is the winder's MachineIdentification.
func WinderV1() domain.MachineIdentification { return id(MachineWinderV1) }

// ExtruderV1 is the extruder's MachineIdentification.
func ExtruderV1() domain.MachineIdentification { return id(MachineExtruderV1) }

// AquaPathV1 is the water bath's MachineIdentification.
func AquaPathV1() domain.MachineIdentification { return id(MachineAquaPathV1) }

// BufferV1 is the dancer/buffer's MachineIdentification.
func BufferV1() domain.MachineIdentification { return id(MachineBufferV1) }

// Laser is the laser diameter sensor consumer's MachineIdentification.
func Laser() domain.MachineIdentification { return id(MachineLaser) }

// Winder roles: which physical device plays which part in a winder's
// DeviceGroup.
const (
	RoleWinderSpoolStepper    uint16 = 1
	RoleWinderPullerStepper   uint16 = 2
	RoleWinderTraverseStepper uint16 = 3
	RoleWinderTraverseEndstop uint16 = 4
	RoleWinderTensionArmInput uint16 = 5
	RoleWinderLaserInput      uint16 = 6 // optional: diameter regulator
)

// Extruder roles. The four heating zones share one 4-channel RTD
// terminal and one 4-channel SSR output block, addressed by port
// (1=front, 2=middle, 3=back, 4=nozzle) rather than one role each.
const (
	RoleExtruderTempBank   uint16 = 1 // EL3204, 4 RTD channels
	RoleExtruderHeaterOut  uint16 = 2 // digital-output block, 4 SSR channels
	RoleExtruderPressure   uint16 = 3 // analog input, bar
	RoleExtruderScrewDrive uint16 = 4 // pulse-train frequency output to the screw VFD
)

// Extruder heating-zone ports, shared by RoleExtruderTempBank and
// RoleExtruderHeaterOut.
const (
	PortExtruderFront  = 1
	PortExtruderMiddle = 2
	PortExtruderBack   = 3
	PortExtruderNozzle = 4
)

// AquaPath roles.
const (
	RoleAquaPathTempFront    uint16 = 1
	RoleAquaPathTempBack     uint16 = 2
	RoleAquaPathHeaterOutput uint16 = 3 // digital-output block, 2 channels
)

// AquaPath heater-output ports, shared by RoleAquaPathHeaterOutput.
const (
	PortAquaPathFront = 1
	PortAquaPathBack  = 2
)

// Buffer roles.
const (
	RoleBufferLiftInput  uint16 = 1 // analog input, fill level
	RoleBufferPullOutput uint16 = 2 // stepper velocity
)

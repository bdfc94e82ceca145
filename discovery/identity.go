// Package discovery scans the fieldbus and serial topology for devices,
// diffs successive scans into added/removed/same sets, groups devices
// sharing one MachineIdentificationUnique, and reads/writes the 16-byte
// identity block each sub-device's identity storage carries.
package discovery

import (
	"encoding/binary"

	"machinectl/domain"
	"machinectl/errcode"
)

// IdentityBlockSize is the fixed width of one device's identity storage
// area: {vendor u16 LE, machine u16 LE, serial u16 LE, role u16 LE,
// reserved [8]byte}.
const IdentityBlockSize = 16

// DecodeIdentity parses a 16-byte identity block. An all-zero block
// means unassigned and decodes to (nil, nil) rather than an error.
func DecodeIdentity(block []byte) (*domain.DeviceMachineIdentification, error) {
	if len(block) < IdentityBlockSize {
		return nil, errcode.FrameTooShort
	}
	if allZero(block[:8]) {
		return nil, nil
	}
	vendor := binary.LittleEndian.Uint16(block[0:2])
	machine := binary.LittleEndian.Uint16(block[2:4])
	serial := binary.LittleEndian.Uint16(block[4:6])
	role := binary.LittleEndian.Uint16(block[6:8])
	return &domain.DeviceMachineIdentification{
		MachineIdentificationUnique: domain.MachineIdentificationUnique{
			MachineIdentification: domain.MachineIdentification{Vendor: vendor, Machine: machine},
			Serial:                 serial,
		},
		Role: role,
	}, nil
}

// EncodeIdentity serializes id into a fresh 16-byte block. Passing nil
// produces the all-zero "unassigned" block.
func EncodeIdentity(id *domain.DeviceMachineIdentification) []byte {
	block := make([]byte, IdentityBlockSize)
	if id == nil {
		return block
	}
	binary.LittleEndian.PutUint16(block[0:2], id.Vendor)
	binary.LittleEndian.PutUint16(block[2:4], id.Machine)
	binary.LittleEndian.PutUint16(block[4:6], id.Serial)
	binary.LittleEndian.PutUint16(block[6:8], id.Role)
	return block
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// IdentityWriter is the seam the discovery manager uses to overwrite a
// sub-device's identity storage — the only operation in the system that
// mutates persistent device state at runtime.
type IdentityWriter interface {
	WriteIdentity(addr domain.DeviceAddress, id *domain.DeviceMachineIdentification) error
}

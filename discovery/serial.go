package discovery

// SerialPortInfo is one enumerated OS serial port, the fields the serial
// layer needs to match a device type against. Grounded on
// original_source/dre-usb-driver/src/usb_detection.rs.
type SerialPortInfo struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	SerialNumber string
}

// PortEnumerator lists the serial ports currently present on the host.
// The real implementation shells out to the OS (e.g. via go.bug.st/serial
// or sysfs); tests supply a fake.
type PortEnumerator interface {
	Ports() ([]SerialPortInfo, error)
}

// MatchVendorProduct filters ports down to those whose vendor/product ID
// match vid/pid, the serial registry's device-selection rule.
func MatchVendorProduct(ports []SerialPortInfo, vid, pid uint16) []SerialPortInfo {
	var out []SerialPortInfo
	for _, p := range ports {
		if p.VendorID == vid && p.ProductID == pid {
			out = append(out, p)
		}
	}
	return out
}

package discovery

import (
	"context"
	"encoding/binary"
	"net"
	"sync"

	"golang.org/x/sync/errgroup"
)

// modbusTCPPort is the well-known Modbus-TCP responder port.
const modbusTCPPort = 502

// maxSubnetPrefix caps the enumerated /n network size: a /24 is the
// largest subnet probed, matching the original's min(24, mask_bits).
const maxSubnetPrefix = 24

// CandidateAddrs enumerates every host address in network/mask capped at
// a /24, the port-502 probe set a Modbus-TCP scan walks. Grounded on
// original_source/control-core/src/ethernet/modbus_tcp_discovery.rs.
func CandidateAddrs(network net.IP, mask net.IPMask) []net.TCPAddr {
	ip4 := network.To4()
	if ip4 == nil {
		return nil
	}
	ones, _ := mask.Size()
	prefix := ones
	if prefix < maxSubnetPrefix {
		prefix = maxSubnetPrefix
	}
	base := binary.BigEndian.Uint32(ip4) & binary.BigEndian.Uint32(net.CIDRMask(prefix, 32))
	size := uint32(1) << (32 - uint32(prefix))

	out := make([]net.TCPAddr, 0, size)
	for i := uint32(0); i < size; i++ {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], base+i)
		out = append(out, net.TCPAddr{IP: net.IP(b[:]).To4(), Port: modbusTCPPort})
	}
	return out
}

// MagicSerialCheck reports whether the two 32-bit serial registers a
// candidate responder returns match the device's known magic pair, the
// original's hard-coded 0x2787_2144 / 0x0000_0000 acceptance rule.
type MagicSerialCheck struct {
	Serial1, Serial2 uint32
}

func (m MagicSerialCheck) Accept(s1, s2 uint32) bool {
	return s1 == m.Serial1 && s2 == m.Serial2
}

// Prober performs the Modbus-TCP handshake needed to read the two serial
// registers from a candidate address. The real implementation dials
// github.com/grid-x/modbus; tests supply a fake.
type Prober interface {
	ReadSerial(ctx context.Context, addr net.TCPAddr) (s1, s2 uint32, err error)
}

// ProbeSubnet dials every candidate address concurrently and returns
// those accepted by check, bounded by ctx's deadline. A failed dial or
// rejected magic is silently dropped — probing is best-effort discovery,
// not a connectivity diagnostic.
func ProbeSubnet(ctx context.Context, prober Prober, candidates []net.TCPAddr, check MagicSerialCheck) []net.TCPAddr {
	found := make([]net.TCPAddr, 0)
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, addr := range candidates {
		addr := addr
		g.Go(func() error {
			s1, s2, err := prober.ReadSerial(ctx, addr)
			if err != nil {
				return nil
			}
			if !check.Accept(s1, s2) {
				return nil
			}
			mu.Lock()
			found = append(found, addr)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return found
}

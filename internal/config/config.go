// Package config loads the process's startup configuration: cycle and
// discovery timing, the event queue length, and the serial ports
// discovery should open. Grounded on services/config/config.go's
// tinyjson.Raw/.Value() embedded-JSON decode, generalized from a single
// embedded per-device-ID blob published onto the bus to a disk-or-
// embedded document read once at startup, with environment overrides —
// there is no embedded-flash constraint on this hosted server the way
// there was for the teacher's MCU target.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/andreyvit/tinyjson"
)

// SerialPortConfig describes one RS-485/Modbus port discovery should
// open and hand to the serial package's worker registry.
type SerialPortConfig struct {
	Path     string
	BaudRate int
	SlaveID  byte
}

// Config is the full set of startup parameters this process needs
// before it can bring up the cycle orchestrator and discovery.
type Config struct {
	CycleInterval     time.Duration
	DiscoveryInterval time.Duration
	EventQueueLen     int
	Serial            []SerialPortConfig
}

const (
	envCycleIntervalUs     = "MACHINECTL_CYCLE_INTERVAL_US"
	envDiscoveryIntervalMs = "MACHINECTL_DISCOVERY_INTERVAL_MS"
	envEventQueueLen       = "MACHINECTL_EVENT_QUEUE_LEN"
)

// Load reads path if non-empty, otherwise falls back to the embedded
// default document, then applies any MACHINECTL_* environment
// overrides on top.
func Load(path string) (Config, error) {
	raw, err := rawDocument(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	if err := applyDocument(&cfg, raw); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

func rawDocument(path string) ([]byte, error) {
	if path == "" {
		return []byte(embeddedDefault), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Default is the configuration a fresh checkout starts with before any
// disk file or environment override is applied.
func Default() Config {
	return Config{
		CycleInterval:     2 * time.Millisecond,
		DiscoveryInterval: 100 * time.Millisecond,
		EventQueueLen:     64,
	}
}

func applyDocument(cfg *Config, raw []byte) error {
	if len(raw) == 0 {
		return nil
	}
	r := tinyjson.Raw(raw)
	val := r.Value()
	r.EnsureEOF()
	m, ok := val.(map[string]any)
	if !ok {
		return nil
	}

	if v, ok := m["cycle_interval_us"].(float64); ok {
		cfg.CycleInterval = time.Duration(v) * time.Microsecond
	}
	if v, ok := m["discovery_interval_ms"].(float64); ok {
		cfg.DiscoveryInterval = time.Duration(v) * time.Millisecond
	}
	if v, ok := m["event_queue_len"].(float64); ok {
		cfg.EventQueueLen = int(v)
	}
	if ports, ok := m["serial"].([]any); ok {
		cfg.Serial = nil
		for _, p := range ports {
			pm, ok := p.(map[string]any)
			if !ok {
				continue
			}
			port := SerialPortConfig{BaudRate: 38400, SlaveID: 1}
			if s, ok := pm["path"].(string); ok {
				port.Path = s
			}
			if b, ok := pm["baud_rate"].(float64); ok {
				port.BaudRate = int(b)
			}
			if s, ok := pm["slave_id"].(float64); ok {
				port.SlaveID = byte(s)
			}
			cfg.Serial = append(cfg.Serial, port)
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v, ok := envUint(envCycleIntervalUs); ok {
		cfg.CycleInterval = time.Duration(v) * time.Microsecond
	}
	if v, ok := envUint(envDiscoveryIntervalMs); ok {
		cfg.DiscoveryInterval = time.Duration(v) * time.Millisecond
	}
	if v, ok := envUint(envEventQueueLen); ok {
		cfg.EventQueueLen = int(v)
	}
}

func envUint(name string) (uint64, bool) {
	raw, set := os.LookupEnv(name)
	if !set {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

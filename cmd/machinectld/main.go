// Command machinectld is the process that wires every component
// together: config and logging, the fieldbus and its cycle orchestrator,
// serial device workers, the event bus, and the machine instances that
// run on top of them. Grounded on main.go's flag-free single-binary
// shape (the teacher has no cmd/ subpackage — devicecode-go's main.go
// IS main), generalized from a bus/power/HAL wiring to a fieldbus/
// machine wiring.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"machinectl/actor"
	"machinectl/cycle"
	"machinectl/devicecatalog"
	"machinectl/discovery"
	"machinectl/domain"
	"machinectl/eventbus"
	"machinectl/fieldbus"
	swfieldbus "machinectl/fieldbus/software"
	"machinectl/internal/config"
	"machinectl/internal/logging"
	"machinectl/machines"
	"machinectl/machines/buffer"
	"machinectl/registry"

	_ "machinectl/machines/aquapath"
	_ "machinectl/machines/extruder"
	_ "machinectl/machines/winder"

	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "", "path to machinectl.json (embedded default if empty)")
	logLevel := flag.String("log-level", "info", "debug|info|warn|error")
	pretty := flag.Bool("pretty", false, "console-format logs instead of JSON")
	flag.Parse()

	log := logging.New(*logLevel, *pretty)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	bus := eventbus.NewBus(cfg.EventQueueLen)

	master := swfieldbus.New()
	group, devices, hardware := buildDeviceTopology()
	if err := master.Configure(fieldbus.Group{Devices: devicesToSubDevices(devices)}, deviceObjects(devices)); err != nil {
		log.Fatal().Err(err).Msg("configure fieldbus")
	}

	winderHW, extruderHW, aquaHW, bufferHW := hardware["winder"], hardware["extruder"], hardware["aquapath"], hardware["buffer"]

	winderNS := bus.Namespace("winder-1")
	extruderNS := bus.Namespace("extruder-1")
	aquaNS := bus.Namespace("aquapath-1")
	bufferNS := bus.Namespace("buffer-1")

	winderGroup := groupFor(group, machines.WinderV1(), 1)
	extruderGroup := groupFor(group, machines.ExtruderV1(), 1)
	aquaGroup := groupFor(group, machines.AquaPathV1(), 1)
	bufferGroup := groupFor(group, machines.BufferV1(), 1)

	runner := actor.NewRunner(log)
	orch := cycle.NewOrchestrator(master, fieldbus.Group{Devices: devicesToSubDevices(devices)}, devices, runner, cfg.CycleInterval, log)

	winderM, err := registry.Construct(winderGroup, winderHW, winderNS, make(chan any, 8))
	if err != nil {
		log.Fatal().Err(err).Msg("construct winder")
	}
	orch.AddMachine("winder-1", winderM)

	extruderM, err := registry.Construct(extruderGroup, extruderHW, extruderNS, make(chan any, 8))
	if err != nil {
		log.Fatal().Err(err).Msg("construct extruder")
	}
	orch.AddMachine("extruder-1", extruderM)

	aquaM, err := registry.Construct(aquaGroup, aquaHW, aquaNS, make(chan any, 8))
	if err != nil {
		log.Fatal().Err(err).Msg("construct aquapath")
	}
	orch.AddMachine("aquapath-1", aquaM)

	bufferM, err := registry.Construct(bufferGroup, bufferHW, bufferNS, make(chan any, 8))
	if err != nil {
		log.Fatal().Err(err).Msg("construct buffer")
	}
	buffer.RegisterUpstream("winder-1", winderNS)
	orch.AddMachine("buffer-1", bufferM)

	stopCycle := make(chan struct{})
	go orch.Run(stopCycle)

	stopDiscovery := make(chan struct{})
	go runDiscoveryLoop(devices, cfg.DiscoveryInterval, stopDiscovery, log)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info().Msg("shutting down")
	close(stopCycle)
	close(stopDiscovery)
	for _, m := range []registry.Machine{winderM, extruderM, aquaM, bufferM} {
		_ = m.Close()
	}
}

// runDiscoveryLoop periodically re-derives the current identity set from
// the configured devices and diffs it against the previous scan, logging
// added/removed sub-devices. The demo topology built at startup never
// actually changes, so in this binary the loop only ever observes an
// empty diff — hot-add/hot-remove reconciliation against a live,
// changing bus is exercised by discovery's own tests, not re-driven here
// against a static one.
func runDiscoveryLoop(devices []cycle.Device, interval time.Duration, stop <-chan struct{}, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prev := currentIdentities(devices)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			cur := currentIdentities(devices)
			diff := discovery.ComputeDiff(prev, cur)
			if len(diff.Added) > 0 || len(diff.Removed) > 0 {
				log.Info().Int("added", len(diff.Added)).Int("removed", len(diff.Removed)).Msg("topology changed")
			}
			prev = cur
		}
	}
}

func currentIdentities(devices []cycle.Device) []domain.DeviceIdentification {
	out := make([]domain.DeviceIdentification, len(devices))
	for i, d := range devices {
		out[i] = domain.DeviceIdentification{
			Address: domain.DeviceAddress{Kind: domain.AddressEtherCAT, SubIndex: uint16(d.Sub.Addr)},
		}
	}
	return out
}

// groupFor is the demo wiring's stand-in for what discovery.GroupByMachine
// would hand the orchestrator after a real scan: the single device group
// for the named machine class, given every demo device was assigned the
// same serial number at startup.
func groupFor(all []domain.DeviceGroup, id domain.MachineIdentification, serial uint16) domain.DeviceGroup {
	for _, g := range all {
		if g.Identity.MachineIdentification == id && g.Identity.Serial == serial {
			return g
		}
	}
	return domain.DeviceGroup{}
}

func devicesToSubDevices(devices []cycle.Device) []fieldbus.SubDevice {
	subs := make([]fieldbus.SubDevice, len(devices))
	for i, d := range devices {
		subs[i] = d.Sub
	}
	return subs
}

func deviceObjects(devices []cycle.Device) []devicecatalog.Device {
	objs := make([]devicecatalog.Device, len(devices))
	for i, d := range devices {
		objs[i] = d.Object
	}
	return objs
}

// buildDeviceTopology stands in for a real EtherCAT Scan(): it builds
// one DeviceGroup per machine class with role assignments fixed at
// compile time, the shape discovery.GroupByMachine would otherwise
// produce dynamically from scanned identity blocks. Hardware is keyed
// per machine instance (not globally) since role numbers, like 1/2/3,
// are reused across unrelated machine classes.
func buildDeviceTopology() ([]domain.DeviceGroup, []cycle.Device, map[string]registry.Hardware) {
	hardware := map[string]registry.Hardware{
		"winder":   {},
		"extruder": {},
		"aquapath": {},
		"buffer":   {},
	}
	var devices []cycle.Device
	offsetIn, offsetOut := 0, 0

	add := func(machine string, role uint16, dev devicecatalog.Device) {
		sub := fieldbus.SubDevice{
			Addr:         fieldbus.Address(len(devices) + 1),
			Identity:     dev.Identity(),
			InputOffset:  offsetIn,
			InputLen:     dev.InputLen(),
			OutputOffset: offsetOut,
			OutputLen:    dev.OutputLen(),
		}
		offsetIn += dev.InputLen()
		offsetOut += dev.OutputLen()
		devices = append(devices, cycle.Device{Sub: sub, Object: dev})
		hardware[machine][role] = dev
	}

	add("winder", machines.RoleWinderSpoolStepper, devicecatalog.NewWago750671Stepper())
	add("winder", machines.RoleWinderPullerStepper, devicecatalog.NewWago750671Stepper())
	add("winder", machines.RoleWinderTraverseStepper, devicecatalog.NewWago750671Stepper())
	add("winder", machines.RoleWinderTraverseEndstop, devicecatalog.NewEL1008())
	add("winder", machines.RoleWinderTensionArmInput, devicecatalog.NewEL30xxAnalogInput(devicecatalog.Identity{}, 1))

	add("extruder", machines.RoleExtruderTempBank, devicecatalog.NewEL3204())
	add("extruder", machines.RoleExtruderHeaterOut, devicecatalog.NewEL2008())
	add("extruder", machines.RoleExtruderPressure, devicecatalog.NewEL30xxAnalogInput(devicecatalog.Identity{}, 1))
	add("extruder", machines.RoleExtruderScrewDrive, devicecatalog.NewEL2522PulseTrain())

	add("aquapath", machines.RoleAquaPathTempFront, devicecatalog.NewEL3204())
	add("aquapath", machines.RoleAquaPathTempBack, devicecatalog.NewEL3204())
	add("aquapath", machines.RoleAquaPathHeaterOutput, devicecatalog.NewEL2024())

	add("buffer", machines.RoleBufferLiftInput, devicecatalog.NewEL30xxAnalogInput(devicecatalog.Identity{}, 1))
	add("buffer", machines.RoleBufferPullOutput, devicecatalog.NewWago750671Stepper())

	groups := []domain.DeviceGroup{
		demoGroup(machines.WinderV1(), machines.RoleWinderSpoolStepper, machines.RoleWinderPullerStepper, machines.RoleWinderTraverseStepper, machines.RoleWinderTraverseEndstop, machines.RoleWinderTensionArmInput),
		demoGroup(machines.ExtruderV1(), machines.RoleExtruderTempBank, machines.RoleExtruderHeaterOut, machines.RoleExtruderPressure, machines.RoleExtruderScrewDrive),
		demoGroup(machines.AquaPathV1(), machines.RoleAquaPathTempFront, machines.RoleAquaPathTempBack, machines.RoleAquaPathHeaterOutput),
		demoGroup(machines.BufferV1(), machines.RoleBufferLiftInput, machines.RoleBufferPullOutput),
	}

	return groups, devices, hardware
}

func demoGroup(id domain.MachineIdentification, roles ...uint16) domain.DeviceGroup {
	unique := domain.MachineIdentificationUnique{MachineIdentification: id, Serial: 1}
	members := make([]domain.DeviceIdentification, len(roles))
	for i, role := range roles {
		members[i] = domain.DeviceIdentification{
			Machine: &domain.DeviceMachineIdentification{MachineIdentificationUnique: unique, Role: role},
		}
	}
	return domain.DeviceGroup{Identity: unique, Members: members}
}

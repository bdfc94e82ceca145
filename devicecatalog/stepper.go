package devicecatalog

// StepperState is the control-word state machine hidden behind
// ioh.StepperVelocity. It mirrors the coarse states a WAGO
// 750-671/Beckhoff EL70xx stepper coupler exposes via its status word.
type StepperState uint8

const (
	StepperNotReady StepperState = iota
	StepperDisabled
	StepperEnabling
	StepperEnabled
	StepperFault
)

func (s StepperState) String() string {
	switch s {
	case StepperNotReady:
		return "not_ready"
	case StepperDisabled:
		return "disabled"
	case StepperEnabling:
		return "enabling"
	case StepperEnabled:
		return "enabled"
	case StepperFault:
		return "fault"
	default:
		return "unknown"
	}
}

const (
	ctrlEnableBit = 0
	ctrlResetBit  = 7
	statusReadyBit  = 0
	statusEnabledBit = 1
	statusFaultBit   = 3
)

// Wago750671Stepper is the RX/TX-PDO codec for a velocity-mode stepper
// coupler: output is a signed velocity setpoint plus a control word,
// input is actual velocity/position feedback plus a status word.
// Grounded on
// original_source/ethercat-hal/src/io/stepper_velocity_wago_750_671.rs.
type Wago750671Stepper struct {
	state        StepperState
	targetVel    int16 // steps/s, signed
	actualVel    int16
	actualPosRaw int32
	requestedOn  bool
}

func NewWago750671Stepper() *Wago750671Stepper {
	return &Wago750671Stepper{state: StepperNotReady}
}

func (d *Wago750671Stepper) Identity() Identity { return Identity{Vendor: 0x21c, Product: 0x2a073052} }
func (d *Wago750671Stepper) InputLen() int       { return 8 } // status(2) + velocity(2) + position(4)
func (d *Wago750671Stepper) OutputLen() int      { return 4 } // control(2) + velocity setpoint(2)

func (d *Wago750671Stepper) DecodeInput(image []byte) error {
	if err := checkLen(image, d.InputLen()); err != nil {
		return err
	}
	status := uint16(getI16BE(image, 0))
	d.actualVel = getI16BE(image, 2)
	d.actualPosRaw = int32(getI16BE(image, 4))<<16 | int32(uint16(getI16BE(image, 6)))

	fault := status&(1<<statusFaultBit) != 0
	ready := status&(1<<statusReadyBit) != 0
	enabled := status&(1<<statusEnabledBit) != 0

	switch {
	case fault:
		d.state = StepperFault
	case enabled:
		d.state = StepperEnabled
	case ready && d.requestedOn:
		d.state = StepperEnabling
	case ready:
		d.state = StepperDisabled
	default:
		d.state = StepperNotReady
	}
	return nil
}

func (d *Wago750671Stepper) EncodeOutput(image []byte) {
	if len(image) < d.OutputLen() {
		return
	}
	var ctrl uint16
	if d.requestedOn {
		ctrl |= 1 << ctrlEnableBit
	}
	if d.state == StepperFault {
		ctrl |= 1 << ctrlResetBit
	}
	setI16BE(image, 0, int16(ctrl))
	vel := d.targetVel
	if d.state != StepperEnabled {
		vel = 0
	}
	setI16BE(image, 2, vel)
}

func (d *Wago750671Stepper) Objects() []PdoObject {
	return []PdoObject{
		{Name: "control_word", ByteOffs: 0, Kind: KindU16},
		{Name: "velocity_setpoint", ByteOffs: 2, Kind: KindI16},
		{Name: "status_word", ByteOffs: 4, Kind: KindU16},
		{Name: "velocity_actual", ByteOffs: 6, Kind: KindI16},
	}
}

func (d *Wago750671Stepper) ApplyConfig(CoEWriter) error { return nil }

// SetEnabled requests the drive be enabled (true) or safely disabled
// (false); the actual transition happens over subsequent cycles as the
// status word advances, mirrored by State().
func (d *Wago750671Stepper) SetEnabled(on bool) { d.requestedOn = on }

// SetVelocity sets the target velocity in steps/s; only applied while
// State() == StepperEnabled.
func (d *Wago750671Stepper) SetVelocity(stepsPerSec int16) { d.targetVel = stepsPerSec }

func (d *Wago750671Stepper) State() StepperState   { return d.state }
func (d *Wago750671Stepper) ActualVelocity() int16 { return d.actualVel }
func (d *Wago750671Stepper) ActualPosition() int32 { return d.actualPosRaw }

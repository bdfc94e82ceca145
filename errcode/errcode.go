package errcode

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK                Code = "ok"
	Busy              Code = "busy"
	Unsupported       Code = "unsupported"
	InvalidParams     Code = "invalid_params"
	InvalidPayload    Code = "invalid_payload"
	UnknownCapability Code = "unknown_capability"
	HALNotReady       Code = "hal_not_ready"
	InvalidTopic      Code = "invalid_topic"

	UnknownBus Code = "unknown_bus"
	BusInUse   Code = "bus_in_use"
	UnknownPin Code = "unknown_pin"
	PinInUse   Code = "pin_in_use"
	Timeout    Code = "timeout"

	// Fieldbus transaction errors.
	BusError               Code = "bus_error"
	FrameTooShort          Code = "frame_too_short"
	WorkingCounterMismatch Code = "working_counter_mismatch"
	CoEError               Code = "coe_error"

	// Machine construction errors.
	MismatchedGroup Code = "mismatched_group"
	DuplicateRole   Code = "duplicate_role"
	MissingRole     Code = "missing_role"
	InvalidConfig   Code = "invalid_config"

	// Decode errors.
	InvalidEnum Code = "invalid_enum"
	RangeClamp  Code = "range_clamp"

	// Controller errors; guarded locally, never meant to surface, but
	// named so saturation paths can log what they clamped.
	DivByZero Code = "div_by_zero"
	Overflow  Code = "overflow"

	// Serial/Modbus errors.
	Crc      Code = "crc"
	Panicked Code = "panicked"
	Faulted  Code = "faulted"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// MapDriverErr maps low-level driver errors to a Code.
// Extend the heuristics per platform/driver.
func MapDriverErr(err error) Code {
	if err == nil {
		return OK
	}
	return Error
}

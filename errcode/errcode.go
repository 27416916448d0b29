package errcode

import "errors"

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK             Code = "ok"
	Unsupported    Code = "unsupported"
	InvalidParams  Code = "invalid_params"
	InvalidPayload Code = "invalid_payload"
	UnknownPin     Code = "unknown_pin"
	PinInUse       Code = "pin_in_use"
	UnknownBus     Code = "unknown_bus"
	Timeout        Code = "timeout"

	// Bring-up.
	BusCreate     Code = "bus_create_failed"
	PanelIOCreate Code = "panel_io_failed"
	PanelCreate   Code = "panel_create_failed"
	PanelReset    Code = "panel_reset_failed"
	PanelInit     Code = "panel_init_failed"
	PanelPower    Code = "panel_power_failed"

	// Things.
	DuplicateThing Code = "duplicate_thing"
	UnknownThing   Code = "unknown_thing"

	Error Code = "error" // generic fallback
)

// E keeps an operation name and a cause alongside a Code.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Wrap returns nil when err is nil, otherwise an *E carrying c.
func Wrap(c Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return Error
}

// IsDegraded reports whether err is the one bring-up fault the board
// survives by substituting a no-op display.
func IsDegraded(err error) bool { return err != nil && Of(err) == PanelInit }

// IsFatal reports whether err must abort bring-up.
func IsFatal(err error) bool { return err != nil && !IsDegraded(err) }

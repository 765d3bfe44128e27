// Package errcode holds the status taxonomy shared by the clock sequencing
// components. A Code is comparable, allocation-free and implements error, so
// a nil error is Success and everything else maps onto one of the codes below.
package errcode

// Code is a stable, caller-facing status identifier.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK               Code = "ok"
	Fail             Code = "fail"              // generic hardware failure (NACK, missing ack)
	InvalidOperation Code = "invalid_operation" // feature not available or preconditions unmet
	Timeout          Code = "timeout"           // bounded poll exceeded
	InvalidHandle    Code = "invalid_handle"    // required output missing
	InvalidParams    Code = "invalid_params"
	Unsupported      Code = "unsupported"
	InvalidTopic     Code = "invalid_topic"
	InvalidPayload   Code = "invalid_payload"

	Error Code = "error" // fallback for foreign errors in Of
)

// E is the optional wrapper when we want to keep context and a cause.
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
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is match an *E against its bare Code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap attaches an operation name (and optional message) to a code.
func Wrap(c Code, op, msg string) error {
	return &E{C: c, Op: op, Msg: msg}
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
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		if inner := u.Unwrap(); inner != nil {
			return Of(inner)
		}
	}
	return Error
}

package robomaster

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors for common error conditions.
var (
	// ErrClosed is returned when calling on a closed command channel.
	ErrClosed = errors.New("robomaster: connection is already closed")

	// ErrEmptyCommand is returned when a call carries no arguments.
	ErrEmptyCommand = errors.New("robomaster: empty command not accepted")

	// ErrDiscoveryTimeout is returned when no broadcast arrives in time.
	ErrDiscoveryTimeout = errors.New("robomaster: no address broadcast received")

	// ErrAddressMismatch is returned when the broadcast names a different
	// address than the one it was sent from.
	ErrAddressMismatch = errors.New("robomaster: broadcast address does not match sender")

	// ErrMalformedBroadcast is returned for datagrams without the expected prefix.
	ErrMalformedBroadcast = errors.New("robomaster: malformed address broadcast")
)

// DiscoveryError describes a failed address discovery.
type DiscoveryError struct {
	// Source is the sender address of the datagram, if one arrived.
	Source string

	// Reported is the address embedded in the datagram, if any.
	Reported string

	Err error
}

// Error implements the error interface.
func (e *DiscoveryError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("discovery: %v", e.Err)
	}
	return fmt.Sprintf("discovery: %v (source %s, reported %q)", e.Err, e.Source, e.Reported)
}

// Unwrap returns the underlying error.
func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// CallError is returned when the robot answers a command with anything
// other than the expected reply.
type CallError struct {
	// Command is the request as sent, without the terminator.
	Command string

	// Reply is what the robot answered.
	Reply string
}

// Error implements the error interface.
func (e *CallError) Error() string {
	return fmt.Sprintf("robomaster: %q replied %q", e.Command, e.Reply)
}

// RangeError is returned when a parameter is outside its valid range.
// Nothing is sent to the robot when this happens.
type RangeError struct {
	Param string
	Value float64
	Min   float64
	Max   float64

	// MinOpen marks an exclusive lower bound.
	MinOpen bool
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	lo := "["
	if e.MinOpen {
		lo = "("
	}
	return fmt.Sprintf("robomaster: %s %s is out of range %s%s, %s]",
		e.Param, formatFloat(e.Value), lo, formatFloat(e.Min), formatFloat(e.Max))
}

// ChoiceError is returned when a parameter is not one of its allowed values.
type ChoiceError struct {
	Param   string
	Value   string
	Allowed []string
}

// Error implements the error interface.
func (e *ChoiceError) Error() string {
	return fmt.Sprintf("robomaster: unknown %s %q (want one of %v)", e.Param, e.Value, e.Allowed)
}

// DecodeError is returned for replies or streamed records whose shape is
// not recognized.
type DecodeError struct {
	Input  string
	Reason string
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("robomaster: cannot decode %q: %s", e.Input, e.Reason)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

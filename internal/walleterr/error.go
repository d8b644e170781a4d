// Package walleterr classifies failures at the wallet boundary into the
// fixed set of kinds external callers (CLI, FFI-style bindings) depend on
// for dispatch.
package walleterr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a boundary error.
type Kind int

const (
	// DecodeInput marks a failure to parse caller-supplied input (E100).
	DecodeInput Kind = iota
	// EncodeOutput marks a failure to encode a result for the caller (E101).
	EncodeOutput
	// Serialize marks a failure to turn an internal struct into wire JSON (E102).
	Serialize
	// Protocol marks a failure in the co-signing dialog itself (E103).
	Protocol
	// Deserialize marks a failure to parse wire JSON from the server (E104).
	Deserialize
)

func (k Kind) String() string {
	switch k {
	case DecodeInput:
		return "E100"
	case EncodeOutput:
		return "E101"
	case Serialize:
		return "E102"
	case Protocol:
		return "E103"
	case Deserialize:
		return "E104"
	default:
		return "E1??"
	}
}

// Error is a boundary error tagged with a Kind and the operation it occurred in.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with the given Kind and operation name. Returns nil if err is nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// As reports whether err (or something it wraps) is a *Error, returning it.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

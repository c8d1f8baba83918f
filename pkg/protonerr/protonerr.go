// Package protonerr defines the closed set of error kinds shared across
// the Proton runtime's components: framing, transport, bundle
// serialization, and node lifecycle.
package protonerr

import "fmt"

// Kind is a closed enumeration of the error categories a Proton
// component can report. Framing, transport I/O, bundle/signal access
// and lifecycle operations return one of these; a few helpers
// (transport registry lookup, config value coercion, the wire codec)
// return plain fmt/errors values instead.
type Kind int8

const (
	NullPtr Kind = iota
	InvalidState
	InvalidStateTransition
	ConnectError
	DisconnectError
	ReadError
	WriteError
	InvalidHeader
	CRC16Error
	SerializationError
	InsufficientBuffer
	MutexError
)

var descriptions = map[Kind]string{
	NullPtr:                "unexpected null argument at an API boundary",
	InvalidState:           "operation refused due to node or transport state",
	InvalidStateTransition: "lifecycle API called in the wrong state",
	ConnectError:           "transport open failed",
	DisconnectError:        "transport close failed",
	ReadError:              "transport read failed",
	WriteError:             "transport write failed",
	InvalidHeader:          "framed read saw bad magic or zero length",
	CRC16Error:             "framed read failed CRC check",
	SerializationError:     "bundle encode or decode failed",
	InsufficientBuffer:     "payload exceeds buffer capacity",
	MutexError:             "lock or unlock failed",
}

func (k Kind) String() string {
	if d, ok := descriptions[k]; ok {
		return d
	}
	return fmt.Sprintf("proton error kind %d (unknown)", int8(k))
}

// Error is a Kind paired with the operation-specific detail that
// triggered it. It implements the error interface and supports
// errors.Is against a bare Kind.
type Error struct {
	Kind   Kind
	Detail string
}

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is lets errors.Is(err, SomeKind) work by comparing the wrapped Kind,
// matching the pattern errors.Is uses for comparable target values.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && e.Kind == k
}

// Error makes a bare Kind usable as an errors.Is target, so callers can
// write errors.Is(err, protonerr.ReadError); (*Error).Is matches it.
func (k Kind) Error() string { return k.String() }

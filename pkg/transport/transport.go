// Package transport defines the uniform transport interface Proton
// peers and nodes drive: connect/disconnect/read/write over an
// explicit three-state machine, plus a pluggable registry so new
// transport kinds can be added without changing the core.
package transport

import (
	"context"
	"fmt"
	"sync/atomic"
)

// State is the transport's connection state. Each concrete transport
// sets it from its own Connect/Disconnect/Read/Write; the spin loop
// reads it without taking a lock to decide its next step.
type State int32

const (
	Disconnected State = iota
	Connected
	Error
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connected:
		return "CONNECTED"
	case Error:
		return "ERROR"
	default:
		return fmt.Sprintf("STATE(%d)", int32(s))
	}
}

// Transport is the abstract interface every concrete link (UDP4,
// serial) implements. read MUST NOT return a message-spanning partial
// for byte-stream transports: one call returns one complete payload or
// fails. write MUST atomically emit a complete message or fail.
type Transport interface {
	State() State
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Read(ctx context.Context, buf []byte) (int, error)
	Write(ctx context.Context, buf []byte) (int, error)
}

// StateHolder is embedded by concrete transports to provide the
// relaxed atomic state field called out by the concurrency model: the
// transport's methods write it (Write possibly from a sender goroutine
// other than spin), and the spin loop reads it.
type StateHolder struct {
	state int32
}

func (h *StateHolder) State() State {
	return State(atomic.LoadInt32(&h.state))
}

func (h *StateHolder) setState(s State) {
	atomic.StoreInt32(&h.state, int32(s))
}

// SetState is exported for use by concrete transport implementations
// in this module's subpackages.
func (h *StateHolder) SetState(s State) { h.setState(s) }

// NewFunc constructs a Transport from a per-kind configuration value.
// Concrete transport packages register one under their kind string in
// an init() function.
type NewFunc func(config any) (Transport, error)

var registry = make(map[string]NewFunc)

// Register adds a transport constructor under the given kind string
// ("udp4", "serial", ...). Call from an init() function of the
// transport's package.
func Register(kind string, fn NewFunc) {
	registry[kind] = fn
}

// New constructs a transport of the given kind using its registered
// constructor.
func New(kind string, config any) (Transport, error) {
	fn, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("transport: unsupported kind %q", kind)
	}
	return fn(config)
}

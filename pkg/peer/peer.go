// Package peer implements per-peer state: the remote node's identity,
// its owned transport, a mutex-guarded read buffer, and heartbeat
// liveness tracking.
package peer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clearpath-proton/proton/pkg/bundle"
	"github.com/clearpath-proton/proton/pkg/protonerr"
	"github.com/clearpath-proton/proton/pkg/transport"
)

// MaxMessageSize is the largest single bundle payload Proton will
// ever frame or buffer.
const MaxMessageSize = 65535

// State is a peer's liveness state.
type State int32

const (
	Unconfigured State = iota
	Inactive
	Active
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "UNCONFIGURED"
	case Inactive:
		return "INACTIVE"
	case Active:
		return "ACTIVE"
	default:
		return "UNKNOWN"
	}
}

// HeartbeatConfig is the optional heartbeat liveness configuration for
// a peer: whether to expect heartbeats from it, and the expected
// period.
type HeartbeatConfig struct {
	Enabled  bool
	PeriodMS uint32
}

// ReceiveFunc parses and dispatches one payload received from this
// peer's transport, returning the bundle handle it updated. Bound to
// the bundle manager's ReceiveBundle with this peer's producer name.
type ReceiveFunc func(buf []byte) (*bundle.Handle, error)

// Peer is one remote node known to the local node.
type Peer struct {
	id        uint32
	name      string
	transport transport.Transport
	receive   ReceiveFunc
	heartbeat HeartbeatConfig

	state int32

	bufMu  sync.Mutex
	buf    []byte

	lastHeartbeatMu sync.Mutex
	lastHeartbeat   time.Time
}

// New constructs a peer in the UNCONFIGURED state. Callers must call
// Init before the peer can take part in spin.
func New(id uint32, name string, tr transport.Transport, receive ReceiveFunc, hb HeartbeatConfig) *Peer {
	return &Peer{
		id:        id,
		name:      name,
		transport: tr,
		receive:   receive,
		heartbeat: hb,
		state:     int32(Unconfigured),
		buf:       make([]byte, MaxMessageSize),
	}
}

// Init transitions the peer from UNCONFIGURED to INACTIVE once its
// transport and read buffer are in place (both are supplied at
// construction here, so Init is just the state transition).
func (p *Peer) Init() error {
	if State(atomic.LoadInt32(&p.state)) != Unconfigured {
		return protonerr.New(protonerr.InvalidStateTransition, "peer already initialized")
	}
	atomic.StoreInt32(&p.state, int32(Inactive))
	return nil
}

// ID returns the peer's id.
func (p *Peer) ID() uint32 { return p.id }

// Name returns the peer's (producer) name.
func (p *Peer) Name() string { return p.name }

// Transport returns the peer's owned transport.
func (p *Peer) Transport() transport.Transport { return p.transport }

// Heartbeat returns the peer's heartbeat configuration.
func (p *Peer) Heartbeat() HeartbeatConfig { return p.heartbeat }

// State returns the peer's current liveness state. Read with a
// relaxed atomic load per the concurrency model's monotone-state-
// machine allowance.
func (p *Peer) State() State {
	return State(atomic.LoadInt32(&p.state))
}

func (p *Peer) setState(s State) {
	atomic.StoreInt32(&p.state, int32(s))
}

// IsActive reports whether the peer is currently ACTIVE, the narrow
// predicate the heartbeat liveness consumer drives.
func (p *Peer) IsActive() bool {
	return p.State() == Active
}

// LastHeartbeatTime returns the wall-clock time of the most recently
// received heartbeat from this peer, the zero time if none yet.
func (p *Peer) LastHeartbeatTime() time.Time {
	p.lastHeartbeatMu.Lock()
	defer p.lastHeartbeatMu.Unlock()
	return p.lastHeartbeat
}

// OnHeartbeat promotes the peer to ACTIVE and stamps the current time,
// called by the heartbeat callback on every receipt.
func (p *Peer) OnHeartbeat(now time.Time) {
	p.lastHeartbeatMu.Lock()
	p.lastHeartbeat = now
	p.lastHeartbeatMu.Unlock()
	p.setState(Active)
}

// CheckLiveness demotes the peer ACTIVE -> INACTIVE if more than its
// configured heartbeat period has elapsed since the last heartbeat.
// A no-op if heartbeating is disabled or the peer isn't ACTIVE.
func (p *Peer) CheckLiveness(now time.Time) {
	if !p.heartbeat.Enabled || p.State() != Active {
		return
	}
	last := p.LastHeartbeatTime()
	if last.IsZero() {
		return
	}
	period := time.Duration(p.heartbeat.PeriodMS) * time.Millisecond
	if now.Sub(last) > period {
		p.setState(Inactive)
	}
}

// ReadAndDispatch runs one read-decode-dispatch cycle under the
// peer's read-buffer lock: transport.Read into the owned buffer, then
// hand the bytes to receive. A read yielding 0 bytes with no error is
// treated as a no-op tick, not a frame.
func (p *Peer) ReadAndDispatch(ctx context.Context) (*bundle.Handle, error) {
	p.bufMu.Lock()
	defer p.bufMu.Unlock()

	n, err := p.transport.Read(ctx, p.buf)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return p.receive(p.buf[:n])
}

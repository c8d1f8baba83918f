// Package bundlemgr implements the bundle manager: the mapping from
// bundle name and bundle id to bundle handles, and the wire
// parse-and-dispatch entry point every peer's spin loop calls into.
package bundlemgr

import (
	"fmt"
	"sync"

	"github.com/clearpath-proton/proton/pkg/bundle"
	"github.com/clearpath-proton/proton/pkg/protonerr"
	"github.com/clearpath-proton/proton/pkg/wire"
)

// Manager owns the set of bundle handles for one node and provides
// O(1) lookup by name and by id. Heartbeat bundles (id 0) are
// disambiguated by producer name instead, since every heartbeat
// shares the same id.
type Manager struct {
	mu         sync.RWMutex
	byID       map[uint32]*bundle.Handle
	byName     map[string]*bundle.Handle
	byProducer map[string]*bundle.Handle
}

// New returns an empty bundle manager.
func New() *Manager {
	return &Manager{
		byID:       make(map[uint32]*bundle.Handle),
		byName:     make(map[string]*bundle.Handle),
		byProducer: make(map[string]*bundle.Handle),
	}
}

// AddBundle registers a non-heartbeat bundle handle under both its
// name and its id. Configuration-time only; the manager is treated as
// immutable for lookups once the node is active.
func (m *Manager) AddBundle(h *bundle.Handle) error {
	if h.ID() == bundle.HeartbeatID {
		return protonerr.New(protonerr.SerializationError, "id 0 is reserved for heartbeat bundles")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byName[h.Name()]; exists {
		return protonerr.New(protonerr.SerializationError, fmt.Sprintf("bundle name %q already registered", h.Name()))
	}
	if _, exists := m.byID[h.ID()]; exists {
		return protonerr.New(protonerr.SerializationError, fmt.Sprintf("bundle id 0x%x already registered", h.ID()))
	}
	m.byName[h.Name()] = h
	m.byID[h.ID()] = h
	return nil
}

// AddHeartbeat registers a heartbeat bundle under its producer name.
func (m *Manager) AddHeartbeat(h *bundle.Handle) error {
	if h.ID() != bundle.HeartbeatID {
		return protonerr.New(protonerr.SerializationError, "heartbeat bundle must use id 0")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byProducer[h.Producer()]; exists {
		return protonerr.New(protonerr.SerializationError, fmt.Sprintf("heartbeat for producer %q already registered", h.Producer()))
	}
	m.byProducer[h.Producer()] = h
	return nil
}

// GetBundle returns the bundle handle registered under the given name.
func (m *Manager) GetBundle(name string) (*bundle.Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.byName[name]
	if !ok {
		return nil, protonerr.New(protonerr.SerializationError, fmt.Sprintf("no bundle named %q", name))
	}
	return h, nil
}

// GetHeartbeat returns the heartbeat bundle registered for the given
// producer name.
func (m *Manager) GetHeartbeat(producer string) (*bundle.Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.byProducer[producer]
	if !ok {
		return nil, protonerr.New(protonerr.SerializationError, fmt.Sprintf("no heartbeat registered for producer %q", producer))
	}
	return h, nil
}

// All returns every registered bundle handle, non-heartbeat and
// heartbeat alike, for callers that sample per-bundle statistics
// across the whole set (e.g. Node.SampleRates).
func (m *Manager) All() []*bundle.Handle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*bundle.Handle, 0, len(m.byName)+len(m.byProducer))
	for _, h := range m.byName {
		out = append(out, h)
	}
	for _, h := range m.byProducer {
		out = append(out, h)
	}
	return out
}

// ReceiveBundle parses buf as a wire Bundle and dispatches it to the
// matching handle: id 0 is routed by producer name and must contain
// exactly one uint32 signal (the heartbeat shape); any other id is
// looked up directly. Returns the handle that was updated. Fails with
// SERIALIZATION_ERROR for an unknown id or a malformed heartbeat shape.
func (m *Manager) ReceiveBundle(buf []byte, producer string) (*bundle.Handle, error) {
	wb, err := wire.DecodeBundle(buf)
	if err != nil {
		return nil, protonerr.New(protonerr.SerializationError, err.Error())
	}

	if wb.ID == bundle.HeartbeatID {
		if len(wb.Signals) != 1 || wb.Signals[0].Kind != wire.KindUint32 {
			return nil, protonerr.New(protonerr.SerializationError,
				fmt.Sprintf("malformed heartbeat from %q: expected exactly one uint32 signal", producer))
		}
		h, err := m.GetHeartbeat(producer)
		if err != nil {
			return nil, err
		}
		if err := h.Receive(wb); err != nil {
			return nil, err
		}
		return h, nil
	}

	m.mu.RLock()
	h, ok := m.byID[wb.ID]
	m.mu.RUnlock()
	if !ok {
		return nil, protonerr.New(protonerr.SerializationError, fmt.Sprintf("unknown bundle id 0x%x", wb.ID))
	}
	if err := h.Receive(wb); err != nil {
		return nil, err
	}
	return h, nil
}

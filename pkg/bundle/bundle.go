// Package bundle implements the ordered, name-indexed collection of
// signal handles that makes up one wire-identified bundle: id,
// producer, consumer, an optional callback, and rx/tx counters.
package bundle

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clearpath-proton/proton/pkg/protonerr"
	"github.com/clearpath-proton/proton/pkg/signal"
	"github.com/clearpath-proton/proton/pkg/wire"
)

// HeartbeatID is the reserved bundle id for heartbeat bundles; id 0
// is never used by a user-defined bundle.
const HeartbeatID uint32 = 0

// Callback is invoked after a bundle is successfully decoded off the
// wire. It receives a borrowed reference to the bundle; it MUST NOT
// retain it beyond the call, and MUST NOT block indefinitely since it
// runs under the owning peer's read-buffer lock.
type Callback func(*Handle)

// Handle is one bundle: its fixed schema (id, signal set) plus the
// mutable signal values, counters, and callback.
type Handle struct {
	id       uint32
	name     string
	producer string
	consumer string

	mu       sync.Mutex
	signals  []*signal.Handle
	byName   map[string]int
	callback Callback

	rx, tx     uint64
	rxSample   rateSample
	txSample   rateSample
}

// rateSample tracks the count/time pair needed to compute a per-second
// rate between two snapshots (txps/rxps).
type rateSample struct {
	mu        sync.Mutex
	lastCount uint64
	lastTime  time.Time
}

// New constructs a bundle handle with the given fixed schema. The
// signal set is built from schemas in order; the set's identity,
// order, and types are fixed from this point on.
func New(id uint32, name, producer, consumer string, schemas []signal.Schema) (*Handle, error) {
	h := &Handle{
		id:       id,
		name:     name,
		producer: producer,
		consumer: consumer,
		byName:   make(map[string]int, len(schemas)),
	}
	for _, s := range schemas {
		if err := h.addSignal(s); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// NewHeartbeat builds the special id=0 bundle containing exactly one
// uint32 signal named "heartbeat", registered per (producer,consumer)
// pair where the producer has heartbeating enabled.
func NewHeartbeat(producer, consumer string) (*Handle, error) {
	return New(HeartbeatID, fmt.Sprintf("heartbeat/%s", producer), producer, consumer,
		[]signal.Schema{{Name: "heartbeat", Type: "uint32"}})
}

func (h *Handle) addSignal(s signal.Schema) error {
	if _, exists := h.byName[s.Name]; exists {
		return protonerr.New(protonerr.SerializationError, fmt.Sprintf("bundle %q: duplicate signal %q", h.name, s.Name))
	}
	sh, err := signal.New(h.name, s)
	if err != nil {
		return err
	}
	h.byName[s.Name] = len(h.signals)
	h.signals = append(h.signals, sh)
	return nil
}

// ID returns the bundle's wire id.
func (h *Handle) ID() uint32 { return h.id }

// Name returns the bundle's locally-unique name.
func (h *Handle) Name() string { return h.name }

// Producer returns the node name that sends this bundle.
func (h *Handle) Producer() string { return h.producer }

// Consumer returns the node name that receives this bundle.
func (h *Handle) Consumer() string { return h.consumer }

// GetSignal returns the named signal handle, or an error if unknown.
func (h *Handle) GetSignal(name string) (*signal.Handle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	idx, ok := h.byName[name]
	if !ok {
		return nil, protonerr.New(protonerr.SerializationError, fmt.Sprintf("bundle %q: no signal %q", h.name, name))
	}
	return h.signals[idx], nil
}

// HasSignal is a total predicate over signal names.
func (h *Handle) HasSignal(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.byName[name]
	return ok
}

// RegisterCallback stores the callback invoked after a successful
// incoming decode, replacing any previously registered callback.
func (h *Handle) RegisterCallback(fn Callback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callback = fn
}

// invokeCallback calls the registered callback, if any. Called by the
// bundle manager's dispatch path while the caller holds the peer's
// read-buffer lock.
func (h *Handle) invokeCallback() {
	h.mu.Lock()
	cb := h.callback
	h.mu.Unlock()
	if cb != nil {
		cb(h)
	}
}

// ToWire serializes the bundle's current signal values to their
// wire-format representation.
func (h *Handle) ToWire() wire.Bundle {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := wire.Bundle{ID: h.id, Signals: make([]wire.Signal, len(h.signals))}
	for i, s := range h.signals {
		out.Signals[i] = s.ToWire()
	}
	return out
}

// ApplyWire overwrites this bundle's signal values positionally from
// a decoded wire.Bundle: signal identity, order, and types are
// preserved, only values change. wb.Signals must have the same length
// as the bundle's own signal set, and each wire signal's kind must match
// its position; ApplyWire fails with SERIALIZATION_ERROR otherwise.
func (h *Handle) ApplyWire(wb wire.Bundle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(wb.Signals) != len(h.signals) {
		return protonerr.New(protonerr.SerializationError,
			fmt.Sprintf("bundle %q: wire signal count %d does not match schema count %d", h.name, len(wb.Signals), len(h.signals)))
	}
	for i, s := range h.signals {
		if err := s.FromWire(wb.Signals[i]); err != nil {
			return err
		}
	}
	return nil
}

// Receive applies a decoded wire bundle, increments the rx counter,
// and invokes the registered callback. Called by the bundle manager
// under the peer's read-buffer lock.
func (h *Handle) Receive(wb wire.Bundle) error {
	if err := h.ApplyWire(wb); err != nil {
		return err
	}
	atomic.AddUint64(&h.rx, 1)
	h.invokeCallback()
	return nil
}

// MarkSent increments the tx counter. Called by the node after a
// successful transport.write.
func (h *Handle) MarkSent() {
	atomic.AddUint64(&h.tx, 1)
}

// RxCount returns a snapshot of the received-bundle counter.
func (h *Handle) RxCount() uint64 { return atomic.LoadUint64(&h.rx) }

// TxCount returns a snapshot of the sent-bundle counter.
func (h *Handle) TxCount() uint64 { return atomic.LoadUint64(&h.tx) }

// RxRate samples the receive rate in bundles/second since the last
// call, using the wall-clock time between samples.
func (h *Handle) RxRate(now time.Time) float64 {
	return h.rxSample.sample(h.RxCount(), now)
}

// TxRate samples the send rate in bundles/second since the last call.
func (h *Handle) TxRate(now time.Time) float64 {
	return h.txSample.sample(h.TxCount(), now)
}

func (r *rateSample) sample(count uint64, now time.Time) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastTime.IsZero() {
		r.lastCount, r.lastTime = count, now
		return 0
	}
	elapsed := now.Sub(r.lastTime).Seconds()
	var rate float64
	if elapsed > 0 {
		rate = float64(count-r.lastCount) / elapsed
	}
	r.lastCount, r.lastTime = count, now
	return rate
}

// String renders a debug-only summary of the bundle's current signal
// values. Not part of the core contract.
func (h *Handle) String() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var b strings.Builder
	fmt.Fprintf(&b, "bundle %s (id=0x%x producer=%s consumer=%s rx=%d tx=%d) {", h.name, h.id, h.producer, h.consumer, h.rx, h.tx)
	for i, s := range h.signals {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", s.Name(), s.Get())
	}
	b.WriteString("}")
	return b.String()
}

// Package node implements the Proton node: the top-level object that
// owns a bundle manager, a peer list, and the local heartbeat
// producer, and exposes the public operations (sendBundle,
// sendHeartbeat, registerCallback, spin) that tie them together. The
// node holds no transport of its own: each peer owns the transport
// used to reach it, bound to the local node's configured address.
package node

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/clearpath-proton/proton/pkg/bundle"
	"github.com/clearpath-proton/proton/pkg/bundlemgr"
	"github.com/clearpath-proton/proton/pkg/config"
	"github.com/clearpath-proton/proton/pkg/heartbeat"
	"github.com/clearpath-proton/proton/pkg/peer"
	"github.com/clearpath-proton/proton/pkg/protonerr"
	"github.com/clearpath-proton/proton/pkg/signal"
	"github.com/clearpath-proton/proton/pkg/transport"
	"github.com/clearpath-proton/proton/pkg/transport/serial"
	"github.com/clearpath-proton/proton/pkg/transport/udp4"
	"github.com/clearpath-proton/proton/pkg/wire"
)

// defaultSerialBaud is the baud rate used for a peer's serial
// transport when the schema doesn't otherwise constrain it; Proton
// links default to a high fixed rate with no flow control.
const defaultSerialBaud = 921600

// State is the node's lifecycle state.
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

// Node is one Proton node: its own identity, bundle manager, peer
// list, local heartbeat participation, and the write lock shared by
// every sender.
type Node struct {
	name   string
	logger *slog.Logger

	state int32

	manager *bundlemgr.Manager

	peersMu sync.RWMutex
	peers   []*peer.Peer
	byName  map[string]*peer.Peer

	writeMu sync.Mutex

	localHeartbeat  *bundle.Handle // this node's own heartbeat bundle (owns the wire counter), nil if disabled
	localHBPeriodMS uint32
	hbProducer      *heartbeat.Producer
	hbConsumer      *heartbeat.Consumer

	controllers []*PeerController
}

// New constructs an unconfigured node with the given name.
func New(name string, logger *slog.Logger) *Node {
	if logger == nil {
		logger = slog.Default()
	}
	return &Node{
		name:    name,
		logger:  logger.With("service", "[NODE]", "name", name),
		state:   int32(Unconfigured),
		manager: bundlemgr.New(),
		byName:  make(map[string]*peer.Peer),
	}
}

// Name returns the node's configured name.
func (n *Node) Name() string { return n.name }

// State returns the node's current lifecycle state.
func (n *Node) State() State {
	return State(atomic.LoadInt32(&n.state))
}

// Manager returns the node's bundle manager, for signal/bundle lookup
// by callers that hold the handle (e.g. a user thread calling
// GetBundle to mutate a signal before sendBundle).
func (n *Node) Manager() *bundlemgr.Manager { return n.manager }

// Configure populates the bundle manager and peer list from a parsed
// schema document and constructs every transport. Requires state
// UNCONFIGURED; transitions to INACTIVE on success.
func (n *Node) Configure(doc *config.Document) error {
	if State(atomic.LoadInt32(&n.state)) != Unconfigured {
		return protonerr.New(protonerr.InvalidStateTransition, "node already configured")
	}

	self, err := doc.NodeByName(n.name)
	if err != nil {
		return err
	}

	if err := n.buildBundles(doc); err != nil {
		return err
	}
	if err := n.buildPeers(doc, self); err != nil {
		return err
	}

	atomic.StoreInt32(&n.state, int32(Inactive))
	n.logger.Info("node configured", "peers", len(n.peers))
	return nil
}

func (n *Node) buildBundles(doc *config.Document) error {
	for _, bc := range doc.BundlesForNode(n.name) {
		schemaList, err := toSignalSchemas(bc)
		if err != nil {
			return err
		}
		h, err := bundle.New(bc.ID, bc.Name, bc.Producer, bc.Consumer, schemaList)
		if err != nil {
			return err
		}
		if err := n.manager.AddBundle(h); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) buildPeers(doc *config.Document, self *config.NodeConfig) error {
	related := make(map[string]bool)
	for _, bc := range doc.BundlesForNode(n.name) {
		if bc.Producer != n.name {
			related[bc.Producer] = true
		}
		if bc.Consumer != n.name {
			related[bc.Consumer] = true
		}
	}

	if self.Heartbeat != nil && self.Heartbeat.Enabled {
		hb, err := bundle.NewHeartbeat(n.name, "")
		if err != nil {
			return err
		}
		n.localHeartbeat = hb
		n.localHBPeriodMS = self.Heartbeat.PeriodMS
	}

	for remoteName := range related {
		remoteName := remoteName // capture per-iteration; go.mod targets pre-1.22 loop semantics
		remote, err := doc.NodeByName(remoteName)
		if err != nil {
			return err
		}

		tr, err := n.buildTransport(self, remote)
		if err != nil {
			return err
		}

		hbCfg := peer.HeartbeatConfig{}
		var hbBundle *bundle.Handle
		remoteHeartbeats := remote.Heartbeat != nil && remote.Heartbeat.Enabled
		if remoteHeartbeats {
			hbCfg = peer.HeartbeatConfig{Enabled: true, PeriodMS: remote.Heartbeat.PeriodMS}
			var err error
			hbBundle, err = bundle.NewHeartbeat(remoteName, n.name)
			if err != nil {
				return err
			}
			if err := n.manager.AddHeartbeat(hbBundle); err != nil {
				return err
			}
		}

		receiveFn := func(buf []byte) (*bundle.Handle, error) {
			return n.manager.ReceiveBundle(buf, remoteName)
		}

		p := peer.New(uint32(len(n.peers)), remoteName, tr, receiveFn, hbCfg)
		if err := p.Init(); err != nil {
			return err
		}
		if hbBundle != nil {
			// On receipt, promote the peer back to ACTIVE and stamp the
			// time, per the heartbeat callback contract in §4.9.
			hbBundle.RegisterCallback(func(*bundle.Handle) {
				p.OnHeartbeat(time.Now())
			})
		}
		n.peersMu.Lock()
		n.peers = append(n.peers, p)
		n.byName[remoteName] = p
		n.peersMu.Unlock()
	}
	return nil
}

// buildTransport constructs the transport this node uses to reach
// remote, given both nodes' schema-declared transport configuration.
// For udp4, self supplies the local bind address and remote supplies
// the destination; for serial, the link is a direct point-to-point
// wire addressed by the remote's device.
func (n *Node) buildTransport(self, remote *config.NodeConfig) (transport.Transport, error) {
	switch remote.Transport.Type {
	case "udp4":
		cfg := udp4.Config{
			LocalIP:    self.Transport.IP,
			LocalPort:  self.Transport.Port,
			RemoteIP:   remote.Transport.IP,
			RemotePort: remote.Transport.Port,
		}
		return transport.New("udp4", cfg)
	case "serial":
		cfg := serial.DefaultConfig(remote.Transport.Device, defaultSerialBaud)
		return transport.New("serial", cfg)
	default:
		return nil, protonerr.New(protonerr.SerializationError, fmt.Sprintf("node %q: unsupported transport type %q", remote.Name, remote.Transport.Type))
	}
}

func toSignalSchemas(bc config.BundleConfig) ([]signal.Schema, error) {
	out := make([]signal.Schema, 0, len(bc.Signals))
	for _, sc := range bc.Signals {
		s, err := sc.ToSignalSchema()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Activate starts the spin controllers for every peer plus the local
// heartbeat producer and liveness consumer. Requires state INACTIVE;
// transitions to ACTIVE on success. A second call while already ACTIVE
// is a hard error, not a no-op.
func (n *Node) Activate(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&n.state, int32(Inactive), int32(Active)) {
		return protonerr.New(protonerr.InvalidStateTransition, "node must be INACTIVE to activate")
	}

	n.peersMu.RLock()
	peers := append([]*peer.Peer(nil), n.peers...)
	n.peersMu.RUnlock()

	if n.localHeartbeat != nil {
		n.hbProducer = heartbeat.NewProducer(n, n.heartbeatPeriod(), n.logger)
		n.hbProducer.Start(ctx)
	}
	n.hbConsumer = heartbeat.NewConsumer(peers, n.onHeartbeatEvent, n.logger)
	n.hbConsumer.Start(ctx)

	for _, p := range peers {
		c := NewPeerController(p, n, n.logger)
		c.Start(ctx)
		n.controllers = append(n.controllers, c)
	}

	n.logger.Info("node activated")
	return nil
}

func (n *Node) heartbeatPeriod() time.Duration {
	if n.localHBPeriodMS == 0 {
		return time.Second
	}
	return time.Duration(n.localHBPeriodMS) * time.Millisecond
}

func (n *Node) onHeartbeatEvent(event heartbeat.Event, peerName string) {
	n.logger.Info("peer liveness transition", "peer", peerName, "event", event)
}

// Stop cancels every running spin controller and the heartbeat
// threads, then waits for them to exit. Not part of the core spec's
// public surface (the core exposes no cancellation API) but provided
// so embedding programs (e.g. cmd/protonnode) can shut down cleanly on
// interrupt.
func (n *Node) Stop() {
	for _, c := range n.controllers {
		c.Stop()
	}
	if n.hbProducer != nil {
		n.hbProducer.Stop()
	}
	if n.hbConsumer != nil {
		n.hbConsumer.Stop()
	}
}

// Wait blocks until every spin controller and heartbeat thread has
// exited after Stop.
func (n *Node) Wait() {
	for _, c := range n.controllers {
		c.Wait()
	}
	if n.hbProducer != nil {
		n.hbProducer.Wait()
	}
	if n.hbConsumer != nil {
		n.hbConsumer.Wait()
	}
}

// sendTo serializes wb and writes it to p's transport under the
// node's shared write lock.
func (n *Node) sendTo(p *peer.Peer, h *bundle.Handle) error {
	wb := h.ToWire()
	encoded, err := wire.EncodeBundle(wb)
	if err != nil {
		return protonerr.New(protonerr.SerializationError, err.Error())
	}

	n.writeMu.Lock()
	defer n.writeMu.Unlock()

	if _, err := p.Transport().Write(context.Background(), encoded); err != nil {
		return err
	}
	h.MarkSent()
	return nil
}

// SendBundle serializes the named bundle and writes it to its
// consumer peer. Fails INVALID_STATE if the node isn't ACTIVE.
func (n *Node) SendBundle(name string) error {
	if n.State() != Active {
		return protonerr.New(protonerr.InvalidState, "node not active")
	}
	h, err := n.manager.GetBundle(name)
	if err != nil {
		return err
	}
	p, err := n.peerByName(h.Consumer())
	if err != nil {
		return err
	}
	return n.sendTo(p, h)
}

// SendHeartbeat increments this node's own heartbeat counter and
// sends it to every peer; each peer registers this node's heartbeat
// bundle whenever this node has heartbeat enabled. It implements
// heartbeat.Sender so a *Producer can drive it directly.
func (n *Node) SendHeartbeat() error {
	if n.localHeartbeat == nil {
		return protonerr.New(protonerr.InvalidState, "local heartbeat not enabled")
	}
	sig, err := n.localHeartbeat.GetSignal("heartbeat")
	if err != nil {
		return err
	}
	counter, _ := sig.Get().(uint32)
	if err := sig.Set(counter + 1); err != nil {
		return err
	}

	n.peersMu.RLock()
	peers := append([]*peer.Peer(nil), n.peers...)
	n.peersMu.RUnlock()

	var firstErr error
	for _, p := range peers {
		if err := n.sendTo(p, n.localHeartbeat); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ResetHeartbeatCounter zeros this node's own heartbeat counter, the
// "heartbeat" signal on its local heartbeat bundle. Called whenever a
// peer's transport re-establishes from ERROR, per the heartbeat
// counter reset rule. A no-op if this node has no heartbeat enabled.
func (n *Node) ResetHeartbeatCounter() {
	if n.localHeartbeat == nil {
		return
	}
	sig, err := n.localHeartbeat.GetSignal("heartbeat")
	if err != nil {
		return
	}
	_ = sig.Set(uint32(0))
}

// RegisterCallback stores fn on the named bundle, refusing unless this
// node is that bundle's consumer.
func (n *Node) RegisterCallback(bundleName string, fn bundle.Callback) error {
	h, err := n.manager.GetBundle(bundleName)
	if err != nil {
		return err
	}
	if h.Consumer() != n.name {
		return protonerr.New(protonerr.InvalidState, fmt.Sprintf("node %q is not the consumer of bundle %q", n.name, bundleName))
	}
	h.RegisterCallback(fn)
	return nil
}

// RegisterHeartbeatCallback stores fn on the heartbeat bundle for the
// given producer, refusing unless this node is its consumer (i.e. a
// heartbeat bundle for that producer is actually registered here).
// The peer's liveness promotion still runs on every receipt, before fn.
func (n *Node) RegisterHeartbeatCallback(producerName string, fn bundle.Callback) error {
	h, err := n.manager.GetHeartbeat(producerName)
	if err != nil {
		return err
	}
	if p, perr := n.peerByName(producerName); perr == nil {
		user := fn
		fn = func(b *bundle.Handle) {
			p.OnHeartbeat(time.Now())
			if user != nil {
				user(b)
			}
		}
	}
	h.RegisterCallback(fn)
	return nil
}

// BundleRate is one bundle's sampled send/receive throughput.
type BundleRate struct {
	Name string
	Rx   float64
	Tx   float64
}

// SampleRates samples txps/rxps for every locally-known bundle
// (ordinary and heartbeat alike), generalizing the teacher's
// BusManager counter-sampling pattern from bus-level to per-bundle
// statistics. Each call advances that bundle's rate window, so this
// is meant to be called on a steady period (e.g. once per second by
// an embedding program), not ad hoc.
func (n *Node) SampleRates(now time.Time) []BundleRate {
	all := n.manager.All()
	out := make([]BundleRate, 0, len(all))
	for _, h := range all {
		out = append(out, BundleRate{Name: h.Name(), Rx: h.RxRate(now), Tx: h.TxRate(now)})
	}
	return out
}

func (n *Node) peerByName(name string) (*peer.Peer, error) {
	n.peersMu.RLock()
	defer n.peersMu.RUnlock()
	p, ok := n.byName[name]
	if !ok {
		return nil, protonerr.New(protonerr.InvalidState, fmt.Sprintf("no peer named %q", name))
	}
	return p, nil
}

package node

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/clearpath-proton/proton/pkg/peer"
	"github.com/clearpath-proton/proton/pkg/transport"
)

// connectBackoff paces retries after a failed connect attempt so a
// permanently unreachable peer doesn't spin its controller goroutine
// at full CPU.
const connectBackoff = 200 * time.Millisecond

// HeartbeatResetter zeros the local node's wire-visible heartbeat
// counter. Satisfied by *node.Node, whose ResetHeartbeatCounter is a
// no-op if the local node has no heartbeat enabled.
type HeartbeatResetter interface {
	ResetHeartbeatCounter()
}

// PeerController runs one peer's spin loop in a dedicated goroutine:
// connect while DISCONNECTED, disconnect-and-retry on ERROR, and
// read-decode-dispatch while CONNECTED. One controller per peer, per
// the one-spin-thread-per-peer model.
type PeerController struct {
	logger   *slog.Logger
	peer     *peer.Peer
	resetter HeartbeatResetter // reset on this peer's transport re-establishing from ERROR, if non-nil

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPeerController constructs a spin controller for p. resetter may
// be nil; when non-nil its local heartbeat counter is zeroed whenever
// p's transport recovers from ERROR, per the heartbeat-reset-on-
// reconnect rule.
func NewPeerController(p *peer.Peer, resetter HeartbeatResetter, logger *slog.Logger) *PeerController {
	if logger == nil {
		logger = slog.Default()
	}
	return &PeerController{
		logger:   logger.With("service", "[SPIN]", "peer", p.Name()),
		peer:     p,
		resetter: resetter,
	}
}

// Start runs spin in a background goroutine until ctx is canceled or
// Stop is called.
func (c *PeerController) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.spin(ctx)
	}()
}

// Stop cancels the controller's spin loop; a blocking transport read
// in progress only unblocks on its own timeout or the next iteration
// boundary, per the core's "no cancellation API" contract.
func (c *PeerController) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Wait blocks until the controller's goroutine has exited.
func (c *PeerController) Wait() {
	c.wg.Wait()
}

// spin loops spinOnce until ctx is canceled.
func (c *PeerController) spin(ctx context.Context) {
	c.logger.Info("starting peer spin loop")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("exited peer spin loop")
			return
		default:
		}
		c.spinOnce(ctx)
	}
}

// spinOnce executes one step of the per-peer state machine described
// by the spec: DISCONNECTED attempts to connect, ERROR disconnects and
// resets the local heartbeat counter, CONNECTED performs one
// read-decode-dispatch cycle under the peer's buffer lock. Each
// concrete transport owns its own state transitions (embedding
// StateHolder), set only from within Connect/Disconnect/Read/Write.
// Connect, Disconnect and Read run on this goroutine; Write runs on
// whichever goroutine sends (Node.SendBundle, the heartbeat producer)
// and sets ERROR on a failed write, so the atomic state field has
// more than one writer. A transport-level CRC/header framing error leaves the transport
// CONNECTED (the frame is discarded, not the link) and is not treated
// as a state-machine transition here.
func (c *PeerController) spinOnce(ctx context.Context) {
	tr := c.peer.Transport()
	switch tr.State() {
	case transport.Disconnected:
		if err := tr.Connect(ctx); err != nil {
			c.logger.Warn("peer connect failed", "err", err)
			select {
			case <-ctx.Done():
			case <-time.After(connectBackoff):
			}
		}

	case transport.Error:
		if err := tr.Disconnect(ctx); err != nil {
			c.logger.Warn("peer disconnect failed", "err", err)
		}
		if c.resetter != nil {
			c.resetter.ResetHeartbeatCounter()
		}

	case transport.Connected:
		if _, err := c.peer.ReadAndDispatch(ctx); err != nil {
			c.logger.Warn("peer read failed", "err", err)
		}
	}
}

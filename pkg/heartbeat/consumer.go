package heartbeat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/clearpath-proton/proton/pkg/peer"
)

// Event describes a peer liveness transition the consumer observed on
// a tick.
type Event uint8

const (
	EventNone Event = iota
	EventActivated
	EventTimedOut
)

// EventCallback is invoked once per peer whose state changed on a
// liveness tick.
type EventCallback func(event Event, peerName string)

// Consumer runs the 1 Hz liveness tick described by the heartbeat
// model: for every peer with heartbeating enabled, compare elapsed
// time since its last heartbeat against its configured period and
// fire the event callback on any ACTIVE/INACTIVE transition.
type Consumer struct {
	logger   *slog.Logger
	peers    []*peer.Peer
	callback EventCallback

	mu         sync.Mutex
	prevActive map[string]bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewConsumer constructs a liveness consumer over the given peers.
func NewConsumer(peers []*peer.Peer, callback EventCallback, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		logger:     logger.With("service", "[HBCONS]"),
		peers:      peers,
		callback:   callback,
		prevActive: make(map[string]bool, len(peers)),
	}
}

// Tick runs one liveness check across all peers and reports any state
// transitions to the event callback. Exposed separately from the run
// loop so it can be driven manually (e.g. the tests in §8's S4
// scenario, or a shared user-level periodic thread).
func (c *Consumer) Tick(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.peers {
		p.CheckLiveness(now)
		active := p.IsActive()
		was, seen := c.prevActive[p.Name()]
		c.prevActive[p.Name()] = active

		if !seen {
			continue
		}
		if active && !was {
			c.fire(EventActivated, p.Name())
		} else if !active && was {
			c.fire(EventTimedOut, p.Name())
		}
	}
}

func (c *Consumer) fire(event Event, name string) {
	if c.callback != nil {
		c.callback(event, name)
	}
}

// Start runs the 1 Hz liveness tick in a background goroutine until
// ctx is canceled or Stop is called.
func (c *Consumer) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx)
	}()
}

func (c *Consumer) run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	c.logger.Info("starting heartbeat liveness consumer")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("stopping heartbeat liveness consumer")
			return
		case now := <-ticker.C:
			c.Tick(now)
		}
	}
}

// Stop cancels the consumer's run loop.
func (c *Consumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// Wait blocks until the consumer's goroutine has exited.
func (c *Consumer) Wait() {
	c.wg.Wait()
}

// Package heartbeat implements the two halves of Proton's liveness
// model: a producer loop that periodically emits the local node's
// heartbeat bundle, and a consumer liveness tick that demotes peers
// whose heartbeat has gone quiet.
package heartbeat

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sender is the narrow slice of node behavior the producer needs: the
// ability to send the local heartbeat bundle. Satisfied by *node.Node.
// SendHeartbeat owns the actual wire-visible counter (the heartbeat
// bundle's "heartbeat" signal) and increments it itself, so the
// producer holds no counter of its own.
type Sender interface {
	SendHeartbeat() error
}

// Producer wakes every period and sends the heartbeat bundle through
// sender.
type Producer struct {
	logger *slog.Logger
	sender Sender
	period time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProducer constructs a heartbeat producer that sends through
// sender every period.
func NewProducer(sender Sender, period time.Duration, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{
		logger: logger.With("service", "[HBPROD]"),
		sender: sender,
		period: period,
	}
}

// Tick sends the heartbeat bundle, which increments its own wire
// counter as a side effect. Exposed separately from the run loop so
// callers can drive it manually in tests or from a shared periodic
// thread.
func (p *Producer) Tick() error {
	return p.sender.SendHeartbeat()
}

// Start runs the producer loop in a background goroutine until ctx is
// canceled or Stop is called.
func (p *Producer) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx)
	}()
}

func (p *Producer) run(ctx context.Context) {
	ticker := time.NewTicker(p.period)
	defer ticker.Stop()
	p.logger.Info("starting heartbeat producer", "period", p.period)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("stopping heartbeat producer")
			return
		case <-ticker.C:
			if err := p.Tick(); err != nil {
				p.logger.Error("heartbeat send failed", "err", err)
			}
		}
	}
}

// Stop cancels the producer's run loop; Wait blocks until it exits.
func (p *Producer) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

// Wait blocks until the producer's goroutine has exited.
func (p *Producer) Wait() {
	p.wg.Wait()
}

package heartbeat

import (
	"context"
	"testing"
	"time"

	"github.com/clearpath-proton/proton/pkg/peer"
	"github.com/clearpath-proton/proton/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopTransport struct {
	transport.StateHolder
}

func (noopTransport) Connect(ctx context.Context) error    { return nil }
func (noopTransport) Disconnect(ctx context.Context) error { return nil }
func (noopTransport) Read(ctx context.Context, buf []byte) (int, error)  { return 0, nil }
func (noopTransport) Write(ctx context.Context, buf []byte) (int, error) { return len(buf), nil }

type fakeSender struct {
	sent int
}

func (f *fakeSender) SendHeartbeat() error {
	f.sent++
	return nil
}

func TestProducerTickSends(t *testing.T) {
	s := &fakeSender{}
	p := NewProducer(s, time.Millisecond, nil)

	require.NoError(t, p.Tick())
	require.NoError(t, p.Tick())

	assert.Equal(t, 2, s.sent)
}

func TestProducerStartStop(t *testing.T) {
	s := &fakeSender{}
	p := NewProducer(s, 5*time.Millisecond, nil)
	p.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	p.Stop()
	p.Wait()
	assert.GreaterOrEqual(t, s.sent, 1)
}

func TestConsumerTickFiresEventsOnTransition(t *testing.T) {
	pr := peer.New(1, "node-a", &noopTransport{}, nil, peer.HeartbeatConfig{Enabled: true, PeriodMS: 500})
	require.NoError(t, pr.Init())

	var events []Event
	c := NewConsumer([]*peer.Peer{pr}, func(event Event, name string) {
		events = append(events, event)
	}, nil)

	base := time.Unix(0, 0)
	pr.OnHeartbeat(base.Add(100 * time.Millisecond))
	c.Tick(base.Add(200 * time.Millisecond)) // first tick just records baseline (was unseen -> no event)
	assert.Empty(t, events)

	c.Tick(base.Add(1000 * time.Millisecond)) // past period, no new heartbeat -> timeout
	require.Len(t, events, 1)
	assert.Equal(t, EventTimedOut, events[0])

	pr.OnHeartbeat(base.Add(1500 * time.Millisecond))
	c.Tick(base.Add(1600 * time.Millisecond))
	require.Len(t, events, 2)
	assert.Equal(t, EventActivated, events[1])
}

func TestConsumerStartStop(t *testing.T) {
	pr := peer.New(1, "node-a", &noopTransport{}, nil, peer.HeartbeatConfig{Enabled: true, PeriodMS: 500})
	require.NoError(t, pr.Init())

	c := NewConsumer([]*peer.Peer{pr}, nil, nil)
	c.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	c.Stop()
	c.Wait()
}

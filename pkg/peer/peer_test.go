package peer

import (
	"context"
	"testing"
	"time"

	"github.com/clearpath-proton/proton/pkg/bundle"
	"github.com/clearpath-proton/proton/pkg/protonerr"
	"github.com/clearpath-proton/proton/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedTransport struct {
	transport.StateHolder
	payload []byte
	reads   int
}

func (f *fixedTransport) Connect(ctx context.Context) error   { return nil }
func (f *fixedTransport) Disconnect(ctx context.Context) error { return nil }
func (f *fixedTransport) Read(ctx context.Context, buf []byte) (int, error) {
	f.reads++
	if f.payload == nil {
		return 0, nil
	}
	return copy(buf, f.payload), nil
}
func (f *fixedTransport) Write(ctx context.Context, buf []byte) (int, error) {
	return len(buf), nil
}

func TestPeerInitTransition(t *testing.T) {
	p := New(1, "node-a", &fixedTransport{}, nil, HeartbeatConfig{})
	assert.Equal(t, Unconfigured, p.State())
	require.NoError(t, p.Init())
	assert.Equal(t, Inactive, p.State())
}

func TestPeerDoubleInitFails(t *testing.T) {
	p := New(1, "node-a", &fixedTransport{}, nil, HeartbeatConfig{})
	require.NoError(t, p.Init())
	err := p.Init()
	assert.ErrorIs(t, err, protonerr.InvalidStateTransition)
}

// TestScenarioS4HeartbeatLiveness mirrors the liveness-timing scenario:
// a heartbeat at t=250ms activates the peer, silence past the period
// demotes it at the next tick, and a later heartbeat re-activates it
// and stamps the new time.
func TestScenarioS4HeartbeatLiveness(t *testing.T) {
	p := New(1, "node-a", &fixedTransport{}, nil, HeartbeatConfig{Enabled: true, PeriodMS: 500})
	require.NoError(t, p.Init())

	base := time.Unix(0, 0)
	p.OnHeartbeat(base.Add(250 * time.Millisecond))
	assert.Equal(t, Active, p.State())

	p.CheckLiveness(base.Add(1000 * time.Millisecond))
	assert.Equal(t, Inactive, p.State())

	p.OnHeartbeat(base.Add(1500 * time.Millisecond))
	assert.Equal(t, Active, p.State())
	assert.Equal(t, base.Add(1500*time.Millisecond), p.LastHeartbeatTime())
}

func TestCheckLivenessNoopWhenDisabled(t *testing.T) {
	p := New(1, "node-a", &fixedTransport{}, nil, HeartbeatConfig{Enabled: false})
	require.NoError(t, p.Init())
	p.OnHeartbeat(time.Unix(0, 0))
	p.CheckLiveness(time.Unix(1000, 0))
	assert.Equal(t, Active, p.State())
}

func TestReadAndDispatchNoBytesIsNoop(t *testing.T) {
	tr := &fixedTransport{}
	called := false
	p := New(1, "node-a", tr, func(buf []byte) (*bundle.Handle, error) {
		called = true
		return nil, nil
	}, HeartbeatConfig{})
	require.NoError(t, p.Init())

	h, err := p.ReadAndDispatch(context.Background())
	require.NoError(t, err)
	assert.Nil(t, h)
	assert.False(t, called)
}

func TestReadAndDispatchInvokesReceive(t *testing.T) {
	tr := &fixedTransport{payload: []byte("data")}
	var gotBuf []byte
	p := New(1, "node-a", tr, func(buf []byte) (*bundle.Handle, error) {
		gotBuf = append([]byte(nil), buf...)
		return nil, nil
	}, HeartbeatConfig{})
	require.NoError(t, p.Init())

	_, err := p.ReadAndDispatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "data", string(gotBuf))
}

package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearpath-proton/proton/pkg/bundle"
	"github.com/clearpath-proton/proton/pkg/peer"
	"github.com/clearpath-proton/proton/pkg/protonerr"
	"github.com/clearpath-proton/proton/pkg/transport"
)

// fakeResetter stands in for *node.Node's HeartbeatResetter
// implementation so the controller's ERROR-branch reset can be
// observed without constructing a full Node.
type fakeResetter struct {
	resets int
}

func (f *fakeResetter) ResetHeartbeatCounter() { f.resets++ }

// scriptedTransport drives spinOnce deterministically: Connect/Read
// fail or succeed according to the fields set by the test, and every
// call is counted.
type scriptedTransport struct {
	transport.StateHolder
	connectErr  error
	disconnects int
	connects    int
	reads       int
	readPayload []byte
	readErr     error
}

func (s *scriptedTransport) Connect(ctx context.Context) error {
	s.connects++
	if s.connectErr != nil {
		return s.connectErr
	}
	s.SetState(transport.Connected)
	return nil
}

func (s *scriptedTransport) Disconnect(ctx context.Context) error {
	s.disconnects++
	s.SetState(transport.Disconnected)
	return nil
}

func (s *scriptedTransport) Read(ctx context.Context, buf []byte) (int, error) {
	s.reads++
	if s.readErr != nil {
		return 0, s.readErr
	}
	if s.readPayload == nil {
		return 0, nil
	}
	return copy(buf, s.readPayload), nil
}

func (s *scriptedTransport) Write(ctx context.Context, buf []byte) (int, error) {
	return len(buf), nil
}

func TestSpinOnceConnectsWhenDisconnected(t *testing.T) {
	tr := &scriptedTransport{}
	p := peer.New(1, "remote", tr, func([]byte) (*bundle.Handle, error) { return nil, nil }, peer.HeartbeatConfig{})
	require.NoError(t, p.Init())

	c := NewPeerController(p, nil, nil)
	c.spinOnce(context.Background())

	assert.Equal(t, 1, tr.connects)
	assert.Equal(t, transport.Connected, tr.State())
}

func TestSpinOnceErrorStateDisconnectsAndResetsHeartbeat(t *testing.T) {
	tr := &scriptedTransport{}
	tr.SetState(transport.Error)
	p := peer.New(1, "remote", tr, func([]byte) (*bundle.Handle, error) { return nil, nil }, peer.HeartbeatConfig{})
	require.NoError(t, p.Init())

	resetter := &fakeResetter{}

	c := NewPeerController(p, resetter, nil)
	c.spinOnce(context.Background())

	assert.Equal(t, 1, tr.disconnects)
	assert.Equal(t, transport.Disconnected, tr.State())
	assert.Equal(t, 1, resetter.resets)
}

func TestSpinOnceConnectedDispatchesReceivedBundle(t *testing.T) {
	b, err := bundle.New(42, "status", "remote", "self", nil)
	require.NoError(t, err)

	tr := &scriptedTransport{}
	tr.SetState(transport.Connected)
	tr.readPayload = []byte{0x01} // arbitrary non-empty payload; receive stub ignores content

	var dispatched *bundle.Handle
	p := peer.New(1, "remote", tr, func(buf []byte) (*bundle.Handle, error) {
		dispatched = b
		return b, nil
	}, peer.HeartbeatConfig{})
	require.NoError(t, p.Init())

	c := NewPeerController(p, nil, nil)
	c.spinOnce(context.Background())

	assert.Equal(t, 1, tr.reads)
	assert.Same(t, b, dispatched)
}

func TestSpinOnceConnectedNoopOnEmptyRead(t *testing.T) {
	tr := &scriptedTransport{}
	tr.SetState(transport.Connected)

	called := false
	p := peer.New(1, "remote", tr, func([]byte) (*bundle.Handle, error) {
		called = true
		return nil, nil
	}, peer.HeartbeatConfig{})
	require.NoError(t, p.Init())

	c := NewPeerController(p, nil, nil)
	c.spinOnce(context.Background())

	assert.False(t, called)
}

func TestSpinOnceConnectedReadErrorDoesNotPanic(t *testing.T) {
	tr := &scriptedTransport{}
	tr.SetState(transport.Connected)
	tr.readErr = protonerr.New(protonerr.ReadError, "boom")

	p := peer.New(1, "remote", tr, func([]byte) (*bundle.Handle, error) { return nil, nil }, peer.HeartbeatConfig{})
	require.NoError(t, p.Init())

	c := NewPeerController(p, nil, nil)
	assert.NotPanics(t, func() { c.spinOnce(context.Background()) })
}

package bundlemgr

import (
	"testing"

	"github.com/clearpath-proton/proton/pkg/bundle"
	"github.com/clearpath-proton/proton/pkg/protonerr"
	"github.com/clearpath-proton/proton/pkg/signal"
	"github.com/clearpath-proton/proton/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiveBundleDispatchesByID(t *testing.T) {
	m := New()
	b, err := bundle.New(0x4660, "value_test", "producer", "consumer",
		[]signal.Schema{{Name: "i", Type: "int32"}})
	require.NoError(t, err)
	require.NoError(t, m.AddBundle(b))

	wb := wire.Bundle{ID: 0x4660, Signals: []wire.Signal{{Kind: wire.KindInt32, Value: int32(42)}}}
	buf, err := wire.EncodeBundle(wb)
	require.NoError(t, err)

	got, err := m.ReceiveBundle(buf, "producer")
	require.NoError(t, err)
	assert.Same(t, b, got)
	assert.Equal(t, uint64(1), b.RxCount())
}

// TestScenarioS5UnknownID mirrors the unknown-id scenario: a bundle id
// that is not in the schema must fail SERIALIZATION_ERROR with no
// handle returned.
func TestScenarioS5UnknownID(t *testing.T) {
	m := New()
	wb := wire.Bundle{ID: 0xDEAD}
	buf, err := wire.EncodeBundle(wb)
	require.NoError(t, err)

	_, err = m.ReceiveBundle(buf, "producer")
	assert.ErrorIs(t, err, protonerr.SerializationError)
}

func TestReceiveHeartbeatDispatchesByProducer(t *testing.T) {
	m := New()
	hb, err := bundle.NewHeartbeat("node-a", "node-b")
	require.NoError(t, err)
	require.NoError(t, m.AddHeartbeat(hb))

	wb := wire.Bundle{ID: 0, Signals: []wire.Signal{{Kind: wire.KindUint32, Value: uint32(3)}}}
	buf, err := wire.EncodeBundle(wb)
	require.NoError(t, err)

	got, err := m.ReceiveBundle(buf, "node-a")
	require.NoError(t, err)
	assert.Same(t, hb, got)
}

func TestReceiveHeartbeatWrongShapeFails(t *testing.T) {
	m := New()
	hb, err := bundle.NewHeartbeat("node-a", "node-b")
	require.NoError(t, err)
	require.NoError(t, m.AddHeartbeat(hb))

	wb := wire.Bundle{ID: 0, Signals: []wire.Signal{
		{Kind: wire.KindUint32, Value: uint32(3)},
		{Kind: wire.KindUint32, Value: uint32(4)},
	}}
	buf, err := wire.EncodeBundle(wb)
	require.NoError(t, err)

	_, err = m.ReceiveBundle(buf, "node-a")
	assert.ErrorIs(t, err, protonerr.SerializationError)
}

func TestReceiveHeartbeatUnknownProducerFails(t *testing.T) {
	m := New()
	wb := wire.Bundle{ID: 0, Signals: []wire.Signal{{Kind: wire.KindUint32, Value: uint32(1)}}}
	buf, err := wire.EncodeBundle(wb)
	require.NoError(t, err)

	_, err = m.ReceiveBundle(buf, "no-such-producer")
	assert.ErrorIs(t, err, protonerr.SerializationError)
}

func TestAddBundleDuplicateIDFails(t *testing.T) {
	m := New()
	b1, err := bundle.New(1, "a", "p", "c", nil)
	require.NoError(t, err)
	b2, err := bundle.New(1, "b", "p", "c", nil)
	require.NoError(t, err)
	require.NoError(t, m.AddBundle(b1))
	err = m.AddBundle(b2)
	assert.Error(t, err)
}

func TestAddBundleRejectsHeartbeatID(t *testing.T) {
	m := New()
	hb, err := bundle.NewHeartbeat("p", "c")
	require.NoError(t, err)
	err = m.AddBundle(hb)
	assert.Error(t, err)
}

func TestGetBundleUnknownFails(t *testing.T) {
	m := New()
	_, err := m.GetBundle("nope")
	assert.Error(t, err)
}

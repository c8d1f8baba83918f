package bundle

import (
	"testing"

	"github.com/clearpath-proton/proton/pkg/signal"
	"github.com/clearpath-proton/proton/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valueTestSchema() []signal.Schema {
	return []signal.Schema{
		{Name: "d", Type: "double", Default: 1.234},
		{Name: "f", Type: "float", Default: float32(1.23)},
		{Name: "i", Type: "int32", Default: int32(-12)},
		{Name: "b", Type: "bool", Default: true},
		{Name: "s", Type: "string", Capacity: 8, Default: "test"},
		{Name: "x", Type: "bytes", Default: []byte{0, 1, 2, 3}},
		{Name: "lf", Type: "list_float", Length: 2, Default: []float32{0.12, 0.23}},
	}
}

// TestScenarioS1ValueRoundTrip mirrors the value_test bundle described
// for the encode/decode round trip: every field must come back equal
// to the original after a decode into a fresh bundle.
func TestScenarioS1ValueRoundTrip(t *testing.T) {
	b, err := New(0x4660, "value_test", "producer", "consumer", valueTestSchema())
	require.NoError(t, err)

	wb := b.ToWire()
	assert.EqualValues(t, 0x4660, wb.ID)

	encoded, err := wire.EncodeBundle(wb)
	require.NoError(t, err)
	decoded, err := wire.DecodeBundle(encoded)
	require.NoError(t, err)

	fresh, err := New(0x4660, "value_test", "producer", "consumer", valueTestSchema())
	require.NoError(t, err)
	require.NoError(t, fresh.ApplyWire(decoded))

	for _, name := range []string{"d", "f", "i", "b", "s", "x", "lf"} {
		orig, err := b.GetSignal(name)
		require.NoError(t, err)
		got, err := fresh.GetSignal(name)
		require.NoError(t, err)
		assert.Equal(t, orig.Get(), got.Get(), "signal %s", name)
	}
}

func TestHasSignalTotalPredicate(t *testing.T) {
	b, err := New(1, "bb", "p", "c", []signal.Schema{{Name: "a", Type: "int32"}})
	require.NoError(t, err)
	assert.True(t, b.HasSignal("a"))
	assert.False(t, b.HasSignal("nope"))
}

func TestGetSignalUnknownFails(t *testing.T) {
	b, err := New(1, "bb", "p", "c", []signal.Schema{{Name: "a", Type: "int32"}})
	require.NoError(t, err)
	_, err = b.GetSignal("nope")
	assert.Error(t, err)
}

func TestDuplicateSignalNameFails(t *testing.T) {
	_, err := New(1, "bb", "p", "c", []signal.Schema{
		{Name: "a", Type: "int32"},
		{Name: "a", Type: "int32"},
	})
	assert.Error(t, err)
}

func TestApplyWireWrongCountFails(t *testing.T) {
	b, err := New(1, "bb", "p", "c", []signal.Schema{{Name: "a", Type: "int32"}})
	require.NoError(t, err)
	err = b.ApplyWire(wire.Bundle{ID: 1})
	assert.Error(t, err)
}

func TestReceiveIncrementsRxAndInvokesCallback(t *testing.T) {
	b, err := New(1, "bb", "p", "c", []signal.Schema{{Name: "a", Type: "int32"}})
	require.NoError(t, err)

	called := 0
	b.RegisterCallback(func(h *Handle) { called++ })

	wb := wire.Bundle{ID: 1, Signals: []wire.Signal{{Kind: wire.KindInt32, Value: int32(7)}}}
	require.NoError(t, b.Receive(wb))

	assert.Equal(t, uint64(1), b.RxCount())
	assert.Equal(t, 1, called)

	sig, err := b.GetSignal("a")
	require.NoError(t, err)
	assert.Equal(t, int32(7), sig.Get())
}

func TestMarkSentIncrementsTx(t *testing.T) {
	b, err := New(1, "bb", "p", "c", nil)
	require.NoError(t, err)
	b.MarkSent()
	b.MarkSent()
	assert.Equal(t, uint64(2), b.TxCount())
}

func TestNewHeartbeatShape(t *testing.T) {
	hb, err := NewHeartbeat("node-a", "node-b")
	require.NoError(t, err)
	assert.EqualValues(t, HeartbeatID, hb.ID())
	assert.True(t, hb.HasSignal("heartbeat"))
	sig, err := hb.GetSignal("heartbeat")
	require.NoError(t, err)
	assert.Equal(t, wire.KindUint32, sig.Kind())
}

func TestStringDoesNotPanic(t *testing.T) {
	b, err := New(1, "bb", "p", "c", []signal.Schema{{Name: "a", Type: "int32"}})
	require.NoError(t, err)
	assert.Contains(t, b.String(), "bb")
}

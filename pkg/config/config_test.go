package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
nodes:
  - name: node-a
    transport:
      type: udp4
      ip: 127.0.0.1
      port: 9000
    heartbeat: { enabled: true, period_ms: 500 }
  - name: node-b
    transport:
      type: serial
      device: /dev/ttyUSB0
bundles:
  - name: value_test
    id: 18016
    producer: node-a
    consumer: node-b
    signals:
      - name: d
        type: double
        value: 1.234
      - name: i
        type: int32
        value: -12
      - name: s
        type: string
        capacity: 8
        value: test
      - name: lf
        type: list_float
        length: 2
        value: [0.12, 0.23]
`

func TestLoadParsesDocument(t *testing.T) {
	doc, err := Load([]byte(sampleYAML))
	require.NoError(t, err)
	require.Len(t, doc.Nodes, 2)
	require.Len(t, doc.Bundles, 1)
	assert.Equal(t, "node-a", doc.Nodes[0].Name)
	assert.Equal(t, "udp4", doc.Nodes[0].Transport.Type)
	assert.True(t, doc.Nodes[0].Heartbeat.Enabled)
	assert.EqualValues(t, 500, doc.Nodes[0].Heartbeat.PeriodMS)
}

func TestLoadRejectsReservedHeartbeatID(t *testing.T) {
	_, err := Load([]byte(`
nodes:
  - name: a
    transport: { type: udp4 }
bundles:
  - name: bad
    id: 0
    producer: a
    consumer: a
`))
	assert.Error(t, err)
}

func TestLoadRejectsUnknownProducer(t *testing.T) {
	_, err := Load([]byte(`
nodes:
  - name: a
    transport: { type: udp4 }
bundles:
  - name: bad
    id: 1
    producer: ghost
    consumer: a
`))
	assert.Error(t, err)
}

func TestBundlesForNode(t *testing.T) {
	doc, err := Load([]byte(sampleYAML))
	require.NoError(t, err)
	bundles := doc.BundlesForNode("node-a")
	require.Len(t, bundles, 1)
	assert.Equal(t, "value_test", bundles[0].Name)
}

func TestToSignalSchemaScalarDefault(t *testing.T) {
	sc := SignalConfig{Name: "i", Type: "int32", Value: -12}
	schema, err := sc.ToSignalSchema()
	require.NoError(t, err)
	assert.Equal(t, int32(-12), schema.Default)
	assert.True(t, schema.IsConst)
}

func TestToSignalSchemaListDefault(t *testing.T) {
	doc, err := Load([]byte(sampleYAML))
	require.NoError(t, err)
	var lf SignalConfig
	for _, s := range doc.Bundles[0].Signals {
		if s.Name == "lf" {
			lf = s
		}
	}
	schema, err := lf.ToSignalSchema()
	require.NoError(t, err)
	assert.Equal(t, []float32{0.12, 0.23}, schema.Default)
}

func TestToSignalSchemaUnknownTypeFails(t *testing.T) {
	sc := SignalConfig{Name: "x", Type: "nonsense"}
	_, err := sc.ToSignalSchema()
	assert.Error(t, err)
}

func TestNodeByNameUnknownFails(t *testing.T) {
	doc, err := Load([]byte(sampleYAML))
	require.NoError(t, err)
	_, err = doc.NodeByName("ghost")
	assert.Error(t, err)
}

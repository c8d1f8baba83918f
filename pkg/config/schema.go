// Package config parses the single YAML document that enumerates a
// Proton deployment's nodes and bundles. The runtime consumes the
// same document an offline code generator would, for schema lookup at
// startup.
package config

// Document is the top-level YAML schema: nodes and bundles.
type Document struct {
	Nodes   []NodeConfig   `yaml:"nodes"`
	Bundles []BundleConfig `yaml:"bundles"`
}

// TransportConfig selects and configures one node's transport. Only
// the fields relevant to Type are meaningful: IP/Port for udp4,
// Device for serial.
type TransportConfig struct {
	Type   string `yaml:"type"`
	IP     string `yaml:"ip,omitempty"`
	Port   int    `yaml:"port,omitempty"`
	Device string `yaml:"device,omitempty"`
}

// HeartbeatConfig is a node's optional heartbeat participation.
type HeartbeatConfig struct {
	Enabled  bool   `yaml:"enabled"`
	PeriodMS uint32 `yaml:"period_ms"`
}

// NodeConfig describes one node in the deployment: its name, how to
// reach it, and its heartbeat behavior.
type NodeConfig struct {
	Name      string           `yaml:"name"`
	Transport TransportConfig  `yaml:"transport"`
	Heartbeat *HeartbeatConfig `yaml:"heartbeat,omitempty"`
}

// SignalConfig describes one signal inside a bundle.
type SignalConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Length   uint32 `yaml:"length,omitempty"`
	Capacity uint32 `yaml:"capacity,omitempty"`
	Value    any    `yaml:"value,omitempty"`
}

// BundleConfig describes one bundle: its wire id, producer/consumer
// node names, and its ordered signal list.
type BundleConfig struct {
	Name     string         `yaml:"name"`
	ID       uint32         `yaml:"id"`
	Producer string         `yaml:"producer"`
	Consumer string         `yaml:"consumer"`
	Signals  []SignalConfig `yaml:"signals"`
}

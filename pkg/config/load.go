package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/clearpath-proton/proton/pkg/protonerr"
)

// Load parses a Proton deployment document from raw YAML bytes.
func Load(raw []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, protonerr.New(protonerr.SerializationError, fmt.Sprintf("parsing config: %v", err))
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadFile reads and parses a Proton deployment document from disk.
func LoadFile(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, protonerr.New(protonerr.SerializationError, fmt.Sprintf("reading config %s: %v", path, err))
	}
	return Load(raw)
}

// Validate checks the structural invariants the schema promises:
// bundle id 0 is reserved, node names referenced by a bundle's
// producer/consumer must exist, and transport types must be
// recognized.
func (d *Document) Validate() error {
	nodeNames := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.Name == "" {
			return protonerr.New(protonerr.SerializationError, "node with empty name")
		}
		switch n.Transport.Type {
		case "udp4", "serial":
		default:
			return protonerr.New(protonerr.SerializationError, fmt.Sprintf("node %q: unsupported transport type %q", n.Name, n.Transport.Type))
		}
		nodeNames[n.Name] = true
	}

	bundleNames := make(map[string]bool, len(d.Bundles))
	bundleIDs := make(map[uint32]bool, len(d.Bundles))
	for _, b := range d.Bundles {
		if b.ID == 0 {
			return protonerr.New(protonerr.SerializationError, fmt.Sprintf("bundle %q: id 0 is reserved for heartbeats", b.Name))
		}
		if bundleNames[b.Name] {
			return protonerr.New(protonerr.SerializationError, fmt.Sprintf("duplicate bundle name %q", b.Name))
		}
		if bundleIDs[b.ID] {
			return protonerr.New(protonerr.SerializationError, fmt.Sprintf("duplicate bundle id 0x%x", b.ID))
		}
		bundleNames[b.Name] = true
		bundleIDs[b.ID] = true
		if !nodeNames[b.Producer] {
			return protonerr.New(protonerr.SerializationError, fmt.Sprintf("bundle %q: unknown producer node %q", b.Name, b.Producer))
		}
		if !nodeNames[b.Consumer] {
			return protonerr.New(protonerr.SerializationError, fmt.Sprintf("bundle %q: unknown consumer node %q", b.Name, b.Consumer))
		}
	}
	return nil
}

// NodeByName returns the node configuration with the given name.
func (d *Document) NodeByName(name string) (*NodeConfig, error) {
	for i := range d.Nodes {
		if d.Nodes[i].Name == name {
			return &d.Nodes[i], nil
		}
	}
	return nil, protonerr.New(protonerr.SerializationError, fmt.Sprintf("unknown node %q", name))
}

// BundlesForNode returns every bundle where name participates as
// either producer or consumer.
func (d *Document) BundlesForNode(name string) []BundleConfig {
	var out []BundleConfig
	for _, b := range d.Bundles {
		if b.Producer == name || b.Consumer == name {
			out = append(out, b)
		}
	}
	return out
}

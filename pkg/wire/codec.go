// Package wire implements the Protocol Buffers wire-format codec for
// Proton bundles (spec §6). It deliberately stays below the level of a
// generated .pb.go: it is the "protobuf wire codec... assumed available
// as a library with encode/decode primitives" spec.md calls out as an
// external collaborator, built directly on the stable low-level
// google.golang.org/protobuf/encoding/protowire primitives rather than
// on generated message types.
package wire

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed is returned when a buffer cannot be parsed as a valid
// wire-format Bundle message.
var ErrMalformed = errors.New("wire: malformed bundle")

// Signal is the wire-level representation of a single Proton signal: a
// Kind tag plus the Go value occupying that oneof arm. The dynamic type
// of Value is determined entirely by Kind, per the table in kind.go.
type Signal struct {
	Kind  Kind
	Value any
}

// Bundle is the wire-level representation of `Bundle { uint32 id = 1;
// repeated Signal signals = 2; }`.
type Bundle struct {
	ID      uint32
	Signals []Signal
}

const (
	bundleFieldID      = protowire.Number(1)
	bundleFieldSignals = protowire.Number(2)
)

// EncodeBundle serializes a Bundle to its protobuf wire-format bytes.
func EncodeBundle(b Bundle) ([]byte, error) {
	var out []byte
	out = protowire.AppendTag(out, bundleFieldID, protowire.VarintType)
	out = protowire.AppendVarint(out, uint64(b.ID))
	for _, sig := range b.Signals {
		encoded, err := encodeSignal(sig)
		if err != nil {
			return nil, err
		}
		out = protowire.AppendTag(out, bundleFieldSignals, protowire.BytesType)
		out = protowire.AppendBytes(out, encoded)
	}
	return out, nil
}

// DecodeBundle parses protobuf wire-format bytes into a Bundle.
// Unknown top-level fields are skipped per standard protobuf semantics.
func DecodeBundle(buf []byte) (Bundle, error) {
	var b Bundle
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return Bundle{}, fmt.Errorf("%w: tag: %v", ErrMalformed, protowire.ParseError(n))
		}
		buf = buf[n:]
		switch {
		case num == bundleFieldID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return Bundle{}, fmt.Errorf("%w: id: %v", ErrMalformed, protowire.ParseError(n))
			}
			b.ID = uint32(v)
			buf = buf[n:]
		case num == bundleFieldSignals && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(buf)
			if n < 0 {
				return Bundle{}, fmt.Errorf("%w: signal: %v", ErrMalformed, protowire.ParseError(n))
			}
			sig, err := decodeSignal(v)
			if err != nil {
				return Bundle{}, err
			}
			b.Signals = append(b.Signals, sig)
			buf = buf[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return Bundle{}, fmt.Errorf("%w: unknown field: %v", ErrMalformed, protowire.ParseError(n))
			}
			buf = buf[n:]
		}
	}
	return b, nil
}

// DecodeBundleID reads only the bundle id out of a wire buffer, without
// decoding signals, for callers that only need to demultiplex on id.
// The bundle manager does not use it; it decodes the whole bundle.
// Grounded on PROTON_DecodeId in the original C sources.
func DecodeBundleID(buf []byte) (uint32, error) {
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return 0, fmt.Errorf("%w: tag: %v", ErrMalformed, protowire.ParseError(n))
		}
		buf = buf[n:]
		if num == bundleFieldID && typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(buf)
			if n < 0 {
				return 0, fmt.Errorf("%w: id: %v", ErrMalformed, protowire.ParseError(n))
			}
			return uint32(v), nil
		}
		n = protowire.ConsumeFieldValue(num, typ, buf)
		if n < 0 {
			return 0, fmt.Errorf("%w: unknown field: %v", ErrMalformed, protowire.ParseError(n))
		}
		buf = buf[n:]
	}
	return 0, fmt.Errorf("%w: no id field", ErrMalformed)
}

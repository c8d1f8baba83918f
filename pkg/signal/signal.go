// Package signal implements the typed, bounds-checked signal handle
// described by the schema/handle system: a tagged-union value with
// get/set accessors whose type tag is fixed at construction and never
// changes for the handle's lifetime.
package signal

import (
	"fmt"

	"github.com/clearpath-proton/proton/pkg/protonerr"
	"github.com/clearpath-proton/proton/pkg/wire"
)

// Schema is the construction record for a signal: name, type string,
// declared length (list element count), declared capacity (byte bound
// for string/bytes and per-element list variants), an optional default
// value, and whether the signal is immutable after construction.
type Schema struct {
	Name     string
	Type     string
	Length   uint32
	Capacity uint32
	Default  any
	IsConst  bool
}

// kindByTypeString resolves a schema type string to its wire.Kind,
// the fixed lookup called out in the construction contract.
var kindByTypeString = map[string]wire.Kind{
	"double":      wire.KindDouble,
	"float":       wire.KindFloat,
	"int32":       wire.KindInt32,
	"int64":       wire.KindInt64,
	"uint32":      wire.KindUint32,
	"uint64":      wire.KindUint64,
	"bool":        wire.KindBool,
	"string":      wire.KindString,
	"bytes":       wire.KindBytes,
	"list_double": wire.KindListDouble,
	"list_float":  wire.KindListFloat,
	"list_int32":  wire.KindListInt32,
	"list_int64":  wire.KindListInt64,
	"list_uint32": wire.KindListUint32,
	"list_uint64": wire.KindListUint64,
	"list_bool":   wire.KindListBool,
	"list_string": wire.KindListString,
	"list_bytes":  wire.KindListBytes,
}

// KindForTypeString exposes the schema type-string lookup for callers
// (e.g. config parsing) that need to validate a type name up front.
func KindForTypeString(typ string) (wire.Kind, bool) {
	k, ok := kindByTypeString[typ]
	return k, ok
}

// Handle is a named, typed view over a single signal value. The
// variant tag (Kind) is fixed at construction; Value's dynamic type is
// always the Go type associated with Kind in wire.Kind's table.
type Handle struct {
	name       string
	bundleName string
	kind       wire.Kind
	length     uint32
	capacity   uint32
	isConst    bool
	value      any
}

// New constructs a Handle from a schema record, resolving the type
// string, pre-filling list storage to exactly Length zero-valued
// elements, starting string/bytes empty (Capacity bounds later
// assignments; no storage is reserved up front), and applying an
// optional default (still subject to IsConst semantics going forward).
func New(bundleName string, s Schema) (*Handle, error) {
	kind, ok := kindByTypeString[s.Type]
	if !ok {
		return nil, protonerr.New(protonerr.SerializationError, fmt.Sprintf("unknown signal type %q for %q", s.Type, s.Name))
	}

	h := &Handle{
		name:       s.Name,
		bundleName: bundleName,
		kind:       kind,
		length:     s.Length,
		capacity:   s.Capacity,
		isConst:    s.IsConst,
		value:      zeroValue(kind, s.Length),
	}

	if s.Default != nil {
		if err := h.setUnchecked(s.Default); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func zeroValue(kind wire.Kind, length uint32) any {
	switch kind {
	case wire.KindDouble:
		return float64(0)
	case wire.KindFloat:
		return float32(0)
	case wire.KindInt32:
		return int32(0)
	case wire.KindInt64:
		return int64(0)
	case wire.KindUint32:
		return uint32(0)
	case wire.KindUint64:
		return uint64(0)
	case wire.KindBool:
		return false
	case wire.KindString:
		return ""
	case wire.KindBytes:
		return []byte{}
	case wire.KindListDouble:
		return make([]float64, length)
	case wire.KindListFloat:
		return make([]float32, length)
	case wire.KindListInt32:
		return make([]int32, length)
	case wire.KindListInt64:
		return make([]int64, length)
	case wire.KindListUint32:
		return make([]uint32, length)
	case wire.KindListUint64:
		return make([]uint64, length)
	case wire.KindListBool:
		return make([]bool, length)
	case wire.KindListString:
		return make([]string, length)
	case wire.KindListBytes:
		return make([][]byte, length)
	default:
		return nil
	}
}

// Name returns the signal's schema name.
func (h *Handle) Name() string { return h.name }

// BundleName returns the name of the bundle this signal belongs to.
func (h *Handle) BundleName() string { return h.bundleName }

// Kind returns the signal's fixed variant tag.
func (h *Handle) Kind() wire.Kind { return h.kind }

// Length returns the declared element count for list variants, 0 for
// scalars.
func (h *Handle) Length() uint32 { return h.length }

// Capacity returns the declared byte bound for string/bytes and their
// list variants, 0 otherwise.
func (h *Handle) Capacity() uint32 { return h.capacity }

// IsConst reports whether set operations on this signal always fail.
func (h *Handle) IsConst() bool { return h.isConst }

func (h *Handle) wrongType(wantGo string) error {
	return protonerr.New(protonerr.SerializationError,
		fmt.Sprintf("signal %q: wrong type, want %s got kind %s", h.name, wantGo, h.kind))
}

func (h *Handle) constErr() error {
	return protonerr.New(protonerr.InvalidState, fmt.Sprintf("signal %q is const", h.name))
}

// setUnchecked assigns a raw value bypassing is_const, used only by
// New to apply schema defaults.
func (h *Handle) setUnchecked(v any) error {
	if err := h.checkAssignable(v); err != nil {
		return err
	}
	h.value = v
	return nil
}

func (h *Handle) checkAssignable(v any) error {
	switch h.kind {
	case wire.KindDouble:
		if _, ok := v.(float64); !ok {
			return h.wrongType("float64")
		}
	case wire.KindFloat:
		if _, ok := v.(float32); !ok {
			return h.wrongType("float32")
		}
	case wire.KindInt32:
		if _, ok := v.(int32); !ok {
			return h.wrongType("int32")
		}
	case wire.KindInt64:
		if _, ok := v.(int64); !ok {
			return h.wrongType("int64")
		}
	case wire.KindUint32:
		if _, ok := v.(uint32); !ok {
			return h.wrongType("uint32")
		}
	case wire.KindUint64:
		if _, ok := v.(uint64); !ok {
			return h.wrongType("uint64")
		}
	case wire.KindBool:
		if _, ok := v.(bool); !ok {
			return h.wrongType("bool")
		}
	case wire.KindString:
		s, ok := v.(string)
		if !ok {
			return h.wrongType("string")
		}
		if h.capacity > 0 && uint32(len(s)) > h.capacity {
			return protonerr.New(protonerr.InsufficientBuffer,
				fmt.Sprintf("signal %q: string length %d exceeds capacity %d", h.name, len(s), h.capacity))
		}
	case wire.KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return h.wrongType("[]byte")
		}
		if h.capacity > 0 && uint32(len(b)) > h.capacity {
			return protonerr.New(protonerr.InsufficientBuffer,
				fmt.Sprintf("signal %q: byte length %d exceeds capacity %d", h.name, len(b), h.capacity))
		}
	case wire.KindListDouble:
		l, ok := v.([]float64)
		if !ok {
			return h.wrongType("[]float64")
		}
		if uint32(len(l)) != h.length {
			return h.lengthErr(len(l))
		}
	case wire.KindListFloat:
		l, ok := v.([]float32)
		if !ok {
			return h.wrongType("[]float32")
		}
		if uint32(len(l)) != h.length {
			return h.lengthErr(len(l))
		}
	case wire.KindListInt32:
		l, ok := v.([]int32)
		if !ok {
			return h.wrongType("[]int32")
		}
		if uint32(len(l)) != h.length {
			return h.lengthErr(len(l))
		}
	case wire.KindListInt64:
		l, ok := v.([]int64)
		if !ok {
			return h.wrongType("[]int64")
		}
		if uint32(len(l)) != h.length {
			return h.lengthErr(len(l))
		}
	case wire.KindListUint32:
		l, ok := v.([]uint32)
		if !ok {
			return h.wrongType("[]uint32")
		}
		if uint32(len(l)) != h.length {
			return h.lengthErr(len(l))
		}
	case wire.KindListUint64:
		l, ok := v.([]uint64)
		if !ok {
			return h.wrongType("[]uint64")
		}
		if uint32(len(l)) != h.length {
			return h.lengthErr(len(l))
		}
	case wire.KindListBool:
		l, ok := v.([]bool)
		if !ok {
			return h.wrongType("[]bool")
		}
		if uint32(len(l)) != h.length {
			return h.lengthErr(len(l))
		}
	case wire.KindListString:
		l, ok := v.([]string)
		if !ok {
			return h.wrongType("[]string")
		}
		if uint32(len(l)) != h.length {
			return h.lengthErr(len(l))
		}
		for _, s := range l {
			if h.capacity > 0 && uint32(len(s)) > h.capacity {
				return protonerr.New(protonerr.InsufficientBuffer,
					fmt.Sprintf("signal %q: element length %d exceeds capacity %d", h.name, len(s), h.capacity))
			}
		}
	case wire.KindListBytes:
		l, ok := v.([][]byte)
		if !ok {
			return h.wrongType("[][]byte")
		}
		if uint32(len(l)) != h.length {
			return h.lengthErr(len(l))
		}
		for _, b := range l {
			if h.capacity > 0 && uint32(len(b)) > h.capacity {
				return protonerr.New(protonerr.InsufficientBuffer,
					fmt.Sprintf("signal %q: element length %d exceeds capacity %d", h.name, len(b), h.capacity))
			}
		}
	default:
		return protonerr.New(protonerr.SerializationError, fmt.Sprintf("signal %q: unsupported kind %s", h.name, h.kind))
	}
	return nil
}

func (h *Handle) lengthErr(got int) error {
	return protonerr.New(protonerr.SerializationError,
		fmt.Sprintf("signal %q: list length %d does not match declared length %d", h.name, got, h.length))
}

// Get returns the signal's current value. Callers type-assert the
// result against the Go type matching Kind().
func (h *Handle) Get() any { return h.value }

// Set replaces the signal's value, enforcing the fixed type tag,
// length for list variants, capacity for string/bytes and their list
// element variants, and the is_const flag. On failure the value is
// left unchanged.
func (h *Handle) Set(v any) error {
	if h.isConst {
		return h.constErr()
	}
	if err := h.checkAssignable(v); err != nil {
		return err
	}
	h.value = v
	return nil
}

// SetAt replaces a single element of a list-variant signal. index must
// be < Length(); for string/bytes elements, the element must not
// exceed Capacity().
func (h *Handle) SetAt(index uint32, v any) error {
	if h.isConst {
		return h.constErr()
	}
	if !h.kind.IsList() {
		return protonerr.New(protonerr.SerializationError, fmt.Sprintf("signal %q: indexed set on non-list kind %s", h.name, h.kind))
	}
	if index >= h.length {
		return protonerr.New(protonerr.SerializationError,
			fmt.Sprintf("signal %q: index %d out of range (length %d)", h.name, index, h.length))
	}

	switch h.kind {
	case wire.KindListDouble:
		e, ok := v.(float64)
		if !ok {
			return h.wrongType("float64")
		}
		l := h.value.([]float64)
		l[index] = e
	case wire.KindListFloat:
		e, ok := v.(float32)
		if !ok {
			return h.wrongType("float32")
		}
		l := h.value.([]float32)
		l[index] = e
	case wire.KindListInt32:
		e, ok := v.(int32)
		if !ok {
			return h.wrongType("int32")
		}
		l := h.value.([]int32)
		l[index] = e
	case wire.KindListInt64:
		e, ok := v.(int64)
		if !ok {
			return h.wrongType("int64")
		}
		l := h.value.([]int64)
		l[index] = e
	case wire.KindListUint32:
		e, ok := v.(uint32)
		if !ok {
			return h.wrongType("uint32")
		}
		l := h.value.([]uint32)
		l[index] = e
	case wire.KindListUint64:
		e, ok := v.(uint64)
		if !ok {
			return h.wrongType("uint64")
		}
		l := h.value.([]uint64)
		l[index] = e
	case wire.KindListBool:
		e, ok := v.(bool)
		if !ok {
			return h.wrongType("bool")
		}
		l := h.value.([]bool)
		l[index] = e
	case wire.KindListString:
		e, ok := v.(string)
		if !ok {
			return h.wrongType("string")
		}
		if h.capacity > 0 && uint32(len(e)) > h.capacity {
			return protonerr.New(protonerr.InsufficientBuffer,
				fmt.Sprintf("signal %q: element length %d exceeds capacity %d", h.name, len(e), h.capacity))
		}
		l := h.value.([]string)
		l[index] = e
	case wire.KindListBytes:
		e, ok := v.([]byte)
		if !ok {
			return h.wrongType("[]byte")
		}
		if h.capacity > 0 && uint32(len(e)) > h.capacity {
			return protonerr.New(protonerr.InsufficientBuffer,
				fmt.Sprintf("signal %q: element length %d exceeds capacity %d", h.name, len(e), h.capacity))
		}
		l := h.value.([][]byte)
		l[index] = e
	default:
		return protonerr.New(protonerr.SerializationError, fmt.Sprintf("signal %q: indexed set unsupported for kind %s", h.name, h.kind))
	}
	return nil
}

// ToWire builds the wire.Signal representation of this handle's
// current value, for encoding into a Bundle.
func (h *Handle) ToWire() wire.Signal {
	return wire.Signal{Kind: h.kind, Value: h.value}
}

// FromWire overwrites this handle's value from a decoded wire.Signal.
// The kind of sig must match the handle's fixed tag; this is the
// "replace positionally, metadata unchanged" receive-path semantics.
func (h *Handle) FromWire(sig wire.Signal) error {
	if sig.Kind != h.kind {
		return protonerr.New(protonerr.SerializationError,
			fmt.Sprintf("signal %q: wire kind %s does not match declared kind %s", h.name, sig.Kind, h.kind))
	}
	h.value = sig.Value
	return nil
}

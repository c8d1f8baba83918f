package config

import (
	"fmt"

	"github.com/clearpath-proton/proton/pkg/protonerr"
	"github.com/clearpath-proton/proton/pkg/signal"
	"github.com/clearpath-proton/proton/pkg/wire"
)

// ToSignalSchema converts a parsed SignalConfig into a signal.Schema,
// resolving the type string and coercing the generic YAML value (if
// present) into the Go type the signal's kind expects. A non-nil
// Value makes the resulting signal constant, per the schema's
// "value... makes signal constant" rule.
func (s SignalConfig) ToSignalSchema() (signal.Schema, error) {
	kind, ok := signal.KindForTypeString(s.Type)
	if !ok {
		return signal.Schema{}, protonerr.New(protonerr.SerializationError, fmt.Sprintf("signal %q: unknown type %q", s.Name, s.Type))
	}

	schema := signal.Schema{
		Name:     s.Name,
		Type:     s.Type,
		Length:   s.Length,
		Capacity: s.Capacity,
	}

	if s.Value != nil {
		coerced, err := coerceValue(kind, s.Value)
		if err != nil {
			return signal.Schema{}, fmt.Errorf("signal %q: %w", s.Name, err)
		}
		schema.Default = coerced
		schema.IsConst = true
	}
	return schema, nil
}

// coerceValue converts a generically-decoded YAML value (numbers
// decode as int or float64, lists as []any) into the Go type the
// given wire.Kind's oneof arm expects.
func coerceValue(kind wire.Kind, v any) (any, error) {
	switch kind {
	case wire.KindDouble:
		return toFloat64(v)
	case wire.KindFloat:
		f, err := toFloat64(v)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case wire.KindInt32:
		i, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		return int32(i), nil
	case wire.KindInt64:
		return toInt64(v)
	case wire.KindUint32:
		i, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		return uint32(i), nil
	case wire.KindUint64:
		i, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		return uint64(i), nil
	case wire.KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", v)
		}
		return b, nil
	case wire.KindString:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", v)
		}
		return s, nil
	case wire.KindBytes:
		return coerceByteList(v)
	case wire.KindListDouble:
		return coerceNumericList(v, func(f float64) (any, error) { return f, nil })
	case wire.KindListFloat:
		return coerceNumericList(v, func(f float64) (any, error) { return float32(f), nil })
	case wire.KindListInt32:
		return coerceNumericList(v, func(f float64) (any, error) { return int32(f), nil })
	case wire.KindListInt64:
		return coerceNumericList(v, func(f float64) (any, error) { return int64(f), nil })
	case wire.KindListUint32:
		return coerceNumericList(v, func(f float64) (any, error) { return uint32(f), nil })
	case wire.KindListUint64:
		return coerceNumericList(v, func(f float64) (any, error) { return uint64(f), nil })
	case wire.KindListBool:
		list, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("expected list, got %T", v)
		}
		out := make([]bool, len(list))
		for i, e := range list {
			b, ok := e.(bool)
			if !ok {
				return nil, fmt.Errorf("list element %d: expected bool, got %T", i, e)
			}
			out[i] = b
		}
		return out, nil
	case wire.KindListString:
		list, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("expected list, got %T", v)
		}
		out := make([]string, len(list))
		for i, e := range list {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("list element %d: expected string, got %T", i, e)
			}
			out[i] = s
		}
		return out, nil
	case wire.KindListBytes:
		list, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("expected list, got %T", v)
		}
		out := make([][]byte, len(list))
		for i, e := range list {
			b, err := coerceByteList(e)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			out[i] = b
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported kind %s", kind)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func coerceNumericList(v any, conv func(float64) (any, error)) (any, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	out := make([]any, len(list))
	for i, e := range list {
		f, err := toFloat64(e)
		if err != nil {
			return nil, fmt.Errorf("list element %d: %w", i, err)
		}
		val, err := conv(f)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return reify(out), nil
}

// reify converts a []any of homogeneous boxed scalars into the
// concrete typed slice signal.Handle.Set expects.
func reify(vals []any) any {
	if len(vals) == 0 {
		return vals
	}
	switch vals[0].(type) {
	case float64:
		out := make([]float64, len(vals))
		for i, v := range vals {
			out[i] = v.(float64)
		}
		return out
	case float32:
		out := make([]float32, len(vals))
		for i, v := range vals {
			out[i] = v.(float32)
		}
		return out
	case int32:
		out := make([]int32, len(vals))
		for i, v := range vals {
			out[i] = v.(int32)
		}
		return out
	case int64:
		out := make([]int64, len(vals))
		for i, v := range vals {
			out[i] = v.(int64)
		}
		return out
	case uint32:
		out := make([]uint32, len(vals))
		for i, v := range vals {
			out[i] = v.(uint32)
		}
		return out
	case uint64:
		out := make([]uint64, len(vals))
		for i, v := range vals {
			out[i] = v.(uint64)
		}
		return out
	default:
		return vals
	}
}

func coerceByteList(v any) ([]byte, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected byte list, got %T", v)
	}
	out := make([]byte, len(list))
	for i, e := range list {
		n, err := toInt64(e)
		if err != nil {
			return nil, fmt.Errorf("byte %d: %w", i, err)
		}
		out[i] = byte(n)
	}
	return out, nil
}

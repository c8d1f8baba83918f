package wire

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// encodeSignal serializes one Signal message: a oneof over 18 field
// numbers, tags matching spec §6 exactly.
func encodeSignal(sig Signal) ([]byte, error) {
	num := protowire.Number(sig.Kind)
	var out []byte
	switch sig.Kind {
	case KindDouble:
		v, ok := sig.Value.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: double value has type %T", ErrMalformed, sig.Value)
		}
		out = protowire.AppendTag(out, num, protowire.Fixed64Type)
		out = protowire.AppendFixed64(out, math.Float64bits(v))
	case KindFloat:
		v, ok := sig.Value.(float32)
		if !ok {
			return nil, fmt.Errorf("%w: float value has type %T", ErrMalformed, sig.Value)
		}
		out = protowire.AppendTag(out, num, protowire.Fixed32Type)
		out = protowire.AppendFixed32(out, math.Float32bits(v))
	case KindInt32:
		v, ok := sig.Value.(int32)
		if !ok {
			return nil, fmt.Errorf("%w: int32 value has type %T", ErrMalformed, sig.Value)
		}
		out = protowire.AppendTag(out, num, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(int64(v)))
	case KindInt64:
		v, ok := sig.Value.(int64)
		if !ok {
			return nil, fmt.Errorf("%w: int64 value has type %T", ErrMalformed, sig.Value)
		}
		out = protowire.AppendTag(out, num, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(v))
	case KindUint32:
		v, ok := sig.Value.(uint32)
		if !ok {
			return nil, fmt.Errorf("%w: uint32 value has type %T", ErrMalformed, sig.Value)
		}
		out = protowire.AppendTag(out, num, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(v))
	case KindUint64:
		v, ok := sig.Value.(uint64)
		if !ok {
			return nil, fmt.Errorf("%w: uint64 value has type %T", ErrMalformed, sig.Value)
		}
		out = protowire.AppendTag(out, num, protowire.VarintType)
		out = protowire.AppendVarint(out, v)
	case KindBool:
		v, ok := sig.Value.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: bool value has type %T", ErrMalformed, sig.Value)
		}
		out = protowire.AppendTag(out, num, protowire.VarintType)
		out = protowire.AppendVarint(out, protowire.EncodeBool(v))
	case KindString:
		v, ok := sig.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: string value has type %T", ErrMalformed, sig.Value)
		}
		out = protowire.AppendTag(out, num, protowire.BytesType)
		out = protowire.AppendString(out, v)
	case KindBytes:
		v, ok := sig.Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("%w: bytes value has type %T", ErrMalformed, sig.Value)
		}
		out = protowire.AppendTag(out, num, protowire.BytesType)
		out = protowire.AppendBytes(out, v)
	case KindListDouble:
		v, ok := sig.Value.([]float64)
		if !ok {
			return nil, fmt.Errorf("%w: list_double value has type %T", ErrMalformed, sig.Value)
		}
		out = protowire.AppendTag(out, num, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeListDoubles(v))
	case KindListFloat:
		v, ok := sig.Value.([]float32)
		if !ok {
			return nil, fmt.Errorf("%w: list_float value has type %T", ErrMalformed, sig.Value)
		}
		out = protowire.AppendTag(out, num, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeListFloats(v))
	case KindListInt32:
		v, ok := sig.Value.([]int32)
		if !ok {
			return nil, fmt.Errorf("%w: list_int32 value has type %T", ErrMalformed, sig.Value)
		}
		out = protowire.AppendTag(out, num, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeListInt32s(v))
	case KindListInt64:
		v, ok := sig.Value.([]int64)
		if !ok {
			return nil, fmt.Errorf("%w: list_int64 value has type %T", ErrMalformed, sig.Value)
		}
		out = protowire.AppendTag(out, num, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeListInt64s(v))
	case KindListUint32:
		v, ok := sig.Value.([]uint32)
		if !ok {
			return nil, fmt.Errorf("%w: list_uint32 value has type %T", ErrMalformed, sig.Value)
		}
		out = protowire.AppendTag(out, num, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeListUint32s(v))
	case KindListUint64:
		v, ok := sig.Value.([]uint64)
		if !ok {
			return nil, fmt.Errorf("%w: list_uint64 value has type %T", ErrMalformed, sig.Value)
		}
		out = protowire.AppendTag(out, num, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeListUint64s(v))
	case KindListBool:
		v, ok := sig.Value.([]bool)
		if !ok {
			return nil, fmt.Errorf("%w: list_bool value has type %T", ErrMalformed, sig.Value)
		}
		out = protowire.AppendTag(out, num, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeListBools(v))
	case KindListString:
		v, ok := sig.Value.([]string)
		if !ok {
			return nil, fmt.Errorf("%w: list_string value has type %T", ErrMalformed, sig.Value)
		}
		out = protowire.AppendTag(out, num, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeListStrings(v))
	case KindListBytes:
		v, ok := sig.Value.([][]byte)
		if !ok {
			return nil, fmt.Errorf("%w: list_bytes value has type %T", ErrMalformed, sig.Value)
		}
		out = protowire.AppendTag(out, num, protowire.BytesType)
		out = protowire.AppendBytes(out, encodeListByteses(v))
	default:
		return nil, fmt.Errorf("%w: unknown signal kind %v", ErrMalformed, sig.Kind)
	}
	return out, nil
}

// decodeSignal parses exactly one oneof arm out of a Signal message
// buffer; unknown signal variants within a known bundle are dropped per
// spec §6, returning a zero Signal and no error.
func decodeSignal(buf []byte) (Signal, error) {
	num, typ, n := protowire.ConsumeTag(buf)
	if n < 0 {
		return Signal{}, fmt.Errorf("%w: signal tag: %v", ErrMalformed, protowire.ParseError(n))
	}
	rest := buf[n:]
	kind := Kind(num)

	switch kind {
	case KindDouble:
		v, n := protowire.ConsumeFixed64(rest)
		if n < 0 || typ != protowire.Fixed64Type {
			return Signal{}, fmt.Errorf("%w: double", ErrMalformed)
		}
		return Signal{Kind: kind, Value: math.Float64frombits(v)}, nil
	case KindFloat:
		v, n := protowire.ConsumeFixed32(rest)
		if n < 0 || typ != protowire.Fixed32Type {
			return Signal{}, fmt.Errorf("%w: float", ErrMalformed)
		}
		return Signal{Kind: kind, Value: math.Float32frombits(v)}, nil
	case KindInt32:
		v, n := protowire.ConsumeVarint(rest)
		if n < 0 || typ != protowire.VarintType {
			return Signal{}, fmt.Errorf("%w: int32", ErrMalformed)
		}
		return Signal{Kind: kind, Value: int32(int64(v))}, nil
	case KindInt64:
		v, n := protowire.ConsumeVarint(rest)
		if n < 0 || typ != protowire.VarintType {
			return Signal{}, fmt.Errorf("%w: int64", ErrMalformed)
		}
		return Signal{Kind: kind, Value: int64(v)}, nil
	case KindUint32:
		v, n := protowire.ConsumeVarint(rest)
		if n < 0 || typ != protowire.VarintType {
			return Signal{}, fmt.Errorf("%w: uint32", ErrMalformed)
		}
		return Signal{Kind: kind, Value: uint32(v)}, nil
	case KindUint64:
		v, n := protowire.ConsumeVarint(rest)
		if n < 0 || typ != protowire.VarintType {
			return Signal{}, fmt.Errorf("%w: uint64", ErrMalformed)
		}
		return Signal{Kind: kind, Value: v}, nil
	case KindBool:
		v, n := protowire.ConsumeVarint(rest)
		if n < 0 || typ != protowire.VarintType {
			return Signal{}, fmt.Errorf("%w: bool", ErrMalformed)
		}
		return Signal{Kind: kind, Value: protowire.DecodeBool(v)}, nil
	case KindString:
		v, n := protowire.ConsumeBytes(rest)
		if n < 0 || typ != protowire.BytesType {
			return Signal{}, fmt.Errorf("%w: string", ErrMalformed)
		}
		return Signal{Kind: kind, Value: string(v)}, nil
	case KindBytes:
		v, n := protowire.ConsumeBytes(rest)
		if n < 0 || typ != protowire.BytesType {
			return Signal{}, fmt.Errorf("%w: bytes", ErrMalformed)
		}
		return Signal{Kind: kind, Value: append([]byte(nil), v...)}, nil
	case KindListDouble:
		v, n := protowire.ConsumeBytes(rest)
		if n < 0 || typ != protowire.BytesType {
			return Signal{}, fmt.Errorf("%w: list_double", ErrMalformed)
		}
		list, err := decodeListDoubles(v)
		if err != nil {
			return Signal{}, err
		}
		return Signal{Kind: kind, Value: list}, nil
	case KindListFloat:
		v, n := protowire.ConsumeBytes(rest)
		if n < 0 || typ != protowire.BytesType {
			return Signal{}, fmt.Errorf("%w: list_float", ErrMalformed)
		}
		list, err := decodeListFloats(v)
		if err != nil {
			return Signal{}, err
		}
		return Signal{Kind: kind, Value: list}, nil
	case KindListInt32:
		v, n := protowire.ConsumeBytes(rest)
		if n < 0 || typ != protowire.BytesType {
			return Signal{}, fmt.Errorf("%w: list_int32", ErrMalformed)
		}
		list, err := decodeListInt32s(v)
		if err != nil {
			return Signal{}, err
		}
		return Signal{Kind: kind, Value: list}, nil
	case KindListInt64:
		v, n := protowire.ConsumeBytes(rest)
		if n < 0 || typ != protowire.BytesType {
			return Signal{}, fmt.Errorf("%w: list_int64", ErrMalformed)
		}
		list, err := decodeListInt64s(v)
		if err != nil {
			return Signal{}, err
		}
		return Signal{Kind: kind, Value: list}, nil
	case KindListUint32:
		v, n := protowire.ConsumeBytes(rest)
		if n < 0 || typ != protowire.BytesType {
			return Signal{}, fmt.Errorf("%w: list_uint32", ErrMalformed)
		}
		list, err := decodeListUint32s(v)
		if err != nil {
			return Signal{}, err
		}
		return Signal{Kind: kind, Value: list}, nil
	case KindListUint64:
		v, n := protowire.ConsumeBytes(rest)
		if n < 0 || typ != protowire.BytesType {
			return Signal{}, fmt.Errorf("%w: list_uint64", ErrMalformed)
		}
		list, err := decodeListUint64s(v)
		if err != nil {
			return Signal{}, err
		}
		return Signal{Kind: kind, Value: list}, nil
	case KindListBool:
		v, n := protowire.ConsumeBytes(rest)
		if n < 0 || typ != protowire.BytesType {
			return Signal{}, fmt.Errorf("%w: list_bool", ErrMalformed)
		}
		list, err := decodeListBools(v)
		if err != nil {
			return Signal{}, err
		}
		return Signal{Kind: kind, Value: list}, nil
	case KindListString:
		v, n := protowire.ConsumeBytes(rest)
		if n < 0 || typ != protowire.BytesType {
			return Signal{}, fmt.Errorf("%w: list_string", ErrMalformed)
		}
		list, err := decodeListStrings(v)
		if err != nil {
			return Signal{}, err
		}
		return Signal{Kind: kind, Value: list}, nil
	case KindListBytes:
		v, n := protowire.ConsumeBytes(rest)
		if n < 0 || typ != protowire.BytesType {
			return Signal{}, fmt.Errorf("%w: list_bytes", ErrMalformed)
		}
		list, err := decodeListByteses(v)
		if err != nil {
			return Signal{}, err
		}
		return Signal{Kind: kind, Value: list}, nil
	default:
		// Unknown signal variant within a known bundle: dropped per spec §6.
		return Signal{}, nil
	}
}

const (
	listFieldElements = protowire.Number(1)
)

func encodeListDoubles(values []float64) []byte {
	var out []byte
	for _, v := range values {
		out = protowire.AppendTag(out, listFieldElements, protowire.Fixed64Type)
		out = protowire.AppendFixed64(out, math.Float64bits(v))
	}
	return out
}

func decodeListDoubles(buf []byte) ([]float64, error) {
	var out []float64
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return nil, fmt.Errorf("%w: list_double element tag", ErrMalformed)
		}
		buf = buf[n:]
		if num != listFieldElements || typ != protowire.Fixed64Type {
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return nil, fmt.Errorf("%w: list_double element", ErrMalformed)
			}
			buf = buf[n:]
			continue
		}
		v, n := protowire.ConsumeFixed64(buf)
		if n < 0 {
			return nil, fmt.Errorf("%w: list_double element", ErrMalformed)
		}
		out = append(out, math.Float64frombits(v))
		buf = buf[n:]
	}
	return out, nil
}

func encodeListFloats(values []float32) []byte {
	var out []byte
	for _, v := range values {
		out = protowire.AppendTag(out, listFieldElements, protowire.Fixed32Type)
		out = protowire.AppendFixed32(out, math.Float32bits(v))
	}
	return out
}

func decodeListFloats(buf []byte) ([]float32, error) {
	var out []float32
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return nil, fmt.Errorf("%w: list_float element tag", ErrMalformed)
		}
		buf = buf[n:]
		if num != listFieldElements || typ != protowire.Fixed32Type {
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return nil, fmt.Errorf("%w: list_float element", ErrMalformed)
			}
			buf = buf[n:]
			continue
		}
		v, n := protowire.ConsumeFixed32(buf)
		if n < 0 {
			return nil, fmt.Errorf("%w: list_float element", ErrMalformed)
		}
		out = append(out, math.Float32frombits(v))
		buf = buf[n:]
	}
	return out, nil
}

func encodeListInt32s(values []int32) []byte {
	var out []byte
	for _, v := range values {
		out = protowire.AppendTag(out, listFieldElements, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(int64(v)))
	}
	return out
}

func decodeListInt32s(buf []byte) ([]int32, error) {
	var out []int32
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return nil, fmt.Errorf("%w: list_int32 element tag", ErrMalformed)
		}
		buf = buf[n:]
		if num != listFieldElements || typ != protowire.VarintType {
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return nil, fmt.Errorf("%w: list_int32 element", ErrMalformed)
			}
			buf = buf[n:]
			continue
		}
		v, n := protowire.ConsumeVarint(buf)
		if n < 0 {
			return nil, fmt.Errorf("%w: list_int32 element", ErrMalformed)
		}
		out = append(out, int32(int64(v)))
		buf = buf[n:]
	}
	return out, nil
}

func encodeListInt64s(values []int64) []byte {
	var out []byte
	for _, v := range values {
		out = protowire.AppendTag(out, listFieldElements, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(v))
	}
	return out
}

func decodeListInt64s(buf []byte) ([]int64, error) {
	var out []int64
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return nil, fmt.Errorf("%w: list_int64 element tag", ErrMalformed)
		}
		buf = buf[n:]
		if num != listFieldElements || typ != protowire.VarintType {
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return nil, fmt.Errorf("%w: list_int64 element", ErrMalformed)
			}
			buf = buf[n:]
			continue
		}
		v, n := protowire.ConsumeVarint(buf)
		if n < 0 {
			return nil, fmt.Errorf("%w: list_int64 element", ErrMalformed)
		}
		out = append(out, int64(v))
		buf = buf[n:]
	}
	return out, nil
}

func encodeListUint32s(values []uint32) []byte {
	var out []byte
	for _, v := range values {
		out = protowire.AppendTag(out, listFieldElements, protowire.VarintType)
		out = protowire.AppendVarint(out, uint64(v))
	}
	return out
}

func decodeListUint32s(buf []byte) ([]uint32, error) {
	var out []uint32
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return nil, fmt.Errorf("%w: list_uint32 element tag", ErrMalformed)
		}
		buf = buf[n:]
		if num != listFieldElements || typ != protowire.VarintType {
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return nil, fmt.Errorf("%w: list_uint32 element", ErrMalformed)
			}
			buf = buf[n:]
			continue
		}
		v, n := protowire.ConsumeVarint(buf)
		if n < 0 {
			return nil, fmt.Errorf("%w: list_uint32 element", ErrMalformed)
		}
		out = append(out, uint32(v))
		buf = buf[n:]
	}
	return out, nil
}

func encodeListUint64s(values []uint64) []byte {
	var out []byte
	for _, v := range values {
		out = protowire.AppendTag(out, listFieldElements, protowire.VarintType)
		out = protowire.AppendVarint(out, v)
	}
	return out
}

func decodeListUint64s(buf []byte) ([]uint64, error) {
	var out []uint64
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return nil, fmt.Errorf("%w: list_uint64 element tag", ErrMalformed)
		}
		buf = buf[n:]
		if num != listFieldElements || typ != protowire.VarintType {
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return nil, fmt.Errorf("%w: list_uint64 element", ErrMalformed)
			}
			buf = buf[n:]
			continue
		}
		v, n := protowire.ConsumeVarint(buf)
		if n < 0 {
			return nil, fmt.Errorf("%w: list_uint64 element", ErrMalformed)
		}
		out = append(out, v)
		buf = buf[n:]
	}
	return out, nil
}

func encodeListBools(values []bool) []byte {
	var out []byte
	for _, v := range values {
		out = protowire.AppendTag(out, listFieldElements, protowire.VarintType)
		out = protowire.AppendVarint(out, protowire.EncodeBool(v))
	}
	return out
}

func decodeListBools(buf []byte) ([]bool, error) {
	var out []bool
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return nil, fmt.Errorf("%w: list_bool element tag", ErrMalformed)
		}
		buf = buf[n:]
		if num != listFieldElements || typ != protowire.VarintType {
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return nil, fmt.Errorf("%w: list_bool element", ErrMalformed)
			}
			buf = buf[n:]
			continue
		}
		v, n := protowire.ConsumeVarint(buf)
		if n < 0 {
			return nil, fmt.Errorf("%w: list_bool element", ErrMalformed)
		}
		out = append(out, protowire.DecodeBool(v))
		buf = buf[n:]
	}
	return out, nil
}

func encodeListStrings(values []string) []byte {
	var out []byte
	for _, v := range values {
		out = protowire.AppendTag(out, listFieldElements, protowire.BytesType)
		out = protowire.AppendString(out, v)
	}
	return out
}

func decodeListStrings(buf []byte) ([]string, error) {
	var out []string
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return nil, fmt.Errorf("%w: list_string element tag", ErrMalformed)
		}
		buf = buf[n:]
		if num != listFieldElements || typ != protowire.BytesType {
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return nil, fmt.Errorf("%w: list_string element", ErrMalformed)
			}
			buf = buf[n:]
			continue
		}
		v, n := protowire.ConsumeBytes(buf)
		if n < 0 {
			return nil, fmt.Errorf("%w: list_string element", ErrMalformed)
		}
		out = append(out, string(v))
		buf = buf[n:]
	}
	return out, nil
}

func encodeListByteses(values [][]byte) []byte {
	var out []byte
	for _, v := range values {
		out = protowire.AppendTag(out, listFieldElements, protowire.BytesType)
		out = protowire.AppendBytes(out, v)
	}
	return out
}

func decodeListByteses(buf []byte) ([][]byte, error) {
	var out [][]byte
	for len(buf) > 0 {
		num, typ, n := protowire.ConsumeTag(buf)
		if n < 0 {
			return nil, fmt.Errorf("%w: list_bytes element tag", ErrMalformed)
		}
		buf = buf[n:]
		if num != listFieldElements || typ != protowire.BytesType {
			n := protowire.ConsumeFieldValue(num, typ, buf)
			if n < 0 {
				return nil, fmt.Errorf("%w: list_bytes element", ErrMalformed)
			}
			buf = buf[n:]
			continue
		}
		v, n := protowire.ConsumeBytes(buf)
		if n < 0 {
			return nil, fmt.Errorf("%w: list_bytes element", ErrMalformed)
		}
		out = append(out, append([]byte(nil), v...))
		buf = buf[n:]
	}
	return out, nil
}

package wire

import "fmt"

// Kind identifies which arm of the Signal oneof a value occupies. The
// numeric values match the protobuf field tags in the wire schema
// (spec §6) exactly — field tag 18 is fixed as the canonical ListBytes
// tag, matching the C++ manager generation rather than the 17-signal
// generation.
type Kind uint8

const (
	KindDouble     Kind = 1
	KindFloat      Kind = 2
	KindInt32      Kind = 3
	KindInt64      Kind = 4
	KindUint32     Kind = 5
	KindUint64     Kind = 6
	KindBool       Kind = 7
	KindString     Kind = 8
	KindBytes      Kind = 9
	KindListDouble Kind = 10
	KindListFloat  Kind = 11
	KindListInt32  Kind = 12
	KindListInt64  Kind = 13
	KindListUint32 Kind = 14
	KindListUint64 Kind = 15
	KindListBool   Kind = 16
	KindListString Kind = 17
	KindListBytes  Kind = 18
)

var kindNames = map[Kind]string{
	KindDouble:     "double",
	KindFloat:      "float",
	KindInt32:      "int32",
	KindInt64:      "int64",
	KindUint32:     "uint32",
	KindUint64:     "uint64",
	KindBool:       "bool",
	KindString:     "string",
	KindBytes:      "bytes",
	KindListDouble: "list_double",
	KindListFloat:  "list_float",
	KindListInt32:  "list_int32",
	KindListInt64:  "list_int64",
	KindListUint32: "list_uint32",
	KindListUint64: "list_uint64",
	KindListBool:   "list_bool",
	KindListString: "list_string",
	KindListBytes:  "list_bytes",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsList reports whether the kind is one of the repeated variants.
func (k Kind) IsList() bool {
	return k >= KindListDouble && k <= KindListBytes
}

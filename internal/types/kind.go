package types

import "fmt"

// Kind enumerates the bridged type variants.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindPrimitive
	KindStr
	KindString
	KindOpaque
	KindStruct
	KindEnum
	KindOption
	KindResult
	KindSlice
	KindVec
	KindCallback
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindPrimitive:
		return "primitive"
	case KindStr:
		return "str"
	case KindString:
		return "string"
	case KindOpaque:
		return "opaque"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindOption:
		return "option"
	case KindResult:
		return "result"
	case KindSlice:
		return "slice"
	case KindVec:
		return "vec"
	case KindCallback:
		return "callback"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// PrimKind enumerates the primitive scalars.
type PrimKind uint8

const (
	PrimUnit PrimKind = iota
	PrimBool
	PrimU8
	PrimU16
	PrimU32
	PrimU64
	PrimUsize
	PrimI8
	PrimI16
	PrimI32
	PrimI64
	PrimIsize
	PrimF32
	PrimF64
)

type primInfo struct {
	rust   string
	c      string
	swift  string
	option string
	size   int
}

var prims = [...]primInfo{
	PrimUnit:  {"()", "void", "()", "", 0},
	PrimBool:  {"bool", "bool", "Bool", "Bool", 1},
	PrimU8:    {"u8", "uint8_t", "UInt8", "U8", 1},
	PrimU16:   {"u16", "uint16_t", "UInt16", "U16", 2},
	PrimU32:   {"u32", "uint32_t", "UInt32", "U32", 4},
	PrimU64:   {"u64", "uint64_t", "UInt64", "U64", 8},
	PrimUsize: {"usize", "uintptr_t", "UInt", "Usize", 8},
	PrimI8:    {"i8", "int8_t", "Int8", "I8", 1},
	PrimI16:   {"i16", "int16_t", "Int16", "I16", 2},
	PrimI32:   {"i32", "int32_t", "Int32", "I32", 4},
	PrimI64:   {"i64", "int64_t", "Int64", "I64", 8},
	PrimIsize: {"isize", "intptr_t", "Int", "Isize", 8},
	PrimF32:   {"f32", "float", "Float", "F32", 4},
	PrimF64:   {"f64", "double", "Double", "F64", 8},
}

var primByName = func() map[string]PrimKind {
	m := make(map[string]PrimKind, len(prims))
	for k, info := range prims {
		m[info.rust] = PrimKind(k)
	}
	return m
}()

// LookupPrim finds the primitive spelled name in Rust.
func LookupPrim(name string) (PrimKind, bool) {
	k, ok := primByName[name]
	return k, ok
}

// AllPrims lists every primitive except unit, in declaration order.
func AllPrims() []PrimKind {
	out := make([]PrimKind, 0, len(prims)-1)
	for k := PrimBool; int(k) < len(prims); k++ {
		out = append(out, k)
	}
	return out
}

func (k PrimKind) String() string { return prims[k].rust }

func (k PrimKind) IsInteger() bool { return k >= PrimU8 && k <= PrimIsize }

func (k PrimKind) IsFloat() bool { return k == PrimF32 || k == PrimF64 }

// OptionSuffix names the support option struct: OptionU8, OptionBool.
func (k PrimKind) OptionSuffix() string { return prims[k].option }

// NaturalSize is the size in bytes on a 64-bit target; pointer-sized
// kinds are resolved per target by the layout package.
func (k PrimKind) NaturalSize() int { return prims[k].size }

func (k PrimKind) IsPointerSized() bool { return k == PrimUsize || k == PrimIsize }

// CName is the C spelling of the scalar.
func (k PrimKind) CName() string { return prims[k].c }

// SwiftName is the Swift spelling of the scalar.
func (k PrimKind) SwiftName() string { return prims[k].swift }

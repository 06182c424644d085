package swift

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridgegen/internal/bridge"
	"bridgegen/internal/diag"
	"bridgegen/internal/sema"
)

func analyse(t *testing.T, mods ...*bridge.Module) *sema.Result {
	t.Helper()
	bag := diag.NewBag(16)
	res := sema.Check(bridge.ModuleSet(mods), sema.Options{
		Reporter: &diag.BagReporter{Bag: bag},
		Config:   bridge.NoFeaturesEnabled(),
	})
	require.False(t, bag.HasErrors(), "unexpected diagnostics: %+v", bag.Items())
	return res
}

func wrapper(t *testing.T, mod *bridge.Module) string {
	t.Helper()
	return GenerateWrapper(analyse(t, mod).Module(mod.Name))
}

func ty(s string) *bridge.TypeExpr { return bridge.MustParseTypeExpr(s) }

// assertBalanced fails when a closing brace has no opener or a block is
// left open.
func assertBalanced(t *testing.T, src string) {
	t.Helper()
	depth := 0
	for i, line := range strings.Split(src, "\n") {
		depth += strings.Count(line, "{") - strings.Count(line, "}")
		require.GreaterOrEqual(t, depth, 0, "unmatched brace on line %d: %q", i+1, line)
	}
	require.Zero(t, depth, "%d blocks left open", depth)
}

func TestDisabledModuleHasNoWrapper(t *testing.T) {
	mod := &bridge.Module{
		Name:        "gated",
		CfgFeatures: []string{"extra"},
		Funcs:       []*bridge.FuncDecl{{Name: "foo"}},
	}
	assert.Empty(t, wrapper(t, mod))
}

func TestEmptyModuleIsNoticeOnly(t *testing.T) {
	assert.Equal(t, Notice+"\n", wrapper(t, &bridge.Module{Name: "m"}))
}

func TestFreeFunction(t *testing.T) {
	mod := &bridge.Module{
		Name: "m",
		Funcs: []*bridge.FuncDecl{{
			Name: "foo", Params: []bridge.Param{{Name: "arg1", Type: ty("u8")}}, Return: ty("u8"),
		}},
	}
	want := Notice + "\n" +
		"public func foo(_ arg1: UInt8) -> UInt8 {\n" +
		"    __swift_bridge__$foo(arg1)\n" +
		"}\n"
	require.Equal(t, want, wrapper(t, mod))
}

func TestStrParamIsScoped(t *testing.T) {
	mod := &bridge.Module{
		Name:  "m",
		Funcs: []*bridge.FuncDecl{{Name: "greet", Params: []bridge.Param{{Name: "name", Type: ty("&str")}}}},
	}
	got := wrapper(t, mod)
	assert.Contains(t, got, "public func greet(_ name: String) {\n")
	assert.Contains(t, got, "    name.toRustStr({ nameAsRustStr in\n    __swift_bridge__$greet(nameAsRustStr)\n    })\n")
}

func TestStringReturn(t *testing.T) {
	mod := &bridge.Module{
		Name:  "m",
		Funcs: []*bridge.FuncDecl{{Name: "name", Return: ty("String")}},
	}
	got := wrapper(t, mod)
	assert.Contains(t, got, "public func name() -> RustString {\n    RustString(ptr: __swift_bridge__$name())\n}\n")
}

func TestMethodClassPlacement(t *testing.T) {
	method := func(name string, r bridge.Receiver) *bridge.FuncDecl {
		return &bridge.FuncDecl{Name: name, AssociatedTo: ty("SomeType"), Receiver: r}
	}
	mod := &bridge.Module{
		Name:  "m",
		Types: []bridge.TypeDecl{&bridge.OpaqueType{Name: "SomeType"}},
		Funcs: []*bridge.FuncDecl{
			method("a", bridge.ReceiverOwned),
			method("b", bridge.ReceiverOwned),
			method("c", bridge.ReceiverRef),
			method("d", bridge.ReceiverRef),
			method("e", bridge.ReceiverRefMut),
			method("f", bridge.ReceiverRefMut),
		},
	}
	want := `public class SomeType: SomeTypeRefMut {
    var isOwned: Bool = true

    public override init(ptr: UnsafeMutableRawPointer) {
        super.init(ptr: ptr)
    }

    deinit {
        if isOwned {
            __swift_bridge__$SomeType$_free(ptr)
        }
    }
}
extension SomeType {
    public func a() {
        __swift_bridge__$SomeType$a({isOwned = false; return ptr;}())
    }

    public func b() {
        __swift_bridge__$SomeType$b({isOwned = false; return ptr;}())
    }
}
public class SomeTypeRefMut: SomeTypeRef {
    public override init(ptr: UnsafeMutableRawPointer) {
        super.init(ptr: ptr)
    }
}
extension SomeTypeRefMut {
    public func e() {
        __swift_bridge__$SomeType$e(ptr)
    }

    public func f() {
        __swift_bridge__$SomeType$f(ptr)
    }
}
public class SomeTypeRef {
    var ptr: UnsafeMutableRawPointer

    public init(ptr: UnsafeMutableRawPointer) {
        self.ptr = ptr
    }
}
extension SomeTypeRef {
    public func c() {
        __swift_bridge__$SomeType$c(ptr)
    }

    public func d() {
        __swift_bridge__$SomeType$d(ptr)
    }
}
`
	assert.Contains(t, wrapper(t, mod), want)
}

func TestInitAndStaticFunction(t *testing.T) {
	mod := &bridge.Module{
		Name:  "m",
		Types: []bridge.TypeDecl{&bridge.OpaqueType{Name: "SomeType"}},
		Funcs: []*bridge.FuncDecl{
			{Name: "new", AssociatedTo: ty("SomeType"), Init: true, Params: []bridge.Param{{Name: "val", Type: ty("u8")}}},
			{Name: "count", AssociatedTo: ty("SomeType"), Return: ty("u32")},
		},
	}
	got := wrapper(t, mod)
	assert.Contains(t, got, "    public convenience init(_ val: UInt8) {\n"+
		"        let ptr = __swift_bridge__$SomeType$new(val)\n"+
		"        self.init(ptr: ptr)\n"+
		"    }\n")
	assert.Contains(t, got, "    public static func count() -> UInt32 {\n        __swift_bridge__$SomeType$count()\n    }\n")
}

func TestOpaqueVectorizable(t *testing.T) {
	mod := &bridge.Module{
		Name:  "m",
		Types: []bridge.TypeDecl{&bridge.OpaqueType{Name: "SomeType"}},
	}
	got := wrapper(t, mod)
	assert.Contains(t, got, "extension SomeType: Vectorizable {\n")
	assert.Contains(t, got, "__swift_bridge__$Vec_SomeType$push(vecPtr, {value.isOwned = false; return value.ptr;}())")
	assert.Contains(t, got, "return (SomeType(ptr: pointer!) as! Self)")
	assert.Contains(t, got, "public static func vecOfSelfGetMut(vecPtr: UnsafeMutableRawPointer, index: UInt) -> Optional<SomeTypeRefMut> {")
	assert.Contains(t, got, "UnsafePointer<SomeTypeRef>(OpaquePointer(__swift_bridge__$Vec_SomeType$as_ptr(vecPtr)))")
}

func TestHashableEquatable(t *testing.T) {
	mod := &bridge.Module{
		Name: "m",
		Types: []bridge.TypeDecl{
			&bridge.OpaqueType{Name: "Key", Attrs: bridge.OpaqueAttrs{Hashable: true, Equatable: true}},
		},
	}
	got := wrapper(t, mod)
	assert.Contains(t, got, "extension KeyRef: Equatable {\n"+
		"    public static func == (lhs: KeyRef, rhs: KeyRef) -> Bool {\n"+
		"        __swift_bridge__$Key$_partial_eq(lhs.ptr, rhs.ptr)\n"+
		"    }\n"+
		"}\n")
	assert.Contains(t, got, "hasher.combine(__swift_bridge__$Key$_hash(self.ptr))")
}

func TestHashableWithoutEquatableIsNotDeclared(t *testing.T) {
	mod := &bridge.Module{
		Name:  "m",
		Types: []bridge.TypeDecl{&bridge.OpaqueType{Name: "Key", Attrs: bridge.OpaqueAttrs{Hashable: true}}},
	}
	assert.NotContains(t, wrapper(t, mod), "Hashable")
}

func TestCopyType(t *testing.T) {
	mod := &bridge.Module{
		Name: "m",
		Types: []bridge.TypeDecl{
			&bridge.OpaqueType{Name: "Id", Attrs: bridge.OpaqueAttrs{Copy: &bridge.CopyAttr{SizeBytes: 16}, Equatable: true}},
		},
		Funcs: []*bridge.FuncDecl{
			{Name: "current", Return: ty("Id")},
			{Name: "value", AssociatedTo: ty("Id"), Receiver: bridge.ReceiverRef, Return: ty("u8")},
		},
	}
	got := wrapper(t, mod)
	assert.Contains(t, got, "public struct Id {\n    var bytes: __swift_bridge__$Copy$Id\n")
	assert.Contains(t, got, "Id(bytes: __swift_bridge__$current())")
	assert.Contains(t, got, "extension Id {\n    public func value() -> UInt8 {\n        __swift_bridge__$Id$value(self.bytes)\n    }\n}\n")
	assert.Contains(t, got, "extension Optional where Wrapped == Id {")
	assert.Contains(t, got, "return __swift_bridge__$Option$Copy$Id(is_some: false, val: __swift_bridge__$Copy$Id())")
	assert.Contains(t, got, "__swift_bridge__$Id$_partial_eq(lhs.bytes, rhs.bytes)")
	assert.NotContains(t, got, "_free")
	assert.NotContains(t, got, "Vectorizable")
	assertBalanced(t, got)
}

func TestGenericInstance(t *testing.T) {
	mod := &bridge.Module{
		Name: "m",
		Types: []bridge.TypeDecl{
			&bridge.OpaqueType{Name: "Pair", Attrs: bridge.OpaqueAttrs{DeclareGeneric: true}, GenericParams: []string{"A", "B"}},
			&bridge.OpaqueType{Name: "Pair", Generics: []*bridge.TypeExpr{ty("u8"), ty("u16")}},
		},
		Funcs: []*bridge.FuncDecl{
			{Name: "first", AssociatedTo: ty("Pair<u8, u16>"), Receiver: bridge.ReceiverRef, Return: ty("u8")},
		},
	}
	got := wrapper(t, mod)
	assert.Contains(t, got, "public class Pair<A, B>: PairRefMut<A, B> {")
	assert.Contains(t, got, "(self as! SwiftBridgeGenericFreer).rust_free()")
	assert.Contains(t, got, "public class PairRef<A, B> {")
	assert.Contains(t, got, "extension Pair: SwiftBridgeGenericFreer where A == UInt8, B == UInt16 {\n"+
		"    public func rust_free() {\n"+
		"        __swift_bridge__$Pair$u8$u16$_free(ptr)\n"+
		"    }\n"+
		"}\n")
	assert.Contains(t, got, "extension PairRef where A == UInt8, B == UInt16 {\n"+
		"    public func first() -> UInt8 {\n"+
		"        __swift_bridge__$Pair$u8$u16$first(ptr)\n"+
		"    }\n"+
		"}\n")
	assert.Equal(t, 1, strings.Count(got, "public class Pair<"))
	assert.NotContains(t, got, "Vectorizable")
}

func TestSharedStruct(t *testing.T) {
	mod := &bridge.Module{
		Name: "m",
		Types: []bridge.TypeDecl{&bridge.SharedStruct{
			Name: "Point",
			Fields: bridge.StructFields{Style: bridge.FieldsNamed, List: []bridge.StructField{
				{Name: "x", Type: ty("f64")},
				{Name: "y", Type: ty("f64")},
			}},
		}},
	}
	got := wrapper(t, mod)
	assert.Contains(t, got, "public struct Point {\n"+
		"    public var x: Double\n"+
		"    public var y: Double\n"+
		"\n"+
		"    public init(x: Double, y: Double) {\n"+
		"        self.x = x\n"+
		"        self.y = y\n"+
		"    }\n"+
		"\n"+
		"    @inline(__always)\n"+
		"    func intoFfiRepr() -> __swift_bridge__$Point {\n"+
		"        __swift_bridge__$Point(x: self.x, y: self.y)\n"+
		"    }\n"+
		"}\n")
	assert.Contains(t, got, "extension __swift_bridge__$Point {\n"+
		"    @inline(__always)\n"+
		"    func intoSwiftRepr() -> Point {\n"+
		"        Point(x: self.x, y: self.y)\n"+
		"    }\n"+
		"}\n")
	assert.Contains(t, got, "extension Optional where Wrapped == Point {")
	assert.Contains(t, got, "return __swift_bridge__$Option$Point(is_some: false, val: __swift_bridge__$Point())")
}

func TestEmptyStructUsesPlaceholder(t *testing.T) {
	mod := &bridge.Module{
		Name:  "m",
		Types: []bridge.TypeDecl{&bridge.SharedStruct{Name: "Marker", Fields: bridge.StructFields{Style: bridge.FieldsUnit}}},
	}
	got := wrapper(t, mod)
	assert.Contains(t, got, "public init() {\n    }\n")
	assert.Contains(t, got, "__swift_bridge__$Marker(_private: 123)")
}

func TestTransparentEnum(t *testing.T) {
	mod := &bridge.Module{
		Name: "m",
		Types: []bridge.TypeDecl{&bridge.SharedEnum{
			Name:     "Color",
			Variants: []bridge.EnumVariant{{Name: "Red"}, {Name: "Green"}},
		}},
	}
	got := wrapper(t, mod)
	assert.Contains(t, got, "public enum Color {\n    case Red\n    case Green\n}\n")
	assert.Contains(t, got, "        case Color.Red:\n            return __swift_bridge__$Color(tag: __swift_bridge__$Color$Red)\n")
	assert.Contains(t, got, "        case __swift_bridge__$Color$Green:\n            return Color.Green\n")
	assert.Contains(t, got, "fatalError(\"Unreachable\")")
	assert.Contains(t, got, "extension Color: Vectorizable {")
	assert.Contains(t, got, "__swift_bridge__$Vec_Color$push(vecPtr, value.intoFfiRepr())")
	assert.Contains(t, got, "        switch self.tag {\n        case __swift_bridge__$Color$Red:\n")
	assert.Contains(t, got, "        default:\n            fatalError(\"Unreachable\")\n        }\n    }\n}\n")
	assertBalanced(t, got)
}

func TestDataEnum(t *testing.T) {
	mod := &bridge.Module{
		Name: "m",
		Types: []bridge.TypeDecl{&bridge.SharedEnum{
			Name: "Shape",
			Variants: []bridge.EnumVariant{
				{Name: "Empty"},
				{Name: "Circle", Fields: bridge.StructFields{Style: bridge.FieldsNamed, List: []bridge.StructField{
					{Name: "radius", Type: ty("f32")},
				}}},
				{Name: "Pair", Fields: bridge.StructFields{Style: bridge.FieldsUnnamed, List: []bridge.StructField{
					{Type: ty("u8")},
					{Type: ty("u8")},
				}}},
			},
		}},
	}
	got := wrapper(t, mod)
	assert.Contains(t, got, "    case Circle(radius: Float)\n    case Pair(UInt8, UInt8)\n")
	assert.Contains(t, got, "return __swift_bridge__$Shape(tag: __swift_bridge__$Shape$Empty, payload: __swift_bridge__$ShapeFields())")
	assert.Contains(t, got, "case Shape.Circle(let radius):\n            return __swift_bridge__$Shape(tag: __swift_bridge__$Shape$Circle, "+
		"payload: __swift_bridge__$ShapeFields(Circle: __swift_bridge__$Shape$FieldOfCircle(radius: radius)))")
	assert.Contains(t, got, "case Shape.Pair(let _0, let _1):")
	assert.Contains(t, got, "return Shape.Circle(radius: self.payload.Circle.radius)")
	assert.Contains(t, got, "return Shape.Pair(self.payload.Pair._0, self.payload.Pair._1)")
	assert.NotContains(t, got, "Vectorizable")
	assertBalanced(t, got)
}

func TestAsyncFunction(t *testing.T) {
	mod := &bridge.Module{
		Name: "m",
		Funcs: []*bridge.FuncDecl{{
			Name: "fetch", Async: true,
			Params: []bridge.Param{{Name: "id", Type: ty("u32")}}, Return: ty("String"),
		}},
	}
	got := wrapper(t, mod)
	assert.Contains(t, got, "public func fetch(_ id: UInt32) async -> RustString {\n")
	assert.Contains(t, got, "func onComplete(cbWrapperPtr: UnsafeMutableRawPointer?, rustFnRetVal: UnsafeMutableRawPointer?) {")
	assert.Contains(t, got, "wrapper.cb(RustString(ptr: rustFnRetVal!))")
	assert.Contains(t, got, "    return await withCheckedContinuation({ (continuation: CheckedContinuation<RustString, Never>) in\n"+
		"        let callback = { rustFnRetVal in continuation.resume(returning: rustFnRetVal) }\n")
	assert.Contains(t, got, "        __swift_bridge__$fetch(wrapperPtr, onComplete, id)\n    })\n}\n")
	assertBalanced(t, got)
	assert.Contains(t, got, "class CbWrapper__swift_bridge__$fetch {\n    var cb: (RustString) -> ()\n")
	assert.Less(t, strings.Index(got, "public func fetch"), strings.Index(got, "class CbWrapper"))
}

func TestHeaderlessAsyncFunction(t *testing.T) {
	mod := &bridge.Module{
		Name:  "m",
		Funcs: []*bridge.FuncDecl{{Name: "ping", Async: true}},
	}
	got := wrapper(t, mod)
	assert.Contains(t, got, "public func ping() async {\n")
	assert.Contains(t, got, "        let callback = { continuation.resume() }\n")
	assert.Contains(t, got, "        __swift_bridge___ping(wrapperPtr, onComplete)\n    })\n}\n")
	assertBalanced(t, got)
	assert.Contains(t, got, "var cb: () -> ()")
	assert.Contains(t, got, "@_silgen_name(\"__swift_bridge__$ping\")\nfunc __swift_bridge___ping(_ callbackWrapper: UnsafeMutableRawPointer, ")
}

func TestSwiftHostedItems(t *testing.T) {
	mod := &bridge.Module{
		Name:  "m",
		Types: []bridge.TypeDecl{&bridge.OpaqueType{Name: "Foo", Host: bridge.HostSwift}},
		Funcs: []*bridge.FuncDecl{
			{Name: "bar", Host: bridge.HostSwift, AssociatedTo: ty("Foo"), Receiver: bridge.ReceiverRef, Return: ty("u8")},
			{Name: "notify", Host: bridge.HostSwift, Params: []bridge.Param{
				{Name: "cb", Type: ty("Box<dyn FnOnce(u8) -> bool>")},
				{Name: "after", Type: ty("Box<dyn FnOnce()>")},
			}},
		},
	}
	got := wrapper(t, mod)
	assert.Contains(t, got, "@_cdecl(\"__swift_bridge__$Foo$_free\")\n"+
		"func __swift_bridge___Foo__free(ptr: UnsafeMutableRawPointer) {\n"+
		"    let _ = Unmanaged<Foo>.fromOpaque(ptr).takeRetainedValue()\n"+
		"}\n")
	assert.Contains(t, got, "@_cdecl(\"__swift_bridge__$Foo$bar\")\n"+
		"func __swift_bridge___Foo_bar (_ this: UnsafeMutableRawPointer) -> UInt8 {\n"+
		"    return Unmanaged<Foo>.fromOpaque(this).takeUnretainedValue().bar()\n"+
		"}\n")
	assert.Contains(t, got, "func __swift_bridge___notify (_ cb: UnsafeMutableRawPointer, _ after: UnsafeMutableRawPointer) {")
	assert.Contains(t, got, "__private__RustFnOnceCallbackNoArgsNoRet(ptr: after)")
	assert.Contains(t, got, "class __private__RustFnOnceCallback__swift_bridge__$notify$param0 {")
	assert.Contains(t, got, "__swift_bridge__$notify$_free$param0(ptr)")
	assert.Contains(t, got, "func call(_ arg0: UInt8) -> Bool {")
	assert.Contains(t, got, "return __swift_bridge__$notify$param0(ptr, arg0)")
	assert.NotContains(t, got, "$param1")
	assert.NotContains(t, got, "public class Foo")
}

func TestWrapperIsDeterministic(t *testing.T) {
	mod := &bridge.Module{
		Name: "m",
		Types: []bridge.TypeDecl{
			&bridge.OpaqueType{Name: "A"},
			&bridge.SharedEnum{Name: "E", Variants: []bridge.EnumVariant{{Name: "X"}}},
		},
		Funcs: []*bridge.FuncDecl{
			{Name: "r1", Return: ty("Result<u8, String>")},
			{Name: "a", AssociatedTo: ty("A"), Receiver: bridge.ReceiverRef},
		},
	}
	first := wrapper(t, mod)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, wrapper(t, mod))
	}
}

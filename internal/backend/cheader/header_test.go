package cheader

import (
	"strings"
	"testing"

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
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	return res
}

func header(t *testing.T, mod *bridge.Module) string {
	t.Helper()
	return GenerateHeaderBody(analyse(t, mod).Module(mod.Name))
}

func ty(s string) *bridge.TypeExpr { return bridge.MustParseTypeExpr(s) }

func vecLines(elem string) string {
	return "void* __swift_bridge__$Vec_" + elem + "$new(void);\n" +
		"void __swift_bridge__$Vec_" + elem + "$drop(void* vec_ptr);\n" +
		"void __swift_bridge__$Vec_" + elem + "$push(void* vec_ptr, void* item_ptr);\n" +
		"void* __swift_bridge__$Vec_" + elem + "$pop(void* vec_ptr);\n" +
		"void* __swift_bridge__$Vec_" + elem + "$get(void* vec_ptr, uintptr_t index);\n" +
		"void* __swift_bridge__$Vec_" + elem + "$get_mut(void* vec_ptr, uintptr_t index);\n" +
		"uintptr_t __swift_bridge__$Vec_" + elem + "$len(void* vec_ptr);\n" +
		"void* __swift_bridge__$Vec_" + elem + "$as_ptr(void* vec_ptr);\n"
}

func TestEmptyModuleIsNoticeOnly(t *testing.T) {
	mod := &bridge.Module{Name: "empty"}
	res := analyse(t, mod)
	got := GenerateHeader(res.Module("empty"))
	if strings.TrimSpace(got) != Notice {
		t.Fatalf("expected only the notice, got %q", got)
	}
}

func TestSwiftOnlyModuleIsEmpty(t *testing.T) {
	mod := &bridge.Module{
		Name:  "swift",
		Types: []bridge.TypeDecl{&bridge.OpaqueType{Name: "Foo", Host: bridge.HostSwift}},
		Funcs: []*bridge.FuncDecl{{Name: "bar", Host: bridge.HostSwift}},
	}
	if got := header(t, mod); got != "" {
		t.Fatalf("expected no header text, got %q", got)
	}
}

func TestDisabledModuleIsEmpty(t *testing.T) {
	mod := &bridge.Module{
		Name:        "gated",
		CfgFeatures: []string{"extra"},
		Funcs:       []*bridge.FuncDecl{{Name: "foo"}},
	}
	if got := header(t, mod); got != "" {
		t.Fatalf("expected no header text, got %q", got)
	}
}

func TestFreeFunctions(t *testing.T) {
	tests := []struct {
		name string
		fn   *bridge.FuncDecl
		want string
	}{
		{
			name: "no args",
			fn:   &bridge.FuncDecl{Name: "foo"},
			want: "void __swift_bridge__$foo(void);\n",
		},
		{
			name: "one arg",
			fn:   &bridge.FuncDecl{Name: "foo", Params: []bridge.Param{{Name: "arg1", Type: ty("u8")}}},
			want: "#include <stdint.h>\nvoid __swift_bridge__$foo(uint8_t arg1);\n",
		},
		{
			name: "return",
			fn:   &bridge.FuncDecl{Name: "foo", Return: ty("u8")},
			want: "#include <stdint.h>\nuint8_t __swift_bridge__$foo(void);\n",
		},
		{
			name: "bool and string",
			fn: &bridge.FuncDecl{Name: "foo", Params: []bridge.Param{{Name: "flag", Type: ty("bool")}},
				Return: ty("String")},
			want: "#include <stdbool.h>\nvoid* __swift_bridge__$foo(bool flag);\n",
		},
		{
			name: "async",
			fn: &bridge.FuncDecl{Name: "fetch", Async: true,
				Params: []bridge.Param{{Name: "id", Type: ty("u32")}}, Return: ty("String")},
			want: "#include <stdint.h>\nvoid __swift_bridge__$fetch(void* callback_wrapper, " +
				"void __swift_bridge__$fetch$async(void* callback_wrapper, void* ret), uint32_t id);\n",
		},
		{
			name: "async without params",
			fn:   &bridge.FuncDecl{Name: "tick", Async: true, Return: ty("u8")},
			want: "#include <stdint.h>\nvoid __swift_bridge__$tick(void* callback_wrapper, " +
				"void __swift_bridge__$tick$async(void* callback_wrapper, uint8_t ret));\n",
		},
		{
			name: "async without params or return",
			fn:   &bridge.FuncDecl{Name: "ping", Async: true},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := header(t, &bridge.Module{Name: "m", Funcs: []*bridge.FuncDecl{tt.fn}})
			if got != tt.want {
				t.Fatalf("header mismatch\nwant:\n%s\ngot:\n%s", tt.want, got)
			}
		})
	}
}

func TestOpaqueTypeWithMethod(t *testing.T) {
	mod := &bridge.Module{
		Name:  "m",
		Types: []bridge.TypeDecl{&bridge.OpaqueType{Name: "SomeType"}},
		Funcs: []*bridge.FuncDecl{{
			Name: "foo", AssociatedTo: ty("SomeType"), Receiver: bridge.ReceiverRef,
			Params: []bridge.Param{{Name: "val", Type: ty("u8")}},
		}},
	}
	want := "#include <stdint.h>\n" +
		"typedef struct SomeType SomeType;\n" +
		"void __swift_bridge__$SomeType$_free(void* self);\n" +
		vecLines("SomeType") +
		"void __swift_bridge__$SomeType$foo(void* self, uint8_t val);\n"
	if got := header(t, mod); got != want {
		t.Fatalf("header mismatch\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestOneFreeAndOneBundlePerOpaqueType(t *testing.T) {
	mod := &bridge.Module{
		Name:  "m",
		Types: []bridge.TypeDecl{&bridge.OpaqueType{Name: "SomeType"}},
		Funcs: []*bridge.FuncDecl{
			{Name: "a", AssociatedTo: ty("SomeType"), Receiver: bridge.ReceiverOwned},
			{Name: "b", AssociatedTo: ty("SomeType"), Receiver: bridge.ReceiverRef},
			{Name: "c", AssociatedTo: ty("SomeType"), Receiver: bridge.ReceiverRefMut},
			{Name: "d", Return: ty("Vec<SomeType>")},
		},
	}
	got := header(t, mod)
	if n := strings.Count(got, "$SomeType$_free("); n != 1 {
		t.Fatalf("expected one free function, got %d\n%s", n, got)
	}
	if n := strings.Count(got, "$Vec_SomeType$new("); n != 1 {
		t.Fatalf("expected one Vec bundle, got %d\n%s", n, got)
	}
	for _, m := range []string{"a", "b", "c"} {
		if !strings.Contains(got, "void __swift_bridge__$SomeType$"+m+"(void* self);\n") {
			t.Fatalf("missing method %s\n%s", m, got)
		}
	}
}

func TestCopyAndGenericTypesHaveNoBundle(t *testing.T) {
	mod := &bridge.Module{
		Name: "m",
		Types: []bridge.TypeDecl{
			&bridge.OpaqueType{Name: "Id", Attrs: bridge.OpaqueAttrs{Copy: &bridge.CopyAttr{SizeBytes: 16}}},
			&bridge.OpaqueType{Name: "Pair", Attrs: bridge.OpaqueAttrs{DeclareGeneric: true}, GenericParams: []string{"A", "B"}},
			&bridge.OpaqueType{Name: "Pair", Generics: []*bridge.TypeExpr{ty("u8"), ty("u16")}},
		},
	}
	got := header(t, mod)
	for _, line := range []string{
		"typedef struct __swift_bridge__$Copy$Id { uint8_t bytes[16]; } __swift_bridge__$Copy$Id;\n",
		"typedef struct __swift_bridge__$Option$Copy$Id { bool is_some; __swift_bridge__$Copy$Id val; } __swift_bridge__$Option$Copy$Id;\n",
		"typedef struct Pair$u8$u16 Pair$u8$u16;\n",
		"void __swift_bridge__$Pair$u8$u16$_free(void* self);\n",
	} {
		if !strings.Contains(got, line) {
			t.Fatalf("missing %q in\n%s", line, got)
		}
	}
	if strings.Contains(got, "$Vec_") {
		t.Fatalf("copy and generic types must not get a Vec bundle\n%s", got)
	}
	if strings.Contains(got, "$Id$_free") {
		t.Fatalf("copy types have no free function\n%s", got)
	}
}

func TestHashableEquatable(t *testing.T) {
	mod := &bridge.Module{
		Name: "m",
		Types: []bridge.TypeDecl{&bridge.OpaqueType{Name: "Key",
			Attrs: bridge.OpaqueAttrs{Hashable: true, Equatable: true}}},
	}
	got := header(t, mod)
	if !strings.HasPrefix(got, "#include <stdbool.h>\n#include <stdint.h>\n") {
		t.Fatalf("includes must be sorted\n%s", got)
	}
	for _, line := range []string{
		"uint64_t __swift_bridge__$Key$_hash(void* self);\n",
		"bool __swift_bridge__$Key$_partial_eq(void* lhs, void* rhs);\n",
	} {
		if !strings.Contains(got, line) {
			t.Fatalf("missing %q in\n%s", line, got)
		}
	}
}

func TestSliceTypedefIsSharedByFunctions(t *testing.T) {
	mod := &bridge.Module{
		Name: "m",
		Funcs: []*bridge.FuncDecl{
			{Name: "foo", Return: ty("&'static [u8]")},
			{Name: "bar", Return: ty("&'static [u8]")},
		},
	}
	want := "#include <stdint.h>\n" +
		"typedef struct FfiSlice_uint8_t { uint8_t* start; uintptr_t len; } FfiSlice_uint8_t;\n" +
		"struct __private__FfiSlice __swift_bridge__$foo(void);\n" +
		"struct __private__FfiSlice __swift_bridge__$bar(void);\n"
	if got := header(t, mod); got != want {
		t.Fatalf("header mismatch\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestEmptyStructGetsPlaceholder(t *testing.T) {
	mod := &bridge.Module{
		Name:  "m",
		Types: []bridge.TypeDecl{&bridge.SharedStruct{Name: "Unit", Fields: bridge.StructFields{Style: bridge.FieldsUnit}}},
	}
	want := "#include <stdbool.h>\n#include <stdint.h>\n" +
		"typedef struct __swift_bridge__$Unit { uint8_t _private; } __swift_bridge__$Unit;\n" +
		"typedef struct __swift_bridge__$Option$Unit { bool is_some; __swift_bridge__$Unit val; } __swift_bridge__$Option$Unit;\n"
	if got := header(t, mod); got != want {
		t.Fatalf("header mismatch\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestStructFields(t *testing.T) {
	mod := &bridge.Module{
		Name: "m",
		Types: []bridge.TypeDecl{
			&bridge.SharedStruct{Name: "Point", SwiftName: "SwiftPoint", Fields: bridge.StructFields{
				Style: bridge.FieldsNamed,
				List: []bridge.StructField{
					{Name: "x", Type: ty("f64")},
					{Name: "tag", Type: ty("Option<u8>")},
				},
			}},
			&bridge.SharedStruct{Name: "Pair", Fields: bridge.StructFields{
				Style: bridge.FieldsUnnamed,
				List:  []bridge.StructField{{Type: ty("i32")}, {Type: ty("String")}},
			}},
		},
	}
	got := header(t, mod)
	for _, line := range []string{
		"typedef struct __swift_bridge__$SwiftPoint { double x; struct __private__OptionU8 tag; } __swift_bridge__$SwiftPoint;\n",
		"typedef struct __swift_bridge__$Pair { int32_t _0; void* _1; } __swift_bridge__$Pair;\n",
	} {
		if !strings.Contains(got, line) {
			t.Fatalf("missing %q in\n%s", line, got)
		}
	}
}

func TestTransparentEnumGetsValueBundle(t *testing.T) {
	mod := &bridge.Module{
		Name: "m",
		Types: []bridge.TypeDecl{&bridge.SharedEnum{Name: "Color", Variants: []bridge.EnumVariant{
			{Name: "Red"}, {Name: "Green"},
		}}},
	}
	want := "#include <stdbool.h>\n#include <stdint.h>\n" +
		"typedef enum __swift_bridge__$ColorTag { __swift_bridge__$Color$Red, __swift_bridge__$Color$Green, } __swift_bridge__$ColorTag;\n" +
		"typedef struct __swift_bridge__$Color { __swift_bridge__$ColorTag tag; } __swift_bridge__$Color;\n" +
		"typedef struct __swift_bridge__$Option$Color { bool is_some; __swift_bridge__$Color val; } __swift_bridge__$Option$Color;\n" +
		"void* __swift_bridge__$Vec_Color$new(void);\n" +
		"void __swift_bridge__$Vec_Color$drop(void* vec_ptr);\n" +
		"void __swift_bridge__$Vec_Color$push(void* vec_ptr, __swift_bridge__$Color item);\n" +
		"__swift_bridge__$Option$Color __swift_bridge__$Vec_Color$pop(void* vec_ptr);\n" +
		"__swift_bridge__$Option$Color __swift_bridge__$Vec_Color$get(void* vec_ptr, uintptr_t index);\n" +
		"__swift_bridge__$Option$Color __swift_bridge__$Vec_Color$get_mut(void* vec_ptr, uintptr_t index);\n" +
		"uintptr_t __swift_bridge__$Vec_Color$len(void* vec_ptr);\n" +
		"void* __swift_bridge__$Vec_Color$as_ptr(void* vec_ptr);\n"
	if got := header(t, mod); got != want {
		t.Fatalf("header mismatch\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestDataEnumHasNoBundle(t *testing.T) {
	mod := &bridge.Module{
		Name: "m",
		Types: []bridge.TypeDecl{&bridge.SharedEnum{Name: "Shape", Variants: []bridge.EnumVariant{
			{Name: "Empty"},
			{Name: "Circle", Fields: bridge.StructFields{Style: bridge.FieldsNamed,
				List: []bridge.StructField{{Name: "radius", Type: ty("f32")}}}},
			{Name: "Label", Fields: bridge.StructFields{Style: bridge.FieldsUnnamed,
				List: []bridge.StructField{{Type: ty("String")}}}},
		}}},
	}
	got := header(t, mod)
	if strings.Contains(got, "$Vec_Shape$") {
		t.Fatalf("data-carrying enums must not get a Vec bundle\n%s", got)
	}
	for _, line := range []string{
		"typedef struct __swift_bridge__$Shape$FieldOfCircle { float radius; } __swift_bridge__$Shape$FieldOfCircle;\n",
		"typedef struct __swift_bridge__$Shape$FieldOfLabel { void* _0; } __swift_bridge__$Shape$FieldOfLabel;\n",
		"union __swift_bridge__$ShapeFields { __swift_bridge__$Shape$FieldOfCircle Circle; __swift_bridge__$Shape$FieldOfLabel Label; };\n",
		"typedef struct __swift_bridge__$Shape { __swift_bridge__$ShapeTag tag; union __swift_bridge__$ShapeFields payload; } __swift_bridge__$Shape;\n",
	} {
		if !strings.Contains(got, line) {
			t.Fatalf("missing %q in\n%s", line, got)
		}
	}
}

func TestResultSupportPrecedesPrototypes(t *testing.T) {
	mod := &bridge.Module{
		Name: "m",
		Funcs: []*bridge.FuncDecl{
			{Name: "parse", Return: ty("Result<u32, String>")},
			{Name: "parse_again", Return: ty("Result<u32, String>")},
		},
	}
	got := header(t, mod)
	support := "union __swift_bridge__$ResultFields$u32$String { uint32_t ok; void* err; };\n" +
		"typedef struct __swift_bridge__$Result$u32$String { bool is_ok; union __swift_bridge__$ResultFields$u32$String payload; } __swift_bridge__$Result$u32$String;\n"
	if strings.Count(got, support) != 1 {
		t.Fatalf("expected the Result support once\n%s", got)
	}
	proto := "__swift_bridge__$Result$u32$String __swift_bridge__$parse(void);\n"
	if strings.Index(got, support) > strings.Index(got, proto) {
		t.Fatalf("support must precede prototypes\n%s", got)
	}
}

func TestCallbackTrampolines(t *testing.T) {
	mod := &bridge.Module{
		Name: "m",
		Funcs: []*bridge.FuncDecl{{
			Name: "run",
			Host: bridge.HostSwift,
			Params: []bridge.Param{
				{Name: "done", Type: ty("Box<dyn FnOnce(u8) -> bool>")},
				{Name: "after", Type: ty("Box<dyn FnOnce()>")},
			},
		}},
	}
	want := "#include <stdbool.h>\n#include <stdint.h>\n" +
		"bool __swift_bridge__$run$param0(void* boxed_fnonce, uint8_t arg0);\n" +
		"void __swift_bridge__$run$_free$param0(void* boxed_fnonce);\n"
	if got := header(t, mod); got != want {
		t.Fatalf("header mismatch\nwant:\n%s\ngot:\n%s", want, got)
	}
}

func TestSharedDeclarationsEmittedOnce(t *testing.T) {
	mk := func(name string) *bridge.Module {
		return &bridge.Module{
			Name: name,
			Types: []bridge.TypeDecl{&bridge.SharedStruct{Name: "Point", Fields: bridge.StructFields{
				Style: bridge.FieldsNamed,
				List:  []bridge.StructField{{Name: "x", Type: ty("f64")}},
			}}},
			Funcs: []*bridge.FuncDecl{{Name: name + "_origin", Return: ty("Point")}},
		}
	}
	res := analyse(t, mk("a"), mk("b"))
	a := GenerateHeaderBody(res.Module("a"))
	b := GenerateHeaderBody(res.Module("b"))
	if !strings.Contains(a, "typedef struct __swift_bridge__$Point ") {
		t.Fatalf("owner must declare Point\n%s", a)
	}
	if strings.Contains(b, "typedef struct __swift_bridge__$Point ") {
		t.Fatalf("second module must not redeclare Point\n%s", b)
	}
	if !strings.Contains(b, "__swift_bridge__$Point __swift_bridge__$b_origin(void);\n") {
		t.Fatalf("second module still declares its function\n%s", b)
	}
}

func TestHeaderIsIdempotent(t *testing.T) {
	mod := &bridge.Module{
		Name: "m",
		Types: []bridge.TypeDecl{
			&bridge.OpaqueType{Name: "A"},
			&bridge.SharedEnum{Name: "E", Variants: []bridge.EnumVariant{{Name: "X"}}},
		},
		Funcs: []*bridge.FuncDecl{
			{Name: "f", Params: []bridge.Param{{Name: "s", Type: ty("&[i16]")}, {Name: "b", Type: ty("&[bool]")}},
				Return: ty("Option<E>")},
		},
	}
	m := analyse(t, mod).Module("m")
	first, second := GenerateHeader(m), GenerateHeader(m)
	if first != second {
		t.Fatalf("header is not deterministic\n%s\n---\n%s", first, second)
	}
	if strings.Index(first, "FfiSlice_bool") > strings.Index(first, "FfiSlice_int16_t") {
		t.Fatalf("slice typedefs must be sorted\n%s", first)
	}
}

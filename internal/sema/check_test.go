package sema

import (
	"testing"

	"bridgegen/internal/bridge"
	"bridgegen/internal/diag"
	"bridgegen/internal/types"
)

func checkModules(t *testing.T, cfg bridge.CodegenConfig, mods ...*bridge.Module) (*Result, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(32)
	res := Check(bridge.ModuleSet(mods), Options{
		Reporter: &diag.BagReporter{Bag: bag},
		Config:   cfg,
	})
	return res, bag
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	if bag == nil {
		return false
	}
	for _, item := range bag.Items() {
		if item.Code == code {
			return true
		}
	}
	return false
}

func countCode(bag *diag.Bag, code diag.Code) int {
	n := 0
	for _, item := range bag.Items() {
		if item.Code == code {
			n++
		}
	}
	return n
}

func ty(s string) *bridge.TypeExpr { return bridge.MustParseTypeExpr(s) }

func named(fields ...string) bridge.StructFields {
	sf := bridge.StructFields{Style: bridge.FieldsNamed}
	for i := 0; i+1 < len(fields); i += 2 {
		sf.List = append(sf.List, bridge.StructField{Name: fields[i], Type: ty(fields[i+1])})
	}
	return sf
}

func TestCheckResolvesMethods(t *testing.T) {
	client := &bridge.OpaqueType{Name: "Client"}
	mod := &bridge.Module{
		Name:  "net",
		Types: []bridge.TypeDecl{client},
		Funcs: []*bridge.FuncDecl{
			{Name: "new", AssociatedTo: ty("Client"), Init: true},
			{Name: "fetch", AssociatedTo: ty("Client"), Receiver: bridge.ReceiverRef,
				Params: []bridge.Param{{Name: "id", Type: ty("u32")}}, Return: ty("Option<String>")},
			{Name: "close", AssociatedTo: ty("Client"), Receiver: bridge.ReceiverOwned},
		},
	}
	res, bag := checkModules(t, bridge.NoFeaturesEnabled(), mod)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	m := res.Module("net")
	if m == nil || len(m.Funcs) != 3 {
		t.Fatalf("expected 3 funcs, got %+v", m)
	}

	init := m.Funcs[0]
	if o, ok := init.Ret.(*types.Opaque); !ok || o.Decl != client || o.Ref != types.RefNone {
		t.Fatalf("initializer must return owned Client, got %v", init.Ret)
	}
	if init.Link != "__swift_bridge__$Client$new" {
		t.Fatalf("link = %q", init.Link)
	}

	fetch := m.Funcs[1]
	if r, ok := fetch.Receiver.(*types.Opaque); !ok || r.Ref != types.RefShared {
		t.Fatalf("fetch receiver = %v", fetch.Receiver)
	}
	if fetch.Ret.String() != "Option<String>" {
		t.Fatalf("fetch returns %s", fetch.Ret)
	}
	if r, ok := m.Funcs[2].Receiver.(*types.Opaque); !ok || r.Ref != types.RefNone {
		t.Fatalf("close receiver = %v", m.Funcs[2].Receiver)
	}
	if got := len(m.Methods(client)); got != 3 {
		t.Fatalf("Methods(Client) = %d", got)
	}
	if len(m.FreeFuncs()) != 0 {
		t.Fatal("no free functions expected")
	}
}

func TestCheckReportsRecursiveStructOnce(t *testing.T) {
	mod := &bridge.Module{
		Name: "graph",
		Types: []bridge.TypeDecl{
			&bridge.SharedStruct{Name: "Node", Fields: named("next", "Option<Link>")},
			&bridge.SharedStruct{Name: "Link", Fields: named("node", "Node")},
			&bridge.SharedStruct{Name: "Fine", Fields: named("count", "u32")},
		},
	}
	_, bag := checkModules(t, bridge.NoFeaturesEnabled(), mod)
	if got := countCode(bag, diag.TypRecursiveByValue); got != 1 {
		t.Fatalf("expected one recursion diagnostic, got %d: %+v", got, bag.Items())
	}
	d := bag.Items()[0]
	if len(d.Notes) != 1 || d.Notes[0].Msg != "cycle: Node -> Option<Link> -> Link -> Node" {
		t.Fatalf("unexpected notes %+v", d.Notes)
	}
}

func TestCheckRecursionThroughHandleIsFine(t *testing.T) {
	mod := &bridge.Module{
		Name: "tree",
		Types: []bridge.TypeDecl{
			&bridge.OpaqueType{Name: "Children"},
			&bridge.SharedStruct{Name: "Tree", Fields: named("children", "Children", "label", "String")},
		},
	}
	_, bag := checkModules(t, bridge.NoFeaturesEnabled(), mod)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
}

func TestCheckDiagnostics(t *testing.T) {
	point := &bridge.SharedStruct{Name: "Point", Fields: named("x", "f64")}
	tests := []struct {
		name  string
		types []bridge.TypeDecl
		funcs []*bridge.FuncDecl
		want  diag.Code
	}{
		{
			name:  "unresolved parameter",
			funcs: []*bridge.FuncDecl{{Name: "f", Params: []bridge.Param{{Name: "x", Type: ty("Missing")}}}},
			want:  diag.TypUnresolved,
		},
		{
			name:  "empty enum",
			types: []bridge.TypeDecl{&bridge.SharedEnum{Name: "Never"}},
			want:  diag.SemaEmptyEnum,
		},
		{
			name: "duplicate variant",
			types: []bridge.TypeDecl{&bridge.SharedEnum{Name: "Color", Variants: []bridge.EnumVariant{
				{Name: "Red"}, {Name: "Red"},
			}}},
			want: diag.SemaDuplicateVariant,
		},
		{
			name:  "duplicate field",
			types: []bridge.TypeDecl{&bridge.SharedStruct{Name: "P", Fields: named("x", "u8", "x", "u16")}},
			want:  diag.SemaDuplicateField,
		},
		{
			name:  "duplicate type",
			types: []bridge.TypeDecl{point, &bridge.SharedStruct{Name: "Point"}},
			want:  diag.SemaDuplicateType,
		},
		{
			name:  "zero copy size",
			types: []bridge.TypeDecl{&bridge.OpaqueType{Name: "Id", Attrs: bridge.OpaqueAttrs{Copy: &bridge.CopyAttr{}}}},
			want:  diag.SemaCopySizeZero,
		},
		{
			name:  "async swift function",
			funcs: []*bridge.FuncDecl{{Name: "f", Host: bridge.HostSwift, Async: true}},
			want:  diag.SemaAsyncSwiftHosted,
		},
		{
			name:  "mutable copy receiver",
			types: []bridge.TypeDecl{&bridge.OpaqueType{Name: "Id", Attrs: bridge.OpaqueAttrs{Copy: &bridge.CopyAttr{SizeBytes: 4}}}},
			funcs: []*bridge.FuncDecl{{Name: "bump", AssociatedTo: ty("Id"), Receiver: bridge.ReceiverRefMut}},
			want:  diag.SemaMutCopyReceiver,
		},
		{
			name:  "method on shared struct",
			types: []bridge.TypeDecl{point},
			funcs: []*bridge.FuncDecl{{Name: "len", AssociatedTo: ty("Point"), Receiver: bridge.ReceiverRef}},
			want:  diag.SemaReceiverNotOpaque,
		},
		{
			name:  "method without type",
			funcs: []*bridge.FuncDecl{{Name: "len", Receiver: bridge.ReceiverRef}},
			want:  diag.SemaReceiverNotOpaque,
		},
		{
			name:  "duplicate function",
			funcs: []*bridge.FuncDecl{{Name: "f"}, {Name: "f"}},
			want:  diag.SemaDuplicateFunc,
		},
		{
			name:  "initializer returning another type",
			types: []bridge.TypeDecl{&bridge.OpaqueType{Name: "A"}},
			funcs: []*bridge.FuncDecl{{Name: "new", AssociatedTo: ty("A"), Init: true, Return: ty("u8")}},
			want:  diag.SemaInitReturn,
		},
		{
			name:  "host mismatch",
			types: []bridge.TypeDecl{&bridge.OpaqueType{Name: "A"}},
			funcs: []*bridge.FuncDecl{{Name: "f", Host: bridge.HostSwift, AssociatedTo: ty("A"), Receiver: bridge.ReceiverRef}},
			want:  diag.SemaHostMismatch,
		},
		{
			name: "callback to rust function",
			funcs: []*bridge.FuncDecl{{Name: "f", Params: []bridge.Param{
				{Name: "cb", Type: ty("Box<dyn FnOnce(u8)>")},
			}}},
			want: diag.TypUnsupported,
		},
		{
			name:  "vec of shared struct",
			types: []bridge.TypeDecl{point},
			funcs: []*bridge.FuncDecl{{Name: "f", Return: ty("Vec<Point>")}},
			want:  diag.TypUnsupportedVecElement,
		},
		{
			name: "generic arity",
			types: []bridge.TypeDecl{
				&bridge.OpaqueType{Name: "Pair", Attrs: bridge.OpaqueAttrs{DeclareGeneric: true}, GenericParams: []string{"A", "B"}},
			},
			funcs: []*bridge.FuncDecl{{Name: "f", Return: ty("Pair<u8>")}},
			want:  diag.TypGenericArity,
		},
		{
			name:  "result in field",
			types: []bridge.TypeDecl{&bridge.SharedStruct{Name: "S", Fields: named("r", "Result<u8, String>")}},
			want:  diag.TypUnsupported,
		},
		{
			name:  "swift function returning str",
			funcs: []*bridge.FuncDecl{{Name: "name", Host: bridge.HostSwift, Return: ty("&str")}},
			want:  diag.TypUnsupported,
		},
		{
			name: "async function borrowing",
			funcs: []*bridge.FuncDecl{{Name: "f", Async: true, Params: []bridge.Param{
				{Name: "s", Type: ty("&str")},
			}}},
			want: diag.TypUnsupported,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod := &bridge.Module{Name: "m", Types: tt.types, Funcs: tt.funcs}
			_, bag := checkModules(t, bridge.NoFeaturesEnabled(), mod)
			if !hasCode(bag, tt.want) {
				t.Fatalf("expected %s, got %+v", tt.want.ID(), bag.Items())
			}
		})
	}
}

func TestCheckClaimsSharedDeclarationsOnce(t *testing.T) {
	mk := func(name string) *bridge.Module {
		return &bridge.Module{
			Name:  name,
			Types: []bridge.TypeDecl{&bridge.SharedStruct{Name: "Point", Fields: named("x", "f64", "y", "f64")}},
			Funcs: []*bridge.FuncDecl{
				{Name: name + "_bytes", Return: ty("&[u8]")},
				{Name: name + "_parse", Params: []bridge.Param{{Name: "s", Type: ty("&str")}},
					Return: ty("Result<Point, String>")},
			},
		}
	}
	res, bag := checkModules(t, bridge.NoFeaturesEnabled(), mk("a"), mk("b"))
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	a, b := res.Module("a"), res.Module("b")

	if !a.Types[0].Emits() || b.Types[0].Emits() {
		t.Fatal("the first module must own Point")
	}
	if len(a.Slices) != 1 || a.Slices[0] != "uint8_t" || len(b.Slices) != 0 {
		t.Fatalf("slices a=%v b=%v", a.Slices, b.Slices)
	}
	if len(a.Results) != 1 || len(b.Results) != 0 {
		t.Fatalf("results a=%d b=%d", len(a.Results), len(b.Results))
	}
	if len(a.Imports) != 0 {
		t.Fatalf("owner imports nothing, got %+v", a.Imports)
	}
	if len(b.Imports) != 2 {
		t.Fatalf("expected Point and the Result to be imported, got %+v", b.Imports)
	}
	for _, imp := range b.Imports {
		if imp.Owner != "a" {
			t.Fatalf("import %s owned by %q", imp.Key, imp.Owner)
		}
	}
	if owner, _ := res.Registry.Owner("slice:uint8_t"); owner != "a" {
		t.Fatalf("slice owner = %q", owner)
	}
}

func TestCheckAlreadyDeclaredIsNeverEmitted(t *testing.T) {
	mod := &bridge.Module{
		Name: "m",
		Types: []bridge.TypeDecl{
			&bridge.SharedStruct{Name: "Point", Fields: named("x", "f64"), AlreadyDeclared: true},
			&bridge.OpaqueType{Name: "Db", Attrs: bridge.OpaqueAttrs{AlreadyDeclared: true}},
		},
	}
	res, bag := checkModules(t, bridge.NoFeaturesEnabled(), mod)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	m := res.Module("m")
	for _, info := range m.Types {
		if info.Emits() {
			t.Fatalf("%s must not be emitted", info.TypeDecl().DeclName())
		}
	}
	if len(m.Imports) != 2 || m.Imports[0].Owner != "" {
		t.Fatalf("unexpected imports %+v", m.Imports)
	}
	if res.Registry.Len() != 0 {
		t.Fatalf("nothing should be claimed, got %v", res.Registry.Keys())
	}
}

func TestCheckSkipsDisabledModules(t *testing.T) {
	gated := &bridge.Module{
		Name:        "gated",
		CfgFeatures: []string{"ffi"},
		Types:       []bridge.TypeDecl{&bridge.SharedStruct{Name: "Point"}},
		Funcs:       []*bridge.FuncDecl{{Name: "f", Params: []bridge.Param{{Name: "x", Type: ty("Missing")}}}},
	}
	res, bag := checkModules(t, bridge.NoFeaturesEnabled(), gated)
	if bag.Len() != 0 {
		t.Fatalf("disabled modules are not analysed, got %+v", bag.Items())
	}
	if m := res.Module("gated"); m.Compiled || !m.Empty() {
		t.Fatal("module must be marked as not compiled")
	}

	cfg := bridge.NoFeaturesEnabled()
	cfg.Features = []string{"ffi"}
	_, bag = checkModules(t, cfg, gated)
	if !hasCode(bag, diag.TypUnresolved) {
		t.Fatalf("enabled module must be analysed, got %+v", bag.Items())
	}
}

func TestCheckCallbackSites(t *testing.T) {
	mod := &bridge.Module{
		Name: "ui",
		Funcs: []*bridge.FuncDecl{{
			Name: "run",
			Host: bridge.HostSwift,
			Params: []bridge.Param{
				{Name: "id", Type: ty("u32")},
				{Name: "done", Type: ty("Box<dyn FnOnce(Result<u8, String>)>")},
			},
		}},
	}
	res, bag := checkModules(t, bridge.NoFeaturesEnabled(), mod)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	m := res.Module("ui")
	cbs := m.Funcs[0].Callbacks()
	if len(cbs) != 1 {
		t.Fatalf("expected one callback, got %d", len(cbs))
	}
	if cbs[0].CallName() != "__swift_bridge__$run$param1" {
		t.Fatalf("call name = %q", cbs[0].CallName())
	}
	if len(m.Results) != 1 {
		t.Fatal("results inside callbacks must be planned")
	}
}

func TestCheckGenericInstances(t *testing.T) {
	mod := &bridge.Module{
		Name: "gen",
		Types: []bridge.TypeDecl{
			&bridge.OpaqueType{Name: "Pair", Attrs: bridge.OpaqueAttrs{DeclareGeneric: true}, GenericParams: []string{"A", "B"}},
			&bridge.OpaqueType{Name: "Pair", Generics: []*bridge.TypeExpr{ty("u8"), ty("u16")}},
			&bridge.OpaqueType{Name: "Lonely", Generics: []*bridge.TypeExpr{ty("u8")}},
		},
		Funcs: []*bridge.FuncDecl{{Name: "make", Return: ty("Pair<u8, u16>")}},
	}
	res, bag := checkModules(t, bridge.NoFeaturesEnabled(), mod)
	if countCode(bag, diag.TypUnresolved) != 1 {
		t.Fatalf("expected the undeclared generic to be reported once, got %+v", bag.Items())
	}
	m := res.Module("gen")
	if len(m.Types) != 2 {
		t.Fatalf("expected the generic and its instance, got %d", len(m.Types))
	}
	inst := m.Types[1].(*OpaqueInfo)
	if len(inst.Type.Generics) != 2 || inst.Decl.Key() != "opaque:Pair<u8, u16>" {
		t.Fatalf("unexpected instance %+v", inst.Type)
	}
	if len(m.Funcs) != 1 {
		t.Fatal("make must resolve")
	}
}

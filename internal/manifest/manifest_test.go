package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"bridgegen/internal/bridge"
	"bridgegen/internal/diag"
	"bridgegen/internal/source"
	"bridgegen/internal/testkit"
)

const ledger = `[module]
name = "ledger"
cfg_features = ["ledger"]

[[type]]
kind = "opaque"
name = "Account"
hashable = true
equatable = true

[[type]]
kind = "opaque"
name = "Pair"
declare_generic = ["A", "B"]

[[type]]
kind = "opaque"
name = "Pair"
generics = ["u8", "u16"]

[[type]]
kind = "opaque"
name = "Id"
copy = 16

[[type]]
kind = "struct"
name = "Point"
swift_name = "FfiPoint"
fields = [{ name = "x", type = "f64" }, { name = "y", type = "f64" }]

[[type]]
kind = "enum"
name = "Shape"
variants = [
  { name = "Empty" },
  { name = "Circle", fields = [{ type = "f64" }] },
]

[[function]]
name = "new"
associated_to = "Account"
init = true
params = [{ name = "owner", type = "&str" }]

[[function]]
name = "balance"
associated_to = "Account"
receiver = "ref"
returns = "i64"

[[function]]
name = "notify"
host = "swift"
params = [{ name = "done", type = "Box<dyn FnOnce(u32)>" }]

[[function]]
name = "fetch"
async = true
returns = "Result<String, u32>"
`

func decode(t *testing.T, content string) (*bridge.Module, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("ledger.toml", []byte(content))
	bag := diag.NewBag(32)
	return Decode(fs.Get(id), diag.BagReporter{Bag: bag}), bag
}

func codes(bag *diag.Bag) []diag.Code {
	out := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestDecodeModule(t *testing.T) {
	mod, bag := decode(t, ledger)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", codes(bag))
	}
	if mod == nil {
		t.Fatalf("module is nil")
	}
	if mod.Name != "ledger" || len(mod.CfgFeatures) != 1 || mod.CfgFeatures[0] != "ledger" {
		t.Fatalf("module header decoded as %q %v", mod.Name, mod.CfgFeatures)
	}
	if len(mod.Types) != 6 || len(mod.Funcs) != 4 {
		t.Fatalf("want 6 types and 4 functions, got %d and %d", len(mod.Types), len(mod.Funcs))
	}

	account := mod.Types[0].(*bridge.OpaqueType)
	if !account.Attrs.Hashable || !account.Attrs.Equatable || account.Host != bridge.HostRust {
		t.Fatalf("Account attrs: %+v", account.Attrs)
	}
	generic := mod.Types[1].(*bridge.OpaqueType)
	if !generic.Attrs.DeclareGeneric || len(generic.GenericParams) != 2 || generic.GenericParams[1] != "B" {
		t.Fatalf("Pair declaration: %+v", generic)
	}
	inst := mod.Types[2].(*bridge.OpaqueType)
	if got := inst.InstanceName(); got != "Pair<u8, u16>" {
		t.Fatalf("instance name = %q", got)
	}
	id := mod.Types[3].(*bridge.OpaqueType)
	if id.Attrs.Copy == nil || id.Attrs.Copy.SizeBytes != 16 {
		t.Fatalf("Id copy attr: %+v", id.Attrs.Copy)
	}

	point := mod.Types[4].(*bridge.SharedStruct)
	if point.SwiftTypeName() != "FfiPoint" || point.Fields.Style != bridge.FieldsNamed || len(point.Fields.List) != 2 {
		t.Fatalf("Point: %+v", point)
	}
	shape := mod.Types[5].(*bridge.SharedEnum)
	if shape.IsTransparent() {
		t.Fatalf("Shape carries data")
	}
	if shape.Variants[0].Fields.Style != bridge.FieldsUnit || shape.Variants[1].Fields.Style != bridge.FieldsUnnamed {
		t.Fatalf("variant styles: %v %v", shape.Variants[0].Fields.Style, shape.Variants[1].Fields.Style)
	}

	ctor := mod.Funcs[0]
	if !ctor.Init || ctor.AssociatedTo.String() != "Account" || ctor.Params[0].Type.String() != "&str" {
		t.Fatalf("constructor: %+v", ctor)
	}
	if mod.Funcs[1].Receiver != bridge.ReceiverRef || mod.Funcs[1].Return.String() != "i64" {
		t.Fatalf("balance: %+v", mod.Funcs[1])
	}
	if !mod.Funcs[2].Host.IsSwift() {
		t.Fatalf("notify should be swift-hosted")
	}
	if !mod.Funcs[3].Async {
		t.Fatalf("fetch should be async")
	}
}

func TestSpansPointAtDeclarations(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("ledger.toml", []byte(ledger))
	mod := Decode(fs.Get(id), diag.BagReporter{Bag: diag.NewBag(8)})
	f := fs.Get(id)
	if err := testkit.CheckSpans(mod, f); err != nil {
		t.Fatal(err)
	}
	for _, decl := range mod.Types {
		sp := decl.DeclSpan()
		if got := string(f.Content[sp.Start:sp.End]); got != `"`+decl.DeclName()+`"` {
			t.Errorf("%s: span covers %q", decl.DeclName(), got)
		}
	}
	// The instance of Pair must not point at the generic declaration.
	if mod.Types[1].DeclSpan() == mod.Types[2].DeclSpan() {
		t.Fatalf("both Pair tables resolve to the same span")
	}
	balance := mod.Funcs[1].Span
	if got := string(f.Content[balance.Start:balance.End]); got != `"balance"` {
		t.Fatalf("balance span covers %q", got)
	}
}

func TestSyntaxError(t *testing.T) {
	mod, bag := decode(t, "[module]\nname = \"x\"\nbroken = \n")
	if mod != nil {
		t.Fatalf("expected nil module")
	}
	if !hasCode(bag, diag.ManSyntax) {
		t.Fatalf("want ManSyntax, got %v", codes(bag))
	}
}

func TestMissingModuleTable(t *testing.T) {
	mod, bag := decode(t, "[[function]]\nname = \"f\"\n")
	if mod != nil || !hasCode(bag, diag.ManMissingModuleHdr) {
		t.Fatalf("want ManMissingModuleHdr, got %v", codes(bag))
	}
}

func TestUnknownKeyIsWarning(t *testing.T) {
	mod, bag := decode(t, "[module]\nname = \"m\"\ncolour = \"blue\"\n")
	if mod == nil {
		t.Fatalf("unknown keys must not stop decoding")
	}
	if !hasCode(bag, diag.ManUnknownKey) || bag.HasErrors() {
		t.Fatalf("want a single ManUnknownKey warning, got %v", codes(bag))
	}
}

func TestInvalidDeclarations(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    diag.Code
	}{
		{"bad ident", "[module]\nname = \"m\"\n[[type]]\nkind = \"opaque\"\nname = \"1abc\"\n", diag.ManInvalidIdent},
		{"unknown kind", "[module]\nname = \"m\"\n[[type]]\nkind = \"union\"\nname = \"U\"\n", diag.ManUnknownKind},
		{"missing kind", "[module]\nname = \"m\"\n[[type]]\nname = \"U\"\n", diag.ManMissingField},
		{"bad host", "[module]\nname = \"m\"\n[[function]]\nname = \"f\"\nhost = \"kotlin\"\n", diag.ManInvalidValue},
		{"bad receiver", "[module]\nname = \"m\"\n[[function]]\nname = \"f\"\nassociated_to = \"A\"\nreceiver = \"mine\"\n", diag.ManInvalidValue},
		{"method without type", "[module]\nname = \"m\"\n[[function]]\nname = \"f\"\nreceiver = \"ref\"\n", diag.ManMissingField},
		{"bad type expr", "[module]\nname = \"m\"\n[[function]]\nname = \"f\"\nreturns = \"Vec<\"\n", diag.ManInvalidTypeExpr},
		{"duplicate param", "[module]\nname = \"m\"\n[[function]]\nname = \"f\"\nparams = [{ name = \"a\", type = \"u8\" }, { name = \"a\", type = \"u8\" }]\n", diag.ManDuplicateName},
		{"negative copy", "[module]\nname = \"m\"\n[[type]]\nkind = \"opaque\"\nname = \"Id\"\ncopy = -1\n", diag.ManInvalidValue},
		{"unit with fields", "[module]\nname = \"m\"\n[[type]]\nkind = \"struct\"\nname = \"S\"\nstyle = \"unit\"\nfields = [{ name = \"a\", type = \"u8\" }]\n", diag.ManInvalidValue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mod, bag := decode(t, tc.content)
			if !hasCode(bag, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, codes(bag))
			}
			if mod != nil && len(mod.Types)+len(mod.Funcs) != 0 {
				t.Fatalf("invalid declaration was kept")
			}
		})
	}
}

func TestIdentifiersAreNormalised(t *testing.T) {
	mod, bag := decode(t, "[module]\nname = \"m\"\n[[type]]\nkind = \"opaque\"\nname = \"Cafe\u0301\"\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", codes(bag))
	}
	if got := mod.Types[0].DeclName(); got != "Caf\u00e9" {
		t.Fatalf("name = %q, want NFC form", got)
	}
}

func TestIsIdent(t *testing.T) {
	for s, want := range map[string]bool{
		"abc": true, "_x1": true, "Größe": true,
		"": false, "1a": false, "a-b": false, "a b": false,
	} {
		if got := IsIdent(s); got != want {
			t.Errorf("IsIdent(%q) = %v", s, got)
		}
	}
}

func TestLoadReadsFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.toml")
	if err := os.WriteFile(path, []byte("[module]\nname = \"m\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	mod, err := Load(fs, path, diag.BagReporter{Bag: diag.NewBag(4)})
	if err != nil || mod == nil || mod.Name != "m" {
		t.Fatalf("Load = %v, %v", mod, err)
	}
	if _, err := Load(fs, filepath.Join(dir, "missing.toml"), diag.BagReporter{Bag: diag.NewBag(4)}); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

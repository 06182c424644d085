package diag

import (
	"testing"

	"bridgegen/internal/source"
)

func TestFormatShortDiagnostics(t *testing.T) {
	fs := source.NewFileSetWithBase("/workspace")
	file := fs.Add("/workspace/bridges/ffi.toml", []byte("a\nb\n"), 0)

	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     SemaInfo,
			Message:  "another",
			Primary:  source.Span{File: file, Start: 2, End: 3},
		},
		{
			Severity: SevError,
			Code:     TypUnresolved,
			Message:  "first line\nsecond",
			Primary:  source.Span{File: file, Start: 0, End: 1},
			Notes: []Note{
				{Span: source.Span{File: file, Start: 2, End: 3}, Msg: "declared here"},
			},
		},
	}

	want := "error TYP2001 bridges/ffi.toml:1:1 first line second\n" +
		"note TYP2001 bridges/ffi.toml:2:1 declared here\n" +
		"warning SEM3000 bridges/ffi.toml:2:1 another"
	if got := FormatShortDiagnostics(diags, fs, true); got != want {
		t.Fatalf("unexpected output:\nwant:\n%s\n\ngot:\n%s", want, got)
	}
}

func TestBagSortDedupAndLimit(t *testing.T) {
	bag := NewBag(3)
	sp := source.Span{File: 0, Start: 4, End: 8}
	bag.Add(NewError(TypUnresolved, sp, "unknown type `Foo`"))
	bag.Add(NewError(TypUnresolved, sp, "unknown type `Foo`"))
	bag.Add(New(SevWarning, SemaInfo, source.Span{Start: 0, End: 1}, "w"))
	if bag.Add(NewError(TypUnsupported, sp, "dropped")) {
		t.Fatal("bag accepted a diagnostic past its limit")
	}

	bag.Dedup()
	bag.Sort()
	items := bag.Items()
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Code != SemaInfo || items[1].Code != TypUnresolved {
		t.Fatalf("unexpected order: %v, %v", items[0].Code, items[1].Code)
	}
	if !bag.HasErrors() {
		t.Fatal("HasErrors = false")
	}
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(10)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{Start: 1, End: 2}
	for range 3 {
		ReportError(r, TypUnsupported, sp, "Vec<Generic<u32>> is not supported").Emit()
	}
	ReportError(r, TypUnsupported, sp, "another message").Emit()
	if bag.Len() != 2 {
		t.Fatalf("len = %d, want 2", bag.Len())
	}
}

func TestCodeID(t *testing.T) {
	tests := map[Code]string{
		ManSyntax:       "MAN1001",
		TypUnresolved:   "TYP2001",
		SemaEmptyEnum:   "SEM3004",
		IOLoadFileError: "IO4001",
		ProjNoModules:   "PRJ5003",
		ObsTimings:      "OBS6001",
		Code(9999):      "E0000",
	}
	for code, want := range tests {
		if got := code.ID(); got != want {
			t.Fatalf("%d.ID() = %q, want %q", code, got, want)
		}
	}
}

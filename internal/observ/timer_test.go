package observ

import (
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	done := tm.Measure("load")
	done("2 files")
	inner := tm.Measure("emit/ledger")
	inner("")
	tm.End(tm.Begin("emit"), "")

	r := tm.Report()
	if len(r.Phases) != 3 {
		t.Fatalf("want 3 phases, got %d", len(r.Phases))
	}
	if r.Phases[0].Note != "2 files" {
		t.Fatalf("note = %q", r.Phases[0].Note)
	}
	want := r.Phases[0].DurationMS + r.Phases[2].DurationMS
	if r.TotalMS != want {
		t.Fatalf("total %.4f must skip nested phases (want %.4f)", r.TotalMS, want)
	}
	s := tm.Summary()
	if !strings.HasPrefix(s, "timings:\n") || !strings.Contains(s, "emit/ledger") {
		t.Fatalf("unexpected summary:\n%s", s)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.Measure("x")("")
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Fatalf("nil timer reported phases")
	}
	tm.End(3, "")
}

package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestStartNestsSpans(t *testing.T) {
	ring := NewRingTracer(16, LevelDetail)
	ctx := WithTracer(context.Background(), ring)
	ctx, cmd := Start(ctx, ScopeCommand, "generate")
	mctx, mod := Start(ctx, ScopeModule, "module:ledger")
	_, art := Start(mctx, ScopeArtifact, "ledger.h")
	art.End("")
	mod.End("")
	cmd.End("ok")

	events := ring.Snapshot()
	// The artifact span is below LevelDetail.
	if len(events) != 4 {
		t.Fatalf("want 4 events, got %d", len(events))
	}
	if events[1].ParentID != events[0].SpanID {
		t.Fatalf("module span parent = %d, want %d", events[1].ParentID, events[0].SpanID)
	}
	last := events[3]
	if last.Kind != KindSpanEnd || last.Name != "generate" || last.Detail != "ok" {
		t.Fatalf("unexpected last event: %+v", last)
	}
}

func TestNopContext(t *testing.T) {
	ctx, span := Start(context.Background(), ScopeStage, "load")
	if span.ID() != 0 || CurrentSpan(ctx) != 0 {
		t.Fatalf("spans without a tracer must be inert")
	}
	if span.End("") != 0 {
		t.Fatalf("inert span reported a duration")
	}
}

func TestErrorLevelKeepsFailures(t *testing.T) {
	ring := NewRingTracer(8, LevelError)
	Begin(ring, ScopeStage, "load", 0).End("")
	Begin(ring, ScopeStage, "emit", 0).Fail(errors.New("disk full"))
	events := ring.Snapshot()
	if len(events) != 1 || events[0].Name != "emit" || events[0].Extra["error"] != "disk full" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestStreamFormats(t *testing.T) {
	var text bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Format: FormatText, Output: &text})
	if err != nil {
		t.Fatal(err)
	}
	Begin(tr, ScopeStage, "analyze", 0).WithExtra("modules", "2").End("")
	out := text.String()
	if !strings.Contains(out, "-> analyze") || !strings.Contains(out, "<- analyze") || !strings.Contains(out, "{modules=2}") {
		t.Fatalf("unexpected text trace:\n%s", out)
	}

	var nd bytes.Buffer
	tr, err = New(Config{Level: LevelPhase, Format: FormatNDJSON, Output: &nd})
	if err != nil {
		t.Fatal(err)
	}
	Begin(tr, ScopeStage, "emit", 0).End("")
	lines := strings.Split(strings.TrimSpace(nd.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 lines, got %d", len(lines))
	}
	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatalf("invalid ndjson: %v", err)
	}
	if ev["kind"] != "end" || ev["scope"] != "stage" || ev["name"] != "emit" {
		t.Fatalf("unexpected event: %v", ev)
	}
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"off", "error", "phase", "detail", "DEBUG"} {
		if _, err := ParseLevel(s); err != nil {
			t.Errorf("ParseLevel(%q): %v", s, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected an error")
	}
	if l, _ := New(Config{Level: LevelOff}); l.Enabled() {
		t.Fatalf("off level must give a disabled tracer")
	}
}

func TestRingKeepsLatestEvents(t *testing.T) {
	var out bytes.Buffer
	tr, err := New(Config{Level: LevelPhase, Format: FormatText, Mode: ModeRing, RingSize: 3, Output: &out})
	if err != nil {
		t.Fatal(err)
	}
	ring, ok := tr.(*RingTracer)
	if !ok {
		t.Fatalf("ring mode gave %T", tr)
	}
	for _, name := range []string{"load", "analyze", "emit"} {
		Begin(tr, ScopeStage, name, 0).End("")
	}
	if out.Len() != 0 {
		t.Fatalf("ring tracer wrote before Report")
	}
	events := ring.Snapshot()
	if len(events) != 3 || events[0].Name != "analyze" || events[2].Name != "emit" {
		t.Fatalf("unexpected buffer: %+v", events)
	}
	if err := ring.Report(); err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(out.String(), "\n"); got != 3 {
		t.Fatalf("want 3 lines, got %d:\n%s", got, out.String())
	}
	if _, err := ParseMode("ring"); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseMode("tape"); err == nil {
		t.Fatalf("expected an error")
	}
}

package ui

import (
	"strings"
	"testing"
	"time"

	"bridgegen/internal/driver"
)

func TestProgressModelTracksPhases(t *testing.T) {
	events := make(chan driver.PhaseEvent)
	m := NewProgressModel("generate", []string{"load", "analyze"}, events).(*progressModel)

	m.applyEvent(driver.PhaseEvent{Name: "load", Status: driver.PhaseStart, Total: 2})
	m.applyEvent(driver.PhaseEvent{Name: "load", Status: driver.PhaseProgress, Done: 1, Total: 2})
	if m.rows[0].status != phaseRunning || m.rows[0].detail != "1/2" {
		t.Fatalf("load = %+v", m.rows[0])
	}
	if got := m.percent(); got != 0.25 {
		t.Fatalf("percent = %v", got)
	}
	m.applyEvent(driver.PhaseEvent{Name: "load", Status: driver.PhaseEnd, Elapsed: 1500 * time.Microsecond})
	if m.rows[0].status != phaseDone || m.rows[0].detail != "1.5 ms" {
		t.Fatalf("load = %+v", m.rows[0])
	}
	// Unknown phases are ignored.
	m.applyEvent(driver.PhaseEvent{Name: "stage", Status: driver.PhaseStart})
	if got := m.percent(); got != 0.5 {
		t.Fatalf("percent = %v", got)
	}

	view := m.View()
	if !strings.Contains(view, "generate") || !strings.Contains(view, "queued") || !strings.Contains(view, "load  1.5 ms") {
		t.Fatalf("view:\n%s", view)
	}
}

func TestProgressModelQuitsWhenEventsClose(t *testing.T) {
	events := make(chan driver.PhaseEvent)
	close(events)
	m := NewProgressModel("check", []string{"load"}, events).(*progressModel)
	if _, ok := m.listenForEvent()().(doneMsg); !ok {
		t.Fatalf("closed channel must produce doneMsg")
	}
	_, cmd := m.Update(doneMsg{})
	if !m.done || cmd == nil {
		t.Fatalf("model did not finish")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefgh", 6); got != "abc..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("日本語", 6); got != "日本語" {
		t.Fatalf("truncate wide = %q", got)
	}
}

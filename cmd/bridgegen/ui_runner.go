package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"bridgegen/internal/driver"
	"bridgegen/internal/ui"
)

type runOutcome struct {
	result *driver.Result
	err    error
}

// runWithUI runs fn in the background and shows its phase events in a
// progress view until fn returns.
func runWithUI(title string, phases []string, opts driver.Options, fn func(driver.Options) (*driver.Result, error)) (*driver.Result, error) {
	events := make(chan driver.PhaseEvent, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		opts.Observer = func(ev driver.PhaseEvent) { events <- ev }
		res, err := fn(opts)
		outcomeCh <- runOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, phases, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	// Drain what the model left behind so the worker never blocks.
	for range events {
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}

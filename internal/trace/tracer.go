package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Tracer receives trace events.
type Tracer interface {
	// Emit records ev. Must be goroutine-safe.
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	Enabled() bool
}

// Mode selects how a tracer delivers events.
type Mode uint8

const (
	// ModeStream writes every event as it happens.
	ModeStream Mode = iota
	// ModeRing buffers the latest events and writes them on request.
	ModeRing
)

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "stream":
		return ModeStream, nil
	case "ring":
		return ModeRing, nil
	}
	return ModeStream, fmt.Errorf("unknown trace mode %q (want stream or ring)", s)
}

// Config holds tracer configuration.
type Config struct {
	Level  Level
	Format Format
	Mode   Mode
	// RingSize bounds the buffer in ModeRing.
	RingSize int
	// Output wins over OutputPath. An empty OutputPath or "-" means stderr.
	Output     io.Writer
	OutputPath string
}

// New creates a tracer for cfg, or Nop when tracing is off.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	format := cfg.Format
	if format == FormatAuto {
		format = FormatText
		if strings.HasSuffix(cfg.OutputPath, ".ndjson") || strings.HasSuffix(cfg.OutputPath, ".jsonl") {
			format = FormatNDJSON
		}
	}
	w, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Mode == ModeRing {
		ring := NewRingTracer(cfg.RingSize, cfg.Level)
		ring.sink, ring.format = w, format
		return ring, nil
	}
	return NewStreamTracer(w, cfg.Level, format), nil
}

func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return nopCloser{os.Stderr}, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}

// nopCloser keeps Close from closing stderr.
type nopCloser struct{ io.Writer }

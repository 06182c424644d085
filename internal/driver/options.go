package driver

import (
	"runtime"

	"bridgegen/internal/bridge"
	"bridgegen/internal/layout"
	"bridgegen/internal/observ"
)

// Options configure one pipeline run.
type Options struct {
	Config bridge.CodegenConfig
	// Target is used for layout checks; zero means layout.DefaultTarget.
	Target         layout.Target
	MaxDiagnostics int
	// Jobs bounds the module workers; zero means GOMAXPROCS.
	Jobs int
	// BaseDir is the directory diagnostics paths are relative to.
	BaseDir string
	// Cache may be nil.
	Cache    *ArtifactCache
	Timer    *observ.Timer
	Observer PhaseObserver
}

func (o Options) jobs(n int) int {
	jobs := o.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	return max(1, min(jobs, n))
}

func (o Options) maxDiagnostics() int {
	if o.MaxDiagnostics <= 0 {
		return 256
	}
	return o.MaxDiagnostics
}

func (o Options) target() layout.Target {
	if o.Target.PtrSize == 0 {
		return layout.DefaultTarget()
	}
	return o.Target
}

package driver

import (
	"context"
	"fmt"
	"path"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"bridgegen/internal/backend/cheader"
	"bridgegen/internal/backend/core"
	"bridgegen/internal/backend/rust"
	"bridgegen/internal/backend/swift"
	"bridgegen/internal/diag"
	"bridgegen/internal/packaging"
	"bridgegen/internal/project"
	"bridgegen/internal/sema"
	"bridgegen/internal/source"
	"bridgegen/internal/trace"
	"bridgegen/internal/types"
	"bridgegen/internal/version"
)

// Result is the outcome of Generate or Check.
type Result struct {
	FileSet *source.FileSet
	Bag     *diag.Bag
	// Analysis is nil when loading failed or the artifacts came from the
	// cache.
	Analysis  *sema.Result
	Artifacts []packaging.Artifact
	CacheKey  project.Digest
	CacheHit  bool
}

// Failed reports whether any error diagnostic was produced.
func (r *Result) Failed() bool { return r.Bag.HasErrors() }

// Analyze runs the semantic pass over the loaded modules.
func Analyze(ctx context.Context, loaded *Loaded, opts Options) *sema.Result {
	_, span := trace.Start(ctx, trace.ScopeStage, "analyze")
	end := opts.Timer.Measure("analyze")
	started := time.Now()
	opts.Observer.emit(PhaseEvent{Name: "analyze", Status: PhaseStart, Total: len(loaded.Modules)})

	before := loaded.Bag.Len()
	res := sema.Check(loaded.Modules, sema.Options{
		Reporter: diag.NewDedupReporter(diag.BagReporter{Bag: loaded.Bag}),
		Config:   opts.Config,
		Target:   opts.target(),
	})

	note := fmt.Sprintf("%d modules", len(res.Modules))
	span.WithExtra("diagnostics", fmt.Sprint(loaded.Bag.Len()-before)).End(note)
	end(note)
	opts.Observer.emit(PhaseEvent{Name: "analyze", Status: PhaseEnd, Elapsed: time.Since(started), Done: len(res.Modules), Total: len(res.Modules)})
	return res
}

// ModuleArtifacts names the three files generated for module name.
func ModuleArtifacts(name string) (header, wrapper, glue string) {
	return path.Join(name, name+".h"), path.Join(name, name+".swift"), path.Join(name, name+".rs")
}

// Emit renders the support files and every module's header, wrapper and
// glue. Modules are rendered in parallel; the result is in module order
// with the support files first. Modules excluded by their cfg features
// produce empty files.
func Emit(ctx context.Context, res *sema.Result, opts Options) ([]packaging.Artifact, error) {
	ctx, span := trace.Start(ctx, trace.ScopeStage, "emit")
	defer span.End("")
	end := opts.Timer.Measure("emit")
	started := time.Now()
	total := len(res.Modules)
	opts.Observer.emit(PhaseEvent{Name: "emit", Status: PhaseStart, Total: total})

	names := types.Names{Prefix: res.Config.Prefix, Support: res.Config.SupportCrate}
	out := make([]packaging.Artifact, 2+3*total)
	out[0] = packaging.Artifact{Path: core.HeaderFile, Content: []byte(core.Header(names))}
	out[1] = packaging.Artifact{Path: core.SwiftFile, Content: []byte(core.Swift(names))}

	var finished atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs(total))
	for i, mod := range res.Modules {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, mspan := trace.Start(gctx, trace.ScopeModule, "module:"+mod.Name())
			defer mspan.End("")
			done := opts.Timer.Measure("emit/" + mod.Name())
			h, w, r := ModuleArtifacts(mod.Name())
			slot := out[2+3*i:]
			slot[0] = packaging.Artifact{Path: h}
			slot[1] = packaging.Artifact{Path: w}
			slot[2] = packaging.Artifact{Path: r}
			if mod.Compiled {
				slot[0].Content = []byte(cheader.GenerateHeader(mod))
				slot[1].Content = []byte(swift.GenerateWrapper(mod))
				slot[2].Content = []byte(rust.GenerateGlue(mod))
			} else {
				mspan.WithExtra("compiled", "false")
			}
			done("")
			opts.Observer.emit(PhaseEvent{Name: "emit", Status: PhaseProgress, Done: int(finished.Add(1)), Total: total})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		end("cancelled")
		return nil, err
	}
	end(fmt.Sprintf("%d artifacts", len(out)))
	opts.Observer.emit(PhaseEvent{Name: "emit", Status: PhaseEnd, Elapsed: time.Since(started), Done: total, Total: total})
	return out, nil
}

// Check loads and analyses paths without generating anything.
func Check(ctx context.Context, paths []string, opts Options) (*Result, error) {
	loaded, err := Load(ctx, paths, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{FileSet: loaded.FileSet, Bag: loaded.Bag}
	if !loaded.Bag.HasErrors() {
		res.Analysis = Analyze(ctx, loaded, opts)
	}
	finish(res, opts, "check")
	return res, nil
}

// Generate loads, analyses and emits paths. A cache hit skips analysis
// and emission. Artifacts are left empty when any error was reported.
func Generate(ctx context.Context, paths []string, opts Options) (*Result, error) {
	loaded, err := Load(ctx, paths, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{FileSet: loaded.FileSet, Bag: loaded.Bag}
	if loaded.Bag.HasErrors() {
		finish(res, opts, "generate")
		return res, nil
	}

	files := make([]*source.File, len(loaded.Files))
	for i, id := range loaded.Files {
		files[i] = loaded.FileSet.Get(id)
	}
	fingerprint := version.Fingerprint()
	res.CacheKey = CacheKey(files, opts.Config, opts.target(), fingerprint)
	if payload, ok := lookupCache(ctx, opts.Cache, res.CacheKey, fingerprint); ok {
		res.Artifacts = payload.Artifacts()
		res.CacheHit = true
		finish(res, opts, "generate")
		return res, nil
	}

	before := loaded.Bag.Len()
	res.Analysis = Analyze(ctx, loaded, opts)
	if loaded.Bag.HasErrors() {
		finish(res, opts, "generate")
		return res, nil
	}
	res.Artifacts, err = Emit(ctx, res.Analysis, opts)
	if err != nil {
		return nil, err
	}
	// Entries carry no diagnostics, so only clean analyses are cached.
	if opts.Cache != nil && loaded.Bag.Len() == before {
		modules := make([]string, len(res.Analysis.Modules))
		for i, m := range res.Analysis.Modules {
			modules[i] = m.Name()
		}
		if err := opts.Cache.Put(res.CacheKey, payloadOf(fingerprint, modules, res.Artifacts)); err != nil {
			traceCacheError(ctx, err)
		}
	}
	finish(res, opts, "generate")
	return res, nil
}

// Stage writes artifacts to outDir.
func Stage(ctx context.Context, outDir string, artifacts []packaging.Artifact, opts Options) (packaging.StageReport, error) {
	ctx, span := trace.Start(ctx, trace.ScopeStage, "stage")
	end := opts.Timer.Measure("stage")
	started := time.Now()
	opts.Observer.emit(PhaseEvent{Name: "stage", Status: PhaseStart, Total: len(artifacts)})
	report, err := packaging.Stage(ctx, outDir, artifacts)
	note := fmt.Sprintf("%d written, %d unchanged", len(report.Written), len(report.Unchanged))
	end(note)
	if err != nil {
		span.Fail(err)
		return report, err
	}
	span.End(note)
	opts.Observer.emit(PhaseEvent{Name: "stage", Status: PhaseEnd, Elapsed: time.Since(started), Done: len(artifacts), Total: len(artifacts)})
	return report, nil
}

func lookupCache(ctx context.Context, cache *ArtifactCache, key project.Digest, fingerprint string) (*CachePayload, bool) {
	if cache == nil {
		return nil, false
	}
	_, span := trace.Start(ctx, trace.ScopeStage, "cache")
	payload, ok, err := cache.Get(key, fingerprint)
	if err != nil {
		span.Fail(err)
		return nil, false
	}
	if ok {
		span.End("hit " + key.Short())
	} else {
		span.End("miss " + key.Short())
	}
	return payload, ok
}

func traceCacheError(ctx context.Context, err error) {
	_, span := trace.Start(ctx, trace.ScopeStage, "cache-store")
	span.Fail(err)
}

func finish(res *Result, opts Options, kind string) {
	res.Bag.Sort()
	res.Bag.Dedup()
	if opts.Timer != nil {
		appendTimingDiagnostic(res.Bag, timingPayload{Kind: kind, Report: opts.Timer.Report()})
	}
}

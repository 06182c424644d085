package fuzztests

import (
	"context"
	"testing"
	"time"

	"bridgegen/internal/backend/cheader"
	"bridgegen/internal/backend/rust"
	"bridgegen/internal/backend/swift"
	"bridgegen/internal/bridge"
	"bridgegen/internal/diag"
	"bridgegen/internal/manifest"
	"bridgegen/internal/sema"
	"bridgegen/internal/source"
	"bridgegen/internal/testkit"
)

// pipelineTimeout bounds one input; a slower run points at a loop.
const pipelineTimeout = 5 * time.Second

// FuzzManifestPipeline feeds arbitrary bytes through decoding, analysis and,
// when no errors were reported, every backend.
func FuzzManifestPipeline(f *testing.F) {
	addManifestSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)
		ctx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- runPipeline(input) }()
		select {
		case err := <-done:
			if err != nil {
				t.Fatal(err)
			}
		case <-ctx.Done():
			t.Fatalf("pipeline did not finish within %v on %d bytes", pipelineTimeout, len(input))
		}
	})
}

func runPipeline(input []byte) error {
	fs := source.NewFileSet()
	id := fs.AddVirtual("fuzz.toml", input)
	bag := diag.NewBag(256)
	reporter := diag.BagReporter{Bag: bag}

	mod := manifest.Decode(fs.Get(id), reporter)
	if mod == nil {
		return nil
	}
	if err := testkit.CheckSpans(mod, fs.Get(id)); err != nil {
		return err
	}
	if bag.HasErrors() {
		return nil
	}
	res := sema.Check(bridge.ModuleSet{mod}, sema.Options{Reporter: reporter})
	if bag.HasErrors() {
		return nil
	}
	for _, m := range res.Modules {
		if !m.Compiled {
			continue
		}
		_ = cheader.GenerateHeader(m)
		_ = swift.GenerateWrapper(m)
		_ = rust.GenerateGlue(m)
	}
	return nil
}

package driver

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"bridgegen/internal/bridge"
	"bridgegen/internal/diag"
	"bridgegen/internal/manifest"
	"bridgegen/internal/project"
	"bridgegen/internal/source"
	"bridgegen/internal/trace"
)

// Loaded is the result of reading and decoding module descriptions.
type Loaded struct {
	FileSet *source.FileSet
	// Files holds the ID of every path that could be read, in path order.
	Files   []source.FileID
	Modules bridge.ModuleSet
	Metas   []project.ModuleMeta
	Bag     *diag.Bag
}

// readFiles adds every path to a fresh file set. Unreadable paths get an
// empty placeholder file so the IO diagnostic has somewhere to point.
func readFiles(paths []string, opts Options, bag *diag.Bag) (*source.FileSet, []source.FileID) {
	fs := source.NewFileSetWithBase(opts.BaseDir)
	ids := make([]source.FileID, 0, len(paths))
	for _, path := range paths {
		id, err := fs.Load(path)
		if err != nil {
			placeholder := fs.Add(path, nil, source.FileVirtual)
			diag.ReportError(diag.BagReporter{Bag: bag}, diag.IOLoadFileError,
				source.Span{File: placeholder}, "failed to load file: "+err.Error()).Emit()
			continue
		}
		ids = append(ids, id)
	}
	return fs, ids
}

// decode parses every file in parallel. Files are only read here, so the
// file set needs no locking. Results keep path order.
func decode(ctx context.Context, fs *source.FileSet, ids []source.FileID, opts Options) ([]*bridge.Module, []*diag.Bag, error) {
	mods := make([]*bridge.Module, len(ids))
	bags := make([]*diag.Bag, len(ids))
	if len(ids) == 0 {
		return mods, bags, nil
	}
	var done atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs(len(ids)))
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			file := fs.Get(id)
			_, span := trace.Start(gctx, trace.ScopeModule, "decode:"+file.Path)
			bag := diag.NewBag(opts.maxDiagnostics())
			mods[i] = manifest.Decode(file, diag.BagReporter{Bag: bag})
			bags[i] = bag
			span.WithExtra("diagnostics", fmt.Sprint(bag.Len())).End("")
			opts.Observer.emit(PhaseEvent{Name: "load", Status: PhaseProgress, Done: int(done.Add(1)), Total: len(ids)})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return mods, bags, nil
}

// Load reads and decodes paths. Diagnostics go to the returned bag; the
// error is only set when ctx is cancelled.
func Load(ctx context.Context, paths []string, opts Options) (*Loaded, error) {
	ctx, span := trace.Start(ctx, trace.ScopeStage, "load")
	defer span.End("")
	end := opts.Timer.Measure("load")
	started := time.Now()
	opts.Observer.emit(PhaseEvent{Name: "load", Status: PhaseStart, Total: len(paths)})

	bag := diag.NewBag(opts.maxDiagnostics())
	fs, ids := readFiles(paths, opts, bag)
	mods, bags, err := decode(ctx, fs, ids, opts)
	if err != nil {
		end("cancelled")
		return nil, err
	}
	out := &Loaded{FileSet: fs, Files: ids, Bag: bag}
	var metas []project.ModuleMeta
	var decoded []*bridge.Module
	for i, mod := range mods {
		bag.Merge(bags[i])
		if mod == nil {
			continue
		}
		file := fs.Get(ids[i])
		metas = append(metas, project.ModuleMeta{
			Name:        mod.Name,
			Path:        file.Path,
			Span:        mod.Span,
			ContentHash: file.Hash,
		})
		decoded = append(decoded, mod)
	}
	for _, i := range project.CheckUnique(metas, diag.BagReporter{Bag: bag}) {
		out.Metas = append(out.Metas, metas[i])
		out.Modules = append(out.Modules, decoded[i])
	}

	span.WithExtra("files", fmt.Sprint(len(paths))).WithExtra("modules", fmt.Sprint(len(out.Modules)))
	end(fmt.Sprintf("%d files", len(paths)))
	opts.Observer.emit(PhaseEvent{Name: "load", Status: PhaseEnd, Elapsed: time.Since(started), Done: len(paths), Total: len(paths)})
	return out, nil
}

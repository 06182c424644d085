package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vmihailenco/msgpack/v5"

	"bridgegen/internal/bridge"
	"bridgegen/internal/layout"
	"bridgegen/internal/packaging"
	"bridgegen/internal/project"
	"bridgegen/internal/source"
)

// cacheSchemaVersion is bumped whenever CachePayload changes shape.
const cacheSchemaVersion uint16 = 1

const defaultMemEntries = 64

// CachePayload is what one cache entry stores.
type CachePayload struct {
	Schema      uint16
	Fingerprint string
	Modules     []string
	Paths       []string
	Contents    [][]byte
}

func payloadOf(fingerprint string, modules []string, artifacts []packaging.Artifact) *CachePayload {
	p := &CachePayload{
		Schema:      cacheSchemaVersion,
		Fingerprint: fingerprint,
		Modules:     modules,
		Paths:       make([]string, len(artifacts)),
		Contents:    make([][]byte, len(artifacts)),
	}
	for i, a := range artifacts {
		p.Paths[i] = a.Path
		p.Contents[i] = a.Content
	}
	return p
}

// Artifacts rebuilds the artifact list.
func (p *CachePayload) Artifacts() []packaging.Artifact {
	out := make([]packaging.Artifact, len(p.Paths))
	for i := range p.Paths {
		out[i] = packaging.Artifact{Path: p.Paths[i], Content: p.Contents[i]}
	}
	return out
}

// ArtifactCache maps a build digest to its generated artifacts. Entries
// live in an in-process LRU and, when a directory is set, in msgpack
// files on disk. Safe for concurrent use.
type ArtifactCache struct {
	mu  sync.RWMutex
	dir string
	mem *lru.Cache[project.Digest, *CachePayload]
}

// OpenArtifactCache creates dir if needed. An empty dir keeps entries in
// memory only.
func OpenArtifactCache(dir string, memEntries int) (*ArtifactCache, error) {
	if memEntries <= 0 {
		memEntries = defaultMemEntries
	}
	mem, err := lru.New[project.Digest, *CachePayload](memEntries)
	if err != nil {
		return nil, err
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("open artifact cache: %w", err)
		}
	}
	return &ArtifactCache{dir: dir, mem: mem}, nil
}

func (c *ArtifactCache) pathFor(key project.Digest) string {
	return filepath.Join(c.dir, "artifacts", key.String()+".mp")
}

// Put stores payload under key.
func (c *ArtifactCache) Put(key project.Digest, payload *CachePayload) error {
	if c == nil {
		return nil
	}
	c.mem.Add(key, payload)
	if c.dir == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(f.Name()) }()

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get looks key up in memory, then on disk. Entries from another schema
// or generator build count as misses.
func (c *ArtifactCache) Get(key project.Digest, fingerprint string) (*CachePayload, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	if p, ok := c.mem.Get(key); ok && p.valid(fingerprint) {
		return p, true, nil
	}
	if c.dir == "" {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer func() { _ = f.Close() }()
	var p CachePayload
	if err := msgpack.NewDecoder(f).Decode(&p); err != nil {
		return nil, false, fmt.Errorf("decode cache entry %s: %w", key.Short(), err)
	}
	if !p.valid(fingerprint) {
		return nil, false, nil
	}
	c.mem.Add(key, &p)
	return &p, true, nil
}

func (p *CachePayload) valid(fingerprint string) bool {
	return p != nil && p.Schema == cacheSchemaVersion && p.Fingerprint == fingerprint && len(p.Paths) == len(p.Contents)
}

// DropAll removes every entry.
func (c *ArtifactCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mem.Purge()
	if c.dir == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "artifacts"))
}

// CacheKey hashes everything generated output depends on: the content
// and path of every input file in order, the codegen config, the layout
// target and the generator build.
func CacheKey(files []*source.File, cfg bridge.CodegenConfig, target layout.Target, fingerprint string) project.Digest {
	cfg = cfg.Normalize()
	deps := make([]project.Digest, 0, len(files))
	for _, f := range files {
		deps = append(deps, project.Combine(f.Hash, project.DigestStrings(f.Path)))
	}
	head := project.DigestStrings(
		"bridgegen-artifacts",
		fingerprint,
		cfg.Prefix,
		cfg.SupportCrate,
		strings.Join(cfg.Features, ","),
		target.Triple,
	)
	return project.Combine(head, deps...)
}

// Package packaging places generated artifacts where the Swift package
// tooling expects them and describes the package it should assemble.
package packaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Artifact is one generated file. Path is slash separated and relative to
// the output directory.
type Artifact struct {
	Path    string
	Content []byte
}

// StageReport lists staged paths by outcome, in artifact order.
type StageReport struct {
	Written   []string
	Unchanged []string
}

// Stage writes every artifact under outDir. Each file is replaced
// atomically and files whose content already matches are left untouched.
func Stage(ctx context.Context, outDir string, artifacts []Artifact) (StageReport, error) {
	var report StageReport
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return report, fmt.Errorf("create %s: %w", outDir, err)
	}
	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		rel, err := cleanRel(a.Path)
		if err != nil {
			return report, err
		}
		dst := filepath.Join(outDir, filepath.FromSlash(rel))
		if old, err := os.ReadFile(dst); err == nil && bytes.Equal(old, a.Content) {
			report.Unchanged = append(report.Unchanged, rel)
			continue
		}
		if err := WriteFileAtomic(dst, a.Content); err != nil {
			return report, err
		}
		report.Written = append(report.Written, rel)
	}
	return report, nil
}

var errUnsafePath = errors.New("artifact path escapes the output directory")

func cleanRel(p string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	if clean == "." || path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%q: %w", p, errUnsafePath)
	}
	return clean, nil
}

// WriteFileAtomic writes data to a temporary file next to dst and renames
// it into place.
func WriteFileAtomic(dst string, data []byte) (err error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".bridgegen-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err = os.Chmod(f.Name(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if err = os.Rename(f.Name(), dst); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}

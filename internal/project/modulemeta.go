package project

import (
	"fmt"

	"bridgegen/internal/diag"
	"bridgegen/internal/source"
)

// ModuleMeta identifies one loaded module description.
type ModuleMeta struct {
	Name string
	Path string
	// Span is the [module] header, used to anchor project diagnostics.
	Span        source.Span
	ContentHash Digest
}

// CheckUnique reports every module whose name was already used by an
// earlier one and returns the indexes of the first occurrences, in order.
func CheckUnique(metas []ModuleMeta, r diag.Reporter) []int {
	first := make(map[string]int, len(metas))
	keep := make([]int, 0, len(metas))
	for i, meta := range metas {
		prev, dup := first[meta.Name]
		if !dup {
			first[meta.Name] = i
			keep = append(keep, i)
			continue
		}
		diag.ReportError(r, diag.ProjDuplicateModule, meta.Span, fmt.Sprintf("duplicate module %q", meta.Name)).
			WithNote(metas[prev].Span, fmt.Sprintf("previous declaration of %q in %s", meta.Name, metas[prev].Path)).
			Emit()
	}
	return keep
}

// SetDigest hashes the content of every module in order. It is the input
// half of the artifact cache key.
func SetDigest(metas []ModuleMeta) Digest {
	deps := make([]Digest, len(metas))
	for i, m := range metas {
		deps[i] = Combine(m.ContentHash, DigestStrings(m.Name))
	}
	return Combine(DigestStrings("modules"), deps...)
}

package layout

import "sort"

// Target describes the ABI target triple and its pointer properties.
type Target struct {
	Triple   string // e.g. "aarch64-apple-darwin"
	PtrSize  int    // bytes
	PtrAlign int    // bytes
}

func X86_64AppleDarwin() Target {
	return Target{Triple: "x86_64-apple-darwin", PtrSize: 8, PtrAlign: 8}
}

func AArch64AppleDarwin() Target {
	return Target{Triple: "aarch64-apple-darwin", PtrSize: 8, PtrAlign: 8}
}

func AArch64AppleIOS() Target {
	return Target{Triple: "aarch64-apple-ios", PtrSize: 8, PtrAlign: 8}
}

func X86_64LinuxGNU() Target {
	return Target{Triple: "x86_64-linux-gnu", PtrSize: 8, PtrAlign: 8}
}

var knownTargets = map[string]func() Target{
	"x86_64-apple-darwin":  X86_64AppleDarwin,
	"aarch64-apple-darwin": AArch64AppleDarwin,
	"aarch64-apple-ios":    AArch64AppleIOS,
	"x86_64-linux-gnu":     X86_64LinuxGNU,
}

// DefaultTarget is used when no target is requested.
func DefaultTarget() Target { return AArch64AppleDarwin() }

// TargetByTriple looks up a known target.
func TargetByTriple(triple string) (Target, bool) {
	mk, ok := knownTargets[triple]
	if !ok {
		return Target{}, false
	}
	return mk(), true
}

// KnownTriples lists the supported target triples, sorted.
func KnownTriples() []string {
	out := make([]string, 0, len(knownTargets))
	for t := range knownTargets {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

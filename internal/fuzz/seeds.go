package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10
	maxFuzzInput = 256 << 10
)

var typeExprSeeds = []string{
	"u8",
	"()",
	"&str",
	"&'static str",
	"&'a mut SomeType",
	"&[u8]",
	"Option<Vec<u8>>",
	"Result<String, u32>",
	"std::string::String",
	"Pair<u8, u16>",
	"Box<dyn FnOnce(u8, String) -> u16>",
	"Box<dyn FnOnce()>",
	"Vec<",
	"Option<u8,>>",
}

var manifestSeeds = []string{
	"",
	"[module]\nname = \"empty\"\n",
	`[module]
name = "accounts"

[[type]]
kind = "opaque"
name = "Account"
equatable = true
hashable = true

[[type]]
kind = "struct"
name = "Balance"
fields = [{ name = "cents", type = "i64" }, { name = "currency", type = "u16" }]

[[type]]
kind = "enum"
name = "Shape"
variants = [{ name = "Empty" }, { name = "Circle", fields = [{ type = "f64" }] }]

[[function]]
name = "new"
associated_to = "Account"
init = true
params = [{ name = "owner", type = "&str" }]

[[function]]
name = "balance"
associated_to = "Account"
receiver = "ref"
returns = "Balance"

[[function]]
name = "fetch"
async = true
returns = "Option<u32>"

[[function]]
name = "notify"
host = "swift"
params = [{ name = "done", type = "Box<dyn FnOnce(u32)>" }]
`,
	`[module]
name = "generic"

[[type]]
kind = "opaque"
name = "Pair"
declare_generic = ["A", "B"]

[[type]]
kind = "opaque"
name = "Pair"
generics = ["u8", "u16"]

[[type]]
kind = "opaque"
name = "Id"
copy = 16
`,
	"[module]\nname = \"m\"\n[[type]]\nkind = \"struct\"\nname = \"S\"\nfields = [{ name = \"s\", type = \"Missing\" }]\n",
}

func addTypeExprSeeds(f *testing.F) {
	for _, s := range typeExprSeeds {
		f.Add(s)
	}
}

// addManifestSeeds adds the built-in manifests and every .toml file under
// the package's testdata directory.
func addManifestSeeds(f *testing.F) {
	for _, s := range manifestSeeds {
		f.Add([]byte(s))
	}
	root := "testdata"
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".toml" {
			return nil
		}
		// #nosec G304 -- path comes from the testdata walk
		src, err := os.ReadFile(path)
		if err == nil {
			f.Add(clampSeed(src))
		}
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) > maxSeedBytes {
		src = src[:maxSeedBytes]
	}
	return append([]byte(nil), src...)
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}

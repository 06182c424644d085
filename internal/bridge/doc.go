// Package bridge holds the declarative description of a bridge module: the
// opaque types, shared structs, shared enums and functions that cross the
// Rust/Swift boundary, plus the configuration that controls code generation.
//
// Values in this package are produced by internal/manifest (or built directly
// in tests) and consumed read-only by internal/sema and the backends.
package bridge

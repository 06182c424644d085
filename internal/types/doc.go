// Package types is the bridged type model: every type that may cross the
// Rust/Swift boundary resolves to exactly one Type, and that Type alone
// decides how the C header, the Rust glue and the Swift wrappers spell it.
//
// The variant set is closed. A new variant does not compile until it
// provides every spelling the backends ask for.
package types

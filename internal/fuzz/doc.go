// Package fuzztests holds fuzz harnesses for the front half of the
// generator: the type-expression parser, the manifest decoder and the
// analysis and backends behind them. They guard against panics and hangs
// on arbitrary input; output is not checked beyond round-trip properties.
package fuzztests

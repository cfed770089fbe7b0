// Package cli implements the interactive WishKeeper client: a small REPL
// over the REST API that keeps its login in a local session cache.
package cli

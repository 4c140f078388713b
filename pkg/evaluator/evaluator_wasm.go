//go:build (js && wasm) || wasip1

package evaluator

// init sets WebAssembly-specific defaults for all Evaluators created in this
// process.
//
// Every nested call costs several Go frames, and WebAssembly hosts commonly
// give the module far less stack than a native process gets, so the default
// call depth is lowered to fail with ErrStackOverflow before the host traps.
func init() {
	defaultMaxDepth = 2000
}

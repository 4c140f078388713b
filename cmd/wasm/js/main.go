//go:build js && wasm

// Command gocalc-wasm-js is the WebAssembly entrypoint for browser and Node.js.
//
// It exposes a global `gocalc` object with the following API:
//
//	gocalc.version()        → string
//	gocalc.eval(source)     → string rendering of the value  (throws on error)
//	gocalc.tokens(source)   → array of token renderings      (throws on error)
//
// Bindings persist between gocalc.eval calls, like lines typed into the REPL.
//
// Build:
//
//	GOOS=js GOARCH=wasm go build -o gocalc.wasm ./cmd/wasm/js/
//
// Usage in browser:
//
//	<script src="wasm_exec.js"></script>
//	<script>
//	  const go = new Go()
//	  WebAssembly.instantiateStreaming(fetch('gocalc.wasm'), go.importObject)
//	    .then(r => { go.run(r.instance); console.log(gocalc.eval('[x = 6; x * 7]')) })
//	</script>
package main

import (
	"context"
	"fmt"
	"syscall/js"

	"github.com/sandrolain/gocalc"
	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/parser"
	"github.com/sandrolain/gocalc/pkg/types"
)

var (
	ev  = evaluator.New(evaluator.WithCaching(true))
	env = types.NewEnvironment()
)

// jsThrow panics with a JS Error so the caller receives a thrown exception.
func jsThrow(msg string) {
	panic(js.Global().Get("Error").New(msg))
}

// jsEval implements gocalc.eval(source).
func jsEval(_ js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		jsThrow("gocalc.eval requires 1 argument: source (string)")
	}

	v, err := ev.EvalSource(context.Background(), args[0].String(), env)
	if err != nil {
		jsThrow(fmt.Sprintf("gocalc.eval: %v", err))
	}
	return v.String()
}

// jsTokens implements gocalc.tokens(source).
func jsTokens(_ js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		jsThrow("gocalc.tokens requires 1 argument: source (string)")
	}

	tokens, err := parser.Tokenize(args[0].String())
	if err != nil {
		jsThrow(fmt.Sprintf("gocalc.tokens: %v", err))
	}
	out := make([]interface{}, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.String()
	}
	return out
}

func main() {
	api := map[string]interface{}{
		"eval":   js.FuncOf(jsEval),
		"tokens": js.FuncOf(jsTokens),
		"version": js.FuncOf(func(_ js.Value, _ []js.Value) interface{} {
			return gocalc.Version()
		}),
	}
	js.Global().Set("gocalc", js.ValueOf(api))

	// Block forever: the JS event loop owns execution from here.
	select {}
}

//go:build wasip1

// Command gocalc-wasm-wasi is the WASI (wasip1) entrypoint, usable from any
// runtime that supports the WebAssembly System Interface. pkg/sandbox drives
// it through wazero.
//
// Protocol: a single JSON object on stdin and a single JSON object on stdout.
//
//	stdin:  {"source": "<program>", "env": {"name": <number>, ...}}
//	stdout: {"kind": "number", "result": "42", "number": 42, "env": {...}}  on success
//	        {"kind": "", "error": "<code>: <message>", "code": "<code>"}    on failure (exit code 1)
//
// Build:
//
//	GOOS=wasip1 GOARCH=wasm go build -o gocalc.wasm ./cmd/wasm/wasi/
//
// Usage with wasmtime CLI:
//
//	echo '{"source":"[x = 6; x * 7]"}' | wasmtime gocalc.wasm
package main

import (
	"context"
	"os"

	"github.com/sandrolain/gocalc/pkg/protocol"
)

func writeResponse(r protocol.Response, exitCode int) {
	_ = protocol.WriteResponse(os.Stdout, r)
	os.Exit(exitCode)
}

func main() {
	req, err := protocol.ReadRequest(os.Stdin)
	if err != nil {
		writeResponse(protocol.ErrorResponse(err), 1)
	}

	resp := protocol.Handle(context.Background(), req)
	if resp.Error != "" {
		writeResponse(resp, 1)
	}

	writeResponse(resp, 0)
}

package sandbox_test

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sandrolain/gocalc/pkg/protocol"
	"github.com/sandrolain/gocalc/pkg/sandbox"
	"github.com/sandrolain/gocalc/pkg/types"
)

// Hand-assembled WASI commands standing in for the gocalc module.

func uleb(n int) []byte {
	var out []byte
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			out = append(out, b|0x80)
			continue
		}
		return append(out, b)
	}
}

func name(s string) []byte {
	return append(uleb(len(s)), s...)
}

func section(id byte, parts ...[]byte) []byte {
	var content []byte
	for _, p := range parts {
		content = append(content, p...)
	}
	out := append([]byte{id}, uleb(len(content))...)
	return append(out, content...)
}

func module(sections ...[]byte) []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

func codeSection(body ...byte) []byte {
	fn := append([]byte{0x00}, body...) // no locals
	return section(10, []byte{0x01}, uleb(len(fn)), fn)
}

// echoModule writes output to stdout and returns.
func echoModule(output string) []byte {
	iovec := make([]byte, 16)
	binary.LittleEndian.PutUint32(iovec[0:], 16)
	binary.LittleEndian.PutUint32(iovec[4:], uint32(len(output)))
	data := append(iovec, output...)

	return module(
		// (i32 i32 i32 i32) -> i32 and () -> ()
		section(1, []byte{0x02, 0x60, 0x04, 0x7f, 0x7f, 0x7f, 0x7f, 0x01, 0x7f, 0x60, 0x00, 0x00}),
		section(2, []byte{0x01}, name("wasi_snapshot_preview1"), name("fd_write"), []byte{0x00, 0x00}),
		section(3, []byte{0x01, 0x01}),
		section(5, []byte{0x01, 0x00, 0x01}),
		section(7, []byte{0x02}, name("_start"), []byte{0x00, 0x01}, name("memory"), []byte{0x02, 0x00}),
		// fd_write(1, 0, 1, 8); drop
		codeSection(0x41, 0x01, 0x41, 0x00, 0x41, 0x01, 0x41, 0x08, 0x10, 0x00, 0x1a, 0x0b),
		section(11, []byte{0x01, 0x00, 0x41, 0x00, 0x0b}, uleb(len(data)), data),
	)
}

// exitModule calls proc_exit(code) without writing anything.
func exitModule(code byte) []byte {
	return module(
		// (i32) -> () and () -> ()
		section(1, []byte{0x02, 0x60, 0x01, 0x7f, 0x00, 0x60, 0x00, 0x00}),
		section(2, []byte{0x01}, name("wasi_snapshot_preview1"), name("proc_exit"), []byte{0x00, 0x00}),
		section(3, []byte{0x01, 0x01}),
		section(5, []byte{0x01, 0x00, 0x01}),
		section(7, []byte{0x02}, name("_start"), []byte{0x00, 0x01}, name("memory"), []byte{0x02, 0x00}),
		codeSection(0x41, code, 0x10, 0x00, 0x0b),
	)
}

// spinModule never returns.
func spinModule() []byte {
	return module(
		section(1, []byte{0x01, 0x60, 0x00, 0x00}),
		section(3, []byte{0x01, 0x00}),
		section(5, []byte{0x01, 0x00, 0x01}),
		section(7, []byte{0x02}, name("_start"), []byte{0x00, 0x00}, name("memory"), []byte{0x02, 0x00}),
		// loop br 0 end
		codeSection(0x03, 0x40, 0x0c, 0x00, 0x0b, 0x0b),
	)
}

func newRunner(t *testing.T, wasm []byte, opts ...sandbox.Option) *sandbox.Runner {
	t.Helper()
	ctx := context.Background()
	r, err := sandbox.New(ctx, wasm, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = r.Close(ctx) })
	return r
}

func TestNewInvalidModule(t *testing.T) {
	_, err := sandbox.New(context.Background(), []byte("not wasm"))
	if err == nil || !strings.Contains(err.Error(), "compile module") {
		t.Fatalf("got %v, want a compile error", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := sandbox.Load(context.Background(), filepath.Join(t.TempDir(), "none.wasm"))
	if err == nil || !strings.Contains(err.Error(), "read module") {
		t.Fatalf("got %v, want a read error", err)
	}
}

func TestEvalDecodesResponse(t *testing.T) {
	r := newRunner(t, echoModule(`{"kind":"number","result":"42","number":42}`+"\n"))

	resp, err := r.Eval(context.Background(), protocol.Request{Source: "6 * 7"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Kind != "number" || resp.Result != "42" || resp.Number == nil || *resp.Number != 42 {
		t.Errorf("Eval() = %+v", resp)
	}

	// Each Eval gets a fresh instance.
	if _, err := r.Eval(context.Background(), protocol.Request{Source: "6 * 7"}); err != nil {
		t.Fatalf("second Eval: %v", err)
	}
}

func TestEvalCarriesEvaluationErrors(t *testing.T) {
	r := newRunner(t, echoModule(`{"kind":"","error":"U1001: Undefined variable: z","code":"U1001"}`))

	resp, err := r.Eval(context.Background(), protocol.Request{Source: "z"})
	if err != nil {
		t.Fatalf("evaluation errors must travel in the response: %v", err)
	}
	if !types.IsCode(resp.Err(), types.ErrUndefinedVariable) {
		t.Errorf("resp.Err() = %v", resp.Err())
	}
}

func TestEvalExitWithoutResponse(t *testing.T) {
	r := newRunner(t, exitModule(3))

	_, err := r.Eval(context.Background(), protocol.Request{Source: "1"})
	if err == nil || !strings.Contains(err.Error(), "exited with code 3") {
		t.Fatalf("got %v, want an exit code error", err)
	}
}

func TestEvalTimeout(t *testing.T) {
	r := newRunner(t, spinModule(), sandbox.WithTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := r.Eval(context.Background(), protocol.Request{Source: "while 1 0"})
	if !types.IsCode(err, types.ErrCancelled) {
		t.Fatalf("got %v, want %s", err, types.ErrCancelled)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("spinning module ran for %v", elapsed)
	}
}

func TestMemoryLimit(t *testing.T) {
	// The modules ask for one page; a limit of zero pages cannot hold it.
	_, err := sandbox.New(context.Background(), echoModule("{}"), sandbox.WithMemoryLimitPages(0))
	if err == nil {
		t.Fatal("expected the memory limit to reject the module")
	}
}

// wasmModule locates a real gocalc WASI build, skipping when there is none.
func wasmModule(t *testing.T) string {
	t.Helper()
	path := os.Getenv("GOCALC_WASM")
	if path == "" {
		path = filepath.Join("..", "..", "gocalc.wasm")
	}
	if _, err := os.Stat(path); err != nil {
		t.Skipf("gocalc.wasm not found (%s): run GOOS=wasip1 GOARCH=wasm go build -o gocalc.wasm ./cmd/wasm/wasi/", path)
	}
	return path
}

func TestEvalGocalcModule(t *testing.T) {
	ctx := context.Background()
	r, err := sandbox.Load(ctx, wasmModule(t), sandbox.WithTimeout(10*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close(ctx)

	tests := []struct {
		source string
		want   protocol.Response
	}{
		{"[x = y * 2; x]", protocol.Handle(ctx, protocol.Request{Source: "[x = y * 2; x]", Env: map[string]float64{"y": 21}})},
		{"fn a -> a", protocol.Handle(ctx, protocol.Request{Source: "fn a -> a", Env: map[string]float64{"y": 21}})},
		{"nope", protocol.Handle(ctx, protocol.Request{Source: "nope", Env: map[string]float64{"y": 21}})},
	}
	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			got, err := r.Eval(ctx, protocol.Request{Source: tt.source, Env: map[string]float64{"y": 21}})
			if err != nil {
				t.Fatal(err)
			}
			if got.Kind != tt.want.Kind || got.Result != tt.want.Result || got.Code != tt.want.Code {
				t.Errorf("sandbox %+v, in-process %+v", got, tt.want)
			}
		})
	}
}

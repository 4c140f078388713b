// Package sandbox runs gocalc programs inside the WASI build of gocalc,
// hosted by the wazero WebAssembly runtime.
//
// The in-process evaluator can only notice cancellation between nodes, and it
// shares the host's memory. A sandboxed evaluation runs in its own module
// instance with a capped linear memory and is torn down when its context
// ends, so a runaway program cannot take the host with it.
//
// # Example
//
//	r, err := sandbox.Load(ctx, "gocalc.wasm", sandbox.WithTimeout(time.Second))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close(ctx)
//	resp, err := r.Eval(ctx, protocol.Request{Source: "[x = 6; x * 7]"})
//
// Build the module with:
//
//	GOOS=wasip1 GOARCH=wasm go build -o gocalc.wasm ./cmd/wasm/wasi/
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"github.com/tetratelabs/wazero/sys"

	"github.com/sandrolain/gocalc/pkg/protocol"
	"github.com/sandrolain/gocalc/pkg/types"
)

// DefaultMemoryLimitPages caps guest memory at 16 MiB.
const DefaultMemoryLimitPages uint32 = 256

// Options configures a Runner.
type Options struct {
	// MemoryLimitPages caps guest linear memory in 64 KiB pages.
	MemoryLimitPages uint32
	// Timeout bounds each Eval. Zero means only the caller's context applies.
	Timeout time.Duration
	// Logger for structured logging.
	Logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Options)

// WithMemoryLimitPages caps guest linear memory.
func WithMemoryLimitPages(pages uint32) Option {
	return func(o *Options) {
		o.MemoryLimitPages = pages
	}
}

// WithTimeout bounds each evaluation.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Runner evaluates requests in fresh instances of one compiled module.
// It is safe for concurrent use.
type Runner struct {
	opts     Options
	logger   *slog.Logger
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
}

// Load reads a WASI module from path and calls New.
func Load(ctx context.Context, path string, opts ...Option) (*Runner, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sandbox: read module: %w", err)
	}
	return New(ctx, wasm, opts...)
}

// New compiles wasm, which must be a WASI command speaking the protocol
// package's JSON on stdin and stdout.
func New(ctx context.Context, wasm []byte, opts ...Option) (*Runner, error) {
	options := Options{
		MemoryLimitPages: DefaultMemoryLimitPages,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	cfg := wazero.NewRuntimeConfig().
		WithCloseOnContextDone(true).
		WithMemoryLimitPages(options.MemoryLimitPages)
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("sandbox: instantiate WASI: %w", err)
	}

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("sandbox: compile module: %w", err)
	}

	options.Logger.Debug("sandbox module compiled",
		"bytes", len(wasm),
		"memory_limit_pages", options.MemoryLimitPages)

	return &Runner{
		opts:     options,
		logger:   options.Logger,
		runtime:  rt,
		compiled: compiled,
	}, nil
}

// Eval runs req in a new module instance.
//
// Evaluation errors come back inside the Response, exactly as the in-process
// protocol.Handle reports them. The returned error is reserved for failures of
// the sandbox itself; a context that ends first yields a types.ErrCancelled
// error.
func (r *Runner) Eval(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	var stdin, stdout, stderr bytes.Buffer
	if err := protocol.WriteRequest(&stdin, req); err != nil {
		return protocol.Response{}, fmt.Errorf("sandbox: encode request: %w", err)
	}

	modCfg := wazero.NewModuleConfig().
		WithName("").
		WithStdin(&stdin).
		WithStdout(&stdout).
		WithStderr(&stderr).
		WithSysWalltime().
		WithSysNanotime().
		WithSysNanosleep()

	start := time.Now()
	mod, err := r.runtime.InstantiateModule(ctx, r.compiled, modCfg)
	if mod != nil {
		defer mod.Close(ctx)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return protocol.Response{}, types.NewError(types.ErrCancelled, "sandbox evaluation cancelled").WithCause(ctxErr)
	}

	exitCode := uint32(0)
	if err != nil {
		var exitErr *sys.ExitError
		if !errors.As(err, &exitErr) {
			return protocol.Response{}, fmt.Errorf("sandbox: run module: %w", err)
		}
		exitCode = exitErr.ExitCode()
	}

	r.logger.Debug("sandbox evaluation finished",
		"exit_code", exitCode,
		"elapsed", time.Since(start))

	resp, decodeErr := protocol.ReadResponse(&stdout)
	if decodeErr != nil {
		if exitCode != 0 {
			return protocol.Response{}, fmt.Errorf("sandbox: module exited with code %d: %s",
				exitCode, strings.TrimSpace(stderr.String()))
		}
		return protocol.Response{}, fmt.Errorf("sandbox: %w", decodeErr)
	}
	return resp, nil
}

// Close releases the runtime and every module compiled by it.
func (r *Runner) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}

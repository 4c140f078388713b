// Package evaluator implements the gocalc evaluation engine.
//
// The evaluator receives a parsed Abstract Syntax Tree (AST) from the parser
// and walks it against a flat, mutable Environment. It supports:
//   - Arithmetic and comparisons over float64 numbers
//   - Assignment into the caller's environment
//   - First-class functions that snapshot their defining environment
//   - Code blocks, switches and while loops
//   - Optional timeout and cancellation via context.Context
//
// # Example
//
//	ev := evaluator.New()
//	env := types.NewEnvironment()
//	result, err := ev.Eval(ctx, expr, env)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Evaluation is single-threaded and synchronous. An Evaluator carries no
// per-evaluation state, so one instance can be shared across goroutines as
// long as each goroutine uses its own Environment.
package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sandrolain/gocalc/pkg/cache"
	"github.com/sandrolain/gocalc/pkg/parser"
	"github.com/sandrolain/gocalc/pkg/types"
)

// Evaluator evaluates gocalc programs.
type Evaluator struct {
	opts   EvalOptions
	logger *slog.Logger
	cache  *cache.Cache // non-nil when Caching is enabled
}

// EvalOptions configures evaluator behavior.
type EvalOptions struct {
	// Caching enables compilation caching in EvalSource.
	// When true, compiled programs are cached by source text.
	// The default cache holds up to 256 entries with LRU eviction.
	Caching bool
	// CacheSize sets the maximum number of cached programs.
	// Only used when Caching is true and no explicit Cache is provided.
	// Defaults to 256.
	CacheSize int
	// Cache is a custom program cache. If non-nil, Caching is implicitly enabled.
	Cache *cache.Cache
	// MaxDepth limits nested function calls. Zero or negative disables the limit.
	MaxDepth int
	// Timeout sets evaluation timeout. Zero means no timeout.
	Timeout time.Duration
	// Debug enables debug logging.
	Debug bool
	// Logger for structured logging.
	Logger *slog.Logger
	// CompileOptions are passed to the parser by EvalSource.
	CompileOptions []parser.CompileOption
}

// defaultMaxDepth controls the default value of EvalOptions.MaxDepth for newly
// created Evaluators. It is lowered on WebAssembly targets by init() in
// evaluator_wasm.go.
var defaultMaxDepth = 10000

// New creates a new Evaluator with default options.
func New(opts ...EvalOption) *Evaluator {
	options := EvalOptions{
		Caching:  false, // Disabled by default
		MaxDepth: defaultMaxDepth,
		Timeout:  0, // Programs may loop forever unless the caller sets one
	}

	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	// Initialise program cache when caching is enabled.
	var c *cache.Cache
	if options.Cache != nil {
		c = options.Cache
	} else if options.Caching {
		size := options.CacheSize
		if size <= 0 {
			size = 256
		}
		c = cache.New(size)
	}

	return &Evaluator{
		opts:   options,
		logger: options.Logger,
		cache:  c,
	}
}

// Cache returns the program cache, or nil if caching is disabled.
func (e *Evaluator) Cache() *cache.Cache {
	return e.cache
}

// Options returns a copy of the evaluator options.
func (e *Evaluator) Options() EvalOptions {
	return e.opts
}

// Compile parses source with the evaluator's compile options, going through
// the cache when one is configured.
func (e *Evaluator) Compile(source string) (*types.Expression, error) {
	if e.cache == nil {
		return parser.Compile(source, e.opts.CompileOptions...)
	}

	if expr, ok := e.cache.Get(source); ok {
		if e.opts.Debug {
			e.logger.Debug("program cache hit", "source", source)
		}
		return expr, nil
	}

	if e.opts.Debug {
		e.logger.Debug("program cache miss", "source", source)
	}
	expr, err := parser.Compile(source, e.opts.CompileOptions...)
	if err != nil {
		return nil, err
	}
	e.cache.Set(source, expr)
	return expr, nil
}

// Eval evaluates a compiled program against env.
//
// Assignments performed by the program are written into env. A nil env is
// replaced by a fresh empty one, which the caller cannot observe.
func (e *Evaluator) Eval(ctx context.Context, expr *types.Expression, env types.Environment) (types.Value, error) {
	if expr == nil || expr.AST() == nil {
		return nil, fmt.Errorf("invalid expression")
	}
	return e.EvalNode(ctx, expr.AST(), env)
}

// EvalSource compiles and evaluates source against env.
func (e *Evaluator) EvalSource(ctx context.Context, source string, env types.Environment) (types.Value, error) {
	expr, err := e.Compile(source)
	if err != nil {
		return nil, err
	}
	return e.Eval(ctx, expr, env)
}

// EvalNode evaluates a single AST node against env.
// It is the entry point for trees built directly with the types constructors.
func (e *Evaluator) EvalNode(ctx context.Context, node *types.ASTNode, env types.Environment) (types.Value, error) {
	if node == nil {
		return nil, fmt.Errorf("invalid expression")
	}
	if env == nil {
		env = types.NewEnvironment()
	}

	// Apply timeout if configured
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	// Initialise a shared call depth counter for this evaluation tree.
	if e.opts.MaxDepth > 0 {
		ctx = withNewRecurseDepthPtr(ctx)
	}

	return e.evalNode(ctx, node, env)
}

// EvalOption configures evaluation behavior.
type EvalOption func(*EvalOptions)

// WithCaching enables or disables program compilation caching.
// When enabled, a default LRU cache of 256 entries is created.
// To control the cache size use WithCacheSize; to supply your own cache use WithCache.
func WithCaching(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Caching = enabled
	}
}

// WithCacheSize sets the maximum number of cached programs.
// Only effective when combined with WithCaching(true).
func WithCacheSize(size int) EvalOption {
	return func(opts *EvalOptions) {
		opts.CacheSize = size
	}
}

// WithCache attaches an external program cache.
// The evaluator will use this cache regardless of the Caching flag.
func WithCache(c *cache.Cache) EvalOption {
	return func(opts *EvalOptions) {
		opts.Cache = c
	}
}

// WithTimeout sets the evaluation timeout.
func WithTimeout(timeout time.Duration) EvalOption {
	return func(opts *EvalOptions) {
		opts.Timeout = timeout
	}
}

// WithDebug enables or disables debug logging.
func WithDebug(enabled bool) EvalOption {
	return func(opts *EvalOptions) {
		opts.Debug = enabled
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) EvalOption {
	return func(opts *EvalOptions) {
		opts.Logger = logger
	}
}

// WithMaxDepth sets the maximum function call depth.
func WithMaxDepth(depth int) EvalOption {
	return func(opts *EvalOptions) {
		opts.MaxDepth = depth
	}
}

// WithCompileOptions sets the parser options used by EvalSource.
func WithCompileOptions(opts ...parser.CompileOption) EvalOption {
	return func(o *EvalOptions) {
		o.CompileOptions = append(o.CompileOptions, opts...)
	}
}

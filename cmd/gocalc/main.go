// Command gocalc evaluates gocalc programs from files, the command line or an
// interactive REPL, and can run them inside the WebAssembly sandbox.
//
// Usage:
//
//	gocalc [-config file] [-debug] [-timeout d] <command> [args]
//
// Commands:
//
//	run <file|->       evaluate a program file (- reads stdin)
//	eval <source>      evaluate a one-line program
//	repl               start the interactive shell
//	tokens <source>    print the token stream, one token per line
//	ast <source>       print the syntax tree as JSON
//	sandbox <source>   evaluate inside the WASI sandbox
//	version            print the version
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/sandrolain/gocalc"
	"github.com/sandrolain/gocalc/pkg/config"
	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/parser"
	"github.com/sandrolain/gocalc/pkg/protocol"
	"github.com/sandrolain/gocalc/pkg/sandbox"
	"github.com/sandrolain/gocalc/pkg/types"
)

const appName = "gocalc"

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

const usageText = `Usage: gocalc [-config file] [-debug] [-timeout d] <command> [args]

Commands:
  run <file|->       evaluate a program file (- reads stdin)
  eval <source>      evaluate a one-line program
  repl               start the interactive shell
  tokens <source>    print the token stream, one token per line
  ast <source>       print the syntax tree as JSON
  sandbox <source>   evaluate inside the WASI sandbox
  version            print the version
`

func red(s string) string  { return "\x1b[31m" + s + "\x1b[0m" }
func blue(s string) string { return "\x1b[94m" + s + "\x1b[0m" }

// app carries what every command needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usageText) }
	configPath := fs.String("config", "", "config file (default: $GOCALC_CONFIG, ./.gocalc.yaml, ~/.gocalc.yaml)")
	debug := fs.Bool("debug", false, "enable debug logging")
	timeout := fs.Duration("timeout", 0, "evaluation timeout, overrides the config file")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return exitUsage
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, red(err.Error()))
		return exitError
	}
	if *debug {
		cfg.Debug = true
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "timeout" {
			cfg.Timeout = *timeout
		}
	})

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	a := &app{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	cmdArgs := fs.Args()[1:]
	switch cmd := fs.Arg(0); cmd {
	case "run":
		return a.cmdRun(cmdArgs)
	case "eval":
		return a.cmdEval(cmdArgs)
	case "repl":
		return a.cmdRepl(cmdArgs)
	case "tokens":
		return a.cmdTokens(cmdArgs)
	case "ast":
		return a.cmdAST(cmdArgs)
	case "sandbox":
		return a.cmdSandbox(cmdArgs)
	case "version":
		fmt.Fprintln(stdout, gocalc.Version())
		return exitOK
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usageText)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		fs.Usage()
		return exitUsage
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.Find()
}

func (a *app) evaluator() *evaluator.Evaluator {
	opts := append(a.cfg.EvalOptions(), evaluator.WithLogger(a.logger))
	return evaluator.New(opts...)
}

// interruptContext returns a context cancelled by Ctrl-C, so a runaway
// program stops with a cancellation error instead of killing the process.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func (a *app) evalAndPrint(source string) int {
	ctx, stop := interruptContext()
	defer stop()

	v, err := a.evaluator().EvalSource(ctx, source, a.cfg.Environment())
	if err != nil {
		fmt.Fprintln(a.stderr, red(err.Error()))
		return exitError
	}
	fmt.Fprintln(a.stdout, v.String())
	return exitOK
}

// sourceArg joins the remaining arguments, so that unquoted programs such as
// `gocalc eval 1 + 2` still work.
func sourceArg(name string, args []string, stderr io.Writer) (string, bool) {
	if len(args) == 0 {
		fmt.Fprintf(stderr, "%s: missing source\n", name)
		return "", false
	}
	return strings.Join(args, " "), true
}

func (a *app) cmdRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.stderr, "run: expected exactly one file")
		return exitUsage
	}

	var (
		src []byte
		err error
	)
	if path := fs.Arg(0); path == "-" {
		src, err = io.ReadAll(a.stdin)
	} else {
		src, err = os.ReadFile(path)
	}
	if err != nil {
		fmt.Fprintln(a.stderr, red(fmt.Sprintf("run: %v", err)))
		return exitError
	}
	return a.evalAndPrint(string(src))
}

func (a *app) cmdEval(args []string) int {
	source, ok := sourceArg("eval", args, a.stderr)
	if !ok {
		return exitUsage
	}
	return a.evalAndPrint(source)
}

func (a *app) cmdTokens(args []string) int {
	source, ok := sourceArg("tokens", args, a.stderr)
	if !ok {
		return exitUsage
	}
	tokens, err := parser.Tokenize(source)
	if err != nil {
		fmt.Fprintln(a.stderr, red(err.Error()))
		return exitError
	}
	for _, tok := range tokens {
		fmt.Fprintln(a.stdout, tok.String())
	}
	return exitOK
}

func (a *app) cmdAST(args []string) int {
	source, ok := sourceArg("ast", args, a.stderr)
	if !ok {
		return exitUsage
	}
	expr, err := parser.Compile(source, parser.WithStrict(a.cfg.Strict))
	if err != nil {
		fmt.Fprintln(a.stderr, red(err.Error()))
		return exitError
	}
	out, err := json.MarshalIndent(expr.AST(), "", "  ")
	if err != nil {
		fmt.Fprintln(a.stderr, red(fmt.Sprintf("ast: %v", err)))
		return exitError
	}
	fmt.Fprintln(a.stdout, string(out))
	return exitOK
}

func (a *app) cmdSandbox(args []string) int {
	fs := flag.NewFlagSet("sandbox", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	module := fs.String("module", a.cfg.ModulePath(), "WASI build of gocalc")
	pages := fs.Uint("memory-pages", uint(a.cfg.Sandbox.MemoryLimitPages), "guest memory limit in 64 KiB pages")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	source, ok := sourceArg("sandbox", fs.Args(), a.stderr)
	if !ok {
		return exitUsage
	}

	ctx, stop := interruptContext()
	defer stop()

	runner, err := sandbox.Load(ctx, *module,
		sandbox.WithMemoryLimitPages(uint32(*pages)),
		sandbox.WithTimeout(a.cfg.Timeout),
		sandbox.WithLogger(a.logger),
	)
	if err != nil {
		fmt.Fprintln(a.stderr, red(err.Error()))
		return exitError
	}
	defer runner.Close(context.Background())

	resp, err := runner.Eval(ctx, protocol.Request{Source: source, Env: a.cfg.Prelude})
	if err == nil {
		err = resp.Err()
	}
	if err != nil {
		if types.IsCode(err, types.ErrCancelled) && errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w (timeout %s)", err, a.cfg.Timeout.Round(time.Millisecond))
		}
		fmt.Fprintln(a.stderr, red(err.Error()))
		return exitError
	}
	fmt.Fprintln(a.stdout, resp.Result)
	return exitOK
}

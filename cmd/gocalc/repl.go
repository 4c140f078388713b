package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/sandrolain/gocalc"
	"github.com/sandrolain/gocalc/pkg/evaluator"
	"github.com/sandrolain/gocalc/pkg/parser"
	"github.com/sandrolain/gocalc/pkg/types"
)

const promptCont = "... "

var (
	banner   = fmt.Sprintf("gocalc %s REPL\nCtrl+C cancels input or a running program, Ctrl+D exits. Type :help for commands.", gocalc.Version())
	helpText = `REPL commands:
  :env     List the current bindings
  :reset   Drop every binding and restore the prelude
  :help    Show this help
  :quit    Exit the REPL
`
)

// session is the state of one REPL: bindings persist from line to line.
type session struct {
	ev      *evaluator.Evaluator
	env     types.Environment
	prelude func() types.Environment
	opts    []parser.CompileOption
}

func (a *app) newSession() *session {
	return &session{
		ev:      a.evaluator(),
		env:     a.cfg.Environment(),
		prelude: a.cfg.Environment,
		opts:    []parser.CompileOption{parser.WithStrict(a.cfg.Strict)},
	}
}

// incomplete reports whether src fails to parse only because it ends too
// early, meaning more lines may complete it.
func (s *session) incomplete(src string) bool {
	_, err := parser.Compile(src, s.opts...)
	return types.IsCode(err, types.ErrUnexpectedEnd)
}

// command runs a :command and reports whether the REPL should exit.
func (s *session) command(line string, w io.Writer) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case ":quit", ":q", ":exit":
		return true
	case ":env":
		for _, name := range s.env.Names() {
			v, _ := s.env.Get(name)
			fmt.Fprintf(w, "%s = %s\n", name, v)
		}
	case ":reset":
		s.env = s.prelude()
		fmt.Fprintln(w, "environment reset")
	case ":help":
		fmt.Fprint(w, helpText)
	default:
		fmt.Fprintln(w, "unknown command. Type :help for commands.")
	}
	return false
}

// eval evaluates one complete input against the session environment.
func (s *session) eval(src string) (types.Value, error) {
	ctx, stop := interruptContext()
	defer stop()
	return s.ev.EvalSource(ctx, src, s.env)
}

func (a *app) cmdRepl(_ []string) int {
	fmt.Fprintln(a.stdout, banner)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if histPath := a.cfg.HistoryPath(); histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			} else {
				a.logger.Debug("cannot write history", "path", histPath, "error", err)
			}
		}()
	}

	s := a.newSession()
	for {
		code, ok := s.read(ln, a.cfg.REPL.Prompt)
		if !ok {
			fmt.Fprintln(a.stdout)
			break
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))

		if strings.HasPrefix(strings.TrimSpace(code), ":") {
			if s.command(code, a.stdout) {
				return exitOK
			}
			continue
		}

		v, err := s.eval(code)
		if err != nil {
			fmt.Fprintln(a.stderr, red(err.Error()))
			continue
		}
		fmt.Fprintln(a.stdout, blue(v.String()))
	}
	return exitOK
}

// read collects lines until they form a complete program. It returns false
// at end of input.
func (s *session) read(ln *liner.State, prompt string) (string, bool) {
	var b strings.Builder
	for {
		p := prompt
		if b.Len() > 0 {
			p = promptCont
		}
		line, err := ln.Prompt(p)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || strings.TrimSpace(src) == "" {
			return src, true
		}
		if s.incomplete(src) {
			continue
		}
		return src, true
	}
}

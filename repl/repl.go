// Copyright © 2024 The ELPS authors

// Package repl is an interactive checker: each statement typed is checked
// in the context of the ones before it, and findings are shown right away.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"

	"github.com/luthersystems/pycheck/diagnostic"
	"github.com/luthersystems/pycheck/lint"
)

const (
	Prompt     = ">>> "
	contPrompt = "... "
)

type config struct {
	stdin   io.ReadCloser
	stderr  io.Writer
	linter  *lint.Linter
	color   diagnostic.ColorMode
	history string
}

func newConfig(opts ...Option) *config {
	c := &config{
		stderr:  os.Stderr,
		history: historyPath(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Option func(*config)

// WithStdin overrides the input to the REPL.
func WithStdin(stdin io.ReadCloser) Option {
	return func(c *config) {
		c.stdin = stdin
	}
}

// WithStderr overrides the output of the REPL.
func WithStderr(stderr io.Writer) Option {
	return func(c *config) {
		c.stderr = stderr
	}
}

// WithLinter sets the linter snippets are checked with.
func WithLinter(l *lint.Linter) Option {
	return func(c *config) {
		c.linter = l
	}
}

// WithColor sets the color mode for rendered findings.
func WithColor(mode diagnostic.ColorMode) Option {
	return func(c *config) {
		c.color = mode
	}
}

// WithHistoryFile sets the readline history file. An empty path disables
// history.
func WithHistoryFile(path string) Option {
	return func(c *config) {
		c.history = path
	}
}

// Run reads statements until EOF or :quit. Simple statements are checked
// when entered; compound statements are checked once closed by a blank
// line.
func Run(ctx context.Context, opts ...Option) error {
	cfg := newConfig(opts...)
	session := NewSession(cfg.linter)

	if cfg.history != "" {
		ensureHistoryFilePermissions(cfg.history)
	}
	rlCfg := &readline.Config{
		Stdout:            cfg.stderr,
		Stderr:            cfg.stderr,
		Prompt:            Prompt,
		HistoryFile:       cfg.history,
		HistorySearchFold: true,
		AutoComplete:      &nameCompleter{session: session},
	}
	if cfg.stdin != nil {
		rlCfg.Stdin = cfg.stdin
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return fmt.Errorf("starting readline: %w", err)
	}
	defer rl.Close() //nolint:errcheck // best-effort cleanup

	out := cfg.stderr
	fmt.Fprintln(out, "pycheck interactive checker. Type :help for commands.") //nolint:errcheck // best-effort REPL output

	var pending []string
	submit := func() error {
		snippet := strings.Join(pending, "\n")
		pending = nil
		res, err := session.Submit(ctx, snippet)
		if err != nil {
			return err
		}
		renderResult(out, res, snippet, cfg.color)
		return nil
	}

	for {
		if len(pending) == 0 {
			rl.SetPrompt(Prompt)
		} else {
			rl.SetPrompt(contPrompt)
		}
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			pending = nil
			continue
		}
		if errors.Is(err, io.EOF) {
			if len(pending) > 0 {
				return submit()
			}
			return nil
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		if len(pending) == 0 && strings.HasPrefix(trimmed, ":") {
			if quit := runCommand(out, session, trimmed); quit {
				return nil
			}
			continue
		}
		if trimmed == "" {
			if len(pending) > 0 {
				if err := submit(); err != nil {
					fmt.Fprintln(out, "error:", err) //nolint:errcheck // best-effort REPL output
				}
			}
			continue
		}
		pending = append(pending, line)
		if !needsMore(pending) {
			if err := submit(); err != nil {
				fmt.Fprintln(out, "error:", err) //nolint:errcheck // best-effort REPL output
			}
		}
	}
}

const helpText = `Commands:
  :help        Show this help
  :source      Print the statements accepted so far
  :complexity  Estimate the complexity of the accepted statements
  :checks      List the checks that run
  :reset       Forget every statement
  :quit        Exit (also Ctrl-D)
`

// runCommand executes a ":" command and reports whether the REPL should
// exit.
func runCommand(w io.Writer, session *Session, cmd string) bool {
	switch strings.Fields(cmd)[0] {
	case ":quit", ":exit", ":q":
		return true
	case ":help", ":h":
		fmt.Fprint(w, helpText) //nolint:errcheck // best-effort REPL output
	case ":reset":
		session.Reset()
		fmt.Fprintln(w, "session cleared") //nolint:errcheck // best-effort REPL output
	case ":source":
		fmt.Fprint(w, session.Source()) //nolint:errcheck // best-effort REPL output
	case ":complexity":
		p := session.Complexity()
		if p == nil {
			fmt.Fprintln(w, "nothing to estimate yet") //nolint:errcheck // best-effort REPL output
			break
		}
		fmt.Fprintf(w, "class: %s\ntime: %s\nspace: %s\nmax loop depth: %d\n", //nolint:errcheck // best-effort REPL output
			p.Class, p.Time, p.Space, p.MaxLoopDepth)
		if len(p.RecursiveFuncs) > 0 {
			fmt.Fprintf(w, "recursive: %s\n", strings.Join(p.RecursiveFuncs, ", ")) //nolint:errcheck // best-effort REPL output
		}
	case ":checks":
		fmt.Fprint(w, lint.AnalyzerDoc()) //nolint:errcheck // best-effort REPL output
	default:
		fmt.Fprintf(w, "unknown command %s (try :help)\n", cmd) //nolint:errcheck // best-effort REPL output
	}
	return false
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pycheck_history")
}

// ensureHistoryFilePermissions creates the history file readable only by
// its owner, or restricts an existing one. Errors are ignored; readline
// copes with a missing file.
func ensureHistoryFilePermissions(path string) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o600) //nolint:gosec // path is the user's own history file
	if err != nil {
		return
	}
	_ = f.Close()
	_ = os.Chmod(path, 0o600)
}

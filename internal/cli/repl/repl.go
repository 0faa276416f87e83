package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Executor runs one parsed command line.
type Executor func(ctx context.Context, args []string) error

// REPL is the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    func() string
	execute   Executor
	completer *Completer
	history   *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO sets the input and output streams. A *bufio.Reader input is
// used directly so commands can share it for their own prompts.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithPrompt sets a function called before each line to render the prompt.
func WithPrompt(prompt func() string) Option {
	return func(r *REPL) { r.prompt = prompt }
}

// WithCompleter sets the completer used by the "complete" builtin.
func WithCompleter(c *Completer) Option {
	return func(r *REPL) { r.completer = c }
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(r *REPL) { r.history = h }
}

// New creates a REPL that passes lines to execute.
func New(execute Executor, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		prompt:    func() string { return "gcportal> " },
		execute:   execute,
		completer: NewCompleter(nil),
		history:   NewHistory(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads lines until exit, EOF or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	if err := r.history.Load(); err != nil {
		fmt.Fprintf(r.output, "warning: could not load history: %v\n", err)
	}
	defer func() {
		if err := r.history.Save(); err != nil {
			fmt.Fprintf(r.output, "warning: could not save history: %v\n", err)
		}
	}()

	reader, ok := r.input.(*bufio.Reader)
	if !ok {
		reader = bufio.NewReader(r.input)
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(r.output, r.prompt())

		raw, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && raw != "") {
			fmt.Fprintln(r.output)
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		r.history.Add(line)

		args, err := SplitArgs(line)
		if err != nil {
			fmt.Fprintf(r.output, "error: %v\n", err)
			continue
		}

		switch args[0] {
		case "exit", "quit":
			return nil
		case "history":
			for i, entry := range r.history.Entries() {
				fmt.Fprintf(r.output, "%4d  %s\n", i+1, entry)
			}
			continue
		case "complete":
			prefix := strings.TrimSpace(strings.TrimPrefix(line, "complete"))
			for _, s := range r.completer.Complete(prefix) {
				fmt.Fprintln(r.output, s)
			}
			continue
		}

		if err := r.execute(ctx, args); err != nil {
			fmt.Fprintf(r.output, "error: %v\n", err)
		}
	}
}

// ErrUnterminatedQuote is returned by SplitArgs for an unclosed quote.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// SplitArgs splits a line on whitespace, honouring single and double
// quotes and backslash escapes outside single quotes.
func SplitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inArg   bool
		quote   rune
		escaped bool
	)

	for _, c := range line {
		switch {
		case escaped:
			cur.WriteRune(c)
			escaped = false
		case c == '\\' && quote != '\'':
			escaped = true
			inArg = true
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteRune(c)
			}
		case c == '"' || c == '\'':
			quote = c
			inArg = true
		case c == ' ' || c == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(c)
			inArg = true
		}
	}

	if quote != 0 || escaped {
		return nil, ErrUnterminatedQuote
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}

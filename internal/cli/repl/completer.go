package repl

import (
	"sort"
	"strings"
)

var builtins = []string{"complete", "exit", "history", "quit"}

// Completer suggests command paths such as "realm list".
type Completer struct {
	commands []string
}

// NewCompleter creates a completer over commands plus the shell builtins.
func NewCompleter(commands []string) *Completer {
	seen := make(map[string]bool)
	all := make([]string, 0, len(commands)+len(builtins))
	for _, c := range append(append([]string{}, commands...), builtins...) {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		all = append(all, c)
	}
	sort.Strings(all)
	return &Completer{commands: all}
}

// Complete returns every command path starting with prefix, sorted.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.Join(strings.Fields(prefix), " ")
	var out []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			out = append(out, cmd)
		}
	}
	return out
}

// Package repl implements the interactive shell of gcportal-cli.
//
// Each line is split into arguments and handed to an Executor, normally
// the urfave/cli application, so every command works the same way in
// the shell as on the command line. One Portal is shared across lines,
// so state listeners see the whole session.
package repl

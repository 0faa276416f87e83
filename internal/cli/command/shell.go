package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/gophercraft/gcportal-go/internal/cli/config"
	"github.com/gophercraft/gcportal-go/internal/cli/repl"
	"github.com/gophercraft/gcportal-go/internal/core/domain"
	"github.com/gophercraft/gcportal-go/internal/infra/buildinfo"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Start an interactive shell sharing one session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "history",
				Usage: "history file (empty keeps history in memory; default ~/.gcportal/history)",
			},
		},
		Action: shellAction,
	}
}

func shellAction(c *cli.Context) error {
	env, err := getEnv(c)
	if err != nil {
		return err
	}

	historyFile := config.HistoryPath()
	if c.IsSet("history") {
		historyFile = c.String("history")
	}

	// Pick up a stored login so the prompt is accurate from the start.
	ctx, cancel := env.CommandContext(c)
	if _, err := env.Portal.CheckCredential(ctx); err != nil {
		env.Logger.Debug("credential check failed", "error", err)
	}
	cancel()

	fmt.Fprintf(env.Out, "%s %s. Type 'help' for commands, 'exit' to quit.\n", buildinfo.Product, buildinfo.Version)

	r := repl.New(shellExecutor(env),
		repl.WithIO(env.In, env.Out),
		repl.WithPrompt(func() string { return shellPrompt(env) }),
		repl.WithCompleter(repl.NewCompleter(commandPaths(commands()))),
		repl.WithHistory(repl.NewHistory(historyFile)),
	)
	return r.Run(c.Context)
}

// shellExecutor runs each line as a fresh app invocation over the shared
// Env, so the credential store stays open and session state carries over.
func shellExecutor(env *Env) repl.Executor {
	return func(ctx context.Context, args []string) error {
		if args[0] == "shell" {
			return errors.New("already in a shell")
		}
		app := newApp(env)
		app.Reader = env.In
		app.Writer = env.Out
		app.ErrWriter = env.Err
		app.ExitErrHandler = func(*cli.Context, error) {}
		return app.RunContext(ctx, append([]string{buildinfo.Product}, args...))
	}
}

func shellPrompt(env *Env) string {
	name := "disconnected"
	if current := env.Conns.Current(); current != nil {
		name = current.Name
	}
	marker := ">"
	if env.Portal.State() == domain.StateAuthenticated {
		marker = "#"
	}
	return fmt.Sprintf("gcportal(%s)%s ", name, marker)
}

// commandPaths lists every command as a space separated path, e.g.
// "account game new".
func commandPaths(cmds []*cli.Command) []string {
	var paths []string
	var walk func(prefix string, cmds []*cli.Command)
	walk = func(prefix string, cmds []*cli.Command) {
		for _, cmd := range cmds {
			path := cmd.Name
			if prefix != "" {
				path = prefix + " " + cmd.Name
			}
			paths = append(paths, path)
			walk(path, cmd.Subcommands)
		}
	}
	walk("", cmds)
	return append(paths, "help")
}

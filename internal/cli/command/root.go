package command

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/gophercraft/gcportal-go/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	return newApp(nil)
}

// newApp builds the application. A non-nil shared Env is reused instead
// of opening a new one, which is how shell lines share one session.
func newApp(shared *Env) *cli.App {
	app := &cli.App{
		Name:                 buildinfo.Product,
		Usage:                "Game server account portal client",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		Commands:             commands(),
		EnableBashCompletion: true,
		Metadata:             map[string]any{},
		Reader:               os.Stdin,
		Writer:               os.Stdout,
		ErrWriter:            os.Stderr,
	}

	owned := false
	app.Before = func(c *cli.Context) error {
		if shared != nil {
			c.App.Metadata[envKey] = shared
			return nil
		}
		if !needsEnv(c) {
			return nil
		}
		env, err := newEnv(c)
		if err != nil {
			return err
		}
		owned = true
		c.App.Metadata[envKey] = env
		return nil
	}
	app.After = func(c *cli.Context) error {
		if !owned {
			return nil
		}
		env, err := getEnv(c)
		if err != nil {
			return nil
		}
		return env.Close()
	}

	return app
}

func commands() []*cli.Command {
	return []*cli.Command{
		VersionCommand(),
		StatusCommand(),
		RegisterCommand(),
		LoginCommand(),
		LogoutCommand(),
		AccountCommand(),
		RealmCommand(),
		ServicesCommand(),
		GuideCommand(),
		CaptchaCommand(),
		TwoFactorCommand(),
		ConfigCommand(),
		ConnectCommand(),
		ShellCommand(),
	}
}

// needsEnv reports whether the invoked command talks to the store or the
// server. Help and the local config commands do not.
func needsEnv(c *cli.Context) bool {
	args := c.Args().Slice()
	if len(args) == 0 {
		return false
	}
	switch args[0] {
	case "help", "h", "config":
		return false
	}
	return true
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "portal server address (e.g. https://portal.example.org)",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "config file (default ~/.gcportal/cli.yaml)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "show more columns",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "log requests to stderr",
		},
		&cli.StringFlag{
			Name:  "store",
			Usage: "credential store: badger, redis, memory",
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "extra PEM certificates to trust",
		},
	}
}

// GlobalFlags holds the parsed global flags.
type GlobalFlags struct {
	Server     string
	ConfigPath string
	Output     string
	Wide       bool
	Verbose    bool
	Store      string
	CAFile     string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Server:     c.String("server"),
		ConfigPath: c.String("config"),
		Output:     c.String("output"),
		Wide:       c.Bool("wide"),
		Verbose:    c.Bool("verbose"),
		Store:      c.String("store"),
		CAFile:     c.String("ca-file"),
	}
}

// PrintError prints an error message to w.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
}

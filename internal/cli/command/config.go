package command

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/gophercraft/gcportal-go/internal/cli/config"
)

// ConfigCommand returns the config subcommand group. These commands work
// without a server or credential store.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "CLI configuration",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective configuration",
				Action: configShow,
			},
			{
				Name:   "path",
				Usage:  "Print the configuration file path",
				Action: configPath,
			},
			{
				Name:  "init",
				Usage: "Write a configuration file with default settings",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "overwrite an existing file"},
				},
				Action: configInit,
			},
		},
	}
}

func configFilePath(c *cli.Context) string {
	if path := c.String("config"); path != "" {
		return path
	}
	return config.DefaultConfigPath()
}

func configShow(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"), flagOverrides(c))
	if err != nil {
		return err
	}
	if cfg.Store.Redis.Password != "" {
		cfg.Store.Redis.Password = "******"
	}

	enc := yaml.NewEncoder(c.App.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func configPath(c *cli.Context) error {
	path := configFilePath(c)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(c.App.Writer, "%s (not created, defaults in use)\n", path)
		return nil
	}
	fmt.Fprintln(c.App.Writer, path)
	return nil
}

func configInit(c *cli.Context) error {
	path := configFilePath(c)
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(config.Default(), path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}

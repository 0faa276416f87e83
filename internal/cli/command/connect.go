package command

import (
	"errors"
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/gophercraft/gcportal-go/internal/cli/config"
	"github.com/gophercraft/gcportal-go/internal/cli/connection"
	"github.com/gophercraft/gcportal-go/internal/cli/output"
)

// ConnectCommand returns the connect command.
func ConnectCommand() *cli.Command {
	return &cli.Command{
		Name:      "connect",
		Usage:     "Switch to another portal server",
		ArgsUsage: "[SERVER|NAME]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "save",
				Aliases: []string{"n"},
				Usage:   "save the server under this name and make it the default",
			},
			&cli.BoolFlag{
				Name:    "list",
				Aliases: []string{"l"},
				Usage:   "list saved connections",
			},
		},
		Action: connectAction,
	}
}

type connectionsView struct {
	Current     string                             `json:"current,omitempty"`
	Connections map[string]config.ConnectionConfig `json:"connections"`
}

func (v connectionsView) Table(wide bool) *output.Table {
	headers := []string{"", "NAME", "SERVER"}
	if wide {
		headers = append(headers, "CA FILE")
	}
	t := output.NewTable(headers...)

	names := make([]string, 0, len(v.Connections))
	for name := range v.Connections {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		marker := ""
		if name == v.Current {
			marker = "*"
		}
		conn := v.Connections[name]
		row := []string{marker, name, conn.Server}
		if wide {
			row = append(row, conn.CAFile)
		}
		t.AddRow(row...)
	}
	return t
}

func connectAction(c *cli.Context) error {
	env, err := getEnv(c)
	if err != nil {
		return err
	}

	if c.Bool("list") {
		if len(env.Config.Connections) == 0 {
			fmt.Fprintln(env.Err, "No saved connections")
			return nil
		}
		return env.Print(c, connectionsView{
			Current:     env.Config.CurrentConnection,
			Connections: env.Config.Connections,
		})
	}

	target := c.Args().First()
	if target == "" {
		current := env.Conns.Current()
		if current == nil {
			return errors.New("not connected")
		}
		env.Printf("Connected to %s (%s)\n", current.Server, current.Name)
		return nil
	}

	conn := &connection.Connection{Server: target, CAFile: env.Config.Transport.CAFile}
	if saved, ok := env.Config.Connections[target]; ok {
		conn = &connection.Connection{Name: target, Server: saved.Server, CAFile: saved.CAFile}
	}
	if name := c.String("save"); name != "" {
		conn.Name = name
	}

	if err := env.Connect(conn); err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}
	current := env.Conns.Current()

	if name := c.String("save"); name != "" {
		if err := saveConnection(env, name, current); err != nil {
			return err
		}
	}

	env.Printf("Connected to %s\n", current.Server)
	return nil
}

// saveConnection records conn in the config file as the default server.
func saveConnection(env *Env, name string, conn *connection.Connection) error {
	cfg, err := config.Load(env.ConfigPath, nil)
	if err != nil {
		return err
	}
	if cfg.Connections == nil {
		cfg.Connections = make(map[string]config.ConnectionConfig)
	}
	cfg.Connections[name] = config.ConnectionConfig{Server: conn.Server, CAFile: conn.CAFile}
	cfg.CurrentConnection = name
	if err := config.Save(cfg, env.ConfigPath); err != nil {
		return fmt.Errorf("save connection: %w", err)
	}

	env.Config.Connections = cfg.Connections
	env.Config.CurrentConnection = name
	return nil
}

package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/gophercraft/gcportal-go/internal/cli/config"
	"github.com/gophercraft/gcportal-go/internal/cli/output"
	"github.com/gophercraft/gcportal-go/internal/core/domain"
	"github.com/gophercraft/gcportal-go/internal/core/guide"
	"github.com/gophercraft/gcportal-go/internal/core/poller"
	"github.com/gophercraft/gcportal-go/internal/infra/confloader"
	"github.com/gophercraft/gcportal-go/internal/infra/shutdown"
	"github.com/gophercraft/gcportal-go/internal/telemetry/logger"
)

const watchShutdownTimeout = 5 * time.Second

// RealmCommand returns the realm subcommand group.
func RealmCommand() *cli.Command {
	return &cli.Command{
		Name:   "realm",
		Usage:  "Show realm status",
		Action: realmList,
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List realms",
				Action:  realmList,
			},
			{
				Name:  "watch",
				Usage: "Refresh the realm list until interrupted",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "interval",
						Usage: "refresh interval (default from poll.interval)",
					},
					&cli.IntFlag{
						Name:  "count",
						Usage: "stop after this many refreshes (0 = until interrupted)",
					},
					&cli.StringFlag{
						Name:  "metrics-addr",
						Usage: "serve prometheus metrics on this address (e.g. 127.0.0.1:9464)",
					},
				},
				Action: realmWatch,
			},
		},
	}
}

// realmsView renders the realm list.
type realmsView struct {
	*domain.RealmStatusList
}

func (v realmsView) Table(wide bool) *output.Table {
	headers := []string{"REALM", "ONLINE", "BUILD", "EXPANSION"}
	if wide {
		headers = append(headers, "DESCRIPTION")
	}
	t := output.NewTable(headers...)
	for _, r := range v.Realms {
		row := []string{r.Label(), output.YesNo(r.Online), r.Build, strconv.Itoa(r.Expansion)}
		if wide {
			row = append(row, r.Description)
		}
		t.AddRow(row...)
	}
	return t
}

func realmList(c *cli.Context) error {
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := env.CommandContext(c)
	defer cancel()

	list, err := env.Portal.RealmStatusList(ctx)
	if err != nil {
		return err
	}
	return env.Print(c, realmsView{list})
}

func realmWatch(c *cli.Context) error {
	env, err := getEnv(c)
	if err != nil {
		return err
	}

	interval := env.Config.Poll.Interval
	if c.IsSet("interval") {
		interval = c.Duration("interval")
	}
	limit := c.Int("count")

	handler := shutdown.NewHandler(watchShutdownTimeout)
	ctx, stop := handler.Notify(logger.WithCommand(logger.WithLogger(c.Context, env.Logger), commandName(c)))
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var polls atomic.Int64
	p := poller.New("realm-status", func(ctx context.Context) error {
		defer func() {
			if n := polls.Add(1); limit > 0 && n >= int64(limit) {
				cancel()
			}
		}()
		list, err := env.Portal.RealmStatusList(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "# %s\n", time.Now().Format(time.TimeOnly))
		return env.Print(c, realmsView{list})
	},
		poller.WithInterval(interval),
		poller.WithImmediate(),
		poller.WithLogger(env.Logger),
		poller.WithMetrics(env.Metrics),
	)
	handler.OnShutdown(func(context.Context) error {
		p.Stop()
		return nil
	})

	if addr := c.String("metrics-addr"); addr != "" {
		serveMetrics(env, handler, addr)
	}
	watchLogLevel(env, handler)

	p.Start(ctx)
	return handler.Wait(ctx)
}

// serveMetrics exposes the client's collectors until shutdown.
func serveMetrics(env *Env, handler *shutdown.Handler, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", env.Metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			env.Logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	env.Logger.Info("serving metrics", "addr", addr)
	handler.OnShutdown(srv.Shutdown)
}

// watchLogLevel applies log.level edits to the config file while watching.
func watchLogLevel(env *Env, handler *shutdown.Handler) {
	if _, err := os.Stat(env.ConfigPath); err != nil {
		return
	}
	w, err := confloader.NewWatcher(env.ConfigPath, confloader.WithWatcherLogger(env.Logger.Slog()))
	if err != nil {
		env.Logger.Warn("config watch disabled", "path", env.ConfigPath, "error", err)
		return
	}
	w.OnChange(func(path string) {
		cfg, err := config.Load(path, nil)
		if err != nil {
			env.Logger.Warn("config reload failed", "path", path, "error", err)
			return
		}
		if err := logger.SetLevel(cfg.Log.Level); err != nil {
			env.Logger.Warn("config reload failed", "path", path, "error", err)
			return
		}
		env.Logger.Info("log level reloaded", "level", logger.GetLevel())
	})
	w.StartAsync()
	handler.OnShutdown(func(context.Context) error {
		return w.Stop()
	})
}

// ServicesCommand returns the services command.
func ServicesCommand() *cli.Command {
	return &cli.Command{
		Name:   "services",
		Usage:  "Show the server's service addresses",
		Action: servicesAction,
	}
}

func servicesAction(c *cli.Context) error {
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := env.CommandContext(c)
	defer cancel()

	addrs, err := env.Portal.ServiceAddresses(ctx)
	if err != nil {
		return err
	}
	if addrs.Addresses == nil {
		addrs.Addresses = map[string]string{}
	}
	return env.Print(c, addrs.Addresses)
}

// GuideCommand returns the connection guide command.
func GuideCommand() *cli.Command {
	return &cli.Command{
		Name:      "guide",
		Usage:     "Show how to point a game client at this server",
		ArgsUsage: "BUILD (e.g. 3.3.5.12340)",
		Action:    guideAction,
	}
}

type guideView struct {
	Title    string `json:"title" yaml:"title"`
	HelpText string `json:"help_text" yaml:"help_text"`
	Config   string `json:"config" yaml:"config"`
}

func guideAction(c *cli.Context) error {
	build := c.Args().First()
	if build == "" {
		return errors.New("client build required (e.g. 1.12.1.5875)")
	}
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := env.CommandContext(c)
	defer cancel()

	addrs, err := env.Portal.ServiceAddresses(ctx)
	if err != nil {
		return err
	}
	g, err := guide.Generate(build, addrs.Addresses)
	if err != nil {
		return err
	}

	if env.outputFormat(c) != output.FormatTable {
		return env.Print(c, guideView{Title: g.Title(), HelpText: g.HelpText, Config: g.Config})
	}
	env.Printf("%s\n\n%s\n\n    %s", g.Title(), g.HelpText, g.Config)
	return nil
}

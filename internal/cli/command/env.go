package command

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/gophercraft/gcportal-go/internal/cli/config"
	"github.com/gophercraft/gcportal-go/internal/cli/connection"
	"github.com/gophercraft/gcportal-go/internal/cli/output"
	"github.com/gophercraft/gcportal-go/internal/core/domain"
	"github.com/gophercraft/gcportal-go/internal/core/service"
	"github.com/gophercraft/gcportal-go/internal/core/validate"
	"github.com/gophercraft/gcportal-go/internal/infra/buildinfo"
	"github.com/gophercraft/gcportal-go/internal/storage"
	"github.com/gophercraft/gcportal-go/internal/telemetry/logger"
	"github.com/gophercraft/gcportal-go/internal/telemetry/metric"
)

const envKey = "env"

// Env is everything a command needs: configuration, the credential store
// and the session client for the selected server.
type Env struct {
	Config     *config.CLIConfig
	ConfigPath string
	Logger     logger.Logger
	Metrics    *metric.Registry
	Store      storage.CredentialStore
	Conns      *connection.Manager
	Transport  *connection.HTTPClient
	Portal     *service.Portal
	Validator  *validate.Validator

	In  *bufio.Reader
	Out io.Writer
	Err io.Writer

	stateSub *service.Subscription
}

// flagOverrides maps explicitly set global flags onto config keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)
	if c.IsSet("server") {
		overrides["server"] = c.String("server")
	}
	if c.IsSet("output") {
		overrides["output"] = c.String("output")
	}
	if c.IsSet("store") {
		overrides["store.backend"] = c.String("store")
	}
	if c.IsSet("ca-file") {
		overrides["transport.cafile"] = c.String("ca-file")
	}
	if c.Bool("verbose") {
		overrides["log.level"] = "debug"
	}
	return overrides
}

// newEnv loads configuration and opens the credential store.
func newEnv(c *cli.Context) (*Env, error) {
	path := c.String("config")
	cfg, err := config.Load(path, flagOverrides(c))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if path == "" {
		path = config.DefaultConfigPath()
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	store, err := storage.Open(cfg.StorageConfig(), log.Slog())
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	env := &Env{
		Config:     cfg,
		ConfigPath: path,
		Logger:     log,
		Metrics:    metric.NewRegistry(),
		Store:      store,
		Conns:      connection.NewManager(),
		Validator:  validate.New(),
		In:         bufio.NewReader(c.App.Reader),
		Out:        c.App.Writer,
		Err:        c.App.ErrWriter,
	}
	if bs, ok := store.(*storage.BadgerStore); ok {
		bs.RegisterMetrics(env.Metrics.Registerer())
	}

	if err := env.Connect(initialConnection(c, cfg)); err != nil {
		store.Close()
		return nil, err
	}
	return env, nil
}

// initialConnection picks the saved default connection unless --server
// was given.
func initialConnection(c *cli.Context, cfg *config.CLIConfig) *connection.Connection {
	if !c.IsSet("server") && cfg.CurrentConnection != "" {
		if saved, ok := cfg.Connections[cfg.CurrentConnection]; ok {
			return &connection.Connection{
				Name:   cfg.CurrentConnection,
				Server: saved.Server,
				CAFile: saved.CAFile,
			}
		}
	}
	return &connection.Connection{Server: cfg.Server, CAFile: cfg.Transport.CAFile}
}

// Connect points the session client at a new server. The session state
// starts over as unauthenticated.
func (e *Env) Connect(conn *connection.Connection) error {
	if err := e.Conns.Connect(conn); err != nil {
		return err
	}
	current := e.Conns.Current()

	hc, err := e.httpClient(current)
	if err != nil {
		return err
	}

	opts := []connection.Option{
		connection.WithCredentialLoader(service.TokenLoader(e.Store, e.Logger)),
		connection.WithHTTPClient(hc),
		connection.WithLogger(e.Logger),
		connection.WithMetrics(e.Metrics),
		connection.WithTimeout(e.Config.Transport.Timeout),
		connection.WithUserAgent(buildinfo.UserAgent()),
	}
	if r := e.Config.Transport.RateLimit; r > 0 {
		opts = append(opts, connection.WithRateLimiter(rate.NewLimiter(rate.Limit(r), 1)))
	}

	if e.stateSub != nil {
		e.stateSub.Unsubscribe()
	}
	e.Transport = connection.NewHTTPClient(current.Server, opts...)
	e.Portal = service.NewPortal(e.Transport, e.Store,
		service.WithLogger(e.Logger),
		service.WithMetrics(e.Metrics),
	)
	e.stateSub = e.Portal.OnStateChange(func(s domain.State) {
		e.Logger.Debug("session state changed", "state", s.String(), "server", current.Server)
	})
	return nil
}

func (e *Env) httpClient(conn *connection.Connection) (*http.Client, error) {
	timeout := e.Config.Transport.Timeout
	if conn.CAFile != "" || strings.HasPrefix(conn.Server, "https://") {
		return connection.NewTLSHTTPClient(conn.CAFile, timeout)
	}
	return &http.Client{Timeout: timeout}, nil
}

// Close releases the credential store.
func (e *Env) Close() error {
	if e.stateSub != nil {
		e.stateSub.Unsubscribe()
	}
	return e.Store.Close()
}

// outputFormat returns the --output format, falling back to the config.
func (e *Env) outputFormat(c *cli.Context) output.Format {
	name := e.Config.Output
	if c.IsSet("output") {
		name = c.String("output")
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return output.FormatTable
	}
	return format
}

// Formatter returns the formatter selected by --output and --wide.
func (e *Env) Formatter(c *cli.Context) output.Formatter {
	return output.NewFormatter(e.outputFormat(c), c.Bool("wide"))
}

// Print formats data to stdout.
func (e *Env) Print(c *cli.Context, data any) error {
	return e.Formatter(c).Format(e.Out, data)
}

// Printf writes a message line to stdout.
func (e *Env) Printf(format string, args ...any) {
	fmt.Fprintf(e.Out, format, args...)
}

// Prompt asks for a line of input. An empty answer is allowed.
func (e *Env) Prompt(label string) (string, error) {
	fmt.Fprint(e.Err, label)
	line, err := e.In.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		if line == "" {
			return "", fmt.Errorf("no input for %q", strings.TrimSuffix(label, ": "))
		}
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// valueOrPrompt returns the flag value or prompts for it when unset.
func (e *Env) valueOrPrompt(c *cli.Context, flag, label string) (string, error) {
	if c.IsSet(flag) {
		return c.String(flag), nil
	}
	return e.Prompt(label)
}

// CommandContext tags the command's requests with the command logger.
// It carries no deadline: the transport bounds each request separately,
// so time spent at a prompt never eats into a request's timeout.
func (e *Env) CommandContext(c *cli.Context) (context.Context, context.CancelFunc) {
	ctx := logger.WithCommand(logger.WithLogger(c.Context, e.Logger), commandName(c))
	return context.WithCancel(ctx)
}

// commandName returns the full name of the running command.
func commandName(c *cli.Context) string {
	if c.Command == nil {
		return ""
	}
	return c.Command.FullName()
}

// getEnv returns the Env prepared by the app's Before hook.
func getEnv(c *cli.Context) (*Env, error) {
	if env, ok := c.App.Metadata[envKey].(*Env); ok && env != nil {
		return env, nil
	}
	return nil, errors.New("command environment not initialized")
}

// writeFile writes data to path, refusing to clobber unless force is set.
func writeFile(path string, data []byte, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/gophercraft/gcportal-go/internal/cli/output"
	"github.com/gophercraft/gcportal-go/internal/core/domain"
	"github.com/gophercraft/gcportal-go/pkg/unixtime"
)

// DeleteConfirmation must be typed to delete a game account.
const DeleteConfirmation = "DELETE MY GAME ACCOUNT"

// ErrNotLoggedIn is returned by commands that need an authenticated session.
var ErrNotLoggedIn = errors.New("not logged in")

// AccountCommand returns the account subcommand group.
func AccountCommand() *cli.Command {
	return &cli.Command{
		Name:    "account",
		Aliases: []string{"acct"},
		Usage:   "Show the account and manage game accounts",
		Action:  accountShow,
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show account details and game accounts",
				Action: accountShow,
			},
			{
				Name:  "game",
				Usage: "Manage game accounts",
				Subcommands: []*cli.Command{
					{
						Name:      "new",
						Usage:     "Create a game account",
						ArgsUsage: "NAME",
						Action:    gameAccountNew,
					},
					{
						Name:      "activate",
						Usage:     "Make a game account the active one",
						ArgsUsage: "ID",
						Action:    gameAccountActivate,
					},
					{
						Name:      "rename",
						Usage:     "Rename a game account",
						ArgsUsage: "ID [NAME]",
						Action:    gameAccountRename,
					},
					{
						Name:      "delete",
						Usage:     "Delete a game account (cannot be undone)",
						ArgsUsage: "ID",
						Flags: []cli.Flag{
							&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip the confirmation prompt"},
						},
						Action: gameAccountDelete,
					},
				},
			},
		},
	}
}

// accountView renders an AccountStatus the way the account page does.
type accountView struct {
	*domain.AccountStatus
}

func (v accountView) Table(wide bool) *output.Table {
	a := v.AccountStatus

	email := a.Email
	if email == "" {
		email = "<no email address>"
	}
	tier := "<unknown>"
	if a.AccountTier != "" {
		tier = a.AccountTier.DisplayName()
	}
	created := "never"
	if a.CreationDate != "" {
		created = unixtime.Format(a.CreationDate)
	}

	t := output.NewTable("PROPERTY", "VALUE")
	t.AddRow("Account", a.Title())
	t.AddRow("Email address", email)
	t.AddRow("Authorization tier", tier)
	t.AddRow("Created on", created)
	for _, ga := range a.GameAccounts {
		label := ga.Label()
		if ga.Active {
			label += " (active)"
		}
		t.AddRow("Game account", label)
	}
	if wide && a.AccountTier != "" {
		t.AddRow("Tier code", string(a.AccountTier))
	}
	return t
}

// requireAuthenticated checks the credential first, like the account page.
func requireAuthenticated(ctx context.Context, env *Env) error {
	if _, err := env.Portal.CheckCredential(ctx); err != nil {
		return err
	}
	if env.Portal.State() != domain.StateAuthenticated {
		return ErrNotLoggedIn
	}
	return nil
}

func accountShow(c *cli.Context) error {
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := env.CommandContext(c)
	defer cancel()

	if err := requireAuthenticated(ctx, env); err != nil {
		return err
	}
	return printAccount(ctx, c, env)
}

// printAccount fetches the account again and prints it. Mutations call it
// so the display always reflects the server.
func printAccount(ctx context.Context, c *cli.Context, env *Env) error {
	status, err := env.Portal.CheckAccount(ctx)
	if err != nil {
		return err
	}
	return env.Print(c, accountView{status})
}

func gameAccountNew(c *cli.Context) error {
	name := c.Args().First()
	if name == "" {
		return errors.New("game account name required")
	}
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := env.CommandContext(c)
	defer cancel()

	resp, err := env.Portal.NewGameAccount(ctx, domain.NewGameAccountRequest{Name: name})
	if err != nil {
		return fmt.Errorf("failed to create game account: %w", err)
	}
	fmt.Fprintf(env.Err, "Created game account %s#%s\n", name, resp.ID)
	return printAccount(ctx, c, env)
}

func gameAccountActivate(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("game account id required")
	}
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := env.CommandContext(c)
	defer cancel()

	if _, err := env.Portal.ActivateGameAccount(ctx, id); err != nil {
		return fmt.Errorf("failed to activate game account: %w", err)
	}
	return printAccount(ctx, c, env)
}

func gameAccountRename(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("game account id required")
	}
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := env.CommandContext(c)
	defer cancel()

	name := c.Args().Get(1)
	if name == "" {
		if name, err = env.Prompt(fmt.Sprintf("Enter a new name for game account %s: ", id)); err != nil {
			return err
		}
	}
	if name == "" {
		return nil
	}

	if _, err := env.Portal.RenameGameAccount(ctx, id, domain.RenameGameAccountRequest{Name: name}); err != nil {
		return err
	}
	return printAccount(ctx, c, env)
}

func gameAccountDelete(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("game account id required")
	}
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := env.CommandContext(c)
	defer cancel()

	if !c.Bool("yes") {
		answer, err := env.Prompt(fmt.Sprintf("This action cannot be undone! Type '%s' to delete game account %s: ", DeleteConfirmation, id))
		if err != nil {
			return err
		}
		if answer != DeleteConfirmation {
			fmt.Fprintln(env.Err, "Aborted")
			return nil
		}
	}

	if _, err := env.Portal.DeleteGameAccount(ctx, id); err != nil {
		return fmt.Errorf("failed to delete game account: %w", err)
	}
	return printAccount(ctx, c, env)
}

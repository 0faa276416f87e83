package command

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/gophercraft/gcportal-go/internal/core/domain"
	"github.com/gophercraft/gcportal-go/internal/core/validate"
)

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Check the stored credential with the server",
		Action: statusAction,
	}
}

func statusAction(c *cli.Context) error {
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := env.CommandContext(c)
	defer cancel()

	status, err := env.Portal.CheckCredential(ctx)
	if err != nil {
		return err
	}

	view := map[string]string{
		"server": env.Transport.BaseURL(),
		"state":  env.Portal.State().String(),
		"status": status.Status,
	}
	if cred, ok, err := env.Portal.Credential(ctx); err == nil && ok {
		view["username"] = cred.Username
	}
	return env.Print(c, view)
}

// RegisterCommand returns the register command.
func RegisterCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create a new account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "email address (optional unless the server requires one)"},
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "account name"},
			&cli.StringFlag{Name: "password", Usage: "account password (prompted when omitted)"},
			&cli.StringFlag{Name: "captcha", Usage: "CAPTCHA solution (prompted when omitted)"},
			&cli.StringFlag{Name: "captcha-dir", Usage: "directory for the CAPTCHA image", Value: os.TempDir()},
		},
		Action: registerAction,
	}
}

func registerAction(c *cli.Context) error {
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := env.CommandContext(c)
	defer cancel()

	challenge, err := env.Portal.RegistrationChallenge(ctx)
	if err != nil {
		return fmt.Errorf("cannot register at this time: %w", err)
	}
	limits := validate.LimitsFrom(challenge)

	emailLabel := "Email address (optional): "
	if limits.EmailRequired {
		emailLabel = "Email address: "
	}
	req := domain.RegistrationRequest{CaptchaID: challenge.CaptchaID}
	if req.Email, err = env.valueOrPrompt(c, "email", emailLabel); err != nil {
		return err
	}
	if msg := env.Validator.Email(req.Email, limits); msg != "" {
		return domain.ValidationError(msg)
	}
	if req.Username, err = env.valueOrPrompt(c, "username", "Account name: "); err != nil {
		return err
	}
	if msg := env.Validator.AccountName(req.Username, limits); msg != "" {
		return domain.ValidationError(msg)
	}
	if req.Password, err = env.valueOrPrompt(c, "password", "Password: "); err != nil {
		return err
	}
	if err := env.Validator.Registration(req, limits); err != nil {
		return err
	}

	if req.CaptchaSolution, err = solveCaptcha(ctx, c, env, challenge.CaptchaID); err != nil {
		return err
	}

	if _, err := env.Portal.Register(ctx, req); err != nil {
		return err
	}
	env.Printf("Account %s registered. Log in with: %s login -u %s\n", req.Username, c.App.Name, req.Username)
	return nil
}

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in and store the credential",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "account name"},
			&cli.StringFlag{Name: "password", Usage: "account password (prompted when omitted)"},
			&cli.StringFlag{Name: "captcha", Usage: "CAPTCHA solution (prompted when omitted)"},
			&cli.StringFlag{Name: "captcha-dir", Usage: "directory for the CAPTCHA image", Value: os.TempDir()},
			&cli.IntFlag{Name: "attempts", Usage: "attempts before giving up; each gets a fresh challenge", Value: 1},
		},
		Action: loginAction,
	}
}

func loginAction(c *cli.Context) error {
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := env.CommandContext(c)
	defer cancel()

	username, err := env.valueOrPrompt(c, "username", "Account name: ")
	if err != nil {
		return err
	}

	attempts := c.Int("attempts")
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if lastErr != nil {
			fmt.Fprintf(env.Err, "login failed: %v\n", lastErr)
		}

		challenge, err := env.Portal.LoginChallenge(ctx)
		if err != nil {
			return fmt.Errorf("cannot log in at this time, error contacting API: %w", err)
		}

		req := domain.LoginRequest{Username: username, CaptchaID: challenge.CaptchaID}
		if req.Password, err = env.valueOrPrompt(c, "password", "Password: "); err != nil {
			return err
		}
		if err := env.Validator.Login(req); err != nil {
			return err
		}
		if req.CaptchaSolution, err = solveCaptcha(ctx, c, env, challenge.CaptchaID); err != nil {
			return err
		}

		if _, lastErr = env.Portal.Login(ctx, req); lastErr == nil {
			break
		}
		if !domain.IsKind(lastErr, domain.KindApplication) {
			return lastErr
		}
	}
	if lastErr != nil {
		return lastErr
	}

	if _, err := env.Portal.CheckCredential(ctx); err != nil {
		return err
	}
	env.Printf("Logged in as %s (%s)\n", username, env.Portal.State())
	if env.Portal.State() != domain.StateAuthenticated {
		env.Printf("A second factor is required: %s 2fa authenticate\n", c.App.Name)
	}
	return nil
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Log out and forget the stored credential",
		Action: logoutAction,
	}
}

func logoutAction(c *cli.Context) error {
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := env.CommandContext(c)
	defer cancel()

	if _, err := env.Portal.Logout(ctx); err != nil {
		return err
	}
	env.Printf("Logged out\n")
	return nil
}

// CaptchaCommand returns the captcha command.
func CaptchaCommand() *cli.Command {
	return &cli.Command{
		Name:      "captcha",
		Usage:     "Download a CAPTCHA image",
		ArgsUsage: "CAPTCHA_ID",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Aliases: []string{"O"}, Usage: "output file (default captcha-<id>.<ext>)"},
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "overwrite an existing file"},
		},
		Action: captchaAction,
	}
}

func captchaAction(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("captcha id required")
	}
	path := c.String("out")
	if path == "" && !usableInFileName(id) {
		return fmt.Errorf("captcha id %q cannot be used as a file name, pass --out", id)
	}
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := env.CommandContext(c)
	defer cancel()

	data, contentType, err := env.Portal.Captcha(ctx, id)
	if err != nil {
		return err
	}
	if path == "" {
		path = "captcha-" + id + imageExt(contentType)
	}
	if err := writeFile(path, data, c.Bool("force")); err != nil {
		return fmt.Errorf("save captcha: %w", err)
	}
	env.Printf("%s\n", path)
	return nil
}

// solveCaptcha returns the --captcha flag, or saves the challenge image
// and prompts for its solution. An empty id means no CAPTCHA is required.
func solveCaptcha(ctx context.Context, c *cli.Context, env *Env, id string) (string, error) {
	if c.IsSet("captcha") {
		return c.String("captcha"), nil
	}
	if id == "" {
		return "", nil
	}

	data, contentType, err := env.Portal.Captcha(ctx, id)
	if err != nil {
		return "", fmt.Errorf("fetch captcha: %w", err)
	}
	// The id is chosen by the server and never becomes part of the path.
	f, err := os.CreateTemp(c.String("captcha-dir"), "gcportal-captcha-*"+imageExt(contentType))
	if err != nil {
		return "", fmt.Errorf("save captcha: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	_, err = f.Write(data)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("save captcha: %w", err)
	}

	fmt.Fprintf(env.Err, "CAPTCHA saved to %s\n", path)
	return env.Prompt("Solve the captcha: ")
}

// usableInFileName reports whether id can name a file in the working
// directory without escaping it.
func usableInFileName(id string) bool {
	return !strings.ContainsAny(id, `/\`+"\x00") && filepath.IsLocal("captcha-"+id)
}

func imageExt(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ".img"
	}
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/svg+xml":
		return ".svg"
	}
	return ".img"
}

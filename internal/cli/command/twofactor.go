package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/gophercraft/gcportal-go/internal/cli/output"
	"github.com/gophercraft/gcportal-go/internal/core/domain"
	"github.com/gophercraft/gcportal-go/pkg/totp"
)

// TwoFactorCommand returns the 2fa subcommand group.
func TwoFactorCommand() *cli.Command {
	return &cli.Command{
		Name:  "2fa",
		Usage: "Two-factor authentication",
		Subcommands: []*cli.Command{
			{
				Name:   "methods",
				Usage:  "List the second factors available to this login",
				Action: twoFactorMethods,
			},
			{
				Name:  "authenticate",
				Usage: "Complete a login with a passcode",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "method", Aliases: []string{"m"}, Usage: "EMAIL or TOTP (default: first offered)"},
					&cli.StringFlag{Name: "passcode", Aliases: []string{"p"}, Usage: "passcode (prompted if omitted)"},
				},
				Action: twoFactorAuthenticate,
			},
			{
				Name:  "enroll",
				Usage: "Set up an authenticator app",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "qr-png", Usage: "also write the QR code as a PNG file"},
					&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "overwrite the PNG file"},
					&cli.StringFlag{Name: "passcode", Aliases: []string{"p"}, Usage: "first generated passcode (prompted if omitted)"},
				},
				Action: twoFactorEnroll,
			},
		},
	}
}

type methodsView []domain.TwoFactorMethod

func (v methodsView) Table(bool) *output.Table {
	t := output.NewTable("METHOD", "NAME")
	for _, m := range v {
		t.AddRow(string(m), m.DisplayName())
	}
	return t
}

func twoFactorMethods(c *cli.Context) error {
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := env.CommandContext(c)
	defer cancel()

	methods, err := env.Portal.TwoFactorAuthenticationMethods(ctx)
	if err != nil {
		return err
	}
	return env.Print(c, methodsView(methods.Known()))
}

// pickMethod returns the requested method, or the first one offered.
func pickMethod(known []domain.TwoFactorMethod, requested string) (domain.TwoFactorMethod, error) {
	if len(known) == 0 {
		return "", errors.New("no two-factor methods are available")
	}
	if requested == "" {
		return known[0], nil
	}
	want := domain.TwoFactorMethod(strings.ToUpper(requested))
	for _, m := range known {
		if m == want {
			return m, nil
		}
	}
	return "", fmt.Errorf("method %s is not offered for this login", want)
}

func twoFactorAuthenticate(c *cli.Context) error {
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := env.CommandContext(c)
	defer cancel()

	methods, err := env.Portal.TwoFactorAuthenticationMethods(ctx)
	if err != nil {
		return err
	}
	method, err := pickMethod(methods.Known(), c.String("method"))
	if err != nil {
		return err
	}

	passcode, err := env.valueOrPrompt(c, "passcode", method.Question()+": ")
	if err != nil {
		return err
	}
	passcode = strings.TrimSpace(passcode)
	if !domain.PasscodeReady(passcode) {
		return fmt.Errorf("passcode must be %d characters", domain.PasscodeLength)
	}

	resp, err := env.Portal.AuthenticateCredential(ctx, domain.AuthenticateCredentialRequest{
		AuthenticatorPassword:         passcode,
		TwoFactorAuthenticationMethod: method,
	})
	if err != nil {
		return err
	}
	if !resp.Authenticated {
		return errors.New("passcode was not accepted")
	}

	if _, err := env.Portal.CheckCredential(ctx); err != nil {
		return err
	}
	env.Printf("Authenticated with %s (%s)\n", method.DisplayName(), env.Portal.State())
	return nil
}

func twoFactorEnroll(c *cli.Context) error {
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := env.CommandContext(c)
	defer cancel()

	cred, ok, err := env.Portal.Credential(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotLoggedIn
	}
	info, err := env.Portal.VersionInfo(ctx)
	if err != nil {
		return fmt.Errorf("cannot read server brand: %w", err)
	}

	secret, err := totp.GenerateSecret()
	if err != nil {
		return err
	}
	uri := totp.URI(info.Brand, cred.Username, secret)

	qr, err := totp.QRText(uri)
	if err != nil {
		return err
	}
	env.Printf("Scan this code with your authenticator app:\n\n%s\n", qr)
	env.Printf("Or enter the secret manually: %s\n", secret)

	if path := c.String("qr-png"); path != "" {
		png, err := totp.QRCode(uri)
		if err != nil {
			return err
		}
		if err := writeFile(path, png, c.Bool("force")); err != nil {
			return fmt.Errorf("write QR code: %w", err)
		}
		env.Printf("QR code written to %s\n", path)
	}

	passcode, err := env.valueOrPrompt(c, "passcode", domain.MethodTOTP.Question()+": ")
	if err != nil {
		return err
	}
	passcode = strings.TrimSpace(passcode)
	if !domain.PasscodeReady(passcode) {
		return fmt.Errorf("passcode must be %d characters", domain.PasscodeLength)
	}

	resp, err := env.Portal.Enroll2FA(ctx, domain.EnrollTwoFactorAuthenticationRequest{
		TOTPSecret:   secret,
		TOTPPassword: passcode,
	})
	if err != nil {
		return err
	}
	if !resp.Enrolled {
		return errors.New("enrollment was not accepted")
	}
	env.Printf("Two-factor authentication enabled for %s\n", cred.Username)
	return nil
}

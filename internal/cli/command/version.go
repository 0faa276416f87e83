package command

import (
	"github.com/urfave/cli/v2"

	"github.com/gophercraft/gcportal-go/internal/cli/output"
	"github.com/gophercraft/gcportal-go/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show client and server version information",
		Action: versionAction,
	}
}

type versionView struct {
	Client buildinfo.Info `json:"client" yaml:"client"`
	Server serverVersion  `json:"server" yaml:"server"`
}

type serverVersion struct {
	Address     string `json:"address" yaml:"address"`
	Brand       string `json:"brand,omitempty" yaml:"brand,omitempty"`
	CoreVersion string `json:"core_version,omitempty" yaml:"core_version,omitempty"`
	ProjectURL  string `json:"project_url,omitempty" yaml:"project_url,omitempty"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

func (v versionView) Table(wide bool) *output.Table {
	t := output.NewTable("COMPONENT", "VERSION")
	t.AddRow("Client", v.Client.Version)
	if wide {
		t.AddRow("Commit", v.Client.Commit)
		t.AddRow("Built", v.Client.BuildTime)
		t.AddRow("Go", v.Client.GoVersion)
	}
	t.AddRow("Server", v.Server.Address)
	if v.Server.Error != "" {
		t.AddRow("Status", "unavailable: "+v.Server.Error)
		return t
	}
	t.AddRow("Brand", v.Server.Brand)
	t.AddRow("Core", v.Server.CoreVersion)
	t.AddRow("Project", v.Server.ProjectURL)
	return t
}

func versionAction(c *cli.Context) error {
	env, err := getEnv(c)
	if err != nil {
		return err
	}
	ctx, cancel := env.CommandContext(c)
	defer cancel()

	view := versionView{
		Client: buildinfo.Get(),
		Server: serverVersion{Address: env.Transport.BaseURL()},
	}
	info, err := env.Portal.VersionInfo(ctx)
	if err != nil {
		view.Server.Error = err.Error()
	} else {
		view.Server.Brand = info.Brand
		view.Server.CoreVersion = info.CoreVersion
		view.Server.ProjectURL = info.ProjectURL
	}
	return env.Print(c, view)
}

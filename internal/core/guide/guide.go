// Package guide produces the client configuration line a player needs to
// reach the server, chosen by the client's build number.
package guide

import (
	"fmt"

	"github.com/gophercraft/gcportal-go/pkg/semver"
)

// GruntRemovedBuild is the first client build that connects through the
// portal setting instead of realmlist.wtf.
const GruntRemovedBuild = 16016

const fallbackAddress = "localhost"

// Guide is the rendered connection guide for one client version.
type Guide struct {
	Version  semver.Version
	HelpText string
	Config   string
}

// Generate builds the guide for build using the advertised service
// addresses. Missing addresses fall back to localhost.
func Generate(build string, addresses map[string]string) (*Guide, error) {
	v, err := semver.Parse(build)
	if err != nil {
		return nil, fmt.Errorf("connection guide: %w", err)
	}

	g := &Guide{Version: v}
	if v.Build < GruntRemovedBuild {
		g.HelpText = "Put the following line into your realmlist.WTF:"
		g.Config = "SET realmList " + pick(addresses, "grunt") + "\n"
	} else {
		g.HelpText = "Put the following line into your WTF/Config.WTF:"
		g.Config = "SET portal " + pick(addresses, "bnet_rpc", "grunt") + "\n"
	}
	return g, nil
}

// Title returns the heading shown above the guide.
func (g *Guide) Title() string {
	return "Connection guide for " + g.Version.String()
}

func pick(addresses map[string]string, names ...string) string {
	for _, name := range names {
		if addr := addresses[name]; addr != "" {
			return addr
		}
	}
	return fallbackAddress
}

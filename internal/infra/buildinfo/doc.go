// Package buildinfo exposes build information for gcportal-cli.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/gophercraft/gcportal-go/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/gophercraft/gcportal-go/internal/infra/buildinfo.Commit=abc123"
//
// GoVersion falls back to the running toolchain when not injected.
package buildinfo

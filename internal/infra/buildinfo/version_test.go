package buildinfo

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	tests := []struct {
		name  string
		value string
	}{
		{"Version", info.Version},
		{"Commit", info.Commit},
		{"BuildTime", info.BuildTime},
		{"GoVersion", info.GoVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				t.Errorf("%s should not be empty", tt.name)
			}
		})
	}
}

func TestGet_GoVersionFallback(t *testing.T) {
	saved := GoVersion
	defer func() { GoVersion = saved }()

	GoVersion = ""
	if got := Get().GoVersion; got != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", got, runtime.Version())
	}

	GoVersion = "go1.99"
	if got := Get().GoVersion; got != "go1.99" {
		t.Errorf("GoVersion = %q, want go1.99", got)
	}
}

func TestString(t *testing.T) {
	expected := Version + " (" + Commit + ") built at " + BuildTime
	if s := String(); s != expected {
		t.Errorf("String() = %q, want %q", s, expected)
	}
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, "gcportal-cli/"+Version+" ") {
		t.Errorf("UserAgent() = %q", ua)
	}
	if !strings.Contains(ua, runtime.GOOS) {
		t.Errorf("UserAgent() = %q, missing GOOS", ua)
	}
}

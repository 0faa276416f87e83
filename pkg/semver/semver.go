// Package semver parses game client version strings such as "1.12.1.5875"
// or "3.3.5a.12340".
//
// The third component may carry a non-numeric bugfix suffix. No ordering
// is defined on versions; callers compare the Build number.
package semver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned for strings that are not four dot-separated
// components.
var ErrMalformed = errors.New("semver: malformed version")

// Version is a parsed client version.
type Version struct {
	Major    int
	Minor    int
	Revision int
	Bugfix   string
	Build    int
}

// Parse parses "major.minor.revision[bugfix].build".
//
// The revision component is split at its first non-digit: "1a" yields
// Revision 1 and Bugfix "a".
func Parse(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 4 {
		return Version{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	var v Version
	var err error
	if v.Major, err = parseComponent(parts[0]); err != nil {
		return Version{}, fmt.Errorf("%w: major: %v", ErrMalformed, err)
	}
	if v.Minor, err = parseComponent(parts[1]); err != nil {
		return Version{}, fmt.Errorf("%w: minor: %v", ErrMalformed, err)
	}

	rev := parts[2]
	cut := strings.IndexFunc(rev, func(r rune) bool { return r < '0' || r > '9' })
	if cut >= 0 {
		v.Bugfix = rev[cut:]
		rev = rev[:cut]
	}
	if v.Revision, err = parseComponent(rev); err != nil {
		return Version{}, fmt.Errorf("%w: revision: %v", ErrMalformed, err)
	}

	if v.Build, err = parseComponent(parts[3]); err != nil {
		return Version{}, fmt.Errorf("%w: build: %v", ErrMalformed, err)
	}
	return v, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the version in the form Parse accepts.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d%s.%d", v.Major, v.Minor, v.Revision, v.Bugfix, v.Build)
}

func parseComponent(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty component")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative component %d", n)
	}
	return n, nil
}

// Package version handles Bazel version identifiers: the loose release
// strings accepted by bazelisk ("7.1.0", "7.*", "8.1.1rc3") and
// closest-match selection against a set of available releases.
package version

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

// ErrNoVersions is returned when closest-match selection has no
// available versions to choose from.
var ErrNoVersions = errors.New("no versions available")

// Version is a parsed release identifier. Missing or wildcard
// components map to sentinel values (see Parse) so that ordering
// matches bazelisk's resolution behavior.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Parse parses a release string into a Version.
// A wildcard minor ("7.*" or "7.+") maps to minor 99, so it sorts after
// every concrete 7.x release. A missing minor maps to 0; a missing
// patch maps to 99, so "7.1" and a bare "7" sort after the patch
// releases of 7.1 and 7.0 respectively. Trailing non-digit characters
// in the patch component are ignored ("8.1.1rc3" parses as 8.1.1).
// Returns false if the major component is not a number.
func Parse(s string) (Version, bool) {
	parts := strings.Split(s, ".")

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Version{}, false
	}

	minorStr := ""
	if len(parts) > 1 {
		minorStr = parts[1]
	}
	if minorStr == "*" || minorStr == "+" {
		return Version{Major: major, Minor: 99, Patch: 0}, true
	}
	minor, err := strconv.Atoi(minorStr)
	if err != nil {
		minor = 0
	}

	patchStr := ""
	if len(parts) > 2 {
		patchStr = parts[2]
	}
	patchDigits := leadingDigits(patchStr)
	patch, err := strconv.Atoi(patchDigits)
	if err != nil {
		patch = 99
	}

	return Version{Major: major, Minor: minor, Patch: patch}, true
}

// leadingDigits returns the leading run of ASCII digits in s.
func leadingDigits(s string) string {
	for i, c := range s {
		if c < '0' || c > '9' {
			return s[:i]
		}
	}
	return s
}

// Compare orders two versions: -1 if a < b, 0 if equal, 1 if a > b.
func Compare(a, b Version) int {
	if a.Major != b.Major {
		return sign(a.Major - b.Major)
	}
	if a.Minor != b.Minor {
		return sign(a.Minor - b.Minor)
	}
	return sign(a.Patch - b.Patch)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// FindClosest returns the available version closest to the hint: the
// newest available version that is not newer than the hint, or the
// oldest available version if the hint predates all of them. An
// unparseable hint selects the newest available version. Entries in
// available that do not parse are ignored.
func FindClosest(available []string, hint string) (string, error) {
	type parsed struct {
		v Version
		s string
	}
	candidates := make([]parsed, 0, len(available))
	for _, s := range available {
		if v, ok := Parse(s); ok {
			candidates = append(candidates, parsed{v: v, s: s})
		}
	}
	if len(candidates) == 0 {
		return "", ErrNoVersions
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return Compare(candidates[i].v, candidates[j].v) < 0
	})

	hintVersion, ok := Parse(hint)
	if !ok {
		return candidates[len(candidates)-1].s, nil
	}

	// Index of the first candidate newer than the hint.
	idx := sort.Search(len(candidates), func(i int) bool {
		return Compare(candidates[i].v, hintVersion) > 0
	})
	if idx == 0 {
		return candidates[0].s, nil
	}
	return candidates[idx-1].s, nil
}

// Sort orders version strings ascending by parsed version. Strings that
// do not parse sort after all parseable ones, lexically among
// themselves.
func Sort(versions []string) {
	sort.SliceStable(versions, func(i, j int) bool {
		vi, oki := Parse(versions[i])
		vj, okj := Parse(versions[j])
		if oki != okj {
			return oki
		}
		if !oki {
			return versions[i] < versions[j]
		}
		return Compare(vi, vj) < 0
	})
}

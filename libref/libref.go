// Package libref handles library identifiers: registry name validation,
// name@version reference parsing, and SemVer selection over the version
// lists the registry returns.
package libref

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/pkg/errors"
)

// MaxNameLength bounds registry names the same way npm bounds package names.
const MaxNameLength = 214

var namePattern = regexp.MustCompile(`^[a-z0-9]+(?:[-_.][a-z0-9]+)*$`)

// ValidateName checks a library name against the registry naming rules:
// lowercase alphanumerics with internal '-', '_' or '.' separators, no
// leading or trailing separator, at most MaxNameLength characters.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("library name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return errors.Errorf("library name exceeds %d characters", MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return errors.Errorf(
			"invalid library name %q: must be lowercase alphanumerics with internal '-', '_' or '.' separators",
			name,
		)
	}
	return nil
}

// ParseRef splits a "name" or "name@version" reference. The version part,
// when present, must be a valid semantic version.
func ParseRef(ref string) (name, version string, err error) {
	at := strings.LastIndex(ref, "@")
	if at < 0 {
		name = ref
	} else {
		name, version = ref[:at], ref[at+1:]
		if version == "" {
			return "", "", errors.Errorf("reference %q has an empty version", ref)
		}
		if _, err := semver.StrictNewVersion(version); err != nil {
			return "", "", errors.Wrapf(err, "invalid version %q in reference %q", version, ref)
		}
	}
	if err := ValidateName(name); err != nil {
		return "", "", err
	}
	return name, version, nil
}

// LatestStable returns the highest non-prerelease version among the given
// version strings. Strings that do not parse as semantic versions are
// skipped. Returns an error when nothing stable remains.
func LatestStable(available []string) (string, error) {
	vs := make([]*semver.Version, 0, len(available))
	for _, raw := range available {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if v.Prerelease() != "" {
			continue
		}
		vs = append(vs, v)
	}
	if len(vs) == 0 {
		return "", errors.New("no stable versions available")
	}
	sort.Sort(semver.Collection(vs))
	return vs[len(vs)-1].Original(), nil
}

// MaxSatisfying returns the highest version among available that satisfies
// the constraint. Unparsable version strings are skipped. Pre-release
// versions are only eligible when the constraint itself admits them.
// Returns an empty string when no version satisfies.
func MaxSatisfying(available []string, constraint string) (string, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return "", errors.Wrapf(err, "invalid version constraint %q", constraint)
	}
	vs := make([]*semver.Version, 0, len(available))
	for _, raw := range available {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		vs = append(vs, v)
	}
	sort.Sort(semver.Collection(vs))
	var chosen string
	for _, v := range vs {
		if c.Check(v) {
			chosen = v.Original()
		}
	}
	return chosen, nil
}

// Satisfies reports whether version meets constraint.
func Satisfies(version, constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, errors.Wrapf(err, "invalid version constraint %q", constraint)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, errors.Wrapf(err, "invalid version %q", version)
	}
	return c.Check(v), nil
}

// ValidateVersion checks that a string is a well-formed semantic version.
func ValidateVersion(version string) error {
	if _, err := semver.StrictNewVersion(version); err != nil {
		return errors.Wrapf(err, "invalid semantic version %q", version)
	}
	return nil
}

// ValidateConstraint checks that a string parses as a SemVer range.
func ValidateConstraint(constraint string) error {
	if _, err := semver.NewConstraint(constraint); err != nil {
		return errors.Wrapf(err, "invalid version constraint %q", constraint)
	}
	return nil
}

// SPDX-License-Identifier: MPL-2.0

package witpkg

// Requirement selects which release of a package to download.
// The zero value is the unconstrained requirement.
type Requirement struct {
	exact Version
}

// AnyVersion returns the unconstrained requirement: the newest stable release wins.
func AnyVersion() Requirement { return Requirement{} }

// ExactVersion returns a requirement that matches only v.
func ExactVersion(v Version) Requirement { return Requirement{exact: v} }

// ResolveRequirement turns the optional --version value into a Requirement.
// An empty string means unconstrained; anything else pins that exact version
// and must be a valid semantic version.
func ResolveRequirement(version string) (Requirement, error) {
	if version == "" {
		return AnyVersion(), nil
	}
	v, err := ParseVersion(version)
	if err != nil {
		return Requirement{}, err
	}
	return ExactVersion(v), nil
}

// IsExact reports whether the requirement pins a single version.
func (r Requirement) IsExact() bool { return !r.exact.IsZero() }

// Exact returns the pinned version and true, or the zero Version and false
// for an unconstrained requirement.
func (r Requirement) Exact() (Version, bool) {
	return r.exact, r.IsExact()
}

// Matches reports whether v satisfies the requirement.
// Unconstrained requirements never match prereleases.
func (r Requirement) Matches(v Version) bool {
	if v.IsZero() {
		return false
	}
	if r.IsExact() {
		return v.Equal(r.exact)
	}
	return !v.IsPrerelease()
}

// Select returns the highest version in available that satisfies the
// requirement, and false when none does. Versions of equal precedence that
// differ only in build metadata are ordered by their build string, so the
// result does not depend on the order of available.
func (r Requirement) Select(available []Version) (Version, bool) {
	var best Version
	for _, v := range available {
		if !r.Matches(v) {
			continue
		}
		if best.IsZero() {
			best = v
			continue
		}
		if c := v.Compare(best); c > 0 || (c == 0 && v.raw > best.raw) {
			best = v
		}
	}
	return best, !best.IsZero()
}

// String returns "=V" for an exact requirement and "*" otherwise.
func (r Requirement) String() string {
	if r.IsExact() {
		return "=" + r.exact.String()
	}
	return "*"
}

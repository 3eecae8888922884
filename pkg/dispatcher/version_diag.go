package dispatcher

import "github.com/Masterminds/semver/v3"

// versionSkew describes how far apart two namespace versions are when
// both happen to parse as semantic versions. Namespace version equality
// is exact-string; this exists purely to sharpen mismatch diagnostics.
func versionSkew(registered, caller string) string {
	rv, err := semver.NewVersion(registered)
	if err != nil {
		return ""
	}
	cv, err := semver.NewVersion(caller)
	if err != nil {
		return ""
	}
	switch {
	case rv.Major() != cv.Major():
		return "major version skew"
	case rv.Minor() != cv.Minor():
		return "minor version skew"
	case rv.Patch() != cv.Patch():
		return "patch version skew"
	default:
		return "prerelease or build metadata skew"
	}
}

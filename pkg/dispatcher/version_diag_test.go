package dispatcher

import "testing"

const versionDiagTestPrefix = "dispatcher:version_diag_test"

func TestVersionSkew(t *testing.T) {
	tests := []struct {
		name       string
		registered string
		caller     string
		want       string
	}{
		{name: "major", registered: "2.0.0", caller: "1.0.0", want: "major version skew"},
		{name: "minor", registered: "1.2.0", caller: "1.1.0", want: "minor version skew"},
		{name: "patch", registered: "1.0.1", caller: "1.0.0", want: "patch version skew"},
		{name: "prerelease", registered: "1.0.0-beta.1", caller: "1.0.0-beta.2", want: "prerelease or build metadata skew"},
		{name: "not semver registered", registered: "build-47", caller: "1.0.0", want: ""},
		{name: "not semver caller", registered: "1.0.0", caller: "snapshot", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := versionSkew(tt.registered, tt.caller); got != tt.want {
				t.Errorf("%s - versionSkew(%q, %q) = %q, want %q",
					versionDiagTestPrefix, tt.registered, tt.caller, got, tt.want)
			}
		})
	}
}

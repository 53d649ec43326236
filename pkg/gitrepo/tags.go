package gitrepo

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// MatchTag proposes the release tag for a package name and version from a
// repository's tag set.
//
// Build metadata is stripped from the version before candidates are built,
// so 1.2.3 and 1.2.3+buildinfo produce identical candidate lists. The
// candidate order is fixed: name-prefixed forms under every separator
// convention first, then bare-version forms. The first candidate present
// in the tag set wins. No match returns ok=false; that is not an error,
// callers fall back to the archive's VCS hint.
func MatchTag(tags []string, name string, version *semver.Version) (tag string, ok bool) {
	v := stripBuildMetadata(version).String()

	// The {name}v/{version} entry looks like a typo of {name}/v{version},
	// but the precedence order is kept as-is for compatibility.
	candidates := []string{
		fmt.Sprintf("%s-v%s", name, v),
		fmt.Sprintf("%s-%s", name, v),
		fmt.Sprintf("%s_v%s", name, v),
		fmt.Sprintf("%s_%s", name, v),
		fmt.Sprintf("%s/v%s", name, v),
		fmt.Sprintf("%sv/%s", name, v),
		fmt.Sprintf("%s/%s", name, v),
		fmt.Sprintf("%s@v%s", name, v),
		fmt.Sprintf("%s@%s", name, v),
		fmt.Sprintf("v%s", v),
		v,
		fmt.Sprintf("v/%s", v),
	}

	tagSet := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		tagSet[t] = struct{}{}
	}

	for _, candidate := range candidates {
		if _, present := tagSet[candidate]; present {
			return candidate, true
		}
	}
	return "", false
}

func stripBuildMetadata(v *semver.Version) *semver.Version {
	if v.Metadata() == "" {
		return v
	}
	clean, err := v.SetMetadata("")
	if err != nil {
		return v
	}
	return &clean
}

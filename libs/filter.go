package libs

import (
	"fmt"
	"strings"
)

// quoteFilterValue quotes a value for use inside a SCIM filter expression,
// escaping backslashes and embedded quotes.
func quoteFilterValue(value string) string {
	v := strings.ReplaceAll(value, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}

// BuildUserFilter constructs the userName lookup filter for the given
// profile. OEM deployments are multi-tenant, so the filter must carry the
// institution scope; omitting it risks cross-tenant matches.
func BuildUserFilter(userName string, profile EnvironmentProfile) (string, error) {
	base := fmt.Sprintf("userName eq %s", quoteFilterValue(userName))

	if !profile.IsOEM() {
		return base, nil
	}

	if profile.InstitutionID == "" {
		return "", &ConfigurationError{
			Setting: "institution_id",
			Reason:  "OEM profile requires a non-empty institution id for user filters",
		}
	}

	return fmt.Sprintf("%s and institutionid eq %s", base, quoteFilterValue(profile.InstitutionID)), nil
}

// BuildGroupFilter constructs the displayName lookup filter for the given
// profile, with the same institution scoping rule as user filters.
func BuildGroupFilter(displayName string, profile EnvironmentProfile) (string, error) {
	base := fmt.Sprintf("displayName eq %s", quoteFilterValue(displayName))

	if !profile.IsOEM() {
		return base, nil
	}

	if profile.InstitutionID == "" {
		return "", &ConfigurationError{
			Setting: "institution_id",
			Reason:  "OEM profile requires a non-empty institution id for group filters",
		}
	}

	return fmt.Sprintf("%s and institutionid eq %s", base, quoteFilterValue(profile.InstitutionID)), nil
}

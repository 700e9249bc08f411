package identity

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ExtractGroups handles both flat and nested group claims.
// Supports:
//   - Flat arrays: ["djs", "volunteers"]
//   - Nested objects: [{"name": "djs", "type": "team"}] with claimPath="name"
func ExtractGroups(claims map[string]any, claimField string, claimPath string) ([]string, error) {
	rawValue, ok := claims[claimField]
	if !ok {
		// Absent groups claim is not an error; the caller may simply
		// hold no memberships.
		return []string{}, nil
	}

	if groups, ok := rawValue.([]any); ok {
		result := make([]string, 0, len(groups))
		flat := true
		for _, g := range groups {
			str, ok := g.(string)
			if !ok {
				flat = false
				break
			}
			result = append(result, str)
		}
		// An empty array is a valid claim: the caller holds no
		// memberships. Only non-string elements fall through to the
		// nested-object path.
		if flat {
			return result, nil
		}
	}

	if claimPath != "" {
		return extractNestedGroups(rawValue, claimPath)
	}

	return nil, fmt.Errorf("groups claim invalid format (expected []string or []object with path)")
}

// extractNestedGroups uses mapstructure to pull a single-level key out of
// nested group objects.
func extractNestedGroups(rawValue any, path string) ([]string, error) {
	var objects []map[string]any
	if err := mapstructure.Decode(rawValue, &objects); err != nil {
		return nil, fmt.Errorf("decode nested groups: %w", err)
	}

	result := make([]string, 0, len(objects))
	for _, obj := range objects {
		if val, ok := obj[path].(string); ok {
			result = append(result, val)
		}
	}
	return result, nil
}

// MapRoles derives role grants from verified group memberships: any
// intersection with the configured librarian groups grants the librarian
// role, otherwise no roles are granted.
func MapRoles(groups []string, librarianGroups []string) []string {
	for _, g := range groups {
		for _, lg := range librarianGroups {
			if g == lg {
				return []string{RoleLibrarian}
			}
		}
	}
	return nil
}

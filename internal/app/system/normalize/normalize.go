// Package normalize canonicalizes user-supplied identifiers before they
// are compared or stored.
package normalize

import "strings"

// Email trims and lower-cases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Emails normalizes a list, dropping blanks and duplicates while keeping
// first-seen order.
func Emails(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, e := range in {
		e = Email(e)
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// Name trims surrounding whitespace and collapses inner runs of spaces.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Role lower-cases a role and accepts the hyphen and space spellings.
func Role(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// Enum lower-cases and trims an enumerated value such as a priority.
func Enum(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

package tags

import (
	"strings"
)

// Separator joins tokens in a stored tag string.
const Separator = ","

// Parse splits a stored tag string into trimmed, non-empty tokens in order.
// A nil or empty string yields no tokens.
func Parse(s *string) []string {
	if s == nil {
		return nil
	}
	return SplitInput(*s)
}

// SplitInput splits comma-separated user input into trimmed, non-empty tokens.
// Duplicates are kept; Merge and Remove deal with them.
func SplitInput(raw string) []string {
	return split(raw, Separator)
}

func split(raw, seps string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if t := strings.TrimSpace(f); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Merge appends each incoming token not already present to the existing
// tokens and returns the joined result. Order is preserved and the comparison
// is exact and case-sensitive, so merging the same tokens twice changes nothing.
func Merge(existing *string, incoming []string) string {
	base := Parse(existing)
	seen := make(map[string]struct{}, len(base)+len(incoming))
	out := make([]string, 0, len(base)+len(incoming))

	for _, t := range base {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, raw := range incoming {
		t := strings.TrimSpace(raw)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	return strings.Join(out, Separator)
}

// Remove drops every existing token that exactly matches one of toRemove and
// returns the joined remainder in its original order. Tokens not present are
// ignored; an empty or nil base yields "".
func Remove(existing *string, toRemove []string) string {
	drop := make(map[string]struct{}, len(toRemove))
	for _, raw := range toRemove {
		if t := strings.TrimSpace(raw); t != "" {
			drop[t] = struct{}{}
		}
	}

	base := Parse(existing)
	out := make([]string, 0, len(base))
	seen := make(map[string]struct{}, len(base))
	for _, t := range base {
		if _, ok := drop[t]; ok {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	return strings.Join(out, Separator)
}

// Canonical rewrites a keyword string read from image metadata into the
// stored form. Both ',' and ';' separate tokens, since Windows writes
// XPKeywords with semicolons. Returns "" when no token survives.
func Canonical(raw string) string {
	return Merge(nil, split(raw, ",;"))
}

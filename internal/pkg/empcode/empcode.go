package empcode

import "strings"

// Normalize canonicalizes an employee code so the same employee can be
// matched across the punch source, the leave-management records and the
// aggregated stats feed. Codes arrive zero-padded from some exports
// ("0123") and bare from others ("123"); both normalize to "123". An
// all-zero code normalizes to "0" rather than the empty string so it
// stays a usable key. Empty or whitespace-only input yields "".
func Normalize(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return ""
	}
	stripped := strings.TrimLeft(trimmed, "0")
	if stripped == "" {
		return "0"
	}
	return stripped
}

// Key returns the preferred merge key for a code: the normalized form
// when it is non-empty, otherwise the trimmed raw form. Legacy summary
// maps are sometimes indexed by the untrimmed value, so callers keep
// the raw code around as a fallback lookup key as well.
func Key(code string) string {
	trimmed := strings.TrimSpace(code)
	if normalized := Normalize(trimmed); normalized != "" {
		return normalized
	}
	return trimmed
}

// Package stringset provides the small set algebra used to compute
// attach/detach deltas. Every mutation in the cutover flow passes through
// Difference so that endpoints shared between the old and new sets are
// never detached by mistake.
package stringset

// Difference returns the elements of a that are not present in b,
// preserving the order of a.
func Difference(a, b []string) []string {
	if len(a) == 0 {
		return nil
	}
	exclude := make(map[string]struct{}, len(b))
	for _, s := range b {
		exclude[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := exclude[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// Unique returns a with duplicates removed, preserving first-seen order.
func Unique(a []string) []string {
	if len(a) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(a))
	out := make([]string, 0, len(a))
	for _, s := range a {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Contains reports whether a contains s.
func Contains(a []string, s string) bool {
	for _, v := range a {
		if v == s {
			return true
		}
	}
	return false
}

// Equal reports whether a and b contain the same elements in the same order.
func Equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

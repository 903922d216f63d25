package domain

import "slices"

// WithMembers returns the union of set and values, keeping set's order and appending new
// values in the order given. set is not modified.
func WithMembers(set []string, values ...string) []string {
	out := slices.Clone(set)
	if out == nil {
		out = []string{}
	}
	for _, v := range values {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// WithoutMember returns set minus value. set is not modified.
func WithoutMember(set []string, value string) []string {
	out := make([]string, 0, len(set))
	for _, v := range set {
		if v != value {
			out = append(out, v)
		}
	}
	return out
}

// FirstMember returns the first of values already in set.
func FirstMember(set []string, values ...string) (string, bool) {
	for _, v := range values {
		if slices.Contains(set, v) {
			return v, true
		}
	}
	return "", false
}

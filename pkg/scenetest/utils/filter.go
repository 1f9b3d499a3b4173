package utils

import "path"

// A filter that matches strings against shell-style patterns, as understood
// by path.Match.
type StringFilter struct {
	emptyIsAny bool
	patterns   []string
}

func NewStringFilterFromSlice(slice []string) *StringFilter {
	patterns := make([]string, 0, len(slice))
	for _, item := range slice {
		if item != "" {
			patterns = append(patterns, item)
		}
	}

	return &StringFilter{true, patterns}
}

// Force the filter to match nothing if it is empty.
func (f *StringFilter) SetStrict() {
	f.emptyIsAny = false
}

func (f *StringFilter) Match(item string) bool {
	if len(f.patterns) == 0 {
		return f.emptyIsAny
	}

	for _, pattern := range f.patterns {
		// Malformed patterns only match literally.
		if ok, err := path.Match(pattern, item); ok || (err != nil && pattern == item) {
			return true
		}
	}

	return false
}

func (f *StringFilter) MatchAny(items []string) bool {
	if len(f.patterns) == 0 {
		return f.emptyIsAny
	}

	for _, item := range items {
		if f.Match(item) {
			return true
		}
	}

	return false
}

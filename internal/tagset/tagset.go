// Package tagset turns free-text tag strings into canonical, case-folded tag sets.
package tagset

import (
	"sort"
	"strings"
)

// Set is a de-duplicated collection of normalized tags.
// The zero value is an empty set ready to use for reads.
type Set map[string]struct{}

// Normalize splits raw on whitespace, trims and lower-cases every token and
// drops empty ones. An empty string yields an empty set.
func Normalize(raw string) Set {
	set := make(Set)
	for _, token := range strings.Fields(raw) {
		tag := strings.ToLower(strings.TrimSpace(token))
		if tag == "" {
			continue
		}
		set[tag] = struct{}{}
	}
	return set
}

// NormalizePtr is Normalize for optional strings; nil yields an empty set.
func NormalizePtr(raw *string) Set {
	if raw == nil {
		return make(Set)
	}
	return Normalize(*raw)
}

// FromSlice normalizes every element with the same rules as Normalize, so an
// element containing whitespace contributes several tags.
func FromSlice(tags []string) Set {
	return Normalize(strings.Join(tags, " "))
}

// Has reports whether tag (normalized) is a member.
func (s Set) Has(tag string) bool {
	_, ok := s[strings.ToLower(strings.TrimSpace(tag))]
	return ok
}

// Len returns the number of tags.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the members in lexicographic order.
func (s Set) Sorted() []string {
	list := make([]string, 0, len(s))
	for tag := range s {
		list = append(list, tag)
	}
	sort.Strings(list)
	return list
}

// Join renders the set as a space-separated string in sorted order.
func (s Set) Join() string {
	return strings.Join(s.Sorted(), " ")
}

// Intersect returns the tags present in both sets.
func (s Set) Intersect(other Set) Set {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	shared := make(Set)
	for tag := range small {
		if _, ok := large[tag]; ok {
			shared[tag] = struct{}{}
		}
	}
	return shared
}

// Jaccard returns |s ∩ other| / |s ∪ other|, or 0 when both are empty.
func (s Set) Jaccard(other Set) float64 {
	intersection := len(s.Intersect(other))
	union := len(s) + len(other) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// Equal reports whether both sets hold exactly the same tags.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for tag := range s {
		if _, ok := other[tag]; !ok {
			return false
		}
	}
	return true
}

// Package mention extracts user-mention tokens from message text.
// A mention is a case-sensitive token of the form "U" followed by digits.
package mention

import "regexp"

var tagRegexp = regexp.MustCompile(`U\d+`)

// Tags is a set of mention tokens.
type Tags map[string]struct{}

// ExtractTags returns the set of mention tokens in text. Pure: no side
// effects, same input always yields the same set.
func ExtractTags(text string) Tags {
	matches := tagRegexp.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	tags := make(Tags, len(matches))
	for _, m := range matches {
		tags[m] = struct{}{}
	}
	return tags
}

// Contains reports whether tag is in the set.
func (t Tags) Contains(tag string) bool {
	_, ok := t[tag]
	return ok
}

// Empty reports whether the set has no tags.
func (t Tags) Empty() bool {
	return len(t) == 0
}

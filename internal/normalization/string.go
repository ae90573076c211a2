package normalization

import (
	"strings"
)

func ParseInputString(input string) string {
	normalized := strings.ToLower(strings.TrimSpace(input))
	return normalized
}

func ParseInputStringPtr(input *string) *string {
	normalized := strings.ToLower(strings.TrimSpace(*input))
	return &normalized
}

// titlePunct is the punctuation stripped before comparing titles across
// providers. Apostrophes and dashes vary between catalogs ("Spider-Man" vs
// "Spider Man", curly vs straight quotes), so both forms are removed.
const titlePunct = ":!'’-–,.()[]"

// NormalizeTitle lowercases a title and strips catalog-dependent punctuation
// so the same work fetched from different providers compares equal.
func NormalizeTitle(title string) string {
	lowered := strings.ToLower(strings.TrimSpace(title))
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if strings.ContainsRune(titlePunct, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// FranchiseKey returns the coarse dedup token for a title: the first
// whitespace-delimited word of the normalized title. "The Witcher 3" and
// "The Witcher: Blood Origin" share the key "the".
func FranchiseKey(title string) string {
	fields := strings.Fields(NormalizeTitle(title))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

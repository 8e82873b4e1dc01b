package complete

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// FilterPrefix keeps the items whose value starts with the seed.
func FilterPrefix(seed string, items []Item) []Item {
	var filtered []Item
	for _, item := range items {
		if strings.HasPrefix(item.Value, seed) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// FilterFuzzy keeps the items whose value contains the characters of the seed
// in order, best matches first. Items keep their order for an empty seed.
func FilterFuzzy(seed string, items []Item) []Item {
	if seed == "" {
		return items
	}
	matches := fuzzy.FindFrom(seed, itemSource(items))
	filtered := make([]Item, len(matches))
	for i, m := range matches {
		filtered[i] = items[m.Index]
	}
	return filtered
}

type itemSource []Item

func (s itemSource) String(i int) string { return s[i].Value }
func (s itemSource) Len() int            { return len(s) }

// Filterers maps the names accepted in configuration to filterers.
var Filterers = map[string]Filterer{
	"prefix": FilterPrefix,
	"fuzzy":  FilterFuzzy,
}

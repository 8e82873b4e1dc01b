package diag

import (
	"sort"

	"github.com/agnivade/levenshtein"
)

// Suggest returns the candidates within a small edit distance of name,
// closest first. It returns nil when nothing is close enough.
func Suggest(name string, candidates []string) []string {
	type scored struct {
		s string
		d int
	}
	limit := len(name)/3 + 1
	var near []scored
	for _, c := range candidates {
		if c == name {
			continue
		}
		if d := levenshtein.ComputeDistance(name, c); d <= limit {
			near = append(near, scored{c, d})
		}
	}
	sort.SliceStable(near, func(i, j int) bool {
		if near[i].d != near[j].d {
			return near[i].d < near[j].d
		}
		return near[i].s < near[j].s
	})
	if len(near) > 3 {
		near = near[:3]
	}
	var result []string
	for _, c := range near {
		result = append(result, c.s)
	}
	return result
}

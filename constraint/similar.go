package constraint

import (
	"sort"

	"github.com/xrash/smetrics"
)

// Similar returns the candidates whose Jaro-Winkler similarity to name is at
// least threshold, best first. Equal scores are ordered by name.
func Similar(name string, candidates []string, threshold float64) []string {
	type scored struct {
		name  string
		score float64
	}
	var hits []scored
	for _, c := range candidates {
		if s := JaroWinkler(name, c); s >= threshold {
			hits = append(hits, scored{c, s})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].name < hits[j].name
	})
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}

// JaroWinkler scores the similarity of two strings in [0, 1]. A common
// prefix of up to four bytes raises scores above 0.7.
func JaroWinkler(a, b string) float64 {
	switch {
	case a == b:
		return 1
	case a == "" || b == "":
		return 0
	}
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}

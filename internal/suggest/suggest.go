// Package suggest ranks known commands by similarity to a mistyped one.
package suggest

import (
	"sort"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Limit is the number of suggestions Commands returns by default.
const Limit = 5

// Commands returns up to n candidates ordered by Jaro-Winkler similarity to
// input, most similar first. Ties keep the candidates' order.
func Commands(candidates []string, input string, n int) []string {
	jw := metrics.NewJaroWinkler()
	jw.CaseSensitive = false

	type scored struct {
		cmd   string
		score float64
	}
	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		ranked[i] = scored{cmd: c, score: strutil.Similarity(c, input, jw)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	out := make([]string, 0, min(n, len(ranked)))
	for _, r := range ranked[:min(n, len(ranked))] {
		out = append(out, r.cmd)
	}
	return out
}

// Package report renders attribution result sets for people: an HTML
// heatmap that tints each token by how hard it pushed the score, and a
// terminal summary of the strongest tokens per record.
package report

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/verdict-ml/verdict/internal/attribution"
)

// Meta describes the run a report was generated from.
type Meta struct {
	Checkpoint string
	Dataset    string
	Steps      int
	Method     string
	Created    time.Time
}

func classLabel(class int) string {
	if class == 1 {
		return "guilty"
	}
	return "not guilty"
}

func fmtTruth(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

type tokenScore struct {
	Text  string
	Score float64
}

// topTokens returns the k strongest tokens on one side of zero, strongest
// first, ties broken by position. Tokens with exactly zero attribution make
// neither list.
func topTokens(rec *attribution.Record, k int, positive bool) []tokenScore {
	idx := make([]int, 0, len(rec.Attributions))
	for i := 0; i < len(rec.Attributions) && i < len(rec.Tokens); i++ {
		a := rec.Attributions[i]
		if (positive && a > 0) || (!positive && a < 0) {
			idx = append(idx, i)
		}
	}
	sort.Slice(idx, func(a, b int) bool {
		x, y := rec.Attributions[idx[a]], rec.Attributions[idx[b]]
		if x != y {
			if positive {
				return x > y
			}
			return x < y
		}
		return idx[a] < idx[b]
	})
	if len(idx) > k {
		idx = idx[:k]
	}
	out := make([]tokenScore, 0, len(idx))
	for _, i := range idx {
		out = append(out, tokenScore{Text: rec.Tokens[i], Score: rec.Attributions[i]})
	}
	return out
}

package rank

import (
	"sort"

	"SipPulse/internal/domain/models"
)

// Rank scores each group with the weighted composite and orders the
// slice ascending, so the most attractive accumulation windows (deepest
// average drops, highest panic density) come first. Ranks are assigned
// 1-based after the sort. Ties on the composite go to the group with
// more samples, then to calendar order.
//
// Mutates and returns the same slice. The weights must already be
// validated; Rank re-checks them so a caller bypassing config
// validation still fails loudly.
func Rank(groups []models.GroupStats, weights models.ScoreWeights) ([]models.GroupStats, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	for i := range groups {
		groups[i].CompositeScore = Composite(&groups[i], weights)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := &groups[i], &groups[j]
		if a.CompositeScore != b.CompositeScore {
			return a.CompositeScore < b.CompositeScore
		}
		if a.SampleCount != b.SampleCount {
			return a.SampleCount > b.SampleCount
		}
		return a.Key.Less(b.Key)
	})
	for i := range groups {
		groups[i].Rank = i + 1
	}
	return groups, nil
}

// Composite is the weighted score a group sorts by. Lower is better:
// avg_drop is negative on weak groups and the panic ratio and
// volatility terms reward (via the ascending sort) groups that panic
// rarely only when their drops are shallow.
func Composite(g *models.GroupStats, w models.ScoreWeights) float64 {
	return w.Drop*g.AvgDrop + w.Panic*g.PanicRatio + w.Volatility*g.AvgVolatility
}

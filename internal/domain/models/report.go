package models

import "time"

// GroupKey identifies one aggregation bucket inside a dimension.
// Year is zero for year-independent dimensions (weekday, day-of-month,
// week-of-month). Natural order is (Year, Ord); Label is the rendered
// form used in reports ("Tuesday", "15", "2021-W07", "2021-03", "W3").
type GroupKey struct {
	Year  int    `json:"year,omitempty"`
	Ord   int    `json:"ord"`
	Label string `json:"label"`
}

// Less reports the natural order used as the final ranking tie-breaker.
func (k GroupKey) Less(o GroupKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Ord < o.Ord
}

// GroupStats is the aggregate for one group. Averages ignore undefined
// inputs; SampleCount counts every row that fell into the group.
type GroupStats struct {
	Key         GroupKey `json:"key"`
	SampleCount int      `json:"sample_count"`

	AvgDrop       float64 `json:"avg_drop"`
	PanicRatio    float64 `json:"panic_day_ratio"`
	AvgVolatility float64 `json:"avg_volatility"`

	DropProb    float64 `json:"drop_prob"`
	AvgDrawdown float64 `json:"avg_drawdown"`
	AvgSipScore float64 `json:"sip_score"`

	CompositeScore float64 `json:"composite_score"`
	Rank           int     `json:"rank"` // 1-based, assigned by the ranker
}

// ExcludedGroup is a group dropped from ranking for having too few
// samples. Reported separately, never silently discarded.
type ExcludedGroup struct {
	Key         GroupKey `json:"key"`
	SampleCount int      `json:"sample_count"`
	Reason      string   `json:"reason"`
}

// RankedReport is the ordered ranking for a single dimension, most
// favorable entry point first (lowest composite score).
type RankedReport struct {
	Dimension string          `json:"dimension"`
	Groups    []GroupStats    `json:"groups"`
	Excluded  []ExcludedGroup `json:"excluded,omitempty"`
}

// AnalysisReport bundles the per-dimension rankings of one pipeline run
// together with its inputs and warnings. Immutable once produced.
type AnalysisReport struct {
	Symbol      string         `json:"symbol"`
	From        time.Time      `json:"from"`
	To          time.Time      `json:"to"`
	BarCount    int            `json:"bar_count"`
	PanicDays   int            `json:"panic_days"`
	Params      AnalysisParams `json:"params"`
	GeneratedAt time.Time      `json:"generated_at"`
	Reports     []RankedReport `json:"reports"`
	Warnings    []string       `json:"warnings,omitempty"`
}

// Report returns the ranking for the named dimension, or nil.
func (a *AnalysisReport) Report(dimension string) *RankedReport {
	for i := range a.Reports {
		if a.Reports[i].Dimension == dimension {
			return &a.Reports[i]
		}
	}
	return nil
}

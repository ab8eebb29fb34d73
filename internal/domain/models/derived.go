package models

// DayStats holds per-day derived statistics, parallel to the DailyBar
// sequence (stats[i] belongs to bars[i]). Values that cannot be computed
// yet (the first return, the volatility warm-up window) carry a false
// Has* flag and are excluded from every downstream aggregate.
type DayStats struct {
	PctChange float64 // (close[i]-close[i-1])/close[i-1]
	HasReturn bool    // false at i=0
	LogReturn float64 // ln(close[i]/close[i-1])

	Gap     float64 // (open[i]-close[i-1])/close[i-1]
	HasGap  bool
	GapDown bool

	IntradayRange float64 // (high-low)/open

	Volatility float64 // rolling stddev of PctChange over the trailing window
	HasVol     bool    // false until the window is filled

	Drawdown float64 // (close - running peak close)/peak, always <= 0

	Panic    bool    // set by the classifier
	SipScore float64 // multiplicative opportunity score, set by the classifier
}

// ScoreWeights are the composite score weights. They must sum to 1.0;
// AnalysisParams.Validate enforces this before any computation runs.
type ScoreWeights struct {
	Drop       float64 `yaml:"drop" json:"drop"`
	Panic      float64 `yaml:"panic" json:"panic"`
	Volatility float64 `yaml:"volatility" json:"volatility"`
}

// AnalysisParams is the explicit configuration object passed into the
// pipeline entry point. Defaults mirror config.yaml.
type AnalysisParams struct {
	DropThreshold       float64      `yaml:"drop_threshold" json:"drop_threshold"`
	VolatilityWindow    int          `yaml:"volatility_window" json:"volatility_window"`
	VolatilityThreshold float64      `yaml:"volatility_threshold" json:"volatility_threshold"`
	MinSamplesPerGroup  int          `yaml:"min_samples_per_group" json:"min_samples_per_group"`
	Weights             ScoreWeights `yaml:"score_weights" json:"score_weights"`
}

// DefaultAnalysisParams returns the documented defaults.
func DefaultAnalysisParams() AnalysisParams {
	return AnalysisParams{
		DropThreshold:       0.02,
		VolatilityWindow:    20,
		VolatilityThreshold: 0.015,
		MinSamplesPerGroup:  5,
		Weights:             ScoreWeights{Drop: 0.5, Panic: 0.3, Volatility: 0.2},
	}
}

const weightSumTolerance = 1e-9

// Validate checks the weights sum to 1.0 within tolerance.
func (w ScoreWeights) Validate() error {
	sum := w.Drop + w.Panic + w.Volatility
	if sum < 1-weightSumTolerance || sum > 1+weightSumTolerance {
		return &ConfigurationError{Reason: "score_weights must sum to 1.0"}
	}
	return nil
}

// Validate checks thresholds and weights. It runs at config load and
// again at the start of every pipeline run.
func (p AnalysisParams) Validate() error {
	if p.DropThreshold < 0 {
		return &ConfigurationError{Reason: "drop_threshold must be >= 0"}
	}
	if p.VolatilityThreshold < 0 {
		return &ConfigurationError{Reason: "volatility_threshold must be >= 0"}
	}
	if p.VolatilityWindow < 2 {
		return &ConfigurationError{Reason: "volatility_window must be >= 2"}
	}
	if p.MinSamplesPerGroup < 1 {
		return &ConfigurationError{Reason: "min_samples_per_group must be >= 1"}
	}
	return p.Weights.Validate()
}

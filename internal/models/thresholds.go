package models

// ThresholdMargin is the minimum separation kept between each top_*
// threshold and its min_* counterpart after tuning or adjustment
const ThresholdMargin = 0.05

// DecisionThresholds are the six per-league scalars the decision gate
// evaluates a calibrated prediction against
type DecisionThresholds struct {
	MinBestProb float64 `json:"min_best_prob" mapstructure:"min_best_prob"`
	MinConf     float64 `json:"min_conf" mapstructure:"min_conf"`
	MinGap      float64 `json:"min_gap" mapstructure:"min_gap"`
	TopBestProb float64 `json:"top_best_prob" mapstructure:"top_best_prob"`
	TopConf     float64 `json:"top_conf" mapstructure:"top_conf"`
	TopGap      float64 `json:"top_gap" mapstructure:"top_gap"`
}

// DefaultThresholds returns the league-agnostic defaults
func DefaultThresholds() DecisionThresholds {
	return DecisionThresholds{
		MinBestProb: 0.55,
		MinConf:     0.55,
		MinGap:      0.03,
		TopBestProb: 0.70,
		TopConf:     0.70,
		TopGap:      0.08,
	}
}

// EnforceMargin restores the top_X >= min_X + margin invariant after
// any tuning pass by lifting the top thresholds where needed
func (t *DecisionThresholds) EnforceMargin() {
	if t.TopBestProb < t.MinBestProb+ThresholdMargin {
		t.TopBestProb = t.MinBestProb + ThresholdMargin
	}
	if t.TopConf < t.MinConf+ThresholdMargin {
		t.TopConf = t.MinConf + ThresholdMargin
	}
	if t.TopGap < t.MinGap+ThresholdMargin {
		t.TopGap = t.MinGap + ThresholdMargin
	}
}

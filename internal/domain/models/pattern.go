package models

import "time"

type Comparator string

const (
	OpGT  Comparator = "gt"
	OpGTE Comparator = "gte"
	OpLT  Comparator = "lt"
	OpLTE Comparator = "lte"
	OpEQ  Comparator = "eq"
	OpNEQ Comparator = "neq"
)

// Compare applies the comparator as "value op threshold".
func (c Comparator) Compare(value, threshold float64) bool {
	switch c {
	case OpGT:
		return value > threshold
	case OpGTE:
		return value >= threshold
	case OpLT:
		return value < threshold
	case OpLTE:
		return value <= threshold
	case OpEQ:
		return value == threshold
	case OpNEQ:
		return value != threshold
	}
	return false
}

type Condition struct {
	Field     string     `json:"field" yaml:"field"`
	Op        Comparator `json:"op" yaml:"op"`
	Threshold float64    `json:"threshold" yaml:"threshold"`
	Weight    float64    `json:"weight" yaml:"weight"`
}

// Pattern is a named historical setup. Its counters move only when a ledger
// outcome is recorded.
type Pattern struct {
	ID               string        `json:"id" yaml:"id"`
	Name             string        `json:"name" yaml:"name"`
	Description      string        `json:"description,omitempty" yaml:"description"`
	Conditions       []Condition   `json:"conditions" yaml:"conditions"`
	HistoricalWins   int           `json:"historicalWins" yaml:"historicalWins"`
	HistoricalLosses int           `json:"historicalLosses" yaml:"historicalLosses"`
	AvgReturn        float64       `json:"avgReturn" yaml:"avgReturn"`
	MaxDrawdown      float64       `json:"maxDrawdown" yaml:"maxDrawdown"`
	AvgHoldTime      time.Duration `json:"avgHoldTime" yaml:"avgHoldTime"`
}

// Samples is the number of recorded wins and losses.
func (p Pattern) Samples() int { return p.HistoricalWins + p.HistoricalLosses }

// WinRate returns the observed win rate and false when the pattern has no
// recorded outcomes yet.
func (p Pattern) WinRate() (float64, bool) {
	n := p.Samples()
	if n == 0 {
		return 0, false
	}
	return float64(p.HistoricalWins) / float64(n), true
}

type PatternMatch struct {
	Pattern    Pattern `json:"pattern"`
	MatchScore float64 `json:"matchScore"`
	Matched    int     `json:"matched"`
	Total      int     `json:"total"`
}

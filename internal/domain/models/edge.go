package models

import "time"

// EdgeCalculation is the quantified advantage behind a trade idea.
// AvgWin and AvgLoss are percentages; HalfLife is in hours.
type EdgeCalculation struct {
	WinRate         float64 `json:"winRate"`
	AvgWin          float64 `json:"avgWin"`
	AvgLoss         float64 `json:"avgLoss"`
	RiskReward      float64 `json:"riskReward"`
	ExpectedValue   float64 `json:"expectedValue"`
	EdgeExists      bool    `json:"edgeExists"`
	ConvictionScore float64 `json:"convictionScore"`
	HalfLife        float64 `json:"halfLife"`
}

// HalfLifeDuration converts HalfLife to a time.Duration.
func (e EdgeCalculation) HalfLifeDuration() time.Duration {
	return time.Duration(e.HalfLife * float64(time.Hour))
}

type TradeDirection string

const (
	Long  TradeDirection = "long"
	Short TradeDirection = "short"
)

type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencySoon      Urgency = "soon"
	UrgencyPatient   Urgency = "patient"
)

type EntryZone struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Optimal float64 `json:"optimal"`
	Urgency Urgency `json:"urgency"`
}

type Target struct {
	Price       float64 `json:"price"`
	Percentage  float64 `json:"percentage"` // share of the position to exit
	Probability float64 `json:"probability"`
	Action      string  `json:"action"`
}

type PositionSizing struct {
	PortfolioPercent float64 `json:"portfolioPercent"`
	MaxRiskPercent   float64 `json:"maxRiskPercent"`
	KellyFraction    float64 `json:"kellyFraction"`
	Confidence       float64 `json:"confidence"`
}

type Scenario struct {
	Probability float64 `json:"probability"`
	Target      float64 `json:"target"`
	Timeline    float64 `json:"timeline"` // hours
	Description string  `json:"description"`
}

type Scenarios struct {
	Bull Scenario `json:"bull"`
	Base Scenario `json:"base"`
	Bear Scenario `json:"bear"`
}

type TradeSetup struct {
	Direction   TradeDirection `json:"direction"`
	Entry       EntryZone      `json:"entry"`
	StopLoss    float64        `json:"stopLoss"`
	Targets     []Target       `json:"targets"`
	Sizing      PositionSizing `json:"sizing"`
	Scenarios   Scenarios      `json:"scenarios"`
	MaxHoldTime float64        `json:"maxHoldTime"` // hours
	Warnings    []string       `json:"warnings,omitempty"`
}

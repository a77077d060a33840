package models

import "time"

type Recommendation string

const (
	RecommendBuy   Recommendation = "buy"
	RecommendSell  Recommendation = "sell"
	RecommendHold  Recommendation = "hold"
	RecommendAvoid Recommendation = "avoid"
)

type FinalVerdict struct {
	Recommendation   Recommendation `json:"recommendation"`
	Conviction       float64        `json:"conviction"` // 0..100
	Urgency          Urgency        `json:"urgency"`
	Summary          string         `json:"summary"`
	KeyRisks         []string       `json:"keyRisks"`
	KeyOpportunities []string       `json:"keyOpportunities"`
}

type CouncilRound struct {
	Round    int              `json:"round"`
	Opinions []CouncilOpinion `json:"opinions"`
}

type FusionAnalysis struct {
	Edge       EdgeCalculation `json:"edge"`
	Signals    []Signal        `json:"signals"`
	Rejected   []Signal        `json:"rejected,omitempty"`
	Patterns   []PatternMatch  `json:"patterns,omitempty"`
	TradeSetup TradeSetup      `json:"tradeSetup"`
}

type CouncilResult struct {
	Rounds    []CouncilRound `json:"rounds"`
	Consensus Consensus      `json:"consensus"`
}

type OutputMetadata struct {
	ProcessingTimeMs int64    `json:"processingTimeMs"`
	Sources          []string `json:"sources"`
	Version          string   `json:"version"`
	LedgerEntryID    string   `json:"ledgerEntryId,omitempty"`
}

// SignalFusionOutput is the complete result of one analysis.
type SignalFusionOutput struct {
	Query        string         `json:"query"`
	Asset        string         `json:"asset"`
	MarketType   MarketType     `json:"marketType"`
	Timestamp    time.Time      `json:"timestamp"`
	Analysis     FusionAnalysis `json:"analysis"`
	Council      CouncilResult  `json:"council"`
	FinalVerdict FinalVerdict   `json:"finalVerdict"`
	Metadata     OutputMetadata `json:"metadata"`
}

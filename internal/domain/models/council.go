package models

// SpecialistID names one council member. The set is closed.
type SpecialistID string

const (
	// market specialists
	SpecialistCrypto    SpecialistID = "crypto"
	SpecialistSolana    SpecialistID = "solana"
	SpecialistMeme      SpecialistID = "meme"
	SpecialistStock     SpecialistID = "stock"
	SpecialistPenny     SpecialistID = "penny"
	SpecialistCommodity SpecialistID = "commodity"
	SpecialistForex     SpecialistID = "forex"

	// skill specialists
	SpecialistChart     SpecialistID = "chart"
	SpecialistSentiment SpecialistID = "sentiment"
	SpecialistWhale     SpecialistID = "whale"
	SpecialistNews      SpecialistID = "news"
	SpecialistRisk      SpecialistID = "risk"
	SpecialistSafety    SpecialistID = "safety"
	SpecialistVolume    SpecialistID = "volume"
	SpecialistMacro     SpecialistID = "macro"
)

type SpecialistRole string

const (
	RoleMarket SpecialistRole = "market"
	RoleSkill  SpecialistRole = "skill"
)

type CouncilOpinion struct {
	Specialist SpecialistID   `json:"specialist"`
	Name       string         `json:"name"`
	Role       SpecialistRole `json:"role"`
	Round      int            `json:"round"`
	Stance     Direction      `json:"stance"`
	Confidence float64        `json:"confidence"`
	Reasoning  string         `json:"reasoning"`
	KeyPoints  []string       `json:"keyPoints,omitempty"`
	Concerns   []string       `json:"concerns,omitempty"`
}

type Consensus struct {
	Bullish  float64   `json:"bullish"`
	Bearish  float64   `json:"bearish"`
	Neutral  float64   `json:"neutral"`
	Score    float64   `json:"score"`
	Majority Direction `json:"majority"`
	Minority Direction `json:"minority,omitempty"`
}

// CouncilInput is everything a specialist may look at. Specialists never see
// each other's opinions.
type CouncilInput struct {
	Data    *SensorData
	Edge    EdgeCalculation
	Setup   TradeSetup
	Signals []Signal
}

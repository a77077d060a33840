package models

// Requests for the fusion HTTP endpoints. Defined in domain for reuse by the
// handlers and the CLI.

type AnalyzeRequest struct {
	Query  string     `json:"query" default:"analyze"`
	Record bool       `json:"record"`
	Data   SensorData `json:"data"`
}

type EntriesRequest struct {
	Asset      string `query:"asset" json:"asset"`
	MarketType string `query:"marketType" json:"marketType" validate:"omitempty,oneof=crypto solana meme stock penny commodity forex"`
	Outcome    string `query:"outcome" json:"outcome" validate:"omitempty,oneof=open win loss breakeven"`
	Since      string `query:"since" json:"since"`
	Until      string `query:"until" json:"until"`
	Limit      int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
}

type StatsRequest struct {
	Asset      string `query:"asset" json:"asset"`
	MarketType string `query:"marketType" json:"marketType" validate:"omitempty,oneof=crypto solana meme stock penny commodity forex"`
	Since      string `query:"since" json:"since"`
	Until      string `query:"until" json:"until"`
}

type OutcomeRequest struct {
	ID        string  `param:"id" json:"-" validate:"required"`
	Outcome   string  `json:"outcome" validate:"required,oneof=win loss breakeven"`
	ExitPrice float64 `json:"exitPrice" validate:"gt=0"`
	Notes     string  `json:"notes" validate:"max=500"`
}

// OutcomeReport is the payload consumed from the outcomes topic.
type OutcomeReport struct {
	EntryID   string  `json:"entryId"`
	Outcome   Outcome `json:"outcome"`
	ExitPrice float64 `json:"exitPrice"`
	Notes     string  `json:"notes,omitempty"`
}

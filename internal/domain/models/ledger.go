package models

import "time"

type Outcome string

const (
	OutcomeOpen      Outcome = "open"
	OutcomeWin       Outcome = "win"
	OutcomeLoss      Outcome = "loss"
	OutcomeBreakeven Outcome = "breakeven"
)

// Terminal reports whether the outcome closes an entry.
func (o Outcome) Terminal() bool {
	return o == OutcomeWin || o == OutcomeLoss || o == OutcomeBreakeven
}

// LedgerEntry is one recorded decision. Outcome moves from open to a
// terminal value exactly once. Return is nil while the entry is open and
// holds the realized return in percent afterwards.
type LedgerEntry struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	Asset      string          `json:"asset"`
	MarketType MarketType      `json:"marketType"`
	Signal     Signal          `json:"signal"`
	TradeSetup TradeSetup      `json:"tradeSetup"`
	Edge       EdgeCalculation `json:"edge"`
	EntryPrice *float64        `json:"entryPrice,omitempty"`
	ExitPrice  *float64        `json:"exitPrice,omitempty"`
	ExitTime   *time.Time      `json:"exitTime,omitempty"`
	Outcome    Outcome         `json:"outcome"`
	Return     *float64        `json:"return,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

func (e LedgerEntry) Closed() bool { return e.Outcome.Terminal() }

// EntryFilter narrows ledger reads. Zero values match everything. Since and
// Until bound the recording time, inclusive.
type EntryFilter struct {
	Asset      string
	MarketType MarketType
	Outcome    Outcome
	Since      time.Time
	Until      time.Time
	Limit      int
}

// Match reports whether the entry passes every filter except Limit, which
// the caller applies.
func (f EntryFilter) Match(e LedgerEntry) bool {
	if f.Asset != "" && f.Asset != e.Asset {
		return false
	}
	if f.MarketType != "" && f.MarketType != e.MarketType {
		return false
	}
	if f.Outcome != "" && f.Outcome != e.Outcome {
		return false
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && e.Timestamp.After(f.Until) {
		return false
	}
	return true
}

type PerformanceStats struct {
	TotalTrades  int     `json:"totalTrades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Breakevens   int     `json:"breakevens"`
	WinRate      float64 `json:"winRate"`
	AvgReturn    float64 `json:"avgReturn"`
	AvgWin       float64 `json:"avgWin"`
	AvgLoss      float64 `json:"avgLoss"`
	ProfitFactor float64 `json:"profitFactor"`
	MaxDrawdown  float64 `json:"maxDrawdown"`
	SharpeRatio  float64 `json:"sharpeRatio"`
	OpenTrades   int     `json:"openTrades"`
}

type SignalTypeStats struct {
	Type      SignalType `json:"type"`
	Trades    int        `json:"trades"`
	Wins      int        `json:"wins"`
	Losses    int        `json:"losses"`
	WinRate   float64    `json:"winRate"`
	AvgReturn float64    `json:"avgReturn"`
}

// ActiveEdge is a recorded decision whose edge has not fully decayed.
type ActiveEdge struct {
	EntryID    string          `json:"entryId"`
	Asset      string          `json:"asset"`
	MarketType MarketType      `json:"marketType"`
	Edge       EdgeCalculation `json:"edge"`
	StartedAt  time.Time       `json:"startedAt"`
	ExpiresAt  time.Time       `json:"expiresAt"`
	Validity   float64         `json:"validity"`
}

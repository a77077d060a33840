package patterns

import (
	"time"

	"SignalFusion/internal/domain/models"
)

// DefaultLibrary returns the built-in setups with their seeded track records.
// Callers get a fresh copy each time.
func DefaultLibrary() []models.Pattern {
	return []models.Pattern{
		{
			ID:          "breakout-volume",
			Name:        "Volume-Confirmed Breakout",
			Description: "Strong daily move on heavy volume with supportive crowd and flow",
			Conditions: []models.Condition{
				{Field: "price.change24h", Op: models.OpGT, Threshold: 5, Weight: 3},
				{Field: "price.volume24h", Op: models.OpGT, Threshold: 1_000_000, Weight: 3},
				{Field: "social.sentimentScore", Op: models.OpGT, Threshold: 0.3, Weight: 2},
				{Field: "whale.netFlow24h", Op: models.OpGT, Threshold: 100_000, Weight: 2},
			},
			HistoricalWins:   68,
			HistoricalLosses: 32,
			AvgReturn:        12.5,
			MaxDrawdown:      8,
			AvgHoldTime:      48 * time.Hour,
		},
		{
			ID:          "whale-accumulation",
			Name:        "Quiet Whale Accumulation",
			Description: "Large wallets absorbing supply while price is flat",
			Conditions: []models.Condition{
				{Field: "whale.accumulating", Op: models.OpEQ, Threshold: 1, Weight: 3},
				{Field: "whale.netFlow24h", Op: models.OpGT, Threshold: 50_000, Weight: 3},
				{Field: "price.change24h", Op: models.OpLT, Threshold: 3, Weight: 2},
				{Field: "price.change24h", Op: models.OpGT, Threshold: -5, Weight: 1},
			},
			HistoricalWins:   61,
			HistoricalLosses: 39,
			AvgReturn:        9.2,
			MaxDrawdown:      6.5,
			AvgHoldTime:      72 * time.Hour,
		},
		{
			ID:          "sentiment-surge",
			Name:        "Social Sentiment Surge",
			Description: "Mentions and sentiment accelerating ahead of price",
			Conditions: []models.Condition{
				{Field: "social.sentimentScore", Op: models.OpGT, Threshold: 0.6, Weight: 3},
				{Field: "social.mentionsChange", Op: models.OpGT, Threshold: 100, Weight: 3},
				{Field: "price.change24h", Op: models.OpGT, Threshold: 0, Weight: 2},
				{Field: "social.trending", Op: models.OpEQ, Threshold: 1, Weight: 1},
			},
			HistoricalWins:   55,
			HistoricalLosses: 45,
			AvgReturn:        7.8,
			MaxDrawdown:      11,
			AvgHoldTime:      24 * time.Hour,
		},
		{
			ID:          "capitulation-reversal",
			Name:        "Capitulation Reversal",
			Description: "Panic selling on extreme volume while smart money buys",
			Conditions: []models.Condition{
				{Field: "price.change24h", Op: models.OpLT, Threshold: -15, Weight: 3},
				{Field: "price.volumeChange", Op: models.OpGT, Threshold: 200, Weight: 2},
				{Field: "whale.netFlow24h", Op: models.OpGT, Threshold: 0, Weight: 3},
				{Field: "social.sentimentScore", Op: models.OpLT, Threshold: -0.5, Weight: 2},
			},
			HistoricalWins:   58,
			HistoricalLosses: 42,
			AvgReturn:        15.3,
			MaxDrawdown:      14,
			AvgHoldTime:      96 * time.Hour,
		},
		{
			ID:          "news-momentum",
			Name:        "News Catalyst Momentum",
			Description: "Positive catalyst with volume follow-through",
			Conditions: []models.Condition{
				{Field: "news.hasCatalyst", Op: models.OpEQ, Threshold: 1, Weight: 3},
				{Field: "news.sentimentScore", Op: models.OpGT, Threshold: 0.5, Weight: 2},
				{Field: "price.volumeChange", Op: models.OpGT, Threshold: 50, Weight: 2},
			},
			HistoricalWins:   57,
			HistoricalLosses: 43,
			AvgReturn:        6.4,
			MaxDrawdown:      5,
			AvgHoldTime:      36 * time.Hour,
		},
		{
			ID:          "distribution-rug",
			Name:        "Insider Distribution",
			Description: "Concentrated supply, unlocked liquidity and whales exiting",
			Conditions: []models.Condition{
				{Field: "onchain.holderConcentration", Op: models.OpGT, Threshold: 0.6, Weight: 3},
				{Field: "onchain.liquidityLocked", Op: models.OpEQ, Threshold: 0, Weight: 3},
				{Field: "whale.netFlow24h", Op: models.OpLT, Threshold: 0, Weight: 2},
				{Field: "onchain.devWalletPercent", Op: models.OpGT, Threshold: 10, Weight: 2},
			},
			HistoricalWins:   22,
			HistoricalLosses: 78,
			AvgReturn:        -35,
			MaxDrawdown:      80,
			AvgHoldTime:      12 * time.Hour,
		},
		{
			ID:          "macro-risk-off",
			Name:        "Macro Risk-Off",
			Description: "Volatility spike and strong dollar dragging risk assets",
			Conditions: []models.Condition{
				{Field: "macro.riskOn", Op: models.OpEQ, Threshold: 0, Weight: 2},
				{Field: "macro.vix", Op: models.OpGT, Threshold: 25, Weight: 3},
				{Field: "macro.dxyChange", Op: models.OpGT, Threshold: 0.5, Weight: 2},
				{Field: "price.change24h", Op: models.OpLT, Threshold: -3, Weight: 2},
			},
			HistoricalWins:   35,
			HistoricalLosses: 65,
			AvgReturn:        -6.1,
			MaxDrawdown:      12,
			AvgHoldTime:      120 * time.Hour,
		},
		{
			ID:          "pump-exhaustion",
			Name:        "Pump Exhaustion",
			Description: "Parabolic move with trending chatter while whales sell into it",
			Conditions: []models.Condition{
				{Field: "price.change24h", Op: models.OpGT, Threshold: 30, Weight: 3},
				{Field: "social.trending", Op: models.OpEQ, Threshold: 1, Weight: 2},
				{Field: "whale.netFlow24h", Op: models.OpLT, Threshold: 0, Weight: 3},
			},
			HistoricalWins:   30,
			HistoricalLosses: 70,
			AvgReturn:        -18,
			MaxDrawdown:      45,
			AvgHoldTime:      18 * time.Hour,
		},
	}
}

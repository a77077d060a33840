package edge

import (
	"fmt"
	"math"

	"SignalFusion/internal/domain/models"
)

const (
	entryBand      = 0.02
	maxKelly       = 0.25
	maxRiskPercent = 2
)

// target ladder: multiple of stop distance, probability factor, share exited
var ladder = []struct {
	multiple float64
	prob     float64
	exit     float64
}{
	{2, 0.9, 50},
	{4, 0.6, 30},
	{6, 0.3, 20},
}

// BuildTradeSetup turns an edge into a concrete plan around the snapshot's
// current price. Without a price every level is zero and a warning says so.
func (c *Calculator) BuildTradeSetup(e models.EdgeCalculation, data *models.SensorData) models.TradeSetup {
	price := data.CurrentPrice()

	// probabilities and sizing use the edge's win rate on both sides
	p := e.WinRate
	dir, side := models.Long, 1.0
	if p < 0.5 {
		dir, side = models.Short, -1.0
	}

	setup := models.TradeSetup{
		Direction: dir,
		Entry: models.EntryZone{
			Min:     price * (1 - entryBand),
			Max:     price * (1 + entryBand),
			Optimal: price,
			Urgency: entryUrgency(e.ConvictionScore),
		},
		StopLoss:    price * (1 - side*e.AvgLoss/100),
		MaxHoldTime: 2 * e.HalfLife,
	}

	dist := math.Abs(price - setup.StopLoss)
	setup.Targets = make([]models.Target, 0, len(ladder))
	for i, rung := range ladder {
		action := fmt.Sprintf("Take %.0f%% profit", rung.exit)
		if i == len(ladder)-1 {
			action = "Close remaining position"
		}
		setup.Targets = append(setup.Targets, models.Target{
			Price:       math.Max(0, price+side*rung.multiple*dist),
			Percentage:  rung.exit,
			Probability: clamp(p*rung.prob, 0, 1),
			Action:      action,
		})
	}

	kelly := KellyFraction(p, e.RiskReward)
	setup.Sizing = models.PositionSizing{
		PortfolioPercent: kelly * 100,
		MaxRiskPercent:   maxRiskPercent,
		KellyFraction:    kelly,
		Confidence:       clamp(e.ConvictionScore/10, 0, 1),
	}

	setup.Scenarios = models.Scenarios{
		Bull: models.Scenario{
			Probability: p * 0.4,
			Target:      setup.Targets[2].Price,
			Timeline:    e.HalfLife,
			Description: "Full ladder fills as the move extends",
		},
		Base: models.Scenario{
			Probability: p,
			Target:      setup.Targets[0].Price,
			Timeline:    e.HalfLife * 0.7,
			Description: "First target reached before the edge decays",
		},
		Bear: models.Scenario{
			Probability: 1 - p,
			Target:      setup.StopLoss,
			Timeline:    e.HalfLife * 0.5,
			Description: "Thesis fails and the stop is hit",
		},
	}

	setup.Warnings = warnings(e, data)
	if price <= 0 {
		setup.Warnings = append(setup.Warnings, "No current price in snapshot, trade levels unavailable")
	}
	return setup
}

// KellyFraction is half of the Kelly bet (b*p - q)/b, capped to [0, 0.25].
func KellyFraction(p, b float64) float64 {
	if b <= 0 || math.IsNaN(p) {
		return 0
	}
	p = clamp(p, 0, 1)
	k := (b*p - (1 - p)) / b / 2
	return clamp(k, 0, maxKelly)
}

func entryUrgency(conviction float64) models.Urgency {
	switch {
	case conviction > 7:
		return models.UrgencyImmediate
	case conviction > 4:
		return models.UrgencySoon
	}
	return models.UrgencyPatient
}

func warnings(e models.EdgeCalculation, data *models.SensorData) []string {
	var out []string
	if e.WinRate < 0.5 {
		out = append(out, fmt.Sprintf("Win rate %.0f%% is below 50%%", e.WinRate*100))
	}
	if e.ExpectedValue < 2 {
		out = append(out, fmt.Sprintf("Expected value %.2f%% is thin", e.ExpectedValue))
	}
	if data != nil {
		switch data.MarketType.RiskProfile() {
		case models.MarketPenny:
			out = append(out, "Penny-class asset: extreme volatility and manipulation risk")
		case models.MarketCrypto:
			out = append(out, "Crypto asset: 24/7 market with sharp drawdowns")
		}
	}
	if e.HalfLife < 12 {
		out = append(out, fmt.Sprintf("Edge half-life of %.1fh is short, act quickly or pass", e.HalfLife))
	}
	return out
}

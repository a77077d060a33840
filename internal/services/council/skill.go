package council

import (
	"fmt"
	"math"

	"SignalFusion/internal/domain/models"
)

// skillSpecialists run in this order in round two.
var skillSpecialists = []Specialist{
	{ID: models.SpecialistChart, Name: "Chart Technician", Role: models.RoleSkill, Applies: always, Opine: chartOpinion},
	{ID: models.SpecialistRisk, Name: "Risk Manager", Role: models.RoleSkill, Applies: always, Opine: riskOpinion},
	{ID: models.SpecialistVolume, Name: "Liquidity Analyst", Role: models.RoleSkill, Applies: always, Opine: volumeOpinion},
	{ID: models.SpecialistSentiment, Name: "Sentiment Reader", Role: models.RoleSkill, Applies: func(d *models.SensorData) bool { return d.Social != nil }, Opine: sentimentOpinion},
	{ID: models.SpecialistWhale, Name: "Whale Watcher", Role: models.RoleSkill, Applies: func(d *models.SensorData) bool { return d.Whale != nil }, Opine: whaleOpinion},
	{ID: models.SpecialistNews, Name: "News Desk", Role: models.RoleSkill, Applies: func(d *models.SensorData) bool { return d.News != nil }, Opine: newsOpinion},
	{ID: models.SpecialistMacro, Name: "Macro Strategist", Role: models.RoleSkill, Applies: func(d *models.SensorData) bool { return d.Macro != nil }, Opine: macroOpinion},
	{ID: models.SpecialistSafety, Name: "Contract Auditor", Role: models.RoleSkill, Applies: func(d *models.SensorData) bool { return d.OnChain != nil }, Opine: safetyOpinion},
}

// SkillSpecialistsFor returns the skill specialists that sit for a snapshot.
func SkillSpecialistsFor(data *models.SensorData) []Specialist {
	if data == nil {
		data = &models.SensorData{}
	}
	out := make([]Specialist, 0, len(skillSpecialists))
	for _, s := range skillSpecialists {
		if s.Applies(data) {
			out = append(out, s)
		}
	}
	return out
}

func chartOpinion(in models.CouncilInput) models.CouncilOpinion {
	p := in.Data.Price
	if p == nil {
		return models.CouncilOpinion{
			Stance:     models.Neutral,
			Confidence: 0.2,
			Reasoning:  "No price data to read a chart from.",
			Concerns:   []string{"Price history unavailable"},
		}
	}
	var stance models.Direction
	switch {
	case p.Change24h > 2 && p.Change7d >= 0:
		stance = models.Bullish
	case p.Change24h < -2:
		stance = models.Bearish
	case in.Edge.WinRate > 0.55:
		stance = models.Bullish
	case in.Edge.WinRate < 0.45:
		stance = models.Bearish
	default:
		stance = models.Neutral
	}
	technical := countSignals(in.Signals, models.SignalPriceAction, models.SignalPatternMatch)
	op := models.CouncilOpinion{
		Stance:     stance,
		Confidence: math.Min(0.9, 0.4+0.1*float64(technical)),
		Reasoning: fmt.Sprintf("Price %+.1f%% on the day and %+.1f%% on the week with %d technical signal(s).",
			p.Change24h, p.Change7d, technical),
	}
	if hasSignal(in.Signals, models.SignalPatternMatch) {
		op.KeyPoints = append(op.KeyPoints, "Historical pattern confirmed on the chart")
	}
	if p.High24h > 0 && p.Current >= p.High24h*0.98 {
		op.KeyPoints = append(op.KeyPoints, "Trading at the top of the daily range")
	}
	if p.Change24h > 2 && p.Change7d < 0 {
		op.Concerns = append(op.Concerns, "Daily bounce inside a weekly downtrend")
	}
	return op
}

func riskOpinion(in models.CouncilInput) models.CouncilOpinion {
	e, s := in.Edge, in.Setup
	var stance models.Direction
	switch {
	case e.ExpectedValue < 0:
		stance = models.Bearish
	case e.RiskReward >= 2 && s.Sizing.KellyFraction > 0:
		stance = models.Bullish
	default:
		stance = models.Neutral
	}
	op := models.CouncilOpinion{
		Stance:     stance,
		Confidence: clamp(e.ConvictionScore/10, 0, 1),
		Reasoning: fmt.Sprintf("Risk/reward %.2f:1, Kelly sizing %.1f%% of portfolio, max risk %.0f%%.",
			e.RiskReward, s.Sizing.PortfolioPercent, s.Sizing.MaxRiskPercent),
		KeyPoints: []string{fmt.Sprintf("Risk/reward of %.1f:1", e.RiskReward)},
	}
	if s.Sizing.KellyFraction == 0 {
		op.Concerns = append(op.Concerns, "Kelly says no position")
	}
	for i, w := range s.Warnings {
		if i == 2 {
			break
		}
		op.Concerns = append(op.Concerns, w)
	}
	return op
}

func volumeOpinion(in models.CouncilInput) models.CouncilOpinion {
	p := in.Data.Price
	if p == nil {
		return models.CouncilOpinion{
			Stance:     models.Neutral,
			Confidence: 0.2,
			Reasoning:  "No volume or liquidity figures available.",
			Concerns:   []string{"Liquidity unknown"},
		}
	}
	stance := models.Neutral
	if p.VolumeChange > 50 {
		switch {
		case p.Change24h > 0:
			stance = models.Bullish
		case p.Change24h < 0:
			stance = models.Bearish
		}
	}
	op := models.CouncilOpinion{
		Stance:     stance,
		Confidence: clamp(0.3+p.VolumeChange/500, 0.3, 0.8),
		Reasoning: fmt.Sprintf("24h volume %s (%+.0f%%), liquidity %s.",
			usd(p.Volume24h), p.VolumeChange, usd(p.Liquidity)),
	}
	if p.Volume24h > 1_000_000 {
		op.KeyPoints = append(op.KeyPoints, "Volume deep enough to confirm the move")
	}
	if p.Volume24h < 500_000 && p.Liquidity < 500_000 {
		op.Concerns = append(op.Concerns, "Thin liquidity, slippage will eat the edge")
	}
	return op
}

func sentimentOpinion(in models.CouncilInput) models.CouncilOpinion {
	s := in.Data.Social
	score := s.SentimentScore
	stance := models.Neutral
	switch {
	case score > 0.3:
		stance = models.Bullish
	case score < -0.3:
		stance = models.Bearish
	}
	op := models.CouncilOpinion{
		Stance:     stance,
		Confidence: clamp(0.3+math.Abs(score)*0.5, 0, 1),
		Reasoning:  fmt.Sprintf("Sentiment %.2f on %.0f mentions (%+.0f%%).", score, s.Mentions24h, s.MentionsChange),
	}
	if score > 0.3 {
		op.KeyPoints = append(op.KeyPoints, "Crowd leaning bullish")
	}
	if math.Abs(score) > 0.85 {
		op.Concerns = append(op.Concerns, "Sentiment at an extreme, contrarian risk")
	}
	return op
}

func whaleOpinion(in models.CouncilInput) models.CouncilOpinion {
	w := in.Data.Whale
	stance := models.Neutral
	switch {
	case w.NetFlow24h > 0 || (w.NetFlow24h == 0 && w.Accumulating):
		stance = models.Bullish
	case w.NetFlow24h < 0:
		stance = models.Bearish
	}
	op := models.CouncilOpinion{
		Stance:     stance,
		Confidence: math.Min(0.9, 0.4+math.Abs(w.NetFlow24h)/1_000_000),
		Reasoning:  fmt.Sprintf("Whale net flow %s over 24h across %.0f large transactions.", usd(w.NetFlow24h), w.LargeTransactions),
	}
	if w.Accumulating {
		op.KeyPoints = append(op.KeyPoints, "Large wallets accumulating")
	}
	if w.NetFlow24h < -100_000 {
		op.Concerns = append(op.Concerns, "Smart money is exiting")
	}
	return op
}

func newsOpinion(in models.CouncilInput) models.CouncilOpinion {
	n := in.Data.News
	stance := models.Neutral
	switch {
	case n.SentimentScore > 0.2:
		stance = models.Bullish
	case n.SentimentScore < -0.2:
		stance = models.Bearish
	}
	op := models.CouncilOpinion{
		Stance:     stance,
		Confidence: clamp(0.4+math.Abs(n.SentimentScore)*0.4, 0, 1),
		Reasoning:  fmt.Sprintf("%.0f articles with sentiment %.2f.", n.ArticleCount, n.SentimentScore),
	}
	if n.HasCatalyst {
		op.KeyPoints = append(op.KeyPoints, "Fresh catalyst in the news flow")
	}
	if n.ArticleCount == 0 {
		op.Concerns = append(op.Concerns, "No coverage to confirm the move")
	}
	return op
}

func macroOpinion(in models.CouncilInput) models.CouncilOpinion {
	m := in.Data.Macro
	stance := models.Neutral
	switch {
	case !m.RiskOn || m.VIX > 30:
		stance = models.Bearish
	case m.VIX < 20:
		stance = models.Bullish
	}
	op := models.CouncilOpinion{
		Stance:     stance,
		Confidence: 0.5,
		Reasoning:  fmt.Sprintf("VIX %.1f, DXY %+.2f%%, rates %s, risk-on=%t.", m.VIX, m.DXYChange, m.RateDirection, m.RiskOn),
	}
	if m.RiskOn {
		op.KeyPoints = append(op.KeyPoints, "Macro backdrop is risk-on")
	} else {
		op.Concerns = append(op.Concerns, "Macro backdrop is risk-off")
	}
	return op
}

func safetyOpinion(in models.CouncilInput) models.CouncilOpinion {
	oc := in.Data.OnChain
	var concerns []string
	if oc.HolderConcentration >= 0.6 {
		concerns = append(concerns, fmt.Sprintf("Top holders control %.0f%% of supply", oc.HolderConcentration*100))
	}
	if oc.MintAuthority {
		concerns = append(concerns, "Mint authority still active")
	}
	if !oc.LiquidityLocked {
		concerns = append(concerns, "Liquidity not locked")
	}
	if oc.DevWalletPercent > 20 {
		concerns = append(concerns, fmt.Sprintf("Developer wallet holds %.1f%%", oc.DevWalletPercent))
	}
	if !oc.ContractVerified {
		concerns = append(concerns, "Contract source not verified")
	}

	op := models.CouncilOpinion{Concerns: concerns}
	switch {
	case oc.HolderConcentration >= 0.6 || oc.MintAuthority || len(concerns) >= 3:
		op.Stance = models.Bearish
		op.Confidence = 0.85
		op.Reasoning = "Rug-check failed, supply or contract can be used against holders."
	case len(concerns) == 0 && oc.HolderConcentration < 0.3:
		op.Stance = models.Bullish
		op.Confidence = 0.6
		op.Reasoning = "Rug-check clean with distributed supply."
		op.KeyPoints = []string{"Liquidity locked and contract verified"}
	default:
		op.Stance = models.Neutral
		op.Confidence = 0.5
		op.Reasoning = "Rug-check passed with reservations."
	}
	return op
}

package council

import (
	"fmt"

	"SignalFusion/internal/domain/models"
)

// EV hurdles a market specialist wants cleared before turning bullish.
const (
	cryptoHurdle    = 3.0
	solanaHurdle    = 3.0
	memeHurdle      = 5.0
	stockHurdle     = 1.5
	pennyHurdle     = 6.0
	commodityHurdle = 1.0
	forexHurdle     = 0.5
)

var marketSpecialists = map[models.SpecialistID]Specialist{
	models.SpecialistCrypto:    {ID: models.SpecialistCrypto, Name: "Crypto Strategist", Role: models.RoleMarket, Applies: always, Opine: cryptoOpinion},
	models.SpecialistSolana:    {ID: models.SpecialistSolana, Name: "Solana Ecosystem Analyst", Role: models.RoleMarket, Applies: always, Opine: solanaOpinion},
	models.SpecialistMeme:      {ID: models.SpecialistMeme, Name: "Meme Coin Scout", Role: models.RoleMarket, Applies: always, Opine: memeOpinion},
	models.SpecialistStock:     {ID: models.SpecialistStock, Name: "Equity Analyst", Role: models.RoleMarket, Applies: always, Opine: stockOpinion},
	models.SpecialistPenny:     {ID: models.SpecialistPenny, Name: "Penny Stock Hunter", Role: models.RoleMarket, Applies: always, Opine: pennyOpinion},
	models.SpecialistCommodity: {ID: models.SpecialistCommodity, Name: "Commodities Trader", Role: models.RoleMarket, Applies: always, Opine: commodityOpinion},
	models.SpecialistForex:     {ID: models.SpecialistForex, Name: "FX Desk", Role: models.RoleMarket, Applies: always, Opine: forexOpinion},
}

// MarketSpecialistFor looks up the specialist covering a market type. The
// caller decides what to do when nothing covers it.
func MarketSpecialistFor(m models.MarketType) (Specialist, bool) {
	s, ok := marketSpecialists[models.SpecialistID(m)]
	return s, ok
}

func cryptoOpinion(in models.CouncilInput) models.CouncilOpinion {
	e := in.Edge
	stance := stanceFromEV(e.ExpectedValue, cryptoHurdle)
	op := models.CouncilOpinion{
		Stance:     stance,
		Confidence: e.ConvictionScore / 10,
		Reasoning:  evReasoning("Crypto", e, cryptoHurdle, stance),
	}
	if w := in.Data.Whale; w != nil {
		if w.Accumulating || w.NetFlow24h > 0 {
			op.KeyPoints = append(op.KeyPoints, fmt.Sprintf("Whale net inflow %s", usd(w.NetFlow24h)))
		} else if w.NetFlow24h < 0 {
			op.Concerns = append(op.Concerns, fmt.Sprintf("Whales distributing %s", usd(w.NetFlow24h)))
		}
	}
	if p := in.Data.Price; p != nil && p.Volume24h > 1_000_000 {
		op.KeyPoints = append(op.KeyPoints, fmt.Sprintf("Healthy 24h volume of %s", usd(p.Volume24h)))
	}
	if s := in.Data.Social; s != nil && s.SentimentScore > 0.85 {
		op.Concerns = append(op.Concerns, "Crowd euphoria often precedes crypto tops")
	}
	op.Concerns = append(op.Concerns, "Round-the-clock market, gaps through stops are common")
	return op
}

func solanaOpinion(in models.CouncilInput) models.CouncilOpinion {
	e := in.Edge
	stance := stanceFromEV(e.ExpectedValue, solanaHurdle)
	op := models.CouncilOpinion{
		Stance:     stance,
		Confidence: e.ConvictionScore / 10 * 0.95,
		Reasoning:  evReasoning("Solana", e, solanaHurdle, stance),
	}
	if oc := in.Data.OnChain; oc != nil {
		if oc.TxCount24h > 10_000 {
			op.KeyPoints = append(op.KeyPoints, fmt.Sprintf("Active on-chain usage, %.0f tx in 24h", oc.TxCount24h))
		}
		if oc.MintAuthority {
			op.Concerns = append(op.Concerns, "Mint authority not revoked")
		}
		if !oc.LiquidityLocked {
			op.Concerns = append(op.Concerns, "Pool liquidity is not locked")
		}
	}
	if p := in.Data.Price; p != nil && p.Liquidity > 0 && p.Liquidity < 250_000 {
		op.Concerns = append(op.Concerns, fmt.Sprintf("Shallow DEX liquidity of %s", usd(p.Liquidity)))
	}
	return op
}

func memeOpinion(in models.CouncilInput) models.CouncilOpinion {
	e := in.Edge
	stance := stanceFromEV(e.ExpectedValue, memeHurdle)
	op := models.CouncilOpinion{
		Stance:     stance,
		Confidence: e.ConvictionScore / 10 * 0.8,
		Reasoning:  evReasoning("Meme", e, memeHurdle, stance),
	}
	if s := in.Data.Social; s != nil {
		if s.Trending {
			op.KeyPoints = append(op.KeyPoints, "Trending on social feeds")
		}
		if s.MentionsChange > 100 {
			op.KeyPoints = append(op.KeyPoints, fmt.Sprintf("Mentions up %.0f%%", s.MentionsChange))
		}
	} else {
		op.Concerns = append(op.Concerns, "No social read on a narrative-driven asset")
	}
	if oc := in.Data.OnChain; oc != nil {
		if oc.HolderConcentration > 0.5 {
			op.Concerns = append(op.Concerns, fmt.Sprintf("Top holders own %.0f%% of supply", oc.HolderConcentration*100))
		}
		if oc.DevWalletPercent > 10 {
			op.Concerns = append(op.Concerns, fmt.Sprintf("Dev wallet holds %.1f%%", oc.DevWalletPercent))
		}
	}
	op.Concerns = append(op.Concerns, "Meme tokens can lose most of their value in hours")
	return op
}

func stockOpinion(in models.CouncilInput) models.CouncilOpinion {
	e := in.Edge
	stance := stanceFromEV(e.ExpectedValue, stockHurdle)
	op := models.CouncilOpinion{
		Stance:     stance,
		Confidence: e.ConvictionScore / 10,
		Reasoning:  evReasoning("Equities", e, stockHurdle, stance),
	}
	if m := in.Data.Macro; m != nil {
		if m.RiskOn {
			op.KeyPoints = append(op.KeyPoints, "Risk-on tape supports equities")
		}
		if m.SPXChange > 0 {
			op.KeyPoints = append(op.KeyPoints, fmt.Sprintf("Index up %.2f%%", m.SPXChange))
		}
		if m.VIX > 25 {
			op.Concerns = append(op.Concerns, fmt.Sprintf("VIX elevated at %.1f", m.VIX))
			op.Confidence *= 0.85
		}
	}
	if n := in.Data.News; n != nil && n.HasCatalyst {
		op.KeyPoints = append(op.KeyPoints, "Company-specific catalyst in the news")
	}
	return op
}

func pennyOpinion(in models.CouncilInput) models.CouncilOpinion {
	e := in.Edge
	stance := stanceFromEV(e.ExpectedValue, pennyHurdle)
	op := models.CouncilOpinion{
		Stance:     stance,
		Confidence: e.ConvictionScore / 10 * 0.7,
		Reasoning:  evReasoning("Penny stocks", e, pennyHurdle, stance),
	}
	if p := in.Data.Price; p != nil {
		if p.Volume24h < 500_000 && p.Liquidity < 500_000 {
			op.Concerns = append(op.Concerns, "Volume too thin to exit cleanly")
		}
		if p.VolumeChange > 300 {
			op.KeyPoints = append(op.KeyPoints, fmt.Sprintf("Volume up %.0f%%, something is moving it", p.VolumeChange))
		}
	}
	op.Concerns = append(op.Concerns, "Pump-and-dump risk is structural in this class")
	return op
}

func commodityOpinion(in models.CouncilInput) models.CouncilOpinion {
	e := in.Edge
	stance := stanceFromEV(e.ExpectedValue, commodityHurdle)
	op := models.CouncilOpinion{
		Stance:     stance,
		Confidence: e.ConvictionScore / 10 * 0.9,
		Reasoning:  evReasoning("Commodities", e, commodityHurdle, stance),
	}
	if m := in.Data.Macro; m != nil {
		switch {
		case m.DXYChange < 0:
			op.KeyPoints = append(op.KeyPoints, "Weaker dollar is a tailwind for commodities")
		case m.DXYChange > 0.5:
			op.Concerns = append(op.Concerns, fmt.Sprintf("Dollar strength (+%.2f%%) weighs on prices", m.DXYChange))
		}
	}
	return op
}

func forexOpinion(in models.CouncilInput) models.CouncilOpinion {
	e := in.Edge
	stance := stanceFromEV(e.ExpectedValue, forexHurdle)
	op := models.CouncilOpinion{
		Stance:     stance,
		Confidence: e.ConvictionScore / 10 * 0.9,
		Reasoning:  evReasoning("FX", e, forexHurdle, stance),
	}
	if m := in.Data.Macro; m != nil {
		if m.RateDirection != "" && m.RateDirection != "flat" {
			op.KeyPoints = append(op.KeyPoints, fmt.Sprintf("Rate path trending %s", m.RateDirection))
		}
		if m.DXYChange != 0 {
			op.KeyPoints = append(op.KeyPoints, fmt.Sprintf("DXY moved %+.2f%%", m.DXYChange))
		}
	}
	op.Concerns = append(op.Concerns, "Leverage magnifies small adverse moves")
	return op
}

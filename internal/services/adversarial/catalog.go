package adversarial

import (
	"time"

	"SignalFusion/internal/domain/models"
)

const (
	minConfirmVolume   = 1_000_000
	minLiquidity       = 500_000
	maxConcentration   = 0.6
	euphoriaSentiment  = 0.85
	divergentWhaleFlow = 100_000
	exhaustedMove      = 50 // percent over 24h
	lowConfidence      = 0.3
	stressedVIX        = 30
)

// DefaultCatalog builds the standard battery. now supplies the clock for
// expiry checks.
func DefaultCatalog(now func() time.Time) []models.AdversarialTest {
	return []models.AdversarialTest{
		{
			ID:          "bull-trap",
			Name:        "Bull Trap",
			Severity:    models.SeverityCritical,
			Explanation: "A bullish price move must be backed by more than $1M volume or whale accumulation.",
			Check:       bullTrap,
		},
		{
			ID:          "liquidity-test",
			Name:        "Liquidity Test",
			Severity:    models.SeverityCritical,
			Explanation: "Liquidity or 24h volume must exceed $500k for a position to be exitable.",
			Check:       liquidityTest,
		},
		{
			ID:          "rug-pull",
			Name:        "Rug Pull Risk",
			Severity:    models.SeverityCritical,
			Explanation: "Top holders must control less than 60% of supply.",
			Check:       rugPull,
		},
		{
			ID:          "signal-expired",
			Name:        "Stale Signal",
			Severity:    models.SeverityCritical,
			Explanation: "A signal past its expiry carries no information.",
			Check: func(sig models.Signal, _ *models.SensorData) models.TestOutcome {
				if sig.Expiry.IsZero() {
					return models.TestNotApplicable
				}
				return passIf(now().Before(sig.Expiry))
			},
		},
		{
			ID:          "sentiment-extreme",
			Name:        "Sentiment Extreme",
			Severity:    models.SeverityWarning,
			Explanation: "Crowd euphoria or panic in the signal's direction tends to mark reversals.",
			Check:       sentimentExtreme,
		},
		{
			ID:          "whale-divergence",
			Name:        "Whale Divergence",
			Severity:    models.SeverityWarning,
			Explanation: "Large wallets trading against the signal undermine it.",
			Check:       whaleDivergence,
		},
		{
			ID:          "pump-exhaustion",
			Name:        "Pump Exhaustion",
			Severity:    models.SeverityWarning,
			Explanation: "Chasing a move of more than 50% in a day rarely pays.",
			Check:       pumpExhaustion,
		},
		{
			ID:          "contract-safety",
			Name:        "Contract Safety",
			Severity:    models.SeverityWarning,
			Explanation: "Unverified contracts or live mint authority allow supply manipulation.",
			Check:       contractSafety,
		},
		{
			ID:          "low-confidence",
			Name:        "Low Confidence",
			Severity:    models.SeverityInfo,
			Explanation: "Signals under 30% confidence are noise more often than not.",
			Check: func(sig models.Signal, _ *models.SensorData) models.TestOutcome {
				return passIf(sig.Confidence >= lowConfidence)
			},
		},
		{
			ID:          "macro-headwind",
			Name:        "Macro Headwind",
			Severity:    models.SeverityInfo,
			Explanation: "Bullish calls fight the tape when markets are risk-off and VIX is above 30.",
			Check:       macroHeadwind,
		},
	}
}

func bullTrap(sig models.Signal, data *models.SensorData) models.TestOutcome {
	if sig.Type != models.SignalPriceAction || sig.Direction != models.Bullish || data.Price == nil {
		return models.TestNotApplicable
	}
	if data.Price.Volume24h > minConfirmVolume {
		return models.TestPass
	}
	if w := data.Whale; w != nil && (w.Accumulating || w.NetFlow24h > 0) {
		return models.TestPass
	}
	return models.TestFail
}

func liquidityTest(_ models.Signal, data *models.SensorData) models.TestOutcome {
	if data.Price == nil {
		return models.TestNotApplicable
	}
	return passIf(data.Price.Liquidity > minLiquidity || data.Price.Volume24h > minLiquidity)
}

func rugPull(_ models.Signal, data *models.SensorData) models.TestOutcome {
	if data.OnChain == nil {
		return models.TestNotApplicable
	}
	return passIf(data.OnChain.HolderConcentration < maxConcentration)
}

func sentimentExtreme(sig models.Signal, data *models.SensorData) models.TestOutcome {
	if data.Social == nil || sig.Direction == models.Neutral {
		return models.TestNotApplicable
	}
	s := data.Social.SentimentScore
	switch sig.Direction {
	case models.Bullish:
		return passIf(s <= euphoriaSentiment)
	default:
		return passIf(s >= -euphoriaSentiment)
	}
}

func whaleDivergence(sig models.Signal, data *models.SensorData) models.TestOutcome {
	if data.Whale == nil || sig.Direction == models.Neutral || sig.Type == models.SignalWhaleMovement {
		return models.TestNotApplicable
	}
	flow := data.Whale.NetFlow24h
	if sig.Direction == models.Bullish {
		return passIf(flow > -divergentWhaleFlow)
	}
	return passIf(flow < divergentWhaleFlow)
}

func pumpExhaustion(sig models.Signal, data *models.SensorData) models.TestOutcome {
	if data.Price == nil || sig.Direction != models.Bullish {
		return models.TestNotApplicable
	}
	return passIf(data.Price.Change24h <= exhaustedMove)
}

func contractSafety(_ models.Signal, data *models.SensorData) models.TestOutcome {
	if data.OnChain == nil {
		return models.TestNotApplicable
	}
	return passIf(data.OnChain.ContractVerified && !data.OnChain.MintAuthority)
}

func macroHeadwind(sig models.Signal, data *models.SensorData) models.TestOutcome {
	if data.Macro == nil || sig.Direction != models.Bullish {
		return models.TestNotApplicable
	}
	return passIf(data.Macro.RiskOn || data.Macro.VIX <= stressedVIX)
}

func passIf(ok bool) models.TestOutcome {
	if ok {
		return models.TestPass
	}
	return models.TestFail
}

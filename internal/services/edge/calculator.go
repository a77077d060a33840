package edge

import (
	"math"

	"SignalFusion/internal/domain/models"
	"SignalFusion/internal/domain/service"
	xlogger "SignalFusion/pkg/logger"
)

var _ service.EdgeEstimator = (*Calculator)(nil)

// profile holds the return and decay bases of one asset class.
type profile struct {
	avgWin   float64 // percent
	avgLoss  float64 // percent
	halfLife float64 // hours
}

var profiles = map[models.MarketType]profile{
	models.MarketCrypto:    {avgWin: 25, avgLoss: 8, halfLife: 24},
	models.MarketStock:     {avgWin: 15, avgLoss: 5, halfLife: 72},
	models.MarketForex:     {avgWin: 2, avgLoss: 1, halfLife: 12},
	models.MarketCommodity: {avgWin: 10, avgLoss: 4, halfLife: 48},
	models.MarketPenny:     {avgWin: 50, avgLoss: 20, halfLife: 168},
}

// half-life multipliers, compounded when several signal kinds are present
var decayFactors = map[models.SignalType]float64{
	models.SignalSocialSentiment: 0.7,
	models.SignalWhaleMovement:   1.2,
	models.SignalNewsCatalyst:    0.8,
}

func profileFor(m models.MarketType) profile {
	return profiles[m.RiskProfile()]
}

type Calculator struct {
	logger *xlogger.Logger
}

func NewCalculator(logger *xlogger.Logger) *Calculator {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &Calculator{logger: logger}
}

// Calculate folds validated signals and the best pattern match into an edge.
func (c *Calculator) Calculate(signals []models.Signal, top *models.PatternMatch, market models.MarketType) models.EdgeCalculation {
	prior := BaseWinRate(signals)
	winRate := prior
	if top != nil {
		winRate = BayesianUpdate(prior, top.Pattern, top.MatchScore)
	}

	prof := profileFor(market)
	scale := strengthScale(signals)
	e := Evaluate(winRate, prof.avgWin*scale, prof.avgLoss*scale)

	conviction := 5 + 0.5*float64(distinctTypes(signals)) + 0.5*e.ExpectedValue
	if top != nil {
		conviction += 2 * top.MatchScore
	}
	e.ConvictionScore = clamp(conviction, 0, 10)
	e.HalfLife = HalfLife(market, signals)

	c.logger.Debug("edge calculated",
		xlogger.Float64("prior", prior),
		xlogger.Float64("win_rate", e.WinRate),
		xlogger.Float64("ev", e.ExpectedValue),
		xlogger.Float64("conviction", e.ConvictionScore),
		xlogger.Float64("half_life_h", e.HalfLife),
	)
	return e
}

// Evaluate derives risk/reward and expected value from a win rate and the
// average win and loss percentages.
func Evaluate(winRate, avgWin, avgLoss float64) models.EdgeCalculation {
	winRate = clamp(winRate, 0, 1)
	avgLoss = math.Abs(avgLoss)
	e := models.EdgeCalculation{
		WinRate: winRate,
		AvgWin:  avgWin,
		AvgLoss: avgLoss,
	}
	if avgLoss > 0 {
		e.RiskReward = avgWin / avgLoss
	}
	e.ExpectedValue = winRate*avgWin - (1-winRate)*avgLoss
	e.EdgeExists = e.ExpectedValue > 0
	return e
}

// BaseWinRate maps the confidence*strength weighted mean direction of the
// signals from [-1,1] onto [0.2,0.8]. No usable weight gives 0.5.
func BaseWinRate(signals []models.Signal) float64 {
	var sum, weight float64
	for _, s := range signals {
		w := s.Weight()
		sum += w * s.Direction.Sign()
		weight += w
	}
	if weight <= 0 {
		return 0.5
	}
	return 0.5 + 0.3*clamp(sum/weight, -1, 1)
}

// BayesianUpdate blends the prior with the pattern-conditioned posterior in
// proportion to the match score. Patterns without outcomes leave the prior
// untouched.
func BayesianUpdate(prior float64, p models.Pattern, matchScore float64) float64 {
	pWin, ok := p.WinRate()
	if !ok {
		return prior
	}
	evidence := pWin*prior + (1-pWin)*(1-prior)
	if evidence <= 0 {
		return prior
	}
	blend := clamp(matchScore, 0, 1)
	posterior := pWin * prior / evidence
	return clamp(prior*(1-blend)+blend*posterior, 0, 1)
}

// HalfLife returns the edge half-life in hours.
func HalfLife(market models.MarketType, signals []models.Signal) float64 {
	hl := profileFor(market).halfLife
	seen := make(map[models.SignalType]bool, len(decayFactors))
	for _, s := range signals {
		f, ok := decayFactors[s.Type]
		if !ok || seen[s.Type] {
			continue
		}
		seen[s.Type] = true
		hl *= f
	}
	return hl
}

// strengthScale is the mean signal strength over 5, kept within [0.2, 2].
func strengthScale(signals []models.Signal) float64 {
	if len(signals) == 0 {
		return 1
	}
	var sum float64
	for _, s := range signals {
		sum += s.Strength
	}
	return clamp(sum/float64(len(signals))/5, 0.2, 2)
}

func distinctTypes(signals []models.Signal) int {
	seen := make(map[models.SignalType]struct{}, len(signals))
	for _, s := range signals {
		seen[s.Type] = struct{}{}
	}
	return len(seen)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

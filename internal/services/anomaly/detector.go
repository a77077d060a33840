package anomaly

import (
	"math"
	"time"

	"SignalFusion/internal/domain/models"
	"SignalFusion/internal/domain/service"
	"SignalFusion/internal/services/features"
	xlogger "SignalFusion/pkg/logger"

	"github.com/google/uuid"
)

var _ service.SignalDetector = (*Detector)(nil)

const (
	priceMoveThreshold    = 5.0    // percent over 24h
	volumeSurgeThreshold  = 100.0  // percent
	sentimentThreshold    = 0.5    // |score|
	mentionSpikeThreshold = 200.0  // percent
	whaleFlowThreshold    = 50_000 // USD
	concentrationRisk     = 0.6
	devWalletRisk         = 20.0 // percent of supply
)

// lifetimes per signal type
var signalTTL = map[models.SignalType]time.Duration{
	models.SignalPriceAction:     12 * time.Hour,
	models.SignalVolumeAnomaly:   6 * time.Hour,
	models.SignalSocialSentiment: 8 * time.Hour,
	models.SignalWhaleMovement:   24 * time.Hour,
	models.SignalNewsCatalyst:    24 * time.Hour,
	models.SignalOnChain:         72 * time.Hour,
	models.SignalMacroShift:      48 * time.Hour,
}

type Option func(*Detector)

// WithOutlierWindow sets how many trailing returns form the z-score baseline.
func WithOutlierWindow(n int) Option {
	return func(d *Detector) { d.window = n }
}

// WithOutlierThreshold sets the |z| above which the last return is an outlier.
func WithOutlierThreshold(z float64) Option {
	return func(d *Detector) { d.zThreshold = z }
}

// Detector runs a fixed set of threshold checks per snapshot namespace plus
// a z-score test on the optional close history.
type Detector struct {
	logger     *xlogger.Logger
	window     int
	zThreshold float64
}

func NewDetector(logger *xlogger.Logger, opts ...Option) *Detector {
	if logger == nil {
		logger = xlogger.Nop()
	}
	d := &Detector{logger: logger, window: 20, zThreshold: 2.5}
	for _, o := range opts {
		o(d)
	}
	return d
}

func (d *Detector) Detect(data *models.SensorData, now time.Time) []models.Signal {
	if data == nil {
		return nil
	}
	var out []models.Signal
	emit := func(s *models.Signal) {
		if s == nil {
			return
		}
		s.ID = uuid.NewString()
		s.Asset = data.Asset
		s.Timestamp = now
		s.Expiry = now.Add(signalTTL[s.Type])
		s.Confidence = clamp(s.Confidence, 0, 1)
		s.Strength = clamp(s.Strength, 0, 10)
		out = append(out, *s)
	}

	if p := data.Price; p != nil {
		emit(priceMove(p))
		emit(volumeSurge(p))
		emit(d.outlier(p))
	}
	if s := data.Social; s != nil {
		emit(socialShift(s))
	}
	if w := data.Whale; w != nil {
		emit(whaleFlow(w))
	}
	if n := data.News; n != nil {
		emit(newsCatalyst(n))
	}
	if oc := data.OnChain; oc != nil {
		emit(onChainRisk(oc))
	}
	if m := data.Macro; m != nil {
		emit(macroShift(m))
	}

	d.logger.Debug("detectors finished",
		xlogger.String("asset", data.Asset),
		xlogger.Int("signals", len(out)),
	)
	return out
}

func priceMove(p *models.PriceData) *models.Signal {
	chg := math.Abs(p.Change24h)
	if chg < priceMoveThreshold {
		return nil
	}
	return &models.Signal{
		Type:       models.SignalPriceAction,
		Direction:  directionOf(p.Change24h, 0),
		Strength:   math.Min(10, chg/2),
		Confidence: math.Min(1, chg/20+0.3),
		Evidence: map[string]interface{}{
			"change24h": p.Change24h,
			"volume24h": p.Volume24h,
		},
		Metadata: models.SignalMetadata{Source: "price-detector"},
	}
}

func volumeSurge(p *models.PriceData) *models.Signal {
	if p.VolumeChange < volumeSurgeThreshold {
		return nil
	}
	return &models.Signal{
		Type:       models.SignalVolumeAnomaly,
		Direction:  directionOf(p.Change24h, 0),
		Strength:   math.Min(10, p.VolumeChange/50),
		Confidence: math.Min(0.9, 0.4+p.VolumeChange/1000),
		Evidence: map[string]interface{}{
			"volumeChange": p.VolumeChange,
			"volume24h":    p.Volume24h,
		},
		Metadata: models.SignalMetadata{Source: "volume-detector"},
	}
}

func (d *Detector) outlier(p *models.PriceData) *models.Signal {
	returns := features.ComputeLogReturns(p.History)
	z, ok := features.LastReturnZScore(returns, d.window)
	if !ok || math.Abs(z) <= d.zThreshold {
		return nil
	}
	az := math.Abs(z)
	return &models.Signal{
		Type:       models.SignalPriceAction,
		Direction:  directionOf(z, 0),
		Strength:   math.Min(10, az*2),
		Confidence: math.Min(0.95, 0.5+(az-d.zThreshold)*0.1),
		Evidence: map[string]interface{}{
			"zScore":      z,
			"lastReturn":  returns[len(returns)-1],
			"realizedVol": features.RealizedVolatility(returns, d.window),
		},
		Metadata: models.SignalMetadata{Source: "outlier-detector"},
	}
}

func socialShift(s *models.SocialData) *models.Signal {
	abs := math.Abs(s.SentimentScore)
	if abs < sentimentThreshold && s.MentionsChange < mentionSpikeThreshold {
		return nil
	}
	return &models.Signal{
		Type:       models.SignalSocialSentiment,
		Direction:  directionOf(s.SentimentScore, 0.2),
		Strength:   math.Min(10, abs*8+math.Max(0, s.MentionsChange)/100),
		Confidence: math.Min(0.85, 0.3+abs*0.5),
		Evidence: map[string]interface{}{
			"sentimentScore": s.SentimentScore,
			"mentionsChange": s.MentionsChange,
			"trending":       s.Trending,
		},
		Metadata: models.SignalMetadata{Source: "social-detector"},
	}
}

func whaleFlow(w *models.WhaleData) *models.Signal {
	abs := math.Abs(w.NetFlow24h)
	if abs < whaleFlowThreshold && !w.Accumulating {
		return nil
	}
	dir := directionOf(w.NetFlow24h, 0)
	if dir == models.Neutral && w.Accumulating {
		dir = models.Bullish
	}
	strength := abs / whaleFlowThreshold * 2
	if w.Accumulating {
		strength += 2
	}
	return &models.Signal{
		Type:       models.SignalWhaleMovement,
		Direction:  dir,
		Strength:   math.Min(10, strength),
		Confidence: math.Min(0.9, 0.5+abs/1_000_000),
		Evidence: map[string]interface{}{
			"netFlow24h":   w.NetFlow24h,
			"accumulating": w.Accumulating,
		},
		Metadata: models.SignalMetadata{Source: "whale-detector"},
	}
}

func newsCatalyst(n *models.NewsData) *models.Signal {
	abs := math.Abs(n.SentimentScore)
	if !n.HasCatalyst && abs < sentimentThreshold {
		return nil
	}
	strength := 4 + abs*4
	if n.HasCatalyst {
		strength += 2
	}
	return &models.Signal{
		Type:       models.SignalNewsCatalyst,
		Direction:  directionOf(n.SentimentScore, 0.2),
		Strength:   math.Min(10, strength),
		Confidence: math.Min(0.8, 0.4+abs*0.4),
		Evidence: map[string]interface{}{
			"sentimentScore": n.SentimentScore,
			"hasCatalyst":    n.HasCatalyst,
			"articleCount":   n.ArticleCount,
		},
		Metadata: models.SignalMetadata{Source: "news-detector"},
	}
}

func onChainRisk(oc *models.OnChainData) *models.Signal {
	risky := oc.HolderConcentration > concentrationRisk || oc.DevWalletPercent > devWalletRisk || oc.MintAuthority
	healthy := oc.LiquidityLocked && oc.ContractVerified && oc.HolderConcentration < 0.3
	switch {
	case risky:
		return &models.Signal{
			Type:       models.SignalOnChain,
			Direction:  models.Bearish,
			Strength:   math.Max(5, oc.HolderConcentration*10),
			Confidence: 0.7,
			Evidence: map[string]interface{}{
				"holderConcentration": oc.HolderConcentration,
				"devWalletPercent":    oc.DevWalletPercent,
				"mintAuthority":       oc.MintAuthority,
			},
			Metadata: models.SignalMetadata{Source: "onchain-detector"},
		}
	case healthy:
		return &models.Signal{
			Type:       models.SignalOnChain,
			Direction:  models.Bullish,
			Strength:   4,
			Confidence: 0.5,
			Evidence: map[string]interface{}{
				"holderConcentration": oc.HolderConcentration,
				"liquidityLocked":     true,
			},
			Metadata: models.SignalMetadata{Source: "onchain-detector"},
		}
	}
	return nil
}

func macroShift(m *models.MacroData) *models.Signal {
	var dir models.Direction
	switch {
	case !m.RiskOn && m.VIX > 25:
		dir = models.Bearish
	case m.RiskOn && m.VIX > 0 && m.VIX < 15:
		dir = models.Bullish
	default:
		return nil
	}
	return &models.Signal{
		Type:       models.SignalMacroShift,
		Direction:  dir,
		Strength:   math.Min(10, math.Abs(m.VIX-20)/2+2),
		Confidence: 0.5,
		Evidence: map[string]interface{}{
			"vix":       m.VIX,
			"riskOn":    m.RiskOn,
			"dxyChange": m.DXYChange,
		},
		Metadata: models.SignalMetadata{Source: "macro-detector"},
	}
}

func directionOf(v, deadband float64) models.Direction {
	switch {
	case v > deadband:
		return models.Bullish
	case v < -deadband:
		return models.Bearish
	}
	return models.Neutral
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

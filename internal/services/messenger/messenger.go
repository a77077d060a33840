package messenger

import (
	"fmt"
	"strings"
	"time"

	"SignalFusion/internal/domain/models"
	xlogger "SignalFusion/pkg/logger"
)

const (
	minorityShare  = 0.2
	buyEVHurdle    = 2.0
	minConviction  = 3.0
	minConsensus   = 0.4
	maxKeyItems    = 3
	immediateHours = 6.0
	soonHours      = 24.0
)

type Option func(*Messenger)

func WithClock(now func() time.Time) Option {
	return func(m *Messenger) { m.now = now }
}

// Messenger joins the council's opinions into a verdict and assembles the
// final output.
type Messenger struct {
	logger  *xlogger.Logger
	version string
	now     func() time.Time
}

func New(logger *xlogger.Logger, version string, opts ...Option) *Messenger {
	if logger == nil {
		logger = xlogger.Nop()
	}
	m := &Messenger{logger: logger, version: version, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Input is everything the messenger needs to produce the bundle.
type Input struct {
	Query     string
	Data      *models.SensorData
	Analysis  models.FusionAnalysis
	Rounds    []models.CouncilRound
	StartedAt time.Time
}

func (m *Messenger) Deliver(in Input) models.SignalFusionOutput {
	if in.Data == nil {
		in.Data = &models.SensorData{}
	}
	var opinions []models.CouncilOpinion
	for _, r := range in.Rounds {
		opinions = append(opinions, r.Opinions...)
	}

	cons := BuildConsensus(opinions)
	verdict := BuildVerdict(in.Analysis.Edge, cons)
	verdict.KeyRisks = firstUnique(opinions, func(o models.CouncilOpinion) []string { return o.Concerns })
	verdict.KeyOpportunities = firstUnique(opinions, func(o models.CouncilOpinion) []string { return o.KeyPoints })
	verdict.Summary = summary(in.Data, in.Analysis.Edge, cons, verdict)

	now := m.now()
	out := models.SignalFusionOutput{
		Query:        in.Query,
		Asset:        in.Data.Asset,
		MarketType:   in.Data.MarketType,
		Timestamp:    now,
		Analysis:     in.Analysis,
		Council:      models.CouncilResult{Rounds: in.Rounds, Consensus: cons},
		FinalVerdict: verdict,
		Metadata: models.OutputMetadata{
			Sources: signalSources(in.Analysis.Signals),
			Version: m.version,
		},
	}
	if !in.StartedAt.IsZero() {
		out.Metadata.ProcessingTimeMs = now.Sub(in.StartedAt).Milliseconds()
	}

	m.logger.Info("verdict delivered",
		xlogger.String("asset", out.Asset),
		xlogger.String("recommendation", string(verdict.Recommendation)),
		xlogger.Float64("conviction", verdict.Conviction),
		xlogger.Float64("consensus", cons.Score),
	)
	return out
}

// BuildConsensus is a confidence-weighted vote over opinion stances. Ties go
// to neutral first, then bearish. With no confidence at all the council is
// neutral with a score of zero.
func BuildConsensus(opinions []models.CouncilOpinion) models.Consensus {
	var bull, bear, neutral float64
	for _, o := range opinions {
		switch o.Stance {
		case models.Bullish:
			bull += o.Confidence
		case models.Bearish:
			bear += o.Confidence
		default:
			neutral += o.Confidence
		}
	}
	total := bull + bear + neutral
	if total <= 0 {
		return models.Consensus{Majority: models.Neutral}
	}
	c := models.Consensus{Bullish: bull / total, Bearish: bear / total, Neutral: neutral / total}

	switch {
	case c.Bullish > c.Bearish && c.Bullish > c.Neutral:
		c.Majority, c.Score = models.Bullish, c.Bullish
	case c.Bearish > c.Neutral && c.Bearish >= c.Bullish:
		c.Majority, c.Score = models.Bearish, c.Bearish
	default:
		c.Majority, c.Score = models.Neutral, c.Neutral
	}

	switch c.Majority {
	case models.Bullish:
		if c.Bearish > minorityShare {
			c.Minority = models.Bearish
		}
	case models.Bearish:
		if c.Bullish > minorityShare {
			c.Minority = models.Bullish
		}
	default:
		if c.Bearish >= c.Bullish && c.Bearish > minorityShare {
			c.Minority = models.Bearish
		} else if c.Bullish > minorityShare {
			c.Minority = models.Bullish
		}
	}
	return c
}

// BuildVerdict derives recommendation, conviction and urgency. Summary and
// key lists are filled by the caller.
func BuildVerdict(e models.EdgeCalculation, c models.Consensus) models.FinalVerdict {
	v := models.FinalVerdict{Recommendation: models.RecommendHold}
	switch {
	case e.ExpectedValue > buyEVHurdle && c.Majority == models.Bullish:
		v.Recommendation = models.RecommendBuy
	case e.ExpectedValue < 0 && c.Majority == models.Bearish:
		v.Recommendation = models.RecommendSell
	case e.ConvictionScore < minConviction || c.Score < minConsensus:
		v.Recommendation = models.RecommendAvoid
	}

	conviction := e.ConvictionScore / 10 * c.Score * 100
	if conviction > 100 {
		conviction = 100
	}
	if conviction < 0 {
		conviction = 0
	}
	v.Conviction = conviction

	v.Urgency = models.UrgencyPatient
	if v.Recommendation == models.RecommendBuy {
		switch {
		case e.HalfLife < immediateHours:
			v.Urgency = models.UrgencyImmediate
		case e.HalfLife < soonHours:
			v.Urgency = models.UrgencySoon
		}
	}
	return v
}

func firstUnique(opinions []models.CouncilOpinion, pick func(models.CouncilOpinion) []string) []string {
	out := make([]string, 0, maxKeyItems)
	seen := make(map[string]struct{})
	for _, o := range opinions {
		for _, item := range pick(o) {
			if _, dup := seen[item]; dup {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
			if len(out) == maxKeyItems {
				return out
			}
		}
	}
	return out
}

func signalSources(signals []models.Signal) []string {
	out := make([]string, 0, len(signals))
	seen := make(map[string]struct{}, len(signals))
	for _, s := range signals {
		src := s.Metadata.Source
		if src == "" {
			continue
		}
		if _, dup := seen[src]; dup {
			continue
		}
		seen[src] = struct{}{}
		out = append(out, src)
	}
	return out
}

func summary(data *models.SensorData, e models.EdgeCalculation, c models.Consensus, v models.FinalVerdict) string {
	var b strings.Builder
	asset := data.Asset
	if asset == "" {
		asset = "asset"
	}
	fmt.Fprintf(&b, "%s %s", strings.ToUpper(string(v.Recommendation)), asset)
	if data.MarketType != "" {
		fmt.Fprintf(&b, " (%s)", data.MarketType)
	}
	fmt.Fprintf(&b, ": %.0f%% conviction, %s consensus at %.0f%%", v.Conviction, c.Majority, c.Score*100)
	if c.Minority != "" {
		fmt.Fprintf(&b, " with %s dissent", c.Minority)
	}
	fmt.Fprintf(&b, ". Edge EV %.2f%% at %.0f%% win rate, R:R %.2f, half-life %.1fh.",
		e.ExpectedValue, e.WinRate*100, e.RiskReward, e.HalfLife)
	fmt.Fprintf(&b, " Urgency: %s.", v.Urgency)
	return b.String()
}

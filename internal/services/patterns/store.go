package patterns

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"SignalFusion/internal/domain/models"
	"SignalFusion/internal/domain/service"
	xlogger "SignalFusion/pkg/logger"

	"github.com/google/uuid"
)

// MinMatchScore is the score below which a pattern is not reported.
const MinMatchScore = 0.3

// emaAlpha is the weight of the newest return in AvgReturn.
const emaAlpha = 0.1

var (
	_ service.PatternLibrary  = (*Store)(nil)
	_ service.PatternRecorder = (*Store)(nil)
)

var ErrPatternNotFound = errors.New("pattern not found")

// Store owns the pattern library. Match only reads; RecordOutcome is the only
// way to change a pattern's track record.
type Store struct {
	mu       sync.RWMutex
	patterns []models.Pattern
	index    map[string]int
	logger   *xlogger.Logger
}

func NewStore(logger *xlogger.Logger, library []models.Pattern) *Store {
	if logger == nil {
		logger = xlogger.Nop()
	}
	s := &Store{
		patterns: make([]models.Pattern, 0, len(library)),
		index:    make(map[string]int, len(library)),
		logger:   logger,
	}
	for _, p := range library {
		if _, dup := s.index[p.ID]; dup {
			logger.Warn("duplicate pattern id ignored", xlogger.String("pattern", p.ID))
			continue
		}
		p.Conditions = append([]models.Condition(nil), p.Conditions...)
		s.index[p.ID] = len(s.patterns)
		s.patterns = append(s.patterns, p)
	}
	return s
}

// Match scores the snapshot against every pattern and returns those scoring
// at least MinMatchScore, best first.
func (s *Store) Match(data *models.SensorData) []models.PatternMatch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.PatternMatch, 0, len(s.patterns))
	for _, p := range s.patterns {
		m := Evaluate(p, data)
		if m.MatchScore < MinMatchScore {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].MatchScore > out[j].MatchScore
	})
	return out
}

// RecordOutcome folds one realized trade into a pattern's record. won means
// the asset moved in the bullish sense; ret is the bullish-side return in
// percent.
func (s *Store) RecordOutcome(id string, won bool, ret float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("record outcome %q: %w", id, ErrPatternNotFound)
	}
	p := &s.patterns[i]
	if won {
		p.HistoricalWins++
	} else {
		p.HistoricalLosses++
	}
	p.AvgReturn = (1-emaAlpha)*p.AvgReturn + emaAlpha*ret
	if ret < 0 && -ret > p.MaxDrawdown {
		p.MaxDrawdown = -ret
	}

	s.logger.Debug("pattern outcome recorded",
		xlogger.String("pattern", id),
		xlogger.Bool("won", won),
		xlogger.Float64("return", ret),
		xlogger.Int("wins", p.HistoricalWins),
		xlogger.Int("losses", p.HistoricalLosses),
	)
	return nil
}

// Get returns a copy of one pattern.
func (s *Store) Get(id string) (models.Pattern, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return models.Pattern{}, false
	}
	return clonePattern(s.patterns[i]), true
}

// Snapshot returns a copy of the whole library in declaration order.
func (s *Store) Snapshot() []models.Pattern {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Pattern, len(s.patterns))
	for i, p := range s.patterns {
		out[i] = clonePattern(p)
	}
	return out
}

// Evaluate scores one pattern. A condition whose field is missing from the
// snapshot counts as unsatisfied.
func Evaluate(p models.Pattern, data *models.SensorData) models.PatternMatch {
	m := models.PatternMatch{Pattern: clonePattern(p), Total: len(p.Conditions)}
	var total, hit float64
	for _, c := range p.Conditions {
		w := math.Max(c.Weight, 0)
		total += w
		v, ok := data.Lookup(c.Field)
		if !ok || !c.Op.Compare(v, c.Threshold) {
			continue
		}
		hit += w
		m.Matched++
	}
	if total > 0 {
		m.MatchScore = clamp01(hit / total)
	}
	return m
}

// ToSignal turns a match into a pattern_match signal. A pattern with no
// recorded outcomes is treated as a coin flip and yields a neutral signal.
func ToSignal(m models.PatternMatch, asset string, now time.Time) models.Signal {
	winRate, seasoned := m.Pattern.WinRate()
	dir := models.Neutral
	switch {
	case !seasoned:
		winRate = 0.5
	case winRate > 0.5:
		dir = models.Bullish
	default:
		dir = models.Bearish
	}
	var expiry time.Time
	if m.Pattern.AvgHoldTime > 0 {
		expiry = now.Add(m.Pattern.AvgHoldTime)
	}
	return models.Signal{
		ID:         uuid.NewString(),
		Asset:      asset,
		Type:       models.SignalPatternMatch,
		Direction:  dir,
		Confidence: clamp01(m.MatchScore * winRate),
		Strength:   math.Min(10, m.MatchScore*10),
		Timestamp:  now,
		Expiry:     expiry,
		Evidence: map[string]interface{}{
			"patternName":      m.Pattern.Name,
			"matchScore":       m.MatchScore,
			"matched":          m.Matched,
			"total":            m.Total,
			"historicalWins":   m.Pattern.HistoricalWins,
			"historicalLosses": m.Pattern.HistoricalLosses,
			"avgReturn":        m.Pattern.AvgReturn,
		},
		Metadata: models.SignalMetadata{
			Source:    "pattern-matcher",
			PatternID: m.Pattern.ID,
		},
	}
}

func clonePattern(p models.Pattern) models.Pattern {
	p.Conditions = append([]models.Condition(nil), p.Conditions...)
	return p
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

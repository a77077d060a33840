package council

import (
	"context"
	"fmt"
	"sync"

	"SignalFusion/internal/domain/models"
	"SignalFusion/internal/domain/service"
	xlogger "SignalFusion/pkg/logger"
)

var _ service.Council = (*Council)(nil)

const (
	marketRound = 1
	skillRound  = 2
)

type Option func(*Council)

// WithWorkers bounds how many specialists are evaluated at once.
func WithWorkers(n int) Option {
	return func(c *Council) {
		if n > 0 {
			c.workers = n
		}
	}
}

// Council dispatches the market specialist for the asset class and every
// applicable skill specialist, then waits for all of them.
type Council struct {
	logger  *xlogger.Logger
	workers int
}

func New(logger *xlogger.Logger, opts ...Option) *Council {
	if logger == nil {
		logger = xlogger.Nop()
	}
	c := &Council{logger: logger, workers: 4}
	for _, o := range opts {
		o(c)
	}
	return c
}

type seat struct {
	sp    Specialist
	round int
}

// Convene returns the opinions grouped by round. Rounds with no seated
// specialist are omitted. Opinion order is stable across calls.
func (c *Council) Convene(ctx context.Context, in models.CouncilInput) []models.CouncilRound {
	if in.Data == nil {
		in.Data = &models.SensorData{}
	}

	var seats []seat
	if sp, ok := MarketSpecialistFor(in.Data.MarketType); ok {
		seats = append(seats, seat{sp: sp, round: marketRound})
	} else {
		c.logger.Warn("no market specialist for market type, skipping round",
			xlogger.String("market_type", string(in.Data.MarketType)),
		)
	}
	for _, sp := range SkillSpecialistsFor(in.Data) {
		seats = append(seats, seat{sp: sp, round: skillRound})
	}

	opinions := make([]models.CouncilOpinion, len(seats))
	sem := make(chan struct{}, c.workers)
	var wg sync.WaitGroup
	for i, st := range seats {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, st seat) {
			defer wg.Done()
			defer func() { <-sem }()
			opinions[i] = c.opine(st, in)
		}(i, st)
	}
	wg.Wait()

	rounds := make([]models.CouncilRound, 0, 2)
	for _, op := range opinions {
		if n := len(rounds); n == 0 || rounds[n-1].Round != op.Round {
			rounds = append(rounds, models.CouncilRound{Round: op.Round})
		}
		last := &rounds[len(rounds)-1]
		last.Opinions = append(last.Opinions, op)
	}

	c.logger.Debug("council convened",
		xlogger.String("asset", in.Data.Asset),
		xlogger.Int("opinions", len(opinions)),
	)
	return rounds
}

// opine runs one specialist and stamps identity fields. A panicking
// specialist abstains with a neutral, zero-confidence opinion.
func (c *Council) opine(st seat, in models.CouncilInput) (op models.CouncilOpinion) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("specialist panicked",
				xlogger.String("specialist", string(st.sp.ID)),
				xlogger.Any("panic", r),
			)
			op = models.CouncilOpinion{
				Stance:    models.Neutral,
				Reasoning: fmt.Sprintf("%s could not form a view.", st.sp.Name),
			}
		}
		op.Specialist = st.sp.ID
		op.Name = st.sp.Name
		op.Role = st.sp.Role
		op.Round = st.round
		op.Confidence = clamp(op.Confidence, 0, 1)
	}()
	return st.sp.Opine(in)
}

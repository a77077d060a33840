package council

import (
	"fmt"
	"math"

	"SignalFusion/internal/domain/models"
)

// Specialist is one council member. Opine is a pure function of its input;
// Applies decides whether the member sits at all for a given snapshot.
type Specialist struct {
	ID      models.SpecialistID
	Name    string
	Role    models.SpecialistRole
	Applies func(data *models.SensorData) bool
	Opine   func(in models.CouncilInput) models.CouncilOpinion
}

func always(*models.SensorData) bool { return true }

// stanceFromEV is bullish above the hurdle, bearish on negative EV and
// neutral in between.
func stanceFromEV(ev, hurdle float64) models.Direction {
	switch {
	case ev > hurdle:
		return models.Bullish
	case ev < 0:
		return models.Bearish
	}
	return models.Neutral
}

func evReasoning(label string, e models.EdgeCalculation, hurdle float64, stance models.Direction) string {
	return fmt.Sprintf("%s: EV %.2f%% against a %.1f%% hurdle at %.0f%% win rate and %.1f/10 conviction, %s.",
		label, e.ExpectedValue, hurdle, e.WinRate*100, e.ConvictionScore, stance)
}

func hasSignal(signals []models.Signal, typ models.SignalType) bool {
	for _, s := range signals {
		if s.Type == typ {
			return true
		}
	}
	return false
}

func countSignals(signals []models.Signal, types ...models.SignalType) int {
	n := 0
	for _, s := range signals {
		for _, t := range types {
			if s.Type == t {
				n++
				break
			}
		}
	}
	return n
}

func usd(v float64) string {
	abs := math.Abs(v)
	sign := ""
	if v < 0 {
		sign = "-"
	}
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%s$%.1fB", sign, abs/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%s$%.1fM", sign, abs/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%s$%.0fk", sign, abs/1e3)
	}
	return fmt.Sprintf("%s$%.0f", sign, abs)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

package models

import "time"

type SignalType string

const (
	SignalPriceAction     SignalType = "price_action"
	SignalWhaleMovement   SignalType = "whale_movement"
	SignalSocialSentiment SignalType = "social_sentiment"
	SignalPatternMatch    SignalType = "pattern_match"
	SignalNewsCatalyst    SignalType = "news_catalyst"
	SignalVolumeAnomaly   SignalType = "volume_anomaly"
	SignalOnChain         SignalType = "on_chain"
	SignalMacroShift      SignalType = "macro_shift"
)

type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
	Neutral Direction = "neutral"
)

// Sign maps a direction onto -1, 0 or 1.
func (d Direction) Sign() float64 {
	switch d {
	case Bullish:
		return 1
	case Bearish:
		return -1
	}
	return 0
}

// Signal is a single candidate observation about an asset. Detectors and the
// pattern matcher create it; only the adversarial validator stamps Metadata.
type Signal struct {
	ID         string                 `json:"id"`
	Asset      string                 `json:"asset"`
	Type       SignalType             `json:"type"`
	Direction  Direction              `json:"direction"`
	Confidence float64                `json:"confidence"`
	Strength   float64                `json:"strength"`
	Timestamp  time.Time              `json:"timestamp"`
	Expiry     time.Time              `json:"expiry"`
	Evidence   map[string]interface{} `json:"evidence,omitempty"`
	Metadata   SignalMetadata         `json:"metadata"`
}

type SignalMetadata struct {
	Source             string       `json:"source"`
	PatternID          string       `json:"patternId,omitempty"`
	Validated          bool         `json:"validated"`
	AdversarialResults []TestResult `json:"adversarialResults,omitempty"`
}

// Weight is the confidence times strength product used when signals vote.
func (s Signal) Weight() float64 { return s.Confidence * s.Strength }

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

type TestOutcome string

const (
	TestPass          TestOutcome = "pass"
	TestFail          TestOutcome = "fail"
	TestNotApplicable TestOutcome = "not_applicable"
)

// AdversarialTest tries to falsify a signal. Check must treat missing
// snapshot data as not applicable.
type AdversarialTest struct {
	ID          string
	Name        string
	Severity    Severity
	Explanation string
	Check       func(sig Signal, data *SensorData) TestOutcome
}

type TestResult struct {
	TestID   string      `json:"testId"`
	Name     string      `json:"name"`
	Severity Severity    `json:"severity"`
	Outcome  TestOutcome `json:"outcome"`
	Message  string      `json:"message,omitempty"`
}

// Passed is true for pass and not_applicable outcomes.
func (r TestResult) Passed() bool { return r.Outcome != TestFail }

type ValidationReport struct {
	SignalID         string       `json:"signalId"`
	Passed           bool         `json:"passed"`
	CriticalFailures int          `json:"criticalFailures"`
	WarningFailures  int          `json:"warningFailures"`
	InfoFailures     int          `json:"infoFailures"`
	Results          []TestResult `json:"results"`
}

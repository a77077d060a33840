package adversarial

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"SignalFusion/internal/domain/models"
	"SignalFusion/internal/domain/service"
	xlogger "SignalFusion/pkg/logger"
)

var _ service.SignalValidator = (*Validator)(nil)

var (
	ErrDuplicateTest = errors.New("adversarial test already registered")
	ErrInvalidTest   = errors.New("adversarial test needs an id and a check")
)

type Option func(*Validator)

// WithTests registers extra tests after the default catalog.
func WithTests(tests ...models.AdversarialTest) Option {
	return func(v *Validator) { v.extra = append(v.extra, tests...) }
}

// WithClock overrides the clock used by expiry checks.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// WithoutDefaults starts from an empty catalog.
func WithoutDefaults() Option {
	return func(v *Validator) { v.skipDefaults = true }
}

// Validator runs every registered test against each signal. A signal passes
// when no critical test fails.
type Validator struct {
	mu     sync.RWMutex
	tests  []models.AdversarialTest
	ids    map[string]struct{}
	logger *xlogger.Logger
	now    func() time.Time

	extra        []models.AdversarialTest
	skipDefaults bool
}

func NewValidator(logger *xlogger.Logger, opts ...Option) (*Validator, error) {
	if logger == nil {
		logger = xlogger.Nop()
	}
	v := &Validator{
		ids:    make(map[string]struct{}),
		logger: logger,
		now:    time.Now,
	}
	for _, o := range opts {
		o(v)
	}
	var catalog []models.AdversarialTest
	if !v.skipDefaults {
		catalog = DefaultCatalog(func() time.Time { return v.now() })
	}
	catalog = append(catalog, v.extra...)
	v.extra = nil
	for _, t := range catalog {
		if err := v.AddTest(t); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// AddTest registers a test. IDs must be unique.
func (v *Validator) AddTest(t models.AdversarialTest) error {
	if t.ID == "" || t.Check == nil {
		return fmt.Errorf("add test %q: %w", t.ID, ErrInvalidTest)
	}
	if t.Severity == "" {
		t.Severity = models.SeverityWarning
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, dup := v.ids[t.ID]; dup {
		return fmt.Errorf("add test %q: %w", t.ID, ErrDuplicateTest)
	}
	v.ids[t.ID] = struct{}{}
	v.tests = append(v.tests, t)
	return nil
}

// Tests returns the registered catalog in run order.
func (v *Validator) Tests() []models.AdversarialTest {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]models.AdversarialTest(nil), v.tests...)
}

// ValidateSignal runs the full battery against one signal.
func (v *Validator) ValidateSignal(sig models.Signal, data *models.SensorData) models.ValidationReport {
	if data == nil {
		data = &models.SensorData{}
	}
	tests := v.Tests()

	report := models.ValidationReport{
		SignalID: sig.ID,
		Results:  make([]models.TestResult, 0, len(tests)),
	}
	for _, t := range tests {
		res := v.run(t, sig, data)
		report.Results = append(report.Results, res)
		if res.Passed() {
			continue
		}
		switch t.Severity {
		case models.SeverityCritical:
			report.CriticalFailures++
		case models.SeverityWarning:
			report.WarningFailures++
		default:
			report.InfoFailures++
		}
	}
	report.Passed = report.CriticalFailures == 0
	return report
}

// ValidateSignals validates each signal on its own and partitions the batch.
// Returned signals are copies stamped with the validation outcome.
func (v *Validator) ValidateSignals(signals []models.Signal, data *models.SensorData) (valid, invalid []models.Signal) {
	for _, sig := range signals {
		report := v.ValidateSignal(sig, data)

		stamped := sig
		stamped.Metadata.Validated = report.Passed
		stamped.Metadata.AdversarialResults = report.Results
		if report.Passed {
			valid = append(valid, stamped)
			continue
		}
		invalid = append(invalid, stamped)
		v.logger.Info("signal rejected",
			xlogger.String("signal", sig.ID),
			xlogger.String("type", string(sig.Type)),
			xlogger.Int("critical", report.CriticalFailures),
			xlogger.Strings("failed", failedIDs(report.Results, models.SeverityCritical)),
		)
	}
	return valid, invalid
}

// run evaluates one test. A panicking check counts as a failure of that test
// only.
func (v *Validator) run(t models.AdversarialTest, sig models.Signal, data *models.SensorData) (res models.TestResult) {
	res = models.TestResult{TestID: t.ID, Name: t.Name, Severity: t.Severity}
	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("adversarial test panicked",
				xlogger.String("test", t.ID),
				xlogger.Any("panic", r),
			)
			res.Outcome = models.TestFail
			res.Message = fmt.Sprintf("test panicked: %v", r)
		}
	}()

	res.Outcome = t.Check(sig, data)
	switch res.Outcome {
	case models.TestFail:
		res.Message = t.Explanation
	case models.TestPass, models.TestNotApplicable:
	default:
		res.Outcome = models.TestNotApplicable
	}
	return res
}

func failedIDs(results []models.TestResult, sev models.Severity) []string {
	var out []string
	for _, r := range results {
		if !r.Passed() && r.Severity == sev {
			out = append(out, r.TestID)
		}
	}
	return out
}

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"SignalFusion/internal/domain/models"
	domrepo "SignalFusion/internal/domain/repository"
	"SignalFusion/internal/services/ledger"
	pkgkafka "SignalFusion/pkg/kafka"
	xlogger "SignalFusion/pkg/logger"
	xmetrics "SignalFusion/pkg/metrics"
)

var _ pkgkafka.MessageHandler = (*OutcomeHandler)(nil)

// OutcomeReporter is the part of FusionUseCase the outcome consumer drives.
type OutcomeReporter interface {
	ReportOutcome(ctx context.Context, id string, outcome models.Outcome, exitPrice float64, notes string) (models.LedgerEntry, error)
}

// OutcomeHandler closes ledger entries from outcome reports on Kafka.
// Malformed reports and reports the ledger refuses are permanent failures;
// anything else is retried by the consumer.
type OutcomeHandler struct {
	topic    string
	reporter OutcomeReporter
	metrics  domrepo.Metrics
	logger   *xlogger.Logger
}

func NewOutcomeHandler(topic string, reporter OutcomeReporter, metrics domrepo.Metrics, logger *xlogger.Logger) *OutcomeHandler {
	if metrics == nil {
		metrics = xmetrics.Nop{}
	}
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &OutcomeHandler{topic: topic, reporter: reporter, metrics: metrics, logger: logger}
}

func (h *OutcomeHandler) Topic() string { return h.topic }

// incoming message schema: {entryId, outcome, exitPrice, notes}
func (h *OutcomeHandler) Handle(ctx context.Context, b []byte) error {
	var r models.OutcomeReport
	if err := json.Unmarshal(b, &r); err != nil {
		h.metrics.RecordError("outcome_unmarshal")
		return fmt.Errorf("decode outcome report: %v: %w", err, pkgkafka.ErrPermanent)
	}
	if r.EntryID == "" {
		h.metrics.RecordError("outcome_unmarshal")
		return fmt.Errorf("outcome report without entry id: %w", pkgkafka.ErrPermanent)
	}

	start := time.Now()
	entry, err := h.reporter.ReportOutcome(ctx, r.EntryID, r.Outcome, r.ExitPrice, r.Notes)
	h.metrics.RecordLatency("outcome_consume", time.Since(start).Seconds())
	if err != nil {
		if rejected(err) {
			h.logger.Warn("outcome report rejected",
				xlogger.String("entry", r.EntryID),
				xlogger.String("trace_id", pkgkafka.TraceID(ctx)),
				xlogger.Error(err),
			)
			return fmt.Errorf("%w: %w", err, pkgkafka.ErrPermanent)
		}
		h.metrics.RecordError("outcome_update")
		return err
	}

	h.logger.Debug("outcome applied",
		xlogger.String("entry", entry.ID),
		xlogger.String("outcome", string(entry.Outcome)),
		xlogger.String("trace_id", pkgkafka.TraceID(ctx)),
	)
	return nil
}

func rejected(err error) bool {
	return errors.Is(err, ledger.ErrEntryNotFound) ||
		errors.Is(err, ledger.ErrEntryClosed) ||
		errors.Is(err, ledger.ErrInvalidOutcome) ||
		errors.Is(err, ledger.ErrInvalidExitPrice)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"SignalFusion/internal/domain/models"
	"SignalFusion/internal/services/ledger"
	pkgkafka "SignalFusion/pkg/kafka"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReporter struct {
	err  error
	got  []models.OutcomeReport
	next models.LedgerEntry
}

func (s *stubReporter) ReportOutcome(_ context.Context, id string, outcome models.Outcome, exitPrice float64, notes string) (models.LedgerEntry, error) {
	s.got = append(s.got, models.OutcomeReport{EntryID: id, Outcome: outcome, ExitPrice: exitPrice, Notes: notes})
	if s.err != nil {
		return models.LedgerEntry{}, s.err
	}
	return s.next, nil
}

func TestOutcomeHandler_Applies(t *testing.T) {
	rep := &stubReporter{next: models.LedgerEntry{ID: "e-1", Outcome: models.OutcomeWin}}
	h := NewOutcomeHandler("outcomes", rep, nil, nil)

	assert.Equal(t, "outcomes", h.Topic())
	err := h.Handle(context.Background(), []byte(`{"entryId":"e-1","outcome":"win","exitPrice":112.5,"notes":"tp1"}`))
	require.NoError(t, err)
	require.Len(t, rep.got, 1)
	assert.Equal(t, models.OutcomeReport{EntryID: "e-1", Outcome: models.OutcomeWin, ExitPrice: 112.5, Notes: "tp1"}, rep.got[0])
}

func TestOutcomeHandler_PermanentFailures(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		err     error
		target  error
	}{
		{"malformed", `{"entryId":`, nil, nil},
		{"missing id", `{"outcome":"win","exitPrice":1}`, nil, nil},
		{"unknown entry", `{"entryId":"x","outcome":"win","exitPrice":1}`, fmt.Errorf("update x: %w", ledger.ErrEntryNotFound), ledger.ErrEntryNotFound},
		{"already closed", `{"entryId":"x","outcome":"win","exitPrice":1}`, fmt.Errorf("update x: %w", ledger.ErrEntryClosed), ledger.ErrEntryClosed},
		{"open outcome", `{"entryId":"x","outcome":"open","exitPrice":1}`, ledger.ErrInvalidOutcome, ledger.ErrInvalidOutcome},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOutcomeHandler("outcomes", &stubReporter{err: tt.err}, nil, nil)
			err := h.Handle(context.Background(), []byte(tt.payload))
			require.Error(t, err)
			assert.ErrorIs(t, err, pkgkafka.ErrPermanent)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestOutcomeHandler_StorageFailureIsRetryable(t *testing.T) {
	boom := errors.New("save ledger: connection reset")
	h := NewOutcomeHandler("outcomes", &stubReporter{err: boom}, nil, nil)

	err := h.Handle(context.Background(), []byte(`{"entryId":"x","outcome":"loss","exitPrice":9}`))
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, pkgkafka.ErrPermanent)
}

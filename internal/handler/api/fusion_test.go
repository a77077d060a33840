package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"SignalFusion/internal/domain/models"
	"SignalFusion/internal/service/ratelimit"
	"SignalFusion/internal/services/ledger"
	"SignalFusion/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	analyzeErr error
	outcomeErr error

	gotQuery  string
	gotData   *models.SensorData
	gotRecord bool
	gotFilter models.EntryFilter
	gotID     string
}

func (f *fakeService) Analyze(_ context.Context, query string, data *models.SensorData, record bool) (models.SignalFusionOutput, error) {
	f.gotQuery, f.gotData, f.gotRecord = query, data, record
	if f.analyzeErr != nil {
		return models.SignalFusionOutput{}, f.analyzeErr
	}
	return models.SignalFusionOutput{
		Query: query,
		Asset: data.Asset,
		FinalVerdict: models.FinalVerdict{
			Recommendation: models.RecommendHold,
		},
	}, nil
}

func (f *fakeService) ReportOutcome(_ context.Context, id string, outcome models.Outcome, exitPrice float64, _ string) (models.LedgerEntry, error) {
	f.gotID = id
	if f.outcomeErr != nil {
		return models.LedgerEntry{}, f.outcomeErr
	}
	return models.LedgerEntry{ID: id, Outcome: outcome, ExitPrice: &exitPrice}, nil
}

func (f *fakeService) Patterns() []models.Pattern {
	return []models.Pattern{{ID: "p1"}, {ID: "p2"}}
}

func (f *fakeService) Entries(flt models.EntryFilter) []models.LedgerEntry {
	f.gotFilter = flt
	return []models.LedgerEntry{{ID: "e1", Outcome: models.OutcomeOpen}}
}

func (f *fakeService) Stats(flt models.EntryFilter) models.PerformanceStats {
	f.gotFilter = flt
	return models.PerformanceStats{TotalTrades: 3}
}

func (f *fakeService) SignalTypeStats(flt models.EntryFilter) []models.SignalTypeStats {
	f.gotFilter = flt
	return []models.SignalTypeStats{{Type: models.SignalPatternMatch}}
}

func (f *fakeService) ActiveEdges() []models.ActiveEdge {
	return []models.ActiveEdge{{EntryID: "e1", Validity: 0.5}}
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, h *FusionHandler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestAnalyze(t *testing.T) {
	svc := &fakeService{}
	h := NewFusionHandler(nil, svc, nil)

	rec, env := serve(t, h, http.MethodPost, "/api/analyze",
		`{"record":true,"data":{"asset":"SOL","marketType":"solana","price":{"current":101.5}}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, env.Status)

	assert.Equal(t, "analyze", svc.gotQuery)
	assert.True(t, svc.gotRecord)
	require.NotNil(t, svc.gotData)
	assert.Equal(t, "SOL", svc.gotData.Asset)
	require.NotNil(t, svc.gotData.Price)
	assert.Equal(t, 101.5, svc.gotData.Price.Current)
	assert.Nil(t, svc.gotData.Whale)

	var out models.SignalFusionOutput
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, "SOL", out.Asset)
	assert.Equal(t, models.RecommendHold, out.FinalVerdict.Recommendation)
}

func TestAnalyze_MissingAsset(t *testing.T) {
	svc := &fakeService{}
	rec, _ := serve(t, NewFusionHandler(nil, svc, nil), http.MethodPost, "/api/analyze", `{"data":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.gotData)
}

func TestAnalyze_Errors(t *testing.T) {
	rec, _ := serve(t, NewFusionHandler(nil, &fakeService{analyzeErr: usecase.ErrInvalidSnapshot}, nil),
		http.MethodPost, "/api/analyze", `{"data":{"asset":"X"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, NewFusionHandler(nil, &fakeService{analyzeErr: fmt.Errorf("record decision: boom")}, nil),
		http.MethodPost, "/api/analyze", `{"data":{"asset":"X"}}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAnalyze_RateLimited(t *testing.T) {
	rl := ratelimit.New(1, 0.0001)
	h := NewFusionHandler(nil, &fakeService{}, rl)

	rec, _ := serve(t, h, http.MethodPost, "/api/analyze", `{"data":{"asset":"X"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, env := serve(t, h, http.MethodPost, "/api/analyze", `{"data":{"asset":"X"}}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, http.StatusTooManyRequests, env.Status)
}

func TestOutcome(t *testing.T) {
	svc := &fakeService{}
	rec, env := serve(t, NewFusionHandler(nil, svc, nil), http.MethodPost,
		"/api/ledger/entries/e-42/outcome", `{"outcome":"win","exitPrice":120}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "e-42", svc.gotID)

	var entry models.LedgerEntry
	require.NoError(t, json.Unmarshal(env.Data, &entry))
	assert.Equal(t, models.OutcomeWin, entry.Outcome)
}

func TestOutcome_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("update x: %w", ledger.ErrEntryNotFound), http.StatusNotFound},
		{"closed", fmt.Errorf("update x (win): %w", ledger.ErrEntryClosed), http.StatusConflict},
		{"bad outcome", fmt.Errorf("update x: %w", ledger.ErrInvalidOutcome), http.StatusBadRequest},
		{"bad price", fmt.Errorf("update x: %w", ledger.ErrInvalidExitPrice), http.StatusBadRequest},
		{"storage", fmt.Errorf("save ledger: timeout"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := serve(t, NewFusionHandler(nil, &fakeService{outcomeErr: tt.err}, nil), http.MethodPost,
				"/api/ledger/entries/x/outcome", `{"outcome":"loss","exitPrice":90}`)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.want, env.Status)
		})
	}
}

func TestOutcome_Validation(t *testing.T) {
	svc := &fakeService{}
	h := NewFusionHandler(nil, svc, nil)

	rec, _ := serve(t, h, http.MethodPost, "/api/ledger/entries/x/outcome", `{"outcome":"open","exitPrice":90}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = serve(t, h, http.MethodPost, "/api/ledger/entries/x/outcome", `{"outcome":"win","exitPrice":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.gotID)
}

func TestEntries(t *testing.T) {
	svc := &fakeService{}
	h := NewFusionHandler(nil, svc, nil)

	rec, env := serve(t, h, http.MethodGet,
		"/api/ledger/entries?asset=SOL&outcome=open&since=2026-01-01T00:00:00Z&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "SOL", svc.gotFilter.Asset)
	assert.Equal(t, models.OutcomeOpen, svc.gotFilter.Outcome)
	assert.Equal(t, 5, svc.gotFilter.Limit)
	assert.True(t, svc.gotFilter.Since.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, svc.gotFilter.Until.IsZero())

	var list struct {
		Rows  []models.LedgerEntry `json:"rows"`
		Total int64                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, "e1", list.Rows[0].ID)
}

func TestEntries_DefaultLimitAndBadInput(t *testing.T) {
	svc := &fakeService{}
	h := NewFusionHandler(nil, svc, nil)

	rec, _ := serve(t, h, http.MethodGet, "/api/ledger/entries", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, svc.gotFilter.Limit)

	rec, _ = serve(t, h, http.MethodGet, "/api/ledger/entries?outcome=pending", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, h, http.MethodGet, "/api/ledger/entries?since=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsEndpoints(t *testing.T) {
	svc := &fakeService{}
	h := NewFusionHandler(nil, svc, nil)

	rec, env := serve(t, h, http.MethodGet, "/api/ledger/stats?marketType=solana", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.MarketSolana, svc.gotFilter.MarketType)
	var stats models.PerformanceStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 3, stats.TotalTrades)

	rec, _ = serve(t, h, http.MethodGet, "/api/ledger/signal-types", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = serve(t, h, http.MethodGet, "/api/ledger/stats?since=2026-02-01T00:00:00Z&until=2026-01-01T00:00:00Z", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = serve(t, h, http.MethodGet, "/api/ledger/stats?marketType=bonds", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListEndpoints(t *testing.T) {
	h := NewFusionHandler(nil, &fakeService{}, nil)

	rec, env := serve(t, h, http.MethodGet, "/api/patterns", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"total":2`)

	rec, env = serve(t, h, http.MethodGet, "/api/edges/active", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"entryId":"e1"`)
}

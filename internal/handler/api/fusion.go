package api

import (
	"context"

	"SignalFusion/internal/domain/models"
	"SignalFusion/internal/service/ratelimit"
	"SignalFusion/internal/services/ledger"
	"SignalFusion/internal/usecase"
	xhttp "SignalFusion/pkg/http"
	xlogger "SignalFusion/pkg/logger"
	"SignalFusion/pkg/util"

	"github.com/labstack/echo/v4"
)

var (
	_ xhttp.Handler = (*FusionHandler)(nil)
	_ FusionService = (*usecase.FusionUseCase)(nil)
)

// FusionService is what the HTTP surface needs from the engine.
type FusionService interface {
	Analyze(ctx context.Context, query string, data *models.SensorData, record bool) (models.SignalFusionOutput, error)
	ReportOutcome(ctx context.Context, id string, outcome models.Outcome, exitPrice float64, notes string) (models.LedgerEntry, error)
	Patterns() []models.Pattern
	Entries(f models.EntryFilter) []models.LedgerEntry
	Stats(f models.EntryFilter) models.PerformanceStats
	SignalTypeStats(f models.EntryFilter) []models.SignalTypeStats
	ActiveEdges() []models.ActiveEdge
}

// FusionHandler serves the analysis and ledger endpoints.
type FusionHandler struct {
	logger *xlogger.Logger
	svc    FusionService
	rl     *ratelimit.Limiter
}

// NewFusionHandler builds the handler. A nil limiter disables rate limiting.
func NewFusionHandler(logger *xlogger.Logger, svc FusionService, rl *ratelimit.Limiter) *FusionHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &FusionHandler{logger: logger, svc: svc, rl: rl}
}

func (h *FusionHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/analyze", h.Analyze)
	g.GET("/patterns", h.Patterns)
	g.GET("/edges/active", h.ActiveEdges)

	lg := g.Group("/ledger")
	lg.GET("/entries", h.Entries)
	lg.POST("/entries/:id/outcome", h.Outcome)
	lg.GET("/stats", h.Stats)
	lg.GET("/signal-types", h.SignalTypes)
}

func (h *FusionHandler) Analyze(c echo.Context) error {
	if h.rl != nil && !h.rl.Allow(c.RealIP()+":analyze") {
		h.logger.Warn("analyze rate limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many analyze requests"))
	}

	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	out, err := h.svc.Analyze(c.Request().Context(), req.Query, &req.Data, req.Record)
	if err != nil {
		appErr := xhttp.MapError(err, "analysis could not be recorded", xhttp.ErrorCase{
			Target: usecase.ErrInvalidSnapshot,
			Build:  func(err error) *xhttp.AppError { return xhttp.BadRequestError("data.asset", err.Error()) },
		})
		if appErr.Status >= 500 {
			h.logger.Error("analyze usecase error", xlogger.String("asset", req.Data.Asset), xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, appErr)
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *FusionHandler) Patterns(c echo.Context) error {
	ps := h.svc.Patterns()
	return xhttp.ListResponse(c, ps, int64(len(ps)))
}

func (h *FusionHandler) ActiveEdges(c echo.Context) error {
	edges := h.svc.ActiveEdges()
	return xhttp.ListResponse(c, edges, int64(len(edges)))
}

func (h *FusionHandler) Entries(c echo.Context) error {
	req := &models.EntriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, to, field, ok := util.ParseRange(req.Since, req.Until)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(field, "invalid time range"))
	}

	rows := h.svc.Entries(models.EntryFilter{
		Asset:      req.Asset,
		MarketType: models.MarketType(req.MarketType),
		Outcome:    models.Outcome(req.Outcome),
		Since:      from,
		Until:      to,
		Limit:      req.Limit,
	})
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *FusionHandler) Outcome(c echo.Context) error {
	req := &models.OutcomeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	entry, err := h.svc.ReportOutcome(c.Request().Context(), req.ID, models.Outcome(req.Outcome), req.ExitPrice, req.Notes)
	if err != nil {
		appErr := xhttp.MapError(err, "outcome could not be saved", outcomeCases...)
		if appErr.Status >= 500 {
			h.logger.Error("report outcome error", xlogger.String("entry", req.ID), xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, appErr)
	}
	return xhttp.SuccessResponse(c, entry)
}

func (h *FusionHandler) Stats(c echo.Context) error {
	f, ok, err := statsFilter(c)
	if !ok {
		return err
	}
	return xhttp.SuccessResponse(c, h.svc.Stats(f))
}

func (h *FusionHandler) SignalTypes(c echo.Context) error {
	f, ok, err := statsFilter(c)
	if !ok {
		return err
	}
	rows := h.svc.SignalTypeStats(f)
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// statsFilter binds a StatsRequest. When ok is false the error response
// has been written and err is what the handler returns.
func statsFilter(c echo.Context) (f models.EntryFilter, ok bool, err error) {
	req := &models.StatsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return f, false, xhttp.BadRequestResponse(c, verr)
	}
	from, to, field, valid := util.ParseRange(req.Since, req.Until)
	if !valid {
		return f, false, xhttp.AppErrorResponse(c, xhttp.BadRequestError(field, "invalid time range"))
	}
	return models.EntryFilter{
		Asset:      req.Asset,
		MarketType: models.MarketType(req.MarketType),
		Since:      from,
		Until:      to,
	}, true, nil
}

var outcomeCases = []xhttp.ErrorCase{
	{Target: ledger.ErrEntryNotFound, Build: func(error) *xhttp.AppError {
		return xhttp.NotFoundError("ledger entry not found")
	}},
	{Target: ledger.ErrEntryClosed, Build: func(error) *xhttp.AppError {
		return xhttp.ConflictError("ledger entry already closed")
	}},
	{Target: ledger.ErrInvalidOutcome, Build: func(err error) *xhttp.AppError {
		return xhttp.BadRequestError("outcome", err.Error())
	}},
	{Target: ledger.ErrInvalidExitPrice, Build: func(err error) *xhttp.AppError {
		return xhttp.BadRequestError("exitPrice", err.Error())
	}},
}

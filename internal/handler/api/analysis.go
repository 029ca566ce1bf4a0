package api

import (
	"net/http"

	"IntelliMarket/internal/domain/models"
	"IntelliMarket/internal/usecase"
	xhttp "IntelliMarket/pkg/http"
	"IntelliMarket/pkg/http/middleware"
	xlogger "IntelliMarket/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnalysisHandler serves the display surface: analysis forms, recent
// history and progress.
type AnalysisHandler struct {
	logger  *xlogger.Logger
	ctrl    *usecase.Controller
	limiter middleware.Limiter
}

func NewAnalysisHandler(logger *xlogger.Logger, ctrl *usecase.Controller, limiter middleware.Limiter) *AnalysisHandler {
	return &AnalysisHandler{logger: logger, ctrl: ctrl, limiter: limiter}
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")

	analyze := g.Group("/analyze", middleware.RateLimit(h.limiter))
	analyze.POST("/stock", h.Stock)
	analyze.POST("/comparison", h.Comparison)
	analyze.POST("/research", h.Research)
	analyze.POST("/query", h.Query)

	g.GET("/history", h.History)
	g.DELETE("/history", h.ClearHistory)
	g.GET("/progress", h.Progress)
	g.GET("/state", h.State)
}

func (h *AnalysisHandler) Stock(c echo.Context) error {
	req := &models.StockForm{}
	if err := xhttp.Bind(c, req); err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	ctx := c.Request().Context()

	if req.Async {
		handle, err := h.ctrl.AnalyzeStockAsync(ctx, req.Symbol, req.Type)
		if err != nil {
			return h.fail(c, err)
		}
		view, err := h.ctrl.WaitForTask(ctx, handle.TaskID, req.Symbol, req.Type)
		return h.respond(c, view, err)
	}

	view, err := h.ctrl.AnalyzeStock(ctx, req.Symbol, req.Type)
	return h.respond(c, view, err)
}

func (h *AnalysisHandler) Comparison(c echo.Context) error {
	req := &models.ComparisonForm{}
	if err := xhttp.Bind(c, req); err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	view, err := h.ctrl.CompareStocks(c.Request().Context(), xhttp.ParseSymbolList(req.Symbols))
	return h.respond(c, view, err)
}

func (h *AnalysisHandler) Research(c echo.Context) error {
	req := &models.ResearchForm{}
	if err := xhttp.Bind(c, req); err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	view, err := h.ctrl.MarketResearch(c.Request().Context(), req.Topic)
	return h.respond(c, view, err)
}

func (h *AnalysisHandler) Query(c echo.Context) error {
	req := &models.QueryForm{}
	if err := xhttp.Bind(c, req); err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	view, err := h.ctrl.CustomQuery(c.Request().Context(), req.Query)
	return h.respond(c, view, err)
}

func (h *AnalysisHandler) History(c echo.Context) error {
	recent := h.ctrl.Recent(c.Request().Context())
	return xhttp.PageResponse(c, recent, len(recent))
}

func (h *AnalysisHandler) ClearHistory(c echo.Context) error {
	if err := h.ctrl.ClearRecent(c.Request().Context()); err != nil {
		h.logger.Error("clear history error", xlogger.Error(err))
		return xhttp.ErrorResponse(c, http.StatusInternalServerError, xhttp.GenericErrorMessage)
	}
	return xhttp.NoContentResponse(c)
}

func (h *AnalysisHandler) Progress(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.ctrl.Progress().Snapshot())
}

func (h *AnalysisHandler) State(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.ctrl.State().Snapshot())
}

func (h *AnalysisHandler) respond(c echo.Context, view *usecase.ResultView, err error) error {
	if err != nil {
		return h.fail(c, err)
	}
	res := view.Result
	return xhttp.SuccessResponse(c, &models.AnalysisView{
		Kind:     res.Kind,
		Subject:  res.Subject,
		HTML:     view.HTML,
		Sections: res.Sections,
		Recent:   h.ctrl.State().Recent(),
	})
}

func (h *AnalysisHandler) fail(c echo.Context, err error) error {
	kind := xhttp.KindOf(err)
	if kind != xhttp.KindValidation {
		h.logger.Warn("analysis request failed", xlogger.String("path", c.Path()), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, err)
}

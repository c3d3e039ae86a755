package api

import (
	"net/http"

	models "QuantPulse/internal/domain/models"
	domrepo "QuantPulse/internal/domain/repository"
	"QuantPulse/internal/service/ratelimit"
	"QuantPulse/internal/usecase"
	xhttp "QuantPulse/pkg/http"
	xlogger "QuantPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// BacktestsHandler serves backtest submission and result retrieval.
type BacktestsHandler struct {
	logger *xlogger.Logger
	uc     *usecase.BacktestUseCase
	rl     *ratelimit.Limiter
}

func NewBacktestsHandler(logger *xlogger.Logger, uc *usecase.BacktestUseCase) *BacktestsHandler {
	return &BacktestsHandler{logger: logger, uc: uc, rl: ratelimit.New()}
}

func (h *BacktestsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.POST("/backtests", h.Submit)
	g.GET("/backtests/:id", h.Result)
	g.GET("/trades", h.Trades)
}

// Submit runs a backtest. async=true enqueues the run and returns its ID,
// otherwise the full result is returned inline.
func (h *BacktestsHandler) Submit(c echo.Context) error {
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	// backtests are expensive; a tighter bucket than the read endpoints
	if !h.rl.Allow(c.RealIP()+":backtest", 2, 0.5) {
		h.logger.Warn("backtests.submit rate_limited", xlogger.String("remote", c.RealIP()))
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
	}

	params := usecase.RunBacktestParams{
		Symbol:    req.Symbol,
		From:      req.From,
		To:        req.To,
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
	}

	if req.Async {
		sub, err := h.uc.Submit(c.Request().Context(), params)
		if err != nil {
			h.logger.Error("backtests.submit error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		return c.JSON(http.StatusAccepted, sub)
	}

	res, err := h.uc.Run(c.Request().Context(), params)
	if err != nil {
		h.logger.Error("backtests.run error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Result returns a finished async run, or 404 while it is pending.
func (h *BacktestsHandler) Result(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return xhttp.BadRequestResponse(c, map[string]string{"error": "id required"})
	}
	res, ok, err := h.uc.Result(id)
	if err != nil {
		h.logger.Error("backtests.result error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"status": "pending"})
	}
	return xhttp.SuccessResponse(c, res)
}

// Trades returns the most recent persisted trade-log entries for a symbol.
func (h *BacktestsHandler) Trades(c echo.Context) error {
	req := &models.TradesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if !h.rl.Allow(c.RealIP()+":trades", 5, 2) {
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
	}

	trades, err := h.uc.RecentTrades(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		h.logger.Error("backtests.trades error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, trades)
}

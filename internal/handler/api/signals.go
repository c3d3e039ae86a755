package api

import (
	"encoding/json"
	"net/http"
	"time"

	models "QuantPulse/internal/domain/models"
	domrepo "QuantPulse/internal/domain/repository"
	icache "QuantPulse/internal/service/cache"
	"QuantPulse/internal/service/ratelimit"
	"QuantPulse/internal/usecase"
	xhttp "QuantPulse/pkg/http"
	xlogger "QuantPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SignalsHandler serves the live strategy endpoints: latest signal, position
// status, risk status, and raw candle history.
type SignalsHandler struct {
	logger *xlogger.Logger
	live   *usecase.LiveSignalUseCase
	bars   *usecase.BarsUseCase
	cache  icache.BytesCache
	rl     *ratelimit.Limiter
}

func NewSignalsHandler(logger *xlogger.Logger, live *usecase.LiveSignalUseCase, bars *usecase.BarsUseCase) *SignalsHandler {
	return &SignalsHandler{logger: logger, live: live, bars: bars, rl: ratelimit.New()}
}

func (h *SignalsHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.GET("/signals/latest", h.Latest)
	g.GET("/position", h.Position)
	g.GET("/risk", h.Risk)
	g.GET("/bars", h.Bars)
}

func (h *SignalsHandler) Latest(c echo.Context) error {
	req := &models.LatestSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.N <= 0 {
		req.N = 600
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	if !h.rl.Allow(c.RealIP()+":latest", 5, 2) {
		h.logger.Warn("signals.latest rate_limited", xlogger.String("remote", c.RealIP()))
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
	}

	cacheKey := "signal:" + req.Symbol + ":" + string(tf)
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			h.logger.Warn("signals.latest cache_get_error", xlogger.Error(err))
		} else if ok {
			h.logger.Debug("signals.latest cache_hit", xlogger.String("key", cacheKey))
			return c.JSONBlob(http.StatusOK, b)
		}
	}

	rec, err := h.live.ComputeLatest(c.Request().Context(), req.Symbol, req.N, tf)
	if err != nil {
		h.logger.Error("signals.latest error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	if h.cache != nil {
		if b, merr := json.Marshal(rec); merr == nil {
			if err := h.cache.SetBytes(cacheKey, b, 30*time.Second); err != nil {
				h.logger.Warn("signals.latest cache_set_error", xlogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, rec)
}

func (h *SignalsHandler) Position(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.live.PositionStatus())
}

func (h *SignalsHandler) Risk(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.live.RiskStatus())
}

func (h *SignalsHandler) Bars(c echo.Context) error {
	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.To.IsZero() {
		req.To = time.Now().UTC()
	}
	if req.From.IsZero() {
		req.From = req.To.Add(-24 * time.Hour)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	if !h.rl.Allow(c.RealIP()+":bars", 5, 2) {
		h.logger.Warn("signals.bars rate_limited", xlogger.String("remote", c.RealIP()))
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
	}

	res, err := h.bars.GetBars(c.Request().Context(), usecase.GetBarsParams{
		Symbol:    req.Symbol,
		From:      req.From,
		To:        req.To,
		Timeframe: tf,
		Limit:     req.Limit,
	})
	if err != nil {
		h.logger.Error("signals.bars error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
	"github.com/aayeshatech/SYMBOLASTRO/internal/service/ratelimit"
	"github.com/aayeshatech/SYMBOLASTRO/internal/usecase"
	xhttp "github.com/aayeshatech/SYMBOLASTRO/pkg/http"
	xlogger "github.com/aayeshatech/SYMBOLASTRO/pkg/logger"
	"github.com/aayeshatech/SYMBOLASTRO/pkg/util"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// AnalysisEchoHandler serves the analysis API and the websocket stream.
type AnalysisEchoHandler struct {
	logger   *xlogger.Logger
	uc       *usecase.AnalysisUseCase
	limiter  *ratelimit.Limiter
	upgrader websocket.Upgrader

	// streamCtx is cancelled by Drain and ends every open stream.
	streamCtx   context.Context
	stopStreams context.CancelFunc
	streams     sync.WaitGroup
}

func NewAnalysisEchoHandler(logger *xlogger.Logger, uc *usecase.AnalysisUseCase, limiter *ratelimit.Limiter) *AnalysisEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	streamCtx, stopStreams := context.WithCancel(context.Background())
	return &AnalysisEchoHandler{
		logger:      logger,
		uc:          uc,
		limiter:     limiter,
		streamCtx:   streamCtx,
		stopStreams: stopStreams,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api", h.rateLimit)
	g.GET("/analysis", h.AnalysisQuery)
	g.GET("/analysis/:symbol/:timeframe", h.Analysis)
	g.GET("/symbols", h.Symbols)
	g.GET("/schema", h.Schema)

	e.GET("/ws/analysis", h.Stream, h.rateLimit)
}

func (h *AnalysisEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !h.limiter.Allow(c.RealIP()) {
			c.Response().Header().Set("Retry-After", "1")
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limit exceeded"))
		}
		return next(c)
	}
}

// Health reports liveness.
func (h *AnalysisEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// Analysis handles GET /api/analysis/:symbol/:timeframe.
func (h *AnalysisEchoHandler) Analysis(c echo.Context) error {
	return h.analyze(c)
}

// AnalysisQuery handles GET /api/analysis?symbol=&timeframe=.
func (h *AnalysisEchoHandler) AnalysisQuery(c echo.Context) error {
	return h.analyze(c)
}

func (h *AnalysisEchoHandler) analyze(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var asOf time.Time
	if req.AsOf != "" {
		t, ok := util.ParseTime(req.AsOf)
		if !ok {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("ERR_INVALID_AS_OF", "as_of", "as_of must be RFC3339, YYYY-MM-DD or unix seconds"))
		}
		asOf = t
	}

	res, err := h.uc.ComputeAsOf(c.Request().Context(), req.Symbol, req.Timeframe, asOf)
	if err != nil {
		return h.fail(c, "analysis", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

// Symbols lists the symbols offered to the dashboard.
func (h *AnalysisEchoHandler) Symbols(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string][]string{"symbols": h.uc.Symbols()})
}

// Schema describes the stable field layout of an analysis result.
func (h *AnalysisEchoHandler) Schema(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=3600")
	return xhttp.SuccessResponse(c, ResultSchema)
}

// fail maps domain errors to 400 and everything else to 500.
func (h *AnalysisEchoHandler) fail(c echo.Context, op string, err error) error {
	if appErr := toAppError(err); appErr != nil {
		return xhttp.AppErrorResponse(c, appErr)
	}
	h.logger.Error(op+" usecase error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalError("analysis failed").WithError(err))
}

func toAppError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, models.ErrEmptySymbol):
		return xhttp.BadRequestError("ERR_EMPTY_SYMBOL", "symbol", "symbol is required").WithError(err)
	case errors.Is(err, models.ErrInvalidTimeframe):
		return xhttp.BadRequestError("ERR_INVALID_TIMEFRAME", "timeframe", "timeframe must be one of: intraday, daily, weekly, monthly").
			WithParam("options", []string{"intraday", "daily", "weekly", "monthly"}).
			WithError(err)
	default:
		return nil
	}
}

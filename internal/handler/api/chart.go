package api

import (
	"errors"
	"net/http"

	"DepthView/internal/domain/models"
	"DepthView/internal/market"
	"DepthView/internal/usecase"
	xhttp "DepthView/pkg/http"
	xlogger "DepthView/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ChartHandler exposes the render and control surface over Echo.
type ChartHandler struct {
	logger  *xlogger.Logger
	chart   *usecase.Chart
	tickers *usecase.Tickers
	errors  *xlogger.ErrorCollector
}

func NewChartHandler(logger *xlogger.Logger, chart *usecase.Chart, tickers *usecase.Tickers, errors *xlogger.ErrorCollector) *ChartHandler {
	return &ChartHandler{logger: logger, chart: chart, tickers: tickers, errors: errors}
}

func (h *ChartHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/snapshot", h.Snapshot)
	g.GET("/sentiment", h.Sentiment)
	g.GET("/tickers", h.Tickers)
	g.POST("/instrument", h.Instrument)
	g.POST("/settings", h.Settings)
}

// Snapshot serves one render frame for the requested visible range. When
// ingestion holds a guard the frame is skipped and the client keeps its
// previous frame.
func (h *ChartHandler) Snapshot(c echo.Context) error {
	req := &models.SnapshotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.To != 0 && req.To < req.From {
		return xhttp.BadRequestResponse(c, "to must not precede from")
	}

	m, err := h.chart.Snapshot(req.From, req.To, req.BucketSize)
	if err != nil {
		if errors.Is(err, market.ErrFrameSkipped) {
			return xhttp.AppErrorResponse(c, xhttp.NewAppError(
				"frame_skipped", "", "state busy, retry next frame", http.StatusServiceUnavailable))
		}
		h.logger.Error("snapshot usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	// Optional cap on book depth per side, keeping the rows nearest the
	// spread. Both sides are sorted ascending by price, so that is the tail
	// of the bids and the head of the asks.
	if levels := xhttp.ParseIntDefault(c.QueryParam("levels"), 0); levels > 0 {
		if len(m.Bids) > levels {
			m.Bids = m.Bids[len(m.Bids)-levels:]
		}
		if len(m.Asks) > levels {
			m.Asks = m.Asks[:levels]
		}
	}
	return xhttp.SuccessResponse(c, m)
}

func (h *ChartHandler) Sentiment(c echo.Context) error {
	s, err := h.chart.Sentiment()
	if err != nil {
		if errors.Is(err, market.ErrFrameSkipped) {
			return xhttp.AppErrorResponse(c, xhttp.NewAppError(
				"frame_skipped", "", "state busy, retry next frame", http.StatusServiceUnavailable))
		}
		h.logger.Error("sentiment usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, s)
}

func (h *ChartHandler) Tickers(c echo.Context) error {
	rows, err := h.tickers.Overview(c.Request().Context())
	if err != nil {
		h.logger.Error("tickers usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, rows)
}

// Instrument switches the active symbol. The old session is drained and the
// new one seeded before this returns.
func (h *ChartHandler) Instrument(c echo.Context) error {
	req := &models.InstrumentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.chart.SwitchInstrument(req.Symbol); err != nil {
		h.logger.Error("instrument switch error",
			xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"symbol": h.chart.Symbol()})
}

func (h *ChartHandler) Settings(c echo.Context) error {
	req := &models.SettingsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	h.chart.UpdateSettings(req.BucketSize, req.TickSize)
	return xhttp.NoContentResponse(c)
}

// Health reports session liveness plus the most recent warn/error entries so
// a failing feed is visible without scraping logs.
func (h *ChartHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":        "ok",
		"symbol":        h.chart.Symbol(),
		"connected":     h.chart.IsConnected(),
		"recent_errors": h.errors.Recent(),
	})
}

package api

import (
	"context"
	"net/http"

	"ETFScraper/internal/domain/models"
	dservice "ETFScraper/internal/domain/service"
	xhttp "ETFScraper/pkg/http"
	xlogger "ETFScraper/pkg/logger"

	"github.com/labstack/echo/v4"
)

const serviceName = "etf-scraper"

// HoldingsEchoHandler serves the health check and the holdings endpoint.
type HoldingsEchoHandler struct {
	logger   *xlogger.Logger
	holdings dservice.HoldingsService
}

func NewHoldingsEchoHandler(logger *xlogger.Logger, holdings dservice.HoldingsService) *HoldingsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &HoldingsEchoHandler{logger: logger.Component("api"), holdings: holdings}
}

func (h *HoldingsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Health)
	e.GET("/etf-holdings", h.Holdings)
	e.GET("/etf-holdings/", h.Holdings)
	e.GET("/etf-holdings/:symbol", h.Holdings)
}

func (h *HoldingsEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, xhttp.HealthResponse{Status: "ok", Service: serviceName})
}

// Holdings returns 200 with the fetch result unless the upstream failed, in
// which case the error kind selects 504, 502 or 500.
func (h *HoldingsEchoHandler) Holdings(c echo.Context) error {
	req := &models.HoldingsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	// The upstream call is bounded by its own timeout; a client disconnect
	// does not abort it.
	ctx := context.WithoutCancel(c.Request().Context())
	res := h.holdings.GetETFHoldings(ctx, req.Symbol)

	if res.Status == models.StatusUpstreamFailed {
		kind := res.ErrorKindValue()
		h.logger.Warn("holdings request failed",
			xlogger.String("symbol", req.Symbol),
			xlogger.String("kind", string(kind)),
		)
		return xhttp.AppErrorResponse(c, upstreamError(kind))
	}
	return xhttp.SuccessResponse(c, res)
}

func upstreamError(kind models.ErrorKind) *xhttp.AppError {
	switch kind {
	case models.ErrorKindTimeout:
		return xhttp.GatewayTimeoutError("Timed out fetching ETF holdings")
	case models.ErrorKindGateway:
		return xhttp.BadGatewayError("ETF data provider is unavailable")
	default:
		return xhttp.NewAppError("ERR_UPSTREAM", "", "Failed to fetch ETF holdings", http.StatusInternalServerError)
	}
}

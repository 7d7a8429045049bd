package api

import (
	"net/http"
	"strings"
	"time"

	"EconDash/internal/domain/models"
	xhttp "EconDash/pkg/http"
	applogger "EconDash/pkg/logger"
	"EconDash/pkg/util"

	"github.com/labstack/echo/v4"
)

func (h *DashboardHandler) ListIndicators(c echo.Context) error {
	views, err := h.dash.Indicators(c.Request().Context())
	if err != nil {
		return h.fail(c, "list indicators", err)
	}
	return xhttp.ListResponse(c, views, int64(len(views)))
}

func (h *DashboardHandler) GetIndicator(c echo.Context) error {
	req := &models.IndicatorRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	v, err := h.dash.Indicator(c.Request().Context(), req.ID)
	if err != nil {
		return h.fail(c, "get indicator", err)
	}
	return xhttp.SuccessResponse(c, v)
}

// ClearIndicator drops the stored entry so the next run refetches it.
func (h *DashboardHandler) ClearIndicator(c echo.Context) error {
	req := &models.IndicatorRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.dash.Clear(c.Request().Context(), req.ID); err != nil {
		return h.fail(c, "clear indicator", err)
	}
	h.l.Info("cache entry cleared", applogger.String("indicator", req.ID), applogger.String("remote", c.RealIP()))
	return xhttp.NoContentResponse(c)
}

func (h *DashboardHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	from, err := parseBound(req.From)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid from: %v", err).WithParam("from", req.From))
	}
	to, err := parseBound(req.To)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("invalid to: %v", err).WithParam("to", req.To))
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("to is before from"))
	}

	obs, err := h.dash.History(c.Request().Context(), req.ID, from, to, req.Limit)
	if err != nil {
		return h.fail(c, "history", err)
	}
	if obs == nil {
		obs = []models.Observation{}
	}
	return xhttp.ListResponse(c, obs, int64(len(obs)))
}

func parseBound(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return util.ParsePeriod(s)
}

func (h *DashboardHandler) GetDashboard(c echo.Context) error {
	d, err := h.dash.Dashboard(c.Request().Context())
	if err != nil {
		return h.fail(c, "dashboard", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, d)
}

func (h *DashboardHandler) GetStatus(c echo.Context) error {
	rep, err := h.dash.Status(c.Request().Context())
	if err != nil {
		return h.fail(c, "status", err)
	}
	return xhttp.SuccessResponse(c, rep)
}

// Refresh runs an update synchronously and returns its summary.
func (h *DashboardHandler) Refresh(c echo.Context) error {
	req := &models.RefreshRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	summary, err := h.refresh(c, models.RunOptions{Force: req.Force, Only: req.Only, Trigger: "api"})
	if err != nil {
		return h.fail(c, "refresh", err)
	}
	return xhttp.DataResponse(c, http.StatusOK, summary)
}

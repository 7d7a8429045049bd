package api

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"EconDash/internal/domain/models"
	"EconDash/internal/service/charts"
	"EconDash/internal/service/ratelimit"
	xhttp "EconDash/pkg/http"
	applogger "EconDash/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DashboardReader is the read side the pages and the JSON API render from.
type DashboardReader interface {
	Dashboard(ctx context.Context) (*models.Dashboard, error)
	Indicators(ctx context.Context) ([]models.IndicatorView, error)
	Indicator(ctx context.Context, id string) (*models.IndicatorView, error)
	History(ctx context.Context, id string, from, to time.Time, limit int) ([]models.Observation, error)
	Status(ctx context.Context) (*models.StatusReport, error)
	Clear(ctx context.Context, id string) error
}

// RefreshRunner starts an update run.
type RefreshRunner interface {
	Run(ctx context.Context, opts models.RunOptions) (*models.RunSummary, error)
}

// ChartRenderer draws PNG charts.
type ChartRenderer interface {
	Indicator(ctx context.Context, id string, opt charts.Options) ([]byte, error)
	Group(ctx context.Context, name string, opt charts.Options) ([]byte, error)
}

// ReportGenerator builds the PDF report.
type ReportGenerator interface {
	Generate(ctx context.Context) ([]byte, error)
}

// Locker serialises manual refreshes across requests.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// DashboardHandler serves the web UI, the JSON API, charts, the PDF report
// and the websocket stream.
type DashboardHandler struct {
	dash           DashboardReader
	runner         RefreshRunner
	charts         ChartRenderer
	report         ReportGenerator
	hub            http.Handler
	locks          Locker
	limiter        *ratelimit.Limiter
	refreshTimeout time.Duration
	page           *template.Template
	l              *applogger.Logger
}

func NewDashboardHandler(
	dash DashboardReader,
	runner RefreshRunner,
	cr ChartRenderer,
	report ReportGenerator,
	hub http.Handler,
	locks Locker,
	limiter *ratelimit.Limiter,
	refreshTimeout time.Duration,
	l *applogger.Logger,
) *DashboardHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &DashboardHandler{
		dash:           dash,
		runner:         runner,
		charts:         cr,
		report:         report,
		hub:            hub,
		locks:          locks,
		limiter:        limiter,
		refreshTimeout: refreshTimeout,
		page:           dashboardPage,
		l:              l.With("handler"),
	}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.POST("/refresh", h.RefreshForm)
	e.GET("/charts/:id", h.IndicatorChart)
	e.GET("/charts/group/:group", h.GroupChart)
	e.GET("/report.pdf", h.Report)
	if h.hub != nil {
		e.GET("/ws", echo.WrapHandler(h.hub))
	}

	g := e.Group("/api")
	g.GET("/indicators", h.ListIndicators)
	g.GET("/indicators/:id", h.GetIndicator)
	g.DELETE("/indicators/:id", h.ClearIndicator)
	g.GET("/indicators/:id/history", h.History)
	g.GET("/dashboard", h.GetDashboard)
	g.GET("/status", h.GetStatus)
	g.POST("/refresh", h.Refresh)
}

// appError maps domain errors onto the API error envelope.
func appError(err error) *xhttp.AppError {
	var ae *xhttp.AppError
	switch {
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, models.ErrUnknownIndicator), errors.Is(err, charts.ErrUnknownGroup):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrEntryNotFound), errors.Is(err, charts.ErrNoData):
		return xhttp.NotFoundError("no stored data").WithError(err)
	case errors.Is(err, models.ErrRefreshInProgress):
		return xhttp.ConflictError(err.Error()).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.UnavailableError("request timed out").WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}

func (h *DashboardHandler) fail(c echo.Context, op string, err error) error {
	ae := appError(err)
	if ae.Status >= http.StatusInternalServerError {
		h.l.Error(op+" failed", applogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, ae)
}

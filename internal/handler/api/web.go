package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"EconDash/internal/domain/models"
	"EconDash/internal/service/charts"
	xhttp "EconDash/pkg/http"
	applogger "EconDash/pkg/logger"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

var dashboardPage = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"num":   num,
	"pct":   pct,
	"delta": delta,
	"ago":   ago,
	"day":   func(t time.Time) string { return fmtTime(t, "2 Jan 2006") },
	"stamp": func(t time.Time) string { return fmtTime(t, "2 Jan 2006 15:04 MST") },
	"tone":  func(t models.Tone) string { return "tone-" + string(t) },
}).ParseFS(templateFS, "templates/dashboard.html"))

type pageData struct {
	D      *models.Dashboard
	Status *models.StatusReport
	Flash  string
	Failed bool
}

// Index renders the dashboard from stored data only.
func (h *DashboardHandler) Index(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := h.dash.Dashboard(ctx)
	if err != nil {
		h.l.Error("dashboard failed", applogger.Error(err))
		return c.String(http.StatusInternalServerError, "dashboard unavailable")
	}
	st, err := h.dash.Status(ctx)
	if err != nil {
		h.l.Error("status failed", applogger.Error(err))
		return c.String(http.StatusInternalServerError, "dashboard unavailable")
	}

	data := pageData{D: d, Status: st}
	if run := c.QueryParam("run"); run != "" {
		data.Flash = "Update finished: " + run
		data.Failed = run != string(models.RunSuccess)
	}
	if msg := c.QueryParam("error"); msg != "" {
		data.Flash = "Update not run: " + msg
		data.Failed = true
	}

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		h.l.Error("render dashboard", applogger.Error(err))
		return c.String(http.StatusInternalServerError, "dashboard unavailable")
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// RefreshForm handles the dashboard button: it runs an update and redirects
// back to the page with the outcome.
func (h *DashboardHandler) RefreshForm(c echo.Context) error {
	req := &models.RefreshRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return c.Redirect(http.StatusSeeOther, "/?error="+url.QueryEscape("invalid request"))
	}
	summary, err := h.refresh(c, models.RunOptions{Force: req.Force, Only: req.Only, Trigger: "web"})
	if err != nil {
		ae := appError(err)
		if ae.Status >= http.StatusInternalServerError {
			h.l.Error("refresh failed", applogger.Error(err))
		}
		return c.Redirect(http.StatusSeeOther, "/?error="+url.QueryEscape(ae.Message))
	}
	return c.Redirect(http.StatusSeeOther, "/?run="+url.QueryEscape(string(summary.Status)))
}

func (h *DashboardHandler) IndicatorChart(c echo.Context) error {
	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	png, err := h.charts.Indicator(c.Request().Context(), req.ID, charts.Options{Width: req.Width, Height: req.Height, Points: req.Points})
	if err != nil {
		return h.fail(c, "indicator chart", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return c.Blob(http.StatusOK, "image/png", png)
}

func (h *DashboardHandler) GroupChart(c echo.Context) error {
	req := &models.ChartGroupRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	png, err := h.charts.Group(c.Request().Context(), req.Group, charts.Options{Width: req.Width, Height: req.Height})
	if err != nil {
		return h.fail(c, "group chart", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return c.Blob(http.StatusOK, "image/png", png)
}

func (h *DashboardHandler) Report(c echo.Context) error {
	pdf, err := h.report.Generate(c.Request().Context())
	if err != nil {
		return h.fail(c, "report", err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="economic-indicators.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

func num(v float64, places int) string {
	return strconv.FormatFloat(v, 'f', places, 64)
}

func pct(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%+.2f%%", *p)
}

func delta(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%+.3f", *p)
}

func ago(seconds int64) string {
	d := time.Duration(seconds) * time.Second
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func fmtTime(t time.Time, layout string) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(layout)
}

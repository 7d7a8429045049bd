package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"EconDash/internal/domain/models"
	rcache "EconDash/internal/service/cache"
	"EconDash/internal/service/charts"
	rmetrics "EconDash/internal/service/metrics"
	applogger "EconDash/pkg/logger"

	"github.com/go-pdf/fpdf"
)

// DashboardSource supplies the report content.
type DashboardSource interface {
	Dashboard(ctx context.Context) (*models.Dashboard, error)
}

// ChartSource renders chart groups for embedding.
type ChartSource interface {
	Group(ctx context.Context, name string, opt charts.Options) ([]byte, error)
}

type rgb struct{ r, g, b int }

var toneColours = map[models.Tone]rgb{
	models.ToneGood:    {198, 239, 206},
	models.ToneMild:    {235, 241, 222},
	models.ToneNeutral: {255, 242, 204},
	models.ToneBad:     {255, 199, 206},
	models.ToneSevere:  {230, 124, 115},
}

const (
	pageWidth = 190.0 // A4 minus 10mm margins
	lineH     = 6.0
)

// Generator builds the weekly PDF report from the stored dashboard.
type Generator struct {
	dash   DashboardSource
	charts ChartSource
	cache  rcache.BytesCache
	ttl    time.Duration
	author string
	groups []string
	l      *applogger.Logger
}

// NewGenerator returns a report generator. groups names the chart groups
// embedded after the heatmap, in order.
func NewGenerator(dash DashboardSource, cs ChartSource, c rcache.BytesCache, ttl time.Duration, author string, groups []string, l *applogger.Logger) *Generator {
	if l == nil {
		l = applogger.Nop()
	}
	return &Generator{dash: dash, charts: cs, cache: c, ttl: ttl, author: author, groups: groups, l: l}
}

// Generate returns the report for the current stored data.
func (g *Generator) Generate(ctx context.Context) ([]byte, error) {
	d, err := g.dash.Dashboard(ctx)
	if err != nil {
		return nil, err
	}

	key := "report:" + d.ReportDate.Format("20060102")
	if d.LastRun != nil {
		key += ":" + strconv.FormatInt(d.LastRun.UpdatedAt.Unix(), 36)
	}
	if g.cache != nil {
		if b, ok, err := g.cache.GetBytes(ctx, key); err == nil && ok {
			rmetrics.RenderCacheHits.WithLabelValues("report").Inc()
			return b, nil
		}
	}

	start := time.Now()
	b, err := g.build(ctx, d)
	rmetrics.RenderLatency.WithLabelValues("report").Observe(time.Since(start).Seconds())
	if err != nil {
		rmetrics.RenderErrors.WithLabelValues("report").Inc()
		return nil, err
	}
	if g.cache != nil {
		if err := g.cache.SetBytes(ctx, key, b, g.ttl); err != nil {
			g.l.Warn("report cache write failed", applogger.Error(err))
		}
	}
	return b, nil
}

func (g *Generator) build(ctx context.Context, d *models.Dashboard) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(d.Title, true)
	pdf.SetAuthor(g.author, true)
	pdf.SetMargins(10, 12, 10)
	pdf.AliasNbPages("")
	footer := "Generated " + d.GeneratedAt.Format("2 Jan 2006 15:04 MST")
	if g.author != "" {
		footer = g.author + " - " + footer
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(110, 110, 110)
		pdf.CellFormat(pageWidth/2, 6, tr(footer), "", 0, "L", false, 0, "")
		pdf.CellFormat(pageWidth/2, 6, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(pageWidth, 10, tr(d.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(pageWidth, lineH, "Week ending "+d.ReportDate.Format("2 January 2006"), "", 1, "L", false, 0, "")
	if d.LastRun != nil {
		pdf.CellFormat(pageWidth, lineH, fmt.Sprintf("Data updated %s (%s)", d.LastRun.UpdatedAt.Format("2 Jan 2006 15:04 MST"), d.LastRun.Status), "", 1, "L", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(3)

	if len(d.KeyMetrics) > 0 {
		section(pdf, "Key metrics")
		keyMetrics(pdf, tr, d.KeyMetrics)
		pdf.Ln(4)
	}

	if len(d.Commentary) > 0 {
		section(pdf, "This week")
		pdf.SetFont("Helvetica", "", 10)
		for _, c := range d.Commentary {
			pdf.CellFormat(5, lineH, "-", "", 0, "L", false, 0, "")
			pdf.MultiCell(pageWidth-5, lineH, tr(c), "", "L", false)
			pdf.Ln(1)
		}
		pdf.Ln(3)
	}

	if len(d.Heatmap.Rows) > 0 {
		section(pdf, "Monthly heatmap")
		heatmap(pdf, tr, d.Heatmap)
		pdf.Ln(4)
	}

	for _, name := range g.groups {
		png, err := g.charts.Group(ctx, name, charts.Options{Width: 900, Height: 420})
		if err != nil {
			if !errors.Is(err, charts.ErrNoData) && !errors.Is(err, charts.ErrUnknownGroup) {
				g.l.Warn("report chart skipped", applogger.String("group", name), applogger.Error(err))
			}
			continue
		}
		imgH := pageWidth * 420 / 900
		if pdf.GetY()+imgH > 280 {
			pdf.AddPage()
		}
		opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader("chart-"+name, opts, bytes.NewReader(png))
		pdf.ImageOptions("chart-"+name, 10, pdf.GetY(), pageWidth, imgH, true, opts, 0, "")
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(0, 82, 110)
	pdf.CellFormat(pageWidth, 8, title, "B", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(2)
}

func keyMetrics(pdf *fpdf.Fpdf, tr func(string) string, ms []models.KeyMetric) {
	widths := []float64{70, 45, 35, 40}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(0, 82, 110)
	pdf.SetTextColor(255, 255, 255)
	for i, h := range []string{"Metric", "Value", "Change", "Period"} {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	for i, m := range ms {
		fill := i%2 == 1
		pdf.SetFillColor(242, 246, 248)
		pdf.CellFormat(widths[0], 7, tr(m.Name), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(widths[1], 7, tr(m.Value), "1", 0, "R", fill, 0, "")
		pdf.CellFormat(widths[2], 7, tr(m.Change), "1", 0, "R", fill, 0, "")
		pdf.CellFormat(widths[3], 7, tr(m.Period), "1", 0, "C", fill, 0, "")
		pdf.Ln(-1)
	}
}

func heatmap(pdf *fpdf.Fpdf, tr func(string) string, h models.Heatmap) {
	labelW := 40.0
	cellW := (pageWidth - labelW) / float64(max(len(h.Months), 1))

	pdf.SetFont("Helvetica", "B", 7)
	pdf.SetFillColor(0, 82, 110)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(labelW, 6, "", "1", 0, "L", true, 0, "")
	for _, m := range h.Months {
		pdf.CellFormat(cellW, 6, m, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetTextColor(0, 0, 0)
	for _, row := range h.Rows {
		pdf.CellFormat(labelW, 6, tr(row.Label), "1", 0, "L", false, 0, "")
		for _, c := range row.Cells {
			col, ok := toneColours[c.Tone]
			if ok {
				pdf.SetFillColor(col.r, col.g, col.b)
			}
			pdf.CellFormat(cellW, 6, c.Text, "1", 0, "C", ok, 0, "")
		}
		pdf.Ln(-1)
	}
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"EconDash/internal/domain/models"
	domrepo "EconDash/internal/domain/repository"
	"EconDash/pkg/util"
)

const heatmapMonths = 12

// DashboardService builds read models from the persisted store only; it
// never calls a source adapter.
type DashboardService struct {
	catalog *Catalog
	store   domrepo.EntryStore
	history domrepo.HistoryRepository
	title   string
	now     func() time.Time
}

func NewDashboardService(catalog *Catalog, store domrepo.EntryStore, history domrepo.HistoryRepository, title string) *DashboardService {
	return &DashboardService{catalog: catalog, store: store, history: history, title: title, now: time.Now}
}

// Entry loads the stored entry for a configured indicator.
func (s *DashboardService) Entry(ctx context.Context, id string) (*models.CacheEntry, error) {
	if _, ok := s.catalog.Get(id); !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownIndicator, id)
	}
	return s.store.Load(ctx, id)
}

// Entries loads every configured indicator; missing ones map to nil.
func (s *DashboardService) Entries(ctx context.Context) (map[string]*models.CacheEntry, error) {
	out := make(map[string]*models.CacheEntry)
	for _, ind := range s.catalog.All() {
		e, err := s.store.Load(ctx, ind.ID)
		if err != nil {
			if errors.Is(err, models.ErrEntryNotFound) {
				continue
			}
			return nil, err
		}
		out[ind.ID] = e
	}
	return out, nil
}

// Indicators returns one view per configured indicator, without series.
func (s *DashboardService) Indicators(ctx context.Context) ([]models.IndicatorView, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]models.IndicatorView, 0, len(entries))
	for _, ind := range s.catalog.All() {
		out = append(out, view(ind, entries[ind.ID], now, false))
	}
	return out, nil
}

// Indicator returns the view of one indicator including its series.
func (s *DashboardService) Indicator(ctx context.Context, id string) (*models.IndicatorView, error) {
	ind, ok := s.catalog.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownIndicator, id)
	}
	e, err := s.store.Load(ctx, id)
	if err != nil && !errors.Is(err, models.ErrEntryNotFound) {
		return nil, err
	}
	v := view(ind, e, s.now(), true)
	return &v, nil
}

// History returns archived observations in [from, to]. Without an archive
// the stored entry's series is filtered instead.
func (s *DashboardService) History(ctx context.Context, id string, from, to time.Time, limit int) ([]models.Observation, error) {
	if _, ok := s.catalog.Get(id); !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownIndicator, id)
	}
	if s.history != nil {
		obs, err := s.history.Range(ctx, id, from, to, limit)
		if err == nil {
			return obs, nil
		}
		if !errors.Is(err, models.ErrHistoryUnavailable) {
			return nil, err
		}
	}

	e, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	var out []models.Observation
	for _, o := range e.Observations {
		if (!from.IsZero() && o.Date.Before(from)) || (!to.IsZero() && o.Date.After(to)) {
			continue
		}
		out = append(out, o)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// Status lists every configured indicator with its cache state.
func (s *DashboardService) Status(ctx context.Context) (*models.StatusReport, error) {
	now := s.now()
	rep := &models.StatusReport{Entries: make([]models.SourceStatus, 0)}
	if sum, err := s.store.LoadSummary(ctx); err == nil {
		rep.LastRun = sum
	}

	for _, ind := range s.catalog.All() {
		st := models.SourceStatus{
			Indicator: ind.ID,
			Label:     ind.Label,
			Source:    ind.Source,
			MaxAgeSec: int64(ind.MaxAge.Seconds()),
		}
		e, err := s.store.Load(ctx, ind.ID)
		if err == nil {
			age := e.Age(now)
			st.Present = true
			st.FetchedAt = e.FetchedAt
			st.AgeSeconds = int64(age.Seconds())
			st.Stale = age > ind.MaxAge || e.Error != nil
			st.Observations = len(e.Observations)
			st.Fallback = e.Fallback
			st.Error = e.Error
			st.SizeBytes, _ = s.store.Size(ctx, ind.ID)
		} else if !errors.Is(err, models.ErrEntryNotFound) {
			return nil, err
		}
		rep.Entries = append(rep.Entries, st)
	}
	return rep, nil
}

// Clear deletes the stored entry of one indicator.
func (s *DashboardService) Clear(ctx context.Context, id string) error {
	if _, ok := s.catalog.Get(id); !ok {
		return fmt.Errorf("%w: %s", models.ErrUnknownIndicator, id)
	}
	return s.store.Delete(ctx, id)
}

// Dashboard assembles the main page and report content.
func (s *DashboardService) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	d := &models.Dashboard{
		Title:       s.title,
		ReportDate:  util.ReportDate(now),
		GeneratedAt: now.UTC(),
		KeyMetrics:  KeyMetrics(entries),
		Commentary:  Commentary(entries),
		Heatmap:     BuildHeatmap(entries, now, heatmapMonths),
	}
	if sum, err := s.store.LoadSummary(ctx); err == nil {
		d.LastRun = sum
	}
	for _, ind := range s.catalog.All() {
		d.Indicators = append(d.Indicators, view(ind, entries[ind.ID], now, false))
	}
	for _, g := range s.catalog.Groups() {
		title := g.Title
		if title == "" {
			title = g.Name
		}
		d.Charts = append(d.Charts, models.ChartRef{Title: title, URL: "/charts/group/" + g.Name})
	}
	return d, nil
}

func view(ind models.Indicator, e *models.CacheEntry, now time.Time, withSeries bool) models.IndicatorView {
	v := models.IndicatorView{
		ID:        ind.ID,
		Label:     ind.Label,
		Unit:      ind.Unit,
		Source:    ind.Source,
		Frequency: ind.Frequency,
	}
	if e == nil {
		return v
	}
	v.FetchedAt = e.FetchedAt
	v.AgeSeconds = int64(e.Age(now).Seconds())
	v.Fallback = e.Fallback
	v.Error = e.Error
	v.Available = !e.IsEmpty()

	if latest, ok := e.Latest(); ok {
		v.Latest = &latest
	}
	if prev, ok := e.Previous(); ok {
		v.Previous = &prev
		ch := Change(v.Latest.Value, prev.Value)
		v.Change = &ch
	}
	if ind.Frequency == models.Daily || ind.Frequency == models.Weekly {
		if w, ok := WoW(e.Observations); ok {
			v.WoWPct = &w
		}
	}
	if y, ok := YoY(e.Observations); ok {
		v.YoYPct = &y
	}
	if withSeries {
		v.Series = e.Observations
	}
	return v
}

func latestOf(entries map[string]*models.CacheEntry, id string) (models.Observation, bool) {
	e, ok := entries[id]
	if !ok {
		return models.Observation{}, false
	}
	return e.Latest()
}

// KeyMetrics builds the headline tiles. Tiles without data are left out.
func KeyMetrics(entries map[string]*models.CacheEntry) []models.KeyMetric {
	var out []models.KeyMetric

	if o, ok := latestOf(entries, "cpi"); ok {
		out = append(out, models.KeyMetric{Name: "Consumer Price Index", Value: fmt.Sprintf("%.1f%%", o.Value), Period: o.Date.Format("Jan 2006")})
	}
	if o, ok := latestOf(entries, "live_register"); ok {
		out = append(out, models.KeyMetric{Name: "Live Register", Value: thousands(int64(math.Round(o.Value))), Period: o.Date.Format("Jan 2006")})
	}
	if e, ok := entries["consumer_sentiment"]; ok {
		if o, ok := e.Latest(); ok {
			m := models.KeyMetric{Name: "Consumer Sentiment", Value: fmt.Sprintf("%.1f", o.Value), Period: o.Date.Format("Jan 2006")}
			if p, ok := e.Previous(); ok {
				m.Change = signed(Change(o.Value, p.Value), 1)
			}
			out = append(out, m)
		}
	}
	ie, okIE := latestOf(entries, "ireland_10y")
	de, okDE := latestOf(entries, "germany_10y")
	if okIE && okDE {
		out = append(out, models.KeyMetric{Name: "10Y Bond Spread", Value: fmt.Sprintf("%.3f", Change(ie.Value, de.Value))})
	}
	if e, ok := entries["eur_gbp"]; ok {
		if o, ok := e.Latest(); ok {
			m := models.KeyMetric{Name: "EUR/GBP", Value: fmt.Sprintf("£%.3f", o.Value), Period: o.Date.Format("2 Jan 2006")}
			if w, ok := WoW(e.Observations); ok {
				m.Change = signed(w, 2) + "%"
			}
			out = append(out, m)
		}
	}
	return out
}

func upDown(delta float64) string {
	if delta > 0 {
		return "up"
	}
	return "down"
}

// Commentary writes the weekly bullets. A bullet whose inputs are missing is
// skipped.
func Commentary(entries map[string]*models.CacheEntry) []string {
	var out []string

	if e, ok := entries["live_register"]; ok {
		cur, okc := e.Latest()
		prev, okp := e.Previous()
		if okc && okp {
			delta := int64(math.Round(cur.Value)) - int64(math.Round(prev.Value))
			b := fmt.Sprintf("The monthly Live Register (unadjusted) stood at %s, %s by %s from the previous month.",
				thousands(int64(math.Round(cur.Value))), upDown(float64(delta)), thousands(abs64(delta)))
			if u, ok := latestOf(entries, "unemployment"); ok {
				b += fmt.Sprintf(" The seasonally adjusted unemployment rate was %.1f%%.", u.Value)
			}
			out = append(out, b)
		}
	}

	if e, ok := entries["container_costs"]; ok {
		if cur, ok := e.Latest(); ok {
			b := fmt.Sprintf("The market average rate for a 40ft container from Asia to North Europe was $%s.", thousands(int64(math.Round(cur.Value))))
			var parts []string
			if w, ok := WoW(e.Observations); ok {
				parts = append(parts, fmt.Sprintf("week-on-week this was %s%%", signed(w, 2)))
			}
			if y, ok := YoY(e.Observations); ok {
				parts = append(parts, fmt.Sprintf("%s%% year-on-year", signed(y, 2)))
			}
			if len(parts) > 0 {
				b += " " + capitalize(strings.Join(parts, " and ")) + "."
			}
			out = append(out, b)
		}
	}

	if e, ok := entries["natural_gas"]; ok {
		if cur, ok := e.Latest(); ok {
			week := Since(e.Observations, cur.Date.AddDate(0, 0, -7))
			if lo, hi, ok := MinMax(week); ok {
				out = append(out, fmt.Sprintf("UK Natural Gas futures traded between %.2f and %.2f GBp/Thm. The closing price was %.2f GBp/Thm.", lo, hi, cur.Value))
			}
		}
	}

	if e, ok := entries["brent_crude"]; ok {
		if cur, ok := e.Latest(); ok {
			b := fmt.Sprintf("Brent crude oil spot price was trading at $%.2f a barrel", cur.Value)
			if w, ok := WoW(e.Observations); ok {
				b += fmt.Sprintf(", %s%% week-on-week", signed(w, 2))
			}
			if y, ok := YoY(e.Observations); ok {
				b += fmt.Sprintf(" and %s%% year-on-year", signed(y, 2))
			}
			out = append(out, b+".")
		}
	}

	if e, ok := entries["manufacturing_pmi"]; ok {
		if cur, ok := e.Latest(); ok {
			b := fmt.Sprintf("In %s, Manufacturing PMI was %.1f", cur.Date.Format("January 2006"), cur.Value)
			if prev, ok := e.Previous(); ok {
				b += fmt.Sprintf(" (%s from %.1f)", upDown(cur.Value-prev.Value), prev.Value)
			}
			if s, ok := latestOf(entries, "services_pmi"); ok {
				b += fmt.Sprintf(", Services PMI was %.1f", s.Value)
			}
			if c, ok := latestOf(entries, "construction_pmi"); ok {
				b += fmt.Sprintf(", and Construction PMI was %.1f", c.Value)
			}
			out = append(out, b+".")
		}
	}

	gbp, okg := latestOf(entries, "eur_gbp")
	usd, oku := latestOf(entries, "eur_usd")
	if okg && oku {
		b := fmt.Sprintf("The Euro was trading at £%.3f against Sterling and $%.3f against the Dollar", gbp.Value, usd.Value)
		if w, ok := WoW(entries["eur_usd"].Observations); ok {
			b += fmt.Sprintf(" (%s%% WoW)", signed(w, 2))
		}
		out = append(out, b+".")
	}

	ie, oki := latestOf(entries, "ireland_10y")
	de, okd := latestOf(entries, "germany_10y")
	if oki && okd {
		out = append(out, fmt.Sprintf("The Irish 10-year government bond yield was %.3f%% with a spread of %.3f over German Bunds.",
			ie.Value, Change(ie.Value, de.Value)))
	}

	if e, ok := entries["consumer_sentiment"]; ok {
		cur, okc := e.Latest()
		prev, okp := e.Previous()
		if okc && okp {
			out = append(out, fmt.Sprintf("In %s, Irish consumer sentiment was %.1f, %s from %.1f the previous month.",
				cur.Date.Format("January 2006"), cur.Value, upDown(cur.Value-prev.Value), prev.Value))
		}
	}
	return out
}

type heatmapRow struct {
	id, label string
	format    string
	tone      func(float64) models.Tone
}

var heatmapRows = []heatmapRow{
	{"manufacturing_pmi", "Manufacturing PMI", "%.1f", PMITone},
	{"services_pmi", "Services PMI", "%.1f", PMITone},
	{"construction_pmi", "Construction PMI", "%.1f", PMITone},
	{"consumer_sentiment", "Consumer Sentiment", "%.1f", SentimentTone},
	{"cpi", "CPI annual %", "%.1f", InflationTone},
	{"eur_gbp", "EUR/GBP", "%.3f", nil},
	{"eur_usd", "EUR/USD", "%.3f", nil},
	{"ireland_10y", "Ireland 10Y", "%.3f", nil},
	{"spread", "Spread to Bund", "%.3f", nil},
}

// BuildHeatmap lays out the last n months, newest first, one row per series.
// Daily series are averaged per month.
func BuildHeatmap(entries map[string]*models.CacheEntry, now time.Time, n int) models.Heatmap {
	months := util.PeriodsBack(now, models.Monthly, n)
	h := models.Heatmap{Months: make([]string, 0, n)}
	for i := len(months) - 1; i >= 0; i-- {
		h.Months = append(h.Months, util.MonthLabel(months[i]))
	}

	values := make(map[string]map[time.Time]float64, len(heatmapRows))
	for id, e := range entries {
		values[id] = monthly(e)
	}
	if ie, ok := entries["ireland_10y"]; ok {
		if de, ok := entries["germany_10y"]; ok {
			sp := Spread(MonthlyMeans(ie.Observations), MonthlyMeans(de.Observations))
			m := make(map[time.Time]float64, len(sp))
			for _, o := range sp {
				m[o.Date] = o.Value
			}
			values["spread"] = m
		}
	}

	for _, r := range heatmapRows {
		vals, ok := values[r.id]
		if !ok || len(vals) == 0 {
			continue
		}
		row := models.HeatmapRow{Indicator: r.id, Label: r.label, Cells: make([]models.HeatmapCell, 0, n)}
		for i := len(months) - 1; i >= 0; i-- {
			v, ok := vals[months[i]]
			if !ok {
				row.Cells = append(row.Cells, models.HeatmapCell{Text: ""})
				continue
			}
			v = round(v, 4)
			cell := models.HeatmapCell{Value: &v, Text: fmt.Sprintf(r.format, v)}
			if r.tone != nil {
				cell.Tone = r.tone(v)
			}
			row.Cells = append(row.Cells, cell)
		}
		h.Rows = append(h.Rows, row)
	}
	return h
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

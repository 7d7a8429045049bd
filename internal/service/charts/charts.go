package charts

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"EconDash/internal/domain/models"
	rcache "EconDash/internal/service/cache"
	rmetrics "EconDash/internal/service/metrics"
	"EconDash/internal/usecase"
	"EconDash/pkg/config"
	applogger "EconDash/pkg/logger"

	gocharts "github.com/vicanso/go-charts/v2"
)

var (
	ErrNoData       = errors.New("no data to chart")
	ErrUnknownGroup = errors.New("unknown chart group")
)

// EntryReader loads stored entries; charts never trigger a fetch.
type EntryReader interface {
	Entry(ctx context.Context, id string) (*models.CacheEntry, error)
}

// Catalog resolves chart groups and indicator labels.
type Catalog interface {
	Get(id string) (models.Indicator, bool)
	Group(name string) (config.ChartGroup, bool)
}

// Options sizes a chart. Zero fields take the renderer defaults.
type Options struct {
	Width  int
	Height int
	Points int
}

// Renderer draws PNG line charts from stored entries and caches the bytes.
// Cache keys include each entry's fetch time, so a refresh yields new images.
type Renderer struct {
	entries  EntryReader
	catalog  Catalog
	cache    rcache.BytesCache
	ttl      time.Duration
	defaults Options
	l        *applogger.Logger
}

func NewRenderer(entries EntryReader, catalog Catalog, c rcache.BytesCache, ttl time.Duration, defaults Options, l *applogger.Logger) *Renderer {
	if l == nil {
		l = applogger.Nop()
	}
	return &Renderer{entries: entries, catalog: catalog, cache: c, ttl: ttl, defaults: defaults, l: l}
}

func (r *Renderer) options(o Options) Options {
	if o.Width <= 0 {
		o.Width = r.defaults.Width
	}
	if o.Height <= 0 {
		o.Height = r.defaults.Height
	}
	if o.Points <= 0 {
		o.Points = r.defaults.Points
	}
	return o
}

// Indicator renders one indicator's series.
func (r *Renderer) Indicator(ctx context.Context, id string, opt Options) ([]byte, error) {
	opt = r.options(opt)
	e, err := r.entries.Entry(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.IsEmpty() {
		return nil, fmt.Errorf("%w: %s", ErrNoData, id)
	}

	key := fmt.Sprintf("chart:%s:%dx%d:%d:%d", id, opt.Width, opt.Height, opt.Points, e.FetchedAt.Unix())
	return r.cached(ctx, "indicator", key, func() ([]byte, error) {
		obs := tail(e.Observations, opt.Points)
		values := make([]float64, len(obs))
		labels := make([]string, len(obs))
		for i, o := range obs {
			values[i] = o.Value
			labels[i] = label(o.Date, e.Frequency)
		}
		subtitle := e.Unit
		if e.Fallback {
			subtitle = strings.TrimSpace(subtitle + " (reference values)")
		}
		return render([]series{{name: e.Label, values: values}}, labels, e.Label, subtitle, opt)
	})
}

// Group renders several indicators on one chart, aligned by date. Members
// without data are left out.
func (r *Renderer) Group(ctx context.Context, name string, opt Options) ([]byte, error) {
	opt = r.options(opt)
	g, ok := r.catalog.Group(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownGroup, name)
	}

	var members []*models.CacheEntry
	stamps := make([]string, 0, len(g.Indicators))
	for _, id := range g.Indicators {
		e, err := r.entries.Entry(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrEntryNotFound) {
				continue
			}
			return nil, err
		}
		if e.IsEmpty() {
			continue
		}
		members = append(members, e)
		stamps = append(stamps, strconv.FormatInt(e.FetchedAt.Unix(), 36))
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: group %s", ErrNoData, name)
	}

	key := fmt.Sprintf("chart:group:%s:%dx%d:%d:%s", name, opt.Width, opt.Height, opt.Points, strings.Join(stamps, "."))
	return r.cached(ctx, "group", key, func() ([]byte, error) {
		freq := members[0].Frequency
		if g.Monthly {
			freq = models.Monthly
		}
		list := make([][]models.Observation, len(members))
		names := make([]string, len(members))
		for i, e := range members {
			list[i] = e.Observations
			if g.Monthly {
				list[i] = usecase.MonthlyMeans(e.Observations)
			}
			names[i] = e.Label
			if ind, ok := r.catalog.Get(e.Indicator); ok {
				names[i] = ind.Label
			}
		}

		dates, aligned := align(list)
		start := 0
		if len(dates) > opt.Points {
			start = len(dates) - opt.Points
		}
		labels := make([]string, 0, len(dates)-start)
		for _, d := range dates[start:] {
			labels = append(labels, label(d, freq))
		}
		ss := make([]series, len(aligned))
		for i, vals := range aligned {
			ss[i] = series{name: names[i], values: vals[start:]}
		}

		title := g.Title
		if title == "" {
			title = g.Name
		}
		return render(ss, labels, title, "", opt)
	})
}

func (r *Renderer) cached(ctx context.Context, artifact, key string, build func() ([]byte, error)) ([]byte, error) {
	if r.cache != nil {
		b, ok, err := r.cache.GetBytes(ctx, key)
		if err != nil {
			r.l.Warn("chart cache read failed", applogger.String("key", key), applogger.Error(err))
		} else if ok {
			rmetrics.RenderCacheHits.WithLabelValues(artifact).Inc()
			return b, nil
		}
	}

	start := time.Now()
	b, err := build()
	rmetrics.RenderLatency.WithLabelValues(artifact).Observe(time.Since(start).Seconds())
	if err != nil {
		rmetrics.RenderErrors.WithLabelValues(artifact).Inc()
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.SetBytes(ctx, key, b, r.ttl); err != nil {
			r.l.Warn("chart cache write failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	return b, nil
}

type series struct {
	name   string
	values []float64
}

func render(ss []series, labels []string, title, subtitle string, opt Options) ([]byte, error) {
	if len(labels) < 2 {
		return nil, fmt.Errorf("%w: fewer than two points", ErrNoData)
	}

	values := make([][]float64, len(ss))
	names := make([]string, len(ss))
	for i, s := range ss {
		values[i] = s.values
		names[i] = s.name
	}
	list := gocharts.NewSeriesListDataFromValues(values, gocharts.ChartTypeLine)

	dual := dualAxis(values)
	var yAxis []gocharts.YAxisOption
	if dual {
		lo0, hi0 := padded(values[:1])
		lo1, hi1 := padded(values[1:])
		yAxis = []gocharts.YAxisOption{
			{Min: &lo0, Max: &hi0, DivideCount: 5},
			{Min: &lo1, Max: &hi1, DivideCount: 5, Position: gocharts.PositionRight},
		}
	} else {
		lo, hi := padded(values)
		yAxis = []gocharts.YAxisOption{{Min: &lo, Max: &hi, DivideCount: 5}}
	}
	for i := range list {
		list[i].Name = names[i]
		if dual {
			list[i].AxisIndex = i % 2
		}
	}

	split := 8
	if len(labels) < split {
		split = len(labels)
	}
	opts := []gocharts.OptionFunc{
		gocharts.TitleTextOptionFunc(title, subtitle),
		gocharts.XAxisOptionFunc(gocharts.XAxisOption{Data: labels, BoundaryGap: gocharts.FalseFlag(), SplitNumber: split}),
		gocharts.YAxisOptionFunc(yAxis...),
		gocharts.ThemeOptionFunc(gocharts.ThemeLight),
	}
	if len(ss) > 1 {
		opts = append(opts, gocharts.LegendOptionFunc(gocharts.LegendOption{Data: names}))
	}

	painter, err := gocharts.Render(gocharts.ChartOption{
		SeriesList: list,
		Width:      opt.Width,
		Height:     opt.Height,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return painter.Bytes()
}

// dualAxis puts two series on separate axes when their magnitudes differ by
// more than a factor of five.
func dualAxis(values [][]float64) bool {
	if len(values) != 2 {
		return false
	}
	_, hi0 := bounds(values[:1])
	_, hi1 := bounds(values[1:])
	if hi0 <= 0 || hi1 <= 0 {
		return false
	}
	ratio := hi0 / hi1
	return ratio > 5 || ratio < 0.2
}

func bounds(values [][]float64) (lo, hi float64) {
	first := true
	for _, vs := range values {
		for _, v := range vs {
			if first || v < lo {
				lo = v
			}
			if first || v > hi {
				hi = v
			}
			first = false
		}
	}
	return lo, hi
}

func padded(values [][]float64) (lo, hi float64) {
	lo, hi = bounds(values)
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 1
		if hi != 0 {
			pad = math.Abs(hi) * 0.01
		}
	}
	if lo >= 0 && lo-pad < 0 {
		return 0, hi + pad
	}
	return lo - pad, hi + pad
}

// align merges series onto the union of their dates. Gaps take the previous
// value; leading gaps take the first known value.
func align(list [][]models.Observation) ([]time.Time, [][]float64) {
	seen := make(map[int64]time.Time)
	for _, obs := range list {
		for _, o := range obs {
			seen[o.Date.Unix()] = o.Date
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([][]float64, len(list))
	for i, obs := range list {
		byDate := make(map[int64]float64, len(obs))
		for _, o := range obs {
			byDate[o.Date.Unix()] = o.Value
		}
		vals := make([]float64, len(dates))
		var last float64
		have := false
		for j, d := range dates {
			if v, ok := byDate[d.Unix()]; ok {
				last, have = v, true
			}
			if have {
				vals[j] = last
			}
		}
		if len(obs) > 0 {
			first := models.SortObservations(obs)[0]
			for j, d := range dates {
				if !d.Before(first.Date) {
					break
				}
				vals[j] = first.Value
			}
		}
		out[i] = vals
	}
	return dates, out
}

func tail(obs []models.Observation, n int) []models.Observation {
	if n > 0 && len(obs) > n {
		return obs[len(obs)-n:]
	}
	return obs
}

func label(d time.Time, frequency string) string {
	switch frequency {
	case models.Daily, models.Weekly:
		return d.Format("2006-01-02")
	case models.Quarterly:
		return fmt.Sprintf("%dQ%d", d.Year(), (int(d.Month())-1)/3+1)
	default:
		return d.Format("Jan-06")
	}
}

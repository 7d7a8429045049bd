package usecase

import (
	"fmt"
	"time"

	"EconDash/internal/domain/models"
	"EconDash/pkg/config"
	"EconDash/pkg/util"
)

// Catalog is the configured set of indicators in display order.
type Catalog struct {
	order  []string
	byID   map[string]models.Indicator
	groups []config.ChartGroup
}

// NewCatalog converts the indicator configuration. Fallback points without a
// date are spread backwards from the period containing now, newest last.
func NewCatalog(cfg *config.Config, now time.Time) (*Catalog, error) {
	c := &Catalog{
		order:  make([]string, 0, len(cfg.Indicators)),
		byID:   make(map[string]models.Indicator, len(cfg.Indicators)),
		groups: cfg.Charts.Groups,
	}
	for _, ic := range cfg.Indicators {
		ind := models.Indicator{
			ID:         ic.ID,
			Label:      ic.Label,
			Unit:       ic.Unit,
			Source:     ic.Source,
			Key:        ic.Key,
			Filters:    ic.Filters,
			Scale:      ic.Scale,
			Frequency:  ic.Frequency,
			MaxAge:     cfg.MaxAgeFor(ic),
			Accumulate: ic.Accumulate,
		}
		fb, err := fallbackPoints(ic, now)
		if err != nil {
			return nil, fmt.Errorf("indicator %s: %w", ic.ID, err)
		}
		ind.Fallback = fb

		c.order = append(c.order, ind.ID)
		c.byID[ind.ID] = ind
	}
	return c, nil
}

func fallbackPoints(ic config.IndicatorConfig, now time.Time) ([]models.Observation, error) {
	if len(ic.Fallback) == 0 {
		return nil, nil
	}
	freq := ic.FallbackFrequency
	if freq == "" {
		freq = ic.Frequency
	}

	undated := 0
	for _, p := range ic.Fallback {
		if p.Date == "" {
			undated++
		}
	}
	dates := util.PeriodsBack(now, freq, undated)

	out := make([]models.Observation, 0, len(ic.Fallback))
	next := 0
	for _, p := range ic.Fallback {
		var d time.Time
		if p.Date == "" {
			d = dates[next]
			next++
		} else {
			parsed, err := util.ParsePeriod(p.Date)
			if err != nil {
				return nil, fmt.Errorf("fallback date: %w", err)
			}
			d = parsed
		}
		out = append(out, models.Observation{Date: d, Value: p.Value})
	}
	return models.SortObservations(out), nil
}

// All returns every indicator in configuration order.
func (c *Catalog) All() []models.Indicator {
	out := make([]models.Indicator, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

func (c *Catalog) Get(id string) (models.Indicator, bool) {
	ind, ok := c.byID[id]
	return ind, ok
}

// Select returns the indicators named in ids, in configuration order. An
// empty ids selects everything.
func (c *Catalog) Select(ids []string) ([]models.Indicator, error) {
	if len(ids) == 0 {
		return c.All(), nil
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := c.byID[id]; !ok {
			return nil, fmt.Errorf("%w: %s", models.ErrUnknownIndicator, id)
		}
		want[id] = struct{}{}
	}
	out := make([]models.Indicator, 0, len(want))
	for _, id := range c.order {
		if _, ok := want[id]; ok {
			out = append(out, c.byID[id])
		}
	}
	return out, nil
}

// Groups returns the configured chart groups.
func (c *Catalog) Groups() []config.ChartGroup {
	return c.groups
}

// Group finds a chart group by name.
func (c *Catalog) Group(name string) (config.ChartGroup, bool) {
	for _, g := range c.groups {
		if g.Name == name {
			return g, true
		}
	}
	return config.ChartGroup{}, false
}

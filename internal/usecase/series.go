package usecase

import (
	"sort"
	"strconv"
	"time"

	"EconDash/internal/domain/models"
	"EconDash/pkg/util"

	"github.com/shopspring/decimal"
)

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Change is latest minus previous, rounded to 4 places.
func Change(latest, previous float64) float64 {
	return decimal.NewFromFloat(latest).Sub(decimal.NewFromFloat(previous)).Round(4).InexactFloat64()
}

// PctChange is the percentage change from base to cur, rounded to 2 places.
func PctChange(cur, base float64) (float64, bool) {
	b := decimal.NewFromFloat(base)
	if b.IsZero() {
		return 0, false
	}
	pct := decimal.NewFromFloat(cur).Sub(b).Div(b).Mul(decimal.NewFromInt(100))
	return pct.Round(2).InexactFloat64(), true
}

// ValueAt returns the last observation dated on or before t.
func ValueAt(obs []models.Observation, t time.Time) (models.Observation, bool) {
	i := sort.Search(len(obs), func(i int) bool { return obs[i].Date.After(t) })
	if i == 0 {
		return models.Observation{}, false
	}
	return obs[i-1], true
}

func changeOver(obs []models.Observation, back func(time.Time) time.Time) (float64, bool) {
	if len(obs) < 2 {
		return 0, false
	}
	latest := obs[len(obs)-1]
	base, ok := ValueAt(obs[:len(obs)-1], back(latest.Date))
	if !ok {
		return 0, false
	}
	return PctChange(latest.Value, base.Value)
}

// WoW is the change against the last value at least a week older than the
// latest one.
func WoW(obs []models.Observation) (float64, bool) {
	return changeOver(obs, func(t time.Time) time.Time { return t.AddDate(0, 0, -7) })
}

// YoY is the change against the last value at least a year older than the
// latest one.
func YoY(obs []models.Observation) (float64, bool) {
	return changeOver(obs, func(t time.Time) time.Time { return t.AddDate(-1, 0, 0) })
}

// MonthlyMeans averages observations per calendar month. Each result is
// dated on the first of its month.
func MonthlyMeans(obs []models.Observation) []models.Observation {
	type acc struct {
		sum decimal.Decimal
		n   int64
	}
	months := make(map[time.Time]*acc)
	for _, o := range obs {
		m := util.MonthStart(o.Date)
		a, ok := months[m]
		if !ok {
			a = &acc{}
			months[m] = a
		}
		a.sum = a.sum.Add(decimal.NewFromFloat(o.Value))
		a.n++
	}

	out := make([]models.Observation, 0, len(months))
	for m, a := range months {
		mean := a.sum.Div(decimal.NewFromInt(a.n)).Round(4)
		out = append(out, models.Observation{Date: m, Value: mean.InexactFloat64()})
	}
	return models.SortObservations(out)
}

// Spread subtracts b from a on the dates both series share.
func Spread(a, b []models.Observation) []models.Observation {
	bv := make(map[int64]float64, len(b))
	for _, o := range b {
		bv[o.Date.Unix()] = o.Value
	}
	var out []models.Observation
	for _, o := range a {
		if v, ok := bv[o.Date.Unix()]; ok {
			out = append(out, models.Observation{Date: o.Date, Value: Change(o.Value, v)})
		}
	}
	return out
}

// Since returns the observations dated on or after t.
func Since(obs []models.Observation, t time.Time) []models.Observation {
	i := sort.Search(len(obs), func(i int) bool { return !obs[i].Date.Before(t) })
	return obs[i:]
}

// MinMax returns the lowest and highest values.
func MinMax(obs []models.Observation) (lo, hi float64, ok bool) {
	for i, o := range obs {
		if i == 0 || o.Value < lo {
			lo = o.Value
		}
		if i == 0 || o.Value > hi {
			hi = o.Value
		}
	}
	return lo, hi, len(obs) > 0
}

// monthly reduces a series to one value per month: daily and weekly data are
// averaged, monthly data is taken as is.
func monthly(e *models.CacheEntry) map[time.Time]float64 {
	if e.IsEmpty() {
		return nil
	}
	obs := e.Observations
	if e.Frequency == models.Daily || e.Frequency == models.Weekly {
		obs = MonthlyMeans(obs)
	}
	out := make(map[time.Time]float64, len(obs))
	for _, o := range obs {
		out[util.MonthStart(o.Date)] = o.Value
	}
	return out
}

// PMITone grades a purchasing managers' index: 50 separates expansion from
// contraction.
func PMITone(v float64) models.Tone {
	switch {
	case v >= 55:
		return models.ToneGood
	case v >= 50:
		return models.ToneMild
	case v >= 45:
		return models.ToneBad
	default:
		return models.ToneSevere
	}
}

func SentimentTone(v float64) models.Tone {
	switch {
	case v >= 65:
		return models.ToneGood
	case v >= 55:
		return models.ToneNeutral
	default:
		return models.ToneBad
	}
}

// InflationTone grades an annual inflation rate against the 2% target.
func InflationTone(v float64) models.Tone {
	switch {
	case v >= 1.5 && v <= 2.5:
		return models.ToneGood
	case v < 1.5 || v > 3.5:
		return models.ToneBad
	default:
		return models.ToneNeutral
	}
}

// thousands formats n with comma separators.
func thousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := n < 0
	if neg {
		s = s[1:]
	}
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

func signed(v float64, places int) string {
	s := strconv.FormatFloat(v, 'f', places, 64)
	if v >= 0 {
		return "+" + s
	}
	return s
}

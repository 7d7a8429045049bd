package models

import (
	"sort"
	"time"
)

// RefreshStatus is what GetOrRefresh did for one indicator.
type RefreshStatus string

const (
	StatusFresh     RefreshStatus = "fresh"
	StatusUpdated   RefreshStatus = "updated"
	StatusStaleKept RefreshStatus = "stale-kept"
	StatusFailed    RefreshStatus = "failed"
)

// EntryError annotates an entry whose last refresh failed.
type EntryError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
	// Stale is true when the entry still carries older data.
	Stale bool `json:"stale"`
}

// CacheEntry is the persisted state of one indicator.
type CacheEntry struct {
	Indicator    string        `json:"indicator"`
	Label        string        `json:"label"`
	Unit         string        `json:"unit,omitempty"`
	Source       string        `json:"source"`
	Frequency    string        `json:"frequency,omitempty"`
	Observations []Observation `json:"observations"`
	FetchedAt    time.Time     `json:"fetched_at"`
	Fallback     bool          `json:"fallback,omitempty"`
	Error        *EntryError   `json:"error,omitempty"`
}

// NewEntry builds an entry for ind from freshly fetched observations.
func NewEntry(ind Indicator, obs []Observation, fetchedAt time.Time) *CacheEntry {
	e := &CacheEntry{
		Indicator:    ind.ID,
		Label:        ind.Label,
		Unit:         ind.Unit,
		Source:       ind.Source,
		Frequency:    ind.Frequency,
		Observations: SortObservations(obs),
		FetchedAt:    fetchedAt.UTC(),
	}
	for _, o := range e.Observations {
		if o.Meta[MetaOrigin] == OriginFallback {
			e.Fallback = true
			break
		}
	}
	return e
}

// IsEmpty reports whether the entry carries no data.
func (e *CacheEntry) IsEmpty() bool {
	return e == nil || len(e.Observations) == 0
}

// Age is the time since the last successful fetch.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	if e == nil || e.FetchedAt.IsZero() {
		return 0
	}
	return now.Sub(e.FetchedAt)
}

// Latest returns the most recent observation.
func (e *CacheEntry) Latest() (Observation, bool) {
	if e.IsEmpty() {
		return Observation{}, false
	}
	return e.Observations[len(e.Observations)-1], true
}

// Previous returns the observation before the latest.
func (e *CacheEntry) Previous() (Observation, bool) {
	if e == nil || len(e.Observations) < 2 {
		return Observation{}, false
	}
	return e.Observations[len(e.Observations)-2], true
}

// Clone returns a deep copy, so callers can annotate without touching a
// shared instance.
func (e *CacheEntry) Clone() *CacheEntry {
	if e == nil {
		return nil
	}
	out := *e
	out.Observations = make([]Observation, len(e.Observations))
	copy(out.Observations, e.Observations)
	if e.Error != nil {
		ee := *e.Error
		out.Error = &ee
	}
	return &out
}

// SortObservations orders by date ascending and keeps the last value for
// duplicate dates. The input slice is not modified.
func SortObservations(obs []Observation) []Observation {
	out := make([]Observation, len(obs))
	copy(out, obs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	dedup := out[:0]
	for _, o := range out {
		if n := len(dedup); n > 0 && dedup[n-1].Date.Equal(o.Date) {
			dedup[n-1] = o
			continue
		}
		dedup = append(dedup, o)
	}
	return dedup
}

// WithoutFallback returns obs minus the points substituted by the static
// fallback.
func WithoutFallback(obs []Observation) []Observation {
	out := make([]Observation, 0, len(obs))
	for _, o := range obs {
		if o.Meta[MetaOrigin] != OriginFallback {
			out = append(out, o)
		}
	}
	return out
}

// MergeObservations combines a stored series with newly fetched values.
// New values win on equal dates and are flagged Revised when they differ.
// At most limit observations (the most recent) are kept; limit <= 0 keeps all.
func MergeObservations(prior, fresh []Observation, limit int) []Observation {
	byDate := make(map[int64]Observation, len(prior)+len(fresh))
	for _, o := range prior {
		byDate[o.Date.Unix()] = o
	}
	for _, o := range fresh {
		if old, ok := byDate[o.Date.Unix()]; ok && old.Value != o.Value {
			o.Revised = true
		}
		byDate[o.Date.Unix()] = o
	}

	merged := make([]Observation, 0, len(byDate))
	for _, o := range byDate {
		merged = append(merged, o)
	}
	merged = SortObservations(merged)
	if limit > 0 && len(merged) > limit {
		merged = merged[len(merged)-limit:]
	}
	return merged
}

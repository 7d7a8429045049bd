package models

import "time"

// Source identifiers.
const (
	SourceCSO    = "cso"
	SourceECB    = "ecb"
	SourceYahoo  = "yahoo"
	SourceBonds  = "bonds"
	SourcePMI    = "pmi"
	SourceStatic = "static"
)

// Frequencies.
const (
	Daily     = "daily"
	Weekly    = "weekly"
	Monthly   = "monthly"
	Quarterly = "quarterly"
)

// Indicator describes one tracked economic series and how to fetch it.
type Indicator struct {
	ID        string            `json:"id"`
	Label     string            `json:"label"`
	Unit      string            `json:"unit,omitempty"`
	Source    string            `json:"source"`
	Key       string            `json:"key,omitempty"`
	Filters   map[string]string `json:"filters,omitempty"`
	Scale     float64           `json:"scale,omitempty"`
	Frequency string            `json:"frequency"`
	MaxAge    time.Duration     `json:"max_age"`
	// Accumulate merges each fetch into the stored series instead of
	// replacing it. Used for scrapers that only return the latest value.
	Accumulate bool          `json:"accumulate,omitempty"`
	Fallback   []Observation `json:"-"`
}

// HasFallback reports whether static points are configured.
func (i Indicator) HasFallback() bool {
	return len(i.Fallback) > 0
}

// Observation is a single dated value.
type Observation struct {
	Date    time.Time         `json:"date"`
	Value   float64           `json:"value"`
	Meta    map[string]string `json:"meta,omitempty"`
	Revised bool              `json:"revised,omitempty"`
}

// Meta keys.
const (
	MetaOrigin       = "origin"
	OriginFallback   = "fallback"
	MetaPeriodLabel  = "period"
	MetaSourceDetail = "source"
)

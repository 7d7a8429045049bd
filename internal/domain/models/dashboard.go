package models

import "time"

// IndicatorView is an entry plus the derived figures shown on the dashboard.
type IndicatorView struct {
	ID         string        `json:"id"`
	Label      string        `json:"label"`
	Unit       string        `json:"unit,omitempty"`
	Source     string        `json:"source"`
	Frequency  string        `json:"frequency,omitempty"`
	Latest     *Observation  `json:"latest,omitempty"`
	Previous   *Observation  `json:"previous,omitempty"`
	Change     *float64      `json:"change,omitempty"`
	WoWPct     *float64      `json:"wow_pct,omitempty"`
	YoYPct     *float64      `json:"yoy_pct,omitempty"`
	FetchedAt  time.Time     `json:"fetched_at"`
	AgeSeconds int64         `json:"age_seconds"`
	Fallback   bool          `json:"fallback,omitempty"`
	Error      *EntryError   `json:"error,omitempty"`
	Available  bool          `json:"available"`
	Series     []Observation `json:"observations,omitempty"`
}

// KeyMetric is one tile in the key metrics strip.
type KeyMetric struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Change string `json:"change,omitempty"`
	Period string `json:"period,omitempty"`
}

// Tone colours heatmap cells.
type Tone string

const (
	ToneNone    Tone = ""
	ToneGood    Tone = "good"
	ToneMild    Tone = "mild"
	ToneNeutral Tone = "neutral"
	ToneBad     Tone = "bad"
	ToneSevere  Tone = "severe"
)

// HeatmapCell is one value of the heatmap table.
type HeatmapCell struct {
	Value *float64 `json:"value,omitempty"`
	Text  string   `json:"text"`
	Tone  Tone     `json:"tone,omitempty"`
}

// HeatmapRow is one series across the heatmap months.
type HeatmapRow struct {
	Indicator string        `json:"indicator"`
	Label     string        `json:"label"`
	Cells     []HeatmapCell `json:"cells"`
}

// Heatmap is a month by series table.
type Heatmap struct {
	Months []string     `json:"months"`
	Rows   []HeatmapRow `json:"rows"`
}

// SourceStatus describes the persisted entry for the status page.
type SourceStatus struct {
	Indicator    string      `json:"indicator"`
	Label        string      `json:"label"`
	Source       string      `json:"source"`
	Present      bool        `json:"present"`
	FetchedAt    time.Time   `json:"fetched_at,omitempty"`
	AgeSeconds   int64       `json:"age_seconds"`
	MaxAgeSec    int64       `json:"max_age_seconds"`
	Stale        bool        `json:"stale"`
	Observations int         `json:"observations"`
	SizeBytes    int64       `json:"size_bytes"`
	Fallback     bool        `json:"fallback,omitempty"`
	Error        *EntryError `json:"error,omitempty"`
}

// StatusReport lists every configured indicator with its cache state.
type StatusReport struct {
	LastRun *RunSummary    `json:"last_run,omitempty"`
	Entries []SourceStatus `json:"entries"`
}

// ChartRef names a chart image rendered for the dashboard.
type ChartRef struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Dashboard is everything the main page and the PDF report render.
type Dashboard struct {
	Title       string          `json:"title"`
	ReportDate  time.Time       `json:"report_date"`
	GeneratedAt time.Time       `json:"generated_at"`
	LastRun     *RunSummary     `json:"last_run,omitempty"`
	KeyMetrics  []KeyMetric     `json:"key_metrics"`
	Commentary  []string        `json:"commentary"`
	Heatmap     Heatmap         `json:"heatmap"`
	Indicators  []IndicatorView `json:"indicators"`
	Charts      []ChartRef      `json:"charts"`
}

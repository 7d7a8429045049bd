package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus summarises a whole update run.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunFailed  RunStatus = "failed"
)

// RunOptions controls one update run.
type RunOptions struct {
	Force bool
	// Only limits the run to these indicator IDs. Empty means all.
	Only []string
	// Trigger records what started the run: cli, web, api, schedule.
	Trigger string
}

// Outcome is the per-indicator result of a run.
type Outcome struct {
	Indicator    string        `json:"indicator"`
	Status       RefreshStatus `json:"status"`
	Observations int           `json:"observations"`
	Fallback     bool          `json:"fallback,omitempty"`
	Error        string        `json:"error,omitempty"`
	DurationMs   int64         `json:"duration_ms"`
}

// RunSummary is written to last_update.json after every run.
type RunSummary struct {
	RunID     uuid.UUID `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Force     bool      `json:"force"`
	Trigger   string    `json:"trigger,omitempty"`
	Status    RunStatus `json:"status"`
	Outcomes  []Outcome `json:"outcomes"`
}

// NewRunSummary starts a summary for a run beginning at now.
func NewRunSummary(opts RunOptions, now time.Time) *RunSummary {
	return &RunSummary{
		RunID:     uuid.New(),
		StartedAt: now.UTC(),
		Force:     opts.Force,
		Trigger:   opts.Trigger,
		Outcomes:  []Outcome{},
	}
}

// Finish stamps the end time and derives the overall status: success when
// nothing failed or went stale, failed when nothing was usable, partial
// otherwise.
func (s *RunSummary) Finish(now time.Time) {
	s.UpdatedAt = now.UTC()

	var bad int
	for _, o := range s.Outcomes {
		if o.Status == StatusFailed || o.Status == StatusStaleKept {
			bad++
		}
	}
	switch {
	case bad == 0:
		s.Status = RunSuccess
	case bad == len(s.Outcomes):
		s.Status = RunFailed
	default:
		s.Status = RunPartial
	}
}

// Count returns how many outcomes have status st.
func (s *RunSummary) Count(st RefreshStatus) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Status == st {
			n++
		}
	}
	return n
}

// Failures returns outcomes that did not yield fresh data.
func (s *RunSummary) Failures() []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if o.Status == StatusFailed || o.Status == StatusStaleKept {
			out = append(out, o)
		}
	}
	return out
}

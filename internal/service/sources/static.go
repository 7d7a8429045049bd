package sources

import (
	"context"
	"time"

	"EconDash/internal/domain/models"
)

// Static serves the points configured on the indicator itself. It backs
// series that have no public feed and is the fallback for the others.
type Static struct {
	now func() time.Time
}

func NewStatic() *Static {
	return &Static{now: time.Now}
}

func (s *Static) Name() string { return models.SourceStatic }

func (s *Static) Fetch(_ context.Context, ind models.Indicator) ([]models.Observation, error) {
	if len(ind.Fallback) == 0 {
		return nil, parseError(s.Name(), ind, "no static points configured")
	}
	out := make([]models.Observation, len(ind.Fallback))
	for i, p := range ind.Fallback {
		out[i] = models.Observation{Date: p.Date, Value: p.Value, Meta: map[string]string{models.MetaOrigin: models.SourceStatic}}
		for k, v := range p.Meta {
			out[i].Meta[k] = v
		}
	}
	return models.SortObservations(out), nil
}

package sources

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"EconDash/internal/domain/models"
	xhttp "EconDash/pkg/http"
	"EconDash/pkg/util"
)

// ECB reads SDMX series from the ECB data API as CSV.
type ECB struct {
	client   Getter
	baseURL  string
	lookback time.Duration
	now      func() time.Time
}

func NewECB(client Getter, baseURL string, lookbackDays int) *ECB {
	return &ECB{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		lookback: time.Duration(lookbackDays) * 24 * time.Hour,
		now:      time.Now,
	}
}

func (s *ECB) Name() string { return models.SourceECB }

// Fetch expects Key as "FLOW.SERIESKEY", e.g. EXR.D.GBP.EUR.SP00.A.
func (s *ECB) Fetch(ctx context.Context, ind models.Indicator) ([]models.Observation, error) {
	flow, key, ok := strings.Cut(ind.Key, ".")
	if !ok || key == "" {
		return nil, parseError(s.Name(), ind, "series key %q is not FLOW.KEY", ind.Key)
	}

	url := fmt.Sprintf("%s/%s/%s", s.baseURL, flow, key)
	query := map[string][]string{
		"startPeriod": {s.now().Add(-s.lookback).Format("2006-01-02")},
		"format":      {"csvdata"},
	}

	body, err := s.client.GetBody(ctx, url, query, map[string]string{"Accept": "text/csv"})
	var se *xhttp.StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotAcceptable {
		body, err = s.client.GetBody(ctx, url, query, map[string]string{"Accept": "*/*"})
	}
	if err != nil {
		return nil, fetchError(s.Name(), ind, err)
	}

	obs, err := parseSDMXCSV(body, ind)
	if err != nil {
		return nil, parseError(s.Name(), ind, "%v", err)
	}
	if len(obs) == 0 {
		return nil, parseError(s.Name(), ind, "series %s: %v", ind.Key, models.ErrNoObservations)
	}
	return models.SortObservations(obs), nil
}

func parseSDMXCSV(body []byte, ind models.Indicator) ([]models.Observation, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	timeCol, valueCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case "TIME_PERIOD":
			timeCol = i
		case "OBS_VALUE":
			valueCol = i
		}
	}
	if timeCol < 0 || valueCol < 0 {
		return nil, fmt.Errorf("missing TIME_PERIOD/OBS_VALUE columns in %v", header)
	}

	var out []models.Observation
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(rec) <= timeCol || len(rec) <= valueCol || strings.TrimSpace(rec[valueCol]) == "" {
			continue
		}
		v, ok := util.ParseNumber(rec[valueCol])
		if !ok {
			continue
		}
		date, err := util.ParsePeriod(rec[timeCol])
		if err != nil {
			continue
		}
		out = append(out, models.Observation{Date: date, Value: scaled(ind, v)})
	}
	return out, nil
}

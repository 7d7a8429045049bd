package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"EconDash/internal/domain/models"
)

// Yahoo reads daily closes from the Yahoo Finance v8 chart endpoint.
type Yahoo struct {
	client  Getter
	baseURL string
	rng     string
}

func NewYahoo(client Getter, baseURL, rng string) *Yahoo {
	if rng == "" {
		rng = "1y"
	}
	return &Yahoo{client: client, baseURL: strings.TrimRight(baseURL, "/"), rng: rng}
}

func (s *Yahoo) Name() string { return models.SourceYahoo }

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency string `json:"currency"`
				Symbol   string `json:"symbol"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (s *Yahoo) Fetch(ctx context.Context, ind models.Indicator) ([]models.Observation, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s", s.baseURL, url.PathEscape(ind.Key))
	query := map[string][]string{"range": {s.rng}, "interval": {"1d"}}

	body, err := s.client.GetBody(ctx, endpoint, query, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fetchError(s.Name(), ind, err)
	}

	var cr chartResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, parseError(s.Name(), ind, "decode chart: %v", err)
	}
	if cr.Chart.Error != nil {
		return nil, parseError(s.Name(), ind, "chart error %s: %s", cr.Chart.Error.Code, cr.Chart.Error.Description)
	}
	if len(cr.Chart.Result) == 0 || len(cr.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, parseError(s.Name(), ind, "empty chart result for %s", ind.Key)
	}

	res := cr.Chart.Result[0]
	closes := res.Indicators.Quote[0].Close
	out := make([]models.Observation, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		out = append(out, models.Observation{
			Date:  today(time.Unix(ts, 0)),
			Value: scaled(ind, *closes[i]),
		})
	}
	if len(out) == 0 {
		return nil, parseError(s.Name(), ind, "ticker %s: %v", ind.Key, models.ErrNoObservations)
	}
	return models.SortObservations(out), nil
}

package sources

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"EconDash/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// two statistics by three months by two sexes, object index on the sex axis
const liveRegisterJSONStat = `{
  "class": "dataset",
  "id": ["STATISTIC", "TLIST(M1)", "C02199V02655"],
  "size": [2, 3, 2],
  "role": {"time": ["TLIST(M1)"], "metric": ["STATISTIC"]},
  "dimension": {
    "STATISTIC": {"label": "Statistic", "category": {
      "index": ["LRM02C01", "LRM02C02"],
      "label": {"LRM02C01": "Persons on the Live Register (Unadjusted)", "LRM02C02": "Persons on the Live Register (Seasonally Adjusted)"}}},
    "TLIST(M1)": {"label": "Month", "category": {
      "index": ["2024M01", "2024M02", "2024M03"],
      "label": {"2024M01": "2024 January", "2024M02": "2024 February", "2024M03": "2024 March"}}},
    "C02199V02655": {"label": "Sex", "category": {
      "index": {"-": 0, "1": 1},
      "label": {"-": "Both sexes", "1": "Male"}}}
  },
  "value": [172224, 90000, 163483, 85000, null, 84000, 172200, 90100, 163500, 85100, 164000, 84100]
}`

func TestCSOFetchSelectsFilteredSeries(t *testing.T) {
	srv, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/LRM02/JSON-stat/2.0/en", r.URL.Path)
		_, _ = w.Write([]byte(liveRegisterJSONStat))
	})
	src := NewCSO(client, srv.URL)

	obs, err := src.Fetch(context.Background(), models.Indicator{
		ID: "live_register_sa", Source: "cso", Key: "LRM02",
		Filters: map[string]string{"Statistic": "Seasonally Adjusted", "Sex": "Both sexes"},
	})
	require.NoError(t, err)
	require.Len(t, obs, 3)
	assert.Equal(t, date(2024, time.January, 1), obs[0].Date)
	assert.Equal(t, 172200.0, obs[0].Value)
	assert.Equal(t, 164000.0, obs[2].Value)
	assert.Equal(t, "2024 March", obs[2].Meta[models.MetaPeriodLabel])
}

func TestCSOFetchSkipsNullCells(t *testing.T) {
	srv, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(liveRegisterJSONStat))
	})
	src := NewCSO(client, srv.URL)

	obs, err := src.Fetch(context.Background(), models.Indicator{
		ID: "live_register", Key: "LRM02", Scale: 0.001,
		Filters: map[string]string{"statistic": "unadjusted"},
	})
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.InDelta(t, 172.224, obs[0].Value, 1e-9)
	assert.InDelta(t, 163.483, obs[1].Value, 1e-9)
}

func TestCSOFetchUnmatchedFilterIsParseError(t *testing.T) {
	srv, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(liveRegisterJSONStat))
	})
	src := NewCSO(client, srv.URL)

	_, err := src.Fetch(context.Background(), models.Indicator{
		ID: "x", Key: "LRM02", Filters: map[string]string{"Statistic": "Annual"},
	})
	var pe *models.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "cso", pe.Source)

	_, err = src.Fetch(context.Background(), models.Indicator{
		ID: "x", Key: "LRM02", Filters: map[string]string{"Region": "Dublin"},
	})
	assert.Equal(t, models.KindParse, models.KindOf(err))
}

func TestCSOFetchHTTPErrorIsFetchError(t *testing.T) {
	srv, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	src := NewCSO(client, srv.URL)

	_, err := src.Fetch(context.Background(), models.Indicator{ID: "cpi", Key: "CPM01"})
	var fe *models.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusBadGateway, fe.StatusCode)
	assert.Equal(t, "cpi", fe.Indicator)
}

func TestCSOQuarterLabels(t *testing.T) {
	body := `{
	  "id": ["STATISTIC", "TLIST(Q1)"],
	  "size": [1, 2],
	  "dimension": {
	    "STATISTIC": {"label": "Statistic", "category": {"label": {"BHQ06C01": "Annual percentage change"}}},
	    "TLIST(Q1)": {"label": "Quarter", "category": {"index": ["20241", "20242"], "label": {"20241": "2024Q1", "20242": "2024Q2"}}}
	  },
	  "value": {"0": 2.1, "1": 2.4}
	}`
	srv, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})
	src := NewCSO(client, srv.URL)

	obs, err := src.Fetch(context.Background(), models.Indicator{ID: "construction_costs", Key: "BHQ06",
		Filters: map[string]string{"Statistic": "Annual"}})
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, date(2024, time.April, 1), obs[1].Date)
	assert.Equal(t, 2.4, obs[1].Value)
}

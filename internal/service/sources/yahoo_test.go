package sources

import (
	"context"
	"net/http"
	"testing"
	"time"

	"EconDash/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYahooFetchScalesAndSkipsNulls(t *testing.T) {
	srv, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/NG=F", r.URL.Path)
		assert.Equal(t, "1y", r.URL.Query().Get("range"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"NG=F"},
			"timestamp":[1710115200,1710201600,1710288000],
			"indicators":{"quote":[{"close":[1.70,null,1.80]}]}}],"error":null}}`))
	})
	src := NewYahoo(client, srv.URL, "")

	obs, err := src.Fetch(context.Background(), models.Indicator{ID: "natural_gas", Key: "NG=F", Scale: 2.5})
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, date(2024, time.March, 11), obs[0].Date)
	assert.InDelta(t, 4.25, obs[0].Value, 1e-9)
	assert.InDelta(t, 4.5, obs[1].Value, 1e-9)
}

func TestYahooChartError(t *testing.T) {
	srv, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})
	src := NewYahoo(client, srv.URL, "1y")

	_, err := src.Fetch(context.Background(), models.Indicator{ID: "brent_crude", Key: "BZ=F"})
	require.Error(t, err)
	assert.Equal(t, models.KindParse, models.KindOf(err))
	assert.Contains(t, err.Error(), "delisted")
}

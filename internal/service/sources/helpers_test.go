package sources

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	xhttp "EconDash/pkg/http"
)

func newTestServer(t *testing.T, h http.HandlerFunc) (*httptest.Server, *xhttp.Client) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, xhttp.NewClient(xhttp.WithTimeout(2 * time.Second))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package sources

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"EconDash/internal/domain/models"

	"github.com/PuerkitoBio/goquery"
)

var reYieldPct = regexp.MustCompile(`(\d+\.\d+)\s*%`)

// Bonds scrapes the current 10 year yield from a country page. Only the
// latest value is available, so the indicator usually accumulates.
type Bonds struct {
	client  Getter
	baseURL string
	now     func() time.Time
}

func NewBonds(client Getter, baseURL string) *Bonds {
	return &Bonds{client: client, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}
}

func (s *Bonds) Name() string { return models.SourceBonds }

func (s *Bonds) Fetch(ctx context.Context, ind models.Indicator) ([]models.Observation, error) {
	url := fmt.Sprintf("%s/country/%s/", s.baseURL, ind.Key)
	body, err := s.client.GetBody(ctx, url, nil, map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, fetchError(s.Name(), ind, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, parseError(s.Name(), ind, "parse html: %v", err)
	}

	value, found := 0.0, false
	doc.Find("table").EachWithBreak(func(_ int, tbl *goquery.Selection) bool {
		text := tbl.Text()
		if !strings.Contains(text, "10 Year") && !strings.Contains(text, "10Y") {
			return true
		}
		m := reYieldPct.FindStringSubmatch(text)
		if m == nil {
			return true
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return true
		}
		value, found = v, true
		return false
	})
	if !found {
		return nil, parseError(s.Name(), ind, "no 10 year yield on page for %s", ind.Key)
	}

	return []models.Observation{{
		Date:  today(s.now()),
		Value: scaled(ind, value),
		Meta:  map[string]string{models.MetaSourceDetail: url},
	}}, nil
}

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
	"EconDash/pkg/util"

	"github.com/PuerkitoBio/goquery"
)

const (
	pmiMin = 30.0
	pmiMax = 70.0
)

var (
	reNonNumeric = regexp.MustCompile(`[^\d.]`)

	hubPatterns = map[string][]*regexp.Regexp{
		"manufacturing": {
			regexp.MustCompile(`(?i)manufacturing\s+pmi[^\d]*(\d{2}\.\d)`),
			regexp.MustCompile(`(?i)manufacturing[^\d]*(?:index|pmi)[^\d]*(\d{2}\.\d)`),
		},
		"services": {
			regexp.MustCompile(`(?i)services\s+pmi[^\d]*(\d{2}\.\d)`),
			regexp.MustCompile(`(?i)services[^\d]*(?:index|activity)[^\d]*(\d{2}\.\d)`),
		},
		"construction": {
			regexp.MustCompile(`(?i)construction\s+pmi[^\d]*(\d{2}\.\d)`),
			regexp.MustCompile(`(?i)construction[^\d]*(?:index|pmi)[^\d]*(\d{2}\.\d)`),
		},
	}
)

// PMI scrapes purchasing managers' indices. The history table is tried first;
// the survey sponsor's hub page supplies at least the latest reading when the
// table is unavailable. Key is the PMI type.
type PMI struct {
	client     Getter
	historyURL string
	hubURL     string
	now        func() time.Time
}

func NewPMI(client Getter, historyURL, hubURL string) *PMI {
	return &PMI{
		client:     client,
		historyURL: strings.TrimRight(historyURL, "/"),
		hubURL:     hubURL,
		now:        time.Now,
	}
}

func (s *PMI) Name() string { return models.SourcePMI }

func (s *PMI) Fetch(ctx context.Context, ind models.Indicator) ([]models.Observation, error) {
	if _, ok := hubPatterns[ind.Key]; !ok {
		return nil, parseError(s.Name(), ind, "unknown pmi type %q", ind.Key)
	}

	obs, histErr := s.history(ctx, ind)
	if len(obs) > 0 {
		return models.SortObservations(obs), nil
	}

	latest, hubErr := s.hub(ctx, ind)
	if hubErr == nil {
		return []models.Observation{latest}, nil
	}

	// a fetch failure on both pages is reported as such, anything else
	// means the pages changed shape
	if models.KindOf(histErr) == models.KindFetch && models.KindOf(hubErr) == models.KindFetch {
		return nil, hubErr
	}
	return nil, parseError(s.Name(), ind, "no %s pmi in history table or hub page", ind.Key)
}

func (s *PMI) history(ctx context.Context, ind models.Indicator) ([]models.Observation, error) {
	url := fmt.Sprintf("%s/%s-pmi", s.historyURL, ind.Key)
	body, err := s.client.GetBody(ctx, url, nil, map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, fetchError(s.Name(), ind, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, parseError(s.Name(), ind, "parse html: %v", err)
	}

	now := s.now()
	var out []models.Observation
	doc.Find("table").EachWithBreak(func(_ int, tbl *goquery.Selection) bool {
		rows := tbl.Find("tr")
		if rows.Length() <= 2 {
			return true
		}
		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td, th")
			if cells.Length() < 2 {
				return
			}
			dateText := strings.TrimSpace(cells.Eq(0).Text())
			valueText := reNonNumeric.ReplaceAllString(cells.Eq(1).Text(), "")
			v, err := strconv.ParseFloat(valueText, 64)
			if err != nil || v < pmiMin || v > pmiMax {
				return
			}
			date, ok := util.ExtractMonthYear(dateText, now)
			if !ok {
				return
			}
			out = append(out, models.Observation{
				Date:  date,
				Value: scaled(ind, v),
				Meta:  map[string]string{models.MetaSourceDetail: "history"},
			})
		})
		return len(out) == 0
	})
	if len(out) == 0 {
		return nil, parseError(s.Name(), ind, "history table empty")
	}
	return out, nil
}

func (s *PMI) hub(ctx context.Context, ind models.Indicator) (models.Observation, error) {
	body, err := s.client.GetBody(ctx, s.hubURL, nil, map[string]string{"Accept": "text/html"})
	if err != nil {
		return models.Observation{}, fetchError(s.Name(), ind, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return models.Observation{}, parseError(s.Name(), ind, "parse html: %v", err)
	}
	text := strings.Join(strings.Fields(doc.Text()), " ")

	now := s.now()
	for _, re := range hubPatterns[ind.Key] {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || v < pmiMin || v > pmiMax {
			continue
		}
		date, ok := util.ExtractMonthYear(text, now)
		if !ok {
			date = previousSurveyMonth(now)
		}
		return models.Observation{
			Date:  date,
			Value: scaled(ind, v),
			Meta:  map[string]string{models.MetaSourceDetail: "hub"},
		}, nil
	}
	return models.Observation{}, parseError(s.Name(), ind, "hub page has no %s reading", ind.Key)
}

// previousSurveyMonth is the month the latest release most likely covers:
// last month, or the one before during the first days of a month.
func previousSurveyMonth(now time.Time) time.Time {
	back := 1
	if now.Day() < 5 {
		back = 2
	}
	return util.MonthStart(now).AddDate(0, -back, 0)
}

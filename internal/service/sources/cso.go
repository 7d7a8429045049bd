package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"EconDash/internal/domain/models"
	"EconDash/pkg/util"
)

// CSO reads PxStat datasets in JSON-stat 2.0 form.
type CSO struct {
	client  Getter
	baseURL string
}

func NewCSO(client Getter, baseURL string) *CSO {
	return &CSO{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *CSO) Name() string { return models.SourceCSO }

func (s *CSO) Fetch(ctx context.Context, ind models.Indicator) ([]models.Observation, error) {
	url := fmt.Sprintf("%s/%s/JSON-stat/2.0/en", s.baseURL, ind.Key)
	body, err := s.client.GetBody(ctx, url, nil, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fetchError(s.Name(), ind, err)
	}

	var ds jsonStat
	if err := json.Unmarshal(body, &ds); err != nil {
		return nil, parseError(s.Name(), ind, "decode json-stat: %v", err)
	}
	obs, err := ds.series(ind)
	if err != nil {
		return nil, parseError(s.Name(), ind, "%v", err)
	}
	if len(obs) == 0 {
		return nil, parseError(s.Name(), ind, "table %s: %v", ind.Key, models.ErrNoObservations)
	}
	return models.SortObservations(obs), nil
}

type jsonStat struct {
	ID        []string               `json:"id"`
	Size      []int                  `json:"size"`
	Dimension map[string]jsDimension `json:"dimension"`
	Value     json.RawMessage        `json:"value"`
	Role      struct {
		Time []string `json:"time"`
	} `json:"role"`
}

type jsDimension struct {
	Label    string `json:"label"`
	Category struct {
		Index json.RawMessage   `json:"index"`
		Label map[string]string `json:"label"`
	} `json:"category"`
}

// codes returns category codes in index order. The index may be an array of
// codes, an object of code to position, or absent for single-category
// dimensions.
func (d jsDimension) codes() ([]string, error) {
	raw := bytes.TrimSpace(d.Category.Index)
	if len(raw) == 0 || string(raw) == "null" {
		out := make([]string, 0, len(d.Category.Label))
		for code := range d.Category.Label {
			out = append(out, code)
		}
		if len(out) > 1 {
			return nil, fmt.Errorf("dimension %q has no category index", d.Label)
		}
		return out, nil
	}
	if raw[0] == '[' {
		var out []string
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("dimension %q index: %w", d.Label, err)
		}
		return out, nil
	}
	var pos map[string]int
	if err := json.Unmarshal(raw, &pos); err != nil {
		return nil, fmt.Errorf("dimension %q index: %w", d.Label, err)
	}
	out := make([]string, len(pos))
	for code, i := range pos {
		if i < 0 || i >= len(out) {
			return nil, fmt.Errorf("dimension %q: index %d out of range", d.Label, i)
		}
		out[i] = code
	}
	return out, nil
}

func (d jsDimension) label(code string) string {
	if l, ok := d.Category.Label[code]; ok {
		return l
	}
	return code
}

// values decodes the value member, which is either a dense array with nulls
// or a sparse object keyed by flat index.
func (ds *jsonStat) values() (map[int]float64, error) {
	raw := bytes.TrimSpace(ds.Value)
	out := make(map[int]float64)
	if len(raw) == 0 {
		return out, nil
	}
	if raw[0] == '[' {
		var dense []*float64
		if err := json.Unmarshal(raw, &dense); err != nil {
			return nil, fmt.Errorf("value array: %w", err)
		}
		for i, v := range dense {
			if v != nil {
				out[i] = *v
			}
		}
		return out, nil
	}
	var sparse map[string]*float64
	if err := json.Unmarshal(raw, &sparse); err != nil {
		return nil, fmt.Errorf("value object: %w", err)
	}
	for k, v := range sparse {
		i, err := strconv.Atoi(k)
		if err != nil || v == nil {
			continue
		}
		out[i] = *v
	}
	return out, nil
}

func (ds *jsonStat) timeDimension() (int, error) {
	if len(ds.Role.Time) > 0 {
		for i, id := range ds.ID {
			if id == ds.Role.Time[0] {
				return i, nil
			}
		}
	}
	for i, id := range ds.ID {
		if strings.HasPrefix(strings.ToUpper(id), "TLIST") {
			return i, nil
		}
		switch strings.ToLower(ds.Dimension[id].Label) {
		case "month", "quarter", "year":
			return i, nil
		}
	}
	return -1, fmt.Errorf("no time dimension among %v", ds.ID)
}

// filterFor returns the configured category filter for a dimension, matched
// on its label or id.
func filterFor(filters map[string]string, id string, dim jsDimension) (string, bool) {
	for k, v := range filters {
		if strings.EqualFold(k, dim.Label) || strings.EqualFold(k, id) {
			return v, true
		}
	}
	return "", false
}

// pick selects one category position. An exact label match wins over a
// substring match; codes are accepted as well.
func pick(dim jsDimension, codes []string, want string) (int, bool) {
	for i, code := range codes {
		if strings.EqualFold(dim.label(code), want) || strings.EqualFold(code, want) {
			return i, true
		}
	}
	lw := strings.ToLower(want)
	for i, code := range codes {
		if strings.Contains(strings.ToLower(dim.label(code)), lw) {
			return i, true
		}
	}
	return 0, false
}

// series walks the cube in row-major order (last dimension fastest) along the
// time axis, holding every other dimension at its selected category.
func (ds *jsonStat) series(ind models.Indicator) ([]models.Observation, error) {
	if len(ds.ID) == 0 || len(ds.ID) != len(ds.Size) {
		return nil, fmt.Errorf("id/size mismatch: %d ids, %d sizes", len(ds.ID), len(ds.Size))
	}
	timeDim, err := ds.timeDimension()
	if err != nil {
		return nil, err
	}

	strides := make([]int, len(ds.Size))
	stride := 1
	for i := len(ds.Size) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= ds.Size[i]
	}

	base := 0
	used := 0
	var timeCodes []string
	for i, id := range ds.ID {
		dim, ok := ds.Dimension[id]
		if !ok {
			return nil, fmt.Errorf("dimension %q missing", id)
		}
		codes, err := dim.codes()
		if err != nil {
			return nil, err
		}
		if len(codes) != ds.Size[i] {
			return nil, fmt.Errorf("dimension %q: %d categories, size %d", id, len(codes), ds.Size[i])
		}
		if i == timeDim {
			timeCodes = codes
			continue
		}
		pos := 0
		if want, ok := filterFor(ind.Filters, id, dim); ok {
			p, found := pick(dim, codes, want)
			if !found {
				return nil, fmt.Errorf("dimension %q has no category matching %q", dim.Label, want)
			}
			pos = p
			used++
		}
		base += pos * strides[i]
	}
	if used < len(ind.Filters) {
		return nil, fmt.Errorf("filters %v do not name dimensions of %v", ind.Filters, ds.ID)
	}

	vals, err := ds.values()
	if err != nil {
		return nil, err
	}
	tdim := ds.Dimension[ds.ID[timeDim]]
	out := make([]models.Observation, 0, len(timeCodes))
	for t, code := range timeCodes {
		v, ok := vals[base+t*strides[timeDim]]
		if !ok {
			continue
		}
		date, err := util.ParsePeriod(code)
		if err != nil {
			if date, err = util.ParsePeriod(tdim.label(code)); err != nil {
				continue
			}
		}
		out = append(out, models.Observation{
			Date:  date,
			Value: scaled(ind, v),
			Meta:  map[string]string{models.MetaPeriodLabel: tdim.label(code)},
		})
	}
	return out, nil
}

package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"EconDash/internal/domain/models"
	domrepo "EconDash/internal/domain/repository"

	"github.com/stretchr/testify/mock"
)

type mockSource struct {
	mock.Mock
	name string
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Fetch(ctx context.Context, ind models.Indicator) ([]models.Observation, error) {
	args := m.Called(ctx, ind)
	obs, _ := args.Get(0).([]models.Observation)
	return obs, args.Error(1)
}

// resolver hands out one adapter per source name.
type resolver map[string]domrepo.Source

func (r resolver) For(ind models.Indicator) (domrepo.Source, error) {
	s, ok := r[ind.Source]
	if !ok {
		return nil, models.ErrUnknownIndicator
	}
	return s, nil
}

// memStore is an in-memory EntryStore that copies on the way in and out.
type memStore struct {
	mu      sync.Mutex
	entries map[string]*models.CacheEntry
	summary *models.RunSummary
	saves   int
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]*models.CacheEntry)}
}

func (s *memStore) Load(_ context.Context, id string) (*models.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, models.ErrEntryNotFound
	}
	return e.Clone(), nil
}

func (s *memStore) Save(_ context.Context, e *models.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Indicator] = e.Clone()
	s.saves++
	return nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; !ok {
		return models.ErrEntryNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *memStore) List(_ context.Context) ([]*models.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.CacheEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Indicator < out[j].Indicator })
	return out, nil
}

func (s *memStore) Size(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return 0, models.ErrEntryNotFound
	}
	return int64(64 * len(e.Observations)), nil
}

func (s *memStore) SaveSummary(_ context.Context, sum *models.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sum
	s.summary = &cp
	return nil
}

func (s *memStore) LoadSummary(_ context.Context) (*models.RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summary == nil {
		return nil, models.ErrEntryNotFound
	}
	cp := *s.summary
	return &cp, nil
}

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) Init(ctx context.Context) error { return nil }

func (m *mockHistory) Append(ctx context.Context, indicator string, obs []models.Observation) (int, error) {
	args := m.Called(ctx, indicator, obs)
	return args.Int(0), args.Error(1)
}

func (m *mockHistory) Range(ctx context.Context, indicator string, from, to time.Time, limit int) ([]models.Observation, error) {
	args := m.Called(ctx, indicator, from, to, limit)
	obs, _ := args.Get(0).([]models.Observation)
	return obs, args.Error(1)
}

func (m *mockHistory) Close() error { return nil }

func monthObs(year int, values ...float64) []models.Observation {
	out := make([]models.Observation, len(values))
	for i, v := range values {
		out[i] = models.Observation{Date: time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC), Value: v}
	}
	return out
}

func dailyObs(start time.Time, values ...float64) []models.Observation {
	out := make([]models.Observation, len(values))
	for i, v := range values {
		out[i] = models.Observation{Date: start.AddDate(0, 0, i), Value: v}
	}
	return out
}

package repository

import (
	"context"
	"errors"
	"time"

	"EconDash/internal/domain/models"
	domrepo "EconDash/internal/domain/repository"
	"EconDash/pkg/cache"
	applogger "EconDash/pkg/logger"
)

const (
	entryKeyPrefix = "entry"
	summaryKey     = "run:last"
)

// CachedEntryStore puts a read cache in front of an EntryStore. The web
// process reads entries on every page view; the cache keeps those reads off
// the disk. With a Redis-backed cache several web instances share it.
//
// Cache failures never fail a call; the inner store is authoritative.
type CachedEntryStore struct {
	inner domrepo.EntryStore
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

var _ domrepo.EntryStore = (*CachedEntryStore)(nil)

func NewCachedEntryStore(inner domrepo.EntryStore, c cache.Service, ttl time.Duration, l *applogger.Logger) *CachedEntryStore {
	if l == nil {
		l = applogger.Nop()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CachedEntryStore{inner: inner, cache: c, ttl: ttl, l: l}
}

func (s *CachedEntryStore) Load(ctx context.Context, id string) (*models.CacheEntry, error) {
	key := cache.GenerateKey(entryKeyPrefix, id)
	var e models.CacheEntry
	err := s.cache.Get(ctx, key, &e)
	if err == nil {
		return &e, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.l.Debug("entry cache read failed", applogger.String("indicator", id), applogger.Error(err))
	}

	loaded, err := s.inner.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	s.put(ctx, key, loaded)
	return loaded, nil
}

func (s *CachedEntryStore) Save(ctx context.Context, e *models.CacheEntry) error {
	if err := s.inner.Save(ctx, e); err != nil {
		return err
	}
	s.put(ctx, cache.GenerateKey(entryKeyPrefix, e.Indicator), e)
	return nil
}

func (s *CachedEntryStore) Delete(ctx context.Context, id string) error {
	err := s.inner.Delete(ctx, id)
	if cerr := s.cache.Delete(ctx, cache.GenerateKey(entryKeyPrefix, id)); cerr != nil {
		s.l.Warn("entry cache delete failed", applogger.String("indicator", id), applogger.Error(cerr))
	}
	return err
}

func (s *CachedEntryStore) List(ctx context.Context) ([]*models.CacheEntry, error) {
	return s.inner.List(ctx)
}

func (s *CachedEntryStore) Size(ctx context.Context, id string) (int64, error) {
	return s.inner.Size(ctx, id)
}

func (s *CachedEntryStore) SaveSummary(ctx context.Context, sum *models.RunSummary) error {
	if err := s.inner.SaveSummary(ctx, sum); err != nil {
		return err
	}
	s.put(ctx, summaryKey, sum)
	return nil
}

func (s *CachedEntryStore) LoadSummary(ctx context.Context) (*models.RunSummary, error) {
	var sum models.RunSummary
	if err := s.cache.Get(ctx, summaryKey, &sum); err == nil {
		return &sum, nil
	}
	loaded, err := s.inner.LoadSummary(ctx)
	if err != nil {
		return nil, err
	}
	s.put(ctx, summaryKey, loaded)
	return loaded, nil
}

// Invalidate drops every cached entry, e.g. after another process wrote the
// store.
func (s *CachedEntryStore) Invalidate(ctx context.Context) error {
	if err := s.cache.DeleteByPattern(ctx, cache.BuildPattern(entryKeyPrefix)); err != nil {
		return err
	}
	return s.cache.Delete(ctx, summaryKey)
}

func (s *CachedEntryStore) put(ctx context.Context, key string, v interface{}) {
	if err := s.cache.Set(ctx, key, v, s.ttl); err != nil {
		s.l.Debug("entry cache write failed", applogger.String("key", key), applogger.Error(err))
	}
}

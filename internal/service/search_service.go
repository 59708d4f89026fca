package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/liliang-cn/smartsearch/internal/domain"
)

// SuggestionQueries are offered on the landing view before the first query
var SuggestionQueries = []string{
	"Affordable sandals for men",
	"Women's kurtis with latest designs",
	"Dish racks and kitchen organizers under 500",
	"Home decor items for living room",
}

// Searcher runs one-shot searches against the backend
type Searcher interface {
	Search(ctx context.Context, req domain.SearchRequest) *domain.SearchResponse
	Health(ctx context.Context) bool
}

// SearchCache stores successful search responses
type SearchCache interface {
	Get(key string, ttl time.Duration) (*domain.SearchResponse, error)
	Set(key string, resp *domain.SearchResponse) error
}

// SearchService fronts the REST searcher with an optional response cache
type SearchService struct {
	searcher Searcher
	cache    SearchCache
	ttl      time.Duration
	logger   *zap.Logger
}

// NewSearchService creates a new search service. A nil cache disables caching.
func NewSearchService(searcher Searcher, cache SearchCache, ttl time.Duration, logger *zap.Logger) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{
		searcher: searcher,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

// Search validates the request, serves it from cache when possible and
// otherwise asks the backend. Error responses are never cached.
func (s *SearchService) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return nil, domain.ErrBlankQuery
	}
	if req.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidRequest)
	}

	key := CacheKey(req)
	if s.cache != nil && s.ttl > 0 {
		cached, err := s.cache.Get(key, s.ttl)
		switch {
		case err == nil:
			s.logger.Debug("Search cache hit", zap.String("query", req.Query))
			return cached, nil
		case !errors.Is(err, domain.ErrNotFound):
			s.logger.Warn("Search cache read failed", zap.Error(err))
		}
	}

	resp := s.searcher.Search(ctx, req)
	if resp.Status != domain.SearchStatusSuccess || s.cache == nil || s.ttl <= 0 {
		return resp, nil
	}
	if err := s.cache.Set(key, resp); err != nil {
		s.logger.Warn("Search cache write failed", zap.Error(err))
	}
	return resp, nil
}

// Health reports whether the backend REST API is reachable
func (s *SearchService) Health(ctx context.Context) bool {
	return s.searcher.Health(ctx)
}

// CacheKey builds the canonical cache key for a search request
func CacheKey(req domain.SearchRequest) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(strings.TrimSpace(req.Query)))
	b.WriteString("|limit=")
	b.WriteString(strconv.Itoa(req.Limit))
	writeBound(&b, "max_price", req.MaxPrice)
	writeBound(&b, "min_rating", req.MinRating)
	if f := req.Filters; f != nil {
		writeBound(&b, "f.min_price", f.MinPrice)
		writeBound(&b, "f.max_price", f.MaxPrice)
		writeBound(&b, "f.min_rating", f.MinRating)
	}
	return b.String()
}

func writeBound(b *strings.Builder, name string, v *float64) {
	if v == nil {
		return
	}
	b.WriteString("|")
	b.WriteString(name)
	b.WriteString("=")
	b.WriteString(strconv.FormatFloat(*v, 'f', -1, 64))
}

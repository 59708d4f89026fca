package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/liliang-cn/smartsearch/internal/domain"
)

// SearchCacheRepository stores successful search responses with an expiry
type SearchCacheRepository struct {
	db  *DB
	now func() time.Time
}

// NewSearchCacheRepository creates a new search cache repository
func NewSearchCacheRepository(db *DB) *SearchCacheRepository {
	return &SearchCacheRepository{db: db, now: time.Now}
}

// Get returns the cached response for key if it is younger than ttl.
// A miss or an expired entry returns domain.ErrNotFound.
func (r *SearchCacheRepository) Get(key string, ttl time.Duration) (*domain.SearchResponse, error) {
	var payload string
	var createdAt int64

	err := r.db.QueryRow(`
		SELECT response, created_at FROM search_cache WHERE cache_key = ?
	`, key).Scan(&payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if r.now().Sub(time.Unix(0, createdAt)) > ttl {
		return nil, domain.ErrNotFound
	}

	var resp domain.SearchResponse
	if err := sonic.UnmarshalString(payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	if resp.Products == nil {
		resp.Products = []domain.Product{}
	}
	return &resp, nil
}

// Set stores resp under key, replacing any previous entry
func (r *SearchCacheRepository) Set(key string, resp *domain.SearchResponse) error {
	payload, err := sonic.MarshalString(resp)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO search_cache (cache_key, query, response, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			query = excluded.query,
			response = excluded.response,
			created_at = excluded.created_at
	`, key, resp.Query, payload, r.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Purge deletes entries older than ttl and returns how many were removed
func (r *SearchCacheRepository) Purge(ttl time.Duration) (int64, error) {
	cutoff := r.now().Add(-ttl).UnixNano()
	res, err := r.db.Exec(`DELETE FROM search_cache WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored entries
func (r *SearchCacheRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM search_cache`).Scan(&count)
	return count, err
}

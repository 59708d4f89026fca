package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liliang-cn/smartsearch/internal/domain"
)

func newTestCache(t *testing.T) *SearchCacheRepository {
	db, err := NewDB(filepath.Join(t.TempDir(), "nested", "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSearchCacheRepository(db)
}

func sampleResponse() *domain.SearchResponse {
	return &domain.SearchResponse{
		Products: []domain.Product{
			{ID: "p1", Name: "Lamp", Price: 19.5, Rating: 4.1, Reviews: 8, Source: "walmart"},
		},
		Query:        "lamp",
		TotalResults: 1,
		Status:       domain.SearchStatusSuccess,
	}
}

func TestSearchCache_SetGet(t *testing.T) {
	repo := newTestCache(t)
	require.NoError(t, repo.Set("k1", sampleResponse()))

	got, err := repo.Get("k1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, sampleResponse(), got)
}

func TestSearchCache_Miss(t *testing.T) {
	repo := newTestCache(t)
	_, err := repo.Get("absent", time.Minute)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchCache_Expiry(t *testing.T) {
	repo := newTestCache(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return base }
	require.NoError(t, repo.Set("k1", sampleResponse()))

	repo.now = func() time.Time { return base.Add(5 * time.Minute) }
	_, err := repo.Get("k1", 10*time.Minute)
	assert.NoError(t, err)

	_, err = repo.Get("k1", time.Minute)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchCache_Overwrite(t *testing.T) {
	repo := newTestCache(t)
	require.NoError(t, repo.Set("k1", sampleResponse()))

	updated := sampleResponse()
	updated.TotalResults = 40
	require.NoError(t, repo.Set("k1", updated))

	got, err := repo.Get("k1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 40, got.TotalResults)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSearchCache_Purge(t *testing.T) {
	repo := newTestCache(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	repo.now = func() time.Time { return base }
	require.NoError(t, repo.Set("old", sampleResponse()))
	repo.now = func() time.Time { return base.Add(time.Hour) }
	require.NoError(t, repo.Set("new", sampleResponse()))

	removed, err := repo.Purge(30 * time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

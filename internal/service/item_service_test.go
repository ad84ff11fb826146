package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
	appErrors "github.com/noah-isme/seasonal-upkeep-api/pkg/errors"
)

type memoryCache struct {
	entries map[string][]byte
	getErr  error
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.getErr != nil {
		return c.getErr
	}
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.entries, k)
		c.deleted = append(c.deleted, k)
	}
	return nil
}

type itemRepoStub struct {
	items       map[string]models.Item
	findCalls   int
	batchCalls  [][]string
	updateCalls map[string][]string
}

func newItemRepoStub(items ...models.Item) *itemRepoStub {
	stub := &itemRepoStub{items: map[string]models.Item{}, updateCalls: map[string][]string{}}
	for _, item := range items {
		stub.items[item.ID] = item
	}
	return stub
}

func (r *itemRepoStub) FindByID(ctx context.Context, id string) (*models.Item, error) {
	r.findCalls++
	item, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (r *itemRepoStub) FindByIDs(ctx context.Context, ids []string) ([]models.Item, error) {
	r.batchCalls = append(r.batchCalls, ids)
	var out []models.Item
	for _, id := range ids {
		if item, ok := r.items[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (r *itemRepoStub) List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	var out []models.Item
	for _, item := range r.items {
		if filter.Season != "" && item.Season != filter.Season {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *itemRepoStub) UpdateAppliedTemplates(ctx context.Context, itemID string, templateIDs []string) error {
	if _, ok := r.items[itemID]; !ok {
		return sql.ErrNoRows
	}
	r.updateCalls[itemID] = templateIDs
	return nil
}

func newCachedItemService(items ...models.Item) (*ItemService, *itemRepoStub, *memoryCache, *MetricsService) {
	repo := newItemRepoStub(items...)
	cache := newMemoryCache()
	metrics := NewMetricsService()
	svc := NewItemService(repo, NewCacheService(cache, metrics, time.Minute, nil, true), nil)
	return svc, repo, cache, metrics
}

func TestItemServiceGetUsesCache(t *testing.T) {
	svc, repo, _, metrics := newCachedItemService(models.Item{ID: "ITEM-1", Season: models.SeasonHalloween})

	first, err := svc.Get(context.Background(), "ITEM-1")
	require.NoError(t, err)
	second, err := svc.Get(context.Background(), "ITEM-1")
	require.NoError(t, err)

	assert.Equal(t, first.Season, second.Season)
	assert.Equal(t, 1, repo.findCalls)
	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.CacheHits)
	assert.Equal(t, uint64(1), snapshot.CacheMisses)
}

func TestItemServiceGetMissing(t *testing.T) {
	svc, _, _, _ := newCachedItemService()
	_, err := svc.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestItemServiceGetManyLoadsOnlyMisses(t *testing.T) {
	svc, repo, _, _ := newCachedItemService(
		models.Item{ID: "A"}, models.Item{ID: "B"}, models.Item{ID: "C"},
	)
	_, err := svc.Get(context.Background(), "A")
	require.NoError(t, err)

	items, err := svc.GetMany(context.Background(), []string{"A", "B", "B", "", "C", "ghost"})
	require.NoError(t, err)
	assert.Len(t, items, 3)
	require.Len(t, repo.batchCalls, 1)
	assert.Equal(t, []string{"B", "C", "ghost"}, repo.batchCalls[0])
}

func TestItemServiceUpdateAppliedTemplatesEvicts(t *testing.T) {
	svc, _, cache, _ := newCachedItemService(models.Item{ID: "A"})
	_, err := svc.Get(context.Background(), "A")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateAppliedTemplates(context.Background(), "A", []string{"tpl-1"}))
	assert.Contains(t, cache.deleted, "item:A")
	_, cached := cache.entries["item:A"]
	assert.False(t, cached)

	err = svc.UpdateAppliedTemplates(context.Background(), "ghost", nil)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestItemServiceInvalidateEvictsOnlyNamedItems(t *testing.T) {
	svc, repo, cache, _ := newCachedItemService(models.Item{ID: "A"}, models.Item{ID: "B"}, models.Item{ID: "C"})
	_, err := svc.GetMany(context.Background(), []string{"A", "B", "C"})
	require.NoError(t, err)

	svc.Invalidate(context.Background(), "A", "C")
	assert.ElementsMatch(t, []string{"item:A", "item:C"}, cache.deleted)
	_, cached := cache.entries["item:B"]
	assert.True(t, cached)

	svc.Invalidate(context.Background())
	assert.Len(t, cache.deleted, 2)

	_, err = svc.Get(context.Background(), "B")
	require.NoError(t, err)
	assert.Equal(t, 0, repo.findCalls)
}

func TestItemServiceDegradesWhenCacheFails(t *testing.T) {
	repo := newItemRepoStub(models.Item{ID: "A"})
	cache := newMemoryCache()
	cache.getErr = errors.New("redis down")
	svc := NewItemService(repo, NewCacheService(cache, nil, 0, nil, true), nil)

	item, err := svc.Get(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "A", item.ID)
}

func TestItemServiceWithoutCache(t *testing.T) {
	repo := newItemRepoStub(models.Item{ID: "A", Season: models.SeasonShared}, models.Item{ID: "B", Season: models.SeasonChristmas})
	svc := NewItemService(repo, nil, nil)

	_, err := svc.Get(context.Background(), "A")
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.findCalls)

	items, err := svc.List(context.Background(), models.ItemFilter{Season: models.SeasonChristmas})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "B", items[0].ID)
}

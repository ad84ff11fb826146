package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
	appErrors "github.com/noah-isme/seasonal-upkeep-api/pkg/errors"
)

type itemRepository interface {
	FindByID(ctx context.Context, id string) (*models.Item, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Item, error)
	List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error)
	UpdateAppliedTemplates(ctx context.Context, itemID string, templateIDs []string) error
}

// ItemService reads items through an optional Redis cache.
type ItemService struct {
	repo   itemRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewItemService constructs the service. cache may be nil.
func NewItemService(repo itemRepository, cache *CacheService, logger *zap.Logger) *ItemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemService{repo: repo, cache: cache, logger: logger}
}

func itemCacheKey(id string) string {
	return fmt.Sprintf("item:%s", id)
}

// Get fetches an item, consulting the cache first.
func (s *ItemService) Get(ctx context.Context, id string) (*models.Item, error) {
	var cached models.Item
	if hit, _ := s.cache.Get(ctx, itemCacheKey(id), &cached); hit {
		return &cached, nil
	}

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("item %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	_ = s.cache.Set(ctx, itemCacheKey(id), item, 0)
	return item, nil
}

// GetMany resolves several items. Unknown ids are omitted rather than reported.
func (s *ItemService) GetMany(ctx context.Context, ids []string) ([]models.Item, error) {
	items := make([]models.Item, 0, len(ids))
	var missing []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		var cached models.Item
		if hit, _ := s.cache.Get(ctx, itemCacheKey(id), &cached); hit {
			items = append(items, cached)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return items, nil
	}

	loaded, err := s.repo.FindByIDs(ctx, missing)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load items")
	}
	for i := range loaded {
		_ = s.cache.Set(ctx, itemCacheKey(loaded[i].ID), loaded[i], 0)
	}
	return append(items, loaded...), nil
}

// List returns items matching the filter.
func (s *ItemService) List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list items")
	}
	return items, nil
}

// UpdateAppliedTemplates persists the applied-template set and evicts the cached item.
func (s *ItemService) UpdateAppliedTemplates(ctx context.Context, itemID string, templateIDs []string) error {
	if err := s.repo.UpdateAppliedTemplates(ctx, itemID, templateIDs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("item %s not found", itemID))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update applied templates")
	}
	s.Invalidate(ctx, itemID)
	return nil
}

// Invalidate evicts cached items.
func (s *ItemService) Invalidate(ctx context.Context, itemIDs ...string) {
	if len(itemIDs) == 0 {
		return
	}
	keys := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		keys[i] = itemCacheKey(id)
	}
	_ = s.cache.Delete(ctx, keys...)
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
)

const itemColumns = `id, name, season, class_type, applied_templates, updated_at`

// ItemRepository reads inventory items and maintains their applied-template sets.
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository constructs the repository.
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// FindByID fetches an item. sql.ErrNoRows is returned unwrapped when absent.
func (r *ItemRepository) FindByID(ctx context.Context, id string) (*models.Item, error) {
	query := "SELECT " + itemColumns + " FROM items WHERE id = $1"
	var item models.Item
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByIDs fetches several items at once. Missing ids are simply absent from the result.
func (r *ItemRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := "SELECT " + itemColumns + " FROM items WHERE id = ANY($1) ORDER BY id ASC"
	var items []models.Item
	if err := r.db.SelectContext(ctx, &items, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find items by ids: %w", err)
	}
	return items, nil
}

// List returns items matching the filter.
func (r *ItemRepository) List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Season != "" {
		args = append(args, filter.Season)
		conditions = append(conditions, fmt.Sprintf("season = $%d", len(args)))
	}
	if filter.ClassType != "" {
		args = append(args, filter.ClassType)
		conditions = append(conditions, fmt.Sprintf("class_type = $%d", len(args)))
	}

	query := "SELECT " + itemColumns + " FROM items"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id ASC"

	var items []models.Item
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// UpdateAppliedTemplates replaces the applied-template set of an item.
func (r *ItemRepository) UpdateAppliedTemplates(ctx context.Context, itemID string, templateIDs []string) error {
	if templateIDs == nil {
		templateIDs = []string{}
	}
	const query = `UPDATE items SET applied_templates = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, pq.Array(templateIDs), time.Now().UTC(), itemID)
	if err != nil {
		return fmt.Errorf("update applied templates: %w", err)
	}
	return requireAffected(res, "update applied templates")
}

// RemoveAppliedTemplate strips templateID from every item that carries it and returns the affected item ids.
func (r *ItemRepository) RemoveAppliedTemplate(ctx context.Context, exec sqlx.ExtContext, templateID string) ([]string, error) {
	const query = `UPDATE items SET applied_templates = array_remove(applied_templates, $1), updated_at = $2
WHERE $1 = ANY(applied_templates) RETURNING id`
	var ids []string
	if err := sqlx.SelectContext(ctx, r.exec(exec), &ids, query, templateID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("remove applied template: %w", err)
	}
	return ids, nil
}

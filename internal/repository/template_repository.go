package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
)

const templateColumns = `id, class_type, task_kind, category, short_name, title, description, frequency, season,
start_date, is_default, enabled, estimated_cost, estimated_duration_minutes, days_before_reminder,
created_at, updated_at, updated_by`

// TemplateRepository persists schedule templates.
type TemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository constructs the repository.
func NewTemplateRepository(db *sqlx.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns templates matching the filter ordered by class and short name.
func (r *TemplateRepository) List(ctx context.Context, filter models.TemplateFilter) ([]models.ScheduleTemplate, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.ClassType != "" {
		args = append(args, filter.ClassType)
		conditions = append(conditions, fmt.Sprintf("class_type = $%d", len(args)))
	}
	if filter.TaskKind != "" {
		args = append(args, filter.TaskKind)
		conditions = append(conditions, fmt.Sprintf("task_kind = $%d", len(args)))
	}
	if filter.Enabled != nil {
		args = append(args, *filter.Enabled)
		conditions = append(conditions, fmt.Sprintf("enabled = $%d", len(args)))
	}
	if filter.IsDefault != nil {
		args = append(args, *filter.IsDefault)
		conditions = append(conditions, fmt.Sprintf("is_default = $%d", len(args)))
	}

	query := "SELECT " + templateColumns + " FROM schedule_templates"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY class_type ASC, short_name ASC"

	var templates []models.ScheduleTemplate
	if err := r.db.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, fmt.Errorf("list schedule templates: %w", err)
	}
	return templates, nil
}

// FindByID fetches a template. sql.ErrNoRows is returned unwrapped when absent.
func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*models.ScheduleTemplate, error) {
	query := "SELECT " + templateColumns + " FROM schedule_templates WHERE id = $1"
	var template models.ScheduleTemplate
	if err := r.db.GetContext(ctx, &template, query, id); err != nil {
		return nil, err
	}
	return &template, nil
}

// Create inserts a template, assigning its id and timestamps.
func (r *TemplateRepository) Create(ctx context.Context, template *models.ScheduleTemplate) error {
	if template.ID == "" {
		template.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now

	const query = `INSERT INTO schedule_templates (id, class_type, task_kind, category, short_name, title, description,
frequency, season, start_date, is_default, enabled, estimated_cost, estimated_duration_minutes, days_before_reminder,
created_at, updated_at, updated_by)
VALUES (:id, :class_type, :task_kind, :category, :short_name, :title, :description, :frequency, :season, :start_date,
:is_default, :enabled, :estimated_cost, :estimated_duration_minutes, :days_before_reminder, :created_at, :updated_at, :updated_by)`
	if _, err := r.db.NamedExecContext(ctx, query, template); err != nil {
		return fmt.Errorf("create schedule template: %w", err)
	}
	return nil
}

// Update overwrites the mutable columns of a template.
func (r *TemplateRepository) Update(ctx context.Context, exec sqlx.ExtContext, template *models.ScheduleTemplate) error {
	template.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedule_templates SET class_type = :class_type, task_kind = :task_kind, category = :category,
short_name = :short_name, title = :title, description = :description, frequency = :frequency, season = :season,
start_date = :start_date, is_default = :is_default, enabled = :enabled, estimated_cost = :estimated_cost,
estimated_duration_minutes = :estimated_duration_minutes, days_before_reminder = :days_before_reminder,
updated_at = :updated_at, updated_by = :updated_by
WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, template)
	if err != nil {
		return fmt.Errorf("update schedule template: %w", err)
	}
	return requireAffected(res, "update schedule template")
}

// Delete removes a template row.
func (r *TemplateRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	res, err := r.exec(exec).ExecContext(ctx, `DELETE FROM schedule_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule template: %w", err)
	}
	return requireAffected(res, "delete schedule template")
}

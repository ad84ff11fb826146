package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
)

const recordColumns = `id, item_id, template_id, occurrence_number, is_scheduled_task, record_type, status, title,
description, criticality, date_performed, date_scheduled, performed_by, estimated_completion_date, materials_used,
cost_record_ids, total_cost, attachments, created_at, updated_at, updated_by`

// RecordRepository persists maintenance records.
type RecordRepository struct {
	db *sqlx.DB
}

// NewRecordRepository constructs the repository.
func NewRecordRepository(db *sqlx.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

func (r *RecordRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// List returns records matching the filter, newest first.
func (r *RecordRepository) List(ctx context.Context, filter models.RecordFilter) ([]models.MaintenanceRecord, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.ItemID != "" {
		args = append(args, filter.ItemID)
		conditions = append(conditions, fmt.Sprintf("item_id = $%d", len(args)))
	}
	if filter.TemplateID != "" {
		args = append(args, filter.TemplateID)
		conditions = append(conditions, fmt.Sprintf("template_id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		args = append(args, pq.Array(statusStrings(filter.Statuses)))
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	query := "SELECT " + recordColumns + " FROM maintenance_records"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"

	var records []models.MaintenanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list maintenance records: %w", err)
	}
	return records, nil
}

// FindByID fetches a record. sql.ErrNoRows is returned unwrapped when absent.
func (r *RecordRepository) FindByID(ctx context.Context, id string) (*models.MaintenanceRecord, error) {
	query := "SELECT " + recordColumns + " FROM maintenance_records WHERE id = $1"
	var record models.MaintenanceRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// Create inserts a record, assigning its id and timestamps.
func (r *RecordRepository) Create(ctx context.Context, record *models.MaintenanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.CostRecordIDs == nil {
		record.CostRecordIDs = pq.StringArray{}
	}

	const query = `INSERT INTO maintenance_records (id, item_id, template_id, occurrence_number, is_scheduled_task,
record_type, status, title, description, criticality, date_performed, date_scheduled, performed_by,
estimated_completion_date, materials_used, cost_record_ids, total_cost, attachments, created_at, updated_at, updated_by)
VALUES (:id, :item_id, :template_id, :occurrence_number, :is_scheduled_task, :record_type, :status, :title,
:description, :criticality, :date_performed, :date_scheduled, :performed_by, :estimated_completion_date,
:materials_used, :cost_record_ids, :total_cost, :attachments, :created_at, :updated_at, :updated_by)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("create maintenance record: %w", err)
	}
	return nil
}

// Update overwrites the mutable columns of a record.
func (r *RecordRepository) Update(ctx context.Context, record *models.MaintenanceRecord) error {
	record.UpdatedAt = time.Now().UTC()
	const query = `UPDATE maintenance_records SET status = :status, title = :title, description = :description,
criticality = :criticality, date_performed = :date_performed, date_scheduled = :date_scheduled,
performed_by = :performed_by, estimated_completion_date = :estimated_completion_date,
materials_used = :materials_used, cost_record_ids = :cost_record_ids, total_cost = :total_cost,
attachments = :attachments, updated_at = :updated_at, updated_by = :updated_by
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("update maintenance record: %w", err)
	}
	return requireAffected(res, "update maintenance record")
}

// Delete removes a record row.
func (r *RecordRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM maintenance_records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete maintenance record: %w", err)
	}
	return requireAffected(res, "delete maintenance record")
}

// CascadeTemplateFields copies template display fields onto its generated records still in one of statuses.
func (r *RecordRepository) CascadeTemplateFields(ctx context.Context, exec sqlx.ExtContext, templateID, title, description string, cost decimal.NullDecimal, statuses []models.RecordStatus, updatedBy string) (int, error) {
	const query = `UPDATE maintenance_records
SET title = $1, description = $2, total_cost = COALESCE($3, total_cost), updated_at = $4, updated_by = $5
WHERE template_id = $6 AND status = ANY($7)`
	res, err := r.exec(exec).ExecContext(ctx, query, title, description, cost, time.Now().UTC(), updatedBy, templateID, pq.Array(statusStrings(statuses)))
	if err != nil {
		return 0, fmt.Errorf("cascade template fields: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cascade template fields rows affected: %w", err)
	}
	return int(affected), nil
}

// CancelByTemplate cancels generated records of a template whose status is in statuses.
func (r *RecordRepository) CancelByTemplate(ctx context.Context, exec sqlx.ExtContext, templateID string, statuses []models.RecordStatus, updatedBy string) (int, error) {
	const query = `UPDATE maintenance_records SET status = $1, updated_at = $2, updated_by = $3
WHERE template_id = $4 AND status = ANY($5)`
	res, err := r.exec(exec).ExecContext(ctx, query, models.RecordCancelled, time.Now().UTC(), updatedBy, templateID, pq.Array(statusStrings(statuses)))
	if err != nil {
		return 0, fmt.Errorf("cancel template records: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cancel template records rows affected: %w", err)
	}
	return int(affected), nil
}

func statusStrings(statuses []models.RecordStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

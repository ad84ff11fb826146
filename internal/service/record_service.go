package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/seasonal-upkeep-api/internal/dto"
	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
	appErrors "github.com/noah-isme/seasonal-upkeep-api/pkg/errors"
)

type recordRepository interface {
	List(ctx context.Context, filter models.RecordFilter) ([]models.MaintenanceRecord, error)
	FindByID(ctx context.Context, id string) (*models.MaintenanceRecord, error)
	Create(ctx context.Context, record *models.MaintenanceRecord) error
	Update(ctx context.Context, record *models.MaintenanceRecord) error
	Delete(ctx context.Context, id string) error
}

// RecordService manages maintenance records entered by hand and exposes the record feeds.
type RecordService struct {
	repo      recordRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRecordService constructs the record service.
func NewRecordService(repo recordRepository, validate *validator.Validate, logger *zap.Logger) *RecordService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordService{repo: repo, validator: validate, logger: logger}
}

// Get fetches a record by id.
func (s *RecordService) Get(ctx context.Context, id string) (*models.MaintenanceRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("record %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load record")
	}
	return record, nil
}

// ListByItem returns every record of one item.
func (s *RecordService) ListByItem(ctx context.Context, itemID string) ([]models.MaintenanceRecord, error) {
	records, err := s.repo.List(ctx, models.RecordFilter{ItemID: itemID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list item records")
	}
	return records, nil
}

// ListAll returns the full record feed.
func (s *RecordService) ListAll(ctx context.Context) ([]models.MaintenanceRecord, error) {
	records, err := s.repo.List(ctx, models.RecordFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list records")
	}
	return records, nil
}

// Create stores an ad hoc record. Repairs must carry a criticality.
func (s *RecordService) Create(ctx context.Context, req dto.CreateRecordRequest, actor string) (*models.MaintenanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid record payload")
	}

	record := &models.MaintenanceRecord{
		ItemID:        strings.TrimSpace(req.ItemID),
		RecordType:    models.TaskKind(req.RecordType),
		Status:        models.RecordScheduled,
		Title:         strings.TrimSpace(req.Title),
		Description:   req.Description,
		Criticality:   req.Criticality,
		PerformedBy:   req.PerformedBy,
		MaterialsUsed: models.Materials(req.MaterialsUsed),
		CostRecordIDs: pq.StringArray(req.CostRecordIDs),
		TotalCost:     decimal.Zero,
		Attachments:   req.Attachments,
		UpdatedBy:     actor,
	}
	if req.Status != "" {
		record.Status = models.RecordStatus(req.Status)
	}
	if req.TotalCost != nil {
		record.TotalCost = *req.TotalCost
	}

	var err error
	if record.DatePerformed, err = dto.ParseDate(req.DatePerformed); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if record.DateScheduled, err = dto.ParseDate(req.DateScheduled); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if record.EstimatedCompletionDate, err = dto.ParseDate(req.EstimatedCompletionDate); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if err := checkRecordInvariants(record); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create record")
	}
	s.logger.Info("record created", zap.String("record_id", record.ID), zap.String("item_id", record.ItemID))
	return record, nil
}

// Update patches a record. Completed records are immutable and status changes must follow the lifecycle.
func (s *RecordService) Update(ctx context.Context, id string, req dto.UpdateRecordRequest, actor string) (*models.MaintenanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid record payload")
	}
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Status == models.RecordCompleted {
		return nil, appErrors.Clone(appErrors.ErrImmutableRecord, fmt.Sprintf("record %s is completed", id))
	}

	if req.Status != nil {
		next := models.RecordStatus(*req.Status)
		if !record.Status.CanTransitionTo(next) {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cannot move record from %s to %s", record.Status, next))
		}
		record.Status = next
	}
	if req.Title != nil {
		record.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		record.Description = *req.Description
	}
	if req.Criticality != nil {
		record.Criticality = *req.Criticality
	}
	if req.PerformedBy != nil {
		record.PerformedBy = *req.PerformedBy
	}
	if req.MaterialsUsed != nil {
		record.MaterialsUsed = models.Materials(req.MaterialsUsed)
	}
	if req.CostRecordIDs != nil {
		record.CostRecordIDs = pq.StringArray(req.CostRecordIDs)
	}
	if req.TotalCost != nil {
		record.TotalCost = *req.TotalCost
	}
	if req.Attachments != nil {
		record.Attachments = *req.Attachments
	}
	if req.DatePerformed != nil {
		if record.DatePerformed, err = dto.ParseDate(req.DatePerformed); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
	}
	if req.DateScheduled != nil {
		if record.DateScheduled, err = dto.ParseDate(req.DateScheduled); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
	}
	if req.EstimatedCompletionDate != nil {
		if record.EstimatedCompletionDate, err = dto.ParseDate(req.EstimatedCompletionDate); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
	}
	if err := checkRecordInvariants(record); err != nil {
		return nil, err
	}
	record.UpdatedBy = actor

	if err := s.repo.Update(ctx, record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("record %s not found", id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update record")
	}
	return record, nil
}

// Delete removes a record that is not yet history.
func (s *RecordService) Delete(ctx context.Context, id string) error {
	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if record.Status == models.RecordCompleted {
		return appErrors.Clone(appErrors.ErrImmutableRecord, fmt.Sprintf("record %s is completed", id))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("record %s not found", id))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete record")
	}
	s.logger.Info("record deleted", zap.String("record_id", id))
	return nil
}

func checkRecordInvariants(record *models.MaintenanceRecord) error {
	var errs []string
	if record.Criticality.Rank() == 0 && record.Criticality != models.CriticalityNone {
		errs = append(errs, fmt.Sprintf("criticality %q must be one of low, medium, high", record.Criticality))
	}
	if record.RecordType == models.TaskRepair && record.Criticality == models.CriticalityNone {
		errs = append(errs, "criticality is required for repair records")
	}
	if record.TotalCost.IsNegative() {
		errs = append(errs, "totalCost must be zero or greater")
	}
	for i, m := range record.MaterialsUsed {
		if m.Quantity < 0 {
			errs = append(errs, fmt.Sprintf("materialsUsed[%d].quantity must be zero or greater", i))
		}
	}
	if len(errs) > 0 {
		return appErrors.Validation("invalid record", errs)
	}
	return nil
}

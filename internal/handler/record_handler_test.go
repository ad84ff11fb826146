package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seasonal-upkeep-api/internal/dto"
	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
	appErrors "github.com/noah-isme/seasonal-upkeep-api/pkg/errors"
)

type recordServiceMock struct {
	records   map[string]models.MaintenanceRecord
	created   dto.CreateRecordRequest
	updated   dto.UpdateRecordRequest
	actor     string
	deleted   []string
	byItemArg string
}

func newRecordServiceMock() *recordServiceMock {
	return &recordServiceMock{records: map[string]models.MaintenanceRecord{
		"rec-1": {ID: "rec-1", ItemID: "ITEM-1", Status: models.RecordScheduled},
		"rec-2": {ID: "rec-2", ItemID: "ITEM-1", Status: models.RecordCompleted},
	}}
}

func (m *recordServiceMock) Get(ctx context.Context, id string) (*models.MaintenanceRecord, error) {
	record, ok := m.records[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "record not found")
	}
	return &record, nil
}

func (m *recordServiceMock) ListAll(ctx context.Context) ([]models.MaintenanceRecord, error) {
	out := make([]models.MaintenanceRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, nil
}

func (m *recordServiceMock) ListByItem(ctx context.Context, itemID string) ([]models.MaintenanceRecord, error) {
	m.byItemArg = itemID
	return m.ListAll(ctx)
}

func (m *recordServiceMock) Create(ctx context.Context, req dto.CreateRecordRequest, actor string) (*models.MaintenanceRecord, error) {
	m.created, m.actor = req, actor
	return &models.MaintenanceRecord{ID: "rec-3", ItemID: req.ItemID, Title: req.Title}, nil
}

func (m *recordServiceMock) Update(ctx context.Context, id string, req dto.UpdateRecordRequest, actor string) (*models.MaintenanceRecord, error) {
	m.updated, m.actor = req, actor
	record := m.records[id]
	if record.Status == models.RecordCompleted {
		return nil, appErrors.Clone(appErrors.ErrImmutableRecord, "completed records cannot be edited")
	}
	return &record, nil
}

func (m *recordServiceMock) Delete(ctx context.Context, id string) error {
	if m.records[id].Status == models.RecordCompleted {
		return appErrors.Clone(appErrors.ErrImmutableRecord, "completed records cannot be deleted")
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func withID(c *gin.Context, id string) {
	c.Params = []gin.Param{{Key: "id", Value: id}}
}

func TestRecordHandlerCreate(t *testing.T) {
	svc := newRecordServiceMock()
	h := NewRecordHandler(svc)

	c, w := newGinContext(http.MethodPost, "/records", []byte(`{"itemId":"ITEM-1","recordType":"repair","title":"Patch seam","criticality":"high","totalCost":"12.50"}`))
	asUser(c, "tech-1", models.RoleTechnician)
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "tech-1", svc.actor)
	assert.Equal(t, models.CriticalityHigh, svc.created.Criticality)
	require.NotNil(t, svc.created.TotalCost)
	assert.Equal(t, "12.5", svc.created.TotalCost.String())
}

func TestRecordHandlerCreateRejectsMalformedBody(t *testing.T) {
	h := NewRecordHandler(newRecordServiceMock())
	c, w := newGinContext(http.MethodPost, "/records", []byte(`{"itemId":`))
	h.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordHandlerUpdateCompletedIsConflict(t *testing.T) {
	h := NewRecordHandler(newRecordServiceMock())

	c, w := newGinContext(http.MethodPut, "/records/rec-2", []byte(`{"title":"late edit"}`))
	withID(c, "rec-2")
	h.Update(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "RECORD_IMMUTABLE", decodeEnvelope(t, w).Error.Code)
}

func TestRecordHandlerUpdate(t *testing.T) {
	svc := newRecordServiceMock()
	h := NewRecordHandler(svc)

	c, w := newGinContext(http.MethodPut, "/records/rec-1", []byte(`{"status":"in_progress"}`))
	withID(c, "rec-1")
	h.Update(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.updated.Status)
	assert.Equal(t, "in_progress", *svc.updated.Status)
	assert.Equal(t, systemActor, svc.actor)
}

func TestRecordHandlerDelete(t *testing.T) {
	svc := newRecordServiceMock()
	h := NewRecordHandler(svc)

	c, w := newGinContext(http.MethodDelete, "/records/rec-1", nil)
	withID(c, "rec-1")
	h.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{"rec-1"}, svc.deleted)

	c, w = newGinContext(http.MethodDelete, "/records/rec-2", nil)
	withID(c, "rec-2")
	h.Delete(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRecordHandlerReads(t *testing.T) {
	svc := newRecordServiceMock()
	h := NewRecordHandler(svc)

	c, w := newGinContext(http.MethodGet, "/records/ghost", nil)
	withID(c, "ghost")
	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)

	c, w = newGinContext(http.MethodGet, "/items/ITEM-1/records", nil)
	withID(c, "ITEM-1")
	h.ListByItem(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ITEM-1", svc.byItemArg)

	c, w = newGinContext(http.MethodGet, "/records", nil)
	h.List(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

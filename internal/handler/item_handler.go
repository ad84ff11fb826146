package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/seasonal-upkeep-api/internal/dto"
	"github.com/noah-isme/seasonal-upkeep-api/internal/models"
	appErrors "github.com/noah-isme/seasonal-upkeep-api/pkg/errors"
	"github.com/noah-isme/seasonal-upkeep-api/pkg/jobs"
	"github.com/noah-isme/seasonal-upkeep-api/pkg/response"
)

// JobApplyDefaults is the queue job type that applies default templates to one item.
const JobApplyDefaults = "apply-defaults"

// ApplyDefaultsPayload is carried by apply-defaults jobs.
type ApplyDefaultsPayload struct {
	ItemID string
	Actor  string
}

type itemReader interface {
	Get(ctx context.Context, id string) (*models.Item, error)
	List(ctx context.Context, filter models.ItemFilter) ([]models.Item, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// ItemHandler exposes the item lookups this service needs plus deferred default application.
type ItemHandler struct {
	items itemReader
	queue jobEnqueuer
}

// NewItemHandler constructs the handler.
func NewItemHandler(items itemReader, queue jobEnqueuer) *ItemHandler {
	return &ItemHandler{items: items, queue: queue}
}

// List godoc
// @Summary List items
// @Tags Items
// @Produce json
// @Param season query string false "Halloween, Christmas or Shared"
// @Param classType query string false "Item class"
// @Success 200 {object} response.Envelope
// @Router /items [get]
func (h *ItemHandler) List(c *gin.Context) {
	filter := models.ItemFilter{
		Season:    models.Season(c.Query("season")),
		ClassType: models.ClassType(c.Query("classType")),
	}
	items, err := h.items.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get item
// @Tags Items
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope
// @Router /items/{id} [get]
func (h *ItemHandler) Get(c *gin.Context) {
	item, err := h.items.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// ApplyDefaults godoc
// @Summary Queue application of default templates to an item
// @Tags Items
// @Produce json
// @Param id path string true "Item ID"
// @Success 202 {object} response.Envelope
// @Router /items/{id}/apply-defaults [post]
func (h *ItemHandler) ApplyDefaults(c *gin.Context) {
	item, err := h.items.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	job := jobs.NewJob(JobApplyDefaults, ApplyDefaultsPayload{ItemID: item.ID, Actor: actorFromContext(c)})
	if err := h.queue.Enqueue(job); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue default templates"))
		return
	}
	response.JSON(c, http.StatusAccepted, dto.ApplyDefaultsAccepted{JobID: job.ID, ItemID: item.ID}, nil)
}

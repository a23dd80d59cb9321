package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshiksha/exam-api/internal/service"
	appErrors "github.com/openshiksha/exam-api/pkg/errors"
	"github.com/openshiksha/exam-api/pkg/response"
)

// DeletionHandler exposes the two-step bulk deletion endpoints.
type DeletionHandler struct {
	service *service.DeletionService
}

// NewDeletionHandler constructs a deletion handler.
func NewDeletionHandler(svc *service.DeletionService) *DeletionHandler {
	return &DeletionHandler{service: svc}
}

// Preview godoc
// @Summary Count what a bulk deletion would remove
// @Tags Deletion
// @Accept json
// @Produce json
// @Param payload body service.BulkDeleteRequest true "Deletion scope"
// @Success 200 {object} response.Envelope
// @Router /bulk-delete/preview [post]
func (h *DeletionHandler) Preview(c *gin.Context) {
	var req service.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	preview, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preview)
}

// Execute godoc
// @Summary Run a bulk deletion
// @Tags Deletion
// @Accept json
// @Produce json
// @Param payload body service.BulkDeleteRequest true "Deletion scope"
// @Success 200 {object} response.Envelope
// @Router /bulk-delete/execute [post]
func (h *DeletionHandler) Execute(c *gin.Context) {
	var req service.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	outcome, err := h.service.Execute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshiksha/exam-api/internal/service"
	appErrors "github.com/openshiksha/exam-api/pkg/errors"
	"github.com/openshiksha/exam-api/pkg/response"
)

// PublicationHandler controls per-year result visibility.
type PublicationHandler struct {
	service *service.PublicationService
}

// NewPublicationHandler constructs a publication handler.
func NewPublicationHandler(svc *service.PublicationService) *PublicationHandler {
	return &PublicationHandler{service: svc}
}

// List godoc
// @Summary List publication records for all years
// @Tags Publications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /publications [get]
func (h *PublicationHandler) List(c *gin.Context) {
	publications, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, publications)
}

// Upsert godoc
// @Summary Create or update a year's publication record
// @Tags Publications
// @Accept json
// @Produce json
// @Param payload body service.UpsertPublicationRequest true "Publication payload"
// @Success 200 {object} response.Envelope
// @Router /publications [put]
func (h *PublicationHandler) Upsert(c *gin.Context) {
	var req service.UpsertPublicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	publication, err := h.service.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, publication)
}

// Toggle godoc
// @Summary Flip a year's published switch
// @Tags Publications
// @Produce json
// @Param year path string true "Academic year"
// @Success 200 {object} response.Envelope
// @Router /publications/{year}/toggle [post]
func (h *PublicationHandler) Toggle(c *gin.Context) {
	publication, err := h.service.Toggle(c.Request.Context(), c.Param("year"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, publication)
}

package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openshiksha/exam-api/internal/service"
	appErrors "github.com/openshiksha/exam-api/pkg/errors"
	"github.com/openshiksha/exam-api/pkg/export"
	"github.com/openshiksha/exam-api/pkg/response"
)

// LookupHandler serves the public, identity-verified result lookup.
type LookupHandler struct {
	service   *service.LookupService
	marksheet *export.MarksheetExporter
}

// NewLookupHandler constructs a lookup handler.
func NewLookupHandler(svc *service.LookupService, marksheet *export.MarksheetExporter) *LookupHandler {
	return &LookupHandler{service: svc, marksheet: marksheet}
}

// Search godoc
// @Summary Search a published result by identity
// @Tags Public
// @Accept json
// @Produce json
// @Param payload body service.SearchRequest true "Search payload"
// @Success 200 {object} response.Envelope
// @Router /public/results/search [post]
func (h *LookupHandler) Search(c *gin.Context) {
	var req service.SearchRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	view, err := h.service.Search(c.Request.Context(), req, time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// DownloadPDF godoc
// @Summary Download a published result as a PDF marksheet
// @Tags Public
// @Accept json
// @Produce application/pdf
// @Param payload body service.SearchRequest true "Search payload"
// @Success 200 {file} file
// @Router /public/results/pdf [post]
func (h *LookupHandler) DownloadPDF(c *gin.Context) {
	var req service.SearchRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	view, err := h.service.Search(c.Request.Context(), req, time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}
	document, err := h.marksheet.Render(view)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("result-%s-%s.pdf", view.AcademicYear, view.RollNumber)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", document)
}

package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openshiksha/exam-api/internal/service"
	appErrors "github.com/openshiksha/exam-api/pkg/errors"
	"github.com/openshiksha/exam-api/pkg/response"
	"github.com/openshiksha/exam-api/pkg/tabular"
)

// IngestHandler exposes the bulk marks upload endpoints. Uploads arrive either
// as a JSON row batch or as a CSV sheet generated from the class template.
type IngestHandler struct {
	ingest   *service.IngestService
	subjects *service.SubjectService
}

// NewIngestHandler constructs an ingest handler.
func NewIngestHandler(ingest *service.IngestService, subjects *service.SubjectService) *IngestHandler {
	return &IngestHandler{ingest: ingest, subjects: subjects}
}

// Upload godoc
// @Summary Bulk upload marks for a class and year
// @Tags Ingestion
// @Accept json
// @Accept mpfd
// @Produce json
// @Param payload body service.IngestRequest false "Row batch (JSON mode)"
// @Param file formData file false "CSV sheet (multipart mode)"
// @Param academic_year formData string false "Academic year (multipart mode)"
// @Param class_id formData string false "Class ID (multipart mode)"
// @Param clear_existing formData bool false "Delete existing class results first"
// @Success 200 {object} response.Envelope
// @Router /marks/bulk-upload [post]
func (h *IngestHandler) Upload(c *gin.Context) {
	contentType := c.GetHeader("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		h.uploadSheet(c)
		return
	}

	var req service.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	report, err := h.ingest.Ingest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

func (h *IngestHandler) uploadSheet(c *gin.Context) {
	req := service.IngestRequest{
		AcademicYear: c.PostForm("academic_year"),
		ClassID:      c.PostForm("class_id"),
	}
	if raw := c.PostForm("clear_existing"); raw != "" {
		if clear, err := strconv.ParseBool(raw); err == nil {
			req.ClearExisting = clear
		}
	}
	if req.ClassID == "" || req.AcademicYear == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "class_id and academic_year are required"))
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}

	subjects, err := h.subjects.ListByClass(c.Request.Context(), req.ClassID)
	if err != nil {
		response.Error(c, err)
		return
	}

	reader, err := file.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "cannot read uploaded file"))
		return
	}
	defer reader.Close()

	rows, err := tabular.NewParser(subjects).Parse(reader)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return
	}
	req.Rows = rows

	report, err := h.ingest.Ingest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Template godoc
// @Summary Download the blank upload sheet for a class
// @Tags Ingestion
// @Produce text/csv
// @Param id path string true "Class ID"
// @Success 200 {file} file
// @Router /classes/{id}/template.csv [get]
func (h *IngestHandler) Template(c *gin.Context) {
	subjects, err := h.subjects.ListByClass(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sheet, err := tabular.Template(subjects)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="marks-template.csv"`)
	c.Data(http.StatusOK, "text/csv", sheet)
}

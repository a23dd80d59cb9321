package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshiksha/exam-api/internal/service"
	appErrors "github.com/openshiksha/exam-api/pkg/errors"
	"github.com/openshiksha/exam-api/pkg/response"
)

// MarksHandler exposes the single-student marks administration endpoints.
type MarksHandler struct {
	service *service.MarksService
}

// NewMarksHandler constructs a marks handler.
func NewMarksHandler(svc *service.MarksService) *MarksHandler {
	return &MarksHandler{service: svc}
}

// Get godoc
// @Summary Get a student's marks and aggregate for one year
// @Tags Marks
// @Produce json
// @Param student_id query string true "Student ID"
// @Param academic_year query string true "Academic year"
// @Success 200 {object} response.Envelope
// @Router /marks [get]
func (h *MarksHandler) Get(c *gin.Context) {
	studentID := c.Query("student_id")
	academicYear := c.Query("academic_year")
	if studentID == "" || academicYear == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student_id and academic_year are required"))
		return
	}
	marks, err := h.service.Get(c.Request.Context(), studentID, academicYear)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks)
}

// Upsert godoc
// @Summary Record or correct subject marks for one student
// @Tags Marks
// @Accept json
// @Produce json
// @Param payload body service.UpsertMarksRequest true "Marks payload"
// @Success 200 {object} response.Envelope
// @Router /marks [put]
func (h *MarksHandler) Upsert(c *gin.Context) {
	var req service.UpsertMarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	marks, err := h.service.Upsert(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, marks)
}

// DeleteResult godoc
// @Summary Delete a student's result and marks for one year
// @Tags Marks
// @Produce json
// @Param student_id query string true "Student ID"
// @Param academic_year query string true "Academic year"
// @Success 204
// @Router /marks [delete]
func (h *MarksHandler) DeleteResult(c *gin.Context) {
	studentID := c.Query("student_id")
	academicYear := c.Query("academic_year")
	if studentID == "" || academicYear == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student_id and academic_year are required"))
		return
	}
	if err := h.service.DeleteResult(c.Request.Context(), studentID, academicYear); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

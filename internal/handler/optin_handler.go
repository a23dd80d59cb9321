package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openshiksha/exam-api/internal/service"
	appErrors "github.com/openshiksha/exam-api/pkg/errors"
	"github.com/openshiksha/exam-api/pkg/response"
)

// OptInHandler manages additional-subject enrollments.
type OptInHandler struct {
	service *service.OptInService
}

// NewOptInHandler constructs an opt-in handler.
func NewOptInHandler(svc *service.OptInService) *OptInHandler {
	return &OptInHandler{service: svc}
}

type optInRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	SubjectID string `json:"subject_id" binding:"required"`
}

// Create godoc
// @Summary Opt a student into an additional subject
// @Tags OptIns
// @Accept json
// @Produce json
// @Param payload body optInRequest true "Opt-in payload"
// @Success 201 {object} response.Envelope
// @Router /opt-ins [post]
func (h *OptInHandler) Create(c *gin.Context) {
	var req optInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	optIn, err := h.service.OptIn(c.Request.Context(), req.StudentID, req.SubjectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, optIn)
}

// Delete godoc
// @Summary Opt a student out, removing any recorded mark
// @Tags OptIns
// @Produce json
// @Param student_id query string true "Student ID"
// @Param subject_id query string true "Subject ID"
// @Success 204
// @Router /opt-ins [delete]
func (h *OptInHandler) Delete(c *gin.Context) {
	studentID := c.Query("student_id")
	subjectID := c.Query("subject_id")
	if studentID == "" || subjectID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "student_id and subject_id are required"))
		return
	}
	if err := h.service.OptOut(c.Request.Context(), studentID, subjectID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListForStudent godoc
// @Summary List a student's additional-subject opt-ins
// @Tags OptIns
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/opt-ins [get]
func (h *OptInHandler) ListForStudent(c *gin.Context) {
	optIns, err := h.service.ListForStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, optIns)
}

// ListForSubject godoc
// @Summary List students opted into an additional subject
// @Tags OptIns
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/opt-ins [get]
func (h *OptInHandler) ListForSubject(c *gin.Context) {
	optIns, err := h.service.ListForSubject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, optIns)
}

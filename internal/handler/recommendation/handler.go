package recommendation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwalitptl/rehab-api/internal/handler"
	"github.com/jwalitptl/rehab-api/internal/service/autoadjust"
	recommendationService "github.com/jwalitptl/rehab-api/internal/service/recommendation"
	"github.com/jwalitptl/rehab-api/pkg/errors"
)

type Handler struct {
	recommender *recommendationService.Service
	adjuster    *autoadjust.Service
	validate    *validator.Validate
}

func NewHandler(recommender *recommendationService.Service, adjuster *autoadjust.Service) *Handler {
	return &Handler{
		recommender: recommender,
		adjuster:    adjuster,
		validate:    validator.New(),
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/patients/:patientId/prescriptions/:id/recommendations", h.GetRecommendations)
	rg.POST("/prescriptions/:id/auto-adjust", h.AutoAdjust)
}

func (h *Handler) GetRecommendations(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		handler.RespondError(c, errors.Validation("invalid patient ID", err))
		return
	}
	prescriptionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, errors.Validation("invalid prescription ID", err))
		return
	}

	bundle, err := h.recommender.GenerateRecommendations(c.Request.Context(), patientID, prescriptionID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.RespondSuccess(c, http.StatusOK, bundle)
}

type autoAdjustRequest struct {
	PatientID uuid.UUID `json:"patient_id" validate:"required"`
}

func (h *Handler) AutoAdjust(c *gin.Context) {
	prescriptionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, errors.Validation("invalid prescription ID", err))
		return
	}

	var req autoAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, errors.Validation("invalid request body", err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		handler.RespondError(c, errors.Validation("invalid request", err))
		return
	}

	result, err := h.adjuster.AutoAdjust(c.Request.Context(), prescriptionID, req.PatientID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.RespondSuccess(c, http.StatusOK, result)
}

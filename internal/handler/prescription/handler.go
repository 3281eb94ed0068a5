package prescription

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwalitptl/rehab-api/internal/handler"
	"github.com/jwalitptl/rehab-api/internal/model"
	prescriptionService "github.com/jwalitptl/rehab-api/internal/service/prescription"
	"github.com/jwalitptl/rehab-api/pkg/errors"
)

type Handler struct {
	service  *prescriptionService.Service
	validate *validator.Validate
}

func NewHandler(service *prescriptionService.Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/prescriptions", h.CreatePrescription)
	rg.GET("/prescriptions/:id", h.GetPrescription)
	rg.GET("/patients/:patientId/prescriptions", h.ListPatientPrescriptions)
	rg.POST("/prescriptions/:id/activate", h.transitionHandler(h.service.Activate))
	rg.POST("/prescriptions/:id/pause", h.transitionHandler(h.service.Pause))
	rg.POST("/prescriptions/:id/resume", h.transitionHandler(h.service.Resume))
	rg.POST("/prescriptions/:id/complete", h.transitionHandler(h.service.Complete))
	rg.POST("/prescriptions/:id/cancel", h.transitionHandler(h.service.Cancel))
	rg.POST("/prescriptions/:id/adjustments", h.AdjustPrescription)
}

func (h *Handler) CreatePrescription(c *gin.Context) {
	var req model.CreatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, errors.Validation("invalid request body", err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		handler.RespondError(c, errors.Validation("invalid request", err))
		return
	}

	p, err := h.service.CreateFromTemplate(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.RespondSuccess(c, http.StatusCreated, p)
}

func (h *Handler) GetPrescription(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, errors.Validation("invalid prescription ID", err))
		return
	}

	p, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.RespondSuccess(c, http.StatusOK, p)
}

func (h *Handler) ListPatientPrescriptions(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		handler.RespondError(c, errors.Validation("invalid patient ID", err))
		return
	}

	prescriptions, err := h.service.ListForPatient(c.Request.Context(), patientID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.RespondSuccess(c, http.StatusOK, prescriptions)
}

type transitionFunc func(ctx context.Context, id, providerID uuid.UUID, expectedVersion int64) (*model.Prescription, error)

// transitionHandler shares the parse-validate-call shape of the five
// lifecycle verbs.
func (h *Handler) transitionHandler(op transitionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			handler.RespondError(c, errors.Validation("invalid prescription ID", err))
			return
		}

		var req model.TransitionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			handler.RespondError(c, errors.Validation("invalid request body", err))
			return
		}
		if err := h.validate.Struct(&req); err != nil {
			handler.RespondError(c, errors.Validation("invalid request", err))
			return
		}

		p, err := op(c.Request.Context(), id, req.ProviderID, req.ExpectedVersion)
		if err != nil {
			handler.RespondError(c, err)
			return
		}
		handler.RespondSuccess(c, http.StatusOK, p)
	}
}

func (h *Handler) AdjustPrescription(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, errors.Validation("invalid prescription ID", err))
		return
	}

	var req model.AdjustPrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, errors.Validation("invalid request body", err))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		handler.RespondError(c, errors.Validation("invalid request", err))
		return
	}

	p, err := h.service.Adjust(c.Request.Context(), id, req.ProviderID, req.ExpectedVersion, req.ProviderID.String(), req.Adjustments)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.RespondSuccess(c, http.StatusOK, p)
}

package template

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/rehab-api/internal/handler"
	"github.com/jwalitptl/rehab-api/internal/service/catalog"
	"github.com/jwalitptl/rehab-api/pkg/errors"
)

type Handler struct {
	service *catalog.Service
}

func NewHandler(service *catalog.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/templates", h.ListTemplates)
	rg.GET("/templates/:id", h.GetTemplate)
}

func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.service.List(c.Request.Context())
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.RespondSuccess(c, http.StatusOK, templates)
}

func (h *Handler) GetTemplate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handler.RespondError(c, errors.Validation("invalid template ID", err))
		return
	}

	tmpl, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	handler.RespondSuccess(c, http.StatusOK, tmpl)
}

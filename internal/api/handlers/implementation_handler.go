package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/transparencity/backend/internal/services"
)

type ImplementationHandler struct {
	service *services.ImplementationService
}

func NewImplementationHandler(service *services.ImplementationService) *ImplementationHandler {
	return &ImplementationHandler{service: service}
}

type ImplementationUpdateRequest struct {
	Progress    *int   `json:"progress" binding:"required"`
	Note        string `json:"note" binding:"required"`
	EvidenceRef string `json:"evidence_ref"`
}

func (h *ImplementationHandler) List(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	updates, err := h.service.List(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updates)
}

func (h *ImplementationHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req ImplementationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	update, err := h.service.AddUpdate(c.Request.Context(), a, id, *req.Progress, req.Note, req.EvidenceRef)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, update)
}

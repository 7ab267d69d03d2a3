package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/transparencity/backend/internal/services"
)

type ResponseHandler struct {
	service *services.ResponseService
}

func NewResponseHandler(service *services.ResponseService) *ResponseHandler {
	return &ResponseHandler{service: service}
}

type OfficialResponseRequest struct {
	Body        string `json:"body" binding:"required"`
	DocumentRef string `json:"document_ref"`
}

func (h *ResponseHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.GetByProposal(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ResponseHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req OfficialResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.service.Create(c.Request.Context(), a, id, req.Body, req.DocumentRef)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

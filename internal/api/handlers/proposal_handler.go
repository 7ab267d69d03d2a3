package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/transparencity/backend/internal/api/middleware"
	"github.com/transparencity/backend/internal/models"
	"github.com/transparencity/backend/internal/services"
)

type ProposalHandler struct {
	service *services.ProposalService
}

func NewProposalHandler(service *services.ProposalService) *ProposalHandler {
	return &ProposalHandler{service: service}
}

// List returns proposals filtered by the optional status, category and author query
// parameters. Expired votes are closed first so listed statuses are current.
func (h *ProposalHandler) List(c *gin.Context) {
	var filter services.ProposalFilter
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseStatus(raw)
		if !ok {
			respondError(c, services.ErrInvalidStatus)
			return
		}
		filter.Status = status
	}
	if raw := c.Query("category"); raw != "" {
		category, ok := models.ParseCategory(raw)
		if !ok {
			respondError(c, services.ErrInvalidCategory)
			return
		}
		filter.Category = category
	}
	if raw := c.Query("author"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author"})
			return
		}
		filter.AuthorID = uint(id)
	}

	if _, err := h.service.CloseExpired(); err != nil {
		middleware.GetRequestLogger(c).WithError(err).Warn("failed to close expired votes")
	}
	proposals, err := h.service.List(filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, proposals)
}

// Get returns one proposal, closing its vote first if the deadline has passed.
func (h *ProposalHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, _, err := h.service.CheckAndCloseVoting(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposal": p, "tally": p.Tally()})
}

func (h *ProposalHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req services.CreateProposalInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.service.Create(c.Request.Context(), a, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

type UpdateStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Details string `json:"details"`
}

func (h *ProposalHandler) UpdateStatus(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	status, valid := models.ParseStatus(req.Status)
	if !valid {
		respondError(c, services.ErrInvalidStatus)
		return
	}
	p, err := h.service.UpdateStatus(c.Request.Context(), a, id, status, req.Details)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Close lets any signed-in user trigger deadline processing for a proposal.
func (h *ProposalHandler) Close(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, closed, err := h.service.CheckAndCloseVoting(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposal": p, "closed": closed})
}

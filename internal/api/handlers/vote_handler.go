package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/transparencity/backend/internal/services"
)

type VoteHandler struct {
	service *services.VoteService
}

func NewVoteHandler(service *services.VoteService) *VoteHandler {
	return &VoteHandler{service: service}
}

type VoteRequest struct {
	Choice string `json:"choice" binding:"required"`
	Reason string `json:"reason"`
}

// List returns the tally and the individual ballots of a proposal.
func (h *VoteHandler) List(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	votes, err := h.service.ListVotes(id)
	if err != nil {
		respondError(c, err)
		return
	}
	tally, err := h.service.GetTally(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tally": tally, "votes": votes})
}

func (h *VoteHandler) Cast(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	vote, err := h.service.CastVote(c.Request.Context(), a, id, req.Choice, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	tally, err := h.service.GetTally(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"vote": vote, "tally": tally})
}

func (h *VoteHandler) Update(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	vote, err := h.service.UpdateVote(c.Request.Context(), a, id, req.Choice, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vote)
}

// Mine returns the caller's own ballot on a proposal, or 404 when they have not voted.
func (h *VoteHandler) Mine(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	vote, err := h.service.GetVoterVote(id, a.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vote)
}

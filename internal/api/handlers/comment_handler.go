package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/transparencity/backend/internal/services"
)

type CommentHandler struct {
	service *services.CommentService
}

func NewCommentHandler(service *services.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

type CommentRequest struct {
	Body            string `json:"body" binding:"required"`
	ParentCommentID *uint  `json:"parent_comment_id"`
}

func (h *CommentHandler) Thread(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	thread, err := h.service.Thread(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (h *CommentHandler) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	comment, err := h.service.Create(c.Request.Context(), a, id, req.Body, req.ParentCommentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) Replies(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	replies, err := h.service.Replies(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, replies)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/transparencity/backend/internal/services"
)

type UserHandler struct {
	service *services.UserService
}

func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	u, err := h.service.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Verify marks a citizen as identity-verified, allowing them to author proposals and vote.
func (h *UserHandler) Verify(c *gin.Context) {
	h.setVerified(c, true)
}

// Revoke withdraws identity verification.
func (h *UserHandler) Revoke(c *gin.Context) {
	h.setVerified(c, false)
}

func (h *UserHandler) setVerified(c *gin.Context, verified bool) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	u, err := h.service.SetVerified(c.Request.Context(), a, id, verified)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/transparencity/backend/internal/api/middleware"
	"github.com/transparencity/backend/internal/models"
	"github.com/transparencity/backend/internal/services"
	"github.com/transparencity/backend/internal/util"
)

type NotificationProviderHandler struct {
	service *services.NotificationService
}

func NewNotificationProviderHandler(service *services.NotificationService) *NotificationProviderHandler {
	return &NotificationProviderHandler{service: service}
}

func (h *NotificationProviderHandler) List(c *gin.Context) {
	providers, err := h.service.ListProviders()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, providers)
}

func (h *NotificationProviderHandler) Create(c *gin.Context) {
	var provider models.NotificationProvider
	if err := c.ShouldBindJSON(&provider); err != nil {
		badRequest(c, err)
		return
	}
	provider.ID = ""
	if err := h.service.CreateProvider(&provider); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, provider)
}

func (h *NotificationProviderHandler) Update(c *gin.Context) {
	var provider models.NotificationProvider
	if err := c.ShouldBindJSON(&provider); err != nil {
		badRequest(c, err)
		return
	}
	provider.ID = c.Param("id")
	if err := h.service.UpdateProvider(&provider); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, provider)
}

func (h *NotificationProviderHandler) Delete(c *gin.Context) {
	if err := h.service.DeleteProvider(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Provider deleted"})
}

// Test sends a message through an unsaved provider configuration.
func (h *NotificationProviderHandler) Test(c *gin.Context) {
	var provider models.NotificationProvider
	if err := c.ShouldBindJSON(&provider); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.service.TestProvider(provider); err != nil {
		middleware.GetRequestLogger(c).WithError(err).
			WithField("provider", util.SanitizeForLog(provider.Name)).
			Warn("notification provider test failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Test notification sent"})
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/transparencity/backend/internal/api/middleware"
	"github.com/transparencity/backend/internal/services"
)

// respondError maps service errors to HTTP responses. Unknown errors are logged and hidden
// behind a generic 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrAlreadyVoted),
		errors.Is(err, services.ErrDuplicateResponse),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrVotingClosed),
		errors.Is(err, services.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		middleware.GetRequestLogger(c).WithError(err).Error("request failed")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// idParam parses a positive numeric path parameter, writing a 400 when it is malformed.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// actor returns the authenticated caller, writing a 401 when there is none.
func actor(c *gin.Context) (services.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return a, ok
}

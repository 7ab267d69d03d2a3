package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/transparencity/backend/internal/services"
)

const (
	defaultAuditPage = 50
	maxAuditPage     = 500
)

type AuditHandler struct {
	service *services.AuditService
}

func NewAuditHandler(service *services.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// Range pages through the log with ?start=&count=. count is capped at 500.
func (h *AuditHandler) Range(c *gin.Context) {
	start, err := strconv.Atoi(c.DefaultQuery("start", "0"))
	if err != nil {
		respondError(c, services.ErrInvalidRange)
		return
	}
	count, err := strconv.Atoi(c.DefaultQuery("count", strconv.Itoa(defaultAuditPage)))
	if err != nil {
		respondError(c, services.ErrInvalidRange)
		return
	}
	if count > maxAuditPage {
		count = maxAuditPage
	}
	records, err := h.service.GetRange(start, count)
	if err != nil {
		respondError(c, err)
		return
	}
	total, err := h.service.Count()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "total": total, "start": start})
}

func (h *AuditHandler) ByProposal(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	records, err := h.service.GetByProposal(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *AuditHandler) ByActor(c *gin.Context) {
	records, err := h.service.GetByActor(c.Param("actor"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *AuditHandler) Verify(c *gin.Context) {
	report, err := h.service.VerifyChain()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

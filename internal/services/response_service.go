package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/transparencity/backend/internal/logger"
	"github.com/transparencity/backend/internal/models"
	"github.com/transparencity/backend/internal/util"
)

// ResponseService records the government's official answer to a proposal.
type ResponseService struct {
	db       *gorm.DB
	audit    *AuditService
	notifier Notifier
}

func NewResponseService(db *gorm.DB, audit *AuditService, notifier Notifier) *ResponseService {
	return &ResponseService{db: db, audit: audit, notifier: notifier}
}

func (s *ResponseService) Create(ctx context.Context, actor Actor, proposalID uint, body, documentRef string) (*models.OfficialResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	body = util.SanitizeContent(body)
	if body == "" {
		return nil, validationError("response body is required")
	}

	resp := &models.OfficialResponse{
		ProposalID:  proposalID,
		ResponderID: actor.UserID,
		Body:        body,
		DocumentRef: strings.TrimSpace(documentRef),
	}
	var title string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := loadProposal(tx, proposalID)
		if err != nil {
			return err
		}
		title = p.Title
		var existing int64
		if err := tx.Model(&models.OfficialResponse{}).Where("proposal_id = ?", proposalID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateResponse
		}
		if err := tx.Create(resp).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateResponse
			}
			return fmt.Errorf("create official response: %w", err)
		}
		_, err = s.audit.appendTx(tx, actor.String(), &proposalID, models.ActionOfficialResponseAdded, resp.DocumentRef)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.WithProposal(proposalID).Info("official response recorded")
	if s.notifier != nil {
		s.notifier.SendExternal(EventResponse,
			fmt.Sprintf("Official response to proposal #%d", proposalID),
			title)
	}
	return resp, nil
}

func (s *ResponseService) GetByProposal(proposalID uint) (*models.OfficialResponse, error) {
	var resp models.OfficialResponse
	if err := s.db.Where("proposal_id = ?", proposalID).First(&resp).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResponseNotFound
		}
		return nil, err
	}
	return &resp, nil
}

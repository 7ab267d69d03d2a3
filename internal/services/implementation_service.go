package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/transparencity/backend/internal/logger"
	"github.com/transparencity/backend/internal/models"
	"github.com/transparencity/backend/internal/util"
)

// ImplementationService tracks delivery progress on approved proposals.
type ImplementationService struct {
	db       *gorm.DB
	audit    *AuditService
	notifier Notifier
}

func NewImplementationService(db *gorm.DB, audit *AuditService, notifier Notifier) *ImplementationService {
	return &ImplementationService{db: db, audit: audit, notifier: notifier}
}

// AddUpdate records a progress report. Progress is a percentage in [0, 100].
func (s *ImplementationService) AddUpdate(ctx context.Context, actor Actor, proposalID uint, progress int, note, evidenceRef string) (*models.ImplementationUpdate, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if progress < 0 || progress > 100 {
		return nil, validationError("progress must be between 0 and 100")
	}
	note = util.SanitizeContent(note)
	if note == "" {
		return nil, validationError("note is required")
	}

	update := &models.ImplementationUpdate{
		ProposalID:  proposalID,
		AuthorID:    actor.UserID,
		Progress:    progress,
		Note:        note,
		EvidenceRef: strings.TrimSpace(evidenceRef),
	}
	var title string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := loadProposal(tx, proposalID)
		if err != nil {
			return err
		}
		if p.Status != models.StatusApproved {
			return fmt.Errorf("%w: proposal is %s, not approved", ErrInvalidTransition, p.Status)
		}
		title = p.Title
		if err := tx.Create(update).Error; err != nil {
			return fmt.Errorf("create implementation update: %w", err)
		}
		_, err = s.audit.appendTx(tx, actor.String(), &proposalID, models.ActionImplementationUpdated,
			fmt.Sprintf("progress=%d %s", progress, update.EvidenceRef))
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.WithProposal(proposalID).WithField("progress", progress).Info("implementation update recorded")
	if s.notifier != nil {
		s.notifier.SendExternal(EventImplementation,
			fmt.Sprintf("Proposal #%d is %d%% implemented", proposalID, progress),
			title)
	}
	return update, nil
}

// List returns a proposal's updates, oldest first.
func (s *ImplementationService) List(proposalID uint) ([]models.ImplementationUpdate, error) {
	if _, err := loadProposal(s.db, proposalID); err != nil {
		return nil, err
	}
	updates := []models.ImplementationUpdate{}
	if err := s.db.Where("proposal_id = ?", proposalID).Order("id asc").Find(&updates).Error; err != nil {
		return nil, err
	}
	return updates, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/transparencity/backend/internal/logger"
	"github.com/transparencity/backend/internal/metrics"
	"github.com/transparencity/backend/internal/models"
	"github.com/transparencity/backend/internal/util"
)

const maxTitleLength = 200

// ProposalOptions tunes the proposal lifecycle.
type ProposalOptions struct {
	// VotingPeriod is how long voting stays open once it starts.
	VotingPeriod time.Duration
	// ReviewRequired makes new proposals start as "submitted" and wait for an admin to open voting.
	ReviewRequired bool
}

// CreateProposalInput is the caller-supplied part of a new proposal.
type CreateProposalInput struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category" binding:"required"`
	DocumentRef string `json:"document_ref"`
	Draft       bool   `json:"draft"`
}

// ProposalFilter narrows List results; zero values match everything.
type ProposalFilter struct {
	Status   models.ProposalStatus
	Category models.Category
	AuthorID uint
}

type ProposalService struct {
	db       *gorm.DB
	audit    *AuditService
	verifier IdentityVerifier
	notifier Notifier
	opts     ProposalOptions
	now      func() time.Time
}

func NewProposalService(db *gorm.DB, audit *AuditService, verifier IdentityVerifier, notifier Notifier, opts ProposalOptions) *ProposalService {
	if opts.VotingPeriod <= 0 {
		opts.VotingPeriod = 7 * 24 * time.Hour
	}
	return &ProposalService{
		db:       db,
		audit:    audit,
		verifier: verifier,
		notifier: notifier,
		opts:     opts,
		now:      time.Now,
	}
}

// Create stores a new proposal authored by actor, who must be verified.
func (s *ProposalService) Create(ctx context.Context, actor Actor, in CreateProposalInput) (*models.Proposal, error) {
	if err := requireVerified(ctx, s.verifier, actor.UserID); err != nil {
		return nil, err
	}

	title := util.SanitizePlain(in.Title)
	if title == "" {
		return nil, validationError("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return nil, validationError(fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	description := util.SanitizeContent(in.Description)
	if description == "" {
		return nil, validationError("description is required")
	}
	category, ok := models.ParseCategory(in.Category)
	if !ok {
		return nil, ErrInvalidCategory
	}

	now := s.now()
	p := &models.Proposal{
		Title:       title,
		Description: description,
		Category:    category,
		AuthorID:    actor.UserID,
		DocumentRef: strings.TrimSpace(in.DocumentRef),
	}
	switch {
	case in.Draft:
		p.Status = models.StatusDraft
	case s.opts.ReviewRequired:
		p.Status = models.StatusSubmitted
	default:
		p.Status = models.StatusVoting
		ends := now.Add(s.opts.VotingPeriod)
		p.VotingEndsAt = &ends
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return fmt.Errorf("create proposal: %w", err)
		}
		_, err := s.audit.appendTx(tx, actor.String(), &p.ID, models.ActionProposalCreated, string(p.Status))
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.IncProposalCreated()
	logger.WithProposal(p.ID).WithField("status", p.Status).Info("proposal created")
	return p, nil
}

// GetByID loads a proposal without side effects.
func (s *ProposalService) GetByID(id uint) (*models.Proposal, error) {
	return loadProposal(s.db, id)
}

func loadProposal(db *gorm.DB, id uint) (*models.Proposal, error) {
	var p models.Proposal
	if err := db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProposalNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns proposals matching filter, newest first.
func (s *ProposalService) List(filter ProposalFilter) ([]models.Proposal, error) {
	query := s.db.Order("created_at desc, id desc")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.AuthorID != 0 {
		query = query.Where("author_id = ?", filter.AuthorID)
	}
	proposals := []models.Proposal{}
	if err := query.Find(&proposals).Error; err != nil {
		return nil, err
	}
	return proposals, nil
}

// UpdateStatus moves a proposal along its lifecycle. Only admins may call it and only
// single forward steps are accepted. Moving to implemented requires details.
func (s *ProposalService) UpdateStatus(ctx context.Context, actor Actor, id uint, next models.ProposalStatus, details string) (*models.Proposal, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}
	if !next.Valid() {
		return nil, ErrInvalidStatus
	}
	details = util.SanitizeContent(details)
	if next == models.StatusImplemented && details == "" {
		return nil, validationError("implementation details are required")
	}

	var p *models.Proposal
	var from models.ProposalStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		p, err = loadProposal(tx, id)
		if err != nil {
			return err
		}
		from = p.Status
		if from.IsTerminal() {
			return fmt.Errorf("%w: %s is final", ErrInvalidTransition, from)
		}
		if !from.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, next)
		}

		updates := map[string]interface{}{"status": next}
		switch next {
		case models.StatusVoting:
			ends := s.now().Add(s.opts.VotingPeriod)
			updates["voting_ends_at"] = ends
			p.VotingEndsAt = &ends
		case models.StatusImplemented:
			updates["implementation_details"] = details
			p.ImplementationDetails = details
		}
		result := tx.Model(&models.Proposal{}).Where("id = ? AND status = ?", id, from).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
		}
		p.Status = next

		dataRef := fmt.Sprintf("%s->%s", from, next)
		if details != "" {
			dataRef += ": " + details
		}
		_, err = s.audit.appendTx(tx, actor.String(), &p.ID, models.ActionStatusUpdated, dataRef)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.IncStatusTransition(string(next), "admin")
	logger.WithProposal(p.ID).WithField("from", from).WithField("to", next).Info("proposal status updated")
	s.notifyStatus(p)
	return p, nil
}

// CheckAndCloseVoting closes an expired vote: approved when yes > no, rejected otherwise.
// It is a no-op while voting is still open or when the proposal is not in voting.
// The returned bool reports whether this call closed the vote.
func (s *ProposalService) CheckAndCloseVoting(id uint) (*models.Proposal, bool, error) {
	var p *models.Proposal
	closed := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		p, err = loadProposal(tx, id)
		if err != nil {
			return err
		}
		if !p.VotingExpired(s.now()) {
			return nil
		}

		outcome := p.Outcome()
		result := tx.Model(&models.Proposal{}).
			Where("id = ? AND status = ?", id, models.StatusVoting).
			Update("status", outcome)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// Another caller closed it first.
			p, err = loadProposal(tx, id)
			return err
		}
		p.Status = outcome
		closed = true

		tally := p.Tally()
		dataRef := fmt.Sprintf("%s->%s: yes=%d no=%d abstain=%d", models.StatusVoting, outcome, tally.Yes, tally.No, tally.Abstain)
		_, err = s.audit.appendTx(tx, SystemActor, &p.ID, models.ActionStatusUpdatedAuto, dataRef)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if closed {
		metrics.IncStatusTransition(string(p.Status), "deadline")
		logger.WithProposal(p.ID).WithField("outcome", p.Status).Info("voting closed at deadline")
		s.notifyStatus(p)
	}
	return p, closed, nil
}

// CloseExpired closes every proposal whose voting deadline has passed and returns how many
// were closed by this call.
func (s *ProposalService) CloseExpired() (int, error) {
	var candidates []models.Proposal
	if err := s.db.Select("id", "status", "voting_ends_at").
		Where("status = ? AND voting_ends_at IS NOT NULL", models.StatusVoting).
		Find(&candidates).Error; err != nil {
		return 0, err
	}

	now := s.now()
	closedCount := 0
	var errs []error
	for i := range candidates {
		if !candidates[i].VotingExpired(now) {
			continue
		}
		id := candidates[i].ID
		_, closed, err := s.CheckAndCloseVoting(id)
		if err != nil {
			errs = append(errs, fmt.Errorf("proposal %d: %w", id, err))
			continue
		}
		if closed {
			closedCount++
		}
	}
	return closedCount, errors.Join(errs...)
}

func (s *ProposalService) notifyStatus(p *models.Proposal) {
	if s.notifier == nil {
		return
	}
	s.notifier.SendExternal(EventStatus,
		fmt.Sprintf("Proposal #%d is now %s", p.ID, p.Status),
		p.Title)
}

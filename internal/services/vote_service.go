package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/transparencity/backend/internal/logger"
	"github.com/transparencity/backend/internal/metrics"
	"github.com/transparencity/backend/internal/models"
	"github.com/transparencity/backend/internal/util"
)

const maxReasonLength = 2000

// VoteService is the ledger of ballots. Each ballot and its tally change commit together.
type VoteService struct {
	db        *gorm.DB
	audit     *AuditService
	verifier  IdentityVerifier
	proposals *ProposalService
	now       func() time.Time
}

func NewVoteService(db *gorm.DB, audit *AuditService, verifier IdentityVerifier, proposals *ProposalService) *VoteService {
	return &VoteService{
		db:        db,
		audit:     audit,
		verifier:  verifier,
		proposals: proposals,
		now:       time.Now,
	}
}

func cleanReason(reason string) (string, error) {
	reason = util.SanitizePlain(reason)
	if len(reason) > maxReasonLength {
		return "", validationError(fmt.Sprintf("reason must be at most %d bytes", maxReasonLength))
	}
	return reason, nil
}

// CastVote records actor's ballot on a proposal in voting. A ballot arriving after the
// deadline closes the vote and fails with ErrVotingClosed.
func (s *VoteService) CastVote(ctx context.Context, actor Actor, proposalID uint, rawChoice, reason string) (*models.Vote, error) {
	if err := requireVerified(ctx, s.verifier, actor.UserID); err != nil {
		return nil, err
	}
	choice, ok := models.ParseChoice(rawChoice)
	if !ok {
		return nil, ErrInvalidChoice
	}
	reason, err := cleanReason(reason)
	if err != nil {
		return nil, err
	}

	vote := &models.Vote{
		ProposalID: proposalID,
		VoterID:    actor.UserID,
		Choice:     choice,
		Reason:     reason,
	}
	expired := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := loadProposal(tx, proposalID)
		if err != nil {
			return err
		}
		now := s.now()
		if p.VotingExpired(now) {
			expired = true
			return ErrVotingClosed
		}
		if !p.VotingOpen(now) {
			return ErrVotingClosed
		}

		var existing int64
		if err := tx.Model(&models.Vote{}).
			Where("proposal_id = ? AND voter_id = ?", proposalID, actor.UserID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyVoted
		}

		if err := tx.Create(vote).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyVoted
			}
			return fmt.Errorf("create vote: %w", err)
		}
		if err := incrementTally(tx, proposalID, choice, 1); err != nil {
			return err
		}
		_, err = s.audit.appendTx(tx, actor.String(), &proposalID, models.ActionVoteCast, string(choice))
		return err
	})
	if expired {
		s.closeIfExpired(proposalID)
	}
	if err != nil {
		return nil, err
	}

	metrics.IncVoteCast(string(choice))
	logger.WithProposal(proposalID).WithField("voter", actor.String()).Debug("vote cast")
	s.closeIfExpired(proposalID)
	return vote, nil
}

// UpdateVote changes the choice on an existing ballot while voting is open. Only the
// original voter may change it. The old bucket is decremented and the new one incremented.
func (s *VoteService) UpdateVote(ctx context.Context, actor Actor, voteID uint, rawChoice, reason string) (*models.Vote, error) {
	choice, ok := models.ParseChoice(rawChoice)
	if !ok {
		return nil, ErrInvalidChoice
	}
	reason, err := cleanReason(reason)
	if err != nil {
		return nil, err
	}

	var vote models.Vote
	var previous models.VoteChoice
	expired := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&vote, voteID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVoteNotFound
			}
			return err
		}
		if vote.VoterID != actor.UserID {
			return ErrUnauthorized
		}
		p, err := loadProposal(tx, vote.ProposalID)
		if err != nil {
			return err
		}
		now := s.now()
		if p.VotingExpired(now) {
			expired = true
			return ErrVotingClosed
		}
		if !p.VotingOpen(now) {
			return ErrVotingClosed
		}

		previous = vote.Choice
		if previous != choice {
			if err := incrementTally(tx, vote.ProposalID, previous, -1); err != nil {
				return err
			}
			if err := incrementTally(tx, vote.ProposalID, choice, 1); err != nil {
				return err
			}
		}
		vote.Choice = choice
		vote.Reason = reason
		if err := tx.Model(&vote).Updates(map[string]interface{}{"choice": choice, "reason": reason}).Error; err != nil {
			return fmt.Errorf("update vote: %w", err)
		}
		_, err = s.audit.appendTx(tx, actor.String(), &vote.ProposalID, models.ActionVoteUpdated, fmt.Sprintf("%s->%s", previous, choice))
		return err
	})
	if expired {
		s.closeIfExpired(vote.ProposalID)
	}
	if err != nil {
		return nil, err
	}

	metrics.IncVoteChanged()
	return &vote, nil
}

// GetTally returns the counts for a proposal.
func (s *VoteService) GetTally(proposalID uint) (models.VoteTally, error) {
	p, err := loadProposal(s.db, proposalID)
	if err != nil {
		return models.VoteTally{}, err
	}
	return p.Tally(), nil
}

// ListVotes returns every ballot on a proposal in the order cast.
func (s *VoteService) ListVotes(proposalID uint) ([]models.Vote, error) {
	if _, err := loadProposal(s.db, proposalID); err != nil {
		return nil, err
	}
	votes := []models.Vote{}
	if err := s.db.Where("proposal_id = ?", proposalID).Order("id asc").Find(&votes).Error; err != nil {
		return nil, err
	}
	return votes, nil
}

// GetVoterVote returns voterID's ballot on a proposal.
func (s *VoteService) GetVoterVote(proposalID, voterID uint) (*models.Vote, error) {
	var vote models.Vote
	err := s.db.Where("proposal_id = ? AND voter_id = ?", proposalID, voterID).First(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVoteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

func incrementTally(tx *gorm.DB, proposalID uint, choice models.VoteChoice, delta int) error {
	col := choice.CountColumn()
	result := tx.Model(&models.Proposal{}).
		Where("id = ?", proposalID).
		UpdateColumn(col, gorm.Expr(col+" + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("update tally: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProposalNotFound
	}
	return nil
}

func (s *VoteService) closeIfExpired(proposalID uint) {
	if s.proposals == nil {
		return
	}
	if _, _, err := s.proposals.CheckAndCloseVoting(proposalID); err != nil && !errors.Is(err, ErrNotFound) {
		logger.WithProposal(proposalID).WithError(err).Warn("failed to close expired vote")
	}
}

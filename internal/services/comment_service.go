package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/transparencity/backend/internal/logger"
	"github.com/transparencity/backend/internal/models"
	"github.com/transparencity/backend/internal/util"
)

const maxCommentLength = 5000

// CommentService handles threaded discussion. Replies reference their parent by id and
// threads are rebuilt from an adjacency list on read.
type CommentService struct {
	db       *gorm.DB
	audit    *AuditService
	verifier IdentityVerifier
}

func NewCommentService(db *gorm.DB, audit *AuditService, verifier IdentityVerifier) *CommentService {
	return &CommentService{db: db, audit: audit, verifier: verifier}
}

// Create adds a comment to a proposal, optionally as a reply to parentID.
func (s *CommentService) Create(ctx context.Context, actor Actor, proposalID uint, body string, parentID *uint) (*models.Comment, error) {
	if err := requireVerified(ctx, s.verifier, actor.UserID); err != nil {
		return nil, err
	}
	body = util.SanitizeContent(body)
	if body == "" {
		return nil, validationError("comment body is required")
	}
	if len(body) > maxCommentLength {
		return nil, validationError(fmt.Sprintf("comment must be at most %d bytes", maxCommentLength))
	}

	comment := &models.Comment{
		ProposalID:      proposalID,
		AuthorID:        actor.UserID,
		ParentCommentID: parentID,
		Body:            body,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadProposal(tx, proposalID); err != nil {
			return err
		}
		if parentID != nil {
			var parent models.Comment
			if err := tx.Select("id", "proposal_id").First(&parent, *parentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrCommentNotFound
				}
				return err
			}
			if parent.ProposalID != proposalID {
				return validationError("parent comment belongs to another proposal")
			}
		}
		if err := tx.Create(comment).Error; err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		_, err := s.audit.appendTx(tx, actor.String(), &proposalID, models.ActionCommentAdded, fmt.Sprintf("comment:%d", comment.ID))
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.WithProposal(proposalID).WithField("comment_id", comment.ID).Debug("comment added")
	return comment, nil
}

// Thread returns the proposal's top-level comments with their replies nested beneath them,
// each level ordered by creation.
func (s *CommentService) Thread(proposalID uint) ([]*models.CommentNode, error) {
	if _, err := loadProposal(s.db, proposalID); err != nil {
		return nil, err
	}
	var comments []models.Comment
	if err := s.db.Where("proposal_id = ?", proposalID).Order("created_at asc, id asc").Find(&comments).Error; err != nil {
		return nil, err
	}
	return buildThread(comments), nil
}

func buildThread(comments []models.Comment) []*models.CommentNode {
	nodes := make(map[uint]*models.CommentNode, len(comments))
	for i := range comments {
		nodes[comments[i].ID] = &models.CommentNode{Comment: comments[i], Replies: []*models.CommentNode{}}
	}
	roots := []*models.CommentNode{}
	for i := range comments {
		node := nodes[comments[i].ID]
		if pid := comments[i].ParentCommentID; pid != nil {
			if parent, ok := nodes[*pid]; ok {
				parent.Replies = append(parent.Replies, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// Replies returns the direct replies to a comment.
func (s *CommentService) Replies(commentID uint) ([]models.Comment, error) {
	var parent models.Comment
	if err := s.db.Select("id").First(&parent, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	replies := []models.Comment{}
	if err := s.db.Where("parent_comment_id = ?", commentID).Order("created_at asc, id asc").Find(&replies).Error; err != nil {
		return nil, err
	}
	return replies, nil
}

package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrProposalNotFound  = fmt.Errorf("proposal %w", ErrNotFound)
	ErrVoteNotFound      = fmt.Errorf("vote %w", ErrNotFound)
	ErrCommentNotFound   = fmt.Errorf("comment %w", ErrNotFound)
	ErrResponseNotFound  = fmt.Errorf("official response %w", ErrNotFound)
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)
	ErrProviderNotFound  = fmt.Errorf("notification provider %w", ErrNotFound)
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotVerified       = fmt.Errorf("%w: identity not verified", ErrUnauthorized)
	ErrAlreadyVoted      = errors.New("already voted on this proposal")
	ErrVotingClosed      = errors.New("voting is closed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDuplicateResponse = errors.New("proposal already has an official response")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidCategory   = fmt.Errorf("%w: invalid category", ErrValidation)
	ErrInvalidChoice     = fmt.Errorf("%w: invalid vote choice", ErrValidation)
	ErrInvalidStatus     = fmt.Errorf("%w: invalid status", ErrValidation)
	ErrInvalidRange      = fmt.Errorf("%w: invalid range", ErrValidation)
	ErrEmailTaken        = errors.New("email already registered")
)

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// isUniqueViolation matches both the translated GORM error and the raw SQLite message,
// since error translation depends on how the handle was opened.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

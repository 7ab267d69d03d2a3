package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/transparencity/backend/internal/logger"
	"github.com/transparencity/backend/internal/models"
)

// VerificationInvalidator is implemented by verifiers that cache answers.
type VerificationInvalidator interface {
	Invalidate(ctx context.Context, userID uint) error
}

// UserService manages accounts and the identity verification flag that gates voting and
// authoring.
type UserService struct {
	db          *gorm.DB
	audit       *AuditService
	invalidator VerificationInvalidator
	now         func() time.Time
}

func NewUserService(db *gorm.DB, audit *AuditService, invalidator VerificationInvalidator) *UserService {
	return &UserService{db: db, audit: audit, invalidator: invalidator, now: time.Now}
}

func (s *UserService) List() ([]models.User, error) {
	users := []models.User{}
	if err := s.db.Order("id asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *UserService) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Verify marks userID as identity-verified.
func (s *UserService) Verify(ctx context.Context, actor Actor, userID uint) (*models.User, error) {
	return s.SetVerified(ctx, actor, userID, true)
}

// SetVerified grants or revokes identity verification. Admin only; every change is audited.
func (s *UserService) SetVerified(ctx context.Context, actor Actor, userID uint, verified bool) (*models.User, error) {
	if !actor.IsAdmin() {
		return nil, ErrUnauthorized
	}

	var user *models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := tx.First(&u, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		updates := map[string]interface{}{"verified": verified, "verified_at": nil}
		u.Verified = verified
		u.VerifiedAt = nil
		if verified {
			now := s.now()
			updates["verified_at"] = now
			u.VerifiedAt = &now
		}
		if err := tx.Model(&u).Updates(updates).Error; err != nil {
			return err
		}
		user = &u
		_, err := s.audit.appendTx(tx, actor.String(), nil, models.ActionUserVerified,
			fmt.Sprintf("%s verified=%t", UserActor(userID), verified))
		return err
	})
	if err != nil {
		return nil, err
	}

	if !verified && s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, userID); err != nil {
			logger.Log().WithError(err).WithField("user_id", userID).Warn("failed to invalidate cached verification")
		}
	}
	logger.Log().WithField("user_id", userID).WithField("verified", verified).Info("user verification changed")
	return user, nil
}

// PromoteAdmin grants the admin role to the account with the given email. It backs the
// operator CLI and is not exposed over HTTP.
func (s *UserService) PromoteAdmin(email string) (*models.User, error) {
	user, err := s.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(user).Update("role", models.RoleAdmin).Error; err != nil {
		return nil, err
	}
	user.Role = models.RoleAdmin
	return user, nil
}

// GetByEmail looks an account up by its normalised email address.
func (s *UserService) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/transparencity/backend/internal/cache"
	"github.com/transparencity/backend/internal/logger"
	"github.com/transparencity/backend/internal/models"
)

// IdentityVerifier answers whether an account has passed identity verification.
type IdentityVerifier interface {
	IsVerified(ctx context.Context, userID uint) (bool, error)
}

// DBVerifier reads the verification flag from the users table.
type DBVerifier struct {
	db *gorm.DB
}

func NewDBVerifier(db *gorm.DB) *DBVerifier {
	return &DBVerifier{db: db}
}

func (v *DBVerifier) IsVerified(ctx context.Context, userID uint) (bool, error) {
	var user models.User
	err := v.db.WithContext(ctx).Select("id", "verified", "enabled").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup verification: %w", err)
	}
	return user.Verified && user.Enabled, nil
}

// VerificationCache is the key/value surface CachedVerifier needs; *cache.Client implements it.
type VerificationCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CachedVerifier fronts another verifier with a cache. Only positive answers are cached so a
// freshly verified citizen can act immediately; Invalidate drops an entry on revocation.
// Cache failures fall through to the underlying verifier.
type CachedVerifier struct {
	next  IdentityVerifier
	cache VerificationCache
	ttl   time.Duration
}

func NewCachedVerifier(next IdentityVerifier, c VerificationCache, ttl time.Duration) *CachedVerifier {
	return &CachedVerifier{next: next, cache: c, ttl: ttl}
}

func verificationKey(userID uint) string {
	return "verified:" + strconv.FormatUint(uint64(userID), 10)
}

func (v *CachedVerifier) IsVerified(ctx context.Context, userID uint) (bool, error) {
	key := verificationKey(userID)
	val, err := v.cache.Get(ctx, key)
	switch {
	case err == nil && val == "1":
		return true, nil
	case err != nil && !errors.Is(err, cache.ErrMiss):
		logger.Log().WithError(err).Warn("verification cache unavailable")
	}

	ok, err := v.next.IsVerified(ctx, userID)
	if err != nil || !ok {
		return ok, err
	}
	if err := v.cache.Set(ctx, key, "1", v.ttl); err != nil {
		logger.Log().WithError(err).Debug("failed to cache verification")
	}
	return true, nil
}

// Invalidate removes a cached answer.
func (v *CachedVerifier) Invalidate(ctx context.Context, userID uint) error {
	return v.cache.Delete(ctx, verificationKey(userID))
}

func requireVerified(ctx context.Context, verifier IdentityVerifier, userID uint) error {
	ok, err := verifier.IsVerified(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotVerified
	}
	return nil
}

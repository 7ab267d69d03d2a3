package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/transparencity/backend/internal/config"
	"github.com/transparencity/backend/internal/logger"
	"github.com/transparencity/backend/internal/models"
	"github.com/transparencity/backend/internal/util"
)

const (
	maxFailedLogins   = 5
	minPasswordLength = 8
	lockoutDuration   = 15 * time.Minute
	tokenLifetime     = 24 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidToken       = errors.New("invalid token")
)

type AuthService struct {
	db     *gorm.DB
	config config.Config
	now    func() time.Time
}

func NewAuthService(db *gorm.DB, cfg config.Config) *AuthService {
	return &AuthService{db: db, config: cfg, now: time.Now}
}

type Claims struct {
	UserID uint        `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Register creates a citizen account. The very first account becomes a verified admin so a
// fresh deployment can bootstrap itself.
func (s *AuthService) Register(email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, validationError("email is required")
	}
	if err := checkPasswordLength(password); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return nil, err
	}

	user := &models.User{
		Email:   email,
		Name:    util.SanitizePlain(name),
		Role:    models.RoleCitizen,
		Enabled: true,
	}
	if count == 0 {
		now := s.now()
		user.Role = models.RoleAdmin
		user.Verified = true
		user.VerifiedAt = &now
	}
	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	logger.Log().WithField("user_id", user.ID).WithField("role", user.Role).Info("user registered")
	return user, nil
}

// Login checks credentials and returns a signed token. Repeated failures lock the account.
func (s *AuthService) Login(email, password string) (string, error) {
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	if user.IsLocked(now) {
		return "", ErrAccountLocked
	}
	if !user.Enabled {
		return "", ErrAccountDisabled
	}

	if !user.CheckPassword(password) {
		user.FailedLoginAttempts++
		updates := map[string]interface{}{"failed_login_attempts": user.FailedLoginAttempts}
		if user.FailedLoginAttempts >= maxFailedLogins {
			until := now.Add(lockoutDuration)
			updates["locked_until"] = until
			logger.Log().WithField("user_id", user.ID).Warn("account locked after repeated failed logins")
		}
		if err := s.db.Model(&user).Updates(updates).Error; err != nil {
			logger.Log().WithError(err).WithField("user_id", user.ID).Error("failed to record failed login")
			return "", fmt.Errorf("record failed login: %w", err)
		}
		return "", ErrInvalidCredentials
	}

	if err := s.db.Model(&user).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login":            now,
	}).Error; err != nil {
		logger.Log().WithError(err).WithField("user_id", user.ID).Error("failed to reset login counters")
		return "", fmt.Errorf("reset login counters: %w", err)
	}
	return s.GenerateToken(&user)
}

func (s *AuthService) GenerateToken(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UUID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
			Issuer:    "transparencity",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(oldPassword) {
		return ErrInvalidCredentials
	}
	if err := checkPasswordLength(newPassword); err != nil {
		return err
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	return s.db.Model(user).Update("password_hash", user.PasswordHash).Error
}

// ResetPassword sets a new password for the account with the given email and clears any
// lockout. It backs the operator CLI and is not exposed over HTTP.
func (s *AuthService) ResetPassword(email, newPassword string) (*models.User, error) {
	if err := checkPasswordLength(newPassword); err != nil {
		return nil, err
	}
	var user models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if err := user.SetPassword(newPassword); err != nil {
		return nil, err
	}
	err := s.db.Model(&user).Updates(map[string]interface{}{
		"password_hash":         user.PasswordHash,
		"failed_login_attempts": 0,
		"locked_until":          nil,
	}).Error
	if err != nil {
		return nil, err
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	return &user, nil
}

func checkPasswordLength(password string) error {
	if len(password) < minPasswordLength {
		return validationError(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}

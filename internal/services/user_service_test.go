package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transparencity/backend/internal/models"
)

type recordingInvalidator struct {
	ids []uint
}

func (r *recordingInvalidator) Invalidate(_ context.Context, userID uint) error {
	r.ids = append(r.ids, userID)
	return nil
}

func TestUserService_Verify(t *testing.T) {
	db := setupTestDB(t)
	audit := NewAuditService(db)
	inv := &recordingInvalidator{}
	svc := NewUserService(db, audit, inv)
	ctx := context.Background()

	u := &models.User{Email: "resident@example.com", Name: "Resident", Role: models.RoleCitizen, Enabled: true}
	require.NoError(t, db.Create(u).Error)

	_, err := svc.Verify(ctx, Actor{UserID: u.ID, Role: models.RoleCitizen}, u.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	adminActor := Actor{UserID: 100, Role: models.RoleAdmin}
	got, err := svc.Verify(ctx, adminActor, u.ID)
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.NotNil(t, got.VerifiedAt)

	ok, err := NewDBVerifier(db).IsVerified(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	records, err := audit.GetByActor(adminActor.String())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.ActionUserVerified, records[0].Action)
	assert.Nil(t, records[0].ProposalID)

	revoked, err := svc.SetVerified(ctx, adminActor, u.ID, false)
	require.NoError(t, err)
	assert.False(t, revoked.Verified)
	assert.Nil(t, revoked.VerifiedAt)
	assert.Equal(t, []uint{u.ID}, inv.ids)

	_, err = svc.Verify(ctx, adminActor, 4242)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_ListAndPromote(t *testing.T) {
	db := setupTestDB(t)
	svc := NewUserService(db, NewAuditService(db), nil)

	require.NoError(t, db.Create(&models.User{Email: "a@example.com", Role: models.RoleCitizen}).Error)
	require.NoError(t, db.Create(&models.User{Email: "b@example.com", Role: models.RoleCitizen}).Error)

	users, err := svc.List()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a@example.com", users[0].Email)

	promoted, err := svc.PromoteAdmin(" B@example.com ")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	stored, err := svc.GetByID(promoted.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin())

	_, err = svc.PromoteAdmin("missing@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = svc.GetByID(77)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

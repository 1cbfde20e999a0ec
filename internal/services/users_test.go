package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/verto-app/verto/internal/errs"
	"golang.org/x/crypto/bcrypt"
)

func TestUserService_Create(t *testing.T) {
	db := getTestDatabase(t)
	svc := NewUserService(db)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user, err := svc.Create("jane@example.com", string(hash))
	require.NoError(t, err)
	require.Equal(t, "jane", user.DisplayName)

	_, err = svc.Create("jane@example.com", string(hash))
	require.ErrorIs(t, err, errs.ErrEmailTaken)
}

func TestUserService_FindByEmail_MissingIsNil(t *testing.T) {
	db := getTestDatabase(t)
	svc := NewUserService(db)

	user, err := svc.FindByEmail("nobody@example.com")
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestUserService_UpdateProfile(t *testing.T) {
	db := getTestDatabase(t)
	svc := NewUserService(db)

	user := createTestUser(t, db, "jane@example.com")

	name := "  Jane Doe  "
	title := "Release manager"

	profile, err := svc.UpdateProfile(user.ID, ProfileUpdate{
		DisplayName: &name,
		JobTitle:    &title,
	})
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", profile.DisplayName)
	require.Equal(t, "Release manager", profile.JobTitle)

	_, err = svc.UpdateProfile(9999, ProfileUpdate{DisplayName: &name})
	require.ErrorIs(t, err, errs.ErrUserNotFound)
}

func TestUserService_UpdatePassword(t *testing.T) {
	db := getTestDatabase(t)
	svc := NewUserService(db)

	user := createTestUser(t, db, "jane@example.com")

	_, err := svc.UpdatePassword(user.ID, "wrong-password", "new-password-1")
	require.ErrorIs(t, err, errs.ErrWrongPassword)

	_, err = svc.UpdatePassword(user.ID, "password123", "new-password-1")
	require.NoError(t, err)

	refreshed, err := svc.FindByID(user.ID)
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(refreshed.PasswordHash), []byte("new-password-1")))
}

package services

import (
	"testing"

	"icebreaker-backend/internal/apperr"

	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, "test-secret")

	token, user, err := svc.Register("alice@example.com", "alice", "Alice", "s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, "Alice", user.DisplayName)
	require.NotEqual(t, "s3cret", user.PasswordHash)

	token, logged, err := svc.Login("alice@example.com", "s3cret")
	require.NoError(t, err)
	require.Equal(t, user.ID, logged.ID)

	userID, err := svc.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)
}

func TestRegisterDuplicate(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, "test-secret")

	_, _, err := svc.Register("alice@example.com", "alice", "", "pw")
	require.NoError(t, err)

	_, _, err = svc.Register("alice@example.com", "alice2", "", "pw")
	require.ErrorIs(t, err, apperr.ErrConflict)

	_, _, err = svc.Register("other@example.com", "alice", "", "pw")
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegisterDisplayNameFallback(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, "test-secret")

	_, user, err := svc.Register("bob@example.com", "bob", "", "pw")
	require.NoError(t, err)
	require.Equal(t, "bob", user.DisplayName)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, "test-secret")

	_, _, err := svc.Register("alice@example.com", "alice", "", "pw")
	require.NoError(t, err)

	_, _, err = svc.Login("alice@example.com", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("nobody@example.com", "pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, "test-secret")

	_, user, err := svc.Register("alice@example.com", "alice", "Alice", "pw")
	require.NoError(t, err)

	got, err := svc.GetUser(user.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.Equal(t, "Alice", got.DisplayName)

	_, err = svc.GetUser(9999)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, "test-secret")
	other := NewAuthService(db, "different-secret")

	token, _, err := svc.Register("alice@example.com", "alice", "", "pw")
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	require.Error(t, err)
}

package service

import (
	"context"
	"testing"
	"time"

	"storefront/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth() (*AuthService, *memoryValues) {
	values := newMemoryValues()
	return NewAuthService(newFakeUsers(), values, "test-secret", time.Hour), values
}

func TestSignUpAndSignIn(t *testing.T) {
	auth, _ := newTestAuth()
	ctx := context.Background()

	user, token, err := auth.SignUp(ctx, " Priya@Example.com ", "secret1", "Priya Nair", "9000000001")
	require.NoError(t, err)
	assert.Equal(t, "priya@example.com", user.Email)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	current, err := auth.CurrentUser(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, current.ID)

	_, token, err = auth.SignIn(ctx, "priya@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestSignUpValidation(t *testing.T) {
	auth, _ := newTestAuth()
	ctx := context.Background()

	_, _, err := auth.SignUp(ctx, "priya@example.com", "12345", "Priya", "")
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, _, err = auth.SignUp(ctx, "not-an-email", "secret1", "Priya", "")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, _, err = auth.SignUp(ctx, "priya@example.com", "secret1", "Priya", "")
	require.NoError(t, err)
	_, _, err = auth.SignUp(ctx, "priya@example.com", "secret2", "Priya", "")
	assert.ErrorIs(t, err, store.ErrEmailTaken)
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	auth, _ := newTestAuth()
	ctx := context.Background()
	_, _, err := auth.SignUp(ctx, "priya@example.com", "secret1", "Priya", "")
	require.NoError(t, err)

	_, _, err = auth.SignIn(ctx, "priya@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = auth.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignOutRevokesToken(t *testing.T) {
	auth, _ := newTestAuth()
	ctx := context.Background()
	_, token, err := auth.SignUp(ctx, "priya@example.com", "secret1", "Priya", "")
	require.NoError(t, err)

	require.NoError(t, auth.SignOut(ctx, token))
	_, err = auth.CurrentUser(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.NoError(t, auth.SignOut(ctx, "garbage"))
}

func TestCurrentUserRejectsForeignToken(t *testing.T) {
	auth, values := newTestAuth()
	other := NewAuthService(newFakeUsers(), values, "other-secret", time.Hour)
	_, token, err := other.SignUp(context.Background(), "priya@example.com", "secret1", "Priya", "")
	require.NoError(t, err)

	_, err = auth.CurrentUser(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUpdatePassword(t *testing.T) {
	auth, _ := newTestAuth()
	ctx := context.Background()
	user, _, err := auth.SignUp(ctx, "priya@example.com", "secret1", "Priya", "")
	require.NoError(t, err)

	assert.ErrorIs(t, auth.UpdatePassword(ctx, user.ID, "short"), ErrWeakPassword)
	require.NoError(t, auth.UpdatePassword(ctx, user.ID, "secret2"))

	_, _, err = auth.SignIn(ctx, "priya@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = auth.SignIn(ctx, "priya@example.com", "secret2")
	assert.NoError(t, err)
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"pfotencard-backend/internal/database"
	"pfotencard-backend/internal/models"
	"pfotencard-backend/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginUser(t *testing.T) {
	t.Setenv("JWT_SECRET", "test_secret")
	setupTestDB()
	user := seedUser("kunde@example.com", models.RoleCustomer, 0)

	token, loggedIn, err := LoginUser("KUNDE@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims, err := utils.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, float64(user.ID), claims["user_id"])
	assert.Equal(t, "kunde", claims["role"])
	assert.Equal(t, "kunde@example.com", claims["sub"])

	_, _, err = LoginUser("kunde@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = LoginUser("nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, database.DB.Model(&user).Update("is_active", false).Error)
	_, _, err = LoginUser("kunde@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInactiveUser)
}

func TestRegisterUser(t *testing.T) {
	setupTestDB()
	idp := newRecordingIdentityProvider()

	user, err := RegisterUser(context.Background(), RegisterInput{Email: "neu@example.com", Password: "secret123", Name: "Neu"}, idp)
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.True(t, user.IsActive)
	assert.Equal(t, []string{"neu@example.com"}, idp.created)

	stored, err := FindUserByEmail("neu@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.AuthID)
	assert.Equal(t, "auth-neu@example.com", *stored.AuthID)

	_, err = RegisterUser(context.Background(), RegisterInput{Email: "neu@example.com", Password: "x"}, idp)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestRegisterUserSurvivesProviderFailure(t *testing.T) {
	setupTestDB()
	idp := newRecordingIdentityProvider()
	idp.err = errors.New("provider down")

	user, err := RegisterUser(context.Background(), RegisterInput{Email: "neu@example.com", Password: "secret123", Name: "Neu"}, idp)
	require.NoError(t, err)
	assert.Nil(t, user.AuthID)
}

func TestEnsureAdmin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test_secret")
	setupTestDB()

	require.NoError(t, EnsureAdmin("admin@example.com", "secret123", ""))
	require.NoError(t, EnsureAdmin("admin@example.com", "other", ""))
	require.NoError(t, EnsureAdmin("", "", ""))

	var count int64
	database.DB.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)

	_, admin, err := LoginUser("admin@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
}

func TestDenylist(t *testing.T) {
	mr := setupTestRedis()
	defer mr.Close()
	defer func() { database.RedisClient = nil }()

	listed, err := IsDenylisted("token-a")
	require.NoError(t, err)
	assert.False(t, listed)

	require.NoError(t, AddToDenylist("token-a", time.Minute))
	listed, err = IsDenylisted("token-a")
	require.NoError(t, err)
	assert.True(t, listed)

	mr.FastForward(2 * time.Minute)
	listed, err = IsDenylisted("token-a")
	require.NoError(t, err)
	assert.False(t, listed)
}

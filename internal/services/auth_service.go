package services

import (
	"context"
	"errors"

	"pfotencard-backend/internal/database"
	"pfotencard-backend/internal/models"
	"pfotencard-backend/internal/utils"
	"pfotencard-backend/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// RegisterUser creates an active customer account. The identity provider account is
// created best effort; its id is stored when available.
func RegisterUser(ctx context.Context, input RegisterInput, idp IdentityProvider) (*models.User, error) {
	user, err := CreateUser(CreateUserInput{
		Email:    input.Email,
		Name:     input.Name,
		Phone:    input.Phone,
		Password: input.Password,
		Role:     models.RoleCustomer,
		IsActive: true,
	}, 0)
	if err != nil {
		return nil, err
	}

	if idp == nil {
		return user, nil
	}

	authID, err := idp.CreateUser(ctx, user.Email, input.Password, user.Name)
	if err != nil {
		logger.Log.Warn("identity provider create failed", zap.String("email", user.Email), zap.Error(err))
		return user, nil
	}
	if authID != "" {
		if err := database.DB.Model(user).Update("auth_id", authID).Error; err != nil {
			logger.Log.Warn("storing identity provider id failed", zap.Uint("user_id", user.ID), zap.Error(err))
		} else {
			invalidateUserCache(user.ID)
		}
	}
	return user, nil
}

// LoginUser checks the credentials and issues an access token.
func LoginUser(email, password string) (string, *models.User, error) {
	user, err := FindUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, ErrInactiveUser
	}

	token, err := utils.GenerateToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

// EnsureAdmin creates the initial administrator when no user with that email exists.
func EnsureAdmin(email, password, name string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := FindUserByEmail(email); err == nil {
		return nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}
	if name == "" {
		name = "Administrator"
	}
	_, err := CreateUser(CreateUserInput{
		Email:    email,
		Name:     name,
		Password: password,
		Role:     models.RoleAdmin,
		IsActive: true,
	}, 0)
	if err == nil {
		logger.Log.Info("initial admin created", zap.String("email", email))
	}
	return err
}
